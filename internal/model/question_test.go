package model

import "testing"

func TestParseDifficulty(t *testing.T) {
	for _, valid := range []string{"easy", "medium", "hard"} {
		if _, err := ParseDifficulty(valid); err != nil {
			t.Errorf("ParseDifficulty(%q): %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "EASY", "expert", "Medium"} {
		if _, err := ParseDifficulty(invalid); err == nil {
			t.Errorf("ParseDifficulty(%q) succeeded, want error", invalid)
		}
	}
}

func TestForCandidateStripsGradingFields(t *testing.T) {
	q := Question{
		Text:          "What does a channel do?",
		Options:       []Option{{Key: "A", Text: "x"}, {Key: "B", Text: "y"}},
		CorrectOption: "A",
		Explanation:   "channels synchronize goroutines",
		Difficulty:    DifficultyMedium,
	}

	safe := q.ForCandidate()
	if safe.Text != q.Text || len(safe.Options) != 2 || safe.Difficulty != DifficultyMedium {
		t.Errorf("ForCandidate lost question content: %+v", safe)
	}
}

func TestHasOption(t *testing.T) {
	q := Question{Options: []Option{{Key: "A"}, {Key: "B"}}}
	if !q.HasOption("A") || !q.HasOption("B") {
		t.Error("existing keys not found")
	}
	if q.HasOption("C") || q.HasOption("a") {
		t.Error("HasOption must match keys exactly")
	}
}
