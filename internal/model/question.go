package model

import "fmt"

// Difficulty is the ordered question difficulty scale.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty converts a raw string into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// Option is a single labeled answer choice (key "A".."D" plus text).
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question is one multiple-choice question served to a candidate.
type Question struct {
	Text          string     `json:"question"`
	Options       []Option   `json:"options"`
	CorrectOption string     `json:"correct_option"`
	Explanation   string     `json:"explanation"`
	Difficulty    Difficulty `json:"difficulty"`
}

// HasOption reports whether key is one of the question's option keys.
func (q *Question) HasOption(key string) bool {
	for _, o := range q.Options {
		if o.Key == key {
			return true
		}
	}
	return false
}

// QuestionForCandidate is a question with the answer key and explanation
// stripped, safe to send to the client while the question is live.
type QuestionForCandidate struct {
	Text       string     `json:"question"`
	Options    []Option   `json:"options"`
	Difficulty Difficulty `json:"difficulty"`
}

// ForCandidate strips grading fields from a question.
func (q *Question) ForCandidate() QuestionForCandidate {
	return QuestionForCandidate{
		Text:       q.Text,
		Options:    q.Options,
		Difficulty: q.Difficulty,
	}
}
