package question

import (
	"strings"
	"testing"
)

const validPayload = `{
  "question": "What is a goroutine?",
  "options": ["A) A lightweight thread", "B) An OS process", "C) A channel", "D) A mutex"],
  "correctAnswer": "A",
  "explanation": "Goroutines are scheduled by the Go runtime.",
  "difficulty": "medium"
}`

func TestParsePayload(t *testing.T) {
	q, err := parsePayload(validPayload)
	if err != nil {
		t.Fatalf("parsePayload: %v", err)
	}
	if q.Text != "What is a goroutine?" {
		t.Errorf("Text = %q", q.Text)
	}
	if len(q.Options) != 4 {
		t.Fatalf("options = %d, want 4", len(q.Options))
	}
	if q.Options[0].Key != "A" || q.Options[0].Text != "A lightweight thread" {
		t.Errorf("option[0] = %+v", q.Options[0])
	}
	if q.CorrectOption != "A" {
		t.Errorf("CorrectOption = %q, want A", q.CorrectOption)
	}
	if q.Explanation == "" {
		t.Error("explanation lost")
	}
}

func TestParsePayloadWrappedInProse(t *testing.T) {
	raw := "Sure! Here is your question:\n```json\n" + validPayload + "\n```\nGood luck!"
	q, err := parsePayload(raw)
	if err != nil {
		t.Fatalf("parsePayload: %v", err)
	}
	if q.CorrectOption != "A" {
		t.Errorf("CorrectOption = %q, want A", q.CorrectOption)
	}
}

func TestParsePayloadRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "I could not generate a question."},
		{"truncated json", `{"question": "q", "options": ["A) x"`},
		{"three options", `{"question":"q","options":["A) x","B) y","C) z"],"correctAnswer":"A"}`},
		{"five options", `{"question":"q","options":["A) a","B) b","C) c","D) d","E) e"],"correctAnswer":"A"}`},
		{"empty question", `{"question":"  ","options":["A) a","B) b","C) c","D) d"],"correctAnswer":"A"}`},
		{"correct key not an option", `{"question":"q","options":["A) a","B) b","C) c","D) d"],"correctAnswer":"E"}`},
		{"duplicate keys", `{"question":"q","options":["A) a","A) b","C) c","D) d"],"correctAnswer":"A"}`},
		{"unlabeled option", `{"question":"q","options":["first","B) b","C) c","D) d"],"correctAnswer":"B"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsePayload(tt.raw); err == nil {
				t.Errorf("parsePayload(%q) succeeded, want error", tt.raw)
			}
		})
	}
}

func TestParseOptionLabels(t *testing.T) {
	tests := []struct {
		in       string
		wantKey  string
		wantText string
	}{
		{"A) first option", "A", "first option"},
		{"b) lowercase label", "B", "lowercase label"},
		{"C. dotted label", "C", "dotted label"},
		{"D)tight", "D", "tight"},
	}

	for _, tt := range tests {
		opt, err := parseOption(tt.in)
		if err != nil {
			t.Errorf("parseOption(%q): %v", tt.in, err)
			continue
		}
		if opt.Key != tt.wantKey || opt.Text != tt.wantText {
			t.Errorf("parseOption(%q) = %+v, want {%s %s}", tt.in, opt, tt.wantKey, tt.wantText)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("Python", "hard")
	if !strings.Contains(p, "hard level") {
		t.Error("prompt should name the difficulty")
	}
	if !strings.Contains(p, "Python") {
		t.Error("prompt should name the language")
	}
	if !strings.Contains(p, `"correctAnswer"`) {
		t.Error("prompt should pin the JSON shape")
	}
}
