package question

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arjunalabs/arjuna-backend/internal/model"
)

func TestBankServesValidQuestions(t *testing.T) {
	b := NewBank()

	for _, d := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
		q, err := b.Fetch(context.Background(), "Go", d)
		if err != nil {
			t.Fatalf("Fetch(%s): %v", d, err)
		}
		if len(q.Options) != 4 {
			t.Errorf("%s: options = %d, want 4", d, len(q.Options))
		}
		if !q.HasOption(q.CorrectOption) {
			t.Errorf("%s: correct option %q not among options", d, q.CorrectOption)
		}
		if q.Difficulty != d {
			t.Errorf("%s: difficulty = %s", d, q.Difficulty)
		}
	}
}

func TestBankCyclesQuestions(t *testing.T) {
	b := NewBank()
	ctx := context.Background()

	q1, _ := b.Fetch(ctx, "Go", model.DifficultyEasy)
	q2, _ := b.Fetch(ctx, "Go", model.DifficultyEasy)
	if q1.Text == q2.Text {
		t.Error("consecutive fetches should cycle to a different question")
	}
}

type fixedSource struct {
	q   *model.Question
	err error
}

func (s fixedSource) Fetch(context.Context, string, model.Difficulty) (*model.Question, error) {
	return s.q, s.err
}

func TestFallbackPrefersPrimary(t *testing.T) {
	primary := fixedSource{q: &model.Question{Text: "from primary"}}
	secondary := fixedSource{q: &model.Question{Text: "from secondary"}}

	f := NewFallback(primary, secondary, zerolog.Nop())
	q, err := f.Fetch(context.Background(), "Go", model.DifficultyEasy)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Text != "from primary" {
		t.Errorf("got %q, want primary question", q.Text)
	}
}

func TestFallbackOnPrimaryFailure(t *testing.T) {
	primary := fixedSource{err: ErrUnavailable}
	secondary := fixedSource{q: &model.Question{Text: "from secondary"}}

	f := NewFallback(primary, secondary, zerolog.Nop())
	q, err := f.Fetch(context.Background(), "Go", model.DifficultyEasy)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Text != "from secondary" {
		t.Errorf("got %q, want secondary question", q.Text)
	}
}

func TestFallbackBothFail(t *testing.T) {
	f := NewFallback(fixedSource{err: ErrUnavailable}, fixedSource{err: ErrUnavailable}, zerolog.Nop())
	_, err := f.Fetch(context.Background(), "Go", model.DifficultyEasy)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFallbackRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFallback(fixedSource{err: ErrUnavailable}, fixedSource{q: &model.Question{Text: "x"}}, zerolog.Nop())
	if _, err := f.Fetch(ctx, "Go", model.DifficultyEasy); err == nil {
		t.Fatal("cancelled context should not fall back to secondary")
	}
}
