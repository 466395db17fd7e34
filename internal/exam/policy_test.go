package exam

import (
	"testing"

	"github.com/arjunalabs/arjuna-backend/internal/model"
)

func TestPolicyAdapt(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name    string
		current model.Difficulty
		correct bool
		want    model.Difficulty
	}{
		{"easy up", model.DifficultyEasy, true, model.DifficultyMedium},
		{"medium up", model.DifficultyMedium, true, model.DifficultyHard},
		{"hard saturates up", model.DifficultyHard, true, model.DifficultyHard},
		{"hard down", model.DifficultyHard, false, model.DifficultyMedium},
		{"medium down", model.DifficultyMedium, false, model.DifficultyEasy},
		{"easy saturates down", model.DifficultyEasy, false, model.DifficultyEasy},
		{"unknown unchanged", model.Difficulty("expert"), true, model.Difficulty("expert")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Adapt(tt.current, tt.correct); got != tt.want {
				t.Errorf("Adapt(%s, %v) = %s, want %s", tt.current, tt.correct, got, tt.want)
			}
		})
	}
}

func TestPolicySaturation(t *testing.T) {
	p := DefaultPolicy()

	// N consecutive correct answers from easy never exceed hard.
	d := model.DifficultyEasy
	for i := 0; i < 20; i++ {
		d = p.Adapt(d, true)
	}
	if d != model.DifficultyHard {
		t.Errorf("after 20 correct answers difficulty = %s, want hard", d)
	}

	// Symmetric: N consecutive incorrect answers from hard saturate at easy.
	d = model.DifficultyHard
	for i := 0; i < 20; i++ {
		d = p.Adapt(d, false)
	}
	if d != model.DifficultyEasy {
		t.Errorf("after 20 incorrect answers difficulty = %s, want easy", d)
	}
}
