package exam

import "github.com/arjunalabs/arjuna-backend/internal/model"

// Policy holds the difficulty adaptation tuning. The one-step ladder matches
// observed production behavior; it is a struct rather than hard-coded logic
// so the step rule can be tuned without touching the engine.
type Policy struct {
	// Ladder orders difficulties from easiest to hardest.
	Ladder []model.Difficulty
	// DefaultTotalQuestions is used when a start request omits the count.
	DefaultTotalQuestions int
}

// DefaultPolicy returns the production policy: easy→medium→hard ladder,
// ten questions per session.
func DefaultPolicy() Policy {
	return Policy{
		Ladder:                []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard},
		DefaultTotalQuestions: 10,
	}
}

// Adapt returns the difficulty for the next question after a graded answer:
// one step up on correct, one step down on incorrect, saturating at the
// ladder ends. Unknown difficulties are returned unchanged.
func (p Policy) Adapt(current model.Difficulty, correct bool) model.Difficulty {
	idx := -1
	for i, d := range p.Ladder {
		if d == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return current
	}

	if correct {
		if idx < len(p.Ladder)-1 {
			idx++
		}
	} else if idx > 0 {
		idx--
	}
	return p.Ladder[idx]
}
