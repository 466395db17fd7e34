package question

import (
	"context"
	"errors"

	"github.com/arjunalabs/arjuna-backend/internal/model"
)

// ErrUnavailable indicates the source could not produce a well-formed
// question. Callers may retry the same fetch safely.
var ErrUnavailable = errors.New("question source unavailable")

// Source produces one multiple-choice question for a language/difficulty
// pair. Implementations must return exactly four labeled options with the
// correct-option key among the labels, or fail with an error wrapping
// ErrUnavailable.
type Source interface {
	Fetch(ctx context.Context, language string, difficulty model.Difficulty) (*model.Question, error)
}
