package question

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arjunalabs/arjuna-backend/internal/model"
)

// Fallback tries a primary source and falls back to a secondary on failure.
// Mirrors the production behavior of serving bank questions whenever the
// generative API errors or returns garbage.
type Fallback struct {
	primary   Source
	secondary Source
	log       zerolog.Logger
}

// NewFallback creates a Fallback source.
func NewFallback(primary, secondary Source, log zerolog.Logger) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		log:       log.With().Str("component", "question_fallback").Logger(),
	}
}

// Fetch returns the primary's question, or the secondary's if the primary
// fails. Context cancellation is not retried against the secondary.
func (f *Fallback) Fetch(ctx context.Context, language string, difficulty model.Difficulty) (*model.Question, error) {
	q, err := f.primary.Fetch(ctx, language, difficulty)
	if err == nil {
		return q, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	f.log.Warn().Err(err).
		Str("language", language).
		Str("difficulty", string(difficulty)).
		Msg("Primary question source failed, using fallback")

	return f.secondary.Fetch(ctx, language, difficulty)
}
