package exam

import "errors"

// Engine errors. All are returned synchronously by the call that detected
// them; none leaves the session in a corrupted state.
var (
	// ErrQuestionSource wraps an upstream fetch or parse failure. Grading
	// already committed is unaffected; the fetch may be retried.
	ErrQuestionSource = errors.New("question source failure")

	// ErrStaleSubmission rejects an answer for a question number that is
	// not the session's current one (duplicate or out-of-order submit).
	ErrStaleSubmission = errors.New("stale submission")

	// ErrInvalidAnswer rejects an answer key that is not among the current
	// question's option keys.
	ErrInvalidAnswer = errors.New("invalid answer key")

	// ErrSessionClosed rejects any operation on a completed session.
	ErrSessionClosed = errors.New("session already completed")
)
