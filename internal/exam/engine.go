package exam

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arjunalabs/arjuna-backend/internal/model"
	"github.com/arjunalabs/arjuna-backend/internal/question"
)

// Engine drives one exam session end-to-end with adaptive difficulty.
// It exclusively owns session mutation; callers must not write to a Session.
//
// The engine performs no internal locking: a single session is driven by one
// caller at a time (the service layer serializes concurrent submits), while
// independent sessions share no mutable state and may proceed concurrently.
type Engine struct {
	source question.Source
	policy Policy
	log    zerolog.Logger
}

// NewEngine creates an Engine backed by the given question source.
func NewEngine(source question.Source, policy Policy, log zerolog.Logger) *Engine {
	return &Engine{
		source: source,
		policy: policy,
		log:    log.With().Str("component", "exam_engine").Logger(),
	}
}

// SubmitResult is the outcome of a graded answer: either the next question
// or, when the session completed, the final report.
type SubmitResult struct {
	Correct       bool
	CorrectOption string
	Explanation   string
	Done          bool
	NextQuestion  *model.Question
	Report        *model.ExamReport
}

// Start creates a new active session and fetches its first question.
// On fetch failure no session is returned: start fails as a whole.
func (e *Engine) Start(ctx context.Context, candidateID int, language string, startingDifficulty model.Difficulty, totalQuestions int) (*model.Session, error) {
	if !startingDifficulty.Valid() {
		return nil, fmt.Errorf("invalid starting difficulty %q", startingDifficulty)
	}
	if totalQuestions <= 0 {
		totalQuestions = e.policy.DefaultTotalQuestions
	}

	first, err := e.source.Fetch(ctx, language, startingDifficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuestionSource, err)
	}

	sess := &model.Session{
		ID:                 uuid.New(),
		CandidateID:        candidateID,
		Language:           language,
		StartingDifficulty: startingDifficulty,
		CurrentDifficulty:  startingDifficulty,
		QuestionIndex:      1,
		TotalQuestions:     totalQuestions,
		History:            make([]model.AnswerRecord, 0, totalQuestions),
		CurrentQuestion:    first,
		Status:             model.SessionStatusActive,
		StartedAt:          time.Now(),
	}

	e.log.Info().
		Str("session_id", sess.ID.String()).
		Str("language", language).
		Str("difficulty", string(startingDifficulty)).
		Int("total_questions", totalQuestions).
		Msg("Session started")

	return sess, nil
}

// SubmitAnswer grades the answer for the session's current question, adapts
// difficulty, and either serves the next question or finalizes the session.
//
// tally and violations are the proctoring aggregator's output for this
// session; the engine merges them into the report but does not own them.
//
// If grading succeeds but the next-question fetch fails, the grading and
// history append are durable and ErrQuestionSource is returned: the caller
// retries the fetch via RefreshQuestion without re-submitting.
func (e *Engine) SubmitAnswer(ctx context.Context, sess *model.Session, questionNumber int, answerKey string, timeTaken int, tally model.CheatTally, violations []model.CheatEvent) (*SubmitResult, error) {
	if sess.Status != model.SessionStatusActive {
		return nil, ErrSessionClosed
	}
	if questionNumber != sess.QuestionIndex {
		return nil, fmt.Errorf("%w: got question %d, current is %d",
			ErrStaleSubmission, questionNumber, sess.QuestionIndex)
	}

	current := sess.CurrentQuestion
	if current == nil {
		// A prior next-question fetch failed; the caller must refresh first.
		return nil, fmt.Errorf("%w: no question pending for index %d",
			ErrQuestionSource, sess.QuestionIndex)
	}
	if !current.HasOption(answerKey) {
		return nil, fmt.Errorf("%w: %q is not an option of question %d",
			ErrInvalidAnswer, answerKey, questionNumber)
	}

	correct := answerKey == current.CorrectOption

	sess.History = append(sess.History, model.AnswerRecord{
		QuestionNumber:   questionNumber,
		DifficultyAsked:  sess.CurrentDifficulty,
		Correct:          correct,
		TimeTakenSeconds: timeTaken,
	})
	sess.CurrentDifficulty = e.policy.Adapt(sess.CurrentDifficulty, correct)

	result := &SubmitResult{
		Correct:       correct,
		CorrectOption: current.CorrectOption,
		Explanation:   current.Explanation,
	}

	if sess.QuestionIndex+1 > sess.TotalQuestions {
		sess.Status = model.SessionStatusCompleted
		sess.CurrentQuestion = nil
		result.Done = true
		result.Report = e.buildReport(sess, tally, violations)

		e.log.Info().
			Str("session_id", sess.ID.String()).
			Int("correct", result.Report.CorrectAnswers).
			Int("cheating_score", result.Report.CheatingScore).
			Msg("Session completed")

		return result, nil
	}

	sess.QuestionIndex++
	sess.CurrentQuestion = nil

	next, err := e.source.Fetch(ctx, sess.Language, sess.CurrentDifficulty)
	if err != nil {
		// Grading above is already committed; only the fetch failed.
		return nil, fmt.Errorf("%w: %v", ErrQuestionSource, err)
	}
	sess.CurrentQuestion = next
	result.NextQuestion = next

	return result, nil
}

// RefreshQuestion re-issues the fetch for the session's current question
// index after a prior ErrQuestionSource. It is a no-op if a question is
// already pending.
func (e *Engine) RefreshQuestion(ctx context.Context, sess *model.Session) (*model.Question, error) {
	if sess.Status != model.SessionStatusActive {
		return nil, ErrSessionClosed
	}
	if sess.CurrentQuestion != nil {
		return sess.CurrentQuestion, nil
	}

	q, err := e.source.Fetch(ctx, sess.Language, sess.CurrentDifficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuestionSource, err)
	}
	sess.CurrentQuestion = q
	return q, nil
}

func (e *Engine) buildReport(sess *model.Session, tally model.CheatTally, violations []model.CheatEvent) *model.ExamReport {
	correct := sess.CorrectCount()

	score := 0.0
	if sess.TotalQuestions > 0 {
		score = float64(correct) / float64(sess.TotalQuestions) * 100
	}

	log := make([]model.CheatEvent, len(violations))
	copy(log, violations)

	return &model.ExamReport{
		SessionID:      sess.ID,
		CandidateID:    sess.CandidateID,
		Language:       sess.Language,
		TotalQuestions: sess.TotalQuestions,
		CorrectAnswers: correct,
		ScorePercent:   score,
		CheatingScore:  tally.CheatingScore,
		ViolationLog:   log,
		History:        append([]model.AnswerRecord(nil), sess.History...),
		CompletedAt:    time.Now(),
	}
}
