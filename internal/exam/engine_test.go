package exam

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arjunalabs/arjuna-backend/internal/model"
	"github.com/arjunalabs/arjuna-backend/internal/question"
)

// stubSource serves deterministic questions and can be told to fail.
type stubSource struct {
	fetches   []model.Difficulty
	failAfter int // fail when len(fetches) reaches this count; 0 = never
}

func (s *stubSource) Fetch(_ context.Context, _ string, difficulty model.Difficulty) (*model.Question, error) {
	if s.failAfter > 0 && len(s.fetches) >= s.failAfter {
		return nil, question.ErrUnavailable
	}
	s.fetches = append(s.fetches, difficulty)
	return &model.Question{
		Text: "stub question",
		Options: []model.Option{
			{Key: "A", Text: "right"},
			{Key: "B", Text: "wrong"},
			{Key: "C", Text: "wrong"},
			{Key: "D", Text: "wrong"},
		},
		CorrectOption: "A",
		Explanation:   "because",
		Difficulty:    difficulty,
	}, nil
}

func newTestEngine(src question.Source) *Engine {
	return NewEngine(src, DefaultPolicy(), zerolog.Nop())
}

func noTally() (model.CheatTally, []model.CheatEvent) {
	return model.CheatTally{Counts: map[model.CheatEventType]int{}}, nil
}

func TestStart(t *testing.T) {
	src := &stubSource{}
	e := newTestEngine(src)

	sess, err := e.Start(context.Background(), 7, "Python", model.DifficultyMedium, 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.QuestionIndex != 1 {
		t.Errorf("QuestionIndex = %d, want 1", sess.QuestionIndex)
	}
	if sess.Status != model.SessionStatusActive {
		t.Errorf("Status = %s, want ACTIVE", sess.Status)
	}
	if sess.CurrentQuestion == nil {
		t.Fatal("CurrentQuestion is nil")
	}
	if got := src.fetches[0]; got != model.DifficultyMedium {
		t.Errorf("first fetch difficulty = %s, want medium", got)
	}
	if sess.ID == uuid.Nil {
		t.Error("session ID not assigned")
	}
}

func TestStartDefaultsTotalQuestions(t *testing.T) {
	e := newTestEngine(&stubSource{})
	sess, err := e.Start(context.Background(), 1, "Go", model.DifficultyEasy, 0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.TotalQuestions != 10 {
		t.Errorf("TotalQuestions = %d, want 10", sess.TotalQuestions)
	}
}

func TestStartSourceFailure(t *testing.T) {
	e := newTestEngine(failingSource{})

	sess, err := e.Start(context.Background(), 1, "Python", model.DifficultyEasy, 5)
	if !errors.Is(err, ErrQuestionSource) {
		t.Fatalf("err = %v, want ErrQuestionSource", err)
	}
	if sess != nil {
		t.Error("no partially-initialized session should be returned")
	}
}

type failingSource struct{}

func (failingSource) Fetch(context.Context, string, model.Difficulty) (*model.Question, error) {
	return nil, question.ErrUnavailable
}

func TestStartInvalidDifficulty(t *testing.T) {
	e := newTestEngine(&stubSource{})
	if _, err := e.Start(context.Background(), 1, "Python", "impossible", 5); err == nil {
		t.Fatal("expected error for invalid difficulty")
	}
}

// TestAdaptiveScenario mirrors the canonical three-question run:
// medium start, correct -> hard, incorrect -> medium, any answer completes.
func TestAdaptiveScenario(t *testing.T) {
	src := &stubSource{}
	e := newTestEngine(src)
	ctx := context.Background()

	sess, err := e.Start(ctx, 7, "Python", model.DifficultyMedium, 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Q1 at medium, answered correctly.
	tally, log := noTally()
	res, err := e.SubmitAnswer(ctx, sess, 1, "A", 12, tally, log)
	if err != nil {
		t.Fatalf("submit q1: %v", err)
	}
	if !res.Correct {
		t.Error("q1 should be correct")
	}
	if sess.CurrentDifficulty != model.DifficultyHard {
		t.Errorf("after correct answer difficulty = %s, want hard", sess.CurrentDifficulty)
	}
	if res.NextQuestion == nil || res.NextQuestion.Difficulty != model.DifficultyHard {
		t.Error("q2 should be served at hard")
	}

	// Q2 at hard, answered incorrectly.
	res, err = e.SubmitAnswer(ctx, sess, 2, "B", 30, tally, log)
	if err != nil {
		t.Fatalf("submit q2: %v", err)
	}
	if res.Correct {
		t.Error("q2 should be incorrect")
	}
	if sess.CurrentDifficulty != model.DifficultyMedium {
		t.Errorf("after incorrect answer difficulty = %s, want medium", sess.CurrentDifficulty)
	}
	if res.NextQuestion == nil || res.NextQuestion.Difficulty != model.DifficultyMedium {
		t.Error("q3 should be served at medium")
	}

	// Q3: any answer completes the session.
	res, err = e.SubmitAnswer(ctx, sess, 3, "C", 5, tally, log)
	if err != nil {
		t.Fatalf("submit q3: %v", err)
	}
	if !res.Done {
		t.Fatal("session should be complete after question 3")
	}
	if sess.Status != model.SessionStatusCompleted {
		t.Errorf("Status = %s, want COMPLETED", sess.Status)
	}
	if res.Report == nil {
		t.Fatal("report missing")
	}
	if res.Report.CorrectAnswers != 1 {
		t.Errorf("CorrectAnswers = %d, want 1", res.Report.CorrectAnswers)
	}
	if res.Report.TotalQuestions != 3 {
		t.Errorf("TotalQuestions = %d, want 3", res.Report.TotalQuestions)
	}
	if len(sess.History) != 3 {
		t.Errorf("history length = %d, want 3", len(sess.History))
	}
}

func TestHistoryLengthInvariant(t *testing.T) {
	src := &stubSource{}
	e := newTestEngine(src)
	ctx := context.Background()

	sess, _ := e.Start(ctx, 1, "Java", model.DifficultyEasy, 5)
	tally, log := noTally()

	for i := 1; i <= 5; i++ {
		if got, want := len(sess.History), sess.QuestionIndex-1; got != want {
			t.Fatalf("before q%d: history length = %d, want %d", i, got, want)
		}
		if _, err := e.SubmitAnswer(ctx, sess, i, "A", 1, tally, log); err != nil {
			t.Fatalf("submit q%d: %v", i, err)
		}
	}
	if len(sess.History) != 5 {
		t.Errorf("history length after completion = %d, want 5", len(sess.History))
	}
}

func TestStaleSubmission(t *testing.T) {
	e := newTestEngine(&stubSource{})
	ctx := context.Background()
	sess, _ := e.Start(ctx, 1, "Python", model.DifficultyMedium, 3)
	tally, log := noTally()

	for _, stale := range []int{0, 2, 99} {
		_, err := e.SubmitAnswer(ctx, sess, stale, "A", 1, tally, log)
		if !errors.Is(err, ErrStaleSubmission) {
			t.Errorf("question_number=%d: err = %v, want ErrStaleSubmission", stale, err)
		}
	}
	if len(sess.History) != 0 {
		t.Errorf("history mutated by stale submission: length = %d", len(sess.History))
	}
	if sess.CurrentDifficulty != model.DifficultyMedium {
		t.Errorf("difficulty mutated by stale submission: %s", sess.CurrentDifficulty)
	}
}

func TestInvalidAnswer(t *testing.T) {
	e := newTestEngine(&stubSource{})
	ctx := context.Background()
	sess, _ := e.Start(ctx, 1, "Python", model.DifficultyMedium, 3)
	tally, log := noTally()

	_, err := e.SubmitAnswer(ctx, sess, 1, "Z", 1, tally, log)
	if !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("err = %v, want ErrInvalidAnswer", err)
	}
	if len(sess.History) != 0 {
		t.Error("history mutated by invalid answer")
	}
}

func TestSubmitOnCompletedSession(t *testing.T) {
	e := newTestEngine(&stubSource{})
	ctx := context.Background()
	sess, _ := e.Start(ctx, 1, "Python", model.DifficultyMedium, 1)
	tally, log := noTally()

	res, err := e.SubmitAnswer(ctx, sess, 1, "A", 1, tally, log)
	if err != nil || !res.Done {
		t.Fatalf("expected completion, res=%+v err=%v", res, err)
	}

	_, err = e.SubmitAnswer(ctx, sess, 2, "A", 1, tally, log)
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("err = %v, want ErrSessionClosed", err)
	}
}

func TestNextFetchFailureKeepsGrading(t *testing.T) {
	// First two fetches succeed (start + next after q1 would be the second);
	// fail the second fetch so grading of q1 commits but q2 never arrives.
	src := &stubSource{failAfter: 1}
	e := newTestEngine(src)
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, "Python", model.DifficultyMedium, 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	tally, log := noTally()
	_, err = e.SubmitAnswer(ctx, sess, 1, "A", 9, tally, log)
	if !errors.Is(err, ErrQuestionSource) {
		t.Fatalf("err = %v, want ErrQuestionSource", err)
	}

	// Grading is durable: history appended, index advanced, difficulty adapted.
	if len(sess.History) != 1 || !sess.History[0].Correct {
		t.Fatalf("grading not committed: history=%+v", sess.History)
	}
	if sess.QuestionIndex != 2 {
		t.Errorf("QuestionIndex = %d, want 2", sess.QuestionIndex)
	}
	if sess.CurrentDifficulty != model.DifficultyHard {
		t.Errorf("difficulty = %s, want hard", sess.CurrentDifficulty)
	}

	// Submitting again without a pending question is a source error, not a grade.
	if _, err := e.SubmitAnswer(ctx, sess, 2, "A", 1, tally, log); !errors.Is(err, ErrQuestionSource) {
		t.Errorf("submit without pending question: err = %v, want ErrQuestionSource", err)
	}

	// Retry succeeds and serves question 2 at the adapted difficulty.
	src.failAfter = 0
	q, err := e.RefreshQuestion(ctx, sess)
	if err != nil {
		t.Fatalf("RefreshQuestion: %v", err)
	}
	if q.Difficulty != model.DifficultyHard {
		t.Errorf("refreshed question difficulty = %s, want hard", q.Difficulty)
	}
	if len(sess.History) != 1 {
		t.Error("refresh must not touch history")
	}

	// Refresh is idempotent while a question is pending.
	q2, err := e.RefreshQuestion(ctx, sess)
	if err != nil || q2 != q {
		t.Error("second refresh should return the pending question unchanged")
	}
}

func TestReportMergesCheatSignals(t *testing.T) {
	e := newTestEngine(&stubSource{})
	ctx := context.Background()
	sess, _ := e.Start(ctx, 1, "Python", model.DifficultyMedium, 1)

	tally := model.CheatTally{
		Counts:        map[model.CheatEventType]int{model.CheatPhoneDetected: 2},
		CheatingScore: 6,
	}
	log := []model.CheatEvent{
		{Type: model.CheatPhoneDetected, Severity: model.SeverityHigh, TimestampMs: 1},
		{Type: model.CheatPhoneDetected, Severity: model.SeverityHigh, TimestampMs: 2},
	}

	res, err := e.SubmitAnswer(ctx, sess, 1, "A", 1, tally, log)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Report.CheatingScore != 6 {
		t.Errorf("CheatingScore = %d, want 6", res.Report.CheatingScore)
	}
	if len(res.Report.ViolationLog) != 2 {
		t.Errorf("ViolationLog length = %d, want 2", len(res.Report.ViolationLog))
	}
	if res.Report.ScorePercent != 100 {
		t.Errorf("ScorePercent = %v, want 100", res.Report.ScorePercent)
	}
}
