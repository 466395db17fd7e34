package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arjunalabs/arjuna-backend/internal/config"
	"github.com/arjunalabs/arjuna-backend/internal/exam"
	"github.com/arjunalabs/arjuna-backend/internal/model"
	"github.com/arjunalabs/arjuna-backend/internal/proctor"
	"github.com/arjunalabs/arjuna-backend/internal/repository"
)

// Exam service errors.
var (
	ErrSessionNotFound = errors.New("exam session not found")
	ErrNotSessionOwner = errors.New("exam session belongs to another candidate")
	ErrReportNotReady  = errors.New("exam report not available")
)

// sessionTTL bounds how long the Redis ownership keys outlive an exam.
const sessionTTL = 24 * time.Hour

// historyLimit caps the number of past reports returned to a candidate.
const historyLimit = 10

// liveSession pairs an active session with its proctoring aggregator.
// The mutex serializes all operations on one session; independent sessions
// proceed concurrently.
type liveSession struct {
	mu   sync.Mutex
	sess *model.Session
	agg  *proctor.Aggregator
}

// ExamService orchestrates exam sessions: it holds active sessions in
// memory, drives them through the engine, collects proctoring signals, and
// hands finished reports to the persistence queue.
type ExamService struct {
	engine  *exam.Engine
	proctor proctor.Policy
	reports *repository.ReportRepository
	rdb     *redis.Client
	log     zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*liveSession
}

// NewExamService creates a new ExamService.
func NewExamService(engine *exam.Engine, proctorPolicy proctor.Policy, reports *repository.ReportRepository, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		engine:   engine,
		proctor:  proctorPolicy,
		reports:  reports,
		rdb:      rdb,
		log:      log.With().Str("component", "exam_service").Logger(),
		sessions: make(map[uuid.UUID]*liveSession),
	}
}

// Start begins a new exam session for the candidate. Starting a new exam
// abandons any session the candidate still had running.
func (s *ExamService) Start(ctx context.Context, userID int, req *model.StartExamRequest) (*model.Session, error) {
	s.abandonActiveSession(ctx, userID)

	difficulty, err := model.ParseDifficulty(req.Difficulty)
	if err != nil {
		return nil, err
	}

	sess, err := s.engine.Start(ctx, userID, req.Language, difficulty, req.TotalQuestions)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &liveSession{
		sess: sess,
		agg:  proctor.NewAggregator(s.proctor),
	}
	s.mu.Unlock()

	// Ownership and active-session markers. Failures here are logged, not
	// fatal: the in-memory registry stays authoritative.
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SessionOwnerKey(sess.ID.String()), userID, sessionTTL)
	pipe.Set(ctx, config.CacheKey.UserActiveSessionKey(userID), sess.ID.String(), sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("Failed to record session markers in Redis")
	}

	return sess, nil
}

// SubmitAnswer grades an answer and advances the session.
func (s *ExamService) SubmitAnswer(ctx context.Context, userID int, req *model.SubmitAnswerRequest) (*exam.SubmitResult, *model.Session, error) {
	live, err := s.getOwned(req.SessionID, userID)
	if err != nil {
		return nil, nil, err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	result, err := s.engine.SubmitAnswer(ctx, live.sess, req.QuestionNumber, req.UserAnswer, req.TimeTaken, live.agg.Tally(), live.agg.Events())
	if err != nil {
		return nil, live.sess, err
	}

	if result.Done {
		s.finalize(ctx, live, result.Report)
	}

	return result, live.sess, nil
}

// RefreshQuestion retries the pending question fetch after a source failure.
func (s *ExamService) RefreshQuestion(ctx context.Context, userID int, sessionID uuid.UUID) (*model.Question, *model.Session, error) {
	live, err := s.getOwned(sessionID, userID)
	if err != nil {
		return nil, nil, err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	q, err := s.engine.RefreshQuestion(ctx, live.sess)
	if err != nil {
		return nil, live.sess, err
	}
	return q, live.sess, nil
}

// RecordCheat appends a proctoring observation to the session's log, queues
// it for persistence, and publishes it to the session's live monitor channel.
func (s *ExamService) RecordCheat(ctx context.Context, userID int, req *model.CheatEventRequest) (model.CheatTally, error) {
	live, err := s.getOwned(req.SessionID, userID)
	if err != nil {
		return model.CheatTally{}, err
	}

	eventType := model.CheatEventType(req.DetectionType)
	if !eventType.Valid() {
		return model.CheatTally{}, fmt.Errorf("unknown detection type %q", req.DetectionType)
	}

	ev := model.CheatEvent{
		Type:        eventType,
		Severity:    model.Severity(req.Severity),
		Description: req.Description,
		TimestampMs: time.Now().UnixMilli(),
	}

	live.mu.Lock()
	live.agg.Record(ev)
	tally := live.agg.Tally()
	live.mu.Unlock()

	s.enqueueCheat(ctx, req.SessionID, userID, ev)
	s.publishProctor(ctx, req.SessionID, "cheat_event", map[string]interface{}{
		"event":          ev,
		"cheating_score": tally.CheatingScore,
	})

	return tally, nil
}

// GetReport retrieves a finished session's report. Active sessions have no
// report yet.
func (s *ExamService) GetReport(ctx context.Context, userID int, sessionID uuid.UUID) (*model.ExamReport, error) {
	s.mu.RLock()
	live, inMemory := s.sessions[sessionID]
	s.mu.RUnlock()

	if inMemory {
		if live.sess.CandidateID != userID {
			return nil, ErrNotSessionOwner
		}
		return nil, ErrReportNotReady
	}

	rep, err := s.reports.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if rep.CandidateID != userID {
		return nil, ErrNotSessionOwner
	}
	return rep, nil
}

// History returns the candidate's most recent exam reports.
func (s *ExamService) History(ctx context.Context, userID int) ([]model.ExamReport, error) {
	return s.reports.ListByUser(ctx, userID, historyLimit)
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func (s *ExamService) getOwned(sessionID uuid.UUID, userID int) (*liveSession, error) {
	s.mu.RLock()
	live, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if live.sess.CandidateID != userID {
		return nil, ErrNotSessionOwner
	}
	return live, nil
}

// finalize queues the report for persistence, notifies the monitor channel,
// and evicts the session from the registry. Called with live.mu held.
func (s *ExamService) finalize(ctx context.Context, live *liveSession, report *model.ExamReport) {
	data, err := json.Marshal(report)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", report.SessionID.String()).Msg("Failed to marshal report for persistence")
	} else if err := s.rdb.RPush(ctx, config.WorkerKey.PersistReportsQueue, data).Err(); err != nil {
		// The queue is the only durable path. Fall back to a direct write so
		// a Redis outage doesn't lose the exam outcome.
		s.log.Error().Err(err).Str("session_id", report.SessionID.String()).Msg("Failed to enqueue report, writing directly")
		if err := s.reports.Create(ctx, report); err != nil {
			s.log.Error().Err(err).Str("session_id", report.SessionID.String()).Msg("CRITICAL: direct report write failed")
		}
	}

	s.publishProctor(ctx, report.SessionID, "exam_completed", map[string]interface{}{
		"score":          report.ScorePercent,
		"cheating_score": report.CheatingScore,
	})

	s.mu.Lock()
	delete(s.sessions, report.SessionID)
	s.mu.Unlock()

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.UserActiveSessionKey(report.CandidateID))
	pipe.Del(ctx, config.CacheKey.SessionOwnerKey(report.SessionID.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear session markers in Redis")
	}
}

// abandonActiveSession drops a candidate's previous unfinished session, if
// any. Abandoned sessions produce no report.
func (s *ExamService) abandonActiveSession(ctx context.Context, userID int) {
	prev, err := s.rdb.Get(ctx, config.CacheKey.UserActiveSessionKey(userID)).Result()
	if err != nil || prev == "" {
		return
	}
	prevID, err := uuid.Parse(prev)
	if err != nil {
		return
	}

	s.mu.Lock()
	if live, ok := s.sessions[prevID]; ok && live.sess.CandidateID == userID {
		delete(s.sessions, prevID)
		s.log.Info().Str("session_id", prev).Int("user_id", userID).Msg("Abandoned previous session")
	}
	s.mu.Unlock()

	s.rdb.Del(ctx, config.CacheKey.SessionOwnerKey(prev))
}

// enqueueCheat pushes one observation onto the persistence queue. The queue
// payload is flat so the worker can bulk-insert without touching the model.
func (s *ExamService) enqueueCheat(ctx context.Context, sessionID uuid.UUID, userID int, ev model.CheatEvent) {
	payload := map[string]interface{}{
		"session_id":     sessionID.String(),
		"user_id":        userID,
		"detection_type": ev.Type,
		"severity":       ev.Severity,
		"description":    ev.Description,
		"timestamp_ms":   ev.TimestampMs,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal cheat event")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistCheatsQueue, data).Err(); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to enqueue cheat event")
	}
}

// publishProctor broadcasts a monitor event on the session's PubSub channel.
// Delivery is best effort; monitoring is an observer, never a gate.
func (s *ExamService) publishProctor(ctx context.Context, sessionID uuid.UUID, eventType string, body map[string]interface{}) {
	msg := map[string]interface{}{
		"type":       eventType,
		"session_id": sessionID.String(),
		"at":         time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range body {
		msg[k] = v
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.ProctorChannel(sessionID.String()), data).Err(); err != nil {
		s.log.Debug().Err(err).Str("session_id", sessionID.String()).Msg("Proctor publish failed")
	}
}
