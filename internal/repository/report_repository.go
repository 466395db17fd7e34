package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arjunalabs/arjuna-backend/internal/model"
)

// ReportRepository handles completed exam report data access.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Create inserts a finalized report. Reports are immutable; a duplicate
// session_id is a programming error surfaced by the unique constraint.
func (r *ReportRepository) Create(ctx context.Context, rep *model.ExamReport) error {
	violations, err := json.Marshal(rep.ViolationLog)
	if err != nil {
		return fmt.Errorf("marshal violation log: %w", err)
	}
	history, err := json.Marshal(rep.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_reports
		   (session_id, user_id, language, total_questions, correct_answers,
		    score, cheating_score, violation_log, history, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10)`,
		rep.SessionID, rep.CandidateID, rep.Language, rep.TotalQuestions,
		rep.CorrectAnswers, rep.ScorePercent, rep.CheatingScore,
		violations, history, rep.CompletedAt,
	)
	return err
}

// GetBySessionID retrieves a persisted report by its session ID.
func (r *ReportRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.ExamReport, error) {
	rep := &model.ExamReport{}
	var violations, history []byte

	err := r.pool.QueryRow(ctx,
		`SELECT session_id, user_id, language, total_questions, correct_answers,
		        score, cheating_score, violation_log, history, completed_at
		 FROM exam_reports WHERE session_id = $1`, sessionID,
	).Scan(&rep.SessionID, &rep.CandidateID, &rep.Language, &rep.TotalQuestions,
		&rep.CorrectAnswers, &rep.ScorePercent, &rep.CheatingScore,
		&violations, &history, &rep.CompletedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(violations, &rep.ViolationLog); err != nil {
		return nil, fmt.Errorf("unmarshal violation log: %w", err)
	}
	if err := json.Unmarshal(history, &rep.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return rep, nil
}

// ListByUser retrieves a user's most recent reports, newest first.
func (r *ReportRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.ExamReport, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, user_id, language, total_questions, correct_answers,
		        score, cheating_score, violation_log, history, completed_at
		 FROM exam_reports
		 WHERE user_id = $1
		 ORDER BY completed_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.ExamReport
	for rows.Next() {
		var rep model.ExamReport
		var violations, history []byte
		if err := rows.Scan(&rep.SessionID, &rep.CandidateID, &rep.Language,
			&rep.TotalQuestions, &rep.CorrectAnswers, &rep.ScorePercent,
			&rep.CheatingScore, &violations, &history, &rep.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(violations, &rep.ViolationLog); err != nil {
			return nil, fmt.Errorf("unmarshal violation log: %w", err)
		}
		if err := json.Unmarshal(history, &rep.History); err != nil {
			return nil, fmt.Errorf("unmarshal history: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
