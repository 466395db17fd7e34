package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamReport is the final output of a completed session. Created once at
// finalization; immutable thereafter.
type ExamReport struct {
	SessionID      uuid.UUID      `json:"session_id"`
	CandidateID    int            `json:"candidate_id"`
	Language       string         `json:"language"`
	TotalQuestions int            `json:"total_questions"`
	CorrectAnswers int            `json:"correct_answers"`
	ScorePercent   float64        `json:"score"`
	CheatingScore  int            `json:"cheating_score"`
	ViolationLog   []CheatEvent   `json:"violation_log"`
	History        []AnswerRecord `json:"history"`
	CompletedAt    time.Time      `json:"completed_at"`
}
