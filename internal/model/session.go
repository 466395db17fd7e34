package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// AnswerRecord is one graded answer in a session's history. Records are
// append-only; insertion order is chronological order.
type AnswerRecord struct {
	QuestionNumber   int        `json:"question_number"`
	DifficultyAsked  Difficulty `json:"difficulty_asked"`
	Correct          bool       `json:"correct"`
	TimeTakenSeconds int        `json:"time_taken_seconds"`
}

// Session is one exam attempt. The engine exclusively owns and mutates it;
// handlers and stores only read.
type Session struct {
	ID                 uuid.UUID      `json:"session_id"`
	CandidateID        int            `json:"candidate_id"`
	Language           string         `json:"language"`
	StartingDifficulty Difficulty     `json:"starting_difficulty"`
	CurrentDifficulty  Difficulty     `json:"current_difficulty"`
	QuestionIndex      int            `json:"question_number"` // 1-based
	TotalQuestions     int            `json:"total_questions"`
	History            []AnswerRecord `json:"history"`
	CurrentQuestion    *Question      `json:"-"`
	Status             SessionStatus  `json:"status"`
	StartedAt          time.Time      `json:"started_at"`
}

// CorrectCount returns the number of correctly answered questions so far.
func (s *Session) CorrectCount() int {
	n := 0
	for _, r := range s.History {
		if r.Correct {
			n++
		}
	}
	return n
}

// StartExamRequest is the payload for starting a new exam session.
type StartExamRequest struct {
	Language       string `json:"language" binding:"required,min=1,max=50"`
	Difficulty     string `json:"difficulty" binding:"required,oneof=easy medium hard"`
	TotalQuestions int    `json:"total_questions" binding:"omitempty,min=1,max=50"`
}

// SubmitAnswerRequest is the payload for submitting an answer.
type SubmitAnswerRequest struct {
	SessionID      uuid.UUID `json:"session_id" binding:"required"`
	QuestionNumber int       `json:"question_number" binding:"required,min=1"`
	UserAnswer     string    `json:"user_answer" binding:"required,min=1,max=10"`
	TimeTaken      int       `json:"time_taken" binding:"min=0"`
}
