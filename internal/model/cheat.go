package model

import "github.com/google/uuid"

// CheatEventType enumerates proctoring observation types.
type CheatEventType string

const (
	CheatTabSwitch       CheatEventType = "tab_switch"
	CheatPhoneDetected   CheatEventType = "phone_detected"
	CheatBookDetected    CheatEventType = "book_detected"
	CheatLaptopDetected  CheatEventType = "laptop_detected"
	CheatMultiplePersons CheatEventType = "multiple_persons"
	CheatNoFaceDetected  CheatEventType = "no_face_detected"
)

// Valid reports whether t is a known cheat event type.
func (t CheatEventType) Valid() bool {
	switch t {
	case CheatTabSwitch, CheatPhoneDetected, CheatBookDetected,
		CheatLaptopDetected, CheatMultiplePersons, CheatNoFaceDetected:
		return true
	}
	return false
}

// Severity tags how suspicious a single observation is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is a known severity level.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// CheatEvent is a single timestamped proctoring observation. Immutable once
// created; appended to a session-scoped ordered log.
type CheatEvent struct {
	Type        CheatEventType `json:"type"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	TimestampMs int64          `json:"timestamp_ms"`
}

// CheatTally is the derived, read-only summary of a session's event log.
type CheatTally struct {
	Counts        map[CheatEventType]int `json:"counts"`
	CheatingScore int                    `json:"cheating_score"`
}

// CheatEventRequest is the payload for reporting a proctoring observation.
type CheatEventRequest struct {
	SessionID     uuid.UUID `json:"session_id" binding:"required"`
	DetectionType string    `json:"detection_type" binding:"required,oneof=tab_switch phone_detected book_detected laptop_detected multiple_persons no_face_detected"`
	Severity      string    `json:"severity" binding:"required,oneof=low medium high"`
	Description   string    `json:"description" binding:"max=500"`
}
