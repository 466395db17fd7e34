package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arjunalabs/arjuna-backend/internal/exam"
	"github.com/arjunalabs/arjuna-backend/internal/middleware"
	"github.com/arjunalabs/arjuna-backend/internal/model"
	"github.com/arjunalabs/arjuna-backend/internal/response"
	"github.com/arjunalabs/arjuna-backend/internal/service"
	"github.com/arjunalabs/arjuna-backend/internal/validator"
)

// ExamHandler handles adaptive exam session endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// Start godoc
// POST /api/v1/exam/start
// Begins a new adaptive exam session and returns its first question.
func (h *ExamHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.examService.Start(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failExam(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"session_id":         sess.ID,
		"question_number":    sess.QuestionIndex,
		"total_questions":    sess.TotalQuestions,
		"current_difficulty": sess.CurrentDifficulty,
		"question":           sess.CurrentQuestion.ForCandidate(),
	})
}

// SubmitAnswer godoc
// POST /api/v1/exam/submit-answer
// Grades the current question and serves the next one or the final report.
func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, sess, err := h.examService.SubmitAnswer(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failExam(c, err)
		return
	}

	body := gin.H{
		"session_id":     sess.ID,
		"is_correct":     result.Correct,
		"correct_answer": result.CorrectOption,
		"explanation":    result.Explanation,
		"exam_complete":  result.Done,
	}

	if result.Done {
		body["report"] = result.Report
	} else {
		body["question_number"] = sess.QuestionIndex
		body["current_difficulty"] = sess.CurrentDifficulty
		body["question"] = result.NextQuestion.ForCandidate()
	}

	response.Success(c, http.StatusOK, body)
}

// RefreshQuestion godoc
// POST /api/v1/exam/:session_id/refresh-question
// Retries the pending question fetch after a question source failure.
func (h *ExamHandler) RefreshQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	q, sess, err := h.examService.RefreshQuestion(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failExam(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_id":         sess.ID,
		"question_number":    sess.QuestionIndex,
		"current_difficulty": sess.CurrentDifficulty,
		"question":           q.ForCandidate(),
	})
}

// CheatingDetected godoc
// POST /api/v1/exam/cheating-detected
// Records a proctoring observation against an active session.
func (h *ExamHandler) CheatingDetected(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CheatEventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tally, err := h.examService.RecordCheat(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failExam(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"cheating_score": tally.CheatingScore,
		"counts":         tally.Counts,
	})
}

// GetReport godoc
// GET /api/v1/exam/:session_id/report
// Returns the final report of a completed session.
func (h *ExamHandler) GetReport(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	report, err := h.examService.GetReport(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failExam(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// History godoc
// GET /api/v1/exam/history
// Returns the candidate's most recent exam reports, newest first.
func (h *ExamHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	reports, err := h.examService.History(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if reports == nil {
		reports = []model.ExamReport{}
	}

	response.Success(c, http.StatusOK, gin.H{"reports": reports})
}

// failExam maps exam domain errors onto HTTP status codes. Unrecognized
// errors become a 500 without leaking details.
func failExam(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamSessionNotFound)
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotSessionOwner)
	case errors.Is(err, service.ErrReportNotReady):
		response.Fail(c, http.StatusConflict, response.ErrReportNotReady)
	case errors.Is(err, exam.ErrSessionClosed):
		response.Fail(c, http.StatusConflict, response.ErrExamSessionClosed)
	case errors.Is(err, exam.ErrStaleSubmission):
		response.Fail(c, http.StatusConflict, response.ErrStaleSubmission)
	case errors.Is(err, exam.ErrInvalidAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAnswer)
	case errors.Is(err, exam.ErrQuestionSource):
		response.Fail(c, http.StatusBadGateway, response.ErrQuestionSource)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
