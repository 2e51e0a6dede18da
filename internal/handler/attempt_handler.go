package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/priyankaksolves/student-exam-app/internal/middleware"
	"github.com/priyankaksolves/student-exam-app/internal/model"
	"github.com/priyankaksolves/student-exam-app/internal/response"
	"github.com/priyankaksolves/student-exam-app/internal/service"
	"github.com/priyankaksolves/student-exam-app/internal/validator"
)

// AttemptHandler handles the student-facing attempt lifecycle.
type AttemptHandler struct {
	attemptService    *service.AttemptService
	assignmentService *service.AssignmentService
	examService       *service.ExamService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(
	attemptService *service.AttemptService,
	assignmentService *service.AssignmentService,
	examService *service.ExamService,
) *AttemptHandler {
	return &AttemptHandler{
		attemptService:    attemptService,
		assignmentService: assignmentService,
		examService:       examService,
	}
}

// ListAssignedExams godoc
// GET /api/v1/student/exams
// Lists the student's assigned exams with attempt status and scores.
func (h *AttemptHandler) ListAssignedExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.assignmentService.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// StartAttempt godoc
// POST /api/v1/student/attempts/:assignment_id/start
// Starts the attempt clock. At most one start succeeds per assignment.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}

	result, err := h.attemptService.Start(c.Request.Context(), claims.UserID, assignmentID)
	if err != nil {
		h.failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": result})
}

// GetPaper godoc
// GET /api/v1/student/attempts/:assignment_id/paper
// Returns the sanitized exam paper. Only available while in progress.
func (h *AttemptHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}

	state, err := h.attemptService.State(c.Request.Context(), claims.UserID, assignmentID)
	if err != nil {
		h.failAttemptError(c, err)
		return
	}
	if state.Status != model.AttemptInProgress {
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotActive)
		return
	}
	if state.RemainingSeconds <= 0 {
		response.Fail(c, http.StatusConflict, response.ErrTimeExpired)
		return
	}

	paper, err := h.examService.Paper(c.Request.Context(), state.ExamID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"paper":             paper,
		"remaining_seconds": state.RemainingSeconds,
	})
}

// GetState godoc
// GET /api/v1/student/attempts/:assignment_id/state
// Returns the attempt clock and autosaved answers for reconnects.
func (h *AttemptHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}

	state, err := h.attemptService.State(c.Request.Context(), claims.UserID, assignmentID)
	if err != nil {
		h.failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// SubmitAttempt godoc
// POST /api/v1/student/attempts/:assignment_id/submit
// Grades and completes the attempt. Retrying after completion returns
// the recorded result unchanged.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}

	var req model.SubmitAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), claims.UserID, assignmentID, req.Answers)
	if err != nil {
		h.failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetResult godoc
// GET /api/v1/student/attempts/:assignment_id/result
// Returns the graded outcome of a completed attempt.
func (h *AttemptHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}

	result, err := h.attemptService.Result(c.Request.Context(), claims.UserID, assignmentID)
	if err != nil {
		h.failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// failAttemptError maps attempt service errors onto API responses.
func (h *AttemptHandler) failAttemptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrExamNotLive):
		response.Fail(c, http.StatusConflict, response.ErrExamNotLive)
	case errors.Is(err, service.ErrAlreadyStarted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyStarted)
	case errors.Is(err, service.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
	case errors.Is(err, service.ErrNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrExamNotStarted)
	case errors.Is(err, service.ErrAttemptNotActive):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotActive)
	case errors.Is(err, service.ErrResultNotReady):
		response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
