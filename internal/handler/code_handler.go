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

// CodeHandler handles code execution and judging endpoints.
type CodeHandler struct {
	codeService *service.CodeService
}

// NewCodeHandler creates a new CodeHandler.
func NewCodeHandler(codeService *service.CodeService) *CodeHandler {
	return &CodeHandler{codeService: codeService}
}

// ListLanguages godoc
// GET /api/v1/student/code/languages
// Lists the languages supported by the judge.
func (h *CodeHandler) ListLanguages(c *gin.Context) {
	languages, err := h.codeService.Languages(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrJudgeUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"languages": languages})
}

// RunCode godoc
// POST /api/v1/student/attempts/:assignment_id/questions/:question_id/run
// Executes code once with ad-hoc stdin. Does not record an answer.
func (h *CodeHandler) RunCode(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}
	questionID, ok := parseID(c, "question_id")
	if !ok {
		return
	}

	var req model.RunCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, err := h.codeService.Run(c.Request.Context(), claims.UserID, assignmentID, questionID, &req)
	if err != nil {
		h.failCodeError(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"token": token})
}

// PollRun godoc
// GET /api/v1/student/code/runs/:token
// Polls an ad-hoc run started by RunCode.
func (h *CodeHandler) PollRun(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.codeService.Poll(c.Request.Context(), token)
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrJudgeUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"run": result})
}

// SubmitCode godoc
// POST /api/v1/student/attempts/:assignment_id/questions/:question_id/submit-code
// Judges code against the question's full test suite and records the
// verdict as the question's answer. Resubmitting replaces the verdict.
func (h *CodeHandler) SubmitCode(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}
	questionID, ok := parseID(c, "question_id")
	if !ok {
		return
	}

	var req model.SubmitCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	verdict, err := h.codeService.SubmitCode(c.Request.Context(), claims.UserID, assignmentID, questionID, &req)
	if err != nil {
		h.failCodeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"verdict": verdict})
}

// failCodeError maps code service errors onto API responses.
func (h *CodeHandler) failCodeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound), errors.Is(err, service.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAttemptNotActive):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotActive)
	case errors.Is(err, service.ErrTimeExpired):
		response.Fail(c, http.StatusConflict, response.ErrTimeExpired)
	case errors.Is(err, service.ErrNotCodingQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	default:
		// Anything else means the judge did not answer.
		response.Fail(c, http.StatusBadGateway, response.ErrJudgeUnavailable)
	}
}
