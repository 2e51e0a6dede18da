package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/priyankaksolves/student-exam-app/internal/model"
	"github.com/priyankaksolves/student-exam-app/internal/response"
	"github.com/priyankaksolves/student-exam-app/internal/service"
	"github.com/priyankaksolves/student-exam-app/internal/validator"
)

// QuestionHandler handles question authoring endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ListQuestions godoc
// GET /api/v1/admin/exams/:exam_id/questions
// Lists questions in paper order, including answer keys and test cases.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	questions, err := h.questionService.ListByExam(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AddQuestion godoc
// POST /api/v1/admin/exams/:exam_id/questions
// Appends a question to the exam paper.
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Add(c.Request.Context(), examID, &req)
	if err != nil {
		h.failQuestionError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/exams/:exam_id/questions/:question_id
// Replaces a question, including its options or test cases.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}
	questionID, ok := parseID(c, "question_id")
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), examID, questionID, &req)
	if err != nil {
		h.failQuestionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/exams/:exam_id/questions/:question_id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}
	questionID, ok := parseID(c, "question_id")
	if !ok {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), examID, questionID); err != nil {
		h.failQuestionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// failQuestionError maps question service errors onto API responses.
func (h *QuestionHandler) failQuestionError(c *gin.Context, err error) {
	if invalid, ok := service.AsInvalidQuestion(err); ok {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"question": invalid.Reason,
		})
		return
	}
	if errors.Is(err, service.ErrExamLocked) {
		response.Fail(c, http.StatusConflict, response.ErrExamLocked)
		return
	}
	response.Fail(c, http.StatusNotFound, response.ErrNotFound)
}
