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

// AssignmentHandler handles exam assignment endpoints for admins.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// AssignStudents godoc
// POST /api/v1/admin/exams/:exam_id/assignments
// Assigns a batch of students to an exam with a scheduled start time.
func (h *AssignmentHandler) AssignStudents(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	var req model.AssignStudentsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignments, err := h.assignmentService.Assign(c.Request.Context(), examID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyAssigned):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyAssigned)
		case errors.Is(err, service.ErrNotAStudent):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		default:
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"assignments": assignments})
}

// RescheduleAssignment godoc
// PUT /api/v1/admin/assignments/:assignment_id
// Moves the scheduled start time. Only allowed before the student starts.
func (h *AssignmentHandler) RescheduleAssignment(c *gin.Context) {
	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}

	var req model.UpdateAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignment, err := h.assignmentService.Reschedule(c.Request.Context(), assignmentID, &req)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentStarted) {
			response.Fail(c, http.StatusConflict, response.ErrActionForbidden)
			return
		}
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignment": assignment})
}

// RemoveAssignment godoc
// DELETE /api/v1/admin/assignments/:assignment_id
// Only allowed before the student starts.
func (h *AssignmentHandler) RemoveAssignment(c *gin.Context) {
	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}

	if err := h.assignmentService.Remove(c.Request.Context(), assignmentID); err != nil {
		if errors.Is(err, service.ErrAssignmentStarted) {
			response.Fail(c, http.StatusConflict, response.ErrActionForbidden)
			return
		}
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
