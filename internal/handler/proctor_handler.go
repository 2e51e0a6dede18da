package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/priyankaksolves/student-exam-app/internal/middleware"
	"github.com/priyankaksolves/student-exam-app/internal/proctor"
	"github.com/priyankaksolves/student-exam-app/internal/response"
)

// ProctorHandler handles webcam proctoring endpoints for students.
type ProctorHandler struct {
	proctorClient *proctor.Client
	frontendURL   string
}

// NewProctorHandler creates a new ProctorHandler.
func NewProctorHandler(proctorClient *proctor.Client, frontendURL string) *ProctorHandler {
	return &ProctorHandler{
		proctorClient: proctorClient,
		frontendURL:   frontendURL,
	}
}

// RegistrationURL godoc
// GET /api/v1/student/proctoring/registration-url
// Returns the URL where the student registers their face with the
// proctoring provider. Registration happens once per student.
func (h *ProctorHandler) RegistrationURL(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	if !h.proctorClient.Enabled() {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrProctorUnavailable)
		return
	}

	url := h.proctorClient.RegistrationURL(claims.UserID, h.frontendURL)
	response.Success(c, http.StatusOK, gin.H{"url": url})
}

// MonitoringURL godoc
// GET /api/v1/student/attempts/:assignment_id/proctoring/monitoring-url
// Returns the URL that opens a monitored proctoring session for the
// attempt.
func (h *ProctorHandler) MonitoringURL(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	if !h.proctorClient.Enabled() {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrProctorUnavailable)
		return
	}

	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}

	activityURL := fmt.Sprintf("%s/attempts/%d", h.frontendURL, assignmentID)
	url := h.proctorClient.MonitoringURL(claims.UserID, assignmentID, activityURL)
	response.Success(c, http.StatusOK, gin.H{"url": url})
}

// RegistrationStatus godoc
// GET /api/v1/student/proctoring/status
// Reports whether the student has completed face registration.
func (h *ProctorHandler) RegistrationStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	if !h.proctorClient.Enabled() {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrProctorUnavailable)
		return
	}

	registered, err := h.proctorClient.Registered(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrProctorUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"registered": registered})
}
