package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestClaimsRequireAuthorizationHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Query-string tokens are only valid on the WebSocket upgrade path.
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/v1/student/exams?token=some-jwt", nil)

	if _, err := extractAndValidateClaims(c, nil); err == nil {
		t.Fatal("token in query string must not satisfy header auth")
	}
}

func TestClaimsRejectMalformedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/v1/student/exams", nil)
	c.Request.Header.Set("Authorization", "Token abc123")

	if _, err := extractAndValidateClaims(c, nil); err == nil {
		t.Fatal("non-bearer scheme must be rejected")
	}
}
