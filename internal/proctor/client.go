// Package proctor integrates with a SMOWL-compatible webcam proctoring
// service. The service hosts the camera UI itself; this client only
// builds the launch URLs and checks registration state.
package proctor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to the proctoring service. Safe for concurrent use.
type Client struct {
	baseURL    string
	entity     string
	licenseKey string
	http       *http.Client
	log        zerolog.Logger
}

// NewClient creates a proctor client.
func NewClient(baseURL, entity, licenseKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		entity:     entity,
		licenseKey: licenseKey,
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "proctor").Logger(),
	}
}

// Enabled reports whether proctoring credentials are configured.
// Exams still work without them; attempts just go unproctored.
func (c *Client) Enabled() bool {
	return c.entity != "" && c.licenseKey != ""
}

// RegistrationURL builds the one-time face registration link for a user.
func (c *Client) RegistrationURL(userID int64, returnURL string) string {
	q := url.Values{}
	q.Set("entity_Name", c.entity)
	q.Set("swlLicenseKey", c.licenseKey)
	q.Set("user_idUser", strconv.FormatInt(userID, 10))
	q.Set("lang", "en")
	q.Set("Course_link", returnURL)
	return c.baseURL + "/register/?" + q.Encode()
}

// MonitoringURL builds the in-exam monitoring iframe link.
func (c *Client) MonitoringURL(userID, assignmentID int64, activityURL string) string {
	q := url.Values{}
	q.Set("entity_Name", c.entity)
	q.Set("swlLicenseKey", c.licenseKey)
	q.Set("user_idUser", strconv.FormatInt(userID, 10))
	q.Set("modality_ProctoringSession", "exam")
	q.Set("Course_container", strconv.FormatInt(assignmentID, 10))
	q.Set("Course_link", activityURL)
	q.Set("lang", "en")
	return c.baseURL + "/monitor/?" + q.Encode()
}

// Registered checks whether a user has completed face registration.
func (c *Client) Registered(ctx context.Context, userID int64) (bool, error) {
	q := url.Values{}
	q.Set("entity_Name", c.entity)
	q.Set("swlLicenseKey", c.licenseKey)
	q.Set("user_idUser", strconv.FormatInt(userID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/registration-status/?"+q.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("build proctor request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("proctor request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("proctor responded %d", resp.StatusCode)
	}

	var out struct {
		Registered bool `json:"registered"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode proctor response: %w", err)
	}
	return out.Registered, nil
}
