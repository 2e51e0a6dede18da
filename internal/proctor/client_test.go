package proctor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestMonitoringURLCarriesIdentity(t *testing.T) {
	c := NewClient("https://proctor.example.com", "acme", "lic-123", zerolog.Nop())

	raw := c.MonitoringURL(42, 7, "https://app.example.com/exam/7")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := u.Query()
	if q.Get("user_idUser") != "42" {
		t.Fatalf("user_idUser = %q", q.Get("user_idUser"))
	}
	if q.Get("Course_container") != "7" {
		t.Fatalf("Course_container = %q", q.Get("Course_container"))
	}
	if q.Get("entity_Name") != "acme" || q.Get("swlLicenseKey") != "lic-123" {
		t.Fatalf("credentials missing from URL: %s", raw)
	}
	if !strings.HasPrefix(raw, "https://proctor.example.com/monitor/?") {
		t.Fatalf("unexpected URL shape: %s", raw)
	}
}

func TestEnabled(t *testing.T) {
	if NewClient("https://p", "", "", zerolog.Nop()).Enabled() {
		t.Fatalf("client without credentials reported enabled")
	}
	if !NewClient("https://p", "acme", "lic", zerolog.Nop()).Enabled() {
		t.Fatalf("configured client reported disabled")
	}
}

func TestRegistered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("user_idUser") != "42" {
			t.Errorf("user_idUser = %q", r.URL.Query().Get("user_idUser"))
		}
		w.Write([]byte(`{"registered": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acme", "lic", zerolog.Nop())
	ok, err := c.Registered(context.Background(), 42)
	if err != nil {
		t.Fatalf("Registered: %v", err)
	}
	if !ok {
		t.Fatalf("expected registered=true")
	}
}
