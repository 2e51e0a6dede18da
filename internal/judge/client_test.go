package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "test-key", "test-host", 5*time.Millisecond, 5*time.Second, zerolog.Nop())
	return c, srv
}

func TestCreateSubmission(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, "/submissions") {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-RapidAPI-Key") != "test-key" {
			t.Errorf("missing API key header")
		}
		var sub Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if sub.LanguageID != 71 {
			t.Errorf("language_id = %d, want 71", sub.LanguageID)
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	}))

	token, err := c.CreateSubmission(context.Background(), Submission{SourceCode: "print(1)", LanguageID: 71})
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("token = %q, want tok-1", token)
	}
}

func TestWaitForBatchPollsUntilSettled(t *testing.T) {
	var polls atomic.Int32

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode([]map[string]string{{"token": "a"}, {"token": "b"}})
			return
		}

		n := polls.Add(1)
		status := func(id int) Status {
			desc := map[int]string{1: "In Queue", 2: "Processing", 3: "Accepted", 4: "Wrong Answer"}[id]
			return Status{ID: id, Description: desc}
		}

		results := []Result{
			{Token: "a", Status: status(StatusAccepted)},
			{Token: "b", Status: status(StatusProcessing)},
		}
		if n >= 3 {
			results[1].Status = status(StatusWrongAnswer)
		}
		json.NewEncoder(w).Encode(map[string][]Result{"submissions": results})
	}))

	tokens, err := c.CreateBatch(context.Background(), []Submission{
		{SourceCode: "x", LanguageID: 71, ExpectedOutput: "1"},
		{SourceCode: "y", LanguageID: 71, ExpectedOutput: "2"},
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	results, err := c.WaitForBatch(context.Background(), tokens)
	if err != nil {
		t.Fatalf("WaitForBatch: %v", err)
	}
	if polls.Load() < 3 {
		t.Fatalf("polls = %d, want >= 3", polls.Load())
	}
	if !results[0].Accepted() {
		t.Fatalf("first result not accepted")
	}
	if results[1].Accepted() || !results[1].Done() {
		t.Fatalf("second result = %+v, want settled wrong answer", results[1])
	}
}

func TestWaitForBatchHonorsContext(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]Result{"submissions": {
			{Token: "a", Status: Status{ID: StatusInQueue, Description: "In Queue"}},
		}})
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.WaitForBatch(ctx, []string{"a"})
	if err == nil {
		t.Fatalf("expected context error")
	}
}

func TestErrorStatusSurfaced(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))

	_, err := c.Languages(context.Background())
	if err == nil {
		t.Fatalf("expected error on 429")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error %q does not mention status", err)
	}
}
