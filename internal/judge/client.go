// Package judge talks to a Judge0-compatible code execution service.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Judge0 status IDs. Anything above StatusWrongAnswer is an error
// condition (compile error, runtime error, time limit, ...).
const (
	StatusInQueue     = 1
	StatusProcessing  = 2
	StatusAccepted    = 3
	StatusWrongAnswer = 4
)

// Language is one entry of the judge's language catalog.
type Language struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Submission is the request body for creating one judged run.
type Submission struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty"`
}

// Status is the judge's verdict descriptor.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Result is the judged outcome of one submission.
type Result struct {
	Token         string  `json:"token"`
	Status        Status  `json:"status"`
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Time          *string `json:"time"`
	Memory        *int    `json:"memory"`
}

// Done reports whether the judge has finished processing.
func (r Result) Done() bool {
	return r.Status.ID != StatusInQueue && r.Status.ID != StatusProcessing
}

// Accepted reports whether the run matched its expected output.
func (r Result) Accepted() bool {
	return r.Status.ID == StatusAccepted
}

// Client is a Judge0 API client. Safe for concurrent use.
type Client struct {
	baseURL      string
	apiKey       string
	apiHost      string
	pollInterval time.Duration
	http         *http.Client
	log          zerolog.Logger
}

// NewClient creates a judge client. apiKey and apiHost may be empty for
// self-hosted deployments that skip RapidAPI authentication.
func NewClient(baseURL, apiKey, apiHost string, pollInterval, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		apiHost:      apiHost,
		pollInterval: pollInterval,
		http:         &http.Client{Timeout: timeout},
		log:          log.With().Str("component", "judge").Logger(),
	}
}

// Languages fetches the judge's language catalog.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	var langs []Language
	if err := c.do(ctx, http.MethodGet, "/languages", nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// CreateSubmission enqueues one run and returns its token.
func (c *Client) CreateSubmission(ctx context.Context, sub Submission) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/submissions?base64_encoded=false&wait=false", sub, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("judge returned no token")
	}
	return out.Token, nil
}

// GetSubmission fetches the current state of one run.
func (c *Client) GetSubmission(ctx context.Context, token string) (*Result, error) {
	res := &Result{}
	path := "/submissions/" + url.PathEscape(token) + "?base64_encoded=false&fields=token,status,stdout,stderr,compile_output,time,memory"
	if err := c.do(ctx, http.MethodGet, path, nil, res); err != nil {
		return nil, err
	}
	res.Token = token
	return res, nil
}

// CreateBatch enqueues several runs and returns their tokens in order.
func (c *Client) CreateBatch(ctx context.Context, subs []Submission) ([]string, error) {
	body := struct {
		Submissions []Submission `json:"submissions"`
	}{Submissions: subs}

	var out []struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/submissions/batch?base64_encoded=false", body, &out); err != nil {
		return nil, err
	}
	if len(out) != len(subs) {
		return nil, fmt.Errorf("judge returned %d tokens for %d submissions", len(out), len(subs))
	}

	tokens := make([]string, len(out))
	for i, t := range out {
		if t.Token == "" {
			return nil, fmt.Errorf("judge returned empty token at index %d", i)
		}
		tokens[i] = t.Token
	}
	return tokens, nil
}

// GetBatch fetches the current state of several runs.
func (c *Client) GetBatch(ctx context.Context, tokens []string) ([]Result, error) {
	var out struct {
		Submissions []Result `json:"submissions"`
	}
	path := "/submissions/batch?base64_encoded=false&tokens=" + url.QueryEscape(strings.Join(tokens, ",")) +
		"&fields=token,status,stdout,stderr,compile_output,time,memory"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Submissions) != len(tokens) {
		return nil, fmt.Errorf("judge returned %d results for %d tokens", len(out.Submissions), len(tokens))
	}
	return out.Submissions, nil
}

// WaitForBatch polls a batch until every run settles or ctx expires.
func (c *Client) WaitForBatch(ctx context.Context, tokens []string) ([]Result, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		results, err := c.GetBatch(ctx, tokens)
		if err != nil {
			return nil, err
		}

		pending := 0
		for _, r := range results {
			if !r.Done() {
				pending++
			}
		}
		if pending == 0 {
			return results, nil
		}
		c.log.Debug().Int("pending", pending).Msg("waiting for judge batch")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode judge request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build judge request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}
	if c.apiHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.apiHost)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("judge request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("judge responded %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode judge response: %w", err)
		}
	}
	return nil
}
