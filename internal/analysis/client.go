package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultAPIURL is the loopback address the bundled dev backend listens on.
const DefaultAPIURL = "http://127.0.0.1:8000"

// RemoteError is a non-200 response carrying a structured error payload.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("analysis service returned %d: %s", e.Status, e.Detail)
}

// Client talks to the remote analysis service. The service owns its own
// timeout and retry policy; the client only surfaces failures.
type Client struct {
	apiURL string
	httpc  *http.Client
}

// NewClient builds a client for the service at apiURL (falling back to
// DefaultAPIURL when empty).
func NewClient(apiURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		httpc:  &http.Client{},
	}
}

// APIURL returns the configured service base URL.
func (c *Client) APIURL() string {
	return c.apiURL
}

type analyzeRequest struct {
	Code            string `json:"code"`
	FocusConceptual bool   `json:"focus_conceptual"`
}

type analyzeRepoRequest struct {
	RepoURL string `json:"repo_url"`
}

// Analyze submits code for analysis and returns the service's result.
func (c *Client) Analyze(ctx context.Context, code string, focusConceptual bool) (*Result, error) {
	var res Result
	err := c.post(ctx, "/analyze", analyzeRequest{Code: code, FocusConceptual: focusConceptual}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// AnalyzeRepo submits a repository URL and returns the ordered per-file
// results.
func (c *Client) AnalyzeRepo(ctx context.Context, repoURL string) (*RepoResult, error) {
	var res RepoResult
	err := c.post(ctx, "/analyze_repo", analyzeRepoRequest{RepoURL: repoURL}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w (verify the analysis service is running at %s)", err, c.apiURL)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return remoteFailure(resp.StatusCode, raw, c.apiURL)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode analysis response: %w", err)
	}
	return nil
}

// remoteFailure prefers the structured {"detail": …} payload and falls back
// to the raw body text with a hint when the payload is unstructured.
func remoteFailure(status int, body []byte, apiURL string) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return &RemoteError{Status: status, Detail: payload.Detail}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		text = http.StatusText(status)
	}
	return fmt.Errorf("analysis service returned %d: %s (verify the analysis service is running at %s)", status, text, apiURL)
}
