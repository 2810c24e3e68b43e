package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/coloranna/openai-realtime-server/config"
)

// ProjectHeader carries the optional project identifier on every call.
const ProjectHeader = "OpenAI-Project"

// APIError is returned when the provider answers with a non-success status.
// Body holds the raw response so callers can relay or log it.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai: status %d: %s", e.Status, Truncate(string(e.Body), 200))
}

// Client is the shared transport for every provider endpoint.
type Client struct {
	APIKey  string
	Project string
	BaseURL string
	HTTP    *http.Client
}

func New(cfg config.OpenAI) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	return &Client{
		APIKey:  cfg.APIKey,
		Project: cfg.Project,
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &projectTransport{project: cfg.Project, base: http.DefaultTransport},
		},
	}
}

// OpenAI returns a go-openai client sharing this client's key, base URL and
// transport.
func (c *Client) OpenAI() *openai.Client {
	oc := openai.DefaultConfig(c.APIKey)
	oc.BaseURL = c.BaseURL
	oc.HTTPClient = c.HTTP
	return openai.NewClientWithConfig(oc)
}

// PostJSON posts payload to path and returns the raw response body.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, &APIError{Status: resp.StatusCode, Body: body}
	}
	return body, nil
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}

type projectTransport struct {
	project string
	base    http.RoundTripper
}

func (t *projectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.project == "" || req.Header.Get(ProjectHeader) != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(ProjectHeader, t.project)
	return t.base.RoundTrip(clone)
}
