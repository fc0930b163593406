package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/osvaldoandrade/scanq/pkg/domain"
)

const maxResponseBytes = 1 << 20

// Client talks to the scanq intake API. The zero http.Client timeout is
// replaced with a generous default because submissions carry file bodies.
type Client struct {
	baseURL   string
	token     string
	csrfToken string
	userAgent string
	httpc     *http.Client
}

type Option func(*Client)

// WithToken sets the bearer token attached to authenticated calls.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithCSRFToken sets the anti-forgery token attached to submissions. The
// token is issued elsewhere; the client only carries it.
func WithCSRFToken(token string) Option {
	return func(c *Client) { c.csrfToken = token }
}

func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "scanq-client",
		httpc:     &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitRequest is one file submission. DisabledWorkers keeps the caller's
// order; Password may be empty; ValiditySeconds > 0 asks for a shareable
// seed.
type SubmitRequest struct {
	Filename        string
	File            []byte
	DisabledWorkers []string
	Password        string
	ValiditySeconds int64
}

// Submit posts one file to the intake endpoint as a multipart form. Any 2xx
// response carrying a task id is success. Non-2xx responses come back as
// *APIError with the server's message; transport problems come back as
// plain errors.
func (c *Client) Submit(ctx context.Context, sub SubmitRequest) (*domain.SubmitResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", sub.Filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := fw.Write(sub.File); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if err := mw.WriteField("workersDisabled", strings.Join(sub.DisabledWorkers, ",")); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if err := mw.WriteField("password", sub.Password); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if sub.ValiditySeconds > 0 {
		if err := mw.WriteField("validity", strconv.FormatInt(sub.ValiditySeconds, 10)); err != nil {
			return nil, fmt.Errorf("build multipart: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scanq/submit", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setCommonHeaders(req)
	if c.csrfToken != "" {
		req.Header.Set("X-CSRF-Token", c.csrfToken)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: failureMessage(body)}
	}

	var result domain.SubmitResult
	if err := json.Unmarshal(body, &result); err != nil || result.TaskID == "" {
		return nil, &APIError{Status: resp.StatusCode, Message: "response carried no task id"}
	}
	result.Success = true
	return &result, nil
}

// Context fetches the submission page context.
func (c *Client) Context(ctx context.Context) (*domain.PageContext, error) {
	var pc domain.PageContext
	if err := c.getJSON(ctx, "/v1/scanq/context", &pc); err != nil {
		return nil, err
	}
	return &pc, nil
}

// Workers fetches the selectable worker catalog.
func (c *Client) Workers(ctx context.Context) ([]domain.Worker, error) {
	var out struct {
		Workers []domain.Worker `json:"workers"`
	}
	if err := c.getJSON(ctx, "/v1/scanq/workers", &out); err != nil {
		return nil, err
	}
	return out.Workers, nil
}

// Task fetches one task view. A non-empty seed grants access without a
// bearer token.
func (c *Client) Task(ctx context.Context, taskID, seed string) (*domain.TaskView, error) {
	path := "/v1/scanq/tasks/" + taskID
	if seed != "" {
		path += "?seed=" + seed
	}
	var tv domain.TaskView
	if err := c.getJSON(ctx, path, &tv); err != nil {
		return nil, err
	}
	return &tv, nil
}

// AnalysisURL returns the absolute result view address for a task.
func (c *Client) AnalysisURL(taskID string) string {
	return c.baseURL + "/analysis/" + taskID
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: failureMessage(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
