package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

const (
	devSearchPath   = "/api/search/coaches/dev"
	asyncSearchPath = "/api/search/coaches"
	statusPath      = "/api/search/status/"
	healthPath      = "/health"

	// DefaultTimeout is the hard ceiling on a synchronous search.
	DefaultTimeout = 120 * time.Second

	maxErrorBody = 512
)

// TokenSource supplies the bearer token for the current session, or "" when
// signed out.
type TokenSource interface {
	AccessToken() string
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search API returned %d", e.Code)
	}
	return fmt.Sprintf("search API returned %d: %s", e.Code, e.Body)
}

// Client calls the SKOUT search API.
type Client struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
	logger  *zap.Logger
}

// NewClient constructs a client whose requests are abandoned after timeout.
// A zero timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("search"),
	}
}

// Search runs the synchronous search and returns the cleaned result list.
func (c *Client) Search(ctx context.Context, school, sport string) ([]model.CoachProfile, error) {
	var raw []model.CoachProfile
	if _, err := c.postJSON(ctx, devSearchPath, model.SearchRequest{SchoolName: school, SportName: sport}, &raw); err != nil {
		return nil, err
	}

	coaches := Clean(raw)
	c.logger.Debug("search complete",
		zap.String("school", school),
		zap.String("sport", sport),
		zap.Int("received", len(raw)),
		zap.Int("kept", len(coaches)))
	return coaches, nil
}

// SubmitResult is either a cached result list or a queued job.
type SubmitResult struct {
	Coaches []model.CoachProfile
	Job     *model.JobResponse
}

// Submit starts an asynchronous search. A 200 response carries cached
// results; a 202 response carries the job to poll with Status.
func (c *Client) Submit(ctx context.Context, school, sport string) (*SubmitResult, error) {
	var body json.RawMessage
	code, err := c.postJSON(ctx, asyncSearchPath, model.SearchRequest{SchoolName: school, SportName: sport}, &body)
	if err != nil {
		return nil, err
	}

	if code == http.StatusAccepted {
		var job model.JobResponse
		if err := json.Unmarshal(body, &job); err != nil {
			return nil, fmt.Errorf("decode job response: %w", err)
		}
		return &SubmitResult{Job: &job}, nil
	}

	var raw []model.CoachProfile
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode cached results: %w", err)
	}
	return &SubmitResult{Coaches: Clean(raw)}, nil
}

// Status fetches a background job. Results on a completed job are cleaned.
func (c *Client) Status(ctx context.Context, jobID uuid.UUID) (*model.Job, error) {
	req, err := c.newRequest(ctx, http.MethodGet, statusPath+jobID.String(), nil)
	if err != nil {
		return nil, err
	}

	var job model.Job
	if _, err := c.do(req, &job); err != nil {
		return nil, err
	}
	job.Results = Clean(job.Results)
	return &job, nil
}

// Ping checks that the search API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, healthPath, nil)
	if err != nil {
		return err
	}
	_, err = c.do(req, nil)
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) (int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(body))
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: excerpt}
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("json unmarshal: %w", err)
		}
	}
	return resp.StatusCode, nil
}
