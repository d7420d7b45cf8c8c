// Package agent calls the external scraping agent that discovers a school's
// staff directory and extracts coach contacts from it.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/retry"
)

const (
	pipelinePath   = "/pipeline"
	DefaultTimeout = 110 * time.Second
	maxErrorBody   = 512
)

// StatusError is a non-2xx reply from the agent. 429 and 5xx are retried.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("agent returned %d: %s", e.Code, e.Body)
}

func (e *StatusError) IsRetryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client runs the agent pipeline over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	retry   *retry.Config
	logger  *zap.Logger
}

// NewClient builds a Client. A nil retry config means three attempts with
// exponential backoff starting at one second.
func NewClient(baseURL string, timeout time.Duration, rc *retry.Config, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if rc == nil {
		rc = retry.DefaultConfig()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		retry:   rc,
		logger:  logger.Named("agent"),
	}
}

// Run returns every coach the agent found for school and sport. School and
// sport are filled in on results that omit them.
func (c *Client) Run(ctx context.Context, school, sport string) ([]model.CoachProfile, error) {
	body, err := json.Marshal(model.SearchRequest{SchoolName: school, SportName: sport})
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}

	var (
		coaches []model.CoachProfile
		attempt int
	)
	err = retry.DoIfRetryable(ctx, c.retry, func() error {
		attempt++
		var err error
		coaches, err = c.call(ctx, body)
		if err != nil {
			c.logger.Warn("agent call failed",
				zap.String("school", school),
				zap.String("sport", sport),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	for i := range coaches {
		if coaches[i].School == "" {
			coaches[i].School = school
		}
		if coaches[i].Sport == "" {
			coaches[i].Sport = sport
		}
	}
	c.logger.Info("agent pipeline finished",
		zap.String("school", school),
		zap.String("sport", sport),
		zap.Int("coaches", len(coaches)),
	)
	return coaches, nil
}

func (c *Client) call(ctx context.Context, body []byte) ([]model.CoachProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pipelinePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http POST %s: %w", pipelinePath, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(raw))
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: excerpt}
	}

	coaches := make([]model.CoachProfile, 0)
	if err := json.Unmarshal(raw, &coaches); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return coaches, nil
}
