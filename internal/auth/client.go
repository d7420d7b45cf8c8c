package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

const (
	signUpPath  = "/api/auth/signup"
	signInPath  = "/api/auth/signin"
	refreshPath = "/api/auth/refresh"

	clientTimeout = 15 * time.Second
)

// Credentials is the body of the sign-in and sign-up endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client talks to the SKOUT API's account endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: clientTimeout},
	}
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	return c.post(ctx, signUpPath, "", Credentials{Email: email, Password: password})
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	return c.post(ctx, signInPath, "", Credentials{Email: email, Password: password})
}

func (c *Client) Refresh(ctx context.Context, sess *model.Session) (*model.Session, error) {
	if sess == nil {
		return nil, ErrInvalidToken
	}
	return c.post(ctx, refreshPath, sess.AccessToken, nil)
}

// SignOut only forgets the session locally.
func (c *Client) SignOut(context.Context, *model.Session) error { return nil }

func (c *Client) post(ctx context.Context, path, token string, in any) (*model.Session, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("json marshal: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Code != "" {
			return nil, &Error{Code: e.Code, Msg: e.Error}
		}
		return nil, fmt.Errorf("http POST %s: status %d", path, resp.StatusCode)
	}

	var sess model.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}
