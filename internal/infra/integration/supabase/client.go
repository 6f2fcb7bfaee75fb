package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/usecase"
)

// Client talks to the GoTrue REST API of a Supabase project.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	now     func() time.Time
}

func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*entity.Session, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentialsRequest{email, password}, &resp)
	if err != nil {
		return nil, err
	}
	return c.toSession(resp), nil
}

// SignUp returns a nil session when the project requires email confirmation.
func (c *Client) SignUp(ctx context.Context, email, password string) (*entity.Session, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", credentialsRequest{email, password}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, nil
	}
	return c.toSession(resp), nil
}

// Refresh exchanges a refresh token for a new session. GoTrue rotates the
// refresh token, so the returned one replaces the old.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*entity.Session, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", refreshRequest{refreshToken}, &resp)
	if err != nil {
		return nil, err
	}
	return c.toSession(resp), nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*entity.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return &entity.User{ID: resp.ID, Email: resp.Email}, nil
}

func (c *Client) toSession(resp sessionResponse) *entity.Session {
	s := &entity.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         entity.User{ID: resp.User.ID, Email: resp.User.Email},
	}
	switch {
	case resp.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
	case resp.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return s
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal auth request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("supabase")
		return &usecase.TechnicalError{Code: "AUTH_UNREACHABLE", Message: "auth service unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr errorResponse
		msg := ""
		if json.Unmarshal(raw, &apiErr) == nil {
			msg = apiErr.text()
		}
		if msg == "" {
			msg = fmt.Sprintf("auth request failed, status: %d", resp.StatusCode)
		}
		if resp.StatusCode >= 500 {
			middleware.RecordIntegrationError("supabase")
			return &usecase.TechnicalError{Code: "AUTH_UNAVAILABLE", Message: msg}
		}
		return &usecase.UpstreamError{Service: "auth", Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &usecase.TechnicalError{Code: "AUTH_BAD_RESPONSE", Message: "malformed auth response", Err: err}
	}
	return nil
}
