package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadscout/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", "anon-key", time.Second)
}

func TestSignIn(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body credentialsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body.Email)
		assert.Equal(t, "secret", body.Password)

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "jwt",
			"refresh_token": "refresh",
			"expires_at":    1767225600,
			"user":          map[string]any{"id": "uid-1", "email": "ana@example.com"},
		})
	})

	s, err := client.SignIn(context.Background(), "ana@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "jwt", s.AccessToken)
	assert.Equal(t, "refresh", s.RefreshToken)
	assert.Equal(t, "uid-1", s.User.ID)
	assert.Equal(t, time.Unix(1767225600, 0), s.ExpiresAt)
}

func TestSignInRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	s, err := client.SignIn(context.Background(), "ana@example.com", "wrong")

	assert.Nil(t, s)
	require.Error(t, err)
	assert.True(t, usecase.IsUpstreamError(err))
	assert.Equal(t, "Invalid login credentials", err.Error())
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantSession bool
	}{
		{"confirmation required", `{"id":"uid-2","email":"new@example.com"}`, false},
		{"autoconfirm", `{"access_token":"jwt","expires_in":3600,"user":{"id":"uid-2","email":"new@example.com"}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth/v1/signup", r.URL.Path)
				w.Write([]byte(tt.response))
			})
			fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			client.now = func() time.Time { return fixed }

			s, err := client.SignUp(context.Background(), "new@example.com", "secret")

			require.NoError(t, err)
			if !tt.wantSession {
				assert.Nil(t, s)
				return
			}
			require.NotNil(t, s)
			assert.Equal(t, fixed.Add(time.Hour), s.ExpiresAt)
		})
	}
}

func TestSignOutAndGetUserSendBearer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		case "/auth/v1/user":
			w.Write([]byte(`{"id":"uid-1","email":"ana@example.com","role":"authenticated"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	require.NoError(t, client.SignOut(context.Background(), "jwt"))

	u, err := client.GetUser(context.Background(), "jwt")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", u.ID)
	assert.Equal(t, "ana@example.com", u.Email)
}

func TestUnreachableIsTechnicalError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "anon-key", 200*time.Millisecond)

	_, err := client.GetUser(context.Background(), "jwt")

	assert.True(t, usecase.IsTechnicalError(err))
}

func TestRefresh(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body refreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body.RefreshToken)

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "jwt-2",
			"refresh_token": "refresh-2",
			"expires_in":    3600,
			"user":          map[string]any{"id": "uid-1", "email": "ana@example.com"},
		})
	})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	s, err := client.Refresh(context.Background(), "refresh-1")

	require.NoError(t, err)
	assert.Equal(t, "jwt-2", s.AccessToken)
	assert.Equal(t, "refresh-2", s.RefreshToken)
	assert.Equal(t, "uid-1", s.User.ID)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)
}

func TestRefreshErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		upstream  bool
		technical bool
	}{
		{name: "revoked token", status: http.StatusBadRequest, upstream: true},
		{name: "auth outage", status: http.StatusServiceUnavailable, technical: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`))
			})

			s, err := client.Refresh(context.Background(), "refresh-1")

			require.Error(t, err)
			assert.Nil(t, s)
			assert.Equal(t, tt.upstream, usecase.IsUpstreamError(err))
			assert.Equal(t, tt.technical, usecase.IsTechnicalError(err))
		})
	}
}
