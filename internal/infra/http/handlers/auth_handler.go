package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/session"
)

type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{logger: logger}
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	State     string       `json:"state"`
	User      *entity.User `json:"user,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	Message   string       `json:"message,omitempty"`
}

func sessionResponse(g *session.Gate, message string) SessionResponse {
	resp := SessionResponse{State: g.State().String(), Message: message}
	if s := g.Session(); s != nil {
		user := s.User
		resp.User = &user
		if !s.ExpiresAt.IsZero() {
			exp := s.ExpiresAt
			resp.ExpiresAt = &exp
		}
	}
	return resp
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	gate := middleware.GateFrom(r.Context())

	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := gate.SignIn(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, "sign-in failed", err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(gate, ""))
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	gate := middleware.GateFrom(r.Context())

	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, msg, err := gate.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, "sign-up failed", err)
		return
	}

	status := http.StatusOK
	if s == nil {
		status = http.StatusAccepted
	}
	writeJSON(w, status, sessionResponse(gate, msg))
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	gate := middleware.GateFrom(r.Context())

	if err := gate.SignOut(r.Context()); err != nil {
		h.logger.Warn("sign-out not confirmed by auth service", zap.String("device_id", gate.DeviceID), zap.Error(err))
		writeJSON(w, http.StatusOK, sessionResponse(gate, "signed out locally: "+err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(gate, ""))
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	gate := middleware.GateFrom(r.Context())
	if gate == nil {
		writeJSON(w, http.StatusOK, SessionResponse{State: session.StateUnauthenticated.String()})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(gate, ""))
}
