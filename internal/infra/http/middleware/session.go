package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/xavierca1/leadscout/internal/session"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type contextKey string

const (
	deviceIDKey  contextKey = "device_id"
	gateKey      contextKey = "gate"
	workspaceKey contextKey = "workspace"
)

func DeviceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(deviceIDKey).(string)
	return id
}

func GateFrom(ctx context.Context) *session.Gate {
	g, _ := ctx.Value(gateKey).(*session.Gate)
	return g
}

func WorkspaceFrom(ctx context.Context) *session.Workspace {
	ws, _ := ctx.Value(workspaceKey).(*session.Workspace)
	return ws
}

func WithGate(ctx context.Context, g *session.Gate) context.Context {
	return context.WithValue(ctx, gateKey, g)
}

func WithWorkspace(ctx context.Context, ws *session.Workspace) context.Context {
	return context.WithValue(ctx, workspaceKey, ws)
}

// Device identifies the browser with a long-lived cookie, issuing one on
// first contact, and resolves its gate. A fresh device on a read-only request
// gets no gate: it cannot have a session yet.
func Device(manager *session.Manager, cookieName string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					deviceID = c.Value
				}
			}
			fresh := deviceID == ""
			if fresh {
				deviceID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    deviceID,
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), deviceIDKey, deviceID)
			if fresh && readOnly(r.Method) {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			var gate *session.Gate
			if fresh {
				gate = manager.NewDeviceGate(deviceID)
			} else {
				gate = manager.Gate(deviceID)
				gate.Resolve(ctx)
			}

			next.ServeHTTP(w, r.WithContext(WithGate(ctx, gate)))
		})
	}
}

func readOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// RequireWorkspace rejects requests from devices without an authenticated session.
func RequireWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gate := GateFrom(r.Context())
		var ws *session.Workspace
		if gate != nil {
			ws = gate.Workspace()
		}
		if ws == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": usecase.ErrNotAuthenticated.Message,
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithWorkspace(r.Context(), ws)))
	})
}
