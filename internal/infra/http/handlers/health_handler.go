package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Pinger is satisfied by *sqlx.DB and the Redis session store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	DB         Pinger
	Redis      Pinger
	RabbitMQ   *amqp091.Connection
	Configured map[string]bool
	Version    string
	StartTime  time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(db, redis Pinger, rabbitMQ *amqp091.Connection, configured map[string]bool, version string) *HealthHandler {
	return &HealthHandler{
		DB:         db,
		Redis:      redis,
		RabbitMQ:   rabbitMQ,
		Configured: configured,
		Version:    version,
		StartTime:  time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)
	deps["database"] = ping(ctx, h.DB)
	deps["redis"] = ping(ctx, h.Redis)

	if h.RabbitMQ != nil {
		if h.RabbitMQ.IsClosed() {
			deps["rabbitmq"] = "unhealthy: connection closed"
		} else {
			deps["rabbitmq"] = "healthy"
		}
	}

	for name, ok := range h.Configured {
		if ok {
			deps[name] = "configured"
		} else {
			deps[name] = "not configured"
		}
	}

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "configured" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.PingContext(ctx); err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	return "healthy"
}
