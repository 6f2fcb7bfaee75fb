package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
)

const heartbeatInterval = 25 * time.Second

type FeedHandler struct {
	logger *zap.Logger
}

func NewFeedHandler(logger *zap.Logger) *FeedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedHandler{logger: logger}
}

type StatusResponse struct {
	Status string      `json:"status"`
	User   entity.User `json:"user"`
}

type LeadsResponse struct {
	Leads   []entity.RawLead `json:"leads"`
	Loading bool             `json:"loading"`
}

func (h *FeedHandler) Status(w http.ResponseWriter, r *http.Request) {
	ws := middleware.WorkspaceFrom(r.Context())
	writeJSON(w, http.StatusOK, StatusResponse{Status: ws.Status(), User: ws.User})
}

func (h *FeedHandler) Leads(w http.ResponseWriter, r *http.Request) {
	ws := middleware.WorkspaceFrom(r.Context())
	leads, loading := ws.Feed.Snapshot()
	writeJSON(w, http.StatusOK, LeadsResponse{Leads: leads, Loading: loading})
}

// Stream pushes the feed as server-sent events: one "snapshot" event with the
// whole sequence, then one "insert" event per new lead.
func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ws := middleware.WorkspaceFrom(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorResponse(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, stop := ws.Feed.Watch()
	defer stop()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("encode feed event", zap.Error(err))
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
