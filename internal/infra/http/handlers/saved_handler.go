package handlers

import (
	"net/http"

	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type SavedLeadsHandler struct{}

func NewSavedLeadsHandler() *SavedLeadsHandler {
	return &SavedLeadsHandler{}
}

type SavedLeadsResponse struct {
	Status string             `json:"status"`
	Leads  []usecase.LeadCard `json:"leads"`
}

func (h *SavedLeadsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ws := middleware.WorkspaceFrom(r.Context())

	out := ws.Saved(r.Context())

	status := http.StatusOK
	if out.Failed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, SavedLeadsResponse{
		Status: out.Status,
		Leads:  usecase.NewLeadCards(out.Leads),
	})
}
