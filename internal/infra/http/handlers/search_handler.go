package handlers

import (
	"net/http"

	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type SearchHandler struct{}

func NewSearchHandler() *SearchHandler {
	return &SearchHandler{}
}

// Handle forwards the criteria to the workflow. A failed call still renders
// the error-shaped result, with 502.
func (h *SearchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ws := middleware.WorkspaceFrom(r.Context())

	var input usecase.SearchLeadsInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := ws.Search(r.Context(), input)
	if err != nil {
		writeError(w, "search failed", err)
		return
	}

	status := http.StatusOK
	if out.Failed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, out)
}
