package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type AnalysisHandler struct {
	logger *zap.Logger
}

func NewAnalysisHandler(logger *zap.Logger) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandler{logger: logger}
}

type AnalysisRequest struct {
	MyBusiness     string `json:"my_business"`
	TargetCustomer string `json:"target_customer"`
}

// AnalysisResponse has Leads nil before the first run and empty after a run
// without matches.
type AnalysisResponse struct {
	Status   string             `json:"status"`
	InFlight bool               `json:"in_flight"`
	Saved    int                `json:"saved"`
	Leads    []usecase.LeadCard `json:"leads"`
}

// Run classifies the workspace's live leads. It waits for the result; the
// classification continues even if the client disconnects.
func (h *AnalysisHandler) Run(w http.ResponseWriter, r *http.Request) {
	ws := middleware.WorkspaceFrom(r.Context())

	var req AnalysisRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := ws.Analyze(r.Context(), entity.Profile{
		MyBusiness:     req.MyBusiness,
		TargetCustomer: req.TargetCustomer,
	})
	if err != nil {
		switch {
		case usecase.IsValidationError(err):
			middleware.RecordClassification("rejected")
		case errors.Is(err, usecase.ErrClassificationInFlight):
			middleware.RecordClassification("busy")
		case errors.Is(err, usecase.ErrWorkspaceClosed):
			middleware.RecordClassification("discarded")
		default:
			middleware.RecordClassification("failed")
			h.logger.Warn("analysis failed", zap.String("workspace_id", ws.ID), zap.Error(err))
		}
		writeError(w, "analysis failed", err)
		return
	}

	outcome := "saved"
	if out.Saved == 0 {
		outcome = "no_match"
	}
	middleware.RecordClassification(outcome)
	middleware.RecordLeadsPersisted(out.Saved)

	writeJSON(w, http.StatusOK, AnalysisResponse{
		Status: out.Status,
		Saved:  out.Saved,
		Leads:  usecase.NewLeadCards(out.Leads),
	})
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws := middleware.WorkspaceFrom(r.Context())
	results, inFlight := ws.Results()

	resp := AnalysisResponse{Status: ws.Status(), InFlight: inFlight}
	if results != nil {
		resp.Leads = usecase.NewLeadCards(results)
	}
	writeJSON(w, http.StatusOK, resp)
}
