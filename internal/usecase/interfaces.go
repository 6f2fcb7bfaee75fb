package usecase

import (
	"context"
	"encoding/json"

	"github.com/xavierca1/leadscout/internal/entity"
)

// LeadClassifier is the inference call seen as a pure function (profile, raw leads) -> enriched leads.
type LeadClassifier interface {
	Classify(ctx context.Context, profile entity.Profile, leads []entity.RawLead) ([]entity.EnrichedLead, error)
}

// WorkflowClient posts search criteria to the external workflow webhook.
type WorkflowClient interface {
	Search(ctx context.Context, criteria entity.SearchCriteria) (json.RawMessage, error)
}

type ReportSender interface {
	SendClassificationReport(to string, leads []entity.EnrichedLead) error
}
