package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
)

type ListSavedLeadsUseCase struct {
	Repo   entity.EnrichedLeadRepositoryInterface
	Logger *zap.Logger
}

func NewListSavedLeadsUseCase(repo entity.EnrichedLeadRepositoryInterface, logger *zap.Logger) *ListSavedLeadsUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListSavedLeadsUseCase{Repo: repo, Logger: logger}
}

// Execute reads every persisted enriched lead, newest first. A store failure
// is reported in the status and yields an empty list.
func (uc *ListSavedLeadsUseCase) Execute(ctx context.Context) *ListSavedLeadsOutput {
	leads, err := uc.Repo.ListNewestFirst(ctx)
	if err != nil {
		uc.Logger.Error("error fetching saved leads", zap.Error(err))
		return &ListSavedLeadsOutput{
			Status: fmt.Sprintf("failed to fetch saved leads: %v", err),
			Leads:  []entity.EnrichedLead{},
			Failed: true,
		}
	}

	status := ""
	if len(leads) > 0 {
		status = fmt.Sprintf("found %d saved leads", len(leads))
	}
	if leads == nil {
		leads = []entity.EnrichedLead{}
	}

	return &ListSavedLeadsOutput{Status: status, Leads: leads}
}
