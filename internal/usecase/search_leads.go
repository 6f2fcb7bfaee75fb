package usecase

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
)

type SearchLeadsUseCase struct {
	Workflow WorkflowClient
	Logger   *zap.Logger
}

func NewSearchLeadsUseCase(workflow WorkflowClient, logger *zap.Logger) *SearchLeadsUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchLeadsUseCase{Workflow: workflow, Logger: logger}
}

// Execute issues exactly one webhook call for valid criteria. Transport errors
// and non-2xx statuses are rendered into the output instead of being returned.
func (uc *SearchLeadsUseCase) Execute(ctx context.Context, userID string, input SearchLeadsInput) (*SearchLeadsOutput, error) {
	criteria := entity.SearchCriteria{
		Industry:       input.Industry,
		Country:        input.Country,
		ProblemKeyword: input.ProblemKeyword,
		UserID:         userID,
	}

	if errs := ValidateSearchCriteria(criteria); len(errs) > 0 {
		return nil, errs[0]
	}

	payload, err := uc.Workflow.Search(ctx, criteria)
	if err != nil {
		uc.Logger.Warn("workflow search failed", zap.String("user_id", userID), zap.Error(err))

		body, _ := json.Marshal(map[string]string{"error": err.Error()})
		return &SearchLeadsOutput{
			Status:  "search failed: " + err.Error(),
			Results: body,
			Failed:  true,
		}, nil
	}

	return &SearchLeadsOutput{
		Status:  MsgSearchReceived,
		Results: payload,
	}, nil
}
