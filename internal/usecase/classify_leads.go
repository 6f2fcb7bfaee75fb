package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
)

type ClassifyLeadsUseCase struct {
	Classifier LeadClassifier
	Repo       entity.EnrichedLeadRepositoryInterface
	Reporter   ReportSender
	Logger     *zap.Logger
}

func NewClassifyLeadsUseCase(
	classifier LeadClassifier,
	repo entity.EnrichedLeadRepositoryInterface,
	reporter ReportSender,
	logger *zap.Logger,
) *ClassifyLeadsUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifyLeadsUseCase{
		Classifier: classifier,
		Repo:       repo,
		Reporter:   reporter,
		Logger:     logger,
	}
}

// Execute validates the profile, asks the classifier for matching leads and
// persists them in one bulk insert. Validation failures never reach the classifier.
func (uc *ClassifyLeadsUseCase) Execute(ctx context.Context, input ClassifyLeadsInput) (*ClassifyLeadsOutput, error) {
	if err := ValidateProfile(input.Profile); err != nil {
		return nil, err
	}
	if len(input.Leads) == 0 {
		return nil, ValidationError{"leads", MsgNoLeadsToAnalyze}
	}

	uc.Logger.Info("classifying leads", zap.Int("raw_leads", len(input.Leads)))

	results, err := uc.Classifier.Classify(ctx, input.Profile, input.Leads)
	if err != nil {
		return nil, &TechnicalError{
			Code:    "INFERENCE_FAILED",
			Message: "failed to get a valid response from the AI",
			Err:     err,
		}
	}

	if len(results) == 0 {
		return &ClassifyLeadsOutput{
			Status: MsgNoMatchingLeads,
			Leads:  []entity.EnrichedLead{},
		}, nil
	}

	toInsert := make([]entity.EnrichedLead, 0, len(results))
	for _, lead := range results {
		toInsert = append(toInsert, lead.ForInsert())
	}

	if err := uc.Repo.InsertAll(ctx, toInsert); err != nil {
		return nil, &UpstreamError{
			Service: "store",
			Message: fmt.Sprintf("failed to save leads: %v", err),
			Err:     err,
		}
	}

	uc.Logger.Info("enriched leads saved", zap.Int("saved", len(toInsert)))

	if uc.Reporter != nil && input.OperatorEmail != "" {
		if err := uc.Reporter.SendClassificationReport(input.OperatorEmail, toInsert); err != nil {
			uc.Logger.Warn("classification report not sent", zap.Error(err))
		}
	}

	return &ClassifyLeadsOutput{
		Status: fmt.Sprintf("saved %d leads successfully", len(toInsert)),
		Leads:  results,
		Saved:  len(toInsert),
	}, nil
}
