package usecase_test

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/leadscout/internal/entity"
)

type MockLeadClassifier struct {
	mock.Mock
}

func (m *MockLeadClassifier) Classify(ctx context.Context, profile entity.Profile, leads []entity.RawLead) ([]entity.EnrichedLead, error) {
	args := m.Called(ctx, profile, leads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.EnrichedLead), args.Error(1)
}

type MockEnrichedLeadRepository struct {
	mock.Mock
}

func (m *MockEnrichedLeadRepository) InsertAll(ctx context.Context, leads []entity.EnrichedLead) error {
	args := m.Called(ctx, leads)
	return args.Error(0)
}

func (m *MockEnrichedLeadRepository) ListNewestFirst(ctx context.Context) ([]entity.EnrichedLead, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.EnrichedLead), args.Error(1)
}

type MockWorkflowClient struct {
	mock.Mock
}

func (m *MockWorkflowClient) Search(ctx context.Context, criteria entity.SearchCriteria) (json.RawMessage, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockReportSender struct {
	mock.Mock
}

func (m *MockReportSender) SendClassificationReport(to string, leads []entity.EnrichedLead) error {
	args := m.Called(to, leads)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func sampleRawLeads() []entity.RawLead {
	return []entity.RawLead{
		{ID: 2, PostTitle: strPtr("Looking for a marketing agency"), AuthorName: strPtr("Omar Haddad"), AuthorURL: strPtr("https://linkedin.com/in/omar")},
		{ID: 1, PostTitle: strPtr("Opening a second restaurant"), AuthorName: strPtr("Lina Saleh"), AuthorURL: strPtr("https://linkedin.com/in/lina")},
	}
}

func sampleEnrichedLead(rate int) entity.EnrichedLead {
	return entity.EnrichedLead{
		FullName:       "Omar Haddad",
		Interests:      "marketing, restaurants, growth",
		SuccessRate:    rate,
		Email:          strPtr("omar@example.com"),
		ProfileURL:     "https://linkedin.com/in/omar",
		PostText:       "Looking for a marketing agency",
		PostSummary:    "Omar needs help marketing his restaurant.",
		MessageContent: "مرحباً Omar Haddad, ... would a short call this week work?",
	}
}
