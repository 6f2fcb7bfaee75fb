package usecase

import (
	"encoding/json"

	"github.com/xavierca1/leadscout/internal/entity"
)

type ClassifyLeadsInput struct {
	Profile       entity.Profile
	Leads         []entity.RawLead
	OperatorEmail string
}

type ClassifyLeadsOutput struct {
	Status string                `json:"status"`
	Leads  []entity.EnrichedLead `json:"leads"`
	Saved  int                   `json:"saved"`
}

type SearchLeadsInput struct {
	Industry       string `json:"industry"`
	Country        string `json:"country"`
	ProblemKeyword string `json:"problem_keyword"`
}

// SearchLeadsOutput carries the webhook payload verbatim, or {"error": ...} when the call failed.
type SearchLeadsOutput struct {
	Status  string          `json:"status"`
	Results json.RawMessage `json:"results"`
	Failed  bool            `json:"failed"`
}

type ListSavedLeadsOutput struct {
	Status string                `json:"status"`
	Leads  []entity.EnrichedLead `json:"leads"`
	Failed bool                  `json:"failed"`
}

// LeadCard is how an EnrichedLead is rendered, fresh or persisted.
type LeadCard struct {
	entity.EnrichedLead
	Band entity.ScoreBand `json:"band"`
}

func NewLeadCards(leads []entity.EnrichedLead) []LeadCard {
	cards := make([]LeadCard, 0, len(leads))
	for _, l := range leads {
		cards = append(cards, LeadCard{EnrichedLead: l, Band: l.Band()})
	}
	return cards
}
