package entity

import (
	"context"
	"time"
)

type ScoreBand string

const (
	ScoreBandGreen  ScoreBand = "green"
	ScoreBandYellow ScoreBand = "yellow"
	ScoreBandRed    ScoreBand = "red"
)

// EnrichedLead is a RawLead after scoring, summarization and message drafting.
// ID and CreatedAt are only set once the row has been persisted in "my_lead".
type EnrichedLead struct {
	ID             *int64     `json:"id,omitempty" db:"id"`
	CreatedAt      *time.Time `json:"created_at,omitempty" db:"created_at"`
	FullName       string     `json:"full_name" db:"full_name"`
	Interests      string     `json:"interests" db:"interests"`
	SuccessRate    int        `json:"success_rate" db:"success_rate"`
	Phone          *string    `json:"phone" db:"phone"`
	Email          *string    `json:"email" db:"email"`
	ProfileURL     string     `json:"profile_url" db:"profile_url"`
	PostText       string     `json:"post_text" db:"post_text"`
	PostSummary    string     `json:"post_summary" db:"post_summary"`
	MessageContent string     `json:"message_content" db:"message_content"`
}

// Band maps the success rate onto the indicator colour: >75 green, 51-75 yellow, <=50 red.
func (l EnrichedLead) Band() ScoreBand {
	switch {
	case l.SuccessRate > 75:
		return ScoreBandGreen
	case l.SuccessRate > 50:
		return ScoreBandYellow
	default:
		return ScoreBandRed
	}
}

// ForInsert returns a copy without the store-assigned columns.
func (l EnrichedLead) ForInsert() EnrichedLead {
	l.ID = nil
	l.CreatedAt = nil
	return l
}

type EnrichedLeadRepositoryInterface interface {
	// InsertAll stores every lead in one transaction: either all rows land or none.
	InsertAll(ctx context.Context, leads []EnrichedLead) error
	ListNewestFirst(ctx context.Context) ([]EnrichedLead, error)
}
