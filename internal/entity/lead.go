package entity

import (
	"context"
	"time"
)

// RawLead is a row of the "lead" table written by the upstream ingestion.
// This service never mutates it.
type RawLead struct {
	ID                int64     `json:"id" db:"id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	PostTitle         *string   `json:"post_title" db:"post_title"`
	PostURL           *string   `json:"post_url" db:"post_url"`
	AuthorName        *string   `json:"author_name" db:"author_name"`
	AuthorURL         *string   `json:"author_url" db:"author_url"`
	AuthorDescription *string   `json:"author_description" db:"author_description"`
}

type RawLeadRepositoryInterface interface {
	// ListNewestFirst returns every raw lead ordered by created_at DESC.
	ListNewestFirst(ctx context.Context) ([]RawLead, error)
}
