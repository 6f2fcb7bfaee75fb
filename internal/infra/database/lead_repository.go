package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/leadscout/internal/entity"
)

// RawLeadRepository reads the "lead" table filled by the external scraper.
type RawLeadRepository struct {
	DB *sqlx.DB
}

func NewRawLeadRepository(db *sqlx.DB) *RawLeadRepository {
	return &RawLeadRepository{DB: db}
}

func (r *RawLeadRepository) ListNewestFirst(ctx context.Context) ([]entity.RawLead, error) {
	query := `
		SELECT id, created_at, post_title, post_url, author_name, author_url, author_description
		FROM lead
		ORDER BY created_at DESC
	`

	leads := []entity.RawLead{}
	if err := r.DB.SelectContext(ctx, &leads, query); err != nil {
		return nil, err
	}

	return leads, nil
}

// GetByID returns sql.ErrNoRows when the row does not exist.
func (r *RawLeadRepository) GetByID(ctx context.Context, id int64) (entity.RawLead, error) {
	query := `
		SELECT id, created_at, post_title, post_url, author_name, author_url, author_description
		FROM lead
		WHERE id = $1
	`

	var lead entity.RawLead
	if err := r.DB.GetContext(ctx, &lead, query, id); err != nil {
		return entity.RawLead{}, err
	}

	return lead, nil
}
