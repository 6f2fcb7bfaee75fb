package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/leadscout/internal/entity"
)

// EnrichedLeadRepository persists classification results in "my_lead".
type EnrichedLeadRepository struct {
	DB *sqlx.DB
}

func NewEnrichedLeadRepository(db *sqlx.DB) *EnrichedLeadRepository {
	return &EnrichedLeadRepository{DB: db}
}

// InsertAll writes every lead inside one transaction. Either all rows land or none do.
func (r *EnrichedLeadRepository) InsertAll(ctx context.Context, leads []entity.EnrichedLead) error {
	if len(leads) == 0 {
		return nil
	}

	query := `
		INSERT INTO my_lead (full_name, interests, success_rate, phone, email, profile_url, post_text, post_summary, message_content)
		VALUES (:full_name, :interests, :success_rate, :phone, :email, :profile_url, :post_text, :post_summary, :message_content)
	`

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	for i, lead := range leads {
		if _, err := tx.NamedExecContext(ctx, query, lead); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert lead %d of %d: %w", i+1, len(leads), err)
		}
	}

	return tx.Commit()
}

func (r *EnrichedLeadRepository) ListNewestFirst(ctx context.Context) ([]entity.EnrichedLead, error) {
	query := `
		SELECT id, created_at, full_name, interests, success_rate, phone, email,
			profile_url, post_text, post_summary, message_content
		FROM my_lead
		ORDER BY created_at DESC
	`

	leads := []entity.EnrichedLead{}
	if err := r.DB.SelectContext(ctx, &leads, query); err != nil {
		return nil, err
	}

	return leads, nil
}
