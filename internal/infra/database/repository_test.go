package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadscout/internal/entity"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func strPtr(s string) *string { return &s }

func TestRawLeadRepository_ListNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	newer := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	older := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "created_at", "post_title", "post_url", "author_name", "author_url", "author_description"}).
		AddRow(2, newer, "Need a CRM", "https://linkedin.com/p/2", "Omar", "https://linkedin.com/in/omar", nil).
		AddRow(1, older, nil, nil, "Lina", nil, "Owner at Saleh Foods")
	mock.ExpectQuery(`SELECT id, created_at, post_title .* FROM lead\s+ORDER BY created_at DESC`).WillReturnRows(rows)

	leads, err := NewRawLeadRepository(db).ListNewestFirst(context.Background())

	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, int64(2), leads[0].ID)
	assert.Equal(t, "Need a CRM", *leads[0].PostTitle)
	assert.Nil(t, leads[0].AuthorDescription)
	assert.Nil(t, leads[1].PostTitle)
	assert.Equal(t, "Owner at Saleh Foods", *leads[1].AuthorDescription)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRawLeadRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "created_at", "post_title", "post_url", "author_name", "author_url", "author_description"}).
		AddRow(int64(21), time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), "Need a CRM", nil, "Omar", nil, nil)
	mock.ExpectQuery(`FROM lead\s+WHERE id = \$1`).WithArgs(int64(21)).WillReturnRows(rows)

	lead, err := NewRawLeadRepository(db).GetByID(context.Background(), 21)

	require.NoError(t, err)
	assert.Equal(t, int64(21), lead.ID)
	assert.Equal(t, "Need a CRM", *lead.PostTitle)
	assert.Nil(t, lead.PostURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRawLeadRepository_GetByIDMissing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`WHERE id = \$1`).WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	_, err := NewRawLeadRepository(db).GetByID(context.Background(), 99)

	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRawLeadRepository_ListNewestFirstError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM lead`).WillReturnError(errors.New("relation \"lead\" does not exist"))

	leads, err := NewRawLeadRepository(db).ListNewestFirst(context.Background())

	assert.Nil(t, leads)
	assert.EqualError(t, err, `relation "lead" does not exist`)
}

func TestEnrichedLeadRepository_InsertAllCommits(t *testing.T) {
	db, mock := newMockDB(t)
	leads := []entity.EnrichedLead{
		{FullName: "Omar", Interests: "crm, sales", SuccessRate: 83, Email: strPtr("omar@example.com"), ProfileURL: "https://linkedin.com/in/omar", PostText: "Need a CRM", PostSummary: "Looking for a CRM", MessageContent: "مرحباً Omar"},
		{FullName: "Lina", Interests: "food", SuccessRate: 40, ProfileURL: "https://linkedin.com/in/lina", PostText: "Opening", PostSummary: "New branch", MessageContent: "مرحباً Lina"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO my_lead`).
		WithArgs("Omar", "crm, sales", 83, nil, "omar@example.com", "https://linkedin.com/in/omar", "Need a CRM", "Looking for a CRM", "مرحباً Omar").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO my_lead`).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := NewEnrichedLeadRepository(db).InsertAll(context.Background(), leads)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrichedLeadRepository_InsertAllRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	leads := []entity.EnrichedLead{
		{FullName: "Omar", SuccessRate: 83, ProfileURL: "p", MessageContent: "m"},
		{FullName: "Bad", SuccessRate: 140, ProfileURL: "p", MessageContent: "m"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO my_lead`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO my_lead`).WillReturnError(errors.New(`new row violates check constraint "my_lead_success_rate_check"`))
	mock.ExpectRollback()

	err := NewEnrichedLeadRepository(db).InsertAll(context.Background(), leads)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "my_lead_success_rate_check")
	assert.Contains(t, err.Error(), "insert lead 2 of 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrichedLeadRepository_InsertAllEmptyIsNoop(t *testing.T) {
	db, mock := newMockDB(t)

	require.NoError(t, NewEnrichedLeadRepository(db).InsertAll(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrichedLeadRepository_ListNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	created := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	columns := []string{"id", "created_at", "full_name", "interests", "success_rate", "phone", "email", "profile_url", "post_text", "post_summary", "message_content"}
	rows := sqlmock.NewRows(columns).
		AddRow(7, created, "Omar", "crm, sales", 83, nil, "omar@example.com", "https://linkedin.com/in/omar", "Need a CRM", "Looking for a CRM", "مرحباً Omar")

	mock.ExpectQuery(`FROM my_lead\s+ORDER BY created_at DESC`).WillReturnRows(rows)

	leads, err := NewEnrichedLeadRepository(db).ListNewestFirst(context.Background())

	require.NoError(t, err)
	require.Len(t, leads, 1)
	require.NotNil(t, leads[0].ID)
	assert.Equal(t, int64(7), *leads[0].ID)
	assert.Equal(t, created, *leads[0].CreatedAt)
	assert.Equal(t, 83, leads[0].SuccessRate)
	assert.Nil(t, leads[0].Phone)
	assert.Equal(t, "omar@example.com", *leads[0].Email)
	assert.Equal(t, entity.ScoreBandGreen, leads[0].Band())
	assert.NoError(t, mock.ExpectationsWereMet())
}
