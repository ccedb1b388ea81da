// internal/workers/data-access/project-store/handler_test.go
package projectstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"competitor-intel/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 2 * time.Second}
}

var projectColumns = []string{
	"id", "owner_id", "name", "market", "product", "constraints", "risk_posture", "notify_email", "created_at",
}

func projectRow(owner string) *sqlmock.Rows {
	return sqlmock.NewRows(projectColumns).AddRow(
		"p1", owner, "Atlas", "B2B analytics", "Dashboards", "", "balanced", "pm@example.com",
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, owner_id, name`).
		WithArgs("p1").
		WillReturnRows(projectRow("u1"))
	mock.ExpectQuery(`FROM competitors`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "name", "url", "evidence_text"}).
			AddRow("c1", "p1", "Acme", "https://acme.io", "").
			AddRow("c2", "p1", "Globex", "", "Globex sells widgets"))

	h := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{ProjectID: "p1", UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, "Atlas", out.Project.Name)
	assert.Equal(t, "balanced", out.Project.RiskPosture)
	require.Len(t, out.Competitors, 2)
	assert.Equal(t, "https://acme.io", out.Competitors[0].URL)
	assert.Equal(t, "Globex sells widgets", out.Competitors[1].EvidenceText)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_GetOwnedProject_NotFoundAndForbiddenAreDistinct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, owner_id, name`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(projectColumns))
	mock.ExpectQuery(`SELECT id, owner_id, name`).
		WithArgs("p1").
		WillReturnRows(projectRow("someone-else"))

	h := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	_, err = h.GetOwnedProject(context.Background(), "missing", "u1")
	assert.True(t, errors.Is(err, ErrProjectNotFound))
	assert.False(t, errors.Is(err, ErrNotProjectOwner))

	_, err = h.GetOwnedProject(context.Background(), "p1", "u1")
	assert.True(t, errors.Is(err, ErrNotProjectOwner))
	assert.False(t, errors.Is(err, ErrProjectNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_ListCompetitors_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM competitors`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "name", "url", "evidence_text"}))

	h := NewHandler(createTestConfig(), db, logger.NewNoOpLogger())
	competitors, err := h.ListCompetitors(context.Background(), "p1")

	require.NoError(t, err)
	assert.NotNil(t, competitors)
	assert.Empty(t, competitors)
}

func TestHandler_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM competitors`).
		WithArgs("p1").
		WillReturnError(errors.New("connection reset"))

	h := NewHandler(createTestConfig(), db, logger.NewNoOpLogger())
	_, err = h.ListCompetitors(context.Background(), "p1")

	assert.True(t, errors.Is(err, ErrQueryExecutionFailed))
}
