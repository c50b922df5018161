package repositories_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utiliwatch/triage-engine/pkg/apperrors"
	"github.com/utiliwatch/triage-engine/pkg/models"
	"github.com/utiliwatch/triage-engine/pkg/repositories"
	"github.com/utiliwatch/triage-engine/pkg/testhelpers"
)

func seedIncident(t *testing.T, repo repositories.IncidentRepository, description, category, severity string) *models.Incident {
	t.Helper()
	incident := &models.Incident{
		Address:         "123 Main St",
		Description:     description,
		Category:        category,
		Severity:        severity,
		Summary:         category + " incident reported. " + description,
		NextSteps:       []string{"Dispatch crew"},
		CustomerMessage: "A crew is on the way.",
	}
	require.NoError(t, repo.Create(context.Background(), incident))
	return incident
}

func TestIncidentRepository_CreateAndGet(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, db)
	repo := repositories.NewIncidentRepository(db.DB)

	created := seedIncident(t, repo, "gas smell near school", models.CategoryLeak, models.SeverityHigh)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "gas smell near school", got.Description)
	assert.Equal(t, []string{"Dispatch crew"}, got.NextSteps)
}

func TestIncidentRepository_GetByID_NotFound(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, db)
	repo := repositories.NewIncidentRepository(db.DB)

	_, err := repo.GetByID(context.Background(), 424242)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestIncidentRepository_ListFilters(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, db)
	repo := repositories.NewIncidentRepository(db.DB)

	seedIncident(t, repo, "gas smell on Oak", models.CategoryLeak, models.SeverityHigh)
	seedIncident(t, repo, "street light out", models.CategoryOutage, models.SeverityMedium)
	seedIncident(t, repo, "billing dispute", models.CategoryBilling, models.SeverityLow)

	bySeverity, err := repo.List(context.Background(), repositories.IncidentFilters{Severity: models.SeverityHigh})
	require.NoError(t, err)
	require.Len(t, bySeverity, 1)
	assert.Equal(t, models.CategoryLeak, bySeverity[0].Category)

	search, err := repo.List(context.Background(), repositories.IncidentFilters{Search: "OAK"})
	require.NoError(t, err)
	require.Len(t, search, 1, "search must be case-insensitive")

	all, err := repo.List(context.Background(), repositories.IncidentFilters{
		SortKey: repositories.SortCreatedAt,
		SortDir: "asc",
	})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "gas smell on Oak", all[0].Description)
}

func TestIncidentRepository_CreateWithID_ConflictAndSequenceSync(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, db)
	repo := repositories.NewIncidentRepository(db.DB)
	ctx := context.Background()

	imported := &models.Incident{
		ID:          50,
		Description: "imported record",
		Category:    models.CategoryOther,
		Severity:    models.SeverityLow,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.CreateWithID(ctx, imported))

	err := repo.CreateWithID(ctx, imported)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	require.NoError(t, repo.SyncIDSequence(ctx))

	next := seedIncident(t, repo, "after import", models.CategoryOther, models.SeverityLow)
	assert.Greater(t, next.ID, int64(50), "sequence must move past imported ids")
}

func TestSuggestionAndAuditRepositories_RoundTrip(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, db)
	ctx := context.Background()

	incident := seedIncident(t, repositories.NewIncidentRepository(db.DB), "gas smell", models.CategoryLeak, models.SeverityHigh)

	suggestionRepo := repositories.NewSuggestionRepository(db.DB)
	suggestion := &models.AISuggestion{
		IncidentID:    incident.ID,
		Payload:       json.RawMessage(`{"category":"Leak","severity":"High","mode":"rules"}`),
		Provider:      "rules",
		PromptVersion: "triage-v3",
	}
	require.NoError(t, suggestionRepo.Create(ctx, suggestion))

	suggestions, err := suggestionRepo.GetByIncident(ctx, incident.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.JSONEq(t, string(suggestion.Payload), string(suggestions[0].Payload))

	auditRepo := repositories.NewAuditRepository(db.DB)
	audit := &models.Audit{
		IncidentID: incident.ID,
		Before: models.Snapshot{
			Category: models.CategoryLeak, Severity: models.SeverityHigh,
			NextSteps: []string{"Dispatch crew"},
		},
		After: models.Snapshot{
			Category: models.CategoryLeak, Severity: models.SeverityMedium,
			NextSteps: []string{"Dispatch crew"},
		},
		ChangedFields: []string{"severity"},
	}
	require.NoError(t, auditRepo.Create(ctx, audit))

	audits, err := auditRepo.GetByIncident(ctx, incident.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, []string{"severity"}, audits[0].ChangedFields)
	assert.Equal(t, models.SeverityHigh, audits[0].Before.Severity)
	assert.Equal(t, models.SeverityMedium, audits[0].After.Severity)
}

func TestAnalyticsRepository_Aggregates(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, db)
	ctx := context.Background()

	incidentRepo := repositories.NewIncidentRepository(db.DB)
	auditRepo := repositories.NewAuditRepository(db.DB)

	first := seedIncident(t, incidentRepo, "gas smell", models.CategoryLeak, models.SeverityHigh)
	seedIncident(t, incidentRepo, "lights out", models.CategoryOutage, models.SeverityMedium)

	require.NoError(t, auditRepo.Create(ctx, &models.Audit{
		IncidentID:    first.ID,
		Before:        models.Snapshot{Severity: models.SeverityHigh},
		After:         models.Snapshot{Severity: models.SeverityMedium},
		ChangedFields: []string{"severity", "summary"},
	}))

	analyticsRepo := repositories.NewAnalyticsRepository(db.DB)
	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)

	totals, err := analyticsRepo.Totals(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Incidents)
	assert.Equal(t, 1, totals.Audited)

	bySeverity, err := analyticsRepo.CountBySeverity(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, bySeverity, 2)

	avg, err := analyticsRepo.AvgChangedFields(ctx, from, to)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, avg, 1e-9)
}

func TestAnalyticsRepository_EmptyWindow(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, db)
	ctx := context.Background()

	analyticsRepo := repositories.NewAnalyticsRepository(db.DB)
	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC()

	totals, err := analyticsRepo.Totals(ctx, from, to)
	require.NoError(t, err)
	assert.Zero(t, totals.Incidents)

	avg, err := analyticsRepo.AvgChangedFields(ctx, from, to)
	require.NoError(t, err)
	assert.Zero(t, avg, "average changed fields is 0, not NaN, on an empty window")
}
