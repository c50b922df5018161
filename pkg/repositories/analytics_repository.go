package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/utiliwatch/triage-engine/pkg/database"
	"github.com/utiliwatch/triage-engine/pkg/models"
)

// AnalyticsRepository runs the windowed aggregation queries behind the stats
// endpoint. All windows are inclusive on both ends and scope by the
// incident's creation timestamp.
type AnalyticsRepository interface {
	Totals(ctx context.Context, from, to time.Time) (models.AnalyticsTotals, error)
	CountBySeverity(ctx context.Context, from, to time.Time) ([]models.CountRow, error)
	CountByCategory(ctx context.Context, from, to time.Time) ([]models.CountRow, error)
	CountByWeek(ctx context.Context, from, to time.Time) ([]models.WeekRow, error)

	// AvgChangedFields is the mean changed-field count over audits whose
	// incident was created in the window. An empty audit set yields 0.
	AvgChangedFields(ctx context.Context, from, to time.Time) (float64, error)
}

type analyticsRepository struct {
	db *database.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
func NewAnalyticsRepository(db *database.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

var _ AnalyticsRepository = (*analyticsRepository)(nil)

func (r *analyticsRepository) Totals(ctx context.Context, from, to time.Time) (models.AnalyticsTotals, error) {
	var totals models.AnalyticsTotals

	// A single joined COUNT(*) would double-count incidents with several
	// audits, so the two totals are separate queries.
	incidentQuery := `SELECT COUNT(*) FROM incidents WHERE created_at >= $1 AND created_at <= $2`
	if err := r.db.QueryRow(ctx, incidentQuery, from, to).Scan(&totals.Incidents); err != nil {
		return totals, fmt.Errorf("failed to count incidents: %w", err)
	}

	auditedQuery := `
		SELECT COUNT(DISTINCT a.incident_id)
		FROM audits a
		JOIN incidents i ON i.id = a.incident_id
		WHERE i.created_at >= $1 AND i.created_at <= $2`
	if err := r.db.QueryRow(ctx, auditedQuery, from, to).Scan(&totals.Audited); err != nil {
		return totals, fmt.Errorf("failed to count audited incidents: %w", err)
	}

	return totals, nil
}

func (r *analyticsRepository) CountBySeverity(ctx context.Context, from, to time.Time) ([]models.CountRow, error) {
	query := `
		SELECT severity, COUNT(*)
		FROM incidents
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY severity
		ORDER BY severity`

	return r.countRows(ctx, query, from, to)
}

func (r *analyticsRepository) CountByCategory(ctx context.Context, from, to time.Time) ([]models.CountRow, error) {
	query := `
		SELECT category, COUNT(*)
		FROM incidents
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY category
		ORDER BY category`

	return r.countRows(ctx, query, from, to)
}

func (r *analyticsRepository) CountByWeek(ctx context.Context, from, to time.Time) ([]models.WeekRow, error) {
	// date_trunc('week', ...) buckets by the Monday starting the ISO week.
	query := `
		SELECT date_trunc('week', created_at) AS week_start, COUNT(*)
		FROM incidents
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY week_start
		ORDER BY week_start ASC`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count incidents by week: %w", err)
	}
	defer rows.Close()

	var result []models.WeekRow
	for rows.Next() {
		var row models.WeekRow
		if err := rows.Scan(&row.WeekStart, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan week row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read week rows: %w", err)
	}

	return result, nil
}

func (r *analyticsRepository) AvgChangedFields(ctx context.Context, from, to time.Time) (float64, error) {
	query := `
		SELECT COALESCE(AVG(jsonb_array_length(a.changed_fields)), 0)
		FROM audits a
		JOIN incidents i ON i.id = a.incident_id
		WHERE i.created_at >= $1 AND i.created_at <= $2`

	var avg float64
	if err := r.db.QueryRow(ctx, query, from, to).Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to average changed fields: %w", err)
	}

	return avg, nil
}

func (r *analyticsRepository) countRows(ctx context.Context, query string, from, to time.Time) ([]models.CountRow, error) {
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to run grouped count: %w", err)
	}
	defer rows.Close()

	var result []models.CountRow
	for rows.Next() {
		var row models.CountRow
		if err := rows.Scan(&row.Key, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read count rows: %w", err)
	}

	return result, nil
}
