package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/utiliwatch/triage-engine/pkg/database"
	"github.com/utiliwatch/triage-engine/pkg/models"
)

// RiskFilters narrows risk-incident point reads.
type RiskFilters struct {
	Severity string
	Category string
}

// RiskRepository reads the four feeder tables behind the risk map. The
// scorer treats all of them as read-only; rows arrive via migration seeds or
// external loaders.
type RiskRepository interface {
	// IncidentsBetween returns risk incidents with occurred_at in
	// [from, to] inclusive, optionally filtered by severity/category.
	IncidentsBetween(ctx context.Context, from, to time.Time, filters RiskFilters) ([]*models.RiskIncident, error)

	// OpenRepairs returns repairs with status Open, regardless of date.
	OpenRepairs(ctx context.Context) ([]*models.RiskRepair, error)

	// Pipelines returns all pipeline segments with their paths.
	Pipelines(ctx context.Context) ([]*models.RiskPipeline, error)

	// WeatherBetween returns weather observations recorded in [from, to].
	WeatherBetween(ctx context.Context, from, to time.Time) ([]*models.RiskWeather, error)
}

type riskRepository struct {
	db *database.DB
}

// NewRiskRepository creates a new RiskRepository.
func NewRiskRepository(db *database.DB) RiskRepository {
	return &riskRepository{db: db}
}

var _ RiskRepository = (*riskRepository)(nil)

func (r *riskRepository) IncidentsBetween(ctx context.Context, from, to time.Time, filters RiskFilters) ([]*models.RiskIncident, error) {
	query := `
		SELECT id, latitude, longitude, category, severity, occurred_at
		FROM risk_incidents
		WHERE occurred_at >= $1 AND occurred_at <= $2`
	args := []any{from, to}

	if filters.Severity != "" {
		args = append(args, filters.Severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY occurred_at ASC, id ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*models.RiskIncident
	for rows.Next() {
		var ri models.RiskIncident
		if err := rows.Scan(&ri.ID, &ri.Latitude, &ri.Longitude, &ri.Category, &ri.Severity, &ri.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan risk incident: %w", err)
		}
		incidents = append(incidents, &ri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read risk incident rows: %w", err)
	}

	return incidents, nil
}

func (r *riskRepository) OpenRepairs(ctx context.Context) ([]*models.RiskRepair, error) {
	query := `
		SELECT id, latitude, longitude, status, reported_at
		FROM risk_repairs
		WHERE status = $1
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, models.RepairStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to query open repairs: %w", err)
	}
	defer rows.Close()

	var repairs []*models.RiskRepair
	for rows.Next() {
		var rr models.RiskRepair
		if err := rows.Scan(&rr.ID, &rr.Latitude, &rr.Longitude, &rr.Status, &rr.ReportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repair: %w", err)
		}
		repairs = append(repairs, &rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read repair rows: %w", err)
	}

	return repairs, nil
}

func (r *riskRepository) Pipelines(ctx context.Context) ([]*models.RiskPipeline, error) {
	query := `
		SELECT id, name, material, install_year, path
		FROM risk_pipelines
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipelines: %w", err)
	}
	defer rows.Close()

	var pipelines []*models.RiskPipeline
	for rows.Next() {
		var p models.RiskPipeline
		var path []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Material, &p.InstallYear, &path); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline: %w", err)
		}
		if err := json.Unmarshal(path, &p.Path); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pipeline path: %w", err)
		}
		pipelines = append(pipelines, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pipeline rows: %w", err)
	}

	return pipelines, nil
}

func (r *riskRepository) WeatherBetween(ctx context.Context, from, to time.Time) ([]*models.RiskWeather, error) {
	query := `
		SELECT id, latitude, longitude, condition, temperature_c, recorded_at
		FROM risk_weather
		WHERE recorded_at >= $1 AND recorded_at <= $2
		ORDER BY recorded_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query weather observations: %w", err)
	}
	defer rows.Close()

	var observations []*models.RiskWeather
	for rows.Next() {
		var w models.RiskWeather
		if err := rows.Scan(&w.ID, &w.Latitude, &w.Longitude, &w.Condition, &w.TemperatureC, &w.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan weather observation: %w", err)
		}
		observations = append(observations, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read weather rows: %w", err)
	}

	return observations, nil
}
