// Package repositories provides pgx-backed data access for triage-engine.
// Repositories receive the shared connection pool by reference at
// construction; nothing in this package holds global state.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utiliwatch/triage-engine/pkg/apperrors"
	"github.com/utiliwatch/triage-engine/pkg/database"
	"github.com/utiliwatch/triage-engine/pkg/models"
)

// Incident sort keys accepted by List.
const (
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
)

const pgUniqueViolation = "23505"

// IncidentFilters narrows and orders List results. Zero values mean "no
// filter"; invalid sort fields fall back to created_at descending.
type IncidentFilters struct {
	Severity string
	Category string
	Search   string // case-insensitive match on address, description, summary
	SortKey  string // created_at | updated_at
	SortDir  string // asc | desc
}

// IncidentRepository provides data access for incidents. Incidents are
// append-only: there are deliberately no update or delete methods.
type IncidentRepository interface {
	// Create inserts a new incident, assigning its id and timestamps.
	Create(ctx context.Context, incident *models.Incident) error

	// CreateWithID inserts an incident preserving a caller-supplied id,
	// returning apperrors.ErrConflict when the id already exists. Used by
	// bulk import.
	CreateWithID(ctx context.Context, incident *models.Incident) error

	// GetByID returns the incident or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Incident, error)

	// List returns incidents matching the filters, newest-first by default.
	List(ctx context.Context, filters IncidentFilters) ([]*models.Incident, error)

	// ListCreatedBetween returns incidents created in [from, to] inclusive,
	// oldest-first.
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*models.Incident, error)

	// SyncIDSequence moves the identity sequence past the highest existing
	// id. Call after imports that insert explicit ids.
	SyncIDSequence(ctx context.Context) error
}

type incidentRepository struct {
	db *database.DB
}

// NewIncidentRepository creates a new IncidentRepository.
func NewIncidentRepository(db *database.DB) IncidentRepository {
	return &incidentRepository{db: db}
}

var _ IncidentRepository = (*incidentRepository)(nil)

const incidentColumns = `id, address, description, category, severity, summary, next_steps, customer_message, latitude, longitude, created_at, updated_at`

func (r *incidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	nextSteps, err := json.Marshal(incident.NextSteps)
	if err != nil {
		return fmt.Errorf("failed to marshal next_steps: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO incidents (
			address, description, category, severity, summary,
			next_steps, customer_message, latitude, longitude, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		nullString(incident.Address),
		incident.Description,
		incident.Category,
		incident.Severity,
		incident.Summary,
		nextSteps,
		incident.CustomerMessage,
		incident.Latitude,
		incident.Longitude,
		now,
		now,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}

	return nil
}

func (r *incidentRepository) CreateWithID(ctx context.Context, incident *models.Incident) error {
	nextSteps, err := json.Marshal(incident.NextSteps)
	if err != nil {
		return fmt.Errorf("failed to marshal next_steps: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO incidents (
			id, address, description, category, severity, summary,
			next_steps, customer_message, latitude, longitude, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		incident.ID,
		nullString(incident.Address),
		incident.Description,
		incident.Category,
		incident.Severity,
		incident.Summary,
		nextSteps,
		incident.CustomerMessage,
		incident.Latitude,
		incident.Longitude,
		now,
		now,
	).Scan(&incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create incident with id %d: %w", incident.ID, err)
	}

	return nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	incident, err := scanIncident(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get incident %d: %w", id, err)
	}

	return incident, nil
}

func (r *incidentRepository) List(ctx context.Context, filters IncidentFilters) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents`

	var conditions []string
	var args []any

	if filters.Severity != "" {
		args = append(args, filters.Severity)
		conditions = append(conditions, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(address ILIKE $%d OR description ILIKE $%d OR summary ILIKE $%d)", n, n, n))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	// Sort column and direction come from a whitelist, never from user
	// input directly.
	sortKey := SortCreatedAt
	if filters.SortKey == SortUpdatedAt {
		sortKey = SortUpdatedAt
	}
	dir := "DESC"
	if filters.SortDir == "asc" {
		dir = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id %s", sortKey, dir, dir)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	return collectIncidents(rows)
}

func (r *incidentRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + `
		FROM incidents
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents in range: %w", err)
	}
	defer rows.Close()

	return collectIncidents(rows)
}

func (r *incidentRepository) SyncIDSequence(ctx context.Context) error {
	query := `SELECT setval(pg_get_serial_sequence('incidents', 'id'), GREATEST((SELECT COALESCE(MAX(id), 1) FROM incidents), 1))`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to sync incident id sequence: %w", err)
	}
	return nil
}

func collectIncidents(rows pgx.Rows) ([]*models.Incident, error) {
	var incidents []*models.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read incident rows: %w", err)
	}
	return incidents, nil
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	var incident models.Incident
	var address *string
	var nextSteps []byte

	err := row.Scan(
		&incident.ID,
		&address,
		&incident.Description,
		&incident.Category,
		&incident.Severity,
		&incident.Summary,
		&nextSteps,
		&incident.CustomerMessage,
		&incident.Latitude,
		&incident.Longitude,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if address != nil {
		incident.Address = *address
	}
	if len(nextSteps) > 0 {
		if err := json.Unmarshal(nextSteps, &incident.NextSteps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal next_steps: %w", err)
		}
	}

	return &incident, nil
}

// nullString maps "" to NULL for optional text columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
