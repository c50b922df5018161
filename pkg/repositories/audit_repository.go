package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/utiliwatch/triage-engine/pkg/database"
	"github.com/utiliwatch/triage-engine/pkg/models"
)

// AuditRepository provides data access for suggestion-vs-final audit
// records. Audits are immutable: create and read only.
type AuditRepository interface {
	Create(ctx context.Context, audit *models.Audit) error

	// GetByIncident returns all audits for an incident, oldest first.
	GetByIncident(ctx context.Context, incidentID int64) ([]*models.Audit, error)
}

type auditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *database.DB) AuditRepository {
	return &auditRepository{db: db}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Create(ctx context.Context, audit *models.Audit) error {
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	audit.CreatedAt = time.Now().UTC()

	before, err := json.Marshal(audit.Before)
	if err != nil {
		return fmt.Errorf("failed to marshal before snapshot: %w", err)
	}
	after, err := json.Marshal(audit.After)
	if err != nil {
		return fmt.Errorf("failed to marshal after snapshot: %w", err)
	}
	// Marshal even when empty so changed_fields is always a JSON array,
	// never NULL - jsonb_array_length in the analytics query relies on it.
	changed, err := json.Marshal(audit.ChangedFields)
	if err != nil {
		return fmt.Errorf("failed to marshal changed_fields: %w", err)
	}
	if audit.ChangedFields == nil {
		changed = []byte("[]")
	}

	query := `
		INSERT INTO audits (id, incident_id, before_snapshot, after_snapshot, changed_fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.Exec(ctx, query,
		audit.ID,
		audit.IncidentID,
		before,
		after,
		changed,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit: %w", err)
	}

	return nil
}

func (r *auditRepository) GetByIncident(ctx context.Context, incidentID int64) ([]*models.Audit, error) {
	query := `
		SELECT id, incident_id, before_snapshot, after_snapshot, changed_fields, created_at
		FROM audits
		WHERE incident_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	var audits []*models.Audit
	for rows.Next() {
		var a models.Audit
		var before, after, changed []byte
		if err := rows.Scan(&a.ID, &a.IncidentID, &before, &after, &changed, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		if err := json.Unmarshal(before, &a.Before); err != nil {
			return nil, fmt.Errorf("failed to unmarshal before snapshot: %w", err)
		}
		if err := json.Unmarshal(after, &a.After); err != nil {
			return nil, fmt.Errorf("failed to unmarshal after snapshot: %w", err)
		}
		if err := json.Unmarshal(changed, &a.ChangedFields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changed_fields: %w", err)
		}
		audits = append(audits, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit rows: %w", err)
	}

	return audits, nil
}
