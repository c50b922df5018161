package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/utiliwatch/triage-engine/pkg/database"
	"github.com/utiliwatch/triage-engine/pkg/models"
)

// SuggestionRepository provides data access for stored AI suggestions.
// Suggestions are immutable: create and read only.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *models.AISuggestion) error

	// GetByIncident returns all suggestions for an incident, oldest first.
	GetByIncident(ctx context.Context, incidentID int64) ([]*models.AISuggestion, error)
}

type suggestionRepository struct {
	db *database.DB
}

// NewSuggestionRepository creates a new SuggestionRepository.
func NewSuggestionRepository(db *database.DB) SuggestionRepository {
	return &suggestionRepository{db: db}
}

var _ SuggestionRepository = (*suggestionRepository)(nil)

func (r *suggestionRepository) Create(ctx context.Context, suggestion *models.AISuggestion) error {
	if suggestion.ID == uuid.Nil {
		suggestion.ID = uuid.New()
	}
	suggestion.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO ai_suggestions (id, incident_id, payload, provider, model, prompt_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		suggestion.ID,
		suggestion.IncidentID,
		[]byte(suggestion.Payload),
		suggestion.Provider,
		suggestion.Model,
		suggestion.PromptVersion,
		suggestion.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ai suggestion: %w", err)
	}

	return nil
}

func (r *suggestionRepository) GetByIncident(ctx context.Context, incidentID int64) ([]*models.AISuggestion, error) {
	query := `
		SELECT id, incident_id, payload, provider, model, prompt_version, created_at
		FROM ai_suggestions
		WHERE incident_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ai suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*models.AISuggestion
	for rows.Next() {
		var s models.AISuggestion
		var payload []byte
		if err := rows.Scan(&s.ID, &s.IncidentID, &payload, &s.Provider, &s.Model, &s.PromptVersion, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ai suggestion: %w", err)
		}
		s.Payload = payload
		suggestions = append(suggestions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ai suggestion rows: %w", err)
	}

	return suggestions, nil
}
