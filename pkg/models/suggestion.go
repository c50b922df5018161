package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AISuggestion stores the raw classification payload exactly as produced by
// the provider, together with which provider/model/prompt produced it.
// Immutable once created. Stored in the ai_suggestions table.
type AISuggestion struct {
	ID            uuid.UUID       `json:"id"`
	IncidentID    int64           `json:"incident_id"`
	Payload       json.RawMessage `json:"payload"`
	Provider      string          `json:"provider"`
	Model         string          `json:"model"`
	PromptVersion string          `json:"prompt_version"`
	CreatedAt     time.Time       `json:"created_at"`
}
