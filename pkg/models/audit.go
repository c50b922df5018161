package models

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot captures the five incident fields the audit diff compares. The
// JSON names match the wire shape of a classification result so that a raw
// provider payload can be decoded straight into a before-snapshot.
type Snapshot struct {
	Category        string   `json:"category"`
	Severity        string   `json:"severity"`
	Summary         string   `json:"summary"`
	NextSteps       []string `json:"nextSteps"`
	CustomerMessage string   `json:"customerMessage"`
}

// Audit records how an AI suggestion differed from the values the agent
// finally saved. Immutable; written best-effort alongside incident creation.
// Stored in the audits table.
type Audit struct {
	ID            uuid.UUID `json:"id"`
	IncidentID    int64     `json:"incident_id"`
	Before        Snapshot  `json:"before"`
	After         Snapshot  `json:"after"`
	ChangedFields []string  `json:"changed_fields"`
	CreatedAt     time.Time `json:"created_at"`
}
