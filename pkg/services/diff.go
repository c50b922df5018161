// Package services holds the business logic between the HTTP handlers and
// the repositories: incident lifecycle, suggestion-vs-final auditing,
// windowed analytics, risk-zone scoring, Q&A and transcription.
package services

import (
	"encoding/json"

	"github.com/utiliwatch/triage-engine/pkg/models"
)

// Audited field names in their fixed check order. The changed-field list
// always follows this order, regardless of how the snapshots were built.
var auditedFields = [...]string{
	"category",
	"severity",
	"summary",
	"nextSteps",
	"customerMessage",
}

// ComputeChangedFields compares the five audited fields between an AI
// suggestion snapshot and the finally-saved incident snapshot. Next steps
// compare by full serialized equality as an ordered list, not set equality.
// An unmodified save yields an empty (non-nil) list.
func ComputeChangedFields(before, after models.Snapshot) []string {
	changed := make([]string, 0, len(auditedFields))

	for _, field := range auditedFields {
		var differs bool
		switch field {
		case "category":
			differs = before.Category != after.Category
		case "severity":
			differs = before.Severity != after.Severity
		case "summary":
			differs = before.Summary != after.Summary
		case "nextSteps":
			differs = serializeSteps(before.NextSteps) != serializeSteps(after.NextSteps)
		case "customerMessage":
			differs = before.CustomerMessage != after.CustomerMessage
		}
		if differs {
			changed = append(changed, field)
		}
	}

	return changed
}

func serializeSteps(steps []string) string {
	if len(steps) == 0 {
		return "[]"
	}
	b, err := json.Marshal(steps)
	if err != nil {
		// []string cannot fail to marshal; keep the comparison total anyway.
		return ""
	}
	return string(b)
}
