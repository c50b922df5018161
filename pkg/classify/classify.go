// Package classify maps free-text incident descriptions to a category,
// severity, summary, next steps and customer-facing message. Two
// interchangeable implementations exist: a deterministic keyword rule
// engine and a remote LLM-backed classifier that degrades to the rule
// engine on any failure. Classification never fails: every implementation
// always returns a usable result.
package classify

import (
	"context"
)

// Classification modes reported alongside results so the UI can tell the
// agent when a remote provider silently degraded to the rule engine.
const (
	ModeRules     = "rules"
	ModeOpenAI    = "openai"
	ModeAnthropic = "anthropic"
)

// Result is the five-field classification payload. JSON names are the wire
// shape shared with the remote providers' prompt contract.
type Result struct {
	Category        string   `json:"category"`
	Severity        string   `json:"severity"`
	Summary         string   `json:"summary"`
	NextSteps       []string `json:"nextSteps"`
	CustomerMessage string   `json:"customerMessage"`
}

// Classification is a Result plus provenance: which mode produced it and,
// for remote modes, which model.
type Classification struct {
	Result
	Mode  string `json:"mode"`
	Model string `json:"model,omitempty"`
}

// Classifier turns a description (and optional address) into a
// classification. Implementations must always return a value: remote
// failures are absorbed by falling back internally, never surfaced to the
// caller.
type Classifier interface {
	Classify(ctx context.Context, description string, address string) *Classification
}
