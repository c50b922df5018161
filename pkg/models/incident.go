package models

import (
	"time"
)

// Incident categories.
const (
	CategoryLeak    = "Leak"
	CategoryOdor    = "Odor"
	CategoryOutage  = "Outage"
	CategoryBilling = "Billing"
	CategoryMeter   = "Meter"
	CategoryOther   = "Other"
)

// Incident severities.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// MaxNarrativeLength is the soft cap on summary and customer message
// length, enforced only at the HTTP boundary.
const MaxNarrativeLength = 600

// Incident is a triaged utility incident. Incidents are append-only: once
// created they are never updated or deleted, so the audit trail stays
// trustworthy. Stored in the incidents table.
type Incident struct {
	ID              int64     `json:"id"`
	Address         string    `json:"address,omitempty"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Severity        string    `json:"severity"`
	Summary         string    `json:"summary"`
	NextSteps       []string  `json:"next_steps"`
	CustomerMessage string    `json:"customer_message"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ValidCategory reports whether c is one of the enumerated categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryLeak, CategoryOdor, CategoryOutage, CategoryBilling, CategoryMeter, CategoryOther:
		return true
	}
	return false
}

// ValidSeverity reports whether s is one of the enumerated severities.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}
