package models

import (
	"time"
)

// AnalyticsTotals counts incidents in a window and how many of them carry at
// least one audit record.
type AnalyticsTotals struct {
	Incidents int `json:"incidents"`
	Audited   int `json:"audited"`
}

// CountRow is one bucket of a grouped count (by severity or category).
type CountRow struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// WeekRow is one calendar-week bucket, keyed by the start of the ISO week.
type WeekRow struct {
	WeekStart time.Time `json:"week_start"`
	Count     int       `json:"count"`
}

// Analytics is the full stats payload for a date range.
type Analytics struct {
	Totals           AnalyticsTotals `json:"totals"`
	BySeverity       []CountRow      `json:"by_severity"`
	ByCategory       []CountRow      `json:"by_category"`
	ByWeek           []WeekRow       `json:"by_week"`
	AvgChangedFields float64         `json:"avg_changed_fields"`
}
