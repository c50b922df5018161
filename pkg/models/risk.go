package models

import (
	"time"
)

// RepairStatusOpen marks a repair job that is still in progress. Open
// repairs feed the risk-zone score regardless of the requested time window.
const RepairStatusOpen = "Open"

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RiskIncident is a point feature used purely as risk-scoring input. It has
// no relationship to the triage Incident record and can be replaced by any
// source that emits the same shape.
type RiskIncident struct {
	ID         int64     `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Category   string    `json:"category"`
	Severity   string    `json:"severity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RiskRepair is an open or closed field-repair job.
type RiskRepair struct {
	ID         int64     `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Status     string    `json:"status"`
	ReportedAt time.Time `json:"reported_at"`
}

// RiskPipeline is a buried pipeline segment with its installation year and
// the polyline it follows.
type RiskPipeline struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Material    string   `json:"material"`
	InstallYear int      `json:"install_year"`
	Path        []LatLng `json:"path"`
}

// RiskWeather is a weather observation point, exposed as a map layer.
type RiskWeather struct {
	ID           int64     `json:"id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Condition    string    `json:"condition"`
	TemperatureC float64   `json:"temperature_c"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Zone is one scored grid cell of the risk map.
type Zone struct {
	ID        string   `json:"id"`
	CenterLat float64  `json:"center_lat"`
	CenterLng float64  `json:"center_lng"`
	Score     float64  `json:"score"`
	Reasons   []string `json:"reasons"`
}
