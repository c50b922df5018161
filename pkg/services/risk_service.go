package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/models"
	"github.com/utiliwatch/triage-engine/pkg/repositories"
)

// The service area is a fixed box over the San Francisco demo territory,
// partitioned into uniform cells of gridSize degrees. Scoring iterates the
// full box on every request; at this resolution that is 56 cells.
const (
	minLat   = 37.70
	maxLat   = 37.84
	minLng   = -122.52
	maxLng   = -122.36
	gridSize = 0.02

	severityDecayDays  = 30.0
	recentWindowDays   = 7.0
	openRepairWeight   = 2.0
	pipelineAgeDivisor = 50.0
	pipelineMaxWeight  = 2.0
	agingPipelineYears = 40
)

// RiskBounds describes the scored region.
type RiskBounds struct {
	MinLat   float64 `json:"minLat"`
	MaxLat   float64 `json:"maxLat"`
	MinLng   float64 `json:"minLng"`
	MaxLng   float64 `json:"maxLng"`
	GridSize float64 `json:"gridSize"`
}

// PointsFilters narrows the raw map-layer reads.
type PointsFilters struct {
	Layers   []string
	Severity string
	Category string
}

// RiskPoints bundles the raw feeder rows for map rendering. Only
// requested layers are populated; the rest stay nil and are omitted from
// the JSON body.
type RiskPoints struct {
	Incidents []*models.RiskIncident `json:"incidents,omitempty"`
	Repairs   []*models.RiskRepair   `json:"repairs,omitempty"`
	Weather   []*models.RiskWeather  `json:"weather,omitempty"`
}

// RiskService scores grid cells and serves the raw map layers behind the
// risk heatmap.
type RiskService interface {
	// Bounds returns the fixed scoring region.
	Bounds() RiskBounds

	// Points returns raw feeder rows for the requested layers and window.
	Points(ctx context.Context, from, to time.Time, filters PointsFilters) (*RiskPoints, error)

	// Pipelines returns every pipeline with its path.
	Pipelines(ctx context.Context) ([]*models.RiskPipeline, error)

	// TopZones scores every grid cell from in-window incidents, open
	// repairs, and pipeline age, and returns the n highest-scoring zones.
	TopZones(ctx context.Context, from, to time.Time, n int) ([]*models.Zone, error)
}

type riskService struct {
	repo   repositories.RiskRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewRiskService creates a new RiskService.
func NewRiskService(repo repositories.RiskRepository, logger *zap.Logger) RiskService {
	return &riskService{
		repo:   repo,
		logger: logger.Named("risk"),
		now:    time.Now,
	}
}

var _ RiskService = (*riskService)(nil)

func (s *riskService) Bounds() RiskBounds {
	return RiskBounds{
		MinLat:   minLat,
		MaxLat:   maxLat,
		MinLng:   minLng,
		MaxLng:   maxLng,
		GridSize: gridSize,
	}
}

func (s *riskService) Points(ctx context.Context, from, to time.Time, filters PointsFilters) (*RiskPoints, error) {
	layers := map[string]bool{}
	for _, layer := range filters.Layers {
		layers[layer] = true
	}
	all := len(layers) == 0

	points := &RiskPoints{}

	if all || layers["incidents"] {
		incidents, err := s.repo.IncidentsBetween(ctx, from, to, repositories.RiskFilters{
			Severity: filters.Severity,
			Category: filters.Category,
		})
		if err != nil {
			return nil, fmt.Errorf("load incident layer: %w", err)
		}
		if incidents == nil {
			incidents = []*models.RiskIncident{}
		}
		points.Incidents = incidents
	}

	if all || layers["repairs"] {
		repairs, err := s.repo.OpenRepairs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load repair layer: %w", err)
		}
		if repairs == nil {
			repairs = []*models.RiskRepair{}
		}
		points.Repairs = repairs
	}

	if all || layers["weather"] {
		weather, err := s.repo.WeatherBetween(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("load weather layer: %w", err)
		}
		if weather == nil {
			weather = []*models.RiskWeather{}
		}
		points.Weather = weather
	}

	return points, nil
}

func (s *riskService) Pipelines(ctx context.Context) ([]*models.RiskPipeline, error) {
	pipelines, err := s.repo.Pipelines(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pipelines: %w", err)
	}
	if pipelines == nil {
		pipelines = []*models.RiskPipeline{}
	}
	return pipelines, nil
}

// cellStats accumulates per-cell inputs before scoring.
type cellStats struct {
	score          float64
	highSeverity   int
	recent         int
	openRepairs    int
	agingPipelines int
}

func (s *riskService) TopZones(ctx context.Context, from, to time.Time, n int) ([]*models.Zone, error) {
	incidents, err := s.repo.IncidentsBetween(ctx, from, to, repositories.RiskFilters{})
	if err != nil {
		return nil, fmt.Errorf("load incidents for scoring: %w", err)
	}
	repairs, err := s.repo.OpenRepairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load repairs for scoring: %w", err)
	}
	pipelines, err := s.repo.Pipelines(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pipelines for scoring: %w", err)
	}

	now := s.now()
	currentYear := now.Year()

	rows := int(math.Ceil((maxLat - minLat) / gridSize))
	cols := int(math.Ceil((maxLng - minLng) / gridSize))
	cells := make(map[int]*cellStats)

	cell := func(lat, lng float64) (int, bool) {
		if lat < minLat || lat >= maxLat || lng < minLng || lng >= maxLng {
			return 0, false
		}
		row := int((lat - minLat) / gridSize)
		col := int((lng - minLng) / gridSize)
		return row*cols + col, true
	}
	stats := func(key int) *cellStats {
		st, ok := cells[key]
		if !ok {
			st = &cellStats{}
			cells[key] = st
		}
		return st
	}

	for _, incident := range incidents {
		key, ok := cell(incident.Latitude, incident.Longitude)
		if !ok {
			continue
		}
		st := stats(key)

		daysAgo := now.Sub(incident.OccurredAt).Hours() / 24
		if daysAgo < 0 {
			daysAgo = 0
		}
		st.score += severityWeight(incident.Severity) * math.Exp(-daysAgo/severityDecayDays)
		if incident.Severity == models.SeverityHigh {
			st.highSeverity++
		}
		if daysAgo <= recentWindowDays {
			st.recent++
		}
	}

	for _, repair := range repairs {
		key, ok := cell(repair.Latitude, repair.Longitude)
		if !ok {
			continue
		}
		st := stats(key)
		st.score += openRepairWeight
		st.openRepairs++
	}

	for _, pipeline := range pipelines {
		age := currentYear - pipeline.InstallYear
		if age < 0 {
			age = 0
		}
		weight := math.Min(float64(age)/pipelineAgeDivisor*2, pipelineMaxWeight)

		// A pipeline contributes once per cell it passes through, no
		// matter how many vertices land there.
		seen := map[int]bool{}
		for _, vertex := range pipeline.Path {
			key, ok := cell(vertex.Lat, vertex.Lng)
			if !ok || seen[key] {
				continue
			}
			seen[key] = true
			st := stats(key)
			st.score += weight
			if age > agingPipelineYears {
				st.agingPipelines++
			}
		}
	}

	// Row-major iteration keeps tie order stable across requests.
	zones := make([]*models.Zone, 0, len(cells))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			st, ok := cells[row*cols+col]
			if !ok || st.score <= 0 {
				continue
			}
			zones = append(zones, &models.Zone{
				ID:        fmt.Sprintf("zone-%d-%d", row, col),
				CenterLat: minLat + (float64(row)+0.5)*gridSize,
				CenterLng: minLng + (float64(col)+0.5)*gridSize,
				Score:     st.score,
				Reasons:   zoneReasons(st),
			})
		}
	}

	sort.SliceStable(zones, func(i, j int) bool {
		return zones[i].Score > zones[j].Score
	})

	if n > 0 && len(zones) > n {
		zones = zones[:n]
	}
	return zones, nil
}

func severityWeight(severity string) float64 {
	switch severity {
	case models.SeverityHigh:
		return 3
	case models.SeverityMedium:
		return 2
	default:
		return 1
	}
}

func zoneReasons(st *cellStats) []string {
	reasons := []string{}
	if st.highSeverity > 0 {
		reasons = append(reasons, fmt.Sprintf("%d high severity incidents", st.highSeverity))
	}
	if st.recent > 0 {
		reasons = append(reasons, fmt.Sprintf("%d recent incidents", st.recent))
	}
	if st.openRepairs > 0 {
		reasons = append(reasons, fmt.Sprintf("%d open repairs", st.openRepairs))
	}
	if st.agingPipelines > 0 {
		reasons = append(reasons, fmt.Sprintf("%d aging pipelines", st.agingPipelines))
	}
	return reasons
}
