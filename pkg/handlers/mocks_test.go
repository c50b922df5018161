package handlers

import (
	"context"
	"io"
	"time"

	"github.com/utiliwatch/triage-engine/pkg/classify"
	"github.com/utiliwatch/triage-engine/pkg/models"
	"github.com/utiliwatch/triage-engine/pkg/repositories"
	"github.com/utiliwatch/triage-engine/pkg/services"
)

type mockClassifier struct {
	ClassifyFunc  func(ctx context.Context, description, address string) *classify.Classification
	ClassifyCalls int
}

var _ classify.Classifier = (*mockClassifier)(nil)

func (m *mockClassifier) Classify(ctx context.Context, description, address string) *classify.Classification {
	m.ClassifyCalls++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, description, address)
	}
	return classify.NewRuleEngine().Classify(ctx, description, address)
}

type mockIncidentService struct {
	CreateFunc     func(ctx context.Context, input *services.CreateIncidentInput) (*models.Incident, error)
	GetDetailFunc  func(ctx context.Context, id int64) (*services.IncidentDetail, error)
	ListFunc       func(ctx context.Context, filters repositories.IncidentFilters) ([]*models.Incident, error)
	WriteCSVFunc   func(ctx context.Context, w io.Writer) error
	ExportJSONFunc func(ctx context.Context, id int64) (*models.Incident, error)
	ImportFunc     func(ctx context.Context, incidents []*models.Incident) (*services.ImportResult, error)

	LastCreateInput *services.CreateIncidentInput
	LastFilters     repositories.IncidentFilters
}

var _ services.IncidentService = (*mockIncidentService)(nil)

func (m *mockIncidentService) Create(ctx context.Context, input *services.CreateIncidentInput) (*models.Incident, error) {
	m.LastCreateInput = input
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, input)
	}
	return &models.Incident{ID: 1, Description: input.Description}, nil
}

func (m *mockIncidentService) GetDetail(ctx context.Context, id int64) (*services.IncidentDetail, error) {
	if m.GetDetailFunc != nil {
		return m.GetDetailFunc(ctx, id)
	}
	return &services.IncidentDetail{
		Incident:      &models.Incident{ID: id},
		AISuggestions: []*models.AISuggestion{},
		Audits:        []*models.Audit{},
	}, nil
}

func (m *mockIncidentService) List(ctx context.Context, filters repositories.IncidentFilters) ([]*models.Incident, error) {
	m.LastFilters = filters
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filters)
	}
	return []*models.Incident{}, nil
}

func (m *mockIncidentService) WriteCSV(ctx context.Context, w io.Writer) error {
	if m.WriteCSVFunc != nil {
		return m.WriteCSVFunc(ctx, w)
	}
	_, err := io.WriteString(w, "id,address\n")
	return err
}

func (m *mockIncidentService) ExportJSON(ctx context.Context, id int64) (*models.Incident, error) {
	if m.ExportJSONFunc != nil {
		return m.ExportJSONFunc(ctx, id)
	}
	return &models.Incident{ID: id}, nil
}

func (m *mockIncidentService) Import(ctx context.Context, incidents []*models.Incident) (*services.ImportResult, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, incidents)
	}
	return &services.ImportResult{Inserted: len(incidents), Total: len(incidents)}, nil
}

type mockAnalyticsService struct {
	StatsFunc func(ctx context.Context, from, to time.Time) (*models.Analytics, error)

	LastFrom time.Time
	LastTo   time.Time
}

var _ services.AnalyticsService = (*mockAnalyticsService)(nil)

func (m *mockAnalyticsService) Stats(ctx context.Context, from, to time.Time) (*models.Analytics, error) {
	m.LastFrom, m.LastTo = from, to
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, from, to)
	}
	return &models.Analytics{
		BySeverity: []models.CountRow{},
		ByCategory: []models.CountRow{},
		ByWeek:     []models.WeekRow{},
	}, nil
}

type mockRiskService struct {
	BoundsFunc    func() services.RiskBounds
	PointsFunc    func(ctx context.Context, from, to time.Time, filters services.PointsFilters) (*services.RiskPoints, error)
	PipelinesFunc func(ctx context.Context) ([]*models.RiskPipeline, error)
	TopZonesFunc  func(ctx context.Context, from, to time.Time, n int) ([]*models.Zone, error)

	LastPointsFilters services.PointsFilters
	LastTopZonesCount int
}

var _ services.RiskService = (*mockRiskService)(nil)

func (m *mockRiskService) Bounds() services.RiskBounds {
	if m.BoundsFunc != nil {
		return m.BoundsFunc()
	}
	return services.RiskBounds{MinLat: 37.70, MaxLat: 37.84, MinLng: -122.52, MaxLng: -122.36, GridSize: 0.02}
}

func (m *mockRiskService) Points(ctx context.Context, from, to time.Time, filters services.PointsFilters) (*services.RiskPoints, error) {
	m.LastPointsFilters = filters
	if m.PointsFunc != nil {
		return m.PointsFunc(ctx, from, to, filters)
	}
	return &services.RiskPoints{}, nil
}

func (m *mockRiskService) Pipelines(ctx context.Context) ([]*models.RiskPipeline, error) {
	if m.PipelinesFunc != nil {
		return m.PipelinesFunc(ctx)
	}
	return []*models.RiskPipeline{}, nil
}

func (m *mockRiskService) TopZones(ctx context.Context, from, to time.Time, n int) ([]*models.Zone, error) {
	m.LastTopZonesCount = n
	if m.TopZonesFunc != nil {
		return m.TopZonesFunc(ctx, from, to, n)
	}
	return []*models.Zone{}, nil
}

type mockAskService struct {
	AskFunc func(ctx context.Context, question string) (*services.Answer, error)

	LastQuestion string
}

var _ services.AskService = (*mockAskService)(nil)

func (m *mockAskService) Ask(ctx context.Context, question string) (*services.Answer, error) {
	m.LastQuestion = question
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question)
	}
	return &services.Answer{Answer: "no data", Mode: services.AskModeRules}, nil
}

type mockTranscribeService struct {
	TranscribeFunc func(ctx context.Context, filename string, audio io.Reader) *services.Transcript

	LastFilename string
}

var _ services.TranscribeService = (*mockTranscribeService)(nil)

func (m *mockTranscribeService) Transcribe(ctx context.Context, filename string, audio io.Reader) *services.Transcript {
	m.LastFilename = filename
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, filename, audio)
	}
	return &services.Transcript{Transcript: "canned text", Mode: services.TranscribeModeCanned}
}
