package services

import (
	"context"
	"time"

	"github.com/utiliwatch/triage-engine/pkg/models"
	"github.com/utiliwatch/triage-engine/pkg/repositories"
)

type mockIncidentRepository struct {
	CreateFunc             func(ctx context.Context, incident *models.Incident) error
	CreateWithIDFunc       func(ctx context.Context, incident *models.Incident) error
	GetByIDFunc            func(ctx context.Context, id int64) (*models.Incident, error)
	ListFunc               func(ctx context.Context, filters repositories.IncidentFilters) ([]*models.Incident, error)
	ListCreatedBetweenFunc func(ctx context.Context, from, to time.Time) ([]*models.Incident, error)
	SyncIDSequenceFunc     func(ctx context.Context) error

	CreateCalls         int
	CreateWithIDCalls   int
	SyncIDSequenceCalls int
}

var _ repositories.IncidentRepository = (*mockIncidentRepository)(nil)

func (m *mockIncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, incident)
	}
	incident.ID = int64(m.CreateCalls)
	return nil
}

func (m *mockIncidentRepository) CreateWithID(ctx context.Context, incident *models.Incident) error {
	m.CreateWithIDCalls++
	if m.CreateWithIDFunc != nil {
		return m.CreateWithIDFunc(ctx, incident)
	}
	return nil
}

func (m *mockIncidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &models.Incident{ID: id}, nil
}

func (m *mockIncidentRepository) List(ctx context.Context, filters repositories.IncidentFilters) ([]*models.Incident, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filters)
	}
	return nil, nil
}

func (m *mockIncidentRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*models.Incident, error) {
	if m.ListCreatedBetweenFunc != nil {
		return m.ListCreatedBetweenFunc(ctx, from, to)
	}
	return nil, nil
}

func (m *mockIncidentRepository) SyncIDSequence(ctx context.Context) error {
	m.SyncIDSequenceCalls++
	if m.SyncIDSequenceFunc != nil {
		return m.SyncIDSequenceFunc(ctx)
	}
	return nil
}

type mockSuggestionRepository struct {
	CreateFunc        func(ctx context.Context, suggestion *models.AISuggestion) error
	GetByIncidentFunc func(ctx context.Context, incidentID int64) ([]*models.AISuggestion, error)

	CreateCalls int
	LastCreated *models.AISuggestion
}

var _ repositories.SuggestionRepository = (*mockSuggestionRepository)(nil)

func (m *mockSuggestionRepository) Create(ctx context.Context, suggestion *models.AISuggestion) error {
	m.CreateCalls++
	m.LastCreated = suggestion
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, suggestion)
	}
	return nil
}

func (m *mockSuggestionRepository) GetByIncident(ctx context.Context, incidentID int64) ([]*models.AISuggestion, error) {
	if m.GetByIncidentFunc != nil {
		return m.GetByIncidentFunc(ctx, incidentID)
	}
	return nil, nil
}

type mockAuditRepository struct {
	CreateFunc        func(ctx context.Context, audit *models.Audit) error
	GetByIncidentFunc func(ctx context.Context, incidentID int64) ([]*models.Audit, error)

	CreateCalls int
	LastCreated *models.Audit
}

var _ repositories.AuditRepository = (*mockAuditRepository)(nil)

func (m *mockAuditRepository) Create(ctx context.Context, audit *models.Audit) error {
	m.CreateCalls++
	m.LastCreated = audit
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, audit)
	}
	return nil
}

func (m *mockAuditRepository) GetByIncident(ctx context.Context, incidentID int64) ([]*models.Audit, error) {
	if m.GetByIncidentFunc != nil {
		return m.GetByIncidentFunc(ctx, incidentID)
	}
	return nil, nil
}

type mockAnalyticsRepository struct {
	TotalsFunc           func(ctx context.Context, from, to time.Time) (models.AnalyticsTotals, error)
	CountBySeverityFunc  func(ctx context.Context, from, to time.Time) ([]models.CountRow, error)
	CountByCategoryFunc  func(ctx context.Context, from, to time.Time) ([]models.CountRow, error)
	CountByWeekFunc      func(ctx context.Context, from, to time.Time) ([]models.WeekRow, error)
	AvgChangedFieldsFunc func(ctx context.Context, from, to time.Time) (float64, error)
}

var _ repositories.AnalyticsRepository = (*mockAnalyticsRepository)(nil)

func (m *mockAnalyticsRepository) Totals(ctx context.Context, from, to time.Time) (models.AnalyticsTotals, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx, from, to)
	}
	return models.AnalyticsTotals{}, nil
}

func (m *mockAnalyticsRepository) CountBySeverity(ctx context.Context, from, to time.Time) ([]models.CountRow, error) {
	if m.CountBySeverityFunc != nil {
		return m.CountBySeverityFunc(ctx, from, to)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) CountByCategory(ctx context.Context, from, to time.Time) ([]models.CountRow, error) {
	if m.CountByCategoryFunc != nil {
		return m.CountByCategoryFunc(ctx, from, to)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) CountByWeek(ctx context.Context, from, to time.Time) ([]models.WeekRow, error) {
	if m.CountByWeekFunc != nil {
		return m.CountByWeekFunc(ctx, from, to)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) AvgChangedFields(ctx context.Context, from, to time.Time) (float64, error) {
	if m.AvgChangedFieldsFunc != nil {
		return m.AvgChangedFieldsFunc(ctx, from, to)
	}
	return 0, nil
}

type mockRiskRepository struct {
	IncidentsBetweenFunc func(ctx context.Context, from, to time.Time, filters repositories.RiskFilters) ([]*models.RiskIncident, error)
	OpenRepairsFunc      func(ctx context.Context) ([]*models.RiskRepair, error)
	PipelinesFunc        func(ctx context.Context) ([]*models.RiskPipeline, error)
	WeatherBetweenFunc   func(ctx context.Context, from, to time.Time) ([]*models.RiskWeather, error)
}

var _ repositories.RiskRepository = (*mockRiskRepository)(nil)

func (m *mockRiskRepository) IncidentsBetween(ctx context.Context, from, to time.Time, filters repositories.RiskFilters) ([]*models.RiskIncident, error) {
	if m.IncidentsBetweenFunc != nil {
		return m.IncidentsBetweenFunc(ctx, from, to, filters)
	}
	return nil, nil
}

func (m *mockRiskRepository) OpenRepairs(ctx context.Context) ([]*models.RiskRepair, error) {
	if m.OpenRepairsFunc != nil {
		return m.OpenRepairsFunc(ctx)
	}
	return nil, nil
}

func (m *mockRiskRepository) Pipelines(ctx context.Context) ([]*models.RiskPipeline, error) {
	if m.PipelinesFunc != nil {
		return m.PipelinesFunc(ctx)
	}
	return nil, nil
}

func (m *mockRiskRepository) WeatherBetween(ctx context.Context, from, to time.Time) ([]*models.RiskWeather, error) {
	if m.WeatherBetweenFunc != nil {
		return m.WeatherBetweenFunc(ctx, from, to)
	}
	return nil, nil
}
