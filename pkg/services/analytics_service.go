package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/models"
	"github.com/utiliwatch/triage-engine/pkg/repositories"
)

// AnalyticsService aggregates incident statistics for a time window.
type AnalyticsService interface {
	Stats(ctx context.Context, from, to time.Time) (*models.Analytics, error)
}

type analyticsService struct {
	repo   repositories.AnalyticsRepository
	logger *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(repo repositories.AnalyticsRepository, logger *zap.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		logger: logger.Named("analytics"),
	}
}

var _ AnalyticsService = (*analyticsService)(nil)

func (s *analyticsService) Stats(ctx context.Context, from, to time.Time) (*models.Analytics, error) {
	totals, err := s.repo.Totals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load totals: %w", err)
	}

	bySeverity, err := s.repo.CountBySeverity(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count by severity: %w", err)
	}

	byCategory, err := s.repo.CountByCategory(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}

	byWeek, err := s.repo.CountByWeek(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count by week: %w", err)
	}

	avgChanged, err := s.repo.AvgChangedFields(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("average changed fields: %w", err)
	}

	// Empty groupings serialize as [] rather than null.
	if bySeverity == nil {
		bySeverity = []models.CountRow{}
	}
	if byCategory == nil {
		byCategory = []models.CountRow{}
	}
	if byWeek == nil {
		byWeek = []models.WeekRow{}
	}

	return &models.Analytics{
		Totals:           totals,
		BySeverity:       bySeverity,
		ByCategory:       byCategory,
		ByWeek:           byWeek,
		AvgChangedFields: avgChanged,
	}, nil
}
