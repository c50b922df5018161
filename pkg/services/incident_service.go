package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/apperrors"
	"github.com/utiliwatch/triage-engine/pkg/classify"
	"github.com/utiliwatch/triage-engine/pkg/models"
	"github.com/utiliwatch/triage-engine/pkg/repositories"
)

// CreateIncidentInput carries the agent-confirmed incident fields plus,
// optionally, the raw classification payload the agent started from. When
// the raw payload is present the service stores it and records an audit of
// what the agent changed.
type CreateIncidentInput struct {
	Address         string
	Description     string
	Category        string
	Severity        string
	Summary         string
	NextSteps       []string
	CustomerMessage string
	Latitude        *float64
	Longitude       *float64
	AISuggestionRaw json.RawMessage
}

// IncidentDetail is an incident with its linked suggestion and audit
// records.
type IncidentDetail struct {
	Incident      *models.Incident       `json:"incident"`
	AISuggestions []*models.AISuggestion `json:"aiSuggestions"`
	Audits        []*models.Audit        `json:"audits"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// csvHeader fixes the export column order. Changing it breaks downstream
// spreadsheets, so treat it as a wire contract.
var csvHeader = []string{
	"id", "address", "description", "category", "severity", "summary",
	"next_steps", "customer_message", "latitude", "longitude",
	"created_at", "updated_at",
}

// IncidentService owns the incident lifecycle. Incidents are append-only:
// the service deliberately exposes no update or delete.
type IncidentService interface {
	// Create validates and persists an incident. When input carries the raw
	// AI suggestion, the suggestion and an audit diff are stored
	// best-effort: their failure never fails the create.
	Create(ctx context.Context, input *CreateIncidentInput) (*models.Incident, error)

	// GetDetail returns an incident with its suggestions and audits.
	GetDetail(ctx context.Context, id int64) (*IncidentDetail, error)

	// List returns incidents matching the filters.
	List(ctx context.Context, filters repositories.IncidentFilters) ([]*models.Incident, error)

	// WriteCSV streams all incidents as CSV in the fixed column order.
	WriteCSV(ctx context.Context, w io.Writer) error

	// ExportJSON returns a single incident in the import-compatible shape.
	ExportJSON(ctx context.Context, id int64) (*models.Incident, error)

	// Import bulk-inserts previously exported incidents. Records whose id
	// already exists are skipped, as are records that fail to insert; the
	// batch always runs to completion.
	Import(ctx context.Context, incidents []*models.Incident) (*ImportResult, error)
}

type incidentService struct {
	incidents   repositories.IncidentRepository
	suggestions repositories.SuggestionRepository
	audits      repositories.AuditRepository
	logger      *zap.Logger
}

// NewIncidentService creates a new IncidentService.
func NewIncidentService(
	incidents repositories.IncidentRepository,
	suggestions repositories.SuggestionRepository,
	audits repositories.AuditRepository,
	logger *zap.Logger,
) IncidentService {
	return &incidentService{
		incidents:   incidents,
		suggestions: suggestions,
		audits:      audits,
		logger:      logger.Named("incidents"),
	}
}

var _ IncidentService = (*incidentService)(nil)

func (s *incidentService) Create(ctx context.Context, input *CreateIncidentInput) (*models.Incident, error) {
	if err := validateIncidentInput(input); err != nil {
		return nil, err
	}

	incident := &models.Incident{
		Address:         input.Address,
		Description:     input.Description,
		Category:        input.Category,
		Severity:        input.Severity,
		Summary:         input.Summary,
		NextSteps:       input.NextSteps,
		CustomerMessage: input.CustomerMessage,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
	}

	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	if len(input.AISuggestionRaw) > 0 {
		s.recordSuggestionAndAudit(ctx, incident, input.AISuggestionRaw)
	}

	return incident, nil
}

// recordSuggestionAndAudit stores the raw suggestion and the diff audit.
// Both writes are advisory: failures are logged and swallowed so the
// already-persisted incident stands.
func (s *incidentService) recordSuggestionAndAudit(ctx context.Context, incident *models.Incident, raw json.RawMessage) {
	var provenance struct {
		Mode  string `json:"mode"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(raw, &provenance); err != nil {
		s.logger.Warn("ai suggestion payload is not valid JSON, skipping suggestion and audit",
			zap.Int64("incident_id", incident.ID),
			zap.Error(err))
		return
	}
	if provenance.Mode == "" {
		provenance.Mode = classify.ModeRules
	}

	suggestion := &models.AISuggestion{
		IncidentID:    incident.ID,
		Payload:       raw,
		Provider:      provenance.Mode,
		Model:         provenance.Model,
		PromptVersion: classify.PromptVersion,
	}
	if err := s.suggestions.Create(ctx, suggestion); err != nil {
		s.logger.Error("failed to store ai suggestion",
			zap.Int64("incident_id", incident.ID),
			zap.Error(err))
	}

	var before models.Snapshot
	if err := json.Unmarshal(raw, &before); err != nil {
		s.logger.Warn("ai suggestion payload does not match snapshot shape, skipping audit",
			zap.Int64("incident_id", incident.ID),
			zap.Error(err))
		return
	}

	after := models.Snapshot{
		Category:        incident.Category,
		Severity:        incident.Severity,
		Summary:         incident.Summary,
		NextSteps:       incident.NextSteps,
		CustomerMessage: incident.CustomerMessage,
	}

	audit := &models.Audit{
		IncidentID:    incident.ID,
		Before:        before,
		After:         after,
		ChangedFields: ComputeChangedFields(before, after),
	}
	if err := s.audits.Create(ctx, audit); err != nil {
		s.logger.Error("failed to store audit",
			zap.Int64("incident_id", incident.ID),
			zap.Error(err))
	}
}

func (s *incidentService) GetDetail(ctx context.Context, id int64) (*IncidentDetail, error) {
	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.suggestions.GetByIncident(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load suggestions for incident %d: %w", id, err)
	}

	audits, err := s.audits.GetByIncident(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load audits for incident %d: %w", id, err)
	}

	if suggestions == nil {
		suggestions = []*models.AISuggestion{}
	}
	if audits == nil {
		audits = []*models.Audit{}
	}

	return &IncidentDetail{
		Incident:      incident,
		AISuggestions: suggestions,
		Audits:        audits,
	}, nil
}

func (s *incidentService) List(ctx context.Context, filters repositories.IncidentFilters) ([]*models.Incident, error) {
	incidents, err := s.incidents.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if incidents == nil {
		incidents = []*models.Incident{}
	}
	return incidents, nil
}

func (s *incidentService) WriteCSV(ctx context.Context, w io.Writer) error {
	incidents, err := s.incidents.List(ctx, repositories.IncidentFilters{})
	if err != nil {
		return fmt.Errorf("list incidents for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, incident := range incidents {
		steps, err := json.Marshal(incident.NextSteps)
		if err != nil {
			return fmt.Errorf("marshal next steps for incident %d: %w", incident.ID, err)
		}

		record := []string{
			strconv.FormatInt(incident.ID, 10),
			incident.Address,
			incident.Description,
			incident.Category,
			incident.Severity,
			incident.Summary,
			string(steps),
			incident.CustomerMessage,
			formatCoord(incident.Latitude),
			formatCoord(incident.Longitude),
			incident.CreatedAt.UTC().Format(time.RFC3339),
			incident.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record for incident %d: %w", incident.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (s *incidentService) ExportJSON(ctx context.Context, id int64) (*models.Incident, error) {
	return s.incidents.GetByID(ctx, id)
}

func (s *incidentService) Import(ctx context.Context, incidents []*models.Incident) (*ImportResult, error) {
	result := &ImportResult{Total: len(incidents)}

	for _, incident := range incidents {
		if err := s.importOne(ctx, incident); err != nil {
			if !errors.Is(err, apperrors.ErrConflict) {
				s.logger.Warn("skipping incident during import",
					zap.Int64("incident_id", incident.ID),
					zap.Error(err))
			}
			result.Skipped++
			continue
		}
		result.Inserted++
	}

	if result.Inserted > 0 {
		if err := s.incidents.SyncIDSequence(ctx); err != nil {
			s.logger.Error("failed to sync id sequence after import", zap.Error(err))
		}
	}

	return result, nil
}

func (s *incidentService) importOne(ctx context.Context, incident *models.Incident) error {
	if incident.Description == "" {
		return fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	if !models.ValidCategory(incident.Category) {
		return fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, incident.Category)
	}
	if !models.ValidSeverity(incident.Severity) {
		return fmt.Errorf("%w: unknown severity %q", apperrors.ErrValidation, incident.Severity)
	}

	if incident.ID > 0 {
		return s.incidents.CreateWithID(ctx, incident)
	}
	return s.incidents.Create(ctx, incident)
}

func validateIncidentInput(input *CreateIncidentInput) error {
	if input.Description == "" {
		return fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	if !models.ValidCategory(input.Category) {
		return fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, input.Category)
	}
	if !models.ValidSeverity(input.Severity) {
		return fmt.Errorf("%w: unknown severity %q", apperrors.ErrValidation, input.Severity)
	}
	if len(input.Summary) > models.MaxNarrativeLength {
		return fmt.Errorf("%w: summary exceeds %d characters", apperrors.ErrValidation, models.MaxNarrativeLength)
	}
	if len(input.CustomerMessage) > models.MaxNarrativeLength {
		return fmt.Errorf("%w: customer message exceeds %d characters", apperrors.ErrValidation, models.MaxNarrativeLength)
	}
	return nil
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
