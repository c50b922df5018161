package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/apperrors"
	"github.com/utiliwatch/triage-engine/pkg/models"
	"github.com/utiliwatch/triage-engine/pkg/repositories"
	"github.com/utiliwatch/triage-engine/pkg/services"
)

// CreateIncidentRequest for POST /api/incidents
type CreateIncidentRequest struct {
	Address         string          `json:"address,omitempty"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Severity        string          `json:"severity"`
	Summary         string          `json:"summary,omitempty"`
	NextSteps       []string        `json:"nextSteps,omitempty"`
	CustomerMessage string          `json:"customerMessage,omitempty"`
	Latitude        *float64        `json:"latitude,omitempty"`
	Longitude       *float64        `json:"longitude,omitempty"`
	AISuggestionRaw json.RawMessage `json:"aiSuggestionRaw,omitempty"`
}

// IncidentListResponse for GET /api/incidents
type IncidentListResponse struct {
	Incidents []*models.Incident `json:"incidents"`
	Total     int                `json:"total"`
}

// IncidentsHandler handles incident HTTP requests.
type IncidentsHandler struct {
	incidentService services.IncidentService
	logger          *zap.Logger
}

// NewIncidentsHandler creates a new incidents handler.
func NewIncidentsHandler(incidentService services.IncidentService, logger *zap.Logger) *IncidentsHandler {
	return &IncidentsHandler{
		incidentService: incidentService,
		logger:          logger,
	}
}

// RegisterRoutes registers the incidents handler's routes on the given mux.
func (h *IncidentsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/incidents", h.Create)
	mux.HandleFunc("GET /api/incidents", h.List)
	mux.HandleFunc("GET /api/incidents/{id}", h.Get)
	mux.HandleFunc("GET /api/incidents/export.csv", h.ExportCSV)
	mux.HandleFunc("GET /api/incidents/{id}/export.json", h.ExportJSON)
	mux.HandleFunc("POST /api/incidents/import", h.Import)
}

// Create handles POST /api/incidents
func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	incident, err := h.incidentService.Create(r.Context(), &services.CreateIncidentInput{
		Address:         req.Address,
		Description:     req.Description,
		Category:        req.Category,
		Severity:        req.Severity,
		Summary:         req.Summary,
		NextSteps:       req.NextSteps,
		CustomerMessage: req.CustomerMessage,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		AISuggestionRaw: req.AISuggestionRaw,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			if err := ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to create incident", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "create_incident_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: incident}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/incidents
func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := repositories.IncidentFilters{
		Severity: query.Get("severity"),
		Category: query.Get("category"),
		Search:   query.Get("q"),
		SortKey:  query.Get("sort"),
		SortDir:  query.Get("dir"),
	}

	incidents, err := h.incidentService.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("Failed to list incidents", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_incidents_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := IncidentListResponse{
		Incidents: incidents,
		Total:     len(incidents),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/incidents/{id}
func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	detail, err := h.incidentService.GetDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "incident_not_found", "incident not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get incident", zap.Int64("incident_id", id), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "get_incident_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: detail}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ExportCSV handles GET /api/incidents/export.csv
func (h *IncidentsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="incidents.csv"`)

	if err := h.incidentService.WriteCSV(r.Context(), w); err != nil {
		// Headers may already be out; log and abort the stream.
		h.logger.Error("Failed to export incidents as CSV", zap.Error(err))
	}
}

// ExportJSON handles GET /api/incidents/{id}/export.json
// The body is the bare incident, the shape the import endpoint accepts.
func (h *IncidentsHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	incident, err := h.incidentService.ExportJSON(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "incident_not_found", "incident not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to export incident", zap.Int64("incident_id", id), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "export_incident_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="incident.json"`)
	if err := WriteJSON(w, http.StatusOK, incident); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Import handles POST /api/incidents/import. The body is a JSON array of
// incidents; a single object is accepted as a one-element batch so an
// export.json download can be posted back unchanged.
func (h *IncidentsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "body must be a JSON array or object of incidents"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	incidents, err := decodeIncidentBatch(raw)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "body must be a JSON array or object of incidents"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.incidentService.Import(r.Context(), incidents)
	if err != nil {
		h.logger.Error("Failed to import incidents", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "import_incidents_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// decodeIncidentBatch accepts either a JSON array of incidents or a single
// incident object.
func decodeIncidentBatch(raw json.RawMessage) ([]*models.Incident, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one models.Incident
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, err
		}
		return []*models.Incident{&one}, nil
	}

	var incidents []*models.Incident
	if err := json.Unmarshal(raw, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (h *IncidentsHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_incident_id", "incident id must be a positive integer"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}
