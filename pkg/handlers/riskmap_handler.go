package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/services"
)

const defaultTopZoneCount = 10

// AskRequest for POST /api/riskmap/ask
type AskRequest struct {
	Question string `json:"question"`
}

// RiskmapHandler serves the risk heatmap data and its Q&A endpoint.
type RiskmapHandler struct {
	riskService services.RiskService
	askService  services.AskService
	logger      *zap.Logger
}

// NewRiskmapHandler creates a new riskmap handler.
func NewRiskmapHandler(riskService services.RiskService, askService services.AskService, logger *zap.Logger) *RiskmapHandler {
	return &RiskmapHandler{
		riskService: riskService,
		askService:  askService,
		logger:      logger,
	}
}

// RegisterRoutes registers the riskmap handler's routes on the given mux.
func (h *RiskmapHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/riskmap/bounds", h.Bounds)
	mux.HandleFunc("GET /api/riskmap/points", h.Points)
	mux.HandleFunc("GET /api/riskmap/pipelines", h.Pipelines)
	mux.HandleFunc("GET /api/riskmap/topzones", h.TopZones)
	mux.HandleFunc("POST /api/riskmap/ask", h.Ask)
}

// Bounds handles GET /api/riskmap/bounds
func (h *RiskmapHandler) Bounds(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: h.riskService.Bounds()}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Points handles GET /api/riskmap/points?from&to&layers&severity&category
func (h *RiskmapHandler) Points(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r, 90*24*time.Hour)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_window", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	query := r.URL.Query()
	filters := services.PointsFilters{
		Severity: query.Get("severity"),
		Category: query.Get("category"),
	}
	if raw := query.Get("layers"); raw != "" {
		for _, layer := range strings.Split(raw, ",") {
			if layer = strings.TrimSpace(layer); layer != "" {
				filters.Layers = append(filters.Layers, layer)
			}
		}
	}

	points, err := h.riskService.Points(r.Context(), from, to, filters)
	if err != nil {
		h.logger.Error("Failed to load riskmap points", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "riskmap_points_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: points}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Pipelines handles GET /api/riskmap/pipelines
func (h *RiskmapHandler) Pipelines(w http.ResponseWriter, r *http.Request) {
	pipelines, err := h.riskService.Pipelines(r.Context())
	if err != nil {
		h.logger.Error("Failed to load pipelines", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "riskmap_pipelines_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: pipelines}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// TopZones handles GET /api/riskmap/topzones?from&to&count
func (h *RiskmapHandler) TopZones(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r, 90*24*time.Hour)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_window", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	count := defaultTopZoneCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_count", "count must be a positive integer"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		count = parsed
	}

	zones, err := h.riskService.TopZones(r.Context(), from, to, count)
	if err != nil {
		h.logger.Error("Failed to score top zones", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "riskmap_topzones_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: zones}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Ask handles POST /api/riskmap/ask
func (h *RiskmapHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_question", "question is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	answer, err := h.askService.Ask(r.Context(), req.Question)
	if err != nil {
		h.logger.Error("Failed to answer riskmap question", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "riskmap_ask_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: answer}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
