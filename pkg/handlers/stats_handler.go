package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/services"
)

// StatsHandler serves windowed incident analytics.
type StatsHandler struct {
	analyticsService services.AnalyticsService
	logger           *zap.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(analyticsService services.AnalyticsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// RegisterRoutes registers the stats handler's routes on the given mux.
func (h *StatsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stats", h.Stats)
}

// Stats handles GET /api/stats?from&to
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r, 90*24*time.Hour)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_window", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	stats, err := h.analyticsService.Stats(r.Context(), from, to)
	if err != nil {
		h.logger.Error("Failed to compute stats", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "stats_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: stats}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// parseWindow reads from/to query parameters, accepting RFC 3339 timestamps
// or bare dates. Missing bounds default to [now-span, now]. A bare "to"
// date is pushed to the end of that day so the window stays inclusive.
func parseWindow(r *http.Request, span time.Duration) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.Add(-span)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, _, err := parseTimeParam(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from parameter %q", raw)
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, dateOnly, err := parseTimeParam(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to parameter %q", raw)
		}
		if dateOnly {
			parsed = parsed.Add(24*time.Hour - time.Nanosecond)
		}
		to = parsed
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("window end precedes its start")
	}
	return from, to, nil
}

func parseTimeParam(raw string) (parsed time.Time, dateOnly bool, err error) {
	if parsed, err = time.Parse(time.RFC3339, raw); err == nil {
		return parsed, false, nil
	}
	if parsed, err = time.Parse("2006-01-02", raw); err == nil {
		return parsed, true, nil
	}
	return time.Time{}, false, err
}
