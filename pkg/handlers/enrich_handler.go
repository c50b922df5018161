package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/classify"
)

// EnrichRequest for POST /api/enrich
type EnrichRequest struct {
	Description string `json:"description"`
	Address     string `json:"address,omitempty"`
}

// EnrichHandler turns a free-text incident description into a structured
// classification.
type EnrichHandler struct {
	classifier classify.Classifier
	logger     *zap.Logger
}

// NewEnrichHandler creates a new enrich handler.
func NewEnrichHandler(classifier classify.Classifier, logger *zap.Logger) *EnrichHandler {
	return &EnrichHandler{
		classifier: classifier,
		logger:     logger,
	}
}

// RegisterRoutes registers the enrich handler's routes on the given mux.
// rateLimit guards the endpoint; classification is the only surface that
// can fan out to a paid provider.
func (h *EnrichHandler) RegisterRoutes(mux *http.ServeMux, rateLimit func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/enrich", rateLimit(h.Enrich))
}

// Enrich handles POST /api/enrich
func (h *EnrichHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	var req EnrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.Description == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_description", "description is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	// Classify never fails: remote providers degrade to the rule engine.
	classification := h.classifier.Classify(r.Context(), req.Description, req.Address)

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: classification}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
