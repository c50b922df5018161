package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/classify"
	"github.com/utiliwatch/triage-engine/pkg/models"
)

func noRateLimit(next http.HandlerFunc) http.HandlerFunc { return next }

func newEnrichMux(classifier classify.Classifier) *http.ServeMux {
	mux := http.NewServeMux()
	NewEnrichHandler(classifier, zap.NewNop()).RegisterRoutes(mux, noRateLimit)
	return mux
}

func TestEnrichHandler_ClassifiesDescription(t *testing.T) {
	mux := newEnrichMux(classify.NewRuleEngine())

	body := `{"description": "strong gas smell near the school", "address": "5 Elm St"}`
	req := httptest.NewRequest(http.MethodPost, "/api/enrich", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool                    `json:"success"`
		Data    classify.Classification `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))

	assert.True(t, envelope.Success)
	assert.Equal(t, models.CategoryLeak, envelope.Data.Category)
	assert.Equal(t, models.SeverityHigh, envelope.Data.Severity)
	assert.Equal(t, classify.ModeRules, envelope.Data.Mode)
	assert.Len(t, envelope.Data.NextSteps, 5)
}

func TestEnrichHandler_MissingDescription(t *testing.T) {
	classifier := &mockClassifier{}
	mux := newEnrichMux(classifier)

	req := httptest.NewRequest(http.MethodPost, "/api/enrich", strings.NewReader(`{"address": "5 Elm St"}`))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, classifier.ClassifyCalls)
}

func TestEnrichHandler_InvalidJSON(t *testing.T) {
	mux := newEnrichMux(&mockClassifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/enrich", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrichHandler_ProviderFailureStillSucceeds(t *testing.T) {
	// A classifier that degraded to its fallback still answers 200.
	classifier := &mockClassifier{
		ClassifyFunc: func(ctx context.Context, description, address string) *classify.Classification {
			return classify.NewRuleEngine().Classify(ctx, description, address)
		},
	}
	mux := newEnrichMux(classifier)

	req := httptest.NewRequest(http.MethodPost, "/api/enrich", strings.NewReader(`{"description": "billing question"}`))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, classifier.ClassifyCalls)
}
