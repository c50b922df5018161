package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/llm"
	"github.com/utiliwatch/triage-engine/pkg/models"
	"github.com/utiliwatch/triage-engine/pkg/repositories"
)

func testZones() []*models.Zone {
	return []*models.Zone{
		{
			ID:        "zone-3-4",
			CenterLat: 37.77,
			CenterLng: -122.43,
			Score:     6.5,
			Reasons:   []string{"2 high severity incidents", "1 open repairs"},
		},
		{
			ID:        "zone-0-0",
			CenterLat: 37.71,
			CenterLng: -122.51,
			Score:     1.0,
		},
	}
}

// newAskFixture wires an ask service over a risk service whose repository
// produces the given zone in the scored cell.
func newAskFixture(t *testing.T, chat llm.ChatClient) AskService {
	t.Helper()
	repo := &mockRiskRepository{
		IncidentsBetweenFunc: func(ctx context.Context, from, to time.Time, filters repositories.RiskFilters) ([]*models.RiskIncident, error) {
			return []*models.RiskIncident{
				{ID: 1, Latitude: 37.77, Longitude: -122.43, Severity: models.SeverityHigh, OccurredAt: time.Now()},
			}, nil
		},
	}
	return NewAskService(NewRiskService(repo, zap.NewNop()), chat, zap.NewNop())
}

func TestAskService_Ask_LLMAnswer(t *testing.T) {
	var prompted string
	chat := llm.NewMockChatClient()
	chat.CompleteFunc = func(ctx context.Context, systemMessage, userContent string) (string, error) {
		prompted = userContent
		return "Focus crews on zone-3-4; it carries the highest score.", nil
	}

	svc := newAskFixture(t, chat)
	answer, err := svc.Ask(context.Background(), "Where should crews go first?")
	require.NoError(t, err)

	assert.Equal(t, AskModeLLM, answer.Mode)
	assert.Contains(t, answer.Answer, "zone-3-4")
	assert.Contains(t, prompted, "zone-3-4", "prompt must embed the zone summary")
	assert.Contains(t, prompted, "Where should crews go first?")
}

func TestAskService_Ask_FallsBackOnProviderError(t *testing.T) {
	chat := llm.NewMockChatClient()
	chat.CompleteFunc = func(ctx context.Context, systemMessage, userContent string) (string, error) {
		return "", errors.New("provider unavailable")
	}

	svc := newAskFixture(t, chat)
	answer, err := svc.Ask(context.Background(), "What is the riskiest area?")
	require.NoError(t, err, "provider failure must not surface")

	assert.Equal(t, AskModeRules, answer.Mode)
	assert.Contains(t, answer.Answer, "highest-risk zone is zone-3-4")
	assert.Contains(t, answer.Answer, "1 high severity incidents")
}

func TestAskService_Ask_FallsBackOnEmptyCompletion(t *testing.T) {
	chat := llm.NewMockChatClient()
	chat.CompleteFunc = func(ctx context.Context, systemMessage, userContent string) (string, error) {
		return "   ", nil
	}

	svc := newAskFixture(t, chat)
	answer, err := svc.Ask(context.Background(), "Anything urgent?")
	require.NoError(t, err)
	assert.Equal(t, AskModeRules, answer.Mode)
}

func TestAskService_Ask_RulesOnlyWithoutChatClient(t *testing.T) {
	svc := newAskFixture(t, nil)

	answer, err := svc.Ask(context.Background(), "Where is risk concentrated?")
	require.NoError(t, err)
	assert.Equal(t, AskModeRules, answer.Mode)
}

func TestSummarizeZones(t *testing.T) {
	summary := summarizeZones(testZones())
	assert.Contains(t, summary, "1. zone-3-4 (37.7700, -122.4300) score 6.50: 2 high severity incidents, 1 open repairs")
	assert.Contains(t, summary, "2. zone-0-0")

	assert.Equal(t, "No scored risk zones in the current window.", summarizeZones(nil))
}

func TestFallbackAnswer_NoZones(t *testing.T) {
	assert.Equal(t, "No risk zones have a positive score in the current window.", fallbackAnswer(nil))
}
