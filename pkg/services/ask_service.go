package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/llm"
	"github.com/utiliwatch/triage-engine/pkg/logging"
	"github.com/utiliwatch/triage-engine/pkg/models"
)

const (
	// AskModeLLM means a chat model composed the answer.
	AskModeLLM = "llm"
	// AskModeRules means the deterministic fallback composed it.
	AskModeRules = "rules"

	askTopZoneCount  = 5
	askWindowDays    = 90
	askSystemMessage = "You are a utility operations assistant. Answer the dispatcher's question " +
		"about network risk in at most three sentences, using only the zone summary provided. " +
		"If the summary cannot answer the question, say so plainly."
)

// Answer is a short textual answer about current network risk.
type Answer struct {
	Answer string `json:"answer"`
	Mode   string `json:"mode"`
}

// AskService answers free-form dispatcher questions about the risk map.
type AskService interface {
	// Ask answers a question from the current top risk zones. It never
	// fails on provider errors: the rule-based answer steps in.
	Ask(ctx context.Context, question string) (*Answer, error)
}

type askService struct {
	risk   RiskService
	chat   llm.ChatClient // nil means rules-only
	logger *zap.Logger
	now    func() time.Time
}

// NewAskService creates a new AskService. chat may be nil, in which case
// every answer is rule-based.
func NewAskService(risk RiskService, chat llm.ChatClient, logger *zap.Logger) AskService {
	return &askService{
		risk:   risk,
		chat:   chat,
		logger: logger.Named("ask"),
		now:    time.Now,
	}
}

var _ AskService = (*askService)(nil)

func (s *askService) Ask(ctx context.Context, question string) (*Answer, error) {
	now := s.now()
	zones, err := s.risk.TopZones(ctx, now.AddDate(0, 0, -askWindowDays), now, askTopZoneCount)
	if err != nil {
		return nil, fmt.Errorf("load top zones: %w", err)
	}

	summary := summarizeZones(zones)

	if s.chat != nil {
		answer, err := s.chat.Complete(ctx, askSystemMessage, fmt.Sprintf("Zone summary:\n%s\n\nQuestion: %s", summary, question))
		if err == nil && strings.TrimSpace(answer) != "" {
			return &Answer{Answer: strings.TrimSpace(answer), Mode: AskModeLLM}, nil
		}
		s.logger.Warn("chat completion failed, answering from rules",
			zap.String("provider", s.chat.Provider()),
			zap.String("error", logging.SanitizeError(err)))
	}

	return &Answer{Answer: fallbackAnswer(zones), Mode: AskModeRules}, nil
}

// summarizeZones renders zones as plain text for the prompt.
func summarizeZones(zones []*models.Zone) string {
	if len(zones) == 0 {
		return "No scored risk zones in the current window."
	}
	var b strings.Builder
	for i, zone := range zones {
		fmt.Fprintf(&b, "%d. %s (%.4f, %.4f) score %.2f", i+1, zone.ID, zone.CenterLat, zone.CenterLng, zone.Score)
		if len(zone.Reasons) > 0 {
			fmt.Fprintf(&b, ": %s", strings.Join(zone.Reasons, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func fallbackAnswer(zones []*models.Zone) string {
	if len(zones) == 0 {
		return "No risk zones have a positive score in the current window."
	}
	top := zones[0]
	answer := fmt.Sprintf("The highest-risk zone is %s around (%.4f, %.4f) with a score of %.2f.",
		top.ID, top.CenterLat, top.CenterLng, top.Score)
	if len(top.Reasons) > 0 {
		answer += fmt.Sprintf(" Main drivers: %s.", strings.Join(top.Reasons, ", "))
	}
	return answer
}
