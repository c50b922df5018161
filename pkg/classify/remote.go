package classify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/llm"
	"github.com/utiliwatch/triage-engine/pkg/logging"
	"github.com/utiliwatch/triage-engine/pkg/models"
)

// descriptionLogLimit bounds the free-text excerpt in fallback logs.
const descriptionLogLimit = 64

// RemoteClassifier asks a chat provider for a schema-constrained JSON
// classification. Any failure along the way - transport error, malformed
// JSON, schema violation - degrades silently to the rule engine, so the
// caller's create-incident flow never blocks on provider trouble.
type RemoteClassifier struct {
	chat     llm.ChatClient
	fallback *RuleEngine
	mode     string
	logger   *zap.Logger
}

// NewRemoteClassifier creates a classifier backed by the given chat client.
// mode is the provider identifier reported on successful classifications
// (ModeOpenAI or ModeAnthropic).
func NewRemoteClassifier(chat llm.ChatClient, mode string, logger *zap.Logger) *RemoteClassifier {
	return &RemoteClassifier{
		chat:     chat,
		fallback: NewRuleEngine(),
		mode:     mode,
		logger:   logger.Named("classify"),
	}
}

var _ Classifier = (*RemoteClassifier)(nil)

// Classify implements Classifier.
func (c *RemoteClassifier) Classify(ctx context.Context, description string, address string) *Classification {
	userContent := "Incident description: " + description
	if address != "" {
		userContent += "\nReported address: " + address
	}

	response, err := c.chat.Complete(ctx, systemPrompt, userContent)
	if err != nil {
		c.logger.Warn("remote classification failed, using rule engine",
			zap.String("provider", c.mode),
			zap.String("description", logging.TruncateString(description, descriptionLogLimit)),
			zap.String("error", logging.SanitizeError(err)))
		return c.fallback.Classify(ctx, description, address)
	}

	result, err := llm.ParseJSONResponse[Result](response)
	if err != nil {
		c.logger.Warn("remote classification returned malformed JSON, using rule engine",
			zap.String("provider", c.mode),
			zap.Error(err))
		return c.fallback.Classify(ctx, description, address)
	}

	if err := validateResult(&result); err != nil {
		c.logger.Warn("remote classification failed schema validation, using rule engine",
			zap.String("provider", c.mode),
			zap.Error(err))
		return c.fallback.Classify(ctx, description, address)
	}

	return &Classification{
		Result: result,
		Mode:   c.mode,
		Model:  c.chat.Model(),
	}
}

// validateResult enforces the enum and field-presence schema on a parsed
// provider payload.
func validateResult(r *Result) error {
	if !models.ValidCategory(r.Category) {
		return fmt.Errorf("category %q is not a known category", r.Category)
	}
	if !models.ValidSeverity(r.Severity) {
		return fmt.Errorf("severity %q is not a known severity", r.Severity)
	}
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("summary is empty")
	}
	if len(r.NextSteps) == 0 {
		return fmt.Errorf("nextSteps is empty")
	}
	for i, step := range r.NextSteps {
		if strings.TrimSpace(step) == "" {
			return fmt.Errorf("nextSteps[%d] is empty", i)
		}
	}
	if strings.TrimSpace(r.CustomerMessage) == "" {
		return fmt.Errorf("customerMessage is empty")
	}
	return nil
}
