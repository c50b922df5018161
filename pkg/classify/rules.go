package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/utiliwatch/triage-engine/pkg/models"
)

const summaryDescriptionLimit = 80

// categoryRule matches any of its keywords against the lower-cased
// description. Rules are evaluated in priority order; the first hit wins.
type categoryRule struct {
	keywords []string
	category string
	severity string
}

var categoryRules = []categoryRule{
	{[]string{"gas", "leak"}, models.CategoryLeak, models.SeverityHigh},
	{[]string{"power", "outage", "electric"}, models.CategoryOutage, models.SeverityMedium},
	{[]string{"odor", "smell"}, models.CategoryOdor, models.SeverityMedium},
	{[]string{"bill", "charge", "payment"}, models.CategoryBilling, models.SeverityLow},
	{[]string{"meter", "reading"}, models.CategoryMeter, models.SeverityMedium},
}

// Severity override keywords, applied after category classification
// regardless of which rule matched.
var (
	highOverrides = []string{"emergency", "urgent", "dangerous"}
	lowOverrides  = []string{"minor", "small"}
)

var nextStepsByCategory = map[string][]string{
	models.CategoryLeak: {
		"Dispatch an emergency crew to the reported address",
		"Advise the caller to evacuate and avoid ignition sources",
		"Shut off the gas supply at the service valve",
		"Ventilate the area once crews confirm it is safe",
		"Schedule a follow-up inspection within 24 hours",
	},
	models.CategoryOdor: {
		"Ask the caller to describe the odor and its location",
		"Check nearby service records for recent gas work",
		"Dispatch a technician with a combustible-gas indicator",
		"Advise the caller to keep the area ventilated",
		"Record the odor report for trend monitoring",
	},
	models.CategoryOutage: {
		"Confirm the affected address against the outage map",
		"Check for known faults on the feeding circuit",
		"Dispatch a line crew if no known fault covers the address",
		"Provide the caller with the estimated restoration time",
		"Register the caller for restoration notifications",
	},
	models.CategoryBilling: {
		"Pull up the customer's recent billing history",
		"Verify the meter readings used for the disputed period",
		"Check for recent rate-plan or tariff changes",
		"Open a billing-review case with the back office",
		"Confirm the customer's preferred contact method for the outcome",
	},
	models.CategoryMeter: {
		"Verify the meter serial number with the caller",
		"Compare the reported reading with the last recorded one",
		"Schedule a field read if the readings disagree",
		"Check the meter's remote-reporting status",
		"Log a meter-service ticket for the site",
	},
	models.CategoryOther: {
		"Record the full incident description",
		"Identify the responsible department",
		"Forward the report to the responsible department",
		"Set a follow-up reminder for the agent",
		"Confirm the caller's contact details",
	},
}

var customerMessageByCategory = map[string]string{
	models.CategoryLeak:    "We have received your report of a possible gas leak. For your safety, please evacuate the building now, avoid using switches, phones or open flames inside, and wait for our emergency crew at a safe distance.",
	models.CategoryOdor:    "Thank you for reporting the unusual odor. A technician has been notified and will investigate. Please keep the area ventilated and call our emergency line if the odor becomes stronger.",
	models.CategoryOutage:  "We are aware of a possible service interruption at your location and our crews are working to restore it. You will be notified as soon as service is back.",
	models.CategoryBilling: "Thank you for contacting us about your bill. We have opened a review of the charges in question and will get back to you with the outcome shortly.",
	models.CategoryMeter:   "Thank you for your meter report. We will verify the reading and arrange a field visit if anything looks wrong. No action is needed from you at this time.",
	models.CategoryOther:   "Thank you for your report. It has been forwarded to the responsible team, and we will contact you if we need more details.",
}

// RuleEngine is the deterministic keyword classifier. It never fails and
// serves as the fallback for every remote provider.
type RuleEngine struct{}

// NewRuleEngine creates a new rule engine.
func NewRuleEngine() *RuleEngine {
	return &RuleEngine{}
}

var _ Classifier = (*RuleEngine)(nil)

// Classify implements Classifier.
func (e *RuleEngine) Classify(_ context.Context, description string, _ string) *Classification {
	lower := strings.ToLower(description)

	category := models.CategoryOther
	severity := models.SeverityLow
	for _, rule := range categoryRules {
		if containsAny(lower, rule.keywords) {
			category = rule.category
			severity = rule.severity
			break
		}
	}

	// Override pass runs after category classification.
	if containsAny(lower, highOverrides) {
		severity = models.SeverityHigh
	} else if containsAny(lower, lowOverrides) {
		severity = models.SeverityLow
	}

	return &Classification{
		Result: Result{
			Category:        category,
			Severity:        severity,
			Summary:         Summarize(category, description),
			NextSteps:       nextStepsByCategory[category],
			CustomerMessage: customerMessageByCategory[category],
		},
		Mode: ModeRules,
	}
}

// Summarize synthesizes the standard one-line summary from a category and
// the first part of the description. Truncation counts runes so a multi-byte
// character at the limit is never split.
func Summarize(category string, description string) string {
	excerpt := description
	if runes := []rune(excerpt); len(runes) > summaryDescriptionLimit {
		excerpt = string(runes[:summaryDescriptionLimit]) + "..."
	}
	return fmt.Sprintf("%s incident reported. %s", category, excerpt)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
