package classify

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utiliwatch/triage-engine/pkg/models"
)

func TestRuleEngine_CategoryKeywords(t *testing.T) {
	tests := []struct {
		name         string
		description  string
		wantCategory string
		wantSeverity string
	}{
		{"gas keyword", "I can smell gas near the stove", models.CategoryLeak, models.SeverityHigh},
		{"leak keyword", "there is a leak under the street", models.CategoryLeak, models.SeverityHigh},
		{"upper case input", "GAS LEAK at the corner", models.CategoryLeak, models.SeverityHigh},
		{"power keyword", "the power went off an hour ago", models.CategoryOutage, models.SeverityMedium},
		{"outage keyword", "whole block outage since noon", models.CategoryOutage, models.SeverityMedium},
		{"electric keyword", "electric supply flickering", models.CategoryOutage, models.SeverityMedium},
		{"odor keyword", "strange odor in the hallway", models.CategoryOdor, models.SeverityMedium},
		{"smell keyword", "weird smell from the vents", models.CategoryOdor, models.SeverityMedium},
		{"bill keyword", "my bill doubled this month", models.CategoryBilling, models.SeverityLow},
		{"charge keyword", "unexpected charge on my account", models.CategoryBilling, models.SeverityLow},
		{"payment keyword", "payment was not applied", models.CategoryBilling, models.SeverityLow},
		{"meter keyword", "the meter display is blank", models.CategoryMeter, models.SeverityMedium},
		{"reading keyword", "my reading looks wrong", models.CategoryMeter, models.SeverityMedium},
		{"no keyword", "tree branch touching the service line", models.CategoryOther, models.SeverityLow},
	}

	engine := NewRuleEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Classify(context.Background(), tt.description, "")
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantSeverity, got.Severity)
			assert.Equal(t, ModeRules, got.Mode)
		})
	}
}

func TestRuleEngine_LeakBeatsOdor(t *testing.T) {
	// "gas" is checked before "odor", so a gas odor is a Leak.
	got := NewRuleEngine().Classify(context.Background(), "gas odor in the kitchen", "")
	assert.Equal(t, models.CategoryLeak, got.Category)
	assert.Equal(t, models.SeverityHigh, got.Severity)
}

func TestRuleEngine_SeverityOverrides(t *testing.T) {
	engine := NewRuleEngine()

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"emergency forces high", "emergency: billing portal locked me out", models.SeverityHigh},
		{"urgent forces high", "urgent meter problem", models.SeverityHigh},
		{"dangerous forces high", "dangerous smell outside", models.SeverityHigh},
		{"minor forces low", "minor power flicker", models.SeverityLow},
		{"small forces low", "small gas leak", models.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Classify(context.Background(), tt.description, "")
			assert.Equal(t, tt.want, got.Severity)
		})
	}
}

func TestRuleEngine_GasOdorScenario(t *testing.T) {
	got := NewRuleEngine().Classify(context.Background(), "Strong gas odor in basement, no flame", "")

	assert.Equal(t, models.CategoryLeak, got.Category)
	assert.Equal(t, models.SeverityHigh, got.Severity)
	require.Len(t, got.NextSteps, 5)
	assert.Contains(t, strings.ToLower(got.CustomerMessage), "evacuate")
}

func TestRuleEngine_NextStepsKeyedByCategory(t *testing.T) {
	engine := NewRuleEngine()

	// Same category, different severity: steps and message must match.
	minor := engine.Classify(context.Background(), "small gas leak", "")
	major := engine.Classify(context.Background(), "gas leak emergency", "")
	assert.Equal(t, minor.NextSteps, major.NextSteps)
	assert.Equal(t, minor.CustomerMessage, major.CustomerMessage)

	// Every category has a populated table entry.
	for _, c := range []string{models.CategoryLeak, models.CategoryOdor, models.CategoryOutage, models.CategoryBilling, models.CategoryMeter, models.CategoryOther} {
		assert.NotEmpty(t, nextStepsByCategory[c], c)
		assert.NotEmpty(t, customerMessageByCategory[c], c)
	}
}

func TestSummarize(t *testing.T) {
	short := Summarize(models.CategoryOdor, "smell in hallway")
	assert.Equal(t, "Odor incident reported. smell in hallway", short)

	long := strings.Repeat("x", 100)
	got := Summarize(models.CategoryOther, long)
	assert.Equal(t, "Other incident reported. "+strings.Repeat("x", 80)+"...", got)
}

func TestSummarize_MultiByteTruncation(t *testing.T) {
	// 79 ASCII chars put the 80th character mid-rune if truncation counted
	// bytes. The excerpt must stay valid UTF-8 and keep whole runes.
	description := strings.Repeat("x", 79) + "Überdruck in der Gasleitung gemeldet"
	got := Summarize(models.CategoryLeak, description)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Leak incident reported. "+strings.Repeat("x", 79)+"Ü...", got)
}
