package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCategory(t *testing.T) {
	for _, c := range []string{CategoryLeak, CategoryOdor, CategoryOutage, CategoryBilling, CategoryMeter, CategoryOther} {
		assert.True(t, ValidCategory(c), c)
	}
	assert.False(t, ValidCategory("leak"), "categories are case sensitive")
	assert.False(t, ValidCategory("Flood"))
	assert.False(t, ValidCategory(""))
}

func TestValidSeverity(t *testing.T) {
	for _, s := range []string{SeverityLow, SeverityMedium, SeverityHigh} {
		assert.True(t, ValidSeverity(s), s)
	}
	assert.False(t, ValidSeverity("Critical"))
	assert.False(t, ValidSeverity(""))
}
