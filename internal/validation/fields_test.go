package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		ft   FieldType
		raw  string
		want bool
	}{
		{FieldString, "", true},
		{FieldString, "   ", true},
		{FieldString, "Adults 25-54", true},
		{FieldString, "1234", false},
		{FieldString, "1,234", false},
		{FieldString, "--", false},
		{FieldNumeric, "1,234,567.50", true},
		{FieldNumeric, "12 500", true},
		{FieldNumeric, "12k", false},
		{FieldNumeric, "NaN", false},
		{FieldNumeric, "Inf", false},
		{FieldNumeric, "-Infinity", false},
		{FieldNumeric, "0x1p3", false},
		{FieldNumeric, "1e400", false},
		{FieldNumeric, "-2.5e3", true},
		{FieldPercentage, "NaN", false},
		{FieldPercentage, "NaN%", false},
		{FieldPercentage, "45%", true},
		{FieldPercentage, "0.45", true},
		{FieldPercentage, "145%", false},
		{FieldPercentage, "-5%", false},
		{FieldTrendPercentage, "-5%", true},
		{FieldTrendPercentage, "-0.3", true},
		{FieldTrendPercentage, "-130%", false},
		{FieldDate, "2025-09-01", true},
		{FieldDate, "2025-9-1", true},
		{FieldDate, "01/09/2025", true},
		{FieldDate, "1-9-2025", true},
		{FieldDate, "31/02/2025", false},
		{FieldDate, "09/01/25", false},
		{FieldDate, "Sept 1 2025", false},
		{FieldCopyLength, `30"`, true},
		{FieldCopyLength, `20" 10"`, true},
		{FieldCopyLength, `20", 15"`, true},
		{FieldCopyLength, `30`, false},
		{FieldCopyLength, `thirty`, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.ft)+"/"+tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.ft, tt.raw))
		})
	}
}

func TestParsePercentage(t *testing.T) {
	f, ok := ParsePercentage("45%", false)
	assert.True(t, ok)
	assert.InDelta(t, 0.45, f, 1e-9)

	f, ok = ParsePercentage("0.3", false)
	assert.True(t, ok)
	assert.InDelta(t, 0.3, f, 1e-9)
}

func TestParseNumberRejectsNonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-Infinity", "infinity", "1e999"} {
		_, ok := ParseNumber(raw)
		assert.False(t, ok, raw)
	}
	f, ok := ParseNumber(" 1,250.5 ")
	assert.True(t, ok)
	assert.InDelta(t, 1250.5, f, 1e-9)
}

func TestNormalizeDate(t *testing.T) {
	for _, raw := range []string{"2025-9-1", "01/09/2025", "1-9-2025", " 2025-09-01 "} {
		got, ok := NormalizeDate(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, "2025-09-01", got, raw)
	}
	_, ok := NormalizeDate("2025/09/01")
	assert.False(t, ok)
}
