package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]ValidationIssue{
		{RowIndex: 0, Severity: SeverityCritical},
		{RowIndex: 0, Severity: SeverityWarning},
		{RowIndex: 3, Severity: SeveritySuggestion},
		{RowIndex: -1, Severity: SeverityWarning},
	})
	assert.Equal(t, ValidationSummary{Total: 4, Critical: 1, Warning: 2, Suggestion: 1, UniqueRows: 2}, s)
	assert.False(t, s.CanImport())

	empty := Summarize(nil)
	assert.Equal(t, ValidationSummary{}, empty)
	assert.True(t, empty.CanImport())
}

func TestSessionTransitions(t *testing.T) {
	tests := []struct {
		from, to SessionStatus
		ok       bool
	}{
		{SessionUploaded, SessionValidated, true},
		{SessionUploaded, SessionImporting, false},
		{SessionValidated, SessionValidated, true},
		{SessionValidated, SessionImporting, true},
		{SessionImporting, SessionImported, true},
		{SessionImporting, SessionValidated, false},
		{SessionImported, SessionError, false},
		{SessionImported, SessionImporting, false},
		{SessionError, SessionError, true},
		{SessionError, SessionValidated, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, SessionImported.IsTerminal())
	assert.True(t, SessionError.IsTerminal())
	assert.False(t, SessionImporting.IsTerminal())
}

func TestGamePlanKey(t *testing.T) {
	a := GamePlan{ID: "1", CampaignID: "c", MediaSubtypeID: "m", StartDate: "2025-01-06", EndDate: "2025-03-30", TotalBudget: 10}
	b := GamePlan{ID: "2", CampaignID: "c", MediaSubtypeID: "m", StartDate: "2025-01-06", EndDate: "2025-03-30", TotalBudget: 99}
	assert.Equal(t, a.Key(), b.Key())

	b.EndDate = "2025-03-31"
	assert.NotEqual(t, a.Key(), b.Key())
}
