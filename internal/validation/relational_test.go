package validation

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/masterdata"
	"github.com/ignite/gameplan-importer/internal/refstore"
)

func loadStore(t *testing.T) *refstore.Memory {
	t.Helper()
	f, err := os.Open("../refstore/testdata/reference.yaml")
	require.NoError(t, err)
	defer f.Close()
	m, err := refstore.LoadMemory(f)
	require.NoError(t, err)
	return m
}

func loadSnapshot(t *testing.T) *masterdata.Snapshot {
	t.Helper()
	snap, err := masterdata.Load(context.Background(), loadStore(t))
	require.NoError(t, err)
	return snap
}

func mustTemplate(t *testing.T, name string) *Template {
	t.Helper()
	tmpl, err := LookupTemplate(name)
	require.NoError(t, err)
	return tmpl
}

func issuesFor(issues []domain.ValidationIssue, column string) []domain.ValidationIssue {
	var out []domain.ValidationIssue
	for _, is := range issues {
		if is.ColumnName == column {
			out = append(out, is)
		}
	}
	return out
}

func gamePlanRow() domain.Record {
	return domain.Record{
		ColCategory:     "Deo",
		ColRange:        "Black & White",
		ColCampaign:     "Black & White",
		ColMedia:        "TV",
		ColMediaSubtype: "Linear TV",
		ColStartDate:    "2025-01-06",
		ColEndDate:      "2025-03-30",
	}
}

func TestValidateRecordCleanRow(t *testing.T) {
	issues := ValidateRecord(gamePlanRow(), 0, loadSnapshot(t), mustTemplate(t, TemplateGamePlan))
	assert.Empty(t, issues)
}

func TestValidateRecordRequiredFields(t *testing.T) {
	row := gamePlanRow()
	delete(row, ColStartDate)
	row[ColMediaSubtype] = "  "

	issues := ValidateRecord(row, 3, loadSnapshot(t), mustTemplate(t, TemplateGamePlan))
	for _, col := range []string{ColStartDate, ColMediaSubtype} {
		got := issuesFor(issues, col)
		require.Len(t, got, 1, col)
		assert.Equal(t, domain.SeverityCritical, got[0].Severity)
		assert.Equal(t, 3, got[0].RowIndex)
		assert.Nil(t, got[0].CurrentValue)
	}
}

func TestValidateRecordEndDateBeforeStart(t *testing.T) {
	row := gamePlanRow()
	row[ColStartDate] = "2025-09-01"
	row[ColEndDate] = "2025-08-01"

	issues := ValidateRecord(row, 0, loadSnapshot(t), mustTemplate(t, TemplateGamePlan))
	got := issuesFor(issues, ColEndDate)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SeverityCritical, got[0].Severity)
	assert.Equal(t, "End Date must be after Start Date", got[0].Message)
}

func TestValidateRecordUnparseableDatesSkipOrder(t *testing.T) {
	row := gamePlanRow()
	row[ColStartDate] = "2025-09-01"
	row[ColEndDate] = "31/02/2025"

	issues := ValidateRecord(row, 0, loadSnapshot(t), mustTemplate(t, TemplateGamePlan))
	got := issuesFor(issues, ColEndDate)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "must be a date")
}

func TestValidateRecordCPPDrop(t *testing.T) {
	snap := loadSnapshot(t)
	tmpl := mustTemplate(t, TemplateSufficiency)

	row := domain.Record{ColCampaign: "Clear Scalp", ColCPP2024: "10", ColCPP2025: "7"}
	got := issuesFor(ValidateRecord(row, 0, snap, tmpl), ColCPP2025)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SeveritySuggestion, got[0].Severity)

	row[ColCPP2025] = "8.5"
	assert.Empty(t, issuesFor(ValidateRecord(row, 0, snap, tmpl), ColCPP2025))
}

func TestValidateRecordPairingDowngrade(t *testing.T) {
	snap := loadSnapshot(t)
	tmpl := mustTemplate(t, TemplateSufficiency)

	tests := []struct {
		name   string
		row    domain.Record
		column string
	}{
		{"range not in category", domain.Record{ColCategory: "Deo", ColRange: "Clear"}, ColRange},
		{"campaign in other range", domain.Record{ColRange: "Dove Men", ColCampaign: "Clear Scalp"}, ColCampaign},
		{"country in other sub region", domain.Record{ColCountry: "Germany", ColSubRegion: "Benelux"}, ColSubRegion},
		{"subtype in other media", domain.Record{ColMedia: "TV", ColMediaSubtype: "Social"}, ColMediaSubtype},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := issuesFor(ValidateRecord(tt.row, 0, snap, tmpl), tt.column)
			require.Len(t, got, 1)
			assert.Equal(t, domain.SeverityWarning, got[0].Severity)
		})
	}
}

func TestValidateRecordComparisonPolicy(t *testing.T) {
	row := gamePlanRow()
	row[ColCategory] = "  deo "
	row[ColRange] = "BLACK   &  white"
	row[ColCampaign] = "black & white"
	assert.Empty(t, ValidateRecord(row, 0, loadSnapshot(t), mustTemplate(t, TemplateGamePlan)))
}

func TestValidateRecordMissingEntity(t *testing.T) {
	snap := loadSnapshot(t)

	t.Run("critical with suggestion", func(t *testing.T) {
		row := domain.Record{ColCategory: "Deoo"}
		got := issuesFor(ValidateRecord(row, 0, snap, mustTemplate(t, TemplateSufficiency)), ColCategory)
		require.Len(t, got, 1)
		assert.Equal(t, domain.SeverityCritical, got[0].Severity)
		assert.Contains(t, got[0].Message, `did you mean "Deo"`)
		assert.Equal(t, "Deoo", got[0].CurrentValue)
	})

	t.Run("creatable entity warns", func(t *testing.T) {
		row := gamePlanRow()
		row[ColRange] = "Dove Men+Care"
		got := issuesFor(ValidateRecord(row, 0, snap, mustTemplate(t, TemplateGamePlan)), ColRange)
		require.Len(t, got, 1)
		assert.Equal(t, domain.SeverityWarning, got[0].Severity)
		assert.Contains(t, got[0].Message, "will be created on import")
	})
}

func TestValidateRecordFranchise(t *testing.T) {
	snap := loadSnapshot(t)
	tmpl := mustTemplate(t, TemplateSufficiency)

	got := issuesFor(ValidateRecord(domain.Record{ColCampaign: "Dove Men Fresh"}, 0, snap, tmpl), ColFranchise)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SeverityCritical, got[0].Severity)

	got = issuesFor(ValidateRecord(domain.Record{ColCampaign: "Dove Men Fresh", ColFranchise: "Dove Men"}, 0, snap, tmpl), ColFranchise)
	assert.Empty(t, got)

	got = issuesFor(ValidateRecord(domain.Record{ColCampaign: "Clear Scalp", ColFranchise: "Clear"}, 0, snap, tmpl), ColFranchise)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SeverityWarning, got[0].Severity)
}

func TestValidateRecordCombinedReach(t *testing.T) {
	snap := loadSnapshot(t)
	tmpl := mustTemplate(t, TemplateSufficiency)

	row := domain.Record{
		ColTVReach:            "45%",
		ColDigitalReach:       "30%",
		ColTVIdealReach:       "50%",
		ColDigitalIdealReach:  "35%",
		ColCombinedIdealReach: "60%",
		ColTVPotentialReach:   "70%",
	}
	issues := ValidateRecord(row, 0, snap, tmpl)

	got := issuesFor(issues, ColPlannedCombinedReach)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SeverityCritical, got[0].Severity)
	assert.Empty(t, issuesFor(issues, ColCombinedIdealReach))
	assert.Empty(t, issuesFor(issues, ColCombinedPotentialReach))
}

func TestValidateRecordFieldTypes(t *testing.T) {
	snap := loadSnapshot(t)
	tmpl := mustTemplate(t, TemplateSufficiency)

	row := domain.Record{
		ColTVTargetSize:    "lots",
		ColTVReach:         "145%",
		ColTVCopyLength:    `30" 15"`,
		ColSocioDemoTarget: "2554",
	}
	issues := ValidateRecord(row, 0, snap, tmpl)

	assert.Equal(t, domain.SeverityCritical, issuesFor(issues, ColTVTargetSize)[0].Severity)
	assert.Equal(t, domain.SeverityCritical, issuesFor(issues, ColTVReach)[0].Severity)
	assert.Empty(t, issuesFor(issues, ColTVCopyLength))
	assert.Equal(t, domain.SeverityWarning, issuesFor(issues, ColSocioDemoTarget)[0].Severity)
}

func TestValidateRecordBudgets(t *testing.T) {
	snap := loadSnapshot(t)
	tmpl := mustTemplate(t, TemplateGamePlan)

	row := gamePlanRow()
	row[ColTotalBudget] = "1,000"
	row[ColQ1Budget] = "250"
	row[ColQ2Budget] = "250"
	row[ColQ3Budget] = "250"
	row[ColQ4Budget] = "250.005"
	assert.Empty(t, issuesFor(ValidateRecord(row, 0, snap, tmpl), ColTotalBudget))

	row[ColQ4Budget] = "300"
	got := issuesFor(ValidateRecord(row, 0, snap, tmpl), ColTotalBudget)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SeverityWarning, got[0].Severity)
	assert.Contains(t, got[0].Message, "1050.00")
}

func TestValidateRecordNonFiniteBudgets(t *testing.T) {
	snap := loadSnapshot(t)
	tmpl := mustTemplate(t, TemplateGamePlan)

	for _, raw := range []string{"NaN", "Inf", "-Infinity"} {
		row := gamePlanRow()
		row[ColTotalBudget] = raw
		row[ColQ1Budget] = raw
		row[ColQ2Budget] = "250"

		var issues []domain.ValidationIssue
		require.NotPanics(t, func() { issues = ValidateRecord(row, 0, snap, tmpl) }, raw)
		for _, col := range []string{ColTotalBudget, ColQ1Budget} {
			got := issuesFor(issues, col)
			require.NotEmpty(t, got, "%s %s", col, raw)
			assert.Equal(t, domain.SeverityCritical, got[0].Severity)
		}

		sum, found := QuarterSum(row)
		assert.True(t, found)
		assert.Equal(t, "250", sum.String())
	}
}
