package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/masterdata"
)

// cppDropThreshold is the year-over-year CPP decrease above which a
// suggestion is raised.
const cppDropThreshold = 0.20

var budgetTolerance = decimal.NewFromFloat(0.01)

// entityColumns maps the columns checked for existence to their master-data kind.
var entityColumns = []struct {
	column string
	kind   string
}{
	{ColCountry, domain.KindCountry},
	{ColBusinessUnit, domain.KindBusinessUnit},
	{ColCategory, domain.KindCategory},
	{ColRange, domain.KindRange},
	{ColCampaign, domain.KindCampaign},
	{ColMedia, domain.KindMediaType},
	{ColMediaSubtype, domain.KindMediaSubtype},
}

// combinedReach pairs a TV and a Digital reach column with the combined
// column that becomes mandatory once both are filled.
var combinedReach = []struct{ tv, digital, combined string }{
	{ColTVReach, ColDigitalReach, ColPlannedCombinedReach},
	{ColTVIdealReach, ColDigitalIdealReach, ColCombinedIdealReach},
	{ColTVPotentialReach, ColDigitalPotentialReach, ColCombinedPotentialReach},
}

func newIssue(index int, column string, sev domain.Severity, msg string, value any) domain.ValidationIssue {
	return domain.ValidationIssue{RowIndex: index, ColumnName: column, Severity: sev, Message: msg, CurrentValue: value}
}

func cell(row domain.Record, column string) string {
	return strings.TrimSpace(row[column])
}

// ValidateRecord runs the per-row checks of tmpl against the master data
// snapshot: required fields, field types, entity existence, pairing
// compatibility and the business rules. It never fails; problems are
// returned as issues.
func ValidateRecord(row domain.Record, index int, snap *masterdata.Snapshot, tmpl *Template) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	add := func(column string, sev domain.Severity, msg string) {
		var v any
		if raw := cell(row, column); raw != "" {
			v = raw
		}
		issues = append(issues, newIssue(index, column, sev, msg, v))
	}

	for _, col := range tmpl.RequiredFields {
		if cell(row, col) == "" {
			add(col, domain.SeverityCritical, fmt.Sprintf("%s is required", col))
		}
	}

	for _, col := range sortedColumns(tmpl.FieldTypes) {
		ft := tmpl.FieldTypes[col]
		if IsValid(ft, row[col]) {
			continue
		}
		sev := domain.SeverityCritical
		if ft == FieldString {
			sev = domain.SeverityWarning
		}
		add(col, sev, InvalidMessage(col, ft))
	}

	exists := make(map[string]bool, len(entityColumns))
	for _, ec := range entityColumns {
		v := cell(row, ec.column)
		if v == "" {
			continue
		}
		if snap.Has(ec.kind, v) {
			exists[ec.column] = true
			continue
		}
		if tmpl.Creatable[ec.kind] {
			add(ec.column, domain.SeverityWarning, fmt.Sprintf("%s %q does not exist and will be created on import", ec.column, v))
			continue
		}
		add(ec.column, domain.SeverityCritical, notFoundMessage(snap, ec.column, ec.kind, v))
	}

	issues = append(issues, pairingIssues(row, index, snap, exists)...)

	if tmpl.FranchiseColumn != "" {
		if campaign := cell(row, ColCampaign); campaign != "" {
			franchise := cell(row, tmpl.FranchiseColumn)
			required := tmpl.RequiresFranchise(campaign)
			switch {
			case required && franchise == "":
				add(tmpl.FranchiseColumn, domain.SeverityCritical,
					fmt.Sprintf("%s is required for franchise campaign %q", tmpl.FranchiseColumn, campaign))
			case !required && franchise != "":
				add(tmpl.FranchiseColumn, domain.SeverityWarning,
					fmt.Sprintf("%s does not apply to campaign %q", tmpl.FranchiseColumn, campaign))
			}
		}
	}

	start, okStart := ParseDate(row[ColStartDate])
	end, okEnd := ParseDate(row[ColEndDate])
	if okStart && okEnd && !end.After(start) {
		add(ColEndDate, domain.SeverityCritical, "End Date must be after Start Date")
	}

	prior, okPrior := ParseNumber(row[ColCPP2024])
	current, okCurrent := ParseNumber(row[ColCPP2025])
	if okPrior && okCurrent && prior > 0 && (prior-current)/prior > cppDropThreshold {
		add(ColCPP2025, domain.SeveritySuggestion,
			fmt.Sprintf("CPP 2025 is %.0f%% lower than CPP 2024; check the cost per point", (prior-current)/prior*100))
	}

	for _, cr := range combinedReach {
		if cell(row, cr.tv) != "" && cell(row, cr.digital) != "" && cell(row, cr.combined) == "" {
			add(cr.combined, domain.SeverityCritical,
				fmt.Sprintf("%s is required when both %s and %s are filled", cr.combined, cr.tv, cr.digital))
		}
	}

	if tmpl.CheckBudgets {
		if msg, ok := budgetMismatch(row); ok {
			add(ColTotalBudget, domain.SeverityWarning, msg)
		}
	}

	return issues
}

func notFoundMessage(snap *masterdata.Snapshot, column, kind, value string) string {
	msg := fmt.Sprintf("%s %q not found in master data", column, value)
	if hints := snap.Suggest(kind, value); len(hints) > 0 {
		msg += fmt.Sprintf("; did you mean %s?", strings.Join(quoteAll(hints), ", "))
	}
	return msg
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

// pairingIssues flags combinations of individually valid entities that do
// not belong together. These are warnings: each entity exists on its own.
func pairingIssues(row domain.Record, index int, snap *masterdata.Snapshot, exists map[string]bool) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	warn := func(column, msg string) {
		issues = append(issues, newIssue(index, column, domain.SeverityWarning, msg, cell(row, column)))
	}

	country, subRegion := cell(row, ColCountry), cell(row, ColSubRegion)
	if exists[ColCountry] && subRegion != "" {
		if actual, ok := snap.CountrySubRegion(country); ok && !masterdata.Same(actual, subRegion) {
			warn(ColSubRegion, fmt.Sprintf("Country %q belongs to sub region %q, not %q", country, actual, subRegion))
		}
	}

	category, rangeName := cell(row, ColCategory), cell(row, ColRange)
	if exists[ColCategory] && exists[ColRange] && !snap.RangeInCategory(category, rangeName) {
		warn(ColRange, fmt.Sprintf("Range %q is not linked to category %q", rangeName, category))
	}

	campaign := cell(row, ColCampaign)
	if exists[ColCampaign] && rangeName != "" {
		if actual, ok := snap.CampaignRange(campaign); ok && !masterdata.Same(actual, rangeName) {
			warn(ColCampaign, fmt.Sprintf("Campaign %q belongs to range %q, not %q", campaign, actual, rangeName))
		}
	}

	mediaType, subtype := cell(row, ColMedia), cell(row, ColMediaSubtype)
	if exists[ColMedia] && exists[ColMediaSubtype] && !snap.SubtypeInType(mediaType, subtype) {
		warn(ColMediaSubtype, fmt.Sprintf("Media subtype %q is not part of media %q", subtype, mediaType))
	}
	return issues
}

// budgetMismatch reports a total budget that differs from the quarter sum
// by more than the tolerance. Rows without a total or without any quarter
// are skipped.
func budgetMismatch(row domain.Record) (string, bool) {
	total, ok := ParseNumber(row[ColTotalBudget])
	if !ok {
		return "", false
	}
	sum, found := QuarterSum(row)
	if !found {
		return "", false
	}
	t := decimal.NewFromFloat(total)
	if t.Sub(sum).Abs().LessThanOrEqual(budgetTolerance) {
		return "", false
	}
	return fmt.Sprintf("Total Budget %s does not match the sum of quarterly budgets %s",
		t.StringFixed(2), sum.StringFixed(2)), true
}

// QuarterSum adds the Q1..Q4 budget cells. The second result is false when
// no quarter holds a number.
func QuarterSum(row domain.Record) (decimal.Decimal, bool) {
	sum := decimal.Zero
	found := false
	for _, col := range []string{ColQ1Budget, ColQ2Budget, ColQ3Budget, ColQ4Budget} {
		if v, ok := ParseNumber(row[col]); ok {
			sum = sum.Add(decimal.NewFromFloat(v))
			found = true
		}
	}
	return sum, found
}
