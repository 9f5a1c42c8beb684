package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/masterdata"
	"github.com/ignite/gameplan-importer/internal/metrics"
	"github.com/ignite/gameplan-importer/internal/pkg/logger"
	"github.com/ignite/gameplan-importer/internal/refstore"
)

// MaxGamePlans bounds the number of game plans read for one cross-reference run.
const MaxGamePlans = 10000

type mediaSet struct {
	tv      bool
	digital bool
}

// IsTVMedia reports whether a media type name denotes television.
func IsTVMedia(name string) bool {
	k := masterdata.Key(name)
	return k == "tv" || strings.HasPrefix(k, "tv ") || strings.Contains(k, "television")
}

// IsDigitalMedia reports whether a media type name denotes digital media.
func IsDigitalMedia(name string) bool {
	return strings.Contains(masterdata.Key(name), "digital")
}

func affirmative(v string) bool {
	switch masterdata.Key(v) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

// ValidateAgainstGamePlans checks sufficiency rows against the game plans
// already committed for the country and financial cycle. Which TV and
// Digital columns are mandatory or must stay blank depends on the media
// types planned for each row's campaign.
//
// The game plan query is bounded by timeout. When it runs out the rows are
// not checked and a single warning with RowIndex -1 is returned instead.
// Other store errors are returned as is.
func ValidateAgainstGamePlans(ctx context.Context, store refstore.GamePlanStore, records []domain.Record,
	countryID, cycleID string, tmpl *Template, timeout time.Duration) ([]domain.ValidationIssue, error) {
	if !tmpl.CrossReference || len(records) == 0 {
		return nil, nil
	}

	qctx, cancel := context.WithTimeout(ctx, timeout)
	media, err := store.ListGamePlanMedia(qctx, countryID, cycleID, MaxGamePlans)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			metrics.RecordCrossrefTimeout()
			logger.Warn("crossref: game plan query timed out", "country_id", countryID, "cycle_id", cycleID, "timeout", timeout)
			return []domain.ValidationIssue{newIssue(-1, ColCampaign, domain.SeverityWarning,
				fmt.Sprintf("Game plan cross-check skipped: query exceeded %s", timeout), nil)}, nil
		}
		return nil, fmt.Errorf("list game plan media: %w", err)
	}

	groups := make(map[string]*mediaSet)
	for _, m := range media {
		k := masterdata.Key(m.CampaignName)
		g := groups[k]
		if g == nil {
			g = &mediaSet{}
			groups[k] = g
		}
		g.tv = g.tv || IsTVMedia(m.MediaTypeName)
		g.digital = g.digital || IsDigitalMedia(m.MediaTypeName)
	}

	var issues []domain.ValidationIssue
	for i, row := range records {
		issues = append(issues, crossCheckRow(row, i, groups, tmpl.Rules)...)
	}
	return issues, nil
}

func crossCheckRow(row domain.Record, index int, groups map[string]*mediaSet, rules ConditionalRules) []domain.ValidationIssue {
	campaign := cell(row, ColCampaign)
	if campaign == "" {
		return nil
	}
	g, ok := groups[masterdata.Key(campaign)]
	if !ok {
		return []domain.ValidationIssue{newIssue(index, ColCampaign, domain.SeverityCritical,
			fmt.Sprintf("No game plans found for campaign %q in this country and financial cycle", campaign), campaign)}
	}

	var issues []domain.ValidationIssue
	flagged := make(map[string]bool)
	check := func(column string, mandatory bool, media string) {
		if flagged[column] {
			return
		}
		v := cell(row, column)
		switch {
		case mandatory && v == "":
			flagged[column] = true
			issues = append(issues, newIssue(index, column, domain.SeverityCritical,
				fmt.Sprintf("%s is required: campaign %q has %s game plans", column, campaign, media), nil))
		case !mandatory && v != "":
			flagged[column] = true
			issues = append(issues, newIssue(index, column, domain.SeverityWarning,
				fmt.Sprintf("%s should be blank: campaign %q has no %s game plans", column, campaign, media), v))
		}
	}

	for _, col := range rules.TVFields {
		check(col, g.tv, "TV")
	}
	for _, col := range rules.DigitalFields {
		check(col, g.digital, "Digital")
	}

	sameAsTV := rules.DigitalSameFlag != "" && affirmative(row[rules.DigitalSameFlag])
	for _, col := range rules.DigitalDemoFields {
		v := cell(row, col)
		switch {
		case g.digital && sameAsTV && v != "":
			flagged[col] = true
			issues = append(issues, newIssue(index, col, domain.SeverityWarning,
				fmt.Sprintf("%s should be blank when the Digital target is the same as TV", col), v))
		case g.digital && !sameAsTV:
			check(col, true, "Digital")
		case !g.digital:
			check(col, false, "Digital")
		}
	}

	if g.tv && g.digital {
		for _, group := range [][]string{rules.TVFields, rules.DigitalFields, rules.CombinedFields} {
			for _, col := range group {
				check(col, true, "TV and Digital")
			}
		}
	}
	return issues
}
