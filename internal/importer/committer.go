package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/refstore"
	"github.com/ignite/gameplan-importer/internal/validation"
)

// Row error types reported in ImportError.Type and Result.ErrorsByType.
const (
	ErrorTypeResolution = "resolution"
	ErrorTypeValidation = "validation"
	ErrorTypeDatabase   = "database"
)

// rowError tags a row failure with its type.
type rowError struct {
	kind string
	err  error
}

func (e *rowError) Error() string { return e.err.Error() }
func (e *rowError) Unwrap() error { return e.err }

func invalid(format string, args ...any) error {
	return &rowError{kind: ErrorTypeValidation, err: fmt.Errorf(format, args...)}
}

func errorType(err error) string {
	var re *rowError
	if errors.As(err, &re) {
		return re.kind
	}
	if errors.Is(err, ErrUnresolved) {
		return ErrorTypeResolution
	}
	return ErrorTypeDatabase
}

func value(row domain.Record, column string) string {
	return strings.TrimSpace(row[column])
}

// committer writes the dependent record of one row in phase 2.
type committer interface {
	commit(ctx context.Context, row domain.Record, refs Refs) error
	counts(*domain.ImportResults)
}

func newCommitter(store refstore.Store, tmpl *validation.Template, countryID, cycleID string) committer {
	if tmpl.Name == validation.TemplateSufficiency {
		return &sufficiencyCommitter{store: store, fields: tmpl.FieldMapping(), countryID: countryID, cycleID: cycleID}
	}
	return &gamePlanCommitter{store: store, countryID: countryID, cycleID: cycleID}
}

type gamePlanCommitter struct {
	store     refstore.GamePlanStore
	countryID string
	cycleID   string
	written   int
}

func (c *gamePlanCommitter) counts(r *domain.ImportResults) { r.GamePlansCount = c.written }

func (c *gamePlanCommitter) commit(ctx context.Context, row domain.Record, refs Refs) error {
	if refs.CampaignID == "" {
		return fmt.Errorf("%w: campaign %q", ErrUnresolved, value(row, validation.ColCampaign))
	}
	if refs.MediaSubtypeID == "" {
		return fmt.Errorf("%w: media subtype %q", ErrUnresolved, value(row, validation.ColMediaSubtype))
	}
	gp, err := buildGamePlan(row)
	if err != nil {
		return err
	}
	gp.CampaignID = refs.CampaignID
	gp.MediaSubtypeID = refs.MediaSubtypeID
	gp.PMTypeID = refs.PMTypeID
	gp.CountryID = c.countryID
	if refs.CountryID != "" {
		gp.CountryID = refs.CountryID
	}
	gp.FinancialCycleID = c.cycleID

	existing, err := c.store.FindGamePlan(ctx, gp.Key())
	switch {
	case errors.Is(err, refstore.ErrNotFound):
		if _, err := c.store.CreateGamePlan(ctx, gp); err != nil {
			return fmt.Errorf("create game plan: %w", err)
		}
	case err != nil:
		return fmt.Errorf("find game plan: %w", err)
	default:
		existing.PMTypeID = gp.PMTypeID
		existing.TotalBudget = gp.TotalBudget
		existing.Q1Budget, existing.Q2Budget, existing.Q3Budget, existing.Q4Budget = gp.Q1Budget, gp.Q2Budget, gp.Q3Budget, gp.Q4Budget
		existing.TRPs = gp.TRPs
		existing.Reach1Plus = gp.Reach1Plus
		existing.TargetReach = gp.TargetReach
		existing.CurrentReach = gp.CurrentReach
		if err := c.store.UpdateGamePlan(ctx, existing); err != nil {
			return fmt.Errorf("update game plan %s: %w", existing.ID, err)
		}
	}
	c.written++
	return nil
}

// buildGamePlan parses the dates, budgets and metrics of a row. A blank
// total budget is derived from the quarters.
func buildGamePlan(row domain.Record) (*domain.GamePlan, error) {
	start, ok := validation.NormalizeDate(row[validation.ColStartDate])
	if !ok {
		return nil, invalid("invalid Start Date %q", value(row, validation.ColStartDate))
	}
	end, ok := validation.NormalizeDate(row[validation.ColEndDate])
	if !ok {
		return nil, invalid("invalid End Date %q", value(row, validation.ColEndDate))
	}
	gp := &domain.GamePlan{StartDate: start, EndDate: end}

	quarters := []*float64{&gp.Q1Budget, &gp.Q2Budget, &gp.Q3Budget, &gp.Q4Budget}
	for i, col := range []string{validation.ColQ1Budget, validation.ColQ2Budget, validation.ColQ3Budget, validation.ColQ4Budget} {
		v, err := optionalNumber(row, col)
		if err != nil {
			return nil, err
		}
		if v != nil {
			*quarters[i] = *v
		}
	}

	total, err := optionalNumber(row, validation.ColTotalBudget)
	if err != nil {
		return nil, err
	}
	if total != nil {
		gp.TotalBudget = *total
	} else {
		sum := decimal.Zero
		for _, q := range quarters {
			sum = sum.Add(decimal.NewFromFloat(*q))
		}
		gp.TotalBudget = sum.Round(2).InexactFloat64()
	}

	if gp.TRPs, err = optionalNumber(row, validation.ColTRPs); err != nil {
		return nil, err
	}
	for col, dst := range map[string]**float64{
		validation.ColReach1Plus:   &gp.Reach1Plus,
		validation.ColTargetReach:  &gp.TargetReach,
		validation.ColCurrentReach: &gp.CurrentReach,
	} {
		raw := value(row, col)
		if raw == "" {
			continue
		}
		f, ok := validation.ParsePercentage(raw, false)
		if !ok {
			return nil, invalid("invalid %s %q", col, raw)
		}
		*dst = &f
	}
	return gp, nil
}

func optionalNumber(row domain.Record, column string) (*float64, error) {
	raw := value(row, column)
	if raw == "" {
		return nil, nil
	}
	f, ok := validation.ParseNumber(raw)
	if !ok {
		return nil, invalid("invalid %s %q", column, raw)
	}
	return &f, nil
}

type sufficiencyCommitter struct {
	store     refstore.SufficiencyStore
	fields    map[string]string // header -> field id
	countryID string
	cycleID   string
	written   int
}

func (c *sufficiencyCommitter) counts(r *domain.ImportResults) { r.SufficiencyCount = c.written }

func (c *sufficiencyCommitter) commit(ctx context.Context, row domain.Record, refs Refs) error {
	if refs.CampaignID == "" {
		return fmt.Errorf("%w: campaign %q", ErrUnresolved, value(row, validation.ColCampaign))
	}
	s := &domain.Sufficiency{
		CampaignID:       refs.CampaignID,
		CountryID:        c.countryID,
		CategoryID:       refs.CategoryID,
		RangeID:          refs.RangeID,
		FinancialCycleID: c.cycleID,
		Fields:           make(map[string]string),
	}
	if refs.CountryID != "" {
		s.CountryID = refs.CountryID
	}
	for header, id := range c.fields {
		if v := value(row, header); v != "" {
			s.Fields[id] = v
		}
	}

	existing, err := c.store.FindSufficiency(ctx, s.CampaignID, s.CountryID, s.FinancialCycleID)
	switch {
	case errors.Is(err, refstore.ErrNotFound):
		if _, err := c.store.CreateSufficiency(ctx, s); err != nil {
			return fmt.Errorf("create sufficiency: %w", err)
		}
	case err != nil:
		return fmt.Errorf("find sufficiency: %w", err)
	default:
		existing.CategoryID = s.CategoryID
		existing.RangeID = s.RangeID
		existing.Fields = s.Fields
		if err := c.store.UpdateSufficiency(ctx, existing); err != nil {
			return fmt.Errorf("update sufficiency %s: %w", existing.ID, err)
		}
	}
	c.written++
	return nil
}
