package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/refstore"
)

func (s *Store) ListGamePlanMedia(ctx context.Context, countryID, cycleID string, limit int) ([]domain.GamePlanMedia, error) {
	var out []domain.GamePlanMedia
	err := s.list(ctx, `
		SELECT c.name, mt.name
		FROM game_plans gp
		JOIN campaigns c       ON c.id = gp.campaign_id
		JOIN media_subtypes ms ON ms.id = gp.media_subtype_id
		JOIN media_types mt    ON mt.id = ms.media_type_id
		WHERE gp.country_id = $1 AND gp.financial_cycle_id = $2
		LIMIT $3
	`, func(rows *sql.Rows) error {
		var m domain.GamePlanMedia
		if err := rows.Scan(&m.CampaignName, &m.MediaTypeName); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	}, countryID, cycleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list game plan media: %w", err)
	}
	return out, nil
}

// FindGamePlan matches the natural key exactly. Dates are normalized
// YYYY-MM-DD strings.
func (s *Store) FindGamePlan(ctx context.Context, key domain.GamePlanKey) (*domain.GamePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gp := &domain.GamePlan{}
	var pmType sql.NullString
	var trps, reach1, target, current sql.NullFloat64
	err := s.q.QueryRowContext(ctx, `
		SELECT id, campaign_id, media_subtype_id, country_id, financial_cycle_id, pm_type_id,
		       to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'),
		       total_budget, q1_budget, q2_budget, q3_budget, q4_budget,
		       trps, reach_1_plus, target_reach, current_reach, created_at, updated_at
		FROM game_plans
		WHERE campaign_id = $1 AND media_subtype_id = $2 AND start_date = $3::date AND end_date = $4::date
	`, key.CampaignID, key.MediaSubtypeID, key.StartDate, key.EndDate).Scan(
		&gp.ID, &gp.CampaignID, &gp.MediaSubtypeID, &gp.CountryID, &gp.FinancialCycleID, &pmType,
		&gp.StartDate, &gp.EndDate,
		&gp.TotalBudget, &gp.Q1Budget, &gp.Q2Budget, &gp.Q3Budget, &gp.Q4Budget,
		&trps, &reach1, &target, &current, &gp.CreatedAt, &gp.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, refstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find game plan: %w", err)
	}
	gp.PMTypeID = pmType.String
	gp.TRPs = floatPtr(trps)
	gp.Reach1Plus = floatPtr(reach1)
	gp.TargetReach = floatPtr(target)
	gp.CurrentReach = floatPtr(current)
	return gp, nil
}

func (s *Store) CreateGamePlan(ctx context.Context, gp *domain.GamePlan) (string, error) {
	id := uuid.NewString()
	err := s.exec(ctx, `
		INSERT INTO game_plans (
			id, campaign_id, media_subtype_id, country_id, financial_cycle_id, pm_type_id,
			start_date, end_date, total_budget, q1_budget, q2_budget, q3_budget, q4_budget,
			trps, reach_1_plus, target_reach, current_reach
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7::date, $8::date, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, id, gp.CampaignID, gp.MediaSubtypeID, gp.CountryID, gp.FinancialCycleID, gp.PMTypeID,
		gp.StartDate, gp.EndDate, gp.TotalBudget, gp.Q1Budget, gp.Q2Budget, gp.Q3Budget, gp.Q4Budget,
		nullFloat(gp.TRPs), nullFloat(gp.Reach1Plus), nullFloat(gp.TargetReach), nullFloat(gp.CurrentReach))
	if err != nil {
		return "", fmt.Errorf("create game plan: %w", err)
	}
	return id, nil
}

// UpdateGamePlan rewrites the mutable fields. The natural key never changes.
func (s *Store) UpdateGamePlan(ctx context.Context, gp *domain.GamePlan) error {
	err := s.exec(ctx, `
		UPDATE game_plans SET
			pm_type_id = NULLIF($2, '')::uuid,
			total_budget = $3, q1_budget = $4, q2_budget = $5, q3_budget = $6, q4_budget = $7,
			trps = $8, reach_1_plus = $9, target_reach = $10, current_reach = $11,
			updated_at = NOW()
		WHERE id = $1
	`, gp.ID, gp.PMTypeID, gp.TotalBudget, gp.Q1Budget, gp.Q2Budget, gp.Q3Budget, gp.Q4Budget,
		nullFloat(gp.TRPs), nullFloat(gp.Reach1Plus), nullFloat(gp.TargetReach), nullFloat(gp.CurrentReach))
	if err != nil {
		return fmt.Errorf("update game plan: %w", err)
	}
	return nil
}

func (s *Store) FindSufficiency(ctx context.Context, campaignID, countryID, cycleID string) (*domain.Sufficiency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &domain.Sufficiency{}
	var fields []byte
	err := s.q.QueryRowContext(ctx, `
		SELECT id, campaign_id, country_id, COALESCE(category_id::text, ''), COALESCE(range_id::text, ''),
		       financial_cycle_id, fields, created_at, updated_at
		FROM sufficiency_records
		WHERE campaign_id = $1 AND country_id = $2 AND financial_cycle_id = $3
	`, campaignID, countryID, cycleID).Scan(
		&rec.ID, &rec.CampaignID, &rec.CountryID, &rec.CategoryID, &rec.RangeID,
		&rec.FinancialCycleID, &fields, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, refstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find sufficiency: %w", err)
	}
	if err := json.Unmarshal(fields, &rec.Fields); err != nil {
		return nil, fmt.Errorf("decode sufficiency fields: %w", err)
	}
	return rec, nil
}

func (s *Store) CreateSufficiency(ctx context.Context, rec *domain.Sufficiency) (string, error) {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return "", fmt.Errorf("encode sufficiency fields: %w", err)
	}
	id := uuid.NewString()
	err = s.exec(ctx, `
		INSERT INTO sufficiency_records (id, campaign_id, country_id, category_id, range_id, financial_cycle_id, fields)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, NULLIF($5, '')::uuid, $6, $7)
	`, id, rec.CampaignID, rec.CountryID, rec.CategoryID, rec.RangeID, rec.FinancialCycleID, fields)
	if err != nil {
		return "", fmt.Errorf("create sufficiency: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateSufficiency(ctx context.Context, rec *domain.Sufficiency) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encode sufficiency fields: %w", err)
	}
	err = s.exec(ctx, `
		UPDATE sufficiency_records SET
			category_id = NULLIF($2, '')::uuid, range_id = NULLIF($3, '')::uuid, fields = $4, updated_at = NOW()
		WHERE id = $1
	`, rec.ID, rec.CategoryID, rec.RangeID, fields)
	if err != nil {
		return fmt.Errorf("update sufficiency: %w", err)
	}
	return nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
