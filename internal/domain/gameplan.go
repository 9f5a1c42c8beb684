package domain

import "time"

// GamePlan is a committed media line item for a campaign in a country and
// financial cycle. Its natural key is (CampaignID, MediaSubtypeID, StartDate,
// EndDate), with dates stored as normalized YYYY-MM-DD strings.
type GamePlan struct {
	ID               string   `json:"id" db:"id"`
	CampaignID       string   `json:"campaign_id" db:"campaign_id"`
	MediaSubtypeID   string   `json:"media_subtype_id" db:"media_subtype_id"`
	CountryID        string   `json:"country_id" db:"country_id"`
	FinancialCycleID string   `json:"financial_cycle_id" db:"financial_cycle_id"`
	PMTypeID         string   `json:"pm_type_id,omitempty" db:"pm_type_id"`
	StartDate        string   `json:"start_date" db:"start_date"`
	EndDate          string   `json:"end_date" db:"end_date"`
	TotalBudget      float64  `json:"total_budget" db:"total_budget"`
	Q1Budget         float64  `json:"q1_budget" db:"q1_budget"`
	Q2Budget         float64  `json:"q2_budget" db:"q2_budget"`
	Q3Budget         float64  `json:"q3_budget" db:"q3_budget"`
	Q4Budget         float64  `json:"q4_budget" db:"q4_budget"`
	TRPs             *float64 `json:"trps,omitempty" db:"trps"`
	Reach1Plus       *float64 `json:"reach_1_plus,omitempty" db:"reach_1_plus"`
	TargetReach      *float64 `json:"target_reach,omitempty" db:"target_reach"`
	CurrentReach     *float64 `json:"current_reach,omitempty" db:"current_reach"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GamePlanKey is the natural key used for deduplication.
type GamePlanKey struct {
	CampaignID     string
	MediaSubtypeID string
	StartDate      string
	EndDate        string
}

// Key returns the natural key of the game plan.
func (g *GamePlan) Key() GamePlanKey {
	return GamePlanKey{
		CampaignID:     g.CampaignID,
		MediaSubtypeID: g.MediaSubtypeID,
		StartDate:      g.StartDate,
		EndDate:        g.EndDate,
	}
}

// GamePlanMedia is the projection used by cross-reference validation:
// which media type a campaign's game plan uses.
type GamePlanMedia struct {
	CampaignName  string `json:"campaign_name" db:"campaign_name"`
	MediaTypeName string `json:"media_type_name" db:"media_type_name"`
}

// Sufficiency is a committed reach sufficiency record. Its natural key is
// (CampaignID, CountryID, FinancialCycleID). Fields holds the TV and Digital
// targeting and performance values keyed by internal field identifier.
type Sufficiency struct {
	ID               string            `json:"id" db:"id"`
	CampaignID       string            `json:"campaign_id" db:"campaign_id"`
	CountryID        string            `json:"country_id" db:"country_id"`
	CategoryID       string            `json:"category_id" db:"category_id"`
	RangeID          string            `json:"range_id" db:"range_id"`
	FinancialCycleID string            `json:"financial_cycle_id" db:"financial_cycle_id"`
	Fields           map[string]string `json:"fields" db:"fields"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
