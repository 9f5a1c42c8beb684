package domain

// Reference entity kinds, used in logs, metrics and memo keys.
const (
	KindCountry        = "country"
	KindSubRegion      = "sub_region"
	KindBusinessUnit   = "business_unit"
	KindCategory       = "category"
	KindRange          = "range"
	KindCampaign       = "campaign"
	KindMediaType      = "media_type"
	KindMediaSubtype   = "media_subtype"
	KindPMType         = "pm_type"
	KindFinancialCycle = "financial_cycle"
)

// Country is a market, optionally grouped under a sub-region.
type Country struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	SubRegionID string `json:"sub_region_id" db:"sub_region_id"`
}

// SubRegion groups countries.
type SubRegion struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// BusinessUnit owns categories.
type BusinessUnit struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Category is a product category, optionally scoped by business unit.
type Category struct {
	ID             string `json:"id" db:"id"`
	Name           string `json:"name" db:"name"`
	BusinessUnitID string `json:"business_unit_id" db:"business_unit_id"`
}

// Range is a global product range. CategoryIDs lists the categories it is
// linked to.
type Range struct {
	ID          string   `json:"id" db:"id"`
	Name        string   `json:"name" db:"name"`
	CategoryIDs []string `json:"category_ids"`
}

// Campaign belongs to exactly one range.
type Campaign struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	RangeID string `json:"range_id" db:"range_id"`
}

// MediaType is a top-level media channel such as TV or Digital.
type MediaType struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// MediaSubtype belongs to a media type.
type MediaSubtype struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	MediaTypeID string `json:"media_type_id" db:"media_type_id"`
}

// PMType is a performance marketing type attached to game plans.
type PMType struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// FinancialCycle is a named planning period such as "FC05 2025".
type FinancialCycle struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
