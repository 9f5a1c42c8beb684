// Package refstore defines the Reference Store contract: reads and writes of
// master-data entities and of the dependent Game Plan and Sufficiency records.
//
// Implementations live in repository/postgres and in this package (Memory).
// A Store is obtained per unit of work from an Opener and must be released
// by calling the returned release func on every exit path.
package refstore

import (
	"context"
	"errors"

	"github.com/ignite/gameplan-importer/internal/domain"
)

// ErrNotFound is returned by Find* methods when no row matches.
var ErrNotFound = errors.New("reference entity not found")

// ReferenceReader loads master-data collections and performs name lookups.
// Name comparison is trim + case-insensitive; callers pass names through
// masterdata.Key first.
type ReferenceReader interface {
	ListCountries(ctx context.Context) ([]domain.Country, error)
	ListSubRegions(ctx context.Context) ([]domain.SubRegion, error)
	ListBusinessUnits(ctx context.Context) ([]domain.BusinessUnit, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListRanges(ctx context.Context) ([]domain.Range, error)
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
	ListMediaTypes(ctx context.Context) ([]domain.MediaType, error)
	ListMediaSubtypes(ctx context.Context) ([]domain.MediaSubtype, error)

	// FindID returns the id of the entity of the given kind whose name
	// matches. parentID scopes the search when non-empty: business unit for
	// categories, media type for subtypes, range for campaigns.
	FindID(ctx context.Context, kind, name, parentID string) (string, error)
}

// ReferenceWriter creates reference entities. Entities are never deleted.
type ReferenceWriter interface {
	CreateRange(ctx context.Context, name, categoryID string) (string, error)
	LinkRangeCategory(ctx context.Context, rangeID, categoryID string) error
	CreateMediaType(ctx context.Context, name string) (string, error)
	CreateMediaSubtype(ctx context.Context, name, mediaTypeID string) (string, error)
	CreatePMType(ctx context.Context, name string) (string, error)
	CreateCampaign(ctx context.Context, name, rangeID string) (string, error)
}

// GamePlanStore reads and writes Game Plans.
type GamePlanStore interface {
	// ListGamePlanMedia returns (campaign name, media type name) pairs for
	// the game plans of a country and financial cycle, at most limit rows.
	ListGamePlanMedia(ctx context.Context, countryID, cycleID string, limit int) ([]domain.GamePlanMedia, error)
	FindGamePlan(ctx context.Context, key domain.GamePlanKey) (*domain.GamePlan, error)
	CreateGamePlan(ctx context.Context, gp *domain.GamePlan) (string, error)
	UpdateGamePlan(ctx context.Context, gp *domain.GamePlan) error
}

// SufficiencyStore reads and writes Sufficiency records.
type SufficiencyStore interface {
	FindSufficiency(ctx context.Context, campaignID, countryID, cycleID string) (*domain.Sufficiency, error)
	CreateSufficiency(ctx context.Context, s *domain.Sufficiency) (string, error)
	UpdateSufficiency(ctx context.Context, s *domain.Sufficiency) error
}

// Store is the full Reference Store used by one validation or import run.
type Store interface {
	ReferenceReader
	ReferenceWriter
	GamePlanStore
	SufficiencyStore
}

// Opener hands out a Store bound to one unit of work. The release func
// returns any held connection and must always be called.
type Opener interface {
	Open(ctx context.Context) (Store, func(), error)
}
