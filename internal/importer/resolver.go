package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/masterdata"
	"github.com/ignite/gameplan-importer/internal/metrics"
	"github.com/ignite/gameplan-importer/internal/refstore"
	"github.com/ignite/gameplan-importer/internal/validation"
)

// FallbackMediaType is used for media subtypes uploaded without a media type.
const FallbackMediaType = "Other"

// ErrUnresolved marks a row whose references could not be mapped to ids.
var ErrUnresolved = errors.New("unresolved reference")

// Refs holds the ids resolved for one row in phase 1. Empty ids were not
// present in the row.
type Refs struct {
	CountryID      string
	CategoryID     string
	RangeID        string
	CampaignID     string
	MediaSubtypeID string
	PMTypeID       string
}

type link struct{ rangeID, categoryID string }

// Resolver maps the entity names of uploaded rows to ids, creating the
// kinds the template allows. All memoization lives on the Resolver, so each
// run gets its own and concurrent runs never share state.
type Resolver struct {
	store  refstore.Store
	cache  *masterdata.Cache
	create map[string]bool
	linked map[link]bool
	counts domain.ImportResults
}

// NewResolver returns a Resolver backed by a fresh lookup cache over snap.
func NewResolver(store refstore.Store, snap *masterdata.Snapshot, tmpl *validation.Template) *Resolver {
	return &Resolver{
		store:  store,
		cache:  masterdata.NewCache(snap, store),
		create: tmpl.Creatable,
		linked: make(map[link]bool),
	}
}

// Counts returns how many entities of each kind this resolver created.
func (r *Resolver) Counts() domain.ImportResults { return r.counts }

// Resolve finds or creates the entities referenced by row.
func (r *Resolver) Resolve(ctx context.Context, row domain.Record) (Refs, error) {
	var refs Refs
	var err error

	if name := value(row, validation.ColCountry); name != "" {
		if refs.CountryID, err = r.find(ctx, domain.KindCountry, name, ""); err != nil {
			return refs, err
		}
	}

	if name := value(row, validation.ColCategory); name != "" {
		buID := ""
		if bu := value(row, validation.ColBusinessUnit); bu != "" {
			buID, _ = r.cache.Lookup(ctx, domain.KindBusinessUnit, bu, "")
		}
		refs.CategoryID, err = r.cache.Lookup(ctx, domain.KindCategory, name, buID)
		if err != nil && !errors.Is(err, refstore.ErrNotFound) {
			return refs, fmt.Errorf("category %q: %w", name, err)
		}
	}

	if refs.RangeID, err = r.resolveRange(ctx, row, refs.CategoryID); err != nil {
		return refs, err
	}
	if refs.CampaignID, err = r.resolveCampaign(ctx, row, refs.RangeID); err != nil {
		return refs, err
	}
	if refs.MediaSubtypeID, err = r.resolveSubtype(ctx, row); err != nil {
		return refs, err
	}
	if name := value(row, validation.ColPMType); name != "" {
		refs.PMTypeID, err = r.resolveOrCreate(ctx, domain.KindPMType, name, "", func() (string, error) {
			return r.store.CreatePMType(ctx, name)
		})
		if err != nil {
			return refs, err
		}
	}
	return refs, nil
}

func (r *Resolver) resolveRange(ctx context.Context, row domain.Record, categoryID string) (string, error) {
	name := value(row, validation.ColRange)
	if name == "" {
		return "", nil
	}
	created := false
	id, err := r.resolveOrCreate(ctx, domain.KindRange, name, "", func() (string, error) {
		created = true
		return r.store.CreateRange(ctx, name, categoryID)
	})
	if err != nil || categoryID == "" {
		return id, err
	}

	l := link{rangeID: id, categoryID: categoryID}
	if created || r.linked[l] || r.cache.Snapshot().RangeInCategory(value(row, validation.ColCategory), name) {
		r.linked[l] = true
		return id, nil
	}
	if r.create[domain.KindRange] {
		if err := r.store.LinkRangeCategory(ctx, id, categoryID); err != nil {
			return "", fmt.Errorf("link range %q to category: %w", name, err)
		}
	}
	r.linked[l] = true
	return id, nil
}

func (r *Resolver) resolveCampaign(ctx context.Context, row domain.Record, rangeID string) (string, error) {
	name := value(row, validation.ColCampaign)
	if name == "" {
		return "", fmt.Errorf("%w: campaign is blank", ErrUnresolved)
	}
	if !r.create[domain.KindCampaign] && rangeID != "" {
		// Campaigns are keyed by name and range, but a template that cannot
		// create them accepts the campaign under whichever range holds it.
		if id, err := r.cache.Lookup(ctx, domain.KindCampaign, name, rangeID); err == nil {
			return id, nil
		}
		rangeID = ""
	}
	return r.resolveOrCreate(ctx, domain.KindCampaign, name, rangeID, func() (string, error) {
		if rangeID == "" {
			return "", fmt.Errorf("%w: campaign %q has no range", ErrUnresolved, name)
		}
		return r.store.CreateCampaign(ctx, name, rangeID)
	})
}

func (r *Resolver) resolveSubtype(ctx context.Context, row domain.Record) (string, error) {
	name := value(row, validation.ColMediaSubtype)
	if name == "" {
		return "", nil
	}
	typeName := value(row, validation.ColMedia)
	if typeName == "" {
		if id, err := r.cache.Lookup(ctx, domain.KindMediaSubtype, name, ""); err == nil {
			return id, nil
		}
		typeName = FallbackMediaType
	}
	typeID, err := r.resolveOrCreate(ctx, domain.KindMediaType, typeName, "", func() (string, error) {
		return r.store.CreateMediaType(ctx, typeName)
	})
	if err != nil {
		return "", err
	}
	return r.resolveOrCreate(ctx, domain.KindMediaSubtype, name, typeID, func() (string, error) {
		return r.store.CreateMediaSubtype(ctx, name, typeID)
	})
}

// find resolves an entity the engine never creates.
func (r *Resolver) find(ctx context.Context, kind, name, parentID string) (string, error) {
	id, err := r.cache.Lookup(ctx, kind, name, parentID)
	if errors.Is(err, refstore.ErrNotFound) {
		return "", fmt.Errorf("%w: %s %q", ErrUnresolved, kind, name)
	}
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", kind, name, err)
	}
	return id, nil
}

func (r *Resolver) resolveOrCreate(ctx context.Context, kind, name, parentID string, create func() (string, error)) (string, error) {
	id, err := r.cache.Lookup(ctx, kind, name, parentID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, refstore.ErrNotFound) {
		return "", fmt.Errorf("%s %q: %w", kind, name, err)
	}
	if !r.create[kind] {
		return "", fmt.Errorf("%w: %s %q", ErrUnresolved, kind, name)
	}

	id, err = create()
	if err != nil {
		if errors.Is(err, ErrUnresolved) {
			return "", err
		}
		return "", fmt.Errorf("create %s %q: %w", kind, name, err)
	}
	r.cache.Remember(kind, name, parentID, id)
	metrics.RecordEntityCreated(kind)
	switch kind {
	case domain.KindRange:
		r.counts.RangesCount++
	case domain.KindCampaign:
		r.counts.CampaignsCount++
	case domain.KindMediaSubtype:
		r.counts.MediaSubtypesCount++
	case domain.KindPMType:
		r.counts.PMTypesCount++
	}
	return id, nil
}
