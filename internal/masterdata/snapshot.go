package masterdata

import (
	"context"
	"fmt"
	"sort"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/refstore"
	"golang.org/x/sync/errgroup"
)

type entry struct {
	id     string
	name   string
	parent string
}

// Snapshot is the immutable view of master data for one validation or
// import run. It is rebuilt by Load on the next run.
type Snapshot struct {
	entries map[string]map[string][]entry // kind -> key -> entries

	countryToSubRegion  map[string]string          // country key -> sub-region name
	categoryToRanges    map[string]map[string]bool // category key -> range keys
	campaignToRange     map[string]string          // campaign key -> range name
	mediaTypeToSubtypes map[string]map[string]bool // media type key -> subtype keys
}

// Load reads every reference collection from repo and builds a Snapshot.
// The reads are issued together as one batch.
func Load(ctx context.Context, repo refstore.ReferenceReader) (*Snapshot, error) {
	var (
		countries     []domain.Country
		subRegions    []domain.SubRegion
		businessUnits []domain.BusinessUnit
		categories    []domain.Category
		ranges        []domain.Range
		campaigns     []domain.Campaign
		mediaTypes    []domain.MediaType
		mediaSubtypes []domain.MediaSubtype
	)

	g, gctx := errgroup.WithContext(ctx)
	load := func(kind string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				return fmt.Errorf("load %s: %w", kind, err)
			}
			return nil
		})
	}
	load(domain.KindCountry, func(c context.Context) (err error) { countries, err = repo.ListCountries(c); return })
	load(domain.KindSubRegion, func(c context.Context) (err error) { subRegions, err = repo.ListSubRegions(c); return })
	load(domain.KindBusinessUnit, func(c context.Context) (err error) { businessUnits, err = repo.ListBusinessUnits(c); return })
	load(domain.KindCategory, func(c context.Context) (err error) { categories, err = repo.ListCategories(c); return })
	load(domain.KindRange, func(c context.Context) (err error) { ranges, err = repo.ListRanges(c); return })
	load(domain.KindCampaign, func(c context.Context) (err error) { campaigns, err = repo.ListCampaigns(c); return })
	load(domain.KindMediaType, func(c context.Context) (err error) { mediaTypes, err = repo.ListMediaTypes(c); return })
	load(domain.KindMediaSubtype, func(c context.Context) (err error) { mediaSubtypes, err = repo.ListMediaSubtypes(c); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := newBuilder()
	for _, sr := range subRegions {
		b.add(domain.KindSubRegion, sr.ID, sr.Name, "")
	}
	for _, bu := range businessUnits {
		b.add(domain.KindBusinessUnit, bu.ID, bu.Name, "")
	}
	for _, c := range countries {
		b.add(domain.KindCountry, c.ID, c.Name, c.SubRegionID)
	}
	for _, c := range categories {
		b.add(domain.KindCategory, c.ID, c.Name, c.BusinessUnitID)
	}
	for _, r := range ranges {
		b.add(domain.KindRange, r.ID, r.Name, "")
	}
	for _, c := range campaigns {
		b.add(domain.KindCampaign, c.ID, c.Name, c.RangeID)
	}
	for _, mt := range mediaTypes {
		b.add(domain.KindMediaType, mt.ID, mt.Name, "")
	}
	for _, st := range mediaSubtypes {
		b.add(domain.KindMediaSubtype, st.ID, st.Name, st.MediaTypeID)
	}

	s := b.snap
	subRegionName := b.namesByID(domain.KindSubRegion)
	for _, c := range countries {
		if name, ok := subRegionName[c.SubRegionID]; ok {
			s.countryToSubRegion[Key(c.Name)] = name
		}
	}

	categoryKey := b.keysByID(domain.KindCategory)
	for _, r := range ranges {
		for _, cid := range r.CategoryIDs {
			ck, ok := categoryKey[cid]
			if !ok {
				continue
			}
			if s.categoryToRanges[ck] == nil {
				s.categoryToRanges[ck] = make(map[string]bool)
			}
			s.categoryToRanges[ck][Key(r.Name)] = true
		}
	}

	rangeName := b.namesByID(domain.KindRange)
	for _, c := range campaigns {
		k := Key(c.Name)
		if _, seen := s.campaignToRange[k]; seen {
			continue
		}
		if name, ok := rangeName[c.RangeID]; ok {
			s.campaignToRange[k] = name
		}
	}

	typeKey := b.keysByID(domain.KindMediaType)
	for _, st := range mediaSubtypes {
		tk, ok := typeKey[st.MediaTypeID]
		if !ok {
			continue
		}
		if s.mediaTypeToSubtypes[tk] == nil {
			s.mediaTypeToSubtypes[tk] = make(map[string]bool)
		}
		s.mediaTypeToSubtypes[tk][Key(st.Name)] = true
	}

	return s, nil
}

type builder struct {
	snap *Snapshot
	byID map[string]map[string]entry // kind -> id -> entry
}

func newBuilder() *builder {
	return &builder{
		snap: &Snapshot{
			entries:             make(map[string]map[string][]entry),
			countryToSubRegion:  make(map[string]string),
			categoryToRanges:    make(map[string]map[string]bool),
			campaignToRange:     make(map[string]string),
			mediaTypeToSubtypes: make(map[string]map[string]bool),
		},
		byID: make(map[string]map[string]entry),
	}
}

func (b *builder) add(kind, id, name, parent string) {
	k := Key(name)
	if k == "" {
		return
	}
	if b.snap.entries[kind] == nil {
		b.snap.entries[kind] = make(map[string][]entry)
		b.byID[kind] = make(map[string]entry)
	}
	e := entry{id: id, name: name, parent: parent}
	b.snap.entries[kind][k] = append(b.snap.entries[kind][k], e)
	b.byID[kind][id] = e
}

func (b *builder) namesByID(kind string) map[string]string {
	out := make(map[string]string, len(b.byID[kind]))
	for id, e := range b.byID[kind] {
		out[id] = e.name
	}
	return out
}

func (b *builder) keysByID(kind string) map[string]string {
	out := make(map[string]string, len(b.byID[kind]))
	for id, e := range b.byID[kind] {
		out[id] = Key(e.name)
	}
	return out
}

// Has reports whether an entity of kind with the given name exists.
func (s *Snapshot) Has(kind, name string) bool {
	return len(s.entries[kind][Key(name)]) > 0
}

// ID returns the id of the entity of kind named name. When parentID is set
// only an entity under that parent matches.
func (s *Snapshot) ID(kind, name, parentID string) (string, bool) {
	for _, e := range s.entries[kind][Key(name)] {
		if parentID == "" || e.parent == parentID {
			return e.id, true
		}
	}
	return "", false
}

// Names returns the display names of every entity of kind, sorted.
func (s *Snapshot) Names(kind string) []string {
	out := make([]string, 0, len(s.entries[kind]))
	for _, es := range s.entries[kind] {
		out = append(out, es[0].name)
	}
	sort.Strings(out)
	return out
}

// CountrySubRegion returns the sub-region a country belongs to.
func (s *Snapshot) CountrySubRegion(country string) (string, bool) {
	name, ok := s.countryToSubRegion[Key(country)]
	return name, ok
}

// RangeInCategory reports whether rangeName is linked to category.
func (s *Snapshot) RangeInCategory(category, rangeName string) bool {
	return s.categoryToRanges[Key(category)][Key(rangeName)]
}

// CampaignRange returns the range a campaign belongs to.
func (s *Snapshot) CampaignRange(campaign string) (string, bool) {
	name, ok := s.campaignToRange[Key(campaign)]
	return name, ok
}

// SubtypeInType reports whether subtype belongs to mediaType.
func (s *Snapshot) SubtypeInType(mediaType, subtype string) bool {
	return s.mediaTypeToSubtypes[Key(mediaType)][Key(subtype)]
}
