package refstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/pkg/namekey"
)

// Memory is an in-memory Store. It backs dry runs of the CLI and tests.
// Safe for concurrent use.
type Memory struct {
	mu sync.Mutex

	Countries     []domain.Country
	SubRegions    []domain.SubRegion
	BusinessUnits []domain.BusinessUnit
	Categories    []domain.Category
	Ranges        []domain.Range
	Campaigns     []domain.Campaign
	MediaTypes    []domain.MediaType
	MediaSubtypes []domain.MediaSubtype
	PMTypes       []domain.PMType
	GamePlans     []domain.GamePlan
	Sufficiencies []domain.Sufficiency

	// Creates counts entity creations by kind.
	Creates map[string]int
	// FailGamePlanWrites makes game plan writes for these campaign ids fail.
	FailGamePlanWrites map[string]error
	// Delay is applied to ListGamePlanMedia, honoring ctx.
	Delay time.Duration
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{Creates: make(map[string]int)}
}

// Open implements Opener. The release func is a no-op.
func (m *Memory) Open(context.Context) (Store, func(), error) {
	return m, func() {}, nil
}

func (m *Memory) ListCountries(context.Context) ([]domain.Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Country(nil), m.Countries...), nil
}

func (m *Memory) ListSubRegions(context.Context) ([]domain.SubRegion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SubRegion(nil), m.SubRegions...), nil
}

func (m *Memory) ListBusinessUnits(context.Context) ([]domain.BusinessUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.BusinessUnit(nil), m.BusinessUnits...), nil
}

func (m *Memory) ListCategories(context.Context) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Category(nil), m.Categories...), nil
}

func (m *Memory) ListRanges(context.Context) ([]domain.Range, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Range, len(m.Ranges))
	for i, r := range m.Ranges {
		r.CategoryIDs = append([]string(nil), r.CategoryIDs...)
		out[i] = r
	}
	return out, nil
}

func (m *Memory) ListCampaigns(context.Context) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Campaign(nil), m.Campaigns...), nil
}

func (m *Memory) ListMediaTypes(context.Context) ([]domain.MediaType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MediaType(nil), m.MediaTypes...), nil
}

func (m *Memory) ListMediaSubtypes(context.Context) ([]domain.MediaSubtype, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MediaSubtype(nil), m.MediaSubtypes...), nil
}

func (m *Memory) FindID(_ context.Context, kind, name, parentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match := func(n, parent string) bool {
		return namekey.Same(n, name) && (parentID == "" || parent == parentID)
	}
	switch kind {
	case domain.KindCountry:
		for _, e := range m.Countries {
			if match(e.Name, "") {
				return e.ID, nil
			}
		}
	case domain.KindSubRegion:
		for _, e := range m.SubRegions {
			if match(e.Name, "") {
				return e.ID, nil
			}
		}
	case domain.KindBusinessUnit:
		for _, e := range m.BusinessUnits {
			if match(e.Name, "") {
				return e.ID, nil
			}
		}
	case domain.KindCategory:
		for _, e := range m.Categories {
			if match(e.Name, e.BusinessUnitID) {
				return e.ID, nil
			}
		}
	case domain.KindRange:
		for _, e := range m.Ranges {
			if match(e.Name, "") {
				return e.ID, nil
			}
		}
	case domain.KindCampaign:
		for _, e := range m.Campaigns {
			if match(e.Name, e.RangeID) {
				return e.ID, nil
			}
		}
	case domain.KindMediaType:
		for _, e := range m.MediaTypes {
			if match(e.Name, "") {
				return e.ID, nil
			}
		}
	case domain.KindMediaSubtype:
		for _, e := range m.MediaSubtypes {
			if match(e.Name, e.MediaTypeID) {
				return e.ID, nil
			}
		}
	case domain.KindPMType:
		for _, e := range m.PMTypes {
			if match(e.Name, "") {
				return e.ID, nil
			}
		}
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
	return "", ErrNotFound
}

func (m *Memory) created(kind string) string {
	if m.Creates == nil {
		m.Creates = make(map[string]int)
	}
	m.Creates[kind]++
	return uuid.NewString()
}

func (m *Memory) CreateRange(_ context.Context, name, categoryID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := domain.Range{ID: m.created(domain.KindRange), Name: name}
	if categoryID != "" {
		r.CategoryIDs = []string{categoryID}
	}
	m.Ranges = append(m.Ranges, r)
	return r.ID, nil
}

func (m *Memory) LinkRangeCategory(_ context.Context, rangeID, categoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Ranges {
		if m.Ranges[i].ID != rangeID {
			continue
		}
		for _, c := range m.Ranges[i].CategoryIDs {
			if c == categoryID {
				return nil
			}
		}
		m.Ranges[i].CategoryIDs = append(m.Ranges[i].CategoryIDs, categoryID)
		return nil
	}
	return ErrNotFound
}

func (m *Memory) CreateMediaType(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt := domain.MediaType{ID: m.created(domain.KindMediaType), Name: name}
	m.MediaTypes = append(m.MediaTypes, mt)
	return mt.ID, nil
}

func (m *Memory) CreateMediaSubtype(_ context.Context, name, mediaTypeID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := domain.MediaSubtype{ID: m.created(domain.KindMediaSubtype), Name: name, MediaTypeID: mediaTypeID}
	m.MediaSubtypes = append(m.MediaSubtypes, st)
	return st.ID, nil
}

func (m *Memory) CreatePMType(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pt := domain.PMType{ID: m.created(domain.KindPMType), Name: name}
	m.PMTypes = append(m.PMTypes, pt)
	return pt.ID, nil
}

func (m *Memory) CreateCampaign(_ context.Context, name, rangeID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.Campaign{ID: m.created(domain.KindCampaign), Name: name, RangeID: rangeID}
	m.Campaigns = append(m.Campaigns, c)
	return c.ID, nil
}

func (m *Memory) ListGamePlanMedia(ctx context.Context, countryID, cycleID string, limit int) ([]domain.GamePlanMedia, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	campaigns := make(map[string]string, len(m.Campaigns))
	for _, c := range m.Campaigns {
		campaigns[c.ID] = c.Name
	}
	subtypeType := make(map[string]string, len(m.MediaSubtypes))
	for _, st := range m.MediaSubtypes {
		subtypeType[st.ID] = st.MediaTypeID
	}
	types := make(map[string]string, len(m.MediaTypes))
	for _, mt := range m.MediaTypes {
		types[mt.ID] = mt.Name
	}

	var out []domain.GamePlanMedia
	for _, gp := range m.GamePlans {
		if gp.CountryID != countryID || gp.FinancialCycleID != cycleID {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, domain.GamePlanMedia{
			CampaignName:  campaigns[gp.CampaignID],
			MediaTypeName: types[subtypeType[gp.MediaSubtypeID]],
		})
	}
	return out, nil
}

func (m *Memory) FindGamePlan(_ context.Context, key domain.GamePlanKey) (*domain.GamePlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, gp := range m.GamePlans {
		if gp.Key() == key {
			cp := gp
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateGamePlan(_ context.Context, gp *domain.GamePlan) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailGamePlanWrites[gp.CampaignID]; err != nil {
		return "", err
	}
	cp := *gp
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.GamePlans = append(m.GamePlans, cp)
	return cp.ID, nil
}

func (m *Memory) UpdateGamePlan(_ context.Context, gp *domain.GamePlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailGamePlanWrites[gp.CampaignID]; err != nil {
		return err
	}
	for i := range m.GamePlans {
		if m.GamePlans[i].ID == gp.ID {
			cp := *gp
			cp.UpdatedAt = time.Now().UTC()
			m.GamePlans[i] = cp
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) FindSufficiency(_ context.Context, campaignID, countryID, cycleID string) (*domain.Sufficiency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Sufficiencies {
		if s.CampaignID == campaignID && s.CountryID == countryID && s.FinancialCycleID == cycleID {
			cp := s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateSufficiency(_ context.Context, s *domain.Sufficiency) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.ID = uuid.NewString()
	m.Sufficiencies = append(m.Sufficiencies, cp)
	return cp.ID, nil
}

func (m *Memory) UpdateSufficiency(_ context.Context, s *domain.Sufficiency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Sufficiencies {
		if m.Sufficiencies[i].ID == s.ID {
			m.Sufficiencies[i] = *s
			return nil
		}
	}
	return ErrNotFound
}

var _ Store = (*Memory)(nil)
var _ Opener = (*Memory)(nil)
