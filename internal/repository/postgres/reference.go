package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/pkg/namekey"
	"github.com/ignite/gameplan-importer/internal/refstore"
)

// nameKey is the SQL form of namekey.Key for ASCII names.
const nameKey = `lower(btrim(regexp_replace(name, '\s+', ' ', 'g')))`

// entityTables maps an entity kind to its table and optional parent column.
// Only these fixed identifiers are ever formatted into SQL.
var entityTables = map[string]struct{ table, parent string }{
	domain.KindCountry:        {"countries", ""},
	domain.KindSubRegion:      {"sub_regions", ""},
	domain.KindBusinessUnit:   {"business_units", ""},
	domain.KindCategory:       {"categories", "business_unit_id"},
	domain.KindRange:          {"ranges", ""},
	domain.KindCampaign:       {"campaigns", "range_id"},
	domain.KindMediaType:      {"media_types", ""},
	domain.KindMediaSubtype:   {"media_subtypes", "media_type_id"},
	domain.KindPMType:         {"pm_types", ""},
	domain.KindFinancialCycle: {"financial_cycles", ""},
}

func (s *Store) ListCountries(ctx context.Context) ([]domain.Country, error) {
	var out []domain.Country
	err := s.list(ctx, `SELECT id, name, COALESCE(sub_region_id::text, '') FROM countries ORDER BY name`,
		func(rows *sql.Rows) error {
			var c domain.Country
			if err := rows.Scan(&c.ID, &c.Name, &c.SubRegionID); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return out, nil
}

func (s *Store) ListSubRegions(ctx context.Context) ([]domain.SubRegion, error) {
	var out []domain.SubRegion
	err := s.list(ctx, `SELECT id, name FROM sub_regions ORDER BY name`, func(rows *sql.Rows) error {
		var sr domain.SubRegion
		if err := rows.Scan(&sr.ID, &sr.Name); err != nil {
			return err
		}
		out = append(out, sr)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sub regions: %w", err)
	}
	return out, nil
}

func (s *Store) ListBusinessUnits(ctx context.Context) ([]domain.BusinessUnit, error) {
	var out []domain.BusinessUnit
	err := s.list(ctx, `SELECT id, name FROM business_units ORDER BY name`, func(rows *sql.Rows) error {
		var bu domain.BusinessUnit
		if err := rows.Scan(&bu.ID, &bu.Name); err != nil {
			return err
		}
		out = append(out, bu)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list business units: %w", err)
	}
	return out, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := s.list(ctx, `SELECT id, name, COALESCE(business_unit_id::text, '') FROM categories ORDER BY name`,
		func(rows *sql.Rows) error {
			var c domain.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.BusinessUnitID); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *Store) ListRanges(ctx context.Context) ([]domain.Range, error) {
	var out []domain.Range
	err := s.list(ctx, `
		SELECT r.id, r.name,
		       COALESCE(array_agg(rc.category_id::text) FILTER (WHERE rc.category_id IS NOT NULL), '{}')
		FROM ranges r
		LEFT JOIN range_categories rc ON rc.range_id = r.id
		GROUP BY r.id, r.name
		ORDER BY r.name
	`, func(rows *sql.Rows) error {
		var r domain.Range
		var cats pq.StringArray
		if err := rows.Scan(&r.ID, &r.Name, &cats); err != nil {
			return err
		}
		r.CategoryIDs = []string(cats)
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list ranges: %w", err)
	}
	return out, nil
}

func (s *Store) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	var out []domain.Campaign
	err := s.list(ctx, `SELECT id, name, COALESCE(range_id::text, '') FROM campaigns ORDER BY name`,
		func(rows *sql.Rows) error {
			var c domain.Campaign
			if err := rows.Scan(&c.ID, &c.Name, &c.RangeID); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return out, nil
}

func (s *Store) ListMediaTypes(ctx context.Context) ([]domain.MediaType, error) {
	var out []domain.MediaType
	err := s.list(ctx, `SELECT id, name FROM media_types ORDER BY name`, func(rows *sql.Rows) error {
		var mt domain.MediaType
		if err := rows.Scan(&mt.ID, &mt.Name); err != nil {
			return err
		}
		out = append(out, mt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list media types: %w", err)
	}
	return out, nil
}

func (s *Store) ListMediaSubtypes(ctx context.Context) ([]domain.MediaSubtype, error) {
	var out []domain.MediaSubtype
	err := s.list(ctx, `SELECT id, name, media_type_id FROM media_subtypes ORDER BY name`, func(rows *sql.Rows) error {
		var st domain.MediaSubtype
		if err := rows.Scan(&st.ID, &st.Name, &st.MediaTypeID); err != nil {
			return err
		}
		out = append(out, st)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list media subtypes: %w", err)
	}
	return out, nil
}

// list runs query and hands each row to scan, holding the store lock until
// the result set is closed.
func (s *Store) list(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// FindID looks an entity up by name under namekey's policy. SQL lower()
// agrees with Unicode case folding only for ASCII, so the query also returns
// non-ASCII names and the final match is made in Go.
func (s *Store) FindID(ctx context.Context, kind, name, parentID string) (string, error) {
	t, ok := entityTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
	key := namekey.Key(name)
	q := fmt.Sprintf(`SELECT id, name FROM %s WHERE (%s = $1 OR name ~ '[^\x01-\x7f]')`, t.table, nameKey)
	args := []any{key}
	if parentID != "" && t.parent != "" {
		q += fmt.Sprintf(` AND %s = $2`, t.parent)
		args = append(args, parentID)
	}
	q += ` ORDER BY name`

	var id string
	err := s.list(ctx, q, func(rows *sql.Rows) error {
		var cid, cname string
		if err := rows.Scan(&cid, &cname); err != nil {
			return err
		}
		if id == "" && namekey.Key(cname) == key {
			id = cid
		}
		return nil
	}, args...)
	if err != nil {
		return "", fmt.Errorf("find %s: %w", kind, err)
	}
	if id == "" {
		return "", refstore.ErrNotFound
	}
	return id, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.q.ExecContext(ctx, query, args...)
	return err
}

func (s *Store) CreateRange(ctx context.Context, name, categoryID string) (string, error) {
	id := uuid.NewString()
	if err := s.exec(ctx, `INSERT INTO ranges (id, name) VALUES ($1, $2)`, id, name); err != nil {
		return "", fmt.Errorf("create range: %w", err)
	}
	if categoryID != "" {
		if err := s.LinkRangeCategory(ctx, id, categoryID); err != nil {
			return "", err
		}
	}
	return id, nil
}

func (s *Store) LinkRangeCategory(ctx context.Context, rangeID, categoryID string) error {
	err := s.exec(ctx, `
		INSERT INTO range_categories (range_id, category_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, rangeID, categoryID)
	if err != nil {
		return fmt.Errorf("link range category: %w", err)
	}
	return nil
}

func (s *Store) CreateMediaType(ctx context.Context, name string) (string, error) {
	id := uuid.NewString()
	if err := s.exec(ctx, `INSERT INTO media_types (id, name) VALUES ($1, $2)`, id, name); err != nil {
		return "", fmt.Errorf("create media type: %w", err)
	}
	return id, nil
}

func (s *Store) CreateMediaSubtype(ctx context.Context, name, mediaTypeID string) (string, error) {
	id := uuid.NewString()
	err := s.exec(ctx, `INSERT INTO media_subtypes (id, name, media_type_id) VALUES ($1, $2, $3)`, id, name, mediaTypeID)
	if err != nil {
		return "", fmt.Errorf("create media subtype: %w", err)
	}
	return id, nil
}

func (s *Store) CreatePMType(ctx context.Context, name string) (string, error) {
	id := uuid.NewString()
	if err := s.exec(ctx, `INSERT INTO pm_types (id, name) VALUES ($1, $2)`, id, name); err != nil {
		return "", fmt.Errorf("create pm type: %w", err)
	}
	return id, nil
}

func (s *Store) CreateCampaign(ctx context.Context, name, rangeID string) (string, error) {
	id := uuid.NewString()
	if err := s.exec(ctx, `INSERT INTO campaigns (id, name, range_id) VALUES ($1, $2, $3)`, id, name, rangeID); err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	return id, nil
}
