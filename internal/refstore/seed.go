package refstore

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout accepted by LoadMemory. Parents are referenced
// by name so files stay hand-editable.
type seedFile struct {
	SubRegions    []string `yaml:"sub_regions"`
	BusinessUnits []string `yaml:"business_units"`
	Countries     []struct {
		Name      string `yaml:"name"`
		SubRegion string `yaml:"sub_region"`
	} `yaml:"countries"`
	Categories []struct {
		Name         string `yaml:"name"`
		BusinessUnit string `yaml:"business_unit"`
	} `yaml:"categories"`
	Ranges []struct {
		Name       string   `yaml:"name"`
		Categories []string `yaml:"categories"`
	} `yaml:"ranges"`
	Campaigns []struct {
		Name  string `yaml:"name"`
		Range string `yaml:"range"`
	} `yaml:"campaigns"`
	MediaTypes []struct {
		Name     string   `yaml:"name"`
		Subtypes []string `yaml:"subtypes"`
	} `yaml:"media_types"`
	PMTypes   []string `yaml:"pm_types"`
	GamePlans []struct {
		Campaign     string `yaml:"campaign"`
		MediaSubtype string `yaml:"media_subtype"`
		MediaType    string `yaml:"media_type"`
		Country      string `yaml:"country"`
		Cycle        string `yaml:"cycle"`
		StartDate    string `yaml:"start_date"`
		EndDate      string `yaml:"end_date"`
	} `yaml:"game_plans"`
}

// LoadMemory builds a Memory store from a YAML seed. Entity ids are the
// entity names, which keeps fixtures and dry-run output readable.
func LoadMemory(r io.Reader) (*Memory, error) {
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode reference seed: %w", err)
	}

	m := NewMemory()
	for _, n := range f.SubRegions {
		m.SubRegions = append(m.SubRegions, subRegion(n))
	}
	for _, n := range f.BusinessUnits {
		m.BusinessUnits = append(m.BusinessUnits, businessUnit(n))
	}
	for _, c := range f.Countries {
		m.Countries = append(m.Countries, country(c.Name, c.SubRegion))
	}
	for _, c := range f.Categories {
		m.Categories = append(m.Categories, category(c.Name, c.BusinessUnit))
	}
	for _, r := range f.Ranges {
		m.Ranges = append(m.Ranges, rangeOf(r.Name, r.Categories...))
	}
	for _, c := range f.Campaigns {
		m.Campaigns = append(m.Campaigns, campaign(c.Name, c.Range))
	}
	for _, mt := range f.MediaTypes {
		m.MediaTypes = append(m.MediaTypes, mediaType(mt.Name))
		for _, st := range mt.Subtypes {
			m.MediaSubtypes = append(m.MediaSubtypes, mediaSubtype(st, mt.Name))
		}
	}
	for _, n := range f.PMTypes {
		m.PMTypes = append(m.PMTypes, pmType(n))
	}
	for _, gp := range f.GamePlans {
		m.GamePlans = append(m.GamePlans, gamePlan(gp.Campaign, gp.MediaSubtype, gp.MediaType,
			gp.Country, gp.Cycle, gp.StartDate, gp.EndDate))
	}
	return m, nil
}
