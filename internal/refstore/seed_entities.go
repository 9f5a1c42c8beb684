package refstore

import "github.com/ignite/gameplan-importer/internal/domain"

// Seeded entities use their name as id; subtypes are namespaced by media
// type because the same subtype name may exist under several types.

func subRegion(name string) domain.SubRegion {
	return domain.SubRegion{ID: name, Name: name}
}

func businessUnit(name string) domain.BusinessUnit {
	return domain.BusinessUnit{ID: name, Name: name}
}

func country(name, subRegion string) domain.Country {
	return domain.Country{ID: name, Name: name, SubRegionID: subRegion}
}

func category(name, businessUnit string) domain.Category {
	return domain.Category{ID: name, Name: name, BusinessUnitID: businessUnit}
}

func rangeOf(name string, categories ...string) domain.Range {
	return domain.Range{ID: name, Name: name, CategoryIDs: categories}
}

func campaign(name, rangeName string) domain.Campaign {
	return domain.Campaign{ID: name, Name: name, RangeID: rangeName}
}

func mediaType(name string) domain.MediaType {
	return domain.MediaType{ID: name, Name: name}
}

func mediaSubtype(name, mediaType string) domain.MediaSubtype {
	return domain.MediaSubtype{ID: mediaType + "/" + name, Name: name, MediaTypeID: mediaType}
}

func pmType(name string) domain.PMType {
	return domain.PMType{ID: name, Name: name}
}

func gamePlan(campaign, subtype, mediaType, country, cycle, start, end string) domain.GamePlan {
	return domain.GamePlan{
		ID:               campaign + "|" + mediaType + "/" + subtype + "|" + start + "|" + end,
		CampaignID:       campaign,
		MediaSubtypeID:   mediaType + "/" + subtype,
		CountryID:        country,
		FinancialCycleID: cycle,
		StartDate:        start,
		EndDate:          end,
	}
}
