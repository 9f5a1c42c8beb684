package validation

import (
	"errors"
	"sort"
	"strings"

	"github.com/ignite/gameplan-importer/internal/domain"
)

// Template names.
const (
	TemplateGamePlan    = "gameplan"
	TemplateSufficiency = "sufficiency"
)

// ErrUnknownTemplate is returned for a template name that is not registered.
var ErrUnknownTemplate = errors.New("unknown upload template")

// ConditionalRules drives cross-reference validation: which columns depend
// on the media types committed in Game Plans for the row's campaign.
type ConditionalRules struct {
	TVFields      []string
	DigitalFields []string
	// DigitalDemoFields are mandatory for Digital campaigns unless
	// DigitalSameFlag is affirmatively "yes", in which case they must be blank.
	DigitalDemoFields []string
	DigitalSameFlag   string
	// CombinedFields join TV and Digital fields when a campaign runs both.
	CombinedFields []string
}

// Template configures one upload layout. Both layouts run through the same
// pipeline; only this configuration differs.
type Template struct {
	Name           string
	RequiredFields []string
	FieldTypes     map[string]FieldType
	// Creatable entity kinds are resolved or created by the importer, so a
	// missing one is a warning instead of a critical issue.
	Creatable       map[string]bool
	FranchiseColumn string
	FranchiseBrands []string
	CheckBudgets    bool
	CrossReference  bool
	Rules           ConditionalRules
}

// FieldMapping returns header → internal id for every column the template
// knows about.
func (t *Template) FieldMapping() map[string]string {
	out := make(map[string]string, len(t.FieldTypes))
	for col := range t.FieldTypes {
		if id, ok := fieldIDs[col]; ok {
			out[col] = id
		}
	}
	return out
}

// RequiresFranchise reports whether a campaign name belongs to one of the
// franchise brands.
func (t *Template) RequiresFranchise(campaign string) bool {
	name := strings.ToLower(campaign)
	for _, b := range t.FranchiseBrands {
		if strings.Contains(name, strings.ToLower(b)) {
			return true
		}
	}
	return false
}

var commonFieldTypes = map[string]FieldType{
	ColYear:         FieldNumeric,
	ColSubRegion:    FieldString,
	ColCountry:      FieldString,
	ColBusinessUnit: FieldString,
	ColCategory:     FieldString,
	ColRange:        FieldString,
	ColCampaign:     FieldString,
	ColFranchise:    FieldString,
}

func withCommon(types map[string]FieldType) map[string]FieldType {
	for col, ft := range commonFieldTypes {
		if _, ok := types[col]; !ok {
			types[col] = ft
		}
	}
	return types
}

var defaultFranchiseBrands = []string{"Dove", "Rexona", "Axe", "Vaseline"}

var templates = map[string]*Template{
	TemplateGamePlan: {
		Name: TemplateGamePlan,
		RequiredFields: []string{
			ColCategory, ColRange, ColCampaign, ColMediaSubtype, ColStartDate, ColEndDate,
		},
		FieldTypes: withCommon(map[string]FieldType{
			ColMedia:        FieldString,
			ColMediaSubtype: FieldString,
			ColStartDate:    FieldDate,
			ColEndDate:      FieldDate,
			ColTotalBudget:  FieldNumeric,
			ColQ1Budget:     FieldNumeric,
			ColQ2Budget:     FieldNumeric,
			ColQ3Budget:     FieldNumeric,
			ColQ4Budget:     FieldNumeric,
			ColTRPs:         FieldNumeric,
			ColReach1Plus:   FieldPercentage,
			ColTargetReach:  FieldPercentage,
			ColCurrentReach: FieldPercentage,
			ColPMType:       FieldString,
		}),
		Creatable: map[string]bool{
			domain.KindRange:        true,
			domain.KindCampaign:     true,
			domain.KindMediaType:    true,
			domain.KindMediaSubtype: true,
			domain.KindPMType:       true,
		},
		FranchiseColumn: ColFranchise,
		FranchiseBrands: defaultFranchiseBrands,
		CheckBudgets:    true,
	},
	TemplateSufficiency: {
		Name: TemplateSufficiency,
		RequiredFields: []string{
			ColYear, ColCountry, ColCategory, ColRange, ColCampaign,
		},
		FieldTypes: withCommon(map[string]FieldType{
			ColSocioDemoTarget:    FieldString,
			ColPopulationOnTarget: FieldNumeric,

			ColTVCopyLength:     FieldCopyLength,
			ColTVTargetSize:     FieldNumeric,
			ColTVDemoGender:     FieldString,
			ColTVDemoMinAge:     FieldNumeric,
			ColTVDemoMaxAge:     FieldNumeric,
			ColTVSEL:            FieldString,
			ColWOAOpenTV:        FieldNumeric,
			ColWOAPaidTV:        FieldNumeric,
			ColTotalTRPs:        FieldNumeric,
			ColTVReach:          FieldPercentage,
			ColTVReach3Plus:     FieldPercentage,
			ColTVIdealReach:     FieldPercentage,
			ColTVPotentialReach: FieldPercentage,
			ColTVReachTrend:     FieldTrendPercentage,
			ColCPP2024:          FieldNumeric,
			ColCPP2025:          FieldNumeric,

			ColDigitalSameAsTV:       FieldString,
			ColDigitalDemoGender:     FieldString,
			ColDigitalDemoMinAge:     FieldNumeric,
			ColDigitalDemoMaxAge:     FieldNumeric,
			ColDigitalSEL:            FieldString,
			ColDigitalTargetSize:     FieldNumeric,
			ColWOAPMFF:               FieldNumeric,
			ColWOAInfluencers:        FieldNumeric,
			ColDigitalReach:          FieldPercentage,
			ColDigitalIdealReach:     FieldPercentage,
			ColDigitalPotentialReach: FieldPercentage,

			ColPlannedCombinedReach:   FieldPercentage,
			ColCombinedIdealReach:     FieldPercentage,
			ColCombinedPotentialReach: FieldPercentage,
		}),
		Creatable:       map[string]bool{},
		FranchiseColumn: ColFranchise,
		FranchiseBrands: defaultFranchiseBrands,
		CrossReference:  true,
		Rules: ConditionalRules{
			TVFields: []string{
				ColTVCopyLength, ColTVTargetSize, ColTVDemoGender, ColTVDemoMinAge,
				ColTVDemoMaxAge, ColTVSEL, ColWOAOpenTV, ColWOAPaidTV, ColTotalTRPs,
				ColTVReach, ColTVReach3Plus, ColTVIdealReach, ColCPP2025,
			},
			DigitalFields: []string{
				ColDigitalSameAsTV, ColDigitalTargetSize, ColWOAPMFF, ColWOAInfluencers,
				ColDigitalReach, ColDigitalIdealReach,
			},
			DigitalDemoFields: []string{
				ColDigitalDemoGender, ColDigitalDemoMinAge, ColDigitalDemoMaxAge, ColDigitalSEL,
			},
			DigitalSameFlag: ColDigitalSameAsTV,
			CombinedFields:  []string{ColPlannedCombinedReach, ColCombinedIdealReach},
		},
	},
}

// LookupTemplate returns the registered template with the given name.
func LookupTemplate(name string) (*Template, error) {
	t, ok := templates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrUnknownTemplate
	}
	return t, nil
}

// TemplateNames lists the registered template names, sorted.
func TemplateNames() []string {
	out := make([]string, 0, len(templates))
	for n := range templates {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// sortedColumns returns the column names of a field-type table in a stable
// order so issues come out deterministically.
func sortedColumns(types map[string]FieldType) []string {
	out := make([]string, 0, len(types))
	for col := range types {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}
