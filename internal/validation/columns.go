package validation

// Upload column headers. Rows arrive keyed by these human-readable names.
const (
	ColYear         = "Year"
	ColSubRegion    = "Sub Region"
	ColCountry      = "Country"
	ColBusinessUnit = "Business Unit"
	ColCategory     = "Category"
	ColRange        = "Range"
	ColCampaign     = "Campaign"
	ColFranchise    = "Franchise"

	ColMedia        = "Media"
	ColMediaSubtype = "Media Subtype"
	ColStartDate    = "Start Date"
	ColEndDate      = "End Date"
	ColTotalBudget  = "Total Budget"
	ColQ1Budget     = "Q1 Budget"
	ColQ2Budget     = "Q2 Budget"
	ColQ3Budget     = "Q3 Budget"
	ColQ4Budget     = "Q4 Budget"
	ColTRPs         = "TRPs"
	ColReach1Plus   = "Reach 1+"
	ColTargetReach  = "Target Reach"
	ColCurrentReach = "Current Reach"
	ColPMType       = "PM Type"

	ColSocioDemoTarget    = "Campaign Socio-Demo Target"
	ColPopulationOnTarget = "Total Country Population On Target"

	ColTVCopyLength     = "TV Copy Length"
	ColTVTargetSize     = "TV Target Size"
	ColTVDemoGender     = "TV Demo Gender"
	ColTVDemoMinAge     = "TV Demo Min. Age"
	ColTVDemoMaxAge     = "TV Demo Max. Age"
	ColTVSEL            = "TV SEL"
	ColWOAOpenTV        = "WOA Open TV"
	ColWOAPaidTV        = "WOA Paid TV"
	ColTotalTRPs        = "Total TRPs"
	ColTVReach          = "TV R1+"
	ColTVReach3Plus     = "TV R3+"
	ColTVIdealReach     = "TV IDEAL Reach"
	ColTVPotentialReach = "TV Potential Reach"
	ColTVReachTrend     = "TV Reach Trend"
	ColCPP2024          = "CPP 2024"
	ColCPP2025          = "CPP 2025"

	ColDigitalSameAsTV       = "Is Digital target the same than TV?"
	ColDigitalDemoGender     = "Digital Demo Gender"
	ColDigitalDemoMinAge     = "Digital Demo Min. Age"
	ColDigitalDemoMaxAge     = "Digital Demo Max. Age"
	ColDigitalSEL            = "Digital SEL"
	ColDigitalTargetSize     = "Digital Target Size"
	ColWOAPMFF               = "WOA PM FF"
	ColWOAInfluencers        = "WOA Influencers Amplification"
	ColDigitalReach          = "Digital R1+"
	ColDigitalIdealReach     = "Digital IDEAL Reach"
	ColDigitalPotentialReach = "Digital Potential Reach"

	ColPlannedCombinedReach   = "Planned Combined Reach"
	ColCombinedIdealReach     = "Combined Ideal Reach"
	ColCombinedPotentialReach = "Combined Potential Reach"
)

// fieldIDs maps every known header to its internal field identifier. This
// table is the contract with the upstream row parser.
var fieldIDs = map[string]string{
	ColYear:         "year",
	ColSubRegion:    "subRegion",
	ColCountry:      "country",
	ColBusinessUnit: "businessUnit",
	ColCategory:     "category",
	ColRange:        "range",
	ColCampaign:     "campaign",
	ColFranchise:    "franchise",

	ColMedia:        "media",
	ColMediaSubtype: "mediaSubtype",
	ColStartDate:    "startDate",
	ColEndDate:      "endDate",
	ColTotalBudget:  "totalBudget",
	ColQ1Budget:     "q1Budget",
	ColQ2Budget:     "q2Budget",
	ColQ3Budget:     "q3Budget",
	ColQ4Budget:     "q4Budget",
	ColTRPs:         "trps",
	ColReach1Plus:   "reach1Plus",
	ColTargetReach:  "targetReach",
	ColCurrentReach: "currentReach",
	ColPMType:       "pmType",

	ColSocioDemoTarget:    "campaignSocioDemoTarget",
	ColPopulationOnTarget: "totalCountryPopulationOnTarget",

	ColTVCopyLength:     "tvCopyLength",
	ColTVTargetSize:     "tvTargetSize",
	ColTVDemoGender:     "tvDemoGender",
	ColTVDemoMinAge:     "tvDemoMinAge",
	ColTVDemoMaxAge:     "tvDemoMaxAge",
	ColTVSEL:            "tvSel",
	ColWOAOpenTV:        "woaOpenTv",
	ColWOAPaidTV:        "woaPaidTv",
	ColTotalTRPs:        "totalTrps",
	ColTVReach:          "tvReach",
	ColTVReach3Plus:     "tvReach3Plus",
	ColTVIdealReach:     "tvIdealReach",
	ColTVPotentialReach: "tvPotentialReach",
	ColTVReachTrend:     "tvReachTrend",
	ColCPP2024:          "cpp2024",
	ColCPP2025:          "cpp2025",

	ColDigitalSameAsTV:       "isDigitalTargetSameAsTv",
	ColDigitalDemoGender:     "digitalDemoGender",
	ColDigitalDemoMinAge:     "digitalDemoMinAge",
	ColDigitalDemoMaxAge:     "digitalDemoMaxAge",
	ColDigitalSEL:            "digitalSel",
	ColDigitalTargetSize:     "digitalTargetSize",
	ColWOAPMFF:               "woaPmFf",
	ColWOAInfluencers:        "woaInfluencersAmplification",
	ColDigitalReach:          "digitalReach",
	ColDigitalIdealReach:     "digitalIdealReach",
	ColDigitalPotentialReach: "digitalPotentialReach",

	ColPlannedCombinedReach:   "plannedCombinedReach",
	ColCombinedIdealReach:     "combinedIdealReach",
	ColCombinedPotentialReach: "combinedPotentialReach",
}

// FieldID returns the internal identifier of a header.
func FieldID(header string) (string, bool) {
	id, ok := fieldIDs[header]
	return id, ok
}
