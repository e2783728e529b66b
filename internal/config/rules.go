// Package config loads the two independent documents the QC engine
// consumes: the fixed-schema Rules document (pole/midspan tunables) and the
// ambient AppConfig (logging, metrics, watch settings).
package config

// PoleRules holds the recognized pole-evaluator tunables, spec.md §4.2.
type PoleRules struct {
	MinLowestCommAttachIn                   int  `json:"minLowestCommAttachIn"`
	CommSepDiffIn                           int  `json:"commSepDiffIn"`
	CommSepSameIn                           int  `json:"commSepSameIn"`
	CommToPowerSepIn                        int  `json:"commToPowerSepIn"`
	AdssCommToPowerSepIn                    int  `json:"adssCommToPowerSepIn"`
	CommToStreetLightSepIn                  int  `json:"commToStreetLightSepIn"`
	MovedHoleBufferIn                       int  `json:"movedHoleBufferIn"`
	EnforceAdssHighest                      bool `json:"enforceAdssHighest"`
	EnforceEquipmentMove                    bool `json:"enforceEquipmentMove"`
	EnforcePowerOrder                       bool `json:"enforcePowerOrder"`
	EnforceNeutralSecondaryBelowTransformer bool `json:"enforceNeutralSecondaryBelowTransformer"`
	WarnMissingPoleIdentifiers              bool `json:"warnMissingPoleIdentifiers"`
}

// MidspanRules holds the recognized midspan-evaluator tunables, spec.md §4.2.
type MidspanRules struct {
	MinCommDefaultIn         int    `json:"minCommDefaultIn"`
	MinCommPedestrianIn      int    `json:"minCommPedestrianIn"`
	MinCommHighwayIn         int    `json:"minCommHighwayIn"`
	MinCommFarmIn            int    `json:"minCommFarmIn"`
	MinCommRailIn            int    `json:"minCommRailIn"`
	CommSepIn                int    `json:"commSepIn"`
	CommToPowerSepIn         int    `json:"commToPowerSepIn"`
	AdssCommToPowerSepIn     int    `json:"adssCommToPowerSepIn"`
	InstallingCompany        string `json:"installingCompany"`
	InstallingCompanyCommSepIn int  `json:"installingCompanyCommSepIn"`
	EnforceAdssHighest       bool   `json:"enforceAdssHighest"`
	WarnMissingRowType       bool   `json:"warnMissingRowType"`
}

// Rules bundles both blocks — this is the value EvaluatePole/EvaluateMidspan
// and the ordering evaluator all take.
type Rules struct {
	Pole    PoleRules
	Midspan MidspanRules
}

// DefaultRules returns the documented default tunables, spec.md §4.2.
func DefaultRules() Rules {
	return Rules{
		Pole: PoleRules{
			MinLowestCommAttachIn:                   192,
			CommSepDiffIn:                           12,
			CommSepSameIn:                           4,
			CommToPowerSepIn:                        40,
			AdssCommToPowerSepIn:                    30,
			CommToStreetLightSepIn:                  12,
			MovedHoleBufferIn:                       4,
			EnforceAdssHighest:                      true,
			EnforceEquipmentMove:                    true,
			EnforcePowerOrder:                       true,
			EnforceNeutralSecondaryBelowTransformer: false,
			WarnMissingPoleIdentifiers:              true,
		},
		Midspan: MidspanRules{
			MinCommDefaultIn:           186,
			MinCommPedestrianIn:        114,
			MinCommHighwayIn:           216,
			MinCommFarmIn:              216,
			MinCommRailIn:              282,
			CommSepIn:                  4,
			CommToPowerSepIn:           30,
			AdssCommToPowerSepIn:       12,
			InstallingCompany:          "",
			InstallingCompanyCommSepIn: 4,
			EnforceAdssHighest:         true,
			WarnMissingRowType:         true,
		},
	}
}
