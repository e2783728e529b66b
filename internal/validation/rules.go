// Package validation checks that a loaded Rules document's tunables are
// sane before the engine is invoked, in the teacher's ConfigValidator style
// (pkg/validation/config.go): one method per concern, returning a
// pkg/errors.QCError with context on failure.
package validation

import (
	"katapultqc/internal/config"
	"katapultqc/pkg/errors"
)

// RuleConfigValidator validates a config.Rules value.
type RuleConfigValidator struct{}

// NewRuleConfigValidator creates a new rule configuration validator.
func NewRuleConfigValidator() *RuleConfigValidator {
	return &RuleConfigValidator{}
}

// Validate checks both the Pole and Midspan blocks.
func (v *RuleConfigValidator) Validate(r config.Rules) error {
	if err := v.ValidatePole(r.Pole); err != nil {
		return err
	}
	if err := v.ValidateMidspan(r.Midspan); err != nil {
		return err
	}
	return nil
}

// namedField pairs a tunable's document field name with its value, so
// validateNonNegative can scan in a fixed, reported-deterministically order.
type namedField struct {
	name  string
	value int
}

// ValidatePole checks that every pole tunable is non-negative.
func (v *RuleConfigValidator) ValidatePole(p config.PoleRules) error {
	fields := []namedField{
		{"minLowestCommAttachIn", p.MinLowestCommAttachIn},
		{"commSepDiffIn", p.CommSepDiffIn},
		{"commSepSameIn", p.CommSepSameIn},
		{"commToPowerSepIn", p.CommToPowerSepIn},
		{"adssCommToPowerSepIn", p.AdssCommToPowerSepIn},
		{"commToStreetLightSepIn", p.CommToStreetLightSepIn},
		{"movedHoleBufferIn", p.MovedHoleBufferIn},
	}
	return validateNonNegative(fields)
}

// ValidateMidspan checks that every midspan tunable is non-negative.
func (v *RuleConfigValidator) ValidateMidspan(m config.MidspanRules) error {
	fields := []namedField{
		{"minCommDefaultIn", m.MinCommDefaultIn},
		{"minCommPedestrianIn", m.MinCommPedestrianIn},
		{"minCommHighwayIn", m.MinCommHighwayIn},
		{"minCommFarmIn", m.MinCommFarmIn},
		{"minCommRailIn", m.MinCommRailIn},
		{"commSepIn", m.CommSepIn},
		{"commToPowerSepIn", m.CommToPowerSepIn},
		{"adssCommToPowerSepIn", m.AdssCommToPowerSepIn},
		{"installingCompanyCommSepIn", m.InstallingCompanyCommSepIn},
	}
	return validateNonNegative(fields)
}

func validateNonNegative(fields []namedField) error {
	for _, f := range fields {
		if f.value < 0 {
			return errors.ErrInvalidRule(f.name, "must be non-negative")
		}
	}
	return nil
}
