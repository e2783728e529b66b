package validation

import (
	"testing"

	"katapultqc/internal/config"
	"katapultqc/pkg/errors"
)

func TestRuleConfigValidator_Validate_AcceptsDefaults(t *testing.T) {
	v := NewRuleConfigValidator()
	if err := v.Validate(config.DefaultRules()); err != nil {
		t.Errorf("Validate(DefaultRules()) = %v, want nil", err)
	}
}

func TestRuleConfigValidator_ValidatePole_RejectsNegative(t *testing.T) {
	v := NewRuleConfigValidator()
	rules := config.DefaultRules()
	rules.Pole.MinLowestCommAttachIn = -1

	err := v.ValidatePole(rules.Pole)
	if err == nil {
		t.Fatal("expected error for negative minLowestCommAttachIn")
	}
	if errors.GetErrorCode(err) != errors.CodeInvalidRule {
		t.Errorf("error code = %v, want %v", errors.GetErrorCode(err), errors.CodeInvalidRule)
	}
}

func TestRuleConfigValidator_ValidateMidspan_RejectsNegative(t *testing.T) {
	v := NewRuleConfigValidator()
	rules := config.DefaultRules()
	rules.Midspan.CommSepIn = -4

	if err := v.ValidateMidspan(rules.Midspan); err == nil {
		t.Fatal("expected error for negative commSepIn")
	}
}

func TestRuleConfigValidator_ValidatePole_ReportsFirstFieldDeterministically(t *testing.T) {
	v := NewRuleConfigValidator()
	rules := config.DefaultRules()
	rules.Pole.CommSepSameIn = -1
	rules.Pole.CommToPowerSepIn = -1
	rules.Pole.MovedHoleBufferIn = -1

	var first string
	for i := 0; i < 20; i++ {
		err := v.ValidatePole(rules.Pole)
		qcErr, ok := err.(*errors.QCError)
		if !ok {
			t.Fatalf("run %d: expected *errors.QCError, got %T", i, err)
		}
		field, _ := qcErr.Context["field"].(string)
		if i == 0 {
			first = field
			continue
		}
		if field != first {
			t.Fatalf("run %d: reported field = %q, want %q (non-deterministic scan order)", i, field, first)
		}
	}
	if first != "commSepSameIn" {
		t.Errorf("reported field = %q, want the first declared invalid field %q", first, "commSepSameIn")
	}
}

func TestRuleConfigValidator_Validate_ChecksPoleBeforeMidspan(t *testing.T) {
	v := NewRuleConfigValidator()
	rules := config.DefaultRules()
	rules.Pole.CommSepDiffIn = -1
	rules.Midspan.CommSepIn = -1

	err := v.Validate(rules)
	if err == nil {
		t.Fatal("expected error")
	}
	qcErr, ok := err.(*errors.QCError)
	if !ok {
		t.Fatalf("expected *errors.QCError, got %T", err)
	}
	if qcErr.Context["field"] != "commSepDiffIn" {
		t.Errorf("expected the pole field to be reported first, got %v", qcErr.Context["field"])
	}
}
