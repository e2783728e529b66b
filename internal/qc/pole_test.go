package qc

import (
	"testing"

	"katapultqc/internal/config"
	"katapultqc/pkg/types"
)

func intPtr(n int) *int { return &n }

func attachment(id string, category types.Category, owner, label string, proposedIn int) *types.Attachment {
	return &types.Attachment{
		ID:         id,
		Category:   category,
		Owner:      owner,
		Label:      label,
		ProposedIn: intPtr(proposedIn),
	}
}

func findIssue(issues []types.Issue, ruleCode string) *types.Issue {
	for i := range issues {
		if issues[i].RuleCode == ruleCode {
			return &issues[i]
		}
	}
	return nil
}

func TestEvaluatePole_MinCommTooLow(t *testing.T) {
	pole := &types.Pole{
		ID: "P1",
		Attachments: []*types.Attachment{
			attachment("A1", types.CategoryWire, "Comm Co", "communication line", 180),
		},
	}
	rules := config.DefaultRules()

	status, issues := EvaluatePole(pole, rules)

	if status != types.StatusFail {
		t.Fatalf("status = %v, want fail", status)
	}
	iss := findIssue(issues, "POLE.MIN_COMM")
	if iss == nil {
		t.Fatal("expected POLE.MIN_COMM issue")
	}
	if iss.Severity != types.SeverityFail {
		t.Errorf("severity = %v, want FAIL", iss.Severity)
	}
	if got := iss.AttachmentIDs(); len(got) != 1 || got[0] != "A1" {
		t.Errorf("attachmentIds = %v, want [A1]", got)
	}
}

func TestEvaluatePole_CommToPowerADSSExemption(t *testing.T) {
	pole := &types.Pole{
		ID: "P1",
		Attachments: []*types.Attachment{
			attachment("ADSS1", types.CategoryWire, "Fiber Co", "adss fiber communication", 330),
			attachment("COMM1", types.CategoryWire, "Phone Co", "telephone communication", 330),
			attachment("PWR1", types.CategoryWire, "Power Co", "secondary power", 360),
		},
	}
	rules := config.DefaultRules()
	rules.Pole.CommToPowerSepIn = 40
	rules.Pole.AdssCommToPowerSepIn = 30

	_, issues := EvaluatePole(pole, rules)

	var adssFlagged, commFlagged bool
	for _, iss := range issues {
		if iss.RuleCode != "POLE.COMM_TO_POWER" {
			continue
		}
		for _, id := range iss.AttachmentIDs() {
			if id == "ADSS1" {
				adssFlagged = true
			}
			if id == "COMM1" {
				commFlagged = true
			}
		}
	}
	if adssFlagged {
		t.Error("ADSS comm should be exempt at sep=30 with adssCommToPowerSepIn=30")
	}
	if !commFlagged {
		t.Error("non-ADSS comm should be flagged at sep=30 < commToPowerSepIn=40")
	}
}

func TestEvaluatePole_HoleReuseAllowed(t *testing.T) {
	moved := attachment("A2", types.CategoryWire, "Power Co", "secondary", 240)
	moved.ExistingIn = intPtr(300)
	moved.IsMoved = true

	pole := &types.Pole{
		ID: "P1",
		Attachments: []*types.Attachment{
			attachment("A1", types.CategoryWire, "Power Co", "secondary power", 240),
			moved,
		},
	}
	rules := config.DefaultRules()
	rules.Pole.MovedHoleBufferIn = 4

	_, issues := EvaluatePole(pole, rules)

	if iss := findIssue(issues, "POLE.HOLE_BUFFER"); iss != nil {
		t.Errorf("expected no POLE.HOLE_BUFFER issue for exact hole reuse, got %+v", iss)
	}
}

func TestEvaluatePole_MissingIdentifiers(t *testing.T) {
	pole := &types.Pole{ID: "P1"}
	rules := config.DefaultRules()

	_, issues := EvaluatePole(pole, rules)

	if findIssue(issues, "POLE.MISSING_ID") == nil {
		t.Fatal("expected POLE.MISSING_ID when poleSpec/poleTag/scid all blank")
	}
}

func TestEvaluatePole_MissingIdentifiersSuppressedWhenAnyPresent(t *testing.T) {
	pole := &types.Pole{ID: "P1", SCID: "123"}
	rules := config.DefaultRules()

	_, issues := EvaluatePole(pole, rules)

	if findIssue(issues, "POLE.MISSING_ID") != nil {
		t.Fatal("did not expect POLE.MISSING_ID when scid is present")
	}
}

func TestEvaluatePole_CommSepSameOwnerExactMatchAllowed(t *testing.T) {
	pole := &types.Pole{
		ID: "P1",
		Attachments: []*types.Attachment{
			attachment("A1", types.CategoryWire, "Comm Co", "communication", 200),
			attachment("A2", types.CategoryWire, "Comm Co", "communication", 200),
		},
	}
	rules := config.DefaultRules()

	_, issues := EvaluatePole(pole, rules)

	if findIssue(issues, "POLE.COMM_SEP_SAME") != nil {
		t.Error("exact-same height for same owner should not trigger COMM_SEP_SAME")
	}
}

func TestEvaluatePole_PowerOrderReversal(t *testing.T) {
	neutral := attachment("N1", types.CategoryWire, "Power Co", "neutral", 200)
	neutral.ExistingIn = intPtr(220)
	secondary := attachment("S1", types.CategoryWire, "Power Co", "secondary", 240)
	secondary.ExistingIn = intPtr(200)

	pole := &types.Pole{
		ID:          "P1",
		Attachments: []*types.Attachment{neutral, secondary},
	}
	rules := config.DefaultRules()
	rules.Pole.EnforcePowerOrder = true

	_, issues := EvaluatePole(pole, rules)

	if findIssue(issues, "POLE.POWER_ORDER") == nil {
		t.Fatal("expected POLE.POWER_ORDER when proposed order reverses existing order")
	}
}

func TestEvaluatePole_CommToPowerTiedOwnersDeterministic(t *testing.T) {
	pole := &types.Pole{
		ID: "P1",
		Attachments: []*types.Attachment{
			attachment("PWR-A", types.CategoryWire, "Alpha Power", "primary power", 300),
			attachment("PWR-B", types.CategoryWire, "Beta Power", "primary power", 300),
			attachment("RISER1", types.CategoryEquipment, "Alpha Power", "power riser", 280),
		},
	}
	rules := config.DefaultRules()
	rules.Pole.CommToPowerSepIn = 40

	var first []types.Issue
	for i := 0; i < 20; i++ {
		_, issues := EvaluatePole(pole, rules)
		if i == 0 {
			first = issues
			continue
		}
		if len(issues) != len(first) {
			t.Fatalf("run %d: issue count = %d, want %d (non-deterministic power-owner tie-break)", i, len(issues), len(first))
		}
		for j := range issues {
			if issues[j].RuleCode != first[j].RuleCode || issues[j].EntityID != first[j].EntityID {
				t.Fatalf("run %d: issues[%d] = %+v, want %+v (non-deterministic power-owner tie-break)", i, j, issues[j], first[j])
			}
		}
	}

	if iss := findIssue(first, "POLE.COMM_TO_POWER"); iss != nil {
		for _, id := range iss.AttachmentIDs() {
			if id == "RISER1" {
				t.Errorf("riser owned by a tied power owner (first-seen: Alpha Power) should not be treated as a comm facility, got %+v", iss)
			}
		}
	}
}

func TestEvaluatePole_StatusDerivationLaw(t *testing.T) {
	cases := []struct {
		name   string
		issues []types.Issue
		want   types.Status
	}{
		{"no issues", nil, types.StatusPass},
		{"only warn", []types.Issue{{Severity: types.SeverityWarn}}, types.StatusWarn},
		{"only fail", []types.Issue{{Severity: types.SeverityFail}}, types.StatusFail},
		{"warn and fail", []types.Issue{{Severity: types.SeverityWarn}, {Severity: types.SeverityFail}}, types.StatusFail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := deriveStatus(tc.issues); got != tc.want {
				t.Errorf("deriveStatus() = %v, want %v", got, tc.want)
			}
		})
	}
}
