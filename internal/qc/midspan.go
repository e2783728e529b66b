package qc

import (
	"regexp"
	"sort"
	"strings"

	"katapultqc/internal/config"
	"katapultqc/pkg/classification"
	"katapultqc/pkg/textnorm"
	"katapultqc/pkg/types"
)

type ruleMeasure struct {
	measure *types.Measure
	class   classification.Classification
	height  int
}

var drivewayPattern = regexp.MustCompile(`(?i)drive\s*way`)

// reqComm determines the required comm ground clearance for a midspan per
// spec.md §4.4: the row type maps to its specific minimum, except that raw
// row text mentioning a driveway always forces the default minimum
// regardless of the classified RowType.
func reqComm(ms *types.Midspan, rules config.MidspanRules) int {
	if drivewayPattern.MatchString(ms.RowTypeRaw) {
		return rules.MinCommDefaultIn
	}
	switch ms.RowType {
	case types.RowPedestrian:
		return rules.MinCommPedestrianIn
	case types.RowHighway:
		return rules.MinCommHighwayIn
	case types.RowFarm:
		return rules.MinCommFarmIn
	case types.RowRail:
		return rules.MinCommRailIn
	default:
		return rules.MinCommDefaultIn
	}
}

// EvaluateMidspan runs every midspan-local rule from spec.md §4.4 and
// returns the derived status plus the issue list.
func EvaluateMidspan(ms *types.Midspan, rules config.Rules) (types.Status, []types.Issue) {
	var issues []types.Issue

	classified := make([]ruleMeasure, 0, len(ms.Measures))
	for _, m := range ms.Measures {
		h, ok := m.EffectiveHeight()
		if !ok {
			continue
		}
		classified = append(classified, ruleMeasure{
			measure: m,
			class:   classification.Classify(classification.FromMeasure(m)),
			height:  h,
		})
	}

	required := reqComm(ms, rules.Midspan)

	issues = append(issues, missingRowIssue(ms, rules.Midspan)...)
	issues = append(issues, minCommMidspanIssue(ms, classified, required)...)
	issues = append(issues, minPowerOnlyIssue(ms, classified, required)...)
	issues = append(issues, commSepMidspanIssues(ms, classified, rules.Midspan)...)
	issues = append(issues, commToPowerMidspanIssue(ms, classified, rules.Midspan)...)
	issues = append(issues, adssTopMidspanIssue(ms, classified, rules.Midspan)...)

	return deriveStatus(issues), issues
}

func missingRowIssue(ms *types.Midspan, rules config.MidspanRules) []types.Issue {
	if !rules.WarnMissingRowType || strings.TrimSpace(ms.RowTypeRaw) != "" {
		return nil
	}
	return []types.Issue{{
		Severity:   types.SeverityWarn,
		EntityType: types.EntityMidspan,
		EntityID:   string(ms.ID),
		RuleCode:   "MIDSPAN.MISSING_ROW",
		Message:    "midspan has no right-of-way type recorded",
	}}
}

func commMeasures(items []ruleMeasure) []ruleMeasure {
	var out []ruleMeasure
	for _, rm := range items {
		if rm.class.Kind == classification.KindComm && rm.measure.ProposedIn != nil {
			out = append(out, rm)
		}
	}
	return out
}

func powerMeasures(items []ruleMeasure) []ruleMeasure {
	var out []ruleMeasure
	for _, rm := range items {
		if isLowPowerCandidate(rm.class) && rm.measure.ProposedIn != nil {
			out = append(out, rm)
		}
	}
	return out
}

func minCommMidspanIssue(ms *types.Midspan, items []ruleMeasure, required int) []types.Issue {
	comms := commMeasures(items)
	if len(comms) == 0 {
		return nil
	}
	lowest := comms[0].height
	for _, rm := range comms {
		if rm.height < lowest {
			lowest = rm.height
		}
	}
	if lowest >= required {
		return nil
	}

	var offenders []string
	for _, rm := range comms {
		if rm.height == lowest {
			offenders = append(offenders, string(rm.measure.Key()))
		}
	}
	sort.Strings(offenders)

	return []types.Issue{{
		Severity:   types.SeverityFail,
		EntityType: types.EntityMidspan,
		EntityID:   string(ms.ID),
		RuleCode:   "MIDSPAN.MIN_COMM",
		Message:    heightMessage("lowest communications measurement is below the required clearance", lowest, required),
		Context: types.Context{
			"heightIn":   lowest,
			"requiredIn": required,
			"measureIds": offenders,
		},
	}}
}

func minPowerOnlyIssue(ms *types.Midspan, items []ruleMeasure, required int) []types.Issue {
	comms := commMeasures(items)
	if len(comms) != 0 {
		return nil
	}
	powers := powerMeasures(items)
	if len(powers) == 0 {
		return nil
	}
	lowest := powers[0].height
	for _, rm := range powers {
		if rm.height < lowest {
			lowest = rm.height
		}
	}
	minRequired := required + 12
	if lowest >= minRequired {
		return nil
	}

	var offenders []string
	for _, rm := range powers {
		if rm.height == lowest {
			offenders = append(offenders, string(rm.measure.Key()))
		}
	}
	sort.Strings(offenders)

	return []types.Issue{{
		Severity:   types.SeverityFail,
		EntityType: types.EntityMidspan,
		EntityID:   string(ms.ID),
		RuleCode:   "MIDSPAN.MIN_POWER_ONLY",
		Message:    heightMessage("lowest power measurement is below the required clearance for a comm-free midspan", lowest, minRequired),
		Context: types.Context{
			"heightIn":   lowest,
			"requiredIn": minRequired,
			"measureIds": offenders,
		},
	}}
}

func dedupMidspanComms(items []ruleMeasure) []commMeasureEntry {
	idx := make(map[string]int)
	var entries []commMeasureEntry
	for _, rm := range commMeasures(items) {
		key := textnorm.OwnerKey(rm.class.Owner) + "|" + itoaKey(rm.height)
		if i, ok := idx[key]; ok {
			entries[i].ids = append(entries[i].ids, string(rm.measure.Key()))
			continue
		}
		idx[key] = len(entries)
		entries = append(entries, commMeasureEntry{owner: rm.class.Owner, height: rm.height, ids: []string{string(rm.measure.Key())}})
	}
	return entries
}

type commMeasureEntry struct {
	owner  string
	height int
	ids    []string
}

// installingCompanyParticipates reports whether either side of a pair is
// owned by the configured installing company, triggering the elevated
// separation requirement.
func installingCompanyParticipates(a, b commMeasureEntry, installingCompany string) bool {
	if installingCompany == "" {
		return false
	}
	key := textnorm.OwnerKey(installingCompany)
	return textnorm.OwnerKey(a.owner) == key || textnorm.OwnerKey(b.owner) == key
}

func commSepMidspanIssues(ms *types.Midspan, items []ruleMeasure, rules config.MidspanRules) []types.Issue {
	entries := dedupMidspanComms(items)
	installMin := rules.CommSepIn
	if rules.InstallingCompanyCommSepIn > installMin {
		installMin = rules.InstallingCompanyCommSepIn
	}

	var issues []types.Issue
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			delta := abs(a.height - b.height)
			ownerA, ownerB := textnorm.OwnerKey(a.owner), textnorm.OwnerKey(b.owner)
			diffOwner := ownerA != "" && ownerB != "" && ownerA != ownerB

			required := rules.CommSepIn
			if installingCompanyParticipates(a, b, rules.InstallingCompany) {
				required = installMin
			}

			violate := (delta == 0 && diffOwner) || (delta != 0 && delta < required)
			if !violate {
				continue
			}

			ids := append(append([]string{}, a.ids...), b.ids...)
			sort.Strings(ids)
			issues = append(issues, types.Issue{
				Severity:   types.SeverityFail,
				EntityType: types.EntityMidspan,
				EntityID:   string(ms.ID),
				RuleCode:   "MIDSPAN.COMM_SEP",
				Message:    sepMessage("communications measurements are too close together", delta, required),
				Context: types.Context{
					"separationIn": delta,
					"requiredIn":   required,
					"ownerA":       a.owner,
					"ownerB":       b.owner,
					"measureIds":   ids,
				},
			})
		}
	}
	return issues
}

func commToPowerMidspanIssue(ms *types.Midspan, items []ruleMeasure, rules config.MidspanRules) []types.Issue {
	comms := commMeasures(items)
	powers := powerMeasures(items)
	if len(comms) == 0 || len(powers) == 0 {
		return nil
	}

	highComm := comms[0]
	for _, rm := range comms {
		if rm.height > highComm.height {
			highComm = rm
		}
	}
	lowPower := powers[0].height
	for _, rm := range powers {
		if rm.height < lowPower {
			lowPower = rm.height
		}
	}

	sep := lowPower - highComm.height
	required := rules.CommToPowerSepIn
	if highComm.class.IsAdss {
		required = rules.AdssCommToPowerSepIn
	}
	if sep >= required {
		return nil
	}

	return []types.Issue{{
		Severity:   types.SeverityFail,
		EntityType: types.EntityMidspan,
		EntityID:   string(ms.ID),
		RuleCode:   "MIDSPAN.COMM_TO_POWER",
		Message:    sepMessage("communications measurement is too close to power", sep, required),
		Context: types.Context{
			"separationIn": sep,
			"requiredIn":   required,
			"measureIds":   []string{string(highComm.measure.Key())},
		},
	}}
}

func adssTopMidspanIssue(ms *types.Midspan, items []ruleMeasure, rules config.MidspanRules) []types.Issue {
	if !rules.EnforceAdssHighest {
		return nil
	}
	comms := commMeasures(items)
	if len(comms) == 0 {
		return nil
	}

	hasADSS := false
	var highestADSS ruleMeasure
	highest := comms[0]
	for _, rm := range comms {
		if rm.height > highest.height {
			highest = rm
		}
		if rm.class.IsAdss {
			hasADSS = true
			if highestADSS.measure == nil || rm.height > highestADSS.height {
				highestADSS = rm
			}
		}
	}
	if !hasADSS || highest.class.IsAdss {
		return nil
	}

	return []types.Issue{{
		Severity:   types.SeverityFail,
		EntityType: types.EntityMidspan,
		EntityID:   string(ms.ID),
		RuleCode:   "MIDSPAN.ADSS_TOP",
		Message:    "an ADSS communications measurement is present but is not the highest communications measurement",
		Context: types.Context{
			"measureIds": []string{string(highest.measure.Key()), string(highestADSS.measure.Key())},
		},
	}}
}
