// Package qc implements the three rule evaluators (pole, midspan, ordering)
// and the engine that orchestrates them, per spec.md §4. Each evaluator is
// a pure function over a read-only Model and Rules value, returning an
// owned issue list — no evaluator consults another's output, so per-entity
// tests stay self-contained (spec.md §9, "evaluator isolation").
package qc

import (
	"fmt"
	"sort"
	"strings"

	"katapultqc/internal/config"
	"katapultqc/pkg/classification"
	"katapultqc/pkg/textnorm"
	"katapultqc/pkg/types"
	"katapultqc/pkg/units"
)

// ruleAttachment pairs a pole attachment with its classification and
// effective height, computed once per pole for all the rules below.
type ruleAttachment struct {
	att    *types.Attachment
	class  classification.Classification
	height int
}

// EvaluatePole runs every pole-local rule from spec.md §4.3 and returns the
// derived status plus the issue list. A pole is never consulted against any
// other pole or midspan here — only its own attachments and guys.
func EvaluatePole(pole *types.Pole, rules config.Rules) (types.Status, []types.Issue) {
	var issues []types.Issue

	classified := make([]ruleAttachment, 0, len(pole.Attachments))
	for _, a := range pole.Attachments {
		h, ok := a.EffectiveHeight()
		if !ok {
			continue
		}
		classified = append(classified, ruleAttachment{
			att:    a,
			class:  classification.Classify(classification.FromAttachment(a)),
			height: h,
		})
	}

	issues = append(issues, missingIDIssue(pole)...)
	issues = append(issues, minCommIssue(pole, classified, rules.Pole)...)
	issues = append(issues, commSepIssues(pole, classified, rules.Pole)...)
	issues = append(issues, adssTopIssue(pole, classified, rules.Pole)...)
	issues = append(issues, commToPowerIssues(pole, classified, rules.Pole)...)
	issues = append(issues, commToStreetLightIssues(pole, classified, rules.Pole)...)
	issues = append(issues, holeBufferIssues(pole, classified, rules.Pole)...)
	issues = append(issues, equipMoveIssues(pole, classified, rules.Pole)...)
	issues = append(issues, powerOrderIssue(pole, classified, rules.Pole)...)
	issues = append(issues, nsBelowTransformerIssues(pole, classified, rules.Pole)...)

	return deriveStatus(issues), issues
}

func missingIDIssue(pole *types.Pole) []types.Issue {
	if pole.PoleSpec != "" || pole.PoleTag != "" || pole.SCID != "" {
		return nil
	}
	return []types.Issue{{
		Severity:   types.SeverityWarn,
		EntityType: types.EntityPole,
		EntityID:   string(pole.ID),
		EntityName: pole.DisplayName,
		RuleCode:   "POLE.MISSING_ID",
		Message:    "pole has no poleSpec, poleTag, or scid identifier",
	}}
}

func minCommIssue(pole *types.Pole, items []ruleAttachment, rules config.PoleRules) []types.Issue {
	var comms []ruleAttachment
	for _, ra := range items {
		if ra.class.Kind != classification.KindComm {
			continue
		}
		if ra.att.ProposedIn == nil {
			continue
		}
		comms = append(comms, ra)
	}
	if len(comms) == 0 {
		return nil
	}

	lowest := comms[0].height
	for _, ra := range comms {
		if ra.height < lowest {
			lowest = ra.height
		}
	}
	if lowest >= rules.MinLowestCommAttachIn {
		return nil
	}

	var offenders []string
	for _, ra := range comms {
		if ra.height == lowest {
			offenders = append(offenders, ra.att.ID)
		}
	}
	sort.Strings(offenders)

	return []types.Issue{{
		Severity:   types.SeverityFail,
		EntityType: types.EntityPole,
		EntityID:   string(pole.ID),
		EntityName: pole.DisplayName,
		RuleCode:   "POLE.MIN_COMM",
		Message:    heightMessage("lowest communications attachment is below the required minimum", lowest, rules.MinLowestCommAttachIn),
		Context: types.Context{
			"heightIn":    lowest,
			"requiredIn":  rules.MinLowestCommAttachIn,
			"attachmentIds": offenders,
		},
	}}
}

// commEntry is one (owner, proposedIn) dedup bucket of comm attachments,
// used by the separation checks, spec.md §4.3.
type commEntry struct {
	owner  string
	height int
	ids    []string
}

func dedupComms(items []ruleAttachment) []commEntry {
	idx := make(map[string]int)
	var entries []commEntry
	for _, ra := range items {
		if ra.class.Kind != classification.KindComm {
			continue
		}
		if ra.att.ProposedIn == nil {
			continue
		}
		key := textnorm.OwnerKey(ra.class.Owner) + "|" + itoaKey(ra.height)
		if i, ok := idx[key]; ok {
			entries[i].ids = append(entries[i].ids, ra.att.ID)
			continue
		}
		idx[key] = len(entries)
		entries = append(entries, commEntry{owner: ra.class.Owner, height: ra.height, ids: []string{ra.att.ID}})
	}
	return entries
}

func commSepIssues(pole *types.Pole, items []ruleAttachment, rules config.PoleRules) []types.Issue {
	entries := dedupComms(items)
	var issues []types.Issue

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			delta := abs(a.height - b.height)
			ownerA, ownerB := textnorm.OwnerKey(a.owner), textnorm.OwnerKey(b.owner)

			sameOwner := ownerA != "" && ownerA == ownerB
			diffOwner := ownerA != "" && ownerB != "" && ownerA != ownerB

			switch {
			case sameOwner && delta != 0 && delta < rules.CommSepSameIn:
				issues = append(issues, commSepIssue(pole, "POLE.COMM_SEP_SAME", a, b, delta, rules.CommSepSameIn))
			case diffOwner && delta < rules.CommSepDiffIn:
				issues = append(issues, commSepIssue(pole, "POLE.COMM_SEP_DIFF", a, b, delta, rules.CommSepDiffIn))
			}
		}
	}
	return issues
}

func commSepIssue(pole *types.Pole, ruleCode string, a, b commEntry, delta, required int) types.Issue {
	ids := append(append([]string{}, a.ids...), b.ids...)
	sort.Strings(ids)
	return types.Issue{
		Severity:   types.SeverityFail,
		EntityType: types.EntityPole,
		EntityID:   string(pole.ID),
		EntityName: pole.DisplayName,
		RuleCode:   ruleCode,
		Message:    sepMessage("communications attachments are too close together", delta, required),
		Context: types.Context{
			"separationIn": delta,
			"requiredIn":   required,
			"ownerA":       a.owner,
			"ownerB":       b.owner,
			"attachmentIds": ids,
		},
	}
}

func adssTopIssue(pole *types.Pole, items []ruleAttachment, rules config.PoleRules) []types.Issue {
	if !rules.EnforceAdssHighest {
		return nil
	}
	var comms []ruleAttachment
	for _, ra := range items {
		if ra.class.Kind == classification.KindComm && ra.att.ProposedIn != nil {
			comms = append(comms, ra)
		}
	}
	if len(comms) == 0 {
		return nil
	}

	hasADSS := false
	var highestADSS *ruleAttachment
	highest := comms[0]
	for i, ra := range comms {
		if ra.height > highest.height {
			highest = ra
		}
		if ra.class.IsAdss {
			hasADSS = true
			if highestADSS == nil || ra.height > highestADSS.height {
				highestADSS = &comms[i]
			}
		}
	}
	if !hasADSS || highest.class.IsAdss {
		return nil
	}

	return []types.Issue{{
		Severity:   types.SeverityFail,
		EntityType: types.EntityPole,
		EntityID:   string(pole.ID),
		EntityName: pole.DisplayName,
		RuleCode:   "POLE.ADSS_TOP",
		Message:    "an ADSS communications attachment is present but is not the highest communications attachment",
		Context: types.Context{
			"attachmentIds": []string{highest.att.ID, highestADSS.att.ID},
		},
	}}
}

// isLowPowerCandidate mirrors spec.md §4.3's "lowPower" set: power_* wires
// plus drip loops, excluding streetlight drip loops.
func isLowPowerCandidate(k classification.Classification) bool {
	switch k.Kind {
	case classification.KindPowerPrimary, classification.KindPowerNeutral,
		classification.KindPowerSecondary, classification.KindPowerOther,
		classification.KindPowerDripLoop:
		return true
	}
	return false
}

func commToPowerIssues(pole *types.Pole, items []ruleAttachment, rules config.PoleRules) []types.Issue {
	var powers []ruleAttachment
	for _, ra := range items {
		if isLowPowerCandidate(ra.class) {
			powers = append(powers, ra)
		}
	}
	if len(powers) == 0 {
		return nil
	}
	lowPower := powers[0].height
	for _, ra := range powers {
		if ra.height < lowPower {
			lowPower = ra.height
		}
	}

	mostCommonPowerOwner := mostCommonOwner(powers)

	var issues []types.Issue
	for _, ra := range items {
		facility, isRiserUnknownOwner := commFacility(ra, mostCommonPowerOwner, pole.PoleOwner)
		if !facility {
			continue
		}
		sep := lowPower - ra.height
		required := rules.CommToPowerSepIn
		if ra.class.IsAdss {
			required = rules.AdssCommToPowerSepIn
		}
		if sep >= required {
			continue
		}
		severity := types.SeverityFail
		if isRiserUnknownOwner {
			severity = types.SeverityWarn
		}
		issues = append(issues, types.Issue{
			Severity:   severity,
			EntityType: types.EntityPole,
			EntityID:   string(pole.ID),
			EntityName: pole.DisplayName,
			RuleCode:   "POLE.COMM_TO_POWER",
			Message:    sepMessage("communications facility is too close to power", sep, required),
			Context: types.Context{
				"separationIn":  sep,
				"requiredIn":    required,
				"attachmentIds": []string{ra.att.ID},
			},
		})
	}
	return issues
}

// mostCommonOwner picks the power owner key with the highest attachment
// count among powers. Ties resolve to whichever owner key is first-seen in
// powers' slice order, so the result is stable across runs for a fixed
// (Model, Rules) rather than depending on Go's randomized map iteration.
func mostCommonOwner(powers []ruleAttachment) string {
	counts := make(map[string]int)
	var order []string
	for _, ra := range powers {
		k := textnorm.OwnerKey(ra.class.Owner)
		if k == "" {
			continue
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	best := ""
	bestN := 0
	for _, k := range order {
		if counts[k] > bestN {
			bestN = counts[k]
			best = k
		}
	}
	return best
}

// commFacility decides whether ra is a "comm facility" per spec.md §4.3:
// comms, comm-owned risers, or unknown-owner risers. Power-owned risers are
// excluded. Returns (isFacility, isRiserWithUnknownOwner).
func commFacility(ra ruleAttachment, mostCommonPowerOwner, poleOwner string) (bool, bool) {
	if ra.class.Kind == classification.KindComm {
		return true, false
	}
	if !ra.class.IsRiser {
		return false, false
	}

	ownerKey := textnorm.OwnerKey(ra.class.Owner)
	if ownerKey == "" {
		return true, true
	}

	if mostCommonPowerOwner != "" {
		if ownerKey == mostCommonPowerOwner {
			return false, false
		}
		return true, false
	}

	poleOwnerKey := textnorm.OwnerKey(poleOwner)
	if poleOwnerKey != "" {
		if ownerKey == poleOwnerKey {
			return false, false
		}
		return true, false
	}

	if looksLikePowerOwner(ra.class.Owner) {
		return false, false
	}
	return true, false
}

var powerOwnerTokens = []string{"electric", "power", "energy", "utility", "coop"}

func looksLikePowerOwner(owner string) bool {
	lower := strings.ToLower(owner)
	for _, tok := range powerOwnerTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func commToStreetLightIssues(pole *types.Pole, items []ruleAttachment, rules config.PoleRules) []types.Issue {
	var comms, streetlights []ruleAttachment
	for _, ra := range items {
		switch {
		case ra.class.Kind == classification.KindComm:
			comms = append(comms, ra)
		case ra.class.IsStreetLight:
			streetlights = append(streetlights, ra)
		}
	}

	var issues []types.Issue
	for _, c := range comms {
		for _, sl := range streetlights {
			delta := abs(c.height - sl.height)
			if delta < rules.CommToStreetLightSepIn {
				issues = append(issues, types.Issue{
					Severity:   types.SeverityFail,
					EntityType: types.EntityPole,
					EntityID:   string(pole.ID),
					EntityName: pole.DisplayName,
					RuleCode:   "POLE.COMM_TO_STREETLIGHT",
					Message:    sepMessage("communications attachment is too close to a streetlight", delta, rules.CommToStreetLightSepIn),
					Context: types.Context{
						"separationIn":  delta,
						"requiredIn":    rules.CommToStreetLightSepIn,
						"attachmentIds": sortedIDs(c.att.ID, sl.att.ID),
					},
				})
			}
		}
	}
	return issues
}

func holeBufferIssues(pole *types.Pole, items []ruleAttachment, rules config.PoleRules) []types.Issue {
	if pole.PoleReplacement {
		return nil
	}

	var stationary, moved, movedOrNew []ruleAttachment
	for _, ra := range items {
		if ra.class.IsDripLoop || ra.class.IsCommDrop {
			continue
		}
		if ra.att.ProposedIn == nil {
			continue
		}
		if !ra.att.IsMoved && !ra.att.IsNew {
			stationary = append(stationary, ra)
			continue
		}
		movedOrNew = append(movedOrNew, ra)
		if ra.att.IsMoved && ra.att.ExistingIn != nil {
			moved = append(moved, ra)
		}
	}

	existingHoleHeights := make(map[int]bool)
	for _, ra := range stationary {
		existingHoleHeights[ra.height] = true
	}
	for _, ra := range moved {
		existingHoleHeights[*ra.att.ExistingIn] = true
	}

	var candidates []ruleAttachment
	for _, ra := range movedOrNew {
		if !existingHoleHeights[ra.height] {
			candidates = append(candidates, ra)
		}
	}

	var issues []types.Issue
	seen := make(map[string]bool)
	emit := func(a, b ruleAttachment, delta int) {
		ids := sortedIDs(a.att.ID, b.att.ID)
		key := strings.Join(ids, "|")
		if seen[key] {
			return
		}
		seen[key] = true
		issues = append(issues, types.Issue{
			Severity:   types.SeverityFail,
			EntityType: types.EntityPole,
			EntityID:   string(pole.ID),
			EntityName: pole.DisplayName,
			RuleCode:   "POLE.HOLE_BUFFER",
			Message:    sepMessage("attachment is too close to an existing or vacated bolt hole", delta, rules.MovedHoleBufferIn),
			Context: types.Context{
				"separationIn":  delta,
				"requiredIn":    rules.MovedHoleBufferIn,
				"attachmentIds": ids,
			},
		})
	}

	for _, c := range candidates {
		for _, m := range moved {
			if delta := abs(c.height - *m.att.ExistingIn); delta != 0 && delta < rules.MovedHoleBufferIn {
				emit(c, m, delta)
			}
		}
		for _, s := range stationary {
			if s.att.ID == c.att.ID {
				continue
			}
			if delta := abs(c.height - s.height); delta != 0 && delta < rules.MovedHoleBufferIn {
				emit(c, s, delta)
			}
		}
	}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if delta := abs(candidates[i].height - candidates[j].height); delta != 0 && delta < rules.MovedHoleBufferIn {
				emit(candidates[i], candidates[j], delta)
			}
		}
	}
	return issues
}

func equipMoveIssues(pole *types.Pole, items []ruleAttachment, rules config.PoleRules) []types.Issue {
	if !rules.EnforceEquipmentMove {
		return nil
	}
	var issues []types.Issue
	for _, ra := range items {
		if !ra.att.IsMoved {
			continue
		}
		if ra.att.Category != types.CategoryEquipment {
			continue
		}
		if ra.class.IsDripLoop || ra.class.IsDownGuy || ra.class.IsRiser || ra.class.IsStreetLight {
			continue
		}

		if pole.PoleReplacement && pole.PoleReplacementIsTaller {
			continue
		}

		severity := types.SeverityFail
		if pole.PoleReplacement {
			severity = types.SeverityWarn
		}
		issues = append(issues, types.Issue{
			Severity:   severity,
			EntityType: types.EntityPole,
			EntityID:   string(pole.ID),
			EntityName: pole.DisplayName,
			RuleCode:   "POLE.EQUIP_MOVE",
			Message:    "equipment attachment height was moved",
			Context: types.Context{
				"attachmentIds": []string{ra.att.ID},
			},
		})
	}
	return issues
}

func powerOrderIssue(pole *types.Pole, items []ruleAttachment, rules config.PoleRules) []types.Issue {
	if !rules.EnforcePowerOrder {
		return nil
	}

	var neutrals, secondaries []ruleAttachment
	for _, ra := range items {
		if ra.att.IsNew || ra.att.ExistingIn == nil || ra.att.ProposedIn == nil {
			continue
		}
		switch ra.class.Kind {
		case classification.KindPowerNeutral:
			neutrals = append(neutrals, ra)
		case classification.KindPowerSecondary:
			secondaries = append(secondaries, ra)
		}
	}
	if len(neutrals) == 0 || len(secondaries) == 0 {
		return nil
	}

	maxExisting := func(items []ruleAttachment) int {
		m := *items[0].att.ExistingIn
		for _, ra := range items {
			if *ra.att.ExistingIn > m {
				m = *ra.att.ExistingIn
			}
		}
		return m
	}
	maxProposed := func(items []ruleAttachment) int {
		m := *items[0].att.ProposedIn
		for _, ra := range items {
			if *ra.att.ProposedIn > m {
				m = *ra.att.ProposedIn
			}
		}
		return m
	}

	nME, sME := maxExisting(neutrals), maxExisting(secondaries)
	nMP, sMP := maxProposed(neutrals), maxProposed(secondaries)

	reversed := (sME > nME && nMP > sMP) || (nME > sME && sMP > nMP)
	if !reversed {
		return nil
	}

	var ids []string
	for _, ra := range neutrals {
		ids = append(ids, ra.att.ID)
	}
	for _, ra := range secondaries {
		ids = append(ids, ra.att.ID)
	}
	sort.Strings(ids)

	return []types.Issue{{
		Severity:   types.SeverityFail,
		EntityType: types.EntityPole,
		EntityID:   string(pole.ID),
		EntityName: pole.DisplayName,
		RuleCode:   "POLE.POWER_ORDER",
		Message:    "proposed neutral/secondary order reverses the existing order",
		Context: types.Context{
			"attachmentIds": ids,
		},
	}}
}

func nsBelowTransformerIssues(pole *types.Pole, items []ruleAttachment, rules config.PoleRules) []types.Issue {
	if !rules.EnforceNeutralSecondaryBelowTransformer {
		return nil
	}

	var transformers, neutralsSecondaries []ruleAttachment
	for _, ra := range items {
		if ra.class.IsTransformer {
			transformers = append(transformers, ra)
			continue
		}
		if ra.class.Kind == classification.KindPowerNeutral || ra.class.Kind == classification.KindPowerSecondary {
			neutralsSecondaries = append(neutralsSecondaries, ra)
		}
	}
	if len(transformers) == 0 {
		return nil
	}
	minXfmr := transformers[0].height
	for _, ra := range transformers {
		if ra.height < minXfmr {
			minXfmr = ra.height
		}
	}

	var offenders []string
	for _, ra := range neutralsSecondaries {
		if ra.height >= minXfmr {
			offenders = append(offenders, ra.att.ID)
		}
	}
	if len(offenders) == 0 {
		return nil
	}
	sort.Strings(offenders)

	return []types.Issue{{
		Severity:   types.SeverityFail,
		EntityType: types.EntityPole,
		EntityID:   string(pole.ID),
		EntityName: pole.DisplayName,
		RuleCode:   "POLE.NS_BELOW_XFMR",
		Message:    fmt.Sprintf("neutral/secondary wire is not below the transformer (transformer at %s)", units.FtIn(minXfmr)),
		Context: types.Context{
			"transformerHeightIn": minXfmr,
			"attachmentIds":       offenders,
		},
	}}
}

func deriveStatus(issues []types.Issue) types.Status {
	hasWarn := false
	for _, iss := range issues {
		if iss.Severity == types.SeverityFail {
			return types.StatusFail
		}
		if iss.Severity == types.SeverityWarn {
			hasWarn = true
		}
	}
	if hasWarn {
		return types.StatusWarn
	}
	return types.StatusPass
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sortedIDs(ids ...string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}

func itoaKey(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	if n == 0 {
		if neg {
			return "-0"
		}
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
