package qc

import (
	"sort"
	"strings"

	"katapultqc/pkg/classification"
	"katapultqc/pkg/textnorm"
	"katapultqc/pkg/types"
)

// commGroup is the tallest comm attachment/measure for one normalized owner
// key at a pole or midspan, per spec.md §4.5 step 1. Ties (more than one
// attachment at the maximum height) concatenate their ids.
type commGroup struct {
	owner  string
	height int
	ids    []string
}

func groupComms(keyAndOwner func() []commCandidate) map[string]*commGroup {
	groups := make(map[string]*commGroup)
	for _, c := range keyAndOwner() {
		key := textnorm.OwnerKey(c.owner)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			groups[key] = &commGroup{owner: c.owner, height: c.height, ids: []string{c.id}}
			continue
		}
		switch {
		case c.height > g.height:
			g.height = c.height
			g.ids = []string{c.id}
		case c.height == g.height:
			g.ids = append(g.ids, c.id)
		}
	}
	return groups
}

type commCandidate struct {
	owner  string
	height int
	id     string
}

func poleCommGroups(pole *types.Pole) map[string]*commGroup {
	return groupComms(func() []commCandidate {
		var out []commCandidate
		for _, a := range pole.Attachments {
			h, ok := a.EffectiveHeight()
			if !ok {
				continue
			}
			cls := classification.Classify(classification.FromAttachment(a))
			if cls.Kind != classification.KindComm || cls.IsCommDrop {
				continue
			}
			out = append(out, commCandidate{owner: cls.Owner, height: h, id: a.ID})
		}
		return out
	})
}

func midspanCommGroups(ms *types.Midspan) map[string]*commGroup {
	return groupComms(func() []commCandidate {
		var out []commCandidate
		for _, m := range ms.Measures {
			h, ok := m.EffectiveHeight()
			if !ok {
				continue
			}
			cls := classification.Classify(classification.FromMeasure(m))
			if cls.Kind != classification.KindComm || cls.IsCommDrop {
				continue
			}
			out = append(out, commCandidate{owner: cls.Owner, height: h, id: string(m.Key())})
		}
		return out
	})
}

// connectionEntry is one connection's endpoints and contributing midspans,
// spec.md §4.5 step 2.
type connectionEntry struct {
	aPoleID    *types.PoleID
	bPoleID    *types.PoleID
	midspanIDs []types.MidspanID
}

// buildConnectionIndex scans spans then midspans, preserving first-seen
// order so the ordering pass is reproducible (spec.md §9).
func buildConnectionIndex(job *types.Job) (map[types.ConnectionID]*connectionEntry, []types.ConnectionID) {
	index := make(map[types.ConnectionID]*connectionEntry)
	var order []types.ConnectionID

	get := func(cid types.ConnectionID) *connectionEntry {
		e, ok := index[cid]
		if !ok {
			e = &connectionEntry{}
			index[cid] = e
			order = append(order, cid)
		}
		return e
	}

	for _, span := range job.Spans {
		e := get(span.ConnectionID)
		if span.AIsPole {
			id := types.PoleID(span.ANodeID)
			e.aPoleID = &id
		}
		if span.BIsPole {
			id := types.PoleID(span.BNodeID)
			e.bPoleID = &id
		}
	}

	midspanIDs := make([]types.MidspanID, 0, len(job.Midspans))
	for id := range job.Midspans {
		midspanIDs = append(midspanIDs, id)
	}
	sort.Slice(midspanIDs, func(i, j int) bool { return midspanIDs[i] < midspanIDs[j] })

	for _, id := range midspanIDs {
		ms := job.Midspans[id]
		e := get(ms.ConnectionID)
		e.midspanIDs = append(e.midspanIDs, ms.ID)
		if e.aPoleID == nil && ms.APoleID != nil {
			id := *ms.APoleID
			e.aPoleID = &id
		}
		if e.bPoleID == nil && ms.BPoleID != nil {
			id := *ms.BPoleID
			e.bPoleID = &id
		}
	}

	return index, order
}

// pairOrder reports whether owner x is unambiguously above owner y in a
// group map, and whether the pair is even comparable (both present, not a
// height tie). Ties are "ambiguous" per spec.md §4.5 step 3.
func pairOrder(groups map[string]*commGroup, x, y string) (xAboveY bool, comparable bool) {
	gx, okx := groups[x]
	gy, oky := groups[y]
	if !okx || !oky {
		return false, false
	}
	if gx.height == gy.height {
		return false, false
	}
	return gx.height > gy.height, true
}

func sortedOwnerKeys(groups map[string]*commGroup) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func intersectKeys(a, b map[string]*commGroup) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func pairKey(x, y string) string {
	if x > y {
		x, y = y, x
	}
	return x + "|" + y
}

// dedupSet implements spec.md §4.5's ordering-local dedup key:
// entity|id|ruleCode|connectionId|sortedPairKey.
type dedupSet map[string]bool

func (d dedupSet) seen(entity types.EntityType, id, ruleCode string, cid types.ConnectionID, pk string) bool {
	key := string(entity) + "|" + id + "|" + ruleCode + "|" + string(cid) + "|" + pk
	if d[key] {
		return true
	}
	d[key] = true
	return false
}

// EvaluateOrdering computes the span-ordering diagnostics, spec.md §4.5.
// It returns the ordering issues, keyed by entity so the engine can append
// them to the right per-entity buckets.
func EvaluateOrdering(job *types.Job) []types.Issue {
	index, order := buildConnectionIndex(job)
	dedup := make(dedupSet)

	poleGroups := make(map[types.PoleID]map[string]*commGroup, len(job.Poles))
	for id, pole := range job.Poles {
		poleGroups[id] = poleCommGroups(pole)
	}
	midspanGroups := make(map[types.MidspanID]map[string]*commGroup, len(job.Midspans))
	for id, ms := range job.Midspans {
		midspanGroups[id] = midspanCommGroups(ms)
	}

	var issues []types.Issue

	for _, cid := range order {
		entry := index[cid]
		issues = append(issues, evaluateEndpoints(job, cid, entry, poleGroups, dedup)...)
		issues = append(issues, evaluateConnectionMidspans(job, cid, entry, poleGroups, midspanGroups, dedup)...)
	}

	return issues
}

func evaluateEndpoints(job *types.Job, cid types.ConnectionID, entry *connectionEntry, poleGroups map[types.PoleID]map[string]*commGroup, dedup dedupSet) []types.Issue {
	if entry.aPoleID == nil || entry.bPoleID == nil {
		return nil
	}
	groupsA, okA := poleGroups[*entry.aPoleID]
	groupsB, okB := poleGroups[*entry.bPoleID]
	if !okA || !okB || len(groupsA) < 2 || len(groupsB) < 2 {
		return nil
	}

	var issues []types.Issue
	for _, x := range intersectKeys(groupsA, groupsB) {
		for _, y := range intersectKeys(groupsA, groupsB) {
			if x >= y {
				continue
			}
			aXAboveY, aComparable := pairOrder(groupsA, x, y)
			bXAboveY, bComparable := pairOrder(groupsB, x, y)
			if !aComparable || !bComparable {
				continue
			}
			if aXAboveY == bXAboveY {
				continue
			}

			pk := pairKey(x, y)
			poleA, poleB := job.Poles[*entry.aPoleID], job.Poles[*entry.bPoleID]

			if !dedup.seen(types.EntityPole, string(*entry.aPoleID), "ORDER.COMM.ENDPOINTS", cid, pk) {
				issues = append(issues, endpointIssue(poleA, *entry.bPoleID, cid, groupsA, x, y))
			}
			if !dedup.seen(types.EntityPole, string(*entry.bPoleID), "ORDER.COMM.ENDPOINTS", cid, pk) {
				issues = append(issues, endpointIssue(poleB, *entry.aPoleID, cid, groupsB, x, y))
			}
		}
	}
	return issues
}

func endpointIssue(pole *types.Pole, other types.PoleID, cid types.ConnectionID, groups map[string]*commGroup, x, y string) types.Issue {
	var ids []string
	ids = append(ids, groups[x].ids...)
	ids = append(ids, groups[y].ids...)
	sort.Strings(ids)
	return types.Issue{
		Severity:   types.SeverityFail,
		EntityType: types.EntityPole,
		EntityID:   string(pole.ID),
		EntityName: pole.DisplayName,
		RuleCode:   "ORDER.COMM.ENDPOINTS",
		Message:    "communications ordering at this pole disagrees with the connected pole across the span",
		Context: types.Context{
			"connectionId":  string(cid),
			"other":         string(other),
			"ownerA":        groups[x].owner,
			"ownerB":        groups[y].owner,
			"attachmentIds": ids,
		},
	}
}

// midspanOrder reports whether owner x is unambiguously above owner y in
// this midspan's comm groups.
func midspanOrder(groups map[string]*commGroup, x, y string) (xAboveY bool, comparable bool) {
	return pairOrder(groups, x, y)
}

func evaluateConnectionMidspans(job *types.Job, cid types.ConnectionID, entry *connectionEntry, poleGroups map[types.PoleID]map[string]*commGroup, midspanGroups map[types.MidspanID]map[string]*commGroup, dedup dedupSet) []types.Issue {
	var issues []types.Issue

	var groupsA, groupsB map[string]*commGroup
	if entry.aPoleID != nil {
		groupsA = poleGroups[*entry.aPoleID]
	}
	if entry.bPoleID != nil {
		groupsB = poleGroups[*entry.bPoleID]
	}

	for _, msID := range entry.midspanIDs {
		msGroups := midspanGroups[msID]
		keys := sortedOwnerKeys(msGroups)

		for i := 0; i < len(keys); i++ {
			for j := i + 1; j < len(keys); j++ {
				x, y := keys[i], keys[j]
				msXAboveY, msComparable := midspanOrder(msGroups, x, y)
				if !msComparable {
					continue
				}

				aXAboveY, aComparable := false, false
				if groupsA != nil {
					aXAboveY, aComparable = pairOrder(groupsA, x, y)
				}
				bXAboveY, bComparable := false, false
				if groupsB != nil {
					bXAboveY, bComparable = pairOrder(groupsB, x, y)
				}

				pk := pairKey(x, y)

				switch {
				case aComparable && bComparable:
					if aXAboveY != bXAboveY {
						issues = append(issues, midspanEndpointConflictIssue(job.Midspans[msID], cid, msGroups, x, y, dedup)...)
						continue
					}
					issues = append(issues, compareMidspanToReference(job, msID, cid, msGroups, x, y, msXAboveY, aXAboveY, types.SeverityFail,
						[]types.PoleID{*entry.aPoleID, *entry.bPoleID}, dedup, pk)...)
				case aComparable:
					issues = append(issues, compareMidspanToReference(job, msID, cid, msGroups, x, y, msXAboveY, aXAboveY, types.SeverityWarn,
						[]types.PoleID{*entry.aPoleID}, dedup, pk)...)
				case bComparable:
					issues = append(issues, compareMidspanToReference(job, msID, cid, msGroups, x, y, msXAboveY, bXAboveY, types.SeverityWarn,
						[]types.PoleID{*entry.bPoleID}, dedup, pk)...)
				default:
					// neither endpoint defines an order for this pair; skip
				}
			}
		}
	}
	return issues
}

func midspanEndpointConflictIssue(ms *types.Midspan, cid types.ConnectionID, groups map[string]*commGroup, x, y string, dedup dedupSet) []types.Issue {
	pk := pairKey(x, y)
	if dedup.seen(types.EntityMidspan, string(ms.ID), "ORDER.COMM.MIDSPAN", cid, pk) {
		return nil
	}
	var ids []string
	ids = append(ids, groups[x].ids...)
	ids = append(ids, groups[y].ids...)
	sort.Strings(ids)
	return []types.Issue{{
		Severity:   types.SeverityFail,
		EntityType: types.EntityMidspan,
		EntityID:   string(ms.ID),
		RuleCode:   "ORDER.COMM.MIDSPAN",
		Message:    "the connected poles disagree on communications ordering for this pair of owners",
		Context: types.Context{
			"connectionId": string(cid),
			"ownerA":       groups[x].owner,
			"ownerB":       groups[y].owner,
			"measureIds":   ids,
		},
	}}
}

// compareMidspanToReference checks the midspan's order for (x, y) against a
// reference order derived from one or both endpoint poles; if it differs,
// emits a midspan issue and mirrors a pole issue at every contributing pole.
func compareMidspanToReference(job *types.Job, msID types.MidspanID, cid types.ConnectionID, msGroups map[string]*commGroup, x, y string, msXAboveY, refXAboveY bool, severity types.Severity, contributors []types.PoleID, dedup dedupSet, pk string) []types.Issue {
	if msXAboveY == refXAboveY {
		return nil
	}

	var issues []types.Issue
	ms := job.Midspans[msID]

	if !dedup.seen(types.EntityMidspan, string(msID), "ORDER.COMM.MIDSPAN", cid, pk) {
		var ids []string
		ids = append(ids, msGroups[x].ids...)
		ids = append(ids, msGroups[y].ids...)
		sort.Strings(ids)
		issues = append(issues, types.Issue{
			Severity:   severity,
			EntityType: types.EntityMidspan,
			EntityID:   string(ms.ID),
			RuleCode:   "ORDER.COMM.MIDSPAN",
			Message:    "communications ordering at this midspan disagrees with the ordering established at the connected pole(s)",
			Context: types.Context{
				"connectionId": string(cid),
				"ownerA":       msGroups[x].owner,
				"ownerB":       msGroups[y].owner,
				"measureIds":   ids,
			},
		})
	}

	for _, pid := range contributors {
		if dedup.seen(types.EntityPole, string(pid), "ORDER.COMM.MIDSPAN", cid, pk) {
			continue
		}
		pole := job.Poles[pid]
		if pole == nil {
			continue
		}
		issues = append(issues, types.Issue{
			Severity:   severity,
			EntityType: types.EntityPole,
			EntityID:   string(pid),
			EntityName: pole.DisplayName,
			RuleCode:   "ORDER.COMM.MIDSPAN",
			Message:    "communications ordering established at this pole disagrees with a connected midspan",
			Context: types.Context{
				"connectionId": string(cid),
				"midspanId":    string(msID),
			},
		})
	}
	return issues
}

// hasCommOrderIssue reports whether any issue in the list is an ordering
// diagnostic, spec.md §4.6's hasCommOrderIssue flag.
func hasCommOrderIssue(issues []types.Issue) bool {
	for _, iss := range issues {
		if strings.HasPrefix(iss.RuleCode, "ORDER.COMM") {
			return true
		}
	}
	return false
}
