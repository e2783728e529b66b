package qc

import (
	"sort"
	"strings"

	"katapultqc/internal/config"
	"katapultqc/pkg/types"
)

// EntityResult is the per-pole or per-midspan outcome the engine reports.
type EntityResult struct {
	Status            types.Status
	Issues            []types.Issue
	HasCommOrderIssue bool
}

// Summary tallies pass/warn/fail/unknown counts across poles and midspans,
// plus total warn/fail issue counts, spec.md §6.
type Summary struct {
	Poles    StatusCounts
	Midspans StatusCounts
	Issues   IssueCounts
}

// StatusCounts is a pass/warn/fail/unknown tally.
type StatusCounts struct {
	Pass    int
	Warn    int
	Fail    int
	Unknown int
}

// IssueCounts is a warn/fail tally across the whole issue list.
type IssueCounts struct {
	Warn int
	Fail int
}

// QcResult is the engine's full output, spec.md §6.
type QcResult struct {
	PolesByID    map[types.PoleID]EntityResult
	MidspansByID map[types.MidspanID]EntityResult
	Issues       []types.Issue
	Summary      Summary
}

// RunQC orchestrates the pole, midspan, and span-ordering evaluators over a
// Job and produces the deduplicated, status-derived QcResult. It is pure:
// calling it twice with the same Job and Rules yields byte-identical output
// after sorting by the canonical key (spec.md §8, determinism).
func RunQC(job *types.Job, rules config.Rules) QcResult {
	polePoleIDs := make([]types.PoleID, 0, len(job.Poles))
	for id := range job.Poles {
		polePoleIDs = append(polePoleIDs, id)
	}
	sort.Slice(polePoleIDs, func(i, j int) bool { return polePoleIDs[i] < polePoleIDs[j] })

	midspanIDs := make([]types.MidspanID, 0, len(job.Midspans))
	for id := range job.Midspans {
		midspanIDs = append(midspanIDs, id)
	}
	sort.Slice(midspanIDs, func(i, j int) bool { return midspanIDs[i] < midspanIDs[j] })

	poleIssues := make(map[types.PoleID][]types.Issue, len(polePoleIDs))
	midspanIssues := make(map[types.MidspanID][]types.Issue, len(midspanIDs))

	var allIssues []types.Issue

	for _, id := range polePoleIDs {
		_, issues := EvaluatePole(job.Poles[id], rules)
		poleIssues[id] = append(poleIssues[id], issues...)
		allIssues = append(allIssues, issues...)
	}

	for _, id := range midspanIDs {
		_, issues := EvaluateMidspan(job.Midspans[id], rules)
		midspanIssues[id] = append(midspanIssues[id], issues...)
		allIssues = append(allIssues, issues...)
	}

	orderingIssues := EvaluateOrdering(job)
	for _, iss := range orderingIssues {
		allIssues = append(allIssues, iss)
		switch iss.EntityType {
		case types.EntityPole:
			pid := types.PoleID(iss.EntityID)
			poleIssues[pid] = append(poleIssues[pid], iss)
		case types.EntityMidspan:
			mid := types.MidspanID(iss.EntityID)
			midspanIssues[mid] = append(midspanIssues[mid], iss)
		}
	}

	allIssues = dedupIssues(allIssues)

	polesByID := make(map[types.PoleID]EntityResult, len(polePoleIDs))
	var summary Summary
	for _, id := range polePoleIDs {
		issues := dedupIssues(poleIssues[id])
		status := deriveStatus(issues)
		polesByID[id] = EntityResult{
			Status:            status,
			Issues:            issues,
			HasCommOrderIssue: hasCommOrderIssue(issues),
		}
		tallyStatus(&summary.Poles, status)
	}

	midspansByID := make(map[types.MidspanID]EntityResult, len(midspanIDs))
	for _, id := range midspanIDs {
		issues := dedupIssues(midspanIssues[id])
		status := deriveStatus(issues)
		midspansByID[id] = EntityResult{
			Status:            status,
			Issues:            issues,
			HasCommOrderIssue: hasCommOrderIssue(issues),
		}
		tallyStatus(&summary.Midspans, status)
	}

	for _, iss := range allIssues {
		switch iss.Severity {
		case types.SeverityWarn:
			summary.Issues.Warn++
		case types.SeverityFail:
			summary.Issues.Fail++
		}
	}

	return QcResult{
		PolesByID:    polesByID,
		MidspansByID: midspansByID,
		Issues:       allIssues,
		Summary:      summary,
	}
}

func tallyStatus(c *StatusCounts, status types.Status) {
	switch status {
	case types.StatusPass:
		c.Pass++
	case types.StatusWarn:
		c.Warn++
	case types.StatusFail:
		c.Fail++
	default:
		c.Unknown++
	}
}

// dedupIssues applies the global dedup key from spec.md §4.6:
// (severity, entityType, entityId, ruleCode, message, sorted attachmentIds,
// sorted measureIds). Running it twice on its own output is a no-op
// (spec.md §8, dedup idempotence).
func dedupIssues(issues []types.Issue) []types.Issue {
	seen := make(map[string]bool, len(issues))
	out := make([]types.Issue, 0, len(issues))
	for _, iss := range issues {
		key := dedupKey(iss)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, iss)
	}
	return out
}

func dedupKey(iss types.Issue) string {
	attach := append([]string{}, iss.AttachmentIDs()...)
	sort.Strings(attach)
	measure := append([]string{}, iss.MeasureIDs()...)
	sort.Strings(measure)
	return strings.Join([]string{
		string(iss.Severity),
		string(iss.EntityType),
		iss.EntityID,
		iss.RuleCode,
		iss.Message,
		strings.Join(attach, ","),
		strings.Join(measure, ","),
	}, "\x1f")
}
