package qc

import (
	"reflect"
	"testing"

	"katapultqc/internal/config"
	"katapultqc/pkg/types"
)

func sampleJob() *types.Job {
	job := types.NewJob("J1", "sample")
	job.Poles["P1"] = &types.Pole{
		ID: "P1",
		Attachments: []*types.Attachment{
			attachment("A1", types.CategoryWire, "Comm Co", "communication", 180),
		},
	}
	job.Midspans["M1"] = &types.Midspan{
		ID:         "M1",
		RowTypeRaw: "default",
		RowType:    types.RowDefault,
		Measures: []*types.Measure{
			measure("m1", types.CategoryWire, "Comm Co", "communication", 180),
		},
	}
	return job
}

func TestRunQC_Determinism(t *testing.T) {
	job := sampleJob()
	rules := config.DefaultRules()

	r1 := RunQC(job, rules)
	r2 := RunQC(job, rules)

	if !reflect.DeepEqual(r1.Summary, r2.Summary) {
		t.Errorf("summary differs across runs: %+v vs %+v", r1.Summary, r2.Summary)
	}
	if len(r1.Issues) != len(r2.Issues) {
		t.Errorf("issue count differs across runs: %d vs %d", len(r1.Issues), len(r2.Issues))
	}
}

func TestRunQC_DedupIdempotence(t *testing.T) {
	job := sampleJob()
	rules := config.DefaultRules()
	result := RunQC(job, rules)

	once := dedupIssues(result.Issues)
	twice := dedupIssues(once)

	if len(once) != len(twice) {
		t.Errorf("dedup is not idempotent: %d vs %d", len(once), len(twice))
	}
}

func TestRunQC_PerEntityResultsAndSummary(t *testing.T) {
	job := sampleJob()
	rules := config.DefaultRules()
	result := RunQC(job, rules)

	poleResult, ok := result.PolesByID["P1"]
	if !ok {
		t.Fatal("expected P1 in PolesByID")
	}
	if poleResult.Status != types.StatusFail {
		t.Errorf("P1 status = %v, want fail (comm below minLowestCommAttachIn)", poleResult.Status)
	}

	msResult, ok := result.MidspansByID["M1"]
	if !ok {
		t.Fatal("expected M1 in MidspansByID")
	}
	if msResult.Status != types.StatusFail {
		t.Errorf("M1 status = %v, want fail (comm below reqComm)", msResult.Status)
	}

	if result.Summary.Poles.Fail != 1 {
		t.Errorf("Summary.Poles.Fail = %d, want 1", result.Summary.Poles.Fail)
	}
	if result.Summary.Midspans.Fail != 1 {
		t.Errorf("Summary.Midspans.Fail = %d, want 1", result.Summary.Midspans.Fail)
	}
	if result.Summary.Issues.Fail == 0 {
		t.Error("expected at least one FAIL issue counted in summary")
	}
}

func TestRunQC_EmptyJobProducesEmptySummary(t *testing.T) {
	job := types.NewJob("empty", "empty")
	rules := config.DefaultRules()

	result := RunQC(job, rules)

	if len(result.Issues) != 0 {
		t.Errorf("expected no issues for empty job, got %+v", result.Issues)
	}
	if result.Summary.Poles.Pass+result.Summary.Poles.Warn+result.Summary.Poles.Fail+result.Summary.Poles.Unknown != 0 {
		t.Error("expected zero pole tallies for empty job")
	}
}
