package interfaces

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"katapultqc/internal/config"
	"katapultqc/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestJSONJobDocumentReader_Parse(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "job.json", `{
		"jobId": "J1",
		"name": "sample",
		"poles": [{
			"poleId": "P1",
			"poleOwner": "Acme Power",
			"attachments": [{
				"id": "a1",
				"category": "Wire",
				"owner": "Comm Co",
				"label": "communication",
				"proposedIn": 216
			}]
		}],
		"midspans": [{
			"midspanId": "M1",
			"connectionId": "C1",
			"aPoleId": "P1",
			"rowTypeRaw": "Rural Farm Road",
			"measures": [{
				"id": "m1",
				"category": "Wire",
				"owner": "Comm Co",
				"label": "communication",
				"proposedInFractional": 211.6
			}]
		}],
		"spans": [{"connectionId": "C1", "aNodeId": "P1", "bNodeId": "M1", "aIsPole": true}]
	}`)

	reader := NewJSONJobDocumentReader(path)
	job, err := reader.Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if job.ID != "J1" || job.Name != "sample" {
		t.Errorf("job identity = %q/%q, want J1/sample", job.ID, job.Name)
	}

	pole, ok := job.Poles["P1"]
	if !ok {
		t.Fatal("expected pole P1")
	}
	if len(pole.Attachments) != 1 || pole.Attachments[0].ProposedIn == nil || *pole.Attachments[0].ProposedIn != 216 {
		t.Errorf("unexpected pole attachments: %+v", pole.Attachments)
	}

	ms, ok := job.Midspans["M1"]
	if !ok {
		t.Fatal("expected midspan M1")
	}
	if ms.RowType != types.RowFarm {
		t.Errorf("RowType = %v, want farm (classified from RowTypeRaw)", ms.RowType)
	}
	if len(ms.Measures) != 1 || ms.Measures[0].ProposedIn == nil || *ms.Measures[0].ProposedIn != 212 {
		t.Errorf("expected fractional height rounded to nearest inch (211.6 -> 212), got %+v", ms.Measures[0])
	}

	meta := reader.Metadata()
	if meta.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2 (one attachment + one measure)", meta.RowCount)
	}
}

func TestJSONJobDocumentReader_MissingFile(t *testing.T) {
	reader := NewJSONJobDocumentReader(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := reader.Parse(); err == nil {
		t.Fatal("expected error for missing job file")
	}
}

func TestLocalRuleStore_SaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	store := NewLocalRuleStore(path)

	want := config.DefaultRules()
	want.Pole.MinLowestCommAttachIn = 250

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Pole.MinLowestCommAttachIn != 250 {
		t.Errorf("MinLowestCommAttachIn = %d, want 250 after round trip", got.Pole.MinLowestCommAttachIn)
	}
}

func TestJSONIssueSink_Write(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "issues.json")
	sink := NewJSONIssueSink(path)

	issues := []types.Issue{
		{Severity: types.SeverityFail, EntityType: types.EntityPole, EntityID: "P1", RuleCode: "POLE.MIN_COMM", Message: "too low"},
	}
	if err := sink.Write(issues); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	var got []types.Issue
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshalling written file: %v", err)
	}
	if len(got) != 1 || got[0].RuleCode != "POLE.MIN_COMM" {
		t.Errorf("round-tripped issues = %+v, want one POLE.MIN_COMM issue", got)
	}
}
