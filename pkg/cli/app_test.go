package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseArgs_RequiresJobFlag(t *testing.T) {
	if _, err := parseArgs([]string{}); err == nil {
		t.Fatal("expected error when -job is omitted")
	}
}

func TestParseArgs_ValidJobOnly(t *testing.T) {
	tmpDir := t.TempDir()
	job := filepath.Join(tmpDir, "job.json")
	if err := os.WriteFile(job, []byte(`{"jobId":"J1"}`), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := parseArgs([]string{"-job", job})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if cfg.JobPath != job {
		t.Errorf("JobPath = %q, want %q", cfg.JobPath, job)
	}
	if cfg.Watch {
		t.Error("Watch should default to false")
	}
}

func TestParseArgs_RejectsBadRulesExtension(t *testing.T) {
	tmpDir := t.TempDir()
	job := filepath.Join(tmpDir, "job.json")
	os.WriteFile(job, []byte(`{}`), 0644)
	rules := filepath.Join(tmpDir, "rules.txt")
	os.WriteFile(rules, []byte(`{}`), 0644)

	if _, err := parseArgs([]string{"-job", job, "-rules", rules}); err == nil {
		t.Fatal("expected error for non-.json rules file")
	}
}

func TestParseArgs_AllFlags(t *testing.T) {
	tmpDir := t.TempDir()
	job := filepath.Join(tmpDir, "job.json")
	os.WriteFile(job, []byte(`{}`), 0644)
	rules := filepath.Join(tmpDir, "rules.json")
	os.WriteFile(rules, []byte(`{}`), 0644)
	out := filepath.Join(tmpDir, "out", "issues.json")

	cfg, err := parseArgs([]string{
		"-job", job,
		"-rules", rules,
		"-out", out,
		"-watch",
		"-metrics-addr", ":9090",
		"-quiet",
	})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if !cfg.Watch || !cfg.Quiet || cfg.MetricsAddr != ":9090" || cfg.OutputPath != out {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
