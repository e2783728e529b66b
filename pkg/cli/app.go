// Package cli implements the katapultqc command-line entrypoint: flag
// parsing, input validation, and the run/watch loops that wire the job
// reader, rule store, and QC engine together. Mirrors the shape of the
// teacher's App (a Config built from argv, a Run method dispatching on it)
// stripped to the one command this domain needs.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"katapultqc/internal/config"
	"katapultqc/internal/interfaces"
	"katapultqc/internal/metrics"
	"katapultqc/internal/qc"
	"katapultqc/pkg/logging"
	"katapultqc/pkg/types"
)

// Config is the parsed command line: the job and rules documents to load,
// where (if anywhere) to write the resulting issues, and the optional
// watch/metrics knobs.
type Config struct {
	JobPath     string
	RulesPath   string
	OutputPath  string
	Watch       bool
	MetricsAddr string
	Quiet       bool
}

// App runs one QC evaluation, or watches the rules file and re-runs on
// every change, per spec.md §5 and §9.
type App struct {
	config *Config
	logger *logging.Logger
}

// NewApp parses os.Args[1:] into a Config and validates the paths it names.
func NewApp() (*App, error) {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		return nil, err
	}
	return &App{
		config: cfg,
		logger: logging.NewLogger("katapultqc", logging.INFO, false),
	}, nil
}

func parseArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("katapultqc", flag.ContinueOnError)
	cfg := &Config{}
	fs.StringVar(&cfg.JobPath, "job", "", "path to the job document (JSON)")
	fs.StringVar(&cfg.RulesPath, "rules", "", "path to the rules document (JSON); defaults to built-in defaults if omitted")
	fs.StringVar(&cfg.OutputPath, "out", "", "path to write the resulting issue list (JSON); printed to stdout if omitted")
	fs.BoolVar(&cfg.Watch, "watch", false, "watch the rules file and re-run on every change")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "address to serve Prometheus /metrics on, e.g. :9090 (disabled if empty)")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "suppress the human-readable summary; useful with -out")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.JobPath == "" {
		return nil, fmt.Errorf("missing required -job flag")
	}
	if err := validateFilePath(cfg.JobPath, "job"); err != nil {
		return nil, err
	}
	if cfg.RulesPath != "" {
		if err := validateFilePath(cfg.RulesPath, "rules"); err != nil {
			return nil, err
		}
	}
	if cfg.OutputPath != "" {
		if err := validateOutputPath(cfg.OutputPath); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// PrintUsageExamples prints a short usage banner, shown when the command
// line cannot be parsed or fails validation.
func PrintUsageExamples() {
	fmt.Println("katapultqc - joint-use pole attachment quality control")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  katapultqc -job job.json [-rules rules.json] [-out issues.json]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  katapultqc -job survey.json")
	fmt.Println("  katapultqc -job survey.json -rules rules.json -out issues.json")
	fmt.Println("  katapultqc -job survey.json -rules rules.json -watch -metrics-addr :9090")
}

// Run loads the job and rules documents, evaluates them, and either prints
// or writes the resulting issues. With -watch it keeps running, re-evaluating
// the same job every time the rules document changes.
func (a *App) Run() error {
	var collector *metrics.Collector
	if a.config.MetricsAddr != "" {
		collector = metrics.New("katapultqc")
		go func() {
			ctx := context.Background()
			if err := collector.Serve(ctx, a.config.MetricsAddr, "/metrics"); err != nil {
				a.logger.Error("metrics server stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
		a.logger.Info("metrics endpoint enabled", map[string]interface{}{"addr": a.config.MetricsAddr})
	}

	reader := interfaces.NewJSONJobDocumentReader(a.config.JobPath)
	job, err := reader.Parse()
	if err != nil {
		return fmt.Errorf("loading job document: %w", err)
	}

	rules, err := a.loadRules()
	if err != nil {
		return err
	}

	if !a.config.Watch {
		return a.runOnce(job, rules, collector)
	}

	return a.watchAndRun(job, collector)
}

func (a *App) loadRules() (config.Rules, error) {
	if a.config.RulesPath == "" {
		return config.DefaultRules(), nil
	}
	store := interfaces.NewLocalRuleStore(a.config.RulesPath)
	rules, err := store.Load()
	if err != nil {
		a.logger.Warn("rules document unreadable or malformed, using default rules", map[string]interface{}{
			"path":  a.config.RulesPath,
			"error": err.Error(),
		})
	}
	return rules, nil
}

func (a *App) runOnce(job *types.Job, rules config.Rules, collector *metrics.Collector) error {
	start := time.Now()
	result := qc.RunQC(job, rules)
	duration := time.Since(start)

	if collector != nil {
		collector.ObserveRun(duration, len(job.Poles), len(job.Midspans), result.Issues, statusMap(result.PolesByID), midspanStatusMap(result.MidspansByID))
	}

	if a.config.OutputPath != "" {
		sink := interfaces.NewJSONIssueSink(a.config.OutputPath)
		if err := sink.Write(result.Issues); err != nil {
			return fmt.Errorf("writing issues: %w", err)
		}
	} else if !a.config.Quiet {
		printIssues(result.Issues)
	}

	if !a.config.Quiet {
		printSummary(result.Summary, duration)
	}

	if result.Summary.Issues.Fail > 0 && !a.config.Watch {
		os.Exit(1)
	}
	return nil
}

// watchAndRun re-runs runOnce every time the rules document changes,
// serializing reloads so no two evaluations run concurrently (spec.md §5).
func (a *App) watchAndRun(job *types.Job, collector *metrics.Collector) error {
	if a.config.RulesPath == "" {
		return fmt.Errorf("-watch requires -rules to name a file to watch")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	onReload := func(rules config.Rules) {
		a.logger.Info("rules reloaded, re-running evaluation", nil)
		if err := a.runOnce(job, rules, collector); err != nil {
			a.logger.Error("evaluation failed", map[string]interface{}{"error": err.Error()})
		}
	}

	rules, err := a.loadRules()
	if err != nil {
		return err
	}
	if err := a.runOnce(job, rules, collector); err != nil {
		a.logger.Error("evaluation failed", map[string]interface{}{"error": err.Error()})
	}

	watcher, err := config.NewRulesWatcher(a.config.RulesPath, 500*time.Millisecond, onReload)
	if err != nil {
		return fmt.Errorf("starting rules watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("starting rules watcher: %w", err)
	}
	defer watcher.Stop()

	<-ctx.Done()
	a.logger.Info("shutting down", nil)
	return nil
}

func statusMap(byID map[types.PoleID]qc.EntityResult) map[string]types.Status {
	m := make(map[string]types.Status, len(byID))
	for id, r := range byID {
		m[string(id)] = r.Status
	}
	return m
}

func midspanStatusMap(byID map[types.MidspanID]qc.EntityResult) map[string]types.Status {
	m := make(map[string]types.Status, len(byID))
	for id, r := range byID {
		m[string(id)] = r.Status
	}
	return m
}

func printIssues(issues []types.Issue) {
	if len(issues) == 0 {
		fmt.Println("no issues found")
		return
	}
	for _, iss := range issues {
		fmt.Printf("[%s] %s %s: %s (%s)\n", iss.Severity, iss.EntityType, iss.EntityID, iss.Message, iss.RuleCode)
	}
}

func printSummary(s qc.Summary, duration time.Duration) {
	fmt.Println()
	fmt.Printf("poles:    pass=%d warn=%d fail=%d unknown=%d\n", s.Poles.Pass, s.Poles.Warn, s.Poles.Fail, s.Poles.Unknown)
	fmt.Printf("midspans: pass=%d warn=%d fail=%d unknown=%d\n", s.Midspans.Pass, s.Midspans.Warn, s.Midspans.Fail, s.Midspans.Unknown)
	fmt.Printf("issues:   warn=%d fail=%d\n", s.Issues.Warn, s.Issues.Fail)
	fmt.Printf("evaluated in %s\n", duration.Round(time.Microsecond))
}
