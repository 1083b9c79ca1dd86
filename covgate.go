package covgate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sirupsen/logrus"

	"github.com/steve-kaufman/simple-rust-cov/artifacts"
	"github.com/steve-kaufman/simple-rust-cov/cargo"
	"github.com/steve-kaufman/simple-rust-cov/llvm"
	"github.com/steve-kaufman/simple-rust-cov/metrics"
	"github.com/steve-kaufman/simple-rust-cov/proc"
)

// Covgate drives the coverage pipeline: instrumented test run, profile
// merge, test binary discovery, coverage report, and the threshold gate.
// Strictly sequential; any stage failure aborts the run.
type Covgate struct {
	cfg   *Config
	log   logrus.FieldLogger
	runID string

	store    *artifacts.Store
	cargo    *cargo.Cargo
	profdata *llvm.Profdata
	cov      *llvm.Cov

	stdout io.Writer
}

// New wires the pipeline stages onto the given process runner. All external
// tool invocations go through runner, so tests can substitute a fake.
func New(cfg *Config, runner proc.Runner, stdout io.Writer) *Covgate {
	runID := uuid.New().String()
	log := cfg.Log.WithField("run_id", runID)

	return &Covgate{
		cfg:      cfg,
		log:      log,
		runID:    runID,
		store:    artifacts.NewStore(cfg.ProjectDir, cfg.ArtifactDir),
		cargo:    cargo.New(cfg.CargoBinary, cfg.ProjectDir, runner, log),
		profdata: llvm.NewProfdata(cfg.ProfdataBinary, runner, log),
		cov:      llvm.NewCov(cfg.CovBinary, runner, log),
		stdout:   stdout,
	}
}

// RunID returns the unique identifier of this run, used in logs and metrics.
func (g *Covgate) RunID() string {
	return g.runID
}

// Run executes the whole pipeline. It returns nil when every threshold is
// met, a ThresholdError when parsed coverage falls short, and a RuntimeError
// when any stage fails.
func (g *Covgate) Run(ctx context.Context) error {
	g.log.WithField("project", g.cfg.ProjectDir).Info("starting coverage gate")
	defer g.writeMetrics()

	if err := g.stage("test", func() error {
		return g.cargo.Test(ctx)
	}); err != nil {
		return NewRuntimeError(err)
	}

	if err := g.stage("merge", func() error {
		return g.mergeProfile(ctx)
	}); err != nil {
		return NewRuntimeError(err)
	}

	var binaries []string
	if err := g.stage("discover", func() error {
		var err error
		binaries, err = g.cargo.TestBinaries(ctx)
		return err
	}); err != nil {
		return NewRuntimeError(err)
	}

	var summary llvm.Summary
	if err := g.stage("report", func() error {
		var err error
		summary, err = g.report(ctx, binaries)
		return err
	}); err != nil {
		return NewRuntimeError(err)
	}

	return g.gate(summary)
}

// stage runs fn, logging and recording its duration.
func (g *Covgate) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.RecordStage(g.runID, name, elapsed)

	if err != nil {
		g.log.WithField("stage", name).WithField("duration", elapsed).Error("stage failed")
		return err
	}
	g.log.WithField("stage", name).WithField("duration", elapsed).Debug("stage complete")
	return nil
}

// mergeProfile rebuilds the artifact dir, merges every raw fragment into the
// merged profile, and purges the consumed fragments so they can't leak into
// a later run.
func (g *Covgate) mergeProfile(ctx context.Context) error {
	if err := g.store.Reset(); err != nil {
		return err
	}

	fragments, err := g.store.Fragments()
	if err != nil {
		return err
	}

	if err := g.profdata.Merge(ctx, g.cfg.ProjectDir, fragments, g.store.ProfilePath()); err != nil {
		return err
	}

	purged, err := g.store.PurgeFragments()
	if err != nil {
		return err
	}
	g.log.WithField("count", purged).Debug("purged raw profile fragments")
	return nil
}

// report runs the coverage summarization tool, echoes its output for human
// visibility, and parses the aggregate percentages.
func (g *Covgate) report(ctx context.Context, binaries []string) (llvm.Summary, error) {
	stdout, stderr, err := g.cov.Report(ctx,
		g.cfg.ProjectDir, g.store.ProfilePath(), binaries, g.cfg.IgnoreFilenameRegex)
	if err != nil {
		return llvm.Summary{}, err
	}

	fmt.Fprintln(g.stdout, stdout)
	fmt.Fprintln(g.stdout, stderr)

	return llvm.ParseSummary(stdout)
}

// gate evaluates the summary against the configured minimums, records the
// outcome, and renders the result table.
func (g *Covgate) gate(summary llvm.Summary) error {
	metrics.RecordCoverage(g.runID, summary.LineCoverage, summary.BranchCoverage)

	result := Evaluate(summary, g.cfg.MinLineCoverage, g.cfg.MinBranchCoverage)
	g.printResultsTable(result)

	if !result.Passed() {
		metrics.RecordResult(g.runID, "fail")
		return NewThresholdError(result.Violations)
	}

	metrics.RecordResult(g.runID, "pass")
	fmt.Fprintln(g.stdout, "SUCCESS - All coverage requirements met")
	return nil
}

func (g *Covgate) writeMetrics() {
	if g.cfg.MetricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(g.cfg.MetricsTextfile); err != nil {
		g.log.WithError(err).Warn("failed to write metrics textfile")
	}
}

// printResultsTable renders a per-metric observed/required comparison.
func (g *Covgate) printResultsTable(result GateResult) {
	violated := map[string]bool{}
	for _, v := range result.Violations {
		violated[v.Metric] = true
	}

	t := table.NewWriter()
	t.SetOutputMirror(g.stdout)
	t.SetTitle("Coverage Gate")
	t.AppendHeader(table.Row{"Metric", "Observed", "Required", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Observed", Align: text.AlignRight},
		{Name: "Required", Align: text.AlignRight},
	})

	t.AppendRow(table.Row{
		"Line",
		formatPct(result.Summary.LineCoverage),
		formatPct(g.cfg.MinLineCoverage),
		statusString(!violated["line"]),
	})
	t.AppendRow(table.Row{
		"Branch",
		formatPct(result.Summary.BranchCoverage),
		formatPct(g.cfg.MinBranchCoverage),
		statusString(!violated["branch"]),
	})

	if result.Passed() {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.Render()
}

func formatPct(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

func statusString(ok bool) string {
	if ok {
		return "✓ pass"
	}
	return "✗ fail"
}
