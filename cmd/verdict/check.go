package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/verdict-tools/verdict/internal/cache"
	"github.com/verdict-tools/verdict/internal/changes"
	"github.com/verdict-tools/verdict/internal/monitor"
	"github.com/verdict-tools/verdict/internal/output"
	"github.com/verdict-tools/verdict/internal/progress"
	"github.com/verdict-tools/verdict/internal/vcs"
	"github.com/verdict-tools/verdict/pkg/analyzer"
	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/orchestrator"
	"github.com/verdict-tools/verdict/pkg/scoring"
)

// errGateFailed signals a completed run whose score fell below the
// threshold. main exits non-zero without printing it; the report has
// already told the user.
var errGateFailed = errors.New("quality gate failed")

var (
	checkFormat   string
	checkOutput   string
	checkMinScore float64
	checkNoCache  bool
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Score the codebase and enforce the quality gate",
	Long: `Check runs every enabled analyzer over the given paths (default: the
current directory), combines the category scores into a weighted
overall score, and exits non-zero when the gate fails.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "", "Output format: text, json, or markdown")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "", "Write the report to a file instead of stdout")
	checkCmd.Flags().Float64Var(&checkMinScore, "min-score", 0, "Override the configured passing threshold")
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "Bypass the result cache for this run")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	spinner := progress.NewSpinner("Scanning", quiet)
	files, err := collectFiles(cfg, getPaths(args))
	if err != nil {
		spinner.FinishError(err)
		return err
	}
	spinner.FinishSuccess()
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	threshold := cfg.Scoring.PassingThreshold
	if cmd.Flags().Changed("min-score") {
		threshold = checkMinScore
	}

	resultCache := cache.Disabled()
	if cfg.Cache.Enabled && !checkNoCache {
		c, err := cache.New(cfg.Cache.Dir,
			cache.WithTTL(cfg.Cache.TTL()),
			cache.WithMaxEntries(cfg.Cache.MaxEntries),
			cache.WithLogger(log),
		)
		if err != nil {
			log.Warn("cache unavailable, continuing without it", "error", err)
		} else {
			resultCache = c
		}
	}

	headCommit, err := vcs.HeadCommit(".")
	if err != nil {
		log.Warn("could not resolve HEAD commit", "error", err)
	}

	categories := cfg.Analyzers.EnabledCategories()
	bar := progress.New(fmt.Sprintf("Analyzing %d files", len(files)), len(categories), quiet)

	opts := []orchestrator.Option{
		orchestrator.WithLogger(log),
		orchestrator.WithProgress(func(models.Category) { bar.Tick() }),
		orchestrator.WithCache(resultCache),
		orchestrator.WithDetector(changes.New(changes.WithRecordPath(cfg.Baseline.Path))),
		orchestrator.WithMonitor(monitor.New(monitor.Thresholds{
			MaxRunDuration:  time.Duration(cfg.Monitor.MaxRunSeconds) * time.Second,
			MinCacheHitRate: cfg.Monitor.MinCacheHitRate,
		}, log)),
		orchestrator.WithEngine(scoring.NewEngine(
			scoring.WithWeights(cfg.Scoring.WeightsByCategory()),
			scoring.WithPassingThreshold(threshold),
			scoring.WithLogger(log),
		)),
		orchestrator.WithCategories(categories),
		orchestrator.WithBuildInfo(version, headCommit),
	}
	for _, cat := range models.AllCategories() {
		s := cfg.Analyzers.ForCategory(cat)
		opts = append(opts, orchestrator.WithAnalyzerConfig(cat, analyzer.Config{
			Enabled:       s.Enabled,
			Timeout:       s.Timeout(),
			RetryAttempts: s.RetryAttempts,
			Thresholds:    s.Thresholds,
		}))
	}
	orch := orchestrator.New(orchestrator.NewDefaultRegistry(log), opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, perf, err := orch.Run(ctx, files)
	if err != nil {
		bar.FinishError(err)
		return err
	}
	bar.FinishSuccess()

	format := checkFormat
	if format == "" {
		format = cfg.Output.Format
	}
	formatter, err := output.NewFormatter(output.ParseFormat(format), checkOutput, cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	report := output.NewGateReport(result, perf, verbose || cfg.Output.Verbose)
	if err := formatter.Output(report); err != nil {
		return err
	}

	if result.Overall.Status == models.StatusFail {
		return errGateFailed
	}
	return nil
}
