// Package orchestrator runs the configured analyzers concurrently over
// one file set and combines their results into a scored gate verdict.
// Analyzer failures are isolated: one crashing or timing out analyzer
// degrades its category instead of aborting the run.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/sourcegraph/conc/pool"
	"github.com/verdict-tools/verdict/internal/cache"
	"github.com/verdict-tools/verdict/internal/changes"
	"github.com/verdict-tools/verdict/internal/hashing"
	"github.com/verdict-tools/verdict/internal/monitor"
	"github.com/verdict-tools/verdict/pkg/analyzer"
	"github.com/verdict-tools/verdict/pkg/analyzer/architecture"
	"github.com/verdict-tools/verdict/pkg/analyzer/coverage"
	"github.com/verdict-tools/verdict/pkg/analyzer/quality"
	"github.com/verdict-tools/verdict/pkg/analyzer/security"
	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/scoring"
	"github.com/verdict-tools/verdict/pkg/source"
)

// Tool is the name stamped into run metadata.
const Tool = "verdict"

// NewDefaultRegistry returns a registry with the four built-in
// analyzers registered under their category names.
func NewDefaultRegistry(log hclog.Logger) *analyzer.Registry {
	r := analyzer.NewRegistry(log)
	r.Register(string(models.CategoryQuality), func(cfg analyzer.Config) analyzer.Analyzer { return quality.New(cfg) })
	r.Register(string(models.CategoryCoverage), func(cfg analyzer.Config) analyzer.Analyzer { return coverage.New(cfg) })
	r.Register(string(models.CategoryArchitecture), func(cfg analyzer.Config) analyzer.Analyzer { return architecture.New(cfg) })
	r.Register(string(models.CategorySecurity), func(cfg analyzer.Config) analyzer.Analyzer { return security.New(cfg) })
	return r
}

// Orchestrator wires the registry, cache, change detector, monitor, and
// scoring engine into one pipeline.
type Orchestrator struct {
	registry   *analyzer.Registry
	cache      *cache.Cache
	detector   *changes.Detector
	monitor    *monitor.Monitor
	engine     *scoring.Engine
	src        source.ContentSource
	log        hclog.Logger
	categories []models.Category
	configs    map[models.Category]analyzer.Config
	version    string
	commit     string
	onDone     func(models.Category)
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithCache sets the result cache. Defaults to a disabled cache.
func WithCache(c *cache.Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithDetector sets the change detector.
func WithDetector(d *changes.Detector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

// WithMonitor sets the performance monitor.
func WithMonitor(m *monitor.Monitor) Option {
	return func(o *Orchestrator) { o.monitor = m }
}

// WithEngine sets the scoring engine.
func WithEngine(e *scoring.Engine) Option {
	return func(o *Orchestrator) { o.engine = e }
}

// WithSource sets where analyzers read file content from.
func WithSource(src source.ContentSource) Option {
	return func(o *Orchestrator) { o.src = src }
}

// WithLogger sets the structured logger.
func WithLogger(log hclog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithCategories restricts the run to the given categories, in order.
func WithCategories(cats []models.Category) Option {
	return func(o *Orchestrator) { o.categories = cats }
}

// WithAnalyzerConfig overrides the config for one category.
func WithAnalyzerConfig(cat models.Category, cfg analyzer.Config) Option {
	return func(o *Orchestrator) { o.configs[cat] = cfg }
}

// WithProgress registers a callback invoked as each category finishes,
// whether it succeeded, failed, or was skipped. Called from worker
// goroutines, so the callback must be safe for concurrent use.
func WithProgress(fn func(models.Category)) Option {
	return func(o *Orchestrator) { o.onDone = fn }
}

// WithBuildInfo stamps version and commit into run metadata.
func WithBuildInfo(version, commit string) Option {
	return func(o *Orchestrator) {
		o.version = version
		o.commit = commit
	}
}

// New creates an orchestrator over the given registry.
func New(registry *analyzer.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:   registry,
		cache:      cache.Disabled(),
		detector:   changes.New(),
		engine:     scoring.NewEngine(),
		src:        source.NewFilesystem(),
		log:        hclog.NewNullLogger(),
		categories: models.AllCategories(),
		configs:    make(map[models.Category]analyzer.Config),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.monitor == nil {
		o.monitor = monitor.New(monitor.Thresholds{}, o.log)
	}
	return o
}

// Run analyzes the file set and returns the scored result plus the
// run's performance report.
func (o *Orchestrator) Run(ctx context.Context, files []string) (*models.ScoringResult, monitor.Report, error) {
	started := time.Now()
	o.monitor.StartRun(len(files))

	changed := o.detector.DetectChanges(files)
	added, modified := 0, 0
	for _, c := range changed {
		switch c.Type {
		case changes.Added:
			added++
		case changes.Modified:
			modified++
		}
	}
	o.log.Info("starting analysis",
		"files", len(files), "added", added, "modified", modified,
		"categories", len(o.categories))

	digest := o.fileSetDigest(files)

	var mu sync.Mutex
	results := make(map[models.Category]*models.AnalysisResult)
	degraded := make(map[models.Category]string)

	p := pool.New().WithMaxGoroutines(len(o.categories) + 1)
	for _, cat := range o.categories {
		p.Go(func() {
			res, err := o.runCategory(ctx, cat, files, digest)
			mu.Lock()
			switch {
			case err == nil:
				results[cat] = res
			case err != errSkipped:
				o.log.Error("analyzer failed", "category", cat, "error", err)
				degraded[cat] = err.Error()
			}
			mu.Unlock()
			if o.onDone != nil {
				o.onDone(cat)
			}
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, monitor.Report{}, err
	}

	meta := models.RunMetadata{
		RunID:         uuid.NewString(),
		Tool:          Tool,
		Version:       o.version,
		Commit:        o.commit,
		Timestamp:     started,
		Duration:      time.Since(started),
		FilesAnalyzed: len(files),
	}
	scored := o.engine.Score(results, degraded, meta)

	if err := o.detector.UpdateRecords(files); err != nil {
		o.log.Warn("could not persist change baseline", "error", err)
	}

	report := o.monitor.FinishRun(o.cache.Stats())
	o.log.Info("analysis complete",
		"score", scored.Overall.Score, "grade", scored.Overall.Grade,
		"status", scored.Overall.Status, "duration", meta.Duration)
	return scored, report, nil
}

// errSkipped marks categories whose analyzer declined to run.
var errSkipped = fmt.Errorf("analyzer skipped")

// runCategory resolves, caches, and executes one analyzer with timeout,
// retry, and panic isolation.
func (o *Orchestrator) runCategory(ctx context.Context, cat models.Category, files []string, digest string) (*models.AnalysisResult, error) {
	a, err := o.instance(cat)
	if err != nil {
		return nil, err
	}
	if !a.Validate() {
		o.log.Debug("analyzer disabled", "category", cat)
		return nil, errSkipped
	}

	key := cacheKey(cat, digest)
	if data, ok := o.cache.Get(key); ok {
		var res models.AnalysisResult
		if err := json.Unmarshal(data, &res); err == nil {
			o.log.Debug("cache hit", "category", cat)
			o.monitor.ObserveAnalyzer(string(cat), 0)
			return &res, nil
		}
		o.cache.Invalidate(key)
	}

	start := time.Now()
	res, err := o.runWithRetry(ctx, a, files)
	o.monitor.ObserveAnalyzer(string(cat), time.Since(start))
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := o.cache.Set(key, data, map[string]string{"category": string(cat)}); err != nil {
			o.log.Warn("could not cache result", "category", cat, "error", err)
		}
	}
	return res, nil
}

func (o *Orchestrator) instance(cat models.Category) (analyzer.Analyzer, error) {
	cfg, ok := o.configs[cat]
	if !ok {
		cfg = analyzer.DefaultConfig()
	}
	return o.registry.Instance(string(cat), cfg)
}

// runWithRetry invokes the analyzer up to 1 + RetryAttempts times,
// each attempt under its own timeout.
func (o *Orchestrator) runWithRetry(ctx context.Context, a analyzer.Analyzer, files []string) (*models.AnalysisResult, error) {
	attempts := a.RetryAttempts() + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := o.runOnce(ctx, a, files)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if i+1 < attempts {
			o.log.Warn("analyzer attempt failed, retrying",
				"analyzer", a.Name(), "attempt", i+1, "error", err)
		}
	}
	return nil, lastErr
}

// runOnce executes a single attempt, converting panics into errors.
func (o *Orchestrator) runOnce(ctx context.Context, a analyzer.Analyzer, files []string) (res *models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer %s panicked: %v", a.Name(), r)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, a.Timeout())
	defer cancel()

	res, err = a.Analyze(runCtx, files, o.src)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("analyzer %s returned no result", a.Name())
	}
	return res, nil
}

// fileSetDigest fingerprints the file set by path and content, so the
// cache key changes whenever any input file changes.
func (o *Orchestrator) fileSetDigest(files []string) string {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	var b strings.Builder
	for _, f := range sorted {
		b.WriteString(f)
		b.WriteByte('\n')
		if content, err := o.src.Read(f); err == nil {
			b.WriteString(hashing.Bytes(content))
		}
		b.WriteByte('\n')
	}
	return hashing.Bytes([]byte(b.String()))
}

func cacheKey(cat models.Category, digest string) string {
	return fmt.Sprintf("result:%s:%s", cat, digest)
}
