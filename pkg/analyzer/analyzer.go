// Package analyzer defines the contract every analysis category
// implements, and the registry that constructs analyzers by type key.
package analyzer

import (
	"context"
	"time"

	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/source"
)

// Analyzer is the uniform interface for one analysis category. Analyze
// performs I/O and must honor ctx cancellation; it is invoked at most
// once per run by the orchestrator.
type Analyzer interface {
	// Name returns the category key this analyzer produces results for.
	Name() string

	// Analyze processes the file set and returns the category result.
	Analyze(ctx context.Context, files []string, src source.ContentSource) (*models.AnalysisResult, error)

	// Validate checks the analyzer's own enablement and configuration
	// before a run; a false return skips the analyzer.
	Validate() bool

	// Timeout is the per-run deadline for this analyzer.
	Timeout() time.Duration

	// RetryAttempts is how many times a failed run is retried.
	RetryAttempts() int
}

// Config carries the per-analyzer knobs the registry hands to
// constructors. Thresholds are analyzer-specific and opaque here.
type Config struct {
	Enabled       bool
	Timeout       time.Duration
	RetryAttempts int
	Thresholds    map[string]float64
}

// DefaultConfig returns the config analyzers start from.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Timeout:       2 * time.Minute,
		RetryAttempts: 0,
		Thresholds:    map[string]float64{},
	}
}

// Base carries the contract fields shared by every built-in analyzer.
type Base struct {
	name   string
	config Config
}

// NewBase creates the shared analyzer core.
func NewBase(name string, config Config) Base {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return Base{name: name, config: config}
}

// Name implements Analyzer.
func (b Base) Name() string { return b.name }

// Validate implements Analyzer.
func (b Base) Validate() bool { return b.config.Enabled }

// Timeout implements Analyzer.
func (b Base) Timeout() time.Duration { return b.config.Timeout }

// RetryAttempts implements Analyzer.
func (b Base) RetryAttempts() int { return b.config.RetryAttempts }

// Threshold returns a named threshold, or fallback when unset.
func (b Base) Threshold(name string, fallback float64) float64 {
	if v, ok := b.config.Thresholds[name]; ok {
		return v
	}
	return fallback
}
