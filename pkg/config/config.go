// Package config loads, validates, and defaults verdict's configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/scoring"
)

// Config holds all configuration options for verdict.
type Config struct {
	// Per-analyzer enablement and limits
	Analyzers AnalyzersConfig `koanf:"analyzers" toml:"analyzers"`

	// Weights and pass threshold for the overall score
	Scoring ScoringConfig `koanf:"scoring" toml:"scoring"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Result cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Change detection baseline
	Baseline BaselineConfig `koanf:"baseline" toml:"baseline"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`

	// Performance alert thresholds
	Monitor MonitorConfig `koanf:"monitor" toml:"monitor"`
}

// AnalyzersConfig groups the built-in analyzer settings.
type AnalyzersConfig struct {
	Quality      AnalyzerSettings `koanf:"quality" toml:"quality"`
	Coverage     AnalyzerSettings `koanf:"coverage" toml:"coverage"`
	Architecture AnalyzerSettings `koanf:"architecture" toml:"architecture"`
	Security     AnalyzerSettings `koanf:"security" toml:"security"`
}

// AnalyzerSettings are the knobs every analyzer shares.
type AnalyzerSettings struct {
	Enabled        bool               `koanf:"enabled" toml:"enabled"`
	TimeoutSeconds int                `koanf:"timeout_seconds" toml:"timeout_seconds"`
	RetryAttempts  int                `koanf:"retry_attempts" toml:"retry_attempts"`
	Thresholds     map[string]float64 `koanf:"thresholds" toml:"thresholds"`
}

// Timeout returns the configured timeout as a duration.
func (s AnalyzerSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ForCategory returns the settings for a built-in category.
func (a AnalyzersConfig) ForCategory(cat models.Category) AnalyzerSettings {
	switch cat {
	case models.CategoryQuality:
		return a.Quality
	case models.CategoryCoverage:
		return a.Coverage
	case models.CategoryArchitecture:
		return a.Architecture
	case models.CategorySecurity:
		return a.Security
	default:
		return AnalyzerSettings{}
	}
}

// EnabledCategories lists the built-in categories turned on in config,
// in reporting order.
func (a AnalyzersConfig) EnabledCategories() []models.Category {
	var enabled []models.Category
	for _, cat := range models.AllCategories() {
		if a.ForCategory(cat).Enabled {
			enabled = append(enabled, cat)
		}
	}
	return enabled
}

// ScoringConfig holds category weights and the pass threshold.
type ScoringConfig struct {
	Weights          map[string]float64 `koanf:"weights" toml:"weights"`
	PassingThreshold float64            `koanf:"passing_threshold" toml:"passing_threshold"`
}

// WeightsByCategory converts the string-keyed weight map to category keys.
func (s ScoringConfig) WeightsByCategory() map[models.Category]float64 {
	weights := make(map[models.Category]float64, len(s.Weights))
	for k, v := range s.Weights {
		weights[models.Category(k)] = v
	}
	return weights
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" toml:"patterns"`
	Extensions []string `koanf:"extensions" toml:"extensions"`
	Dirs       []string `koanf:"dirs" toml:"dirs"`
	Gitignore  bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls the two-tier result cache.
type CacheConfig struct {
	Enabled    bool   `koanf:"enabled" toml:"enabled"`
	Dir        string `koanf:"dir" toml:"dir"`
	TTLHours   int    `koanf:"ttl_hours" toml:"ttl_hours"`
	MaxEntries int    `koanf:"max_entries" toml:"max_entries"`
}

// TTL returns the configured TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// BaselineConfig locates the change-detection record file.
type BaselineConfig struct {
	Path string `koanf:"path" toml:"path"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// MonitorConfig sets performance alert thresholds.
type MonitorConfig struct {
	MaxRunSeconds   int     `koanf:"max_run_seconds" toml:"max_run_seconds"`
	MinCacheHitRate float64 `koanf:"min_cache_hit_rate" toml:"min_cache_hit_rate"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	defaultAnalyzer := AnalyzerSettings{
		Enabled:        true,
		TimeoutSeconds: 120,
		RetryAttempts:  0,
		Thresholds:     map[string]float64{},
	}
	return &Config{
		Analyzers: AnalyzersConfig{
			Quality:      defaultAnalyzer,
			Coverage:     defaultAnalyzer,
			Architecture: defaultAnalyzer,
			Security:     defaultAnalyzer,
		},
		Scoring: ScoringConfig{
			Weights: map[string]float64{
				string(models.CategoryQuality):      0.30,
				string(models.CategoryCoverage):     0.35,
				string(models.CategoryArchitecture): 0.20,
				string(models.CategorySecurity):     0.15,
			},
			PassingThreshold: scoring.DefaultPassingThreshold,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.min.css",
			},
			Extensions: []string{
				".lock",
				".sum",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".verdict",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        filepath.Join(".verdict", "cache"),
			TTLHours:   24,
			MaxEntries: 1000,
		},
		Baseline: BaselineConfig{
			Path: filepath.Join(".verdict", "baseline.json"),
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
		Monitor: MonitorConfig{
			MaxRunSeconds:   300,
			MinCacheHitRate: 0.0,
		},
	}
}

// Load loads configuration from a file, layered over defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := validateSchema(k.Raw()); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault tries standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"verdict.toml",
		"verdict.yaml",
		"verdict.yml",
		"verdict.json",
		".verdict.toml",
		".verdict.yaml",
		".verdict.yml",
		".verdict.json",
	}
	searchDirs := []string{".", ".verdict"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}
	return DefaultConfig()
}

// Validate applies the semantic checks the schema cannot express: the
// configured weights must sum to 1 and the threshold must be a score.
func (c *Config) Validate() error {
	if err := scoring.ValidateWeights(c.Scoring.WeightsByCategory()); err != nil {
		return err
	}
	if t := c.Scoring.PassingThreshold; t < 0 || t > 100 {
		return fmt.Errorf("passing_threshold is %.1f, must be in [0, 100]", t)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative")
	}
	return nil
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
