// Package monitor tracks where a gate run spends its time and raises
// alerts when a run blows past its performance budget.
package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/verdict-tools/verdict/internal/cache"
)

// Thresholds configure when the monitor raises alerts.
type Thresholds struct {
	// MaxRunDuration flags runs that take longer than this. Zero disables
	// the check.
	MaxRunDuration time.Duration

	// MinCacheHitRate flags runs whose cache hit rate falls below this,
	// provided the cache saw any traffic. Zero disables the check.
	MinCacheHitRate float64
}

// Report is the performance summary of one finished run.
type Report struct {
	WallTime        time.Duration            `json:"wall_time"`
	AnalyzerTimings map[string]time.Duration `json:"analyzer_timings"`
	SlowestAnalyzer string                   `json:"slowest_analyzer,omitempty"`
	ParallelSpeedup float64                  `json:"parallel_speedup"`
	FilesAnalyzed   int                      `json:"files_analyzed"`
	CacheStats      cache.StatsSnapshot      `json:"cache_stats"`
	Alerts          []string                 `json:"alerts,omitempty"`
}

// Monitor accumulates timings for one run. Safe for concurrent use by
// the analyzer workers.
type Monitor struct {
	mu         sync.Mutex
	started    time.Time
	timings    map[string]time.Duration
	files      int
	thresholds Thresholds
	log        hclog.Logger
}

// New creates a monitor. A nil logger is replaced with a no-op one.
func New(thresholds Thresholds, log hclog.Logger) *Monitor {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Monitor{
		timings:    make(map[string]time.Duration),
		thresholds: thresholds,
		log:        log,
	}
}

// StartRun marks the beginning of a run and resets per-run state.
func (m *Monitor) StartRun(files int) {
	m.mu.Lock()
	m.started = time.Now()
	m.timings = make(map[string]time.Duration)
	m.files = files
	m.mu.Unlock()
}

// ObserveAnalyzer records how long one analyzer took.
func (m *Monitor) ObserveAnalyzer(name string, d time.Duration) {
	m.mu.Lock()
	m.timings[name] += d
	m.mu.Unlock()
}

// FinishRun closes the run and produces its report.
func (m *Monitor) FinishRun(cacheStats cache.StatsSnapshot) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	wall := time.Since(m.started)
	report := Report{
		WallTime:        wall,
		AnalyzerTimings: make(map[string]time.Duration, len(m.timings)),
		FilesAnalyzed:   m.files,
		CacheStats:      cacheStats,
	}

	var busy time.Duration
	var slowest time.Duration
	for name, d := range m.timings {
		report.AnalyzerTimings[name] = d
		busy += d
		if d > slowest {
			slowest = d
			report.SlowestAnalyzer = name
		}
	}
	if wall > 0 {
		report.ParallelSpeedup = float64(busy) / float64(wall)
	}

	if max := m.thresholds.MaxRunDuration; max > 0 && wall > max {
		alert := fmt.Sprintf("run took %s, budget is %s", wall.Round(time.Millisecond), max)
		report.Alerts = append(report.Alerts, alert)
		m.log.Warn("performance budget exceeded", "wall_time", wall, "budget", max)
	}
	if min := m.thresholds.MinCacheHitRate; min > 0 && cacheStats.Hits+cacheStats.Misses > 0 && cacheStats.HitRate < min {
		alert := fmt.Sprintf("cache hit rate %.0f%% is below the %.0f%% target", cacheStats.HitRate*100, min*100)
		report.Alerts = append(report.Alerts, alert)
		m.log.Warn("cache hit rate below target", "hit_rate", cacheStats.HitRate, "target", min)
	}
	return report
}
