package scoring

import (
	"fmt"
	"sort"

	"github.com/verdict-tools/verdict/pkg/models"
)

// MaxRecommendations caps how many recommendations a run reports.
const MaxRecommendations = 5

// Recommend derives remediation suggestions from the category metrics.
// Generation walks categories in reporting order, then a stable sort by
// priority keeps that order within each priority band. The list is
// deduplicated by action and capped at MaxRecommendations.
func Recommend(results map[models.Category]*models.AnalysisResult) []models.Recommendation {
	var recs []models.Recommendation
	for _, cat := range models.AllCategories() {
		res, ok := results[cat]
		if !ok || res.Metrics == nil {
			continue
		}
		switch cat {
		case models.CategoryQuality:
			recs = append(recs, qualityRecs(res.Metrics)...)
		case models.CategoryCoverage:
			recs = append(recs, coverageRecs(res.Metrics)...)
		case models.CategoryArchitecture:
			recs = append(recs, architectureRecs(res.Metrics)...)
		case models.CategorySecurity:
			recs = append(recs, securityRecs(res.Metrics)...)
		}
	}

	seen := make(map[string]bool, len(recs))
	deduped := recs[:0]
	for _, r := range recs {
		key := string(r.Category) + "|" + r.Action
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Priority.Rank() < deduped[j].Priority.Rank()
	})
	if len(deduped) > MaxRecommendations {
		deduped = deduped[:MaxRecommendations]
	}
	return deduped
}

func qualityRecs(m map[string]float64) []models.Recommendation {
	var recs []models.Recommendation
	if n := m[MetricComplexityCritical]; n > 0 {
		recs = append(recs, models.Recommendation{
			Category:  models.CategoryQuality,
			Priority:  models.PriorityHigh,
			Action:    "Refactor functions in the critical complexity bucket",
			Rationale: fmt.Sprintf("%.0f functions exceed the critical complexity threshold", n),
		})
	}
	if ratio := m[MetricDuplicationRatio]; ratio > 0.10 {
		recs = append(recs, models.Recommendation{
			Category:  models.CategoryQuality,
			Priority:  models.PriorityMedium,
			Action:    "Extract shared helpers to reduce duplicated code",
			Rationale: fmt.Sprintf("%.1f%% of lines are duplicated", ratio*100),
		})
	}
	if files := m[MetricFiles]; files > 0 && m[MetricLintViolations]/files > 2 {
		recs = append(recs, models.Recommendation{
			Category:  models.CategoryQuality,
			Priority:  models.PriorityLow,
			Action:    "Fix style violations flagged by lint checks",
			Rationale: fmt.Sprintf("%.0f violations across %.0f files", m[MetricLintViolations], files),
		})
	}
	return recs
}

func coverageRecs(m map[string]float64) []models.Recommendation {
	var recs []models.Recommendation
	pct := m[MetricCoveragePercent]
	switch {
	case pct < 50:
		recs = append(recs, models.Recommendation{
			Category:  models.CategoryCoverage,
			Priority:  models.PriorityCritical,
			Action:    "Add tests for untested source files",
			Rationale: fmt.Sprintf("estimated coverage is %.0f%%", pct),
		})
	case pct < 80:
		recs = append(recs, models.Recommendation{
			Category:  models.CategoryCoverage,
			Priority:  models.PriorityHigh,
			Action:    "Raise test coverage toward the 80% target",
			Rationale: fmt.Sprintf("estimated coverage is %.0f%%", pct),
		})
	}
	if m[MetricEffectivenessScore] < 50 && m[MetricTestFiles] > 0 {
		recs = append(recs, models.Recommendation{
			Category:  models.CategoryCoverage,
			Priority:  models.PriorityMedium,
			Action:    "Strengthen test assertions",
			Rationale: "existing tests assert too little to catch regressions",
		})
	}
	return recs
}

func architectureRecs(m map[string]float64) []models.Recommendation {
	var recs []models.Recommendation
	if n := m[MetricCycles]; n > 0 {
		recs = append(recs, models.Recommendation{
			Category:  models.CategoryArchitecture,
			Priority:  models.PriorityCritical,
			Action:    "Break circular dependencies between modules",
			Rationale: fmt.Sprintf("%.0f dependency cycles detected", n),
		})
	}
	if n := m[MetricOversized]; n > 0 {
		recs = append(recs, models.Recommendation{
			Category:  models.CategoryArchitecture,
			Priority:  models.PriorityMedium,
			Action:    "Split oversized components into focused modules",
			Rationale: fmt.Sprintf("%.0f components exceed the size threshold", n),
		})
	}
	if n := m[MetricHubComponents]; n > 0 {
		recs = append(recs, models.Recommendation{
			Category:  models.CategoryArchitecture,
			Priority:  models.PriorityLow,
			Action:    "Reduce coupling on heavily depended-upon hub components",
			Rationale: fmt.Sprintf("%.0f components concentrate a disproportionate share of dependencies", n),
		})
	}
	return recs
}

func securityRecs(m map[string]float64) []models.Recommendation {
	var recs []models.Recommendation
	if n := m[MetricSecretFindings]; n > 0 {
		recs = append(recs, models.Recommendation{
			Category:  models.CategorySecurity,
			Priority:  models.PriorityCritical,
			Action:    "Remove hardcoded credentials and rotate the exposed secrets",
			Rationale: fmt.Sprintf("%.0f potential secrets found in source", n),
		})
	}
	if n := m[MetricDangerousCalls]; n > 0 {
		recs = append(recs, models.Recommendation{
			Category:  models.CategorySecurity,
			Priority:  models.PriorityHigh,
			Action:    "Replace dangerous calls with safe alternatives",
			Rationale: fmt.Sprintf("%.0f uses of eval-like or injection-prone constructs", n),
		})
	}
	if n := m[MetricPerformanceIssues]; n > 0 {
		recs = append(recs, models.Recommendation{
			Category:  models.CategorySecurity,
			Priority:  models.PriorityLow,
			Action:    "Address flagged performance anti-patterns",
			Rationale: fmt.Sprintf("%.0f blocking or quadratic patterns flagged", n),
		})
	}
	return recs
}
