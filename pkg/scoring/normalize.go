package scoring

import (
	"math"

	"github.com/verdict-tools/verdict/pkg/models"
)

// Each category sub-score is a deterministic function of that category's
// numeric metrics, normalized to 0-100 where higher is better. The fixed
// relative weights inside a category are part of the contract; changing
// them changes observable scores.

// Metric keys shared between analyzers and the scoring engine.
const (
	MetricFiles = "files"

	MetricTotalFunctions     = "total_functions"
	MetricComplexityLow      = "complexity_low"
	MetricComplexityMedium   = "complexity_medium"
	MetricComplexityHigh     = "complexity_high"
	MetricComplexityCritical = "complexity_critical"
	MetricDuplicationRatio   = "duplication_ratio"
	MetricLintViolations     = "lint_violations"

	MetricCoveragePercent    = "coverage_percent"
	MetricEffectivenessScore = "effectiveness_score"
	MetricTestFiles          = "test_files"
	MetricSourceFiles        = "source_files"
	MetricAssertions         = "assertions"

	MetricComponents        = "components"
	MetricOversized         = "oversized_components"
	MetricCycles            = "cycles"
	MetricHubComponents     = "hub_components"
	MetricPatternCompliance = "pattern_compliance"
	MetricGraphDensity      = "graph_density"
	MetricExternalPackages  = "external_packages"

	MetricVulnCritical      = "vuln_critical"
	MetricVulnHigh          = "vuln_high"
	MetricVulnMedium        = "vuln_medium"
	MetricVulnLow           = "vuln_low"
	MetricSecretFindings    = "secret_findings"
	MetricDangerousCalls    = "dangerous_calls"
	MetricPerformanceIssues = "performance_issues"
)

// SubScore computes the 0-100 sub-score for a category from its metrics.
// Unknown categories score a neutral 100 so third-party analyzers can
// carry their own Score on the result instead.
func SubScore(category models.Category, metrics map[string]float64) float64 {
	switch category {
	case models.CategoryQuality:
		return NormalizeQuality(metrics)
	case models.CategoryCoverage:
		return NormalizeCoverage(metrics)
	case models.CategoryArchitecture:
		return NormalizeArchitecture(metrics)
	case models.CategorySecurity:
		return NormalizeSecurity(metrics)
	default:
		return 100
	}
}

// NormalizeQuality combines a complexity-distribution penalty, a
// duplication-percentage penalty, and a lint-violation penalty with
// fixed relative weights 0.40/0.35/0.25.
func NormalizeQuality(m map[string]float64) float64 {
	complexity := complexityScore(m)
	duplication := duplicationScore(m[MetricDuplicationRatio])
	lint := lintScore(m[MetricLintViolations], m[MetricFiles])
	return clamp(0.40*complexity + 0.35*duplication + 0.25*lint)
}

// complexityScore penalizes by the share of functions in the high and
// critical buckets; critical counts double.
func complexityScore(m map[string]float64) float64 {
	total := m[MetricTotalFunctions]
	if total == 0 {
		return 100
	}
	weighted := m[MetricComplexityHigh] + 2*m[MetricComplexityCritical]
	return clamp(100 * (1 - weighted/total))
}

// duplicationScore maps duplicated-line ratio to a score. The curve is
// gentle below 5% and steep past 20%.
func duplicationScore(ratio float64) float64 {
	switch {
	case ratio <= 0.03:
		return clamp(100 - ratio*166.7)
	case ratio <= 0.05:
		return clamp(95 - (ratio-0.03)*250)
	case ratio <= 0.10:
		return clamp(90 - (ratio-0.05)*200)
	case ratio <= 0.20:
		return clamp(80 - (ratio-0.10)*200)
	default:
		return clamp(60 - (ratio-0.20)*150)
	}
}

// lintScore penalizes by violation density per file.
func lintScore(violations, files float64) float64 {
	if files == 0 {
		return 100
	}
	return clamp(100 - (violations/files)*10)
}

// NormalizeCoverage combines the coverage percentage with a test
// effectiveness score, weighted 0.70/0.30.
func NormalizeCoverage(m map[string]float64) float64 {
	return clamp(0.70*m[MetricCoveragePercent] + 0.30*m[MetricEffectivenessScore])
}

// NormalizeArchitecture combines component-size, dependency-cycle, and
// pattern-compliance penalties with fixed relative weights 0.35/0.40/0.25.
// Any cycle costs 25 points of the cycle component, so a single cycle
// already pulls the sub-score below 100.
func NormalizeArchitecture(m map[string]float64) float64 {
	size := 100.0
	if components := m[MetricComponents]; components > 0 {
		size = clamp(100 * (1 - m[MetricOversized]/components))
	}
	cycle := clamp(100 - 25*m[MetricCycles])
	compliance := clamp(100 * m[MetricPatternCompliance])
	return clamp(0.35*size + 0.40*cycle + 0.25*compliance)
}

// NormalizeSecurity deducts severity-weighted vulnerability, insecure
// pattern, and performance-issue penalties from 100.
func NormalizeSecurity(m map[string]float64) float64 {
	vuln := 25*m[MetricVulnCritical] + 15*m[MetricVulnHigh] + 8*m[MetricVulnMedium] + 3*m[MetricVulnLow]
	pattern := 10 * m[MetricSecretFindings]
	perf := 2 * m[MetricPerformanceIssues]
	return clamp(100 - math.Min(vuln, 70) - math.Min(pattern, 20) - math.Min(perf, 10))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
