package models

import "time"

// Category names one analysis dimension of the gate.
type Category string

const (
	CategoryQuality      Category = "quality"
	CategoryCoverage     Category = "coverage"
	CategoryArchitecture Category = "architecture"
	CategorySecurity     Category = "security"
)

// AllCategories returns the built-in categories in reporting order.
func AllCategories() []Category {
	return []Category{CategoryQuality, CategoryCoverage, CategoryArchitecture, CategorySecurity}
}

// Status is the pass/warn/fail classification of a score.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
)

// StatusForScore maps a 0-100 score to a status. 80 and above passes,
// 60 and above warns, anything lower fails.
func StatusForScore(score float64) Status {
	switch {
	case score >= 80:
		return StatusPass
	case score >= 60:
		return StatusWarning
	default:
		return StatusFail
	}
}

// AnalysisResult is what one analyzer produces for its category.
// Metrics carry the numeric measurements the scoring engine consumes;
// keeping them numeric makes results stable across cache round-trips.
type AnalysisResult struct {
	Category      Category           `json:"category"`
	Score         float64            `json:"score"`
	Status        Status             `json:"status"`
	Findings      []Finding          `json:"findings,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	ExecutionTime time.Duration      `json:"execution_time"`
}
