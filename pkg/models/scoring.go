package models

import "time"

// Grade is the letter grade derived from the overall score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// GradeForScore maps a score to its letter grade. Boundaries are
// inclusive: a score of exactly 80 is a B, not a C.
func GradeForScore(score float64) Grade {
	switch {
	case score >= 90:
		return GradeA
	case score >= 80:
		return GradeB
	case score >= 70:
		return GradeC
	case score >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// ComponentScore is one category's contribution to the overall score.
type ComponentScore struct {
	Score         float64 `json:"score"`
	Weight        float64 `json:"weight"`
	WeightedScore float64 `json:"weighted_score"`
}

// Priority classifies how urgent a recommendation is.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Rank returns the sort rank of the priority (lower is more urgent).
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

// Recommendation is one remediation suggestion derived from metrics.
type Recommendation struct {
	Category  Category `json:"category"`
	Priority  Priority `json:"priority"`
	Action    string   `json:"action"`
	Rationale string   `json:"rationale,omitempty"`
}

// Overall is the combined outcome of a run.
type Overall struct {
	Score   float64 `json:"score"`
	Grade   Grade   `json:"grade"`
	Status  Status  `json:"status"`
	Summary string  `json:"summary"`
}

// RunMetadata identifies one gate run.
type RunMetadata struct {
	RunID         string        `json:"run_id"`
	Tool          string        `json:"tool"`
	Version       string        `json:"version,omitempty"`
	Commit        string        `json:"commit,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	Duration      time.Duration `json:"duration"`
	FilesAnalyzed int           `json:"files_analyzed"`
}

// ScoringResult is the single artifact the pipeline hands to reporters.
// It is created once per run by the scoring engine and read-only afterward.
type ScoringResult struct {
	Overall         Overall                     `json:"overall"`
	Components      map[Category]ComponentScore `json:"components"`
	Findings        []Finding                   `json:"findings,omitempty"`
	Recommendations []Recommendation            `json:"recommendations,omitempty"`
	Metadata        RunMetadata                 `json:"metadata"`

	// Degraded lists categories whose analyzer failed this run, with the
	// recorded failure reason.
	Degraded map[Category]string `json:"degraded,omitempty"`
}
