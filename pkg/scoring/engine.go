// Package scoring turns per-category analysis results into the single
// weighted score, grade, and recommendation set a gate run reports.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/verdict-tools/verdict/pkg/models"
)

// DefaultPassingThreshold is the overall score a run must reach to pass.
const DefaultPassingThreshold = 80.0

// weightTolerance is how far the configured weight sum may drift from 1.
const weightTolerance = 0.01

// DefaultWeights returns the built-in category weights.
func DefaultWeights() map[models.Category]float64 {
	return map[models.Category]float64{
		models.CategoryQuality:      0.30,
		models.CategoryCoverage:     0.35,
		models.CategoryArchitecture: 0.20,
		models.CategorySecurity:     0.15,
	}
}

// ValidateWeights rejects weight sets that are out of range or do not
// sum to 1 within tolerance.
func ValidateWeights(weights map[models.Category]float64) error {
	sum := 0.0
	for cat, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("weight for %s is %.3f, must be in [0, 1]", cat, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("weights sum to %.3f, must sum to 1.0 (±%.2f)", sum, weightTolerance)
	}
	return nil
}

// EffectiveWeights renormalizes the configured weights over the enabled
// categories so they again sum to 1. A disabled category contributes
// neither score nor weight.
func EffectiveWeights(weights map[models.Category]float64, enabled []models.Category) map[models.Category]float64 {
	sum := 0.0
	for _, cat := range enabled {
		sum += weights[cat]
	}
	effective := make(map[models.Category]float64, len(enabled))
	if sum == 0 {
		return effective
	}
	for _, cat := range enabled {
		effective[cat] = weights[cat] / sum
	}
	return effective
}

// Engine combines category results into one ScoringResult.
type Engine struct {
	weights          map[models.Category]float64
	passingThreshold float64
	log              hclog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithWeights overrides the category weights. The caller is expected to
// have validated them.
func WithWeights(weights map[models.Category]float64) Option {
	return func(e *Engine) { e.weights = weights }
}

// WithPassingThreshold overrides the pass threshold.
func WithPassingThreshold(threshold float64) Option {
	return func(e *Engine) { e.passingThreshold = threshold }
}

// WithLogger attaches a logger.
func WithLogger(log hclog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates a scoring engine with default weights and threshold.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights:          DefaultWeights(),
		passingThreshold: DefaultPassingThreshold,
		log:              hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the overall result for a run. Categories present in
// results scored normally; categories in degraded failed this run and
// contribute a zero sub-score while keeping their weight, so a failed
// analyzer visibly lowers the overall score instead of vanishing.
func (e *Engine) Score(results map[models.Category]*models.AnalysisResult, degraded map[models.Category]string, meta models.RunMetadata) *models.ScoringResult {
	var enabled []models.Category
	for _, cat := range models.AllCategories() {
		if _, ok := results[cat]; ok {
			enabled = append(enabled, cat)
			continue
		}
		if _, ok := degraded[cat]; ok {
			enabled = append(enabled, cat)
		}
	}

	effective := EffectiveWeights(e.weights, enabled)

	comps := make(map[models.Category]models.ComponentScore, len(enabled))
	overall := 0.0
	var findingGroups [][]models.Finding
	for _, cat := range enabled {
		sub := 0.0
		if res, ok := results[cat]; ok {
			sub = SubScore(cat, res.Metrics)
			findingGroups = append(findingGroups, res.Findings)
		} else {
			e.log.Warn("category degraded, scoring zero", "category", cat, "reason", degraded[cat])
		}
		weight := effective[cat]
		comps[cat] = models.ComponentScore{
			Score:         round2(sub),
			Weight:        weight,
			WeightedScore: round2(sub * weight),
		}
		overall += sub * weight
	}
	overall = round2(overall)

	grade := models.GradeForScore(overall)
	status := e.statusFor(overall)

	result := &models.ScoringResult{
		Overall: models.Overall{
			Score:   overall,
			Grade:   grade,
			Status:  status,
			Summary: summarize(overall, grade, status, e.passingThreshold),
		},
		Components:      comps,
		Findings:        models.MergeFindings(findingGroups...),
		Recommendations: Recommend(results),
		Metadata:        meta,
	}
	if len(degraded) > 0 {
		result.Degraded = make(map[models.Category]string, len(degraded))
		for cat, reason := range degraded {
			result.Degraded[cat] = reason
		}
	}
	return result
}

func (e *Engine) statusFor(score float64) models.Status {
	switch {
	case score >= e.passingThreshold:
		return models.StatusPass
	case score >= 60:
		return models.StatusWarning
	default:
		return models.StatusFail
	}
}

func summarize(score float64, grade models.Grade, status models.Status, threshold float64) string {
	if status == models.StatusPass {
		return fmt.Sprintf("Score %.1f (%s) meets the passing threshold of %.0f", score, grade, threshold)
	}
	return fmt.Sprintf("Score %.1f (%s) is below the passing threshold of %.0f", score, grade, threshold)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SortedCategories returns the component map's keys in reporting order.
func SortedCategories(components map[models.Category]models.ComponentScore) []models.Category {
	var cats []models.Category
	for _, cat := range models.AllCategories() {
		if _, ok := components[cat]; ok {
			cats = append(cats, cat)
		}
	}
	var extra []models.Category
	for cat := range components {
		known := false
		for _, k := range models.AllCategories() {
			if cat == k {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, cat)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(cats, extra...)
}
