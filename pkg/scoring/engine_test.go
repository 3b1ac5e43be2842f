package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdict-tools/verdict/pkg/models"
)

func perfectMetrics() map[models.Category]*models.AnalysisResult {
	return map[models.Category]*models.AnalysisResult{
		models.CategoryQuality: {
			Category: models.CategoryQuality,
			Metrics: map[string]float64{
				MetricFiles:          3,
				MetricTotalFunctions: 10,
				MetricComplexityLow:  10,
			},
		},
		models.CategoryCoverage: {
			Category: models.CategoryCoverage,
			Metrics: map[string]float64{
				MetricCoveragePercent:    100,
				MetricEffectivenessScore: 100,
			},
		},
		models.CategoryArchitecture: {
			Category: models.CategoryArchitecture,
			Metrics: map[string]float64{
				MetricComponents:        3,
				MetricPatternCompliance: 1,
			},
		},
		models.CategorySecurity: {
			Category: models.CategorySecurity,
			Metrics:  map[string]float64{MetricFiles: 3},
		},
	}
}

func TestValidateWeights(t *testing.T) {
	require.NoError(t, ValidateWeights(DefaultWeights()))

	bad := map[models.Category]float64{
		models.CategoryQuality:  0.5,
		models.CategoryCoverage: 0.3,
	}
	err := ValidateWeights(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum")

	// Within tolerance passes.
	close := map[models.Category]float64{
		models.CategoryQuality:  0.505,
		models.CategoryCoverage: 0.50,
	}
	assert.NoError(t, ValidateWeights(close))

	assert.Error(t, ValidateWeights(map[models.Category]float64{models.CategoryQuality: -0.1, models.CategoryCoverage: 1.1}))
}

func TestEffectiveWeightsRenormalize(t *testing.T) {
	enabled := []models.Category{models.CategoryQuality, models.CategoryCoverage, models.CategoryArchitecture}
	eff := EffectiveWeights(DefaultWeights(), enabled)

	sum := 0.0
	for _, w := range eff {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "renormalized weights must sum to 1")
	// quality : coverage keeps the configured 0.30 : 0.35 ratio.
	assert.InDelta(t, 0.30/0.35, eff[models.CategoryQuality]/eff[models.CategoryCoverage], 1e-9)
}

func TestScoreWeightedSumMatchesComponents(t *testing.T) {
	e := NewEngine()
	result := e.Score(perfectMetrics(), nil, models.RunMetadata{})

	sum := 0.0
	for _, c := range result.Components {
		sum += c.Score * c.Weight
	}
	assert.InDelta(t, result.Overall.Score, sum, 0.05,
		"overall score must equal the weighted component sum")
}

func TestScorePerfectInputIsAnA(t *testing.T) {
	e := NewEngine()
	result := e.Score(perfectMetrics(), nil, models.RunMetadata{})

	assert.Equal(t, 100.0, result.Overall.Score)
	assert.Equal(t, models.GradeA, result.Overall.Grade)
	assert.Equal(t, models.StatusPass, result.Overall.Status)
	assert.Empty(t, result.Recommendations)
}

func TestGradeBoundariesInclusive(t *testing.T) {
	cases := []struct {
		score float64
		grade models.Grade
	}{
		{90, models.GradeA}, {89.99, models.GradeB},
		{80, models.GradeB}, {79.99, models.GradeC},
		{70, models.GradeC}, {60, models.GradeD}, {59.99, models.GradeF},
	}
	for _, c := range cases {
		assert.Equal(t, c.grade, models.GradeForScore(c.score), "score %.2f", c.score)
	}
}

func TestScoreExactThresholdPasses(t *testing.T) {
	// Single-weight run tuned so the overall lands exactly on 80.
	results := perfectMetrics()
	e := NewEngine(WithWeights(map[models.Category]float64{models.CategoryCoverage: 1.0}))
	results[models.CategoryCoverage].Metrics[MetricCoveragePercent] = 80
	results[models.CategoryCoverage].Metrics[MetricEffectivenessScore] = 80
	result := e.Score(map[models.Category]*models.AnalysisResult{
		models.CategoryCoverage: results[models.CategoryCoverage],
	}, nil, models.RunMetadata{})

	require.Equal(t, 80.0, result.Overall.Score)
	assert.Equal(t, models.GradeB, result.Overall.Grade)
	assert.Equal(t, models.StatusPass, result.Overall.Status, "exactly 80 passes the default threshold")
}

func TestScoreDegradedCategoryLowersOverall(t *testing.T) {
	e := NewEngine()
	clean := e.Score(perfectMetrics(), nil, models.RunMetadata{})

	partial := perfectMetrics()
	delete(partial, models.CategorySecurity)
	degraded := e.Score(partial, map[models.Category]string{
		models.CategorySecurity: "analyzer timed out",
	}, models.RunMetadata{})

	assert.Less(t, degraded.Overall.Score, clean.Overall.Score,
		"a failed analyzer must visibly lower the score")
	assert.Equal(t, "analyzer timed out", degraded.Degraded[models.CategorySecurity])
	comp := degraded.Components[models.CategorySecurity]
	assert.Equal(t, 0.0, comp.Score)
	assert.InDelta(t, DefaultWeights()[models.CategorySecurity], comp.Weight, 1e-9,
		"failed categories keep their weight")
}

func TestScoreDisabledCategoryRenormalized(t *testing.T) {
	e := NewEngine()
	partial := perfectMetrics()
	delete(partial, models.CategorySecurity)
	result := e.Score(partial, nil, models.RunMetadata{})

	assert.Equal(t, 100.0, result.Overall.Score,
		"disabling a category must not penalize a perfect run")
	_, present := result.Components[models.CategorySecurity]
	assert.False(t, present)
}

func TestScoreMergesFindingsFirstWins(t *testing.T) {
	results := perfectMetrics()
	results[models.CategoryQuality].Findings = []models.Finding{
		{ID: "dup", Title: "from quality"},
	}
	results[models.CategoryCoverage].Findings = []models.Finding{
		{ID: "dup", Title: "from coverage"},
		{ID: "other", Title: "kept"},
	}
	result := NewEngine().Score(results, nil, models.RunMetadata{})

	require.Len(t, result.Findings, 2)
	assert.Equal(t, "from quality", result.Findings[0].Title, "first occurrence wins on ID collision")
}

func TestRecommendationsSortedAndCapped(t *testing.T) {
	results := map[models.Category]*models.AnalysisResult{
		models.CategoryQuality: {Metrics: map[string]float64{
			MetricComplexityCritical: 3,
			MetricDuplicationRatio:   0.25,
			MetricLintViolations:     30,
			MetricFiles:              3,
			MetricTotalFunctions:     10,
		}},
		models.CategoryCoverage: {Metrics: map[string]float64{
			MetricCoveragePercent:    20,
			MetricEffectivenessScore: 10,
			MetricTestFiles:          1,
		}},
		models.CategoryArchitecture: {Metrics: map[string]float64{
			MetricCycles:     2,
			MetricOversized:  1,
			MetricComponents: 4,
		}},
		models.CategorySecurity: {Metrics: map[string]float64{
			MetricSecretFindings: 1,
			MetricDangerousCalls: 2,
		}},
	}
	recs := Recommend(results)

	require.Len(t, recs, MaxRecommendations, "recommendations are capped")
	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, recs[i-1].Priority.Rank(), recs[i].Priority.Rank(),
			"recommendations must be ordered by priority")
	}
	// The three critical conditions land first, in category order.
	assert.Equal(t, models.CategoryCoverage, recs[0].Category)
	assert.Equal(t, models.CategoryArchitecture, recs[1].Category)
	assert.Equal(t, models.CategorySecurity, recs[2].Category)
}

func TestNormalizeArchitectureCyclePenalty(t *testing.T) {
	noCycle := NormalizeArchitecture(map[string]float64{
		MetricComponents: 3, MetricPatternCompliance: 1,
	})
	oneCycle := NormalizeArchitecture(map[string]float64{
		MetricComponents: 3, MetricPatternCompliance: 1, MetricCycles: 1,
	})
	assert.Equal(t, 100.0, noCycle)
	assert.Less(t, oneCycle, 100.0, "any cycle must pull the sub-score below 100")
}

func TestNormalizeScoresStayInRange(t *testing.T) {
	extreme := map[string]float64{
		MetricTotalFunctions: 1, MetricComplexityCritical: 50,
		MetricDuplicationRatio: 0.9, MetricLintViolations: 1000, MetricFiles: 1,
		MetricVulnCritical: 10, MetricSecretFindings: 10, MetricPerformanceIssues: 100,
		MetricCycles: 20, MetricComponents: 1, MetricOversized: 5,
	}
	for _, cat := range models.AllCategories() {
		s := SubScore(cat, extreme)
		assert.GreaterOrEqual(t, s, 0.0, "%s", cat)
		assert.LessOrEqual(t, s, 100.0, "%s", cat)
	}
	assert.Equal(t, 100.0, SubScore(models.CategoryQuality, map[string]float64{}),
		"empty metrics score a neutral 100")
}
