package architecture

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdict-tools/verdict/pkg/analyzer"
	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/scoring"
	"github.com/verdict-tools/verdict/pkg/source"
)

func runArchitecture(t *testing.T, files map[string][]byte) *models.AnalysisResult {
	t.Helper()
	a := New(analyzer.DefaultConfig())
	var paths []string
	for p := range files {
		paths = append(paths, p)
	}
	res, err := a.Analyze(context.Background(), paths, source.NewMap(files))
	require.NoError(t, err)
	return res
}

func TestCycleProducesFindingAndPenalty(t *testing.T) {
	res := runArchitecture(t, map[string][]byte{
		"a.ts": []byte("import { b } from './b';\n"),
		"b.ts": []byte("import { a } from './a';\n"),
	})

	assert.Equal(t, 1.0, res.Metrics[scoring.MetricCycles])
	assert.Less(t, res.Score, 100.0, "a cycle must lower the sub-score")

	var cycleFindings []models.Finding
	for _, f := range res.Findings {
		if strings.Contains(f.ID, "cycle") {
			cycleFindings = append(cycleFindings, f)
		}
	}
	require.Len(t, cycleFindings, 1)
	assert.Equal(t, models.SeverityHigh, cycleFindings[0].Severity)
	assert.Contains(t, cycleFindings[0].Title, "Circular dependency")
}

func TestOversizedComponentFlagged(t *testing.T) {
	big := strings.Repeat("const x = 1;\n", 450)
	res := runArchitecture(t, map[string][]byte{
		"big.ts":   []byte(big),
		"small.ts": []byte("export {};\n"),
	})

	assert.Equal(t, 1.0, res.Metrics[scoring.MetricOversized])

	found := false
	for _, f := range res.Findings {
		if strings.Contains(f.ID, "oversized") {
			found = true
			assert.Contains(t, f.Title, "big.ts")
			assert.Equal(t, models.SeverityMedium, f.Severity)
		}
	}
	assert.True(t, found)
}

func TestCleanStructureScoresFull(t *testing.T) {
	res := runArchitecture(t, map[string][]byte{
		"a.ts": []byte("import { b } from './b';\nexport const a = 1;\n"),
		"b.ts": []byte("export const b = 2;\n"),
	})
	assert.Equal(t, 100.0, res.Score)
	assert.Empty(t, res.Findings)
	assert.Equal(t, 1.0, res.Metrics[scoring.MetricPatternCompliance])
}

func TestComplianceDropsWithCycles(t *testing.T) {
	res := runArchitecture(t, map[string][]byte{
		"a.ts": []byte("import { b } from './b';\n"),
		"b.ts": []byte("import { a } from './a';\n"),
		"c.ts": []byte("export {};\n"),
	})
	// Two of three nodes sit in the cycle.
	assert.InDelta(t, 1.0/3.0, res.Metrics[scoring.MetricPatternCompliance], 1e-9)
}

func TestEmptyFileSet(t *testing.T) {
	res := runArchitecture(t, map[string][]byte{})
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, 0.0, res.Metrics[scoring.MetricComponents])
}
