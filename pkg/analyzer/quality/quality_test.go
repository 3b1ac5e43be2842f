package quality

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

func runQuality(t *testing.T, files map[string][]byte) *models.AnalysisResult {
	t.Helper()
	a := New(analyzer.DefaultConfig())
	src := source.NewMap(files)
	var paths []string
	for p := range files {
		paths = append(paths, p)
	}
	res, err := a.Analyze(context.Background(), paths, src)
	require.NoError(t, err)
	return res
}

func TestComplexityBuckets(t *testing.T) {
	// One trivial function and one with many branch points.
	branchy := "func messy() {\n"
	for i := 0; i < 25; i++ {
		branchy += "\tif x {\n\t}\n"
	}
	branchy += "}\n"

	res := runQuality(t, map[string][]byte{
		"simple.go": []byte("func ok() {\n\treturn\n}\n"),
		"messy.go":  []byte(branchy),
	})

	assert.Equal(t, 2.0, res.Metrics[scoring.MetricTotalFunctions])
	assert.Equal(t, 1.0, res.Metrics[scoring.MetricComplexityLow])
	assert.Equal(t, 1.0, res.Metrics[scoring.MetricComplexityCritical])

	var critical []models.Finding
	for _, f := range res.Findings {
		if strings.Contains(f.ID, "complexity") {
			critical = append(critical, f)
		}
	}
	require.Len(t, critical, 1)
	assert.Equal(t, models.SeverityHigh, critical[0].Severity)
	assert.Contains(t, critical[0].Title, "messy")
}

func TestFunctionExtraction(t *testing.T) {
	lines := strings.Split(strings.Join([]string{
		"def alpha():",
		"    return 1",
		"",
		"def beta(x):",
		"    if x:",
		"        return 2",
	}, "\n"), "\n")

	fns := extractFunctions(lines)
	require.Len(t, fns, 2)
	assert.Equal(t, "alpha", fns[0].Name)
	assert.Equal(t, 1, fns[0].Line)
	assert.Equal(t, "beta", fns[1].Name)
	assert.Equal(t, 2, fns[1].Complexity, "one branch point plus the base of 1")
}

func TestDuplicationAcrossFiles(t *testing.T) {
	block := strings.Repeat("copy line one\ncopy line two\ncopy line three\ncopy line four\ncopy line five\n", 1)
	res := runQuality(t, map[string][]byte{
		"a.py": []byte("unique a\n" + block),
		"b.py": []byte("unique b line here\n" + block),
	})

	assert.Greater(t, res.Metrics[scoring.MetricDuplicationRatio], 0.0)

	var dup []models.Finding
	for _, f := range res.Findings {
		if strings.Contains(f.ID, "duplication") {
			dup = append(dup, f)
		}
	}
	require.Len(t, dup, 1, "one duplicate group, one finding")
	assert.Equal(t, models.SeverityMedium, dup[0].Severity)
	assert.Contains(t, dup[0].Description, "also found at")
}

func TestNoDuplicationInDistinctFiles(t *testing.T) {
	res := runQuality(t, map[string][]byte{
		"a.py": []byte("line a1\nline a2\nline a3\nline a4\nline a5\nline a6\n"),
		"b.py": []byte("line b1\nline b2\nline b3\nline b4\nline b5\nline b6\n"),
	})
	assert.Equal(t, 0.0, res.Metrics[scoring.MetricDuplicationRatio])
}

func TestDuplicationIgnoresIndentation(t *testing.T) {
	body := "alpha()\nbeta()\ngamma()\ndelta()\nepsilon()\n"
	indented := "    alpha()\n    beta()\n    gamma()\n    delta()\n    epsilon()\n"
	res := runQuality(t, map[string][]byte{
		"a.py": []byte(body),
		"b.py": []byte(indented),
	})
	assert.Greater(t, res.Metrics[scoring.MetricDuplicationRatio], 0.0,
		"re-indented copies still count as duplicates")
}

func TestLintLongLinesAndFunctions(t *testing.T) {
	long := strings.Repeat("x", 150)
	var bigFn strings.Builder
	bigFn.WriteString("func big() {\n")
	for i := 0; i < 60; i++ {
		bigFn.WriteString("\tdoThing()\n")
	}
	bigFn.WriteString("}\n")

	res := runQuality(t, map[string][]byte{
		"long.go": []byte("func f() {\n\ts := \"" + long + "\"\n\t_ = s\n}\n"),
		"big.go":  []byte(bigFn.String()),
	})

	assert.GreaterOrEqual(t, res.Metrics[scoring.MetricLintViolations], 2.0,
		"one long line plus one long function")

	found := false
	for _, f := range res.Findings {
		if strings.Contains(f.ID, "long-function") {
			found = true
			assert.Equal(t, models.SeverityLow, f.Severity)
		}
	}
	assert.True(t, found, "long function must produce a finding")
}

func TestCleanInputScoresHigh(t *testing.T) {
	res := runQuality(t, map[string][]byte{
		"clean.go": []byte("func tidy() {\n\treturn\n}\n"),
	})
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, models.StatusPass, res.Status)
	assert.Empty(t, res.Findings)
}

func TestEmptyFileSet(t *testing.T) {
	res := runQuality(t, map[string][]byte{})
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, 0.0, res.Metrics[scoring.MetricFiles])
}
