// Package coverage estimates test coverage without running a test
// suite: it pairs source files with their test files by naming
// convention and gauges test effectiveness from assertion density.
package coverage

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/verdict-tools/verdict/internal/fileproc"
	"github.com/verdict-tools/verdict/pkg/analyzer"
	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/scoring"
	"github.com/verdict-tools/verdict/pkg/source"
)

// maxUntestedFindings caps per-file findings for untested sources.
const maxUntestedFindings = 10

var (
	assertionRe = regexp.MustCompile(`\bassert\w*\s*[.(]|\bexpect\s*\(|\brequire\.\w+\(|\bt\.(Error|Errorf|Fatal|Fatalf)\(|\.should\b`)

	sourceExtensions = map[string]bool{
		".go": true, ".py": true,
		".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true,
	}
)

// Analyzer implements the coverage category.
type Analyzer struct {
	analyzer.Base
}

// New constructs a coverage analyzer.
func New(config analyzer.Config) *Analyzer {
	return &Analyzer{Base: analyzer.NewBase(string(models.CategoryCoverage), config)}
}

type testStats struct {
	path       string
	assertions int
}

// Analyze estimates coverage and effectiveness for the file set.
func (a *Analyzer) Analyze(ctx context.Context, files []string, src source.ContentSource) (*models.AnalysisResult, error) {
	start := time.Now()

	var sources, tests []string
	for _, f := range files {
		if !sourceExtensions[filepath.Ext(f)] {
			continue
		}
		if IsTestFile(f) {
			tests = append(tests, f)
		} else {
			sources = append(sources, f)
		}
	}
	sort.Strings(sources)

	stats, _ := fileproc.MapContent(tests, src, func(path string, content []byte) (testStats, error) {
		return testStats{path: path, assertions: len(assertionRe.FindAllIndex(content, -1))}, nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A source file counts as covered when some test file's normalized
	// base name matches its own.
	testedBases := make(map[string]bool, len(tests))
	for _, tf := range tests {
		testedBases[testSubject(tf)] = true
	}

	covered := 0
	var findings []models.Finding
	untested := 0
	for _, sf := range sources {
		if testedBases[baseName(sf)] {
			covered++
			continue
		}
		untested++
		if untested <= maxUntestedFindings {
			findings = append(findings, models.Finding{
				ID:          fmt.Sprintf("coverage:untested:%s", sf),
				Severity:    models.SeverityMedium,
				Category:    models.CategoryCoverage,
				Title:       fmt.Sprintf("No test file found for %s", filepath.Base(sf)),
				Remediation: "Add a test file following the project's naming convention",
				Location:    &models.Location{File: sf},
			})
		}
	}

	percent := 100.0
	if len(sources) > 0 {
		percent = 100 * float64(covered) / float64(len(sources))
	}

	totalAssertions := 0
	for _, ts := range stats {
		totalAssertions += ts.assertions
		if ts.assertions == 0 {
			findings = append(findings, models.Finding{
				ID:          fmt.Sprintf("coverage:no-assertions:%s", ts.path),
				Severity:    models.SeverityLow,
				Category:    models.CategoryCoverage,
				Title:       fmt.Sprintf("Test file %s has no assertions", filepath.Base(ts.path)),
				Remediation: "Assert on observable behavior instead of just executing code",
				Location:    &models.Location{File: ts.path},
			})
		}
	}

	effectiveness := 0.0
	if len(tests) > 0 {
		avg := float64(totalAssertions) / float64(len(tests))
		effectiveness = avg * 10
		if effectiveness > 100 {
			effectiveness = 100
		}
	} else if len(sources) == 0 {
		effectiveness = 100
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].ID < findings[j].ID })

	metrics := map[string]float64{
		scoring.MetricFiles:              float64(len(sources) + len(tests)),
		scoring.MetricCoveragePercent:    percent,
		scoring.MetricEffectivenessScore: effectiveness,
		scoring.MetricTestFiles:          float64(len(tests)),
		scoring.MetricSourceFiles:        float64(len(sources)),
		scoring.MetricAssertions:         float64(totalAssertions),
	}

	score := scoring.NormalizeCoverage(metrics)
	return &models.AnalysisResult{
		Category:      models.CategoryCoverage,
		Score:         score,
		Status:        models.StatusForScore(score),
		Findings:      findings,
		Metrics:       metrics,
		ExecutionTime: time.Since(start),
	}, nil
}

// IsTestFile reports whether a path follows a test naming convention.
func IsTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.HasSuffix(name, "_test") || strings.HasPrefix(name, "test_") {
		return true
	}
	if strings.HasSuffix(name, ".test") || strings.HasSuffix(name, ".spec") {
		return true
	}
	dir := strings.ToLower(filepath.ToSlash(filepath.Dir(path)))
	return strings.Contains(dir+"/", "/tests/") || strings.HasPrefix(dir+"/", "tests/") ||
		strings.Contains(dir+"/", "/__tests__/") || strings.HasPrefix(dir+"/", "__tests__/")
}

// testSubject maps a test file to the base name of the source it
// exercises: foo_test.go -> foo, test_foo.py -> foo, foo.spec.ts -> foo.
func testSubject(path string) string {
	name := baseName(path)
	name = strings.TrimSuffix(name, "_test")
	name = strings.TrimPrefix(name, "test_")
	name = strings.TrimSuffix(name, ".test")
	name = strings.TrimSuffix(name, ".spec")
	return name
}

func baseName(path string) string {
	base := strings.ToLower(filepath.Base(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
