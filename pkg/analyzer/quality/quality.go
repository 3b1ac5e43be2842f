// Package quality measures code quality from source text: a cyclomatic
// complexity proxy per function, cross-file duplication, and style
// violations. All measurements are line-oriented heuristics that work
// across the supported languages without parsing.
package quality

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
	"github.com/verdict-tools/verdict/internal/fileproc"
	"github.com/verdict-tools/verdict/pkg/analyzer"
	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/scoring"
	"github.com/verdict-tools/verdict/pkg/source"
)

// Complexity bucket boundaries (proxy value, inclusive upper bounds).
const (
	bucketLowMax    = 5
	bucketMediumMax = 10
	bucketHighMax   = 20
)

// shingleSize is how many consecutive normalized lines form one
// duplication fingerprint.
const shingleSize = 5

// maxDuplicationFindings caps how many duplicate groups get their own
// finding; the ratio metric still reflects all of them.
const maxDuplicationFindings = 10

var (
	funcRes = []*regexp.Regexp{
		regexp.MustCompile(`^func\s+(\([^)]+\)\s*)?([A-Za-z_]\w*)\s*\(`),
		regexp.MustCompile(`^\s*def\s+([A-Za-z_]\w*)\s*\(`),
		regexp.MustCompile(`\bfunction\s+([A-Za-z_$]\w*)\s*\(`),
		regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$]\w*)\s*=\s*(?:async\s+)?\(`),
	}
	branchRe = regexp.MustCompile(`\b(if|elif|else if|for|while|case|catch|except|switch)\b|&&|\|\||\?\?`)
)

// Analyzer implements the quality category.
type Analyzer struct {
	analyzer.Base
}

// New constructs a quality analyzer.
func New(config analyzer.Config) *Analyzer {
	return &Analyzer{Base: analyzer.NewBase(string(models.CategoryQuality), config)}
}

type functionInfo struct {
	Name       string
	Line       int
	Lines      int
	Complexity int
}

type shingleRef struct {
	file  string
	start int
}

type fileStats struct {
	path      string
	lines     int
	longLines int
	deepLines int
	functions []functionInfo
	shingles  map[uint64][]int // hash -> starting line numbers
}

// Analyze computes the quality metrics and findings for the file set.
func (a *Analyzer) Analyze(ctx context.Context, files []string, src source.ContentSource) (*models.AnalysisResult, error) {
	start := time.Now()

	maxLine := int(a.Threshold("max_line_length", 120))
	maxFuncLines := int(a.Threshold("max_function_lines", 50))
	maxFileLines := int(a.Threshold("max_file_lines", 400))
	maxNesting := int(a.Threshold("max_nesting_depth", 5))

	stats, _ := fileproc.MapContent(files, src, func(path string, content []byte) (*fileStats, error) {
		return analyzeFile(path, content, maxLine, maxNesting), nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].path < stats[j].path })

	metrics := map[string]float64{
		scoring.MetricFiles: float64(len(stats)),
	}
	var findings []models.Finding
	totalLines := 0
	lintViolations := 0

	buckets := map[string]int{"low": 0, "medium": 0, "high": 0, "critical": 0}
	totalFunctions := 0
	for _, fs := range stats {
		totalLines += fs.lines
		lintViolations += fs.longLines
		lintViolations += fs.deepLines
		if fs.lines > maxFileLines {
			lintViolations++
		}
		for _, fn := range fs.functions {
			totalFunctions++
			bucket := bucketFor(fn.Complexity)
			buckets[bucket]++
			if bucket == "critical" {
				findings = append(findings, models.Finding{
					ID:          fmt.Sprintf("quality:complexity:%s:%d", fs.path, fn.Line),
					Severity:    models.SeverityHigh,
					Category:    models.CategoryQuality,
					Title:       fmt.Sprintf("Function %s has critical complexity", fn.Name),
					Description: fmt.Sprintf("complexity proxy %d exceeds the critical threshold of %d", fn.Complexity, bucketHighMax),
					Remediation: "Split the function into smaller units with single responsibilities",
					Location:    &models.Location{File: fs.path, Line: fn.Line},
				})
			}
			if fn.Lines > maxFuncLines {
				lintViolations++
				findings = append(findings, models.Finding{
					ID:          fmt.Sprintf("quality:long-function:%s:%d", fs.path, fn.Line),
					Severity:    models.SeverityLow,
					Category:    models.CategoryQuality,
					Title:       fmt.Sprintf("Function %s is %d lines long", fn.Name, fn.Lines),
					Remediation: fmt.Sprintf("Keep functions under %d lines", maxFuncLines),
					Location:    &models.Location{File: fs.path, Line: fn.Line},
				})
			}
		}
	}

	duplicated, dupFindings := detectDuplication(stats)
	findings = append(findings, dupFindings...)

	ratio := 0.0
	if totalLines > 0 {
		ratio = float64(duplicated) / float64(totalLines)
	}

	metrics[scoring.MetricTotalFunctions] = float64(totalFunctions)
	metrics[scoring.MetricComplexityLow] = float64(buckets["low"])
	metrics[scoring.MetricComplexityMedium] = float64(buckets["medium"])
	metrics[scoring.MetricComplexityHigh] = float64(buckets["high"])
	metrics[scoring.MetricComplexityCritical] = float64(buckets["critical"])
	metrics[scoring.MetricDuplicationRatio] = ratio
	metrics[scoring.MetricLintViolations] = float64(lintViolations)

	score := scoring.NormalizeQuality(metrics)
	return &models.AnalysisResult{
		Category:      models.CategoryQuality,
		Score:         score,
		Status:        models.StatusForScore(score),
		Findings:      findings,
		Metrics:       metrics,
		ExecutionTime: time.Since(start),
	}, nil
}

func analyzeFile(path string, content []byte, maxLine, maxNesting int) *fileStats {
	lines := strings.Split(string(content), "\n")
	fs := &fileStats{
		path:  path,
		lines: len(lines),
	}

	for _, line := range lines {
		if len(line) > maxLine {
			fs.longLines++
		}
		if indentDepth(line) > maxNesting {
			fs.deepLines++
		}
	}

	fs.functions = extractFunctions(lines)
	fs.shingles = shingleLines(lines)
	return fs
}

// indentDepth counts leading indentation levels; a tab or four spaces
// is one level.
func indentDepth(line string) int {
	spaces, tabs := 0, 0
	for _, r := range line {
		if r == ' ' {
			spaces++
		} else if r == '\t' {
			tabs++
		} else {
			break
		}
	}
	return tabs + spaces/4
}

// extractFunctions finds function declarations and measures each one
// from its declaration to the next declaration or end of file.
func extractFunctions(lines []string) []functionInfo {
	var fns []functionInfo
	for i, line := range lines {
		name, ok := matchFunction(line)
		if !ok {
			continue
		}
		fns = append(fns, functionInfo{Name: name, Line: i + 1})
	}

	for i := range fns {
		start := fns[i].Line - 1
		end := len(lines)
		if i+1 < len(fns) {
			end = fns[i+1].Line - 1
		}
		fns[i].Lines = end - start
		fns[i].Complexity = 1
		for _, line := range lines[start:end] {
			fns[i].Complexity += len(branchRe.FindAllString(line, -1))
		}
	}
	return fns
}

func matchFunction(line string) (string, bool) {
	for _, re := range funcRes {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		// The name is the last captured group.
		return m[len(m)-1], true
	}
	return "", false
}

// shingleLines fingerprints every run of shingleSize consecutive
// non-trivial lines. Whitespace is normalized so re-indented copies
// still match.
func shingleLines(lines []string) map[uint64][]int {
	normalized := make([]string, 0, len(lines))
	lineNo := make([]int, 0, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
		lineNo = append(lineNo, i+1)
	}

	shingles := make(map[uint64][]int)
	for i := 0; i+shingleSize <= len(normalized); i++ {
		h := xxhash.Sum64String(strings.Join(normalized[i:i+shingleSize], "\n"))
		shingles[h] = append(shingles[h], lineNo[i])
	}
	return shingles
}

// detectDuplication correlates shingle fingerprints across files and
// tracks duplicated line numbers per file in bitmaps, so overlapping
// shingles are not double-counted.
func detectDuplication(stats []*fileStats) (int, []models.Finding) {
	occurrences := make(map[uint64][]shingleRef)
	for _, fs := range stats {
		for h, starts := range fs.shingles {
			for _, s := range starts {
				occurrences[h] = append(occurrences[h], shingleRef{file: fs.path, start: s})
			}
		}
	}

	bitmaps := make(map[string]*roaring.Bitmap)
	var dupHashes []uint64
	for h, refs := range occurrences {
		if len(refs) < 2 {
			continue
		}
		dupHashes = append(dupHashes, h)
		for _, ref := range refs {
			bm, ok := bitmaps[ref.file]
			if !ok {
				bm = roaring.New()
				bitmaps[ref.file] = bm
			}
			bm.AddRange(uint64(ref.start), uint64(ref.start+shingleSize))
		}
	}

	duplicated := 0
	for _, bm := range bitmaps {
		duplicated += int(bm.GetCardinality())
	}

	sort.Slice(dupHashes, func(i, j int) bool {
		a, b := occurrences[dupHashes[i]][0], occurrences[dupHashes[j]][0]
		if a.file != b.file {
			return a.file < b.file
		}
		return a.start < b.start
	})

	var findings []models.Finding
	for _, h := range dupHashes {
		if len(findings) >= maxDuplicationFindings {
			break
		}
		refs := occurrences[h]
		first := refs[0]
		var sites []string
		for _, r := range refs[1:] {
			sites = append(sites, fmt.Sprintf("%s:%d", r.file, r.start))
		}
		findings = append(findings, models.Finding{
			ID:          fmt.Sprintf("quality:duplication:%s:%d", first.file, first.start),
			Severity:    models.SeverityMedium,
			Category:    models.CategoryQuality,
			Title:       fmt.Sprintf("Duplicated block of %d+ lines", shingleSize),
			Description: fmt.Sprintf("also found at %s", strings.Join(sites, ", ")),
			Remediation: "Extract the shared logic into a common helper",
			Location:    &models.Location{File: first.file, Line: first.start},
		})
	}
	return duplicated, findings
}

func bucketFor(complexity int) string {
	switch {
	case complexity <= bucketLowMax:
		return "low"
	case complexity <= bucketMediumMax:
		return "medium"
	case complexity <= bucketHighMax:
		return "high"
	default:
		return "critical"
	}
}
