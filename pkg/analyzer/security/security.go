// Package security scans source text for hardcoded secrets, dangerous
// call patterns, and known performance anti-patterns. The rules are
// pattern-based and language-agnostic.
package security

import (
	"context"
	"fmt"
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

// maxFindings caps how many individual findings the analyzer reports;
// the metrics still count every match.
const maxFindings = 50

type ruleClass int

const (
	classSecret ruleClass = iota
	classDangerous
	classPerformance
)

type rule struct {
	id          string
	class       ruleClass
	severity    models.Severity
	pattern     *regexp.Regexp
	title       string
	remediation string
}

var rules = []rule{
	{
		id:          "aws-access-key",
		class:       classSecret,
		severity:    models.SeverityCritical,
		pattern:     regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		title:       "AWS access key ID in source",
		remediation: "Move the credential to the environment and rotate it",
	},
	{
		id:          "private-key",
		class:       classSecret,
		severity:    models.SeverityCritical,
		pattern:     regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH |DSA )?PRIVATE KEY-----`),
		title:       "Private key material in source",
		remediation: "Remove the key from the repository and rotate it",
	},
	{
		id:          "hardcoded-password",
		class:       classSecret,
		severity:    models.SeverityCritical,
		pattern:     regexp.MustCompile(`(?i)\b(password|passwd|api[_-]?key|secret|token)\s*[:=]\s*["'][^"']{4,}["']`),
		title:       "Hardcoded credential",
		remediation: "Load secrets from the environment or a secret manager",
	},
	{
		id:          "eval-call",
		class:       classDangerous,
		severity:    models.SeverityHigh,
		pattern:     regexp.MustCompile(`\beval\s*\(`),
		title:       "Use of eval",
		remediation: "Avoid dynamic code evaluation; parse the input instead",
	},
	{
		id:          "shell-exec",
		class:       classDangerous,
		severity:    models.SeverityHigh,
		pattern:     regexp.MustCompile(`\bos\.system\s*\(|\bchild_process\.exec\b|shell\s*=\s*True`),
		title:       "Shell execution with possible injection",
		remediation: "Use an argument-vector API instead of a shell string",
	},
	{
		id:          "sql-concat",
		class:       classDangerous,
		severity:    models.SeverityHigh,
		pattern:     regexp.MustCompile(`(?i)["'](SELECT|INSERT|UPDATE|DELETE)\b[^"']*["']\s*\+`),
		title:       "SQL built by string concatenation",
		remediation: "Use parameterized queries",
	},
	{
		id:          "unsafe-deserialization",
		class:       classDangerous,
		severity:    models.SeverityMedium,
		pattern:     regexp.MustCompile(`\bpickle\.loads?\s*\(|\byaml\.load\s*\((?:[^)]*\))?`),
		title:       "Unsafe deserialization",
		remediation: "Use a safe loader or a schema-checked format",
	},
	{
		id:          "inner-html",
		class:       classDangerous,
		severity:    models.SeverityMedium,
		pattern:     regexp.MustCompile(`\.innerHTML\s*=`),
		title:       "Direct innerHTML assignment",
		remediation: "Use textContent or a sanitizer",
	},
	{
		id:          "concat-in-loop",
		class:       classPerformance,
		severity:    models.SeverityLow,
		pattern:     regexp.MustCompile(`^\s+\w+\s*\+=\s*["']|^\s+\w+\s*\+=\s*\w+\s*\+\s*["']`),
		title:       "String concatenation inside a loop body",
		remediation: "Accumulate into a builder or list and join once",
	},
}

// Analyzer implements the security category.
type Analyzer struct {
	analyzer.Base
}

// New constructs a security analyzer.
func New(config analyzer.Config) *Analyzer {
	return &Analyzer{Base: analyzer.NewBase(string(models.CategorySecurity), config)}
}

type match struct {
	rule rule
	file string
	line int
}

// Analyze scans the file set and aggregates severity-weighted counts.
func (a *Analyzer) Analyze(ctx context.Context, files []string, src source.ContentSource) (*models.AnalysisResult, error) {
	start := time.Now()

	matchGroups, _ := fileproc.MapContent(files, src, func(path string, content []byte) ([]match, error) {
		return scanFile(path, content), nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matches []match
	for _, g := range matchGroups {
		matches = append(matches, g...)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].file != matches[j].file {
			return matches[i].file < matches[j].file
		}
		return matches[i].line < matches[j].line
	})

	severityCount := map[models.Severity]int{}
	classCount := map[ruleClass]int{}
	var findings []models.Finding
	for _, m := range matches {
		severityCount[m.rule.severity]++
		classCount[m.rule.class]++
		if len(findings) >= maxFindings {
			continue
		}
		findings = append(findings, models.Finding{
			ID:          fmt.Sprintf("security:%s:%s:%d", m.rule.id, m.file, m.line),
			Severity:    m.rule.severity,
			Category:    models.CategorySecurity,
			Title:       m.rule.title,
			Remediation: m.rule.remediation,
			Location:    &models.Location{File: m.file, Line: m.line},
		})
	}

	metrics := map[string]float64{
		scoring.MetricFiles:             float64(len(files)),
		scoring.MetricVulnCritical:      float64(severityCount[models.SeverityCritical]),
		scoring.MetricVulnHigh:          float64(severityCount[models.SeverityHigh]),
		scoring.MetricVulnMedium:        float64(severityCount[models.SeverityMedium]),
		scoring.MetricVulnLow:           float64(severityCount[models.SeverityLow]),
		scoring.MetricSecretFindings:    float64(classCount[classSecret]),
		scoring.MetricDangerousCalls:    float64(classCount[classDangerous]),
		scoring.MetricPerformanceIssues: float64(classCount[classPerformance]),
	}

	score := scoring.NormalizeSecurity(metrics)
	return &models.AnalysisResult{
		Category:      models.CategorySecurity,
		Score:         score,
		Status:        models.StatusForScore(score),
		Findings:      findings,
		Metrics:       metrics,
		ExecutionTime: time.Since(start),
	}, nil
}

func scanFile(path string, content []byte) []match {
	var matches []match
	inLoop := 0
	for i, line := range strings.Split(string(content), "\n") {
		depth := indentDepth(line)
		if inLoop > 0 && strings.TrimSpace(line) != "" && depth < inLoop {
			inLoop = 0
		}
		if loopStartRe.MatchString(line) {
			inLoop = depth + 1
		}
		for _, r := range rules {
			if r.class == classPerformance {
				// Concat-in-loop only counts inside a loop body.
				if inLoop == 0 || depth < inLoop {
					continue
				}
			}
			if r.pattern.MatchString(line) {
				matches = append(matches, match{rule: r, file: path, line: i + 1})
			}
		}
	}
	return matches
}

var loopStartRe = regexp.MustCompile(`^\s*(for|while)\b`)

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
