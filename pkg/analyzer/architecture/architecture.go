// Package architecture scores the dependency structure of the file
// set: circular dependencies, oversized components, and hub modules
// that concentrate too much of the graph.
package architecture

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/verdict-tools/verdict/internal/fileproc"
	"github.com/verdict-tools/verdict/pkg/analyzer"
	"github.com/verdict-tools/verdict/pkg/graph"
	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/scoring"
	"github.com/verdict-tools/verdict/pkg/source"
)

// maxFanOut is how many internal imports a file may have before it
// counts as a layering violation.
const maxFanOut = 10

// Analyzer implements the architecture category.
type Analyzer struct {
	analyzer.Base
}

// New constructs an architecture analyzer.
func New(config analyzer.Config) *Analyzer {
	return &Analyzer{Base: analyzer.NewBase(string(models.CategoryArchitecture), config)}
}

// Analyze builds the dependency graph and derives structure metrics.
func (a *Analyzer) Analyze(ctx context.Context, files []string, src source.ContentSource) (*models.AnalysisResult, error) {
	start := time.Now()

	maxFileLines := int(a.Threshold("max_component_lines", 400))

	g := graph.NewBuilder(src).Build(files)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cycles := graph.DetectCycles(g)
	graphMetrics := graph.CalculateMetrics(g)

	type sized struct {
		path  string
		lines int
	}
	sizes, _ := fileproc.MapContent(files, src, func(path string, content []byte) (sized, error) {
		return sized{path: path, lines: strings.Count(string(content), "\n") + 1}, nil
	})
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].path < sizes[j].path })

	var findings []models.Finding
	oversized := 0
	for _, s := range sizes {
		if s.lines <= maxFileLines {
			continue
		}
		oversized++
		findings = append(findings, models.Finding{
			ID:          fmt.Sprintf("architecture:oversized:%s", s.path),
			Severity:    models.SeverityMedium,
			Category:    models.CategoryArchitecture,
			Title:       fmt.Sprintf("Component %s is oversized (%d lines)", s.path, s.lines),
			Remediation: fmt.Sprintf("Split the component; the size threshold is %d lines", maxFileLines),
			Location:    &models.Location{File: s.path},
		})
	}

	inCycle := make(map[string]bool)
	for _, c := range cycles {
		for _, n := range c.Nodes {
			inCycle[n] = true
		}
		findings = append(findings, models.Finding{
			ID:          fmt.Sprintf("architecture:cycle:%s", strings.Join(c.Nodes, "->")),
			Severity:    c.Severity,
			Category:    models.CategoryArchitecture,
			Title:       fmt.Sprintf("Circular dependency: %s", strings.Join(c.Nodes, " -> ")),
			Description: "modules in the cycle cannot be built, tested, or reasoned about in isolation",
			Remediation: "Invert one dependency in the cycle or extract the shared part",
			Location:    &models.Location{File: c.Nodes[0]},
		})
	}

	for _, hub := range graphMetrics.Hubs {
		findings = append(findings, models.Finding{
			ID:          fmt.Sprintf("architecture:hub:%s", hub),
			Severity:    models.SeverityLow,
			Category:    models.CategoryArchitecture,
			Title:       fmt.Sprintf("Component %s is a dependency hub", hub),
			Description: "a disproportionate share of modules depend on this component",
			Remediation: "Split the component's responsibilities to spread the coupling",
			Location:    &models.Location{File: hub},
		})
	}

	// Pattern compliance: a file violates the layering conventions when
	// it sits in a cycle or fans out to too many internal modules.
	fanOut := make(map[string]int)
	for _, e := range g.Edges {
		fanOut[e.From]++
	}
	violations := 0
	for _, n := range g.Nodes {
		if inCycle[n.ID] || fanOut[n.ID] > maxFanOut {
			violations++
		}
	}
	compliance := 1.0
	if len(g.Nodes) > 0 {
		compliance = 1 - float64(violations)/float64(len(g.Nodes))
	}

	metrics := map[string]float64{
		scoring.MetricFiles:             float64(len(files)),
		scoring.MetricComponents:        float64(graphMetrics.TotalNodes),
		scoring.MetricOversized:         float64(oversized),
		scoring.MetricCycles:            float64(len(cycles)),
		scoring.MetricHubComponents:     float64(len(graphMetrics.Hubs)),
		scoring.MetricPatternCompliance: compliance,
		scoring.MetricGraphDensity:      graphMetrics.Density,
		scoring.MetricExternalPackages:  float64(len(g.External)),
	}

	score := scoring.NormalizeArchitecture(metrics)
	return &models.AnalysisResult{
		Category:      models.CategoryArchitecture,
		Score:         score,
		Status:        models.StatusForScore(score),
		Findings:      findings,
		Metrics:       metrics,
		ExecutionTime: time.Since(start),
	}, nil
}
