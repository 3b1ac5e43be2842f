package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/verdict-tools/verdict/internal/monitor"
	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/scoring"
)

// maxRenderedFindings bounds the findings table in human-readable
// formats; JSON output always carries everything.
const maxRenderedFindings = 25

// GateReport renders one scored run in all supported formats.
type GateReport struct {
	Result  *models.ScoringResult
	Perf    monitor.Report
	Verbose bool
}

// NewGateReport wraps a scoring result for rendering.
func NewGateReport(result *models.ScoringResult, perf monitor.Report, verbose bool) *GateReport {
	return &GateReport{Result: result, Perf: perf, Verbose: verbose}
}

func (g *GateReport) RenderData() any {
	return map[string]any{
		"result":      g.Result,
		"performance": g.Perf,
	}
}

func (g *GateReport) RenderText(w io.Writer, colored bool) error {
	overall := g.Result.Overall
	headline := fmt.Sprintf("Score %.1f  Grade %s  %s", overall.Score, overall.Grade, strings.ToUpper(string(overall.Status)))
	if colored {
		gradeColor(overall.Grade).Fprintln(w, headline)
	} else {
		fmt.Fprintln(w, headline)
	}
	fmt.Fprintln(w, overall.Summary)
	fmt.Fprintln(w)

	if err := g.componentTable().RenderText(w, colored); err != nil {
		return err
	}

	for _, d := range sortedDegraded(g.Result.Degraded) {
		line := fmt.Sprintf("DEGRADED %s: %s", d.category, d.reason)
		if colored {
			color.New(color.FgRed).Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
	if len(g.Result.Degraded) > 0 {
		fmt.Fprintln(w)
	}

	if len(g.Result.Findings) > 0 {
		if err := g.findingsTable().RenderText(w, colored); err != nil {
			return err
		}
	}

	if len(g.Result.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations")
		fmt.Fprintln(w, strings.Repeat("=", len("Recommendations")))
		for _, r := range g.Result.Recommendations {
			prio := strings.ToUpper(string(r.Priority))
			if colored {
				prio = SeverityColor(string(r.Priority), prio)
			}
			fmt.Fprintf(w, "  [%s] %s", prio, r.Action)
			if r.Rationale != "" {
				fmt.Fprintf(w, " (%s)", r.Rationale)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	g.renderFooter(w)
	return nil
}

func (g *GateReport) RenderMarkdown(w io.Writer) error {
	overall := g.Result.Overall
	fmt.Fprintf(w, "# Gate result: %.1f (%s, %s)\n\n", overall.Score, overall.Grade, overall.Status)
	fmt.Fprintf(w, "%s\n\n", overall.Summary)

	if err := g.componentTable().RenderMarkdown(w); err != nil {
		return err
	}
	for _, d := range sortedDegraded(g.Result.Degraded) {
		fmt.Fprintf(w, "> **Degraded** `%s`: %s\n", d.category, d.reason)
	}
	if len(g.Result.Degraded) > 0 {
		fmt.Fprintln(w)
	}

	if len(g.Result.Findings) > 0 {
		if err := g.findingsTable().RenderMarkdown(w); err != nil {
			return err
		}
	}

	if len(g.Result.Recommendations) > 0 {
		fmt.Fprintf(w, "## Recommendations\n\n")
		for _, r := range g.Result.Recommendations {
			fmt.Fprintf(w, "- **%s**: %s", r.Priority, r.Action)
			if r.Rationale != "" {
				fmt.Fprintf(w, " _(%s)_", r.Rationale)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	g.renderFooter(w)
	return nil
}

func (g *GateReport) componentTable() *Table {
	rows := make([][]string, 0, len(g.Result.Components))
	for _, cat := range scoring.SortedCategories(g.Result.Components) {
		c := g.Result.Components[cat]
		rows = append(rows, []string{
			string(cat),
			fmt.Sprintf("%.1f", c.Score),
			fmt.Sprintf("%.2f", c.Weight),
			fmt.Sprintf("%.1f", c.WeightedScore),
		})
	}
	return &Table{
		Title:   "Categories",
		Headers: []string{"category", "score", "weight", "weighted"},
		Rows:    rows,
		Footer:  []string{"overall", "", "", fmt.Sprintf("%.1f", g.Result.Overall.Score)},
	}
}

func (g *GateReport) findingsTable() *Table {
	findings := g.Result.Findings
	truncated := 0
	if !g.Verbose && len(findings) > maxRenderedFindings {
		truncated = len(findings) - maxRenderedFindings
		findings = findings[:maxRenderedFindings]
	}

	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		loc := ""
		if f.Location != nil {
			loc = f.Location.File
			if f.Location.Line > 0 {
				loc = fmt.Sprintf("%s:%d", loc, f.Location.Line)
			}
		}
		rows = append(rows, []string{string(f.Severity), string(f.Category), f.Title, loc})
	}

	t := &Table{
		Title:   fmt.Sprintf("Findings (%d)", len(g.Result.Findings)),
		Headers: []string{"severity", "category", "finding", "location"},
		Rows:    rows,
	}
	if truncated > 0 {
		t.Footer = []string{"", "", fmt.Sprintf("… %d more (use --verbose)", truncated), ""}
	}
	return t
}

func (g *GateReport) renderFooter(w io.Writer) {
	meta := g.Result.Metadata
	fmt.Fprintf(w, "run %s  %d files  %s", meta.RunID, meta.FilesAnalyzed, meta.Duration.Round(time.Millisecond))
	if meta.Commit != "" {
		fmt.Fprintf(w, "  commit %s", meta.Commit)
	}
	fmt.Fprintln(w)

	if g.Verbose {
		stats := g.Perf.CacheStats
		fmt.Fprintf(w, "cache: %d hits / %d misses (%.0f%%), slowest analyzer: %s\n",
			stats.Hits, stats.Misses, stats.HitRate*100, g.Perf.SlowestAnalyzer)
	}
	for _, alert := range g.Perf.Alerts {
		fmt.Fprintf(w, "performance alert: %s\n", alert)
	}
}

func gradeColor(grade models.Grade) *color.Color {
	switch grade {
	case models.GradeA, models.GradeB:
		return color.New(color.Bold, color.FgGreen)
	case models.GradeC:
		return color.New(color.Bold, color.FgYellow)
	default:
		return color.New(color.Bold, color.FgRed)
	}
}

type degradedEntry struct {
	category models.Category
	reason   string
}

func sortedDegraded(degraded map[models.Category]string) []degradedEntry {
	entries := make([]degradedEntry, 0, len(degraded))
	for cat, reason := range degraded {
		entries = append(entries, degradedEntry{category: cat, reason: reason})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].category < entries[j].category })
	return entries
}
