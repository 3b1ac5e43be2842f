package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdict-tools/verdict/internal/monitor"
	"github.com/verdict-tools/verdict/pkg/models"
)

func sampleResult() *models.ScoringResult {
	return &models.ScoringResult{
		Overall: models.Overall{
			Score:   72.5,
			Grade:   models.GradeC,
			Status:  models.StatusWarning,
			Summary: "Score 72.5 (C) is below the passing threshold of 80",
		},
		Components: map[models.Category]models.ComponentScore{
			models.CategoryQuality:      {Score: 80, Weight: 0.30, WeightedScore: 24},
			models.CategoryCoverage:     {Score: 60, Weight: 0.35, WeightedScore: 21},
			models.CategoryArchitecture: {Score: 75, Weight: 0.20, WeightedScore: 15},
			models.CategorySecurity:     {Score: 83.33, Weight: 0.15, WeightedScore: 12.5},
		},
		Findings: []models.Finding{
			{
				ID: "architecture:cycle:a->b", Severity: models.SeverityHigh,
				Category: models.CategoryArchitecture, Title: "Circular dependency: a -> b",
				Location: &models.Location{File: "a.ts"},
			},
		},
		Recommendations: []models.Recommendation{
			{Category: models.CategoryCoverage, Priority: models.PriorityHigh, Action: "Raise test coverage toward the 80% target"},
		},
		Metadata: models.RunMetadata{
			RunID: "run-1", Tool: "verdict", FilesAnalyzed: 3, Duration: 125 * time.Millisecond,
			Commit: "abc123def456",
		},
		Degraded: map[models.Category]string{},
	}
}

func TestGateReportText(t *testing.T) {
	var buf bytes.Buffer
	report := NewGateReport(sampleResult(), monitor.Report{}, false)
	require.NoError(t, report.RenderText(&buf, false))

	out := buf.String()
	assert.Contains(t, out, "Score 72.5")
	assert.Contains(t, out, "Grade C")
	assert.Contains(t, out, "WARNING")
	assert.Contains(t, out, "Circular dependency")
	assert.Contains(t, out, "Raise test coverage")
	assert.Contains(t, out, "run run-1")
	assert.Contains(t, out, "commit abc123def456")
}

func TestGateReportTextDegraded(t *testing.T) {
	result := sampleResult()
	result.Degraded[models.CategorySecurity] = "analyzer timed out"

	var buf bytes.Buffer
	require.NoError(t, NewGateReport(result, monitor.Report{}, false).RenderText(&buf, false))
	assert.Contains(t, buf.String(), "DEGRADED security: analyzer timed out")
}

func TestGateReportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGateReport(sampleResult(), monitor.Report{}, false).RenderMarkdown(&buf))

	out := buf.String()
	assert.Contains(t, out, "# Gate result: 72.5 (C, warning)")
	assert.Contains(t, out, "| category | score | weight | weighted |")
	assert.Contains(t, out, "## Recommendations")
}

func TestGateReportJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{format: FormatJSON, writer: &buf}
	require.NoError(t, f.Output(NewGateReport(sampleResult(), monitor.Report{}, false)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	result := decoded["result"].(map[string]any)
	overall := result["overall"].(map[string]any)
	assert.Equal(t, 72.5, overall["score"])
}

func TestFindingsTruncation(t *testing.T) {
	result := sampleResult()
	result.Findings = nil
	for i := 0; i < 40; i++ {
		result.Findings = append(result.Findings, models.Finding{
			ID: string(rune('a' + i)), Severity: models.SeverityLow,
			Category: models.CategoryQuality, Title: "filler",
		})
	}

	var compact bytes.Buffer
	require.NoError(t, NewGateReport(result, monitor.Report{}, false).RenderText(&compact, false))
	assert.Contains(t, compact.String(), "more (use --verbose)")

	var verbose bytes.Buffer
	require.NoError(t, NewGateReport(result, monitor.Report{}, true).RenderText(&verbose, false))
	assert.NotContains(t, verbose.String(), "more (use --verbose)")
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatMarkdown, ParseFormat("md"))
	assert.Equal(t, FormatText, ParseFormat("anything"))
}

func TestTableMarkdown(t *testing.T) {
	tbl := &Table{
		Headers: []string{"a", "b"},
		Rows:    [][]string{{"1", "2"}},
	}
	var buf bytes.Buffer
	require.NoError(t, tbl.RenderMarkdown(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "| a | b |", lines[0])
	assert.Equal(t, "| --- | --- |", lines[1])
	assert.Equal(t, "| 1 | 2 |", lines[2])
}
