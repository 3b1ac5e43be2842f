package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/verdict-tools/verdict/internal/output"
	"github.com/verdict-tools/verdict/pkg/graph"
	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/source"
)

var (
	graphFormat string
	graphOutput string
)

var graphCmd = &cobra.Command{
	Use:   "graph [paths...]",
	Short: "Show the intra-project dependency graph and its cycles",
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().StringVarP(&graphFormat, "format", "f", "", "Output format: text, json, or markdown")
	graphCmd.Flags().StringVarP(&graphOutput, "output", "o", "", "Write the graph to a file instead of stdout")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := collectFiles(cfg, getPaths(args))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	g := graph.NewBuilder(source.NewFilesystem()).Build(files)
	cycles := graph.DetectCycles(g)
	metrics := graph.CalculateMetrics(g)

	format := graphFormat
	if format == "" {
		format = cfg.Output.Format
	}
	formatter, err := output.NewFormatter(output.ParseFormat(format), graphOutput, cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(graphReport(g, cycles, metrics))
}

// graphReport summarizes the graph as a renderable section tree, with
// the raw graph attached for JSON output.
func graphReport(g *models.DependencyGraph, cycles []models.CircularDependency, metrics *models.GraphMetrics) *output.Section {
	root := &output.Section{
		Title: "Dependency graph",
		Content: fmt.Sprintf("%d nodes, %d edges, density %.3f, %d external packages",
			metrics.TotalNodes, metrics.TotalEdges, metrics.Density, len(g.External)),
		Data: map[string]any{
			"graph":   g,
			"cycles":  cycles,
			"metrics": metrics,
		},
	}

	if len(cycles) > 0 {
		var lines []string
		for _, c := range cycles {
			lines = append(lines, strings.Join(c.Nodes, " -> "))
		}
		root.Sections = append(root.Sections, output.Section{
			Title:   fmt.Sprintf("Cycles (%d)", len(cycles)),
			Content: strings.Join(lines, "\n"),
		})
	}

	if len(metrics.Hubs) > 0 {
		hubs := make([]string, len(metrics.Hubs))
		copy(hubs, metrics.Hubs)
		sort.Strings(hubs)
		root.Sections = append(root.Sections, output.Section{
			Title:   "Hub modules",
			Content: strings.Join(hubs, "\n"),
		})
	}
	return root
}
