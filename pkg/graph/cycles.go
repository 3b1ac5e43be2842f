package graph

import "github.com/verdict-tools/verdict/pkg/models"

// MaxReportedCycles bounds the cycle report; first found, first kept.
const MaxReportedCycles = 5

// dfs node colors.
const (
	unvisited = iota
	inProgress
	done
)

// DetectCycles finds circular dependencies using a three-color DFS.
// Nodes are processed in the graph's node order (the file-list order, not
// sorted). Meeting an in-progress node closes a cycle; meeting a done node
// prunes the branch, so diamond shapes are not false positives. Every
// cycle is reported at high severity regardless of length.
func DetectCycles(g *models.DependencyGraph) []models.CircularDependency {
	adjacency := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		adjacency[n.ID] = nil
	}
	for _, e := range g.Edges {
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}

	color := make(map[string]int, len(g.Nodes))
	var stack []string
	var cycles []models.CircularDependency

	var visit func(node string)
	visit = func(node string) {
		if len(cycles) >= MaxReportedCycles {
			return
		}
		color[node] = inProgress
		stack = append(stack, node)

		for _, next := range adjacency[node] {
			switch color[next] {
			case inProgress:
				// Back edge: the cycle runs from next to the current node.
				cycles = append(cycles, models.CircularDependency{
					Nodes:    extractCycle(stack, next),
					Severity: models.SeverityHigh,
				})
				if len(cycles) >= MaxReportedCycles {
					stack = stack[:len(stack)-1]
					color[node] = done
					return
				}
			case unvisited:
				visit(next)
			}
			// done: already fully explored, prune.
		}

		stack = stack[:len(stack)-1]
		color[node] = done
	}

	for _, n := range g.Nodes {
		if color[n.ID] == unvisited {
			visit(n.ID)
		}
		if len(cycles) >= MaxReportedCycles {
			break
		}
	}

	return cycles
}

// extractCycle copies the stack segment from the back-edge target to the
// top, which is the ordered node sequence of the cycle.
func extractCycle(stack []string, target string) []string {
	for i, node := range stack {
		if node == target {
			cycle := make([]string, len(stack)-i)
			copy(cycle, stack[i:])
			return cycle
		}
	}
	// Self-import: target is the node currently being expanded.
	return []string{target}
}
