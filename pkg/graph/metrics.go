package graph

import (
	"sort"

	"github.com/verdict-tools/verdict/pkg/models"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// hubFactor marks a node as a hub when its PageRank exceeds this multiple
// of the mean.
const hubFactor = 3.0

// CalculateMetrics derives structural metrics from the graph: edge
// density, PageRank per node, and hub modules whose rank stands well
// above the mean. Self-loops are skipped because simple directed graphs
// do not carry them; they still show up as cycles.
func CalculateMetrics(g *models.DependencyGraph) *models.GraphMetrics {
	metrics := &models.GraphMetrics{
		TotalNodes: len(g.Nodes),
		TotalEdges: len(g.Edges),
	}
	if len(g.Nodes) == 0 {
		return metrics
	}

	if len(g.Nodes) > 1 {
		maxEdges := len(g.Nodes) * (len(g.Nodes) - 1)
		metrics.Density = float64(len(g.Edges)) / float64(maxEdges)
	}

	directed := simple.NewDirectedGraph()
	idToNode := make(map[int64]string, len(g.Nodes))
	nodeToID := make(map[string]int64, len(g.Nodes))
	for i, n := range g.Nodes {
		id := int64(i)
		idToNode[id] = n.ID
		nodeToID[n.ID] = id
		directed.AddNode(simple.Node(id))
	}
	for _, e := range g.Edges {
		from, fromOK := nodeToID[e.From]
		to, toOK := nodeToID[e.To]
		if fromOK && toOK && from != to {
			directed.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}

	ranks := network.PageRank(directed, 0.85, 1e-6)

	metrics.PageRank = make(map[string]float64, len(ranks))
	var total float64
	for id, rank := range ranks {
		metrics.PageRank[idToNode[id]] = rank
		total += rank
	}
	mean := total / float64(len(g.Nodes))

	for _, n := range g.Nodes {
		if len(g.Edges) > 0 && metrics.PageRank[n.ID] > hubFactor*mean {
			metrics.Hubs = append(metrics.Hubs, n.ID)
		}
	}
	sort.Strings(metrics.Hubs)

	return metrics
}
