package models

// GraphNode is a node in the intra-project dependency graph.
// The ID is the normalized project-relative file path.
type GraphNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GraphEdge is a directed "imports" relationship between two files.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DependencyGraph is the directed graph of intra-project imports.
// It is built fresh per run from the current file set and never persisted.
type DependencyGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`

	// External tallies package-style imports that do not resolve to a
	// project file, keyed by import path.
	External map[string]int `json:"external,omitempty"`
}

// CircularDependency is a non-empty import cycle, reported as the ordered
// node sequence that closes the cycle. Severity is fixed at high for any
// cycle regardless of length.
type CircularDependency struct {
	Nodes    []string `json:"nodes"`
	Severity Severity `json:"severity"`
}

// GraphMetrics carries derived structural metrics for the graph.
type GraphMetrics struct {
	TotalNodes int                `json:"total_nodes"`
	TotalEdges int                `json:"total_edges"`
	Density    float64            `json:"density"`
	PageRank   map[string]float64 `json:"pagerank,omitempty"`
	Hubs       []string           `json:"hubs,omitempty"`
}
