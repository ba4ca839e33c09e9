// Package graph holds the episode reference graph: a directed multigraph keyed
// by URL, its construction from episodes, domain filtering and backlink counts.
package graph

import "errors"

// Vertex is a node keyed by URL.
// Only vertices whose key is a crawled episode URL carry a label.
type Vertex struct {
	Key     string `json:"key"`
	Label   string `json:"label,omitempty"`
	Labeled bool   `json:"labeled"`
}

// Edge is one link occurrence from Source to Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Construction errors.
var (
	ErrInvalidEdgeSource = errors.New("edge source must not be empty")
	ErrInvalidEdgeTarget = errors.New("edge target must not be empty")
)

// Graph is a directed multigraph with optionally labeled vertices.
// Vertices are created implicitly by AddEdge and LabelVertex.
// Iteration order is insertion order. Not safe for concurrent writers.
type Graph struct {
	order    []string
	vertices map[string]*Vertex
	edges    []Edge
	in       map[string][]int // target key -> indexes into edges
	out      map[string][]int // source key -> indexes into edges
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[string]*Vertex),
		in:       make(map[string][]int),
		out:      make(map[string][]int),
	}
}

// ensureVertex returns the vertex for key, creating it unlabeled if absent.
func (g *Graph) ensureVertex(key string) *Vertex {
	if v, ok := g.vertices[key]; ok {
		return v
	}
	v := &Vertex{Key: key}
	g.vertices[key] = v
	g.order = append(g.order, key)
	return v
}

// AddEdge inserts a directed edge, creating either endpoint if absent.
// Repeated calls with the same pair add parallel edges.
func (g *Graph) AddEdge(source, target string) error {
	if source == "" {
		return ErrInvalidEdgeSource
	}
	if target == "" {
		return ErrInvalidEdgeTarget
	}

	g.ensureVertex(source)
	g.ensureVertex(target)

	idx := len(g.edges)
	g.edges = append(g.edges, Edge{Source: source, Target: target})
	g.in[target] = append(g.in[target], idx)
	g.out[source] = append(g.out[source], idx)
	return nil
}

// LabelVertex sets the label of key, creating the vertex if needed.
// An existing label is overwritten.
func (g *Graph) LabelVertex(key, label string) {
	v := g.ensureVertex(key)
	v.Label = label
	v.Labeled = true
}

// InEdges returns the edges whose target is key, in insertion order.
// Unknown keys yield an empty slice.
func (g *Graph) InEdges(key string) []Edge {
	return g.collect(g.in[key])
}

// OutEdges returns the edges whose source is key, in insertion order.
func (g *Graph) OutEdges(key string) []Edge {
	return g.collect(g.out[key])
}

func (g *Graph) collect(idxs []int) []Edge {
	edges := make([]Edge, 0, len(idxs))
	for _, i := range idxs {
		edges = append(edges, g.edges[i])
	}
	return edges
}

// Vertex looks up a vertex by key.
func (g *Graph) Vertex(key string) (Vertex, bool) {
	v, ok := g.vertices[key]
	if !ok {
		return Vertex{}, false
	}
	return *v, true
}

// Vertices returns a copy of all vertices in insertion order.
func (g *Graph) Vertices() []Vertex {
	vs := make([]Vertex, 0, len(g.order))
	for _, key := range g.order {
		vs = append(vs, *g.vertices[key])
	}
	return vs
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of edge instances.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}
