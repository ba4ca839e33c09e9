package graph

import "github.com/matsen/episodegraph/internal/episode"

// BuildStats summarizes a Build pass.
type BuildStats struct {
	Episodes     int `json:"episodes"`
	Edges        int `json:"edges"`
	SkippedLinks int `json:"skipped_links"` // anchors with no href
}

// Build constructs the graph from episodes in input order. For each episode
// every link becomes an edge from the episode URL, then the episode vertex is
// labeled with its title. Empty link targets are skipped and counted.
func Build(episodes []episode.Episode) (*Graph, BuildStats) {
	g := New()
	var stats BuildStats

	for _, e := range episodes {
		for _, link := range e.Links {
			if err := g.AddEdge(e.URL, link); err != nil {
				stats.SkippedLinks++
				continue
			}
		}
		g.LabelVertex(e.URL, e.Title)
		stats.Episodes++
	}

	stats.Edges = g.EdgeCount()
	return g, stats
}
