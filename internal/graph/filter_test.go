package graph

import (
	"regexp"
	"testing"

	"github.com/matsen/episodegraph/internal/episode"
)

func filterFixture() *Graph {
	g, _ := Build([]episode.Episode{
		{
			ID:          1,
			URL:         "https://example.fm/episodes/1",
			Title:       "One",
			PublishedAt: published,
			Links: []string{
				"https://example.fm/episodes/2",
				"https://twitter.com/someone",
				"https://www.example.fm/episodes/2",
			},
		},
		{
			ID:          2,
			URL:         "https://example.fm/episodes/2",
			Title:       "Two",
			PublishedAt: published,
			Links:       []string{"https://github.com/project"},
		},
	})
	return g
}

func TestFilter_SubsetAndPredicateHolds(t *testing.T) {
	g := filterFixture()
	pred := SameHost("https://example.fm")

	filtered := Filter(g, pred)

	original := make(map[Edge]int)
	for _, e := range g.Edges() {
		original[e]++
	}
	for _, e := range filtered.Edges() {
		if original[e] == 0 {
			t.Errorf("filtered edge %v not in original graph", e)
		}
		original[e]--
		if !pred(e.Target) {
			t.Errorf("filtered edge target %q fails predicate", e.Target)
		}
	}
	if filtered.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", filtered.EdgeCount())
	}
}

func TestFilter_KeepsIsolatedLabeledEpisodes(t *testing.T) {
	g := filterFixture()
	filtered := Filter(g, SameHost("https://example.fm"))

	v, ok := filtered.Vertex("https://example.fm/episodes/2")
	if !ok || v.Label != "Two" {
		t.Errorf("episode 2 = %+v, %v; want labeled vertex", v, ok)
	}
	if len(filtered.OutEdges("https://example.fm/episodes/2")) != 0 {
		t.Error("episode 2 should have no surviving out-edges")
	}

	for _, dropped := range []string{"https://twitter.com/someone", "https://github.com/project"} {
		if _, ok := filtered.Vertex(dropped); ok {
			t.Errorf("unlabeled vertex %q should be dropped", dropped)
		}
	}
}

func TestFilter_DoesNotMutateOriginal(t *testing.T) {
	g := filterFixture()
	beforeEdges, beforeVertices := g.EdgeCount(), g.Len()

	_ = Filter(g, func(string) bool { return false })

	if g.EdgeCount() != beforeEdges || g.Len() != beforeVertices {
		t.Errorf("original changed: %d/%d edges, %d/%d vertices",
			g.EdgeCount(), beforeEdges, g.Len(), beforeVertices)
	}
}

func TestFilter_RejectAllKeepsOnlyEpisodes(t *testing.T) {
	filtered := Filter(filterFixture(), func(string) bool { return false })

	if filtered.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", filtered.EdgeCount())
	}
	if filtered.Len() != 2 {
		t.Errorf("Len() = %d, want 2 labeled episodes", filtered.Len())
	}
}

func TestSameHost(t *testing.T) {
	pred := SameHost("https://Example.fm/")

	tests := []struct {
		target string
		want   bool
	}{
		{"https://example.fm/episodes/3", true},
		{"http://www.example.fm/about", true},
		{"https://EXAMPLE.FM/x", true},
		{"https://cdn.example.fm/x", false},
		{"https://other.org", false},
		{"/episodes/3", false},
		{"mailto:host@example.fm", false},
		{"%zz", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if got := pred(tt.target); got != tt.want {
				t.Errorf("SameHost(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestPredicateCombinators(t *testing.T) {
	episodes := MatchPattern(regexp.MustCompile(`/episodes/\d+$`))
	sameSite := SameHost("https://example.fm")

	both := All(sameSite, episodes)
	if !both("https://example.fm/episodes/12") {
		t.Error("All() should match same-site episode link")
	}
	if both("https://example.fm/about") {
		t.Error("All() should reject non-episode link")
	}
	if !All()("anything") {
		t.Error("All() with no predicates should match")
	}
	if Not(sameSite)("https://example.fm/x") {
		t.Error("Not(SameHost) should reject same-site link")
	}
}
