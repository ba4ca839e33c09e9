package graph

import (
	"testing"
	"time"

	"github.com/matsen/episodegraph/internal/episode"
)

var published = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

func TestBuild_LabelsEpisodesAndSkipsEmptyLinks(t *testing.T) {
	episodes := []episode.Episode{
		{
			ID:          1,
			URL:         "https://example.fm/1",
			Title:       "One",
			PublishedAt: published,
			Links:       []string{"https://example.fm/2", "", "https://other.org/x"},
		},
		{
			ID:          2,
			URL:         "https://example.fm/2",
			Title:       "Two",
			PublishedAt: published,
		},
	}

	g, stats := Build(episodes)

	if stats.Episodes != 2 {
		t.Errorf("stats.Episodes = %d, want 2", stats.Episodes)
	}
	if stats.Edges != 2 {
		t.Errorf("stats.Edges = %d, want 2", stats.Edges)
	}
	if stats.SkippedLinks != 1 {
		t.Errorf("stats.SkippedLinks = %d, want 1", stats.SkippedLinks)
	}

	v, ok := g.Vertex("https://example.fm/2")
	if !ok || v.Label != "Two" {
		t.Errorf("episode 2 vertex = %+v, %v", v, ok)
	}

	external, ok := g.Vertex("https://other.org/x")
	if !ok {
		t.Fatal("external link target should be a vertex")
	}
	if external.Labeled {
		t.Error("external vertex should stay unlabeled")
	}

	if _, ok := g.Vertex(""); ok {
		t.Error("empty href must not become a vertex")
	}
}

func TestBuild_EpisodeWithoutLinksIsIsolatedVertex(t *testing.T) {
	g, _ := Build([]episode.Episode{
		{ID: 1, URL: "https://example.fm/1", Title: "Lonely", PublishedAt: published},
	})

	if g.Len() != 1 || g.EdgeCount() != 0 {
		t.Errorf("got %d vertices and %d edges, want 1 and 0", g.Len(), g.EdgeCount())
	}
}
