package graph

import "testing"

func TestAddEdge_CreatesEndpoints(t *testing.T) {
	g := New()
	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}

	for _, key := range []string{"a", "b"} {
		v, ok := g.Vertex(key)
		if !ok {
			t.Fatalf("vertex %q not created", key)
		}
		if v.Labeled {
			t.Errorf("vertex %q should be unlabeled", key)
		}
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
}

func TestAddEdge_RejectsEmptyKeys(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		target  string
		wantErr error
	}{
		{"empty target", "a", "", ErrInvalidEdgeTarget},
		{"empty source", "", "b", ErrInvalidEdgeSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			if err := g.AddEdge(tt.source, tt.target); err != tt.wantErr {
				t.Errorf("AddEdge() = %v, want %v", err, tt.wantErr)
			}
			if g.Len() != 0 || g.EdgeCount() != 0 {
				t.Errorf("rejected edge mutated graph: %d vertices, %d edges", g.Len(), g.EdgeCount())
			}
		})
	}
}

func TestInEdges_ContainsAddedEdge(t *testing.T) {
	g := New()
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("c", "b")

	in := g.InEdges("b")
	if len(in) != 2 {
		t.Fatalf("InEdges(b) has %d edges, want 2", len(in))
	}
	if in[0] != (Edge{Source: "a", Target: "b"}) || in[1] != (Edge{Source: "c", Target: "b"}) {
		t.Errorf("InEdges(b) = %v", in)
	}

	// Vertices not touched by later edges keep their inbound set.
	before := len(g.InEdges("a"))
	_ = g.AddEdge("c", "d")
	if after := len(g.InEdges("a")); after != before {
		t.Errorf("InEdges(a) changed from %d to %d", before, after)
	}
}

func TestInEdges_UnknownAndSourceOnly(t *testing.T) {
	g := New()
	_ = g.AddEdge("a", "b")

	if in := g.InEdges("a"); len(in) != 0 {
		t.Errorf("InEdges(source-only) = %v, want empty", in)
	}
	if in := g.InEdges("missing"); in == nil || len(in) != 0 {
		t.Errorf("InEdges(unknown) = %v, want empty non-nil slice", in)
	}
}

func TestAddEdge_PreservesMultiEdges(t *testing.T) {
	g := New()
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "b")

	if got := len(g.InEdges("b")); got != 2 {
		t.Errorf("InEdges(b) length = %d, want 2", got)
	}
	if got := len(g.OutEdges("a")); got != 2 {
		t.Errorf("OutEdges(a) length = %d, want 2", got)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
}

func TestLabelVertex(t *testing.T) {
	t.Run("creates missing vertex", func(t *testing.T) {
		g := New()
		g.LabelVertex("a", "Alpha")

		v, ok := g.Vertex("a")
		if !ok || !v.Labeled || v.Label != "Alpha" {
			t.Errorf("Vertex(a) = %+v, %v", v, ok)
		}
	})

	t.Run("overwrites existing label", func(t *testing.T) {
		g := New()
		_ = g.AddEdge("x", "a")
		g.LabelVertex("a", "First")
		g.LabelVertex("a", "Second")

		v, _ := g.Vertex("a")
		if v.Label != "Second" {
			t.Errorf("Label = %q, want Second", v.Label)
		}
		if g.Len() != 2 {
			t.Errorf("Len() = %d, want 2", g.Len())
		}
	})

	t.Run("empty title still labels", func(t *testing.T) {
		g := New()
		g.LabelVertex("a", "")

		v, _ := g.Vertex("a")
		if !v.Labeled {
			t.Error("vertex should be marked labeled")
		}
	})
}

func TestVertices_InsertionOrder(t *testing.T) {
	g := New()
	_ = g.AddEdge("c", "a")
	g.LabelVertex("b", "Bee")
	_ = g.AddEdge("a", "b")

	var keys []string
	for _, v := range g.Vertices() {
		keys = append(keys, v.Key)
	}
	want := []string{"c", "a", "b"}
	if len(keys) != len(want) {
		t.Fatalf("Vertices() keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Vertices()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestEdges_ReturnsCopy(t *testing.T) {
	g := New()
	_ = g.AddEdge("a", "b")

	edges := g.Edges()
	edges[0].Target = "mutated"

	if g.Edges()[0].Target != "b" {
		t.Error("Edges() should return a copy")
	}
}
