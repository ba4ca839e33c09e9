package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		dot, format, want string
	}{
		{"graph.dot", "svg", "graph.svg"},
		{"/out/episodes.dot", "png", "/out/episodes.png"},
		{"noext", "pdf", "noext.pdf"},
		{"dir.v2/graph", "svg", "dir.v2/graph.svg"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.dot, tt.format); got != tt.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.dot, tt.format, got, tt.want)
		}
	}
}

func TestRender_MissingBinary(t *testing.T) {
	dir := t.TempDir()
	dotPath := filepath.Join(dir, "g.dot")
	if err := os.WriteFile(dotPath, []byte("digraph \"g\" {\n}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner("epg-no-such-graphviz-binary")
	if r.Available() {
		t.Skip("unexpected binary on PATH")
	}
	err := r.Render(context.Background(), dotPath, "svg", filepath.Join(dir, "g.svg"))
	if !errors.Is(err, ErrBinaryNotFound) {
		t.Errorf("Render() error = %v, want ErrBinaryNotFound", err)
	}
}

func TestRender_MissingInput(t *testing.T) {
	r := NewRunner("")
	err := r.Render(context.Background(), filepath.Join(t.TempDir(), "nope.dot"), "svg", "out.svg")
	if err == nil {
		t.Error("Render() expected error for missing DOT file")
	}
}

func TestRender_Dot(t *testing.T) {
	r := NewRunner("")
	if !r.Available() {
		t.Skip("graphviz not installed")
	}

	dir := t.TempDir()
	dotPath := filepath.Join(dir, "g.dot")
	if err := os.WriteFile(dotPath, []byte("digraph \"g\" {\n  \"a\" -> \"b\";\n}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out := OutputPath(dotPath, "svg")
	if err := r.Render(context.Background(), dotPath, "svg", out); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("rendered file missing or empty: %v", err)
	}
}
