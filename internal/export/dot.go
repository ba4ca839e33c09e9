// Package export renders the episode graph and episodes into external formats:
// Graphviz DOT and cross-linked markdown notes.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/matsen/episodegraph/internal/graph"
)

// DefaultGraphName is the digraph identifier used when none is given.
const DefaultGraphName = "episodes"

// DOTOptions controls DOT output.
type DOTOptions struct {
	Name string // digraph identifier, defaults to DefaultGraphName
}

// WriteDOT writes g as a Graphviz digraph. Each labeled vertex gets one
// statement, each edge instance gets its own "source" -> "target" line.
func WriteDOT(w io.Writer, g *graph.Graph, opts DOTOptions) error {
	_, err := io.WriteString(w, RenderDOT(g, opts))
	return err
}

// RenderDOT returns the DOT text for g.
func RenderDOT(g *graph.Graph, opts DOTOptions) string {
	name := opts.Name
	if name == "" {
		name = DefaultGraphName
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("digraph %s {\n", quoteDOT(name)))

	for _, v := range g.Vertices() {
		if !v.Labeled {
			continue
		}
		if v.Label == "" {
			b.WriteString(fmt.Sprintf("  %s;\n", quoteDOT(v.Key)))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s [label=%s];\n", quoteDOT(v.Key), quoteDOT(v.Label)))
	}

	for _, e := range g.Edges() {
		b.WriteString(fmt.Sprintf("  %s -> %s;\n", quoteDOT(e.Source), quoteDOT(e.Target)))
	}

	b.WriteString("}\n")
	return b.String()
}

// quoteDOT wraps s in double quotes, escaping backslashes, quotes and newlines.
func quoteDOT(s string) string {
	// Backslash first so the escapes added below are not doubled.
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\r\n", `\n`,
		"\n", `\n`,
		"\r", `\n`,
	)
	return `"` + replacer.Replace(s) + `"`
}
