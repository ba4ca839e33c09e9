package graph

import (
	"net/url"
	"regexp"
	"strings"
)

// Predicate decides whether an edge target is kept by Filter.
type Predicate func(target string) bool

// Filter returns a new graph holding only the edges whose target satisfies
// pred, in their original order. Every labeled vertex is carried over, even
// when none of its edges survive. Unlabeled vertices appear only as endpoints
// of kept edges. g is not modified.
func Filter(g *Graph, pred Predicate) *Graph {
	kept := make([]Edge, 0, len(g.edges))
	endpoints := make(map[string]bool)
	for _, e := range g.edges {
		if pred(e.Target) {
			kept = append(kept, e)
			endpoints[e.Source] = true
			endpoints[e.Target] = true
		}
	}

	out := New()
	// Vertex order follows the original graph.
	for _, key := range g.order {
		v := g.vertices[key]
		if v.Labeled || endpoints[key] {
			nv := out.ensureVertex(key)
			nv.Label = v.Label
			nv.Labeled = v.Labeled
		}
	}
	for _, e := range kept {
		// Endpoints already exist and are non-empty.
		_ = out.AddEdge(e.Source, e.Target)
	}
	return out
}

// SameHost matches targets on the same host as siteURL.
// Hosts compare case-insensitively and ignore a leading "www.".
// Targets that do not parse or have no host never match.
func SameHost(siteURL string) Predicate {
	want := hostOf(siteURL)
	return func(target string) bool {
		host := hostOf(target)
		return host != "" && host == want
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// MatchPattern matches targets against re.
func MatchPattern(re *regexp.Regexp) Predicate {
	return func(target string) bool {
		return re.MatchString(target)
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(target string) bool {
		return !p(target)
	}
}

// All matches when every predicate matches. With no predicates it matches everything.
func All(preds ...Predicate) Predicate {
	return func(target string) bool {
		for _, p := range preds {
			if !p(target) {
				return false
			}
		}
		return true
	}
}
