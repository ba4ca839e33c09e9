package graph

import "sort"

// BacklinkEntry is the inbound edge count of one vertex.
type BacklinkEntry struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
}

// BacklinkCount returns the number of inbound edges of key, counting parallel
// edges. Unknown keys have zero backlinks.
func BacklinkCount(g *Graph, key string) int {
	return len(g.in[key])
}

// Backlinks returns the backlink count of every vertex, highest first.
// Ties keep vertex insertion order.
func Backlinks(g *Graph) []BacklinkEntry {
	entries := make([]BacklinkEntry, 0, g.Len())
	for _, v := range g.Vertices() {
		entries = append(entries, BacklinkEntry{
			Key:   v.Key,
			Label: v.Label,
			Count: BacklinkCount(g, v.Key),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}
