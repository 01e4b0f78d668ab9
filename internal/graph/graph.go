// Package graph builds the fossil graph and analyzes its structure.
package graph

import (
	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/text"
)

// EdgeType is the kind of link between two fossils.
type EdgeType string

const (
	EdgeReentry  EdgeType = "reentry"
	EdgeSemantic EdgeType = "semantic"
	EdgeManual   EdgeType = "manual"
)

// DefaultSemanticThreshold is the minimum similarity for a semantic edge.
const DefaultSemanticThreshold = 0.30

// Node is a visible fossil placed in the graph.
type Node struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ClusterID int     `json:"cluster_id"`
	Size      float64 `json:"size"`
}

// Edge connects two fossils. Weight is in (0,1].
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
	Weight float64  `json:"weight"`
}

// Graph is the output of BuildGraph.
type Graph struct {
	Nodes        []Node `json:"nodes"`
	Edges        []Edge `json:"edges"`
	ClusterCount int    `json:"cluster_count"`
}

// BuildOptions tunes BuildGraph.
type BuildOptions struct {
	SemanticThreshold float64
}

// NodeSize maps quality and reuse to a display radius.
func NodeSize(r *fossil.Record) float64 {
	return 6 + 2*float64(r.Quality) + float64(min(r.ReuseCount, 10))
}

// BuildGraph creates one node per visible record, reentry and semantic edges,
// plus any manual edges whose endpoints are both present, then assigns each
// node to a connected component.
//
// The semantic pass compares every pair of visible records, O(n²). That is
// fine for a personal vault of a few thousand fossils; larger corpora would
// need an inverted token index to prune candidate pairs first.
func BuildGraph(records []fossil.Record, idx text.Index, manual []Edge, opts BuildOptions) *Graph {
	threshold := opts.SemanticThreshold
	if threshold <= 0 {
		threshold = DefaultSemanticThreshold
	}

	visible := fossil.VisibleOnly(records)
	g := &Graph{Nodes: make([]Node, len(visible))}
	pos := make(map[string]int, len(visible))
	for i := range visible {
		g.Nodes[i] = Node{ID: visible[i].ID, Size: NodeSize(&visible[i])}
		pos[visible[i].ID] = i
	}

	linked := make(map[[2]string]bool)
	for i := range visible {
		parent := visible[i].Parent()
		if parent == "" {
			continue
		}
		if _, ok := pos[parent]; !ok {
			continue
		}
		key := pairKey(parent, visible[i].ID)
		if linked[key] {
			continue
		}
		linked[key] = true
		g.Edges = append(g.Edges, Edge{Source: parent, Target: visible[i].ID, Type: EdgeReentry, Weight: 1})
	}

	tokens := make([]text.TokenSet, len(visible))
	for i := range visible {
		tokens[i] = idx.Tokens(nil, &visible[i])
	}
	for i := 0; i < len(visible); i++ {
		for j := i + 1; j < len(visible); j++ {
			if linked[pairKey(visible[i].ID, visible[j].ID)] {
				continue
			}
			sim := text.Jaccard(tokens[i], tokens[j])
			if sim >= threshold {
				g.Edges = append(g.Edges, Edge{Source: visible[i].ID, Target: visible[j].ID, Type: EdgeSemantic, Weight: sim})
			}
		}
	}

	for _, e := range manual {
		_, okS := pos[e.Source]
		_, okT := pos[e.Target]
		if !okS || !okT || e.Source == e.Target {
			continue
		}
		w := e.Weight
		if w <= 0 || w > 1 {
			w = 1
		}
		g.Edges = append(g.Edges, Edge{Source: e.Source, Target: e.Target, Type: EdgeManual, Weight: w})
	}

	g.ClusterCount = assignClusters(g.Nodes, g.Edges, pos)
	return g
}

// assignClusters labels connected components in node order and returns their count.
// Nodes without edges become singleton clusters.
func assignClusters(nodes []Node, edges []Edge, pos map[string]int) int {
	adj := make([][]int, len(nodes))
	for _, e := range edges {
		s, t := pos[e.Source], pos[e.Target]
		adj[s] = append(adj[s], t)
		adj[t] = append(adj[t], s)
	}

	seen := make([]bool, len(nodes))
	cluster := 0
	for start := range nodes {
		if seen[start] {
			continue
		}
		seen[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			nodes[cur].ClusterID = cluster
			for _, next := range adj[cur] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		cluster++
	}
	return cluster
}

// LinkedPairs returns the unordered pairs joined by reentry or manual edges.
func LinkedPairs(edges []Edge) map[[2]string]bool {
	out := make(map[[2]string]bool)
	for _, e := range edges {
		if e.Type == EdgeReentry || e.Type == EdgeManual {
			out[pairKey(e.Source, e.Target)] = true
		}
	}
	return out
}

// PairKey orders two ids so an unordered pair has one key.
func PairKey(a, b string) [2]string { return pairKey(a, b) }

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
