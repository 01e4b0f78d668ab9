package graph

import "sort"

// ArticulationPoint is a fossil whose removal splits its component.
type ArticulationPoint struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Neighbors int    `json:"neighbors"`
}

// BridgeEdge is a link whose removal splits its component.
type BridgeEdge struct {
	SourceID    string `json:"source_id"`
	TargetID    string `json:"target_id"`
	SourceTitle string `json:"source_title"`
	TargetTitle string `json:"target_title"`
}

// FragileConnection is a pair of thematic regions joined by very few links.
type FragileConnection struct {
	RegionA    string `json:"region_a"`
	RegionB    string `json:"region_b"`
	CrossEdges int    `json:"cross_edges"`
}

// BridgeReport holds the structural weak points of the graph.
type BridgeReport struct {
	ArticulationPoints []ArticulationPoint `json:"articulation_points"`
	BridgeEdges        []BridgeEdge        `json:"bridge_edges"`
	FragileConnections []FragileConnection `json:"fragile_connections"`
	APCount            int                 `json:"ap_count"`
	BridgeCount        int                 `json:"bridge_count"`
}

// maxFragileCrossEdges is the most links two regions may share and still count as fragile.
const maxFragileCrossEdges = 2

// ComputeBridges finds articulation points, bridge edges and fragile region pairs.
func ComputeBridges(snap *Snapshot) *BridgeReport {
	report := &BridgeReport{}
	if len(snap.Nodes) == 0 {
		return report
	}

	ids := snap.NodeIDs()
	adj := dedupAdjacency(snap, ids)
	isAP, bridges := tarjan(adj)

	for i, ap := range isAP {
		if !ap {
			continue
		}
		report.ArticulationPoints = append(report.ArticulationPoints, ArticulationPoint{
			ID:        ids[i],
			Title:     snap.Nodes[ids[i]].Title,
			Neighbors: len(adj[i]),
		})
	}
	for _, b := range bridges {
		u, v := ids[b[0]], ids[b[1]]
		report.BridgeEdges = append(report.BridgeEdges, BridgeEdge{
			SourceID:    u,
			TargetID:    v,
			SourceTitle: snap.Nodes[u].Title,
			TargetTitle: snap.Nodes[v].Title,
		})
	}
	report.FragileConnections = fragileRegions(snap)
	report.APCount = len(report.ArticulationPoints)
	report.BridgeCount = len(report.BridgeEdges)
	return report
}

// dedupAdjacency returns an undirected index adjacency without parallel edges or self loops.
func dedupAdjacency(snap *Snapshot, ids []string) [][]int {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	adj := make([][]int, len(ids))
	seen := make(map[[2]int]bool)
	for _, e := range snap.Edges {
		u, v := index[e.Source], index[e.Target]
		if u == v {
			continue
		}
		key := [2]int{min(u, v), max(u, v)}
		if seen[key] {
			continue
		}
		seen[key] = true
		adj[u] = append(adj[u], v)
		adj[v] = append(adj[v], u)
	}
	return adj
}

// tarjan runs an iterative low-link DFS over every component.
func tarjan(adj [][]int) (isAP []bool, bridges [][2]int) {
	n := len(adj)
	disc := make([]int, n)
	low := make([]int, n)
	isAP = make([]bool, n)
	clock := 0

	type frame struct{ node, parent, next int }

	for root := 0; root < n; root++ {
		if disc[root] != 0 {
			continue
		}
		clock++
		disc[root], low[root] = clock, clock
		rootChildren := 0
		stack := []frame{{root, -1, 0}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(adj[top.node]) {
				child := adj[top.node][top.next]
				top.next++
				switch {
				case child == top.parent:
				case disc[child] != 0:
					low[top.node] = min(low[top.node], disc[child])
				default:
					clock++
					disc[child], low[child] = clock, clock
					if top.node == root {
						rootChildren++
					}
					stack = append(stack, frame{child, top.node, 0})
				}
				continue
			}

			node := top.node
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				break
			}
			parent := stack[len(stack)-1].node
			low[parent] = min(low[parent], low[node])
			if low[node] > disc[parent] {
				bridges = append(bridges, [2]int{parent, node})
			}
			if parent != root && low[node] >= disc[parent] {
				isAP[parent] = true
			}
		}
		if rootChildren >= 2 {
			isAP[root] = true
		}
	}
	return isAP, bridges
}

// fragileRegions counts links between distinct regions and keeps the thin ones.
func fragileRegions(snap *Snapshot) []FragileConnection {
	counts := make(map[[2]string]int)
	for _, e := range snap.Edges {
		ra, rb := snap.Regions[e.Source], snap.Regions[e.Target]
		if ra == rb || ra == Unassigned || rb == Unassigned {
			continue
		}
		counts[pairKey(ra, rb)]++
	}

	var out []FragileConnection
	for pair, n := range counts {
		if n <= maxFragileCrossEdges {
			out = append(out, FragileConnection{RegionA: pair[0], RegionB: pair[1], CrossEdges: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CrossEdges != out[j].CrossEdges {
			return out[i].CrossEdges < out[j].CrossEdges
		}
		if out[i].RegionA != out[j].RegionA {
			return out[i].RegionA < out[j].RegionA
		}
		return out[i].RegionB < out[j].RegionB
	})
	return out
}
