package graph

import "sort"

// HubNode is a fossil with many links.
type HubNode struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Degree    int    `json:"degree"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
}

// DegreeBucket is one bucket in the degree histogram.
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport summarizes the shape of the fossil graph.
type TopologyReport struct {
	TotalNodes        int              `json:"total_nodes"`
	TotalEdges        int              `json:"total_edges"`
	EdgesByType       map[EdgeType]int `json:"edges_by_type"`
	NumComponents     int              `json:"num_components"`
	LargestComponent  int              `json:"largest_component"`
	SmallestComponent int              `json:"smallest_component"`
	OrphanCount       int              `json:"orphan_count"`
	OrphanIDs         []string         `json:"orphan_ids"`
	DegreeHistogram   []DegreeBucket   `json:"degree_histogram"`
	Hubs              []HubNode        `json:"hubs"`
}

// ComputeTopology counts components, orphans, degree distribution and hubs.
func ComputeTopology(snap *Snapshot, hubThreshold, topN int) *TopologyReport {
	report := &TopologyReport{
		TotalNodes:      len(snap.Nodes),
		TotalEdges:      len(snap.Edges),
		EdgesByType:     map[EdgeType]int{},
		DegreeHistogram: defaultHistogram(),
	}
	if report.TotalNodes == 0 {
		return report
	}

	ids := snap.NodeIDs()
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	uf := newUnionFind(len(ids))
	for _, e := range snap.Edges {
		report.EdgesByType[e.Type]++
		uf.union(index[e.Source], index[e.Target])
	}

	sizes := uf.componentSizes()
	report.NumComponents = len(sizes)
	report.SmallestComponent = report.TotalNodes
	for _, n := range sizes {
		report.LargestComponent = max(report.LargestComponent, n)
		report.SmallestComponent = min(report.SmallestComponent, n)
	}

	for _, id := range ids {
		degree := len(snap.Adj[id])
		report.DegreeHistogram[degreeBucket(degree)].Count++
		if degree == 0 {
			report.OrphanCount++
			if len(report.OrphanIDs) < topN {
				report.OrphanIDs = append(report.OrphanIDs, id)
			}
		}
		if degree > hubThreshold {
			report.Hubs = append(report.Hubs, HubNode{
				ID:        id,
				Title:     snap.Nodes[id].Title,
				Degree:    degree,
				InDegree:  len(snap.InAdj[id]),
				OutDegree: len(snap.OutAdj[id]),
			})
		}
	}

	sort.SliceStable(report.Hubs, func(i, j int) bool { return report.Hubs[i].Degree > report.Hubs[j].Degree })
	if len(report.Hubs) > topN {
		report.Hubs = report.Hubs[:topN]
	}
	return report
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
