package graph

import (
	"sort"

	"fossilbed/strata/internal/fossil"
)

// Unassigned is the region of fossils outside every thematic cluster.
const Unassigned = "unassigned"

// NodeInfo is the per-fossil data the structural analyses need.
type NodeInfo struct {
	ID          string
	Title       string
	CreatedAt   int64
	LastTouched int64
	Quality     int
	ClusterID   int
}

// Snapshot holds a built graph with precomputed adjacency and a region map.
type Snapshot struct {
	Nodes   map[string]*NodeInfo
	Edges   []Edge
	Adj     map[string][]string // undirected
	OutAdj  map[string][]string // source -> targets
	InAdj   map[string][]string // target -> sources
	Regions map[string]string   // fossil id -> thematic region
	// EdgeCreated is the creation time of the newer endpoint, used as the edge age.
	EdgeCreated map[[2]string]int64
}

// NewSnapshot indexes g for analysis. records supplies titles and timestamps;
// regions maps fossil ids to a thematic region label and may be nil.
func NewSnapshot(g *Graph, records []fossil.Record, regions map[string]string) *Snapshot {
	byID := fossil.ByID(records)

	s := &Snapshot{
		Nodes:       make(map[string]*NodeInfo, len(g.Nodes)),
		Adj:         make(map[string][]string, len(g.Nodes)),
		OutAdj:      make(map[string][]string, len(g.Nodes)),
		InAdj:       make(map[string][]string, len(g.Nodes)),
		Regions:     make(map[string]string, len(g.Nodes)),
		EdgeCreated: make(map[[2]string]int64),
	}
	for _, n := range g.Nodes {
		info := &NodeInfo{ID: n.ID, Title: n.ID, ClusterID: n.ClusterID}
		if r, ok := byID[n.ID]; ok {
			info.Title = Title(r)
			info.CreatedAt = r.CreatedAt
			info.LastTouched = r.LastTouched()
			info.Quality = r.Quality
		}
		s.Nodes[n.ID] = info
		s.Adj[n.ID] = nil
		s.OutAdj[n.ID] = nil
		s.InAdj[n.ID] = nil

		region := regions[n.ID]
		if region == "" {
			region = Unassigned
		}
		s.Regions[n.ID] = region
	}

	for _, e := range g.Edges {
		src, okS := s.Nodes[e.Source]
		tgt, okT := s.Nodes[e.Target]
		if !okS || !okT {
			continue
		}
		s.Edges = append(s.Edges, e)
		s.Adj[e.Source] = append(s.Adj[e.Source], e.Target)
		s.Adj[e.Target] = append(s.Adj[e.Target], e.Source)
		s.OutAdj[e.Source] = append(s.OutAdj[e.Source], e.Target)
		s.InAdj[e.Target] = append(s.InAdj[e.Target], e.Source)
		s.EdgeCreated[pairKey(e.Source, e.Target)] = max(src.CreatedAt, tgt.CreatedAt)
	}
	return s
}

// NodeIDs returns all node ids sorted.
func (s *Snapshot) NodeIDs() []string {
	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FilterToRegion returns a snapshot restricted to one region.
func (s *Snapshot) FilterToRegion(region string) *Snapshot {
	g := &Graph{}
	var keep []fossil.Record
	regions := make(map[string]string)
	for _, id := range s.NodeIDs() {
		if s.Regions[id] != region {
			continue
		}
		n := s.Nodes[id]
		g.Nodes = append(g.Nodes, Node{ID: id, ClusterID: n.ClusterID})
		keep = append(keep, fossil.Record{ID: id, Invariant: n.Title, CreatedAt: n.CreatedAt, Quality: n.Quality})
		regions[id] = region
	}
	g.Edges = s.Edges
	sub := NewSnapshot(g, keep, regions)
	for id, n := range sub.Nodes {
		n.Title = s.Nodes[id].Title
		n.LastTouched = s.Nodes[id].LastTouched
	}
	return sub
}

// Title is a short display label for a fossil.
func Title(r *fossil.Record) string {
	t := r.Invariant
	if t == "" {
		t = r.ProbeIntent
	}
	if t == "" {
		return r.ID
	}
	runes := []rune(t)
	if len(runes) > 60 {
		return string(runes[:57]) + "..."
	}
	return t
}
