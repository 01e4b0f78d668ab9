package graph

import (
	"container/heap"
	"math"
)

// Neighbor is a fossil reached from the source during neighborhood expansion.
type Neighbor struct {
	Rank      int       `json:"rank"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Distance  float64   `json:"distance"`
	Relevance float64   `json:"relevance"`
	Hops      int       `json:"hops"`
	Path      []PathHop `json:"path"`
}

// PathHop is one step on the cheapest path from the source.
type PathHop struct {
	Type   EdgeType `json:"type"`
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Weight float64  `json:"weight"`
}

// NeighborhoodConfig bounds the expansion.
type NeighborhoodConfig struct {
	Budget    int
	MaxHops   int
	MaxCost   float64
	EdgeTypes []EdgeType // nil means all
}

// DefaultNeighborhoodConfig returns the CLI defaults.
func DefaultNeighborhoodConfig() *NeighborhoodConfig {
	return &NeighborhoodConfig{Budget: 20, MaxHops: 6, MaxCost: 3.0}
}

// EdgeTypePriority ranks how informative a link type is, in [0,1].
func EdgeTypePriority(t EdgeType) float64 {
	switch t {
	case EdgeReentry:
		return 1.0
	case EdgeManual:
		return 0.8
	case EdgeSemantic:
		return 0.5
	default:
		return 0.3
	}
}

// EdgeCost is the traversal cost of an edge. Strong, informative links are cheap.
func EdgeCost(e Edge) float64 {
	return math.Max((1.0-e.Weight)*(1.0-0.5*EdgeTypePriority(e.Type)), 0.001)
}

type prevStep struct {
	from string
	edge Edge
}

type queueEntry struct {
	distance float64
	id       string
	hops     int
}

// distQueue is a min-heap on distance, ties broken by id.
type distQueue []queueEntry

func (q distQueue) Len() int { return len(q) }
func (q distQueue) Less(i, j int) bool {
	if q[i].distance != q[j].distance {
		return q[i].distance < q[j].distance
	}
	return q[i].id < q[j].id
}
func (q distQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *distQueue) Push(x any)   { *q = append(*q, x.(queueEntry)) }
func (q *distQueue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

// Neighborhood runs a Dijkstra expansion from sourceID over the snapshot,
// treating links as undirected. Results are ordered by distance.
func Neighborhood(snap *Snapshot, sourceID string, cfg *NeighborhoodConfig) []Neighbor {
	if cfg == nil {
		cfg = DefaultNeighborhoodConfig()
	}
	if _, ok := snap.Nodes[sourceID]; !ok {
		return nil
	}
	budget, maxHops, maxCost := cfg.Budget, cfg.MaxHops, cfg.MaxCost
	if budget <= 0 {
		budget = 20
	}
	if maxHops <= 0 {
		maxHops = 6
	}
	if maxCost <= 0 {
		maxCost = 3.0
	}
	var allow map[EdgeType]bool
	if cfg.EdgeTypes != nil {
		allow = make(map[EdgeType]bool, len(cfg.EdgeTypes))
		for _, t := range cfg.EdgeTypes {
			allow[t] = true
		}
	}

	incident := make(map[string][]Edge)
	for _, e := range snap.Edges {
		if allow != nil && !allow[e.Type] {
			continue
		}
		incident[e.Source] = append(incident[e.Source], e)
		incident[e.Target] = append(incident[e.Target], e)
	}

	dist := map[string]float64{sourceID: 0}
	prev := map[string]prevStep{}
	done := map[string]bool{}
	q := &distQueue{{id: sourceID}}

	var out []Neighbor
	for q.Len() > 0 && len(out) < budget {
		cur := heap.Pop(q).(queueEntry)
		if done[cur.id] {
			continue
		}
		done[cur.id] = true

		if cur.id != sourceID {
			out = append(out, Neighbor{
				ID:        cur.id,
				Title:     snap.Nodes[cur.id].Title,
				Distance:  cur.distance,
				Relevance: 1.0 / (1.0 + cur.distance),
				Hops:      cur.hops,
				Path:      pathTo(snap, prev, sourceID, cur.id),
			})
		}
		if cur.hops >= maxHops {
			continue
		}

		for _, e := range incident[cur.id] {
			next := e.Target
			if next == cur.id {
				next = e.Source
			}
			if done[next] {
				continue
			}
			d := cur.distance + EdgeCost(e)
			if d > maxCost {
				continue
			}
			if old, ok := dist[next]; !ok || d < old {
				dist[next] = d
				prev[next] = prevStep{from: cur.id, edge: e}
				heap.Push(q, queueEntry{distance: d, id: next, hops: cur.hops + 1})
			}
		}
	}

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func pathTo(snap *Snapshot, prev map[string]prevStep, source, target string) []PathHop {
	var path []PathHop
	for cur := target; cur != source; {
		step, ok := prev[cur]
		if !ok {
			break
		}
		path = append(path, PathHop{Type: step.edge.Type, ID: cur, Title: snap.Nodes[cur].Title, Weight: step.edge.Weight})
		cur = step.from
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
