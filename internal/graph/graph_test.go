package graph

import (
	"math"
	"testing"
	"time"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/text"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func nowMs() int64          { return testNow.UnixMilli() }
func daysAgo(d int64) int64 { return nowMs() - d*fossil.DayMs }

func strPtr(s string) *string { return &s }

func fossilRec(id, invariant string) fossil.Record {
	return fossil.Record{ID: id, Invariant: invariant, Quality: 3, CreatedAt: nowMs()}
}

// quickSnapshot builds a snapshot straight from ids and undirected semantic links.
func quickSnapshot(ids []string, links [][2]string) *Snapshot {
	g := &Graph{}
	var records []fossil.Record
	for _, id := range ids {
		g.Nodes = append(g.Nodes, Node{ID: id})
		records = append(records, fossilRec(id, "Fossil "+id))
	}
	for _, l := range links {
		g.Edges = append(g.Edges, Edge{Source: l[0], Target: l[1], Type: EdgeSemantic, Weight: 0.5})
	}
	return NewSnapshot(g, records, nil)
}

// --- Builder Tests ---

func twoTriangles() []fossil.Record {
	return []fossil.Record{
		fossilRec("a1", "sqlite write ahead logging"),
		fossilRec("b1", "sourdough starter needs feeding"),
		fossilRec("a2", "sqlite write ahead journal"),
		fossilRec("b2", "sourdough starter needs warmth"),
		fossilRec("a3", "sqlite write ahead checkpoint"),
		fossilRec("b3", "sourdough starter needs patience"),
	}
}

func clusterOf(g *Graph) map[string]int {
	out := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.ID] = n.ClusterID
	}
	return out
}

func TestBuildGraph_TwoTriangles(t *testing.T) {
	records := twoTriangles()
	g := BuildGraph(records, text.BuildIndex(nil, records), nil, BuildOptions{})

	if g.ClusterCount != 2 {
		t.Fatalf("expected 2 clusters, got %d", g.ClusterCount)
	}
	if len(g.Edges) != 6 {
		t.Errorf("expected 6 semantic edges, got %d", len(g.Edges))
	}
	c := clusterOf(g)
	if c["a1"] != c["a2"] || c["a2"] != c["a3"] {
		t.Errorf("a-triangle split across clusters: %v", c)
	}
	if c["b1"] != c["b2"] || c["b2"] != c["b3"] {
		t.Errorf("b-triangle split across clusters: %v", c)
	}
	if c["a1"] == c["b1"] {
		t.Errorf("triangles should not share a cluster: %v", c)
	}
	if c["a1"] != 0 || c["b1"] != 1 {
		t.Errorf("cluster ids should follow input order, got %v", c)
	}
}

func TestBuildGraph_IsolatedAreSingletons(t *testing.T) {
	records := append(twoTriangles(),
		fossilRec("lone1", "kubernetes operators reconcile state"),
		fossilRec("lone2", "tidal pools host anemones"),
	)
	g := BuildGraph(records, text.BuildIndex(nil, records), nil, BuildOptions{})

	if g.ClusterCount != 4 {
		t.Fatalf("expected 4 clusters, got %d", g.ClusterCount)
	}
	c := clusterOf(g)
	seen := map[int]int{}
	for _, id := range c {
		seen[id]++
	}
	if seen[c["lone1"]] != 1 || seen[c["lone2"]] != 1 {
		t.Errorf("isolated fossils should be singleton clusters: %v", c)
	}
}

func TestBuildGraph_ReentryAndVisibility(t *testing.T) {
	parent := fossilRec("p", "queues smooth bursty load")
	child := fossilRec("c", "backpressure beats unbounded queues")
	child.ReentryOf = strPtr("p")
	dangling := fossilRec("d", "orphan thought")
	dangling.ReentryOf = strPtr("missing")
	gone := fossilRec("x", "queues smooth bursty load")
	gone.Deleted = true
	gone.ReentryOf = strPtr("p")

	records := []fossil.Record{parent, child, dangling, gone}
	g := BuildGraph(records, text.BuildIndex(nil, records), nil, BuildOptions{})

	if len(g.Nodes) != 3 {
		t.Fatalf("deleted fossil should have no node, got %d nodes", len(g.Nodes))
	}
	var reentry int
	for _, e := range g.Edges {
		if e.Type == EdgeReentry {
			reentry++
			if e.Source != "p" || e.Target != "c" || e.Weight != 1 {
				t.Errorf("unexpected reentry edge %+v", e)
			}
		}
		if e.Type == EdgeSemantic && PairKey(e.Source, e.Target) == PairKey("p", "c") {
			t.Errorf("reentry-linked pair should not also get a semantic edge")
		}
	}
	if reentry != 1 {
		t.Errorf("expected 1 reentry edge, got %d", reentry)
	}
}

func TestBuildGraph_ManualEdges(t *testing.T) {
	records := []fossil.Record{
		fossilRec("a", "alpha fossil text"),
		fossilRec("b", "completely different words"),
	}
	manual := []Edge{
		{Source: "a", Target: "b", Weight: 0},
		{Source: "a", Target: "ghost", Weight: 0.5},
		{Source: "a", Target: "a", Weight: 0.5},
	}
	g := BuildGraph(records, text.BuildIndex(nil, records), manual, BuildOptions{})

	if len(g.Edges) != 1 {
		t.Fatalf("expected only the a-b manual edge, got %+v", g.Edges)
	}
	if g.Edges[0].Type != EdgeManual || g.Edges[0].Weight != 1 {
		t.Errorf("manual edge should be typed and weight-clamped, got %+v", g.Edges[0])
	}
	if g.ClusterCount != 1 {
		t.Errorf("manual edge should join clusters, got %d", g.ClusterCount)
	}
}

func TestBuildGraph_Empty(t *testing.T) {
	g := BuildGraph(nil, nil, nil, BuildOptions{})
	if len(g.Nodes) != 0 || len(g.Edges) != 0 || g.ClusterCount != 0 {
		t.Errorf("empty input should give empty graph, got %+v", g)
	}
}

func TestNodeSize(t *testing.T) {
	r := fossil.Record{Quality: 5, ReuseCount: 25}
	if got := NodeSize(&r); got != 26 {
		t.Errorf("expected size 26, got %v", got)
	}
}

// --- Topology Tests ---

func TestTopology_EmptyGraph(t *testing.T) {
	snap := NewSnapshot(&Graph{}, nil, nil)
	r := ComputeTopology(snap, 4, 10)
	if r.TotalNodes != 0 || r.TotalEdges != 0 || r.NumComponents != 0 {
		t.Errorf("empty graph should have all zeros, got nodes=%d edges=%d components=%d",
			r.TotalNodes, r.TotalEdges, r.NumComponents)
	}
}

func TestTopology_TwoComponents(t *testing.T) {
	snap := quickSnapshot(
		[]string{"A", "B", "C", "D", "E"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"D", "E"}},
	)
	r := ComputeTopology(snap, 4, 10)
	if r.NumComponents != 2 {
		t.Errorf("expected 2 components, got %d", r.NumComponents)
	}
	if r.LargestComponent != 3 {
		t.Errorf("expected largest=3, got %d", r.LargestComponent)
	}
	if r.SmallestComponent != 2 {
		t.Errorf("expected smallest=2, got %d", r.SmallestComponent)
	}
	if r.EdgesByType[EdgeSemantic] != 3 {
		t.Errorf("expected 3 semantic edges, got %v", r.EdgesByType)
	}
}

func TestOrphan_Detection(t *testing.T) {
	snap := quickSnapshot([]string{"A", "B", "C"}, [][2]string{{"A", "B"}})
	r := ComputeTopology(snap, 4, 10)
	if r.OrphanCount != 1 || len(r.OrphanIDs) != 1 || r.OrphanIDs[0] != "C" {
		t.Errorf("expected C as the only orphan, got %d %v", r.OrphanCount, r.OrphanIDs)
	}
}

func TestHub_Detection(t *testing.T) {
	snap := quickSnapshot(
		[]string{"center", "s1", "s2", "s3", "s4", "s5"},
		[][2]string{{"center", "s1"}, {"center", "s2"}, {"center", "s3"}, {"center", "s4"}, {"center", "s5"}},
	)
	r := ComputeTopology(snap, 4, 10)
	if len(r.Hubs) != 1 {
		t.Fatalf("expected 1 hub, got %d", len(r.Hubs))
	}
	if r.Hubs[0].ID != "center" || r.Hubs[0].Degree != 5 {
		t.Errorf("expected center with degree 5, got %+v", r.Hubs[0])
	}
}

// --- Tarjan Tests ---

func TestTarjan_Path(t *testing.T) {
	snap := quickSnapshot([]string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"B", "C"}})
	r := ComputeBridges(snap)
	if r.BridgeCount != 2 {
		t.Errorf("expected 2 bridges, got %d", r.BridgeCount)
	}
	if r.APCount != 1 || r.ArticulationPoints[0].ID != "B" {
		t.Errorf("expected B as the only articulation point, got %+v", r.ArticulationPoints)
	}
}

func TestTarjan_CycleNoBridges(t *testing.T) {
	snap := quickSnapshot([]string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}})
	r := ComputeBridges(snap)
	if r.BridgeCount != 0 || r.APCount != 0 {
		t.Errorf("triangle should have no weak points, got bridges=%d aps=%d", r.BridgeCount, r.APCount)
	}
}

func TestTarjan_TwoCyclesJoined(t *testing.T) {
	snap := quickSnapshot(
		[]string{"A", "B", "C", "D", "E", "F"},
		[][2]string{
			{"A", "B"}, {"B", "C"}, {"C", "A"},
			{"D", "E"}, {"E", "F"}, {"F", "D"},
			{"C", "D"},
		},
	)
	r := ComputeBridges(snap)
	if r.BridgeCount != 1 {
		t.Errorf("expected 1 bridge (C-D), got %d", r.BridgeCount)
	}
	apIDs := make(map[string]bool)
	for _, ap := range r.ArticulationPoints {
		apIDs[ap.ID] = true
	}
	if len(apIDs) != 2 || !apIDs["C"] || !apIDs["D"] {
		t.Errorf("C and D should be the articulation points, got %v", apIDs)
	}
}

func TestTarjan_ParallelEdgesIgnored(t *testing.T) {
	g := &Graph{
		Nodes: []Node{{ID: "A"}, {ID: "B"}},
		Edges: []Edge{
			{Source: "A", Target: "B", Type: EdgeSemantic, Weight: 0.4},
			{Source: "A", Target: "B", Type: EdgeManual, Weight: 1},
		},
	}
	r := ComputeBridges(NewSnapshot(g, nil, nil))
	if r.BridgeCount != 1 {
		t.Errorf("parallel links count as one bridge, got %d", r.BridgeCount)
	}
}

// --- Dormancy Tests ---

func dormancySnapshot(childCreated int64) *Snapshot {
	parent := fossil.Record{ID: "A", Invariant: "old idea", Quality: 3, CreatedAt: daysAgo(100)}
	parent.LastRevisitedAt = func() *int64 { v := daysAgo(90); return &v }()
	child := fossil.Record{ID: "B", Invariant: "new take", Quality: 3, CreatedAt: childCreated, ReentryOf: strPtr("A")}
	records := []fossil.Record{parent, child}
	g := BuildGraph(records, text.BuildIndex(nil, records), nil, BuildOptions{})
	return NewSnapshot(g, records, nil)
}

func TestDormancy_Detected(t *testing.T) {
	r := ComputeDormancy(dormancySnapshot(daysAgo(1)), 30, testNow)
	if r.DormantCount != 1 {
		t.Fatalf("expected 1 dormant fossil, got %d", r.DormantCount)
	}
	if r.DormantNodes[0].ID != "A" || r.DormantNodes[0].DaysSinceTouched != 90 {
		t.Errorf("expected A untouched for 90 days, got %+v", r.DormantNodes[0])
	}
	if r.OutpacedCount != 1 || r.OutpacedChains[0].DriftDays != 89 {
		t.Errorf("expected A outpaced by B by 89 days, got %+v", r.OutpacedChains)
	}
}

func TestDormancy_NoFalsePositive(t *testing.T) {
	r := ComputeDormancy(dormancySnapshot(daysAgo(60)), 30, testNow)
	if r.DormantCount != 0 {
		t.Errorf("old fossil with only old links should not be dormant, got %d", r.DormantCount)
	}
}

// --- Region Tests ---

func TestFragile_Connections(t *testing.T) {
	records := []fossil.Record{fossilRec("a1", "x"), fossilRec("a2", "y"), fossilRec("b1", "z"), fossilRec("lone", "w")}
	g := &Graph{
		Nodes: []Node{{ID: "a1"}, {ID: "a2"}, {ID: "b1"}, {ID: "lone"}},
		Edges: []Edge{
			{Source: "a1", Target: "a2", Type: EdgeSemantic, Weight: 0.5},
			{Source: "a2", Target: "b1", Type: EdgeManual, Weight: 1},
			{Source: "b1", Target: "lone", Type: EdgeManual, Weight: 1},
		},
	}
	snap := NewSnapshot(g, records, map[string]string{"a1": "r1", "a2": "r1", "b1": "r2"})
	if snap.Regions["lone"] != Unassigned {
		t.Errorf("fossil without region should be unassigned, got %q", snap.Regions["lone"])
	}

	r := ComputeBridges(snap)
	if len(r.FragileConnections) != 1 {
		t.Fatalf("expected one fragile connection, got %+v", r.FragileConnections)
	}
	fc := r.FragileConnections[0]
	if fc.RegionA != "r1" || fc.RegionB != "r2" || fc.CrossEdges != 1 {
		t.Errorf("unexpected fragile connection %+v", fc)
	}

	sub := snap.FilterToRegion("r1")
	if len(sub.Nodes) != 2 || len(sub.Edges) != 1 {
		t.Errorf("region r1 should keep 2 nodes and 1 edge, got %d/%d", len(sub.Nodes), len(sub.Edges))
	}
}

// --- Health Tests ---

func TestHealthScore_Range(t *testing.T) {
	snap := quickSnapshot([]string{"A", "B", "C"}, nil)
	r := Analyze(snap, DefaultConfig(), testNow)
	if r.HealthScore < 0 || r.HealthScore > 1 {
		t.Errorf("health out of range: %f", r.HealthScore)
	}

	snap2 := quickSnapshot([]string{"A", "B"}, [][2]string{{"A", "B"}})
	r2 := Analyze(snap2, nil, testNow)
	if r2.HealthScore < 0 || r2.HealthScore > 1 {
		t.Errorf("health out of range: %f", r2.HealthScore)
	}
}

func TestHealthScore_Perfect(t *testing.T) {
	snap := quickSnapshot([]string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}})
	r := Analyze(snap, &AnalyzerConfig{HubThreshold: 10, TopN: 50, StaleDays: 30}, testNow)
	if r.HealthScore < 0.95 {
		t.Errorf("triangle should have health ~1.0, got %f", r.HealthScore)
	}
}

// --- Neighborhood Tests ---

func neighborhoodSnapshot() *Snapshot {
	g := &Graph{
		Nodes: []Node{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}},
		Edges: []Edge{
			{Source: "A", Target: "B", Type: EdgeReentry, Weight: 1},
			{Source: "B", Target: "C", Type: EdgeSemantic, Weight: 0.5},
			{Source: "D", Target: "A", Type: EdgeManual, Weight: 0.9},
		},
	}
	return NewSnapshot(g, nil, nil)
}

func TestNeighborhood_Order(t *testing.T) {
	got := Neighborhood(neighborhoodSnapshot(), "A", nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 neighbors, got %d", len(got))
	}
	want := []string{"B", "D", "C"}
	for i, id := range want {
		if got[i].ID != id || got[i].Rank != i+1 {
			t.Errorf("position %d: want %s, got %s (rank %d)", i, id, got[i].ID, got[i].Rank)
		}
	}
	c := got[2]
	if c.Hops != 2 || len(c.Path) != 2 || c.Path[0].ID != "B" || c.Path[1].Type != EdgeSemantic {
		t.Errorf("unexpected path to C: %+v", c)
	}
	if math.Abs(c.Distance-0.376) > 1e-9 {
		t.Errorf("expected distance 0.376, got %f", c.Distance)
	}
}

func TestNeighborhood_Limits(t *testing.T) {
	snap := neighborhoodSnapshot()
	if got := Neighborhood(snap, "A", &NeighborhoodConfig{Budget: 2}); len(got) != 2 {
		t.Errorf("budget 2 should cap results, got %d", len(got))
	}
	if got := Neighborhood(snap, "A", &NeighborhoodConfig{EdgeTypes: []EdgeType{EdgeSemantic}}); len(got) != 0 {
		t.Errorf("A has no semantic links, got %+v", got)
	}
	if got := Neighborhood(snap, "A", &NeighborhoodConfig{MaxHops: 1}); len(got) != 2 {
		t.Errorf("one hop reaches B and D only, got %d", len(got))
	}
	if got := Neighborhood(snap, "nope", nil); got != nil {
		t.Errorf("unknown source should give nil, got %+v", got)
	}
}
