package graph

import (
	"sort"
	"time"

	"fossilbed/strata/internal/fossil"
)

// recentWindowMs is how fresh a link must be to count as a recent reference.
const recentWindowMs = 7 * fossil.DayMs

// DormantNode is a fossil nobody has revisited in a while even though new
// fossils keep linking to it.
type DormantNode struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	DaysSinceTouched int64  `json:"days_since_touched"`
	RecentLinks      int    `json:"recent_links"`
}

// OutpacedParent is a re-entered fossil that has not been revisited since its child was written.
type OutpacedParent struct {
	ParentID    string `json:"parent_id"`
	ParentTitle string `json:"parent_title"`
	ChildID     string `json:"child_id"`
	ChildTitle  string `json:"child_title"`
	DriftDays   int64  `json:"drift_days"`
}

// DormancyReport collects dormant fossils and outpaced re-entry parents.
type DormancyReport struct {
	DormantNodes   []DormantNode    `json:"dormant_nodes"`
	OutpacedChains []OutpacedParent `json:"outpaced_chains"`
	DormantCount   int              `json:"dormant_count"`
	OutpacedCount  int              `json:"outpaced_count"`
}

// ComputeDormancy finds fossils untouched for staleDays that still gained a
// link in the last week, and re-entry parents older than their newest child.
func ComputeDormancy(snap *Snapshot, staleDays int64, now time.Time) *DormancyReport {
	nowMs := now.UnixMilli()
	staleMs := staleDays * fossil.DayMs

	var dormant []DormantNode
	for _, id := range snap.NodeIDs() {
		node := snap.Nodes[id]
		idle := nowMs - node.LastTouched
		if idle <= staleMs {
			continue
		}
		recent := 0
		for _, other := range snap.Adj[id] {
			if other == id {
				continue
			}
			if nowMs-snap.EdgeCreated[pairKey(id, other)] < recentWindowMs {
				recent++
			}
		}
		if recent > 0 {
			dormant = append(dormant, DormantNode{
				ID:               id,
				Title:            node.Title,
				DaysSinceTouched: idle / fossil.DayMs,
				RecentLinks:      recent,
			})
		}
	}
	sort.SliceStable(dormant, func(i, j int) bool { return dormant[i].RecentLinks > dormant[j].RecentLinks })

	var outpaced []OutpacedParent
	for _, e := range snap.Edges {
		if e.Type != EdgeReentry {
			continue
		}
		parent, child := snap.Nodes[e.Source], snap.Nodes[e.Target]
		if parent == nil || child == nil || child.CreatedAt <= parent.LastTouched {
			continue
		}
		outpaced = append(outpaced, OutpacedParent{
			ParentID:    parent.ID,
			ParentTitle: parent.Title,
			ChildID:     child.ID,
			ChildTitle:  child.Title,
			DriftDays:   (child.CreatedAt - parent.LastTouched) / fossil.DayMs,
		})
	}
	sort.SliceStable(outpaced, func(i, j int) bool { return outpaced[i].DriftDays > outpaced[j].DriftDays })

	return &DormancyReport{
		DormantNodes:   dormant,
		OutpacedChains: outpaced,
		DormantCount:   len(dormant),
		OutpacedCount:  len(outpaced),
	}
}
