package graph

import (
	"math"
	"time"
)

// HealthBreakdown shows the sub-scores of the health formula.
type HealthBreakdown struct {
	Connectivity float64 `json:"connectivity"`
	Components   float64 `json:"components"`
	Dormancy     float64 `json:"dormancy"`
	Fragility    float64 `json:"fragility"`
}

// AnalysisReport is the full structural analysis of a vault graph.
type AnalysisReport struct {
	HealthScore     float64         `json:"health_score"`
	HealthBreakdown HealthBreakdown `json:"health_breakdown"`
	ClusterCount    int             `json:"cluster_count"`
	Topology        *TopologyReport `json:"topology"`
	Dormancy        *DormancyReport `json:"dormancy"`
	Bridges         *BridgeReport   `json:"bridges"`
}

// AnalyzerConfig holds analysis parameters.
type AnalyzerConfig struct {
	HubThreshold int
	TopN         int
	StaleDays    int64
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		HubThreshold: 10,
		TopN:         50,
		StaleDays:    30,
	}
}

// Analyze runs every structural analysis and combines them into a health score in [0,1].
func Analyze(snap *Snapshot, config *AnalyzerConfig, now time.Time) *AnalysisReport {
	if config == nil {
		config = DefaultConfig()
	}
	topology := ComputeTopology(snap, config.HubThreshold, config.TopN)
	dormancy := ComputeDormancy(snap, config.StaleDays, now)
	bridges := ComputeBridges(snap)

	total := float64(topology.TotalNodes)
	var b HealthBreakdown
	if total > 0 {
		b.Connectivity = clamp(1.0-math.Min(float64(topology.OrphanCount)/total, 0.2)*5.0, 0, 1)
		b.Dormancy = clamp(1.0-math.Min(float64(dormancy.DormantCount)/total, 0.1)*10.0, 0, 1)
		b.Fragility = clamp(1.0-math.Min(float64(bridges.APCount)/total, 0.05)*20.0, 0, 1)
	}
	if topology.NumComponents > 0 {
		b.Components = clamp(1.0/float64(topology.NumComponents), 0, 1)
	}

	return &AnalysisReport{
		HealthScore:     0.30*b.Connectivity + 0.25*b.Components + 0.25*b.Dormancy + 0.20*b.Fragility,
		HealthBreakdown: b,
		ClusterCount:    topology.NumComponents,
		Topology:        topology,
		Dormancy:        dormancy,
		Bridges:         bridges,
	}
}

func clamp(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}
