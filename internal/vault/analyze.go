package vault

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fossilbed/strata/internal/graph"
	"fossilbed/strata/internal/link"
	"fossilbed/strata/internal/score"
	"fossilbed/strata/internal/text"
)

// Report is the combined output of Analyze.
type Report struct {
	RunID       string                `json:"run_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Records     int                   `json:"records"`
	Visible     int                   `json:"visible"`
	Structure   *graph.AnalysisReport `json:"structure"`
	Clusters    []link.Cluster        `json:"clusters"`
	Suggestions []link.Suggestion     `json:"suggestions"`
	Bridges     []link.Bridge         `json:"bridges"`
	Resurface   []score.Candidate     `json:"resurface"`
	Cache       text.CacheStats       `json:"cache"`
}

// Analyze runs the vault-wide analyses concurrently over the same snapshot.
// The snapshot is only read, so the analyses share it without locking.
func (v *Vault) Analyze(ctx context.Context, s *Snapshot) (*Report, error) {
	start := time.Now()
	now := v.now()
	report := &Report{
		RunID:       newRunID(),
		GeneratedAt: now,
		Records:     len(s.Records),
		Visible:     len(s.byID),
	}
	logger := v.logger.With(slog.String("run_id", report.RunID))
	logger.Info("analysis started", slog.Int("records", report.Records))

	// clusters feed both the structural regions and the bridge search
	report.Clusters = link.DetectClusters(s.Records, s.Index, v.clusterOptions())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Structure = v.structure(s, report.Clusters, "", now)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Suggestions = v.Suggestions(s)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Bridges = v.Bridges(s, report.Clusters)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Resurface = score.RankResurface(s.Records, s.Index, v.resurfaceOptions(""))
		return nil
	})

	if err := g.Wait(); err != nil {
		v.track("analyze", start, 0, err, slog.String("run_id", report.RunID))
		return nil, err
	}

	report.Cache = v.tok.Stats()
	v.recordCache()
	v.track("analyze", start, report.Visible, nil, slog.String("run_id", report.RunID))
	logger.Info("analysis finished",
		slog.Float64("health", report.Structure.HealthScore),
		slog.Int("clusters", len(report.Clusters)),
		slog.Int("suggestions", len(report.Suggestions)),
		slog.Int("bridges", len(report.Bridges)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return report, nil
}

// Structure runs the structural analysis alone, optionally scoped to one
// thematic region (a cluster label as returned by link.Cluster.Label).
func (v *Vault) Structure(s *Snapshot, region string) *graph.AnalysisReport {
	start := time.Now()
	clusters := link.DetectClusters(s.Records, s.Index, v.clusterOptions())
	out := v.structure(s, clusters, region, v.now())
	v.track("structure", start, out.Topology.TotalNodes, nil, slog.String("region", region))
	return out
}

func (v *Vault) structure(s *Snapshot, clusters []link.Cluster, region string, now time.Time) *graph.AnalysisReport {
	snap := graph.NewSnapshot(v.buildGraph(s), s.Records, link.Regions(clusters))
	if region != "" {
		snap = snap.FilterToRegion(region)
	}
	return graph.Analyze(snap, &graph.AnalyzerConfig{
		HubThreshold: v.engine.HubThreshold,
		TopN:         50,
		StaleDays:    v.engine.StaleDays,
	}, now)
}
