package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"fossilbed/strata/internal/graph"
	"fossilbed/strata/internal/link"
	"fossilbed/strata/internal/vault"
)

var (
	analyzeRegion       string
	analyzeTopN         int
	analyzeStaleDays    int64
	analyzeHubThreshold int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the vault: structure, dormancy, clusters, bridges, health score",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		if cmd.Flags().Changed("stale-days") {
			cfg.Engine.StaleDays = analyzeStaleDays
		}
		if cmd.Flags().Changed("hub-threshold") {
			cfg.Engine.HubThreshold = analyzeHubThreshold
		}
		v := newVault()
		snap, err := loadSnapshot(d, v)
		if err != nil {
			return err
		}

		if analyzeRegion != "" {
			structure := v.Structure(snap, analyzeRegion)
			if jsonOutput {
				return printJSON(structure)
			}
			fmt.Printf("\n  Region: %s\n", analyzeRegion)
			printStructure(structure)
			fmt.Println()
			return nil
		}

		report, err := v.Analyze(cmd.Context(), snap)
		if err != nil {
			return fmt.Errorf("analyzing vault: %w", err)
		}
		if jsonOutput {
			return printJSON(report)
		}
		printReport(report)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRegion, "region", "", "Scope structure to one cluster label (see `strata clusters`)")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top items to show per section")
	analyzeCmd.Flags().Int64Var(&analyzeStaleDays, "stale-days", 30, "Days untouched to consider a fossil dormant")
	analyzeCmd.Flags().IntVar(&analyzeHubThreshold, "hub-threshold", 10, "Minimum degree to consider a fossil a hub")
	rootCmd.AddCommand(analyzeCmd)
}

func printReport(report *vault.Report) {
	fmt.Printf("\n  %d fossils (%d visible)  run %s\n", report.Records, report.Visible, truncID(report.RunID))
	printStructure(report.Structure)

	if len(report.Clusters) > 0 {
		fmt.Println("\n  CLUSTERS")
		fmt.Println("  ────────────────────────────────────────")
		for _, c := range head(report.Clusters, analyzeTopN) {
			fmt.Printf("    #%d %-40s %d fossils, cohesion %.2f\n", c.ID, truncTitle(c.Label(), 40), len(c.Members), c.Cohesion)
		}
	}

	if len(report.Bridges) > 0 {
		fmt.Println("\n  BRIDGE FOSSILS")
		fmt.Println("  ────────────────────────────────────────")
		for _, b := range head(report.Bridges, analyzeTopN) {
			fmt.Printf("    %s strength=%.2f  %s\n", truncID(b.Record.ID), b.Strength, truncTitle(graph.Title(b.Record), 40))
			fmt.Printf("      links %s\n", bridgeThemes(b))
		}
	}

	if len(report.Suggestions) > 0 {
		fmt.Println("\n  SUGGESTED LINKS")
		fmt.Println("  ────────────────────────────────────────")
		for _, s := range head(report.Suggestions, analyzeTopN) {
			fmt.Printf("    %s <-> %s  %.0f%%  (%s)\n",
				truncID(s.SourceID), truncID(s.TargetID), s.Similarity*100, strings.Join(s.Shared, ", "))
		}
	}

	if len(report.Resurface) > 0 {
		fmt.Println("\n  WORTH REVISITING")
		fmt.Println("  ────────────────────────────────────────")
		for _, c := range report.Resurface {
			fmt.Printf("    %s score=%.2f  %s\n", truncID(c.Record.ID), c.Score, truncTitle(graph.Title(c.Record), 50))
		}
	}

	fmt.Printf("\n  tokenizer cache: %d hits, %d misses, %d entries\n\n",
		report.Cache.Hits, report.Cache.Misses, report.Cache.Size)
}

func printStructure(report *graph.AnalysisReport) {
	// Health bar
	barLen := min(int(report.HealthScore*20), 20)
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	fmt.Printf("\n  Vault Health: %.0f%%  [%s]\n", report.HealthScore*100, bar)
	fmt.Printf("  breakdown: connectivity=%.2f components=%.2f dormancy=%.2f fragility=%.2f\n\n",
		report.HealthBreakdown.Connectivity,
		report.HealthBreakdown.Components,
		report.HealthBreakdown.Dormancy,
		report.HealthBreakdown.Fragility)

	// Topology
	t := report.Topology
	fmt.Println("  TOPOLOGY")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Fossils: %d  Links: %d  Components: %d  Clusters: %d\n",
		t.TotalNodes, t.TotalEdges, t.NumComponents, report.ClusterCount)
	fmt.Printf("  Links by type: reentry=%d semantic=%d manual=%d\n",
		t.EdgesByType[graph.EdgeReentry], t.EdgesByType[graph.EdgeSemantic], t.EdgesByType[graph.EdgeManual])
	fmt.Printf("  Largest component: %d  Smallest: %d\n", t.LargestComponent, t.SmallestComponent)

	if t.OrphanCount > 0 {
		fmt.Printf("  Orphans: %d unlinked fossils\n", t.OrphanCount)
		for _, id := range head(t.OrphanIDs, 5) {
			fmt.Printf("    - %s\n", truncID(id))
		}
		if t.OrphanCount > 5 {
			fmt.Printf("    ... and %d more\n", t.OrphanCount-5)
		}
	}

	// Degree distribution
	fmt.Println("\n  Degree distribution:")
	for _, b := range t.DegreeHistogram {
		if b.Count > 0 {
			barWidth := max(int(math.Log2(float64(b.Count)))+2, 1)
			fmt.Printf("    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	// Hubs
	if len(t.Hubs) > 0 {
		fmt.Println("\n  Top hubs (degree > threshold):")
		for _, hub := range head(t.Hubs, analyzeTopN) {
			fmt.Printf("    %s degree=%d (in=%d, out=%d)  %s\n",
				truncID(hub.ID), hub.Degree, hub.InDegree, hub.OutDegree, truncTitle(hub.Title, 40))
		}
	}

	// Dormancy
	dm := report.Dormancy
	if dm.DormantCount > 0 || dm.OutpacedCount > 0 {
		fmt.Println("\n  DORMANCY")
		fmt.Println("  ────────────────────────────────────────")
		if dm.DormantCount > 0 {
			fmt.Printf("  %d dormant fossils (untouched but recently linked):\n", dm.DormantCount)
			for _, n := range head(dm.DormantNodes, analyzeTopN) {
				fmt.Printf("    %s %dd untouched, %d recent links  %s\n",
					truncID(n.ID), n.DaysSinceTouched, n.RecentLinks, truncTitle(n.Title, 40))
			}
		}
		if dm.OutpacedCount > 0 {
			fmt.Printf("  %d re-entered fossils not revisited since:\n", dm.OutpacedCount)
			for _, o := range head(dm.OutpacedChains, analyzeTopN) {
				fmt.Printf("    %s -> %s (%dd drift)\n",
					truncTitle(o.ParentTitle, 25), truncTitle(o.ChildTitle, 25), o.DriftDays)
			}
		}
	}

	// Bridges
	br := report.Bridges
	if br.APCount > 0 || br.BridgeCount > 0 || len(br.FragileConnections) > 0 {
		fmt.Println("\n  STRUCTURAL FRAGILITY")
		fmt.Println("  ────────────────────────────────────────")
		if br.APCount > 0 {
			fmt.Printf("  %d articulation points (removal disconnects graph):\n", br.APCount)
			for _, ap := range head(br.ArticulationPoints, analyzeTopN) {
				fmt.Printf("    %s (%d neighbors)  %s\n", truncID(ap.ID), ap.Neighbors, truncTitle(ap.Title, 40))
			}
		}
		if br.BridgeCount > 0 {
			fmt.Printf("  %d bridge links (removal disconnects graph):\n", br.BridgeCount)
			for _, be := range head(br.BridgeEdges, analyzeTopN) {
				fmt.Printf("    %s -> %s\n", truncTitle(be.SourceTitle, 30), truncTitle(be.TargetTitle, 30))
			}
		}
		if len(br.FragileConnections) > 0 {
			fmt.Printf("  %d fragile inter-region connections (<=2 links):\n", len(br.FragileConnections))
			for _, fc := range head(br.FragileConnections, analyzeTopN) {
				s := ""
				if fc.CrossEdges != 1 {
					s = "s"
				}
				fmt.Printf("    %s <-> %s (%d link%s)\n",
					truncTitle(fc.RegionA, 25), truncTitle(fc.RegionB, 25), fc.CrossEdges, s)
			}
		}
	}
}

func bridgeThemes(b link.Bridge) string {
	parts := make([]string, len(b.Links))
	for i, l := range b.Links {
		parts[i] = fmt.Sprintf("#%d %s (%.0f%%)", l.ClusterID, l.Theme, l.Similarity*100)
	}
	return strings.Join(parts, ", ")
}

func head[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}
