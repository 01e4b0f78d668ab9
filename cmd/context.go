package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/graph"
)

var (
	ctxBudget    int
	ctxMaxHops   int
	ctxMaxCost   float64
	ctxEdgeTypes string
)

var contextCmd = &cobra.Command{
	Use:   "context <ref>",
	Short: "Dijkstra neighborhood expansion from a fossil",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		source, err := ResolveFossil(d, args[0])
		if err != nil {
			return err
		}

		config := &graph.NeighborhoodConfig{
			Budget:  ctxBudget,
			MaxHops: ctxMaxHops,
			MaxCost: ctxMaxCost,
		}
		if ctxEdgeTypes != "" {
			for _, t := range strings.Split(ctxEdgeTypes, ",") {
				config.EdgeTypes = append(config.EdgeTypes, graph.EdgeType(strings.TrimSpace(t)))
			}
		}

		v := newVault()
		snap, err := loadSnapshot(d, v)
		if err != nil {
			return err
		}
		results, err := v.Neighborhood(snap, source.ID, config)
		if err != nil {
			return fmt.Errorf("context expansion: %w", err)
		}

		if jsonOutput {
			output := struct {
				Source  any              `json:"source"`
				Budget  int              `json:"budget"`
				Results []graph.Neighbor `json:"results"`
				Count   int              `json:"count"`
			}{
				Source: struct {
					ID    string `json:"id"`
					Title string `json:"title"`
				}{source.ID, graph.Title(source)},
				Budget:  ctxBudget,
				Results: results,
				Count:   len(results),
			}
			return printJSON(output)
		}

		printContextHumanReadable(source, results)
		return nil
	},
}

func init() {
	contextCmd.Flags().IntVar(&ctxBudget, "budget", 20, "Max fossils to return")
	contextCmd.Flags().IntVar(&ctxMaxHops, "max-hops", 6, "Max graph depth")
	contextCmd.Flags().Float64Var(&ctxMaxCost, "max-cost", 3.0, "Cost ceiling")
	contextCmd.Flags().StringVar(&ctxEdgeTypes, "edge-types", "", "Comma-separated link type allowlist (reentry,semantic,manual)")
	rootCmd.AddCommand(contextCmd)
}

func printContextHumanReadable(source *fossil.Record, results []graph.Neighbor) {
	srcTitle := graph.Title(source)
	if len(results) == 0 {
		fmt.Printf("No linked fossils found for: %s\n", srcTitle)
		return
	}

	fmt.Printf("Context for: %s (%s)  budget=%d\n\n", srcTitle, truncID(source.ID), ctxBudget)

	for _, r := range results {
		fmt.Printf("  %2d. %s  dist=%.3f rel=%.0f%% hops=%d\n",
			r.Rank, r.Title, r.Distance, r.Relevance*100, r.Hops)

		if len(r.Path) > 0 {
			hops := make([]string, len(r.Path))
			for i, hop := range r.Path {
				hops[i] = fmt.Sprintf("→[%s]→ %s", hop.Type, truncTitle(hop.Title, 40))
			}
			fmt.Printf("      %s\n", strings.Join(hops, " "))
		}
	}

	fmt.Printf("\n%d fossil(s) within budget\n", len(results))
}
