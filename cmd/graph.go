package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	graphWidth      float64
	graphHeight     float64
	graphIterations int
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build the fossil graph and lay it out for rendering",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		v := newVault()
		snap, err := loadSnapshot(d, v)
		if err != nil {
			return err
		}
		g := v.Graph(snap, v.LayoutOptions(graphWidth, graphHeight, graphIterations))

		if jsonOutput {
			return printJSON(g)
		}
		fmt.Printf("%d fossils, %d links, %d clusters\n", len(g.Nodes), len(g.Edges), g.ClusterCount)
		for _, n := range g.Nodes {
			fmt.Printf("  %s cluster=%d size=%.0f at (%.1f, %.1f)\n", truncID(n.ID), n.ClusterID, n.Size, n.X, n.Y)
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().Float64Var(&graphWidth, "width", 0, "Viewport width (default from config)")
	graphCmd.Flags().Float64Var(&graphHeight, "height", 0, "Viewport height (default from config)")
	graphCmd.Flags().IntVar(&graphIterations, "iterations", 0, "Layout iterations (default from config)")
	rootCmd.AddCommand(graphCmd)
}
