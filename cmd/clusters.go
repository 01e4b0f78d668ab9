package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fossilbed/strata/internal/link"
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Group fossils into thematic clusters",
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
		clusters := v.Clusters(snap)

		if jsonOutput {
			if clusters == nil {
				clusters = []link.Cluster{}
			}
			return printJSON(clusters)
		}
		if len(clusters) == 0 {
			fmt.Println("No clusters yet.")
			return nil
		}
		for _, c := range clusters {
			fmt.Printf("#%d %s  (%d fossils, cohesion %.2f)\n", c.ID, c.Label(), len(c.Members), c.Cohesion)
			for _, id := range c.Members {
				title := id
				if r, ok := snap.Record(id); ok {
					title = truncTitle(r.Invariant, 60)
				}
				fmt.Printf("    %s %s\n", truncID(id), title)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clustersCmd)
}
