package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fossilbed/strata/internal/graph"
	"fossilbed/strata/internal/link"
)

var bridgesCmd = &cobra.Command{
	Use:   "bridges",
	Short: "Find fossils that tie separate clusters together",
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
		bridges := v.Bridges(snap, nil)

		if jsonOutput {
			if bridges == nil {
				bridges = []link.Bridge{}
			}
			return printJSON(bridges)
		}
		if len(bridges) == 0 {
			fmt.Println("No bridge fossils found.")
			return nil
		}
		for _, b := range bridges {
			fmt.Printf("  %s strength=%.2f  %s\n", truncID(b.Record.ID), b.Strength, truncTitle(graph.Title(b.Record), 50))
			fmt.Printf("      links %s\n", bridgeThemes(b))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bridgesCmd)
}
