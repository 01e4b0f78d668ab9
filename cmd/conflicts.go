package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fossilbed/strata/internal/conflict"
	"fossilbed/strata/internal/graph"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <text>",
	Short: "Find fossils that may contradict a new statement",
	Args:  cobra.MinimumNArgs(1),
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
		found := v.Conflicts(snap, strings.Join(args, " "))

		if jsonOutput {
			if found == nil {
				found = []conflict.Conflict{}
			}
			return printJSON(found)
		}
		if len(found) == 0 {
			fmt.Println("No conflicts found.")
			return nil
		}
		for _, c := range found {
			fmt.Printf("  %s %3d%% %-8s %s\n", truncID(c.Record.ID), c.SimilarityPercent, c.Reason, truncTitle(graph.Title(c.Record), 50))
			if len(c.Oppositions) > 0 {
				fmt.Printf("      %s\n", strings.Join(c.Oppositions, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
}
