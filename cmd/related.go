package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fossilbed/strata/internal/graph"
	"fossilbed/strata/internal/link"
)

var relatedExcludeChain bool

var relatedCmd = &cobra.Command{
	Use:   "related <ref>",
	Short: "List fossils similar to one fossil",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		target, err := ResolveFossil(d, args[0])
		if err != nil {
			return err
		}
		v := newVault()
		snap, err := loadSnapshot(d, v)
		if err != nil {
			return err
		}
		related, err := v.Related(snap, target.ID, relatedExcludeChain)
		if err != nil {
			return err
		}

		if jsonOutput {
			if related == nil {
				related = []link.Related{}
			}
			return printJSON(related)
		}
		fmt.Printf("Related to: %s (%s)\n\n", graph.Title(target), truncID(target.ID))
		if len(related) == 0 {
			fmt.Println("  nothing similar yet")
			return nil
		}
		for _, r := range related {
			fmt.Printf("  %s %3.0f%%  %s\n      shared: %s\n", truncID(r.Record.ID), r.Similarity*100,
				truncTitle(graph.Title(r.Record), 50), strings.Join(r.Shared, ", "))
		}
		return nil
	},
}

func init() {
	relatedCmd.Flags().BoolVar(&relatedExcludeChain, "exclude-chain", false, "Skip fossils in the same re-entry chain")
	rootCmd.AddCommand(relatedCmd)
}
