package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fossilbed/strata/internal/link"
)

var suggestApply bool

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Propose links between similar fossils that are not linked yet",
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
		suggestions := v.Suggestions(snap)

		if suggestApply {
			for _, s := range suggestions {
				reason := "suggested: " + strings.Join(s.Shared, ", ")
				if _, err := d.AddManualEdge(s.SourceID, s.TargetID, s.Similarity, reason); err != nil {
					return fmt.Errorf("linking %s and %s: %w", s.SourceID, s.TargetID, err)
				}
			}
		}

		if jsonOutput {
			if suggestions == nil {
				suggestions = []link.Suggestion{}
			}
			return printJSON(suggestions)
		}
		if len(suggestions) == 0 {
			fmt.Println("No new links to suggest.")
			return nil
		}
		for _, s := range suggestions {
			a, _ := snap.Record(s.SourceID)
			b, _ := snap.Record(s.TargetID)
			fmt.Printf("  %3.0f%%  %s <-> %s\n", s.Similarity*100, truncTitle(a.Invariant, 35), truncTitle(b.Invariant, 35))
			fmt.Printf("        shared: %s\n", strings.Join(s.Shared, ", "))
		}
		if suggestApply {
			fmt.Printf("\nlinked %d pair(s)\n", len(suggestions))
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().BoolVar(&suggestApply, "apply", false, "Store every suggestion as a manual link")
	rootCmd.AddCommand(suggestCmd)
}
