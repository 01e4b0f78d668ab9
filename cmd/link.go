package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	linkWeight float64
	linkReason string
)

var linkCmd = &cobra.Command{
	Use:   "link <ref> <ref>",
	Short: "Draw a manual link between two fossils",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		a, err := ResolveFossil(d, args[0])
		if err != nil {
			return err
		}
		b, err := ResolveFossil(d, args[1])
		if err != nil {
			return err
		}
		id, err := d.AddManualEdge(a.ID, b.ID, linkWeight, linkReason)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]string{"id": id, "source": a.ID, "target": b.ID})
		}
		fmt.Printf("linked %s -> %s (%s)\n", truncID(a.ID), truncID(b.ID), truncID(id))
		return nil
	},
}

func init() {
	linkCmd.Flags().Float64Var(&linkWeight, "weight", 1.0, "Link strength in [0,1]")
	linkCmd.Flags().StringVar(&linkReason, "reason", "", "Why the fossils belong together")
	rootCmd.AddCommand(linkCmd)
}
