package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/graph"
)

var (
	addIntent     string
	addQuality    int
	addReentryOf  string
	addPrimitives []string
	addCheck      bool
)

var addCmd = &cobra.Command{
	Use:   "add <invariant>",
	Short: "Capture a new fossil",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenOrCreateDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		r := fossil.Record{
			Invariant:   strings.Join(args, " "),
			ProbeIntent: addIntent,
			Primitives:  addPrimitives,
			Quality:     addQuality,
		}
		if addReentryOf != "" {
			parent, err := ResolveFossil(d, addReentryOf)
			if err != nil {
				return fmt.Errorf("re-entry parent: %w", err)
			}
			r.ReentryOf = &parent.ID
		}

		if addCheck {
			v := newVault()
			snap, err := loadSnapshot(d, v)
			if err != nil {
				return err
			}
			for _, c := range v.Conflicts(snap, r.Text()) {
				fmt.Fprintf(os.Stderr, "  warning: %s conflict (%d%%) with %s %s\n",
					c.Reason, c.SimilarityPercent, truncID(c.Record.ID), truncTitle(graph.Title(c.Record), 40))
			}
		}

		id, err := d.InsertFossil(r)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]string{"id": id})
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addIntent, "intent", "", "The question that led to this fossil")
	addCmd.Flags().IntVar(&addQuality, "quality", 3, "Quality 1-5")
	addCmd.Flags().StringVar(&addReentryOf, "reentry-of", "", "Fossil this one revisits (id, prefix or text)")
	addCmd.Flags().StringSliceVar(&addPrimitives, "primitive", nil, "Primitive tag (repeatable)")
	addCmd.Flags().BoolVar(&addCheck, "check", true, "Warn about conflicting fossils before saving")
	rootCmd.AddCommand(addCmd)
}
