package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/graph"
)

var (
	resurfaceContext string
	resurfaceToday   string
	resurfaceMark    bool
	resurfaceExplain bool
	resurfaceDismiss int
)

var resurfaceCmd = &cobra.Command{
	Use:   "resurface",
	Short: "Pick one fossil worth revisiting today",
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
		pick, pool := v.Resurface(snap, resurfaceContext, resurfaceToday)

		if pick != nil {
			now := time.Now()
			switch {
			case resurfaceDismiss > 0:
				if err := d.Dismiss(pick.ID, now.AddDate(0, 0, resurfaceDismiss)); err != nil {
					return err
				}
			case resurfaceMark:
				if err := d.MarkRevisited(pick.ID, now); err != nil {
					return err
				}
			}
		}

		if jsonOutput {
			out := map[string]any{"fossil": pick}
			if resurfaceExplain {
				out["pool"] = pool
			}
			return printJSON(out)
		}

		if pick == nil {
			fmt.Println("Nothing to resurface today.")
			return nil
		}
		printFossil(pick)
		if resurfaceExplain {
			fmt.Println("\n  candidates (decay + engagement + context = score):")
			for _, c := range pool {
				marker := " "
				if c.Record.ID == pick.ID {
					marker = "*"
				}
				fmt.Printf("  %s %s %6.2f %+6.2f %+6.2f = %6.2f  %s\n", marker, truncID(c.Record.ID),
					c.Decay, c.Engagement, c.Context, c.Score, truncTitle(graph.Title(c.Record), 40))
			}
		}
		return nil
	},
}

func init() {
	resurfaceCmd.Flags().StringVar(&resurfaceContext, "context", "", "What you are working on; boosts overlapping fossils")
	resurfaceCmd.Flags().StringVar(&resurfaceToday, "today", "", "Day key (YYYY-MM-DD) whose captures are skipped; defaults to today")
	resurfaceCmd.Flags().BoolVar(&resurfaceMark, "mark", false, "Record the pick as revisited")
	resurfaceCmd.Flags().BoolVar(&resurfaceExplain, "explain", false, "Show the scored candidate pool")
	resurfaceCmd.Flags().IntVar(&resurfaceDismiss, "dismiss", 0, "Hide the pick for this many days")
	rootCmd.AddCommand(resurfaceCmd)
}

func printFossil(r *fossil.Record) {
	fmt.Printf("\n  %s  (%s, quality %d)\n", r.Invariant, r.DayKey, r.Quality)
	if r.ProbeIntent != "" {
		fmt.Printf("  probe: %s\n", r.ProbeIntent)
	}
	if p := r.Parent(); p != "" {
		fmt.Printf("  re-entry of %s\n", truncID(p))
	}
	fmt.Printf("  id: %s\n", r.ID)
}
