package score

import (
	"time"

	"fossilbed/strata/internal/fossil"
)

// circadianWindow is how close (in clock hours) now must be to the last revisit hour.
const circadianWindow = 2

// EngagementScore scores r from explicit interactions. It does not look at other fossils.
func EngagementScore(r *fossil.Record, now time.Time) float64 {
	s := float64(r.ReinforceCount)*0.3 + float64(r.ReuseCount)*0.2
	if r.Quality >= 4 {
		s += 0.2
	}
	if r.DismissCount > 2 {
		s -= 0.3
	}
	if r.SkipCount > 3 {
		s -= 0.2
	}
	if r.LastRevisitedAt != nil {
		last := time.UnixMilli(*r.LastRevisitedAt).In(now.Location())
		if hourDistance(now.Hour(), last.Hour()) <= circadianWindow {
			s += 0.1
		}
	}
	return s
}

// hourDistance is the distance between two hours on a 24h clock.
func hourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 12 {
		d = 24 - d
	}
	return d
}
