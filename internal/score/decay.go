// Package score ranks fossils by how urgently they should be resurfaced.
package score

import (
	"math"
	"time"

	"fossilbed/strata/internal/fossil"
)

// NotEligible is the decay sentinel for fossils too young to resurface.
const NotEligible = -999.0

// MinAgeDays is the age below which a fossil is never resurfaced.
const MinAgeDays = 7.0

// DecayBreakdown holds the individual terms of a decay score.
type DecayBreakdown struct {
	AgeDays   float64 `json:"age_days"`
	Age       float64 `json:"age"`
	Isolation float64 `json:"isolation"`
	Revisit   float64 `json:"revisit"`
	Quality   float64 `json:"quality"`
	Reuse     float64 `json:"reuse"`
	Reinforce float64 `json:"reinforce"`
	Total     float64 `json:"total"`
	TooYoung  bool    `json:"too_young"`
}

// DecayScore returns the urgency to resurface r. Higher is more urgent.
// Fossils younger than MinAgeDays return NotEligible.
func DecayScore(r *fossil.Record, all []fossil.Record, now time.Time) float64 {
	return Decay(r, all, now).Total
}

// Decay computes the decay score with its breakdown.
func Decay(r *fossil.Record, all []fossil.Record, now time.Time) DecayBreakdown {
	return decay(r, hasReentry(r.ID, all), now)
}

func decay(r *fossil.Record, reentered bool, now time.Time) DecayBreakdown {
	nowMs := now.UnixMilli()
	ageDays := daysBetween(r.CreatedAt, nowMs)
	if ageDays < MinAgeDays {
		return DecayBreakdown{AgeDays: ageDays, Total: NotEligible, TooYoung: true}
	}

	b := DecayBreakdown{AgeDays: ageDays}
	b.Age = math.Log(ageDays+1) / 10
	if !reentered {
		b.Isolation = 0.3
	}
	b.Revisit = math.Log(daysBetween(r.LastTouched(), nowMs)+1) / 8
	b.Quality = float64(r.Quality-2) * 0.2
	b.Reuse = math.Min(float64(r.ReuseCount)*0.1, 0.5)
	b.Reinforce = float64(r.ReinforceCount) * 0.15

	b.Total = b.Age + b.Isolation + b.Revisit - b.Quality - b.Reuse - b.Reinforce
	return b
}

// hasReentry reports whether any other visible fossil re-enters id.
func hasReentry(id string, all []fossil.Record) bool {
	for i := range all {
		o := &all[i]
		if o.ID == id || !o.Visible() {
			continue
		}
		if o.Parent() == id {
			return true
		}
	}
	return false
}

// daysBetween returns fractional days from fromMs to toMs, floored at zero.
func daysBetween(fromMs, toMs int64) float64 {
	d := float64(toMs-fromMs) / float64(fossil.DayMs)
	if d < 0 {
		return 0
	}
	return d
}
