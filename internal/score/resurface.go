package score

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/text"
)

// DefaultTopK is how many top-scored fossils enter the weighted draw.
const DefaultTopK = 5

// contextWeight scales the Jaccard overlap between the context text and a fossil.
const contextWeight = 2.0

// Rand is a uniform source on [0,1).
type Rand interface {
	Float64() float64
}

// ResurfaceOptions controls resurface selection.
type ResurfaceOptions struct {
	// Context is free text describing what the user is working on. Empty disables context scoring.
	Context string
	// TodayKey excludes fossils captured on this day.
	TodayKey string
	// Now defaults to time.Now().
	Now  time.Time
	TopK int
	// Rand defaults to math/rand/v2.
	Rand      Rand
	Tokenizer *text.Tokenizer
}

// Candidate is one scored fossil in the resurface pool.
type Candidate struct {
	Record     *fossil.Record `json:"record"`
	Decay      float64        `json:"decay"`
	Engagement float64        `json:"engagement"`
	Context    float64        `json:"context"`
	Score      float64        `json:"score"`
}

// SystemRand draws from the math/rand/v2 global source.
type SystemRand struct{}

func (SystemRand) Float64() float64 { return rand.Float64() }

func (o ResurfaceOptions) withDefaults() ResurfaceOptions {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.Rand == nil {
		o.Rand = SystemRand{}
	}
	if o.TodayKey == "" {
		o.TodayKey = fossil.DayKeyOf(o.Now)
	}
	return o
}

// Eligible reports whether r may be resurfaced at all.
func Eligible(r *fossil.Record, todayKey string, now time.Time) bool {
	if !r.Visible() || r.DayKey == todayKey {
		return false
	}
	return r.DismissedUntil == nil || *r.DismissedUntil <= now.UnixMilli()
}

// RankResurface scores every eligible fossil and returns the top-K candidates,
// best first. Fossils too young to decay are dropped. Returns nil when nothing qualifies.
func RankResurface(records []fossil.Record, idx text.Index, opts ResurfaceOptions) []Candidate {
	opts = opts.withDefaults()

	reentered := make(map[string]bool)
	for i := range records {
		if records[i].Visible() {
			if p := records[i].Parent(); p != "" {
				reentered[p] = true
			}
		}
	}

	var ctxTokens text.TokenSet
	if opts.Context != "" {
		ctxTokens = opts.Tokenizer.Tokenize(opts.Context)
	}

	var pool []Candidate
	for i := range records {
		r := &records[i]
		if !Eligible(r, opts.TodayKey, opts.Now) {
			continue
		}
		d := decay(r, reentered[r.ID], opts.Now)
		if d.TooYoung {
			continue
		}
		c := Candidate{
			Record:     r,
			Decay:      d.Total,
			Engagement: EngagementScore(r, opts.Now),
		}
		if ctxTokens != nil {
			c.Context = contextWeight * text.Jaccard(ctxTokens, idx.Tokens(opts.Tokenizer, r))
		}
		c.Score = c.Decay + c.Engagement + c.Context
		pool = append(pool, c)
	}
	if len(pool) == 0 {
		return nil
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })
	if len(pool) > opts.TopK {
		pool = pool[:opts.TopK]
	}
	return pool
}

// SelectResurface picks one fossil to show again, or nil when none is eligible.
// The pick is a weighted random draw over the top-K with weight exp(score).
func SelectResurface(records []fossil.Record, idx text.Index, opts ResurfaceOptions) *fossil.Record {
	opts = opts.withDefaults()
	pool := RankResurface(records, idx, opts)
	if len(pool) == 0 {
		return nil
	}
	return pool[Draw(pool, opts.Rand)].Record
}

// Draw returns the index of a candidate chosen with probability proportional
// to exp(score). Candidates must be sorted best first.
func Draw(pool []Candidate, rng Rand) int {
	if len(pool) <= 1 {
		return 0
	}
	// shift by the max score; the distribution is unchanged and exp cannot overflow
	best := pool[0].Score
	weights := make([]float64, len(pool))
	var total float64
	for i, c := range pool {
		weights[i] = math.Exp(c.Score - best)
		total += weights[i]
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}

	target := rng.Float64() * total
	for i, w := range weights {
		target -= w
		if target < 0 {
			return i
		}
	}
	return 0
}
