package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/text"
)

var now = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func daysAgo(d float64) int64 {
	return now.Add(-time.Duration(d * float64(24*time.Hour))).UnixMilli()
}

func rec(id string, ageDays float64) fossil.Record {
	created := daysAgo(ageDays)
	return fossil.Record{
		ID:        id,
		Invariant: "invariant for " + id,
		CreatedAt: created,
		DayKey:    time.UnixMilli(created).UTC().Format(fossil.DayKeyLayout),
		Quality:   3,
	}
}

func ptr[T any](v T) *T { return &v }

// seqRand replays a fixed sequence of draws.
type seqRand struct {
	vals []float64
	i    int
}

func (s *seqRand) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func TestDecay_YoungIsSentinel(t *testing.T) {
	r := rec("young", 2)
	r.Quality = 1
	r.ReinforceCount = 40
	r.ReuseCount = 9
	all := []fossil.Record{r}

	assert.Equal(t, NotEligible, DecayScore(&all[0], all, now))
	assert.True(t, Decay(&all[0], all, now).TooYoung)
}

func TestDecay_LowerQualityScoresHigher(t *testing.T) {
	low, high := rec("low", 30), rec("high", 30)
	low.Quality, high.Quality = 1, 5
	all := []fossil.Record{low, high}

	assert.Greater(t, DecayScore(&all[0], all, now), DecayScore(&all[1], all, now))
}

func TestDecay_UnreusedScoresHigher(t *testing.T) {
	unused, reused := rec("unused", 30), rec("reused", 30)
	reused.ReuseCount = 5
	all := []fossil.Record{unused, reused}

	assert.Greater(t, DecayScore(&all[0], all, now), DecayScore(&all[1], all, now))
}

func TestDecay_Breakdown(t *testing.T) {
	parent := rec("parent", 30)
	child := rec("child", 10)
	child.ReentryOf = ptr("parent")
	lonely := rec("lonely", 30)
	all := []fossil.Record{parent, child, lonely}

	p := Decay(&all[0], all, now)
	l := Decay(&all[2], all, now)
	assert.Equal(t, 0.0, p.Isolation)
	assert.Equal(t, 0.3, l.Isolation)
	assert.InDelta(t, 0.3, l.Total-p.Total, 1e-9)
	assert.InDelta(t, 30.0, p.AgeDays, 1e-6)
	assert.InDelta(t, p.Age+p.Isolation+p.Revisit-p.Quality-p.Reuse-p.Reinforce, p.Total, 1e-9)
}

func TestDecay_DeletedChildDoesNotCountAsReentry(t *testing.T) {
	parent := rec("parent", 30)
	child := rec("child", 10)
	child.ReentryOf = ptr("parent")
	child.Deleted = true
	all := []fossil.Record{parent, child}

	assert.Equal(t, 0.3, Decay(&all[0], all, now).Isolation)
}

func TestDecay_RecentRevisitLowersScore(t *testing.T) {
	stale, fresh := rec("stale", 60), rec("fresh", 60)
	fresh.LastRevisitedAt = ptr(daysAgo(1))
	all := []fossil.Record{stale, fresh}

	assert.Greater(t, DecayScore(&all[0], all, now), DecayScore(&all[1], all, now))
}

func TestEngagement_ZeroWithoutSignals(t *testing.T) {
	r := rec("quiet", 30)
	assert.Equal(t, 0.0, EngagementScore(&r, now))
}

func TestEngagement_Terms(t *testing.T) {
	r := rec("busy", 30)
	r.ReinforceCount = 2
	r.ReuseCount = 1
	r.Quality = 4
	assert.InDelta(t, 0.6+0.2+0.2, EngagementScore(&r, now), 1e-9)

	r.DismissCount = 3
	r.SkipCount = 4
	assert.InDelta(t, 1.0-0.3-0.2, EngagementScore(&r, now), 1e-9)
}

func TestEngagement_Circadian(t *testing.T) {
	near := rec("near", 30)
	near.LastRevisitedAt = ptr(now.Add(-(2*24 + 1) * time.Hour).UnixMilli())
	assert.InDelta(t, 0.1, EngagementScore(&near, now), 1e-9)

	far := rec("far", 30)
	far.LastRevisitedAt = ptr(now.Add(-(2*24 + 6) * time.Hour).UnixMilli())
	assert.Equal(t, 0.0, EngagementScore(&far, now))

	// 23:00 and 01:00 are two hours apart across midnight
	midnight := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	wrap := rec("wrap", 30)
	wrap.LastRevisitedAt = ptr(time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC).UnixMilli())
	assert.InDelta(t, 0.1, EngagementScore(&wrap, midnight), 1e-9)
}

func opts(rng Rand) ResurfaceOptions {
	return ResurfaceOptions{
		Now:       now,
		TodayKey:  fossil.DayKeyOf(now),
		Rand:      rng,
		Tokenizer: text.NewTokenizer(0),
	}
}

func TestSelectResurface_NoneEligible(t *testing.T) {
	assert.Nil(t, SelectResurface(nil, nil, opts(nil)))

	young := []fossil.Record{rec("a", 1), rec("b", 3)}
	assert.Nil(t, SelectResurface(young, nil, opts(nil)))
}

func TestSelectResurface_SingleAlwaysReturned(t *testing.T) {
	records := []fossil.Record{rec("only", 20), rec("young", 1)}
	deleted := rec("gone", 50)
	deleted.Deleted = true
	records = append(records, deleted)

	for _, v := range []float64{0, 0.3, 0.999999} {
		got := SelectResurface(records, nil, opts(&seqRand{vals: []float64{v}}))
		require.NotNil(t, got)
		assert.Equal(t, "only", got.ID)
	}
}

func TestSelectResurface_FutureDismissedNeverReturned(t *testing.T) {
	snoozed := rec("snoozed", 90)
	snoozed.DismissedUntil = ptr(now.Add(48 * time.Hour).UnixMilli())
	expired := rec("expired", 20)
	expired.DismissedUntil = ptr(now.Add(-time.Hour).UnixMilli())
	records := []fossil.Record{snoozed, expired}

	rng := &seqRand{vals: []float64{0, 0.1, 0.5, 0.9, 0.99}}
	for i := 0; i < 20; i++ {
		got := SelectResurface(records, nil, opts(rng))
		require.NotNil(t, got)
		assert.Equal(t, "expired", got.ID)
	}
}

func TestSelectResurface_SkipsToday(t *testing.T) {
	r := rec("today", 20)
	r.DayKey = fossil.DayKeyOf(now)
	assert.Nil(t, SelectResurface([]fossil.Record{r}, nil, opts(nil)))
}

func TestRankResurface_TopKAndContext(t *testing.T) {
	var records []fossil.Record
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		records = append(records, rec(id, float64(10+i)))
	}
	records[0].Invariant = "sqlite write ahead logging"
	idx := text.BuildIndex(nil, records)

	o := opts(nil)
	pool := RankResurface(records, idx, o)
	require.Len(t, pool, DefaultTopK)
	for i := 1; i < len(pool); i++ {
		assert.GreaterOrEqual(t, pool[i-1].Score, pool[i].Score)
	}
	assert.Equal(t, "g", pool[0].Record.ID)

	o.Context = "tuning sqlite write ahead logging"
	pool = RankResurface(records, idx, o)
	require.NotEmpty(t, pool)
	assert.Equal(t, "a", pool[0].Record.ID)
	assert.Greater(t, pool[0].Context, 0.0)
}

func TestDraw_Buckets(t *testing.T) {
	pool := []Candidate{{Score: 1}, {Score: 1}}
	assert.Equal(t, 0, Draw(pool, &seqRand{vals: []float64{0.49}}))
	assert.Equal(t, 1, Draw(pool, &seqRand{vals: []float64{0.51}}))

	// exp(ln 3) : exp(0) = 3 : 1
	skewed := []Candidate{{Score: 1.0986122886681098}, {Score: 0}}
	assert.Equal(t, 0, Draw(skewed, &seqRand{vals: []float64{0.74}}))
	assert.Equal(t, 1, Draw(skewed, &seqRand{vals: []float64{0.76}}))
}

func TestDraw_HugeScoresStayFinite(t *testing.T) {
	pool := []Candidate{{Score: 5000}, {Score: 4999}}
	got := Draw(pool, &seqRand{vals: []float64{0.99}})
	assert.Equal(t, 1, got)
}
