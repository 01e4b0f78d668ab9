// Package vault runs the strata analyses over one snapshot of fossils with
// shared configuration, tokenizer cache, logging and metrics.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"fossilbed/strata/internal/config"
	"fossilbed/strata/internal/conflict"
	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/graph"
	"fossilbed/strata/internal/layout"
	"fossilbed/strata/internal/link"
	"fossilbed/strata/internal/metrics"
	"fossilbed/strata/internal/score"
	"fossilbed/strata/internal/text"
)

// ErrUnknownFossil is returned when an id is not a visible fossil of the snapshot.
var ErrUnknownFossil = errors.New("unknown fossil")

// Vault is safe for concurrent use; the tokenizer cache is its only shared state.
type Vault struct {
	engine  config.EngineConfig
	layout  config.LayoutConfig
	tok     *text.Tokenizer
	logger  *slog.Logger
	metrics metrics.Collector
	now     func() time.Time
	rand    score.Rand
}

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the logger. nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Vault) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c metrics.Collector) Option {
	return func(v *Vault) {
		if c != nil {
			v.metrics = c
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) { v.now = now }
}

// WithRand sets the random source for resurface draws.
func WithRand(r score.Rand) Option {
	return func(v *Vault) {
		if r != nil {
			v.rand = r
		}
	}
}

// New creates a Vault from cfg.
func New(cfg config.Config, opts ...Option) *Vault {
	v := &Vault{
		engine:  cfg.Engine,
		layout:  cfg.Layout,
		tok:     text.NewTokenizer(cfg.Engine.CacheCapacity),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: metrics.NewNoopCollector(),
		now:     time.Now,
		rand:    score.SystemRand{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Tokenizer returns the shared tokenizer.
func (v *Vault) Tokenizer() *text.Tokenizer { return v.tok }

// Snapshot is one normalized, indexed set of fossils. It is immutable once built.
type Snapshot struct {
	Records []fossil.Record
	Index   text.Index
	Manual  []graph.Edge
	byID    map[string]*fossil.Record
}

// Record returns the visible fossil with id.
func (s *Snapshot) Record(id string) (*fossil.Record, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Snapshot normalizes records and tokenizes every visible one.
func (v *Vault) Snapshot(records []fossil.Record, manual []graph.Edge) *Snapshot {
	start := time.Now()
	norm := fossil.Normalize(records)
	s := &Snapshot{
		Records: norm,
		Index:   text.BuildIndex(v.tok, norm),
		Manual:  manual,
		byID:    fossil.ByID(norm),
	}

	var deleted, superseded int
	for i := range norm {
		switch {
		case norm[i].Deleted:
			deleted++
		case norm[i].SupersededBy != nil:
			superseded++
		}
	}
	v.metrics.SetRecordCount("total", len(norm))
	v.metrics.SetRecordCount("visible", len(s.byID))
	v.metrics.SetRecordCount("deleted", deleted)
	v.metrics.SetRecordCount("superseded", superseded)
	v.recordCache()

	v.logger.Debug("snapshot built",
		slog.Int("records", len(norm)),
		slog.Int("visible", len(s.byID)),
		slog.Int("manual_edges", len(manual)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return s
}

func (v *Vault) recordCache() {
	st := v.tok.Stats()
	v.metrics.RecordCacheEvents(st.Hits, st.Misses, st.Evictions)
}

// track logs and records one finished operation.
func (v *Vault) track(op string, start time.Time, results int, err error, attrs ...slog.Attr) {
	status := metrics.StatusOK
	switch {
	case err != nil:
		status = metrics.StatusError
	case results == 0:
		status = metrics.StatusEmpty
	}
	ms := time.Since(start).Milliseconds()
	v.metrics.RecordOperation(op, status, ms)

	attrs = append(attrs,
		slog.String("op", op),
		slog.String("status", status),
		slog.Int("results", results),
		slog.Int64("duration_ms", ms),
	)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		v.logger.LogAttrs(context.Background(), slog.LevelWarn, "operation failed", attrs...)
		return
	}
	v.logger.LogAttrs(context.Background(), slog.LevelDebug, "operation finished", attrs...)
}

func newRunID() string { return uuid.NewString() }

func (v *Vault) resurfaceOptions(contextText string) score.ResurfaceOptions {
	now := v.now()
	return score.ResurfaceOptions{
		Context:   contextText,
		TodayKey:  fossil.DayKeyOf(now),
		Now:       now,
		TopK:      v.engine.ResurfaceTopK,
		Rand:      v.rand,
		Tokenizer: v.tok,
	}
}

// Resurface picks a fossil to show again and returns the scored pool it was drawn from.
func (v *Vault) Resurface(s *Snapshot, contextText, todayKey string) (*fossil.Record, []score.Candidate) {
	start := time.Now()
	opts := v.resurfaceOptions(contextText)
	if todayKey != "" {
		opts.TodayKey = todayKey
	}
	pool := score.RankResurface(s.Records, s.Index, opts)
	var pick *fossil.Record
	if len(pool) > 0 {
		pick = pool[score.Draw(pool, opts.Rand)].Record
	}
	v.track("resurface", start, len(pool), nil, slog.Bool("with_context", contextText != ""))
	return pick, pool
}

// Conflicts checks newText against the snapshot.
func (v *Vault) Conflicts(s *Snapshot, newText string) []conflict.Conflict {
	start := time.Now()
	d := conflict.NewDetector(v.tok)
	if v.engine.ConflictMin > 0 {
		d.Min = v.engine.ConflictMin
	}
	if v.engine.ConflictMax > 0 {
		d.Max = v.engine.ConflictMax
	}
	out := d.Detect(newText, s.Records, s.Index)
	v.track("conflicts", start, len(out), nil)
	return out
}

// LayoutOptions returns the configured viewport, overridden by any positive finite argument.
func (v *Vault) LayoutOptions(width, height float64, iterations int) layout.Options {
	o := layout.Options{
		Width:      v.layout.Width,
		Height:     v.layout.Height,
		Iterations: v.layout.Iterations,
		Padding:    v.layout.Padding,
	}
	if width > 0 && !math.IsInf(width, 0) {
		o.Width = width
	}
	if height > 0 && !math.IsInf(height, 0) {
		o.Height = height
	}
	if iterations > 0 {
		o.Iterations = iterations
	}
	return o
}

// Graph builds the fossil graph and lays it out.
func (v *Vault) Graph(s *Snapshot, opts layout.Options) *graph.Graph {
	start := time.Now()
	g := v.buildGraph(s)
	layout.Layout(g.Nodes, g.Edges, opts)
	v.track("graph", start, len(g.Nodes), nil,
		slog.Int("edges", len(g.Edges)),
		slog.Int("clusters", g.ClusterCount),
	)
	return g
}

func (v *Vault) buildGraph(s *Snapshot) *graph.Graph {
	return graph.BuildGraph(s.Records, s.Index, s.Manual, graph.BuildOptions{SemanticThreshold: v.engine.SemanticThreshold})
}

// Related lists fossils similar to id.
func (v *Vault) Related(s *Snapshot, id string, excludeChain bool) ([]link.Related, error) {
	start := time.Now()
	target, ok := s.Record(id)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownFossil, id)
		v.track("related", start, 0, err)
		return nil, err
	}
	out := link.FindRelated(target, s.Records, s.Index, link.RelatedOptions{
		MinSimilarity: v.engine.RelatedMin,
		MaxResults:    v.engine.RelatedMax,
		ExcludeChain:  excludeChain,
		Tokenizer:     v.tok,
	})
	v.track("related", start, len(out), nil, slog.String("fossil", id))
	return out, nil
}

func (v *Vault) clusterOptions() link.ClusterOptions {
	return link.ClusterOptions{
		MinClusterSize: v.engine.ClusterMinSize,
		MinSimilarity:  v.engine.ClusterMinSimilarity,
		Tokenizer:      v.tok,
	}
}

// Clusters detects thematic clusters.
func (v *Vault) Clusters(s *Snapshot) []link.Cluster {
	start := time.Now()
	out := link.DetectClusters(s.Records, s.Index, v.clusterOptions())
	v.track("clusters", start, len(out), nil)
	return out
}

// Suggestions proposes links that are not drawn yet.
func (v *Vault) Suggestions(s *Snapshot) []link.Suggestion {
	start := time.Now()
	out := link.SuggestConnections(s.Records, s.Index, s.Manual, link.SuggestOptions{
		MinSimilarity: v.engine.SuggestMin,
		MaxSimilarity: v.engine.SuggestMax,
		Limit:         v.engine.SuggestLimit,
		Tokenizer:     v.tok,
	})
	v.track("suggestions", start, len(out), nil)
	return out
}

// Bridges finds fossils that tie thematic clusters together. clusters may be nil.
func (v *Vault) Bridges(s *Snapshot, clusters []link.Cluster) []link.Bridge {
	start := time.Now()
	out := link.FindBridgeFossils(s.Records, s.Index, link.BridgeOptions{
		MinSimilarity: v.engine.BridgeMinSimilarity,
		Limit:         v.engine.BridgeLimit,
		Clusters:      clusters,
		Cluster:       v.clusterOptions(),
		Tokenizer:     v.tok,
	})
	v.track("bridges", start, len(out), nil)
	return out
}

// Neighborhood expands outward from id over the fossil graph.
func (v *Vault) Neighborhood(s *Snapshot, id string, cfg *graph.NeighborhoodConfig) ([]graph.Neighbor, error) {
	start := time.Now()
	if _, ok := s.Record(id); !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownFossil, id)
		v.track("neighborhood", start, 0, err)
		return nil, err
	}
	snap := graph.NewSnapshot(v.buildGraph(s), s.Records, nil)
	out := graph.Neighborhood(snap, id, cfg)
	v.track("neighborhood", start, len(out), nil, slog.String("fossil", id))
	return out, nil
}
