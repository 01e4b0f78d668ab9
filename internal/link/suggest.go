package link

import (
	"sort"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/graph"
	"fossilbed/strata/internal/text"
)

// Defaults for SuggestOptions.
const (
	DefaultSuggestMin       = 0.25
	DefaultSuggestMax       = 0.70
	DefaultSuggestMinShared = 2
	DefaultSuggestLimit     = 10
)

// significantMinLength is the shortest shared token that counts as evidence for a link.
const significantMinLength = 4

// SuggestOptions tunes SuggestConnections.
type SuggestOptions struct {
	MinSimilarity float64
	MaxSimilarity float64
	MinShared     int
	Limit         int
	Tokenizer     *text.Tokenizer
}

func (o SuggestOptions) withDefaults() SuggestOptions {
	if o.MinSimilarity <= 0 {
		o.MinSimilarity = DefaultSuggestMin
	}
	if o.MaxSimilarity <= 0 {
		o.MaxSimilarity = DefaultSuggestMax
	}
	if o.MinShared <= 0 {
		o.MinShared = DefaultSuggestMinShared
	}
	if o.Limit <= 0 {
		o.Limit = DefaultSuggestLimit
	}
	return o
}

// Suggestion is a pair of fossils that look related but are not linked.
type Suggestion struct {
	SourceID   string   `json:"source_id"`
	TargetID   string   `json:"target_id"`
	Similarity float64  `json:"similarity"`
	Shared     []string `json:"shared"`
}

// SuggestConnections proposes unlinked pairs whose similarity falls in the
// "related but not obvious" band and that share enough significant tokens.
// Pairs already joined by a re-entry or a manual edge are skipped.
func SuggestConnections(records []fossil.Record, idx text.Index, existing []graph.Edge, opts SuggestOptions) []Suggestion {
	opts = opts.withDefaults()
	visible := fossil.VisibleOnly(records)

	linked := graph.LinkedPairs(existing)
	for i := range visible {
		if p := visible[i].Parent(); p != "" {
			linked[graph.PairKey(p, visible[i].ID)] = true
		}
	}

	tokens := make([]text.TokenSet, len(visible))
	for i := range visible {
		tokens[i] = idx.Tokens(opts.Tokenizer, &visible[i])
	}

	var out []Suggestion
	for i := 0; i < len(visible); i++ {
		for j := i + 1; j < len(visible); j++ {
			a, b := visible[i].ID, visible[j].ID
			if a == b || linked[graph.PairKey(a, b)] {
				continue
			}
			sim := text.Jaccard(tokens[i], tokens[j])
			if sim < opts.MinSimilarity || sim > opts.MaxSimilarity {
				continue
			}
			shared := significantShared(tokens[i], tokens[j])
			if len(shared) < opts.MinShared {
				continue
			}
			out = append(out, Suggestion{SourceID: a, TargetID: b, Similarity: sim, Shared: shared})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].TargetID < out[j].TargetID
	})
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func significantShared(a, b text.TokenSet) []string {
	var out []string
	for _, tok := range text.Shared(a, b) {
		if len([]rune(tok)) >= significantMinLength && !text.IsStopword(tok) {
			out = append(out, tok)
		}
	}
	return out
}
