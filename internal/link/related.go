// Package link finds connections between fossils that nobody drew by hand:
// related fossils, thematic clusters, suggested links and bridge fossils.
package link

import (
	"sort"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/text"
)

// Defaults for RelatedOptions.
const (
	DefaultRelatedMinSimilarity = 0.2
	DefaultRelatedMaxResults    = 5
)

// RelatedOptions tunes FindRelated.
type RelatedOptions struct {
	MinSimilarity float64
	MaxResults    int
	// ExcludeChain drops every fossil in the target's re-entry chain.
	ExcludeChain bool
	Tokenizer    *text.Tokenizer
}

// Related is a fossil similar to the target.
type Related struct {
	Record     *fossil.Record `json:"record"`
	Similarity float64        `json:"similarity"`
	Shared     []string       `json:"shared"`
}

// FindRelated ranks visible fossils by similarity to target, most similar first.
func FindRelated(target *fossil.Record, all []fossil.Record, idx text.Index, opts RelatedOptions) []Related {
	if target == nil {
		return nil
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = DefaultRelatedMinSimilarity
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultRelatedMaxResults
	}

	var skip map[string]bool
	if opts.ExcludeChain {
		skip = fossil.ChainMembers(all, target.ID)
	}

	targetTokens := idx.Tokens(opts.Tokenizer, target)
	var out []Related
	for i := range all {
		r := &all[i]
		if r.ID == target.ID || !r.Visible() || skip[r.ID] {
			continue
		}
		tokens := idx.Tokens(opts.Tokenizer, r)
		sim := text.Jaccard(targetTokens, tokens)
		if sim <= 0 || sim < opts.MinSimilarity {
			continue
		}
		out = append(out, Related{Record: r, Similarity: sim, Shared: text.Shared(targetTokens, tokens)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Record.ID < out[j].Record.ID
	})
	if len(out) > opts.MaxResults {
		out = out[:opts.MaxResults]
	}
	return out
}
