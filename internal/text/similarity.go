package text

import (
	"sort"

	"fossilbed/strata/internal/fossil"
)

// Jaccard computes |A∩B| / |A∪B|.
// Returns 0.0 when either set is empty.
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Shared returns the sorted intersection of a and b.
func Shared(a, b TokenSet) []string {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var out []string
	for tok := range small {
		if _, ok := large[tok]; ok {
			out = append(out, tok)
		}
	}
	sortStrings(out)
	return out
}

// Index maps a record id to the token set of its composite text.
// Built once per record snapshot and never mutated afterwards.
type Index map[string]TokenSet

// BuildIndex tokenizes every visible record.
func BuildIndex(tok *Tokenizer, records []fossil.Record) Index {
	idx := make(Index, len(records))
	for i := range records {
		r := &records[i]
		if !r.Visible() {
			continue
		}
		idx[r.ID] = tok.Tokenize(r.Text())
	}
	return idx
}

// Tokens returns the indexed tokens for r, tokenizing on the fly when r is not indexed.
func (idx Index) Tokens(tok *Tokenizer, r *fossil.Record) TokenSet {
	if set, ok := idx[r.ID]; ok {
		return set
	}
	return tok.Tokenize(r.Text())
}

// Similar is a record id with its similarity to a probe.
type Similar struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
}

// FindSimilar returns up to topN indexed ids whose similarity to target is at
// least minSimilarity, excluding excludeID, sorted by descending similarity.
func FindSimilar(target TokenSet, idx Index, excludeID string, topN int, minSimilarity float64) []Similar {
	var results []Similar
	for id, tokens := range idx {
		if id == excludeID {
			continue
		}
		sim := Jaccard(target, tokens)
		if sim > 0 && sim >= minSimilarity {
			results = append(results, Similar{ID: id, Similarity: sim})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

func sortStrings(s []string) { sort.Strings(s) }
