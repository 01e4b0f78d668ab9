// Package conflict flags existing fossils that a new thought may contradict.
//
// The checks are lexical heuristics over token overlap, negation markers and
// a fixed antonym list. False positives and misses are expected.
package conflict

import (
	"regexp"
	"sort"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/text"
)

// Reasons a pair is flagged.
const (
	ReasonNegation = "negation"
	ReasonSemantic = "semantic"
)

// Default similarity band. Below Min the texts are unrelated; at or above Max they are the same idea.
const (
	DefaultMinSimilarity = 0.25
	DefaultMaxSimilarity = 0.85
)

type marker struct {
	name string
	re   *regexp.Regexp
}

func word(name, pattern string) marker {
	return marker{name: name, re: regexp.MustCompile(`(?i)\b(?:` + pattern + `)\b`)}
}

var negationMarkers = []marker{
	word("no longer", `no\s+longer`),
	word("not", `not`),
	word("never", `never`),
	word("no", `no`),
	word("can't", `can'?t|can’t`),
	word("cannot", `cannot`),
	word("won't", `won'?t|won’t`),
	word("don't", `don'?t|don’t`),
	word("doesn't", `doesn'?t|doesn’t`),
	word("isn't", `isn'?t|isn’t`),
	word("aren't", `aren'?t|aren’t`),
	word("shouldn't", `shouldn'?t|shouldn’t`),
	word("without", `without`),
	word("contrary", `contrary`),
	word("opposite", `opposite`),
	word("fails", `fails?|failing`),
	word("false", `false`),
	word("wrong", `wrong`),
	word("avoid", `avoid(?:s|ed|ing)?`),
	word("neither", `neither`),
	word("nor", `nor`),
}

var antonymPairs = [][2]string{
	{"increase", "decrease"},
	{"increases", "decreases"},
	{"more", "less"},
	{"fast", "slow"},
	{"faster", "slower"},
	{"better", "worse"},
	{"high", "low"},
	{"higher", "lower"},
	{"always", "never"},
	{"simple", "complex"},
	{"easy", "hard"},
	{"strong", "weak"},
	{"add", "remove"},
	{"enable", "disable"},
	{"include", "exclude"},
	{"success", "failure"},
	{"true", "false"},
	{"good", "bad"},
	{"before", "after"},
	{"start", "stop"},
	{"open", "closed"},
	{"sync", "async"},
	{"push", "pull"},
	{"centralized", "decentralized"},
	{"explicit", "implicit"},
	{"mutable", "immutable"},
	{"coupled", "decoupled"},
	{"optimistic", "pessimistic"},
}

// Conflict is an existing fossil that may contradict the new text.
type Conflict struct {
	Record            *fossil.Record `json:"record"`
	Similarity        float64        `json:"similarity"`
	SimilarityPercent int            `json:"similarity_percent"`
	Reason            string         `json:"reason"`
	Oppositions       []string       `json:"oppositions"`
}

// Detector holds the tokenizer and similarity band used by Detect.
type Detector struct {
	Tokenizer *text.Tokenizer
	Min       float64
	Max       float64
}

// NewDetector returns a Detector with the default band.
func NewDetector(tok *text.Tokenizer) *Detector {
	return &Detector{Tokenizer: tok, Min: DefaultMinSimilarity, Max: DefaultMaxSimilarity}
}

// Detect compares newText against every visible existing fossil and returns
// the flagged ones, most similar first.
func Detect(newText string, existing []fossil.Record, idx text.Index, tok *text.Tokenizer) []Conflict {
	return NewDetector(tok).Detect(newText, existing, idx)
}

func (d Detector) withDefaults() Detector {
	if d.Min <= 0 {
		d.Min = DefaultMinSimilarity
	}
	if d.Max <= 0 {
		d.Max = DefaultMaxSimilarity
	}
	return d
}

// Detect compares newText against every visible existing fossil. A zero Min
// or Max falls back to the default band.
func (d *Detector) Detect(newText string, existing []fossil.Record, idx text.Index) []Conflict {
	band := d.withDefaults()
	newTokens := band.Tokenizer.Tokenize(newText)
	if len(newTokens) == 0 {
		return nil
	}
	newNeg := negations(newText)

	var out []Conflict
	for i := range existing {
		r := &existing[i]
		if !r.Visible() {
			continue
		}
		tokens := idx.Tokens(band.Tokenizer, r)
		sim := text.Jaccard(newTokens, tokens)
		if sim < band.Min || sim >= band.Max {
			continue
		}

		reason, opp := "", []string(nil)
		if diff := symmetricDiff(newNeg, negations(r.Text())); len(diff) > 0 {
			reason, opp = ReasonNegation, diff
		} else if pairs := opposedAntonyms(newTokens, tokens); len(pairs) > 0 {
			reason, opp = ReasonSemantic, pairs
		}
		if reason == "" {
			continue
		}
		out = append(out, Conflict{
			Record:            r,
			Similarity:        sim,
			SimilarityPercent: int(sim*100 + 0.5),
			Reason:            reason,
			Oppositions:       opp,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out
}

var noLonger = regexp.MustCompile(`(?i)\bno\s+longer\b`)

// negations returns the set of negation markers present in s.
// A bare "no" inside "no longer" is not counted twice.
func negations(s string) map[string]bool {
	bare := noLonger.ReplaceAllString(s, " ")
	found := map[string]bool{}
	for _, m := range negationMarkers {
		target := s
		if m.name == "no" {
			target = bare
		}
		if m.re.MatchString(target) {
			found[m.name] = true
		}
	}
	return found
}

func symmetricDiff(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	for k := range b {
		if !a[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// opposedAntonyms returns "x/y" for every pair where one text holds one side
// and the other text holds the other side.
func opposedAntonyms(a, b text.TokenSet) []string {
	var out []string
	for _, p := range antonymPairs {
		x, y := p[0], p[1]
		aX, aY := a.Has(x), a.Has(y)
		bX, bY := b.Has(x), b.Has(y)
		if (aX && !aY && bY && !bX) || (aY && !aX && bX && !bY) {
			out = append(out, x+"/"+y)
		}
	}
	return out
}
