package link

import (
	"sort"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/text"
)

// Defaults for ClusterOptions.
const (
	DefaultMinClusterSize       = 3
	DefaultClusterMinSimilarity = 0.3
)

const (
	themeTerms     = 3
	themeMinLength = 4
)

// ClusterOptions tunes DetectClusters.
type ClusterOptions struct {
	MinClusterSize int
	MinSimilarity  float64
	Tokenizer      *text.Tokenizer
}

func (o ClusterOptions) withDefaults() ClusterOptions {
	if o.MinClusterSize <= 0 {
		o.MinClusterSize = DefaultMinClusterSize
	}
	if o.MinSimilarity <= 0 {
		o.MinSimilarity = DefaultClusterMinSimilarity
	}
	return o
}

// Cluster is a group of fossils about the same theme.
type Cluster struct {
	ID       int      `json:"id"`
	Members  []string `json:"members"`
	Theme    []string `json:"theme"`
	Cohesion float64  `json:"cohesion"` // mean pairwise similarity
}

// Label joins the theme terms for display.
func (c Cluster) Label() string {
	if len(c.Theme) == 0 {
		return "untitled"
	}
	out := c.Theme[0]
	for _, t := range c.Theme[1:] {
		out += " / " + t
	}
	return out
}

// DetectClusters groups visible fossils whose pairwise similarity clears
// MinSimilarity, via BFS over the similarity graph. Groups smaller than
// MinClusterSize are dropped. Larger clusters come first; equal sizes are
// ordered by their smallest member id.
func DetectClusters(records []fossil.Record, idx text.Index, opts ClusterOptions) []Cluster {
	opts = opts.withDefaults()
	visible := fossil.VisibleOnly(records)
	n := len(visible)

	tokens := make([]text.TokenSet, n)
	for i := range visible {
		tokens[i] = idx.Tokens(opts.Tokenizer, &visible[i])
	}
	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if text.Jaccard(tokens[i], tokens[j]) >= opts.MinSimilarity {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}

	var groups [][]int
	seen := make([]bool, n)
	for start := 0; start < n; start++ {
		if seen[start] {
			continue
		}
		seen[start] = true
		group := []int{start}
		for q := 0; q < len(group); q++ {
			for _, next := range adj[group[q]] {
				if !seen[next] {
					seen[next] = true
					group = append(group, next)
				}
			}
		}
		if len(group) >= opts.MinClusterSize {
			groups = append(groups, group)
		}
	}
	smallest := func(group []int) string {
		id := visible[group[0]].ID
		for _, i := range group[1:] {
			if visible[i].ID < id {
				id = visible[i].ID
			}
		}
		return id
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return smallest(groups[i]) < smallest(groups[j])
	})

	clusters := make([]Cluster, len(groups))
	for ci, group := range groups {
		c := Cluster{ID: ci}
		memberTokens := make([]text.TokenSet, len(group))
		for k, i := range group {
			c.Members = append(c.Members, visible[i].ID)
			memberTokens[k] = tokens[i]
		}
		c.Theme = theme(memberTokens)
		c.Cohesion = cohesion(memberTokens)
		clusters[ci] = c
	}
	return clusters
}

// Regions maps every clustered fossil id to its cluster label.
func Regions(clusters []Cluster) map[string]string {
	out := make(map[string]string)
	for _, c := range clusters {
		for _, id := range c.Members {
			out[id] = c.Label()
		}
	}
	return out
}

// theme picks the most frequent long non-stopword tokens, ties alphabetical.
func theme(sets []text.TokenSet) []string {
	counts := make(map[string]int)
	for _, s := range sets {
		for _, tok := range text.Significant(s, themeMinLength) {
			counts[tok]++
		}
	}
	terms := make([]string, 0, len(counts))
	for tok := range counts {
		terms = append(terms, tok)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > themeTerms {
		terms = terms[:themeTerms]
	}
	return terms
}

func cohesion(sets []text.TokenSet) float64 {
	var sum float64
	pairs := 0
	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			sum += text.Jaccard(sets[i], sets[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}
