package link

import (
	"sort"

	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/text"
)

// Defaults for BridgeOptions.
const (
	DefaultBridgeMinSimilarity = 0.15
	DefaultBridgeLimit         = 5
)

// BridgeOptions tunes FindBridgeFossils.
type BridgeOptions struct {
	MinSimilarity float64
	Limit         int
	// Clusters are reused when set; otherwise they are detected with Cluster.
	Clusters  []Cluster
	Cluster   ClusterOptions
	Tokenizer *text.Tokenizer
}

// ClusterLink is a bridge fossil's strongest tie into one cluster.
type ClusterLink struct {
	ClusterID  int     `json:"cluster_id"`
	Theme      string  `json:"theme"`
	Similarity float64 `json:"similarity"`
}

// Bridge is a fossil that ties two or more thematic clusters together.
type Bridge struct {
	Record   *fossil.Record `json:"record"`
	Links    []ClusterLink  `json:"links"`
	Strength float64        `json:"strength"` // mean similarity across the linked clusters
}

// FindBridgeFossils finds fossils similar to members of at least two
// distinct thematic clusters, strongest first.
func FindBridgeFossils(records []fossil.Record, idx text.Index, opts BridgeOptions) []Bridge {
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = DefaultBridgeMinSimilarity
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultBridgeLimit
	}
	if opts.Cluster.Tokenizer == nil {
		opts.Cluster.Tokenizer = opts.Tokenizer
	}
	clusters := opts.Clusters
	if clusters == nil {
		clusters = DetectClusters(records, idx, opts.Cluster)
	}
	if len(clusters) < 2 {
		return nil
	}

	byID := fossil.ByID(records)
	var out []Bridge
	for i := range records {
		r := &records[i]
		if !r.Visible() {
			continue
		}
		tokens := idx.Tokens(opts.Tokenizer, r)

		var links []ClusterLink
		var sum float64
		for _, c := range clusters {
			best := 0.0
			for _, id := range c.Members {
				m, ok := byID[id]
				if !ok || id == r.ID {
					continue
				}
				best = max(best, text.Jaccard(tokens, idx.Tokens(opts.Tokenizer, m)))
			}
			if best >= opts.MinSimilarity {
				links = append(links, ClusterLink{ClusterID: c.ID, Theme: c.Label(), Similarity: best})
				sum += best
			}
		}
		if len(links) < 2 {
			continue
		}
		out = append(out, Bridge{Record: r, Links: links, Strength: sum / float64(len(links))})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].Record.ID < out[j].Record.ID
	})
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}
