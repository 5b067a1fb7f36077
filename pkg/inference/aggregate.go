package inference

import (
	"sort"

	"github.com/usestring/storeschema-mcp/pkg/keypattern"
)

// Aggregation defaults.
const (
	DefaultSampleKeys  = 10
	MaxSampleKeys      = 10
	DefaultMaxPatterns = 200
)

// AggregateOptions bounds the flat aggregation.
type AggregateOptions struct {
	// SampleKeys is K, the number of first-seen member keys kept per pattern.
	SampleKeys int
	// MaxPatterns caps the number of patterns returned after sorting.
	MaxPatterns int
}

func (o AggregateOptions) withDefaults() AggregateOptions {
	if o.SampleKeys <= 0 {
		o.SampleKeys = DefaultSampleKeys
	}
	if o.MaxPatterns <= 0 {
		o.MaxPatterns = DefaultMaxPatterns
	}
	return o
}

// AggregateFlat turns separator buckets into key patterns.
//
// types maps a member key to its value type; keys missing from it are left
// out of the histogram but still counted. Patterns are sorted by count
// descending with ties kept in first-seen order, then capped. The second
// return value reports how many patterns the cap removed.
func AggregateFlat(buckets []keypattern.Bucket, types map[string]string, opts AggregateOptions) ([]KeyPattern, int) {
	opts = opts.withDefaults()

	var ix *typeIndex
	if len(types) > 0 {
		ix = newTypeIndex(buckets, types)
	}

	patterns := make([]KeyPattern, 0, len(buckets))
	for _, b := range buckets {
		p := KeyPattern{
			Pattern:    b.Pattern,
			Count:      len(b.Keys),
			SampleKeys: firstN(b.Keys, opts.SampleKeys),
		}
		if ix != nil {
			p.TypeHistogram = ix.histogram(b.Keys)
		}
		patterns = append(patterns, p)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})

	dropped := 0
	if len(patterns) > opts.MaxPatterns {
		dropped = len(patterns) - opts.MaxPatterns
		patterns = patterns[:opts.MaxPatterns]
	}
	return patterns, dropped
}

// AggregateHierarchy converts retained prefixes into key patterns. Ordering
// and capping were already applied by keypattern.ClusterHierarchy.
func AggregateHierarchy(prefixes []keypattern.Prefix) []KeyPattern {
	patterns := make([]KeyPattern, len(prefixes))
	for i, p := range prefixes {
		patterns[i] = KeyPattern{
			Pattern:    p.Prefix,
			Count:      p.Count,
			SampleKeys: p.SampleKeys,
			Depth:      p.Depth,
		}
	}
	return patterns
}

func firstN(keys []string, n int) []string {
	n = min(n, len(keys))
	out := make([]string, n)
	copy(out, keys[:n])
	return out
}

// dedupe removes repeated keys, keeping first-seen order. Cursor-based scans
// may return a key more than once.
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
