package keypattern

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// HierarchyOptions bounds hierarchical-prefix clustering.
type HierarchyOptions struct {
	// MaxPrefixes caps the number of prefixes returned after sorting.
	MaxPrefixes int `json:"max_prefixes"`
	// SampleKeys caps the sample keys kept per prefix.
	SampleKeys int `json:"sample_keys"`
	// MinCount is the materiality threshold for prefixes deeper than 1.
	MinCount int `json:"min_count"`
}

// DefaultHierarchyOptions returns the default hierarchy options.
func DefaultHierarchyOptions() HierarchyOptions {
	return HierarchyOptions{
		MaxPrefixes: 50,
		SampleKeys:  5,
		MinCount:    2,
	}
}

func applyHierarchyDefaults(opts HierarchyOptions) HierarchyOptions {
	def := DefaultHierarchyOptions()
	if opts.MaxPrefixes <= 0 {
		opts.MaxPrefixes = def.MaxPrefixes
	}
	if opts.SampleKeys <= 0 {
		opts.SampleKeys = def.SampleKeys
	}
	if opts.MinCount <= 0 {
		opts.MinCount = def.MinCount
	}
	return opts
}

// Prefix is one retained namespace prefix.
type Prefix struct {
	Prefix     string
	Depth      int
	Count      int
	SampleKeys []string
}

// prefixBuilder accumulates the distinct keys under one prefix.
type prefixBuilder struct {
	prefix  string
	depth   int
	members *roaring.Bitmap // indexes into the distinct key list
}

// ClusterHierarchy counts distinct keys under every "/"-delimited prefix.
//
// Each key contributes one candidate prefix per depth ("/a/b/c" yields "/a/",
// "/a/b/" and "/a/b/c/"). Empty segments are ignored. A prefix is retained
// when it is top-level or has at least MinCount distinct keys. Retained
// prefixes are ordered by depth ascending, then count descending, then
// prefix, and truncated to MaxPrefixes. Sample keys are the first distinct
// keys seen under the prefix.
func ClusterHierarchy(keys []string, opts HierarchyOptions) []Prefix {
	opts = applyHierarchyDefaults(opts)

	distinct := make([]string, 0, len(keys))
	seen := make(map[string]uint32, len(keys))
	builders := make(map[string]*prefixBuilder)

	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		id := uint32(len(distinct))
		seen[key] = id
		distinct = append(distinct, key)

		for depth, prefix := range prefixesOf(key) {
			b, ok := builders[prefix]
			if !ok {
				b = &prefixBuilder{prefix: prefix, depth: depth + 1, members: roaring.New()}
				builders[prefix] = b
			}
			b.members.Add(id)
		}
	}

	retained := make([]*prefixBuilder, 0, len(builders))
	for _, b := range builders {
		if b.depth == 1 || int(b.members.GetCardinality()) >= opts.MinCount {
			retained = append(retained, b)
		}
	}

	sort.Slice(retained, func(i, j int) bool {
		a, b := retained[i], retained[j]
		if a.depth != b.depth {
			return a.depth < b.depth
		}
		ca, cb := a.members.GetCardinality(), b.members.GetCardinality()
		if ca != cb {
			return ca > cb
		}
		return a.prefix < b.prefix
	})

	if len(retained) > opts.MaxPrefixes {
		retained = retained[:opts.MaxPrefixes]
	}

	result := make([]Prefix, 0, len(retained))
	for _, b := range retained {
		samples := make([]string, 0, min(opts.SampleKeys, int(b.members.GetCardinality())))
		iter := b.members.Iterator()
		for iter.HasNext() && len(samples) < opts.SampleKeys {
			samples = append(samples, distinct[iter.Next()])
		}
		result = append(result, Prefix{
			Prefix:     b.prefix,
			Depth:      b.depth,
			Count:      int(b.members.GetCardinality()),
			SampleKeys: samples,
		})
	}

	return result
}

// prefixesOf returns the cumulative prefixes of a slash-delimited key,
// rendered as "/seg1/", "/seg1/seg2/", ...
func prefixesOf(key string) []string {
	segments := strings.FieldsFunc(key, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return nil
	}

	prefixes := make([]string, len(segments))
	var sb strings.Builder
	sb.WriteByte('/')
	for i, seg := range segments {
		sb.WriteString(seg)
		sb.WriteByte('/')
		prefixes[i] = sb.String()
	}
	return prefixes
}
