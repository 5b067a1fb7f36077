// Package fieldinfer flattens sampled documents into dotted field paths and
// aggregates per-path type histograms and occurrence rates.
//
// Nested objects are expanded into "parent.child" paths. Arrays and primitives
// are leaves: arrays are never expanded element-wise. Each path is observed at
// most once per document.
package fieldinfer

import (
	"math"
	"sort"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/typetag"
)

// Default bounds.
const (
	DefaultMaxDepth = 10
	DefaultMaxPaths = 2000
)

// Options bounds flattening.
type Options struct {
	// MaxDepth is the deepest nesting level expanded. An object found at this
	// depth is recorded as an "object" leaf instead of being recursed into.
	MaxDepth int `json:"max_depth"`
	// MaxPaths caps the number of distinct paths tracked. Paths first seen
	// after the cap is reached are dropped and counted.
	MaxPaths int `json:"max_paths"`
}

// DefaultOptions returns the default bounds.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth, MaxPaths: DefaultMaxPaths}
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxPaths <= 0 {
		o.MaxPaths = DefaultMaxPaths
	}
	return o
}

// TypeShare is one entry of a field's type distribution.
type TypeShare struct {
	Type       typetag.Tag `json:"type"`
	Percentage int         `json:"percentage"`
	Count      int         `json:"count"`
}

// FieldInfo summarises one field path across the sample.
type FieldInfo struct {
	Path             string      `json:"path"`
	TypeDistribution []TypeShare `json:"type_distribution"`
	// Occurrence is the rounded percentage of sampled documents containing the path.
	Occurrence int `json:"occurrence"`
	// Count is the number of documents containing the path.
	Count int `json:"count"`
}

// Types returns the tags of the distribution in order.
func (f FieldInfo) Types() []typetag.Tag {
	tags := make([]typetag.Tag, len(f.TypeDistribution))
	for i, s := range f.TypeDistribution {
		tags[i] = s.Type
	}
	return tags
}

type pathStats struct {
	occurrences int
	types       map[typetag.Tag]int
}

// Accumulator collects observations one document at a time. It is not safe
// for concurrent use; a single inference pass owns it.
type Accumulator struct {
	opts      Options
	documents int
	paths     map[string]*pathStats
	dropped   map[string]struct{}
	seen      map[string]struct{} // paths observed in the current document
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator(opts Options) *Accumulator {
	return &Accumulator{
		opts:    opts.withDefaults(),
		paths:   make(map[string]*pathStats),
		dropped: make(map[string]struct{}),
		seen:    make(map[string]struct{}),
	}
}

// Add flattens doc and records every leaf path it contains.
func (a *Accumulator) Add(doc docvalue.Object) {
	a.documents++
	clear(a.seen)
	a.walk(doc, "", 1)
}

func (a *Accumulator) walk(obj docvalue.Object, parent string, depth int) {
	for _, key := range obj.Keys() {
		path := key
		if parent != "" {
			path = parent + "." + key
		}

		v := obj[key]
		if nested, ok := v.AsObject(); ok && len(nested) > 0 && depth < a.opts.MaxDepth {
			a.walk(nested, path, depth+1)
			continue
		}
		a.observe(path, typetag.Of(v))
	}
}

func (a *Accumulator) observe(path string, tag typetag.Tag) {
	// A key containing "." can collide with a nested path; the first wins.
	if _, dup := a.seen[path]; dup {
		return
	}
	a.seen[path] = struct{}{}

	st, ok := a.paths[path]
	if !ok {
		if len(a.paths) >= a.opts.MaxPaths {
			a.dropped[path] = struct{}{}
			return
		}
		st = &pathStats{types: make(map[typetag.Tag]int, 2)}
		a.paths[path] = st
	}
	st.occurrences++
	st.types[tag]++
}

// Documents returns the number of documents added.
func (a *Accumulator) Documents() int {
	return a.documents
}

// TruncatedPaths returns the number of distinct paths dropped by the path cap.
func (a *Accumulator) TruncatedPaths() int {
	return len(a.dropped)
}

// Fields returns the per-path statistics sorted by path. Within a field, types
// are ordered by count descending, then tag name.
func (a *Accumulator) Fields() []FieldInfo {
	fields := make([]FieldInfo, 0, len(a.paths))

	for path, st := range a.paths {
		dist := make([]TypeShare, 0, len(st.types))
		for tag, n := range st.types {
			dist = append(dist, TypeShare{
				Type:       tag,
				Percentage: percent(n, st.occurrences),
				Count:      n,
			})
		}
		sort.Slice(dist, func(i, j int) bool {
			if dist[i].Count != dist[j].Count {
				return dist[i].Count > dist[j].Count
			}
			return dist[i].Type < dist[j].Type
		})

		fields = append(fields, FieldInfo{
			Path:             path,
			TypeDistribution: dist,
			Occurrence:       percent(st.occurrences, a.documents),
			Count:            st.occurrences,
		})
	}

	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Path < fields[j].Path
	})
	return fields
}

// Infer runs a fresh accumulator over docs.
func Infer(docs []docvalue.Object, opts Options) []FieldInfo {
	acc := NewAccumulator(opts)
	for _, doc := range docs {
		acc.Add(doc)
	}
	return acc.Fields()
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
