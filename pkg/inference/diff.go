package inference

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/usestring/storeschema-mcp/pkg/fieldinfer"
)

// Change describes one pattern or field present in both passes whose
// statistics moved.
type Change struct {
	Name    string   `json:"name"`
	Details []string `json:"details"`
}

// Diff lists what moved between a baseline pass and a candidate pass.
type Diff struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Changed   []Change `json:"changed"`
	Unchanged int      `json:"unchanged"`
}

// Empty reports whether the passes are structurally identical.
func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// CompareKeys diffs two key passes by pattern. A shared pattern is changed
// when its count or the set of value types differs.
func CompareKeys(baseline, candidate *KeyResult) *Diff {
	before := make(map[string]KeyPattern, len(baseline.KeyPatterns))
	for _, p := range baseline.KeyPatterns {
		before[p.Pattern] = p
	}
	after := make(map[string]KeyPattern, len(candidate.KeyPatterns))
	for _, p := range candidate.KeyPatterns {
		after[p.Pattern] = p
	}

	return compare(before, after, func(a, b KeyPattern) []string {
		var details []string
		if a.Count != b.Count {
			details = append(details, fmt.Sprintf("count %d -> %d", a.Count, b.Count))
		}
		if d := setDelta(slices.Collect(maps.Keys(a.TypeHistogram)), slices.Collect(maps.Keys(b.TypeHistogram))); d != "" {
			details = append(details, "types "+d)
		}
		return details
	})
}

// CompareFields diffs two document passes by field path. A shared field is
// changed when its set of types or its occurrence differs.
func CompareFields(baseline, candidate *DocumentResult) *Diff {
	before := make(map[string]fieldinfer.FieldInfo, len(baseline.Fields))
	for _, f := range baseline.Fields {
		before[f.Path] = f
	}
	after := make(map[string]fieldinfer.FieldInfo, len(candidate.Fields))
	for _, f := range candidate.Fields {
		after[f.Path] = f
	}

	return compare(before, after, func(a, b fieldinfer.FieldInfo) []string {
		var details []string
		if d := setDelta(tagNames(a), tagNames(b)); d != "" {
			details = append(details, "types "+d)
		}
		if a.Occurrence != b.Occurrence {
			details = append(details, fmt.Sprintf("occurrence %d%% -> %d%%", a.Occurrence, b.Occurrence))
		}
		return details
	})
}

func compare[T any](before, after map[string]T, details func(a, b T) []string) *Diff {
	d := &Diff{
		Added:   []string{},
		Removed: []string{},
		Changed: []Change{},
	}

	for name, b := range after {
		a, ok := before[name]
		if !ok {
			d.Added = append(d.Added, name)
			continue
		}
		if det := details(a, b); len(det) > 0 {
			d.Changed = append(d.Changed, Change{Name: name, Details: det})
		} else {
			d.Unchanged++
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			d.Removed = append(d.Removed, name)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Slice(d.Changed, func(i, j int) bool { return d.Changed[i].Name < d.Changed[j].Name })
	return d
}

func tagNames(f fieldinfer.FieldInfo) []string {
	names := make([]string, len(f.TypeDistribution))
	for i, s := range f.TypeDistribution {
		names[i] = string(s.Type)
	}
	return names
}

// setDelta renders the difference between two sets as "+a +b -c", or "".
func setDelta(before, after []string) string {
	in := func(s []string, v string) bool { return slices.Contains(s, v) }

	var parts []string
	for _, v := range after {
		if !in(before, v) {
			parts = append(parts, "+"+v)
		}
	}
	for _, v := range before {
		if !in(after, v) {
			parts = append(parts, "-"+v)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
