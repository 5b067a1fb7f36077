// Package keypattern groups raw store keys that share a structural shape into
// named patterns.
//
// Two variants are provided. Generalize/Cluster handle flat namespaces such as
// "user:1042:profile", replacing the first identifier-looking token with a
// wildcard. ClusterHierarchy handles slash-delimited namespaces by counting
// distinct keys under every prefix depth.
package keypattern

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Wildcard is the default marker substituted for identifier tokens.
const Wildcard = "*"

// SeparatorOptions holds the heuristics of the separator/ID-suffix variant.
type SeparatorOptions struct {
	// Separators are tried in order; the first one that yields a wildcarded
	// pattern wins.
	Separators []string `json:"separators" yaml:"separators"`
	// MinHexLen is the minimum length for an all-hex token to count as an ID.
	MinHexLen int `json:"min_hex_len" yaml:"min_hex_len"`
	// MinAlnumLen is the minimum length for an alphanumeric token to count as an ID.
	MinAlnumLen int `json:"min_alnum_len" yaml:"min_alnum_len"`
	// MinDigitSuffixLen is the minimum token length for "ends in digits" to count as an ID.
	MinDigitSuffixLen int `json:"min_digit_suffix_len" yaml:"min_digit_suffix_len"`
	// MinHexRunLen is the minimum length of an embedded hex run for the
	// whole-key fallback.
	MinHexRunLen int `json:"min_hex_run_len" yaml:"min_hex_run_len"`
	// FallbackPrefixLen caps the literal prefix kept by the last-resort rule.
	FallbackPrefixLen int `json:"fallback_prefix_len" yaml:"fallback_prefix_len"`
	// Wildcard replaces identifier tokens.
	Wildcard string `json:"wildcard" yaml:"wildcard"`
}

// DefaultSeparatorOptions returns the default heuristics.
func DefaultSeparatorOptions() SeparatorOptions {
	return SeparatorOptions{
		Separators:        []string{":", "_", "-", "."},
		MinHexLen:         6,
		MinAlnumLen:       10,
		MinDigitSuffixLen: 3,
		MinHexRunLen:      8,
		FallbackPrefixLen: 5,
		Wildcard:          Wildcard,
	}
}

// applySeparatorDefaults fills zero fields from the defaults.
func applySeparatorDefaults(opts SeparatorOptions) SeparatorOptions {
	def := DefaultSeparatorOptions()
	if len(opts.Separators) == 0 {
		opts.Separators = def.Separators
	}
	if opts.MinHexLen <= 0 {
		opts.MinHexLen = def.MinHexLen
	}
	if opts.MinAlnumLen <= 0 {
		opts.MinAlnumLen = def.MinAlnumLen
	}
	if opts.MinDigitSuffixLen <= 0 {
		opts.MinDigitSuffixLen = def.MinDigitSuffixLen
	}
	if opts.MinHexRunLen <= 0 {
		opts.MinHexRunLen = def.MinHexRunLen
	}
	if opts.FallbackPrefixLen <= 0 {
		opts.FallbackPrefixLen = def.FallbackPrefixLen
	}
	if opts.Wildcard == "" {
		opts.Wildcard = def.Wildcard
	}
	return opts
}

var (
	digitsPattern       = regexp.MustCompile(`^\d+$`)
	hexPattern          = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	alnumPattern        = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	digitSuffixPattern  = regexp.MustCompile(`\d$`)
	trailingDigitsWhole = regexp.MustCompile(`^([a-zA-Z_]+)\d+$`)
)

// Generalizer turns keys into patterns with a fixed set of options.
type Generalizer struct {
	opts     SeparatorOptions
	hexRunRe *regexp.Regexp
}

// NewGeneralizer creates a Generalizer. Zero-valued options take defaults.
func NewGeneralizer(opts SeparatorOptions) *Generalizer {
	opts = applySeparatorDefaults(opts)
	return &Generalizer{
		opts:     opts,
		hexRunRe: regexp.MustCompile(`[0-9a-fA-F]{` + strconv.Itoa(opts.MinHexRunLen) + `,}`),
	}
}

// Options returns the effective options.
func (g *Generalizer) Options() SeparatorOptions {
	return g.opts
}

// IsIdentifier reports whether a token looks like an identifier: all digits,
// a long hex string, a long alphanumeric string, or a token ending in digits.
func (g *Generalizer) IsIdentifier(token string) bool {
	if token == "" {
		return false
	}
	if digitsPattern.MatchString(token) {
		return true
	}
	if len(token) >= g.opts.MinHexLen && hexPattern.MatchString(token) {
		return true
	}
	if len(token) >= g.opts.MinAlnumLen && alnumPattern.MatchString(token) {
		return true
	}
	return len(token) >= g.opts.MinDigitSuffixLen && digitSuffixPattern.MatchString(token)
}

// Generalize returns the pattern for a single key.
//
// Rules, most specific first:
//  1. For each separator present in the key, split it and replace the first
//     identifier token after the leading one with the wildcard, dropping
//     everything after it ("user:42:name" -> "user:*").
//  2. A letters-then-digits key loses its digit suffix ("session991" -> "session*").
//  3. Runs of hex characters anywhere in the key are wildcarded.
//  4. Keys longer than the fallback length keep a short literal prefix.
//  5. Otherwise the key is its own pattern.
func (g *Generalizer) Generalize(key string) string {
	w := g.opts.Wildcard

	for _, sep := range g.opts.Separators {
		if sep == "" || !strings.Contains(key, sep) {
			continue
		}
		tokens := strings.Split(key, sep)
		for i := 1; i < len(tokens); i++ {
			if g.IsIdentifier(tokens[i]) {
				return strings.Join(tokens[:i], sep) + sep + w
			}
		}
	}

	if m := trailingDigitsWhole.FindStringSubmatch(key); m != nil {
		return m[1] + w
	}

	if g.hexRunRe.MatchString(key) {
		return g.hexRunRe.ReplaceAllLiteralString(key, w)
	}

	n := utf8.RuneCountInString(key)
	if n > g.opts.FallbackPrefixLen {
		keep := min(g.opts.FallbackPrefixLen, n/2)
		return string([]rune(key)[:keep]) + w
	}

	return key
}

// Bucket is one pattern with its contributing keys in first-seen order.
type Bucket struct {
	Pattern string
	Keys    []string
}

// Cluster groups keys by pattern. Buckets are returned in the order each
// pattern was first seen; keys within a bucket keep input order. Duplicate
// keys are kept; callers that need distinct keys dedupe first.
func (g *Generalizer) Cluster(keys []string) []Bucket {
	index := make(map[string]int)
	buckets := make([]Bucket, 0)

	for _, key := range keys {
		pattern := g.Generalize(key)
		i, ok := index[pattern]
		if !ok {
			i = len(buckets)
			index[pattern] = i
			buckets = append(buckets, Bucket{Pattern: pattern})
		}
		buckets[i].Keys = append(buckets[i].Keys, key)
	}

	return buckets
}

// Generalize applies the default heuristics to a single key.
func Generalize(key string) string {
	return defaultGeneralizer.Generalize(key)
}

// Cluster groups keys with the default heuristics.
func Cluster(keys []string) []Bucket {
	return defaultGeneralizer.Cluster(keys)
}

var defaultGeneralizer = NewGeneralizer(DefaultSeparatorOptions())
