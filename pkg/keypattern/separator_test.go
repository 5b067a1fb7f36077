package keypattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsIdentifier(t *testing.T) {
	g := NewGeneralizer(SeparatorOptions{})

	tests := []struct {
		token    string
		expected bool
	}{
		{"", false},
		{"42", true},
		{"0", true},
		{"abc123", true},       // ends in digits, len > 2
		{"a1", false},          // too short for the digit-suffix rule
		{"deadbe", true},       // 6 hex chars
		{"deadb", false},       // 5 hex chars, no trailing digit
		{"abcdefghij", true},   // 10 alnum chars
		{"abcdefghi", false},   // 9 alnum chars
		{"profile", false},     // plain word
		{"name", false},        // plain word
		{"user-name", false},   // punctuation is never alnum
		{"ABCDEF", true},       // upper-case hex
		{"v2", false},          // digit suffix but length 2
		{"v22", true},          // digit suffix length 3
		{"facade", true},       // a word that happens to be hex
		{"settings", false},    // contains non-hex letters
		{"Mixed9Case0", true},  // long alnum
		{"ümlautabcd", false},  // non-ascii fails alnum
		{"1234567890abcdef", true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.expected, g.IsIdentifier(tt.token))
		})
	}
}

func TestGeneralize(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"numeric id truncates the rest", "user:1:name", "user:*"},
		{"first token never wildcarded", "42:ab", "42:ab"},
		{"hex id", "session:65f0c0ffee:data", "session:*"},
		{"second token literal, third id", "cache:page:1042", "cache:page:*"},
		{"underscore separator", "order_991", "order_*"},
		{"dash separator", "job-20240501-retry", "job-*"},
		{"dot separator", "cfg.v123.enabled", "cfg.*"},
		{"colon without id falls through to underscore", "env:prod_42_flag", "env:prod_*"},
		{"trailing digits whole key", "session991", "session*"},
		{"embedded hex run", "itemDEADBEEF00x", "item*x"},
		{"fallback prefix", "configuration", "confi*"},
		{"fallback prefix half length", "abcdefg", "abc*"},
		{"short key is its own pattern", "abc", "abc"},
		{"exactly five chars kept", "hello", "hello"},
		{"separator only key", "a:b", "a:b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generalize(tt.key))
		})
	}
}

func TestGeneralize_CustomOptions(t *testing.T) {
	g := NewGeneralizer(SeparatorOptions{
		Separators: []string{"|"},
		Wildcard:   "{id}",
	})

	assert.Equal(t, "tenant|{id}", g.Generalize("tenant|77|orders"))
	// ":" is not a configured separator, so the whole-key rules apply.
	assert.Equal(t, "tenan{id}", g.Generalize("tenant:orders"))

	opts := g.Options()
	assert.Equal(t, 6, opts.MinHexLen)
	assert.Equal(t, 10, opts.MinAlnumLen)
}

func TestGeneralize_TunedThresholds(t *testing.T) {
	strict := NewGeneralizer(SeparatorOptions{MinDigitSuffixLen: 7, MinHexLen: 12})

	// "abc123" is no longer an identifier, so only the fallback prefix applies.
	assert.Equal(t, "it:a*", strict.Generalize("it:abc123"))
	assert.Equal(t, "it:*", Generalize("it:abc123"))
}

func TestCluster_SingleIDPattern(t *testing.T) {
	keys := []string{"user:1:name", "user:2:name", "user:3:name"}

	buckets := Cluster(keys)
	require.Len(t, buckets, 1)
	assert.Equal(t, "user:*", buckets[0].Pattern)
	assert.Equal(t, keys, buckets[0].Keys)
}

func TestCluster_FirstSeenOrder(t *testing.T) {
	keys := []string{
		"order:10",
		"user:1",
		"order:11",
		"session991",
		"user:2",
		"order:12",
	}

	buckets := Cluster(keys)
	require.Len(t, buckets, 3)

	assert.Equal(t, "order:*", buckets[0].Pattern)
	assert.Equal(t, []string{"order:10", "order:11", "order:12"}, buckets[0].Keys)
	assert.Equal(t, "user:*", buckets[1].Pattern)
	assert.Equal(t, []string{"user:1", "user:2"}, buckets[1].Keys)
	assert.Equal(t, "session*", buckets[2].Pattern)
}

func TestCluster_Empty(t *testing.T) {
	assert.Empty(t, Cluster(nil))
}

func TestCluster_Deterministic(t *testing.T) {
	keys := []string{"a:1", "b:2", "c_3", "dddddd", "a:9"}
	assert.Equal(t, Cluster(keys), Cluster(keys))
}
