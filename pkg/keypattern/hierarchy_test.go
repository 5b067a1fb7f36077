package keypattern

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterHierarchy_TopLevelAlwaysKept(t *testing.T) {
	prefixes := ClusterHierarchy([]string{"/a/1", "/a/2", "/b/1"}, HierarchyOptions{})

	require.Len(t, prefixes, 2)
	assert.Equal(t, Prefix{Prefix: "/a/", Depth: 1, Count: 2, SampleKeys: []string{"/a/1", "/a/2"}}, prefixes[0])
	assert.Equal(t, Prefix{Prefix: "/b/", Depth: 1, Count: 1, SampleKeys: []string{"/b/1"}}, prefixes[1])
}

func TestClusterHierarchy_Ordering(t *testing.T) {
	keys := []string{
		"/logs/2024/01/a.json",
		"/logs/2024/01/b.json",
		"/logs/2024/02/c.json",
		"/img/x.png",
		"/img/y.png",
		"/img/z.png",
		"/logs/2023/12/d.json",
		"/logs/2023/12/e.json",
	}

	prefixes := ClusterHierarchy(keys, HierarchyOptions{})

	var got []string
	for _, p := range prefixes {
		got = append(got, fmt.Sprintf("%s=%d@%d", p.Prefix, p.Count, p.Depth))
	}

	assert.Equal(t, []string{
		"/logs/=5@1",
		"/img/=3@1",
		"/logs/2024/=3@2",
		"/logs/2023/=2@2",
		"/logs/2023/12/=2@3",
		"/logs/2024/01/=2@3",
	}, got)
}

func TestClusterHierarchy_CountsDistinctKeys(t *testing.T) {
	keys := []string{"/a/x", "/a/x", "/a/y", "/a/x"}

	prefixes := ClusterHierarchy(keys, HierarchyOptions{})
	require.Len(t, prefixes, 1)
	assert.Equal(t, 2, prefixes[0].Count)
	assert.Equal(t, []string{"/a/x", "/a/y"}, prefixes[0].SampleKeys)
}

func TestClusterHierarchy_EmptySegmentsIgnored(t *testing.T) {
	prefixes := ClusterHierarchy([]string{"a//b/", "/a/b", "///"}, HierarchyOptions{})

	require.Len(t, prefixes, 2)
	assert.Equal(t, "/a/", prefixes[0].Prefix)
	assert.Equal(t, 2, prefixes[0].Count)
	assert.Equal(t, "/a/b/", prefixes[1].Prefix)
	assert.Equal(t, 2, prefixes[1].Count)
}

func TestClusterHierarchy_Caps(t *testing.T) {
	var keys []string
	for i := range 20 {
		for j := range 3 {
			keys = append(keys, fmt.Sprintf("/ns%02d/item%d", i, j))
		}
	}

	prefixes := ClusterHierarchy(keys, HierarchyOptions{MaxPrefixes: 4, SampleKeys: 2})
	require.Len(t, prefixes, 4)
	for _, p := range prefixes {
		assert.Equal(t, 1, p.Depth)
		assert.Equal(t, 3, p.Count)
		assert.Len(t, p.SampleKeys, 2)
	}
	// Equal counts fall back to prefix order.
	assert.Equal(t, "/ns00/", prefixes[0].Prefix)
	assert.Equal(t, "/ns03/", prefixes[3].Prefix)
}

func TestClusterHierarchy_Empty(t *testing.T) {
	assert.Empty(t, ClusterHierarchy(nil, HierarchyOptions{}))
}

func TestPrefixesOf(t *testing.T) {
	assert.Equal(t, []string{"/a/", "/a/b/", "/a/b/c/"}, prefixesOf("/a/b/c"))
	assert.Equal(t, []string{"/a/"}, prefixesOf("a"))
	assert.Nil(t, prefixesOf("/"))
}
