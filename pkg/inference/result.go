package inference

import (
	"time"

	"github.com/usestring/storeschema-mcp/pkg/fieldinfer"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
)

// Variant names the clustering strategy used for a key pass.
type Variant string

const (
	VariantFlat         Variant = "flat"
	VariantHierarchical Variant = "hierarchical"
)

// KeyPattern is one cluster of keys sharing a structural shape.
type KeyPattern struct {
	Pattern    string   `json:"pattern"`
	Count      int      `json:"count"`
	SampleKeys []string `json:"sample_keys"`
	// TypeHistogram maps a value type to the number of member keys holding it.
	// Only the flat variant fills it; keys whose lookup failed are absent.
	TypeHistogram map[string]int `json:"type_histogram,omitempty"`
	// Depth is the namespace depth (hierarchical variant only).
	Depth int `json:"depth,omitempty"`
}

// KeyResult is the outcome of one key inference pass.
type KeyResult struct {
	PassID            string             `json:"pass_id"`
	Store             string             `json:"store,omitempty"`
	Variant           Variant            `json:"variant"`
	KeyPatterns       []KeyPattern       `json:"key_patterns"`
	TotalItemsScanned int                `json:"total_items_scanned"`
	DistinctKeys      int                `json:"distinct_keys"`
	StopReason        sampler.StopReason `json:"stop_reason"`
	LookupFailures    int                `json:"lookup_failures"`
	Warnings          []string           `json:"warnings,omitempty"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// DocumentResult is the outcome of one document inference pass.
type DocumentResult struct {
	PassID           string                 `json:"pass_id"`
	Store            string                 `json:"store,omitempty"`
	Collection       string                 `json:"collection"`
	Fields           []fieldinfer.FieldInfo `json:"fields"`
	SampleSize       int                    `json:"sample_size"`
	TotalCount       int64                  `json:"total_count"`
	SkippedDocuments int                    `json:"skipped_documents"`
	TruncatedPaths   int                    `json:"truncated_paths"`
	StopReason       sampler.StopReason     `json:"stop_reason"`
	Warnings         []string               `json:"warnings,omitempty"`
	GeneratedAt      time.Time              `json:"generated_at"`
}
