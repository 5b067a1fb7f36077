package inference

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/storeschema-mcp/pkg/keypattern"
)

// typeIndex holds one posting bitmap of key ordinals per value type, so a
// pattern's histogram is an intersection count per type.
type typeIndex struct {
	ordinals map[string]uint32
	byType   map[string]*roaring.Bitmap
}

func newTypeIndex(buckets []keypattern.Bucket, types map[string]string) *typeIndex {
	ix := &typeIndex{
		ordinals: make(map[string]uint32, len(types)),
		byType:   make(map[string]*roaring.Bitmap),
	}
	var next uint32
	for _, b := range buckets {
		for _, key := range b.Keys {
			t, ok := types[key]
			if !ok {
				continue
			}
			if _, seen := ix.ordinals[key]; seen {
				continue
			}
			ix.ordinals[key] = next
			bm, ok := ix.byType[t]
			if !ok {
				bm = roaring.New()
				ix.byType[t] = bm
			}
			bm.Add(next)
			next++
		}
	}
	return ix
}

// histogram counts keys per type. Keys without a type are left out; the
// result is nil when none of the keys has one.
func (ix *typeIndex) histogram(keys []string) map[string]int {
	members := roaring.New()
	for _, key := range keys {
		if o, ok := ix.ordinals[key]; ok {
			members.Add(o)
		}
	}
	if members.IsEmpty() {
		return nil
	}

	hist := make(map[string]int, len(ix.byType))
	for t, bm := range ix.byType {
		if n := members.AndCardinality(bm); n > 0 {
			hist[t] = int(n)
		}
	}
	return hist
}
