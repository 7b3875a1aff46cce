// Package idtable implements spec.md §4.B: a map from sparse 64-bit OSM ids
// to dense, consecutive 0-based row indexes, built in one insertion pass and
// queried with O(log n) binary search thereafter.
package idtable

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// bucketShift selects the high bits of an id used to choose its bucket;
// spec.md §4.B: "bucket by the high 40 bits of the ID (x >> 24)".
const bucketShift = 24

// low24Mask extracts the bucket-local 24 bits of an id.
const low24Mask = 1<<bucketShift - 1

// denseIndexBits is the width reserved for the dense index in each packed
// bucket entry; spec.md §4.B packs `(low24<<40) | dense_index`.
const denseIndexBits = 40
const denseIndexMask = 1<<denseIndexBits - 1

// Table is a write-once-then-read-many id remap. Insert must be called in
// the exact order rows are appended to the owning entity column; Build
// freezes it for concurrent Get calls from worker threads in later phases.
type Table struct {
	buckets map[uint32][]uint64 // bucket -> sorted packed (low24<<40 | dense)
	next    uint64
	built   bool
	present *roaring.Bitmap // which buckets exist at all, for a cheap miss short-circuit
}

// New returns an empty, writable Table.
func New() *Table {
	return &Table{buckets: make(map[uint32][]uint64), present: roaring.New()}
}

// Insert records that OSM id x is the next dense row and returns that
// index. Must not be called after Build.
func (t *Table) Insert(x int64) uint64 {
	if t.built {
		panic("idtable: Insert called after Build")
	}
	u := uint64(x)
	bucket := uint32(u >> bucketShift)
	low24 := u & low24Mask
	dense := t.next
	t.next++
	packed := (low24 << denseIndexBits) | (dense & denseIndexMask)
	t.buckets[bucket] = append(t.buckets[bucket], packed)
	t.present.Add(bucket)
	return dense
}

// Build sorts every bucket's entries by low24 so Get can binary search.
// Packed entries already compare correctly as plain uint64s because low24
// occupies the high bits.
func (t *Table) Build() {
	for _, entries := range t.buckets {
		sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })
	}
	t.built = true
}

// Len reports how many ids were inserted.
func (t *Table) Len() uint64 { return t.next }

// Get returns the dense index assigned to x and true, or (0, false) if x was
// never inserted. Never errors: spec.md §4.B "get on an unknown ID never
// errors"; the caller is responsible for counting the miss as an
// unresolved-reference statistic.
func (t *Table) Get(x int64) (uint64, bool) {
	u := uint64(x)
	bucket := uint32(u >> bucketShift)
	if !t.present.Contains(bucket) {
		return 0, false
	}
	entries := t.buckets[bucket]
	low24 := u & low24Mask
	searchKey := low24 << denseIndexBits
	i := sort.Search(len(entries), func(i int) bool { return entries[i] >= searchKey })
	for ; i < len(entries) && entries[i]>>denseIndexBits == low24; i++ {
		return entries[i] & denseIndexMask, true
	}
	return 0, false
}
