// Package tagpool implements spec.md §4.C: deduplication of tag instances
// across the whole archive, plus the flat per-entity TagIndex vector that
// Tag ranges are sliced from.
package tagpool

import "github.com/cespare/xxhash/v2"

// offsetBits is the width each offset is masked to before packing. The
// value offset keeps all 40 bits; the key offset is shifted up by 40 inside
// a uint64, so only its low 24 bits survive in the packed key.
const offsetBits = 40
const offsetMask = 1<<offsetBits - 1

// Tag is one deduplicated (key, value) pair, referencing string-pool
// offsets.
type Tag struct {
	KeyOffset, ValOffset uint64
}

// packedKey is a single uint64 combining both offsets (lossy for the key
// offset, see offsetBits); its xxhash is the dedup map key. Distinct pairs
// can share a packedKey, so Serialize compares the full offsets of every
// candidate before reusing a Tag row.
type packedKey uint64

func pack(keyOff, valOff uint64) packedKey {
	return packedKey(((keyOff & offsetMask) << offsetBits) | (valOff & offsetMask))
}

// Pool deduplicates (key_off, val_off) pairs into a Tag column and records
// every occurrence (including duplicates) in a TagIndex column.
type Pool struct {
	tags     []Tag
	tagIndex []uint64 // one row per (entity, tag) instance; value is a Tag row position
	dedup    map[uint64][]uint32 // xxhash(packedKey) -> candidate Tag row positions
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{dedup: make(map[uint64][]uint32)}
}

// NextIndex returns the current TagIndex length. The caller must record this
// into the owning entity's tag_first_idx field before calling Serialize for
// that entity's tags (spec.md §4.C).
func (p *Pool) NextIndex() uint64 { return uint64(len(p.tagIndex)) }

// Serialize looks up (keyOff, valOff) in the dedup map, appending a new Tag
// row if it is new, then appends that row's position to the TagIndex.
func (p *Pool) Serialize(keyOff, valOff uint64) {
	pk := pack(keyOff, valOff)
	h := xxhashUint64(uint64(pk))
	for _, pos := range p.dedup[h] {
		t := p.tags[pos]
		if t.KeyOffset == keyOff && t.ValOffset == valOff {
			p.tagIndex = append(p.tagIndex, uint64(pos))
			return
		}
	}
	pos := uint32(len(p.tags))
	p.tags = append(p.tags, Tag{KeyOffset: keyOff, ValOffset: valOff})
	p.dedup[h] = append(p.dedup[h], pos)
	p.tagIndex = append(p.tagIndex, uint64(pos))
}

func xxhashUint64(v uint64) uint64 {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return xxhash.Sum64(b[:])
}

// Tags returns the deduplicated Tag column built so far. The slice is only
// stable until the next Serialize call.
func (p *Pool) Tags() []Tag { return p.tags }

// TagIndex returns the flat per-entity index vector built so far. Like
// Tags, only stable until the next Serialize call.
func (p *Pool) TagIndex() []uint64 { return p.tagIndex }
