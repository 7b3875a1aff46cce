// Package strpool implements spec.md §4.A: an append-only, deduplicating
// store of NUL-terminated byte strings that hands back stable 64-bit byte
// offsets.
package strpool

import (
	"github.com/cespare/xxhash/v2"
)

// chunkSize is the size of each backing buffer. Buffers are never
// relocated once allocated, so a slice previously handed to a caller (via
// Finalize, or internally for hashing) stays valid for the life of the
// Pool. spec.md §5 calls this "rotate the string-pool backing buffers (new
// 4 MiB chunk per overflow)".
const chunkSize = 4 << 20

// key is the map key: a cheap (chunk, offset, length) pointer into the
// pool's own backing buffers, compared and hashed by the bytes it
// references rather than by copying them into the map. This keeps map
// entries to three ints instead of an owned byte slice per distinct string,
// matching spec.md §4.A's "contiguous-backing-buffer discipline keeps the
// map value compact" rationale.
type key struct {
	chunk, start, length int
}

// Pool deduplicates inserted byte strings by value and returns the byte
// offset (in the logical, chunk-concatenated address space) at which the
// string starts.
type Pool struct {
	chunks  [][]byte // each len(chunks[i]) <= chunkSize, capacity == chunkSize
	offsets []int    // offsets[i] = logical offset at which chunks[i] begins
	total   int       // logical size so far (sum of chunk lengths)
	index   map[uint64][]entry
}

type entry struct {
	k      key
	offset uint64
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{index: make(map[uint64][]entry)}
}

// Insert interns bytes, returning the offset at which it (and its
// terminating NUL) can be found after Finalize. Insert(x) called twice
// returns the same offset both times; distinct strings return distinct
// offsets. bytes must not contain an embedded NUL.
func (p *Pool) Insert(b []byte) uint64 {
	h := xxhash.Sum64(b)
	for _, e := range p.index[h] {
		if p.bytesAt(e.k) == nil {
			continue
		}
		if bytesEqual(p.bytesAt(e.k), b) {
			return e.offset
		}
	}
	k, offset := p.appendWithTerminator(b)
	p.index[h] = append(p.index[h], entry{k: k, offset: offset})
	return offset
}

// appendWithTerminator copies b plus a trailing 0x00 into the current
// (possibly new) chunk and returns the key spanning just b (without the
// terminator) and its logical offset.
func (p *Pool) appendWithTerminator(b []byte) (key, uint64) {
	need := len(b) + 1
	if need > chunkSize {
		// Pathologically long string: give it its own oversized chunk.
		chunk := make([]byte, 0, need)
		chunk = append(chunk, b...)
		chunk = append(chunk, 0)
		idx := len(p.chunks)
		p.chunks = append(p.chunks, chunk)
		p.offsets = append(p.offsets, p.total)
		off := p.total
		p.total += need
		return key{chunk: idx, start: 0, length: len(b)}, uint64(off)
	}
	if len(p.chunks) == 0 || len(p.chunks[len(p.chunks)-1])+need > cap(p.chunks[len(p.chunks)-1]) {
		p.chunks = append(p.chunks, make([]byte, 0, chunkSize))
		p.offsets = append(p.offsets, p.total)
	}
	idx := len(p.chunks) - 1
	chunk := &p.chunks[idx]
	start := len(*chunk)
	*chunk = append(*chunk, b...)
	*chunk = append(*chunk, 0)
	off := p.offsets[idx] + start
	p.total += need
	return key{chunk: idx, start: start, length: len(b)}, uint64(off)
}

func (p *Pool) bytesAt(k key) []byte {
	if k.chunk < 0 || k.chunk >= len(p.chunks) {
		return nil
	}
	c := p.chunks[k.chunk]
	if k.start+k.length > len(c) {
		return nil
	}
	return c[k.start : k.start+k.length]
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Len reports the logical size the finalized blob will have.
func (p *Pool) Len() uint64 { return uint64(p.total) }

// Finalize concatenates every chunk into one contiguous blob where
// blob[offset:] begins with the interned bytes followed by a NUL.
func (p *Pool) Finalize() []byte {
	out := make([]byte, 0, p.total)
	for _, c := range p.chunks {
		out = append(out, c...)
	}
	return out
}
