// Package serialize implements spec.md §4.F: the three entity subroutines
// (nodes, ways, relations) that turn decoded PrimitiveBlocks into archive
// rows. Each phase is driven by internal/pipeline: the expensive decode (and,
// for ways/relations, reference resolution against a frozen ID table)
// happens on worker goroutines inside produce; appends to the shared string
// pool, tag pool and column writers happen strictly in block order inside
// consume, since those are coordinator-owned state (spec.md §5).
package serialize

import (
	"github.com/edsrzf/mmap-go"

	"github.com/osmflat/osmflatgo/internal/blockindex"
	"github.com/osmflat/osmflatgo/internal/errs"
	"github.com/osmflat/osmflatgo/internal/strpool"
	"github.com/osmflat/osmflatgo/proto/osmpbf"
)

// DecodeBlock inflates and unmarshals the PrimitiveBlock at d. Shared by all
// three phases' produce step.
func DecodeBlock(data mmap.MMap, d blockindex.Descriptor) (*osmpbf.PrimitiveBlock, error) {
	blob, err := osmpbf.UnmarshalBlob(data[d.BlobStart : d.BlobStart+d.BlobLen])
	if err != nil {
		return nil, errs.At(errs.InvalidInput, d.BlobStart, "malformed Blob: "+err.Error())
	}
	payload, err := blockindex.Inflate(blob, d.BlobStart)
	if err != nil {
		return nil, err
	}
	pb, err := osmpbf.UnmarshalPrimitiveBlock(payload)
	if err != nil {
		return nil, errs.At(errs.InvalidInput, d.BlobStart, "malformed PrimitiveBlock: "+err.Error())
	}
	return pb, nil
}

// internString interns block-local string table entry idx into the shared
// string pool and returns its stable offset. Callers pass raw token values
// straight from keys_vals / keys / vals arrays.
func internString(pool *strpool.Pool, st [][]byte, idx uint32) uint64 {
	if int(idx) >= len(st) {
		return pool.Insert(nil)
	}
	return pool.Insert(st[idx])
}
