package compiler

import (
	"github.com/edsrzf/mmap-go"

	"github.com/osmflat/osmflatgo/internal/blockindex"
	"github.com/osmflat/osmflatgo/internal/errs"
	"github.com/osmflat/osmflatgo/internal/strpool"
	"github.com/osmflat/osmflatgo/osmflat"
	"github.com/osmflat/osmflatgo/proto/osmpbf"
)

// decodeHeader implements SUPPLEMENTED FEATURES #3: copy the source
// OSMHeader blob's bounding box, writing program, source and replication
// fields into the archive header row. Left/Right/Top/Bottom are kept in the
// source's native 1e-9-degree units — the header's bbox is informational and
// not touched by rescaling, unlike node/way coordinates.
func decodeHeader(data mmap.MMap, idx *blockindex.Index, strings *strpool.Pool) (osmflat.Header, error) {
	blocks := idx.ForType(blockindex.TypeHeader)
	if len(blocks) != 1 {
		return osmflat.Header{}, errs.New(errs.Unsupported, "archive must contain exactly one OSMHeader block")
	}
	d := blocks[0]

	blob, err := osmpbf.UnmarshalBlob(data[d.BlobStart : d.BlobStart+d.BlobLen])
	if err != nil {
		return osmflat.Header{}, errs.At(errs.InvalidInput, d.BlobStart, "malformed Blob: "+err.Error())
	}
	payload, err := blockindex.Inflate(blob, d.BlobStart)
	if err != nil {
		return osmflat.Header{}, err
	}
	hb, err := osmpbf.UnmarshalHeaderBlock(payload)
	if err != nil {
		return osmflat.Header{}, errs.At(errs.InvalidInput, d.BlobStart, "malformed HeaderBlock: "+err.Error())
	}

	h := osmflat.Header{
		WritingProgramOffset: strings.Insert([]byte(hb.WritingProgram)),
		SourceOffset:         strings.Insert([]byte(hb.Source)),
	}
	if hb.BBox != nil {
		h.Left, h.Right, h.Top, h.Bottom = hb.BBox.Left, hb.BBox.Right, hb.BBox.Top, hb.BBox.Bottom
	}
	hasReplication := hb.ReplicationTimestamp != 0 || hb.ReplicationSequenceNumber != 0 || hb.ReplicationBaseURL != ""
	if hasReplication {
		h.HasReplication = 1
		h.ReplicationTimestamp = hb.ReplicationTimestamp
		h.ReplicationSequenceNumber = hb.ReplicationSequenceNumber
		h.ReplicationBaseURLOffset = strings.Insert([]byte(hb.ReplicationBaseURL))
	}
	return h, nil
}
