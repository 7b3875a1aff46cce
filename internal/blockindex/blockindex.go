// Package blockindex implements spec.md §4.D: a single pass over the
// memory-mapped source file that locates every compressed block and
// classifies its payload type without fully decoding it.
package blockindex

import (
	"encoding/binary"
	"sort"

	"github.com/edsrzf/mmap-go"
	"github.com/google/btree"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/osmflat/osmflatgo/internal/errs"
	"github.com/osmflat/osmflatgo/proto/osmpbf"
)

// BlockType classifies a blob's payload.
type BlockType int

const (
	TypeHeader BlockType = iota
	TypeDenseNodes
	TypeWays
	TypeRelations
)

func (t BlockType) String() string {
	switch t {
	case TypeHeader:
		return "Header"
	case TypeDenseNodes:
		return "DenseNodes"
	case TypeWays:
		return "Ways"
	case TypeRelations:
		return "Relations"
	default:
		return "Unknown"
	}
}

// Descriptor locates one blob inside the source file and names its payload
// type. BlobStart/BlobLen bound the raw Blob bytes (after the BlobHeader),
// so a later phase can re-slice and decompress it independently.
type Descriptor struct {
	Type      BlockType
	BlobStart int64
	BlobLen   int64
}

// Index is the sorted, by-type-queryable set of Descriptors for one source
// file.
type Index struct {
	Descriptors []Descriptor
	byType      *btree.BTreeG[Descriptor]
}

func less(a, b Descriptor) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.BlobStart < b.BlobStart
}

// ForType returns every Descriptor of the given type, in ascending
// BlobStart order — the contiguous-per-type iteration spec.md §4.D
// mandates.
func (idx *Index) ForType(t BlockType) []Descriptor {
	var out []Descriptor
	idx.byType.AscendRange(
		Descriptor{Type: t, BlobStart: -1},
		Descriptor{Type: t + 1, BlobStart: -1},
		func(d Descriptor) bool {
			out = append(out, d)
			return true
		},
	)
	return out
}

// frame is one raw (header_len, BlobHeader bytes, Blob bytes) triple read
// single-threaded from the mapped source, before classification.
type frame struct {
	header    *osmpbf.BlobHeader
	blobStart int64
	blobLen   int64
}

// Build streams frame headers from data (a memory-mapped .osm.pbf file)
// in order, then classifies every frame concurrently, one goroutine per
// frame, per spec.md §4.D's "safely parallel" split.
func Build(data mmap.MMap, logger *zap.Logger) (*Index, error) {
	frames, err := readFrames(data)
	if err != nil {
		return nil, err
	}

	descs := make([]Descriptor, len(frames))
	g := new(errgroup.Group)
	for i, fr := range frames {
		i, fr := i, fr
		g.Go(func() error {
			d, err := classify(data, fr)
			if err != nil {
				return err
			}
			descs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(descs, less2(descs))
	tree := btree.NewG(32, less)
	for _, d := range descs {
		tree.ReplaceOrInsert(d)
	}
	logger.Debug("block index built", zap.Int("blocks", len(descs)))
	return &Index{Descriptors: descs, byType: tree}, nil
}

func less2(descs []Descriptor) func(i, j int) bool {
	return func(i, j int) bool { return less(descs[i], descs[j]) }
}

// readFrames walks the container single-threaded: a 4-byte big-endian
// BlobHeader length, the BlobHeader itself, then the raw Blob bytes,
// repeated until EOF. This must stay single-threaded because frame N+1's
// start offset depends on decoding frame N's header (spec.md §4.E
// rationale: "stream the frame headers single-threaded (they must be read
// in order)").
func readFrames(data mmap.MMap) ([]frame, error) {
	var frames []frame
	off := int64(0)
	n := int64(len(data))
	for off < n {
		if off+4 > n {
			return nil, errs.At(errs.InvalidInput, off, "truncated blob header length")
		}
		headerLen := int64(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
		if off+headerLen > n {
			return nil, errs.At(errs.InvalidInput, off, "truncated blob header")
		}
		header, err := osmpbf.UnmarshalBlobHeader(data[off : off+headerLen])
		if err != nil {
			return nil, errs.At(errs.InvalidInput, off, "malformed BlobHeader: "+err.Error())
		}
		off += headerLen
		if header.Type != "OSMHeader" && header.Type != "OSMData" {
			return nil, errs.At(errs.InvalidInput, off, "unknown blob type "+header.Type)
		}
		blobLen := int64(header.DataSize)
		if off+blobLen > n {
			return nil, errs.At(errs.InvalidInput, off, "truncated blob payload")
		}
		frames = append(frames, frame{header: header, blobStart: off, blobLen: blobLen})
		off += blobLen
	}
	return frames, nil
}
