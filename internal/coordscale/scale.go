// Package coordscale implements spec.md §4.G's coordinate-scale
// reconciliation: the gcd of every dense-node block's granularity becomes the
// archive-wide rescale divisor. Kept as its own leaf package (rather than
// living in internal/compiler) so internal/serialize can share the Rescale
// formula during the nodes phase without an import cycle back through
// internal/compiler, which orchestrates internal/serialize.
package coordscale

import (
	"github.com/edsrzf/mmap-go"

	"github.com/osmflat/osmflatgo/internal/blockindex"
	"github.com/osmflat/osmflatgo/internal/errs"
	"github.com/osmflat/osmflatgo/proto/osmpbf"
)

// nativeScale is the source format's fixed-point scale (1e-9 degree units),
// per spec.md §6: HeaderBBox and block coordinates are in the source's
// native 1e-9 scale before any archive-wide rescaling.
const nativeScale = 1_000_000_000

// Reconcile traverses every dense-node block, reads its granularity without
// fully decoding the block's node arrays (inflate + top-level field scan
// only), and returns 1e9/gcd(granularities), per spec.md §4.G / §3
// invariant 6.
func Reconcile(data mmap.MMap, idx *blockindex.Index) (int64, error) {
	blocks := idx.ForType(blockindex.TypeDenseNodes)
	if len(blocks) == 0 {
		return nativeScale, errs.New(errs.InvalidInput, "archive has no dense node blocks")
	}

	g := int64(0)
	for _, d := range blocks {
		gran, err := peekGranularity(data, d)
		if err != nil {
			return 0, err
		}
		g = gcd(g, int64(gran))
	}
	if g == 0 {
		return 0, errs.New(errs.Internal, "coordinate granularity gcd collapsed to zero")
	}
	return nativeScale / g, nil
}

func peekGranularity(data mmap.MMap, d blockindex.Descriptor) (int32, error) {
	blob, err := osmpbf.UnmarshalBlob(data[d.BlobStart : d.BlobStart+d.BlobLen])
	if err != nil {
		return 0, errs.At(errs.InvalidInput, d.BlobStart, "malformed Blob: "+err.Error())
	}
	payload, err := blockindex.Inflate(blob, d.BlobStart)
	if err != nil {
		return 0, err
	}
	gran, err := osmpbf.PeekGranularity(payload)
	if err != nil {
		return 0, errs.At(errs.InvalidInput, d.BlobStart, "malformed PrimitiveBlock: "+err.Error())
	}
	return gran, nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Rescale converts a coordinate already expressed in the source's native
// 1e-9-degree units (i.e. lat_offset + granularity*sum(deltas), per spec.md
// §4.F.1.b) to the archive-wide scale: "divide by (1e9 / archive_scale)
// using integer arithmetic".
func Rescale(nativeValue, archiveScale int64) int32 {
	divisor := nativeScale / archiveScale
	return int32(nativeValue / divisor)
}
