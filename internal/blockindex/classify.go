package blockindex

import (
	"bytes"
	"io"

	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/zlib"

	"github.com/osmflat/osmflatgo/internal/errs"
	"github.com/osmflat/osmflatgo/proto/osmpbf"
)

// classify decompresses fr's Blob (if needed) and determines its BlockType
// without fully decoding the PrimitiveBlock, per spec.md §4.D: "seek only
// the first primitivegroup field and read the tag number of its first
// sub-field".
func classify(data mmap.MMap, fr frame) (Descriptor, error) {
	blobBytes := data[fr.blobStart : fr.blobStart+fr.blobLen]
	blob, err := osmpbf.UnmarshalBlob(blobBytes)
	if err != nil {
		return Descriptor{}, errs.At(errs.InvalidInput, fr.blobStart, "malformed Blob: "+err.Error())
	}

	if fr.header.Type == "OSMHeader" {
		return Descriptor{Type: TypeHeader, BlobStart: fr.blobStart, BlobLen: fr.blobLen}, nil
	}

	payload, err := Inflate(blob, fr.blobStart)
	if err != nil {
		return Descriptor{}, err
	}

	field, err := osmpbf.PeekFirstGroupField(payload)
	if err != nil {
		return Descriptor{}, errs.At(errs.InvalidInput, fr.blobStart, "malformed PrimitiveBlock: "+err.Error())
	}

	switch field {
	case osmpbf.GroupDenseNodes:
		return Descriptor{Type: TypeDenseNodes, BlobStart: fr.blobStart, BlobLen: fr.blobLen}, nil
	case osmpbf.GroupWays:
		return Descriptor{Type: TypeWays, BlobStart: fr.blobStart, BlobLen: fr.blobLen}, nil
	case osmpbf.GroupRelations:
		return Descriptor{Type: TypeRelations, BlobStart: fr.blobStart, BlobLen: fr.blobLen}, nil
	case osmpbf.GroupNodes:
		return Descriptor{}, errs.At(errs.InvalidInput, fr.blobStart, "bare (non-dense) Nodes blocks are unsupported")
	case osmpbf.GroupChangesets:
		return Descriptor{}, errs.At(errs.Unsupported, fr.blobStart, "changeset blocks are not supported")
	default:
		return Descriptor{}, errs.At(errs.InvalidInput, fr.blobStart, "primitive group has no recognized payload")
	}
}

// Inflate returns the decompressed PrimitiveBlock bytes for blob, using
// klauspost/compress's zlib reader (spec.md §6: "Blob carries exactly one of
// raw ... or zlib_data"; other compressions are rejected).
func Inflate(blob *osmpbf.Blob, offset int64) ([]byte, error) {
	switch {
	case blob.HasRaw:
		return blob.Raw, nil
	case blob.HasZlibData:
		r, err := zlib.NewReader(bytes.NewReader(blob.ZlibData))
		if err != nil {
			return nil, errs.At(errs.InvalidInput, offset, "zlib init: "+err.Error())
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, errs.At(errs.InvalidInput, offset, "zlib inflate: "+err.Error())
		}
		if blob.RawSize != 0 && int(blob.RawSize) != len(out) {
			return nil, errs.At(errs.InvalidInput, offset, "raw_size mismatch after inflate")
		}
		return out, nil
	case blob.OtherCompress:
		return nil, errs.At(errs.InvalidInput, offset, "unknown compression")
	default:
		return nil, errs.At(errs.InvalidInput, offset, "blob carries no payload")
	}
}
