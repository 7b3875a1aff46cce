package osmpbf

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// field numbers, named per osmformat.proto / fileformat.proto.
const (
	fieldBlobHeaderType     = 1
	fieldBlobHeaderDataSize = 3

	fieldBlobRaw      = 1
	fieldBlobRawSize  = 2
	fieldBlobZlib     = 3
	fieldBlobLzma     = 4
	fieldBlobBzip2Old = 5
	fieldBlobLz4      = 6
	fieldBlobZstd     = 7

	fieldHeaderBBox             = 1
	fieldHeaderRequiredFeatures = 4
	fieldHeaderOptionalFeatures = 5
	fieldHeaderWritingProgram   = 16
	fieldHeaderSource           = 17
	fieldHeaderReplicationTS    = 32
	fieldHeaderReplicationSeq   = 33
	fieldHeaderReplicationURL   = 34

	fieldBBoxLeft   = 1
	fieldBBoxRight  = 2
	fieldBBoxTop    = 3
	fieldBBoxBottom = 4

	fieldStringTableS = 1

	fieldPBStringTable     = 1
	fieldPBPrimitiveGroup  = 2
	fieldPBGranularity     = 17
	fieldPBDateGranularity = 18
	fieldPBLatOffset       = 19
	fieldPBLonOffset       = 20

	fieldGroupNodes      = 1
	fieldGroupDense      = 2
	fieldGroupWays       = 3
	fieldGroupRelations  = 4
	fieldGroupChangesets = 5

	fieldNodeID   = 1
	fieldNodeKeys = 2
	fieldNodeVals = 3
	fieldNodeLat  = 8
	fieldNodeLon  = 9

	fieldDenseID       = 1
	fieldDenseLat      = 8
	fieldDenseLon      = 9
	fieldDenseKeysVals = 10

	fieldWayID   = 1
	fieldWayKeys = 2
	fieldWayVals = 3
	fieldWayRefs = 8

	fieldRelID       = 1
	fieldRelKeys     = 2
	fieldRelVals     = 3
	fieldRelRolesSid = 8
	fieldRelMemIDs   = 9
	fieldRelTypes    = 10
)

// errTruncated is returned whenever a length-delimited or varint field runs
// past the end of the buffer.
func errTruncated(what string) error {
	return fmt.Errorf("osmpbf: truncated message while reading %s", what)
}

// UnmarshalBlobHeader decodes a fileformat.proto BlobHeader.
func UnmarshalBlobHeader(b []byte) (*BlobHeader, error) {
	h := &BlobHeader{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated("BlobHeader tag")
		}
		b = b[n:]
		switch {
		case num == fieldBlobHeaderType && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("BlobHeader.type")
			}
			h.Type = string(v)
			b = b[n:]
		case num == fieldBlobHeaderDataSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errTruncated("BlobHeader.datasize")
			}
			h.DataSize = int32(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("BlobHeader unknown field")
			}
			b = b[n:]
		}
	}
	return h, nil
}

// UnmarshalBlob decodes a fileformat.proto Blob.
func UnmarshalBlob(b []byte) (*Blob, error) {
	blob := &Blob{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated("Blob tag")
		}
		b = b[n:]
		switch {
		case num == fieldBlobRaw && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("Blob.raw")
			}
			blob.Raw = v
			blob.HasRaw = true
			b = b[n:]
		case num == fieldBlobRawSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errTruncated("Blob.raw_size")
			}
			blob.RawSize = int32(v)
			b = b[n:]
		case num == fieldBlobZlib && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("Blob.zlib_data")
			}
			blob.ZlibData = v
			blob.HasZlibData = true
			b = b[n:]
		case (num == fieldBlobLzma || num == fieldBlobBzip2Old || num == fieldBlobLz4 || num == fieldBlobZstd) && typ == protowire.BytesType:
			blob.OtherCompress = true
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("Blob compressed variant")
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("Blob unknown field")
			}
			b = b[n:]
		}
	}
	return blob, nil
}

// UnmarshalHeaderBlock decodes the payload of an "OSMHeader" blob.
func UnmarshalHeaderBlock(b []byte) (*HeaderBlock, error) {
	h := &HeaderBlock{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated("HeaderBlock tag")
		}
		b = b[n:]
		switch {
		case num == fieldHeaderBBox && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("HeaderBlock.bbox")
			}
			bbox, err := unmarshalBBox(v)
			if err != nil {
				return nil, err
			}
			h.BBox = bbox
			b = b[n:]
		case num == fieldHeaderRequiredFeatures && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("HeaderBlock.required_features")
			}
			h.RequiredFeatures = append(h.RequiredFeatures, string(v))
			b = b[n:]
		case num == fieldHeaderOptionalFeatures && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("HeaderBlock.optional_features")
			}
			h.OptionalFeatures = append(h.OptionalFeatures, string(v))
			b = b[n:]
		case num == fieldHeaderWritingProgram && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("HeaderBlock.writingprogram")
			}
			h.WritingProgram = string(v)
			b = b[n:]
		case num == fieldHeaderSource && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("HeaderBlock.source")
			}
			h.Source = string(v)
			b = b[n:]
		case num == fieldHeaderReplicationTS && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errTruncated("HeaderBlock.osmosis_replication_timestamp")
			}
			h.ReplicationTimestamp = int64(v)
			b = b[n:]
		case num == fieldHeaderReplicationSeq && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errTruncated("HeaderBlock.osmosis_replication_sequence_number")
			}
			h.ReplicationSequenceNumber = int64(v)
			b = b[n:]
		case num == fieldHeaderReplicationURL && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("HeaderBlock.osmosis_replication_base_url")
			}
			h.ReplicationBaseURL = string(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("HeaderBlock unknown field")
			}
			b = b[n:]
		}
	}
	return h, nil
}

func unmarshalBBox(b []byte) (*HeaderBBox, error) {
	bbox := &HeaderBBox{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated("HeaderBBox tag")
		}
		b = b[n:]
		if typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("HeaderBBox unknown field")
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, errTruncated("HeaderBBox varint")
		}
		zz := protowire.DecodeZigZag(v)
		switch num {
		case fieldBBoxLeft:
			bbox.Left = zz
		case fieldBBoxRight:
			bbox.Right = zz
		case fieldBBoxTop:
			bbox.Top = zz
		case fieldBBoxBottom:
			bbox.Bottom = zz
		}
		b = b[n:]
	}
	return bbox, nil
}

// UnmarshalPrimitiveBlock decodes the payload of an "OSMData" blob.
func UnmarshalPrimitiveBlock(b []byte) (*PrimitiveBlock, error) {
	pb := &PrimitiveBlock{Granularity: 100, DateGranularity: 1000}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated("PrimitiveBlock tag")
		}
		b = b[n:]
		switch {
		case num == fieldPBStringTable && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("PrimitiveBlock.stringtable")
			}
			st, err := unmarshalStringTable(v)
			if err != nil {
				return nil, err
			}
			pb.StringTable = *st
			b = b[n:]
		case num == fieldPBPrimitiveGroup && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("PrimitiveBlock.primitivegroup")
			}
			g, err := unmarshalPrimitiveGroup(v)
			if err != nil {
				return nil, err
			}
			pb.PrimitiveGroup = append(pb.PrimitiveGroup, *g)
			b = b[n:]
		case num == fieldPBGranularity && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errTruncated("PrimitiveBlock.granularity")
			}
			pb.Granularity = int32(v)
			b = b[n:]
		case num == fieldPBDateGranularity && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errTruncated("PrimitiveBlock.date_granularity")
			}
			pb.DateGranularity = int32(v)
			b = b[n:]
		case num == fieldPBLatOffset && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errTruncated("PrimitiveBlock.lat_offset")
			}
			pb.LatOffset = int64(v)
			b = b[n:]
		case num == fieldPBLonOffset && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errTruncated("PrimitiveBlock.lon_offset")
			}
			pb.LonOffset = int64(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("PrimitiveBlock unknown field")
			}
			b = b[n:]
		}
	}
	return pb, nil
}

func unmarshalStringTable(b []byte) (*StringTable, error) {
	st := &StringTable{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated("StringTable tag")
		}
		b = b[n:]
		if num == fieldStringTableS && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("StringTable.s")
			}
			// copy: v aliases the PrimitiveBlock-sized decompressed buffer
			// which the caller may reuse/free after this phase.
			cp := make([]byte, len(v))
			copy(cp, v)
			st.S = append(st.S, cp)
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, errTruncated("StringTable unknown field")
		}
		b = b[n:]
	}
	return st, nil
}

func unmarshalPrimitiveGroup(b []byte) (*PrimitiveGroup, error) {
	g := &PrimitiveGroup{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated("PrimitiveGroup tag")
		}
		b = b[n:]
		switch {
		case num == fieldGroupNodes && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("PrimitiveGroup.nodes")
			}
			nd, err := unmarshalNode(v)
			if err != nil {
				return nil, err
			}
			g.Nodes = append(g.Nodes, *nd)
			b = b[n:]
		case num == fieldGroupDense && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("PrimitiveGroup.dense")
			}
			dn, err := unmarshalDenseNodes(v)
			if err != nil {
				return nil, err
			}
			g.Dense = dn
			b = b[n:]
		case num == fieldGroupWays && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("PrimitiveGroup.ways")
			}
			w, err := unmarshalWay(v)
			if err != nil {
				return nil, err
			}
			g.Ways = append(g.Ways, *w)
			b = b[n:]
		case num == fieldGroupRelations && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errTruncated("PrimitiveGroup.relations")
			}
			r, err := unmarshalRelation(v)
			if err != nil {
				return nil, err
			}
			g.Relations = append(g.Relations, *r)
			b = b[n:]
		case num == fieldGroupChangesets:
			g.Changesets = true
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("PrimitiveGroup.changesets")
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("PrimitiveGroup unknown field")
			}
			b = b[n:]
		}
	}
	return g, nil
}

func unmarshalNode(b []byte) (*Node, error) {
	n := &Node{}
	for len(b) > 0 {
		num, typ, ln := protowire.ConsumeTag(b)
		if ln < 0 {
			return nil, errTruncated("Node tag")
		}
		b = b[ln:]
		switch {
		case num == fieldNodeID && typ == protowire.VarintType:
			v, ln := protowire.ConsumeVarint(b)
			if ln < 0 {
				return nil, errTruncated("Node.id")
			}
			n.ID = protowire.DecodeZigZag(v)
			b = b[ln:]
		case num == fieldNodeKeys && typ == protowire.BytesType:
			vs, ln, err := consumePackedUint32(b)
			if err != nil {
				return nil, err
			}
			n.Keys = vs
			b = b[ln:]
		case num == fieldNodeVals && typ == protowire.BytesType:
			vs, ln, err := consumePackedUint32(b)
			if err != nil {
				return nil, err
			}
			n.Vals = vs
			b = b[ln:]
		case num == fieldNodeLat && typ == protowire.VarintType:
			v, ln := protowire.ConsumeVarint(b)
			if ln < 0 {
				return nil, errTruncated("Node.lat")
			}
			n.Lat = protowire.DecodeZigZag(v)
			b = b[ln:]
		case num == fieldNodeLon && typ == protowire.VarintType:
			v, ln := protowire.ConsumeVarint(b)
			if ln < 0 {
				return nil, errTruncated("Node.lon")
			}
			n.Lon = protowire.DecodeZigZag(v)
			b = b[ln:]
		default:
			ln := protowire.ConsumeFieldValue(num, typ, b)
			if ln < 0 {
				return nil, errTruncated("Node unknown field")
			}
			b = b[ln:]
		}
	}
	return n, nil
}

func unmarshalDenseNodes(b []byte) (*DenseNodes, error) {
	dn := &DenseNodes{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated("DenseNodes tag")
		}
		b = b[n:]
		switch {
		case num == fieldDenseID && typ == protowire.BytesType:
			vs, n, err := consumePackedSint64(b)
			if err != nil {
				return nil, err
			}
			dn.ID = vs
			b = b[n:]
		case num == fieldDenseLat && typ == protowire.BytesType:
			vs, n, err := consumePackedSint64(b)
			if err != nil {
				return nil, err
			}
			dn.Lat = vs
			b = b[n:]
		case num == fieldDenseLon && typ == protowire.BytesType:
			vs, n, err := consumePackedSint64(b)
			if err != nil {
				return nil, err
			}
			dn.Lon = vs
			b = b[n:]
		case num == fieldDenseKeysVals && typ == protowire.BytesType:
			vs, n, err := consumePackedInt32(b)
			if err != nil {
				return nil, err
			}
			dn.KeysVals = vs
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("DenseNodes unknown field")
			}
			b = b[n:]
		}
	}
	return dn, nil
}

func unmarshalWay(b []byte) (*Way, error) {
	w := &Way{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated("Way tag")
		}
		b = b[n:]
		switch {
		case num == fieldWayID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errTruncated("Way.id")
			}
			w.ID = int64(v)
			b = b[n:]
		case num == fieldWayKeys && typ == protowire.BytesType:
			vs, n, err := consumePackedUint32(b)
			if err != nil {
				return nil, err
			}
			w.Keys = vs
			b = b[n:]
		case num == fieldWayVals && typ == protowire.BytesType:
			vs, n, err := consumePackedUint32(b)
			if err != nil {
				return nil, err
			}
			w.Vals = vs
			b = b[n:]
		case num == fieldWayRefs && typ == protowire.BytesType:
			vs, n, err := consumePackedSint64(b)
			if err != nil {
				return nil, err
			}
			w.Refs = vs
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("Way unknown field")
			}
			b = b[n:]
		}
	}
	return w, nil
}

func unmarshalRelation(b []byte) (*Relation, error) {
	r := &Relation{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated("Relation tag")
		}
		b = b[n:]
		switch {
		case num == fieldRelID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errTruncated("Relation.id")
			}
			r.ID = int64(v)
			b = b[n:]
		case num == fieldRelKeys && typ == protowire.BytesType:
			vs, n, err := consumePackedUint32(b)
			if err != nil {
				return nil, err
			}
			r.Keys = vs
			b = b[n:]
		case num == fieldRelVals && typ == protowire.BytesType:
			vs, n, err := consumePackedUint32(b)
			if err != nil {
				return nil, err
			}
			r.Vals = vs
			b = b[n:]
		case num == fieldRelRolesSid && typ == protowire.BytesType:
			vs, n, err := consumePackedInt32(b)
			if err != nil {
				return nil, err
			}
			r.RolesSid = vs
			b = b[n:]
		case num == fieldRelMemIDs && typ == protowire.BytesType:
			vs, n, err := consumePackedSint64(b)
			if err != nil {
				return nil, err
			}
			r.MemIDs = vs
			b = b[n:]
		case num == fieldRelTypes && typ == protowire.BytesType:
			vs, n, err := consumePackedInt32(b)
			if err != nil {
				return nil, err
			}
			types := make([]MemberType, len(vs))
			for i, v := range vs {
				types[i] = MemberType(v)
			}
			r.Types = types
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errTruncated("Relation unknown field")
			}
			b = b[n:]
		}
	}
	return r, nil
}

// consumePackedSint64 reads a packed `repeated sint64` field (zigzag
// varints), returning the decoded values and the number of bytes consumed
// from the tag-stripped input (i.e. the length-delimited payload itself).
func consumePackedSint64(b []byte) ([]int64, int, error) {
	payload, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, errTruncated("packed sint64")
	}
	var out []int64
	for len(payload) > 0 {
		v, m := protowire.ConsumeVarint(payload)
		if m < 0 {
			return nil, 0, errTruncated("packed sint64 element")
		}
		out = append(out, protowire.DecodeZigZag(v))
		payload = payload[m:]
	}
	return out, n, nil
}

// consumePackedInt32 reads a packed `repeated int32` field (plain varints).
func consumePackedInt32(b []byte) ([]int32, int, error) {
	payload, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, errTruncated("packed int32")
	}
	var out []int32
	for len(payload) > 0 {
		v, m := protowire.ConsumeVarint(payload)
		if m < 0 {
			return nil, 0, errTruncated("packed int32 element")
		}
		out = append(out, int32(v))
		payload = payload[m:]
	}
	return out, n, nil
}

// consumePackedUint32 reads a packed `repeated uint32` field.
func consumePackedUint32(b []byte) ([]uint32, int, error) {
	payload, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, errTruncated("packed uint32")
	}
	var out []uint32
	for len(payload) > 0 {
		v, m := protowire.ConsumeVarint(payload)
		if m < 0 {
			return nil, 0, errTruncated("packed uint32 element")
		}
		out = append(out, uint32(v))
		payload = payload[m:]
	}
	return out, n, nil
}

// PeekGranularity reads only PrimitiveBlock's top-level scalar fields,
// skipping over (without decoding) the much larger primitivegroup payload,
// and returns the block's granularity (default 100 if the field is absent).
// Used by the coordinate-scale reconciliation pass (spec.md §4.G) so it
// doesn't pay for a full block decode just to read one integer.
func PeekGranularity(b []byte) (int32, error) {
	granularity := int32(100)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, errTruncated("PrimitiveBlock tag (granularity peek)")
		}
		b = b[n:]
		if num == fieldPBGranularity && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, errTruncated("PrimitiveBlock.granularity (peek)")
			}
			granularity = int32(v)
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return 0, errTruncated("PrimitiveBlock unknown field (granularity peek)")
		}
		b = b[n:]
	}
	return granularity, nil
}

// PeekFirstGroupField implements the spec.md §4.D classification shortcut:
// find the first primitivegroup field in an already-decompressed
// PrimitiveBlock buffer, then read only the tag number of that group's
// first sub-field, without decoding the rest of the message.
func PeekFirstGroupField(b []byte) (GroupFieldNode, error) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return GroupUnknown, errTruncated("PrimitiveBlock tag (peek)")
		}
		b = b[n:]
		if num != fieldPBPrimitiveGroup || typ != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return GroupUnknown, errTruncated("PrimitiveBlock unknown field (peek)")
			}
			b = b[n:]
			continue
		}
		group, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return GroupUnknown, errTruncated("PrimitiveBlock.primitivegroup (peek)")
		}
		if len(group) == 0 {
			return GroupUnknown, nil
		}
		gnum, _, gn := protowire.ConsumeTag(group)
		if gn < 0 {
			return GroupUnknown, errTruncated("PrimitiveGroup tag (peek)")
		}
		return GroupFieldNode(gnum), nil
	}
	return GroupUnknown, nil
}
