package osmpbf

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// Tests in this file hand-encode the exact wire bytes decode.go consumes,
// using the same protowire append primitives the teacher pack's
// other_examples/fdf09e54_missinglink-gosmparse__decoder.go.go decodes with.
// There is no generated marshaler in this repo (decode.go only reads), so
// fixtures are built field-by-field here rather than round-tripped through a
// Marshal function.

func tagBytes(num int, payload []byte) []byte {
	b := protowire.AppendTag(nil, protowire.Number(num), protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

func tagVarint(num int, v uint64) []byte {
	b := protowire.AppendTag(nil, protowire.Number(num), protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func packedVarints(vals ...uint64) []byte {
	var out []byte
	for _, v := range vals {
		out = protowire.AppendVarint(out, v)
	}
	return out
}

func zigzags(vals ...int64) []uint64 {
	out := make([]uint64, len(vals))
	for i, v := range vals {
		out[i] = protowire.EncodeZigZag(v)
	}
	return out
}

func TestUnmarshalBlobHeader(t *testing.T) {
	var b []byte
	b = append(b, tagBytes(fieldBlobHeaderType, []byte("OSMData"))...)
	b = append(b, tagVarint(fieldBlobHeaderDataSize, 42)...)

	h, err := UnmarshalBlobHeader(b)
	require.NoError(t, err)
	require.Equal(t, "OSMData", h.Type)
	require.Equal(t, int32(42), h.DataSize)
}

func TestUnmarshalBlobHeaderUnknownFieldSkipped(t *testing.T) {
	var b []byte
	b = append(b, tagVarint(99, 7)...) // unrecognized field number, must be skipped
	b = append(b, tagBytes(fieldBlobHeaderType, []byte("OSMHeader"))...)

	h, err := UnmarshalBlobHeader(b)
	require.NoError(t, err)
	require.Equal(t, "OSMHeader", h.Type)
}

func TestUnmarshalBlobRaw(t *testing.T) {
	payload := []byte("raw primitive block bytes")
	b := tagBytes(fieldBlobRaw, payload)

	blob, err := UnmarshalBlob(b)
	require.NoError(t, err)
	require.True(t, blob.HasRaw)
	require.False(t, blob.HasZlibData)
	require.Equal(t, payload, blob.Raw)
}

func TestUnmarshalBlobZlib(t *testing.T) {
	var b []byte
	b = append(b, tagVarint(fieldBlobRawSize, 123)...)
	b = append(b, tagBytes(fieldBlobZlib, []byte{0x78, 0x9c, 0x01, 0x02})...)

	blob, err := UnmarshalBlob(b)
	require.NoError(t, err)
	require.True(t, blob.HasZlibData)
	require.False(t, blob.HasRaw)
	require.Equal(t, int32(123), blob.RawSize)
	require.Equal(t, []byte{0x78, 0x9c, 0x01, 0x02}, blob.ZlibData)
}

func TestUnmarshalBlobOtherCompressionMarked(t *testing.T) {
	b := tagBytes(fieldBlobLzma, []byte{0xde, 0xad})

	blob, err := UnmarshalBlob(b)
	require.NoError(t, err)
	require.True(t, blob.OtherCompress)
	require.False(t, blob.HasRaw)
	require.False(t, blob.HasZlibData)
}

func TestUnmarshalHeaderBlock(t *testing.T) {
	var bbox []byte
	bbox = append(bbox, tagVarint(fieldBBoxLeft, protowire.EncodeZigZag(-1800000000))...)
	bbox = append(bbox, tagVarint(fieldBBoxRight, protowire.EncodeZigZag(1800000000))...)
	bbox = append(bbox, tagVarint(fieldBBoxTop, protowire.EncodeZigZag(900000000))...)
	bbox = append(bbox, tagVarint(fieldBBoxBottom, protowire.EncodeZigZag(-900000000))...)

	var b []byte
	b = append(b, tagBytes(fieldHeaderBBox, bbox)...)
	b = append(b, tagBytes(fieldHeaderRequiredFeatures, []byte("OsmSchema-V0.6"))...)
	b = append(b, tagBytes(fieldHeaderRequiredFeatures, []byte("DenseNodes"))...)
	b = append(b, tagBytes(fieldHeaderOptionalFeatures, []byte("Sort.Type_then_ID"))...)
	b = append(b, tagBytes(fieldHeaderWritingProgram, []byte("osmflatc-test"))...)
	b = append(b, tagBytes(fieldHeaderSource, []byte("planet.osm"))...)
	b = append(b, tagVarint(fieldHeaderReplicationTS, uint64(1_700_000_000))...)
	b = append(b, tagVarint(fieldHeaderReplicationSeq, 42)...)
	b = append(b, tagBytes(fieldHeaderReplicationURL, []byte("https://example.org/replication"))...)

	hb, err := UnmarshalHeaderBlock(b)
	require.NoError(t, err)
	require.NotNil(t, hb.BBox)
	require.Equal(t, int64(-1800000000), hb.BBox.Left)
	require.Equal(t, int64(1800000000), hb.BBox.Right)
	require.Equal(t, int64(900000000), hb.BBox.Top)
	require.Equal(t, int64(-900000000), hb.BBox.Bottom)
	require.Equal(t, []string{"OsmSchema-V0.6", "DenseNodes"}, hb.RequiredFeatures)
	require.Equal(t, []string{"Sort.Type_then_ID"}, hb.OptionalFeatures)
	require.Equal(t, "osmflatc-test", hb.WritingProgram)
	require.Equal(t, "planet.osm", hb.Source)
	require.Equal(t, int64(1_700_000_000), hb.ReplicationTimestamp)
	require.Equal(t, int64(42), hb.ReplicationSequenceNumber)
	require.Equal(t, "https://example.org/replication", hb.ReplicationBaseURL)
}

func TestUnmarshalHeaderBlockNoBBox(t *testing.T) {
	b := tagBytes(fieldHeaderWritingProgram, []byte("osmflatc-test"))

	hb, err := UnmarshalHeaderBlock(b)
	require.NoError(t, err)
	require.Nil(t, hb.BBox)
}

func TestUnmarshalStringTableAndPrimitiveBlockScalars(t *testing.T) {
	var st []byte
	st = append(st, tagBytes(fieldStringTableS, []byte{})...) // index 0 is always empty
	st = append(st, tagBytes(fieldStringTableS, []byte("highway"))...)
	st = append(st, tagBytes(fieldStringTableS, []byte("residential"))...)

	var b []byte
	b = append(b, tagBytes(fieldPBStringTable, st)...)
	b = append(b, tagVarint(fieldPBGranularity, 1000)...)
	b = append(b, tagVarint(fieldPBDateGranularity, 500)...)
	b = append(b, tagVarint(fieldPBLatOffset, 7)...)
	b = append(b, tagVarint(fieldPBLonOffset, 9)...)

	pb, err := UnmarshalPrimitiveBlock(b)
	require.NoError(t, err)
	require.Equal(t, int32(1000), pb.Granularity)
	require.Equal(t, int32(500), pb.DateGranularity)
	// lat_offset/lon_offset are plain varints on the wire (osmformat.proto);
	// decode.go reads them with ConsumeVarint directly, no zigzag decode.
	require.Equal(t, int64(7), pb.LatOffset)
	require.Equal(t, int64(9), pb.LonOffset)
	require.Len(t, pb.StringTable.S, 3)
	require.Equal(t, []byte("highway"), pb.StringTable.S[1])
	require.Equal(t, []byte("residential"), pb.StringTable.S[2])
}

func TestUnmarshalPrimitiveBlockDefaults(t *testing.T) {
	pb, err := UnmarshalPrimitiveBlock(nil)
	require.NoError(t, err)
	require.Equal(t, int32(100), pb.Granularity)
	require.Equal(t, int32(1000), pb.DateGranularity)
	require.Equal(t, int64(0), pb.LatOffset)
	require.Equal(t, int64(0), pb.LonOffset)
}

func TestUnmarshalDenseNodes(t *testing.T) {
	var dense []byte
	dense = append(dense, tagBytes(fieldDenseID, packedVarints(zigzags(1, 1, 3)...))...)     // ids 1,2,5 delta-coded
	dense = append(dense, tagBytes(fieldDenseLat, packedVarints(zigzags(100, 10, -5)...))...) // deltas
	dense = append(dense, tagBytes(fieldDenseLon, packedVarints(zigzags(200, -20, 0)...))...)
	dense = append(dense, tagBytes(fieldDenseKeysVals, packedVarints(1, 2, 0, 0, 0))...) // one tagged node, two bare

	var b []byte
	b = append(b, tagBytes(fieldGroupDense, dense)...)

	g, err := unmarshalPrimitiveGroup(b)
	require.NoError(t, err)
	require.NotNil(t, g.Dense)
	require.Equal(t, []int64{1, 1, 3}, g.Dense.ID)
	require.Equal(t, []int64{100, 10, -5}, g.Dense.Lat)
	require.Equal(t, []int64{200, -20, 0}, g.Dense.Lon)
	require.Equal(t, []int32{1, 2, 0, 0, 0}, g.Dense.KeysVals)
}

func TestUnmarshalWay(t *testing.T) {
	var w []byte
	w = append(w, tagVarint(fieldWayID, 77)...)
	w = append(w, tagBytes(fieldWayKeys, packedVarints(1, 2))...)
	w = append(w, tagBytes(fieldWayVals, packedVarints(3, 4))...)
	w = append(w, tagBytes(fieldWayRefs, packedVarints(zigzags(10, 5, -2)...))...)

	var b []byte
	b = append(b, tagBytes(fieldGroupWays, w)...)

	g, err := unmarshalPrimitiveGroup(b)
	require.NoError(t, err)
	require.Len(t, g.Ways, 1)
	require.Equal(t, int64(77), g.Ways[0].ID)
	require.Equal(t, []uint32{1, 2}, g.Ways[0].Keys)
	require.Equal(t, []uint32{3, 4}, g.Ways[0].Vals)
	require.Equal(t, []int64{10, 5, -2}, g.Ways[0].Refs)
}

func TestUnmarshalRelation(t *testing.T) {
	var r []byte
	r = append(r, tagVarint(fieldRelID, 9001)...)
	r = append(r, tagBytes(fieldRelKeys, packedVarints(5))...)
	r = append(r, tagBytes(fieldRelVals, packedVarints(6))...)
	r = append(r, tagBytes(fieldRelRolesSid, packedVarints(0, 1))...)
	r = append(r, tagBytes(fieldRelMemIDs, packedVarints(zigzags(100, 50)...))...)
	r = append(r, tagBytes(fieldRelTypes, packedVarints(0, 1))...) // node, way

	var b []byte
	b = append(b, tagBytes(fieldGroupRelations, r)...)

	g, err := unmarshalPrimitiveGroup(b)
	require.NoError(t, err)
	require.Len(t, g.Relations, 1)
	rel := g.Relations[0]
	require.Equal(t, int64(9001), rel.ID)
	require.Equal(t, []uint32{5}, rel.Keys)
	require.Equal(t, []uint32{6}, rel.Vals)
	require.Equal(t, []int32{0, 1}, rel.RolesSid)
	require.Equal(t, []int64{100, 50}, rel.MemIDs)
	require.Equal(t, []MemberType{MemberNode, MemberWay}, rel.Types)
}

func TestUnmarshalPrimitiveGroupChangesetsMarked(t *testing.T) {
	b := tagBytes(fieldGroupChangesets, []byte{0x01})

	g, err := unmarshalPrimitiveGroup(b)
	require.NoError(t, err)
	require.True(t, g.Changesets)
}

func TestPeekGranularitySkipsPrimitiveGroup(t *testing.T) {
	var b []byte
	b = append(b, tagBytes(fieldPBPrimitiveGroup, tagBytes(fieldGroupDense, []byte{0x01, 0x02, 0x03}))...)
	b = append(b, tagVarint(fieldPBGranularity, 250)...)

	g, err := PeekGranularity(b)
	require.NoError(t, err)
	require.Equal(t, int32(250), g)
}

func TestPeekGranularityDefault(t *testing.T) {
	g, err := PeekGranularity(nil)
	require.NoError(t, err)
	require.Equal(t, int32(100), g)
}

func TestPeekFirstGroupFieldDense(t *testing.T) {
	group := tagBytes(fieldGroupDense, []byte{0x00})
	b := tagBytes(fieldPBPrimitiveGroup, group)

	field, err := PeekFirstGroupField(b)
	require.NoError(t, err)
	require.Equal(t, GroupDenseNodes, field)
}

func TestPeekFirstGroupFieldWays(t *testing.T) {
	group := tagBytes(fieldGroupWays, []byte{0x00})
	b := tagBytes(fieldPBPrimitiveGroup, group)

	field, err := PeekFirstGroupField(b)
	require.NoError(t, err)
	require.Equal(t, GroupWays, field)
}

func TestPeekFirstGroupFieldNoGroup(t *testing.T) {
	b := tagVarint(fieldPBGranularity, 100)

	field, err := PeekFirstGroupField(b)
	require.NoError(t, err)
	require.Equal(t, GroupUnknown, field)
}

func TestUnmarshalTruncatedTagErrors(t *testing.T) {
	_, err := UnmarshalBlobHeader([]byte{0xff})
	require.Error(t, err)
}

func TestUnmarshalBlobHeaderTruncatedBytesField(t *testing.T) {
	b := protowire.AppendTag(nil, protowire.Number(fieldBlobHeaderType), protowire.BytesType)
	b = protowire.AppendVarint(b, 10) // claims 10 bytes follow but none do
	_, err := UnmarshalBlobHeader(b)
	require.Error(t, err)
}
