package blockindex

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/edsrzf/mmap-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/osmflat/osmflatgo/proto/osmpbf"
)

// Field numbers below are the well-known fileformat.proto/osmformat.proto
// wire numbers (see proto/osmpbf/decode.go); this file builds its own raw
// byte fixtures rather than importing that package's unexported constants,
// matching the teacher pack's habit of constructing fixtures programmatically
// (tests/state_test_util.go) rather than checking in binary blobs.
const (
	wireBlobHeaderType     = 1
	wireBlobHeaderDataSize = 3

	wireBlobRaw  = 1
	wireBlobZlib = 3

	wireHeaderWritingProgram = 16

	wirePBGranularity    = 17
	wirePBPrimitiveGroup = 2

	wireGroupDense     = 2
	wireGroupWays      = 3
	wireGroupRelations = 4

	wireWayID   = 1
	wireWayRefs = 8

	wireRelID     = 1
	wireRelMemIDs = 9
)

func wireTagBytes(num int, payload []byte) []byte {
	b := protowire.AppendTag(nil, protowire.Number(num), protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

func wireTagVarint(num int, v uint64) []byte {
	b := protowire.AppendTag(nil, protowire.Number(num), protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// buildFrame encodes one (BlobHeader length, BlobHeader, Blob) frame exactly
// as readFrames expects to find it: a 4-byte big-endian header length, the
// BlobHeader bytes, then the Blob bytes. compress zlib-encodes payload as
// Blob.zlib_data; otherwise payload is written as Blob.raw.
func buildFrame(t *testing.T, blobType string, payload []byte, compress bool) []byte {
	t.Helper()

	var blob []byte
	if compress {
		var zbuf bytes.Buffer
		w := zlib.NewWriter(&zbuf)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		blob = wireTagBytes(wireBlobZlib, zbuf.Bytes())
	} else {
		blob = wireTagBytes(wireBlobRaw, payload)
	}

	var header []byte
	header = append(header, wireTagBytes(wireBlobHeaderType, []byte(blobType))...)
	header = append(header, wireTagVarint(wireBlobHeaderDataSize, uint64(len(blob)))...)

	var frame []byte
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(header)))
	frame = append(frame, lenBuf[:]...)
	frame = append(frame, header...)
	frame = append(frame, blob...)
	return frame
}

func primitiveBlockWithGroup(groupFieldNum int, groupPayload []byte) []byte {
	group := wireTagBytes(groupFieldNum, groupPayload)
	var b []byte
	b = append(b, wireTagVarint(wirePBGranularity, 100)...)
	b = append(b, wireTagBytes(wirePBPrimitiveGroup, group)...)
	return b
}

func TestReadFramesAndBuild(t *testing.T) {
	headerBlock := wireTagBytes(wireHeaderWritingProgram, []byte("osmflatc-test"))

	denseGroup := []byte{0x0a, 0x01, 0x00} // opaque; classify only peeks the group's first sub-field tag
	wayGroup := append(wireTagVarint(wireWayID, 1), wireTagBytes(wireWayRefs, []byte{0x02})...)
	relGroup := append(wireTagVarint(wireRelID, 1), wireTagBytes(wireRelMemIDs, []byte{0x02})...)

	var data []byte
	data = append(data, buildFrame(t, "OSMHeader", headerBlock, false)...)
	data = append(data, buildFrame(t, "OSMData", primitiveBlockWithGroup(wireGroupDense, denseGroup), true)...)
	data = append(data, buildFrame(t, "OSMData", primitiveBlockWithGroup(wireGroupWays, wayGroup), false)...)
	data = append(data, buildFrame(t, "OSMData", primitiveBlockWithGroup(wireGroupRelations, relGroup), false)...)

	frames, err := readFrames(mmap.MMap(data))
	require.NoError(t, err)
	require.Len(t, frames, 4)
	require.Equal(t, "OSMHeader", frames[0].header.Type)
	require.Equal(t, "OSMData", frames[1].header.Type)

	idx, err := Build(mmap.MMap(data), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, idx.Descriptors, 4)

	headers := idx.ForType(TypeHeader)
	require.Len(t, headers, 1)

	dense := idx.ForType(TypeDenseNodes)
	require.Len(t, dense, 1)

	ways := idx.ForType(TypeWays)
	require.Len(t, ways, 1)

	rels := idx.ForType(TypeRelations)
	require.Len(t, rels, 1)
}

func TestReadFramesRejectsUnknownBlobType(t *testing.T) {
	data := buildFrame(t, "OSMWeird", []byte("x"), false)
	_, err := readFrames(mmap.MMap(data))
	require.Error(t, err)
}

func TestReadFramesRejectsTruncatedHeaderLength(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00} // 3 bytes, need 4 for the length prefix
	_, err := readFrames(mmap.MMap(data))
	require.Error(t, err)
}

func TestReadFramesRejectsTruncatedPayload(t *testing.T) {
	full := buildFrame(t, "OSMData", primitiveBlockWithGroup(wireGroupWays, []byte{0x00}), false)
	truncated := full[:len(full)-1]
	_, err := readFrames(mmap.MMap(truncated))
	require.Error(t, err)
}

func TestClassifyDenseNodesViaZlib(t *testing.T) {
	denseGroup := []byte{0x0a, 0x01, 0x00}
	payload := primitiveBlockWithGroup(wireGroupDense, denseGroup)
	data := buildFrame(t, "OSMData", payload, true)

	frames, err := readFrames(mmap.MMap(data))
	require.NoError(t, err)
	require.Len(t, frames, 1)

	d, err := classify(mmap.MMap(data), frames[0])
	require.NoError(t, err)
	require.Equal(t, TypeDenseNodes, d.Type)
}

func TestClassifyRejectsBareNodes(t *testing.T) {
	const wireGroupNodes = 1
	nodeGroup := []byte{0x08, 0x01} // id=1, enough to have a first sub-field tag
	payload := primitiveBlockWithGroup(wireGroupNodes, nodeGroup)
	data := buildFrame(t, "OSMData", payload, false)

	frames, err := readFrames(mmap.MMap(data))
	require.NoError(t, err)

	_, err = classify(mmap.MMap(data), frames[0])
	require.Error(t, err)
}

func TestClassifyRejectsChangesets(t *testing.T) {
	const wireGroupChangesets = 5
	payload := primitiveBlockWithGroup(wireGroupChangesets, []byte{0x01})
	data := buildFrame(t, "OSMData", payload, false)

	frames, err := readFrames(mmap.MMap(data))
	require.NoError(t, err)

	_, err = classify(mmap.MMap(data), frames[0])
	require.Error(t, err)
}

func TestInflateRaw(t *testing.T) {
	blob := &osmpbf.Blob{HasRaw: true, Raw: []byte("hello")}
	out, err := Inflate(blob, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), out)
}

func TestInflateRejectsUnknownCompression(t *testing.T) {
	blob := &osmpbf.Blob{OtherCompress: true}
	_, err := Inflate(blob, 0)
	require.Error(t, err)
}

func TestInflateRejectsEmptyBlob(t *testing.T) {
	blob := &osmpbf.Blob{}
	_, err := Inflate(blob, 0)
	require.Error(t, err)
}
