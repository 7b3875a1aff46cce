// Package osmpbf holds the hand-decoded wire types of the OSM PBF container
// (fileformat.proto + osmformat.proto). Rather than running these messages
// through generated protoreflect code, decode.go reads them directly with
// google.golang.org/protobuf/encoding/protowire's field primitives: the
// schema is small, fixed, and never evolves, and the block classifier in
// internal/blockindex needs to peek a single field without paying for a full
// decode.
package osmpbf

// BlobHeader precedes every Blob on the wire (fileformat.proto).
type BlobHeader struct {
	Type     string
	DataSize int32
}

// Blob carries exactly one of Raw or ZlibData (fileformat.proto). Other
// compression variants (lzma, bzip2, lz4, zstd) are recognized on the wire
// only so they can be rejected with "unknown compression".
type Blob struct {
	Raw           []byte
	ZlibData      []byte
	RawSize       int32
	HasRaw        bool
	HasZlibData   bool
	OtherCompress bool
}

// HeaderBBox is the optional bounding box of a HeaderBlock (osmformat.proto).
type HeaderBBox struct {
	Left, Right, Top, Bottom int64
}

// HeaderBlock is the payload of an "OSMHeader" blob.
type HeaderBlock struct {
	BBox                      *HeaderBBox
	RequiredFeatures          []string
	OptionalFeatures          []string
	WritingProgram            string
	Source                    string
	ReplicationTimestamp      int64
	ReplicationSequenceNumber int64
	ReplicationBaseURL        string
}

// StringTable is the block-local, delta-free table every string reference in
// a PrimitiveBlock indexes into.
type StringTable struct {
	S [][]byte
}

// GroupFieldNode identifies which oneof-like field of a PrimitiveGroup is
// populated, matching the OSM-PBF field numbers used for classification in
// spec.md §4.D.
type GroupFieldNode int32

const (
	GroupNodes       GroupFieldNode = 1
	GroupDenseNodes  GroupFieldNode = 2
	GroupWays        GroupFieldNode = 3
	GroupRelations   GroupFieldNode = 4
	GroupChangesets  GroupFieldNode = 5
	GroupUnknown     GroupFieldNode = 0
)

// DenseNodes is PrimitiveGroup.dense: delta-encoded ids/lat/lon plus a
// single concatenated, zero-terminated keys_vals tag stream.
type DenseNodes struct {
	ID       []int64
	Lat      []int64
	Lon      []int64
	KeysVals []int32
}

// Way is one element of PrimitiveGroup.ways.
type Way struct {
	ID   int64
	Keys []uint32
	Vals []uint32
	Refs []int64 // delta-coded node ids
}

// MemberType mirrors Relation.MemberType (osmformat.proto).
type MemberType int32

const (
	MemberNode     MemberType = 0
	MemberWay      MemberType = 1
	MemberRelation MemberType = 2
)

// Relation is one element of PrimitiveGroup.relations.
type Relation struct {
	ID       int64
	Keys     []uint32
	Vals     []uint32
	RolesSid []int32
	MemIDs   []int64 // delta-coded
	Types    []MemberType
}

// PrimitiveGroup holds exactly one populated field per spec.md §4.D/§6; the
// others remain nil/empty after decode.
type PrimitiveGroup struct {
	Nodes      []Node // decoded but not used; blockindex rejects plain-node blocks
	Dense      *DenseNodes
	Ways       []Way
	Relations  []Relation
	Changesets bool // presence only; changesets are fatal (§4.D)
}

// Node is the plain (non-dense) node message. Unsupported by this compiler
// (spec.md Non-goals). blockindex rejects plain-node blocks from the group's
// first field tag (PeekFirstGroupField); this decoded form is not read.
type Node struct {
	ID   int64
	Keys []uint32
	Vals []uint32
	Lat  int64
	Lon  int64
}

// PrimitiveBlock is the payload of an "OSMData" blob.
type PrimitiveBlock struct {
	StringTable     StringTable
	PrimitiveGroup  []PrimitiveGroup
	Granularity     int32 // default 100
	DateGranularity int32 // default 1000
	LatOffset       int64 // default 0
	LonOffset       int64 // default 0
}
