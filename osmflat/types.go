// Package osmflat is the public reader half of the archive produced by
// internal/compiler: fixed-width row types (spec.md §3 DATA MODEL) plus the
// tag iteration helpers from spec.md §4.H. It intentionally has no
// knowledge of how an archive is built — only how one already on disk is
// opened and walked.
package osmflat

// AbsentIndex is the sentinel stored in NodeIndex rows and relation-member
// target fields when a reference could not be resolved (spec.md invariant
// 7: "never a zero or sentinel" — meaning never a coincidental valid-looking
// value; this dedicated out-of-range constant is the one true absent
// marker). No archive can ever have this many rows in one column.
const AbsentIndex uint64 = ^uint64(0)

// Node is one row of the nodes column (N+1 rows; the last is the
// sentinel, whose only defined field is TagFirstIdx).
type Node struct {
	Lat         int32
	Lon         int32
	TagFirstIdx uint64
}

// Way is one row of the ways column (W+1 rows; last is the sentinel).
type Way struct {
	TagFirstIdx uint64
	RefFirstIdx uint64
}

// Relation is one row of the relations column (R+1 rows; last is the
// sentinel). A relation's member list is the range
// [MemberFirstIdx, next_row.MemberFirstIdx) of the separate RelationMembers
// multi-vector, mirroring how Way.RefFirstIdx ranges into NodeIndex.
type Relation struct {
	TagFirstIdx    uint64
	MemberFirstIdx uint64
}

// Tag is one deduplicated (key, value) pair of string-pool offsets.
type Tag struct {
	KeyOffset uint64
	ValOffset uint64
}

// Header is the single archive header row. columns.Writer.Append
// (column.go) serializes a row via encoding/binary, which packs fields with
// no alignment padding, while columns.Reader reinterprets the file via
// unsafe.Sizeof's native, padded layout — the two only agree on a struct's
// size if every field is the same 8-byte width, since Go pads a struct's
// size up to its widest field's alignment regardless of field order. A bool
// would break that, including if tucked at the end, so replication presence
// is carried as a uint64 flag (0 or 1) rather than a bool.
type Header struct {
	Left, Right, Top, Bottom  int64 // bounding box, native 1e-9-degree units (not rescaled)
	CoordScale                int64
	WritingProgramOffset      uint64
	SourceOffset              uint64
	ReplicationTimestamp      int64
	ReplicationSequenceNumber int64
	ReplicationBaseURLOffset  uint64
	HasReplication            uint64 // 0 or 1
}

// Replicating reports whether the header carries replication metadata.
func (h Header) Replicating() bool { return h.HasReplication != 0 }
