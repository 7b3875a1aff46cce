package columns

import (
	"encoding/binary"
	"os"

	"github.com/osmflat/osmflatgo/internal/errs"
)

// MemberKind tags which variant a RelationMember row encodes (spec.md §3).
type MemberKind uint8

const (
	MemberKindNode MemberKind = iota
	MemberKindWay
	MemberKindRelation
)

// memberRecordWidth is 1 tag byte + 8 bytes target index + 1 presence byte + 8
// bytes role offset. Fixed width keeps the multi-vector randomly seekable
// by row despite being "variant typed" (GLOSSARY: Multi-vector).
const memberRecordWidth = 1 + 8 + 1 + 8

// Member is one element of a relation's membership list.
type Member struct {
	Kind        MemberKind
	TargetIdx   uint64
	HasTarget   bool // false => absent/unresolved variant (spec.md invariant 7)
	RoleOffset  uint64
}

// MultiVectorWriter appends Member rows to a fixed-width-record file. It is
// a "multi-vector" in name only (GLOSSARY) in the sense that each record
// tags its own variant; physically the encoding here is fixed-width for
// simplicity, which the invariants permit since every variant shares the
// same (target, role) shape.
type MultiVectorWriter struct {
	f    *os.File
	rows int64
}

// CreateMultiVectorWriter creates the relation_members column file.
func CreateMultiVectorWriter(path string) (*MultiVectorWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.Wrap(errs.ResourceIO, err, "create relation_members column")
	}
	return &MultiVectorWriter{f: f}, nil
}

// Append writes one member row and returns its row index.
func (w *MultiVectorWriter) Append(m Member) (int64, error) {
	var buf [memberRecordWidth]byte
	buf[0] = byte(m.Kind)
	binary.LittleEndian.PutUint64(buf[1:9], m.TargetIdx)
	if m.HasTarget {
		buf[9] = 1
	}
	binary.LittleEndian.PutUint64(buf[10:18], m.RoleOffset)
	if _, err := w.f.Write(buf[:]); err != nil {
		return 0, errs.Wrap(errs.ResourceIO, err, "append relation_members row")
	}
	idx := w.rows
	w.rows++
	return idx, nil
}

// Len reports the row count written so far.
func (w *MultiVectorWriter) Len() int64 { return w.rows }

// Close flushes and closes the file.
func (w *MultiVectorWriter) Close() error {
	if err := w.f.Sync(); err != nil {
		return errs.Wrap(errs.ResourceIO, err, "sync relation_members column")
	}
	return w.f.Close()
}

// MultiVectorReader opens a relation_members column read-only.
type MultiVectorReader struct {
	f   *os.File
	buf []byte
}

// OpenMultiVectorReader reads the whole relation_members column into
// memory; it is typically much smaller than the node/way columns so a plain
// read (rather than mmap) keeps the decode logic simple.
func OpenMultiVectorReader(path string) (*MultiVectorReader, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ResourceIO, err, "read relation_members column")
	}
	return &MultiVectorReader{buf: buf}, nil
}

// Len reports the row count.
func (r *MultiVectorReader) Len() int { return len(r.buf) / memberRecordWidth }

// At decodes row i.
func (r *MultiVectorReader) At(i int) Member {
	off := i * memberRecordWidth
	row := r.buf[off : off+memberRecordWidth]
	return Member{
		Kind:       MemberKind(row[0]),
		TargetIdx:  binary.LittleEndian.Uint64(row[1:9]),
		HasTarget:  row[9] == 1,
		RoleOffset: binary.LittleEndian.Uint64(row[10:18]),
	}
}

// Close releases the reader's memory (a no-op since the buffer is a plain
// read); present for symmetry with Reader[T] and MultiVectorWriter.
func (r *MultiVectorReader) Close() error { return nil }
