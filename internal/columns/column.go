// Package columns provides the append-only, fixed-width column file
// primitive that backs every entity/index vector in the archive (spec.md
// §6, GLOSSARY "Column / external vector"), plus the relation-member
// multi-vector and the schema descriptor.
package columns

import (
	"encoding/binary"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"github.com/osmflat/osmflatgo/internal/errs"
)

// Writer appends fixed-size records of type T to a file, flushing to disk
// on Close. The coordinator goroutine is the sole writer, per spec.md §5.
type Writer[T any] struct {
	f    *os.File
	rows int64
}

// CreateWriter creates (truncating) the column file at path.
func CreateWriter[T any](path string) (*Writer[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.Wrap(errs.ResourceIO, err, "create column "+path)
	}
	return &Writer[T]{f: f}, nil
}

// Append writes one record and returns its row index.
func (w *Writer[T]) Append(v T) (int64, error) {
	idx := w.rows
	if err := binary.Write(w.f, binary.LittleEndian, v); err != nil {
		return 0, errs.Wrap(errs.ResourceIO, err, "append column row")
	}
	w.rows++
	return idx, nil
}

// Len reports how many rows have been appended so far.
func (w *Writer[T]) Len() int64 { return w.rows }

// Close flushes and closes the underlying file.
func (w *Writer[T]) Close() error {
	if err := w.f.Sync(); err != nil {
		return errs.Wrap(errs.ResourceIO, err, "sync column")
	}
	return w.f.Close()
}

// Reader memory-maps a closed column file for zero-copy random access.
type Reader[T any] struct {
	f   *os.File
	mm  mmap.MMap
	row []T
}

// OpenReader opens path read-only and maps it into a []T-shaped slice.
func OpenReader[T any](path string) (*Reader[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ResourceIO, err, "open column "+path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.ResourceIO, err, "stat column "+path)
	}
	if info.Size() == 0 {
		f.Close()
		return &Reader[T]{}, nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.ResourceIO, err, "mmap column "+path)
	}
	var zero T
	width := int(unsafe.Sizeof(zero))
	if width == 0 || len(m)%width != 0 {
		return nil, errors.Errorf("column %s: size %d is not a multiple of record width %d", path, len(m), width)
	}
	n := len(m) / width
	row := unsafe.Slice((*T)(unsafe.Pointer(&m[0])), n)
	return &Reader[T]{f: f, mm: m, row: row}, nil
}

// Rows exposes the mapped column as a slice. The slice is borrowed from the
// mmap and becomes invalid after Close.
func (r *Reader[T]) Rows() []T { return r.row }

// Len reports the row count.
func (r *Reader[T]) Len() int { return len(r.row) }

// Close unmaps and closes the underlying file.
func (r *Reader[T]) Close() error {
	if r.mm != nil {
		if err := r.mm.Unmap(); err != nil {
			return err
		}
	}
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}
