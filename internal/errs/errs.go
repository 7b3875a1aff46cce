// Package errs defines the fatal error taxonomy from spec.md §7.
// UnresolvedReference is deliberately absent here: it is non-fatal and is
// tracked as a counter (see internal/stats.Stats), never returned as an
// error.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a fatal compile error.
type Kind string

const (
	// InvalidInput: malformed framing, unknown blob type, non-dense nodes
	// block, unknown compression, non-UTF-8 where UTF-8 is required.
	InvalidInput Kind = "InvalidInput"
	// Unsupported: changesets blocks, multiple header blocks.
	Unsupported Kind = "Unsupported"
	// ResourceIO: failure opening/mapping input or writing output columns.
	ResourceIO Kind = "ResourceIO"
	// Internal: a broken invariant, e.g. unequal key/value array lengths.
	Internal Kind = "Internal"
)

// Error is a Kind plus a detail message and block offset, wrapped with a
// stack trace via github.com/pkg/errors so it survives the worker-to-
// coordinator handoff in internal/pipeline.
type Error struct {
	Kind   Kind
	Detail string
	Offset int64 // byte offset of the offending block, -1 if not applicable
	cause  error
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: %s (offset %d)", e.Kind, e.Detail, e.Offset)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an *Error with no block offset.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Offset: -1, cause: errors.New(detail)}
}

// At builds an *Error carrying the byte offset of the offending block,
// matching spec.md §7's "Internal: ... carry the block offset in the
// message" requirement.
func At(kind Kind, offset int64, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Offset: offset, cause: errors.New(detail)}
}

// Wrap attaches a Kind and stack trace to an existing cause, e.g. an *os.File
// I/O failure being reclassified as ResourceIO.
func Wrap(kind Kind, cause error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Offset: -1, cause: errors.Wrap(cause, detail)}
}
