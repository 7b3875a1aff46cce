package blockindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockTypeOrdering(t *testing.T) {
	// Descriptors must sort Header < DenseNodes < Ways < Relations so that
	// ForType's AscendRange slices out a contiguous run per type.
	require.True(t, TypeHeader < TypeDenseNodes)
	require.True(t, TypeDenseNodes < TypeWays)
	require.True(t, TypeWays < TypeRelations)
}

func TestLessOrdersByTypeThenOffset(t *testing.T) {
	a := Descriptor{Type: TypeWays, BlobStart: 100}
	b := Descriptor{Type: TypeWays, BlobStart: 50}
	c := Descriptor{Type: TypeRelations, BlobStart: 0}

	require.True(t, less(b, a))
	require.True(t, less(a, c))
	require.False(t, less(c, a))
}
