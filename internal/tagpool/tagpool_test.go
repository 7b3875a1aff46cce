package tagpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDedup(t *testing.T) {
	p := New()
	p.Serialize(10, 20) // amenity=pub for node A
	p.Serialize(10, 20) // amenity=pub for node B

	require.Len(t, p.Tags(), 1, "identical (key,val) pairs must collapse to one Tag row")
	require.Len(t, p.TagIndex(), 2, "each occurrence still gets its own TagIndex row")
	require.Equal(t, p.TagIndex()[0], p.TagIndex()[1])
}

func TestDistinctPairs(t *testing.T) {
	p := New()
	p.Serialize(10, 20)
	p.Serialize(10, 30) // same key, different value
	require.Len(t, p.Tags(), 2)
}

func TestNextIndexTracksRanges(t *testing.T) {
	p := New()
	first := p.NextIndex()
	require.EqualValues(t, 0, first)
	p.Serialize(1, 2)
	p.Serialize(3, 4)
	second := p.NextIndex()
	require.EqualValues(t, 2, second)
}
