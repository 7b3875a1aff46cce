package serialize

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osmflat/osmflatgo/internal/columns"
	"github.com/osmflat/osmflatgo/internal/idtable"
	"github.com/osmflat/osmflatgo/internal/stats"
	"github.com/osmflat/osmflatgo/internal/strpool"
	"github.com/osmflat/osmflatgo/internal/tagpool"
	"github.com/osmflat/osmflatgo/osmflat"
	"github.com/osmflat/osmflatgo/proto/osmpbf"
)

func TestConsumeNodeBlockDeltaDecodesAndInternsTags(t *testing.T) {
	pb := &osmpbf.PrimitiveBlock{
		StringTable: osmpbf.StringTable{S: [][]byte{{}, []byte("highway"), []byte("residential")}},
		Granularity: 100,
		PrimitiveGroup: []osmpbf.PrimitiveGroup{{
			Dense: &osmpbf.DenseNodes{
				ID:       []int64{10, 5, -2}, // absolute ids: 10, 15, 13
				Lat:      []int64{1, 1, 1},
				Lon:      []int64{2, 2, 2},
				KeysVals: []int32{1, 2, 0, 0},
			},
		}},
	}

	dir := t.TempDir()
	nodesW, err := columns.CreateWriter[osmflat.Node](filepath.Join(dir, "nodes"))
	require.NoError(t, err)
	idsW, err := columns.CreateWriter[uint64](filepath.Join(dir, "ids"))
	require.NoError(t, err)

	strings := strpool.New()
	tags := tagpool.New()
	nodeIDs := idtable.New()
	st := &stats.Stats{}

	require.NoError(t, consumeNodeBlock(pb, 1_000_000_000, strings, tags, nodeIDs, nodesW, idsW, st))
	require.NoError(t, CloseNodes(tags, nodesW))
	nodeIDs.Build()
	require.NoError(t, nodesW.Close())
	require.NoError(t, idsW.Close())

	require.EqualValues(t, 3, st.Nodes())
	idx, ok := nodeIDs.Get(15)
	require.True(t, ok)
	require.EqualValues(t, 1, idx)

	reader, err := columns.OpenReader[osmflat.Node](filepath.Join(dir, "nodes"))
	require.NoError(t, err)
	defer reader.Close()
	rows := reader.Rows()
	require.Len(t, rows, 4) // 3 nodes + sentinel

	// First node has one tag, the other two have none.
	require.EqualValues(t, 0, rows[0].TagFirstIdx)
	require.EqualValues(t, 1, rows[1].TagFirstIdx)
	require.EqualValues(t, 1, rows[2].TagFirstIdx)
	require.EqualValues(t, 1, rows[3].TagFirstIdx) // sentinel

	taglist := tags.Tags()
	require.Len(t, taglist, 1)
}
