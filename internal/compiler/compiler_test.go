package compiler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osmflat/osmflatgo/internal/columns"
	"github.com/osmflat/osmflatgo/internal/stats"
	"github.com/osmflat/osmflatgo/internal/strpool"
	"github.com/osmflat/osmflatgo/internal/tagpool"
	"github.com/osmflat/osmflatgo/osmflat"
)

// buildMinimalArchive exercises flushPools the same way Compile does, after
// writing the entity columns flushPools itself never touches, then opens the
// result exactly as Compile's self-verify step does.
func buildMinimalArchive(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	strings := strpool.New()
	tags := tagpool.New()
	st := &stats.Stats{}

	nameOff := strings.Insert([]byte("example"))

	nodesW, err := columns.CreateWriter[osmflat.Node](filepath.Join(dir, "nodes"))
	require.NoError(t, err)
	_, err = nodesW.Append(osmflat.Node{Lat: 1, Lon: 2, TagFirstIdx: tags.NextIndex()})
	require.NoError(t, err)
	tags.Serialize(nameOff, nameOff)
	_, err = nodesW.Append(osmflat.Node{TagFirstIdx: tags.NextIndex()}) // sentinel
	require.NoError(t, err)
	require.NoError(t, nodesW.Close())
	st.AddNode()

	nodeIndexW, err := columns.CreateWriter[uint64](filepath.Join(dir, "nodes_index"))
	require.NoError(t, err)
	_, err = nodeIndexW.Append(0)
	require.NoError(t, err)

	waysW, err := columns.CreateWriter[osmflat.Way](filepath.Join(dir, "ways"))
	require.NoError(t, err)
	_, err = waysW.Append(osmflat.Way{TagFirstIdx: tags.NextIndex(), RefFirstIdx: 0})
	require.NoError(t, err)
	_, err = waysW.Append(osmflat.Way{TagFirstIdx: tags.NextIndex(), RefFirstIdx: uint64(nodeIndexW.Len())}) // sentinel
	require.NoError(t, err)
	require.NoError(t, waysW.Close())
	require.NoError(t, nodeIndexW.Close())
	st.AddWay()

	membersW, err := columns.CreateMultiVectorWriter(filepath.Join(dir, "relation_members"))
	require.NoError(t, err)
	require.NoError(t, membersW.Close())

	relationsW, err := columns.CreateWriter[osmflat.Relation](filepath.Join(dir, "relations"))
	require.NoError(t, err)
	_, err = relationsW.Append(osmflat.Relation{TagFirstIdx: tags.NextIndex(), MemberFirstIdx: 0})
	require.NoError(t, err)
	_, err = relationsW.Append(osmflat.Relation{TagFirstIdx: tags.NextIndex(), MemberFirstIdx: 0}) // sentinel
	require.NoError(t, err)
	require.NoError(t, relationsW.Close())
	st.AddRelation()

	header := osmflat.Header{CoordScale: 1_000_000_000}
	require.NoError(t, flushPools(dir, header, strings, tags, st, false, header.CoordScale))

	return dir
}

func TestFlushPoolsProducesSelfVerifiableArchive(t *testing.T) {
	dir := buildMinimalArchive(t)

	archive, err := osmflat.Open(dir)
	require.NoError(t, err)
	defer archive.Close()

	require.EqualValues(t, 1_000_000_000, archive.Header().CoordScale)
	require.Len(t, archive.Nodes(), 2)
	require.Len(t, archive.Ways(), 2)
	require.Len(t, archive.Relations(), 2)

	tags := archive.NodeTags(0)
	require.Equal(t, 1, tags.Len())
}

func TestFlushPoolsWritesSchemaRowCounts(t *testing.T) {
	dir := buildMinimalArchive(t)

	schema, err := columns.ReadSchema(dir)
	require.NoError(t, err)
	require.False(t, schema.HasIds)
	require.EqualValues(t, 2, schema.RowCounts["nodes"])
	require.EqualValues(t, 2, schema.RowCounts["ways"])
	require.EqualValues(t, 2, schema.RowCounts["relations"])
}
