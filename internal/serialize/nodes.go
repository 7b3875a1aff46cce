package serialize

import (
	"context"

	"github.com/edsrzf/mmap-go"

	"github.com/osmflat/osmflatgo/internal/blockindex"
	"github.com/osmflat/osmflatgo/internal/columns"
	"github.com/osmflat/osmflatgo/internal/coordscale"
	"github.com/osmflat/osmflatgo/internal/errs"
	"github.com/osmflat/osmflatgo/internal/idtable"
	"github.com/osmflat/osmflatgo/internal/pipeline"
	"github.com/osmflat/osmflatgo/internal/stats"
	"github.com/osmflat/osmflatgo/internal/strpool"
	"github.com/osmflat/osmflatgo/internal/tagpool"
	"github.com/osmflat/osmflatgo/proto/osmpbf"
	"github.com/osmflat/osmflatgo/osmflat"
)

// Nodes runs the spec.md §4.F dense-node phase over blocks, in source-file
// order. Decode (zlib inflate + varint unpacking) happens on the pipeline's
// worker pool; delta accumulation, id-table insertion, string/tag interning
// and row appends happen on the coordinator, one block at a time, in order.
func Nodes(
	ctx context.Context,
	data mmap.MMap,
	blocks []blockindex.Descriptor,
	archiveScale int64,
	strings *strpool.Pool,
	tags *tagpool.Pool,
	nodeIDs *idtable.Table,
	nodesW *columns.Writer[osmflat.Node],
	idsW *columns.Writer[uint64],
	st *stats.Stats,
	opts pipeline.Options,
) error {
	return pipeline.Run(ctx, len(blocks), opts,
		func(_ context.Context, i int) (*osmpbf.PrimitiveBlock, error) {
			return DecodeBlock(data, blocks[i])
		},
		func(_ int, pb *osmpbf.PrimitiveBlock) error {
			return consumeNodeBlock(pb, archiveScale, strings, tags, nodeIDs, nodesW, idsW, st)
		},
	)
}

func consumeNodeBlock(
	pb *osmpbf.PrimitiveBlock,
	archiveScale int64,
	strings *strpool.Pool,
	tags *tagpool.Pool,
	nodeIDs *idtable.Table,
	nodesW *columns.Writer[osmflat.Node],
	idsW *columns.Writer[uint64],
	st *stats.Stats,
) error {
	strTable := pb.StringTable.S
	for _, g := range pb.PrimitiveGroup {
		if g.Dense == nil {
			continue
		}
		dn := g.Dense
		if len(dn.ID) != len(dn.Lat) || len(dn.ID) != len(dn.Lon) {
			return errs.New(errs.Internal, "dense nodes id/lat/lon array length mismatch")
		}

		var id, lat, lon int64
		kv := dn.KeysVals
		kvPos := 0
		for i := range dn.ID {
			id += dn.ID[i]
			lat += dn.Lat[i]
			lon += dn.Lon[i]

			dense := nodeIDs.Insert(id)
			if int64(dense) != nodesW.Len() {
				return errs.New(errs.Internal, "dense node index diverged from node column length")
			}

			nativeLat := pb.LatOffset + int64(pb.Granularity)*lat
			nativeLon := pb.LonOffset + int64(pb.Granularity)*lon

			row := osmflat.Node{
				Lat:         coordscale.Rescale(nativeLat, archiveScale),
				Lon:         coordscale.Rescale(nativeLon, archiveScale),
				TagFirstIdx: tags.NextIndex(),
			}

			for kvPos < len(kv) && kv[kvPos] != 0 {
				if kvPos+1 >= len(kv) {
					return errs.New(errs.Internal, "dense node keys_vals truncated mid-pair")
				}
				k := internString(strings, strTable, uint32(kv[kvPos]))
				v := internString(strings, strTable, uint32(kv[kvPos+1]))
				tags.Serialize(k, v)
				kvPos += 2
			}
			if kvPos < len(kv) {
				kvPos++ // skip the terminating 0
			}

			if _, err := nodesW.Append(row); err != nil {
				return err
			}
			if idsW != nil {
				if _, err := idsW.Append(uint64(id)); err != nil {
					return err
				}
			}
			st.AddNode()
		}
	}
	return nil
}

// CloseNodes appends the sentinel node row (spec.md §4.F.2 / invariant 8):
// its only defined field is tag_first_idx, set to the current end of the
// tag index so the last real node's tag range has a closing bound.
func CloseNodes(tags *tagpool.Pool, nodesW *columns.Writer[osmflat.Node]) error {
	_, err := nodesW.Append(osmflat.Node{TagFirstIdx: tags.NextIndex()})
	return err
}
