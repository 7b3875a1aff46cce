package serialize

import (
	"context"

	"github.com/edsrzf/mmap-go"

	"github.com/osmflat/osmflatgo/internal/blockindex"
	"github.com/osmflat/osmflatgo/internal/columns"
	"github.com/osmflat/osmflatgo/internal/errs"
	"github.com/osmflat/osmflatgo/internal/idtable"
	"github.com/osmflat/osmflatgo/internal/pipeline"
	"github.com/osmflat/osmflatgo/internal/stats"
	"github.com/osmflat/osmflatgo/internal/strpool"
	"github.com/osmflat/osmflatgo/internal/tagpool"
	"github.com/osmflat/osmflatgo/osmflat"
	"github.com/osmflat/osmflatgo/proto/osmpbf"
)

// resolvedRef is one way's node reference, already looked up against the
// frozen node id table — spec.md §4.F "a local Vec<Option<dense_idx>>".
type resolvedRef struct {
	idx uint64
	ok  bool
}

type resolvedWay struct {
	id         int64
	keys, vals []uint32
	refs       []resolvedRef
}

// waysBlock is the Data value the ways pipeline hands from produce to
// consume: the block's own string table (needed to intern tags) plus every
// way already decoded and reference-resolved.
type waysBlock struct {
	strTable [][]byte
	ways     []resolvedWay
}

// Ways runs the spec.md §4.F ways phase. produce decodes each block and
// resolves delta-coded node references through nodeIDs (read-only, frozen by
// this point) — embarrassingly parallel. consume appends tags, the way row
// and the node-index column strictly in block order.
func Ways(
	ctx context.Context,
	data mmap.MMap,
	blocks []blockindex.Descriptor,
	nodeIDs, wayIDs *idtable.Table,
	strings *strpool.Pool,
	tags *tagpool.Pool,
	waysW *columns.Writer[osmflat.Way],
	nodeIndexW *columns.Writer[uint64],
	idsW *columns.Writer[uint64],
	st *stats.Stats,
	opts pipeline.Options,
) error {
	return pipeline.Run(ctx, len(blocks), opts,
		func(_ context.Context, i int) (waysBlock, error) {
			pb, err := DecodeBlock(data, blocks[i])
			if err != nil {
				return waysBlock{}, err
			}
			return resolveWaysBlock(pb, nodeIDs)
		},
		func(_ int, wb waysBlock) error {
			return consumeWaysBlock(wb, wayIDs, strings, tags, waysW, nodeIndexW, idsW, st)
		},
	)
}

func resolveWaysBlock(pb *osmpbf.PrimitiveBlock, nodeIDs *idtable.Table) (waysBlock, error) {
	wb := waysBlock{strTable: pb.StringTable.S}
	for _, g := range pb.PrimitiveGroup {
		for _, w := range g.Ways {
			if len(w.Keys) != len(w.Vals) {
				return waysBlock{}, errs.New(errs.Internal, "way keys/vals array length mismatch")
			}
			refs := make([]resolvedRef, len(w.Refs))
			var ref int64
			for i, d := range w.Refs {
				ref += d
				idx, ok := nodeIDs.Get(ref)
				refs[i] = resolvedRef{idx: idx, ok: ok}
			}
			wb.ways = append(wb.ways, resolvedWay{id: w.ID, keys: w.Keys, vals: w.Vals, refs: refs})
		}
	}
	return wb, nil
}

func consumeWaysBlock(
	wb waysBlock,
	wayIDs *idtable.Table,
	strings *strpool.Pool,
	tags *tagpool.Pool,
	waysW *columns.Writer[osmflat.Way],
	nodeIndexW *columns.Writer[uint64],
	idsW *columns.Writer[uint64],
	st *stats.Stats,
) error {
	for _, w := range wb.ways {
		dense := wayIDs.Insert(w.id)
		if int64(dense) != waysW.Len() {
			return errs.New(errs.Internal, "dense way index diverged from way column length")
		}

		row := osmflat.Way{
			TagFirstIdx: tags.NextIndex(),
		}
		for i := range w.keys {
			k := internString(strings, wb.strTable, w.keys[i])
			v := internString(strings, wb.strTable, w.vals[i])
			tags.Serialize(k, v)
		}
		row.RefFirstIdx = uint64(nodeIndexW.Len())
		for _, r := range w.refs {
			idx := r.idx
			if !r.ok {
				idx = osmflat.AbsentIndex
				st.AddUnresolvedNode()
			}
			if _, err := nodeIndexW.Append(idx); err != nil {
				return err
			}
		}
		if _, err := waysW.Append(row); err != nil {
			return err
		}
		if idsW != nil {
			if _, err := idsW.Append(uint64(w.id)); err != nil {
				return err
			}
		}
		st.AddWay()
	}
	return nil
}

// CloseWays appends the sentinel way row: tag_first_idx and ref_first_idx
// both set to their columns' current length (spec.md invariant 8).
func CloseWays(tags *tagpool.Pool, nodeIndexW *columns.Writer[uint64], waysW *columns.Writer[osmflat.Way]) error {
	_, err := waysW.Append(osmflat.Way{
		TagFirstIdx: tags.NextIndex(),
		RefFirstIdx: uint64(nodeIndexW.Len()),
	})
	return err
}
