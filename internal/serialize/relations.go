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

// resolvedMember is one relation member, already looked up against whichever
// id table its type names. role is left as a block-local string table index
// since interning it into the shared string pool must happen on the
// coordinator.
type resolvedMember struct {
	kind columns.MemberKind
	idx  uint64
	ok   bool
	role uint32
}

type resolvedRelation struct {
	id         int64
	keys, vals []uint32
	members    []resolvedMember
}

type relationsBlock struct {
	strTable  [][]byte
	relations []resolvedRelation
}

// PreResolveRelationIDs implements the spec.md §4.F relation pre-pass:
// relations may reference other relations in either direction, so every
// relation's id must be known before any relation is serialized. This walks
// the same blocks, in the same order, that the main pass will later walk,
// inserting each relation's id — the dense index PreResolveRelationIDs
// assigns here is what the main pass's row-append order reproduces.
func PreResolveRelationIDs(ctx context.Context, data mmap.MMap, blocks []blockindex.Descriptor, relationIDs *idtable.Table, opts pipeline.Options) error {
	return pipeline.Run(ctx, len(blocks), opts,
		func(_ context.Context, i int) (*osmpbf.PrimitiveBlock, error) {
			return DecodeBlock(data, blocks[i])
		},
		func(_ int, pb *osmpbf.PrimitiveBlock) error {
			for _, g := range pb.PrimitiveGroup {
				for _, r := range g.Relations {
					relationIDs.Insert(r.ID)
				}
			}
			return nil
		},
	)
}

// Relations runs the spec.md §4.F main relations pass. relationIDs must
// already be frozen (Build called) by the pre-pass above.
func Relations(
	ctx context.Context,
	data mmap.MMap,
	blocks []blockindex.Descriptor,
	nodeIDs, wayIDs, relationIDs *idtable.Table,
	strings *strpool.Pool,
	tags *tagpool.Pool,
	relationsW *columns.Writer[osmflat.Relation],
	membersW *columns.MultiVectorWriter,
	idsW *columns.Writer[uint64],
	st *stats.Stats,
	opts pipeline.Options,
) error {
	return pipeline.Run(ctx, len(blocks), opts,
		func(_ context.Context, i int) (relationsBlock, error) {
			pb, err := DecodeBlock(data, blocks[i])
			if err != nil {
				return relationsBlock{}, err
			}
			return resolveRelationsBlock(pb, nodeIDs, wayIDs, relationIDs)
		},
		func(_ int, rb relationsBlock) error {
			return consumeRelationsBlock(rb, relationIDs, strings, tags, relationsW, membersW, idsW, st)
		},
	)
}

func resolveRelationsBlock(pb *osmpbf.PrimitiveBlock, nodeIDs, wayIDs, relationIDs *idtable.Table) (relationsBlock, error) {
	rb := relationsBlock{strTable: pb.StringTable.S}
	for _, g := range pb.PrimitiveGroup {
		for _, r := range g.Relations {
			if len(r.Keys) != len(r.Vals) {
				return relationsBlock{}, errs.New(errs.Internal, "relation keys/vals array length mismatch")
			}
			if len(r.MemIDs) != len(r.Types) || len(r.MemIDs) != len(r.RolesSid) {
				return relationsBlock{}, errs.New(errs.Internal, "relation member array length mismatch")
			}
			members := make([]resolvedMember, len(r.MemIDs))
			var memID int64
			for i, d := range r.MemIDs {
				memID += d
				var kind columns.MemberKind
				var idx uint64
				var ok bool
				switch r.Types[i] {
				case osmpbf.MemberNode:
					kind = columns.MemberKindNode
					idx, ok = nodeIDs.Get(memID)
				case osmpbf.MemberWay:
					kind = columns.MemberKindWay
					idx, ok = wayIDs.Get(memID)
				case osmpbf.MemberRelation:
					kind = columns.MemberKindRelation
					idx, ok = relationIDs.Get(memID)
				default:
					return relationsBlock{}, errs.New(errs.InvalidInput, "relation member has unknown type")
				}
				members[i] = resolvedMember{kind: kind, idx: idx, ok: ok, role: uint32(r.RolesSid[i])}
			}
			rb.relations = append(rb.relations, resolvedRelation{id: r.ID, keys: r.Keys, vals: r.Vals, members: members})
		}
	}
	return rb, nil
}

func consumeRelationsBlock(
	rb relationsBlock,
	relationIDs *idtable.Table,
	strings *strpool.Pool,
	tags *tagpool.Pool,
	relationsW *columns.Writer[osmflat.Relation],
	membersW *columns.MultiVectorWriter,
	idsW *columns.Writer[uint64],
	st *stats.Stats,
) error {
	for _, r := range rb.relations {
		if dense, ok := relationIDs.Get(r.id); !ok || int64(dense) != relationsW.Len() {
			return errs.New(errs.Internal, "dense relation index diverged from pre-pass ordering")
		}

		row := osmflat.Relation{
			TagFirstIdx:    tags.NextIndex(),
			MemberFirstIdx: uint64(membersW.Len()),
		}
		for i := range r.keys {
			k := internString(strings, rb.strTable, r.keys[i])
			v := internString(strings, rb.strTable, r.vals[i])
			tags.Serialize(k, v)
		}
		for _, m := range r.members {
			member := columns.Member{Kind: m.kind, TargetIdx: m.idx, HasTarget: m.ok, RoleOffset: internString(strings, rb.strTable, m.role)}
			if !m.ok {
				member.TargetIdx = osmflat.AbsentIndex
				switch m.kind {
				case columns.MemberKindNode:
					st.AddUnresolvedNode()
				case columns.MemberKindWay:
					st.AddUnresolvedWay()
				case columns.MemberKindRelation:
					st.AddUnresolvedRelation()
				}
			}
			if _, err := membersW.Append(member); err != nil {
				return err
			}
		}
		if _, err := relationsW.Append(row); err != nil {
			return err
		}
		if idsW != nil {
			if _, err := idsW.Append(uint64(r.id)); err != nil {
				return err
			}
		}
		st.AddRelation()
	}
	return nil
}

// CloseRelations appends the sentinel relation row.
func CloseRelations(tags *tagpool.Pool, membersW *columns.MultiVectorWriter, relationsW *columns.Writer[osmflat.Relation]) error {
	_, err := relationsW.Append(osmflat.Relation{
		TagFirstIdx:    tags.NextIndex(),
		MemberFirstIdx: uint64(membersW.Len()),
	})
	return err
}
