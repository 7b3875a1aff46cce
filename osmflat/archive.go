package osmflat

import (
	"github.com/osmflat/osmflatgo/internal/columns"
	"github.com/osmflat/osmflatgo/internal/errs"
)

// Archive is a memory-mapped, read-only view of a compiled archive
// directory. Every accessor returns slices borrowed from the mmap; the
// Archive must outlive any such slice (spec.md §9 "keep the output files
// open for the lifetime of any reader").
type Archive struct {
	schema *columns.Schema

	header       Header
	nodes        *columns.Reader[Node]
	ways         *columns.Reader[Way]
	relations    *columns.Reader[Relation]
	tags         *columns.Reader[Tag]
	tagIndex     *columns.Reader[uint64]
	nodeIndex    *columns.Reader[uint64]
	members      *columns.MultiVectorReader
	stringTable  []byte
	stringtableCol *columns.Reader[byte]

	idsNodes     *columns.Reader[uint64]
	idsWays      *columns.Reader[uint64]
	idsRelations *columns.Reader[uint64]
}

// Open reads the schema descriptor at dir (checking its version only), then
// maps every column, failing if a column file is missing or its size is not
// a multiple of the row width. Recorded widths and row counts in the schema
// are not checked.
func Open(dir string) (*Archive, error) {
	schema, err := columns.ReadSchema(dir)
	if err != nil {
		return nil, err
	}

	a := &Archive{schema: schema}

	headerCol, err := columns.OpenReader[Header](dir + "/header")
	if err != nil {
		return nil, err
	}
	defer headerCol.Close()
	if headerCol.Len() != 1 {
		return nil, errs.New(errs.InvalidInput, "archive header column must have exactly one row")
	}
	a.header = headerCol.Rows()[0]

	if a.nodes, err = columns.OpenReader[Node](dir + "/nodes"); err != nil {
		return nil, err
	}
	if a.ways, err = columns.OpenReader[Way](dir + "/ways"); err != nil {
		return nil, err
	}
	if a.relations, err = columns.OpenReader[Relation](dir + "/relations"); err != nil {
		return nil, err
	}
	if a.tags, err = columns.OpenReader[Tag](dir + "/tags"); err != nil {
		return nil, err
	}
	if a.tagIndex, err = columns.OpenReader[uint64](dir + "/tags_index"); err != nil {
		return nil, err
	}
	if a.nodeIndex, err = columns.OpenReader[uint64](dir + "/nodes_index"); err != nil {
		return nil, err
	}
	if a.members, err = columns.OpenMultiVectorReader(dir + "/relation_members"); err != nil {
		return nil, err
	}
	stringtableCol, err := columns.OpenReader[byte](dir + "/stringtable")
	if err != nil {
		return nil, err
	}
	a.stringTable = stringtableCol.Rows()
	// Intentionally not closed via the Reader's mmap lifecycle finalizer
	// since we keep a live slice into it; Close() below unmaps it.
	a.stringtableCol = stringtableCol

	if schema.HasIds {
		if a.idsNodes, err = columns.OpenReader[uint64](dir + "/ids/nodes"); err != nil {
			return nil, err
		}
		if a.idsWays, err = columns.OpenReader[uint64](dir + "/ids/ways"); err != nil {
			return nil, err
		}
		if a.idsRelations, err = columns.OpenReader[uint64](dir + "/ids/relations"); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Header returns the archive's single header row.
func (a *Archive) Header() Header { return a.header }

// Nodes returns every node row, including the trailing sentinel.
func (a *Archive) Nodes() []Node { return a.nodes.Rows() }

// Ways returns every way row, including the trailing sentinel.
func (a *Archive) Ways() []Way { return a.ways.Rows() }

// Relations returns every relation row, including the trailing sentinel.
func (a *Archive) Relations() []Relation { return a.relations.Rows() }

// NodeTags returns the tag range belonging to node i (0-based, excluding the
// sentinel row).
func (a *Archive) NodeTags(i int) Tags {
	rows := a.nodes.Rows()
	return a.tagsFor(rows[i].TagFirstIdx, rows[i+1].TagFirstIdx)
}

// WayTags returns the tag range belonging to way i.
func (a *Archive) WayTags(i int) Tags {
	rows := a.ways.Rows()
	return a.tagsFor(rows[i].TagFirstIdx, rows[i+1].TagFirstIdx)
}

// RelationTags returns the tag range belonging to relation i.
func (a *Archive) RelationTags(i int) Tags {
	rows := a.relations.Rows()
	return a.tagsFor(rows[i].TagFirstIdx, rows[i+1].TagFirstIdx)
}

// WayRefs returns the dense node indices referenced by way i, with
// AbsentIndex for any unresolved reference.
func (a *Archive) WayRefs(i int) []uint64 {
	rows := a.ways.Rows()
	start, end := rows[i].RefFirstIdx, rows[i+1].RefFirstIdx
	return a.nodeIndex.Rows()[start:end]
}

// Members exposes the raw flat relation_members multi-vector; most callers
// want RelationMembers instead, which slices it for one relation.
func (a *Archive) Members() *columns.MultiVectorReader { return a.members }

// RelationMembers returns the members belonging to relation i, in
// membership order (spec.md §3: "Member list is obtained from a separate
// multi-vector indexed by the relation's row number").
func (a *Archive) RelationMembers(i int) []columns.Member {
	rows := a.relations.Rows()
	start, end := rows[i].MemberFirstIdx, rows[i+1].MemberFirstIdx
	out := make([]columns.Member, 0, end-start)
	for idx := start; idx < end; idx++ {
		out = append(out, a.members.At(int(idx)))
	}
	return out
}

// StringAt returns the full suffix of the string pool starting at off; it is
// NOT trimmed to the string's own length (spec.md §4.H rationale).
func (a *Archive) StringAt(off uint64) []byte {
	if off >= uint64(len(a.stringTable)) {
		return nil
	}
	return a.stringTable[off:]
}

func (a *Archive) tagsFor(start, end uint64) Tags {
	idx := a.tagIndex.Rows()[start:end]
	return Tags{idx: idx, tags: a.tags.Rows(), strings: a.stringTable}
}

// OriginalNodeID, OriginalWayID, OriginalRelationID return the source OSM id
// preserved in the optional --ids side archive. ok is false if the archive
// was compiled without --ids.
func (a *Archive) OriginalNodeID(i int) (id uint64, ok bool) {
	return idLookup(a.idsNodes, i)
}
func (a *Archive) OriginalWayID(i int) (id uint64, ok bool) {
	return idLookup(a.idsWays, i)
}
func (a *Archive) OriginalRelationID(i int) (id uint64, ok bool) {
	return idLookup(a.idsRelations, i)
}

func idLookup(col *columns.Reader[uint64], i int) (uint64, bool) {
	if col == nil {
		return 0, false
	}
	rows := col.Rows()
	if i < 0 || i >= len(rows) {
		return 0, false
	}
	return rows[i], true
}

// Close unmaps every column. The Archive must not be used afterward.
func (a *Archive) Close() error {
	var first error
	record := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	record(a.nodes.Close())
	record(a.ways.Close())
	record(a.relations.Close())
	record(a.tags.Close())
	record(a.tagIndex.Close())
	record(a.nodeIndex.Close())
	record(a.members.Close())
	record(a.stringtableCol.Close())
	if a.idsNodes != nil {
		record(a.idsNodes.Close())
	}
	if a.idsWays != nil {
		record(a.idsWays.Close())
	}
	if a.idsRelations != nil {
		record(a.idsRelations.Close())
	}
	return first
}
