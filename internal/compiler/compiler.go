// Package compiler implements spec.md §4.G: the archive assembler that
// drives the block index, coordinate scale reconciliation and the three
// entity phases from internal/serialize, then flushes the shared pools and
// self-verifies the result.
package compiler

import (
	"context"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"

	"github.com/osmflat/osmflatgo/internal/blockindex"
	"github.com/osmflat/osmflatgo/internal/columns"
	"github.com/osmflat/osmflatgo/internal/coordscale"
	"github.com/osmflat/osmflatgo/internal/errs"
	"github.com/osmflat/osmflatgo/internal/idtable"
	"github.com/osmflat/osmflatgo/internal/pipeline"
	"github.com/osmflat/osmflatgo/internal/serialize"
	"github.com/osmflat/osmflatgo/internal/stats"
	"github.com/osmflat/osmflatgo/internal/strpool"
	"github.com/osmflat/osmflatgo/internal/tagpool"
	"github.com/osmflat/osmflatgo/osmflat"
)

// Options configures one compile (spec.md §6 CLI surface).
type Options struct {
	InputPath string
	OutputDir string
	EmitIDs   bool // SUPPLEMENTED FEATURES #2
	Workers   int
}

// Compile runs the full archive assembly and returns the tally that
// cmd/osmflatc prints on success (spec.md §7).
func Compile(ctx context.Context, opts Options, logger *zap.Logger) (*stats.Stats, error) {
	in, err := os.Open(opts.InputPath)
	if err != nil {
		return nil, errs.Wrap(errs.ResourceIO, err, "open input")
	}
	defer in.Close()

	data, err := mmap.Map(in, mmap.RDONLY, 0)
	if err != nil {
		return nil, errs.Wrap(errs.ResourceIO, err, "mmap input")
	}
	defer data.Unmap()

	idx, err := blockindex.Build(data, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("block index built", zap.Int("blocks", len(idx.Descriptors)))

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ResourceIO, err, "create output dir")
	}
	if opts.EmitIDs {
		if err := os.MkdirAll(filepath.Join(opts.OutputDir, "ids"), 0o755); err != nil {
			return nil, errs.Wrap(errs.ResourceIO, err, "create ids dir")
		}
	}

	strings := strpool.New()

	header, err := decodeHeader(data, idx, strings)
	if err != nil {
		return nil, err
	}

	archiveScale, err := coordscale.Reconcile(data, idx)
	if err != nil {
		return nil, err
	}
	header.CoordScale = archiveScale
	logger.Info("coordinate scale reconciled", zap.Int64("archive_scale", archiveScale))

	st := &stats.Stats{}
	tags := tagpool.New()
	nodeIDs := idtable.New()
	wayIDs := idtable.New()
	relationIDs := idtable.New()
	pipelineOpts := pipeline.Options{Workers: opts.Workers}

	if err := runNodesPhase(ctx, data, idx, archiveScale, strings, tags, nodeIDs, opts, st, pipelineOpts, logger); err != nil {
		return nil, err
	}
	if err := runWaysPhase(ctx, data, idx, nodeIDs, wayIDs, strings, tags, opts, st, pipelineOpts, logger); err != nil {
		return nil, err
	}
	if err := runRelationsPhase(ctx, data, idx, nodeIDs, wayIDs, relationIDs, strings, tags, opts, st, pipelineOpts, logger); err != nil {
		return nil, err
	}

	if err := flushPools(opts.OutputDir, header, strings, tags, st, opts.EmitIDs, archiveScale); err != nil {
		return nil, err
	}

	archive, err := osmflat.Open(opts.OutputDir)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "self-verify compiled archive")
	}
	if err := archive.Close(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "close self-verified archive")
	}

	logger.Info("compile complete",
		zap.Int64("nodes", st.Nodes()), zap.Int64("ways", st.Ways()), zap.Int64("relations", st.Relations()),
		zap.Int64("unresolved_nodes", st.UnresolvedNodes()),
		zap.Int64("unresolved_ways", st.UnresolvedWays()),
		zap.Int64("unresolved_relations", st.UnresolvedRelations()),
	)
	return st, nil
}

func runNodesPhase(
	ctx context.Context, data mmap.MMap, idx *blockindex.Index, archiveScale int64,
	strings *strpool.Pool, tags *tagpool.Pool, nodeIDs *idtable.Table,
	opts Options, st *stats.Stats, pipelineOpts pipeline.Options, logger *zap.Logger,
) error {
	blocks := idx.ForType(blockindex.TypeDenseNodes)
	logger.Info("nodes phase starting", zap.Int("blocks", len(blocks)))

	nodesW, err := columns.CreateWriter[osmflat.Node](filepath.Join(opts.OutputDir, "nodes"))
	if err != nil {
		return err
	}
	var idsW *columns.Writer[uint64]
	if opts.EmitIDs {
		if idsW, err = columns.CreateWriter[uint64](filepath.Join(opts.OutputDir, "ids", "nodes")); err != nil {
			return err
		}
	}

	if err := serialize.Nodes(ctx, data, blocks, archiveScale, strings, tags, nodeIDs, nodesW, idsW, st, pipelineOpts); err != nil {
		return err
	}
	if err := serialize.CloseNodes(tags, nodesW); err != nil {
		return err
	}
	nodeIDs.Build()

	if err := nodesW.Close(); err != nil {
		return err
	}
	if idsW != nil {
		if err := idsW.Close(); err != nil {
			return err
		}
	}
	logger.Info("nodes phase complete", zap.Int64("rows", st.Nodes()))
	return nil
}

func runWaysPhase(
	ctx context.Context, data mmap.MMap, idx *blockindex.Index, nodeIDs, wayIDs *idtable.Table,
	strings *strpool.Pool, tags *tagpool.Pool,
	opts Options, st *stats.Stats, pipelineOpts pipeline.Options, logger *zap.Logger,
) error {
	blocks := idx.ForType(blockindex.TypeWays)
	logger.Info("ways phase starting", zap.Int("blocks", len(blocks)))

	waysW, err := columns.CreateWriter[osmflat.Way](filepath.Join(opts.OutputDir, "ways"))
	if err != nil {
		return err
	}
	nodeIndexW, err := columns.CreateWriter[uint64](filepath.Join(opts.OutputDir, "nodes_index"))
	if err != nil {
		return err
	}
	var idsW *columns.Writer[uint64]
	if opts.EmitIDs {
		if idsW, err = columns.CreateWriter[uint64](filepath.Join(opts.OutputDir, "ids", "ways")); err != nil {
			return err
		}
	}

	if err := serialize.Ways(ctx, data, blocks, nodeIDs, wayIDs, strings, tags, waysW, nodeIndexW, idsW, st, pipelineOpts); err != nil {
		return err
	}
	if err := serialize.CloseWays(tags, nodeIndexW, waysW); err != nil {
		return err
	}
	wayIDs.Build()

	if err := waysW.Close(); err != nil {
		return err
	}
	if err := nodeIndexW.Close(); err != nil {
		return err
	}
	if idsW != nil {
		if err := idsW.Close(); err != nil {
			return err
		}
	}
	logger.Info("ways phase complete", zap.Int64("rows", st.Ways()))
	return nil
}

func runRelationsPhase(
	ctx context.Context, data mmap.MMap, idx *blockindex.Index, nodeIDs, wayIDs, relationIDs *idtable.Table,
	strings *strpool.Pool, tags *tagpool.Pool,
	opts Options, st *stats.Stats, pipelineOpts pipeline.Options, logger *zap.Logger,
) error {
	blocks := idx.ForType(blockindex.TypeRelations)
	logger.Info("relations pre-pass starting", zap.Int("blocks", len(blocks)))
	if err := serialize.PreResolveRelationIDs(ctx, data, blocks, relationIDs, pipelineOpts); err != nil {
		return err
	}
	relationIDs.Build()

	relationsW, err := columns.CreateWriter[osmflat.Relation](filepath.Join(opts.OutputDir, "relations"))
	if err != nil {
		return err
	}
	membersW, err := columns.CreateMultiVectorWriter(filepath.Join(opts.OutputDir, "relation_members"))
	if err != nil {
		return err
	}
	var idsW *columns.Writer[uint64]
	if opts.EmitIDs {
		if idsW, err = columns.CreateWriter[uint64](filepath.Join(opts.OutputDir, "ids", "relations")); err != nil {
			return err
		}
	}

	logger.Info("relations phase starting", zap.Int("blocks", len(blocks)))
	if err := serialize.Relations(ctx, data, blocks, nodeIDs, wayIDs, relationIDs, strings, tags, relationsW, membersW, idsW, st, pipelineOpts); err != nil {
		return err
	}
	if err := serialize.CloseRelations(tags, membersW, relationsW); err != nil {
		return err
	}

	if err := relationsW.Close(); err != nil {
		return err
	}
	if err := membersW.Close(); err != nil {
		return err
	}
	if idsW != nil {
		if err := idsW.Close(); err != nil {
			return err
		}
	}
	logger.Info("relations phase complete", zap.Int64("rows", st.Relations()))
	return nil
}

// flushPools writes the header, string pool and tag pool columns — the only
// columns not incrementally written during a phase, since both pools are
// shared across all three phases and only stable once the last one closes —
// then the schema descriptor (spec.md §4.G "flushes the string pool").
func flushPools(outputDir string, header osmflat.Header, strings *strpool.Pool, tags *tagpool.Pool, st *stats.Stats, emitIDs bool, archiveScale int64) error {
	headerW, err := columns.CreateWriter[osmflat.Header](filepath.Join(outputDir, "header"))
	if err != nil {
		return err
	}
	if _, err := headerW.Append(header); err != nil {
		return err
	}
	if err := headerW.Close(); err != nil {
		return err
	}

	blob := strings.Finalize()
	if err := os.WriteFile(filepath.Join(outputDir, "stringtable"), blob, 0o644); err != nil {
		return errs.Wrap(errs.ResourceIO, err, "write stringtable")
	}

	tagsW, err := columns.CreateWriter[osmflat.Tag](filepath.Join(outputDir, "tags"))
	if err != nil {
		return err
	}
	for _, t := range tags.Tags() {
		if _, err := tagsW.Append(osmflat.Tag{KeyOffset: t.KeyOffset, ValOffset: t.ValOffset}); err != nil {
			return err
		}
	}
	if err := tagsW.Close(); err != nil {
		return err
	}

	tagIndexW, err := columns.CreateWriter[uint64](filepath.Join(outputDir, "tags_index"))
	if err != nil {
		return err
	}
	for _, idx := range tags.TagIndex() {
		if _, err := tagIndexW.Append(idx); err != nil {
			return err
		}
	}
	if err := tagIndexW.Close(); err != nil {
		return err
	}

	schema := &columns.Schema{
		Version: columns.SchemaVersion,
		Columns: map[string]int{
			"header":           int(unsafe.Sizeof(osmflat.Header{})),
			"nodes":            int(unsafe.Sizeof(osmflat.Node{})),
			"ways":             int(unsafe.Sizeof(osmflat.Way{})),
			"relations":        int(unsafe.Sizeof(osmflat.Relation{})),
			"tags":             int(unsafe.Sizeof(osmflat.Tag{})),
			"tags_index":       8,
			"nodes_index":      8,
			"relation_members": 18,
			"stringtable":      1,
		},
		RowCounts: map[string]int64{
			"header":      1,
			"nodes":       st.Nodes() + 1,
			"ways":        st.Ways() + 1,
			"relations":   st.Relations() + 1,
			"tags":        int64(len(tags.Tags())),
			"tags_index":  int64(len(tags.TagIndex())),
			"stringtable": int64(len(blob)),
		},
		HasIds:       emitIDs,
		ArchiveScale: archiveScale,
	}
	if err := columns.WriteSchema(outputDir, schema); err != nil {
		return err
	}
	return nil
}
