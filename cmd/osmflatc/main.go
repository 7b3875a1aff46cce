// Command osmflatc compiles an OpenStreetMap .osm.pbf extract into a flat,
// memory-mappable columnar archive (spec.md §6).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/osmflat/osmflatgo/internal/compiler"
	"github.com/osmflat/osmflatgo/internal/logutil"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\x1b[31mError: %s\x1b[0m\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbosity int
		emitIDs   bool
	)

	cmd := &cobra.Command{
		Use:           "osmflatc <input.osm.pbf> <output_dir>",
		Short:         "Compile an OpenStreetMap PBF extract into a flat columnar archive",
		Version:       Version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.New(logutil.FromVerbosity(verbosity))
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			opts := compiler.Options{
				InputPath: args[0],
				OutputDir: args[1],
				EmitIDs:   emitIDs,
			}
			st, err := compiler.Compile(context.Background(), opts, logger)
			if err != nil {
				return err
			}

			fmt.Printf("nodes: %d (unresolved refs: %d)\n", st.Nodes(), st.UnresolvedNodes())
			fmt.Printf("ways: %d (unresolved refs: %d)\n", st.Ways(), st.UnresolvedWays())
			fmt.Printf("relations: %d (unresolved refs: %d)\n", st.Relations(), st.UnresolvedRelations())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")
	flags.BoolVar(&emitIDs, "ids", false, "also write the optional ids/ side archive mirroring original OSM ids")

	return cmd
}
