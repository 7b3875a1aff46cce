package columns

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/osmflat/osmflatgo/internal/errs"
)

// Schema is the archive's self-describing descriptor (spec.md §6 "a
// filesystem directory containing one file per named column plus a schema
// descriptor"). ReadSchema checks only its version; the recorded widths and
// row counts are not compared with the column files.
type Schema struct {
	Version     int              `yaml:"version"`
	Columns     map[string]int   `yaml:"columns"`      // name -> fixed record width in bytes
	RowCounts   map[string]int64 `yaml:"row_counts"`
	HasIds      bool             `yaml:"has_ids"`
	ArchiveScale int64           `yaml:"archive_scale"`
}

// SchemaVersion is bumped whenever the on-disk layout changes in an
// incompatible way.
const SchemaVersion = 1

const schemaFileName = "schema.yaml"

// WriteSchema serializes s to dir/schema.yaml.
func WriteSchema(dir string, s *Schema) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "marshal schema")
	}
	if err := os.WriteFile(dir+"/"+schemaFileName, b, 0o644); err != nil {
		return errs.Wrap(errs.ResourceIO, err, "write schema.yaml")
	}
	return nil
}

// ReadSchema loads and validates dir/schema.yaml.
func ReadSchema(dir string) (*Schema, error) {
	b, err := os.ReadFile(dir + "/" + schemaFileName)
	if err != nil {
		return nil, errs.Wrap(errs.ResourceIO, err, "read schema.yaml")
	}
	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "parse schema.yaml")
	}
	if s.Version != SchemaVersion {
		return nil, errs.New(errs.InvalidInput, "unsupported schema version")
	}
	return &s, nil
}
