// Package options describes what a batch executor writes: the target label,
// which row positions feed which properties, how ids are produced and how the
// batch is flushed. Options are read-only once validated.
package options

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/validation"
)

const (
	DefaultBatchSize = 2000
	MaxBatchSize     = 100000
	// NoRank disables the edge rank column.
	NoRank = -1
)

var ErrInvalidOptions = errors.New("invalid execution options")

// Dialect selects the statement language spoken by the target database.
type Dialect int

const (
	// DialectNGQL renders Nebula-style INSERT/UPDATE/DELETE VERTEX|EDGE statements.
	DialectNGQL Dialect = iota
	// DialectCypher renders UNWIND/MERGE/MATCH statements.
	DialectCypher
)

func (d Dialect) String() string {
	switch d {
	case DialectNGQL:
		return "ngql"
	case DialectCypher:
		return "cypher"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// ParseDialect accepts ngql or cypher.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "ngql", "nebula", "":
		return DialectNGQL, nil
	case "cypher", "age":
		return DialectCypher, nil
	default:
		return 0, fmt.Errorf("%w: unknown dialect %q", ErrInvalidOptions, s)
	}
}

// Execution is shared by vertex and edge writers.
type Execution struct {
	Space     string
	Label     string
	Fields    []string
	Positions []int
	// Schema maps each field to its property type. Fields missing from the
	// schema are written as strings.
	Schema map[string]graph.DataType

	WriteMode     graph.WriteMode
	BatchSize     int
	BatchInterval time.Duration
	Policy        graph.Policy
	VidType       graph.VidType
	Dialect       Dialect
}

// FieldType returns the schema type of the field at index i.
func (o *Execution) FieldType(i int) graph.DataType {
	if t, ok := o.Schema[o.Fields[i]]; ok {
		return t
	}
	return graph.TypeString
}

// Validate checks label, fields and batching settings.
func (o *Execution) Validate() error {
	cv := validation.NewConfigValidator("options")
	cv.Identifier("label", o.Label, validation.ValidateLabel).
		When(o.Space != "", func(cv *validation.ConfigValidator) {
			cv.Identifier("space", o.Space, validation.ValidateSpace)
		}).
		Positive("batch_size", o.BatchSize).
		MaxInt("batch_size", o.BatchSize, MaxBatchSize).
		NonNegativeDuration("batch_interval", o.BatchInterval).
		Custom("positions", func() error {
			if len(o.Fields) != len(o.Positions) {
				return fmt.Errorf("%d fields but %d positions", len(o.Fields), len(o.Positions))
			}
			return nil
		})

	for i, f := range o.Fields {
		cv.Custom(fmt.Sprintf("fields[%d]", i), func() error {
			if strings.HasPrefix(f, "__") {
				return fmt.Errorf("field %q uses the reserved __ prefix", f)
			}
			return validation.ValidateFieldName(f)
		})
	}
	for i, p := range o.Positions {
		cv.NonNegative(fmt.Sprintf("positions[%d]", i), p)
	}
	cv.Custom("write_mode", func() error {
		if !o.WriteMode.Valid() {
			return fmt.Errorf("%w: %s", graph.ErrUnknownWriteMode, o.WriteMode)
		}
		if o.WriteMode == graph.WriteModeUpdate && len(o.Fields) == 0 {
			return errors.New("update requires at least one field")
		}
		return nil
	})
	// nGQL hash() and uuid() produce int64 ids.
	cv.When(o.Dialect == DialectNGQL && o.Policy != graph.PolicyNone, func(cv *validation.ConfigValidator) {
		cv.Custom("policy", func() error {
			if o.VidType != graph.VidInt {
				return fmt.Errorf("%s policy requires int vid type", o.Policy)
			}
			return nil
		})
	})

	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// Vertex configures a vertex (tag) writer.
type Vertex struct {
	Execution
	IDIndex int
}

func (o *Vertex) Validate() error {
	if o.IDIndex < 0 {
		return fmt.Errorf("%w: id index %d must be non-negative", ErrInvalidOptions, o.IDIndex)
	}
	return o.Execution.Validate()
}

// Edge configures an edge writer.
type Edge struct {
	Execution
	SrcIndex  int
	DstIndex  int
	RankIndex int
}

func (o *Edge) Validate() error {
	cv := validation.NewConfigValidator("options").
		NonNegative("src_index", o.SrcIndex).
		NonNegative("dst_index", o.DstIndex).
		Custom("rank_index", func() error {
			if o.RankIndex < NoRank {
				return fmt.Errorf("must be %d (no rank) or a row position", NoRank)
			}
			return nil
		})
	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return o.Execution.Validate()
}

// WithDefaults fills zero-valued batching settings.
func (o Execution) WithDefaults() Execution {
	o.BatchSize = validation.DefaultOr(o.BatchSize, DefaultBatchSize)
	return o
}
