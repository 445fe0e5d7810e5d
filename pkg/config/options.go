package config

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/options"
)

// Kind returns the configured entity kind.
func (c *Config) Kind() graph.EntityKind {
	kind, err := graph.ParseEntityKind(c.Entity.Kind)
	if err != nil {
		return graph.KindVertex
	}
	return kind
}

// Execution converts the entity section into shared execution options.
func (c *Config) Execution() (options.Execution, error) {
	e := c.Entity
	opts := options.Execution{
		Space:         e.Space,
		Label:         e.Label,
		Fields:        e.Fields,
		Positions:     e.Positions,
		BatchSize:     e.BatchSize,
		BatchInterval: e.BatchInterval,
	}

	var err error
	if opts.WriteMode, err = graph.ParseWriteMode(e.WriteMode); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if opts.Dialect, err = options.ParseDialect(e.Dialect); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if opts.VidType, err = graph.ParseVidType(e.VidType); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if opts.Policy, err = graph.ParsePolicy(e.Policy); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if len(e.Schema) > 0 {
		opts.Schema = make(map[string]graph.DataType, len(e.Schema))
		for field, name := range e.Schema {
			t, err := graph.ParseDataType(name)
			if err != nil {
				return opts, fmt.Errorf("%w: schema.%s: %w", ErrInvalidConfig, field, err)
			}
			opts.Schema[field] = t
		}
	}

	return opts.WithDefaults(), nil
}

// VertexOptions converts the entity section into vertex writer options.
func (c *Config) VertexOptions() (options.Vertex, error) {
	exec, err := c.Execution()
	if err != nil {
		return options.Vertex{}, err
	}
	return options.Vertex{Execution: exec, IDIndex: c.Entity.IDIndex}, nil
}

// EdgeOptions converts the entity section into edge writer options.
func (c *Config) EdgeOptions() (options.Edge, error) {
	exec, err := c.Execution()
	if err != nil {
		return options.Edge{}, err
	}
	rank := options.NoRank
	if c.Entity.RankIndex != nil {
		rank = *c.Entity.RankIndex
	}
	return options.Edge{
		Execution: exec,
		SrcIndex:  c.Entity.SrcIndex,
		DstIndex:  c.Entity.DstIndex,
		RankIndex: rank,
	}, nil
}

// FlushInterval is the interval flush period, or zero when interval flushing
// is off. A batch size of one already executes every record.
func (c *Config) FlushInterval() time.Duration {
	if c.Entity.BatchInterval <= 0 || c.BatchSize() <= 1 {
		return 0
	}
	return c.Entity.BatchInterval
}

// BatchSize returns the effective flush threshold.
func (c *Config) BatchSize() int {
	if c.Entity.BatchSize == 0 {
		return options.DefaultBatchSize
	}
	return c.Entity.BatchSize
}
