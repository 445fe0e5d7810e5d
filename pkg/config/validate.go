package config

import (
	"fmt"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/options"
	"github.com/dd0wney/cluso-graphsink/pkg/statement"
	"github.com/dd0wney/cluso-graphsink/pkg/validation"
)

// MinJWTSecretLength matches the HS256 key length the graph database enforces.
const MinJWTSecretLength = 32

// Validate checks struct tags first, then the cross-field rules, then the
// derived executor options.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	dialect, dialectErr := options.ParseDialect(c.Entity.Dialect)
	mode, modeErr := graph.ParseWriteMode(c.Entity.WriteMode)

	cv := validation.NewConfigValidator("config")
	cv.Custom("entity.dialect", func() error { return dialectErr }).
		Custom("entity.write_mode", func() error { return modeErr }).
		When(dialectErr == nil && modeErr == nil, func(cv *validation.ConfigValidator) {
			cv.Custom("entity.write_mode", func() error {
				if !statement.Supports(dialect, mode) {
					return fmt.Errorf("%s is not supported by the %s dialect", mode, dialect)
				}
				return nil
			})
		}).
		NonNegativeDuration("entity.batch_interval", c.Entity.BatchInterval).
		NonNegativeDuration("pipeline.checkpoint_interval", c.Pipeline.CheckpointInterval).
		When(c.Session.Type == "http", func(cv *validation.ConfigValidator) {
			cv.MinLen("session.jwt_secret", c.Session.JWTSecret, MinJWTSecretLength)
		}).
		When(c.Session.Type == "age", func(cv *validation.ConfigValidator) {
			cv.Identifier("session.graph", c.Session.Graph, validation.ValidateSpace)
			cv.Custom("entity.dialect", func() error {
				if dialectErr == nil && dialect != options.DialectCypher {
					return fmt.Errorf("age sessions speak cypher, not %s", dialect)
				}
				return nil
			})
		}).
		When(c.Session.Type == "http", func(cv *validation.ConfigValidator) {
			cv.Custom("entity.dialect", func() error {
				if dialectErr == nil && dialect != options.DialectCypher {
					return fmt.Errorf("http sessions speak cypher, not %s", dialect)
				}
				return nil
			})
		})

	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Kind() {
	case graph.KindEdge:
		opts, err := c.EdgeOptions()
		if err != nil {
			return err
		}
		if err := opts.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	default:
		opts, err := c.VertexOptions()
		if err != nil {
			return err
		}
		if err := opts.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
