// Package session connects executors to a graph database. Every transport
// implements executor.Session and has a matching executor.SessionFactory.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-graphsink/pkg/config"
	"github.com/dd0wney/cluso-graphsink/pkg/executor"
	"github.com/dd0wney/cluso-graphsink/pkg/logging"
	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
)

var (
	ErrUnknownType = errors.New("unknown session type")
	ErrClosed      = errors.New("session is closed")
)

// Session types accepted in configuration.
const (
	TypeHTTP = "http"
	TypeAGE  = "age"
	TypeNNG  = "nng"
)

type common struct {
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures a factory.
type Option func(*common)

func WithLogger(logger logging.Logger) Option {
	return func(c *common) { c.logger = logger }
}

func WithMetrics(reg *metrics.Registry) Option {
	return func(c *common) { c.metrics = reg }
}

func newCommon(sessionType string, opts []Option) common {
	var c common
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = logging.OrNop(c.logger).With(logging.Component("session"), logging.String("session_type", sessionType))
	return c
}

func (c common) opened(sessionType string, err error) {
	if err != nil {
		c.metrics.RecordSessionOpen(sessionType, "error")
		c.logger.Error("failed to open session", logging.Error(err))
		return
	}
	c.metrics.RecordSessionOpen(sessionType, "success")
	c.logger.Debug("session opened")
}

// NewFactory builds the factory selected by cfg.Type.
func NewFactory(cfg config.Session, opts ...Option) (executor.SessionFactory, error) {
	switch cfg.Type {
	case TypeHTTP:
		return NewHTTPFactory(cfg, opts...)
	case TypeAGE:
		return NewAGEFactory(cfg, opts...), nil
	case TypeNNG:
		return NewNNGFactory(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
	}
}

// useSpace switches an nGQL session to space. The statement must succeed.
func useSpace(ctx context.Context, s executor.Session, space string) error {
	res, err := s.Execute(ctx, "USE "+space)
	if err != nil {
		return fmt.Errorf("failed to use space %s: %w", space, err)
	}
	if !res.Succeeded {
		return fmt.Errorf("failed to use space %s: code %d: %s", space, res.ErrorCode, res.ErrorMessage)
	}
	return nil
}
