// Package executor accumulates converted entities and writes them as one
// statement per batch.
//
// A BatchExecutor is not safe for concurrent use; the sink serializes calls.
package executor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dd0wney/cluso-graphsink/pkg/convert"
	"github.com/dd0wney/cluso-graphsink/pkg/deadletter"
	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/logging"
	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
	"github.com/dd0wney/cluso-graphsink/pkg/options"
	"github.com/dd0wney/cluso-graphsink/pkg/statement"
)

// Converter turns a row into an entity of type E.
type Converter[E any] interface {
	Convert(row graph.Row) (E, error)
}

// Renderer renders a non-empty batch into one statement.
type Renderer[E any] func(mode graph.WriteMode, batch []E) (string, error)

// BatchExecutor buffers entities of one kind and executes them in batches.
type BatchExecutor[E any] struct {
	opts    options.Execution
	kind    graph.EntityKind
	conv    Converter[E]
	render  Renderer[E]
	factory SessionFactory

	session Session
	buffer  []E
	subtask string

	logger   logging.Logger
	metrics  *metrics.Registry
	recorder deadletter.Recorder
}

type config struct {
	logger   logging.Logger
	metrics  *metrics.Registry
	recorder deadletter.Recorder
}

// Option configures a BatchExecutor.
type Option func(*config)

func WithLogger(logger logging.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func WithMetrics(reg *metrics.Registry) Option {
	return func(c *config) { c.metrics = reg }
}

// WithRecorder hands every failed batch to r.
func WithRecorder(r deadletter.Recorder) Option {
	return func(c *config) { c.recorder = r }
}

// New creates an executor from its parts. Most callers want NewVertexExecutor
// or NewEdgeExecutor.
func New[E any](opts options.Execution, conv Converter[E], render Renderer[E], factory SessionFactory, optFns ...Option) *BatchExecutor[E] {
	cfg := config{}
	for _, fn := range optFns {
		fn(&cfg)
	}
	if cfg.recorder == nil {
		cfg.recorder = deadletter.Nop{}
	}

	opts = opts.WithDefaults()
	return &BatchExecutor[E]{
		opts:     opts,
		conv:     conv,
		render:   render,
		factory:  factory,
		buffer:   make([]E, 0, min(opts.BatchSize, 4096)),
		subtask:  "0/1",
		logger:   logging.OrNop(cfg.logger),
		metrics:  cfg.metrics,
		recorder: cfg.recorder,
	}
}

// checkRenderable rejects a dialect and write mode pair with no renderer, so
// the mistake surfaces at construction rather than on the first flush.
func checkRenderable(opts options.Execution) error {
	if !statement.Supports(opts.Dialect, opts.WriteMode) {
		return fmt.Errorf("%w: %w: %s (dialect %s)",
			options.ErrInvalidOptions, ErrUnsupportedWriteMode, opts.WriteMode, opts.Dialect)
	}
	return nil
}

// NewVertexExecutor validates opts and builds a vertex executor.
func NewVertexExecutor(opts options.Vertex, factory SessionFactory, optFns ...Option) (*BatchExecutor[graph.Vertex], error) {
	opts.Execution = opts.Execution.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkRenderable(opts.Execution); err != nil {
		return nil, err
	}

	target := statement.TargetOf(opts.Execution)
	dialect := opts.Dialect
	render := func(mode graph.WriteMode, batch []graph.Vertex) (string, error) {
		return statement.Vertices(dialect, mode, target, batch)
	}

	b := New[graph.Vertex](opts.Execution, convert.NewVertexConverter(opts), render, factory, optFns...)
	b.kind = graph.KindVertex
	return b, nil
}

// NewEdgeExecutor validates opts and builds an edge executor.
func NewEdgeExecutor(opts options.Edge, factory SessionFactory, optFns ...Option) (*BatchExecutor[graph.Edge], error) {
	opts.Execution = opts.Execution.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkRenderable(opts.Execution); err != nil {
		return nil, err
	}

	target := statement.TargetOf(opts.Execution)
	dialect := opts.Dialect
	render := func(mode graph.WriteMode, batch []graph.Edge) (string, error) {
		return statement.Edges(dialect, mode, target, batch)
	}

	b := New[graph.Edge](opts.Execution, convert.NewEdgeConverter(opts), render, factory, optFns...)
	b.kind = graph.KindEdge
	return b, nil
}

// Open establishes the executor's session for the given subtask.
func (b *BatchExecutor[E]) Open(ctx context.Context, subtask, parallelism int) error {
	b.subtask = strconv.Itoa(subtask) + "/" + strconv.Itoa(parallelism)
	b.logger = b.logger.With(
		logging.Component("executor"),
		logging.Label(b.opts.Label),
		logging.Subtask(subtask, parallelism),
	)

	session, err := b.factory.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	b.session = session

	b.logger.Info("executor opened",
		logging.WriteMode(b.opts.WriteMode.String()),
		logging.BatchSize(b.opts.BatchSize),
		logging.String("dialect", b.opts.Dialect.String()))
	return nil
}

// AddToBatch converts row and buffers it. A row that cannot be converted is
// dropped without an error. Reaching the batch size executes the batch and
// returns its outcome.
func (b *BatchExecutor[E]) AddToBatch(ctx context.Context, row graph.Row) error {
	b.metrics.RecordRecord(b.opts.Label)

	entity, err := b.conv.Convert(row)
	if err != nil {
		reason := convert.Reason(err)
		b.metrics.RecordDropped(b.opts.Label, reason)
		b.logger.Debug("dropping record", logging.Reason(reason), logging.Error(err))
		return nil
	}

	b.buffer = append(b.buffer, entity)
	b.metrics.SetPending(b.opts.Label, b.subtask, len(b.buffer))

	if len(b.buffer) < b.opts.BatchSize {
		return nil
	}
	if b.session == nil {
		return ErrNotOpen
	}
	_, err = b.ExecuteBatch(ctx, b.session)
	return err
}

// ExecuteBatch renders the buffer into one statement and executes it on s.
//
// An empty buffer returns ("", nil) without touching s. A render failure
// leaves the buffer as it is. Otherwise the buffer is cleared whatever the
// outcome; on failure the rendered statement is returned with an *ExecError.
func (b *BatchExecutor[E]) ExecuteBatch(ctx context.Context, s Session) (string, error) {
	if len(b.buffer) == 0 {
		return "", nil
	}

	start := time.Now()
	stmt, err := b.render(b.opts.WriteMode, b.buffer)
	if err != nil {
		return "", err
	}

	size := len(b.buffer)
	res, err := s.Execute(ctx, stmt)

	clear(b.buffer)
	b.buffer = b.buffer[:0]
	b.metrics.SetPending(b.opts.Label, b.subtask, 0)

	mode := b.opts.WriteMode.String()
	var cause error
	switch {
	case err != nil:
		cause = err
		b.metrics.RecordBatch(b.opts.Label, mode, "error", size, time.Since(start))
	case !res.Succeeded:
		cause = statementFailed(res)
		b.metrics.RecordBatch(b.opts.Label, mode, "failed", size, time.Since(start))
	default:
		b.metrics.RecordBatch(b.opts.Label, mode, "success", size, time.Since(start))
		b.metrics.ObserveSessionLatency(b.opts.Label, res.Latency)
		b.logger.Debug("batch executed", logging.BatchSize(size), logging.Latency(time.Since(start)))
		return "", nil
	}

	b.logger.Error("batch execution failed",
		logging.BatchSize(size),
		logging.Statement(stmt),
		logging.Error(cause))
	b.deadLetter(ctx, stmt, size, cause)

	return stmt, &ExecError{Statement: stmt, Cause: cause}
}

func (b *BatchExecutor[E]) deadLetter(ctx context.Context, stmt string, size int, cause error) {
	err := b.recorder.Record(ctx, deadletter.FailedBatch{
		Subtask:   b.subtask,
		Label:     b.opts.Label,
		Kind:      b.kind.String(),
		Mode:      b.opts.WriteMode.String(),
		Size:      size,
		Statement: stmt,
		Error:     cause.Error(),
	})
	if err != nil {
		b.logger.Warn("failed to record dead-letter batch", logging.Error(err))
	}
}

// Flush executes whatever is buffered, regardless of size.
func (b *BatchExecutor[E]) Flush(ctx context.Context) error {
	if b.session == nil {
		return ErrNotOpen
	}
	_, err := b.ExecuteBatch(ctx, b.session)
	return err
}

// Len returns the number of buffered entities.
func (b *BatchExecutor[E]) Len() int {
	return len(b.buffer)
}

// Describe returns the label and write mode for status reporting.
func (b *BatchExecutor[E]) Describe() (label, mode string) {
	return b.opts.Label, b.opts.WriteMode.String()
}

// Close discards buffered entities and closes the session.
func (b *BatchExecutor[E]) Close() error {
	if n := len(b.buffer); n > 0 {
		b.logger.Warn("discarding buffered entities on close", logging.BatchSize(n))
	}
	clear(b.buffer)
	b.buffer = b.buffer[:0]
	b.metrics.SetPending(b.opts.Label, b.subtask, 0)

	if b.session == nil {
		return nil
	}
	err := b.session.Close()
	b.session = nil
	return err
}
