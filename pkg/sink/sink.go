// Package sink adapts a batch executor to the pipeline's sink lifecycle:
// open, per-record invoke, checkpoint snapshot and close.
package sink

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/dd0wney/cluso-graphsink/pkg/executor"
	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/logging"
	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
)

// RuntimeContext tells a sink which parallel subtask it is.
type RuntimeContext interface {
	SubtaskIndex() int
	NumberOfParallelSubtasks() int
}

// Runtime is a fixed RuntimeContext.
type Runtime struct {
	Index       int
	Parallelism int
}

func (r Runtime) SubtaskIndex() int             { return r.Index }
func (r Runtime) NumberOfParallelSubtasks() int { return r.Parallelism }

// Executor is what the sink drives. *executor.BatchExecutor satisfies it for
// both vertices and edges.
type Executor interface {
	Open(ctx context.Context, subtask, parallelism int) error
	AddToBatch(ctx context.Context, row graph.Row) error
	Flush(ctx context.Context) error
	Len() int
	Close() error
}

type describer interface {
	Describe() (label, mode string)
}

// Status is a point-in-time view of one sink.
type Status struct {
	Subtask string
	Label   string
	Mode    string
	Pending int
	Failed  bool
	Failure string
}

// Sink is one parallel instance of the graph sink.
type Sink struct {
	exec    Executor
	failure FailureRef

	policy        FailurePolicy
	flushInterval time.Duration
	logger        logging.Logger
	metrics       *metrics.Registry

	mu      sync.Mutex
	subtask string
	closed  bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Sink.
type Option func(*Sink)

func WithLogger(logger logging.Logger) Option {
	return func(s *Sink) { s.logger = logging.OrNop(logger) }
}

func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Sink) { s.metrics = reg }
}

func WithFailurePolicy(p FailurePolicy) Option {
	return func(s *Sink) { s.policy = p }
}

// WithFlushInterval flushes the buffer every d while the sink is open.
// Zero disables the timer.
func WithFlushInterval(d time.Duration) Option {
	return func(s *Sink) { s.flushInterval = d }
}

// New wraps exec.
func New(exec Executor, opts ...Option) *Sink {
	s := &Sink{
		exec:    exec,
		logger:  logging.NewNopLogger(),
		subtask: "0/1",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens the executor for the subtask described by rc. A failure is
// recorded and reported by the next Invoke or SnapshotState; Open itself
// returns nil.
func (s *Sink) Open(ctx context.Context, rc RuntimeContext) error {
	index, parallelism := rc.SubtaskIndex(), rc.NumberOfParallelSubtasks()
	s.subtask = strconv.Itoa(index) + "/" + strconv.Itoa(parallelism)
	s.logger = s.logger.With(logging.Component("sink"), logging.Subtask(index, parallelism))

	if err := s.exec.Open(ctx, index, parallelism); err != nil {
		s.logger.Error("failed to open sink", logging.Error(err))
		s.fail("open", err)
		return nil
	}

	if s.flushInterval > 0 {
		flushCtx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.done = make(chan struct{})
		go s.runFlusher(flushCtx)
	}

	s.logger.Info("sink opened", logging.String("failure_policy", s.policy.String()))
	return nil
}

// Invoke buffers one record. It fails with ErrClosed once Close has run.
func (s *Sink) Invoke(ctx context.Context, row graph.Row) error {
	if err := s.failure.Get(); err != nil {
		return &Error{Cause: err}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &Error{Cause: ErrClosed}
	}
	err := s.exec.AddToBatch(ctx, row)
	s.mu.Unlock()

	return s.handle(ctx, "invoke", err)
}

// SnapshotState flushes the buffer and then reports any recorded failure.
func (s *Sink) SnapshotState(ctx context.Context, checkpointID int64) error {
	s.mu.Lock()
	err := s.exec.Flush(ctx)
	s.mu.Unlock()

	_ = s.handle(ctx, "flush", err)

	if err := s.failure.Get(); err != nil {
		s.logger.Error("checkpoint rejected", logging.CheckpointID(checkpointID), logging.Error(err))
		return &Error{Cause: err}
	}
	s.logger.Debug("checkpoint flushed", logging.CheckpointID(checkpointID))
	return nil
}

// InitializeState restores nothing: the sink keeps no state across restarts.
func (s *Sink) InitializeState(context.Context) error {
	return nil
}

// Close stops the interval flusher and closes the executor. Buffered
// entities are discarded.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		<-s.done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec.Close()
}

// Failure returns the recorded failure, or nil.
func (s *Sink) Failure() error {
	return s.failure.Get()
}

// Status reports the sink's current state.
func (s *Sink) Status() Status {
	s.mu.Lock()
	pending := s.exec.Len()
	s.mu.Unlock()

	st := Status{Subtask: s.subtask, Pending: pending}
	if d, ok := s.exec.(describer); ok {
		st.Label, st.Mode = d.Describe()
	}
	if err := s.failure.Get(); err != nil {
		st.Failed = true
		st.Failure = err.Error()
	}
	return st
}

// handle applies the failure policy to err. Execution failures are only
// escalated under PolicyFail; anything else always is.
func (s *Sink) handle(_ context.Context, origin string, err error) error {
	if err == nil {
		return nil
	}

	var execErr *executor.ExecError
	if errors.As(err, &execErr) && s.policy == PolicyLog {
		s.logger.Warn("batch failed, continuing", logging.String("origin", origin), logging.Error(err))
		return nil
	}

	s.fail(origin, err)
	return &Error{Cause: s.failure.Get()}
}

func (s *Sink) fail(origin string, err error) {
	if s.failure.Set(err) {
		s.metrics.RecordFailure(origin, s.label(), s.subtask)
	}
}

func (s *Sink) label() string {
	if d, ok := s.exec.(describer); ok {
		label, _ := d.Describe()
		return label
	}
	return ""
}

func (s *Sink) runFlusher(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.failure.Get() != nil {
				continue
			}

			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			err := s.exec.Flush(ctx)
			s.mu.Unlock()

			status := "success"
			if err != nil {
				status = "failed"
			}
			s.metrics.RecordIntervalFlush(s.label(), status)
			_ = s.handle(ctx, "interval", err)
		}
	}
}
