package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/logging"
	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
	"github.com/dd0wney/cluso-graphsink/pkg/partition"
	"github.com/dd0wney/cluso-graphsink/pkg/sink"
)

// DefaultQueueSize is the per-subtask row buffer.
const DefaultQueueSize = 256

// SinkFactory builds the sink for one subtask.
type SinkFactory func(index, parallelism int) (*sink.Sink, error)

// Runner drives rows from a source into parallel sink subtasks and issues
// checkpoint barriers.
type Runner struct {
	source             Source
	factory            SinkFactory
	parallelism        int
	partitioner        partition.PartitionStrategy
	checkpointInterval time.Duration
	queueSize          int
	logger             logging.Logger
	metrics            *metrics.Registry

	mu           sync.RWMutex
	sinks        []*sink.Sink
	checkpointID int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithParallelism sets the number of subtasks.
func WithParallelism(n int) Option {
	return func(r *Runner) { r.parallelism = n }
}

// WithPartitioner overrides hash partitioning on column 0.
func WithPartitioner(p partition.PartitionStrategy) Option {
	return func(r *Runner) { r.partitioner = p }
}

// WithCheckpointInterval sets the barrier period. Zero checkpoints only at
// end of input.
func WithCheckpointInterval(d time.Duration) Option {
	return func(r *Runner) { r.checkpointInterval = d }
}

// WithQueueSize sets the per-subtask row buffer.
func WithQueueSize(n int) Option {
	return func(r *Runner) { r.queueSize = n }
}

func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) { r.logger = logging.OrNop(logger) }
}

func WithMetrics(reg *metrics.Registry) Option {
	return func(r *Runner) { r.metrics = reg }
}

// NewRunner creates a runner over source.
func NewRunner(source Source, factory SinkFactory, opts ...Option) *Runner {
	r := &Runner{
		source:      source,
		factory:     factory,
		parallelism: 1,
		queueSize:   DefaultQueueSize,
		logger:      logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.parallelism < 1 {
		r.parallelism = 1
	}
	if r.partitioner == nil || r.partitioner.GetPartitionCount() != r.parallelism {
		r.partitioner = partition.NewHashPartition(r.parallelism, 0)
	}
	r.logger = r.logger.With(logging.Component("pipeline"))
	return r
}

type barrier struct {
	id  int64
	ack chan error
}

type message struct {
	row     graph.Row
	barrier *barrier
}

type readResult struct {
	row graph.Row
	err error
}

// Run opens every subtask, streams the source to completion and takes a
// final checkpoint. The first sink or source error cancels the run and is
// returned. Sinks are closed before Run returns.
func (r *Runner) Run(ctx context.Context) error {
	sinks, err := r.openSinks(ctx)
	if err != nil {
		return err
	}
	defer r.closeSinks(sinks)

	g, gctx := errgroup.WithContext(ctx)

	queues := make([]chan message, len(sinks))
	for i, s := range sinks {
		i, s := i, s
		queues[i] = make(chan message, r.queueSize)
		g.Go(func() error { return r.work(gctx, s, queues[i]) })
	}

	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		return r.drive(gctx, queues)
	})

	return g.Wait()
}

// Statuses reports every subtask's sink state.
func (r *Runner) Statuses() []sink.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]sink.Status, len(r.sinks))
	for i, s := range r.sinks {
		out[i] = s.Status()
	}
	return out
}

// LastCheckpointID returns the id of the most recent barrier issued.
func (r *Runner) LastCheckpointID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checkpointID
}

func (r *Runner) openSinks(ctx context.Context) ([]*sink.Sink, error) {
	sinks := make([]*sink.Sink, 0, r.parallelism)
	for i := 0; i < r.parallelism; i++ {
		s, err := r.factory(i, r.parallelism)
		if err != nil {
			r.closeSinks(sinks)
			return nil, fmt.Errorf("failed to build subtask %d: %w", i, err)
		}
		if err := s.Open(ctx, sink.Runtime{Index: i, Parallelism: r.parallelism}); err != nil {
			r.closeSinks(append(sinks, s))
			return nil, fmt.Errorf("failed to open subtask %d: %w", i, err)
		}
		sinks = append(sinks, s)
	}

	r.mu.Lock()
	r.sinks = sinks
	r.mu.Unlock()
	return sinks, nil
}

func (r *Runner) closeSinks(sinks []*sink.Sink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			r.logger.Warn("failed to close sink", logging.Error(err))
		}
	}
}

// work feeds one subtask. Rows and barriers arrive in order on one queue,
// so a snapshot always covers every row routed before it.
func (r *Runner) work(ctx context.Context, s *sink.Sink, queue <-chan message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-queue:
			if !ok {
				return nil
			}
			if msg.barrier != nil {
				msg.barrier.ack <- s.SnapshotState(ctx, msg.barrier.id)
				continue
			}
			if err := s.Invoke(ctx, msg.row); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) drive(ctx context.Context, queues []chan message) error {
	rows := make(chan readResult)
	go r.read(ctx, rows)

	var tick <-chan time.Time
	if r.checkpointInterval > 0 {
		ticker := time.NewTicker(r.checkpointInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-tick:
			if err := r.checkpoint(ctx, queues); err != nil {
				return err
			}

		case res := <-rows:
			if errors.Is(res.err, io.EOF) {
				r.logger.Info("end of input", logging.Int("rows", count))
				return r.checkpoint(ctx, queues)
			}
			if res.err != nil {
				return fmt.Errorf("failed to read source: %w", res.err)
			}
			count++
			p := r.partitioner.GetPartition(res.row)
			if err := send(ctx, queues[p], message{row: res.row}); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) read(ctx context.Context, out chan<- readResult) {
	for {
		row, err := r.source.Next(ctx)
		select {
		case out <- readResult{row: row, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// checkpoint sends a barrier to every subtask and waits for all snapshots.
func (r *Runner) checkpoint(ctx context.Context, queues []chan message) error {
	r.mu.Lock()
	r.checkpointID++
	id := r.checkpointID
	r.mu.Unlock()

	start := time.Now()
	b := &barrier{id: id, ack: make(chan error, len(queues))}
	for _, q := range queues {
		if err := send(ctx, q, message{barrier: b}); err != nil {
			return err
		}
	}

	var errs []error
	for range queues {
		select {
		case err := <-b.ack:
			if err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := errors.Join(errs...); err != nil {
		r.metrics.RecordCheckpoint(id, "failure", time.Since(start))
		r.logger.Error("checkpoint failed", logging.CheckpointID(id), logging.Error(err))
		return fmt.Errorf("checkpoint %d failed: %w", id, err)
	}

	r.metrics.RecordCheckpoint(id, "success", time.Since(start))
	r.logger.Info("checkpoint complete", logging.CheckpointID(id), logging.Latency(time.Since(start)))
	return nil
}

func send(ctx context.Context, q chan<- message, msg message) error {
	select {
	case q <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
