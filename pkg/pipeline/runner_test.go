package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-graphsink/pkg/executor"
	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
	"github.com/dd0wney/cluso-graphsink/pkg/options"
	"github.com/dd0wney/cluso-graphsink/pkg/sink"
)

type recordingSession struct {
	mu         sync.Mutex
	statements []string
	fail       bool
}

func (r *recordingSession) Execute(_ context.Context, stmt string) (*executor.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, stmt)
	if r.fail {
		return &executor.Result{ErrorCode: -1005, ErrorMessage: "ExecutionError"}, nil
	}
	return &executor.Result{Succeeded: true}, nil
}

func (r *recordingSession) Close() error { return nil }

func (r *recordingSession) all() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.statements, "\n")
}

func playerFactory(t *testing.T, session *recordingSession, batchSize int) SinkFactory {
	return func(index, parallelism int) (*sink.Sink, error) {
		vopts := options.Vertex{
			Execution: options.Execution{
				Label:     "player",
				Fields:    []string{"name"},
				Positions: []int{1},
				BatchSize: batchSize,
			},
		}
		factory := executor.SessionFactoryFunc(func(context.Context) (executor.Session, error) {
			return session, nil
		})
		exec, err := executor.NewVertexExecutor(vopts, factory)
		if err != nil {
			return nil, err
		}
		return sink.New(exec), nil
	}
}

func playerRows(n int) []graph.Row {
	rows := make([]graph.Row, n)
	for i := range rows {
		rows[i] = graph.Row{fmt.Sprintf("player%d", i), fmt.Sprintf("name%d", i)}
	}
	return rows
}

func TestRunnerWritesEveryRow(t *testing.T) {
	session := &recordingSession{}
	reg := metrics.NewRegistry()
	r := NewRunner(NewSliceSource(playerRows(25)...), playerFactory(t, session, 4),
		WithParallelism(3), WithMetrics(reg))

	require.NoError(t, r.Run(context.Background()))

	written := session.all()
	for i := 0; i < 25; i++ {
		assert.Contains(t, written, fmt.Sprintf(`"player%d"`, i))
	}
	assert.Equal(t, int64(1), r.LastCheckpointID())

	statuses := r.Statuses()
	require.Len(t, statuses, 3)
	for _, st := range statuses {
		assert.Zero(t, st.Pending)
		assert.False(t, st.Failed)
	}

	var m dto.Metric
	require.NoError(t, reg.CheckpointsTotal.WithLabelValues("success").Write(&m))
	assert.Equal(t, float64(1), m.Counter.GetValue())
}

func TestRunnerStopsOnSinkFailure(t *testing.T) {
	session := &recordingSession{fail: true}
	r := NewRunner(NewSliceSource(playerRows(10)...), playerFactory(t, session, 1), WithParallelism(2))

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sink.ErrSinkFailed)
}

func TestRunnerCheckpointFailure(t *testing.T) {
	session := &recordingSession{fail: true}
	reg := metrics.NewRegistry()
	r := NewRunner(NewSliceSource(playerRows(2)...), playerFactory(t, session, 100),
		WithParallelism(1), WithMetrics(reg))

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sink.ErrSinkFailed)
	assert.Contains(t, err.Error(), "checkpoint 1 failed")

	var m dto.Metric
	require.NoError(t, reg.CheckpointsTotal.WithLabelValues("failure").Write(&m))
	assert.Equal(t, float64(1), m.Counter.GetValue())
}

func TestRunnerFactoryError(t *testing.T) {
	broken := func(index, parallelism int) (*sink.Sink, error) {
		return nil, errors.New("no session config")
	}
	err := NewRunner(NewSliceSource(), broken).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build subtask 0")
}

// slowSource yields a row every delay until n rows are produced.
type slowSource struct {
	n, pos int
	delay  time.Duration
}

func (s *slowSource) Next(ctx context.Context) (graph.Row, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
	}
	if s.pos >= s.n {
		return nil, io.EOF
	}
	s.pos++
	return graph.Row{fmt.Sprintf("player%d", s.pos), "x"}, nil
}

func TestRunnerPeriodicCheckpoints(t *testing.T) {
	session := &recordingSession{}
	src := &slowSource{n: 10, delay: 20 * time.Millisecond}
	r := NewRunner(src, playerFactory(t, session, 100), WithCheckpointInterval(30*time.Millisecond))

	require.NoError(t, r.Run(context.Background()))
	assert.Greater(t, r.LastCheckpointID(), int64(1))
	assert.Contains(t, session.all(), `"player10"`)
}

func TestRunnerCancelled(t *testing.T) {
	session := &recordingSession{}
	src := &slowSource{n: 1 << 30, delay: 5 * time.Millisecond}
	r := NewRunner(src, playerFactory(t, session, 100))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
