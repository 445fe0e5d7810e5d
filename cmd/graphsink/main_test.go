package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-graphsink/pkg/config"
	"github.com/dd0wney/cluso-graphsink/pkg/deadletter"
	"github.com/dd0wney/cluso-graphsink/pkg/logging"
	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
	"github.com/dd0wney/cluso-graphsink/pkg/session"
	"github.com/dd0wney/cluso-graphsink/pkg/sink"
)

type fakeGraph struct {
	mu         sync.Mutex
	statements []string
	fail       bool
}

func (f *fakeGraph) handle(_ context.Context, req session.Request) session.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, req.Statement)
	if f.fail && !strings.HasPrefix(req.Statement, "USE ") {
		return session.Reply{Code: -1009, Error: "SemanticError: no such tag"}
	}
	return session.Reply{Succeeded: true}
}

func (f *fakeGraph) all() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.statements, "\n")
}

func startGraph(t *testing.T, address string, fake *fakeGraph) {
	t.Helper()
	responder, err := session.NewResponder(address, fake.handle, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = responder.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		_ = responder.Close()
		<-done
	})
}

func writeFixture(t *testing.T, address, journalDir string, rows int) (configPath, inputPath string) {
	t.Helper()
	dir := t.TempDir()

	cfg := fmt.Sprintf(`
pipeline:
  parallelism: 2
  checkpoint_interval: 1h
entity:
  kind: vertex
  space: basketball
  label: player
  fields: [name, age]
  positions: [1, 2]
  schema:
    age: int
  batch_size: 3
session:
  type: nng
  address: %s
deadletter:
  journal_dir: %s
admin:
  enabled: false
`, address, journalDir)
	configPath = filepath.Join(dir, "graphsink.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))

	var input strings.Builder
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&input, "[\"player%d\", \"name%d\", %d]\n", i, i, 20+i)
	}
	inputPath = filepath.Join(dir, "rows.jsonl")
	require.NoError(t, os.WriteFile(inputPath, []byte(input.String()), 0o644))
	return configPath, inputPath
}

func TestRunWritesAllRows(t *testing.T) {
	fake := &fakeGraph{}
	startGraph(t, "inproc://graphsink-main-ok", fake)
	configPath, inputPath := writeFixture(t, "inproc://graphsink-main-ok", t.TempDir(), 10)

	require.NoError(t, run(context.Background(), configPath, inputPath, logging.NewNopLogger()))

	written := fake.all()
	assert.Contains(t, written, "USE basketball")
	for i := 0; i < 10; i++ {
		assert.Contains(t, written, fmt.Sprintf(`"player%d":("name%d", %d)`, i, i, 20+i))
	}
}

func TestRunFailsOnRejectedBatch(t *testing.T) {
	fake := &fakeGraph{fail: true}
	startGraph(t, "inproc://graphsink-main-fail", fake)
	journalDir := t.TempDir()
	configPath, inputPath := writeFixture(t, "inproc://graphsink-main-fail", journalDir, 6)

	err := run(context.Background(), configPath, inputPath, logging.NewNopLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, sink.ErrSinkFailed)

	entries, err := deadletter.ReadJournal(filepath.Join(journalDir, deadletter.JournalFile))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "player", entries[0].Batch.Label)
	assert.Contains(t, entries[0].Batch.Error, "SemanticError")
}

func TestRunBadConfig(t *testing.T) {
	err := run(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), "-", logging.NewNopLogger())
	assert.Error(t, err)
}

func TestOpenRecorder(t *testing.T) {
	reg := metrics.NewRegistry()

	rec, err := openRecorder(context.Background(), config.DeadLetterConfig{}, reg)
	require.NoError(t, err)
	assert.IsType(t, deadletter.Nop{}, rec)

	rec, err = openRecorder(context.Background(), config.DeadLetterConfig{JournalDir: t.TempDir()}, reg)
	require.NoError(t, err)
	assert.IsType(t, &deadletter.Journal{}, rec)
	require.NoError(t, rec.Close())

	rec, err = openRecorder(context.Background(), config.DeadLetterConfig{
		JournalDir: t.TempDir(),
		S3: &config.S3Config{
			Bucket:          "failed-batches",
			Region:          "us-east-1",
			Endpoint:        "http://127.0.0.1:9000",
			AccessKeyID:     "minio",
			SecretAccessKey: "minio123",
			UsePathStyle:    true,
		},
	}, reg)
	require.NoError(t, err)
	assert.IsType(t, deadletter.Multi{}, rec)
	require.NoError(t, rec.Close())
}
