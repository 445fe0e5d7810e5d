package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-graphsink/pkg/config"
	"github.com/dd0wney/cluso-graphsink/pkg/deadletter"
	"github.com/dd0wney/cluso-graphsink/pkg/executor"
	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/graphql"
	"github.com/dd0wney/cluso-graphsink/pkg/health"
	"github.com/dd0wney/cluso-graphsink/pkg/logging"
	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
	"github.com/dd0wney/cluso-graphsink/pkg/partition"
	"github.com/dd0wney/cluso-graphsink/pkg/pipeline"
	"github.com/dd0wney/cluso-graphsink/pkg/server"
	"github.com/dd0wney/cluso-graphsink/pkg/session"
	"github.com/dd0wney/cluso-graphsink/pkg/sink"
)

func main() {
	configPath := flag.String("config", "graphsink.yaml", "Path to the YAML configuration")
	inputPath := flag.String("input", "-", "JSONL input file, one JSON array per line (- for stdin)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.DefaultLogger()
	if err := run(ctx, *configPath, *inputPath, logger); err != nil {
		logger.Error("graphsink failed", logging.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, inputPath string, logger logging.Logger) error {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if jl, ok := logger.(*logging.JSONLogger); ok && cfg.LogLevel != "" {
		jl.SetLevel(logging.ParseLevel(cfg.LogLevel))
	}
	logger.Info("graphsink starting",
		logging.String("session", cfg.Session.Type),
		logging.String("kind", cfg.Entity.Kind),
		logging.Label(cfg.Entity.Label),
		logging.Int("parallelism", cfg.Pipeline.Parallelism),
	)

	reg := metrics.DefaultRegistry()

	factory, err := session.NewFactory(cfg.Session, session.WithLogger(logger), session.WithMetrics(reg))
	if err != nil {
		return err
	}

	recorder, err := openRecorder(ctx, cfg.DeadLetter, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warn("failed to close dead-letter recorder", logging.Error(err))
		}
	}()

	sinkFactory, err := newSinkFactory(cfg, factory, recorder, logger, reg)
	if err != nil {
		return err
	}

	input, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer input.Close()

	runner := pipeline.NewRunner(
		pipeline.NewJSONLSource(input),
		sinkFactory,
		pipeline.WithParallelism(cfg.Pipeline.Parallelism),
		pipeline.WithPartitioner(partition.NewHashPartition(cfg.Pipeline.Parallelism, cfg.Pipeline.KeyColumn)),
		pipeline.WithCheckpointInterval(cfg.Pipeline.CheckpointInterval),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(reg),
	)

	adminCtx, stopAdmin := context.WithCancel(ctx)
	defer stopAdmin()
	go reg.RunSystemUpdater(adminCtx, start, 15*time.Second)

	if cfg.AdminEnabled() {
		admin, err := newAdminServer(cfg, runner, factory, reg, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := admin.Run(adminCtx); err != nil {
				logger.Error("admin server stopped", logging.Error(err))
			}
		}()
	}

	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			logger.Info("graphsink interrupted")
			return nil
		}
		return err
	}

	logger.Info("graphsink finished", logging.Int64("checkpoints", runner.LastCheckpointID()),
		logging.Latency(time.Since(start)))
	return nil
}

// newSinkFactory builds one executor and sink per subtask for the configured
// entity kind.
func newSinkFactory(cfg *config.Config, factory executor.SessionFactory, recorder deadletter.Recorder,
	logger logging.Logger, reg *metrics.Registry) (pipeline.SinkFactory, error) {

	policy, err := sink.ParseFailurePolicy(cfg.Sink.FailurePolicy)
	if err != nil {
		return nil, err
	}
	sinkOpts := []sink.Option{
		sink.WithLogger(logger),
		sink.WithMetrics(reg),
		sink.WithFailurePolicy(policy),
		sink.WithFlushInterval(cfg.FlushInterval()),
	}
	execOpts := []executor.Option{
		executor.WithLogger(logger),
		executor.WithMetrics(reg),
		executor.WithRecorder(recorder),
	}

	switch cfg.Kind() {
	case graph.KindEdge:
		eopts, err := cfg.EdgeOptions()
		if err != nil {
			return nil, err
		}
		return func(index, parallelism int) (*sink.Sink, error) {
			exec, err := executor.NewEdgeExecutor(eopts, factory, execOpts...)
			if err != nil {
				return nil, err
			}
			return sink.New(exec, sinkOpts...), nil
		}, nil

	default:
		vopts, err := cfg.VertexOptions()
		if err != nil {
			return nil, err
		}
		return func(index, parallelism int) (*sink.Sink, error) {
			exec, err := executor.NewVertexExecutor(vopts, factory, execOpts...)
			if err != nil {
				return nil, err
			}
			return sink.New(exec, sinkOpts...), nil
		}, nil
	}
}

// openRecorder combines the configured dead-letter backends.
func openRecorder(ctx context.Context, cfg config.DeadLetterConfig, reg *metrics.Registry) (deadletter.Recorder, error) {
	var recorders deadletter.Multi

	if cfg.JournalDir != "" {
		journal, err := deadletter.OpenJournal(cfg.JournalDir, deadletter.WithMetrics(reg))
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, journal)
	}

	if cfg.S3 != nil {
		client, err := deadletter.NewS3Client(ctx, deadletter.S3Config{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			_ = recorders.Close()
			return nil, err
		}
		recorders = append(recorders, deadletter.NewS3Archive(client, cfg.S3.Bucket, cfg.S3.Prefix, deadletter.WithMetrics(reg)))
	}

	switch len(recorders) {
	case 0:
		return deadletter.Nop{}, nil
	case 1:
		return recorders[0], nil
	default:
		return recorders, nil
	}
}

func newAdminServer(cfg *config.Config, runner *pipeline.Runner, factory executor.SessionFactory,
	reg *metrics.Registry, logger logging.Logger) (*server.GracefulServer, error) {

	batchSize := cfg.BatchSize()

	hc := health.NewHealthChecker()
	hc.RegisterCheck("sink", health.SinkCheck(runner.Statuses, batchSize))
	hc.RegisterCheck("memory", health.MemoryCheck(0))
	hc.RegisterReadinessCheck("sink", health.SinkCheck(runner.Statuses, batchSize))
	hc.RegisterReadinessCheck("session", health.SessionCheck(factory, cfg.Session.Timeout))

	schema, err := graphql.GenerateSchema(runner.Statuses)
	if err != nil {
		return nil, err
	}

	mux := server.NewAdminMux(server.AdminDeps{Health: hc, Metrics: reg, Schema: &schema})
	return server.NewGracefulServer(cfg.Admin.Addr, mux, logger), nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}
