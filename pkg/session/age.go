package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-graphsink/pkg/config"
	"github.com/dd0wney/cluso-graphsink/pkg/executor"
)

// AGEQuery wraps a Cypher statement for the Apache AGE cypher() function.
func AGEQuery(graphName, stmt string) string {
	quote := "$$"
	if strings.Contains(stmt, quote) {
		quote = "$graphsink$"
	}
	return "SELECT * FROM ag_catalog.cypher('" + graphName + "', " + quote + " " + stmt + " " + quote + ") AS (v ag_catalog.agtype)"
}

// AGEFactory opens one small pgx pool per session against a PostgreSQL
// server with the AGE extension.
type AGEFactory struct {
	dsn      string
	graph    string
	maxConns int32
	common
}

func NewAGEFactory(cfg config.Session, opts ...Option) *AGEFactory {
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 2
	}
	return &AGEFactory{
		dsn:      cfg.Address,
		graph:    cfg.Graph,
		maxConns: maxConns,
		common:   newCommon(TypeAGE, opts),
	}
}

func (f *AGEFactory) Open(ctx context.Context) (executor.Session, error) {
	s, err := f.open(ctx)
	f.opened(TypeAGE, err)
	return s, err
}

func (f *AGEFactory) open(ctx context.Context) (executor.Session, error) {
	poolConfig, err := pgxpool.ParseConfig(f.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = f.maxConns
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, "LOAD 'age'"); err != nil {
			return err
		}
		_, err := conn.Exec(ctx, `SET search_path = ag_catalog, "$user", public`)
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &AGESession{pool: pool, graph: f.graph}, nil
}

// AGESession runs Cypher through ag_catalog.cypher().
type AGESession struct {
	pool  *pgxpool.Pool
	graph string
}

func (s *AGESession) Execute(ctx context.Context, stmt string) (*executor.Result, error) {
	start := time.Now()
	_, err := s.pool.Exec(ctx, AGEQuery(s.graph, stmt))
	latency := time.Since(start)

	if err == nil {
		return &executor.Result{Succeeded: true, Latency: latency}, nil
	}
	if res, ok := pgResult(err); ok {
		res.Latency = latency
		return res, nil
	}
	return nil, err
}

// pgResult maps a server-side error onto a failed Result. Anything else is a
// transport error.
func pgResult(err error) (*executor.Result, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil, false
	}
	code, convErr := strconv.Atoi(pgErr.Code)
	if convErr != nil {
		code = -1
	}
	return &executor.Result{
		ErrorCode:    code,
		ErrorMessage: fmt.Sprintf("SQLSTATE %s: %s", pgErr.Code, pgErr.Message),
	}, true
}

func (s *AGESession) Close() error {
	s.pool.Close()
	return nil
}
