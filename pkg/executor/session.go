package executor

import (
	"context"
	"time"
)

// Session executes statements against the graph database. A session is used
// by at most one Execute at a time.
type Session interface {
	Execute(ctx context.Context, stmt string) (*Result, error)
	Close() error
}

// Result is the server's answer to one statement.
type Result struct {
	Succeeded    bool
	ErrorCode    int
	ErrorMessage string
	Latency      time.Duration
}

// SessionFactory establishes sessions.
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// SessionFactoryFunc adapts a function to SessionFactory.
type SessionFactoryFunc func(ctx context.Context) (Session, error)

func (f SessionFactoryFunc) Open(ctx context.Context) (Session, error) {
	return f(ctx)
}
