package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/rep"
	"go.nanomsg.org/mangos/v3/protocol/req"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/cluso-graphsink/pkg/config"
	"github.com/dd0wney/cluso-graphsink/pkg/executor"
	"github.com/dd0wney/cluso-graphsink/pkg/logging"
)

// Request is the envelope sent to an NNG graph endpoint.
type Request struct {
	ID        uint64 `json:"id"`
	Space     string `json:"space,omitempty"`
	Statement string `json:"statement"`
}

// Reply is the endpoint's answer to a Request.
type Reply struct {
	ID        uint64 `json:"id"`
	Succeeded bool   `json:"succeeded"`
	Code      int    `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyUS int64  `json:"latency_us,omitempty"`
}

var ErrReplyMismatch = errors.New("reply does not match request")

// NNGFactory dials a REQ socket per session.
type NNGFactory struct {
	address string
	space   string
	timeout time.Duration
	common
}

func NewNNGFactory(cfg config.Session, opts ...Option) *NNGFactory {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultSessionTimeout
	}
	return &NNGFactory{
		address: cfg.Address,
		space:   cfg.Space,
		timeout: timeout,
		common:  newCommon(TypeNNG, opts),
	}
}

func (f *NNGFactory) Open(ctx context.Context) (executor.Session, error) {
	s, err := f.open(ctx)
	f.opened(TypeNNG, err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (f *NNGFactory) open(ctx context.Context) (*NNGSession, error) {
	sock, err := req.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create REQ socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, f.timeout); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Dial(f.address); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", f.address, err)
	}

	s := &NNGSession{sock: sock, space: f.space, timeout: f.timeout}
	if f.space != "" {
		if err := useSpace(ctx, s, f.space); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// NNGSession sends one Request per statement and waits for its Reply.
type NNGSession struct {
	sock    mangos.Socket
	space   string
	timeout time.Duration
	nextID  atomic.Uint64
}

func (s *NNGSession) Execute(ctx context.Context, stmt string) (*executor.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := s.sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
		return nil, err
	}

	request := Request{ID: s.nextID.Add(1), Space: s.space, Statement: stmt}
	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := s.sock.Send(data); err != nil {
		return nil, fmt.Errorf("failed to send statement: %w", err)
	}
	raw, err := s.sock.Recv()
	if err != nil {
		return nil, fmt.Errorf("failed to receive reply: %w", err)
	}

	var reply Reply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}
	if reply.ID != request.ID {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrReplyMismatch, reply.ID, request.ID)
	}

	latency := time.Since(start)
	if reply.LatencyUS > 0 {
		latency = time.Duration(reply.LatencyUS) * time.Microsecond
	}
	return &executor.Result{
		Succeeded:    reply.Succeeded,
		ErrorCode:    reply.Code,
		ErrorMessage: reply.Error,
		Latency:      latency,
	}, nil
}

func (s *NNGSession) Close() error {
	return s.sock.Close()
}

// Handler answers one request on the REP side.
type Handler func(ctx context.Context, req Request) Reply

// Responder serves Requests on a REP socket. Graph servers embed it; tests
// use it as a fake database.
type Responder struct {
	sock    mangos.Socket
	handler Handler
	logger  logging.Logger

	closeOnce sync.Once
}

// NewResponder listens on address.
func NewResponder(address string, handler Handler, logger logging.Logger) (*Responder, error) {
	sock, err := rep.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionRecvDeadline, 100*time.Millisecond); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Listen(address); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return &Responder{sock: sock, handler: handler, logger: logging.OrNop(logger)}, nil
}

// Serve answers requests until ctx is done or the socket is closed.
func (r *Responder) Serve(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		raw, err := r.sock.Recv()
		if errors.Is(err, mangos.ErrRecvTimeout) {
			continue
		}
		if errors.Is(err, mangos.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		var request Request
		if err := json.Unmarshal(raw, &request); err != nil {
			r.logger.Warn("dropping malformed request", logging.Error(err))
			continue
		}

		start := time.Now()
		reply := r.handler(ctx, request)
		reply.ID = request.ID
		if reply.LatencyUS == 0 {
			reply.LatencyUS = time.Since(start).Microseconds()
		}

		data, err := json.Marshal(reply)
		if err != nil {
			return err
		}
		if err := r.sock.Send(data); err != nil {
			if errors.Is(err, mangos.ErrClosed) {
				return nil
			}
			r.logger.Warn("failed to send reply", logging.Error(err))
		}
	}
}

func (r *Responder) Close() error {
	var err error
	r.closeOnce.Do(func() { err = r.sock.Close() })
	return err
}
