package sink

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// ErrSinkFailed matches every error the sink surfaces to the pipeline.
var ErrSinkFailed = errors.New("an error occurred in the sink")

// ErrClosed is the cause reported when a row arrives after Close.
var ErrClosed = errors.New("sink is closed")

// Error is the fatal error handed to the pipeline. Unwrap yields the cause
// that was recorded first.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return ErrSinkFailed.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	return target == ErrSinkFailed
}

// FailureRef holds the first fatal failure of a sink. It is written at most
// once and is safe for concurrent use.
type FailureRef struct {
	p atomic.Pointer[failure]
}

type failure struct {
	err error
}

// Set records err unless a failure is already recorded. It reports whether
// err was stored.
func (f *FailureRef) Set(err error) bool {
	if err == nil {
		return false
	}
	return f.p.CompareAndSwap(nil, &failure{err: err})
}

// Get returns the recorded failure, or nil.
func (f *FailureRef) Get() error {
	if v := f.p.Load(); v != nil {
		return v.err
	}
	return nil
}

// FailurePolicy decides whether execution failures stop the sink.
type FailurePolicy int

const (
	// PolicyFail records execution failures into the failure reference.
	PolicyFail FailurePolicy = iota
	// PolicyLog only logs, counts and dead-letters execution failures.
	PolicyLog
)

var ErrUnknownPolicy = errors.New("unknown failure policy")

func (p FailurePolicy) String() string {
	if p == PolicyLog {
		return "log"
	}
	return "fail"
}

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail", "":
		return PolicyFail, nil
	case "log":
		return PolicyLog, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}
