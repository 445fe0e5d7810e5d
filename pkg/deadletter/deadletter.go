// Package deadletter keeps failed batches so operators can inspect and replay
// them. Recording is best effort: callers log and count a recorder error but
// never escalate it.
package deadletter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
)

var ErrClosed = errors.New("dead-letter recorder is closed")

// FailedBatch describes one batch whose execution failed.
type FailedBatch struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Subtask   string    `json:"subtask"`
	Label     string    `json:"label"`
	Kind      string    `json:"kind"`
	Mode      string    `json:"mode"`
	Size      int       `json:"size"`
	Statement string    `json:"statement"`
	Error     string    `json:"error"`
}

// Recorder persists failed batches.
type Recorder interface {
	Record(ctx context.Context, batch FailedBatch) error
	Close() error
}

// stamp fills in ID and Time when the caller left them empty.
func (b *FailedBatch) stamp() {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Time.IsZero() {
		b.Time = time.Now().UTC()
	}
}

// encode returns the snappy-compressed JSON form of b.
func encode(b FailedBatch) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, data), nil
}

func decode(compressed []byte) (FailedBatch, error) {
	var b FailedBatch
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return b, err
	}
	err = json.Unmarshal(data, &b)
	return b, err
}

type recorderOptions struct {
	metrics *metrics.Registry
}

// Option configures a recorder.
type Option func(*recorderOptions)

// WithMetrics records writes and bytes into reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *recorderOptions) {
		o.metrics = reg
	}
}

func applyOptions(opts []Option) recorderOptions {
	var o recorderOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Nop discards every batch.
type Nop struct{}

func (Nop) Record(context.Context, FailedBatch) error { return nil }
func (Nop) Close() error                              { return nil }

// Multi fans a batch out to several recorders. Every recorder is tried; the
// errors are joined.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, batch FailedBatch) error {
	batch.stamp()
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
