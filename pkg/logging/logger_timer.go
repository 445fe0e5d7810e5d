package logging

import (
	"time"
)

// TimedOperation logs a named operation together with its latency when it
// ends. Successful runs log at debug, failures at error.
type TimedOperation struct {
	logger Logger
	name   string
	began  time.Time
	fields []Field
}

func StartTimer(logger Logger, name string, fields ...Field) *TimedOperation {
	return &TimedOperation{logger: OrNop(logger), name: name, began: time.Now(), fields: fields}
}

func (op *TimedOperation) Elapsed() time.Duration {
	return time.Since(op.began)
}

func (op *TimedOperation) End(fields ...Field) {
	op.logger.Debug(op.name, op.collect(fields)...)
}

func (op *TimedOperation) EndError(err error, fields ...Field) {
	op.logger.Error(op.name, append(op.collect(fields), Error(err))...)
}

func (op *TimedOperation) collect(extra []Field) []Field {
	out := make([]Field, 0, len(op.fields)+len(extra)+1)
	out = append(out, op.fields...)
	out = append(out, extra...)
	return append(out, Latency(op.Elapsed()))
}
