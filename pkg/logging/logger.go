package logging

import (
	"encoding/json"
	"io"
	"maps"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// lineWriter is shared by a logger and every child derived from it so lines
// from different subtasks never interleave.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) writeLine(b []byte) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, _ = lw.w.Write(append(b, '\n'))
}

// JSONLogger writes one JSON object per line.
type JSONLogger struct {
	out   *lineWriter
	level atomic.Int32
	// preset holds the fields added by With. It is never mutated once the
	// logger is built.
	preset map[string]any
}

func NewJSONLogger(w io.Writer, level Level) *JSONLogger {
	l := &JSONLogger{out: &lineWriter{w: w}}
	l.level.Store(int32(level))
	return l
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.emit(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.emit(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.emit(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.emit(ErrorLevel, msg, fields) }

// With returns a child that starts at the parent's current level and writes
// through the same lock.
func (l *JSONLogger) With(fields ...Field) Logger {
	child := &JSONLogger{out: l.out, preset: l.merge(fields)}
	child.level.Store(l.level.Load())
	return child
}

func (l *JSONLogger) SetLevel(level Level) { l.level.Store(int32(level)) }

func (l *JSONLogger) GetLevel() Level { return Level(l.level.Load()) }

func (l *JSONLogger) emit(level Level, msg string, fields []Field) {
	if level < l.GetLevel() {
		return
	}

	entry := LogEntry{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
		Fields:  l.merge(fields),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		// Some field value has no JSON form; keep the line without it.
		entry.Fields = map[string]any{"log_error": err.Error()}
		data, _ = json.Marshal(entry)
	}
	l.out.writeLine(data)
}

// merge returns preset plus fields, later keys winning, or nil when both are
// empty so the entry omits "fields".
func (l *JSONLogger) merge(fields []Field) map[string]any {
	if len(l.preset) == 0 && len(fields) == 0 {
		return nil
	}
	m := make(map[string]any, len(l.preset)+len(fields))
	maps.Copy(m, l.preset)
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

// levelEnv lists the variables consulted for the default level, in order.
var levelEnv = []string{"GRAPHSINK_LOG_LEVEL", "LOG_LEVEL"}

func levelFromEnv() Level {
	for _, key := range levelEnv {
		if v := os.Getenv(key); v != "" {
			return ParseLevel(v)
		}
	}
	return InfoLevel
}

var std struct {
	sync.Mutex
	logger Logger
}

// DefaultLogger returns the process-wide logger, creating a stderr JSON logger
// on first use.
func DefaultLogger() Logger {
	std.Lock()
	defer std.Unlock()
	if std.logger == nil {
		std.logger = NewJSONLogger(os.Stderr, levelFromEnv())
	}
	return std.logger
}

// SetDefaultLogger replaces the process-wide logger. Passing nil makes the
// next DefaultLogger call build a fresh one.
func SetDefaultLogger(logger Logger) {
	std.Lock()
	defer std.Unlock()
	std.logger = logger
}

func OrNop(logger Logger) Logger {
	if logger == nil {
		return NopLogger{}
	}
	return logger
}
