package logging

import (
	"strconv"
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Connector field helpers

func Component(name string) Field {
	return String("component", name)
}

func Label(label string) Field {
	return String("label", label)
}

func WriteMode(mode string) Field {
	return String("write_mode", mode)
}

func Subtask(index, parallelism int) Field {
	return String("subtask", subtaskString(index, parallelism))
}

// Statement truncates long statements so a failed 2000-row insert does not
// flood the log; the dead-letter recorder keeps the full text.
func Statement(stmt string) Field {
	const maxLen = 512
	if len(stmt) > maxLen {
		stmt = stmt[:maxLen] + "...(truncated)"
	}
	return String("statement", stmt)
}

func BatchSize(n int) Field {
	return Int("batch_size", n)
}

func CheckpointID(id int64) Field {
	return Int64("checkpoint_id", id)
}

func Reason(reason string) Field {
	return String("reason", reason)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func subtaskString(index, parallelism int) string {
	return strconv.Itoa(index) + "/" + strconv.Itoa(parallelism)
}
