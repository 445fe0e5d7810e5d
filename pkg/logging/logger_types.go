package logging

import "strings"

// Level orders severities. A logger drops entries below its level.
type Level int32

const (
	// DebugLevel carries per-batch and per-record detail such as rendered
	// statements and dropped rows.
	DebugLevel Level = iota
	InfoLevel
	// WarnLevel marks recoverable write problems, for example a dead letter
	// that could not be stored.
	WarnLevel
	// ErrorLevel marks failed batches and sink failures.
	ErrorLevel
)

var levelNames = [...]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

var levelsByName = map[string]Level{
	"DEBUG":   DebugLevel,
	"INFO":    InfoLevel,
	"WARN":    WarnLevel,
	"WARNING": WarnLevel,
	"ERROR":   ErrorLevel,
}

func (l Level) String() string {
	if l < DebugLevel || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel is case-insensitive; anything it does not recognize is InfoLevel.
func ParseLevel(s string) Level {
	if l, ok := levelsByName[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return l
	}
	return InfoLevel
}

// Field is one structured key/value attached to an entry.
type Field struct {
	Key   string
	Value any
}

// Logger is what every component of the connector logs through.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// LogEntry is the shape of one output line.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger discards everything. Components fall back to it when no logger
// is configured.
type NopLogger struct{}

func NewNopLogger() Logger { return NopLogger{} }

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (NopLogger) SetLevel(Level)         {}
func (NopLogger) GetLevel() Level        { return InfoLevel }
