package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GRAPHSINK_"

// ApplyEnv overrides file values with GRAPHSINK_* environment variables.
// Secrets are usually supplied this way rather than in the file.
func (c *Config) ApplyEnv() {
	setString(&c.LogLevel, "LOG_LEVEL")
	setInt(&c.Pipeline.Parallelism, "PARALLELISM")
	setDuration(&c.Pipeline.CheckpointInterval, "CHECKPOINT_INTERVAL")
	setString(&c.Sink.FailurePolicy, "FAILURE_POLICY")

	setInt(&c.Entity.BatchSize, "BATCH_SIZE")
	setDuration(&c.Entity.BatchInterval, "BATCH_INTERVAL")

	setString(&c.Session.Type, "SESSION_TYPE")
	setString(&c.Session.Address, "SESSION_ADDRESS")
	setString(&c.Session.JWTSecret, "SESSION_JWT_SECRET")
	setString(&c.Session.Graph, "SESSION_GRAPH")

	setString(&c.DeadLetter.JournalDir, "DEADLETTER_JOURNAL_DIR")
	if c.DeadLetter.S3 != nil {
		setString(&c.DeadLetter.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
		setString(&c.DeadLetter.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
		setString(&c.DeadLetter.S3.Endpoint, "S3_ENDPOINT")
	}

	setString(&c.Admin.Addr, "ADMIN_ADDR")
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

// setInt and setDuration ignore unparsable values; the file value stays.
func setInt(dst *int, name string) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, name string) {
	if v, ok := lookup(name); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
