// Package config loads the connector configuration from YAML and the
// environment and turns it into executor options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values
const (
	DefaultParallelism        = 1
	DefaultCheckpointInterval = 10 * time.Second
	DefaultAdminAddr          = ":9464"
	DefaultSessionTimeout     = 30 * time.Second
	DefaultTokenTTL           = 5 * time.Minute
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the whole connector configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Sink       SinkConfig       `yaml:"sink"`
	Entity     EntityConfig     `yaml:"entity"`
	Session    Session          `yaml:"session"`
	DeadLetter DeadLetterConfig `yaml:"deadletter"`
	Admin      AdminConfig      `yaml:"admin"`
}

// PipelineConfig drives the local pipeline runner.
type PipelineConfig struct {
	Parallelism        int           `yaml:"parallelism" validate:"min=1,max=256"`
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
	// KeyColumn is the row position hashed to pick a subtask.
	KeyColumn int `yaml:"key_column" validate:"min=0"`
}

// SinkConfig controls failure handling.
type SinkConfig struct {
	FailurePolicy string `yaml:"failure_policy" validate:"omitempty,oneof=fail log"`
}

// EntityConfig describes what each row is written as.
type EntityConfig struct {
	Kind      string            `yaml:"kind" validate:"required,oneof=vertex tag edge"`
	Space     string            `yaml:"space"`
	Label     string            `yaml:"label" validate:"required"`
	Fields    []string          `yaml:"fields"`
	Positions []int             `yaml:"positions"`
	Schema    map[string]string `yaml:"schema"`

	WriteMode     string        `yaml:"write_mode"`
	Dialect       string        `yaml:"dialect"`
	VidType       string        `yaml:"vid_type"`
	Policy        string        `yaml:"policy"`
	BatchSize     int           `yaml:"batch_size" validate:"min=0"`
	BatchInterval time.Duration `yaml:"batch_interval"`

	IDIndex   int  `yaml:"id_index" validate:"min=0"`
	SrcIndex  int  `yaml:"src_index" validate:"min=0"`
	DstIndex  int  `yaml:"dst_index" validate:"min=0"`
	RankIndex *int `yaml:"rank_index"`
}

// Session selects and locates the graph database.
type Session struct {
	Type    string        `yaml:"type" validate:"required,oneof=http age nng"`
	Address string        `yaml:"address" validate:"required"`
	Timeout time.Duration `yaml:"timeout"`

	// HTTP
	JWTSecret  string        `yaml:"jwt_secret"`
	JWTSubject string        `yaml:"jwt_subject"`
	TokenTTL   time.Duration `yaml:"token_ttl"`

	// AGE
	Graph    string `yaml:"graph"`
	MaxConns int32  `yaml:"max_conns" validate:"min=0"`

	// Space is copied from the entity section so nGQL sessions can USE it.
	Space string `yaml:"-"`
}

// DeadLetterConfig enables failed-batch recording. Both backends may be set.
type DeadLetterConfig struct {
	JournalDir string    `yaml:"journal_dir"`
	S3         *S3Config `yaml:"s3"`
}

// S3Config locates the archive bucket.
type S3Config struct {
	Bucket          string `yaml:"bucket" validate:"required"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// AdminConfig configures the health, metrics and status server.
type AdminConfig struct {
	Addr    string `yaml:"addr"`
	Enabled *bool  `yaml:"enabled"`
}

// AdminEnabled reports whether the admin server should run (default true).
func (c *Config) AdminEnabled() bool {
	return c.Admin.Enabled == nil || *c.Admin.Enabled
}

// Load reads, defaults, overrides from the environment and validates the
// configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.Parallelism == 0 {
		c.Pipeline.Parallelism = DefaultParallelism
	}
	if c.Pipeline.CheckpointInterval == 0 {
		c.Pipeline.CheckpointInterval = DefaultCheckpointInterval
	}
	if c.Admin.Addr == "" {
		c.Admin.Addr = DefaultAdminAddr
	}
	if c.Session.Timeout == 0 {
		c.Session.Timeout = DefaultSessionTimeout
	}
	if c.Session.TokenTTL == 0 {
		c.Session.TokenTTL = DefaultTokenTTL
	}
	if c.Session.JWTSubject == "" {
		c.Session.JWTSubject = "graphsink"
	}
	if c.Entity.Dialect == "" && (c.Session.Type == "http" || c.Session.Type == "age") {
		c.Entity.Dialect = "cypher"
	}
	c.Session.Space = c.Entity.Space
}
