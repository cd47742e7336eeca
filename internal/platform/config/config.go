// Package config reads process configuration from DICRI_* environment
// variables so main stays lean.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	liststr "dicri/pkg/platform/strings"
)

// Config is the validated process configuration.
type Config struct {
	Server   Server
	Log      Log
	Database Database
	Auth     Auth
	Redis    RedisConfig
	Kafka    Kafka

	// EnforceReviewState restricts approve, reject and return-to-draft to
	// expedientes currently in review.
	EnforceReviewState bool
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type Log struct {
	Level  slog.Level
	Format string // json or text
}

// Database configures the relational store. An empty URL selects the
// in-memory store.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	StoreTimeout    time.Duration
}

type Auth struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

// RedisConfig configures the token revocation backend. An empty URL disables
// revocation checks.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the audit event stream. No brokers keeps audit events in
// memory.
type Kafka struct {
	Brokers           []string
	AuditTopic        string
	TopicPartitions   int32
	ReplicationFactor int16
	AuditBuffer       int
}

const devSigningKey = "dev-secret-key-change-in-production"

// Load builds a Config from the environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	cfg := &Config{
		Server: Server{
			Addr:            r.str("DICRI_ADDR", ":8080"),
			ShutdownTimeout: r.duration("DICRI_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: Log{
			Level:  r.level("DICRI_LOG_LEVEL", slog.LevelInfo),
			Format: strings.ToLower(r.str("DICRI_LOG_FORMAT", "json")),
		},
		Database: Database{
			URL:             r.str("DICRI_DATABASE_URL", ""),
			MaxOpenConns:    r.int("DICRI_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    r.int("DICRI_DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: r.duration("DICRI_DB_CONN_MAX_LIFETIME", 30*time.Minute),
			StoreTimeout:    r.duration("DICRI_STORE_TIMEOUT", 5*time.Second),
		},
		Auth: Auth{
			JWTSigningKey: r.str("DICRI_JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:     r.str("DICRI_JWT_ISSUER", ""),
			JWTAudience:   r.str("DICRI_JWT_AUDIENCE", ""),
		},
		Redis: RedisConfig{
			URL:          r.str("DICRI_REDIS_URL", ""),
			PoolSize:     r.int("DICRI_REDIS_POOL_SIZE", 10),
			MinIdleConns: r.int("DICRI_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("DICRI_REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  r.duration("DICRI_REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: r.duration("DICRI_REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		Kafka: Kafka{
			Brokers:           r.list("DICRI_KAFKA_BROKERS"),
			AuditTopic:        r.str("DICRI_KAFKA_AUDIT_TOPIC", "dicri.audit"),
			TopicPartitions:   int32(r.int("DICRI_KAFKA_TOPIC_PARTITIONS", 3)),
			ReplicationFactor: int16(r.int("DICRI_KAFKA_REPLICATION_FACTOR", 1)),
			AuditBuffer:       r.int("DICRI_AUDIT_BUFFER", 1024),
		},
		EnforceReviewState: r.bool("DICRI_ENFORCE_REVIEW_STATE", true),
	}

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("DICRI_ADDR must not be empty"))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("DICRI_LOG_FORMAT must be json or text, got %q", c.Log.Format))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("DICRI_JWT_SIGNING_KEY must not be empty"))
	}
	if c.Database.StoreTimeout <= 0 {
		errs = append(errs, errors.New("DICRI_STORE_TIMEOUT must be positive"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("DICRI_SHUTDOWN_TIMEOUT must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic == "" {
		errs = append(errs, errors.New("DICRI_KAFKA_AUDIT_TOPIC must be set when brokers are configured"))
	}
	if c.Kafka.AuditBuffer < 0 {
		errs = append(errs, errors.New("DICRI_AUDIT_BUFFER must not be negative"))
	}
	return errors.Join(errs...)
}

// UsesDevSigningKey reports whether the built-in development key is active.
func (c *Config) UsesDevSigningKey() bool {
	return c.Auth.JWTSigningKey == devSigningKey
}

// reader records the first parse failure and keeps returning defaults so
// Load can report it once.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) fail(key, val string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s=%q: %w", key, val, err)
	}
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *reader) bool(key string, def bool) bool {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *reader) level(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		r.fail(key, v, err)
		return def
	}
	return l
}

func (r *reader) list(key string) []string {
	return liststr.SplitList(r.getenv(key))
}
