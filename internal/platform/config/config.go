package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "caseflow/pkg/platform/strings"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	AdminToken    string

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
}

// RedisConfig configures the shared cache store connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the durable store connection.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// KafkaConfig configures the audit event sink. Empty brokers disable Kafka
// and audit events stay in process memory.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CASEFLOW_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = "dev-admin-token"
	}

	brokers := pkgstrings.DedupeAndTrim(strings.Split(os.Getenv("KAFKA_BROKERS"), ","))

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		AdminToken:    adminToken,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("POSTGRES_DSN"),
			MaxOpenConns: envInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("POSTGRES_MAX_IDLE_CONNS", 5),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   os.Getenv("KAFKA_AUDIT_TOPIC"),
		},
	}
}

func envInt(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return def
}
