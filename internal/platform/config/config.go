package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. FromEnv keeps main lean; every
// field has a development-safe default.
type Server struct {
	Addr string

	// JWTSigningKey enables bearer-token actor extraction when non-empty.
	// Without it, actor identity comes from the X-Actor-ID/X-Actor-Role
	// headers. The engine performs no real authentication either way.
	JWTSigningKey string

	// AdminAPIKeyHash is a bcrypt hash guarding mutating admin endpoints.
	// Empty disables the check (development).
	AdminAPIKeyHash string

	// EscalationPolicyJSON overrides the built-in role to escalation-target
	// table; see internal/policy for the expected shape.
	EscalationPolicyJSON string

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig

	ShutdownTimeout time.Duration
}

// RedisConfig configures the Redis-backed record stores.
type RedisConfig struct {
	// URL selects Redis persistence when non-empty; otherwise the in-memory
	// stores are used.
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the Postgres-backed stores.
type PostgresConfig struct {
	// DSN selects Postgres persistence when non-empty.
	DSN string
}

// KafkaConfig configures the audit stream and notification topics.
type KafkaConfig struct {
	// Brokers enables Kafka publishing when non-empty.
	Brokers           []string
	AuditTopic        string
	NotificationTopic string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:                 envOr("CROSSGATE_ADDR", ":8080"),
		JWTSigningKey:        os.Getenv("CROSSGATE_JWT_SIGNING_KEY"),
		AdminAPIKeyHash:      os.Getenv("CROSSGATE_ADMIN_API_KEY_HASH"),
		EscalationPolicyJSON: os.Getenv("CROSSGATE_ESCALATION_POLICY"),
		ShutdownTimeout:      10 * time.Second,
		Redis: RedisConfig{
			URL:          os.Getenv("CROSSGATE_REDIS_URL"),
			PoolSize:     envIntOr("CROSSGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("CROSSGATE_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("CROSSGATE_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			AuditTopic:        envOr("CROSSGATE_KAFKA_AUDIT_TOPIC", "crossgate.audit"),
			NotificationTopic: envOr("CROSSGATE_KAFKA_NOTIFICATION_TOPIC", "crossgate.notifications"),
		},
	}
	if brokers := os.Getenv("CROSSGATE_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitAndTrim(brokers)
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
