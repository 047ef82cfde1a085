package config

import (
	"os"
	"strings"
	"time"
)

// Environment names recognized by the service. Anything other than production
// enables the local-development verification bypass, so deployments must set
// PROOVD_ENV=production explicitly.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string

	// StoreBackend selects the verification record store: memory, redis or postgres.
	StoreBackend string
	PostgresURL  string
	Redis        RedisConfig

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers    []string
	KafkaAuditTopic string

	// DNSServer overrides the system resolver (host:port) when set.
	DNSServer string

	// HTTPCheckTimeout bounds the file and meta-tag verification fetches.
	HTTPCheckTimeout time.Duration
}

// RedisConfig holds connection settings for the Redis-backed store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether the process runs with production hardening.
// The verifier's development bypass must never activate when this is true.
func (s Server) IsProduction() bool {
	return s.Environment == EnvProduction
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("PROOVD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	env := os.Getenv("PROOVD_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	backend := os.Getenv("PROOVD_STORE")
	if backend == "" {
		backend = "memory"
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "proovd.audit.verification"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:             addr,
		Environment:      env,
		JWTSigningKey:    jwtSigningKey,
		StoreBackend:     backend,
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		Redis:            redisFromEnv(),
		KafkaBrokers:     brokers,
		KafkaAuditTopic:  topic,
		DNSServer:        os.Getenv("PROOVD_DNS_SERVER"),
		HTTPCheckTimeout: 10 * time.Second,
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
