package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "basalt/pkg/platform/strings"
)

// Config captures process-level configuration. main reads it once and wires
// everything else from it so services stay free of os.Getenv calls.
type Config struct {
	Addr string

	// PostgresURL selects the postgres-backed stores when set; the in-memory
	// stores are used otherwise.
	PostgresURL string

	// Redis settings for the identity verification cache. Cache is disabled
	// when URL is empty.
	Redis RedisConfig

	// Kafka settings for the audit event sink. Sink is disabled when no
	// brokers are configured.
	KafkaBrokers []string
	KafkaTopic   string

	JWTSigningKey string

	// InitialAdmin is granted the Admin role at startup so the ledger is
	// never born without an administrator.
	InitialAdmin string

	// LedgerRef is the identity the ledger presents to the compliance
	// policy's lifecycle hooks.
	LedgerRef string
}

// RedisConfig holds connection settings for the verification cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// VerificationCacheTTL bounds staleness of cached verification flags.
var VerificationCacheTTL = 5 * time.Minute

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("BASALT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("BASALT_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("BASALT_KAFKA_TOPIC")
	if topic == "" {
		topic = "basalt.ledger.events"
	}

	var brokers []string
	if raw := os.Getenv("BASALT_KAFKA_BROKERS"); raw != "" {
		brokers = platformstrings.DedupeAndTrim(strings.Split(raw, ","))
	}

	ledgerRef := os.Getenv("BASALT_LEDGER_REF")
	if ledgerRef == "" {
		ledgerRef = "basalt-ledger"
	}

	return Config{
		Addr:          addr,
		PostgresURL:   os.Getenv("BASALT_POSTGRES_URL"),
		Redis:         redisFromEnv(),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		JWTSigningKey: jwtSigningKey,
		InitialAdmin:  os.Getenv("BASALT_INITIAL_ADMIN"),
		LedgerRef:     ledgerRef,
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("BASALT_REDIS_URL"),
		PoolSize:     intFromEnv("BASALT_REDIS_POOL_SIZE", 10),
		MinIdleConns: intFromEnv("BASALT_REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
