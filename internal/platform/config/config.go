package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	pkgstrings "kycgate/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Database configures the Postgres record store. An empty URL selects the
// in-memory stores.
type Database struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

// RedisConfig configures the screening cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the audit outbox relay. No brokers disables the relay.
type Kafka struct {
	Brokers       []string
	AuditTopic    string
	RelayInterval time.Duration
}

// Screening configures the watchlist screener.
type Screening struct {
	Denylist []string
	CacheTTL time.Duration
}

// Risk configures the risk scorer.
type Risk struct {
	HighRiskCountries []string
}

// Identity configures the identity validator.
type Identity struct {
	EnforceSAIDChecksum bool
	FingerprintKey      string
}

// KYC configures the verification workflow.
type KYC struct {
	ListMaxLimit int
}

// Log configures the structured logger.
type Log struct {
	Level  string
	Format string
}

// Config is the full service configuration.
type Config struct {
	Server    Server
	Database  Database
	Redis     RedisConfig
	Kafka     Kafka
	Screening Screening
	Risk      Risk
	Identity  Identity
	KYC       KYC
	Log       Log
}

var envBindings = map[string]string{
	"server.addr":              "KYCGATE_ADDR",
	"server.shutdown_timeout":  "KYCGATE_SHUTDOWN_TIMEOUT",
	"database.url":             "DATABASE_URL",
	"database.max_open_conns":  "DATABASE_MAX_OPEN_CONNS",
	"database.max_idle_conns":  "DATABASE_MAX_IDLE_CONNS",
	"database.auto_migrate":    "DATABASE_AUTO_MIGRATE",
	"redis.url":                "REDIS_URL",
	"redis.pool_size":          "REDIS_POOL_SIZE",
	"redis.min_idle_conns":     "REDIS_MIN_IDLE_CONNS",
	"redis.dial_timeout":       "REDIS_DIAL_TIMEOUT",
	"redis.read_timeout":       "REDIS_READ_TIMEOUT",
	"redis.write_timeout":      "REDIS_WRITE_TIMEOUT",
	"kafka.brokers":            "KAFKA_BROKERS",
	"kafka.audit_topic":        "KAFKA_AUDIT_TOPIC",
	"kafka.relay_interval":     "KAFKA_RELAY_INTERVAL",
	"screening.denylist":       "SCREENING_DENYLIST",
	"screening.cache_ttl":      "SCREENING_CACHE_TTL",
	"risk.high_risk_countries": "RISK_HIGH_RISK_COUNTRIES",
	"identity.sa_id_checksum":  "IDENTITY_SA_ID_CHECKSUM",
	"identity.fingerprint_key": "IDENTITY_FINGERPRINT_KEY",
	"kyc.list_max_limit":       "VERIFICATION_LIST_MAX_LIMIT",
	"log.level":                "LOG_LEVEL",
	"log.format":               "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("kafka.audit_topic", "kycgate.audit")
	v.SetDefault("kafka.relay_interval", "2s")
	v.SetDefault("screening.denylist", "john,doe,test")
	v.SetDefault("screening.cache_ttl", "15m")
	v.SetDefault("risk.high_risk_countries", "AF,IR,KP,SY,YE,MM")
	v.SetDefault("identity.sa_id_checksum", true)
	v.SetDefault("kyc.list_max_limit", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from a .env file (if present) and the process
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromViper(viper.New())
}

// FromViper builds a Config from v after binding environment variables.
// Tests pass a fresh instance with overrides set.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}
	setDefaults(v)

	cfg := &Config{
		Server: Server{
			Addr:            v.GetString("server.addr"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: Database{
			URL:          v.GetString("database.url"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
			AutoMigrate:  v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("redis.url"),
			PoolSize:     v.GetInt("redis.pool_size"),
			MinIdleConns: v.GetInt("redis.min_idle_conns"),
			DialTimeout:  v.GetDuration("redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("redis.read_timeout"),
			WriteTimeout: v.GetDuration("redis.write_timeout"),
		},
		Kafka: Kafka{
			Brokers:       pkgstrings.SplitList(v.GetString("kafka.brokers")),
			AuditTopic:    v.GetString("kafka.audit_topic"),
			RelayInterval: v.GetDuration("kafka.relay_interval"),
		},
		Screening: Screening{
			Denylist: pkgstrings.DedupeAndTrimLower(pkgstrings.SplitList(v.GetString("screening.denylist"))),
			CacheTTL: v.GetDuration("screening.cache_ttl"),
		},
		Risk: Risk{
			HighRiskCountries: pkgstrings.DedupeAndTrimUpper(pkgstrings.SplitList(v.GetString("risk.high_risk_countries"))),
		},
		Identity: Identity{
			EnforceSAIDChecksum: v.GetBool("identity.sa_id_checksum"),
			FingerprintKey:      v.GetString("identity.fingerprint_key"),
		},
		KYC: KYC{
			ListMaxLimit: v.GetInt("kyc.list_max_limit"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("KYCGATE_ADDR must not be empty")
	}
	if c.KYC.ListMaxLimit < 1 {
		return fmt.Errorf("VERIFICATION_LIST_MAX_LIMIT must be positive, got %d", c.KYC.ListMaxLimit)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic == "" {
		return fmt.Errorf("KAFKA_AUDIT_TOPIC is required when KAFKA_BROKERS is set")
	}
	if key := c.Identity.FingerprintKey; key != "" && len(key) < 16 {
		return fmt.Errorf("IDENTITY_FINGERPRINT_KEY must be at least 16 characters")
	}
	return nil
}
