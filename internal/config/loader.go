package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TIGHTENTRADE_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load. An empty path skips
// the file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TIGHTENTRADE_* environment variables
// and overwrites the corresponding Config fields when a variable is set.
// This lets operators inject secrets at deploy time without touching the
// TOML file.
func applyEnvOverrides(cfg *Config) {
	setInt(&cfg.Server.Port, "TIGHTENTRADE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TIGHTENTRADE_SERVER_CORS_ORIGINS")

	setStr(&cfg.Postgres.DSN, "TIGHTENTRADE_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "TIGHTENTRADE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TIGHTENTRADE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TIGHTENTRADE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TIGHTENTRADE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TIGHTENTRADE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TIGHTENTRADE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TIGHTENTRADE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TIGHTENTRADE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TIGHTENTRADE_POSTGRES_RUN_MIGRATIONS")

	setStr(&cfg.Redis.Addr, "TIGHTENTRADE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TIGHTENTRADE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TIGHTENTRADE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TIGHTENTRADE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TIGHTENTRADE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TIGHTENTRADE_REDIS_TLS_ENABLED")

	setBool(&cfg.Push.Enabled, "TIGHTENTRADE_PUSH_ENABLED")
	setStr(&cfg.Push.Subscriber, "TIGHTENTRADE_PUSH_SUBSCRIBER")
	setStr(&cfg.Push.VAPIDPublicKey, "TIGHTENTRADE_PUSH_VAPID_PUBLIC_KEY")
	setStr(&cfg.Push.VAPIDPublicKey, "NEXT_PUBLIC_VAPID_PUBLIC_KEY") // compatibility alias
	setStr(&cfg.Push.VAPIDPrivateKey, "TIGHTENTRADE_PUSH_VAPID_PRIVATE_KEY")
	setStr(&cfg.Push.VAPIDPrivateKey, "VAPID_PRIVATE_KEY") // compatibility alias

	setStr(&cfg.LogLevel, "TIGHTENTRADE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
