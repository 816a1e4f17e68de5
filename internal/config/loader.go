package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"

	"github.com/example/meeting-scheduler/internal/logging"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "SCHEDULER_"

const (
	LockBackendRedis  = "redis"
	LockBackendMemory = "memory"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"data/scheduler.db"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// LockBackend selects where slot locks live. "memory" is only safe for a
	// single instance.
	LockBackend string        `env:"LOCK_BACKEND" envDefault:"redis"`
	LockTTL     time.Duration `env:"LOCK_TTL" envDefault:"10s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// OrganizerCacheSize bounds the in-process organizer lookup cache. Zero
	// disables it.
	OrganizerCacheSize int `env:"ORGANIZER_CACHE_SIZE" envDefault:"1024"`

	CompletionSpec  string        `env:"COMPLETION_SPEC" envDefault:"@every 15m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load parses configuration values from the current process environment.
//
// Every problem is collected before returning so that operators can fix all
// variables at once. Missing values are reported before invalid ones.
func Load() (Config, error) {
	var cfg Config

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		var agg env.AggregateError
		if !errors.As(err, &agg) {
			return Config{}, fmt.Errorf("parse environment: %w", err)
		}
		for _, e := range agg.Errors {
			var parseErr env.ParseError
			var notSet env.EnvVarIsNotSetError
			switch {
			case errors.As(e, &parseErr):
				invalid = append(invalid, envKey(parseErr.Name))
			case errors.As(e, &notSet):
				missing = append(missing, notSet.Key)
			default:
				return Config{}, fmt.Errorf("parse environment: %w", e)
			}
		}
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = appendOnce(invalid, envKey("HTTPPort"))
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		invalid = appendOnce(invalid, envKey("DBDriver"))
	}
	if strings.TrimSpace(cfg.DBDSN) == "" {
		missing = append(missing, envKey("DBDSN"))
	}
	switch cfg.LockBackend {
	case LockBackendRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			missing = append(missing, envKey("RedisAddr"))
		}
	case LockBackendMemory:
	default:
		invalid = appendOnce(invalid, envKey("LockBackend"))
	}
	if cfg.RedisDB < 0 {
		invalid = appendOnce(invalid, envKey("RedisDB"))
	}
	if cfg.OrganizerCacheSize < 0 {
		invalid = appendOnce(invalid, envKey("OrganizerCacheSize"))
	}
	if cfg.LockTTL <= 0 {
		invalid = appendOnce(invalid, envKey("LockTTL"))
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		invalid = appendOnce(invalid, envKey("LogLevel"))
	}
	if f := logging.Format(cfg.LogFormat); f != logging.FormatJSON && f != logging.FormatText {
		invalid = appendOnce(invalid, envKey("LogFormat"))
	}
	if _, err := cron.ParseStandard(cfg.CompletionSpec); err != nil {
		invalid = appendOnce(invalid, envKey("CompletionSpec"))
	}
	if cfg.ShutdownTimeout <= 0 {
		invalid = appendOnce(invalid, envKey("ShutdownTimeout"))
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// envKey maps a Config field name to its prefixed environment variable.
func envKey(field string) string {
	f, ok := reflect.TypeOf(Config{}).FieldByName(field)
	if !ok {
		return field
	}
	return EnvPrefix + strings.SplitN(f.Tag.Get("env"), ",", 2)[0]
}

func appendOnce(keys []string, key string) []string {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}
