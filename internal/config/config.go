// Package config loads server settings.
//
// LAYERING:
// Every field starts at a development default, is overridden by its
// environment variable, and finally by its command-line flag:
//
//	defaults → env (PORT=9090) → flags (-port 9090)
//
// Flags win so a one-off run can override whatever the shell exports.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Session stores.
const (
	SessionMemory = "memory"
	SessionSQLite = "sqlite"
	SessionRedis  = "redis"
)

// Config holds runtime settings for the server.
type Config struct {
	Port     int
	BasePath string

	StoreDriver   string
	DBPath        string
	MongoURI      string
	MongoDatabase string

	SessionStore  string
	RedisAddr     string
	RedisPassword string
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	PasswordMode string

	LogLevel  string
	LogFormat string
}

// devSecret is only good for local runs. Validate doesn't reject it, but the
// server logs a warning when it's in use.
const devSecret = "dev-only-session-secret-change-me"

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Port = 8080
	c.BasePath = "/api"
	c.StoreDriver = DriverSQLite
	c.DBPath = "data/social.db"
	c.MongoURI = "mongodb://localhost:27017"
	c.MongoDatabase = "social"
	c.SessionStore = SessionMemory
	c.RedisAddr = "localhost:6379"
	c.SessionSecret = devSecret
	c.SessionTTL = time.Hour
	c.PasswordMode = "plaintext"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// UsingDevSecret reports whether the built-in secret is still in place.
func (c *Config) UsingDevSecret() bool {
	return c.SessionSecret == devSecret
}

// Load builds a Config from defaults, then getenv, then args (without the
// program name). Pass os.Args[1:] and os.Getenv from main.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.applyFlags(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	str("BASE_PATH", &c.BasePath)
	str("STORE_DRIVER", &c.StoreDriver)
	str("DB_PATH", &c.DBPath)
	str("MONGO_URI", &c.MongoURI)
	str("MONGO_DATABASE", &c.MongoDatabase)
	str("SESSION_STORE", &c.SessionStore)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("SESSION_SECRET", &c.SessionSecret)
	if v := getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid SESSION_TTL %q: %w", v, err)
		}
		c.SessionTTL = ttl
	}
	if v := getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid COOKIE_SECURE %q: %w", v, err)
		}
		c.CookieSecure = secure
	}
	str("PASSWORD_MODE", &c.PasswordMode)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	return nil
}

func (c *Config) applyFlags(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.IntVar(&c.Port, "port", c.Port, "HTTP listen port")
	fs.StringVar(&c.BasePath, "base-path", c.BasePath, "URL prefix for API routes")
	fs.StringVar(&c.StoreDriver, "store", c.StoreDriver, "data store: sqlite or mongo")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "SQLite database file")
	fs.StringVar(&c.MongoURI, "mongo-uri", c.MongoURI, "MongoDB connection string")
	fs.StringVar(&c.MongoDatabase, "mongo-db", c.MongoDatabase, "MongoDB database name")
	fs.StringVar(&c.SessionStore, "sessions", c.SessionStore, "session store: memory, sqlite or redis")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address for the redis session store")
	fs.StringVar(&c.SessionSecret, "session-secret", c.SessionSecret, "HMAC secret for session cookies")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "session lifetime")
	fs.BoolVar(&c.CookieSecure, "cookie-secure", c.CookieSecure, "mark the session cookie Secure")
	fs.StringVar(&c.PasswordMode, "passwords", c.PasswordMode, "password storage: plaintext or bcrypt")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate rejects settings the server can't start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		errs = append(errs, fmt.Errorf("base path %q must start with /", c.BasePath))
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("sqlite store needs a database path"))
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("mongo store needs a URI and a database name"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	switch c.SessionStore {
	case SessionMemory, SessionSQLite:
	case SessionRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis session store needs an address"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session store %q", c.SessionStore))
	}
	if len(c.SessionSecret) < 16 {
		errs = append(errs, errors.New("session secret must be at least 16 characters"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL))
	}
	switch c.PasswordMode {
	case "plaintext", "bcrypt":
	default:
		errs = append(errs, fmt.Errorf("unknown password mode %q", c.PasswordMode))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
