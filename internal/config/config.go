// Package config loads the settings of the quizflow command: a YAML file,
// then QUIZFLOW_* environment variables (optionally from a .env file),
// then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QUIZFLOW_"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full command configuration.
type Config struct {
	Log      Log      `yaml:"log"`
	Server   Server   `yaml:"server"`
	Graphs   Graphs   `yaml:"graphs"`
	Store    Store    `yaml:"store"`
	Redis    Redis    `yaml:"redis"`
	Webhook  Webhook  `yaml:"webhook"`
	Dispatch Dispatch `yaml:"dispatch"`
	Privacy  Privacy  `yaml:"privacy"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Graphs struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

type Store struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	Lock     bool          `yaml:"lock"`
}

// Webhook configures delivery of finished runs. An empty URL disables it.
type Webhook struct {
	URL         string            `yaml:"url"`
	Timeout     time.Duration     `yaml:"timeout"`
	MaxAttempts int               `yaml:"maxAttempts"`
	Rate        float64           `yaml:"rate"`
	Burst       int               `yaml:"burst"`
	Headers     map[string]string `yaml:"headers"`
}

type Dispatch struct {
	QueueSize int `yaml:"queueSize"`
	Workers   int `yaml:"workers"`
}

// Privacy configures the storage middlewares.
type Privacy struct {
	PIIPatterns   []string `yaml:"piiPatterns"`
	EncryptionKey string   `yaml:"encryptionKey"`
	FallbackKeys  []string `yaml:"fallbackKeys"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:      Log{Level: "info", Format: "text"},
		Server:   Server{Addr: ":8080"},
		Graphs:   Graphs{Dir: "."},
		Store:    Store{Backend: StoreMemory},
		Redis:    Redis{Addr: "localhost:6379"},
		Webhook:  Webhook{Timeout: 10 * time.Second, MaxAttempts: 5},
		Dispatch: Dispatch{QueueSize: 256, Workers: 2},
	}
}

// Load builds a configuration from defaults, the YAML file at path (if
// path is not empty) and the environment. A .env file in the working
// directory is read first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from QUIZFLOW_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = splitList(v)
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("ADDR", &c.Server.Addr)
	str("GRAPHS_DIR", &c.Graphs.Dir)
	flag("WATCH", &c.Graphs.Watch)
	str("STORE", &c.Store.Backend)
	str("STORE_DIR", &c.Store.Dir)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	str("REDIS_PREFIX", &c.Redis.Prefix)
	dur("REDIS_TTL", &c.Redis.TTL)
	flag("REDIS_LOCK", &c.Redis.Lock)
	str("WEBHOOK_URL", &c.Webhook.URL)
	dur("WEBHOOK_TIMEOUT", &c.Webhook.Timeout)
	num("WEBHOOK_MAX_ATTEMPTS", &c.Webhook.MaxAttempts)
	num("WEBHOOK_BURST", &c.Webhook.Burst)
	if v, ok := lookup(EnvPrefix + "WEBHOOK_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sWEBHOOK_RATE: %w", EnvPrefix, err))
		} else {
			c.Webhook.Rate = f
		}
	}
	num("QUEUE_SIZE", &c.Dispatch.QueueSize)
	num("WORKERS", &c.Dispatch.Workers)
	list("PII_PATTERNS", &c.Privacy.PIIPatterns)
	str("ENCRYPTION_KEY", &c.Privacy.EncryptionKey)
	list("FALLBACK_KEYS", &c.Privacy.FallbackKeys)

	return errors.Join(errs...)
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	if c.Webhook.MaxAttempts < 0 {
		errs = append(errs, errors.New("webhook.maxAttempts: must not be negative"))
	}
	if c.Webhook.Rate < 0 {
		errs = append(errs, errors.New("webhook.rate: must not be negative"))
	}
	if c.Dispatch.QueueSize < 0 || c.Dispatch.Workers < 0 {
		errs = append(errs, errors.New("dispatch: queueSize and workers must not be negative"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
