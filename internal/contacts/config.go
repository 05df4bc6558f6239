package contacts

import (
	"fmt"
	"math"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by `LoadConfig`.
// CONTACTS_DATABASE_URL -> database_url
const EnvPrefix = "CONTACTS_"

// Defaults.
const (
	DefaultDatabaseURL = "postgres://postgres@127.0.0.1/sqlbind__dev"
	DefaultMaxConns    = 85
	DefaultCount       = 50_000
	DefaultIterations  = 1_000
	DefaultBatchSize   = 1_000
	DefaultLogLevel    = "info"
)

// MaxBatchSize keeps bulk inserts within the Postgres limit of 65535
// parameters per statement, at 5 parameters per contact.
const MaxBatchSize = 65535 / 5

// MaxConnsLimit is the largest pool size pgxpool can represent.
const MaxConnsLimit = math.MaxInt32

// Config holds the settings of the contacts program.
type Config struct {
	DatabaseURL string `koanf:"database_url"`
	MaxConns    int    `koanf:"max_conns"`
	Count       int    `koanf:"count"`
	Iterations  int    `koanf:"iterations"`
	BatchSize   int    `koanf:"batch_size"`
	LogLevel    string `koanf:"log_level"`
	Pretty      bool   `koanf:"pretty"`
}

// LoadConfig loads configuration from defaults, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > defaults
func LoadConfig(flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"database_url": DefaultDatabaseURL,
		"max_conns":    DefaultMaxConns,
		"count":        DefaultCount,
		"iterations":   DefaultIterations,
		"batch_size":   DefaultBatchSize,
		"log_level":    DefaultLogLevel,
		"pretty":       false,
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 3. Load flags, only the ones explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.DatabaseURL == "":
		return fmt.Errorf("invalid config: database_url is required")
	case c.MaxConns < 1:
		return fmt.Errorf("invalid config: max_conns must be positive, got %d", c.MaxConns)
	case c.MaxConns > MaxConnsLimit:
		return fmt.Errorf("invalid config: max_conns must be at most %d, got %d", MaxConnsLimit, c.MaxConns)
	case c.Count < 0:
		return fmt.Errorf("invalid config: count must not be negative, got %d", c.Count)
	case c.Iterations < 1:
		return fmt.Errorf("invalid config: iterations must be positive, got %d", c.Iterations)
	case c.BatchSize < 1:
		return fmt.Errorf("invalid config: batch_size must be positive, got %d", c.BatchSize)
	case c.BatchSize > MaxBatchSize:
		return fmt.Errorf("invalid config: batch_size must be at most %d, got %d", MaxBatchSize, c.BatchSize)
	}
	return nil
}

// RegisterFlags adds the flags read by `LoadConfig` to the given set.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("database-url", "", "Postgres connection URL")
	flags.Int("max-conns", 0, "Maximum number of pooled connections")
	flags.IntP("count", "n", 0, "Number of contacts to insert")
	flags.Int("iterations", 0, "Number of select iterations")
	flags.Int("batch-size", 0, "Rows per statement for bulk inserts")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.Bool("pretty", false, "Human-readable console logs")
}
