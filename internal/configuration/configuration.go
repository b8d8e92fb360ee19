package configuration

import (
	"carfit/internal/cluster"
	"carfit/internal/history"
	"carfit/internal/logging"
	"carfit/internal/rank"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	HistoryTypeMemory = "memory"
	HistoryTypeRedis  = "redis"
)

// EnvPrefix is the prefix of environment variables overriding the file,
// e.g. CARFIT_SERVER_ADDRESS for server.address.
const EnvPrefix = "CARFIT"

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Logger — logger component configuration
	Logger LoggerConfig `mapstructure:"logger"`
	// Server — HTTP server configuration
	Server ServerConfig `mapstructure:"server"`
	// Catalog — vehicle catalog source
	Catalog CatalogConfig `mapstructure:"catalog"`
	// Ranking — ranking engine parameters
	Ranking RankingConfig `mapstructure:"ranking"`
	// History — per-session ranking history
	History HistoryConfig `mapstructure:"history"`
	// Audit — JSONL audit log of served rankings
	Audit AuditConfig `mapstructure:"audit"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level — log level: debug, info, warn, warning, error.
	// Value is case-insensitive but checked in lowercase.
	Level string `mapstructure:"level"`
	// Format — json (default) or console.
	Format string `mapstructure:"format"`
	// File — log file path; logs go to stdout when empty.
	File string `mapstructure:"file"`
	// Maximal log file size in MB (default 100)
	Size int `mapstructure:"size"`
	// Number of rotated log files (default 20)
	Amount int `mapstructure:"amount"`
}

// ServerConfig contains HTTP server parameters.
type ServerConfig struct {
	// Address — address and port where the server will listen (e.g., ":8080").
	Address string `mapstructure:"address"`
	// SessionCookie — name of the cookie identifying a client session.
	SessionCookie string `mapstructure:"session_cookie"`
	// AdminToken — token required by administrative endpoints. Empty disables the check.
	AdminToken   string        `mapstructure:"admin_token"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CatalogConfig points to the catalog file.
type CatalogConfig struct {
	File string `mapstructure:"file"`
}

// RankingConfig defines ranking engine parameters.
type RankingConfig struct {
	// Policy — path to the scoring policy YAML; the built-in policy is used when empty.
	Policy string `mapstructure:"policy"`
	// SoftRules, StyleRules — optional YAML rule lists merged over the soft and style layers of the policy.
	SoftRules  string `mapstructure:"soft_rules"`
	StyleRules string `mapstructure:"style_rules"`
	// Clusters — requested number of clusters (default 6).
	Clusters int `mapstructure:"clusters"`
	// Seed — clustering seed (default 42).
	Seed       uint64 `mapstructure:"seed"`
	MaxIter    int    `mapstructure:"max_iter"`
	MaxSamples int    `mapstructure:"max_samples"`
	// TopN — number of candidates returned when a request does not say (default 6).
	TopN int `mapstructure:"top_n"`
	// MaxTrimsPerModel — trims kept per model family (default 2); a negative value disables the cap.
	MaxTrimsPerModel int     `mapstructure:"max_trims_per_model"`
	MinPriceGap      float64 `mapstructure:"min_price_gap"`
}

// HistoryConfig defines where session histories are kept.
type HistoryConfig struct {
	// Type — memory (default) or redis.
	Type string `mapstructure:"type"`
	// Length — maximum number of rankings stored per session.
	Length int `mapstructure:"length"`
	// Ttl — lifetime of an inactive session. Example: "30m", "24h".
	Ttl   time.Duration `mapstructure:"ttl"`
	Redis RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds the connection settings of the redis history store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// AuditConfig defines the audit log parameters
type AuditConfig struct {
	// Audit file path (optional)
	File string `mapstructure:"file"`
	// Maximal audit file size (default 100M)
	Size int `mapstructure:"size"`
	// Number of audit files (default 20)
	Amount int `mapstructure:"amount"`
}

// Validate checks the correctness of the entire application configuration
// and fills defaults. Returns the first detected error.
func (c *AppConfig) Validate() error {
	validators := []interface{ Validate() error }{
		&c.Logger, &c.Server, &c.Catalog, &c.Ranking, &c.History, &c.Audit,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the correctness of the logger configuration.
// Supported levels: debug, info, warn, warning, error (case-insensitive).
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	if l.Format == "" {
		l.Format = logging.FormatJSON
	}
	if l.Format != logging.FormatJSON && l.Format != logging.FormatConsole {
		return fmt.Errorf("logger.format: unsupported format '%s'", l.Format)
	}

	if l.Size == 0 {
		l.Size = 100
	}
	if l.Amount == 0 {
		l.Amount = 20
	}

	return nil
}

// Logging converts the section to the logger settings.
func (l *LoggerConfig) Logging() logging.Config {
	return logging.Config{
		Level:      l.Level,
		Format:     l.Format,
		File:       l.File,
		MaxSize:    l.Size,
		MaxBackups: l.Amount,
	}
}

// Validate checks the correctness of the server configuration.
// Verifies that the server address is set.
func (n *ServerConfig) Validate() error {
	if n.Address == "" {
		return errors.New("server.address: must be specified")
	}

	if n.SessionCookie == "" {
		n.SessionCookie = "carfit_session"
	}
	if n.ReadTimeout == 0 {
		n.ReadTimeout = 3 * time.Second
	}
	if n.WriteTimeout == 0 {
		n.WriteTimeout = 5 * time.Second
	}

	return nil
}

// Validate checks that the catalog file is set.
func (c *CatalogConfig) Validate() error {
	if c.File == "" {
		return errors.New("catalog.file: must be specified")
	}
	return nil
}

// Validate ranking parameters
func (r *RankingConfig) Validate() error {
	defaults := cluster.DefaultConfig()
	if r.Clusters == 0 {
		r.Clusters = defaults.K
	}
	if r.Seed == 0 {
		r.Seed = defaults.Seed
	}
	if r.MaxIter == 0 {
		r.MaxIter = defaults.MaxIter
	}
	if r.MaxSamples == 0 {
		r.MaxSamples = defaults.MaxSamples
	}
	if r.TopN == 0 {
		r.TopN = 6
	}
	if r.MaxTrimsPerModel == 0 {
		r.MaxTrimsPerModel = 2
	}

	switch {
	case r.Clusters < 0:
		return errors.New("ranking.clusters: must be positive")
	case r.MaxIter < 0:
		return errors.New("ranking.max_iter: must be positive")
	case r.MaxSamples < 0:
		return errors.New("ranking.max_samples: must be positive")
	case r.TopN < 0:
		return errors.New("ranking.top_n: must be positive")
	case r.MinPriceGap < 0:
		return errors.New("ranking.min_price_gap: must not be negative")
	}

	return nil
}

// Options converts the section to the engine options.
func (r *RankingConfig) Options() rank.Options {
	c := cluster.DefaultConfig()
	c.K = r.Clusters
	c.Seed = r.Seed
	c.MaxIter = r.MaxIter
	c.MaxSamples = r.MaxSamples

	return rank.Options{
		Cluster:          c,
		MaxTrimsPerModel: r.MaxTrimsPerModel,
		MinPriceGap:      r.MinPriceGap,
	}
}

// Validate history parameters
func (h *HistoryConfig) Validate() error {
	if h.Type == "" {
		h.Type = HistoryTypeMemory
	}
	if h.Length == 0 {
		h.Length = 10
	}
	if h.Ttl == 0 {
		h.Ttl = 24 * time.Hour
	}

	if h.Length < 0 {
		return errors.New("history.length: must be positive")
	}

	switch h.Type {
	case HistoryTypeMemory:
	case HistoryTypeRedis:
		if h.Redis.Addr == "" {
			return errors.New("history.redis.addr: must be specified")
		}
	default:
		return fmt.Errorf("history.type: unsupported type '%s'", h.Type)
	}

	return nil
}

// RedisOptions converts the redis subsection to the store settings.
func (h *HistoryConfig) RedisOptions() history.RedisConfig {
	return history.RedisConfig{
		Addr:     h.Redis.Addr,
		Password: h.Redis.Password,
		DB:       h.Redis.DB,
		Prefix:   h.Redis.Prefix,
	}
}

// Validate audit parameters
func (a *AuditConfig) Validate() error {
	if a.Amount == 0 {
		a.Amount = 20
	}

	if a.Size == 0 {
		a.Size = 100
	}

	return nil
}

// envKeys are the keys that can be set from the environment even when the file omits them.
var envKeys = []string{
	"logger.level", "logger.format", "logger.file", "logger.size", "logger.amount",
	"server.address", "server.session_cookie", "server.admin_token", "server.read_timeout", "server.write_timeout",
	"catalog.file",
	"ranking.policy", "ranking.soft_rules", "ranking.style_rules", "ranking.clusters", "ranking.seed", "ranking.max_iter", "ranking.max_samples",
	"ranking.top_n", "ranking.max_trims_per_model", "ranking.min_price_gap",
	"history.type", "history.length", "history.ttl",
	"history.redis.addr", "history.redis.password", "history.redis.db", "history.redis.prefix",
	"audit.file", "audit.size", "audit.amount",
}

// LoadEnvFile loads variables from a .env file into the process environment.
// A missing file is not an error. Variables already set are not overridden.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading env file: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from the specified file using Viper.
// Supports YAML format. Environment variables with the CARFIT_ prefix
// override values from the file: CARFIT_HISTORY_REDIS_ADDR sets history.redis.addr.
//
// Returns a pointer to AppConfig or an error if:
// - the file is not found or inaccessible
// - the configuration has invalid format
// - one of the sections fails validation
func LoadConfig(configPath string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding env: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
