package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vaultIndexer/internal/contracts"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	PGDSN             string
	StartBlock        uint64
	PollInterval      time.Duration
	BatchSize         uint64
	BlockTimeout      time.Duration
	Store             string
	Migrate           bool
	StoreRetries      int
	StoreRetryBackoff time.Duration
	DecodeErrors      string
	MetricsAddr       string
	LogLevel          string
	Contracts         []contracts.Spec
}

// envAliases are the plain environment names accepted next to the INDEXER_ prefixed ones.
var envAliases = map[string][]string{
	"rpc":           {"INDEXER_RPC", "RPC_URL"},
	"pg-dsn":        {"INDEXER_PG_DSN", "INDEXER_DB_URL"},
	"start-block":   {"INDEXER_START_BLOCK", "START_BLOCK"},
	"poll-interval": {"INDEXER_POLL_INTERVAL", "POLL_INTERVAL"},
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("rpc", "http://localhost:8545")
		v.SetDefault("pg-dsn", "postgres://localhost:5432/tempovault")
		v.SetDefault("start-block", uint64(0))
		v.SetDefault("poll-interval", "5")
		v.SetDefault("batch-size", uint64(500))
		v.SetDefault("block-timeout", 30*time.Second)
		v.SetDefault("store", StorePostgres)
		v.SetDefault("migrate", true)
		v.SetDefault("store-retries", 5)
		v.SetDefault("store-retry-backoff", 500*time.Millisecond)
		v.SetDefault("metrics-addr", ":9102")
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return Config{}, err
	}

	pollInterval, err := parseSeconds(v.GetString("poll-interval"))
	if err != nil {
		return Config{}, fmt.Errorf("poll-interval: %w", err)
	}

	specs, err := loadContracts(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		PGDSN:             v.GetString("pg-dsn"),
		StartBlock:        v.GetUint64("start-block"),
		PollInterval:      pollInterval,
		BatchSize:         v.GetUint64("batch-size"),
		BlockTimeout:      v.GetDuration("block-timeout"),
		Store:             strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		Migrate:           v.GetBool("migrate"),
		StoreRetries:      v.GetInt("store-retries"),
		StoreRetryBackoff: v.GetDuration("store-retry-backoff"),
		DecodeErrors:      v.GetString("decode-errors"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
		Contracts:         specs,
	}

	return cfg, nil
}

// Validate checks the settings needed by the run command.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	switch c.Store {
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

// parseSeconds accepts a bare integer (seconds) or a Go duration string.
func parseSeconds(input string) (time.Duration, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if secs, err := strconv.ParseUint(input, 10, 32); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(input)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", input)
	}
	return d, nil
}

func loadContracts(v *viper.Viper) ([]contracts.Spec, error) {
	if !v.IsSet("contracts") {
		return contracts.DefaultSpecs(), nil
	}
	var specs []contracts.Spec
	if err := v.UnmarshalKey("contracts", &specs); err != nil {
		return nil, fmt.Errorf("parse contracts: %w", err)
	}
	if len(specs) == 0 {
		return contracts.DefaultSpecs(), nil
	}
	return specs, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
