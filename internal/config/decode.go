package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vaultIndexer/internal/contracts"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	RPCURL    string
	FromBlock uint64
	ToBlock   uint64
	BatchSize uint64
	Out       string
	Errors    string
	Addresses []string
	Topic0    []string
	LogLevel  string
	Contracts []contracts.Spec
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("rpc", "http://localhost:8545")
		v.SetDefault("batch-size", uint64(500))
		v.SetDefault("out", "./data/events.jsonl")
		v.SetDefault("errors", "./data/decode_errors.jsonl")
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	specs, err := loadContracts(v)
	if err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		RPCURL:    v.GetString("rpc"),
		FromBlock: v.GetUint64("from"),
		ToBlock:   v.GetUint64("to"),
		BatchSize: v.GetUint64("batch-size"),
		Out:       v.GetString("out"),
		Errors:    v.GetString("errors"),
		Addresses: getStringSlice(v, "address"),
		Topic0:    getStringSlice(v, "topic0"),
		LogLevel:  v.GetString("log-level"),
		Contracts: specs,
	}

	if cfg.BatchSize == 0 {
		return DecodeConfig{}, fmt.Errorf("batch size must be greater than zero")
	}
	return cfg, nil
}
