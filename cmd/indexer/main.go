package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"vaultIndexer/internal/chain"
	"vaultIndexer/internal/config"
	"vaultIndexer/internal/contracts"
	"vaultIndexer/internal/decoder"
	"vaultIndexer/internal/indexer"
	"vaultIndexer/internal/metrics"
	"vaultIndexer/internal/registry"
	"vaultIndexer/internal/storage"
	"vaultIndexer/internal/storage/memory"
	"vaultIndexer/internal/storage/postgres"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Vault protocol event indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Index vault events into the store until interrupted",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("rpc", "", "chain RPC URL")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	runCmd.Flags().Uint64("start-block", 0, "last indexed block assumed when the store has no cursor")
	runCmd.Flags().String("poll-interval", "", "delay between cycles (seconds or duration)")
	runCmd.Flags().Uint64("batch-size", 500, "blocks per log query")
	runCmd.Flags().Duration("block-timeout", 30*time.Second, "upper bound for one block transaction")
	runCmd.Flags().String("store", config.StorePostgres, "store backend (postgres, memory)")
	runCmd.Flags().Bool("migrate", true, "apply schema migrations at startup")
	runCmd.Flags().Int("store-retries", 5, "connection attempts before giving up on the store")
	runCmd.Flags().Duration("store-retry-backoff", 500*time.Millisecond, "initial store retry backoff")
	runCmd.Flags().String("decode-errors", "", "append decode failures to this JSONL file")
	runCmd.Flags().String("metrics-addr", ":9102", "metrics listen address, empty disables")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a block range to JSONL without touching the store",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("rpc", "", "chain RPC URL")
	decodeCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	decodeCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	decodeCmd.Flags().Uint64("batch-size", 500, "blocks per log query")
	decodeCmd.Flags().StringSlice("address", nil, "restrict to these contract addresses (comma-separated)")
	decodeCmd.Flags().StringSlice("topic0", nil, "restrict to these topic0 hashes (comma-separated)")
	decodeCmd.Flags().String("out", "./data/events.jsonl", "output decoded events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().Int("store-retries", 5, "connection attempts before giving up on the store")
	migrateCmd.Flags().Duration("store-retry-backoff", 500*time.Millisecond, "initial store retry backoff")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "List the registered events per contract",
		RunE:  runRegistry,
	}

	root.AddCommand(registryCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	reg, dec, err := buildDecoder(cfg.Contracts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var deadLetter indexer.DeadLetter
	if cfg.DecodeErrors != "" {
		errWriter, err := storage.OpenJSONL(cfg.DecodeErrors, true)
		if err != nil {
			return err
		}
		defer errWriter.Close()
		deadLetter = errWriter
	}

	runner, err := indexer.NewRunner(indexer.RunConfig{
		StartBlock:   cfg.StartBlock,
		PollInterval: cfg.PollInterval,
		BatchSize:    cfg.BatchSize,
		BlockTimeout: cfg.BlockTimeout,
	}, indexer.Deps{
		Registry: reg,
		Decoder:  dec,
		Reader:   chainClient,
		Store:    store,
	}, indexer.RealClock(), indexer.NewLogObserver(logger, deadLetter), logger)
	if err != nil {
		return err
	}

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("store", cfg.Store),
		zap.Uint64("start_block", cfg.StartBlock),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Int("signatures", reg.Len()),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(gctx)
	})
	if cfg.MetricsAddr != "" {
		server := metrics.NewServer(cfg.MetricsAddr, logger)
		g.Go(func() error {
			return server.Run(gctx)
		})
	}

	return g.Wait()
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx, logger); err != nil {
		return err
	}

	cursor, ok, err := store.LoadCursor(ctx)
	if err != nil {
		return err
	}
	if ok {
		logger.Info("cursor", zap.Uint64("last_indexed_block", cursor.LastIndexedBlock), zap.Time("last_indexed_at", cursor.LastIndexedAt))
	} else {
		logger.Info("cursor not set", zap.Uint64("start_block", cfg.StartBlock))
	}
	return nil
}

func runRegistry(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	reg, _, err := buildDecoder(cfg.Contracts)
	if err != nil {
		return err
	}
	return printRegistry(cmd.OutOrStdout(), reg)
}

func buildDecoder(specs []contracts.Spec) (*registry.Registry, *decoder.Decoder, error) {
	resolved, err := contracts.Resolve(specs)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve contracts: %w", err)
	}
	reg, err := registry.New(resolved)
	if err != nil {
		return nil, nil, fmt.Errorf("build registry: %w", err)
	}
	return reg, decoder.New(reg), nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store, indexed data is lost on exit")
		return memory.New(), nil
	}

	store, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := store.Migrate(ctx, logger); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func connectPostgres(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Store, error) {
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	if err := indexer.WaitForStore(ctx, store, cfg.StoreRetries, cfg.StoreRetryBackoff, logger); err != nil {
		store.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return store, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
