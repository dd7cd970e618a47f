package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vaultIndexer/internal/chain"
	"vaultIndexer/internal/config"
	"vaultIndexer/internal/decoder"
	"vaultIndexer/internal/indexer"
	"vaultIndexer/internal/model"
	"vaultIndexer/internal/storage"
)

// decodedRecord is one line of the decode output.
type decodedRecord struct {
	model.DecodedEvent
	BlockTimestamp int64 `json:"block_timestamp"`
}

type decodeCounts struct {
	total, decoded, skipped, failed int
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	reg, dec, err := buildDecoder(cfg.Contracts)
	if err != nil {
		return err
	}

	filter, err := indexer.ParseLogFilter(cfg.Addresses, cfg.Topic0)
	if err != nil {
		return err
	}
	addresses := filter.Addresses
	if len(addresses) == 0 {
		addresses = reg.Addresses()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	toBlock := cfg.ToBlock
	if toBlock == 0 {
		toBlock, err = chainClient.CurrentHeight(ctx)
		if err != nil {
			return err
		}
	}

	ranges, err := indexer.SplitRange(cfg.FromBlock, toBlock, cfg.BatchSize)
	if err != nil {
		return err
	}

	outWriter, err := storage.OpenJSONL(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := storage.OpenJSONL(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", toBlock),
		zap.Int("addresses", len(addresses)),
		zap.Int("topic0", filter.Topics()),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
	)

	var counts decodeCounts
	for _, blockRange := range ranges {
		logs, err := chainClient.LogsInRange(ctx, blockRange.From, blockRange.To, addresses)
		if err != nil {
			return fmt.Errorf("logs %d-%d: %w", blockRange.From, blockRange.To, err)
		}

		for _, log := range logs {
			if !filter.Match(log) {
				continue
			}
			if err := decodeOne(ctx, chainClient, dec, log, outWriter, errWriter, &counts); err != nil {
				return err
			}
		}

		logger.Debug("range decoded", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To), zap.Int("logs", len(logs)))
	}

	logger.Info("decode complete",
		zap.Int("total", counts.total),
		zap.Int("decoded", counts.decoded),
		zap.Int("skipped", counts.skipped),
		zap.Int("failed", counts.failed),
	)

	return nil
}

func decodeOne(
	ctx context.Context,
	reader chain.Reader,
	dec *decoder.Decoder,
	log types.Log,
	outWriter, errWriter *storage.JSONLWriter,
	counts *decodeCounts,
) error {
	counts.total++

	res := dec.Decode(log)
	switch res.Status {
	case decoder.StatusUnrecognized:
		counts.skipped++
		return nil
	case decoder.StatusFailed:
		counts.failed++
		return errWriter.Write(indexer.DecodeErrorFromLog(log, res))
	}

	ts, err := reader.BlockTimestamp(ctx, log.BlockNumber)
	if err != nil {
		return fmt.Errorf("block %d timestamp: %w", log.BlockNumber, err)
	}
	if err := outWriter.Write(decodedRecord{DecodedEvent: *res.Event, BlockTimestamp: ts.Unix()}); err != nil {
		return err
	}
	counts.decoded++
	return nil
}
