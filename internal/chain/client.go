package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrChainUnavailable wraps every failure talking to the chain endpoint.
var ErrChainUnavailable = errors.New("chain unavailable")

const timestampCacheSize = 4096

// Reader is the read-only view of the chain used by the pipeline.
type Reader interface {
	CurrentHeight(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, height uint64) (time.Time, error)
	LogsInRange(ctx context.Context, fromHeight, toHeight uint64, addresses []common.Address) ([]types.Log, error)
}

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

var _ Reader = (*Client)(nil)

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, unavailable("dial", err)
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return nil, unavailable("chain id", err)
	}
	return id, nil
}

// CurrentHeight returns the latest block number.
func (c *Client) CurrentHeight(ctx context.Context) (uint64, error) {
	height, err := c.ethClient.BlockNumber(ctx)
	if err != nil {
		return 0, unavailable("block number", err)
	}
	return height, nil
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, height uint64) (time.Time, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[height]
	c.mu.RUnlock()
	if ok {
		return time.Unix(int64(ts), 0).UTC(), nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(height))
	if err != nil {
		return time.Time{}, unavailable(fmt.Sprintf("header %d", height), err)
	}
	if header == nil {
		return time.Time{}, unavailable(fmt.Sprintf("header %d", height), ethereum.NotFound)
	}

	ts = header.Time
	c.mu.Lock()
	if len(c.tsCache) >= timestampCacheSize {
		c.tsCache = make(map[uint64]uint64)
	}
	c.tsCache[height] = ts
	c.mu.Unlock()

	return time.Unix(int64(ts), 0).UTC(), nil
}

// LogsInRange returns logs emitted by addresses in [fromHeight, toHeight],
// ordered by (block number, log index).
func (c *Client) LogsInRange(
	ctx context.Context,
	fromHeight uint64,
	toHeight uint64,
	addresses []common.Address,
) ([]types.Log, error) {
	if toHeight < fromHeight {
		return nil, fmt.Errorf("invalid range %d-%d", fromHeight, toHeight)
	}
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromHeight),
		ToBlock:   new(big.Int).SetUint64(toHeight),
		Addresses: addresses,
	}
	logs, err := c.ethClient.FilterLogs(ctx, query)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("logs %d-%d", fromHeight, toHeight), err)
	}
	SortLogs(logs)
	return logs, nil
}

// SortLogs orders logs by (block number, log index).
func SortLogs(logs []types.Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrChainUnavailable, op, err)
}
