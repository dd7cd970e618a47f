package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogFilter narrows an ad-hoc decode to some contracts and signatures.
// Empty fields match everything.
type LogFilter struct {
	Addresses []common.Address
	topic0    map[common.Hash]struct{}
}

// ParseLogFilter validates address and topic0 inputs. Blank entries are ignored.
func ParseLogFilter(addresses, topic0 []string) (LogFilter, error) {
	var filter LogFilter
	seen := make(map[common.Address]bool)
	for _, input := range addresses {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return LogFilter{}, fmt.Errorf("invalid address: %s", input)
		}
		addr := common.HexToAddress(input)
		if !seen[addr] {
			seen[addr] = true
			filter.Addresses = append(filter.Addresses, addr)
		}
	}

	for _, input := range topic0 {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		data, err := hexutil.Decode(input)
		if err != nil || len(data) != common.HashLength {
			return LogFilter{}, fmt.Errorf("invalid topic0: %s", input)
		}
		if filter.topic0 == nil {
			filter.topic0 = make(map[common.Hash]struct{})
		}
		filter.topic0[common.BytesToHash(data)] = struct{}{}
	}
	return filter, nil
}

// Topics returns the number of topic0 values in the filter.
func (f LogFilter) Topics() int {
	return len(f.topic0)
}

// Match reports whether a log passes the topic0 restriction.
// Addresses are applied by the log query itself.
func (f LogFilter) Match(log types.Log) bool {
	if len(f.topic0) == 0 {
		return true
	}
	if len(log.Topics) == 0 {
		return false
	}
	_, ok := f.topic0[log.Topics[0]]
	return ok
}
