package decoder

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"vaultIndexer/internal/model"
	"vaultIndexer/internal/registry"
)

// ErrDecodeFailure marks a log whose signature is known but whose arguments do not decode.
var ErrDecodeFailure = errors.New("decode failure")

// Status is the classification of a single log.
type Status int

const (
	StatusUnrecognized Status = iota
	StatusDecoded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnrecognized:
		return "unrecognized"
	case StatusDecoded:
		return "decoded"
	case StatusFailed:
		return "decode_failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of decoding one log. Event is set for StatusDecoded,
// Err (wrapping ErrDecodeFailure) for StatusFailed.
type Result struct {
	Status    Status
	Event     *model.DecodedEvent
	EventName string
	Err       error
}

// Decoder resolves raw logs to typed events through a Registry.
type Decoder struct {
	registry *registry.Registry
}

// New builds a Decoder.
func New(reg *registry.Registry) *Decoder {
	return &Decoder{registry: reg}
}

// Decode classifies and decodes a log. It never returns an error for irrelevant logs.
func (d *Decoder) Decode(log types.Log) Result {
	if len(log.Topics) == 0 {
		return Result{Status: StatusUnrecognized}
	}
	entry, ok := d.registry.Lookup(log.Address, log.Topics[0])
	if !ok || !entry.HasKind {
		return Result{Status: StatusUnrecognized}
	}

	values, err := unpackArgs(entry.Event, log)
	if err != nil {
		return failed(entry, err)
	}

	data, err := build(entry.Kind, values)
	if err != nil {
		return failed(entry, err)
	}

	contract, _ := d.registry.ContractName(log.Address)
	return Result{
		Status:    StatusDecoded,
		EventName: entry.Event.RawName,
		Event: &model.DecodedEvent{
			BlockNumber: log.BlockNumber,
			BlockHash:   log.BlockHash.Hex(),
			TxHash:      log.TxHash.Hex(),
			LogIndex:    uint64(log.Index),
			Address:     log.Address.Hex(),
			Contract:    contract,
			Kind:        data.Kind(),
			Data:        data,
		},
	}
}

func failed(entry *registry.Entry, err error) Result {
	return Result{
		Status:    StatusFailed,
		EventName: entry.Event.RawName,
		Err:       fmt.Errorf("%w: %s: %w", ErrDecodeFailure, entry.Event.RawName, err),
	}
}

// unpackArgs merges indexed topics and non-indexed data into one map keyed by argument name.
func unpackArgs(event abi.Event, log types.Log) (args, error) {
	indexed := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexed)+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(log.Topics))
	}

	values := make(map[string]interface{}, len(event.Inputs))
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
			return nil, fmt.Errorf("parse topics: %w", err)
		}
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.RawName, err)
	}
	return values, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

// TopicFromAddress left-pads an address into a topic word.
func TopicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}
