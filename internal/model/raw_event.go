package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DecodedEvent is a recognized log resolved to its typed payload.
type DecodedEvent struct {
	BlockNumber uint64    `json:"block_number"`
	BlockHash   string    `json:"block_hash"`
	TxHash      string    `json:"tx_hash"`
	LogIndex    uint64    `json:"log_index"`
	Address     string    `json:"address"`
	Contract    string    `json:"contract"`
	Kind        Kind      `json:"event_type"`
	Data        EventData `json:"decoded"`
}

// RawEvent is the canonical stored record of a decoded log.
// (TxHash, LogIndex) is unique across the store.
type RawEvent struct {
	ID              int64
	BlockNumber     uint64
	BlockTimestamp  time.Time
	TxHash          string
	LogIndex        uint64
	EventType       Kind
	ContractAddress string
	Payload         json.RawMessage
}

// NewRawEvent builds the stored representation of a decoded event.
func NewRawEvent(event DecodedEvent, blockTimestamp time.Time) (RawEvent, error) {
	if event.Data == nil {
		return RawEvent{}, fmt.Errorf("event %s:%d has no payload", event.TxHash, event.LogIndex)
	}
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return RawEvent{}, fmt.Errorf("marshal payload: %w", err)
	}
	return RawEvent{
		BlockNumber:     event.BlockNumber,
		BlockTimestamp:  blockTimestamp.UTC(),
		TxHash:          event.TxHash,
		LogIndex:        event.LogIndex,
		EventType:       event.Kind,
		ContractAddress: event.Address,
		Payload:         payload,
	}, nil
}

// Cursor is the persisted indexing position.
type Cursor struct {
	LastIndexedBlock uint64
	LastIndexedAt    time.Time
}
