package indexer

import (
	"github.com/ethereum/go-ethereum/core/types"

	"vaultIndexer/internal/decoder"
	"vaultIndexer/internal/model"
)

// logPosition identifies a log for outcome reporting.
func logPosition(log types.Log) Outcome {
	topic0 := ""
	if len(log.Topics) > 0 {
		topic0 = log.Topics[0].Hex()
	}
	return Outcome{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topic0:      topic0,
	}
}

// DecodeErrorFromLog builds the dead-letter record for a failed decode.
func DecodeErrorFromLog(log types.Log, res decoder.Result) model.DecodeError {
	out := logPosition(log)
	out.EventName = res.EventName
	out.Err = res.Err
	return out.decodeError()
}

func (o Outcome) decodeError() model.DecodeError {
	record := model.DecodeError{
		BlockNumber: o.BlockNumber,
		TxHash:      o.TxHash,
		LogIndex:    o.LogIndex,
		Address:     o.Address,
		Topic0:      o.Topic0,
		EventName:   o.EventName,
	}
	if o.Err != nil {
		record.Error = o.Err.Error()
	}
	return record
}
