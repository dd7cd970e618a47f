package indexer

import (
	"fmt"

	"go.uber.org/zap"

	"vaultIndexer/internal/metrics"
	"vaultIndexer/internal/model"
)

// OutcomeStatus is the terminal state of one log.
type OutcomeStatus int

const (
	OutcomeUnrecognized OutcomeStatus = iota + 1
	OutcomeDecodeFailure
	OutcomeInserted
	OutcomeDuplicate
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeUnrecognized:
		return "unrecognized"
	case OutcomeDecodeFailure:
		return "decode_failure"
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("outcome(%d)", int(s))
	}
}

// Outcome is reported once per log after its block has been committed.
type Outcome struct {
	Status      OutcomeStatus
	BlockNumber uint64
	TxHash      string
	LogIndex    uint64
	Address     string
	Topic0      string
	EventType   model.Kind
	EventName   string
	EventID     int64
	Err         error
}

// Observer receives every log outcome.
type Observer interface {
	Observe(Outcome)
}

// DeadLetter persists decode failures for later inspection.
type DeadLetter interface {
	Write(value interface{}) error
}

// LogObserver logs and counts outcomes.
type LogObserver struct {
	logger     *zap.Logger
	deadLetter DeadLetter
}

// NewLogObserver builds a LogObserver. deadLetter may be nil.
func NewLogObserver(logger *zap.Logger, deadLetter DeadLetter) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger, deadLetter: deadLetter}
}

func (o *LogObserver) Observe(out Outcome) {
	metrics.LogOutcomeInc(out.Status.String())

	fields := []zap.Field{
		zap.Uint64("block_number", out.BlockNumber),
		zap.String("tx_hash", out.TxHash),
		zap.Uint64("log_index", out.LogIndex),
	}

	switch out.Status {
	case OutcomeUnrecognized:
		if ce := o.logger.Check(zap.DebugLevel, "log unrecognized"); ce != nil {
			ce.Write(append(fields, zap.String("address", out.Address), zap.String("topic0", out.Topic0))...)
		}
	case OutcomeDecodeFailure:
		o.logger.Warn("log decode failed", append(fields,
			zap.String("address", out.Address),
			zap.String("topic0", out.Topic0),
			zap.String("event", out.EventName),
			zap.Error(out.Err),
		)...)
		if o.deadLetter != nil {
			if err := o.deadLetter.Write(out.decodeError()); err != nil {
				o.logger.Error("write decode error record", append(fields, zap.Error(err))...)
			}
		}
	case OutcomeInserted:
		metrics.EventStoredInc(string(out.EventType))
		o.logger.Debug("event stored", append(fields,
			zap.String("event_type", string(out.EventType)),
			zap.Int64("event_id", out.EventID),
		)...)
	case OutcomeDuplicate:
		o.logger.Info("event already stored", append(fields, zap.String("event_type", string(out.EventType)))...)
	}
}
