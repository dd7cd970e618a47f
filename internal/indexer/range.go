package indexer

import (
	"fmt"
	"math"
)

// BlockRange is an inclusive span of block heights.
type BlockRange struct {
	From uint64
	To   uint64
}

// Contains reports whether height lies in the range.
func (r BlockRange) Contains(height uint64) bool {
	return height >= r.From && height <= r.To
}

// Len is the number of blocks in the range.
func (r BlockRange) Len() uint64 {
	return r.To - r.From + 1
}

// SplitRange cuts [from, to] into consecutive ranges of at most batchSize blocks.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("invalid range %d-%d", from, to)
	}

	ranges := make([]BlockRange, 0, (to-from)/batchSize+1)
	for start := from; ; {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to || end == math.MaxUint64 {
			return ranges, nil
		}
		start = end + 1
	}
}
