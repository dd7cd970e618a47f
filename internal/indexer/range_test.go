package indexer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	cases := []struct {
		name      string
		from, to  uint64
		batchSize uint64
		want      []BlockRange
	}{
		{"even", 100, 105, 2, []BlockRange{{100, 101}, {102, 103}, {104, 105}}},
		{"remainder", 1, 10, 4, []BlockRange{{1, 4}, {5, 8}, {9, 10}}},
		{"single block", 5, 5, 10, []BlockRange{{5, 5}}},
		{"batch of one", 7, 9, 1, []BlockRange{{7, 7}, {8, 8}, {9, 9}}},
		{"top of range", math.MaxUint64 - 2, math.MaxUint64, 2, []BlockRange{{math.MaxUint64 - 2, math.MaxUint64 - 1}, {math.MaxUint64, math.MaxUint64}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SplitRange(tc.from, tc.to, tc.batchSize)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)

			var blocks uint64
			for _, r := range got {
				blocks += r.Len()
			}
			require.Equal(t, tc.to-tc.from+1, blocks)
		})
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	if _, err := SplitRange(10, 9, 1); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if _, err := SplitRange(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestBlockRangeContains(t *testing.T) {
	r := BlockRange{From: 10, To: 12}
	require.True(t, r.Contains(10))
	require.True(t, r.Contains(12))
	require.False(t, r.Contains(9))
	require.False(t, r.Contains(13))
}
