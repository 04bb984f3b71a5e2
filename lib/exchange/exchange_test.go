package exchange

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/cstone/lib/attr"
	"github.com/phil-mansfield/cstone/lib/transport"
)

// TestExchangeSwapsHalves builds two ranks each owning half of a 10
// element attribute array in SFC order, swaps the two halves between
// them, and checks each rank ends up with the other's original values in
// the multiset sense (order of the inbound region is unspecified).
func TestExchangeSwapsHalves(t *testing.T) {
	const n = 10
	nets := transport.NewMockNetwork(2)

	identity := make([]int, n)
	for i := range identity {
		identity[i] = i
	}

	values := [][]float64{
		{0, 1, 2, 3, 4},
		{10, 11, 12, 13, 14},
	}

	var wg sync.WaitGroup
	results := make([][]float64, 2)
	wg.Add(2)
	for rank := 0; rank < 2; rank++ {
		go func(rank int) {
			defer wg.Done()
			other := 1 - rank
			sl := SendList{Peers: []PeerRanges{{Rank: other, Ranges: []Range{{0, 5}}}}}
			localRanges := []Range{} // this rank keeps nothing of its own half

			buf := make(attr.Float64Array, 5)
			copy(buf, values[rank])
			var a attr.Array = &buf

			err := Exchange(nets[rank], sl, rank, identity, 0, 0, 5, localRanges, []attr.Array{a})
			require.NoError(t, err)
			results[rank] = []float64(buf)
		}(rank)
	}
	wg.Wait()

	sort.Float64s(results[0])
	sort.Float64s(results[1])
	require.Equal(t, []float64{10, 11, 12, 13, 14}, results[0])
	require.Equal(t, []float64{0, 1, 2, 3, 4}, results[1])
}

// TestExchangeCyclicNeighborsWithOffsets reproduces the offset-aware
// cyclic-neighbor scenario: each rank's buffer holds a pollution value at
// index 0 before the input offset, then 64 elements of its own value;
// after resizing to finalSize and running Exchange with a nonzero
// input/output offset, the last 10 SFC-order elements move to the next
// rank and the kept 54 stay in place, all landing at [oOut, oOut+64) with
// [0,oOut) and [oOut+64,finalSize) left alone.
func TestExchangeCyclicNeighborsWithOffsets(t *testing.T) {
	const (
		originalSize = 65
		assignedSize = 64
		oIn          = 1
		oOut         = 2
		finalSize    = 70
		nex          = 10
		pollution    = 1412842341
	)
	nets := transport.NewMockNetwork(2)

	identity := make([]int, originalSize)
	for i := range identity {
		identity[i] = i
	}

	values := make([][]float64, 2)
	for rank := range values {
		v := make([]float64, originalSize)
		v[0] = pollution
		for i := 1; i < originalSize; i++ {
			v[i] = float64(rank)
		}
		values[rank] = v
	}

	var wg sync.WaitGroup
	results := make([][]float64, 2)
	wg.Add(2)
	for rank := 0; rank < 2; rank++ {
		go func(rank int) {
			defer wg.Done()
			next := (rank + 1) % 2

			sl := SendList{Peers: []PeerRanges{{Rank: next, Ranges: []Range{{assignedSize - nex, assignedSize}}}}}
			localRanges := []Range{{0, assignedSize - nex}}

			buf := attr.Float64Array(append([]float64(nil), values[rank]...))
			buf.Resize(finalSize)
			var a attr.Array = &buf

			err := Exchange(nets[rank], sl, rank, identity, oIn, oOut, finalSize, localRanges, []attr.Array{a})
			require.NoError(t, err)
			results[rank] = []float64(buf)
		}(rank)
	}
	wg.Wait()

	for rank := 0; rank < 2; rank++ {
		predecessor := (rank - 1 + 2) % 2
		require.Len(t, results[rank], finalSize)
		for i := 0; i < assignedSize-nex; i++ {
			require.Equal(t, float64(rank), results[rank][oOut+i], "rank %d kept element %d", rank, i)
		}
		for i := assignedSize - nex; i < assignedSize; i++ {
			require.Equal(t, float64(predecessor), results[rank][oOut+i], "rank %d received element %d", rank, i)
		}
	}
}

func TestCoalesceMergesAdjacentIndices(t *testing.T) {
	ranges := coalesce([]int{5, 6, 7, 10, 11, 20})
	require.Equal(t, []Range{{5, 8}, {10, 12}, {20, 21}}, ranges)
}
