package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/cstone/lib/sfc"
)

func TestAssignTilesRootWithNoOverlap(t *testing.T) {
	ops := sfc.Ops32{}
	leaves := []sfc.Key32{0, 100, 200, 300, 400, 500, 600, 700, 800}
	counts := []int{10, 10, 10, 10, 10, 10, 10, 10}

	a := Assign[sfc.Key32](ops, leaves, counts, 4)
	require.Equal(t, 4, a.NumRanks())

	var allRanges []Range[sfc.Key32]
	for _, ranges := range a.Ranges {
		allRanges = append(allRanges, ranges...)
	}
	require.NotEmpty(t, allRanges)

	// Ranges must tile [0, 800) with no gaps and no overlaps.
	var prevHi sfc.Key32 = 0
	for _, r := range allRanges {
		require.Equal(t, prevHi, r.Lo)
		prevHi = r.Hi
	}
	require.Equal(t, sfc.Key32(800), prevHi)
}

func TestAssignBalancesParticleCounts(t *testing.T) {
	ops := sfc.Ops32{}
	leaves := make([]sfc.Key32, 101)
	counts := make([]int, 100)
	for i := range leaves {
		leaves[i] = sfc.Key32(i * 8)
	}
	for i := range counts {
		counts[i] = 10
	}

	a := Assign[sfc.Key32](ops, leaves, counts, 5)
	for _, ranges := range a.Ranges {
		require.NotEmpty(t, ranges)
	}
}

func TestAssignDeterministic(t *testing.T) {
	ops := sfc.Ops32{}
	leaves := []sfc.Key32{0, 8, 16, 24, 32, 40}
	counts := []int{3, 7, 2, 9, 1}

	a1 := Assign[sfc.Key32](ops, leaves, counts, 3)
	a2 := Assign[sfc.Key32](ops, leaves, counts, 3)
	require.Equal(t, a1, a2)
}
