package sfc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode32Bijection(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		ix := uint32(rng.Intn(1 << LMax32))
		iy := uint32(rng.Intn(1 << LMax32))
		iz := uint32(rng.Intn(1 << LMax32))

		key := Encode32(ix, iy, iz)
		ox, oy, oz := Decode32(key)
		require.Equal(t, ix, ox)
		require.Equal(t, iy, oy)
		require.Equal(t, iz, oz)
	}
}

func TestEncodeDecode64Bijection(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 10000; i++ {
		ix := uint64(rng.Int63n(1 << LMax64))
		iy := uint64(rng.Int63n(1 << LMax64))
		iz := uint64(rng.Int63n(1 << LMax64))

		key := Encode64(ix, iy, iz)
		ox, oy, oz := Decode64(key)
		require.Equal(t, ix, ox)
		require.Equal(t, iy, oy)
		require.Equal(t, iz, oz)
	}
}

func TestZHighestInTriplet(t *testing.T) {
	// A unit step in z alone should outweigh a unit step in x or y in the
	// most significant triplet, since z occupies the top bit of each group.
	base := Encode32(0, 0, 0)
	xStep := Encode32(1<<(LMax32-1), 0, 0)
	zStep := Encode32(0, 0, 1<<(LMax32-1))
	require.Greater(t, uint32(zStep), uint32(xStep))
	require.Greater(t, uint32(zStep), uint32(base))
}

func TestNodeRangeAndTreeLevel32(t *testing.T) {
	for level := 0; level <= LMax32; level++ {
		r := NodeRange32(level)
		require.True(t, IsPowerOf8Range32(r))
		require.Equal(t, level, TreeLevel32(r))
	}
}

func TestNodeRangeAndTreeLevel64(t *testing.T) {
	for level := 0; level <= LMax64; level++ {
		r := NodeRange64(level)
		require.True(t, IsPowerOf8Range64(r))
		require.Equal(t, level, TreeLevel64(r))
	}
}

func TestCommonPrefixLength32(t *testing.T) {
	require.Equal(t, 3*LMax32, CommonPrefixLength32(0, 0))

	a := Encode32(1<<(LMax32-1), 0, 0)
	b := Key32(0)
	// The two keys differ in the top triplet's x bit, so only 2 of the 3
	// top bits (z, y) are shared before the mismatch.
	require.Equal(t, 2, CommonPrefixLength32(a, b))
}

func TestCodeFromIndicesMatchesCodeFromBox(t *testing.T) {
	// octant path [3, 5] at level 2 should equal the box code for the
	// corresponding integer coordinates at level 2.
	key := CodeFromIndices32([]int{3, 5})

	// Decompose indices 3 = 0b011 (x=1,y=1,z=0) and 5 = 0b101 (x=1,y=0,z=1)
	// into level-local coordinates and rebuild via CodeFromBox32.
	ix, iy, iz := 0, 0, 0
	for level, idx := range []int{3, 5} {
		bit := 2 - 1 - level
		if idx&1 != 0 {
			ix |= 1 << bit
		}
		if idx&2 != 0 {
			iy |= 1 << bit
		}
		if idx&4 != 0 {
			iz |= 1 << bit
		}
	}
	want := CodeFromBox32(uint32(ix), uint32(iy), uint32(iz), 2)
	require.Equal(t, want, key)
}
