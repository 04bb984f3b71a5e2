package cstone

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/cstone/lib/box"
	"github.com/phil-mansfield/cstone/lib/cornerstone"
	"github.com/phil-mansfield/cstone/lib/sfc"
	"github.com/phil-mansfield/cstone/lib/testutil"
	"github.com/phil-mansfield/cstone/lib/transport"
)

func bruteForce(x, y, z []float64, h float64, p int, b box.Box) []int {
	var out []int
	for q := range x {
		if q == p {
			continue
		}
		dx := x[q] - x[p]
		dy := y[q] - y[p]
		dz := z[q] - z[p]
		if math.Sqrt(dx*dx+dy*dy+dz*dz) <= h {
			out = append(out, q)
		}
	}
	return out
}

// TestSingleRankPipelineMatchesBruteForceNeighbors runs the full
// Decompose -> HaloLeaves -> FindNeighbors pipeline for a single rank
// (so no particle data actually needs to cross the transport) and checks
// the resulting neighbor lists agree with an O(n^2) reference.
func TestSingleRankPipelineMatchesBruteForceNeighbors(t *testing.T) {
	nets := transport.NewMockNetwork(1)
	d := &Domain[sfc.Key32]{
		Ops:          sfc.Ops32{},
		Box:          box.Cube(0, 1, false),
		Bucket:       16,
		Theta:        0.5,
		SatMax:       1 << 30,
		MaxNeighbors: 1000,
		Transport:    nets[0],
	}

	x, y, z := testutil.GaussianParticles(500, 21, 0.15, d.Box)

	sortedKeys, order := d.SortByKey(x, y, z)
	sx := make([]float64, len(x))
	sy := make([]float64, len(x))
	sz := make([]float64, len(x))
	for pos, i := range order {
		sx[pos], sy[pos], sz[pos] = x[i], y[i], z[i]
	}

	plan, err := d.Decompose(sortedKeys)
	require.NoError(t, err)
	require.Empty(t, plan.SendList.Peers, "single rank keeps every particle")
	require.Len(t, plan.LocalRanges, 1)
	require.Equal(t, 0, plan.LocalRanges[0].Start)
	require.Equal(t, len(sx), plan.LocalRanges[0].End)

	lay := plan.HaloLeaves(d.Ops, d.Box, d.Transport.Rank(), 0.05)
	require.NotEmpty(t, lay.NodeList)
	require.NoError(t, cornerstone.CheckInvariants[sfc.Key32](d.Ops, plan.FocusTree.Leaves()))

	h := make([]float64, len(sx))
	for i := range h {
		h[i] = 0.05
	}

	out := make([][]int32, len(sx))
	err = d.FindNeighbors(plan, sx, sy, sz, h, 0, len(sx), out)
	require.NoError(t, err)

	for p := 0; p < len(sx); p += 41 {
		want := bruteForce(sx, sy, sz, h[p], p, d.Box)
		got := make([]int, len(out[p]))
		for i, v := range out[p] {
			got[i] = int(v)
		}
		require.ElementsMatch(t, want, got, "particle %d", p)
	}
}
