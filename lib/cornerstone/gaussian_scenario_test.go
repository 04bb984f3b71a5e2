package cornerstone

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/cstone/lib/box"
	"github.com/phil-mansfield/cstone/lib/sfc"
	"github.com/phil-mansfield/cstone/lib/testutil"
)

func keysFromPositions32(x, y, z []float64, domain box.Box) []sfc.Key32 {
	n := float64(uint32(1) << sfc.LMax32)
	toInt := func(v float64, lo, hi float64) uint32 {
		frac := box.Normalize(v, lo, hi)
		i := int64(frac * n)
		if i < 0 {
			i = 0
		}
		if i >= int64(n) {
			i = int64(n) - 1
		}
		return uint32(i)
	}
	keys := make([]sfc.Key32, len(x))
	for i := range x {
		ix := toInt(x[i], domain.Xmin(), domain.Xmax())
		iy := toInt(y[i], domain.Ymin(), domain.Ymax())
		iz := toInt(z[i], domain.Zmin(), domain.Zmax())
		keys[i] = sfc.Encode32(ix, iy, iz)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// TestGaussianHundredThousandParticlesRespectsBucket builds a cornerstone
// tree over 100,000 Gaussian-distributed particles with bucket=64 and
// checks every leaf ends up at or under that count, then perturbs every
// particle by at most minRange and updates the same tree with the
// perturbed keys, checking the tree is still well-formed.
func TestGaussianHundredThousandParticlesRespectsBucket(t *testing.T) {
	ops := sfc.Ops32{}
	domain := box.Cube(0, 1, false)
	const bucket = 64

	x, y, z := testutil.GaussianParticles(100000, 99, 0.15, domain)
	keys := keysFromPositions32(x, y, z, domain)

	tree := New[sfc.Key32](ops, bucket)
	counts, err := tree.Update(keys, 1<<30)
	require.NoError(t, err)

	require.NoError(t, CheckInvariants[sfc.Key32](ops, tree.Leaves()))
	for i, c := range counts {
		require.LessOrEqual(t, c, bucket, "leaf %d has count %d > bucket %d", i, c, bucket)
	}

	minRange := float64(1) / float64(uint32(1)<<sfc.LMax32)
	px, py, pz := testutil.Perturb(x, y, z, minRange, 101, domain)
	perturbedKeys := keysFromPositions32(px, py, pz, domain)

	_, err = tree.Update(perturbedKeys, 1<<30)
	require.NoError(t, err)
	require.NoError(t, CheckInvariants[sfc.Key32](ops, tree.Leaves()))
}
