package neighbor

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/cstone/lib/box"
	"github.com/phil-mansfield/cstone/lib/cornerstone"
	"github.com/phil-mansfield/cstone/lib/errs"
	"github.com/phil-mansfield/cstone/lib/halo"
	"github.com/phil-mansfield/cstone/lib/layout"
	"github.com/phil-mansfield/cstone/lib/sfc"
)

// buildSingleRankTree scatters n random points in the unit cube, sorts
// them by their full-resolution SFC key (so the resulting position
// arrays match the layout's leaf-ordered buffer convention), and builds
// the cornerstone/radix/layout state a single rank would hold.
func buildSingleRankTree(n int, seed int64, bucket int, domain box.Box) (*Tree[sfc.Key32], []float64, []float64, []float64) {
	ops := sfc.Ops32{}
	rng := rand.New(rand.NewSource(seed))

	x := make([]float64, n)
	y := make([]float64, n)
	z := make([]float64, n)
	keys := make([]sfc.Key32, n)
	for i := range x {
		x[i] = rng.Float64()
		y[i] = rng.Float64()
		z[i] = rng.Float64()
		keys[i] = ParticleKey(ops, x[i], y[i], z[i], domain)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })

	sx := make([]float64, n)
	sy := make([]float64, n)
	sz := make([]float64, n)
	sortedKeys := make([]sfc.Key32, n)
	for pos, i := range order {
		sx[pos], sy[pos], sz[pos] = x[i], y[i], z[i]
		sortedKeys[pos] = keys[i]
	}

	tree := cornerstone.New[sfc.Key32](ops, bucket)
	counts, err := tree.Update(sortedKeys, 1<<30)
	if err != nil {
		panic(err)
	}
	leaves := tree.Leaves()

	localLeaves := make([]int, len(leaves)-1)
	for i := range localLeaves {
		localLeaves[i] = i
	}
	lay := layout.Build(localLeaves, nil, counts)

	radix := cornerstone.BuildRadixTree[sfc.Key32](ops, leaves)
	boxes := halo.PrecomputeBoxes[sfc.Key32](ops, leaves, radix)

	return &Tree[sfc.Key32]{
		Ops: ops, Leaves: leaves, Radix: radix, Boxes: boxes, Layout: lay, Domain: domain,
	}, sx, sy, sz
}

func bruteForceNeighbors(x, y, z []float64, h float64, p int, domain box.Box) []int {
	var out []int
	for q := range x {
		if q == p {
			continue
		}
		dx := minImage(x[q], x[p], domain.Lo(0), domain.Hi(0), domain.PBC(0))
		dy := minImage(y[q], y[p], domain.Lo(1), domain.Hi(1), domain.PBC(1))
		dz := minImage(z[q], z[p], domain.Lo(2), domain.Hi(2), domain.PBC(2))
		if math.Sqrt(dx*dx+dy*dy+dz*dz) <= h {
			out = append(out, q)
		}
	}
	sort.Ints(out)
	return out
}

func TestFindNeighborsMatchesBruteForce(t *testing.T) {
	domain := box.Cube(0, 1, false)
	n := 400
	tr, x, y, z := buildSingleRankTree(n, 5, 16, domain)

	h := make([]float64, n)
	for i := range h {
		h[i] = 0.05
	}

	out := make([][]int32, n)
	err := FindNeighbors[sfc.Key32](tr, x, y, z, h, 0, n, 1000, 0, out)
	require.NoError(t, err)

	for p := 0; p < n; p += 37 {
		want := bruteForceNeighbors(x, y, z, h[p], p, domain)
		var got []int
		for _, v := range out[p] {
			got = append(got, int(v))
		}
		sort.Ints(got)
		require.Equal(t, want, got, "particle %d", p)
	}
}

func TestFindNeighborsMatchesBruteForcePeriodic(t *testing.T) {
	domain := box.Cube(0, 1, true)
	n := 400
	tr, x, y, z := buildSingleRankTree(n, 9, 16, domain)

	h := make([]float64, n)
	for i := range h {
		h[i] = 0.05
	}

	out := make([][]int32, n)
	err := FindNeighbors[sfc.Key32](tr, x, y, z, h, 0, n, 1000, 0, out)
	require.NoError(t, err)

	for p := 0; p < n; p += 37 {
		want := bruteForceNeighbors(x, y, z, h[p], p, domain)
		var got []int
		for _, v := range out[p] {
			got = append(got, int(v))
		}
		sort.Ints(got)
		require.Equal(t, want, got, "particle %d", p)
	}
}

func TestFindNeighborsOverflowIsFatal(t *testing.T) {
	domain := box.Cube(0, 1, false)
	n := 400
	tr, x, y, z := buildSingleRankTree(n, 13, 16, domain)

	h := make([]float64, n)
	for i := range h {
		h[i] = 0.3 // large enough that most particles have many neighbors
	}

	out := make([][]int32, n)
	err := FindNeighbors[sfc.Key32](tr, x, y, z, h, 0, n, 1, 0, out)
	require.Error(t, err)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.NeighborOverflow, e.Kind)
}
