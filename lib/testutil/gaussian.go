/*Package testutil generates particle distributions used by the property
tests across this module, the way guppy's go/sim_stats.go reaches for
gonum instead of hand-rolling statistics.
*/
package testutil

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/phil-mansfield/cstone/lib/box"
)

// GaussianParticles draws n isotropic-Gaussian particle positions centered
// on domain's midpoint with standard deviation sigma, wrapping draws that
// fall outside a periodic axis and clamping them on a non-periodic one.
func GaussianParticles(n int, seed int64, sigma float64, domain box.Box) (x, y, z []float64) {
	src := rand.New(rand.NewSource(uint64(seed)))
	newDist := func(mu float64) distuv.Normal {
		return distuv.Normal{Mu: mu, Sigma: sigma, Src: src}
	}
	dx := newDist(0.5 * (domain.Xmin() + domain.Xmax()))
	dy := newDist(0.5 * (domain.Ymin() + domain.Ymax()))
	dz := newDist(0.5 * (domain.Zmin() + domain.Zmax()))

	x = make([]float64, n)
	y = make([]float64, n)
	z = make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = wrapOrClamp(dx.Rand(), domain.Xmin(), domain.Xmax(), domain.PBC(0))
		y[i] = wrapOrClamp(dy.Rand(), domain.Ymin(), domain.Ymax(), domain.PBC(1))
		z[i] = wrapOrClamp(dz.Rand(), domain.Zmin(), domain.Zmax(), domain.PBC(2))
	}
	return x, y, z
}

func wrapOrClamp(v, lo, hi float64, periodic bool) float64 {
	extent := hi - lo
	if periodic {
		v = math.Mod(v-lo, extent)
		if v < 0 {
			v += extent
		}
		return lo + v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Perturb displaces each coordinate by an independent uniform draw in
// [-maxShift, maxShift], wrapping or clamping the result the same way
// GaussianParticles does; used to build the "perturbations <= minRange"
// scenario that re-validates tree structure without regenerating keys
// from scratch.
func Perturb(x, y, z []float64, maxShift float64, seed int64, domain box.Box) (px, py, pz []float64) {
	rng := rand.New(rand.NewSource(uint64(seed)))
	shift := func() float64 { return (rng.Float64()*2 - 1) * maxShift }

	px = make([]float64, len(x))
	py = make([]float64, len(y))
	pz = make([]float64, len(z))
	for i := range x {
		px[i] = wrapOrClamp(x[i]+shift(), domain.Xmin(), domain.Xmax(), domain.PBC(0))
		py[i] = wrapOrClamp(y[i]+shift(), domain.Ymin(), domain.Ymax(), domain.PBC(1))
		pz[i] = wrapOrClamp(z[i]+shift(), domain.Zmin(), domain.Zmax(), domain.PBC(2))
	}
	return px, py, pz
}
