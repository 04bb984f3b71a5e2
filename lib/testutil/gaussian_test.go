package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/phil-mansfield/cstone/lib/box"
)

func TestGaussianParticlesStayInBounds(t *testing.T) {
	domain := box.Cube(0, 1, false)
	x, y, z := GaussianParticles(5000, 42, 0.1, domain)
	require.Len(t, x, 5000)
	for i := range x {
		require.GreaterOrEqual(t, x[i], 0.0)
		require.LessOrEqual(t, x[i], 1.0)
		require.GreaterOrEqual(t, y[i], 0.0)
		require.LessOrEqual(t, y[i], 1.0)
		require.GreaterOrEqual(t, z[i], 0.0)
		require.LessOrEqual(t, z[i], 1.0)
	}

	mean, std := stat.MeanStdDev(x, nil)
	require.InDelta(t, 0.5, mean, 0.05)
	require.Greater(t, std, 0.0)
}

func TestGaussianParticlesPeriodicWraps(t *testing.T) {
	domain := box.Cube(0, 1, true)
	x, _, _ := GaussianParticles(2000, 7, 0.6, domain)
	for _, v := range x {
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestPerturbStaysWithinShiftBound(t *testing.T) {
	domain := box.Cube(0, 1, false)
	x, y, z := GaussianParticles(1000, 3, 0.1, domain)
	px, py, pz := Perturb(x, y, z, 0.01, 11, domain)
	for i := range x {
		require.InDelta(t, x[i], px[i], 0.01+1e-12)
		require.InDelta(t, y[i], py[i], 0.01+1e-12)
		require.InDelta(t, z[i], pz[i], 0.01+1e-12)
	}
}
