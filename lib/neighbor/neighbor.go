/*Package neighbor finds, for each local particle, the indices of every
particle (local or halo) within its smoothing length, using the halo
box and radix-tree traversal from lib/halo to restrict the search to
candidate leaves instead of scanning every particle.
*/
package neighbor

import (
	"math"
	"sync"

	"github.com/phil-mansfield/cstone/lib"
	"github.com/phil-mansfield/cstone/lib/box"
	"github.com/phil-mansfield/cstone/lib/cornerstone"
	"github.com/phil-mansfield/cstone/lib/errs"
	"github.com/phil-mansfield/cstone/lib/halo"
	"github.com/phil-mansfield/cstone/lib/layout"
	"github.com/phil-mansfield/cstone/lib/sfc"
)

// Tree bundles the read-only, per-step tree state neighbor search needs:
// the leaf array, its radix tree and precomputed boxes, and the layout
// mapping leaf indices into the combined local+halo position buffer.
type Tree[K any] struct {
	Ops    sfc.Ops[K]
	Leaves []K
	Radix  *cornerstone.RadixTree[K]
	Boxes  *halo.NodeBoxes[K]
	Layout *layout.ArrayLayout
	Domain box.Box
}

// ParticleKey returns the full-resolution key of a point, by normalizing
// its coordinates into [0, 2^LMax) integer space the same way the
// cornerstone leaf boundaries are encoded.
func ParticleKey[K any](ops sfc.Ops[K], x, y, z float64, b box.Box) K {
	n := float64(uint64(1) << uint(ops.LMax()))
	toInt := func(v float64, axis int) uint64 {
		frac := box.Normalize(v, b.Lo(axis), b.Hi(axis))
		i := int64(frac * n)
		if i < 0 {
			i = 0
		}
		top := int64(n) - 1
		if i > top {
			i = top
		}
		return uint64(i)
	}
	return ops.FromBox(toInt(x, 0), toInt(y, 1), toInt(z, 2), ops.LMax())
}

// minImage returns the component-wise minimum-image separation a-b under
// the domain's per-axis periodicity.
func minImage(a, b, lo, hi float64, periodic bool) float64 {
	d := a - b
	if !periodic {
		return d
	}
	extent := hi - lo
	if d > extent/2 {
		d -= extent
	} else if d < -extent/2 {
		d += extent
	}
	return d
}

// FindNeighbors computes, for every local particle in [lo,hi), the
// indices (into x,y,z) of every particle within h[p] of it, using t's
// tree to restrict the search to overlapping leaves. out[p] is reused
// across calls by the caller; it is truncated to 0 length and refilled.
// Exceeding maxNeighbors for any particle is a fatal NeighborOverflow:
// that particle's search stops at the cap, the remaining particles are
// still processed, and the first overflow error is returned at the end
// (no partial results are trustworthy once one particle has overflowed).
//
// x, y, z, h index the same combined local+halo particle buffer that
// t.Layout describes; lo and hi name the local particle range to compute
// neighbors for within that buffer.
func FindNeighbors[K any](t *Tree[K], x, y, z, h []float64, lo, hi, maxNeighbors, workers int, out [][]int32) error {
	pbc := [3]bool{t.Domain.PBC(0), t.Domain.PBC(1), t.Domain.PBC(2)}

	var mu sync.Mutex
	var firstErr error

	lib.ForkJoin(hi-lo, workers, func(chunkLo, chunkHi int) {
		for p := lo + chunkLo; p < lo+chunkHi; p++ {
			list := out[p][:0]
			kp := ParticleKey(t.Ops, x[p], y[p], z[p], t.Domain)
			kp1 := t.Ops.Add(kp, t.Ops.FromUint64(1))
			haloBox := halo.MakeHaloBox(t.Ops, kp, kp1, h[p], t.Domain)

			candidates := halo.FindCollisions(t.Ops, t.Leaves, t.Radix, t.Boxes, haloBox, pbc)
		candidateLoop:
			for _, leafIdx := range candidates {
				offset, count, ok := t.Layout.Lookup(leafIdx)
				if !ok {
					continue
				}
				for q := offset; q < offset+count; q++ {
					if q == p {
						continue
					}
					dx := minImage(x[q], x[p], t.Domain.Lo(0), t.Domain.Hi(0), pbc[0])
					dy := minImage(y[q], y[p], t.Domain.Lo(1), t.Domain.Hi(1), pbc[1])
					dz := minImage(z[q], z[p], t.Domain.Lo(2), t.Domain.Hi(2), pbc[2])
					dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
					if dist > h[p] {
						continue
					}
					if len(list) >= maxNeighbors {
						mu.Lock()
						if firstErr == nil {
							firstErr = errs.New(errs.NeighborOverflow,
								"particle %d exceeded neighbor cap %d", p, maxNeighbors)
						}
						mu.Unlock()
						break candidateLoop
					}
					list = append(list, int32(q))
				}
			}
			out[p] = list
		}
	})

	return firstErr
}
