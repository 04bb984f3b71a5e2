/*Package halo builds the per-node halo box (a node's integer extent
expanded by an interaction radius, honoring periodic boundaries) and
finds every cornerstone leaf that overlaps it, either by a log-time
radix-tree descent or, for testing, by brute-force comparison against
every leaf.
*/
package halo

import (
	"math"

	"github.com/phil-mansfield/cstone/lib/box"
	"github.com/phil-mansfield/cstone/lib/cornerstone"
	"github.com/phil-mansfield/cstone/lib/sfc"
)

// MakeHaloBox computes the integer halo box of the node [nodeStart,
// nodeEnd) expanded by a single interaction radius, converting the
// floating-point radius to per-axis integer radii via the box's extent
// and the key type's coordinate resolution, then clamping non-periodic
// axes to [0, 2^LMax].
func MakeHaloBox[K any](ops sfc.Ops[K], nodeStart, nodeEnd K, radius float64, b box.Box) box.IntBox {
	r := 1 << uint(ops.LMax())
	dx := int64(math.Ceil(radius / (b.Hi(0) - b.Lo(0)) * float64(r)))
	dy := int64(math.Ceil(radius / (b.Hi(1) - b.Lo(1)) * float64(r)))
	dz := int64(math.Ceil(radius / (b.Hi(2) - b.Lo(2)) * float64(r)))
	return MakeHaloBoxRadii(ops, nodeStart, nodeEnd, dx, dy, dz, b)
}

// MakeHaloBoxRadii is the explicit-per-axis-radius overload of
// MakeHaloBox.
func MakeHaloBoxRadii[K any](ops sfc.Ops[K], nodeStart, nodeEnd K, dx, dy, dz int64, b box.Box) box.IntBox {
	ixLo, iyLo, izLo := ops.Decode(nodeStart)
	// nodeEnd-1 is the last key inside the node; decoding it gives the
	// node's upper integer corner once +1 unit is added on each axis.
	one := ops.Sub(nodeEnd, ops.FromUint64(1))
	ixHi, iyHi, izHi := ops.Decode(one)

	r := int64(1) << uint(ops.LMax())
	nb := box.NewIntBox(
		int64(ixLo)-dx, int64(ixHi)+1+dx,
		int64(iyLo)-dy, int64(iyHi)+1+dy,
		int64(izLo)-dz, int64(izHi)+1+dz,
	)

	if !b.PBC(0) {
		nb.XMin, nb.XMax = clamp(nb.XMin, r), clamp(nb.XMax, r)
	}
	if !b.PBC(1) {
		nb.YMin, nb.YMax = clamp(nb.YMin, r), clamp(nb.YMax, r)
	}
	if !b.PBC(2) {
		nb.ZMin, nb.ZMax = clamp(nb.ZMin, r), clamp(nb.ZMax, r)
	}
	return nb
}

func clamp(v, r int64) int64 {
	if v < 0 {
		return 0
	}
	if v > r {
		return r
	}
	return v
}

// nodeIntBox returns the integer box of the cornerstone node
// [start,end), used internally when testing overlap against a halo box.
func nodeIntBox[K any](ops sfc.Ops[K], start, end K) box.IntBox {
	ixLo, iyLo, izLo := ops.Decode(start)
	one := ops.Sub(end, ops.FromUint64(1))
	ixHi, iyHi, izHi := ops.Decode(one)
	return box.NewIntBox(
		int64(ixLo), int64(ixHi)+1,
		int64(iyLo), int64(iyHi)+1,
		int64(izLo), int64(izHi)+1,
	)
}

// overlaps tests whether a cornerstone node's integer box intersects hb
// under the given per-axis periodicity, using box.OverlapRange on each
// axis.
func overlaps(nb, hb box.IntBox, pbc [3]bool, r int64) bool {
	axisOverlap := func(nlo, nhi, hlo, hhi int64, periodic bool) bool {
		if periodic {
			return box.OverlapRange(nlo, nhi, hlo, hhi, r)
		}
		return nlo < hhi && hlo < nhi
	}
	return axisOverlap(nb.XMin, nb.XMax, hb.XMin, hb.XMax, pbc[0]) &&
		axisOverlap(nb.YMin, nb.YMax, hb.YMin, hb.YMax, pbc[1]) &&
		axisOverlap(nb.ZMin, nb.ZMax, hb.ZMin, hb.ZMax, pbc[2])
}

// contained tests whether a cornerstone node's integer box lies entirely
// inside hb under the given periodicity.
func contained(nb, hb box.IntBox, pbc [3]bool, r int64) bool {
	axisContained := func(nlo, nhi, hlo, hhi int64, periodic bool) bool {
		if periodic {
			return box.ContainedIn(nlo, nhi, hlo, hhi, r)
		}
		return hlo <= nlo && nhi <= hhi
	}
	return axisContained(nb.XMin, nb.XMax, hb.XMin, hb.XMax, pbc[0]) &&
		axisContained(nb.YMin, nb.YMax, hb.YMin, hb.YMax, pbc[1]) &&
		axisContained(nb.ZMin, nb.ZMax, hb.ZMin, hb.ZMax, pbc[2])
}

// NodeBoxes caches a per-internal-node bounding box over a radix tree's
// leaves, computed once per tree build and reused across every
// FindCollisions call made against that tree (one per particle during
// neighbor search). Without it, pruning would require re-deriving each
// internal node's extent on every query.
type NodeBoxes[K any] struct {
	leafBoxes []box.IntBox
	nodeBoxes []box.IntBox
}

// PrecomputeBoxes computes the bounding box of every leaf and internal
// node of radix, via one post-order pass over the tree (each node is
// visited exactly once).
func PrecomputeBoxes[K any](ops sfc.Ops[K], leaves []K, radix *cornerstone.RadixTree[K]) *NodeBoxes[K] {
	n := len(leaves) - 1
	nb := &NodeBoxes[K]{
		leafBoxes: make([]box.IntBox, max0(n)),
		nodeBoxes: make([]box.IntBox, max0(radix.NumInternalNodes())),
	}
	for i := 0; i < n; i++ {
		nb.leafBoxes[i] = nodeIntBox(ops, leaves[i], leaves[i+1])
	}
	if n > 1 {
		root, rootIsLeaf := radix.Root()
		nb.computeBox(radix, root, rootIsLeaf)
	}
	return nb
}

func max0(x int) int {
	if x < 0 {
		return 0
	}
	return x
}

func (nb *NodeBoxes[K]) computeBox(radix *cornerstone.RadixTree[K], idx int, isLeaf bool) box.IntBox {
	if isLeaf {
		return nb.leafBoxes[idx]
	}
	node := radix.Node(idx)
	lb := nb.computeBox(radix, node.Left, node.LeftIsLeaf)
	rb := nb.computeBox(radix, node.Right, node.RightIsLeaf)
	u := unionBox(lb, rb)
	nb.nodeBoxes[idx] = u
	return u
}

func unionBox(a, b box.IntBox) box.IntBox {
	min := func(x, y int64) int64 {
		if x < y {
			return x
		}
		return y
	}
	max := func(x, y int64) int64 {
		if x > y {
			return x
		}
		return y
	}
	return box.NewIntBox(
		min(a.XMin, b.XMin), max(a.XMax, b.XMax),
		min(a.YMin, b.YMin), max(a.YMax, b.YMax),
		min(a.ZMin, b.ZMin), max(a.ZMax, b.ZMax),
	)
}

// FindCollisions returns the indices of every leaf whose node overlaps
// haloBox, via an iterative, explicit-stack descent of the radix tree:
// at each internal node it tests the node's precomputed bounding box
// against haloBox and prunes the whole subtree on a miss, descending
// into children only on a (possible) hit.
func FindCollisions[K any](ops sfc.Ops[K], leaves []K, radix *cornerstone.RadixTree[K], boxes *NodeBoxes[K], haloBox box.IntBox, pbc [3]bool) []int {
	n := len(leaves) - 1
	if n == 0 {
		return nil
	}
	r := int64(1) << uint(ops.LMax())
	var result []int

	type frame struct {
		idx    int
		isLeaf bool
	}
	root, rootIsLeaf := radix.Root()
	stack := []frame{{root, rootIsLeaf}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var nb box.IntBox
		if f.isLeaf {
			nb = boxes.leafBoxes[f.idx]
		} else {
			nb = boxes.nodeBoxes[f.idx]
		}
		if !overlaps(nb, haloBox, pbc, r) {
			continue
		}

		if f.isLeaf {
			result = append(result, f.idx)
			continue
		}

		node := radix.Node(f.idx)
		stack = append(stack, frame{node.Left, node.LeftIsLeaf}, frame{node.Right, node.RightIsLeaf})
	}

	return result
}

// FindCollisionsAll2All is the naive reference implementation: it tests
// every leaf against haloBox directly, with no tree traversal. Used in
// tests to verify FindCollisions agrees with it.
func FindCollisionsAll2All[K any](ops sfc.Ops[K], leaves []K, haloBox box.IntBox, pbc [3]bool) []int {
	n := len(leaves) - 1
	r := int64(1) << uint(ops.LMax())
	var result []int
	for i := 0; i < n; i++ {
		nb := nodeIntBox(ops, leaves[i], leaves[i+1])
		if overlaps(nb, haloBox, pbc, r) {
			result = append(result, i)
		}
	}
	return result
}

// ContainedIn reports whether the cornerstone node [start,end) lies
// entirely inside haloBox under the given periodicity. FindCollisions
// does not use it: it records every overlapping leaf individually.
func ContainedIn[K any](ops sfc.Ops[K], start, end K, haloBox box.IntBox, pbc [3]bool) bool {
	r := int64(1) << uint(ops.LMax())
	nb := nodeIntBox(ops, start, end)
	return contained(nb, haloBox, pbc, r)
}
