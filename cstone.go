/*Package cstone ties the module's octree, decomposition, exchange and
neighbor-search packages into the single per-rank object described by
the design notes: "the domain object owns all mutable state; the
transport is passed in." A Domain is the library's top-level entry
point, playing the role guppy's Args/mode dispatch in guppy.go plays for
that tool: one object built once, driven through a fixed sequence of
named steps every simulation timestep.
*/
package cstone

import (
	"sort"

	"github.com/phil-mansfield/cstone/lib/box"
	"github.com/phil-mansfield/cstone/lib/cornerstone"
	"github.com/phil-mansfield/cstone/lib/domain"
	"github.com/phil-mansfield/cstone/lib/exchange"
	"github.com/phil-mansfield/cstone/lib/focus"
	"github.com/phil-mansfield/cstone/lib/globaltree"
	"github.com/phil-mansfield/cstone/lib/halo"
	"github.com/phil-mansfield/cstone/lib/layout"
	"github.com/phil-mansfield/cstone/lib/neighbor"
	"github.com/phil-mansfield/cstone/lib/sfc"
	"github.com/phil-mansfield/cstone/lib/transport"
)

// Domain holds one rank's configuration for a distributed SFC-octree
// decomposition: the key width, the simulation volume, the bucket and
// MAC parameters, and the transport this rank exchanges over. It carries
// no other mutable state between calls; every derived structure (the
// global tree, the assignment, the focused tree, the layout) is returned
// to the caller rather than cached, so a Domain is safe to reuse across
// timesteps with a changing particle set.
type Domain[K any] struct {
	Ops          sfc.Ops[K]
	Box          box.Box
	Bucket       int
	Theta        float64
	SatMax       int
	MaxNeighbors int
	Workers      int
	Transport    transport.Transport
}

// Plan is the result of Decompose: the pieces a caller needs to move
// particle data into place (a SendList for the primary redistribution,
// plus, once HaloLeaves has run, the array layout describing where local
// and halo particles land in the post-exchange buffer) and then run
// neighbor search over it.
type Plan[K any] struct {
	GlobalLeaves []K
	GlobalCounts []int
	Assignment   *domain.Assignment[K]

	FocusTree *focus.Tree[K]
	Radix     *cornerstone.RadixTree[K]
	Boxes     *halo.NodeBoxes[K]
	Layout    *layout.ArrayLayout

	// SendList and LocalRanges partition this rank's SFC-sorted local
	// particles for exchange.Exchange, moving each particle to the rank
	// whose Assignment range now owns its key.
	SendList    exchange.SendList
	LocalRanges []exchange.Range
}

// keyFromPosition normalizes a point into this Domain's box and encodes
// it at full resolution, the same way lib/neighbor keys a particle for
// halo-box lookups.
func keyFromPosition[K any](ops sfc.Ops[K], x, y, z float64, b box.Box) K {
	return neighbor.ParticleKey(ops, x, y, z, b)
}

// SortByKey returns the full-resolution SFC keys of x,y,z and the
// permutation that stable-sorts them into ascending key order (the
// layout every other step in this package assumes local particle data
// is already in).
func (d *Domain[K]) SortByKey(x, y, z []float64) (keys []K, order []int) {
	keys = make([]K, len(x))
	for i := range x {
		keys[i] = keyFromPosition(d.Ops, x[i], y[i], z[i], d.Box)
	}
	order = make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return d.Ops.Less(keys[order[a]], keys[order[b]]) })

	sortedKeys := make([]K, len(keys))
	for pos, i := range order {
		sortedKeys[pos] = keys[i]
	}
	return sortedKeys, order
}

// ownerOfKey returns the rank whose assignment range contains k.
func ownerOfKey[K any](ops sfc.Ops[K], a *domain.Assignment[K], k K) int {
	for rank, ranges := range a.Ranges {
		for _, r := range ranges {
			if !ops.Less(k, r.Lo) && ops.Less(k, r.Hi) {
				return rank
			}
		}
	}
	return -1
}

// buildSendList partitions [0, len(sortedKeys)) into contiguous runs by
// destination rank, so exchange.Exchange can redistribute every
// attribute array from this rank's current (sorted-by-key) layout into
// the layout the new assignment demands.
func buildSendList[K any](ops sfc.Ops[K], a *domain.Assignment[K], sortedKeys []K, self int) (exchange.SendList, []exchange.Range) {
	var localRanges []exchange.Range
	byRank := map[int][]exchange.Range{}

	n := len(sortedKeys)
	i := 0
	for i < n {
		owner := ownerOfKey(ops, a, sortedKeys[i])
		j := i + 1
		for j < n && ownerOfKey(ops, a, sortedKeys[j]) == owner {
			j++
		}
		if owner == self {
			localRanges = append(localRanges, exchange.Range{Start: i, End: j})
		} else {
			byRank[owner] = append(byRank[owner], exchange.Range{Start: i, End: j})
		}
		i = j
	}

	var ranks []int
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	sl := exchange.SendList{}
	for _, r := range ranks {
		sl.Peers = append(sl.Peers, exchange.PeerRanges{Rank: r, Ranges: byRank[r]})
	}
	return sl, localRanges
}

// focusKeyRanges converts an Assignment into the focus package's
// per-peer KeyRange list, one entry per contiguous range owned by a
// rank other than self; ranks with more than one contiguous range (rare
// in practice, since domain.Assign never splits a rank's allocation
// once a boundary satisfies it) contribute one KeyRange per range.
func focusKeyRanges[K any](a *domain.Assignment[K], self int) []focus.KeyRange[K] {
	var out []focus.KeyRange[K]
	for rank, ranges := range a.Ranges {
		if rank == self {
			continue
		}
		for _, r := range ranges {
			out = append(out, focus.KeyRange[K]{Rank: rank, Lo: r.Lo, Hi: r.Hi})
		}
	}
	return out
}

// focusSpan returns the smallest [lo, hi) spanning every range this rank
// owns, used as the focus interval: the focused tree stays at full
// resolution across the whole of a rank's assignment even if domain.Assign
// happened to give it more than one disjoint range.
func focusSpan[K any](ops sfc.Ops[K], ranges []domain.Range[K]) (lo, hi K) {
	lo, hi = ops.RootRange(), ops.Zero()
	for _, r := range ranges {
		if ops.Less(r.Lo, lo) {
			lo = r.Lo
		}
		if ops.Less(hi, r.Hi) {
			hi = r.Hi
		}
	}
	return lo, hi
}

// Decompose runs the global-tree, domain-decomposition and
// focused-octree steps of the pipeline: build a cornerstone tree over
// every rank's combined local keys (blocking on the transport), split it
// into per-rank key ranges, refine this rank's own focused tree against
// its neighbors' authoritative counts, and precompute the radix tree and
// halo boxes needed for the traversal step that follows. It does not
// move any particle data; SendList/LocalRanges describe how the caller
// should do so via exchange.Exchange.
func (d *Domain[K]) Decompose(sortedKeys []K) (*Plan[K], error) {
	self := d.Transport.Rank()

	globalLeaves, globalCounts, err := globaltree.Build(d.Ops, d.Bucket, d.Transport, sortedKeys, d.SatMax)
	if err != nil {
		return nil, err
	}

	assignment := domain.Assign(d.Ops, globalLeaves, globalCounts, d.Transport.Size())
	focusLo, focusHi := focusSpan(d.Ops, assignment.Ranges[self])

	ft := focus.New(d.Ops, d.Bucket, d.Theta, d.Box, focusLo, focusHi)
	peerKeys := focusKeyRanges(assignment, self)
	if _, err := ft.Update(sortedKeys, d.SatMax, d.Transport, peerKeys); err != nil {
		return nil, err
	}

	radix := cornerstone.BuildRadixTree[K](d.Ops, ft.Leaves())
	boxes := halo.PrecomputeBoxes[K](d.Ops, ft.Leaves(), radix)

	sendList, localRanges := buildSendList(d.Ops, assignment, sortedKeys, self)

	return &Plan[K]{
		GlobalLeaves: globalLeaves,
		GlobalCounts: globalCounts,
		Assignment:   assignment,
		FocusTree:    ft,
		Radix:        radix,
		Boxes:        boxes,
		SendList:     sendList,
		LocalRanges:  localRanges,
	}, nil
}

// HaloLeaves finds, for every leaf this rank owns in p.FocusTree, every
// other leaf within haloRadius of it (local or foreign), and returns the
// resulting ArrayLayout: local leaves first-class, halo leaves as the
// read-only remainder. localLeafIdx names p.FocusTree.Leaves() indices
// this rank owns, i.e. those whose start key falls inside one of its own
// assignment ranges.
func (p *Plan[K]) HaloLeaves(ops sfc.Ops[K], b box.Box, self int, haloRadius float64) *layout.ArrayLayout {
	leaves := p.FocusTree.Leaves()
	n := len(leaves) - 1

	var localLeafIdx []int
	pbc := [3]bool{b.PBC(0), b.PBC(1), b.PBC(2)}
	haloSet := map[int]bool{}
	for i := 0; i < n; i++ {
		if ownerOfKey(ops, p.Assignment, leaves[i]) != self {
			continue
		}
		localLeafIdx = append(localLeafIdx, i)

		hb := halo.MakeHaloBox(ops, leaves[i], leaves[i+1], haloRadius, b)
		for _, cand := range halo.FindCollisions(ops, leaves, p.Radix, p.Boxes, hb, pbc) {
			if cand != i {
				haloSet[cand] = true
			}
		}
	}
	for _, i := range localLeafIdx {
		delete(haloSet, i)
	}

	haloLeafIdx := make([]int, 0, len(haloSet))
	for i := range haloSet {
		haloLeafIdx = append(haloLeafIdx, i)
	}
	sort.Ints(haloLeafIdx)

	lay := layout.Build(localLeafIdx, haloLeafIdx, p.FocusTree.Counts())
	p.Layout = lay
	return lay
}

// NeighborTree builds the neighbor package's read-only Tree view over
// p's focused octree and layout, ready for neighbor.FindNeighbors once
// the caller has exchanged position/smoothing-length attributes into the
// buffer p.Layout describes.
func (p *Plan[K]) NeighborTree(ops sfc.Ops[K], b box.Box) *neighbor.Tree[K] {
	return &neighbor.Tree[K]{
		Ops:    ops,
		Leaves: p.FocusTree.Leaves(),
		Radix:  p.Radix,
		Boxes:  p.Boxes,
		Layout: p.Layout,
		Domain: b,
	}
}

// FindNeighbors runs neighbor search over p's already-built tree and
// layout for the local particle range [lo, hi) of the combined
// local+halo buffer x, y, z, h describe.
func (d *Domain[K]) FindNeighbors(p *Plan[K], x, y, z, h []float64, lo, hi int, out [][]int32) error {
	tr := p.NeighborTree(d.Ops, d.Box)
	return neighbor.FindNeighbors[K](tr, x, y, z, h, lo, hi, d.MaxNeighbors, d.Workers, out)
}
