/*Package cornerstone implements the flat, sorted-leaf-array octree that
the rest of this module builds on: leaf counting, the merge/keep/split
rebalance decision, and the update loop that iterates rebalance to a
fixed point. It also implements the binary radix tree that gives the
halo and neighbor packages log-time range queries over the leaves.

The tree and radix-tree logic here is written once, generically over the
key width (sfc.Key32 or sfc.Key64), rather than duplicated per width the
way the SFC codec itself is: unlike the codec's handful of small bit
twiddling functions, this package's rebalance/traversal machinery is the
bulk of the module, and duplicating it wholesale would cost far more than
it would teach.
*/
package cornerstone

import (
	"sort"

	"github.com/phil-mansfield/cstone/lib/errs"
	"github.com/phil-mansfield/cstone/lib/sfc"
)

// Op is a per-leaf rebalance decision.
type Op int

const (
	OpMerge Op = 0
	OpKeep  Op = 1
	OpSplit Op = 8
)

// Tree is a cornerstone octree over a key type K, represented as its
// flat sorted leaf boundary array: leaves[i] names node [leaves[i],
// leaves[i+1]), so a tree with n leaves has n+1 boundary entries.
type Tree[K any] struct {
	ops    sfc.Ops[K]
	bucket int
	leaves []K
}

// New builds the single-leaf root tree [0, rootRange].
func New[K any](ops sfc.Ops[K], bucket int) *Tree[K] {
	return &Tree[K]{
		ops:    ops,
		bucket: bucket,
		leaves: []K{ops.Zero(), ops.RootRange()},
	}
}

// Leaves returns the current leaf boundary array. Callers must not
// mutate the returned slice.
func (t *Tree[K]) Leaves() []K { return t.leaves }

// NumLeaves returns the number of leaves (one fewer than len(Leaves())).
func (t *Tree[K]) NumLeaves() int { return len(t.leaves) - 1 }

// Count computes per-leaf particle counts by binary search over the
// sorted key array keys, saturating at satMax to detect resolution
// exhaustion without an unbounded leaf count.
func (t *Tree[K]) Count(keys []K, satMax int) []int {
	counts := make([]int, t.NumLeaves())
	less := func(a, b K) bool { return t.ops.Less(a, b) }
	for i := 0; i < t.NumLeaves(); i++ {
		lo := sort.Search(len(keys), func(j int) bool { return !less(keys[j], t.leaves[i]) })
		hi := sort.Search(len(keys), func(j int) bool { return !less(keys[j], t.leaves[i+1]) })
		n := hi - lo
		if n > satMax {
			n = satMax
		}
		counts[i] = n
	}
	return counts
}

// level returns the octree level of leaf i.
func (t *Tree[K]) level(i int) int {
	return t.ops.TreeLevel(t.ops.Sub(t.leaves[i+1], t.leaves[i]))
}

// siblingGroupStart reports whether leaf i is the first of an aligned
// group of 8 sibling leaves: leaf i starts on a boundary of its parent
// node's key range, and leaves i..i+7 all exist and share leaf i's
// level, so together they tile exactly that parent.
func (t *Tree[K]) siblingGroupStart(i int) bool {
	if i+8 > t.NumLeaves() {
		return false
	}
	level := t.level(i)
	if level == 0 {
		return false
	}
	if !isAligned(t.ops, t.leaves[i], t.ops.NodeRange(level-1)) {
		return false
	}
	for k := 1; k < 8; k++ {
		if t.level(i+k) != level {
			return false
		}
	}
	return true
}

// RebalanceDecision computes the op code for every leaf, per the
// merge/keep/split rule: a leaf opens a merge only if it starts an
// aligned sibling-8 group whose combined count fits the bucket and which
// is not the whole root; it splits if its count exceeds the bucket and
// it has not reached LMax; otherwise it is kept.
func (t *Tree[K]) RebalanceDecision(counts []int) []Op {
	ops := make([]Op, t.NumLeaves())
	lmax := t.ops.LMax()
	for i := range ops {
		ops[i] = OpKeep
	}
	for i := 0; i < t.NumLeaves(); i++ {
		level := t.level(i)
		if t.siblingGroupStart(i) {
			sum := 0
			for k := 0; k < 8; k++ {
				sum += counts[i+k]
			}
			if sum <= t.bucket {
				for k := 0; k < 8; k++ {
					ops[i+k] = OpMerge
				}
				continue
			}
		}
		if ops[i] == OpMerge {
			continue
		}
		if counts[i] > t.bucket && level < lmax {
			ops[i] = OpSplit
		} else {
			ops[i] = OpKeep
		}
	}
	return ops
}

// Converged reports whether every op is a keep.
func Converged(ops []Op) bool {
	for _, op := range ops {
		if op != OpKeep {
			return false
		}
	}
	return true
}

// Apply rewrites the leaf array according to ops: a leaf marked OpMerge
// is collapsed together with its 7 siblings into their shared parent
// boundary (RebalanceDecision marks all 8 entries of the group; Apply
// acts on the first and skips the other 7), a leaf marked OpSplit expands into 8 evenly
// spaced children, and a leaf marked OpKeep is copied unchanged.
func (t *Tree[K]) Apply(ops []Op) {
	next := make([]K, 0, len(t.leaves))
	i := 0
	for i < t.NumLeaves() {
		switch ops[i] {
		case OpMerge:
			next = append(next, t.leaves[i])
			i += 8
		case OpSplit:
			lo := t.leaves[i]
			childRange := t.ops.NodeRange(t.level(i) + 1)
			for k := 0; k < 8; k++ {
				next = append(next, t.ops.Add(lo, mulRange(t.ops, childRange, k)))
			}
			i++
		default:
			next = append(next, t.leaves[i])
			i++
		}
	}
	next = append(next, t.leaves[len(t.leaves)-1])
	t.leaves = next
}

// mulRange returns childRange*k using repeated Add, since Ops[K] does
// not expose multiplication directly; k is always in [0,8).
func mulRange[K any](ops sfc.Ops[K], childRange K, k int) K {
	total := ops.Zero()
	for i := 0; i < k; i++ {
		total = ops.Add(total, childRange)
	}
	return total
}

// Update iterates Count/RebalanceDecision/Apply to a fixed point, or
// until safety cap iterations have run (bounded by LMax, per the
// convergence guarantee in the design). It returns the final counts.
func (t *Tree[K]) Update(keys []K, satMax int) ([]int, error) {
	counts := t.Count(keys, satMax)
	for iter := 0; iter <= t.ops.LMax(); iter++ {
		ops := t.RebalanceDecision(counts)
		if Converged(ops) {
			return counts, nil
		}
		t.Apply(ops)
		counts = t.Count(keys, satMax)
	}
	return nil, errs.Internal("cornerstone update did not converge within LMax=%d iterations", t.ops.LMax())
}

// SpanningTree builds the minimal set of aligned power-of-8 nodes whose
// union is exactly [first,last), by repeatedly extracting the largest
// aligned node available at the current position.
func SpanningTree[K any](ops sfc.Ops[K], first, last K) []K {
	nodes := []K{first}
	cur := first
	for ops.Less(cur, last) {
		remaining := ops.Sub(last, cur)
		// Try the largest range first (level 0, the root) and work down
		// to LMax, taking the first (i.e. largest) range that is both
		// aligned to cur and no bigger than what remains.
		level := ops.LMax()
		for l := 0; l <= ops.LMax(); l++ {
			r := ops.NodeRange(l)
			if isAligned(ops, cur, r) && !ops.Less(remaining, r) {
				level = l
				break
			}
		}
		r := ops.NodeRange(level)
		cur = ops.Add(cur, r)
		nodes = append(nodes, cur)
	}
	return nodes
}

func isAligned[K any](ops sfc.Ops[K], k, r K) bool {
	return ops.Uint64(k)%ops.Uint64(r) == 0
}
