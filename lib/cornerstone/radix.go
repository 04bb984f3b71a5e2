package cornerstone

import "github.com/phil-mansfield/cstone/lib/sfc"

// RadixNode is one internal node of the binary radix tree built over a
// cornerstone leaf array: n leaves give n-1 internal nodes, one per gap
// between consecutive leaf boundaries. Children are tagged indices
// rather than pointers (LeftIsLeaf/RightIsLeaf) so the tree can be
// represented as two flat arrays without cyclic references.
type RadixNode struct {
	PrefixLength int
	Left, Right  int
	LeftIsLeaf   bool
	RightIsLeaf  bool
	// Lo, Hi are the inclusive range of leaf indices spanned by this
	// node's subtree, used by callers (e.g. halo.FindCollisions) to
	// precompute a per-node bounding box for traversal pruning.
	Lo, Hi int
}

// RadixTree is the binary radix tree over a cornerstone leaf array,
// giving findCollisions a log-time descent instead of a linear scan.
type RadixTree[K any] struct {
	leaves []K
	nodes  []RadixNode
}

// BuildRadixTree constructs the n-1 internal nodes over the given leaf
// boundary array, following the direction/doubling/binary-search
// construction: for each internal slot j, the direction of its range is
// decided by comparing common-prefix lengths with its left and right
// neighbor, the range is extended by binary doubling until the prefix
// length drops, and the split point is the position of maximum common
// prefix length within the range.
func BuildRadixTree[K any](ops sfc.Ops[K], leaves []K) *RadixTree[K] {
	n := len(leaves) - 1
	t := &RadixTree[K]{leaves: leaves, nodes: make([]RadixNode, max0(n-1))}
	if n <= 1 {
		return t
	}

	prefixLen := func(i, j int) int {
		if i < 0 || j < 0 || i >= n || j >= n {
			return -1
		}
		return ops.CommonPrefixLength(leaves[i], leaves[j])
	}

	for i := 0; i < n-1; i++ {
		d := 1
		if prefixLen(i, i+1) < prefixLen(i, i-1) {
			d = -1
		}
		minPrefix := prefixLen(i, i-d)

		// Binary doubling to find the far end of this node's range.
		lMax := 2
		for prefixLen(i, i+lMax*d) > minPrefix {
			lMax *= 2
		}
		length := 0
		for step := lMax / 2; step >= 1; step /= 2 {
			if prefixLen(i, i+(length+step)*d) > minPrefix {
				length += step
			}
		}
		j := i + length*d

		// Binary search for the split point: the largest k such that
		// prefixLen(i,k) > prefixLen(i,j) still holds walking from i
		// toward j.
		nodePrefix := prefixLen(i, j)
		splitStep := length
		split := 0
		for {
			splitStep = (splitStep + 1) / 2
			if prefixLen(i, i+(split+splitStep)*d) > nodePrefix {
				split += splitStep
			}
			if splitStep <= 1 {
				break
			}
		}
		gamma := i + split*d + min0(d, 0)

		lo, hi := i, j
		if lo > hi {
			lo, hi = hi, lo
		}

		left, right := gamma, gamma+1
		node := RadixNode{PrefixLength: nodePrefix, Lo: lo, Hi: hi}
		if left == lo {
			node.Left, node.LeftIsLeaf = left, true
		} else {
			node.Left, node.LeftIsLeaf = left, false
		}
		if right == hi {
			node.Right, node.RightIsLeaf = right, true
		} else {
			node.Right, node.RightIsLeaf = right, false
		}
		t.nodes[i] = node
	}
	return t
}

func max0(x int) int {
	if x < 0 {
		return 0
	}
	return x
}

func min0(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Root returns the index of the radix tree's root internal node, (0,false)
// for a non-degenerate tree, or (0,true) if the tree has at most one
// leaf, in which case leaf 0 is the whole tree.
func (t *RadixTree[K]) Root() (idx int, isLeaf bool) {
	if len(t.nodes) == 0 {
		return 0, true
	}
	return 0, false
}

// Node returns the internal node at idx.
func (t *RadixTree[K]) Node(idx int) RadixNode { return t.nodes[idx] }

// NumInternalNodes returns n-1 for an n-leaf tree.
func (t *RadixTree[K]) NumInternalNodes() int { return len(t.nodes) }
