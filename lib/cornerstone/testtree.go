package cornerstone

import (
	"sort"

	"github.com/phil-mansfield/cstone/lib/sfc"
)

// Maker builds example cornerstone trees for tests by chained Divide
// calls, mirroring the original reference implementation's OctreeMaker:
// each Divide(path...) call introduces the 7 siblings (indices 1..7) of
// the already-present node named by path, one level deeper.
type Maker[K any] struct {
	ops  sfc.Ops[K]
	tree []K
}

// NewMaker starts from the single-leaf root tree.
func NewMaker[K any](ops sfc.Ops[K]) *Maker[K] {
	return &Maker[K]{ops: ops, tree: []K{ops.Zero(), ops.RootRange()}}
}

// codeFromIndices mirrors sfc.CodeFromIndices{32,64} generically: it
// builds the key of the node reached by following path[0], path[1], ...
// as successive octant indices.
func (m *Maker[K]) codeFromIndices(path []int) K {
	key := m.ops.Zero()
	for level, idx := range path {
		destShift := uint(3 * (m.ops.LMax() - 1 - level))
		key = m.ops.Add(key, m.ops.FromUint64(uint64(idx&7)<<destShift))
	}
	return key
}

// Divide introduces the 7 siblings of the node named by path, i.e.
// divides the already-present node codeFromIndices(path) into its 8
// children. path must name a node currently present in the tree.
func (m *Maker[K]) Divide(path ...int) *Maker[K] {
	level := len(path)
	base := append([]int{}, path...)
	base = append(base, 0)
	for sibling := 1; sibling < 8; sibling++ {
		base[level] = sibling
		m.tree = append(m.tree, m.codeFromIndices(base))
	}
	return m
}

// Tree returns the finished, sorted tree.
func (m *Maker[K]) Tree() []K {
	out := append([]K{}, m.tree...)
	sort.Slice(out, func(i, j int) bool { return m.ops.Less(out[i], out[j]) })
	return out
}
