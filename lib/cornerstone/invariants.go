package cornerstone

import (
	"fmt"

	"github.com/phil-mansfield/cstone/lib/sfc"
)

// CheckInvariants verifies the well-formedness properties every
// cornerstone tree must hold: strictly increasing boundaries, every
// consecutive pair a valid aligned power-of-8 node, and the leaf sequence
// exactly tiling the root. It returns the first violation found, or nil.
func CheckInvariants[K any](ops sfc.Ops[K], leaves []K) error {
	if len(leaves) < 2 {
		return fmt.Errorf("cornerstone: tree has fewer than 2 boundaries")
	}
	if ops.Uint64(leaves[0]) != 0 {
		return fmt.Errorf("cornerstone: first boundary must be 0, got %d", ops.Uint64(leaves[0]))
	}
	root := ops.RootRange()
	if ops.Uint64(leaves[len(leaves)-1]) != ops.Uint64(root) {
		return fmt.Errorf("cornerstone: last boundary must equal root range %d, got %d",
			ops.Uint64(root), ops.Uint64(leaves[len(leaves)-1]))
	}
	for i := 0; i+1 < len(leaves); i++ {
		if !ops.Less(leaves[i], leaves[i+1]) {
			return fmt.Errorf("cornerstone: boundaries not strictly increasing at index %d", i)
		}
		r := ops.Sub(leaves[i+1], leaves[i])
		if !ops.IsPowerOf8Range(r) {
			return fmt.Errorf("cornerstone: leaf %d has non-power-of-8 range %d", i, ops.Uint64(r))
		}
		if ops.Uint64(leaves[i])%ops.Uint64(r) != 0 {
			return fmt.Errorf("cornerstone: leaf %d is not aligned to its own range", i)
		}
	}
	return nil
}

// CheckCounts verifies that per-leaf counts sum to the expected particle
// total, used by callers that have not saturated the count (saturating
// counts intentionally violate this and are checked separately).
func CheckCounts(counts []int, wantTotal int) error {
	sum := 0
	for _, c := range counts {
		sum += c
	}
	if sum != wantTotal {
		return fmt.Errorf("cornerstone: counts sum to %d, want %d", sum, wantTotal)
	}
	return nil
}
