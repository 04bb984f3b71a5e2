package sfc

// CodeFromBox32 returns the key of the node at the given level whose lower
// corner is (ix,iy,iz)*2^(LMax32-level). ix, iy and iz must already be
// expressed in level-local units, i.e. in [0, 2^level).
func CodeFromBox32(ix, iy, iz uint32, level int) Key32 {
	shift := uint(LMax32 - level)
	return Encode32(ix<<shift, iy<<shift, iz<<shift)
}

// CodeFromBox64 is the Key64 analog of CodeFromBox32.
func CodeFromBox64(ix, iy, iz uint64, level int) Key64 {
	shift := uint(LMax64 - level)
	return Encode64(ix<<shift, iy<<shift, iz<<shift)
}

// CodeFromIndices32 builds the Key32 of the node reached by following the
// octant index at indices[0], then indices[1], and so on, down to
// len(indices) levels. Each entry must be in [0,8). This mirrors how the
// original cornerstone test fixtures (OctreeMaker) name nodes by their
// path of octant indices instead of by raw coordinates.
func CodeFromIndices32(indices []int) Key32 {
	var key Key32
	for level, idx := range indices {
		destShift := uint(3 * (LMax32 - 1 - level))
		key |= Key32(idx&7) << destShift
	}
	return key
}

// CodeFromIndices64 is the Key64 analog of CodeFromIndices32.
func CodeFromIndices64(indices []int) Key64 {
	var key Key64
	for level, idx := range indices {
		destShift := uint(3 * (LMax64 - 1 - level))
		key |= Key64(idx&7) << destShift
	}
	return key
}
