package box

// IntBox is the integer analog of Box, used to describe octree node
// extents and halo extents in [0, R) coordinate space, where
// R = 2^LMax. Bounds may legally fall outside [0, R) — negative lower
// bounds or over-range upper bounds — when a node or halo straddles a
// periodic boundary; PBCAdjust and OverlapRange interpret such bounds as
// wrapping arcs on a ring of circumference R rather than clamping them.
type IntBox struct {
	XMin, XMax, YMin, YMax, ZMin, ZMax int64
}

// NewIntBox builds an IntBox from explicit per-axis bounds.
func NewIntBox(xmin, xmax, ymin, ymax, zmin, zmax int64) IntBox {
	return IntBox{xmin, xmax, ymin, ymax, zmin, zmax}
}

// Lo returns the lower bound on the given axis (0=x, 1=y, 2=z).
func (b IntBox) Lo(axis int) int64 {
	switch axis {
	case 0:
		return b.XMin
	case 1:
		return b.YMin
	default:
		return b.ZMin
	}
}

// Hi returns the upper bound on the given axis (0=x, 1=y, 2=z).
func (b IntBox) Hi(axis int) int64 {
	switch axis {
	case 0:
		return b.XMax
	case 1:
		return b.YMax
	default:
		return b.ZMax
	}
}

// Equal reports whether two IntBox values have identical bounds.
func (b IntBox) Equal(o IntBox) bool {
	return b == o
}

// Clamp returns b with every bound clamped into [0, R].
func (b IntBox) Clamp(r int64) IntBox {
	clamp := func(v int64) int64 {
		if v < 0 {
			return 0
		}
		if v > r {
			return r
		}
		return v
	}
	return IntBox{
		clamp(b.XMin), clamp(b.XMax),
		clamp(b.YMin), clamp(b.YMax),
		clamp(b.ZMin), clamp(b.ZMax),
	}
}

// PBCAdjust reduces x into [0, r) on a ring of circumference r. It is
// total: PBCAdjust(x+k*r, r) == PBCAdjust(x, r) for any integer k,
// including negative multiples.
func PBCAdjust(x, r int64) int64 {
	return ((x % r) + r) % r
}

// OverlapRange tests whether the half-open ranges [a,b) and [c,d) overlap
// on a ring of circumference r, treating either range as a wrapping arc
// when its raw endpoints fall outside [0, r).
func OverlapRange(a, b, c, d, r int64) bool {
	if b <= a || d <= c {
		return false
	}
	lenA, lenC := b-a, d-c
	if lenA >= r || lenC >= r {
		return true
	}

	// Canonicalize both ranges to start inside [0, r) while preserving
	// their length, then check the canonical range against the second
	// range shifted by -r, 0 and +r: since both lengths are below r, one
	// of those three alignments is guaranteed to catch a wrap-around
	// overlap if one exists.
	aMod := PBCAdjust(a, r)
	bMod := aMod + lenA
	cMod := PBCAdjust(c, r)
	dMod := cMod + lenC

	for _, shift := range [3]int64{-r, 0, r} {
		if aMod < dMod+shift && cMod+shift < bMod {
			return true
		}
	}
	return false
}

// ContainedIn reports whether the half-open range [first,last) lies
// entirely inside the arc [lo,hi) on a ring of circumference r.
// halo.ContainedIn applies it per axis to test whether a node lies
// inside a halo box.
func ContainedIn(first, last, lo, hi, r int64) bool {
	if last <= first {
		return true
	}
	length := last - first
	arcLen := hi - lo
	if arcLen >= r {
		return true
	}
	if length > arcLen {
		return false
	}
	firstMod := PBCAdjust(first, r)
	lastMod := firstMod + length
	loMod := PBCAdjust(lo, r)
	hiMod := loMod + arcLen

	for _, shift := range [3]int64{-r, 0, r} {
		if loMod+shift <= firstMod && lastMod <= hiMod+shift {
			return true
		}
	}
	return false
}
