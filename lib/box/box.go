/*package box implements the floating-point simulation bounding box and its
integer analog, along with the ring arithmetic (periodic boundary
adjustment and overlap testing) that the halo and tree traversal
subsystems build on.
*/
package box

// Normalize maps d from [lo,hi) to [0,1).
func Normalize(d, lo, hi float64) float64 {
	return (d - lo) / (hi - lo)
}

// Box is a floating-point bounding box with independent per-axis periodic
// boundary flags.
type Box struct {
	xmin, xmax, ymin, ymax, zmin, zmax float64
	pbcX, pbcY, pbcZ                   bool
}

// New builds a Box from explicit per-axis bounds and periodicity flags.
func New(xmin, xmax, ymin, ymax, zmin, zmax float64, pbcX, pbcY, pbcZ bool) Box {
	return Box{xmin, xmax, ymin, ymax, zmin, zmax, pbcX, pbcY, pbcZ}
}

// Cube builds a cubic Box with the same bounds and periodicity on all
// three axes.
func Cube(lo, hi float64, pbc bool) Box {
	return New(lo, hi, lo, hi, lo, hi, pbc, pbc, pbc)
}

func (b Box) Xmin() float64 { return b.xmin }
func (b Box) Xmax() float64 { return b.xmax }
func (b Box) Ymin() float64 { return b.ymin }
func (b Box) Ymax() float64 { return b.ymax }
func (b Box) Zmin() float64 { return b.zmin }
func (b Box) Zmax() float64 { return b.zmax }

func (b Box) PBCX() bool { return b.pbcX }
func (b Box) PBCY() bool { return b.pbcY }
func (b Box) PBCZ() bool { return b.pbcZ }

// Lo returns the lower bound on the given axis (0=x, 1=y, 2=z).
func (b Box) Lo(axis int) float64 {
	switch axis {
	case 0:
		return b.xmin
	case 1:
		return b.ymin
	default:
		return b.zmin
	}
}

// Hi returns the upper bound on the given axis (0=x, 1=y, 2=z).
func (b Box) Hi(axis int) float64 {
	switch axis {
	case 0:
		return b.xmax
	case 1:
		return b.ymax
	default:
		return b.zmax
	}
}

// PBC returns the periodicity flag for the given axis (0=x, 1=y, 2=z).
func (b Box) PBC(axis int) bool {
	switch axis {
	case 0:
		return b.pbcX
	case 1:
		return b.pbcY
	default:
		return b.pbcZ
	}
}

// Equal reports whether two Box values have identical bounds and
// periodicity flags.
func (b Box) Equal(o Box) bool {
	return b.xmin == o.xmin && b.xmax == o.xmax &&
		b.ymin == o.ymin && b.ymax == o.ymax &&
		b.zmin == o.zmin && b.zmax == o.zmax &&
		b.pbcX == o.pbcX && b.pbcY == o.pbcY && b.pbcZ == o.pbcZ
}

// Pair is a value-typed pair, mirroring the original cornerstone
// implementation's pair<T> helper. It gives (lo,hi) ranges (assignment
// ranges, exchange index ranges) an ordering so they can be sorted
// deterministically.
type Pair[T interface {
	~int | ~int64 | ~uint32 | ~uint64
}] struct {
	Lo, Hi T
}

// Less orders pairs lexicographically by (Lo, Hi).
func (p Pair[T]) Less(o Pair[T]) bool {
	if p.Lo != o.Lo {
		return p.Lo < o.Lo
	}
	return p.Hi < o.Hi
}
