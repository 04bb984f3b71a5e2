/*Package attr holds the concrete per-type particle attribute arrays that
the particle exchange machinery (lib/exchange) gathers, sends and places,
mirroring the concrete Uint32/Uint64/Float32/Float64/Vec32/Vec64 field
types in guppy's lib/particles/particles.go rather than a single generic
container: the exchange's send-buffer packing needs to reinterpret each
array's backing storage as raw bytes (via lib/wire), which only works
against a fixed, known set of concrete element layouts.
*/
package attr

import (
	"math"

	"github.com/phil-mansfield/cstone/lib/wire"
)

func float32FromBits(b uint32) float32 { return math.Float32frombits(b) }
func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }

// Array is the exchange-facing view of one particle attribute: gather a
// subset of its elements (in an arbitrary index order) into a byte
// buffer for sending, and place bytes received from a peer (or copied
// locally) at a given offset.
type Array interface {
	// Len returns the number of elements currently stored.
	Len() int
	// Resize grows or shrinks the array to n elements in place,
	// preserving existing contents up to min(old len, n).
	Resize(n int)
	// GatherBytes packs the elements named by indices, in order, into a
	// freshly allocated byte buffer.
	GatherBytes(indices []int) []byte
	// PlaceBytes decodes data (as produced by GatherBytes on an array of
	// the same concrete type) and writes count elements starting at
	// offset.
	PlaceBytes(offset int, data []byte, count int)
	// ElemSize returns the encoded size in bytes of one element.
	ElemSize() int
}

// Uint32Array is a []uint32 attribute, e.g. a particle ID.
type Uint32Array []uint32

func (a *Uint32Array) Len() int { return len(*a) }
func (a *Uint32Array) Resize(n int) {
	*a = resizeUint32(*a, n)
}
func (a *Uint32Array) GatherBytes(indices []int) []byte {
	gathered := make(Uint32Array, len(indices))
	for i, idx := range indices {
		gathered[i] = (*a)[idx]
	}
	b, _ := wire.AsBytes([]uint32(gathered))
	return append([]byte(nil), b...)
}
func (a *Uint32Array) PlaceBytes(offset int, data []byte, count int) {
	src := bytesToUint32(data, count)
	copy((*a)[offset:offset+count], src)
}
func (a *Uint32Array) ElemSize() int { return 4 }

// Float64Array is a []float64 attribute, e.g. a coordinate or smoothing
// length.
type Float64Array []float64

func (a *Float64Array) Len() int { return len(*a) }
func (a *Float64Array) Resize(n int) {
	*a = resizeFloat64(*a, n)
}
func (a *Float64Array) GatherBytes(indices []int) []byte {
	gathered := make(Float64Array, len(indices))
	for i, idx := range indices {
		gathered[i] = (*a)[idx]
	}
	b, _ := wire.AsBytes([]float64(gathered))
	return append([]byte(nil), b...)
}
func (a *Float64Array) PlaceBytes(offset int, data []byte, count int) {
	src := bytesToFloat64(data, count)
	copy((*a)[offset:offset+count], src)
}
func (a *Float64Array) ElemSize() int { return 8 }

// Float32Array is a []float32 attribute.
type Float32Array []float32

func (a *Float32Array) Len() int { return len(*a) }
func (a *Float32Array) Resize(n int) {
	*a = resizeFloat32(*a, n)
}
func (a *Float32Array) GatherBytes(indices []int) []byte {
	gathered := make(Float32Array, len(indices))
	for i, idx := range indices {
		gathered[i] = (*a)[idx]
	}
	b, _ := wire.AsBytes([]float32(gathered))
	return append([]byte(nil), b...)
}
func (a *Float32Array) PlaceBytes(offset int, data []byte, count int) {
	src := bytesToFloat32(data, count)
	copy((*a)[offset:offset+count], src)
}
func (a *Float32Array) ElemSize() int { return 4 }

// Vec3Float64Array is a [][3]float64 attribute, e.g. position or
// velocity.
type Vec3Float64Array [][3]float64

func (a *Vec3Float64Array) Len() int { return len(*a) }
func (a *Vec3Float64Array) Resize(n int) {
	*a = resizeVec3Float64(*a, n)
}
func (a *Vec3Float64Array) GatherBytes(indices []int) []byte {
	gathered := make(Vec3Float64Array, len(indices))
	for i, idx := range indices {
		gathered[i] = (*a)[idx]
	}
	b, _ := wire.AsBytes([][3]float64(gathered))
	return append([]byte(nil), b...)
}
func (a *Vec3Float64Array) PlaceBytes(offset int, data []byte, count int) {
	src := bytesToVec3Float64(data, count)
	copy((*a)[offset:offset+count], src)
}
func (a *Vec3Float64Array) ElemSize() int { return 24 }

func resizeUint32(a []uint32, n int) []uint32 {
	if n <= cap(a) {
		return a[:n]
	}
	next := make([]uint32, n)
	copy(next, a)
	return next
}
func resizeFloat64(a []float64, n int) []float64 {
	if n <= cap(a) {
		return a[:n]
	}
	next := make([]float64, n)
	copy(next, a)
	return next
}
func resizeFloat32(a []float32, n int) []float32 {
	if n <= cap(a) {
		return a[:n]
	}
	next := make([]float32, n)
	copy(next, a)
	return next
}
func resizeVec3Float64(a [][3]float64, n int) [][3]float64 {
	if n <= cap(a) {
		return a[:n]
	}
	next := make([][3]float64, n)
	copy(next, a)
	return next
}

func bytesToUint32(b []byte, n int) []uint32 {
	out := make([]uint32, n)
	order := wire.SystemByteOrder()
	for i := 0; i < n; i++ {
		out[i] = order.Uint32(b[i*4:])
	}
	return out
}
func bytesToFloat32(b []byte, n int) []float32 {
	out := make([]float32, n)
	order := wire.SystemByteOrder()
	for i := 0; i < n; i++ {
		out[i] = float32FromBits(order.Uint32(b[i*4:]))
	}
	return out
}
func bytesToFloat64(b []byte, n int) []float64 {
	out := make([]float64, n)
	order := wire.SystemByteOrder()
	for i := 0; i < n; i++ {
		out[i] = float64FromBits(order.Uint64(b[i*8:]))
	}
	return out
}
func bytesToVec3Float64(b []byte, n int) [][3]float64 {
	out := make([][3]float64, n)
	order := wire.SystemByteOrder()
	for i := 0; i < n; i++ {
		for k := 0; k < 3; k++ {
			off := i*24 + k*8
			out[i][k] = float64FromBits(order.Uint64(b[off:]))
		}
	}
	return out
}
