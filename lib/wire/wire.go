/*Package wire turns typed particle-attribute buffers into byte slices
suitable for a transport.Transport send or a zstd-compressed spill,
using the same zero-copy reflect.SliceHeader reinterpretation guppy's
lib.go used for its Rockstar particle I/O, and optionally compresses
the result with DataDog/zstd.
*/
package wire

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/DataDog/zstd"
)

// SystemByteOrder reports the host's native byte order, used when a
// buffer is reinterpreted in place rather than serialized field by
// field.
func SystemByteOrder() binary.ByteOrder {
	b := [2]byte{}
	*(*uint16)(unsafe.Pointer(&b[0])) = uint16(0x0001)
	if b[0] == 0 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// AsBytes reinterprets buf's backing array as a []byte without copying,
// for any of the concrete attribute slice types this module exchanges.
// The returned slice aliases buf; it must not outlive buf's backing
// array or be mutated after buf is reused.
func AsBytes(buf interface{}) ([]byte, error) {
	switch x := buf.(type) {
	case []uint32:
		hd := *(*reflect.SliceHeader)(unsafe.Pointer(&x))
		hd.Len *= 4
		hd.Cap *= 4
		return *(*[]byte)(unsafe.Pointer(&hd)), nil
	case []uint64:
		hd := *(*reflect.SliceHeader)(unsafe.Pointer(&x))
		hd.Len *= 8
		hd.Cap *= 8
		return *(*[]byte)(unsafe.Pointer(&hd)), nil
	case []float32:
		hd := *(*reflect.SliceHeader)(unsafe.Pointer(&x))
		hd.Len *= 4
		hd.Cap *= 4
		return *(*[]byte)(unsafe.Pointer(&hd)), nil
	case []float64:
		hd := *(*reflect.SliceHeader)(unsafe.Pointer(&x))
		hd.Len *= 8
		hd.Cap *= 8
		return *(*[]byte)(unsafe.Pointer(&hd)), nil
	case [][3]float32:
		hd := *(*reflect.SliceHeader)(unsafe.Pointer(&x))
		hd.Len *= 12
		hd.Cap *= 12
		return *(*[]byte)(unsafe.Pointer(&hd)), nil
	case [][3]float64:
		hd := *(*reflect.SliceHeader)(unsafe.Pointer(&x))
		hd.Len *= 24
		hd.Cap *= 24
		return *(*[]byte)(unsafe.Pointer(&hd)), nil
	default:
		return nil, fmt.Errorf("wire: unsupported buffer type %T", buf)
	}
}

// Compress zstd-compresses raw at the given level, for a caller that
// wants to shrink a payload before it crosses the transport. No exchange
// in this module calls it.
func Compress(raw []byte, level int) ([]byte, error) {
	return zstd.CompressLevel(nil, raw, level)
}

// Decompress reverses Compress.
func Decompress(compressed []byte) ([]byte, error) {
	return zstd.Decompress(nil, compressed)
}
