package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsBytesFloat64RoundTrip(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	b, err := AsBytes(x)
	require.NoError(t, err)
	require.Len(t, b, 8*len(x))

	order := SystemByteOrder()
	got := order.Uint64(b[8:16])
	require.Equal(t, uint64(0x4000000000000000), got) // float64(2.0) bit pattern
}

func TestAsBytesUnsupportedType(t *testing.T) {
	_, err := AsBytes(42)
	require.Error(t, err)
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	raw := []byte("the quick brown fox jumps over the lazy dog, repeatedly, many times over")
	compressed, err := Compress(raw, 3)
	require.NoError(t, err)

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, raw, decompressed)
}
