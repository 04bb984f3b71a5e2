package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildOffsetsAndLookup(t *testing.T) {
	counts := []int{4, 8, 15, 16, 23, 42}
	local := []int{1, 3}
	halo := []int{0, 3, 5}

	l := Build(local, halo, counts)
	require.Equal(t, []int{0, 1, 3, 5}, l.NodeList)

	off, cnt, ok := l.Lookup(3)
	require.True(t, ok)
	require.Equal(t, 16, cnt)
	require.Equal(t, counts[0]+counts[1], off)

	_, _, ok = l.Lookup(2)
	require.False(t, ok)

	require.Equal(t, counts[0]+counts[1]+counts[3]+counts[5], l.TotalSize())
}

func TestLocalRangesCoalesced(t *testing.T) {
	counts := []int{1, 1, 1, 1, 1}
	local := []int{1, 2}
	halo := []int{0, 3}

	l := Build(local, halo, counts)
	ranges := l.LocalRanges()
	require.Equal(t, [][2]int{{1, 3}}, ranges)
}
