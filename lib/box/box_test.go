package box

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPBCAdjust(t *testing.T) {
	const r = 1024
	in := []int64{1, -1, 1024, -1025, 4098}
	want := []int64{1, 1023, 0, 1023, 2}
	for i, x := range in {
		require.Equal(t, want[i], PBCAdjust(x, r), "input %d", x)
	}
}

func TestOverlapRangeSpecExamples(t *testing.T) {
	const r = 1024
	require.True(t, OverlapRange(1023, 1025, 0, 1, r))
	require.False(t, OverlapRange(0, 1, 1023, 1024, r))
}

func TestOverlapRangeVectors(t *testing.T) {
	const r = 1024
	cases := []struct {
		a, b, c, d int64
		want       bool
	}{
		{0, 2, 1, 3, true},
		{0, 1, 1, 2, false},
		{0, 1, 2, 3, false},
		{0, 1023, 1, 3, true},
		{0, 1024, 1, 3, true},
		{0, 2048, 1, 3, true},
		{1022, 1024, 1023, 1024, true},
		{1023, 1025, 0, 1, true},
		{0, 1, 1023, 1024, false},
		{-1, 1, 1023, 1024, true},
		{-1, 1, 1022, 1023, false},
		{1023, 2048, 0, 1, true},
		{512, 1024, 332, 820, true},
	}
	for _, c := range cases {
		got := OverlapRange(c.a, c.b, c.c, c.d, r)
		require.Equal(t, c.want, got, "overlapRange(%d,%d,%d,%d)", c.a, c.b, c.c, c.d)
		// overlap is symmetric in its two ranges.
		require.Equal(t, c.want, OverlapRange(c.c, c.d, c.a, c.b, r))
	}
}

func TestBoxAxisAccessors(t *testing.T) {
	b := New(0, 1, 2, 3, 4, 5, true, false, true)
	require.Equal(t, 0.0, b.Lo(0))
	require.Equal(t, 1.0, b.Hi(0))
	require.Equal(t, 2.0, b.Lo(1))
	require.Equal(t, 3.0, b.Hi(1))
	require.Equal(t, 4.0, b.Lo(2))
	require.Equal(t, 5.0, b.Hi(2))
	require.True(t, b.PBC(0))
	require.False(t, b.PBC(1))
	require.True(t, b.PBC(2))
}

func TestPairOrdering(t *testing.T) {
	a := Pair[int64]{Lo: 0, Hi: 10}
	c := Pair[int64]{Lo: 0, Hi: 20}
	d := Pair[int64]{Lo: 5, Hi: 6}
	require.True(t, a.Less(c))
	require.False(t, c.Less(a))
	require.True(t, c.Less(d))
}

func TestContainedIn(t *testing.T) {
	const r = 1024
	require.True(t, ContainedIn(10, 20, 0, 100, r))
	require.False(t, ContainedIn(10, 200, 0, 100, r))
	// Wrapping arc [1000, 1024+50) contains [1010, 1024).
	require.True(t, ContainedIn(1010, 1024, 1000, 1074, r))
}
