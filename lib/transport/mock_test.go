package transport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockSendRecvRoundTrip(t *testing.T) {
	ranks := NewMockNetwork(2)

	handle, err := ranks[0].SendAsync([]byte("hello"), 1, 0)
	require.NoError(t, err)
	require.NoError(t, handle.Wait())

	buf := make([]byte, 16)
	from, n, err := ranks[1].RecvSync(buf, AnySource, 0)
	require.NoError(t, err)
	require.Equal(t, 0, from)
	require.Equal(t, "hello", string(buf[:n]))
}

func TestMockTagSeparation(t *testing.T) {
	ranks := NewMockNetwork(2)

	_, err := ranks[0].SendAsync([]byte("req"), 1, 0)
	require.NoError(t, err)
	_, err = ranks[0].SendAsync([]byte("reply"), 1, 1)
	require.NoError(t, err)

	buf := make([]byte, 16)
	_, n, err := ranks[1].RecvSync(buf, AnySource, 1)
	require.NoError(t, err)
	require.Equal(t, "reply", string(buf[:n]))

	_, n, err = ranks[1].RecvSync(buf, AnySource, 0)
	require.NoError(t, err)
	require.Equal(t, "req", string(buf[:n]))
}

func TestMockBarrierReleasesAllRanks(t *testing.T) {
	const n = 4
	ranks := NewMockNetwork(n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(r int) {
			defer wg.Done()
			require.NoError(t, ranks[r].Barrier())
		}(i)
	}
	wg.Wait()
}

func TestMockProbeThenReceive(t *testing.T) {
	ranks := NewMockNetwork(2)
	_, err := ranks[0].SendAsync([]byte("abcdef"), 1, 0)
	require.NoError(t, err)

	src, length, err := ranks[1].Probe(AnySource, 0)
	require.NoError(t, err)
	require.Equal(t, 0, src)
	require.Equal(t, 6, length)

	buf := make([]byte, length)
	_, n, err := ranks[1].RecvSync(buf, src, 0)
	require.NoError(t, err)
	require.Equal(t, "abcdef", string(buf[:n]))
}
