package transport

import (
	"fmt"
	"sync"
)

// Mock is an in-process Transport implementation connecting several
// ranks running as goroutines in the same process, used by tests in
// place of a real MPI or socket-based transport. Every rank's Mock
// shares the same *mockNetwork.
type Mock struct {
	net  *mockNetwork
	rank int
}

type message struct {
	from int
	tag  Tag
	data []byte
}

type mockNetwork struct {
	mu       sync.Mutex
	cond     *sync.Cond
	size     int
	inboxes  [][]message
	barrierN int
	barrierC *sync.Cond
	barrierG int
}

// NewMockNetwork builds size connected Mock transports, one per rank.
func NewMockNetwork(size int) []*Mock {
	net := &mockNetwork{size: size, inboxes: make([][]message, size)}
	net.cond = sync.NewCond(&net.mu)
	net.barrierC = sync.NewCond(&net.mu)

	ranks := make([]*Mock, size)
	for r := 0; r < size; r++ {
		ranks[r] = &Mock{net: net, rank: r}
	}
	return ranks
}

func (m *Mock) Rank() int { return m.rank }
func (m *Mock) Size() int { return m.net.size }

type mockHandle struct{ err error }

func (h *mockHandle) Wait() error { return h.err }

// SendAsync delivers immediately into the destination's inbox; "async"
// here means the call never blocks on a matching receive, matching the
// non-blocking contract callers rely on, not that delivery is deferred.
func (m *Mock) SendAsync(buf []byte, dest int, tag Tag) (Handle, error) {
	if dest < 0 || dest >= m.net.size {
		return nil, fmt.Errorf("transport: destination rank %d out of range", dest)
	}
	cp := append([]byte(nil), buf...)
	m.net.mu.Lock()
	m.net.inboxes[dest] = append(m.net.inboxes[dest], message{from: m.rank, tag: tag, data: cp})
	m.net.cond.Broadcast()
	m.net.mu.Unlock()
	return &mockHandle{}, nil
}

func (m *Mock) findMatch(source int, tag Tag) (int, bool) {
	inbox := m.net.inboxes[m.rank]
	for i, msg := range inbox {
		if msg.tag == tag && (source == AnySource || msg.from == source) {
			return i, true
		}
	}
	return 0, false
}

func (m *Mock) RecvSync(buf []byte, source int, tag Tag) (int, int, error) {
	m.net.mu.Lock()
	defer m.net.mu.Unlock()
	for {
		if i, ok := m.findMatch(source, tag); ok {
			msg := m.net.inboxes[m.rank][i]
			m.net.inboxes[m.rank] = append(m.net.inboxes[m.rank][:i], m.net.inboxes[m.rank][i+1:]...)
			n := copy(buf, msg.data)
			return msg.from, n, nil
		}
		m.net.cond.Wait()
	}
}

func (m *Mock) Probe(source int, tag Tag) (int, int, error) {
	m.net.mu.Lock()
	defer m.net.mu.Unlock()
	for {
		if i, ok := m.findMatch(source, tag); ok {
			msg := m.net.inboxes[m.rank][i]
			return msg.from, len(msg.data), nil
		}
		m.net.cond.Wait()
	}
}

func (m *Mock) WaitAll(handles []Handle) error {
	for _, h := range handles {
		if err := h.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// Barrier blocks until every rank in the network has called Barrier,
// using a generation counter so consecutive barriers cannot be confused
// with each other.
func (m *Mock) Barrier() error {
	m.net.mu.Lock()
	defer m.net.mu.Unlock()
	gen := m.net.barrierG
	m.net.barrierN++
	if m.net.barrierN == m.net.size {
		m.net.barrierN = 0
		m.net.barrierG++
		m.net.barrierC.Broadcast()
		return nil
	}
	for m.net.barrierG == gen {
		m.net.barrierC.Wait()
	}
	return nil
}
