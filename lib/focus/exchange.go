package focus

import (
	"sort"

	"github.com/phil-mansfield/cstone/lib/errs"
	"github.com/phil-mansfield/cstone/lib/sfc"
	"github.com/phil-mansfield/cstone/lib/transport"
	"github.com/phil-mansfield/cstone/lib/wire"
)

const (
	tagFocusRequest = transport.Tag(0)
	tagFocusReply   = transport.Tag(1)
)

// PeerRange names the contiguous range of F's leaf indices [Lo,Hi] that
// belong to one peer rank's SFC assignment; ExchangeCounts asks that
// peer for authoritative counts over exactly this range.
type PeerRange struct {
	Rank   int
	Lo, Hi int // inclusive leaf index range: leaves[Lo..Hi] are that peer's
}

// ExchangeCounts implements the focus exchange protocol: send each
// peer's key-range slice on tag 0, answer any inbound tag-0 requests by
// counting local particles into the requested ranges and replying on tag
// 1, collect the tag-1 replies into counts, then wait and barrier. A
// request with fewer than two keys, a reply from a rank not in peers, or
// a reply whose length differs from the requested leaf range is a fatal
// PeerMismatch; a reply that never arrives leaves the call blocked in
// Probe.
func ExchangeCounts[K any](ops sfc.Ops[K], t transport.Transport, leaves []K, counts []int, localKeys []K, peers []PeerRange) error {
	if len(peers) == 0 {
		return nil
	}

	var sendHandles []transport.Handle
	for _, p := range peers {
		keySlice := leaves[p.Lo : p.Hi+2] // one extra key bounds the last leaf
		buf := keysToBytes(ops, keySlice)
		h, err := t.SendAsync(buf, p.Rank, tagFocusRequest)
		if err != nil {
			return transport.WrapError(err)
		}
		sendHandles = append(sendHandles, h)
	}

	// Phase 2: answer inbound requests until we have received as many
	// tag-0 messages as distinct peers who might address us. Since peer
	// sets are not symmetric in general, guprd against a runaway loop by
	// bounding on len(peers): a rank only asks its actual peers, and
	// peer relationships in this design are always answered in kind (a
	// rank counts for exactly the peers whose assignment overlaps its
	// own MAC-refined focus).
	for i := 0; i < len(peers); i++ {
		src, length, err := t.Probe(transport.AnySource, tagFocusRequest)
		if err != nil {
			return transport.WrapError(err)
		}
		buf := make([]byte, length)
		_, n, err := t.RecvSync(buf, src, tagFocusRequest)
		if err != nil {
			return transport.WrapError(err)
		}
		reqKeys := bytesToKeys(ops, buf[:n])
		if len(reqKeys) < 2 {
			return errs.New(errs.PeerMismatch, "focus exchange: request from rank %d has too few keys", src)
		}
		reqCounts := countKeyRanges(ops, reqKeys, localKeys)
		replyBuf := countsToBytes(reqCounts)
		if _, err := t.SendAsync(replyBuf, src, tagFocusReply); err != nil {
			return transport.WrapError(err)
		}
	}

	// Phase 3: collect the |peers| replies and write into counts.
	for i := 0; i < len(peers); i++ {
		src, length, err := t.Probe(transport.AnySource, tagFocusReply)
		if err != nil {
			return transport.WrapError(err)
		}
		buf := make([]byte, length)
		_, n, err := t.RecvSync(buf, src, tagFocusReply)
		if err != nil {
			return transport.WrapError(err)
		}
		var p PeerRange
		found := false
		for _, cand := range peers {
			if cand.Rank == src {
				p, found = cand, true
				break
			}
		}
		if !found {
			return errs.New(errs.PeerMismatch, "focus exchange: reply from unknown peer rank %d", src)
		}
		replyCounts := bytesToCounts(buf[:n])
		wantLen := p.Hi - p.Lo + 1
		if len(replyCounts) != wantLen {
			return errs.New(errs.PeerMismatch,
				"focus exchange: reply from rank %d has %d counts, want %d", src, len(replyCounts), wantLen)
		}
		copy(counts[p.Lo:p.Hi+1], replyCounts)
	}

	if err := t.WaitAll(sendHandles); err != nil {
		return transport.WrapError(err)
	}
	return t.Barrier()
}

// countKeyRanges counts localKeys into each of the leaf ranges named by
// consecutive pairs of keys, by binary search.
func countKeyRanges[K any](ops sfc.Ops[K], keys []K, localKeys []K) []int {
	n := len(keys) - 1
	out := make([]int, n)
	less := func(a, b K) bool { return ops.Less(a, b) }
	lowerBound := func(x K) int {
		return sort.Search(len(localKeys), func(i int) bool { return !less(localKeys[i], x) })
	}
	for i := 0; i < n; i++ {
		out[i] = lowerBound(keys[i+1]) - lowerBound(keys[i])
	}
	return out
}

func keysToBytes[K any](ops sfc.Ops[K], keys []K) []byte {
	raw := make([]uint64, len(keys))
	for i, k := range keys {
		raw[i] = ops.Uint64(k)
	}
	b, _ := wire.AsBytes(raw)
	return append([]byte(nil), b...)
}

func bytesToKeys[K any](ops sfc.Ops[K], b []byte) []K {
	order := wire.SystemByteOrder()
	n := len(b) / 8
	out := make([]K, n)
	for i := 0; i < n; i++ {
		out[i] = ops.FromUint64(order.Uint64(b[i*8:]))
	}
	return out
}

func countsToBytes(counts []int) []byte {
	raw := make([]uint64, len(counts))
	for i, c := range counts {
		raw[i] = uint64(c)
	}
	b, _ := wire.AsBytes(raw)
	return append([]byte(nil), b...)
}

func bytesToCounts(b []byte) []int {
	order := wire.SystemByteOrder()
	n := len(b) / 8
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = int(order.Uint64(b[i*8:]))
	}
	return out
}
