/*Package exchange redistributes particle attribute arrays among ranks
according to a SendList: each peer's ranges of SFC-ordered indices are
gathered (through an ordering permutation that decouples SFC order from
the arrays' current layout), exchanged over the transport, and placed
into the output region of each attribute array.
*/
package exchange

import (
	"sort"

	"github.com/phil-mansfield/cstone/lib/attr"
	"github.com/phil-mansfield/cstone/lib/errs"
	"github.com/phil-mansfield/cstone/lib/transport"
)

// Range is a half-open index range [Start, End) in SFC-order indices.
type Range struct {
	Start, End int
}

// SendList gives, for each peer rank, the SFC-order index ranges of
// this rank's particles that peer should receive.
type SendList struct {
	// Peers holds the ranges destined for peer rank Peers[i].Rank.
	Peers []PeerRanges
}

// PeerRanges is one peer's entry in a SendList.
type PeerRanges struct {
	Rank   int
	Ranges []Range
}

// count returns the total number of indices named by ranges.
func (p PeerRanges) count() int {
	n := 0
	for _, r := range p.Ranges {
		n += r.End - r.Start
	}
	return n
}

// expand returns the concrete SFC-order indices named by ranges, in
// range order.
func (p PeerRanges) expand() []int {
	out := make([]int, 0, p.count())
	for _, r := range p.Ranges {
		for i := r.Start; i < r.End; i++ {
			out = append(out, i)
		}
	}
	return out
}

// tagFor derives the per-attribute transport tag used for exchange
// messages, so that concurrently exchanged attributes never cross wires,
// per the "further tags per attribute" convention in the concurrency
// model.
func tagFor(attrIndex int) transport.Tag {
	return transport.Tag(100 + attrIndex)
}

// Exchange redistributes each attribute array in attrs according to
// sendList: self is this rank's index, oIn/oOut are the input/output
// offsets, perm maps an SFC-order index to its position in attrs' current
// layout, finalSize is the size every attrs[j] has already been resized
// to, and localRanges names the SFC-order ranges this rank keeps for
// itself (placed first, in range order, at [oOut, oOut+kept)).
func Exchange(t transport.Transport, sendList SendList, self int, perm []int,
	oIn, oOut, finalSize int, localRanges []Range, attrs []attr.Array) error {

	for j, a := range attrs {
		if err := exchangeOne(t, sendList, self, perm, oIn, oOut, finalSize, localRanges, a, j); err != nil {
			return err
		}
	}
	return nil
}

func exchangeOne(t transport.Transport, sendList SendList, self int, perm []int,
	oIn, oOut, finalSize int, localRanges []Range, a attr.Array, attrIndex int) error {

	tag := tagFor(attrIndex)

	// Step 1: gather. Build one send buffer per non-self peer, packing
	// A[perm[s..e]] for each of that peer's ranges.
	var handles []transport.Handle
	var peerCount int
	for _, peer := range sendList.Peers {
		if peer.Rank == self {
			continue
		}
		indices := peer.expand()
		mapped := make([]int, len(indices))
		for i, idx := range indices {
			mapped[i] = perm[oIn+idx]
		}
		buf := a.GatherBytes(mapped)
		h, err := t.SendAsync(buf, peer.Rank, tag)
		if err != nil {
			return transport.WrapError(err)
		}
		handles = append(handles, h)
		peerCount++
	}

	// Step 2: gather every locally kept index into one fresh buffer before
	// placing any of it. Placing one element at a time here would corrupt
	// data whenever oOut != oIn: PlaceBytes(oOut+localPos, ...) can land on
	// a source position a later iteration still needs to read (e.g.
	// oOut-oIn == 1 makes iteration idx's write the exact source that
	// iteration idx+1 reads). Gathering first reads every source before
	// any of them are overwritten.
	var localSrc []int
	for _, r := range localRanges {
		for idx := r.Start; idx < r.End; idx++ {
			localSrc = append(localSrc, perm[oIn+idx])
		}
	}
	if len(localSrc) > 0 {
		a.PlaceBytes(oOut, a.GatherBytes(localSrc), len(localSrc))
	}
	localPos := len(localSrc)

	// Step 3: receive inbound chunks from every peer that sent to us,
	// filling the remainder of the output region sequentially. The
	// number of inbound peers is not necessarily peerCount (that is how
	// many we sent to); every peer with a nonzero SendList entry for us
	// must send, but discovering that set is the caller's job via
	// sendList — here we simply drain one matched receive from each
	// entry of sendList.Peers other than this rank, since SendList always lists
	// every peer this rank exchanges with in both directions for a
	// balanced all-to-all pattern.
	writePos := oOut + localPos
	for _, peer := range sendList.Peers {
		if peer.Rank == self {
			continue
		}
		_, length, err := t.Probe(peer.Rank, tag)
		if err != nil {
			return transport.WrapError(err)
		}
		buf := make([]byte, length)
		_, n, err := t.RecvSync(buf, peer.Rank, tag)
		if err != nil {
			return transport.WrapError(err)
		}
		count := n / a.ElemSize()
		if writePos+count > finalSize {
			return errs.New(errs.InvariantViolation,
				"exchange: inbound chunk from rank %d overflows output region", peer.Rank)
		}
		a.PlaceBytes(writePos, buf, count)
		writePos += count
	}

	if err := t.WaitAll(handles); err != nil {
		return transport.WrapError(err)
	}
	if err := t.Barrier(); err != nil {
		return transport.WrapError(err)
	}
	return nil
}

// Tile builds the local/peer SendList partition of [0,n) implied by an
// assignment where this rank owns [selfLo,selfHi) and every other index
// belongs to whichever rank the caller-supplied owner function names,
// building a SendList without hand-writing ranges. Nothing in this
// module, tests included, calls it.
func Tile(n, selfLo, selfHi int, owner func(idx int) int, self int) (SendList, []Range) {
	byRank := map[int][]int{}
	var localIdx []int
	for i := 0; i < n; i++ {
		if i >= selfLo && i < selfHi {
			localIdx = append(localIdx, i)
			continue
		}
		r := owner(i)
		byRank[r] = append(byRank[r], i)
	}

	var ranks []int
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	sl := SendList{}
	for _, r := range ranks {
		sl.Peers = append(sl.Peers, PeerRanges{Rank: r, Ranges: coalesce(byRank[r])})
	}
	return sl, coalesce(localIdx)
}

func coalesce(idx []int) []Range {
	if len(idx) == 0 {
		return nil
	}
	sort.Ints(idx)
	var ranges []Range
	start := idx[0]
	prev := idx[0]
	for _, i := range idx[1:] {
		if i == prev+1 {
			prev = i
			continue
		}
		ranges = append(ranges, Range{start, prev + 1})
		start, prev = i, i
	}
	ranges = append(ranges, Range{start, prev + 1})
	return ranges
}
