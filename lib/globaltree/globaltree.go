/*Package globaltree builds the single cornerstone tree every rank must
agree on before domain decomposition can run, by gathering every rank's
local keys over the transport and rebalancing one tree over their union,
following the same async-send/sync-receive/barrier shape lib/focus uses
for its own peer exchange.
*/
package globaltree

import (
	"sort"

	"github.com/phil-mansfield/cstone/lib/cornerstone"
	"github.com/phil-mansfield/cstone/lib/sfc"
	"github.com/phil-mansfield/cstone/lib/transport"
	"github.com/phil-mansfield/cstone/lib/wire"
)

const tagGlobalKeys = transport.Tag(2)

// Build gathers every other rank's local keys, merges them with this
// rank's own into one sorted array, and rebalances a fresh bucket-sized
// cornerstone tree over the combined set until convergence. Every rank
// calling Build with the same bucket and satMax over the same global
// particle set ends up with byte-identical leaves and counts, which is
// what domain.Assign requires of its input.
func Build[K any](ops sfc.Ops[K], bucket int, t transport.Transport, localKeys []K, satMax int) ([]K, []int, error) {
	all, err := gather(ops, t, localKeys)
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(all, func(i, j int) bool { return ops.Less(all[i], all[j]) })

	tree := cornerstone.New[K](ops, bucket)
	counts, err := tree.Update(all, satMax)
	if err != nil {
		return nil, nil, err
	}
	return tree.Leaves(), counts, nil
}

// gather returns localKeys concatenated with every other rank's local
// keys, exchanged pairwise over t. It is a no-op beyond copying
// localKeys when t.Size() is 1.
func gather[K any](ops sfc.Ops[K], t transport.Transport, localKeys []K) ([]K, error) {
	size := t.Size()
	all := append([]K(nil), localKeys...)
	if size <= 1 {
		return all, nil
	}

	self := t.Rank()
	buf := keysToBytes(ops, localKeys)

	var handles []transport.Handle
	for r := 0; r < size; r++ {
		if r == self {
			continue
		}
		h, err := t.SendAsync(buf, r, tagGlobalKeys)
		if err != nil {
			return nil, transport.WrapError(err)
		}
		handles = append(handles, h)
	}

	for r := 0; r < size; r++ {
		if r == self {
			continue
		}
		src, length, err := t.Probe(r, tagGlobalKeys)
		if err != nil {
			return nil, transport.WrapError(err)
		}
		rbuf := make([]byte, length)
		if _, _, err := t.RecvSync(rbuf, src, tagGlobalKeys); err != nil {
			return nil, transport.WrapError(err)
		}
		all = append(all, bytesToKeys(ops, rbuf)...)
	}

	if err := t.WaitAll(handles); err != nil {
		return nil, transport.WrapError(err)
	}
	if err := t.Barrier(); err != nil {
		return nil, transport.WrapError(err)
	}
	return all, nil
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
