/*Package transport abstracts the message-passing primitives the focus
exchange (lib/focus) and particle exchange (lib/exchange) packages build
on, following the point-to-point send/receive/probe/barrier shape of
guppy's lib/mpi cgo wrapper without tying this module to any one
message-passing library or requiring cgo at all.
*/
package transport

import "github.com/phil-mansfield/cstone/lib/errs"

// Tag partitions traffic by phase: 0 for a focus-count request, 1 for
// its reply, and further tags per attribute during particle exchange.
type Tag int

// Handle is an in-flight asynchronous send, returned by SendAsync and
// consumed by WaitAll.
type Handle interface {
	Wait() error
}

// Transport is the sole message-passing abstraction this module crosses
// into; process launch, topology discovery and the wire protocol
// underneath are someone else's problem. Implementations must be safe
// for concurrent use by the fork-join workers issuing sends within a
// single phase.
type Transport interface {
	// Rank returns this process's rank.
	Rank() int
	// Size returns the total number of ranks.
	Size() int

	// SendAsync posts a non-blocking send of buf to dest tagged tag and
	// returns a handle to wait on. buf must not be mutated until the
	// handle's Wait returns.
	SendAsync(buf []byte, dest int, tag Tag) (Handle, error)

	// RecvSync blocks until a message tagged tag arrives from source
	// (or from any rank, if source is negative), then copies it into
	// buf (which must be at least as large as the message) and returns
	// the actual source rank and message length.
	RecvSync(buf []byte, source int, tag Tag) (actualSource, actualLen int, err error)

	// Probe blocks until a message tagged tag is available from source
	// (or any rank) and returns its source and length without consuming
	// it, so the caller can size a receive buffer first.
	Probe(source int, tag Tag) (actualSource, actualLen int, err error)

	// WaitAll blocks until every given handle's send has completed.
	WaitAll(handles []Handle) error

	// Barrier blocks until every rank has called Barrier.
	Barrier() error
}

// AnySource requests a receive or probe from whichever rank has a
// matching message ready first.
const AnySource = -1

// WrapError lifts a transport-layer failure into this module's
// TransportError kind, passed through unchanged per the error-handling
// design: the transport's own failure is never reinterpreted, only
// tagged.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return errs.Wrap(errs.TransportError, err, "transport operation failed")
}
