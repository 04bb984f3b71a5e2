/*Package errs classifies the failure modes a distributed octree build can
hit and reports them the way guppy's lib/error package always has: a
one-line External message for conditions a caller can fix by changing
input, and an Internal message with a stack trace for anything that
indicates a bug in this package itself.
*/
package errs

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
)

// Kind classifies the failure modes reported by this module.
type Kind int

const (
	// ResolutionExhausted means a cornerstone leaf cannot be refined
	// further because it has already reached LMax, even though its
	// particle count still exceeds the bucket size. Non-fatal (IsFatal
	// reports false). The cornerstone rebalance keeps such a leaf as-is
	// without returning an error of this kind or logging a warning.
	ResolutionExhausted Kind = iota

	// NeighborOverflow means a particle's neighbor list exceeded its
	// caller-supplied capacity during neighbor search.
	NeighborOverflow

	// PeerMismatch means a focused-octree count exchange received a
	// message that does not fit the request: a request with too few keys,
	// a reply from a rank that was not asked, or a reply whose count
	// length differs from the requested leaf range.
	PeerMismatch

	// InvariantViolation means an internal consistency check on a
	// cornerstone or radix tree failed. This always indicates a bug in
	// this package, not bad input.
	InvariantViolation

	// TransportError wraps a failure surfaced by the underlying
	// transport.Transport implementation, passed through unchanged.
	TransportError

	// InvalidInput means a caller-supplied configuration or argument is
	// out of range (too few cores, a malformed box, ...) and can be
	// fixed without touching this package.
	InvalidInput
)

func (k Kind) String() string {
	switch k {
	case ResolutionExhausted:
		return "ResolutionExhausted"
	case NeighborOverflow:
		return "NeighborOverflow"
	case PeerMismatch:
		return "PeerMismatch"
	case InvariantViolation:
		return "InvariantViolation"
	case TransportError:
		return "TransportError"
	case InvalidInput:
		return "InvalidInput"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by this module. Kind lets
// callers distinguish warnings (ResolutionExhausted) from fatal
// conditions without string matching.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, if any (used by TransportError)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...)}
}

// Wrap builds a TransportError-shaped Error around an underlying cause.
func Wrap(kind Kind, err error, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...), Err: err}
}

// IsFatal reports whether an error of this kind should abort the calling
// rank rather than just be logged and tolerated.
func (k Kind) IsFatal() bool {
	return k != ResolutionExhausted
}

// Warn logs a non-fatal condition without exiting, following guppy's
// External phrasing but without the process kill.
func Warn(format string, a ...interface{}) {
	log.Printf("warning: "+format, a...)
}

// External reports a fatal error a caller could fix by changing input
// (bad configuration, malformed coordinates) and returns it; a library
// hands control back to its caller rather than killing the process.
func External(format string, a ...interface{}) *Error {
	msg := fmt.Sprintf(format, a...)
	log.Printf("fatal: %s", msg)
	return &Error{Kind: InvalidInput, Msg: msg}
}

// Internal reports a fatal error that indicates a bug in this package,
// logs a stack trace for postmortem, and returns it for the caller to
// propagate.
func Internal(format string, a ...interface{}) *Error {
	msg := fmt.Sprintf(format, a...)
	log.Println("internal error:")
	fmt.Fprintf(os.Stderr, "%s\n\n", msg)
	debug.PrintStack()
	return &Error{Kind: InvariantViolation, Msg: msg}
}
