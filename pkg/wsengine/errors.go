package wsengine

import "errors"

// Sentinel errors returned by the engine and by host callbacks. Compare
// with errors.Is; IsRecoverable distinguishes the ones that simply mean
// "call me again later" from the ones that mean the direction is dead.
var (
	// ErrWantRead means the codec needs more input bytes than the recv
	// callback currently has available. Recoverable: wait for readability
	// and call Context.Recv again.
	ErrWantRead = errors.New("wsengine: want read")

	// ErrWantWrite means the send callback could not accept any more
	// bytes right now. Recoverable: wait for writability and call
	// Context.Send again.
	ErrWantWrite = errors.New("wsengine: want write")

	// ErrProtocol means a received frame violates RFC 6455 framing rules.
	// The engine recovers from this itself, queuing a CLOSE with the
	// appropriate status code and disabling further reads; callers never
	// need to queue their own recovery.
	ErrProtocol = errors.New("wsengine: protocol violation")

	// ErrInvalidArgument means the caller passed the engine something it
	// never should have: an oversized control payload, a payload length
	// too large to encode, a close reason over 123 bytes.
	ErrInvalidArgument = errors.New("wsengine: invalid argument")

	// ErrInvalidCallback means a host callback returned a value the
	// protocol contract forbids, such as reporting more bytes written
	// than were offered.
	ErrInvalidCallback = errors.New("wsengine: callback returned an impossible value")

	// ErrNoMoreMessages means CLOSE has already been queued; no further
	// message may be queued for send.
	ErrNoMoreMessages = errors.New("wsengine: close already queued, no further messages accepted")

	// ErrCallbackFailure means a host callback failed for a reason other
	// than would-block. Fatal: the affected direction is disabled and the
	// host must abandon the context.
	ErrCallbackFailure = errors.New("wsengine: host callback failed")

	// ErrWouldBlock is what a host callback returns (wrapped or directly)
	// to signal non-blocking I/O readiness, as opposed to a genuine
	// failure.
	ErrWouldBlock = errors.New("wsengine: would block")

	// ErrNoMemory means an internal allocation failed. Fatal to the
	// direction in which it occurred.
	ErrNoMemory = errors.New("wsengine: allocation failed")
)

// IsRecoverable reports whether err unwinds a pump call cooperatively
// (WANT_READ, WANT_WRITE, WOULDBLOCK) rather than disabling a direction.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrWantRead) || errors.Is(err, ErrWantWrite) || errors.Is(err, ErrWouldBlock)
}
