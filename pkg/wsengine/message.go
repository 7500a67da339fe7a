package wsengine

// Message is one fully assembled inbound message handed to
// MessageRecvCallback: either a data message (TEXT or BINARY, with any
// fragmentation already resolved) or a control message (PING, PONG, or
// CLOSE).
//
// Data is a fresh copy of the assembled payload, so the host may keep it
// after the callback returns. It is nil for CLOSE messages, whose payload
// is reported through StatusCode and Reason instead.
type Message struct {
	Opcode Opcode
	Data   []byte

	// StatusCode and Reason are populated only for CLOSE messages, parsed
	// from the first two payload bytes and the remaining UTF-8 reason
	// text per RFC 6455 §7.1.6. StatusCode is StatusNoStatusRcvd if the
	// peer sent a CLOSE with no payload at all.
	StatusCode StatusCode
	Reason     string
}
