package wsengine

import "github.com/valyala/bytebufferpool"

// inboundSlot (half of C5) accumulates one in-progress inbound message:
// either the data message currently being fragmented across CONTINUATION
// frames, or the single control frame currently being read. Mirrors
// wslay's imsg: a reused scratch buffer plus the running UTF-8 state
// needed to validate TEXT payloads incrementally, one chunk at a time, as
// bytes arrive off the wire instead of only after the message completes.
type inboundSlot struct {
	active bool
	opcode Opcode // the message's real opcode: TEXT/BINARY for data, or the control opcode
	buf    *bytebufferpool.ByteBuffer
	utf8   utf8State
	isText bool
}

func (s *inboundSlot) begin(opcode Opcode, isText bool) {
	s.active = true
	s.opcode = opcode
	s.isText = isText
	s.utf8 = newUTF8State()
	if s.buf == nil {
		s.buf = bytebufferpool.Get()
	}
	s.buf.Reset()
}

func (s *inboundSlot) reset() {
	s.active = false
	if s.buf != nil {
		s.buf.Reset()
	}
}

// inboundAssembler (C5) is the two-slot inbound message assembler: slot 0
// holds the (possibly multi-frame) data message in progress, slot 1 holds
// whichever control frame is currently being read. Keeping them separate
// is what lets a PING arrive and be reassembled in between two fragments
// of a TEXT message without disturbing the TEXT reassembly already under
// way, the interleaving RFC 6455 §5.4 explicitly allows.
type inboundAssembler struct {
	data inboundSlot
	ctrl inboundSlot
}

func (a *inboundAssembler) init() {}

// begin starts accumulating a new frame's payload into the appropriate
// slot, validating the fragmentation state machine: a CONTINUATION frame
// must have a data message already in progress, and a data-starting frame
// (TEXT/BINARY) must not.
func (a *inboundAssembler) begin(h *FrameHeader) (*inboundSlot, error) {
	if h.Opcode.IsControl() {
		if a.ctrl.active {
			// Can't happen: control frames are never fragmented and the
			// recv pump fully drains one before parsing the next header.
			return nil, ErrProtocol
		}
		a.ctrl.begin(h.Opcode, false)
		return &a.ctrl, nil
	}
	if h.Opcode == OpContinuation {
		if !a.data.active {
			return nil, ErrProtocol
		}
		return &a.data, nil
	}
	if a.data.active {
		return nil, ErrProtocol
	}
	a.data.begin(h.Opcode, h.Opcode == OpText)
	return &a.data, nil
}

// append feeds chunk into slot, validating UTF-8 incrementally for TEXT
// messages, and enforces maxLen against the slot's accumulated length.
func (a *inboundAssembler) append(slot *inboundSlot, chunk []byte, maxLen uint64) error {
	if maxLen > 0 && uint64(len(slot.buf.B))+uint64(len(chunk)) > maxLen {
		return ErrInvalidArgument
	}
	if slot.isText {
		slot.utf8 = validateUTF8Chunk(slot.utf8, chunk)
		if slot.utf8.rejected() {
			return ErrProtocol
		}
	}
	slot.buf.B = append(slot.buf.B, chunk...)
	return nil
}

// finish completes slot's message once its final frame's FIN bit is set,
// returning the assembled Message and releasing the slot for reuse. For
// TEXT messages it requires the UTF-8 DFA to be in an accepted state; a
// sequence left mid-codepoint at message end is a protocol violation.
func (a *inboundAssembler) finish(slot *inboundSlot) (*Message, error) {
	if slot.isText && !slot.utf8.accepted() {
		slot.reset()
		return nil, ErrProtocol
	}
	msg := &Message{Opcode: slot.opcode}
	if slot.opcode == OpClose {
		code, reason, err := parseAndValidateClosePayload(slot.buf.B)
		if err != nil {
			slot.reset()
			return nil, err
		}
		msg.StatusCode, msg.Reason = code, reason
	} else {
		msg.Data = append([]byte(nil), slot.buf.B...)
	}
	slot.reset()
	return msg, nil
}

// parseAndValidateClosePayload splits a CLOSE frame payload into its
// status code and UTF-8 reason text per RFC 6455 §7.1.6, rejecting an
// out-of-range status code or a reason that isn't valid UTF-8. An empty
// payload means no status code was supplied at all; a one-byte payload is
// malformed (the code is always 2 bytes or absent).
func parseAndValidateClosePayload(payload []byte) (StatusCode, string, error) {
	if len(payload) == 0 {
		return StatusNoStatusRcvd, "", nil
	}
	if len(payload) == 1 {
		return 0, "", ErrProtocol
	}
	code := StatusCode(uint16(payload[0])<<8 | uint16(payload[1]))
	if !code.Valid() {
		return 0, "", ErrProtocol
	}
	reason := payload[2:]
	if validateUTF8Chunk(newUTF8State(), reason).rejected() {
		return 0, "", ErrProtocol
	}
	return code, string(reason), nil
}
