package wsengine

import (
	"bytes"
	"testing"
)

// TestDecodeHeaderUnmaskedTextFrame uses the exact byte sequence RFC 6455
// §5.7 gives as "a single-frame unmasked text message": FIN+TEXT, 5-byte
// payload "Hello".
func TestDecodeHeaderUnmaskedTextFrame(t *testing.T) {
	wire := []byte{0x81, 0x05, 0x48, 0x65, 0x6c, 0x6c, 0x6f}
	rb := newRingBuffer()
	recv := (&fakeRecv{data: wire}).recv

	dec := newFrameDecoder()
	h, err := dec.decodeHeader(rb, recv)
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if !h.Fin || h.Opcode != OpText || h.Masked || h.PayloadLen != 5 {
		t.Fatalf("unexpected header: %+v", h)
	}

	dst := make([]byte, 5)
	n, done, err := dec.readPayload(rb, recv, dst)
	if err != nil {
		t.Fatalf("readPayload: %v", err)
	}
	if n != 5 || !done {
		t.Fatalf("n=%d done=%v", n, done)
	}
	if string(dst) != "Hello" {
		t.Fatalf("payload = %q", dst)
	}
}

// TestDecodeHeaderMaskedTextFrame uses RFC 6455 §5.7's "a single-frame
// masked text message" example.
func TestDecodeHeaderMaskedTextFrame(t *testing.T) {
	wire := []byte{0x81, 0x85, 0x37, 0xfa, 0x21, 0x3d, 0x7f, 0x9f, 0x4d, 0x51, 0x58}
	rb := newRingBuffer()
	recv := (&fakeRecv{data: wire}).recv

	dec := newFrameDecoder()
	h, err := dec.decodeHeader(rb, recv)
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if !h.Masked || h.PayloadLen != 5 {
		t.Fatalf("unexpected header: %+v", h)
	}

	dst := make([]byte, 5)
	if _, _, err := dec.readPayload(rb, recv, dst); err != nil {
		t.Fatalf("readPayload: %v", err)
	}
	if string(dst) != "Hello" {
		t.Fatalf("payload = %q", dst)
	}
}

// TestEncodeDecodeRoundTrip exercises the encoder and decoder against each
// other across the three length encodings (7-bit, 16-bit extended, 64-bit
// extended), with and without masking.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		masked  bool
	}{
		{"tiny-unmasked", []byte("hi"), false},
		{"tiny-masked", []byte("hi"), true},
		{"ext16", bytes.Repeat([]byte{'x'}, 1000), false},
		{"ext64", bytes.Repeat([]byte{'y'}, 70000), true},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc := newFrameEncoder()
			payload := append([]byte(nil), tc.payload...)
			key := [4]byte{1, 2, 3, 4}
			enc.prepare(true, OpBinary, payload, tc.masked, key)

			fs := &fakeSend{}
			done, err := enc.step(fs.send)
			if err != nil {
				t.Fatalf("step: %v", err)
			}
			if !done {
				t.Fatalf("expected frame fully sent in one step")
			}

			rb := newRingBuffer()
			fr := &fakeRecv{data: fs.buf.Bytes()}
			dec := newFrameDecoder()
			h, err := dec.decodeHeader(rb, fr.recv)
			if err != nil {
				t.Fatalf("decodeHeader: %v", err)
			}
			if h.PayloadLen != uint64(len(tc.payload)) {
				t.Fatalf("payload len = %d, want %d", h.PayloadLen, len(tc.payload))
			}
			// readPayload hands back at most what the 4 KiB input ring
			// currently holds, so drain the payload until it reports done.
			got := make([]byte, h.PayloadLen)
			for off := 0; ; {
				n, done, err := dec.readPayload(rb, fr.recv, got[off:])
				if err != nil {
					t.Fatalf("readPayload: %v", err)
				}
				off += n
				if done {
					break
				}
			}
			if !bytes.Equal(got, tc.payload) {
				t.Fatalf("round-trip mismatch: got %d bytes, want %d bytes", len(got), len(tc.payload))
			}
		})
	}
}

// TestFrameHeaderValidateRejectsReservedBits confirms RSV1-3 must be zero
// absent extension negotiation, which this engine never does.
func TestFrameHeaderValidateRejectsReservedBits(t *testing.T) {
	h := FrameHeader{Fin: true, Opcode: OpText, Rsv1: true}
	if err := h.validate(RoleClient); err != ErrProtocol {
		t.Fatalf("got %v, want ErrProtocol", err)
	}
}

// TestFrameHeaderValidateRejectsFragmentedControl confirms control frames
// must always carry FIN=1.
func TestFrameHeaderValidateRejectsFragmentedControl(t *testing.T) {
	h := FrameHeader{Fin: false, Opcode: OpPing, Masked: true}
	if err := h.validate(RoleClient); err != ErrProtocol {
		t.Fatalf("got %v, want ErrProtocol", err)
	}
}

// TestFrameHeaderValidateRejectsOversizeControl confirms control frame
// payloads over 125 bytes are rejected at the header stage, before any
// payload bytes are even read.
func TestFrameHeaderValidateRejectsOversizeControl(t *testing.T) {
	h := FrameHeader{Fin: true, Opcode: OpPing, Masked: true, PayloadLen: 126}
	if err := h.validate(RoleClient); err != ErrProtocol {
		t.Fatalf("got %v, want ErrProtocol", err)
	}
}

// TestFrameHeaderValidateEnforcesMaskingByRole confirms a server rejects
// an unmasked frame and a client rejects a masked one.
func TestFrameHeaderValidateEnforcesMaskingByRole(t *testing.T) {
	unmasked := FrameHeader{Fin: true, Opcode: OpText, Masked: false}
	if err := unmasked.validate(RoleClient); err != ErrProtocol {
		t.Fatalf("server receiving unmasked frame: got %v, want ErrProtocol", err)
	}
	masked := FrameHeader{Fin: true, Opcode: OpText, Masked: true}
	if err := masked.validate(RoleServer); err != ErrProtocol {
		t.Fatalf("client receiving masked frame: got %v, want ErrProtocol", err)
	}
}

// TestDecodeHeaderRejectsNonMinimalExtendedLength confirms the decoder
// enforces minimal length encoding (RFC 6455 §5.2): a length that would
// fit in a smaller form must not be carried by a larger one, and the
// 64-bit form's most significant bit must be zero.
func TestDecodeHeaderRejectsNonMinimalExtendedLength(t *testing.T) {
	cases := []struct {
		name string
		wire []byte
	}{
		{
			name: "16-bit form encodes a length under 126",
			wire: []byte{0x81, 126, 0x00, 0x7d}, // encodes 125, should've used the 7-bit form
		},
		{
			name: "64-bit form encodes a length under 65536",
			wire: []byte{0x81, 127, 0, 0, 0, 0, 0, 0, 0xff, 0xff}, // encodes 65535
		},
		{
			name: "64-bit form sets the most significant bit",
			wire: []byte{0x81, 127, 0x80, 0, 0, 0, 0, 0, 0, 0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rb := newRingBuffer()
			recv := (&fakeRecv{data: tc.wire}).recv
			dec := newFrameDecoder()
			if _, err := dec.decodeHeader(rb, recv); err != ErrProtocol {
				t.Fatalf("decodeHeader = %v, want ErrProtocol", err)
			}
		})
	}
}

// TestEncoderDoesNotMutateCallerPayload confirms masking a frame for send
// copies the payload rather than XORing the host's own buffer in place.
func TestEncoderDoesNotMutateCallerPayload(t *testing.T) {
	original := []byte("do not touch me")
	caller := append([]byte(nil), original...)

	enc := newFrameEncoder()
	enc.prepare(true, OpText, caller, true, [4]byte{1, 2, 3, 4})

	fs := &fakeSend{}
	if _, err := enc.step(fs.send); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !bytes.Equal(caller, original) {
		t.Fatalf("caller's payload buffer was mutated: got %q, want %q", caller, original)
	}
}
