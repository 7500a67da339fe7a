package wsengine

import "bytes"

// fakeRecv and fakeSend play the role the teacher's mockConn plays for
// net.Conn: a minimal hand-rolled stand-in for the host transport, here
// shaped as the two callbacks wsengine actually depends on instead of a
// net.Conn. No testify; comparisons are plain if/t.Fatalf like the rest
// of this module's tests.
type fakeRecv struct {
	data []byte
	pos  int
}

func (f *fakeRecv) recv(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		return 0, ErrWouldBlock
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}

type fakeSend struct {
	buf bytes.Buffer
}

func (f *fakeSend) send(p []byte) (int, error) {
	return f.buf.Write(p)
}

// fixedMask returns a GenMaskCallback that always yields the same key, so
// encoded test fixtures are reproducible byte-for-byte.
func fixedMask(key [4]byte) GenMaskCallback {
	return func(dst []byte) error {
		copy(dst, key[:])
		return nil
	}
}

// collectingCallbacks records every message the engine hands back, in
// order, for assertion.
type collectingCallbacks struct {
	messages []*Message
}

func (c *collectingCallbacks) onMessage(msg *Message) {
	c.messages = append(c.messages, msg)
}
