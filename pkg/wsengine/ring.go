package wsengine

// ringBuffer (C2) is the frame codec's fixed-capacity input staging area.
// It is not a true circular buffer: bytes are appended at limit and
// consumed from mark, and the occupied region is shifted back to offset 0
// ("compacted") whenever mark has advanced away from the start — the same
// shift-on-drain scheme as wslay_shift_ibuf in original_source/frame.c and
// the mark/limit cursor pair the teacher uses in FrameReader.
type ringBuffer struct {
	buf   []byte
	mark  int // first unconsumed byte
	limit int // one past the last filled byte
}

// ringBufferCapacity is the fixed 4 KiB size named in spec.md §3.
const ringBufferCapacity = 4096

func newRingBuffer() *ringBuffer {
	return &ringBuffer{buf: make([]byte, ringBufferCapacity)}
}

// available returns the number of unconsumed bytes currently buffered.
func (r *ringBuffer) available() int {
	return r.limit - r.mark
}

// compact shifts the unconsumed region down to the start of buf, making
// room to refill at the tail.
func (r *ringBuffer) compact() {
	if r.mark == 0 {
		return
	}
	n := copy(r.buf, r.buf[r.mark:r.limit])
	r.mark = 0
	r.limit = n
}

// fill calls recv to append more bytes at the tail, compacting first if
// needed. It returns ErrWantRead if recv reports would-block; any other
// recv error is returned unchanged, not wrapped in ErrCallbackFailure.
func (r *ringBuffer) fill(recv RecvCallback) error {
	r.compact()
	if r.limit == len(r.buf) {
		// Buffer is fully compacted and still full; the caller asked for
		// more than ringBufferCapacity bytes in one request, which never
		// happens for this protocol (max header is 14 bytes).
		return ErrNoMemory
	}
	n, err := recv(r.buf[r.limit:])
	if err != nil {
		if IsRecoverable(err) {
			return ErrWantRead
		}
		return err
	}
	if n <= 0 {
		return ErrWantRead
	}
	r.limit += n
	return nil
}

// peek returns the unconsumed bytes without advancing mark.
func (r *ringBuffer) peek() []byte {
	return r.buf[r.mark:r.limit]
}

// advance consumes n unconsumed bytes.
func (r *ringBuffer) advance(n int) {
	r.mark += n
}
