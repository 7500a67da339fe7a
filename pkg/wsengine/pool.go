package wsengine

import "github.com/valyala/bytebufferpool"

// Payload staging buffers (the recv pump's inbound chunk buffer, the
// fragmented-send staging buffer) are pooled through bytebufferpool rather than hand-rolled
// sync.Pool buckets: bytebufferpool already tracks a calibrated
// size-class histogram and shrinks oversized buffers back down, which a
// fixed 256B/1K/4K/16K bucket ladder does not.

var chunkPool bytebufferpool.Pool

// getChunk returns a pooled buffer with at least capacity n, sized to n.
func getChunk(n int) *bytebufferpool.ByteBuffer {
	b := chunkPool.Get()
	if cap(b.B) < n {
		b.B = make([]byte, n)
	} else {
		b.B = b.B[:n]
	}
	return b
}

// putChunk returns b to the pool. b must not be used afterward.
func putChunk(b *bytebufferpool.ByteBuffer) {
	if b != nil {
		chunkPool.Put(b)
	}
}
