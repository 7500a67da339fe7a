package wsengine

import "golang.org/x/sys/cpu"

// maskBytes applies RFC 6455 §5.3 client-to-server XOR masking to data in
// place, keyed off runningOffset rather than a per-call counter — masking
// is a streaming XOR, and a send split across arbitrarily many partial
// writes still needs byte i of the payload masked with key[i&3] regardless
// of which call wrote it (spec.md §9, "Masking as streaming XOR").
//
// This batches 8 bytes at a time the way the teacher's maskBytesDefault
// does; see DESIGN.md for why the teacher's AVX2 assembly variant was not
// ported.
func maskBytes(data []byte, key [4]byte, runningOffset uint64) {
	i := 0
	off := int(runningOffset & 3)
	// Align to a mask-cycle boundary first so the 8-byte fast path below
	// can use one fixed 64-bit key instead of re-deriving it per call.
	for ; i < len(data) && off != 0; i++ {
		data[i] ^= key[off]
		off = (off + 1) & 3
	}
	if off == 0 {
		key64 := uint64(key[0]) | uint64(key[1])<<8 | uint64(key[2])<<16 | uint64(key[3])<<24 |
			uint64(key[0])<<32 | uint64(key[1])<<40 | uint64(key[2])<<48 | uint64(key[3])<<56
		for ; i+8 <= len(data); i += 8 {
			v := uint64(data[i]) | uint64(data[i+1])<<8 | uint64(data[i+2])<<16 | uint64(data[i+3])<<24 |
				uint64(data[i+4])<<32 | uint64(data[i+5])<<40 | uint64(data[i+6])<<48 | uint64(data[i+7])<<56
			v ^= key64
			data[i] = byte(v)
			data[i+1] = byte(v >> 8)
			data[i+2] = byte(v >> 16)
			data[i+3] = byte(v >> 24)
			data[i+4] = byte(v >> 32)
			data[i+5] = byte(v >> 40)
			data[i+6] = byte(v >> 48)
			data[i+7] = byte(v >> 56)
		}
	}
	for ; i < len(data); i++ {
		data[i] ^= key[(int(runningOffset)+i)&3]
	}
}

// CPUFeatures summarizes the host's relevant SIMD capability, surfaced on
// Context purely for diagnostics/logging — masking itself is plain Go on
// every architecture. The teacher's mask_amd64.go gates an AVX2 assembly
// masking routine behind cpu.X86.HasAVX2; this engine reuses the same
// probe without the routine (see DESIGN.md).
type CPUFeatures struct {
	AVX2 bool
}

func detectCPUFeatures() CPUFeatures {
	return CPUFeatures{AVX2: cpu.X86.HasAVX2}
}
