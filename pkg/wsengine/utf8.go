package wsengine

// Streaming UTF-8 validation (C1), ported from Bjoern Hoehrmann's DFA
// decoder (http://bjoern.hoehrmann.de/utf-8/decoder/dfa/), the same table
// referenced by original_source/src/wslay/utf8.h. The decoder normally
// also produces code points; this engine only needs acceptance, so
// utf8Step below keeps just the state transition and drops the code-point
// accumulation wslay carries alongside it.

const (
	utf8Accept = 0
	utf8Reject = 12
)

// utf8Table is the original 364-byte Hoehrmann DFA: the first 256 entries
// map a byte to an input class, the remaining entries are the
// state-transition table indexed by (state + class).
var utf8Table = [364]byte{
	// The first 256 entries classify each possible input byte.
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	8, 8, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	10, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 4, 3, 3,
	11, 6, 6, 6, 5, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,

	// State-transition table.
	0, 12, 24, 36, 60, 96, 84, 12, 12, 12, 48, 72,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
	12, 0, 12, 12, 12, 12, 12, 0, 12, 0, 12, 12,
	12, 24, 12, 12, 12, 12, 12, 24, 12, 24, 12, 12,
	12, 12, 12, 12, 12, 12, 12, 24, 12, 12, 12, 12,
	12, 24, 12, 12, 12, 12, 12, 12, 12, 24, 12, 12,
	12, 12, 12, 12, 12, 12, 12, 36, 12, 36, 12, 12,
	12, 36, 12, 12, 12, 12, 12, 36, 12, 36, 12, 12,
	12, 36, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
}

// utf8State tracks the DFA's position across an arbitrary split of the byte
// stream into chunks (inbound slot field "utf8state" in spec.md §3).
type utf8State uint32

// newUTF8State returns a validator primed to accept the start of a new
// UTF-8 sequence.
func newUTF8State() utf8State {
	return utf8Accept
}

// step feeds one byte through the DFA, returning the new state. Callers
// check rejected() after each byte and accepted() once the stream (message
// or close reason) is believed complete.
func (s utf8State) step(b byte) utf8State {
	class := utf8Table[b]
	return utf8State(utf8Table[256+uint32(s)+uint32(class)])
}

// rejected reports that the byte sequence seen so far can never be valid
// UTF-8, regardless of what bytes follow.
func (s utf8State) rejected() bool {
	return s == utf8Reject
}

// accepted reports that the byte sequence seen so far is a complete,
// valid UTF-8 string with no pending multi-byte sequence.
func (s utf8State) accepted() bool {
	return s == utf8Accept
}

// validateUTF8Chunk feeds data through state and returns the updated state.
// The caller is responsible for checking rejected()/accepted() as needed;
// this just threads the DFA across chunk boundaries.
func validateUTF8Chunk(state utf8State, data []byte) utf8State {
	for _, b := range data {
		state = state.step(b)
		if state.rejected() {
			return state
		}
	}
	return state
}
