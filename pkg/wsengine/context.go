package wsengine

import (
	"github.com/rs/zerolog"

	"github.com/yourusername/wsengine/pkg/wsengine/wslog"
)

// Role distinguishes the two ends of a WebSocket connection; it governs
// which side masks outbound frames (clients always mask, servers never do)
// and which masking the engine requires on inbound frames.
type Role uint8

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// RecvCallback reads up to len(p) bytes from the host's transport into p,
// returning the number of bytes read. It returns ErrWouldBlock (or a
// wrapped form of it, checked with IsRecoverable) when no bytes are
// currently available rather than blocking.
type RecvCallback func(p []byte) (int, error)

// SendCallback writes p to the host's transport, returning the number of
// bytes actually written. A short write is legal and expected under
// non-blocking I/O; the engine resumes from the unwritten remainder on the
// next Send call. It returns ErrWouldBlock when the transport currently
// cannot accept any bytes.
type SendCallback func(p []byte) (int, error)

// GenMaskCallback fills key with cryptographically random bytes to use as
// the next outbound frame's masking key. Only ever invoked for
// RoleClient contexts, per RFC 6455 §5.3.
type GenMaskCallback func(key []byte) error

// FragmentedReadCallback supplies the next chunk of an outbound message
// queued via QueueFragmentedMsg. It returns the number of bytes written
// into buf and whether this chunk is the message's last fragment. Like
// Recv and Send, it never blocks: a source with nothing ready yet returns
// ErrWouldBlock.
type FragmentedReadCallback func(buf []byte) (n int, fin bool, err error)

// MessageRecvCallback is invoked once per fully assembled inbound message
// (after defragmentation and, for RoleServer, unmasking). Control frames
// (PING/PONG/CLOSE) are reported individually, never merged with data.
type MessageRecvCallback func(msg *Message)

// FrameRecvCallback, if set, is invoked for each chunk of frame payload as
// it is read, after the chunk has been added to the message under assembly
// — useful for diagnostics or extensions that need to see fragmentation as
// it happens. A frame whose payload is read in several pieces (it exceeds
// 4096 bytes or arrives across several Recv calls) produces one call per
// piece; a frame with an empty payload produces none. Most hosts leave
// this nil.
type FrameRecvCallback func(hdr FrameHeader, payload []byte)

// Callbacks bundles every host-supplied hook. Recv, Send, and GenMask are
// mandatory for the corresponding role; the engine returns
// ErrInvalidCallback from NewContext if a required one is missing.
type Callbacks struct {
	Recv      RecvCallback
	Send      SendCallback
	GenMask   GenMaskCallback
	OnMessage MessageRecvCallback
	OnFrame   FrameRecvCallback
}

// Config holds the tunable limits and feature flags a host may override via
// Options. The zero Config is never used directly; NewContext always starts
// from defaultConfig().
type Config struct {
	// MaxMessageLength caps the total reassembled size of one inbound
	// message (sum of all fragments' payloads). Exceeding it fails the
	// message with StatusMessageTooBig.
	MaxMessageLength uint64

	// AutoPong, when true (the default), makes the engine queue a PONG
	// reply automatically when a PING is received, mirroring wslay's
	// WSLAY_EVENT_WANT_AUTO_PONG behavior described in spec.md.
	AutoPong bool

	// AutoCloseResponse, when true (the default), makes the engine queue
	// the mandatory echo CLOSE frame automatically when a CLOSE is
	// received while none has yet been queued and writes are still enabled.
	AutoCloseResponse bool

	// Logger receives structured diagnostic events. The zero value is a
	// no-op logger (see wslog.NewNop), so a host that never calls
	// WithLogger pays nothing for logging.
	Logger zerolog.Logger
}

func defaultConfig() Config {
	return Config{
		MaxMessageLength:  1<<31 - 1, // 2^31-1, the unbounded default per spec.md §3/§6
		AutoPong:          true,
		AutoCloseResponse: true,
		Logger:            wslog.NewNop(),
	}
}

// Option configures a Context at construction time.
type Option func(*Config)

// WithMaxMessageLength overrides the default 2^31-1 byte inbound message cap.
func WithMaxMessageLength(n uint64) Option {
	return func(c *Config) { c.MaxMessageLength = n }
}

// WithAutoPong controls whether inbound PINGs are answered automatically.
func WithAutoPong(enabled bool) Option {
	return func(c *Config) { c.AutoPong = enabled }
}

// WithAutoCloseResponse controls whether an inbound CLOSE is echoed
// automatically when the local side has not already initiated closing.
func WithAutoCloseResponse(enabled bool) Option {
	return func(c *Config) { c.AutoCloseResponse = enabled }
}

// WithLogger attaches a zerolog.Logger for structured diagnostics. Hosts
// that want console-pretty output in development can pass
// wslog.NewConsole(); production hosts typically pass their own
// zerolog.Logger configured for JSON output.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// closeFlags tracks which side(s) of the close handshake have happened.
type closeFlags uint8

const (
	closeFlagCloseQueued closeFlags = 1 << iota
	closeFlagRecvClose
	closeFlagReadShutdown
	closeFlagWriteShutdown
)

func (f closeFlags) has(bit closeFlags) bool { return f&bit != 0 }

// Context (C7) is one end of one WebSocket connection: the frame codec, the
// outbound queues, the inbound assembler, and the bookkeeping the spec's
// send/recv pumps need, bound to one set of host callbacks. It owns no
// socket and starts no goroutine; every method call does a bounded amount
// of work and returns control to the host.
type Context struct {
	role Role
	cfg  Config
	cb   Callbacks

	recvBuf *ringBuffer
	dec     *frameDecoder
	enc     *frameEncoder

	outQueue messageQueue
	inAsm    inboundAssembler

	flags      closeFlags
	recvStatus StatusCode
	sentStatus StatusCode

	fragInProgress    *outboundMessage
	pendingCloseFrame bool

	cpu CPUFeatures
}

// NewContext constructs a Context for role, wiring cb as its host
// callbacks. Recv, Send are mandatory for both roles; GenMask is mandatory
// for RoleClient (servers never mask). Returns ErrInvalidCallback if a
// mandatory callback is missing.
func NewContext(role Role, cb Callbacks, opts ...Option) (*Context, error) {
	if cb.Recv == nil || cb.Send == nil {
		return nil, ErrInvalidCallback
	}
	if role == RoleClient && cb.GenMask == nil {
		return nil, ErrInvalidCallback
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx := &Context{
		role:       role,
		cfg:        cfg,
		cb:         cb,
		recvBuf:    newRingBuffer(),
		dec:        newFrameDecoder(),
		enc:        newFrameEncoder(),
		recvStatus: StatusAbnormalClosure,
		sentStatus: StatusAbnormalClosure,
		cpu:        detectCPUFeatures(),
	}
	ctx.inAsm.init()
	cfg.Logger.Debug().
		Str("role", role.String()).
		Bool("avx2", ctx.cpu.AVX2).
		Msg("wsengine: context created")
	return ctx, nil
}

// Role reports the role this Context was constructed with.
func (c *Context) Role() Role { return c.role }

// Config returns the effective configuration, including defaults filled in
// by options the host didn't override.
func (c *Context) Config() Config { return c.cfg }

// GetReadEnabled reports whether Recv may still be productively called:
// false once a CLOSE has been received and fully processed, or the read
// side was explicitly shut down.
func (c *Context) GetReadEnabled() bool {
	return !c.flags.has(closeFlagReadShutdown)
}

// GetWriteEnabled reports whether QueueMsg/Send may still be productively
// called: false once a CLOSE has been queued (sent or not) or the write
// side was explicitly shut down.
func (c *Context) GetWriteEnabled() bool {
	return !c.flags.has(closeFlagWriteShutdown) && !c.flags.has(closeFlagCloseQueued)
}

// QueuedMsgCount reports how many messages currently sit in the outbound
// queues awaiting Send.
func (c *Context) QueuedMsgCount() int { return c.outQueue.count() }

// QueuedMsgLength reports the total payload bytes across all currently
// queued outbound messages with a known size; a queued fragmented message
// always contributes 0, since its size is not known up front.
func (c *Context) QueuedMsgLength() uint64 { return c.outQueue.byteLength() }

// RecvStatusCode reports the status code seen in the peer's CLOSE frame,
// or StatusAbnormalClosure if none has been received yet.
func (c *Context) RecvStatusCode() StatusCode { return c.recvStatus }

// SentStatusCode reports the status code of this side's own CLOSE frame,
// or StatusAbnormalClosure if none has been queued. The value is recorded
// when QueueClose is called, so it is reported as soon as the CLOSE is
// queued, before Send has written it to the wire.
func (c *Context) SentStatusCode() StatusCode { return c.sentStatus }

// CloseHandshakeComplete reports whether both a CLOSE has been sent and a
// CLOSE has been received, i.e. the connection may now be torn down at the
// transport level.
func (c *Context) CloseHandshakeComplete() bool {
	return c.flags.has(closeFlagWriteShutdown) && c.flags.has(closeFlagRecvClose)
}

// ShutdownRead disables further Recv processing without waiting for a
// CLOSE frame; used when the host detects the transport itself has failed.
func (c *Context) ShutdownRead() {
	c.flags |= closeFlagReadShutdown
}

// ShutdownWrite disables further Send processing without completing a
// close handshake.
func (c *Context) ShutdownWrite() {
	c.flags |= closeFlagWriteShutdown
}
