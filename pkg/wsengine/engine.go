package wsengine

// peerRole returns the role of whoever is on the other end of a Context
// with the given local role.
func peerRole(local Role) Role {
	if local == RoleClient {
		return RoleServer
	}
	return RoleClient
}

// QueueMsg enqueues a complete, already-fully-resident TEXT or BINARY
// message for sending. Returns ErrNoMoreMessages if a CLOSE has already
// been queued, and ErrInvalidArgument if opcode isn't a data opcode.
func (c *Context) QueueMsg(opcode Opcode, data []byte) error {
	if opcode.IsControl() {
		return ErrInvalidArgument
	}
	if !c.GetWriteEnabled() {
		return ErrNoMoreMessages
	}
	c.outQueue.pushData(outboundMessage{opcode: opcode, data: data})
	return nil
}

// QueueFragmentedMsg enqueues a message whose payload is produced
// incrementally by source, split across as many CONTINUATION frames as
// source needs to signal fin. Useful for sending a message larger than
// the host wants to hold in memory at once.
func (c *Context) QueueFragmentedMsg(opcode Opcode, source FragmentedReadCallback) error {
	if opcode.IsControl() {
		return ErrInvalidArgument
	}
	if !c.GetWriteEnabled() {
		return ErrNoMoreMessages
	}
	c.outQueue.pushData(outboundMessage{opcode: opcode, fragmented: true, source: source})
	return nil
}

// QueuePing enqueues a PING control frame. payload must be 125 bytes or
// fewer.
func (c *Context) QueuePing(payload []byte) error {
	return c.queueControl(OpPing, payload)
}

// QueuePong enqueues an unsolicited PONG control frame. Hosts normally
// don't need this directly: AutoPong already replies to inbound PINGs.
func (c *Context) QueuePong(payload []byte) error {
	return c.queueControl(OpPong, payload)
}

// QueueClose enqueues the CLOSE frame that starts (or completes) the close
// handshake, with the given status code and UTF-8 reason text. Reason must
// be 123 bytes or fewer once encoded (123 = 125 - 2 status-code bytes).
// After this call GetWriteEnabled reports false and no further messages may
// be queued; the CLOSE frame itself reaches the wire on a later Send.
func (c *Context) QueueClose(status StatusCode, reason string) error {
	if !c.GetWriteEnabled() {
		return ErrNoMoreMessages
	}
	if status != 0 && !status.Valid() {
		return ErrInvalidArgument
	}
	if len(reason) > maxControlPayloadLen-2 {
		return ErrInvalidArgument
	}
	var payload []byte
	if status != 0 {
		payload = make([]byte, 2+len(reason))
		payload[0] = byte(status >> 8)
		payload[1] = byte(status)
		copy(payload[2:], reason)
	}
	c.sentStatus = status
	c.outQueue.pushControl(outboundMessage{opcode: OpClose, isControl: true, data: payload})
	c.flags |= closeFlagCloseQueued // queued, not yet on the wire; see pendingCloseFrame
	return nil
}

func (c *Context) queueControl(opcode Opcode, payload []byte) error {
	if len(payload) > maxControlPayloadLen {
		return ErrInvalidArgument
	}
	if !c.GetWriteEnabled() {
		return ErrNoMoreMessages
	}
	c.outQueue.pushControl(outboundMessage{opcode: opcode, isControl: true, data: payload})
	return nil
}

// Send drives the outbound queues through the frame encoder and out to
// the host's SendCallback until either the queues are empty or the
// transport reports ErrWantWrite. Call it again once the host's transport
// becomes writable.
func (c *Context) Send() error {
	for {
		if c.enc.state == encStateIdle || c.enc.state == encStateDone {
			if c.flags.has(closeFlagWriteShutdown) {
				return nil
			}
			loaded, err := c.loadNextFrame()
			if err != nil {
				return err
			}
			if !loaded {
				return nil
			}
		}
		done, err := c.enc.step(c.cb.Send)
		if err != nil {
			return err
		}
		if done {
			if c.pendingCloseFrame {
				c.pendingCloseFrame = false
				c.flags |= closeFlagWriteShutdown
			}
			c.enc.reset()
		}
	}
}

func (c *Context) loadNextFrame() (bool, error) {
	if c.outQueue.hasControl() {
		m := c.outQueue.popControl()
		if m.opcode == OpClose {
			c.pendingCloseFrame = true
		}
		return true, c.prepareFrame(true, m.opcode, m.data)
	}
	if c.fragInProgress != nil {
		return true, c.continueFragmented()
	}
	if c.outQueue.hasData() {
		m := c.outQueue.popData()
		if m.fragmented {
			c.fragInProgress = &m
			return true, c.continueFragmented()
		}
		return true, c.prepareFrame(true, m.opcode, m.data)
	}
	return false, nil
}

func (c *Context) continueFragmented() error {
	m := c.fragInProgress
	chunk := getChunk(4096)
	n, fin, err := m.source(chunk.B)
	if err != nil {
		putChunk(chunk)
		if IsRecoverable(err) {
			return ErrWantWrite
		}
		return err
	}
	payload := append([]byte(nil), chunk.B[:n]...)
	putChunk(chunk)

	opcode := OpContinuation
	if !m.started {
		opcode = m.opcode
		m.started = true
	}
	if err := c.prepareFrame(fin, opcode, payload); err != nil {
		return err
	}
	if fin {
		c.fragInProgress = nil
	}
	return nil
}

func (c *Context) prepareFrame(fin bool, opcode Opcode, payload []byte) error {
	masked := c.role == RoleClient
	var key [4]byte
	if masked {
		if err := c.cb.GenMask(key[:]); err != nil {
			if IsRecoverable(err) {
				return ErrWantWrite
			}
			return err
		}
	}
	c.enc.prepare(fin, opcode, payload, masked, key)
	return nil
}

const recvChunkSize = 4096

// Recv drives bytes from the host's RecvCallback through the frame codec
// and message assembler, invoking OnMessage (and, for PING, queuing an
// automatic PONG) for each message completed along the way. It returns
// ErrWantRead once the transport has no more bytes ready; call it again
// once the host's transport becomes readable.
func (c *Context) Recv() error {
	if !c.GetReadEnabled() {
		return ErrNoMoreMessages
	}
	for {
		resuming := c.dec.state != decStateHeader
		h, err := c.dec.decodeHeader(c.recvBuf, c.cb.Recv)
		if err != nil {
			if err == ErrProtocol {
				c.abortRead(StatusProtocolError)
				return nil
			}
			return err
		}
		var slot *inboundSlot
		if resuming {
			// An earlier call already validated this header and began its
			// slot before stopping mid-payload on ErrWantRead.
			slot = &c.inAsm.data
			if h.Opcode.IsControl() {
				slot = &c.inAsm.ctrl
			}
		} else {
			if err := h.validate(peerRole(c.role)); err != nil {
				c.abortRead(StatusProtocolError)
				return nil
			}
			slot, err = c.inAsm.begin(h)
			if err != nil {
				c.abortRead(StatusProtocolError)
				return nil
			}
		}

		chunk := getChunk(recvChunkSize)
		for {
			want := chunk.B
			if remaining := h.PayloadLen - c.dec.payloadRead; remaining < uint64(len(want)) {
				want = want[:remaining]
			}
			n, done, err := c.dec.readPayload(c.recvBuf, c.cb.Recv, want)
			if n > 0 {
				if aerr := c.inAsm.append(slot, want[:n], c.cfg.MaxMessageLength); aerr != nil {
					putChunk(chunk)
					status := StatusInvalidFramePayloadData
					if aerr == ErrInvalidArgument {
						status = StatusMessageTooBig
					}
					c.abortRead(status)
					return nil
				}
				if c.cb.OnFrame != nil {
					c.cb.OnFrame(*h, want[:n])
				}
			}
			if err != nil {
				putChunk(chunk)
				return err
			}
			if done {
				break
			}
		}
		putChunk(chunk)

		if h.Fin {
			msg, ferr := c.inAsm.finish(slot)
			if ferr != nil {
				c.abortRead(StatusInvalidFramePayloadData)
				return nil
			}
			if err := c.handleMessage(msg); err != nil {
				return err
			}
		}
		c.dec.reset()

		if !c.GetReadEnabled() {
			return nil
		}
	}
}

func (c *Context) handleMessage(msg *Message) error {
	switch msg.Opcode {
	case OpPing:
		if c.cfg.AutoPong {
			if err := c.QueuePong(msg.Data); err != nil && err != ErrNoMoreMessages {
				return err
			}
		}
	case OpClose:
		c.flags |= closeFlagRecvClose
		c.flags |= closeFlagReadShutdown
		c.recvStatus = msg.StatusCode
		c.cfg.Logger.Debug().
			Str("role", c.role.String()).
			Str("status", msg.StatusCode.String()).
			Str("reason", msg.Reason).
			Msg("wsengine: received close")
		if c.cfg.AutoCloseResponse && c.GetWriteEnabled() {
			echo := msg.StatusCode
			if echo == StatusNoStatusRcvd {
				echo = StatusNormalClosure
			}
			_ = c.QueueClose(echo, msg.Reason)
		}
	}
	if c.cb.OnMessage != nil {
		c.cb.OnMessage(msg)
	}
	return nil
}

// abortRead is the engine's self-recovery from a protocol violation: stop
// reading and, if no CLOSE has been queued yet, queue one explaining why.
func (c *Context) abortRead(status StatusCode) {
	c.flags |= closeFlagReadShutdown
	c.cfg.Logger.Warn().
		Str("role", c.role.String()).
		Str("status", status.String()).
		Msg("wsengine: aborting read")
	if !c.flags.has(closeFlagCloseQueued) {
		_ = c.QueueClose(status, "")
	}
}
