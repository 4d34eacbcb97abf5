// Package sender implements the peripheral-side state machine: chunk
// emission, ACK-barrier waiting, pause/resume across disconnects, and
// progress reporting.
package sender

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/anthropics/ultrawave/pkg/link"
	"github.com/anthropics/ultrawave/pkg/pacing"
	"github.com/anthropics/ultrawave/pkg/waveform"
	"github.com/anthropics/ultrawave/pkg/wire"
)

// State is one of the sender session's five states.
type State int

const (
	Idle State = iota
	Active
	WaitingAck
	Paused
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case WaitingAck:
		return "waiting_ack"
	case Paused:
		return "paused"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// TickResult reports what ProcessNextChunk did, for callers driving their
// own loop (e.g. deciding how long to sleep before the next tick).
type TickResult int

const (
	// Idled means the session is not Active (Idle, Paused, or Complete); nothing happened.
	Idled TickResult = iota
	// WaitedForAck means the session is in WaitingAck; nothing was sent.
	WaitedForAck
	// BlockedOnCredits means no pacing credit was available; retry later.
	BlockedOnCredits
	// BlockedOnCongestion means the link reported congestion; retry later.
	BlockedOnCongestion
	// Sent means one chunk was successfully handed to the link.
	Sent
	// ChunkLost means the link returned a non-congestion error; the
	// sender advances past the chunk anyway and recovery is left to the
	// next ACK-driven resume.
	ChunkLost
	// Completed means this tick finished the final block (cur_block == T).
	Completed
)

// Options configures a Session. TotalBlocks and AckInterval default to the
// corpus constants (wire.TotalBlocks, wire.AckInterval) when zero, so
// tests can exercise scaled-down corpora.
type Options struct {
	Source      waveform.Source
	Link        link.Sender
	Pacing      pacing.Config
	TotalBlocks int
	AckInterval int
	Logger      *logrus.Entry
	OnComplete  func(Stats)
}

// Stats is a snapshot of sender-side progress and health counters.
type Stats struct {
	State          State
	CurBlock       int
	LastAckedBlock int
	TotalBlocks    int
	ChunksSent     int
	BytesSent      int
	SendFailures   int
	Disconnections int
	Pacing         pacing.Stats
}

// Session is the sender-side state machine. All exported methods are
// intended to be invoked from a single serialized execution context; the
// internal mutex exists to make that safe even when the embedder's
// control-write callback and the driving task loop happen to run on
// different goroutines.
type Session struct {
	mu sync.Mutex

	id     xid.ID
	opts   Options
	total  int
	ackInt int
	pace   *pacing.Controller
	log    *logrus.Entry

	state          State
	mode           waveform.Encoding
	mtu            int
	chunkPayload   int
	curBlock       int
	curChunk       int
	curTotalChunks int
	lastAckedBlock int

	blockBytes []byte

	chunksSent     int
	bytesSent      int
	sendFailures   int
	disconnections int
}

// NewSession constructs a sender session in the Idle state.
func NewSession(opts Options) *Session {
	total := opts.TotalBlocks
	if total == 0 {
		total = wire.TotalBlocks
	}
	ackInt := opts.AckInterval
	if ackInt == 0 {
		ackInt = wire.AckInterval
	}
	log := opts.Logger
	id := xid.New()
	if log != nil {
		log = log.WithField("session", id.String())
	}
	return &Session{
		id:     id,
		opts:   opts,
		total:  total,
		ackInt: ackInt,
		pace:   pacing.NewController(opts.Pacing),
		log:    log,
		state:  Idle,
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RecommendedDelay is the interval the driving task loop should sleep
// between ticks.
func (s *Session) RecommendedDelay() time.Duration {
	return s.pace.RecommendedDelay()
}

// Start begins transmission from block 0; it requires notifications
// enabled on the data characteristic, modeled here as simply requiring the
// caller to invoke Start only once that precondition holds.
func (s *Session) Start(mode waveform.Encoding, mtu int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return fmt.Errorf("sender: Start called from state %s, want %s", s.state, Idle)
	}

	s.mode = mode
	s.mtu = mtu
	s.chunkPayload = mtu - 3 - wire.ChunkHeaderSize
	if s.chunkPayload <= 0 {
		return fmt.Errorf("sender: mtu %d too small for a 3-byte ATT overhead plus %d-byte chunk header", mtu, wire.ChunkHeaderSize)
	}

	s.curBlock = 0
	s.curChunk = 0
	s.lastAckedBlock = 0
	s.chunksSent = 0
	s.bytesSent = 0
	s.sendFailures = 0
	s.disconnections = 0

	if err := s.loadBlockLocked(); err != nil {
		return err
	}
	s.state = Active

	if s.log != nil {
		s.log.WithFields(logrus.Fields{"mode": mode, "mtu": mtu}).Info("sender: started")
	}
	return nil
}

// Stop tears the session down to Idle unconditionally: STOP is an
// explicit command, not an error.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.blockBytes = nil
	if s.log != nil {
		s.log.Info("sender: stopped")
	}
}

// loadBlockLocked fetches the current block's bytes from the source and
// computes the per-block chunk count. Callers must hold s.mu.
func (s *Session) loadBlockLocked() error {
	buf, err := s.opts.Source.NextBlock(s.curBlock)
	if err != nil {
		return fmt.Errorf("sender: block source failed for block %d: %w", s.curBlock, err)
	}
	s.blockBytes = buf
	s.curTotalChunks = (len(buf) + s.chunkPayload - 1) / s.chunkPayload
	if s.curTotalChunks == 0 {
		s.curTotalChunks = 1
	}
	return nil
}

// ProcessNextChunk is the driver tick: it emits at most one chunk frame
// per call. The link is invoked with s.mu released: the simulated and real
// links alike may re-enter the session synchronously while delivering a
// notification (an ACK written back on the same call stack), and holding
// the lock across that call would deadlock against OnControlWrite.
func (s *Session) ProcessNextChunk() TickResult {
	s.mu.Lock()

	if s.state == WaitingAck {
		s.mu.Unlock()
		return WaitedForAck
	}
	if s.state != Active {
		s.mu.Unlock()
		return Idled
	}
	if !s.pace.HasCredit() {
		s.mu.Unlock()
		return BlockedOnCredits
	}

	chunkSize := s.chunkPayload
	offset := s.curChunk * s.chunkPayload
	if remaining := len(s.blockBytes) - offset; remaining < chunkSize {
		chunkSize = remaining
	}
	payload := s.blockBytes[offset : offset+chunkSize]

	header := wire.EncodeChunkHeader(wire.ChunkHeader{
		BlockNumber: uint16(s.curBlock),
		ChunkNumber: uint16(s.curChunk),
		ChunkSize:   uint16(chunkSize),
		TotalChunks: uint16(s.curTotalChunks),
	})
	frame := append(header, payload...)
	lnk := s.opts.Link

	s.mu.Unlock()

	status, sendErr := lnk.SendNotification(frame)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch status {
	case link.SendCongested:
		if report := s.pace.OnSendAttempt(pacing.Congested); report && s.log != nil {
			s.log.Warn("sender: link congested")
		}
		return BlockedOnCongestion

	case link.SendOK:
		s.pace.OnSendAttempt(pacing.Success)
		s.chunksSent++
		s.bytesSent += chunkSize
		return s.advanceLocked()

	default: // link.SendError, or any status other than SendOK/SendCongested
		_ = sendErr
		s.pace.OnSendAttempt(pacing.OtherError)
		s.sendFailures++
		if s.log != nil {
			s.log.WithError(sendErr).WithFields(logrus.Fields{
				"block": s.curBlock, "chunk": s.curChunk,
			}).Warn("sender: chunk send failed, advancing and deferring to ack-driven resume")
		}
		if s.advanceLocked() == Completed {
			return Completed
		}
		return ChunkLost
	}
}

// advanceLocked moves cur_chunk/cur_block forward after a chunk has been
// consumed by the link (successfully or not) and applies the ACK-barrier
// and completion transitions. Callers must hold s.mu.
func (s *Session) advanceLocked() TickResult {
	s.curChunk++
	if s.curChunk < s.curTotalChunks {
		return Sent
	}

	s.curChunk = 0
	s.curBlock++

	if s.curBlock >= s.total {
		s.state = Complete
		s.blockBytes = nil
		if s.log != nil {
			s.log.Info("sender: transfer complete")
		}
		if s.opts.OnComplete != nil {
			s.opts.OnComplete(s.statsLocked())
		}
		return Completed
	}

	if s.curBlock%s.ackInt == 0 {
		// A control write delivered re-entrantly during the SendNotification
		// call that just completed (the link processed the barrier block and
		// wrote its ACK back before this call regained the lock) may already
		// have satisfied the barrier for the block we're about to wait on.
		if s.lastAckedBlock >= s.curBlock {
			if err := s.loadBlockLocked(); err != nil {
				if s.log != nil {
					s.log.WithError(err).Error("sender: failed to load next block")
				}
			}
			return Sent
		}

		s.state = WaitingAck
		if s.log != nil {
			s.log.WithField("block", s.curBlock).Debug("sender: reached ack barrier, waiting")
		}
		return Sent
	}

	if err := s.loadBlockLocked(); err != nil {
		if s.log != nil {
			s.log.WithError(err).Error("sender: failed to load next block")
		}
	}
	return Sent
}

// OnControlWrite dispatches a control-characteristic write.
func (s *Session) OnControlWrite(msg wire.ControlMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Command {
	case wire.CmdStop:
		s.state = Idle
		s.blockBytes = nil
		if s.log != nil {
			s.log.Info("sender: stop received")
		}

	case wire.CmdStart:
		if s.state == Idle && s.mtu > 0 {
			s.curBlock = 0
			s.curChunk = 0
			s.lastAckedBlock = 0
			if err := s.loadBlockLocked(); err == nil {
				s.state = Active
			}
		}

	case wire.CmdAck:
		b := int(msg.BlockNumber)
		if b < s.lastAckedBlock {
			if s.log != nil {
				s.log.WithField("ack", b).Debug("sender: ignoring stale ack")
			}
			return
		}
		s.lastAckedBlock = b + 1

		// The barrier waits for an ack covering the last block fully
		// sent before it (cur_block - 1); a valid but insufficient ack
		// advances last_acked_block without releasing the barrier.
		if s.state == WaitingAck && b >= s.curBlock-1 {
			s.state = Active
			if err := s.loadBlockLocked(); err != nil && s.log != nil {
				s.log.WithError(err).Error("sender: failed to resume after ack")
			}
			if s.log != nil {
				s.log.WithField("ack", b).Debug("sender: resumed after ack barrier")
			}
		}
	}
}

// OnDisconnect pauses an in-progress transfer.
func (s *Session) OnDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Active || s.state == WaitingAck {
		s.state = Paused
		s.disconnections++
		if s.log != nil {
			s.log.Info("sender: disconnected, pausing")
		}
	}
}

// OnReconnect rewinds cur_block to last_acked_block (the block after the
// last one acknowledged) and resumes.
func (s *Session) OnReconnect(mtu int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Paused {
		return
	}
	s.mtu = mtu
	s.chunkPayload = mtu - 3 - wire.ChunkHeaderSize
	s.curBlock = s.lastAckedBlock
	s.curChunk = 0
	if err := s.loadBlockLocked(); err != nil {
		if s.log != nil {
			s.log.WithError(err).Error("sender: failed to reload block on reconnect")
		}
		return
	}
	s.state = Active
	if s.log != nil {
		s.log.WithField("resume_block", s.curBlock).Info("sender: reconnected, resuming")
	}
}

// OnCCCDChanged pauses the transfer if the central unsubscribes mid-stream.
func (s *Session) OnCCCDChanged(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !enabled && (s.state == Active || s.state == WaitingAck) {
		s.state = Paused
		if s.log != nil {
			s.log.Info("sender: central unsubscribed, pausing")
		}
	}
}

// OnNotificationTransmitted returns a pacing credit.
func (s *Session) OnNotificationTransmitted() {
	s.pace.OnNotificationTransmitted()
}

// GetStats returns a snapshot of progress and health counters.
func (s *Session) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Session) statsLocked() Stats {
	return Stats{
		State:          s.state,
		CurBlock:       s.curBlock,
		LastAckedBlock: s.lastAckedBlock,
		TotalBlocks:    s.total,
		ChunksSent:     s.chunksSent,
		BytesSent:      s.bytesSent,
		SendFailures:   s.sendFailures,
		Disconnections: s.disconnections,
		Pacing:         s.pace.Snapshot(),
	}
}

// Run drives ProcessNextChunk in a loop, sleeping the pacing-recommended
// delay between ticks, until ctx is canceled or the transfer completes.
// This is a convenience for embedders that want a ready-made task loop;
// Session itself has no goroutines and ProcessNextChunk can be driven from
// any scheduler.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch s.ProcessNextChunk() {
		case Completed:
			return nil
		case Idled:
			if s.State() == Idle {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.RecommendedDelay()):
		}
	}
}
