// Package receiver implements the central-side chunk reassembly and
// waveform-block decode pipeline: chunk ingest, per-block partial
// reassembly, duplicate/idempotence handling, ACK-cadence emission, and
// progress/completion bookkeeping.
package receiver

import (
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/anthropics/ultrawave/pkg/waveform"
	"github.com/anthropics/ultrawave/pkg/wire"
)

// partial is the in-flight reassembly state for one block, keyed by chunk
// index: a heterogeneous partial-reassembly map. A nested map-of-maps is
// a deliberate simplification over a contiguous buffer-plus-bitset
// alternative; the protocol is indifferent to the choice.
type partial struct {
	chunks        map[int][]byte
	expectedTotal int
}

// Options configures a receiver session's collaborators and callbacks.
type Options struct {
	TotalBlocks int
	AckInterval int
	DecodeOpts  waveform.DecodeOptions
	Logger      *logrus.Entry

	// OnBlock fires after a block is fully decoded, exactly once per
	// distinct block index.
	OnBlock func(waveform.Block)
	// OnProgress fires after every block completion with a fresh snapshot.
	OnProgress func(Stats)
	// OnComplete fires at most once, when all T blocks have completed.
	OnComplete func(Stats)
	// OnAckEmit fires when the ACK cadence is reached; the embedder is
	// responsible for turning this into a control-characteristic write.
	OnAckEmit func(blockNumber int)
}

// Stats is a point-in-time snapshot of receiver progress.
type Stats struct {
	BlocksReceived      int
	TotalBlocks         int
	TotalBytesReceived  int
	TotalChunksReceived int
	ElapsedSeconds      float64
	ThroughputKbps      float64
	ProgressPercent     float64
}

// Session is the receiver-side reassembly state machine. All methods are
// safe to call from a single delivery context; no internal concurrency is
// assumed.
type Session struct {
	mu sync.Mutex

	id   xid.ID
	opts Options
	log  *logrus.Entry

	total  int
	ackInt int

	active    bool
	startTime time.Time

	partials  map[int]*partial
	completed map[int]bool

	blocksReceived      int
	totalBytesReceived  int
	totalChunksReceived int

	framingErrors int
	decodeErrors  int

	completionFired bool
}

// NewSession constructs a receiver session. It is inactive until Start is
// called.
func NewSession(opts Options) *Session {
	total := opts.TotalBlocks
	if total == 0 {
		total = wire.TotalBlocks
	}
	ackInt := opts.AckInterval
	if ackInt == 0 {
		ackInt = wire.AckInterval
	}
	id := xid.New()
	log := opts.Logger
	if log != nil {
		log = log.WithField("session", id.String())
	}
	return &Session{
		id:     id,
		opts:   opts,
		log:    log,
		total:  total,
		ackInt: ackInt,
	}
}

// Start clears partials and the completed set, resets statistics, and
// marks the session active.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partials = make(map[int]*partial)
	s.completed = make(map[int]bool)
	s.blocksReceived = 0
	s.totalBytesReceived = 0
	s.totalChunksReceived = 0
	s.framingErrors = 0
	s.decodeErrors = 0
	s.completionFired = false
	s.active = true
	s.startTime = nowFunc()
	if s.log != nil {
		s.log.Info("receiver: started")
	}
}

// Stop transitions to Idle. Buffered partials are discarded; STOP is a
// clean transition, not an error.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.partials = nil
	if s.log != nil {
		s.log.Info("receiver: stopped")
	}
}

// ProcessChunk ingests one notification frame.
func (s *Session) ProcessChunk(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	header, err := wire.DecodeChunkHeader(frame)
	if err != nil {
		s.framingErrors++
		if s.log != nil {
			s.log.WithError(err).Warn("receiver: short chunk frame")
		}
		return err
	}

	blockNumber := int(header.BlockNumber)
	if blockNumber < 0 || blockNumber >= s.total {
		s.framingErrors++
		if s.log != nil {
			s.log.WithField("block", blockNumber).Warn("receiver: block number out of range")
		}
		return wire.ErrBadBlockIndex
	}

	// Duplicate-block policy: once a block has completed, any further
	// chunk addressed to it is discarded outright rather than reassembled
	// into a throwaway partial entry.
	if s.completed[blockNumber] {
		return nil
	}

	end := wire.ChunkHeaderSize + int(header.ChunkSize)
	if end > len(frame) {
		end = len(frame)
	}
	payload := frame[wire.ChunkHeaderSize:end]

	p, ok := s.partials[blockNumber]
	if !ok {
		p = &partial{chunks: make(map[int][]byte), expectedTotal: int(header.TotalChunks)}
		s.partials[blockNumber] = p
	} else if int(header.TotalChunks) != p.expectedTotal {
		delete(s.partials, blockNumber)
		s.framingErrors++
		if s.log != nil {
			s.log.WithFields(logrus.Fields{
				"block": blockNumber, "total_chunks": header.TotalChunks, "expected": p.expectedTotal,
			}).Warn("receiver: inconsistent total_chunks for block, abandoning")
		}
		return wire.ErrInconsistentChunkCount
	}

	chunkNumber := int(header.ChunkNumber)
	if _, already := p.chunks[chunkNumber]; !already {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		p.chunks[chunkNumber] = cp
		s.totalChunksReceived++
		s.totalBytesReceived += len(payload)
	}

	if len(p.chunks) < p.expectedTotal {
		return nil
	}
	for i := 0; i < p.expectedTotal; i++ {
		if _, ok := p.chunks[i]; !ok {
			return nil
		}
	}

	assembled := make([]byte, 0, p.expectedTotal*len(payload))
	for i := 0; i < p.expectedTotal; i++ {
		assembled = append(assembled, p.chunks[i]...)
	}
	delete(s.partials, blockNumber)

	block, err := waveform.DecodeBlock(assembled, s.opts.DecodeOpts)
	if err != nil {
		s.decodeErrors++
		if s.log != nil {
			s.log.WithError(err).WithField("block", blockNumber).Warn("receiver: block decode failed, abandoning")
		}
		return err
	}

	s.completed[blockNumber] = true
	s.blocksReceived++

	if s.opts.OnBlock != nil {
		s.opts.OnBlock(block)
	}

	if blockNumber > 0 && (blockNumber+1)%s.ackInt == 0 {
		if s.opts.OnAckEmit != nil {
			s.opts.OnAckEmit(blockNumber)
		}
	}

	if s.opts.OnProgress != nil {
		s.opts.OnProgress(s.statsLocked())
	}

	if len(s.completed) == s.total {
		s.active = false
		if !s.completionFired {
			s.completionFired = true
			if s.opts.OnComplete != nil {
				s.opts.OnComplete(s.statsLocked())
			}
			if s.log != nil {
				s.log.Info("receiver: transfer complete")
			}
		}
	}

	return nil
}

// GetStats returns a snapshot of progress and health counters.
func (s *Session) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Session) statsLocked() Stats {
	elapsed := 0.0
	if s.active {
		elapsed = nowFunc().Sub(s.startTime).Seconds()
	}
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(s.totalBytesReceived) / elapsed / 1000
	}
	progress := 0.0
	if s.total > 0 {
		progress = 100 * float64(s.blocksReceived) / float64(s.total)
	}
	return Stats{
		BlocksReceived:      s.blocksReceived,
		TotalBlocks:         s.total,
		TotalBytesReceived:  s.totalBytesReceived,
		TotalChunksReceived: s.totalChunksReceived,
		ElapsedSeconds:      elapsed,
		ThroughputKbps:      throughput,
		ProgressPercent:     progress,
	}
}

// FramingErrors reports how many chunks were dropped for bad framing or an
// out-of-range block index.
func (s *Session) FramingErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.framingErrors
}

// DecodeErrors reports how many assembled blocks failed to decode and were
// abandoned.
func (s *Session) DecodeErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decodeErrors
}

// nowFunc is overridden in tests to avoid depending on wall-clock time.
var nowFunc = time.Now

// SessionID returns the receiver's correlation id, for logging/metrics
// wiring by embedders.
func (s *Session) SessionID() string { return s.id.String() }
