package sender

import (
	"testing"

	"github.com/anthropics/ultrawave/pkg/link"
	"github.com/anthropics/ultrawave/pkg/pacing"
	"github.com/anthropics/ultrawave/pkg/waveform"
	"github.com/anthropics/ultrawave/pkg/wire"
	"github.com/anthropics/ultrawave/testutil"
)

func newTestSession(t *testing.T, total, ackInterval int, fl *testutil.FakeLink) *Session {
	t.Helper()
	s := NewSession(Options{
		Source:      waveform.NewStubSource(total, waveform.Raw),
		Link:        fl,
		TotalBlocks: total,
		AckInterval: ackInterval,
	})
	if err := s.Start(waveform.Raw, 23); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

// runUntil drives ticks until the predicate is satisfied or a safety cap
// is hit, to avoid an infinite loop on a test bug. FakeLink never raises
// transmit-complete itself, so each successful send is followed by one
// OnNotificationTransmitted to return the pacing credit it consumed.
func runUntil(t *testing.T, s *Session, cap int, pred func(TickResult) bool) TickResult {
	t.Helper()
	for i := 0; i < cap; i++ {
		r := s.ProcessNextChunk()
		if r == Sent || r == Completed {
			s.OnNotificationTransmitted()
		}
		if pred(r) {
			return r
		}
	}
	t.Fatalf("predicate not satisfied within %d ticks", cap)
	return Idled
}

func TestStartFetchesFirstBlock(t *testing.T) {
	fl := testutil.NewFakeLink()
	s := newTestSession(t, 3, 20, fl)
	if s.State() != Active {
		t.Fatalf("state = %v, want Active", s.State())
	}
	stats := s.GetStats()
	if stats.CurBlock != 0 {
		t.Errorf("CurBlock = %d, want 0", stats.CurBlock)
	}
}

// TestAckBarrier checks that the sender transmits blocks 0..19, enters
// WaitingAck, and only resumes once ACK(19) arrives.
func TestAckBarrier(t *testing.T) {
	fl := testutil.NewFakeLink()
	s := newTestSession(t, 40, 20, fl)

	runUntil(t, s, 100000, func(r TickResult) bool { return r == WaitedForAck })
	if s.GetStats().CurBlock != 20 {
		t.Fatalf("CurBlock = %d, want 20", s.GetStats().CurBlock)
	}

	sendsBefore := fl.SendCount()
	for i := 0; i < 5; i++ {
		if r := s.ProcessNextChunk(); r != WaitedForAck {
			t.Fatalf("tick while waiting = %v, want WaitedForAck", r)
		}
	}
	if fl.SendCount() != sendsBefore {
		t.Fatalf("sends increased while WaitingAck: %d -> %d", sendsBefore, fl.SendCount())
	}

	s.OnControlWrite(wire.ControlMessage{Command: wire.CmdAck, BlockNumber: 19})
	if s.State() != Active {
		t.Fatalf("state after ack(19) = %v, want Active", s.State())
	}

	runUntil(t, s, 100000, func(r TickResult) bool { return r == Completed })
	if s.GetStats().CurBlock != 40 {
		t.Fatalf("CurBlock = %d, want 40", s.GetStats().CurBlock)
	}
}

// TestStaleAckDoesNotReleaseBarrier checks that ACK(18) does not
// release a barrier that requires ACK(19).
func TestStaleAckDoesNotReleaseBarrier(t *testing.T) {
	fl := testutil.NewFakeLink()
	s := newTestSession(t, 40, 20, fl)
	runUntil(t, s, 100000, func(r TickResult) bool { return r == WaitedForAck })

	s.OnControlWrite(wire.ControlMessage{Command: wire.CmdAck, BlockNumber: 18})
	if s.State() != WaitingAck {
		t.Fatalf("state after ack(18) = %v, want WaitingAck", s.State())
	}

	s.OnControlWrite(wire.ControlMessage{Command: wire.CmdAck, BlockNumber: 19})
	if s.State() != Active {
		t.Fatalf("state after ack(19) = %v, want Active", s.State())
	}
}

// TestCreditStarvation checks pacing credit exhaustion at the session level.
func TestCreditStarvation(t *testing.T) {
	fl := testutil.NewFakeLink()
	s := newTestSession(t, 40, 20, fl)

	for i := 0; i < pacing.MaxCredits; i++ {
		if r := s.ProcessNextChunk(); r != Sent {
			t.Fatalf("send %d = %v, want Sent", i, r)
		}
	}
	for i := 0; i < 5; i++ {
		if r := s.ProcessNextChunk(); r != BlockedOnCredits {
			t.Fatalf("tick %d after exhausting credits = %v, want BlockedOnCredits", i, r)
		}
	}

	s.OnNotificationTransmitted()
	if r := s.ProcessNextChunk(); r != Sent {
		t.Fatalf("send after transmit-complete = %v, want Sent", r)
	}
	if r := s.ProcessNextChunk(); r != BlockedOnCredits {
		t.Fatalf("send after re-exhausting credits = %v, want BlockedOnCredits", r)
	}
}

// TestDisconnectReconnectResumesFromLastAck checks that a disconnect
// mid-transfer, followed by reconnect, resumes from last_acked_block: the
// first block after the last one acknowledged.
func TestDisconnectReconnectResumesFromLastAck(t *testing.T) {
	fl := testutil.NewFakeLink()
	s := newTestSession(t, 40, 20, fl)

	runUntil(t, s, 100000, func(r TickResult) bool { return r == WaitedForAck })
	s.OnControlWrite(wire.ControlMessage{Command: wire.CmdAck, BlockNumber: 19})

	// Advance partway into block 25.
	for s.GetStats().CurBlock < 25 {
		if r := s.ProcessNextChunk(); r == Sent {
			s.OnNotificationTransmitted()
		}
	}

	s.OnDisconnect()
	if s.State() != Paused {
		t.Fatalf("state after disconnect = %v, want Paused", s.State())
	}
	if s.GetStats().Disconnections != 1 {
		t.Errorf("disconnections = %d, want 1", s.GetStats().Disconnections)
	}

	s.OnReconnect(23)
	if s.State() != Active {
		t.Fatalf("state after reconnect = %v, want Active", s.State())
	}
	if got := s.GetStats().CurBlock; got != 20 {
		t.Fatalf("CurBlock after reconnect = %d, want 20 (last_acked_block)", got)
	}

	runUntil(t, s, 1000000, func(r TickResult) bool { return r == Completed })
}

// TestNeverAdvancesPastTotal checks that the session never advances
// cur_block past the corpus total.
func TestNeverAdvancesPastTotal(t *testing.T) {
	fl := testutil.NewFakeLink()
	s := newTestSession(t, 2, 20, fl)

	runUntil(t, s, 100000, func(r TickResult) bool { return r == Completed })
	if s.State() != Complete {
		t.Fatalf("state = %v, want Complete", s.State())
	}
	if s.GetStats().CurBlock != 2 {
		t.Errorf("CurBlock = %d, want 2", s.GetStats().CurBlock)
	}
	for i := 0; i < 3; i++ {
		if r := s.ProcessNextChunk(); r != Idled {
			t.Errorf("tick after complete = %v, want Idled", r)
		}
	}
}

func TestCongestionBlocksWithoutAdvancing(t *testing.T) {
	fl := testutil.NewFakeLink()
	s := newTestSession(t, 40, 20, fl)

	fl.InjectCongestion(pacing.CongestionThreshold)
	for i := 0; i < pacing.CongestionThreshold; i++ {
		if r := s.ProcessNextChunk(); r != BlockedOnCongestion {
			t.Fatalf("tick %d = %v, want BlockedOnCongestion", i, r)
		}
	}
	if s.GetStats().CurBlock != 0 || s.GetStats().ChunksSent != 0 {
		t.Error("congested sends must not advance cur_block/cur_chunk or count as sent")
	}
}

func TestLinkErrorAdvancesPastLostChunk(t *testing.T) {
	fl := testutil.NewFakeLink()
	s := newTestSession(t, 40, 20, fl)

	fl.InjectError(1)
	if r := s.ProcessNextChunk(); r != ChunkLost {
		t.Fatalf("tick = %v, want ChunkLost", r)
	}
	if s.GetStats().SendFailures != 1 {
		t.Errorf("SendFailures = %d, want 1", s.GetStats().SendFailures)
	}
	// The sender moved past the lost chunk instead of retrying it forever.
	if r := s.ProcessNextChunk(); r != Sent {
		t.Fatalf("tick after loss = %v, want Sent", r)
	}
}

func TestStopReturnsToIdle(t *testing.T) {
	fl := testutil.NewFakeLink()
	s := newTestSession(t, 40, 20, fl)
	s.Stop()
	if s.State() != Idle {
		t.Fatalf("state = %v, want Idle", s.State())
	}
	if r := s.ProcessNextChunk(); r != Idled {
		t.Errorf("tick after stop = %v, want Idled", r)
	}
}

var _ link.Sender = (*testutil.FakeLink)(nil)
