// Package simlink provides an in-memory link.Sender/link.ControlWriter
// that wires a sender.Session directly to a receiver.Session within one
// process, for integration tests and the demo CLIs. Real connection
// establishment, MTU negotiation, and PHY details are out of scope here;
// this is a same-process stand-in for the whole GATT transport.
package simlink

import (
	"sync"

	"github.com/anthropics/ultrawave/pkg/link"
	"github.com/anthropics/ultrawave/pkg/receiver"
	"github.com/anthropics/ultrawave/pkg/wire"
)

// AckWriter is the subset of *sender.Session the link needs to deliver
// control-characteristic writes (ACK/START/STOP) back to the sender, and to
// signal that a notification has finished transmitting so the sender's
// pacing controller can return the in-flight credit it consumed.
type AckWriter interface {
	OnControlWrite(msg wire.ControlMessage)
	OnNotificationTransmitted()
}

// Link connects one sender to one receiver in-process. It implements
// link.Sender for the sender side and link.ControlWriter for the receiver
// side, and can be configured to drop or congest a bounded number of
// upcoming sends to exercise the pacing/resume paths end to end.
type Link struct {
	mu sync.Mutex

	recv   *receiver.Session
	sender AckWriter

	congestedFor int
	errorFor     int
	connected    bool
}

// New builds a Link addressed to recv. Bind must be called with the
// sender side before any SendNotification/WriteControl traffic flows;
// this two-step construction lets a receiver's OnAckEmit callback close
// over the Link before the sender session (which needs the Link as its
// own Options.Link) exists.
func New(recv *receiver.Session) *Link {
	return &Link{recv: recv, connected: true}
}

// Bind attaches the sender side of the link. Safe to call once, before
// any traffic flows.
func (l *Link) Bind(sender AckWriter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sender = sender
}

// SendNotification implements link.Sender by delivering the chunk frame
// straight to the receiver's ProcessChunk, then signaling the bound sender
// that the notification transmitted successfully so it can return the
// pacing credit it consumed. A real BLE stack would raise this as a
// transmit-complete event independent of whatever the central does with the
// payload; this in-memory link raises it right after delivery for the same
// reason.
func (l *Link) SendNotification(data []byte) (link.SendStatus, error) {
	l.mu.Lock()
	if !l.connected {
		l.mu.Unlock()
		return link.SendError, link.ErrNotSubscribed
	}
	if l.congestedFor > 0 {
		l.congestedFor--
		l.mu.Unlock()
		return link.SendCongested, nil
	}
	if l.errorFor > 0 {
		l.errorFor--
		l.mu.Unlock()
		return link.SendError, errSimulatedLinkFailure
	}
	sender := l.sender
	l.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	_ = l.recv.ProcessChunk(cp)
	if sender != nil {
		sender.OnNotificationTransmitted()
	}
	return link.SendOK, nil
}

// WriteControl implements link.ControlWriter by delivering a control
// message (typically a receiver-emitted ACK) straight to the sender.
func (l *Link) WriteControl(data []byte) error {
	msg, err := wire.DecodeControlMessage(data)
	if err != nil {
		return err
	}
	l.mu.Lock()
	sender := l.sender
	l.mu.Unlock()
	sender.OnControlWrite(msg)
	return nil
}

// InjectCongestion makes the next n SendNotification calls return
// SendCongested instead of reaching the receiver.
func (l *Link) InjectCongestion(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.congestedFor = n
}

// InjectError makes the next n SendNotification calls return SendError.
func (l *Link) InjectError(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorFor = n
}

// Disconnect simulates a link drop: further SendNotification calls fail
// until Reconnect is called. Callers are still responsible for invoking
// the sender session's own OnDisconnect/OnReconnect hooks.
func (l *Link) Disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = false
}

// Reconnect clears the simulated link drop.
func (l *Link) Reconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = true
}

type simulatedLinkError struct{ msg string }

func (e *simulatedLinkError) Error() string { return e.msg }

var errSimulatedLinkFailure = &simulatedLinkError{"simlink: simulated link failure"}
