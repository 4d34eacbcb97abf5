package testutil

import (
	"sync"

	"github.com/anthropics/ultrawave/pkg/link"
)

// FakeLink implements link.Sender and link.ControlWriter as an in-memory
// stand-in for the BLE GATT link, for sender/receiver unit tests that do
// not need a full simlink wiring.
type FakeLink struct {
	mu sync.Mutex

	notifications [][]byte
	controlWrites [][]byte

	congestedFor int // next N sends return Congested
	errorFor     int // next N sends return SendError
	sendCount    int
	failWrite    bool
}

// NewFakeLink creates a FakeLink that accepts every send.
func NewFakeLink() *FakeLink {
	return &FakeLink{}
}

// SendNotification implements link.Sender.
func (f *FakeLink) SendNotification(data []byte) (link.SendStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sendCount++

	if f.congestedFor > 0 {
		f.congestedFor--
		return link.SendCongested, nil
	}
	if f.errorFor > 0 {
		f.errorFor--
		return link.SendError, errFakeSendFailure
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	f.notifications = append(f.notifications, cp)
	return link.SendOK, nil
}

// WriteControl implements link.ControlWriter.
func (f *FakeLink) WriteControl(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errFakeSendFailure
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.controlWrites = append(f.controlWrites, cp)
	return nil
}

// InjectCongestion makes the next n sends return SendCongested.
func (f *FakeLink) InjectCongestion(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.congestedFor = n
}

// InjectError makes the next n sends return SendError.
func (f *FakeLink) InjectError(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errorFor = n
}

// SetFailWrite makes every WriteControl call fail.
func (f *FakeLink) SetFailWrite(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrite = fail
}

// Notifications returns a copy of every notification accepted so far.
func (f *FakeLink) Notifications() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.notifications))
	copy(out, f.notifications)
	return out
}

// ControlWrites returns a copy of every control write accepted so far.
func (f *FakeLink) ControlWrites() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.controlWrites))
	copy(out, f.controlWrites)
	return out
}

// SendCount returns the number of SendNotification calls made so far.
func (f *FakeLink) SendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCount
}

type fakeSendError struct{ msg string }

func (e *fakeSendError) Error() string { return e.msg }

var errFakeSendFailure = &fakeSendError{"testutil: fake link send failure"}
