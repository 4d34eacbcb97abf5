// Package link defines the narrow contract the sender and receiver
// sessions need from the underlying BLE GATT link. Connection
// establishment, service/characteristic discovery, MTU exchange, and PHY
// negotiation are all out of scope here and live entirely on the
// embedder's side of this interface.
package link

import "errors"

// SendStatus is the synchronous result of attempting to send one
// notification.
type SendStatus int

const (
	// SendOK means the link accepted the notification for transmission.
	// The later "notification transmitted" signal still arrives
	// separately via Events.OnNotificationTransmitted.
	SendOK SendStatus = iota
	// SendCongested means the underlying stack's notification queue is
	// full; the caller should back off and retry.
	SendCongested
	// SendError covers any other synchronous failure.
	SendError
)

// ErrNotSubscribed is returned by Sender implementations when the central
// has not enabled notifications on the data characteristic.
var ErrNotSubscribed = errors.New("link: central has not subscribed to notifications")

// Sender is the byte-oriented "send notification" primitive the sender
// session drives. Implementations must be safe to call from the sender's
// single execution context; no concurrent calls are made by this module.
type Sender interface {
	// SendNotification writes one chunk frame to the data characteristic.
	SendNotification(data []byte) (SendStatus, error)
}

// ControlWriter is the control-characteristic write primitive used by the
// receiver to emit cumulative ACKs (and, for symmetry, START/STOP).
type ControlWriter interface {
	WriteControl(data []byte) error
}

// Events groups the asynchronous signals the link layer delivers to the
// sender session: transmit-complete, disconnect, reconnect, and CCCD
// (subscribe/unsubscribe) changes. An embedder wires its platform BLE
// stack's callbacks to these methods; the core never polls for them.
type Events interface {
	OnNotificationTransmitted()
	OnDisconnect()
	OnReconnect(mtu int)
	OnCCCDChanged(enabled bool)
}
