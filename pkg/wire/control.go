package wire

import "encoding/binary"

// ControlMessage is the 7-byte little-endian control message carried by
// writes to the control characteristic.
//
//	command:u8, block_number:u16, timestamp:u32
type ControlMessage struct {
	Command     byte
	BlockNumber uint16
	TimestampMs uint32
}

// EncodeControlMessage packs m into a fresh 7-byte buffer.
func EncodeControlMessage(m ControlMessage) []byte {
	buf := make([]byte, ControlMessageSize)
	buf[0] = m.Command
	binary.LittleEndian.PutUint16(buf[1:3], m.BlockNumber)
	binary.LittleEndian.PutUint32(buf[3:7], m.TimestampMs)
	return buf
}

// DecodeControlMessage parses buf as a ControlMessage.
func DecodeControlMessage(buf []byte) (ControlMessage, error) {
	if len(buf) < ControlMessageSize {
		return ControlMessage{}, ErrShortFrame
	}
	cmd := buf[0]
	switch cmd {
	case CmdStart, CmdStop, CmdAck:
	default:
		return ControlMessage{}, ErrBadCommand
	}
	return ControlMessage{
		Command:     cmd,
		BlockNumber: binary.LittleEndian.Uint16(buf[1:3]),
		TimestampMs: binary.LittleEndian.Uint32(buf[3:7]),
	}, nil
}
