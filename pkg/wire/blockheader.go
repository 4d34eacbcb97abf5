package wire

import "encoding/binary"

// BlockHeader is the 38-byte little-endian waveform-block header. Reserved
// fields are not modeled individually but are zeroed on encode and ignored
// on decode.
type BlockHeader struct {
	BlockNumber     uint32
	TimestampMs     uint32
	SampleRateHz    uint32
	SampleCount     uint16
	TriggerSample   uint16
	PulseFreqHz     uint32
	TemperatureCx10 int16
	GainDb          uint8
	Crc32           uint32
}

// EncodeBlockHeader packs h into a fresh BlockHeaderSize-byte buffer.
func EncodeBlockHeader(h BlockHeader) []byte {
	buf := make([]byte, BlockHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.BlockNumber)
	binary.LittleEndian.PutUint32(buf[4:8], h.TimestampMs)
	binary.LittleEndian.PutUint32(buf[8:12], h.SampleRateHz)
	binary.LittleEndian.PutUint16(buf[12:14], h.SampleCount)
	// bytes 14:16 reserved
	binary.LittleEndian.PutUint16(buf[16:18], h.TriggerSample)
	binary.LittleEndian.PutUint32(buf[18:22], h.PulseFreqHz)
	// bytes 22:26 reserved
	binary.LittleEndian.PutUint16(buf[26:28], uint16(h.TemperatureCx10))
	buf[28] = h.GainDb
	// byte 29 reserved
	binary.LittleEndian.PutUint32(buf[30:34], h.Crc32)
	// bytes 34:38 reserved/padding
	return buf
}

// DecodeBlockHeader extracts the 38-byte header from the front of buf. It
// does not validate SampleCount; that is a receiver policy decision.
func DecodeBlockHeader(buf []byte) (BlockHeader, error) {
	if len(buf) < BlockHeaderSize {
		return BlockHeader{}, ErrShortFrame
	}
	return BlockHeader{
		BlockNumber:     binary.LittleEndian.Uint32(buf[0:4]),
		TimestampMs:     binary.LittleEndian.Uint32(buf[4:8]),
		SampleRateHz:    binary.LittleEndian.Uint32(buf[8:12]),
		SampleCount:     binary.LittleEndian.Uint16(buf[12:14]),
		TriggerSample:   binary.LittleEndian.Uint16(buf[16:18]),
		PulseFreqHz:     binary.LittleEndian.Uint32(buf[18:22]),
		TemperatureCx10: int16(binary.LittleEndian.Uint16(buf[26:28])),
		GainDb:          buf[28],
		Crc32:           binary.LittleEndian.Uint32(buf[30:34]),
	}, nil
}
