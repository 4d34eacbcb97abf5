package wire

import "encoding/binary"

// ChunkHeader is the 12-byte little-endian header prepended to every
// notification payload.
//
//	block_number:u16, chunk_number:u16, chunk_size:u16, total_chunks:u16, reserved:u32
type ChunkHeader struct {
	BlockNumber uint16
	ChunkNumber uint16
	ChunkSize   uint16
	TotalChunks uint16
}

// EncodeChunkHeader packs h into a fresh 12-byte buffer.
func EncodeChunkHeader(h ChunkHeader) []byte {
	buf := make([]byte, ChunkHeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.BlockNumber)
	binary.LittleEndian.PutUint16(buf[2:4], h.ChunkNumber)
	binary.LittleEndian.PutUint16(buf[4:6], h.ChunkSize)
	binary.LittleEndian.PutUint16(buf[6:8], h.TotalChunks)
	binary.LittleEndian.PutUint32(buf[8:12], 0)
	return buf
}

// DecodeChunkHeader parses the first 12 bytes of buf as a ChunkHeader.
func DecodeChunkHeader(buf []byte) (ChunkHeader, error) {
	if len(buf) < ChunkHeaderSize {
		return ChunkHeader{}, ErrShortFrame
	}
	return ChunkHeader{
		BlockNumber: binary.LittleEndian.Uint16(buf[0:2]),
		ChunkNumber: binary.LittleEndian.Uint16(buf[2:4]),
		ChunkSize:   binary.LittleEndian.Uint16(buf[4:6]),
		TotalChunks: binary.LittleEndian.Uint16(buf[6:8]),
	}, nil
}
