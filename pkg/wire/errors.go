// Package wire implements the bit-exact on-wire framing and codec for the
// ultrasound waveform bulk-transfer protocol: chunk headers, control
// messages, waveform-block headers, 24-bit sample packing, delta decoding
// and CRC-32. All functions here are pure and side-effect free.
package wire

import "errors"

// Framing errors: the offending input is discarded by the caller, counted,
// and the session continues.
var (
	ErrShortFrame             = errors.New("wire: frame shorter than required header")
	ErrBadCommand             = errors.New("wire: unrecognized control command")
	ErrBadBlockIndex          = errors.New("wire: block number out of range")
	ErrInconsistentChunkCount = errors.New("wire: chunk's total_chunks disagrees with the block's first chunk")
)

// Decode errors: the affected block is abandoned by the caller.
var (
	ErrDecompress   = errors.New("wire: deflate decompression failed or produced wrong size")
	ErrCrcMismatch  = errors.New("wire: crc32 mismatch")
	ErrSizeMismatch = errors.New("wire: assembled block smaller than minimum size")
)
