// Package waveform defines the block-level contract between the sender's
// block source, the receiver's block sink, and the wire codec: the two
// supported encodings (Raw and Compressed), the block-buffer layout, and
// the decode path that infers encoding from assembled size.
package waveform

import (
	"github.com/anthropics/ultrawave/pkg/wire"
)

// Encoding identifies how a block's sample payload is represented on the
// wire.
type Encoding int

const (
	// Raw stores S signed 24-bit samples packed little-endian (wire.RawPayloadSize bytes).
	Raw Encoding = iota
	// Compressed stores a DEFLATE-compressed stream of delta-coded 16-bit samples.
	Compressed
)

func (e Encoding) String() string {
	if e == Compressed {
		return "compressed"
	}
	return "raw"
}

// Block is a fully decoded waveform block as delivered to the receiver's
// block sink, via the on-waveform callback.
type Block struct {
	Header   wire.BlockHeader
	Samples  []int32
	Encoding Encoding
}

// Source yields the on-wire bytes for block b: bytes[0:H] is the waveform
// header, bytes[H:] is the encoded payload. This is the sender-side block
// source collaborator; waveform generation itself is simulated/stubbed
// here, not a concern this module takes on.
type Source interface {
	// NextBlock returns the fully assembled on-wire bytes for block index b.
	NextBlock(b int) ([]byte, error)
}

// Sink accepts a completed, decoded block on the receiver side.
// Implementations are invoked from the receiver's single execution
// context; they must not block for long or re-enter the receiver session.
type Sink interface {
	OnBlock(Block)
}

// EncodeBlock assembles the on-wire bytes for a block: header followed by
// the encoded sample payload. The header's CRC32 field is always set to
// the CRC-32 of the packed-24-bit form of samples, regardless of encoding,
// so Raw and Compressed variants of the same waveform carry the same CRC.
func EncodeBlock(header wire.BlockHeader, samples []int32, enc Encoding) ([]byte, error) {
	header.SampleCount = uint16(len(samples))
	header.Crc32 = wire.CRC32Samples(samples)

	var payload []byte
	switch enc {
	case Compressed:
		var err error
		payload, err = wire.DeltaEncode(samples)
		if err != nil {
			return nil, err
		}
	default:
		payload = wire.PackSamples(samples)
		// Pad to the configurable block bound so the receiver's
		// size-heuristic (assembled size >= MaxBlockBound means Raw)
		// classifies a full-size raw block correctly: H+R is 7166 bytes,
		// two bytes short of the 7168 threshold.
		if total := wire.BlockHeaderSize + len(payload); total < wire.MaxBlockBound {
			payload = append(payload, make([]byte, wire.MaxBlockBound-total)...)
		}
	}

	buf := make([]byte, 0, wire.BlockHeaderSize+len(payload))
	buf = append(buf, wire.EncodeBlockHeader(header)...)
	buf = append(buf, payload...)
	return buf, nil
}

// DecodeOptions controls receiver-side decode policy.
type DecodeOptions struct {
	// VerifyRawCRC enables CRC-32 verification on the Raw path too. The
	// wire format leaves Raw unverified by default; this is an
	// explicit, documented opt-in extension, off by default.
	VerifyRawCRC bool
}

// DecodeBlock infers the encoding from the assembled block size (smaller
// than MaxBlockBound means Compressed) and decodes accordingly.
func DecodeBlock(assembled []byte, opts DecodeOptions) (Block, error) {
	header, err := wire.DecodeBlockHeader(assembled)
	if err != nil {
		return Block{}, err
	}

	if len(assembled) >= wire.MaxBlockBound {
		if len(assembled) < wire.RawBlockSize {
			return Block{}, wire.ErrSizeMismatch
		}
		samples := wire.UnpackSamples(assembled[wire.BlockHeaderSize : wire.BlockHeaderSize+wire.RawPayloadSize])
		if opts.VerifyRawCRC {
			if wire.CRC32Samples(samples) != header.Crc32 {
				return Block{}, wire.ErrCrcMismatch
			}
		}
		return Block{Header: header, Samples: samples, Encoding: Raw}, nil
	}

	samples, err := wire.DeltaDecode(assembled[wire.BlockHeaderSize:])
	if err != nil {
		return Block{}, err
	}
	if wire.CRC32Samples(samples) != header.Crc32 {
		return Block{}, wire.ErrCrcMismatch
	}
	return Block{Header: header, Samples: samples, Encoding: Compressed}, nil
}
