package wire

// Corpus-defined constants. Both peers must agree on every value here.
const (
	// TotalBlocks is T, the fixed number of blocks in the corpus.
	TotalBlocks = 1800
	// SamplesPerBlock is S, the number of signed 24-bit samples per block.
	SamplesPerBlock = 2376
	// BlockHeaderSize is H, the fixed waveform-block header size on the wire.
	BlockHeaderSize = 38
	// RawPayloadSize is R, the packed-24-bit-sample size (S*3 bytes).
	RawPayloadSize = SamplesPerBlock * 3
	// RawBlockSize is the total raw block size on the wire (H+R).
	RawBlockSize = BlockHeaderSize + RawPayloadSize
	// MaxBlockBound is the configurable padded block bound used by the
	// receiver's size-heuristic encoding detection.
	MaxBlockBound = 7168
	// AckInterval is the ACK barrier cadence, in blocks.
	AckInterval = 20

	// ChunkHeaderSize is the fixed 12-byte chunk header prepended to every
	// notification payload.
	ChunkHeaderSize = 12
	// ControlMessageSize is the fixed 7-byte control message size.
	ControlMessageSize = 7
)

// Control message command bytes.
const (
	CmdStart byte = 0x01
	CmdStop  byte = 0x02
	CmdAck   byte = 0x03
)
