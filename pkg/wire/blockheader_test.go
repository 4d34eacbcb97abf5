package wire

import "testing"

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := BlockHeader{
		BlockNumber:     1234,
		TimestampMs:     987654321,
		SampleRateHz:    5000000,
		SampleCount:     SamplesPerBlock,
		TriggerSample:   100,
		PulseFreqHz:     2250000,
		TemperatureCx10: -205,
		GainDb:          30,
		Crc32:           0xDEADBEEF,
	}

	buf := EncodeBlockHeader(h)
	if len(buf) != BlockHeaderSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), BlockHeaderSize)
	}

	got, err := DecodeBlockHeader(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != h {
		t.Errorf("round trip = %+v, want %+v", got, h)
	}
}

func TestDecodeBlockHeaderShortFrame(t *testing.T) {
	if _, err := DecodeBlockHeader(make([]byte, BlockHeaderSize-1)); err != ErrShortFrame {
		t.Errorf("err = %v, want ErrShortFrame", err)
	}
}

func TestDecodeBlockHeaderIgnoresReservedBytes(t *testing.T) {
	h := BlockHeader{BlockNumber: 1}
	buf := EncodeBlockHeader(h)
	buf[14] = 0xAA
	buf[15] = 0xBB
	buf[22] = 0xCC
	buf[29] = 0xDD
	buf[34] = 0xEE

	got, err := DecodeBlockHeader(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != h {
		t.Errorf("reserved bytes leaked into decode: %+v, want %+v", got, h)
	}
}
