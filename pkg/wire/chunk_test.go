package wire

import "testing"

func TestChunkHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		h    ChunkHeader
	}{
		{"zero", ChunkHeader{}},
		{"typical", ChunkHeader{BlockNumber: 42, ChunkNumber: 3, ChunkSize: 244, TotalChunks: 30}},
		{"max", ChunkHeader{BlockNumber: 0xFFFF, ChunkNumber: 0xFFFF, ChunkSize: 0xFFFF, TotalChunks: 0xFFFF}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := EncodeChunkHeader(tc.h)
			if len(buf) != ChunkHeaderSize {
				t.Fatalf("encoded size = %d, want %d", len(buf), ChunkHeaderSize)
			}
			got, err := DecodeChunkHeader(buf)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tc.h {
				t.Errorf("round trip = %+v, want %+v", got, tc.h)
			}
		})
	}
}

func TestDecodeChunkHeaderShortFrame(t *testing.T) {
	for _, n := range []int{0, 1, 11} {
		if _, err := DecodeChunkHeader(make([]byte, n)); err != ErrShortFrame {
			t.Errorf("len=%d: err = %v, want ErrShortFrame", n, err)
		}
	}
}
