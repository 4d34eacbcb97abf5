package wire

import "testing"

func TestDeltaRoundTrip(t *testing.T) {
	samples := make([]int32, SamplesPerBlock)
	prev := int32(0)
	for i := range samples {
		// Keep deltas within int16 range so the round trip is exact.
		prev += int32((i % 201) - 100)
		samples[i] = prev
	}

	compressed, err := DeltaEncode(samples)
	if err != nil {
		t.Fatalf("DeltaEncode: %v", err)
	}

	got, err := DeltaDecode(compressed)
	if err != nil {
		t.Fatalf("DeltaDecode: %v", err)
	}
	if len(got) != SamplesPerBlock {
		t.Fatalf("len = %d, want %d", len(got), SamplesPerBlock)
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestDeltaDecodeWrongSize(t *testing.T) {
	compressed, err := DeltaEncode(make([]int32, SamplesPerBlock-1))
	if err != nil {
		t.Fatalf("DeltaEncode: %v", err)
	}
	if _, err := DeltaDecode(compressed); err != ErrDecompress {
		t.Errorf("err = %v, want ErrDecompress", err)
	}
}

func TestDeltaDecodeGarbage(t *testing.T) {
	if _, err := DeltaDecode([]byte{0x00, 0x01, 0x02}); err != ErrDecompress {
		t.Errorf("err = %v, want ErrDecompress", err)
	}
}
