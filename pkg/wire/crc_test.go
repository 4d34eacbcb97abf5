package wire

import "testing"

func TestCRC32SamplesEqualsCRC32PackedBytes(t *testing.T) {
	// crc32_over_samples(samples) must equal crc32_over_bytes(pack_24bit(samples)).
	samples := make([]int32, SamplesPerBlock)
	for i := range samples {
		samples[i] = int32(i*37 - SamplesPerBlock)
	}

	a := CRC32Samples(samples)
	b := CRC32(PackSamples(samples))
	if a != b {
		t.Errorf("CRC32Samples = %#x, CRC32(PackSamples) = %#x", a, b)
	}
}

func TestCRC32KnownVector(t *testing.T) {
	// Standard check value for the IEEE CRC-32 of ASCII "123456789".
	got := CRC32([]byte("123456789"))
	const want = 0xCBF43926
	if got != want {
		t.Errorf("CRC32(\"123456789\") = %#x, want %#x", got, want)
	}
}
