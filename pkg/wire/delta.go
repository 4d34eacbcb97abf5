package wire

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"
)

// DeltaDecode DEFLATE-decompresses compressed and reconstructs
// SamplesPerBlock samples via running sum of signed 16-bit first
// differences, seeded at zero. The result is neither re-sign-extended nor
// clamped: a run of 16-bit deltas from a zero seed can legitimately walk
// outside the 24-bit sample range, and this is by design.
func DeltaDecode(compressed []byte) ([]int32, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrDecompress
	}
	if len(raw) != SamplesPerBlock*2 {
		return nil, ErrDecompress
	}

	samples := make([]int32, SamplesPerBlock)
	var running int32
	for i := 0; i < SamplesPerBlock; i++ {
		delta := int32(int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2])))
		running += delta
		samples[i] = running
	}
	return samples, nil
}

// DeltaEncode is the sender-side inverse of DeltaDecode: it computes
// successive first differences of samples (seeded at zero), truncates each
// to a signed 16-bit delta, and DEFLATE-compresses the resulting stream.
// Callers are responsible for choosing a waveform whose sample-to-sample
// deltas fit in 16 bits; a delta wider than that silently truncates,
// matching PackSamples's "pack as-is, no validation" style.
func DeltaEncode(samples []int32) ([]byte, error) {
	raw := make([]byte, len(samples)*2)
	var prev int32
	for i, s := range samples {
		delta := int16(s - prev)
		binary.LittleEndian.PutUint16(raw[i*2:i*2+2], uint16(delta))
		prev = s
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
