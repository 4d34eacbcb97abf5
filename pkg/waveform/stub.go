package waveform

import (
	"math"

	"github.com/anthropics/ultrawave/pkg/wire"
)

// StubSource is a simulated block source: it synthesizes a deterministic
// pulsed waveform per block instead of reading a real ultrasound front end.
// Real waveform generation is out of scope here; this stub only needs to
// produce bytes matching the wire format, which is all the sender session
// requires of its collaborator.
type StubSource struct {
	Total        int
	SampleRateHz uint32
	PulseFreqHz  uint32
	GainDb       uint8
	Encoding     Encoding
}

// NewStubSource returns a StubSource configured for the corpus defaults.
func NewStubSource(total int, enc Encoding) *StubSource {
	return &StubSource{
		Total:        total,
		SampleRateHz: 5_000_000,
		PulseFreqHz:  2_250_000,
		GainDb:       20,
		Encoding:     enc,
	}
}

// NextBlock implements Source.
func (s *StubSource) NextBlock(b int) ([]byte, error) {
	samples := s.synthesize(b)
	header := wire.BlockHeader{
		BlockNumber:   uint32(b),
		TimestampMs:   uint32(b) * 10,
		SampleRateHz:  s.SampleRateHz,
		TriggerSample: 64,
		PulseFreqHz:   s.PulseFreqHz,
		GainDb:        s.GainDb,
	}
	return EncodeBlock(header, samples, s.Encoding)
}

// synthesize produces a damped sinusoidal pulse, deterministic in the
// block index so repeated calls (e.g. after reconnect) reproduce the same
// bytes for the same block.
//
// The oscillation here runs far slower than PulseFreqHz/SampleRateHz (the
// header's reported front-end pulse frequency) would suggest: DeltaEncode
// truncates sample-to-sample differences to a signed 16-bit delta, and a
// true ~0.45-cycles/sample pulse at the header's frequencies produces
// deltas on the order of 10^6, which wrap silently and corrupt the
// Compressed round-trip. A few cycles per block at a modest amplitude keeps
// every delta comfortably inside int16 range while still exercising a
// deterministic, per-block-varying waveform. The per-block phase offset is
// subtracted so every block starts at zero: the first delta is taken from a
// zero seed, so a non-zero first sample would itself be a delta.
func (s *StubSource) synthesize(b int) []int32 {
	const (
		amplitude      = 2_000_000.0
		cyclesPerBlock = 3.0
	)
	samples := make([]int32, wire.SamplesPerBlock)
	freq := cyclesPerBlock / float64(wire.SamplesPerBlock)
	phase := float64(b) * 0.07
	for i := range samples {
		t := float64(i)
		envelope := math.Exp(-t / 1600.0)
		v := envelope * (math.Sin(2*math.Pi*freq*t+phase) - math.Sin(phase)) * amplitude
		samples[i] = int32(v)
	}
	return samples
}
