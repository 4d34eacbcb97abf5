package wire

// PackSamples packs S signed 24-bit samples into RawPayloadSize bytes,
// little-endian, three bytes per sample. The top byte of each int32 is not
// checked for a correct sign extension — the low 24 bits are packed as-is.
func PackSamples(samples []int32) []byte {
	buf := make([]byte, len(samples)*3)
	for i, s := range samples {
		v := uint32(s)
		buf[i*3+0] = byte(v)
		buf[i*3+1] = byte(v >> 8)
		buf[i*3+2] = byte(v >> 16)
	}
	return buf
}

// UnpackSamples unpacks a packed-24-bit little-endian byte slice into
// sign-extended int32 samples. len(buf) must be a multiple of 3.
func UnpackSamples(buf []byte) []int32 {
	n := len(buf) / 3
	samples := make([]int32, n)
	for i := 0; i < n; i++ {
		v := uint32(buf[i*3+0]) | uint32(buf[i*3+1])<<8 | uint32(buf[i*3+2])<<16
		if v&0x800000 != 0 {
			v |= 0xFF000000
		}
		samples[i] = int32(v)
	}
	return samples
}
