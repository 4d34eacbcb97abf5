package wire

import "hash/crc32"

// CRC32 computes the IEEE 802.3 CRC-32 (reflected, poly 0xEDB88320,
// init/finalxor 0xFFFFFFFF) over a raw byte range, the standard
// construction used for protocol-level integrity checks.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// CRC32Samples computes the CRC-32 over a sample array interpreted as its
// packed-24-bit little-endian byte sequence. Equivalent to
// CRC32(PackSamples(samples)) for corresponding data.
func CRC32Samples(samples []int32) uint32 {
	return CRC32(PackSamples(samples))
}
