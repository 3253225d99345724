package classstore

import "encoding/binary"

// Native (v7) on-disk layout, little-endian (§6).
const (
	// The logical tag "OSBF" stored as a little-endian 32-bit value puts its
	// low byte first on disk, so the literal byte sequence is "FBSO" (§6,
	// §8 scenario 2: bytes 0x46,0x42,0x53,0x4F). A big-endian host or a
	// byte-swapped image instead shows the reversed literal "OSBF".
	magicNative      = "FBSO"
	magicWrongEndian = "OSBF"
	dbVersionNative  = 7

	headerSizeV7 = 36
	bucketSize   = 12 // {u32 hash1; u32 hash2; u32 count}
)

// Header field offsets within the 36-byte v7 header.
const (
	offMagic           = 0
	offDBVersion       = 4
	offNumBuckets      = 8
	offLearnings       = 12
	offFalseNegatives  = 16
	offFalsePositives  = 20
	offClassifications = 24 // 8 bytes
	offExtraLearnings  = 32
)

// Header is the in-memory universal representation of a class header,
// populated either directly from a native-format image or by upconversion
// from a legacy format (§4.5).
type Header struct {
	NumBuckets      uint32
	Learnings       uint32
	FalseNegatives  uint32
	FalsePositives  uint32
	Classifications uint64
	ExtraLearnings  uint32
}

// encodeHeaderV7 serializes h into the 36-byte native header layout.
func encodeHeaderV7(h *Header) []byte {
	buf := make([]byte, headerSizeV7)
	copy(buf[offMagic:], magicNative)
	binary.LittleEndian.PutUint32(buf[offDBVersion:], dbVersionNative)
	binary.LittleEndian.PutUint32(buf[offNumBuckets:], h.NumBuckets)
	binary.LittleEndian.PutUint32(buf[offLearnings:], h.Learnings)
	binary.LittleEndian.PutUint32(buf[offFalseNegatives:], h.FalseNegatives)
	binary.LittleEndian.PutUint32(buf[offFalsePositives:], h.FalsePositives)
	binary.LittleEndian.PutUint64(buf[offClassifications:], h.Classifications)
	binary.LittleEndian.PutUint32(buf[offExtraLearnings:], h.ExtraLearnings)
	return buf
}

// decodeHeaderV7 parses a 36-byte native header. Caller must have already
// validated the magic.
func decodeHeaderV7(buf []byte) Header {
	return Header{
		NumBuckets:      binary.LittleEndian.Uint32(buf[offNumBuckets:]),
		Learnings:       binary.LittleEndian.Uint32(buf[offLearnings:]),
		FalseNegatives:  binary.LittleEndian.Uint32(buf[offFalseNegatives:]),
		FalsePositives:  binary.LittleEndian.Uint32(buf[offFalsePositives:]),
		Classifications: binary.LittleEndian.Uint64(buf[offClassifications:]),
		ExtraLearnings:  binary.LittleEndian.Uint32(buf[offExtraLearnings:]),
	}
}

// fileSizeV7 returns the exact expected file size for a native-format class
// with the given bucket count (§6, §8 invariant 1).
func fileSizeV7(numBuckets uint32) int64 {
	return int64(headerSizeV7) + int64(numBuckets)*int64(bucketSize)
}

// classifyMagic inspects the first 4 bytes of an image and reports whether
// they are the native magic, the byte-reversed wrong-endian magic, or
// neither.
func classifyMagic(buf []byte) (native, wrongEndian bool) {
	if len(buf) < 4 {
		return false, false
	}
	switch string(buf[0:4]) {
	case magicNative:
		return true, false
	case magicWrongEndian:
		return false, true
	default:
		return false, false
	}
}

// decodeBucket reads bucket i (0-based) from a packed bucket byte slice.
func decodeBucket(buckets []byte, i uint32) (h1, h2, count uint32) {
	off := int(i) * bucketSize
	h1 = binary.LittleEndian.Uint32(buckets[off:])
	h2 = binary.LittleEndian.Uint32(buckets[off+4:])
	count = binary.LittleEndian.Uint32(buckets[off+8:])
	return h1, h2, count
}

func encodeBucket(buckets []byte, i uint32, h1, h2, count uint32) {
	off := int(i) * bucketSize
	binary.LittleEndian.PutUint32(buckets[off:], h1)
	binary.LittleEndian.PutUint32(buckets[off+4:], h2)
	binary.LittleEndian.PutUint32(buckets[off+8:], count)
}
