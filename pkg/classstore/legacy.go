package classstore

import (
	"encoding/binary"
	"fmt"
)

// Legacy formats recognized on open and upconverted into the native Header
// plus a flat bucket buffer, matching the conversion osbf_fmt_5.c/
// osbf_fmt_6.c perform in the reference implementation (§4.5, §6).
//
// Both legacy headers are read-only in this package: a class opened from a
// legacy image is always handled as Copied (heap buffer, never mmap'd back
// onto the original file) and is rewritten in native v7 form the next time
// it is saved.

const (
	headerSizeV6 = 36 // 9 x u32 fields, uniform width
	headerSizeV5 = 32 // 8 x u32 fields, before bucket-size padding

	v6DBVersion = 6
	v6DBID      = 5
	v6DBFlags   = 0

	v5DBVersion = 5
)

// v6 header field offsets (all u32, little-endian).
const (
	offV6DBVersion       = 0
	offV6DBID            = 4
	offV6DBFlags         = 8
	offV6NumBuckets      = 12
	offV6Learnings       = 16
	offV6FalseNegatives  = 20
	offV6FalsePositives  = 24
	offV6Classifications = 28
	offV6ExtraLearnings  = 32
)

// v5 header field offsets (all u32, little-endian); the image's on-disk
// header may be longer than headerSizeV5 since it's padded to a multiple of
// bucketSize, but these are the only fields that matter.
const (
	offV5Version         = 0
	offV5DBFlags         = 4
	offV5BucketsStart    = 8
	offV5NumBuckets      = 12
	offV5Learnings       = 16
	offV5Mistakes        = 20
	offV5Classifications = 24
	offV5ExtraLearnings  = 28
)

// detectLegacy reports whether buf's first bytes look like a v6 or v5
// header, distinguishing them from the native magic already ruled out by
// the caller.
func detectLegacy(buf []byte) (version int, ok bool) {
	if len(buf) < 4 {
		return 0, false
	}
	switch binary.LittleEndian.Uint32(buf[0:4]) {
	case v6DBVersion:
		if len(buf) >= headerSizeV6 &&
			binary.LittleEndian.Uint32(buf[offV6DBID:]) == v6DBID &&
			binary.LittleEndian.Uint32(buf[offV6DBFlags:]) == v6DBFlags {
			return 6, true
		}
	case v5DBVersion:
		if len(buf) >= headerSizeV5 {
			return 5, true
		}
	}
	return 0, false
}

// upconvertV6 reads a v6 image (header immediately followed by buckets, same
// bucket layout as native) into a native Header plus a freshly-allocated
// bucket buffer.
func upconvertV6(image []byte) (Header, []byte, error) {
	if len(image) < headerSizeV6 {
		return Header{}, nil, fmt.Errorf("classstore: v6 image truncated: %w", ErrFormat)
	}
	h := Header{
		NumBuckets:      binary.LittleEndian.Uint32(image[offV6NumBuckets:]),
		Learnings:       binary.LittleEndian.Uint32(image[offV6Learnings:]),
		FalseNegatives:  binary.LittleEndian.Uint32(image[offV6FalseNegatives:]),
		FalsePositives:  binary.LittleEndian.Uint32(image[offV6FalsePositives:]),
		Classifications: uint64(binary.LittleEndian.Uint32(image[offV6Classifications:])),
		ExtraLearnings:  binary.LittleEndian.Uint32(image[offV6ExtraLearnings:]),
	}
	want := int64(headerSizeV6) + int64(h.NumBuckets)*int64(bucketSize)
	if int64(len(image)) < want {
		return Header{}, nil, fmt.Errorf("classstore: v6 image shorter than header implies: %w", ErrFormat)
	}
	buckets := make([]byte, int64(h.NumBuckets)*int64(bucketSize))
	copy(buckets, image[headerSizeV6:want])
	return h, buckets, nil
}

// upconvertV5 reads a v5 image, whose header is padded to a multiple of
// bucketSize and whose buckets start at byte buckets_start*bucketSize, into
// a native Header plus a freshly-allocated bucket buffer. v5 has no
// false_negatives/false_positives split; "mistakes" becomes FalseNegatives
// with FalsePositives left at zero, matching the reference conversion's
// treatment of the single legacy mistake counter.
func upconvertV5(image []byte) (Header, []byte, error) {
	if len(image) < headerSizeV5 {
		return Header{}, nil, fmt.Errorf("classstore: v5 image truncated: %w", ErrFormat)
	}
	bucketsStart := binary.LittleEndian.Uint32(image[offV5BucketsStart:])
	h := Header{
		NumBuckets:      binary.LittleEndian.Uint32(image[offV5NumBuckets:]),
		Learnings:       binary.LittleEndian.Uint32(image[offV5Learnings:]),
		FalseNegatives:  binary.LittleEndian.Uint32(image[offV5Mistakes:]),
		FalsePositives:  0,
		Classifications: uint64(binary.LittleEndian.Uint32(image[offV5Classifications:])),
		ExtraLearnings:  binary.LittleEndian.Uint32(image[offV5ExtraLearnings:]),
	}
	start := int64(bucketsStart) * int64(bucketSize)
	want := start + int64(h.NumBuckets)*int64(bucketSize)
	if start < headerSizeV5 || int64(len(image)) < want {
		return Header{}, nil, fmt.Errorf("classstore: v5 image malformed: %w", ErrFormat)
	}
	buckets := make([]byte, int64(h.NumBuckets)*int64(bucketSize))
	copy(buckets, image[start:want])
	return h, buckets, nil
}
