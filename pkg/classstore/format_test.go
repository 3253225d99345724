package classstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_HeaderV7_When_RoundTripped_PreservesAllFields(t *testing.T) {
	h := &Header{
		NumBuckets:      94321,
		Learnings:       42,
		FalseNegatives:  3,
		FalsePositives:  1,
		Classifications: 1 << 40,
		ExtraLearnings:  7,
	}

	buf := encodeHeaderV7(h)
	require.Len(t, buf, headerSizeV7)
	require.Equal(t, magicNative, string(buf[offMagic:offMagic+4]))

	got := decodeHeaderV7(buf)
	require.Equal(t, *h, got)
}

func Test_ClassifyMagic_When_NativeBytes_ReportsNative(t *testing.T) {
	buf := encodeHeaderV7(&Header{})
	native, wrongEndian := classifyMagic(buf)
	require.True(t, native)
	require.False(t, wrongEndian)
}

func Test_ClassifyMagic_When_ByteReversed_ReportsWrongEndian(t *testing.T) {
	native, wrongEndian := classifyMagic([]byte("OSBF"))
	require.False(t, native)
	require.True(t, wrongEndian)
}

func Test_ClassifyMagic_When_Garbage_ReportsNeither(t *testing.T) {
	native, wrongEndian := classifyMagic([]byte("XXXX"))
	require.False(t, native)
	require.False(t, wrongEndian)
}

func Test_Bucket_When_EncodedAndDecoded_RoundTrips(t *testing.T) {
	buf := make([]byte, bucketSize*3)
	encodeBucket(buf, 1, 0xdeadbeef, 0x12345678, 9001)

	h1, h2, count := decodeBucket(buf, 1)
	require.Equal(t, uint32(0xdeadbeef), h1)
	require.Equal(t, uint32(0x12345678), h2)
	require.Equal(t, uint32(9001), count)

	// Neighboring slots untouched.
	h1, h2, count = decodeBucket(buf, 0)
	require.Zero(t, h1)
	require.Zero(t, h2)
	require.Zero(t, count)
}

func Test_FileSizeV7_When_GivenBucketCount_MatchesHeaderPlusBuckets(t *testing.T) {
	require.Equal(t, int64(headerSizeV7), fileSizeV7(0))
	require.Equal(t, int64(headerSizeV7+bucketSize*10), fileSizeV7(10))
}
