package osbfengine

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/stretchr/testify/require"
)

// bucketSnapshot is a comparable projection of one occupied bucket, used to
// diff a table's content as a set regardless of slot order.
type bucketSnapshot struct{ Hash1, Hash2, Count uint32 }

func occupiedBuckets(t *classstore.Table) []bucketSnapshot {
	var out []bucketSnapshot
	for i := uint32(0); i < t.N; i++ {
		if !t.Occupied(i) {
			continue
		}
		h1, h2, count := t.Bucket(i)
		out = append(out, bucketSnapshot{h1, h2, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hash1 != out[j].Hash1 {
			return out[i].Hash1 < out[j].Hash1
		}
		return out[i].Hash2 < out[j].Hash2
	})
	return out
}

// Test_Import_When_DestinationEmpty_NonZeroBucketsAndCountersMatchSourceExactly
// checks the import-additivity invariant (spec.md's "import(dst, src) where
// dst is empty must produce dst whose non-zero buckets are exactly src's,
// and whose header counters equal src's").
func Test_Import_When_DestinationEmpty_NonZeroBucketsAndCountersMatchSourceExactly(t *testing.T) {
	dir := t.TempDir()
	opts := classstore.Options{DisableLocking: true}
	const n = 97

	src, err := classstore.Open(filepath.Join(dir, "src.cfc"), classstore.WriteAll, n, opts)
	require.NoError(t, err)
	defer src.Close()

	for _, h1 := range []uint32{1, 19, 40, 61, 88} {
		idx, full := src.Table.Find(h1, h1*7+3)
		require.False(t, full)
		require.NoError(t, src.Table.Insert(idx, h1, h1*7+3, 5))
	}
	src.Header.Learnings = 12
	src.Header.Classifications = 4
	src.Header.FalseNegatives = 1

	dst, err := classstore.Open(filepath.Join(dir, "dst.cfc"), classstore.WriteAll, n, opts)
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, Import(dst, src))

	if diff := cmp.Diff(occupiedBuckets(src.Table), occupiedBuckets(dst.Table)); diff != "" {
		t.Fatalf("dst buckets diverge from src (-src +dst):\n%s", diff)
	}
	require.Equal(t, src.Header.Learnings, dst.Header.Learnings)
	require.Equal(t, src.Header.Classifications, dst.Header.Classifications)
	require.Equal(t, src.Header.FalseNegatives, dst.Header.FalseNegatives)
}

func Test_Import_When_DestinationEmpty_MatchesSourceExactly(t *testing.T) {
	dir := t.TempDir()
	opts := classstore.Options{DisableLocking: true}

	src, err := classstore.Open(filepath.Join(dir, "src.cfc"), classstore.WriteAll, 50, opts)
	require.NoError(t, err)
	defer src.Close()

	idx, full := src.Table.Find(11, 22)
	require.False(t, full)
	require.NoError(t, src.Table.Insert(idx, 11, 22, 7))
	src.Header.Learnings = 3
	src.Header.Classifications = 9

	dst, err := classstore.Open(filepath.Join(dir, "dst.cfc"), classstore.WriteAll, 50, opts)
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, Import(dst, src))

	require.Equal(t, uint32(3), dst.Header.Learnings)
	require.Equal(t, uint64(9), dst.Header.Classifications)
	foundIdx, full := dst.Table.Find(11, 22)
	require.False(t, full)
	h1, h2, count := dst.Table.Bucket(foundIdx)
	require.Equal(t, uint32(11), h1)
	require.Equal(t, uint32(22), h2)
	require.Equal(t, uint32(7), count)
}

func Test_Import_When_BucketAlreadyOccupied_AddsCounts(t *testing.T) {
	dir := t.TempDir()
	opts := classstore.Options{DisableLocking: true}

	src, err := classstore.Open(filepath.Join(dir, "src.cfc"), classstore.WriteAll, 50, opts)
	require.NoError(t, err)
	defer src.Close()
	srcIdx, full := src.Table.Find(11, 22)
	require.False(t, full)
	require.NoError(t, src.Table.Insert(srcIdx, 11, 22, 7))

	dst, err := classstore.Open(filepath.Join(dir, "dst.cfc"), classstore.WriteAll, 50, opts)
	require.NoError(t, err)
	defer dst.Close()
	dstIdx, full := dst.Table.Find(11, 22)
	require.False(t, full)
	require.NoError(t, dst.Table.Insert(dstIdx, 11, 22, 4))

	require.NoError(t, Import(dst, src))

	foundIdx, full := dst.Table.Find(11, 22)
	require.False(t, full)
	_, _, count := dst.Table.Bucket(foundIdx)
	require.Equal(t, uint32(11), count)
}

func Test_Import_When_DestinationNotWriteAll_ReturnsUsageError(t *testing.T) {
	dir := t.TempDir()
	opts := classstore.Options{DisableLocking: true}

	src, err := classstore.Open(filepath.Join(dir, "src.cfc"), classstore.WriteAll, 10, opts)
	require.NoError(t, err)
	defer src.Close()

	dstPath := filepath.Join(dir, "dst.cfc")
	dstSetup, err := classstore.Open(dstPath, classstore.WriteAll, 10, opts)
	require.NoError(t, err)
	require.NoError(t, dstSetup.Close())

	dst, err := classstore.Open(dstPath, classstore.ReadOnly, 0, opts)
	require.NoError(t, err)
	defer dst.Close()

	err = Import(dst, src)
	require.ErrorIs(t, err, classstore.ErrUsage)
}
