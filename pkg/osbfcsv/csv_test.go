package osbfcsv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_DumpAndRestore_When_RoundTripped_PreservesHeaderAndBuckets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spam.csv")

	header := Header{
		NumBuckets:      3,
		Learnings:       10,
		FalseNegatives:  2,
		FalsePositives:  1,
		Classifications: 99,
		ExtraLearnings:  4,
	}
	buckets := []Bucket{
		{Hash1: 1, Hash2: 2, Count: 3},
		{Hash1: 4, Hash2: 5, Count: 6},
		{Hash1: 7, Hash2: 8, Count: 9},
	}

	require.NoError(t, Dump(path, header, buckets))

	gotHeader, gotBuckets, err := Restore(path)
	require.NoError(t, err)
	require.Equal(t, header, gotHeader)
	require.Equal(t, buckets, gotBuckets)
}

func Test_Restore_When_HeaderMalformed_ReturnsErrMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("not-a-number;0\n"), 0o644))

	_, _, err := Restore(path)
	require.ErrorIs(t, err, ErrMalformed)
}
