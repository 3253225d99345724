package classstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Open_When_FileMissingAndWritable_CreatesEmptyNativeClass(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spam.cfc")

	c, err := Open(path, WriteAll, 1000, Options{DisableLocking: true})
	require.NoError(t, err)
	require.Equal(t, Mapped, c.State())
	require.Equal(t, uint32(1000), c.Header.NumBuckets)
	require.NoError(t, c.Close())
	require.Equal(t, Closed, c.State())
}

func Test_Open_When_ClosedAfterWriteAll_ReopensWithSameContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spam.cfc")

	c, err := Open(path, WriteAll, 100, Options{DisableLocking: true})
	require.NoError(t, err)

	idx, full := c.Table.Find(42, 99)
	require.False(t, full)
	require.NoError(t, c.Table.Insert(idx, 42, 99, 5))
	c.Header.Learnings = 1
	require.NoError(t, c.Close())

	c2, err := Open(path, ReadOnly, 0, Options{DisableLocking: true})
	require.NoError(t, err)
	defer c2.Close()

	require.Equal(t, uint32(1), c2.Header.Learnings)
	foundIdx, full := c2.Table.Find(42, 99)
	require.False(t, full)
	h1, h2, count := c2.Table.bucket(foundIdx)
	require.Equal(t, uint32(42), h1)
	require.Equal(t, uint32(99), h2)
	require.Equal(t, uint32(5), count)
}

func Test_Open_When_ReadOnlyOnMissingFile_ReturnsIOError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nope.cfc")

	_, err := Open(path, ReadOnly, 0, Options{DisableLocking: true})
	require.ErrorIs(t, err, ErrIO)
}

func Test_Open_When_ImageSizeInconsistentWithHeader_ReturnsFormatError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spam.cfc")

	c, err := Open(path, WriteAll, 10, Options{DisableLocking: true})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// Corrupt the header to claim more buckets than the file actually has.
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	require.NoError(t, err)
	buf := encodeHeaderV7(&Header{NumBuckets: 999})
	_, err = f.WriteAt(buf, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path, ReadOnly, 0, Options{DisableLocking: true})
	require.ErrorIs(t, err, ErrFormat)
}
