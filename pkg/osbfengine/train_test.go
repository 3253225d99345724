package osbfengine

import (
	"path/filepath"
	"testing"

	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/osbfgo/osbf/pkg/osbftoken"
	"github.com/stretchr/testify/require"
)

var testDelims = []byte(" \t\r\n.,;:!?\"'()[]{}<>")

func testTokOpts() osbftoken.Options {
	return osbftoken.Options{MaxTokenSize: 30, MaxLongTokens: 1000}
}

func openTestClass(t *testing.T, dir, name string, n uint32, usage classstore.Usage) *classstore.Class {
	t.Helper()
	c, err := classstore.Open(filepath.Join(dir, name), usage, n, classstore.Options{DisableLocking: true})
	require.NoError(t, err)
	return c
}

// Test_Train_When_LearnedThenUnlearned_LeavesNoUsedBuckets exercises spec.md
// §8's round-trip law "create(N); learn(t); unlearn(t); stats.used_buckets
// == 0".
func Test_Train_When_LearnedThenUnlearned_LeavesNoUsedBuckets(t *testing.T) {
	dir := t.TempDir()
	c := openTestClass(t, dir, "spam.cfc", 1000, classstore.WriteAll)
	defer c.Close()

	text := []byte("the quick brown fox")
	require.NoError(t, Train(c, text, testDelims, testTokOpts(), 1, 0))
	require.Equal(t, uint32(1), c.Header.Learnings)

	require.NoError(t, Train(c, text, testDelims, testTokOpts(), -1, 0))
	require.Equal(t, uint32(0), c.Header.Learnings)

	s, err := Statistics(c)
	require.NoError(t, err)
	require.Equal(t, uint32(0), s.UsedBuckets)
}

func Test_Train_When_ExtraLearning_IncrementsExtraLearningsNotLearnings(t *testing.T) {
	dir := t.TempDir()
	c := openTestClass(t, dir, "spam.cfc", 200, classstore.WriteAll)
	defer c.Close()

	require.NoError(t, Train(c, []byte("hello world"), testDelims, testTokOpts(), 1, ExtraLearning))
	require.Equal(t, uint32(0), c.Header.Learnings)
	require.Equal(t, uint32(1), c.Header.ExtraLearnings)
}

func Test_Train_When_FalseNegativeFlagSet_IncrementsFalseNegatives(t *testing.T) {
	dir := t.TempDir()
	c := openTestClass(t, dir, "spam.cfc", 200, classstore.WriteAll)
	defer c.Close()

	require.NoError(t, Train(c, []byte("hello world"), testDelims, testTokOpts(), 1, FalseNegative))
	require.Equal(t, uint32(1), c.Header.Learnings)
	require.Equal(t, uint32(1), c.Header.FalseNegatives)
}

func Test_Train_When_ClassNotWriteAll_ReturnsUsageError(t *testing.T) {
	dir := t.TempDir()
	setup := openTestClass(t, dir, "spam.cfc", 50, classstore.WriteAll)
	require.NoError(t, setup.Close())

	c := openTestClass(t, dir, "spam.cfc", 0, classstore.ReadOnly)
	defer c.Close()

	err := Train(c, []byte("hello"), testDelims, testTokOpts(), 1, 0)
	require.ErrorIs(t, err, classstore.ErrUsage)
}

// Test_Train_When_ChainFillsEntireTable_ReturnsFullTableError exercises
// spec.md §8's "when a chain occupies all N buckets, insert returns
// FullTable" against the trainer's own find/insert loop (scenario
// underlying #5's microgroom trigger, at a bucket count too small for
// microgrooming to ever free room).
func Test_Train_When_ChainFillsEntireTable_ReturnsFullTableError(t *testing.T) {
	dir := t.TempDir()
	c := openTestClass(t, dir, "spam.cfc", 4, classstore.WriteAll)
	defer c.Close()

	// Fill every one of the 4 buckets by hand with distinct features; with
	// none vacant, any feature's Find probe wraps back to its own home
	// without ever landing on an empty slot.
	for i := uint32(0); i < 4; i++ {
		idx, full := c.Table.Find(0, i+1)
		require.False(t, full)
		require.NoError(t, c.Table.Insert(idx, 0, i+1, 1))
	}

	err := Train(c, []byte("brandnewword"), testDelims, testTokOpts(), 1, 0)
	require.ErrorIs(t, err, classstore.ErrFullTable)
}
