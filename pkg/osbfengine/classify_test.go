package osbfengine

import (
	"path/filepath"
	"testing"

	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/osbfgo/osbf/pkg/osbfconfig"
	"github.com/stretchr/testify/require"
)

// Test_Classify_When_OneClassOnly_ReturnsFullConfidence exercises spec.md
// §8's "classify(t, [c]) -> ptc = [1.0] when only one class is provided and
// learnings > 0" round-trip law, and concrete scenario #3 (single-class
// classify).
func Test_Classify_When_OneClassOnly_ReturnsFullConfidence(t *testing.T) {
	dir := t.TempDir()
	c := openTestClass(t, dir, "c1.cfc", 1000, classstore.WriteAll)
	defer c.Close()

	text := []byte("the quick brown fox")
	require.NoError(t, Train(c, text, testDelims, testTokOpts(), 1, 0))

	result, err := Classify([]*classstore.Class{c}, text, testDelims, testTokOpts(), osbfconfig.Default(), 1)
	require.NoError(t, err)
	require.InDelta(t, 1.0, result.Ptc[0], 1e-9)
	require.Equal(t, uint32(1), result.Ptt[0])
}

// Test_Classify_When_TwoClassesTrainedOnDisjointVocabularies_FavorsTheMatchingClass
// exercises concrete scenario #4 (two-class discrimination).
func Test_Classify_When_TwoClassesTrainedOnDisjointVocabularies_FavorsTheMatchingClass(t *testing.T) {
	dir := t.TempDir()
	classA := openTestClass(t, dir, "a.cfc", 2000, classstore.WriteAll)
	defer classA.Close()
	classB := openTestClass(t, dir, "b.cfc", 2000, classstore.WriteAll)
	defer classB.Close()

	wordsA := []string{"apple", "banana", "cherry", "date", "elderberry", "fig", "grape", "honeydew", "kiwi", "lemon"}
	wordsB := []string{"rocket", "satellite", "telescope", "universe", "vacuum", "wormhole", "xenon", "yttrium", "zenith", "quasar"}

	for _, w := range wordsA {
		require.NoError(t, Train(classA, []byte(w), testDelims, testTokOpts(), 1, 0))
	}
	for _, w := range wordsB {
		require.NoError(t, Train(classB, []byte(w), testDelims, testTokOpts(), 1, 0))
	}

	result, err := Classify([]*classstore.Class{classA, classB}, []byte(wordsA[0]), testDelims, testTokOpts(), osbfconfig.Default(), 1)
	require.NoError(t, err)

	require.Greater(t, result.Ptc[0], 0.9)
	sum := result.Ptc[0] + result.Ptc[1]
	require.InDelta(t, 1.0, sum, 1e-9)
}

// Test_Classify_When_SingleClassGivenUnseenText_StillFallsBackToFullConfidence
// checks that the single-class case holds even for text the class was never
// trained on: with only one class, every feature has pmax == pmin (there is
// nothing to discriminate against), so every feature is skipped and the
// "no feature scored" fallback in §4.8 step 6 renormalizes the lone prior
// to 1.0 regardless of what the text actually contains.
func Test_Classify_When_SingleClassGivenUnseenText_StillFallsBackToFullConfidence(t *testing.T) {
	dir := t.TempDir()
	c := openTestClass(t, dir, "c1.cfc", 100, classstore.WriteAll)
	defer c.Close()
	require.NoError(t, Train(c, []byte("hello"), testDelims, testTokOpts(), 1, 0))

	result, err := Classify([]*classstore.Class{c}, []byte("totally unseen text"), testDelims, testTokOpts(), osbfconfig.Default(), 1)
	require.NoError(t, err)
	require.InDelta(t, 1.0, result.Ptc[0], 1e-9)
}
