package osbfhash_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osbfgo/osbf/pkg/osbfhash"
)

func Test_Strnhash_When_GivenHello_MatchesReferenceSequence(t *testing.T) {
	hval := uint32(len("hello"))
	for _, c := range []byte("hello") {
		tmp := uint32(c)
		tmp = tmp | (tmp << 8) | (tmp << 16) | (tmp << 24)
		hval ^= tmp
		hval += (hval >> 12) & 0x0000ffff
		tmp = (hval << 24) | ((hval >> 24) & 0xff)
		hval &= 0x00ffff00
		hval |= tmp
		hval = (hval << 3) + (hval >> 29)
	}

	require.Equal(t, hval, osbfhash.Strnhash([]byte("hello")))
}

func Test_Strnhash_When_EmptyInput_ReturnsZero(t *testing.T) {
	require.Equal(t, uint32(0), osbfhash.Strnhash(nil))
}

func Test_Strnhash_When_SameInputTwice_IsDeterministic(t *testing.T) {
	a := osbfhash.Strnhash([]byte("the quick brown fox"))
	b := osbfhash.Strnhash([]byte("the quick brown fox"))
	require.Equal(t, a, b)
}

func Test_Combine_When_GivenOffset_UsesBothTables(t *testing.T) {
	h1, h2 := osbfhash.Combine(10, 20, 1)
	require.Equal(t, uint32(10)*osbfhash.T1[0]+20*osbfhash.T1[1], h1)
	require.Equal(t, uint32(10)*osbfhash.T2[0]+20*osbfhash.T2[1], h2)
}
