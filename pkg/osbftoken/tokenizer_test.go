package osbftoken_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osbfgo/osbf/pkg/osbfhash"
	"github.com/osbfgo/osbf/pkg/osbftoken"
)

func collect(t *testing.T, tok *osbftoken.Tokenizer) []uint32 {
	t.Helper()
	var out []uint32
	for {
		h, ok := tok.Next(osbfhash.Strnhash)
		if !ok {
			return out
		}
		out = append(out, h)
	}
}

func Test_Tokenizer_When_SimpleSentence_ReturnsOneHashPerWord(t *testing.T) {
	tok := osbftoken.New([]byte("the quick brown fox"), osbftoken.Options{
		MaxTokenSize:  1024,
		MaxLongTokens: 2,
	})

	hashes := collect(t, tok)
	require.Len(t, hashes, 4)
	require.Equal(t, osbfhash.Strnhash([]byte("the")), hashes[0])
	require.Equal(t, osbfhash.Strnhash([]byte("fox")), hashes[3])
}

func Test_Tokenizer_When_EmptyInput_ReturnsNoTokens(t *testing.T) {
	tok := osbftoken.New(nil, osbftoken.Options{MaxTokenSize: 10, MaxLongTokens: 1})
	require.Empty(t, collect(t, tok))
}

func Test_Tokenizer_When_CustomDelimiterSet_SplitsOnIt(t *testing.T) {
	tok := osbftoken.New([]byte("a,b,c"), osbftoken.Options{
		Delims:        []byte(","),
		MaxTokenSize:  1024,
		MaxLongTokens: 2,
	})

	hashes := collect(t, tok)
	require.Len(t, hashes, 3)
}

func Test_Tokenizer_When_LongToken_AccumulatesSegmentsByXOR(t *testing.T) {
	long := make([]byte, 30)
	for i := range long {
		long[i] = 'a' + byte(i%26)
	}

	tok := osbftoken.New(long, osbftoken.Options{
		LimitTokenSize: true,
		MaxTokenSize:   10,
		MaxLongTokens:  3,
	})

	hashes := collect(t, tok)
	require.Len(t, hashes, 1)

	expect := osbfhash.Strnhash(long[0:10]) ^ osbfhash.Strnhash(long[10:20]) ^ osbfhash.Strnhash(long[20:30])
	require.Equal(t, expect, hashes[0])
}

func Test_Tokenizer_When_HighByte_IsTreatedAsDelimiter(t *testing.T) {
	tok := osbftoken.New([]byte{'a', 'b', 0x80, 'c', 'd'}, osbftoken.Options{
		MaxTokenSize:  1024,
		MaxLongTokens: 2,
	})

	hashes := collect(t, tok)
	require.Len(t, hashes, 2)
	require.Equal(t, osbfhash.Strnhash([]byte("ab")), hashes[0])
	require.Equal(t, osbfhash.Strnhash([]byte("cd")), hashes[1])
}

func Test_Tokenizer_When_LimitTokenSizeFalse_ReturnsUnlimitedLengthTokens(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}

	tok := osbftoken.New(long, osbftoken.Options{
		LimitTokenSize: false,
		MaxTokenSize:   10,
		MaxLongTokens:  3,
	})

	hashes := collect(t, tok)
	require.Len(t, hashes, 1)
}
