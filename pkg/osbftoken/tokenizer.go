// Package osbftoken implements delimiter-driven token extraction with
// long-token hash accumulation, the input stage of the feature pipeline.
package osbftoken

import "unicode"

// Options configures a Tokenizer.
type Options struct {
	// Delims is the set of bytes treated as delimiters in addition to any
	// byte that isn't printable-graphic.
	Delims []byte

	// LimitTokenSize enables truncation of tokens at MaxTokenSize.
	LimitTokenSize bool

	// MaxTokenSize is the truncation length when LimitTokenSize is set, and
	// the length at or above which long-token accumulation kicks in
	// regardless of LimitTokenSize.
	MaxTokenSize int

	// MaxLongTokens caps how many long segments are accumulated before the
	// next segment ends the logical token; that final segment is XORed in
	// as well.
	MaxLongTokens int
}

// Tokenizer produces a forward-only sequence of token hashes from a byte
// buffer. It is not safe for concurrent use.
type Tokenizer struct {
	buf  []byte
	pos  int
	opts Options

	delims [256]bool
}

// New creates a Tokenizer over buf using opts.
func New(buf []byte, opts Options) *Tokenizer {
	t := &Tokenizer{buf: buf, opts: opts}
	for _, d := range opts.Delims {
		t.delims[d] = true
	}
	return t
}

func (t *Tokenizer) isDelim(b byte) bool {
	if t.delims[b] {
		return true
	}
	// "not a printable graphic character": mirror C's isgraph(3) under the
	// default "C" locale, which the reference never overrides with
	// setlocale(). That locale's isgraph is only true for 0x21-0x7e, so
	// every byte >= 0x80 is non-graphic too, not just the low control range.
	if b >= 0x80 {
		return true
	}
	return !unicode.IsGraphic(rune(b)) || b == ' '
}

// nextToken scans the next maximal run of non-delimiter bytes starting at
// t.pos, applying truncation when LimitTokenSize is set. It returns the
// token's start/end offsets into buf and advances t.pos past it. ok is
// false once the buffer is exhausted.
func (t *Tokenizer) nextToken() (start, end int, ok bool) {
	n := len(t.buf)

	for t.pos < n && t.isDelim(t.buf[t.pos]) {
		t.pos++
	}

	if t.pos >= n {
		return 0, 0, false
	}

	start = t.pos
	limit := n
	if t.opts.LimitTokenSize {
		if l := start + t.opts.MaxTokenSize; l < limit {
			limit = l
		}
	}

	for t.pos < limit && !t.isDelim(t.buf[t.pos]) {
		t.pos++
	}

	return start, t.pos, true
}

// Next returns the hash of the next logical token, or ok=false at
// end-of-stream. A logical token is either a single short token or, when
// segments meet or exceed MaxTokenSize, a run of up to MaxLongTokens such
// segments XORed together with the segment that follows them (long-token
// accumulation, §4.2).
func (t *Tokenizer) Next(hash func([]byte) uint32) (tokenHash uint32, ok bool) {
	acc := uint32(0)
	longCount := 0

	start, end, segOK := t.nextToken()
	if !segOK {
		return 0, false
	}

	for t.opts.MaxTokenSize > 0 && end-start >= t.opts.MaxTokenSize && longCount < t.opts.MaxLongTokens {
		longCount++
		acc ^= hash(t.buf[start:end])

		start, end, segOK = t.nextToken()
		if !segOK {
			// Final segment consumed by the accumulator; nothing left to
			// emit a terminal hash from, but we already have contributions.
			return acc, true
		}
	}

	if end > start || longCount > 0 {
		acc ^= hash(t.buf[start:end])
		return acc, true
	}

	return 0, false
}
