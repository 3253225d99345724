// Package osbffeature implements the sliding-window sparse-bigram feature
// pipeline: a window of the last W token hashes, from which the newest hash
// is paired with each hash 1..W-1 positions back and combined into bucket
// feature pairs via pkg/osbfhash.
package osbffeature

import (
	"math"

	"github.com/osbfgo/osbf/pkg/osbfhash"
)

// WindowLen is the fixed sliding-window length (§4.3).
const WindowLen = 5

// Sentinel pads the shift register before the first token and after the
// last, so that the final real token still contributes a full set of
// bigrams.
const Sentinel uint32 = 0xDEADBEEF

// Feature is one sparse-bigram feature pair together with the window offset
// k it was generated at, which selects the feature weight used during
// classification.
type Feature struct {
	H1, H2 uint32
	K      int
}

// Pipeline drives a shift register of the last WindowLen token hashes over a
// sequence supplied via Push, emitting one Feature per (register[0],
// register[k]) pair for k in 1..WindowLen-1, sentinel pairs included.
type Pipeline struct {
	window [WindowLen]uint32
}

// NewPipeline returns a pipeline with the shift register initialized to the
// sentinel value.
func NewPipeline() *Pipeline {
	p := &Pipeline{}
	for i := range p.window {
		p.window[i] = Sentinel
	}
	return p
}

// Push shifts hash into the register and returns the WindowLen-1 features
// generated from the new window state.
func (p *Pipeline) Push(hash uint32, out []Feature) []Feature {
	for i := WindowLen - 1; i > 0; i-- {
		p.window[i] = p.window[i-1]
	}
	p.window[0] = hash

	for k := 1; k < WindowLen; k++ {
		h1, h2 := osbfhash.Combine(p.window[0], p.window[k], k)
		out = append(out, Feature{H1: h1, H2: h2, K: k})
	}

	return out
}

// Flush pushes WindowLen-1 further sentinel-padded shifts, draining the
// features contributed by the final real token.
func (p *Pipeline) Flush(out []Feature) []Feature {
	for i := 0; i < WindowLen-1; i++ {
		out = p.Push(Sentinel, out)
	}
	return out
}

// Weights holds the per-offset feature weight table, indexed by k (index 0
// unused, matching the spec's feature_weight[1..4]).
type Weights [WindowLen]float64

// defaultWeights are used when the exponent formula saturates (e >= 5).
// Index 0 is unused (k ranges 1..WindowLen-1); trailing entries beyond
// WindowLen-1 in the original reference table are likewise never indexed.
var defaultWeights = Weights{0, 3125, 256, 27, 4}

// ComputeWeights derives the feature-weight table from the total number of
// learnings across all active classes (§4.3). The raw exponent
// (3*totalLearnings)^0.2 only drives the formula while it is below 5;
// past that point the table saturates at its fixed defaults (which equal
// the formula evaluated at e=5) rather than growing without bound.
func ComputeWeights(totalLearnings uint64) Weights {
	e := math.Pow(float64(totalLearnings)*3, 0.2)
	if e >= 5 {
		var w Weights
		copy(w[:], defaultWeights[:])
		return w
	}

	var w Weights
	w[1] = math.Pow(e, e)
	w[2] = math.Pow(e*0.8, e*0.8)
	w[3] = math.Pow(e*0.6, e*0.6)
	w[4] = math.Pow(e*0.4, e*0.4)
	return w
}
