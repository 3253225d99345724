package osbfengine

import "github.com/osbfgo/osbf/pkg/classstore"

// Stats holds the header counters plus bucket-table metrics derived by
// Statistics (§4.10).
type Stats struct {
	NumBuckets      uint32
	Learnings       uint32
	ExtraLearnings  uint32
	FalseNegatives  uint32
	FalsePositives  uint32
	Classifications uint64

	UsedBuckets     uint32
	NumChains       uint32
	MaxChain        uint32
	AvgChain        float64
	MaxDisplacement uint32
	Unreachable     uint32
}

// Statistics traverses class's bucket table computing chain and
// displacement metrics alongside the persisted header counters (§4.10).
// class must be open at least ReadOnly.
func Statistics(class *classstore.Class) (Stats, error) {
	if class.State() == classstore.Closed {
		return Stats{}, classstore.ErrClosedClass
	}

	t := class.Table
	n := t.N

	s := Stats{
		NumBuckets:      class.Header.NumBuckets,
		Learnings:       class.Header.Learnings,
		ExtraLearnings:  class.Header.ExtraLearnings,
		FalseNegatives:  class.Header.FalseNegatives,
		FalsePositives:  class.Header.FalsePositives,
		Classifications: class.Header.Classifications,
	}
	if n == 0 {
		return s, nil
	}

	var chainLenSum uint64
	var curChain uint32
	inChain := false

	for i := uint32(0); i < n; i++ {
		if !t.Occupied(i) {
			if inChain {
				if curChain > s.MaxChain {
					s.MaxChain = curChain
				}
				chainLenSum += uint64(curChain)
				s.NumChains++
				curChain = 0
				inChain = false
			}
			continue
		}

		s.UsedBuckets++
		curChain++
		inChain = true

		h1, _, _ := t.Bucket(i)
		home := h1 % n
		if d := bucketDisplacement(home, i, n); d > s.MaxDisplacement {
			s.MaxDisplacement = d
		}
		if bucketUnreachable(t, home, i, n) {
			s.Unreachable++
		}
	}
	// A chain that runs off the end of the table does not wrap into chain
	// index 0: the table is a flat array, not a ring, for this traversal.
	if inChain {
		if curChain > s.MaxChain {
			s.MaxChain = curChain
		}
		chainLenSum += uint64(curChain)
		s.NumChains++
	}

	if s.NumChains > 0 {
		s.AvgChain = float64(chainLenSum) / float64(s.NumChains)
	}
	return s, nil
}

// bucketDisplacement returns how many probe steps forward pos is from home,
// modulo n (mirrors classstore's internal probe-distance calculation).
func bucketDisplacement(home, pos, n uint32) uint32 {
	if pos >= home {
		return pos - home
	}
	return n - home + pos
}

// bucketUnreachable reports whether at least one vacant bucket lies
// strictly between home and pos when walking forward from home (§4.10).
func bucketUnreachable(t *classstore.Table, home, pos, n uint32) bool {
	if pos == home {
		return false
	}
	for i := (home + 1) % n; i != pos; i = (i + 1) % n {
		if !t.Occupied(i) {
			return true
		}
	}
	return false
}
