package osbfengine

import (
	"fmt"
	"math"

	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/osbfgo/osbf/pkg/osbfconfig"
	"github.com/osbfgo/osbf/pkg/osbffeature"
	"github.com/osbfgo/osbf/pkg/osbfhash"
	"github.com/osbfgo/osbf/pkg/osbftoken"
)

// osbfSmallP is the floor ptc is clamped to before renormalizing, matching
// the reference implementation's OSBF_SMALLP (= 10 * DBL_MIN) (§4.8).
const osbfSmallP = 10 * 2.2250738585072014e-308 // DBL_MIN, the smallest normal float64

// Result holds the per-class output of Classify.
type Result struct {
	// Ptc is the posterior probability of each class, summing to 1.
	Ptc []float64
	// Ptt is each class's header.learnings snapshotted at the start of
	// the call.
	Ptt []uint32
}

// Classify scores text against classes, each of which must be open at
// least ReadOnly, returning a posterior probability per class (§4.8).
// minPmaxPminRatio is the per-call feature-skip threshold named in spec.md
// §4.8 step 4 (not a persisted configuration option).
func Classify(classes []*classstore.Class, text []byte, delims []byte, tokOpts osbftoken.Options, cfg osbfconfig.Config, minPmaxPminRatio float64) (Result, error) {
	m := len(classes)
	if m > classstore.MaxClasses {
		return Result{}, fmt.Errorf("osbfengine: %d classes (max %d): %w", m, classstore.MaxClasses, classstore.ErrInvalidInput)
	}
	for _, c := range classes {
		c.Table.ResetFlags()
	}

	localLearnings := make([]uint64, m)
	ptt := make([]uint32, m)
	a := make([]float64, m)
	var totalLearnings uint64
	var sumA float64
	for j, c := range classes {
		ptt[j] = c.Header.Learnings
		localLearnings[j] = uint64(c.Header.Learnings)
		if localLearnings[j] < 1 {
			localLearnings[j] = 1
		}
		totalLearnings += uint64(c.Header.Learnings)
		a[j] = aPriori(c, cfg.APriori)
		sumA += a[j]
	}

	ptc := make([]float64, m)
	for j := range classes {
		if sumA > 0 {
			ptc[j] = a[j] / sumA
		} else {
			ptc[j] = 1.0 / float64(m)
		}
	}

	weights := osbffeature.ComputeWeights(totalLearnings)

	tokOpts.Delims = delims
	tok := osbftoken.New(text, tokOpts)
	pipe := osbffeature.NewPipeline()

	scored := false
	var feats []osbffeature.Feature
	for {
		h, ok := tok.Next(osbfhash.Strnhash)
		if !ok {
			break
		}
		feats = feats[:0]
		feats = pipe.Push(h, feats)
		scored = scoreFeatures(classes, feats, localLearnings, weights, ptc, cfg, minPmaxPminRatio) || scored
	}
	feats = feats[:0]
	feats = pipe.Flush(feats)
	scored = scoreFeatures(classes, feats, localLearnings, weights, ptc, cfg, minPmaxPminRatio) || scored

	if !scored {
		renormalize(ptc)
	}

	return Result{Ptc: ptc, Ptt: ptt}, nil
}

func aPriori(c *classstore.Class, which osbfconfig.APriori) float64 {
	h := &c.Header
	switch which {
	case osbfconfig.APrioriInstances:
		return float64(int64(h.Classifications) + int64(h.FalseNegatives) - int64(h.FalsePositives))
	case osbfconfig.APrioriClassifications:
		return float64(h.Classifications)
	case osbfconfig.APrioriMistakes:
		return float64(h.FalseNegatives)
	default:
		return float64(h.Learnings)
	}
}

// scoreFeatures applies one pipeline Push/Flush's worth of features to the
// ptc vector, in place, and reports whether any feature actually scored.
func scoreFeatures(classes []*classstore.Class, feats []osbffeature.Feature, localLearnings []uint64, weights osbffeature.Weights, ptc []float64, cfg osbfconfig.Config, minPmaxPminRatio float64) bool {
	m := len(classes)
	any := false

	for _, f := range feats {
		hit := make([]float64, m)
		idxs := make([]uint32, m)
		full := make([]bool, m)
		alreadySeen := false
		for j, c := range classes {
			idxs[j], full[j] = c.Table.Find(f.H1, f.H2)
			if full[j] {
				continue
			}
			if c.Table.Occupied(idxs[j]) {
				if c.Table.Locked(idxs[j]) {
					alreadySeen = true
				}
				_, _, count := c.Table.Bucket(idxs[j])
				hit[j] = float64(count)
			}
		}
		if alreadySeen {
			continue
		}
		for j, c := range classes {
			if !full[j] {
				markLocked(c, idxs[j])
			}
		}

		pFeat := make([]float64, m)
		jmin, jmax := 0, 0
		for j := range classes {
			pFeat[j] = hit[j] / float64(localLearnings[j])
			if pFeat[j] < pFeat[jmin] {
				jmin = j
			}
			if pFeat[j] > pFeat[jmax] {
				jmax = j
			}
		}

		pMin, pMax := pFeat[jmin], pFeat[jmax]
		if pMax == pMin {
			continue
		}
		if pMin > 0 && pMax/pMin < minPmaxPminRatio {
			continue
		}

		cf := confidenceFactor(localLearnings[jmin], localLearnings[jmax], hit[jmin], hit[jmax], weights[f.K], cfg)

		for j := range classes {
			ptc[j] *= 1/float64(m) + cf*(hit[j]/float64(localLearnings[j])-1/float64(m))
			if ptc[j] < osbfSmallP {
				ptc[j] = osbfSmallP
			}
		}
		renormalize(ptc)
		any = true
	}
	return any
}

func markLocked(c *classstore.Class, idx uint32) {
	if c.Table.Occupied(idx) {
		c.Table.Update(idx, 0)
	}
}

// confidenceFactor implements §4.8 step 5: hits are first normalized to the
// class with more learnings, then combined into a value in [0,1).
func confidenceFactor(lrnMin, lrnMax uint64, hMin, hMax float64, w float64, cfg osbfconfig.Config) float64 {
	if lrnMin < lrnMax && lrnMin > 0 {
		hMin *= float64(lrnMax) / float64(lrnMin)
	} else if lrnMax < lrnMin && lrnMax > 0 {
		hMax *= float64(lrnMin) / float64(lrnMax)
	}

	s := hMax + hMin
	if s == 0 {
		return 0
	}
	delta := math.Abs(hMax - hMin)
	cfx := math.Min(1, 0.8+float64(lrnMin+lrnMax)/20)

	// Grounded on original_source/osbf_bayes.c's EDDC_VARIANT==3 branch (the
	// one actually compiled, per its preceding #define): cfx * ((Δ² − K1/S)
	// / S²)² / (1 + K3/(S·W)). No Hmax·Hmin cross term and a fixed exponent
	// of 2; K2 is not referenced by this formula.
	numerator := delta*delta - cfg.K1/s
	base := numerator / (s * s)
	cf := cfx * math.Pow(base, 2) / (1 + cfg.K3/(s*w))
	if cf < 0 {
		return 0
	}
	if cf >= 1 {
		return 0.999999999
	}
	return cf
}

func renormalize(ptc []float64) {
	var sum float64
	for _, p := range ptc {
		sum += p
	}
	if sum == 0 {
		return
	}
	for i := range ptc {
		ptc[i] /= sum
	}
}
