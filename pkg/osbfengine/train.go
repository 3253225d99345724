package osbfengine

import (
	"github.com/osbfgo/osbf/pkg/classstore"
	"github.com/osbfgo/osbf/pkg/osbffeature"
	"github.com/osbfgo/osbf/pkg/osbfhash"
	"github.com/osbfgo/osbf/pkg/osbftoken"
)

// TrainFlags modifies how Train updates a class's scalar counters (§4.7).
type TrainFlags uint8

const (
	// ExtraLearning records the training call against extra_learnings
	// instead of learnings (e.g. training on a message the user
	// specifically flagged outside the normal learn/unlearn flow).
	ExtraLearning TrainFlags = 1 << iota
	// FalseNegative marks a positive-sense training call as a correction
	// of a prior missed classification.
	FalseNegative
)

// Train runs the feature pipeline over text and applies sense (+1 to learn,
// -1 to unlearn) to the matching or newly-inserted bucket for each feature,
// then updates class's scalar counters (§4.7). class must be open WriteAll.
func Train(class *classstore.Class, text []byte, delims []byte, tokOpts osbftoken.Options, sense int32, flags TrainFlags) error {
	if class.Usage() != classstore.WriteAll {
		return classstore.ErrUsage
	}

	class.Table.ResetFlags()

	tokOpts.Delims = delims
	tok := osbftoken.New(text, tokOpts)
	pipe := osbffeature.NewPipeline()

	var feats []osbffeature.Feature
	for {
		h, ok := tok.Next(osbfhash.Strnhash)
		if !ok {
			break
		}
		feats = feats[:0]
		feats = pipe.Push(h, feats)
		if err := applyTrainFeatures(class, feats, sense); err != nil {
			return err
		}
	}
	feats = feats[:0]
	feats = pipe.Flush(feats)
	if err := applyTrainFeatures(class, feats, sense); err != nil {
		return err
	}

	updateTrainCounters(class, sense, flags)
	return nil
}

func applyTrainFeatures(class *classstore.Class, feats []osbffeature.Feature, sense int32) error {
	t := class.Table
	for _, f := range feats {
		idx, full := t.Find(f.H1, f.H2)
		if full {
			return classstore.ErrFullTable
		}
		switch {
		case t.Occupied(idx) && !t.Locked(idx):
			t.Update(idx, sense)
		case !t.Occupied(idx) && sense > 0:
			if err := t.Insert(idx, f.H1, f.H2, sense); err != nil {
				return err
			}
		}
	}
	return nil
}

func updateTrainCounters(class *classstore.Class, sense int32, flags TrainFlags) {
	h := &class.Header
	extra := flags&ExtraLearning != 0
	switch {
	case sense > 0 && extra:
		h.ExtraLearnings++
	case sense > 0:
		if h.Learnings < classstore.MaxCount {
			h.Learnings++
		}
		if flags&FalseNegative != 0 {
			h.FalseNegatives++
		}
	case sense < 0 && extra:
		if h.ExtraLearnings > 0 {
			h.ExtraLearnings--
		}
	case sense < 0:
		if h.Learnings > 0 {
			h.Learnings--
		}
		if flags&FalseNegative != 0 && h.FalseNegatives > 0 {
			h.FalseNegatives--
		}
	}
}
