package osbfengine

import "github.com/osbfgo/osbf/pkg/classstore"

// Import merges src's buckets and header counters into dst (§4.9). dst must
// be open WriteAll; src must be open at least ReadOnly.
func Import(dst, src *classstore.Class) error {
	if dst.Usage() != classstore.WriteAll {
		return classstore.ErrUsage
	}
	if src.State() == classstore.Closed {
		return classstore.ErrClosedClass
	}

	dst.Header.Learnings += src.Header.Learnings
	dst.Header.ExtraLearnings += src.Header.ExtraLearnings
	dst.Header.Classifications += src.Header.Classifications
	dst.Header.FalseNegatives += src.Header.FalseNegatives
	dst.Header.FalsePositives += src.Header.FalsePositives

	dst.Table.ResetFlags()

	for i := uint32(0); i < src.Table.N; i++ {
		h1, h2, count := src.Table.Bucket(i)
		if count == 0 {
			continue
		}
		idx, full := dst.Table.Find(h1, h2)
		if full {
			return classstore.ErrFullTable
		}
		if dst.Table.Occupied(idx) {
			dst.Table.Update(idx, int32(count))
		} else if err := dst.Table.Insert(idx, h1, h2, int32(count)); err != nil {
			return err
		}
	}
	return nil
}
