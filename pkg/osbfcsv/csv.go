// Package osbfcsv implements the CSV interchange format used to dump and
// restore class files for debugging and format migration (§6). Buckets are
// written and read back in array order, not reconstructed by lookup.
package osbfcsv

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/osbfgo/osbf/pkg/classstore"
)

var (
	ErrMalformed = fmt.Errorf("osbfcsv: malformed csv")
)

// Header mirrors classstore.Header's scalar fields, dumped across the
// interchange format's four header lines.
type Header = classstore.Header

// Bucket is one hash1;hash2;count triple.
type Bucket struct {
	Hash1, Hash2, Count uint32
}

// dumpVersion is the value this package writes as the CSV header's first
// field, the "version" half of the "(version;0)" first header line (§6).
const dumpVersion = 7

// Dump writes header and buckets to path as the four-line-header CSV
// interchange format.
func Dump(path string, header Header, buckets []Bucket) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d;%d\n", dumpVersion, 0)
	fmt.Fprintf(&buf, "%d;%d\n", header.NumBuckets, header.Learnings)
	fmt.Fprintf(&buf, "%d;%d\n", header.FalseNegatives, header.FalsePositives)
	fmt.Fprintf(&buf, "%d;%d\n", header.Classifications, header.ExtraLearnings)
	for _, b := range buckets {
		fmt.Fprintf(&buf, "%d;%d;%d\n", b.Hash1, b.Hash2, b.Count)
	}
	return atomic.WriteFile(path, &buf)
}

// Restore reads a CSV interchange file and returns the header and bucket
// array it describes. The caller is responsible for writing these into a
// WriteAll-opened class (§6: "buckets are written in array order, not
// reconstructed by lookup" — Restore itself does no bucket-table insertion).
func Restore(path string) (Header, []Bucket, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("osbfcsv: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var dbVersion, zero, learnings, falseNeg, falsePos, extraLearnings uint32
	var numBuckets uint32
	var classifications uint64

	if _, err := fmt.Fscanf(r, "%d;%d\n", &dbVersion, &zero); err != nil {
		return Header{}, nil, fmt.Errorf("osbfcsv: %s line 1: %w: %w", path, err, ErrMalformed)
	}
	if _, err := fmt.Fscanf(r, "%d;%d\n", &numBuckets, &learnings); err != nil {
		return Header{}, nil, fmt.Errorf("osbfcsv: %s line 2: %w: %w", path, err, ErrMalformed)
	}
	if _, err := fmt.Fscanf(r, "%d;%d\n", &falseNeg, &falsePos); err != nil {
		return Header{}, nil, fmt.Errorf("osbfcsv: %s line 3: %w: %w", path, err, ErrMalformed)
	}
	if _, err := fmt.Fscanf(r, "%d;%d\n", &classifications, &extraLearnings); err != nil {
		return Header{}, nil, fmt.Errorf("osbfcsv: %s line 4: %w: %w", path, err, ErrMalformed)
	}

	header := Header{
		NumBuckets:      numBuckets,
		Learnings:       learnings,
		FalseNegatives:  falseNeg,
		FalsePositives:  falsePos,
		Classifications: classifications,
		ExtraLearnings:  extraLearnings,
	}

	buckets := make([]Bucket, numBuckets)
	for i := range buckets {
		var h1, h2, count uint32
		if _, err := fmt.Fscanf(r, "%d;%d;%d\n", &h1, &h2, &count); err != nil {
			return Header{}, nil, fmt.Errorf("osbfcsv: %s bucket %d: %w: %w", path, i, err, ErrMalformed)
		}
		buckets[i] = Bucket{Hash1: h1, Hash2: h2, Count: count}
	}

	if _, err := r.ReadByte(); err != io.EOF {
		return Header{}, nil, fmt.Errorf("osbfcsv: %s has leftover text: %w", path, ErrMalformed)
	}

	return header, buckets, nil
}
