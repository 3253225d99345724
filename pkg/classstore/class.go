package classstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/osbfgo/osbf/internal/filelock"
)

// Usage is the access level a Class is opened with.
type Usage int

const (
	ReadOnly Usage = iota
	WriteHeader
	WriteAll
)

func (u Usage) String() string {
	switch u {
	case ReadOnly:
		return "ReadOnly"
	case WriteHeader:
		return "WriteHeader"
	case WriteAll:
		return "WriteAll"
	default:
		return "Usage(?)"
	}
}

// State is a Class's lifecycle state (§4.6).
type State int

const (
	Closed State = iota
	Copied
	Mapped
)

// Options configures how a class's bucket table behaves once open.
type Options struct {
	// MaxChain overrides the displacement trigger D_trig; 0 means "auto"
	// (§4.4).
	MaxChain uint32
	// StopAfter caps how many buckets one microgroom pass evicts; 0 means
	// the package default.
	StopAfter uint32
	// DisableLocking skips the sibling-lock-file acquisition for writable
	// opens. Only meant for tests and single-process tooling.
	DisableLocking bool
}

// Class is the in-memory representation of one open bucket file (§3).
// Mutated in place by training, classification, import, and statistics
// operations; destroyed by Close.
type Class struct {
	Filename string
	Header   Header
	Table    *Table

	usage Usage
	state State

	mapped *mappedFile
	lock   *filelock.Lock
	opts   Options

	// Per-classify scratch counters, cleared by ResetScratch. Classify
	// itself neither reads nor writes them.
	Hits           []float64
	TotalHits      float64
	UniqueFeatures int
	MissedFeatures int
}

// Usage reports the access level the class was opened with.
func (c *Class) Usage() Usage { return c.usage }

// State reports the class's current lifecycle state.
func (c *Class) State() State { return c.state }

// Open opens (or creates, for a writable usage on a missing file) the class
// file at filename (§4.5, §4.6). A native-format file is memory-mapped
// directly (state becomes Mapped); a recognized legacy file is read,
// upconverted, and copied into heap buffers (state becomes Copied); a
// missing file opened for writing is initialized as an empty native table
// with initialBuckets buckets.
func Open(filename string, usage Usage, initialBuckets uint32, opts Options) (*Class, error) {
	var lk *filelock.Lock
	if usage > ReadOnly && !opts.DisableLocking {
		var err error
		lk, err = filelock.Acquire(filename)
		if errors.Is(err, filelock.ErrLocked) {
			return nil, fmt.Errorf("classstore: lock %s: %w: %w", filename, err, ErrLocked)
		}
		if err != nil {
			return nil, fmt.Errorf("classstore: lock %s: %w: %w", filename, err, ErrIO)
		}
	}

	c, err := openLocked(filename, usage, initialBuckets, opts)
	if err != nil {
		if lk != nil {
			_ = lk.Close()
		}
		return nil, err
	}
	c.lock = lk
	return c, nil
}

func openLocked(filename string, usage Usage, initialBuckets uint32, opts Options) (*Class, error) {
	flag := os.O_RDONLY
	if usage > ReadOnly {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(filename, flag, 0o644)
	if os.IsNotExist(err) && usage > ReadOnly {
		return createEmpty(filename, usage, initialBuckets, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("classstore: open %s: %w: %w", filename, err, ErrIO)
	}

	size, err := fileSize(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if size < 4 {
		f.Close()
		return nil, fmt.Errorf("classstore: %s too small to be a class file: %w", filename, ErrFormat)
	}

	head := make([]byte, headerSizeV7)
	n := min64(size, headerSizeV7)
	if _, err := f.ReadAt(head[:n], 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("classstore: read header of %s: %w: %w", filename, err, ErrIO)
	}

	native, wrongEndian := classifyMagic(head)
	if wrongEndian {
		f.Close()
		return nil, fmt.Errorf("classstore: %s has wrong-endian magic: %w: %w", filename, ErrWrongEndian, ErrFormat)
	}

	if native {
		return openNative(f, filename, usage, size, opts)
	}

	// Try legacy recognizers; they need the whole image.
	image := make([]byte, size)
	if _, err := f.ReadAt(image, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("classstore: read %s: %w: %w", filename, err, ErrIO)
	}
	version, ok := detectLegacy(image)
	if !ok {
		f.Close()
		return nil, fmt.Errorf("classstore: %s is not a recognized class format: %w", filename, ErrFormat)
	}

	var h Header
	var buckets []byte
	switch version {
	case 6:
		h, buckets, err = upconvertV6(image)
	case 5:
		h, buckets, err = upconvertV5(image)
	}
	f.Close()
	if err != nil {
		return nil, err
	}

	tbl := NewTable(buckets, h.NumBuckets, opts.MaxChain, opts.StopAfter)
	return &Class{
		Filename: filename,
		Header:   h,
		Table:    tbl,
		usage:    usage,
		state:    Copied,
		opts:     opts,
	}, nil
}

func openNative(f *os.File, filename string, usage Usage, size int64, opts Options) (*Class, error) {
	want := size - int64(headerSizeV7)
	if want < 0 || want%int64(bucketSize) != 0 {
		f.Close()
		return nil, fmt.Errorf("classstore: %s size %d inconsistent with native header: %w", filename, size, ErrFormat)
	}

	m, err := mmapFile(f, size)
	if err != nil {
		return nil, err
	}

	h := decodeHeaderV7(m.data[:headerSizeV7])
	if expected := fileSizeV7(h.NumBuckets); expected != size {
		_ = m.Close()
		return nil, fmt.Errorf("classstore: %s size %d does not match header's num_buckets %d (expected %d): %w",
			filename, size, h.NumBuckets, expected, ErrFormat)
	}

	tbl := NewTable(m.data[headerSizeV7:], h.NumBuckets, opts.MaxChain, opts.StopAfter)
	return &Class{
		Filename: filename,
		Header:   h,
		Table:    tbl,
		usage:    usage,
		state:    Mapped,
		mapped:   m,
		opts:     opts,
	}, nil
}

func createEmpty(filename string, usage Usage, numBuckets uint32, opts Options) (*Class, error) {
	h := Header{NumBuckets: numBuckets}
	f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("classstore: create %s: %w: %w", filename, err, ErrIO)
	}
	size := fileSizeV7(numBuckets)
	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(filename)
		return nil, fmt.Errorf("classstore: truncate %s: %w: %w", filename, err, ErrIO)
	}
	buf := encodeHeaderV7(&h)
	if _, err := f.WriteAt(buf, 0); err != nil {
		f.Close()
		os.Remove(filename)
		return nil, fmt.Errorf("classstore: init header of %s: %w: %w", filename, err, ErrIO)
	}
	return openNative(f, filename, usage, size, opts)
}

// Close flushes the class to disk according to (usage, state), frees any
// mapped or heap buffers, releases the lock, and closes the fd (§4.6).
// Close is idempotent; calling it on an already-closed class is a no-op.
func (c *Class) Close() error {
	if c.state == Closed {
		return nil
	}

	var err error
	switch c.state {
	case Mapped:
		err = c.closeMapped()
	case Copied:
		err = c.closeCopied()
	}

	c.state = Closed
	if c.lock != nil {
		if lerr := c.lock.Close(); lerr != nil && err == nil {
			err = lerr
		}
		c.lock = nil
	}
	return err
}

func (c *Class) closeMapped() error {
	if c.usage > ReadOnly {
		copy(c.mapped.data[:headerSizeV7], encodeHeaderV7(&c.Header))
		_ = c.mapped.touch()
	}
	if err := c.mapped.Close(); err != nil {
		return err
	}
	c.mapped = nil
	return nil
}

func (c *Class) closeCopied() error {
	switch c.usage {
	case ReadOnly:
		return nil
	case WriteHeader:
		return c.rewriteHeader()
	case WriteAll:
		return c.rewriteAll()
	}
	return nil
}

func (c *Class) rewriteHeader() error {
	f, err := os.OpenFile(c.Filename, os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("classstore: reopen %s for header write: %w: %w", c.Filename, err, ErrIO)
	}
	defer f.Close()
	if _, err := f.WriteAt(encodeHeaderV7(&c.Header), 0); err != nil {
		return fmt.Errorf("classstore: write header of %s: %w: %w", c.Filename, err, ErrIO)
	}
	return nil
}

// rewriteAll rewrites the whole class file via a temp-file-plus-rename, so a
// crash mid-write leaves the previous file intact rather than a truncated
// one (§7's "partial writes... cause the class file to be removed" is
// naturally satisfied: there is no window where the real path holds a
// half-written image).
func (c *Class) rewriteAll() error {
	r := io.MultiReader(bytes.NewReader(encodeHeaderV7(&c.Header)), bytes.NewReader(c.Table.Data))
	if err := atomic.WriteFile(c.Filename, r); err != nil {
		return fmt.Errorf("classstore: rewrite %s: %w: %w", c.Filename, err, ErrIO)
	}
	return nil
}

// ResetScratch clears the per-classify scratch counters and the bucket
// table's transient LOCK/FREE flags, matching the zero-bflags step of
// reusing a cached class (§3, §3 "Class cache").
func (c *Class) ResetScratch() {
	c.Table.ResetFlags()
	c.Hits = nil
	c.TotalHits = 0
	c.UniqueFeatures = 0
	c.MissedFeatures = 0
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
