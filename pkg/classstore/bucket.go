package classstore

import "math"

// Per-bucket transient flags. Never persisted; reset to zero whenever a
// class is (re)opened or reused from the cache (§4.4, §5).
const (
	flagLock byte = 1 << 0
	flagFree byte = 1 << 1
)

// Table is a fixed-size open-addressing bucket table backed by a flat byte
// buffer — either an mmap'd file region (native, "Mapped") or a heap copy
// ("Copied", legacy-upconverted or CSV-restored). N is the bucket count;
// buckets occupy N*bucketSize bytes starting at Data's beginning.
//
// "Occupied" has exactly one ground truth: count > 0. A bucket with
// count == 0 is available regardless of what hash1/hash2 happen to hold
// (§4.4, mirroring the reference BUCKET_IN_CHAIN macro).
type Table struct {
	Data  []byte // N*bucketSize bytes, native bucket encoding
	N     uint32
	flags []byte // length N, transient LOCK/FREE bits

	displacementTrigger uint32 // 0 = compute from N via displacementTrigger()
	stopAfter           uint32
}

// NewTable wraps an existing N-bucket byte buffer. data must be exactly
// N*bucketSize bytes.
func NewTable(data []byte, n uint32, maxChain, stopAfter uint32) *Table {
	return &Table{
		Data:                data,
		N:                   n,
		flags:               make([]byte, n),
		displacementTrigger: maxChain,
		stopAfter:           stopAfter,
	}
}

func (t *Table) bucket(i uint32) (h1, h2, count uint32) {
	return decodeBucket(t.Data, i)
}

func (t *Table) setBucket(i uint32, h1, h2, count uint32) {
	encodeBucket(t.Data, i, h1, h2, count)
}

func (t *Table) occupied(i uint32) bool {
	_, _, count := t.bucket(i)
	return count > 0
}

// Occupied reports whether bucket i holds a live entry (count > 0).
func (t *Table) Occupied(i uint32) bool { return t.occupied(i) }

// Locked reports whether bucket i's transient LOCK flag is set.
func (t *Table) Locked(i uint32) bool { return t.locked(i) }

// Bucket returns bucket i's persisted (hash1, hash2, count) triple.
func (t *Table) Bucket(i uint32) (h1, h2, count uint32) { return t.bucket(i) }

// SetBucket writes bucket i directly, in array order, bypassing Find's
// probe and the microgroomer entirely. Used by CSV restore, which places
// buckets back by index rather than reconstructing them by lookup (§6's
// CSV interchange format note).
func (t *Table) SetBucket(i uint32, h1, h2, count uint32) { t.setBucket(i, h1, h2, count) }

func (t *Table) locked(i uint32) bool  { return t.flags[i]&flagLock != 0 }
func (t *Table) free(i uint32) bool    { return t.flags[i]&flagFree != 0 }
func (t *Table) setLocked(i uint32)    { t.flags[i] |= flagLock }
func (t *Table) setFree(i uint32)      { t.flags[i] |= flagFree }
func (t *Table) clearFree(i uint32)    { t.flags[i] &^= flagFree }
func (t *Table) clearAllFlags(i uint32) { t.flags[i] = 0 }

// ResetFlags clears all transient LOCK/FREE state, e.g. when a cached Table
// is reused for a fresh operation (§4.4).
func (t *Table) ResetFlags() {
	for i := range t.flags {
		t.flags[i] = 0
	}
}

func (t *Table) home(h1 uint32) uint32 {
	return h1 % t.N
}

// Find probes from home=h1%N looking for a bucket whose (hash1,hash2)
// matches, or the first empty slot if no match exists. full is true when
// the probe wraps all the way back to home without finding either — the
// table has no room left in this chain (§4.4).
func (t *Table) Find(h1, h2 uint32) (idx uint32, full bool) {
	home := t.home(h1)
	i := home
	for {
		bh1, bh2, count := t.bucket(i)
		if count == 0 {
			return i, false
		}
		if bh1 == h1 && bh2 == h2 {
			return i, false
		}
		i = (i + 1) % t.N
		if i == home {
			return 0, true
		}
	}
}

// Update applies delta to bucket i's count, per the three cases in §4.4:
// saturate-and-lock on overflow, free-and-pack on underflow to <= 0, else a
// plain add-and-lock.
func (t *Table) Update(i uint32, delta int32) {
	h1, h2, count := t.bucket(i)
	switch {
	case delta > 0 && uint64(count)+uint64(delta) >= MaxCount:
		t.setBucket(i, h1, h2, MaxCount)
		t.setLocked(i)
	case delta < 0 && uint64(-delta) >= uint64(count):
		// chainBounds must walk the chain while i is still occupied: marking
		// i FREE (rather than zeroing it outright) keeps it in the chain for
		// this walk, and pack's own zeroing pass removes it afterward. Doing
		// this in the other order truncates the forward walk at i and strands
		// everything past it in the chain as unreachable (§8 invariant 2).
		start, length := t.chainBounds(i)
		t.setFree(i)
		t.pack(start, length)
	default:
		newCount := int64(count) + int64(delta)
		if newCount < 0 {
			newCount = 0
		}
		t.setBucket(i, h1, h2, uint32(newCount))
		t.setLocked(i)
	}
}

// Insert places a new (h1,h2) entry with the given initial delta at bucket
// i, first widening the microgroom search if i's chain displacement from
// its home slot exceeds the configured trigger (§4.4). Returns ErrFullTable
// if no slot can be freed.
func (t *Table) Insert(i, h1, h2 uint32, delta int32) error {
	home := t.home(h1)
	trigger := t.displacementTriggerValue()
	for displacement(home, i, t.N) > trigger {
		t.microgroom(prevIndex(i, t.N))
		var full bool
		i, full = t.Find(h1, h2)
		if full {
			return ErrFullTable
		}
	}
	t.setBucket(i, h1, h2, 0)
	t.Update(i, delta)
	return nil
}

func (t *Table) displacementTriggerValue() uint32 {
	if t.displacementTrigger != 0 {
		return t.displacementTrigger
	}
	return autoDisplacementTrigger(t.N)
}

// autoDisplacementTrigger implements §4.4's "auto" D_trig formula:
// max(29, round(14.85 + 1.5e-4*N)).
func autoDisplacementTrigger(n uint32) uint32 {
	v := 14.85 + 1.5e-4*float64(n)
	rounded := uint32(math.Round(v))
	if rounded < defaultDisplacementTrigger {
		return defaultDisplacementTrigger
	}
	return rounded
}

// displacement returns how many probe steps forward pos is from home,
// modulo n.
func displacement(home, pos, n uint32) uint32 {
	if pos >= home {
		return pos - home
	}
	return n - home + pos
}

func prevIndex(i, n uint32) uint32 {
	if i == 0 {
		return n - 1
	}
	return i - 1
}

func nextIndex(i, n uint32) uint32 {
	return (i + 1) % n
}
