package classstore

// chainBounds finds the contiguous run of occupied buckets containing i:
// walk backward while the preceding slot is occupied to find the chain's
// start, then walk forward from there counting occupied slots (§4.4).
func (t *Table) chainBounds(i uint32) (start, length uint32) {
	start = i
	for t.occupied(prevIndex(start, t.N)) {
		start = prevIndex(start, t.N)
		if start == i {
			// Every slot is occupied; the whole table is one chain.
			break
		}
	}
	length = 0
	p := start
	for t.occupied(p) {
		length++
		p = nextIndex(p, t.N)
		if p == start {
			break
		}
	}
	return start, length
}

// chainMinUnlockedCount returns the smallest count among unlocked occupied
// buckets in the chain [start, start+length). If every bucket in the chain
// is locked, it falls back to the smallest count among all of them (§4.4).
func (t *Table) chainMinUnlockedCount(start, length uint32) uint32 {
	var minUnlocked, minAny uint32
	haveUnlocked, haveAny := false, false
	p := start
	for n := uint32(0); n < length; n++ {
		_, _, count := t.bucket(p)
		if !haveAny || count < minAny {
			minAny = count
			haveAny = true
		}
		if !t.locked(p) && (!haveUnlocked || count < minUnlocked) {
			minUnlocked = count
			haveUnlocked = true
		}
		p = nextIndex(p, t.N)
	}
	if haveUnlocked {
		return minUnlocked
	}
	return minAny
}

// microgroom evicts low-count buckets from the chain containing i to make
// room for a new insertion, widening its displacement search each attempt
// until at least one bucket is marked FREE, then packs the chain (§4.4).
// Locked buckets are candidates only when every bucket in the chain is
// locked.
func (t *Table) microgroom(i uint32) {
	start, length := t.chainBounds(i)
	minV := t.chainMinUnlockedCount(start, length)

	allLocked := true
	for p, n := start, uint32(0); n < length; p, n = nextIndex(p, t.N), n+1 {
		if !t.locked(p) {
			allLocked = false
			break
		}
	}

	marked := uint32(0)
	d := uint32(1)
	for marked == 0 {
		p := start
		for n := uint32(0); n < length && marked < t.stopAfterValue(); n++ {
			_, _, count := t.bucket(p)
			if (allLocked || !t.locked(p)) && count == minV && displacement(start, p, t.N) < d {
				t.setFree(p)
				marked++
			}
			p = nextIndex(p, t.N)
		}
		d++
	}
	t.pack(start, length)
}

func (t *Table) stopAfterValue() uint32 {
	if t.stopAfter != 0 {
		return t.stopAfter
	}
	return defaultMicrogroomStopAfter
}

// pack relocates every occupied, non-FREE bucket in [start, start+length)
// into an earlier FREE slot between its own home and its current position,
// then zeroes whatever FREE slots remain (§4.4). This keeps a chain
// contiguous with no holes after grooming removes buckets from its middle.
func (t *Table) pack(start, length uint32) {
	p := start
	for n := uint32(0); n < length; n++ {
		if t.occupied(p) && !t.free(p) {
			h1, _, _ := t.bucket(p)
			home := t.home(h1)
			if dst, ok := t.findFreeBetween(home, p); ok {
				t.moveBucket(p, dst)
				t.setFree(p)
			}
		}
		p = nextIndex(p, t.N)
	}

	p = start
	for n := uint32(0); n < length; n++ {
		if t.free(p) {
			t.setBucket(p, 0, 0, 0)
			t.clearFree(p)
		}
		p = nextIndex(p, t.N)
	}
}

// findFreeBetween scans forward from home, stopping before pos, for the
// first bucket flagged FREE.
func (t *Table) findFreeBetween(home, pos uint32) (uint32, bool) {
	for p := home; p != pos; p = nextIndex(p, t.N) {
		if t.free(p) {
			return p, true
		}
	}
	return 0, false
}

// moveBucket copies from's hash/count and LOCK flag into to, and clears
// to's FREE flag. The caller is responsible for marking from FREE
// afterward.
func (t *Table) moveBucket(from, to uint32) {
	h1, h2, count := t.bucket(from)
	t.setBucket(to, h1, h2, count)
	if t.locked(from) {
		t.setLocked(to)
	}
	t.clearFree(to)
}
