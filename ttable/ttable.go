// Package ttable implements the shared transposition table: a bucketed,
// seqlock-protected hash table that lets every search worker read and write
// concurrently without locking, plus an ABDADA side table that lets workers
// avoid redundantly searching the same move at the same time.
package ttable

import (
	"sync/atomic"
	"unsafe"

	"chessforge/board"
)

// Flag records which kind of bound a stored score represents.
type Flag uint8

const (
	FlagNone  Flag = iota
	FlagExact      // score is exact
	FlagLower      // score is a lower bound (failed high, beta cutoff)
	FlagUpper      // score is an upper bound (failed low)
)

// MateScore and MateThreshold mirror the scale the search package reports
// scores on: anything at or beyond MateThreshold in absolute value encodes a
// forced mate a number of plies away from MateScore.
const (
	MateScore     int32 = 32500
	MateThreshold int32 = 20000
	maxPly        int32 = 128
)

// entries per bucket.
const bucketWays = 4

// genBits is the width of the generation counter; aging wraps modulo 64.
const genBits = 6
const genMod = 1 << genBits

// MaxAge is the largest representable 6-bit generation distance.
const MaxAge = genMod - 1

// deepAgeThreshold: entries at or beyond this depth get their effective age
// difference halved, so a deep search result survives more generations than
// a shallow one before it becomes a preferred eviction victim.
const deepAgeThreshold = 8

// entry is one transposition-table slot. It is deliberately small and
// trivially copyable, since probe and store both work on entry-sized values
// rather than pointers into the bucket (that's what makes the seqlock's
// copy-then-validate protocol safe).
type entry struct {
	key        uint64
	move       board.Move
	score      int16
	depth      int8
	flag       Flag
	generation uint8
}

func (e entry) empty() bool { return e.key == 0 && e.depth == 0 && e.flag == FlagNone }

// bucket holds four entries behind a seqlock version counter. A reader spins
// on an even version, copies the slots, and re-checks the version; an odd
// version means a writer is mid-store.
type bucket struct {
	version atomic.Uint32
	slots   [bucketWays]entry
}

// Table is a concurrent, lock-free transposition table shared by every
// search worker.
type Table struct {
	buckets    []bucket
	mask       uint64
	generation atomic.Uint32

	// agingDepthThreshold mirrors the spec's configurable "TT aging depth
	// threshold" option; entries at or beyond it get their age difference
	// halved during replacement scoring. Defaults to deepAgeThreshold.
	agingDepthThreshold atomic.Int32

	probes     atomic.Uint64
	hits       atomic.Uint64
	stores     atomic.Uint64
	collisions atomic.Uint64
	evictions  atomic.Uint64
}

// SetAgingDepthThreshold changes the depth at which an entry's effective age
// difference is halved during bucket replacement. Safe to call concurrently
// with probes/stores; it only affects future replacement decisions.
func (t *Table) SetAgingDepthThreshold(depth int) { t.agingDepthThreshold.Store(int32(depth)) }

// New returns a table sized to the largest power-of-two bucket count that
// fits within byteBudget.
func New(byteBudget int) *Table {
	bucketSize := int(unsafeSizeofBucket())
	if bucketSize <= 0 {
		bucketSize = 1
	}
	count := uint64(byteBudget) / uint64(bucketSize)
	count = roundDownPow2(count)
	if count == 0 {
		count = 1
	}
	t := &Table{
		buckets: make([]bucket, count),
		mask:    count - 1,
	}
	t.agingDepthThreshold.Store(int32(deepAgeThreshold))
	return t
}

func unsafeSizeofBucket() uintptr {
	return unsafe.Sizeof(bucket{})
}

func roundDownPow2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Result is what Probe hands back to the caller on a hit.
type Result struct {
	Move  board.Move
	Score int32
	Depth int
	Flag  Flag
}

// Probe looks up key, adjusting any encoded mate score back to the current
// ply. It returns ok=false on a miss, a verification failure (wrong key), or
// an unstable read (writer contention that didn't resolve after one retry).
func (t *Table) Probe(key uint64, ply int) (Result, bool) {
	t.probes.Add(1)

	b := &t.buckets[key&t.mask]

	var slots [bucketWays]entry
	if !t.readStable(b, &slots) {
		return Result{}, false
	}

	for _, e := range slots {
		if e.empty() || e.key != key {
			continue
		}
		t.hits.Add(1)
		return Result{
			Move:  e.move,
			Score: adjustScoreFromTT(int32(e.score), ply),
			Depth: int(e.depth),
			Flag:  e.flag,
		}, true
	}
	return Result{}, false
}

// readStable copies b's slots into out, retrying once if a write was in
// flight. Returns false if the bucket is still unstable after the retry.
func (t *Table) readStable(b *bucket, out *[bucketWays]entry) bool {
	for attempt := 0; attempt < 2; attempt++ {
		v1 := b.version.Load()
		if v1&1 != 0 {
			continue // writer in progress, retry
		}
		*out = b.slots
		v2 := b.version.Load()
		if v1 == v2 {
			return true
		}
	}
	return false
}

// Store records a search result for key, applying the spec's skip-rewrite
// rules and bucket replacement order.
func (t *Table) Store(key uint64, ply int, m board.Move, score int32, depth int, flag Flag) {
	b := &t.buckets[key&t.mask]
	gen := uint8(t.generation.Load() % genMod)

	newEntry := entry{
		key:        key,
		move:       m,
		score:      int16(adjustScoreToTT(score, ply)),
		depth:      int8(depth),
		flag:       flag,
		generation: gen,
	}

	// Seqlock write: odd version signals "in progress" to readers.
	v := b.version.Load()
	b.version.Store(v + 1)

	idx := t.chooseSlot(b, newEntry)
	if idx >= 0 {
		t.stores.Add(1)
		b.slots[idx] = newEntry
	}

	b.version.Store(v + 2)
}

// chooseSlot applies the replacement order and skip-rewrite rules, returning
// the slot index to write into, or -1 if the store should be skipped
// entirely.
func (t *Table) chooseSlot(b *bucket, ne entry) int {
	// 1. Same key already present.
	for i := range b.slots {
		old := &b.slots[i]
		if old.empty() || old.key != ne.key {
			continue
		}
		if skipRewrite(*old, ne) {
			return -1
		}
		return i
	}

	// 2. Any empty slot.
	for i := range b.slots {
		if b.slots[i].empty() {
			return i
		}
	}

	// 3. Victim by minimized replacement score.
	threshold := int(t.agingDepthThreshold.Load())
	victim := 0
	victimScore := replacementScore(b.slots[0], ne.generation, threshold)
	for i := 1; i < bucketWays; i++ {
		s := replacementScore(b.slots[i], ne.generation, threshold)
		if s < victimScore {
			victim, victimScore = i, s
		}
	}
	t.evictions.Add(1)
	t.collisions.Add(1)
	return victim
}

// skipRewrite implements the spec's three skip-rewrite rules for an
// overwrite of an existing same-key entry.
func skipRewrite(old, ne entry) bool {
	if old.move == ne.move && old.score == ne.score && old.flag == ne.flag && int(old.depth) >= int(ne.depth) {
		return true
	}
	if old.flag == FlagExact && int(old.depth) >= int(ne.depth) && ne.flag != FlagExact {
		return true
	}
	if ne.depth == 0 && old.depth > 0 {
		return true
	}
	return false
}

// replacementScore implements depth·256 + (MaxAge − age_diff), with a bonus
// for Exact entries (protect) and a penalty for depth-0 qsearch entries
// (prefer to evict). Lower is a worse (more evictable) entry.
func replacementScore(e entry, currentGen uint8, agingDepthThreshold int) int32 {
	if e.empty() {
		return -1 << 30 // always the first pick when truly empty (shouldn't reach here normally)
	}

	ageDiff := int32(currentGen-e.generation) & MaxAge
	if int(e.depth) >= agingDepthThreshold {
		ageDiff /= 2
	}

	score := int32(e.depth)*256 + (MaxAge - ageDiff)
	switch e.flag {
	case FlagExact:
		score += 1 << 16
	}
	if e.depth == 0 {
		score -= 1 << 15
	}
	return score
}

// NewGeneration bumps the aging counter at the start of a new root search.
func (t *Table) NewGeneration() {
	t.generation.Add(1)
}

// Clear empties every bucket and resets the counters.
func (t *Table) Clear() {
	for i := range t.buckets {
		t.buckets[i] = bucket{}
	}
	t.generation.Store(0)
	t.probes.Store(0)
	t.hits.Store(0)
	t.stores.Store(0)
	t.collisions.Store(0)
	t.evictions.Store(0)
}

// Stats is a snapshot of the table's atomic counters, useful for `info
// string` style reporting.
type Stats struct {
	Probes     uint64
	Hits       uint64
	Stores     uint64
	Collisions uint64
	Evictions  uint64
	HashFull   int // permille
}

// Stats returns a snapshot of the table's probe statistics. HashFull samples
// a bounded prefix of buckets rather than scanning the whole table, matching
// the permille-sampling approach engines commonly use for `info hashfull`.
func (t *Table) Stats() Stats {
	const sampleBuckets = 1000
	n := len(t.buckets)
	if n > sampleBuckets {
		n = sampleBuckets
	}
	gen := uint8(t.generation.Load() % genMod)
	used := 0
	for i := 0; i < n; i++ {
		for _, e := range t.buckets[i].slots {
			if !e.empty() && e.generation == gen {
				used++
				break
			}
		}
	}
	full := 0
	if n > 0 {
		full = (used * 1000) / n
	}
	return Stats{
		Probes:     t.probes.Load(),
		Hits:       t.hits.Load(),
		Stores:     t.stores.Load(),
		Collisions: t.collisions.Load(),
		Evictions:  t.evictions.Load(),
		HashFull:   full,
	}
}

// Buckets reports the number of buckets in the table (4 entries each).
func (t *Table) Buckets() uint64 { return t.mask + 1 }

// adjustScoreFromTT converts a mate score stored relative to the position
// where it was found back into one relative to the current root, by
// lengthening it by ply. adjustScoreToTT does the inverse on store.
func adjustScoreFromTT(score int32, ply int) int32 {
	if score > MateScore-maxPly {
		return score - int32(ply)
	}
	if score < -MateScore+maxPly {
		return score + int32(ply)
	}
	return score
}

func adjustScoreToTT(score int32, ply int) int32 {
	if score > MateScore-maxPly {
		return score + int32(ply)
	}
	if score < -MateScore+maxPly {
		return score - int32(ply)
	}
	return score
}
