package ttable

import (
	"sync/atomic"

	"chessforge/board"
)

// abdadaSize and abdadaWays size the lock-free side table that tracks which
// (position, move) pairs are currently being searched by some worker, so
// that other workers can defer rather than duplicate the work. Kept separate
// from the bucketed Table rather than as fields on entry, so that the seqlock
// bucket layout stays small and uncontended by the much higher churn rate of
// reservations versus stores.
const (
	abdadaSize = 32768 // 2^15
	abdadaWays = 4
	deferDepth = 3 // only defer at depth >= this; shallow searches are cheap to duplicate
)

type abdadaSlot struct {
	hash  atomic.Uint64
	depth atomic.Int32
}

// ABDADA is a lock-free, 4-way associative side table recording in-flight
// (position, move) searches, used to approximate the ABDADA parallel search
// algorithm's "defer if someone else is already on it" rule.
type ABDADA struct {
	slots [abdadaSize][abdadaWays]abdadaSlot
}

// NewABDADA returns an empty reservation table.
func NewABDADA() *ABDADA { return &ABDADA{} }

func abdadaHash(posKey uint64, m board.Move) uint64 {
	return posKey*1103515245 + uint64(m)*12345
}

// ShouldDefer reports whether some other worker has already reserved m at
// posKey at depth >= the caller's depth, meaning the caller should skip or
// delay searching m to avoid redundant work.
func (a *ABDADA) ShouldDefer(posKey uint64, m board.Move, depth int) bool {
	if depth < deferDepth {
		return false
	}
	hash := abdadaHash(posKey, m)
	idx := hash % abdadaSize
	for way := 0; way < abdadaWays; way++ {
		slot := &a.slots[idx][way]
		if slot.hash.Load() == hash && slot.depth.Load() >= int32(depth) {
			return true
		}
	}
	return false
}

// TryStartSearch reserves (posKey, m) for the caller's search at depth.
// Call EndSearch with the same arguments once the search of m completes.
func (a *ABDADA) TryStartSearch(posKey uint64, m board.Move, depth int) {
	hash := abdadaHash(posKey, m)
	idx := hash % abdadaSize

	for way := 0; way < abdadaWays; way++ {
		slot := &a.slots[idx][way]
		if slot.hash.Load() == 0 && slot.hash.CompareAndSwap(0, hash) {
			slot.depth.Store(int32(depth))
			return
		}
	}
	// No free way in this set: overwrite the first. ABDADA tolerates the
	// occasional false defer or false non-defer this causes under contention.
	a.slots[idx][0].hash.Store(hash)
	a.slots[idx][0].depth.Store(int32(depth))
}

// EndSearch releases the reservation made by TryStartSearch.
func (a *ABDADA) EndSearch(posKey uint64, m board.Move) {
	hash := abdadaHash(posKey, m)
	idx := hash % abdadaSize
	for way := 0; way < abdadaWays; way++ {
		slot := &a.slots[idx][way]
		if slot.hash.Load() == hash {
			slot.hash.Store(0)
			slot.depth.Store(0)
		}
	}
}
