// Package search implements iterative-deepening alpha-beta search over a
// chessforge/board position: the node algorithm (extensions, pruning,
// reductions, PVS), quiescence search, and the time/aspiration-window
// control loop that drives them from the root.
package search

import (
	"time"

	"chessforge/board"
)

// Score scale. MateScore anchors "found mate", MateThreshold is the boundary
// above which a score is treated as a mate distance rather than material.
const (
	MaxPly        int32 = 128
	MateScore     int32 = 32500
	MateThreshold int32 = 20000
	DrawScore     int32 = 0
)

// Limits describes how long/deep a single Search call is allowed to run.
// A zero value means "no limit on that dimension"; at least one of Depth,
// Nodes, MoveTime, or the clock fields should be set, or Infinite, or the
// search will run until ctx is cancelled.
type Limits struct {
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	WhiteTime time.Duration
	BlackTime time.Duration
	WhiteInc  time.Duration
	BlackInc  time.Duration
	MovesToGo int
	Infinite  bool
}

// Info is one iteration's worth of search progress, suitable for reporting
// as a UCI `info` line or for programmatic inspection.
type Info struct {
	Depth    int
	SelDepth int
	Score    int32
	Mate     bool
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int
}

// BestMove returns the move at the head of the PV, or the zero move if the
// search never completed a single node.
func (i Info) BestMove() board.Move {
	if len(i.PV) == 0 {
		return 0
	}
	return i.PV[0]
}

// Config holds every node-algorithm toggle and tunable margin that Section 6
// exposes as a `set_option`: a worker reads these fields on every node, so
// flipping one through the options layer takes effect on the very next
// search without rebuilding the Searcher.
type Config struct {
	UseNullMove          bool
	UseFutility          bool
	UseRazoring          bool
	UseAspiration        bool
	UseSingularExtension bool
	UseProbCut           bool
	UseCheckExtension    bool

	// SEEGoodCaptureThreshold is the cutoff (centipawns) ordering.Score uses
	// to split captures into the "good" and "bad" move-ordering tiers.
	SEEGoodCaptureThreshold int32

	// History-pruning knobs: a quiet move past HistPruneMinQuietIndex in the
	// ordered move list, at depth <= HistPruneMaxDepth, whose history score
	// is below HistPruneThreshold is skipped without being searched.
	HistPruneMinQuietIndex int
	HistPruneThreshold     int32
	HistPruneMaxDepth      int
}

// DefaultConfig returns Section 6's documented defaults: every pruning and
// extension technique enabled, a neutral SEE good-capture threshold, and
// history pruning active only past the fourth quiet move at shallow depth.
func DefaultConfig() Config {
	return Config{
		UseNullMove:             true,
		UseFutility:             true,
		UseRazoring:             true,
		UseAspiration:           true,
		UseSingularExtension:    true,
		UseProbCut:              true,
		UseCheckExtension:       true,
		SEEGoodCaptureThreshold: 0,
		HistPruneMinQuietIndex:  4,
		HistPruneThreshold:      -2000,
		HistPruneMaxDepth:       6,
	}
}
