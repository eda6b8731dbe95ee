package search

import (
	"time"

	"chessforge/board"
)

// Safety knobs for turning a UCI time control into a soft/hard deadline for
// the current move, mirroring the overhead/floor/ceiling clamps a UCI engine
// applies so it never loses on time due to GC pauses or I/O jitter.
const (
	moveOverhead   = 30 * time.Millisecond
	minMoveTime    = 5 * time.Millisecond
	maxTimeFrac    = 0.7
	panicThreshold = 1000 * time.Millisecond
	panicIncFrac   = 0.9
)

// clock tracks the soft deadline (when iterative deepening should stop
// starting new iterations) and the hard deadline (when a mid-iteration
// search must abort immediately), plus best-move stability across
// iterations so an unstable search can borrow extra time.
type clock struct {
	started    time.Time
	soft       time.Time
	hard       time.Time
	usingDepth bool // depth/node-bounded search: clock never triggers a stop

	prevBest    board.Move
	stableIters int
	extended    bool
}

// newClock derives soft/hard deadlines for the side to move from limits.
// When limits specifies neither a clock nor a move time, the search runs
// under Depth/Nodes/Infinite control only and the clock never stops it.
func newClock(limits Limits, side board.Color, movesPlayed int) clock {
	now := timeNow()
	c := clock{started: now}

	if limits.MoveTime > 0 {
		budget := limits.MoveTime - moveOverhead
		if budget < minMoveTime {
			budget = minMoveTime
		}
		c.soft = now.Add(budget)
		c.hard = c.soft
		return c
	}

	remaining, inc := limits.WhiteTime, limits.WhiteInc
	if side == board.Black {
		remaining, inc = limits.BlackTime, limits.BlackInc
	}
	if remaining <= 0 {
		c.usingDepth = true
		return c
	}

	movesLeft := estimateMovesRemaining(movesPlayed)

	var budget time.Duration
	switch {
	case inc > 0 && remaining < panicThreshold:
		budget = time.Duration(float64(inc) * panicIncFrac)
	case inc > 0:
		budget = remaining/time.Duration(movesLeft) + inc
	default:
		budget = remaining / 40
	}

	if budget < minMoveTime {
		budget = minMoveTime
	}
	if ceiling := time.Duration(float64(remaining) * maxTimeFrac); budget > ceiling {
		budget = ceiling
	}
	if budget > remaining-moveOverhead {
		budget = remaining - moveOverhead
	}
	if budget < minMoveTime {
		budget = minMoveTime
	}

	c.soft = now.Add(budget)
	c.hard = now.Add(budget * 3)
	return c
}

// estimateMovesRemaining guesses how many moves are left in the game from
// how many have been played, linearly interpolating toward a 20-move
// endgame horizon.
func estimateMovesRemaining(movesPlayed int) int {
	left := 45 - movesPlayed
	if left < 20 {
		left = 20
	}
	if left > 45 {
		left = 45
	}
	return left
}

// expired reports whether the hard deadline has passed; a search must abort
// immediately when this is true.
func (c *clock) expired() bool {
	if c.usingDepth {
		return false
	}
	return !c.hard.IsZero() && timeNow().After(c.hard)
}

// shouldStopIteration reports whether iterative deepening should avoid
// starting another, deeper iteration.
func (c *clock) shouldStopIteration() bool {
	if c.usingDepth {
		return false
	}
	if c.soft.IsZero() {
		return false
	}
	deadline := c.soft
	if c.extended {
		deadline = c.hard
	}
	return timeNow().After(deadline)
}

// updateStability tracks whether the best move changed between iterations;
// an unstable best move earns one extension of the soft deadline out toward
// the hard deadline.
func (c *clock) updateStability(best board.Move) {
	if best == c.prevBest {
		c.stableIters++
	} else {
		c.stableIters = 0
		c.prevBest = best
	}
}

// shouldExtend reports whether instability justifies extending the
// deadline, and extend performs the extension exactly once per search.
func (c *clock) shouldExtend() bool {
	return !c.extended && c.stableIters == 0 && !c.usingDepth && !c.soft.IsZero()
}

func (c *clock) extend() {
	c.extended = true
}

// timeNow is a thin indirection so tests can't be accidentally tempted to
// call time.Now() directly inside search logic that otherwise stays pure.
func timeNow() time.Time { return time.Now() }
