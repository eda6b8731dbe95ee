package search

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"chessforge/board"
	"chessforge/eval"
	"chessforge/ordering"
	"chessforge/ttable"
)

// Depth-indexed pruning margins. Index 0 is unused (depth 0 never reaches
// these checks; it falls into quiescence first).
var (
	futilityMargins = [9]int32{0, 120, 220, 320, 420, 520, 620, 720, 820}
	rfpMargins      = [9]int32{0, 100, 200, 300, 400, 500, 600, 700, 800}
	razorMargins    = [3]int32{0, 125, 225}
	lmpMargins      = [9]int{0, 3, 5, 9, 14, 20, 27, 35, 44}
)

const (
	nullMoveMinDepth    = 3
	seePruneDepth       = 8
	seePruneMargin      = -20
	qSeeMargin          = 100
	deltaMargin         = 200
	aspirationWindow    = int32(40)
	singularMinDepth    = 8
	probCutMinDepth     = 5
	probCutMargin       = int32(100)
	iidMinDepth         = 5
	lateMovePruneDepth  = 8
	futilityPruneDepth  = 7
	rfpPruneDepth       = 7
	aspirationMinIteration = AspirationMinIteration
)

// AspirationMinIteration is the iterative-deepening depth at which aspiration
// windows first narrow the search. Exported so parallel's work-stealing
// driver, which owns its own outer iteration loop over a shared split point,
// gates its window the same way Searcher.Search does.
const AspirationMinIteration = 4

// clampScore keeps an aspiration bound from overshooting past mate scores.
func clampScore(v int32) int32 {
	if v > MateScore {
		return MateScore
	}
	if v < -MateScore {
		return -MateScore
	}
	return v
}

// Searcher runs iterative-deepening alpha-beta search for a single worker.
// Every mutable piece of state search.go's teacher kept as a package global
// (the TT, killer table, history table, node counter, stop flag) lives here
// instead, as a field — constructed once per worker and passed down through
// the call tree, so concurrent workers in the parallel package never share
// or corrupt each other's heuristics.
type Searcher struct {
	ID     int
	TT     *ttable.Table
	ABDADA *ttable.ABDADA
	Eval   eval.Evaluator
	Tables *ordering.Tables
	Log    zerolog.Logger
	Cfg    Config

	// AspirationBias shifts this worker's initial iterative-deepening
	// window away from the previous iteration's score, in centipawns. The
	// parallel package's LazySMP driver sets this per worker (i·Δ,
	// alternating sign by parity) so helper threads explore windows other
	// than the one the main thread is already covering.
	AspirationBias int32
	// DepthStagger adds to the iteration depth this worker starts counting
	// from, so that LazySMP helper threads search a few plies ahead of (or
	// behind) the main thread rather than all retracing the same ground.
	DepthStagger int

	// RootMoves, when non-empty, restricts the move loop at ply 0 to this
	// subset instead of every legal move. The parallel package does not set
	// it: its work-stealing driver hands root moves out from a shared split
	// point and searches each one through SearchOnce.
	RootMoves []board.Move

	nodes    atomic.Uint64
	selDepth atomic.Int32
	stop     atomic.Bool

	history []uint64 // Zobrist keys of the game so far, for repetition detection
	path    []uint64 // Zobrist keys visited so far *within this search*
}

// NewSearcher builds a worker-local searcher sharing tt/ev across workers
// (both are internally concurrency-safe) but owning its own ordering tables.
func NewSearcher(id int, tt *ttable.Table, ab *ttable.ABDADA, ev eval.Evaluator, logger zerolog.Logger) *Searcher {
	return &Searcher{
		ID:     id,
		TT:     tt,
		ABDADA: ab,
		Eval:   ev,
		Tables: ordering.NewTables(),
		Log:    logger,
		Cfg:    DefaultConfig(),
	}
}

// Stop requests that any in-progress or future Search call on this Searcher
// return as soon as possible. Safe to call from another goroutine.
func (s *Searcher) Stop() { s.stop.Store(true) }

func (s *Searcher) stopped() bool { return s.stop.Load() }

// Nodes returns the number of nodes visited by the most recent (or
// in-progress) Search call.
func (s *Searcher) Nodes() uint64 { return s.nodes.Load() }

// SelDepth returns the deepest ply reached by the most recent (or
// in-progress) Search or SearchOnce call.
func (s *Searcher) SelDepth() int { return int(s.selDepth.Load()) }

// Search runs iterative deepening from pos until limits or ctx stop it, and
// returns the deepest completed iteration's result (or the best partial
// result found before a hard stop mid-iteration).
func (s *Searcher) Search(ctx context.Context, pos *board.Board, history []uint64, limits Limits) Info {
	s.stop.Store(false)
	s.nodes.Store(0)
	s.selDepth.Store(0)
	s.history = history
	s.path = s.path[:0]
	s.TT.NewGeneration()

	clk := newClock(limits, pos.SideToMove(), pos.FullmoveNumber())
	if limits.Infinite {
		clk.usingDepth = true
	}

	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth > maxSearchDepth {
		maxDepth = maxSearchDepth
	}

	startDepth := 1
	if s.DepthStagger > 0 {
		startDepth += s.DepthStagger
		if startDepth > maxDepth {
			startDepth = maxDepth
		}
	}

	var (
		best      Info
		bestPV    pvLine
		alpha     = -MateScore
		beta      = MateScore
		prevScore int32
	)

	done := make(chan struct{})
	defer close(done)
	go s.watchContext(ctx, done)

	retrying := false
	for depth := startDepth; depth <= maxDepth; depth++ {
		if depth > startDepth && !retrying {
			if limits.Nodes > 0 && s.nodes.Load() >= limits.Nodes {
				break
			}
			if clk.shouldStopIteration() {
				break
			}
		}
		retrying = false

		if s.Cfg.UseAspiration && depth >= aspirationMinIteration {
			if alpha == -MateScore && beta == MateScore {
				alpha = clampScore(prevScore - aspirationWindow + s.AspirationBias)
				beta = clampScore(prevScore + aspirationWindow + s.AspirationBias)
			}
		} else {
			alpha = -MateScore
			beta = MateScore
		}

		var pv pvLine
		score := s.rootSearch(pos, alpha, beta, depth, &pv, &clk)

		if s.stopped() || clk.expired() {
			break
		}

		// Aspiration window failed: widen asymmetrically in the direction of
		// the failure and redo this depth.
		if s.Cfg.UseAspiration && depth >= aspirationMinIteration && (score <= alpha || score >= beta) {
			if score <= alpha {
				alpha = clampScore(alpha - 2*(beta-alpha))
			} else {
				beta = clampScore(beta + 2*(beta-alpha))
			}
			prevScore = score
			depth--
			retrying = true
			continue
		}

		alpha = -MateScore
		beta = MateScore
		prevScore = score
		bestPV = pv

		clk.updateStability(pv.BestMove())
		if clk.shouldExtend() {
			clk.extend()
		}

		stats := s.TT.Stats()
		best = Info{
			Depth:    depth,
			SelDepth: int(s.selDepth.Load()),
			Score:    score,
			Mate:     score > MateThreshold || score < -MateThreshold,
			Nodes:    s.nodes.Load(),
			PV:       append([]board.Move(nil), pv.Moves()...),
			HashFull: stats.HashFull,
		}
		s.Log.Info().
			Int("depth", depth).
			Int32("score", score).
			Uint64("nodes", best.Nodes).
			Int("hashfull", stats.HashFull).
			Msg("search iteration complete")

		if best.Mate {
			break
		}
	}

	if len(best.PV) == 0 {
		// Never completed a single iteration (e.g. hard stop at depth 1):
		// fall back to whatever the unfinished root PV has, or the first
		// legal move as an absolute last resort.
		if bestPV.n > 0 {
			best.PV = append([]board.Move(nil), bestPV.Moves()...)
		} else if moves := pos.GenerateLegalMoves(); len(moves) > 0 {
			best.PV = []board.Move{moves[0]}
		}
	}
	return best
}

// SearchOnce runs a single fixed-depth root search with the given window,
// without the iterative-deepening/aspiration-widening loop Search owns. The
// parallel package's work-stealing driver uses this directly: it owns the
// per-depth loop and the shared alpha itself, and for each root move a worker
// pulls from the split point it makes the move and calls SearchOnce on the
// resulting position one ply shallower.
func (s *Searcher) SearchOnce(pos *board.Board, history []uint64, alpha, beta int32, depth int) (score int32, pv []board.Move) {
	s.history = history
	s.path = s.path[:0]

	clk := newClock(Limits{}, pos.SideToMove(), pos.FullmoveNumber())
	var line pvLine
	score = s.rootSearch(pos, alpha, beta, depth, &line, &clk)
	return score, line.Moves()
}

// watchContext stops the search if ctx is cancelled, since context
// cancellation is the idiomatic Go way to interrupt the UCI `stop` command
// propagates through.
func (s *Searcher) watchContext(ctx context.Context, done <-chan struct{}) {
	select {
	case <-ctx.Done():
		s.Stop()
	case <-done:
	}
}
