// Package parallel drives the search across multiple worker goroutines
// sharing one transposition table and evaluator, in either of the two modes
// the engine supports: LazySMP (independent iterative-deepening workers) and
// work-stealing (a single iterative-deepening loop whose root move list is
// partitioned across workers at every depth). Both are orchestrated with
// golang.org/x/sync/errgroup, the idiomatic Go rendition of the split
// point's "wait on a completion event" step.
package parallel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chessforge/board"
	"chessforge/eval"
	"chessforge/search"
	"chessforge/ttable"
)

// Mode selects how the driver spreads search work across its workers.
type Mode int

const (
	WorkStealing Mode = iota
	LazySMP
)

// Result is what the driver hands back once the search stops: the deepest
// completed iteration's move, score, and supporting statistics.
type Result struct {
	BestMove    board.Move
	PonderMove  board.Move
	Score       int32
	Depth       int
	SelDepth    int
	Nodes       uint64
	Time        time.Duration
	PV          []board.Move
	HashFull    int
}

// InfoFunc receives search.Info records for the protocol layer's UCI `info`
// lines. The multi-threaded work-stealing driver calls it once per completed
// depth; a single-threaded search and LazySMP call it once, with the final
// result, after the search has stopped.
type InfoFunc func(search.Info)

// Driver owns the shared transposition table, ABDADA side table, and
// evaluator, and spins up per-call worker Searchers over them.
type Driver struct {
	TT     *ttable.Table
	ABDADA *ttable.ABDADA
	Eval   eval.Evaluator
	Log    zerolog.Logger

	Threads int
	Mode    Mode

	// Cfg is applied to every worker's Searcher before a run.
	Cfg search.Config

	// SplitMinDepth and SplitMinMoves are the work-stealing split-point
	// thresholds: below either, the driver just runs a single worker over
	// the whole move list rather than partitioning it.
	SplitMinDepth int
	SplitMinMoves int

	// LazySMPDelta is the per-worker aspiration-window offset step (Δ),
	// in centipawns, used only in LazySMP mode.
	LazySMPDelta int32
}

// New returns a Driver with the documented defaults (1 thread, work-stealing,
// default search.Config), sharing tt/ab/ev.
func New(tt *ttable.Table, ab *ttable.ABDADA, ev eval.Evaluator, logger zerolog.Logger) *Driver {
	return &Driver{
		TT:            tt,
		ABDADA:        ab,
		Eval:          ev,
		Log:           logger,
		Threads:       1,
		Mode:          WorkStealing,
		Cfg:           search.DefaultConfig(),
		SplitMinDepth: 5,
		SplitMinMoves: 4,
		LazySMPDelta:  25,
	}
}

func (d *Driver) newWorker(id int) *search.Searcher {
	w := search.NewSearcher(id, d.TT, d.ABDADA, d.Eval, d.Log)
	w.Cfg = d.Cfg
	return w
}

// Search runs the configured number of threads over pos until limits or ctx
// stops the search, and returns the deepest completed iteration's result.
// onInfo, if non-nil, is called as InfoFunc describes: once per completed
// depth in multi-threaded work-stealing mode, otherwise once at the end.
func (d *Driver) Search(ctx context.Context, pos *board.Board, history []uint64, limits search.Limits, onInfo InfoFunc) Result {
	start := time.Now()

	threads := d.Threads
	if threads < 1 {
		threads = 1
	}

	var info search.Info
	if threads == 1 {
		w := d.newWorker(0)
		info = w.Search(ctx, pos, history, limits)
		if onInfo != nil {
			onInfo(info)
		}
	} else if d.Mode == LazySMP {
		info = d.searchLazySMP(ctx, pos, history, limits, threads, onInfo)
	} else {
		info = d.searchWorkStealing(ctx, pos, history, limits, threads, onInfo)
	}

	res := Result{
		BestMove: info.BestMove(),
		Score:    info.Score,
		Depth:    info.Depth,
		SelDepth: info.SelDepth,
		Nodes:    info.Nodes,
		Time:     time.Since(start),
		PV:       info.PV,
		HashFull: info.HashFull,
	}
	if len(res.PV) > 1 {
		res.PonderMove = res.PV[1]
	}
	return res
}

// searchLazySMP runs `threads` independent Searchers over clones of pos, all
// sharing the driver's TT/ABDADA/Eval. Helper workers are biased in starting
// depth and aspiration window so they explore ground the main worker (index
// 0) has not already covered. Once every worker has stopped, the result of
// the worker that completed the greatest depth is reported, the lowest
// worker index winning ties.
func (d *Driver) searchLazySMP(ctx context.Context, pos *board.Board, history []uint64, limits search.Limits, threads int, onInfo InfoFunc) search.Info {
	g, gctx := errgroup.WithContext(ctx)

	results := make([]search.Info, threads)
	for i := 0; i < threads; i++ {
		i := i
		w := d.newWorker(i)
		w.DepthStagger = i % 4
		if i > 0 {
			delta := d.LazySMPDelta * int32(i)
			if i%2 == 0 {
				w.AspirationBias = delta
			} else {
				w.AspirationBias = -delta
			}
		}
		posCopy := *pos
		g.Go(func() error {
			results[i] = w.Search(gctx, &posCopy, history, limits)
			return nil
		})
	}

	g.Wait()

	best := results[0]
	for i := 1; i < threads; i++ {
		if results[i].Depth > best.Depth {
			best = results[i]
		}
	}
	if onInfo != nil {
		onInfo(best)
	}
	return best
}

// splitPoint is the shared state workers pull root moves from and publish
// results into: a queue of remaining moves (drained by atomic index), a
// narrowing alpha bound, and a cutoff flag a beta-raising result sets to
// stop the remaining workers from pulling further moves.
type splitPoint struct {
	moves []board.Move
	next  atomic.Int64

	mu        sync.Mutex
	alpha     int32
	bestScore int32
	bestMove  board.Move
	bestPV    []board.Move
	cutoff    atomic.Bool
}

func newSplitPoint(moves []board.Move, alpha int32) *splitPoint {
	return &splitPoint{moves: moves, alpha: alpha, bestScore: -search.MateScore}
}

func (sp *splitPoint) pull() (board.Move, bool) {
	if sp.cutoff.Load() {
		return 0, false
	}
	idx := sp.next.Add(1) - 1
	if idx >= int64(len(sp.moves)) {
		return 0, false
	}
	return sp.moves[idx], true
}

func (sp *splitPoint) currentAlpha() int32 {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.alpha
}

// publish records a worker's result for move m, narrowing alpha if the score
// improved on it and raising the cutoff flag if it reached beta.
func (sp *splitPoint) publish(m board.Move, score int32, pv []board.Move, beta int32) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if score > sp.bestScore {
		sp.bestScore = score
		sp.bestMove = m
		sp.bestPV = append([]board.Move{m}, pv...)
	}
	if score > sp.alpha {
		sp.alpha = score
	}
	if score >= beta {
		sp.cutoff.Store(true)
	}
}

// searchWorkStealing owns its own iterative-deepening/aspiration loop over
// the shared split point, calling search.Searcher.SearchOnce per worker per
// depth instead of letting each worker run its own full Search. Below the
// split thresholds, or with only one legal root move, it falls back to a
// single worker over the whole list.
func (d *Driver) searchWorkStealing(ctx context.Context, pos *board.Board, history []uint64, limits search.Limits, threads int, onInfo InfoFunc) search.Info {
	rootMoves := pos.GenerateLegalMoves()
	if len(rootMoves) == 0 {
		return search.Info{}
	}

	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth > 100 {
		maxDepth = 100
	}
	if len(rootMoves) < d.SplitMinMoves {
		w := d.newWorker(0)
		return w.Search(ctx, pos, history, limits)
	}

	var best search.Info
	alpha, beta := -search.MateScore, search.MateScore
	window := int32(40)
	var prevScore int32
	retrying := false

	deadline, hasDeadline := deadlineFromLimits(limits, pos)

	for depth := 1; depth <= maxDepth; depth++ {
		if ctx.Err() != nil {
			break
		}
		if hasDeadline && time.Now().After(deadline) {
			break
		}
		if retrying {
			retrying = false
		} else if depth >= search.AspirationMinIteration && d.Cfg.UseAspiration {
			alpha = prevScore - window
			beta = prevScore + window
		} else {
			alpha, beta = -search.MateScore, search.MateScore
		}

		if depth < d.SplitMinDepth {
			w := d.newWorker(0)
			score, pv := w.SearchOnce(pos, history, alpha, beta, depth)
			best = search.Info{Depth: depth, SelDepth: w.SelDepth(), Score: score, PV: pv, Nodes: w.Nodes()}
			prevScore = score
			if onInfo != nil {
				onInfo(best)
			}
			continue
		}

		sp := newSplitPoint(rootMoves, alpha)
		g := errgroup.Group{}
		var totalNodes atomic.Uint64
		var maxSelDepth atomic.Int32

		for t := 0; t < threads; t++ {
			t := t
			w := d.newWorker(t)
			posCopy := *pos
			g.Go(func() error {
				for {
					m, ok := sp.pull()
					if !ok {
						return nil
					}
					a := sp.currentAlpha()
					applied, undo := posCopy.MakeMove(m)
					if !applied {
						continue
					}
					childScore, childPV := w.SearchOnce(&posCopy, history, -beta, -a, depth-1)
					score := -childScore
					posCopy.UnmakeMove(m, undo)
					sp.publish(m, score, childPV, beta)
					totalNodes.Add(w.Nodes())
					if sd := int32(w.SelDepth()); sd > maxSelDepth.Load() {
						maxSelDepth.Store(sd)
					}
				}
			})
		}
		g.Wait()

		score := sp.bestScore
		pv := sp.bestPV
		if len(pv) == 0 {
			pv = []board.Move{sp.bestMove}
		}

		if score <= alpha || score >= beta {
			span := beta - alpha
			if score <= alpha {
				alpha -= 2 * span
			} else {
				beta += 2 * span
			}
			if alpha < -search.MateScore {
				alpha = -search.MateScore
			}
			if beta > search.MateScore {
				beta = search.MateScore
			}
			depth--
			prevScore = score
			retrying = true
			continue
		}
		alpha, beta = -search.MateScore, search.MateScore
		window = 40
		prevScore = score

		best = search.Info{Depth: depth, SelDepth: int(maxSelDepth.Load()), Score: score, PV: pv, Nodes: totalNodes.Load()}
		if onInfo != nil {
			onInfo(best)
		}
	}

	return best
}

func deadlineFromLimits(limits search.Limits, pos *board.Board) (time.Time, bool) {
	if limits.MoveTime > 0 {
		return time.Now().Add(limits.MoveTime), true
	}
	remaining := limits.WhiteTime
	if pos.SideToMove() == board.Black {
		remaining = limits.BlackTime
	}
	if remaining > 0 {
		return time.Now().Add(remaining / 30), true
	}
	return time.Time{}, false
}

// Stats reports the shared transposition table's current occupancy and
// probe statistics, suitable for a UCI `info string` line.
func (d *Driver) Stats() ttable.Stats { return d.TT.Stats() }
