package search

import (
	"chessforge/board"
	"chessforge/ordering"
	"chessforge/see"
	"chessforge/ttable"
)

// rootSearch kicks off the node search at ply 0 and hands the result back
// to the iterative-deepening loop in Search.
func (s *Searcher) rootSearch(pos *board.Board, alpha, beta int32, depth int, pv *pvLine, clk *clock) int32 {
	return s.negamax(pos, alpha, beta, depth, 0, pv, 0, false, false, 0, clk)
}

// negamax is the core alpha-beta node: check/singular/null-move/razoring/
// ProbCut/futility pruning, PVS with late-move reductions, and the
// transposition-table probe/store that ties a search together across
// iterations and across workers.
func (s *Searcher) negamax(pos *board.Board, alpha, beta int32, depth, ply int, pv *pvLine, prevMove board.Move, didNull, isExtended bool, excludedMove board.Move, clk *clock) int32 {
	s.nodes.Add(1)
	if int32(ply) > s.selDepth.Load() {
		s.selDepth.Store(int32(ply))
	}
	if s.nodes.Load()&2047 == 0 && clk.expired() {
		s.Stop()
	}
	if s.stopped() {
		return 0
	}

	isRoot := ply == 0
	isPVNode := beta-alpha > 1

	if ply >= int(MaxPly) {
		return int32(s.Eval.Evaluate(pos))
	}

	posHash := pos.Hash()

	if !isRoot {
		if s.isDraw(pos) {
			return DrawScore
		}
		if alpha < DrawScore && s.isUpcomingRepetition(pos) {
			alpha = DrawScore
		}
	}

	// Record this node's position on the in-search path so that a
	// descendant reaching the same position again can detect the
	// repetition, then unwind it on every return path out of this call.
	s.path = append(s.path, posHash)
	defer func() { s.path = s.path[:len(s.path)-1] }()

	inCheck := pos.InCheck(pos.SideToMove())
	if inCheck && s.Cfg.UseCheckExtension {
		depth++
	}

	if depth <= 0 {
		return s.quiescence(pos, alpha, beta, pv, ply, 24)
	}

	var ttMove board.Move
	var bestMove board.Move
	var staticScore int32

	res, hit := s.TT.Probe(posHash, ply)
	usable := false
	if hit {
		ttMove = res.Move
		usable = ttUsable(res, depth, alpha, beta, excludedMove, ttMove)
	}

	if usable && !isRoot && !isPVNode {
		return res.Score
	}

	if hit {
		staticScore = res.Score
		bestMove = ttMove
	} else {
		staticScore = int32(s.Eval.Evaluate(pos))
	}

	improving := ply >= 2 && !inCheck && staticScore > alpha

	// Razoring: a hopeless-looking quiet position at shallow depth drops
	// straight into quiescence rather than spending a full node on it.
	if s.Cfg.UseRazoring && !inCheck && !isPVNode && !isRoot && depth <= 2 && depth >= 1 {
		margin := razorMargins[depth]
		if staticScore+margin < alpha {
			qScore := s.quiescence(pos, alpha, beta, pv, ply, 24)
			if qScore < alpha {
				return qScore
			}
		}
	}

	// Reverse futility / static null move pruning.
	if s.Cfg.UseFutility && !inCheck && !isPVNode && !isRoot && depth <= rfpPruneDepth && depth >= 1 && abs32(beta) < MateThreshold {
		margin := rfpMargins[depth]
		if !improving {
			margin -= 50
		}
		if staticScore-margin >= beta {
			s.TT.Store(posHash, ply, ttMove, staticScore-margin, depth, ttable.FlagLower)
			return staticScore - margin
		}
	}

	// Null-move pruning.
	if s.Cfg.UseNullMove && !inCheck && !isPVNode && !isRoot && !didNull && depth >= nullMoveMinDepth && sideHasNonPawnMaterial(pos) {
		st := pos.MakeNullMove()
		var childPV pvLine
		r := 3
		score := -s.negamax(pos, -beta, -beta+1, depth-1-r, ply+1, &childPV, bestMove, true, isExtended, 0, clk)
		pos.UnmakeNullMove(st)

		if score >= beta && score < MateThreshold {
			s.TT.Store(posHash, ply, ttMove, score, depth, ttable.FlagLower)
			return beta
		}
	}

	// Singular extension: a TT-backed move that is clearly better than
	// every alternative earns an extra ply of search depth.
	var singular bool
	if s.Cfg.UseSingularExtension && !isPVNode && !isRoot && !inCheck && !didNull && !isExtended && depth >= singularMinDepth &&
		ttMove != 0 && res.Flag == ttable.FlagExact && res.Depth >= depth-3 {
		ttValue := res.Score
		if ttValue < MateThreshold && ttValue > -MateThreshold {
			margin := int32(50 + 10*depth)
			target := ttValue - margin
			r := 3 + depth/4
			if r > depth-1 {
				r = depth - 1
			}
			var verifyPV pvLine
			score := s.negamax(pos, target-1, target, depth-1-r, ply, &verifyPV, prevMove, didNull, true, ttMove, clk)
			if score < target {
				singular = true
			}
		}
	}

	// ProbCut: a shallow, shifted-window search over good captures that
	// blows well past beta is confirmed by a second, deeper search before it
	// is trusted: a depth-2 probe, then a depth-1 re-search to confirm.
	if s.Cfg.UseProbCut && !inCheck && !isPVNode && !isRoot && depth >= probCutMinDepth && abs32(beta) < MateThreshold {
		probCutBeta := beta + probCutMargin
		captures := pos.GenerateCaptures()
		for _, m := range captures {
			if see.Evaluate(pos, m) < int(probCutBeta-staticScore) {
				continue
			}
			ok, undo := pos.MakeMove(m)
			if !ok {
				continue
			}
			var probePV pvLine
			probeScore := -s.negamax(pos, -probCutBeta, -probCutBeta+1, depth-2, ply+1, &probePV, m, false, isExtended, 0, clk)
			if probeScore >= probCutBeta {
				var verifyPV pvLine
				verifyScore := -s.negamax(pos, -probCutBeta, -probCutBeta+1, depth-1, ply+1, &verifyPV, m, false, isExtended, 0, clk)
				if verifyScore >= probCutBeta {
					pos.UnmakeMove(m, undo)
					s.TT.Store(posHash, ply, m, verifyScore, depth, ttable.FlagLower)
					return beta
				}
			}
			pos.UnmakeMove(m, undo)
		}
	}

	// Internal iterative deepening: no TT move at a depth worth having
	// one, so do a reduced search purely to populate the TT move for
	// ordering.
	if ttMove == 0 && depth >= iidMinDepth && !didNull && !isExtended {
		reduced := depth - 2
		if depth >= 8 {
			reduced = depth - depth/4
		}
		var iidPV pvLine
		s.negamax(pos, alpha, beta, reduced, ply, &iidPV, prevMove, false, true, 0, clk)
		if res2, ok := s.TT.Probe(posHash, ply); ok && res2.Move != 0 {
			ttMove = res2.Move
			bestMove = ttMove
		}
	}

	var moves []board.Move
	if isRoot && len(s.RootMoves) > 0 {
		moves = s.RootMoves
	} else {
		moves = pos.GenerateLegalMoves()
	}
	if len(moves) == 0 {
		if inCheck {
			return -MateScore + int32(ply)
		}
		return DrawScore
	}

	scored := ordering.ScoreMoves(pos, moves, ply, ttMove, prevMove, s.Tables, s.Cfg.SEEGoodCaptureThreshold)

	bestScore := -MateScore
	flag := ttable.FlagUpper
	legal := 0
	quietsTried := make([]board.Move, 0, 16)

	var childPV pvLine
	for i := range scored {
		ordering.OrderNext(scored, i)
		m := scored[i].Move
		if m == excludedMove {
			continue
		}

		isCapture := m.IsCapture()
		isPromo := m.PromotionPieceType() != board.PieceTypeNone
		givesCheck := pos.GivesCheck(m)
		tactical := isCapture || isPromo || givesCheck
		legal++

		if depth <= lateMovePruneDepth && !isPVNode && !isRoot && !tactical && legal > 1 {
			margin := lmpMargins[min8(depth, len(lmpMargins)-1)]
			if !improving {
				margin = margin * 2 / 3
			}
			if margin > 0 && legal > margin {
				continue
			}
		}

		if s.Cfg.UseFutility && depth <= futilityPruneDepth && depth >= 1 && !givesCheck && !isPVNode && !isRoot && !tactical && abs32(alpha) < MateThreshold {
			margin := futilityMargins[depth]
			if !improving {
				margin -= 50
			}
			if staticScore+margin <= alpha {
				continue
			}
		}

		// History pruning: a quiet move already past the ordering list's
		// first few entries at shallow depth, whose history score shows it
		// has rarely paid off, is skipped outright rather than searched.
		if !tactical && !isPVNode && !isRoot && !givesCheck && len(quietsTried) > s.Cfg.HistPruneMinQuietIndex &&
			depth <= s.Cfg.HistPruneMaxDepth && depth >= 1 {
			side := pos.SideToMove()
			if s.Tables.History[side][m.From()][m.To()] < s.Cfg.HistPruneThreshold {
				continue
			}
		}

		if isCapture && depth <= seePruneDepth && !isPVNode && see.Evaluate(pos, m) < seePruneMargin {
			continue
		}

		if s.ABDADA != nil && legal > 1 && s.ABDADA.ShouldDefer(posHash, m, depth) {
			continue
		}

		if !isCapture {
			quietsTried = append(quietsTried, m)
		}

		if s.ABDADA != nil {
			s.ABDADA.TryStartSearch(posHash, m, depth)
		}
		ok, undo := pos.MakeMove(m)
		if !ok {
			if s.ABDADA != nil {
				s.ABDADA.EndSearch(posHash, m)
			}
			legal--
			continue
		}

		extendMove := !isExtended && m == ttMove && singular
		nextExtended := isExtended || extendMove

		var score int32
		if legal == 1 {
			nextDepth := nextDepthFor(depth-1, 0, extendMove)
			score = -s.negamax(pos, -beta, -alpha, nextDepth, ply+1, &childPV, m, false, nextExtended, 0, clk)
		} else {
			side := pos.SideToMove().Opponent()
			historyScore := s.Tables.History[side][m.From()][m.To()]
			isKiller := m == s.Tables.Killers[clampPly(ply)][0] || m == s.Tables.Killers[clampPly(ply)][1]

			var reduction int8
			if depth >= lmrDepthLimit && legal >= lmrMoveLimit && !givesCheck && !tactical {
				reduction = computeLMRReduction(depth, legal, i, isPVNode, tactical, historyScore, isKiller)
			}
			score = s.searchWithPVS(pos, m, depth-1, reduction, alpha, beta, ply, extendMove, nextExtended, &childPV, clk)
		}

		pos.UnmakeMove(m, undo)
		if s.ABDADA != nil {
			s.ABDADA.EndSearch(posHash, m)
		}

		if s.stopped() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
		}

		if score >= beta {
			flag = ttable.FlagLower
			if !isCapture {
				s.Tables.InsertKiller(ply, m)
				if prevMove != 0 {
					s.Tables.StoreCounter(pos.SideToMove(), prevMove, m)
				}
				s.Tables.IncrementHistory(pos.SideToMove(), m, depth)
				for _, failed := range quietsTried {
					if failed != m {
						s.Tables.DecrementHistory(pos.SideToMove(), failed)
					}
				}
			}
			break
		}

		if score > alpha {
			alpha = score
			flag = ttable.FlagExact
			pv.Update(m, childPV)
			if !isCapture {
				s.Tables.IncrementHistory(pos.SideToMove(), m, depth)
			}
		}
		childPV.Clear()
	}

	if legal == 0 {
		if inCheck {
			return -MateScore + int32(ply)
		}
		return DrawScore
	}

	if !s.stopped() {
		s.TT.Store(posHash, ply, bestMove, bestScore, depth, flag)
	}

	return bestScore
}

// searchWithPVS implements the 3-stage principal-variation search: a
// reduced-depth null-window probe, an optional full-depth null-window
// re-search if the probe beat alpha, and a full-window search if the result
// still falls strictly inside (alpha, beta).
func (s *Searcher) searchWithPVS(pos *board.Board, m board.Move, baseDepth int, reduction int8, alpha, beta int32, ply int, extendMove, nextExtended bool, childPV *pvLine, clk *clock) int32 {
	nextDepth := nextDepthFor(baseDepth, reduction, extendMove)
	score := -s.negamax(pos, -(alpha + 1), -alpha, nextDepth, ply+1, childPV, m, false, nextExtended, 0, clk)

	if score > alpha && reduction > 0 {
		nextDepth = nextDepthFor(baseDepth, 0, extendMove)
		score = -s.negamax(pos, -(alpha + 1), -alpha, nextDepth, ply+1, childPV, m, false, nextExtended, 0, clk)
	}

	if score > alpha && score < beta {
		nextDepth = nextDepthFor(baseDepth, 0, extendMove)
		score = -s.negamax(pos, -beta, -alpha, nextDepth, ply+1, childPV, m, false, nextExtended, 0, clk)
	}

	return score
}

func nextDepthFor(base int, reduction int8, extend bool) int {
	d := base - int(reduction)
	if extend && reduction == 0 {
		d++
	}
	return d
}

func ttUsable(res ttable.Result, depth int, alpha, beta int32, excludedMove, ttMove board.Move) bool {
	if excludedMove != 0 && ttMove == excludedMove {
		return false
	}
	if res.Depth < depth {
		return false
	}
	switch res.Flag {
	case ttable.FlagExact:
		return true
	case ttable.FlagUpper:
		return res.Score <= alpha
	case ttable.FlagLower:
		return res.Score >= beta
	}
	return false
}

func sideHasNonPawnMaterial(pos *board.Board) bool {
	bbs := pos.Bitboards(pos.SideToMove())
	return bbs.Knights|bbs.Bishops|bbs.Rooks|bbs.Queens != 0
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func min8(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampPly(ply int) int {
	if ply < 0 {
		return 0
	}
	if ply >= ordering.MaxPly {
		return ordering.MaxPly - 1
	}
	return ply
}

// isDraw reports whether the current position is a draw by the 50-move rule
// or threefold repetition across the game history plus the moves played so
// far within this search.
func (s *Searcher) isDraw(pos *board.Board) bool {
	if pos.IsDrawBy50() {
		return true
	}
	return pos.IsDrawByRepetition(s.combinedHistory())
}

// isUpcomingRepetition is a cheap, approximate check used only to bias alpha
// toward a draw score near a repetition, not to prove one: treating a single
// earlier occurrence as "the opponent can probably repeat" avoids losing a
// theoretically drawn line to the horizon effect.
func (s *Searcher) isUpcomingRepetition(pos *board.Board) bool {
	target := pos.Hash()
	h := s.combinedHistory()
	for i := 0; i < len(h); i++ {
		if h[i] == target {
			return true
		}
	}
	return false
}

func (s *Searcher) combinedHistory() []uint64 {
	if len(s.path) == 0 {
		return s.history
	}
	return append(append([]uint64{}, s.history...), s.path...)
}
