package search

import (
	"chessforge/board"
	"chessforge/ordering"
	"chessforge/see"
)

// quiescence resolves captures (and, when in check, all evasions) beyond
// the main search's horizon so that the leaf score reported to the parent
// isn't a mid-exchange illusion. maxDepth bounds recursion so a forcing
// sequence with no natural end still terminates.
func (s *Searcher) quiescence(pos *board.Board, alpha, beta int32, pv *pvLine, ply int, maxDepth int) int32 {
	s.nodes.Add(1)
	if int32(ply) > s.selDepth.Load() {
		s.selDepth.Store(int32(ply))
	}
	if s.stopped() {
		return 0
	}

	inCheck := pos.InCheck(pos.SideToMove())
	standPat := int32(s.Eval.Evaluate(pos))

	if !inCheck {
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	bestScore := standPat
	if inCheck {
		bestScore = -MateScore
	}

	if maxDepth <= 0 {
		return bestScore
	}

	var moves []board.Move
	var scored []ordering.ScoredMove
	if inCheck {
		moves = pos.GenerateLegalMoves()
		scored = ordering.ScoreMoves(pos, moves, ply, 0, 0, s.Tables, s.Cfg.SEEGoodCaptureThreshold)
	} else {
		moves = pos.GenerateCaptures()
		scored = ordering.ScoreCaptures(pos, moves, 0)
	}

	var childPV pvLine
	searched := 0
	for i := range scored {
		ordering.OrderNext(scored, i)
		m := scored[i].Move

		if !inCheck {
			seeScore := see.Evaluate(pos, m)
			if seeScore < -qSeeMargin {
				continue
			}

			gain := int32(0)
			if m.IsCapture() {
				captured := pos.PieceAt(m.To()).Type()
				if m.IsEnPassant() {
					captured = board.PieceTypePawn
				}
				gain = int32(see.PieceValue[captured])
			}
			if promo := m.PromotionPieceType(); promo != board.PieceTypeNone {
				gain += int32(see.PieceValue[promo] - see.PieceValue[board.PieceTypePawn])
			}
			if standPat+gain+deltaMargin < alpha {
				continue
			}
		}

		ok, undo := pos.MakeMove(m)
		if !ok {
			continue
		}
		searched++
		score := -s.quiescence(pos, -beta, -alpha, &childPV, ply+1, maxDepth-1)
		pos.UnmakeMove(m, undo)

		if score > bestScore {
			bestScore = score
		}
		if score >= beta {
			return score
		}
		if score > alpha {
			alpha = score
			pv.Update(m, childPV)
		}
		childPV.Clear()
	}

	if inCheck && searched == 0 {
		return -MateScore + int32(ply)
	}

	return bestScore
}
