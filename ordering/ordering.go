// Package ordering scores and orders generated moves so that the strongest
// candidates are searched first: the principal-variation move, then the
// counter-move, then captures and promotions that SEE rates good, then
// killers, then SEE-losing captures, then quiet moves by history.
package ordering

import (
	"golang.org/x/exp/constraints"

	"chessforge/board"
	"chessforge/see"
)

// MaxPly bounds the killer table; a search that reaches this deep treats
// every further ply as the deepest one for killer-move purposes.
const MaxPly = 128

// Move ordering offsets, one tier per row of the move-ordering table: TT
// move, counter-move, good captures (SEE at or above the threshold), killers,
// bad captures (SEE below the threshold), then plain quiets scored by
// history alone. Each tier's base is far enough above the next that a
// capture's SEE value or a history score can never cross into the tier
// below or above it.
const (
	pvOffset          int32 = 1000000
	counterOffset     int32 = 900000
	goodCaptureOffset int32 = 800000
	killerOffset      int32 = 700000
	badCaptureOffset  int32 = 600000
)

// mvvLva scores a capture by [victim][attacker]: the more valuable the
// victim and the cheaper the attacker, the higher the score, so a pawn
// taking a queen is searched long before a queen taking a pawn.
var mvvLva = [7][7]int32{
	{0, 0, 0, 0, 0, 0, 0},
	{0, 14, 13, 12, 11, 10, 0}, // victim pawn
	{0, 24, 23, 22, 21, 20, 0}, // victim knight
	{0, 34, 33, 32, 31, 30, 0}, // victim bishop
	{0, 44, 43, 42, 41, 40, 0}, // victim rook
	{0, 54, 53, 52, 51, 50, 0}, // victim queen
	{0, 0, 0, 0, 0, 0, 0},      // victim king (never a legal capture target)
}

const historyMaxVal = 2000

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tables holds the ordering state that should persist across a single
// search: killer moves per ply, a history score per side/from/to, and the
// last move that refuted each counter-move. Kept per-search-worker rather
// than as package globals, so concurrent workers never share or corrupt
// each other's heuristics.
type Tables struct {
	Killers [MaxPly][2]board.Move
	History [2][64][64]int32
	Counter [2][64][64]board.Move
}

// NewTables returns a freshly zeroed ordering table set.
func NewTables() *Tables { return &Tables{} }

// InsertKiller records m as a killer at ply, bumping the existing primary
// killer down to secondary.
func (t *Tables) InsertKiller(ply int, m board.Move) {
	ply = clamp(ply, 0, MaxPly-1)
	if m != t.Killers[ply][0] {
		t.Killers[ply][1] = t.Killers[ply][0]
		t.Killers[ply][0] = m
	}
}

// ClearKillers empties the killer table, typically between searches of
// unrelated positions.
func (t *Tables) ClearKillers() {
	for ply := range t.Killers {
		t.Killers[ply][0] = 0
		t.Killers[ply][1] = 0
	}
}

// StoreCounter records m as the reply that refuted prevMove for side.
func (t *Tables) StoreCounter(side board.Color, prevMove, m board.Move) {
	t.Counter[side][prevMove.From()][prevMove.To()] = m
}

// IncrementHistory rewards a quiet move that caused a beta cutoff, weighted
// by depth squared so cutoffs found deep in the tree count for more. Ages
// the whole table down once a slot nears the cap, to keep stale history
// from dominating forever.
func (t *Tables) IncrementHistory(side board.Color, m board.Move, depth int) {
	h := &t.History[side][m.From()][m.To()]
	*h += int32(depth * depth)
	if *h >= historyMaxVal {
		t.ageHistory(side)
	}
}

// DecrementHistory penalizes a quiet move that was tried but did not cut off.
func (t *Tables) DecrementHistory(side board.Color, m board.Move) {
	h := &t.History[side][m.From()][m.To()]
	if *h > 0 {
		*h /= 4
	}
}

func (t *Tables) ageHistory(side board.Color) {
	for from := 0; from < 64; from++ {
		for to := 0; to < 64; to++ {
			t.History[side][from][to] /= 8
		}
	}
}

// ClearHistory zeroes the history table for both sides.
func (t *Tables) ClearHistory() {
	t.History = [2][64][64]int32{}
}

// Score assigns m a priority for move ordering at ply, given the current
// position, the principal-variation move (if any), and the move that was
// just played one ply up (for counter-move lookup). seeThreshold is the
// "good capture" SEE cutoff (Section 6's SEE threshold option): captures
// and promotions scoring at or above it rank above killers, below it rank
// below killers, following the move-ordering table's tiering exactly.
func Score(pos *board.Board, m board.Move, ply int, pvMove, prevMove board.Move, t *Tables, seeThreshold int32) int32 {
	if m == pvMove {
		return pvOffset + 1500
	}

	side := pos.SideToMove()
	if prevMove != 0 && t.Counter[side][prevMove.From()][prevMove.To()] == m {
		return counterOffset
	}

	promo := m.PromotionPieceType()
	if m.IsCapture() || promo != board.PieceTypeNone {
		seeValue := int32(see.Evaluate(pos, m))
		if promo != board.PieceTypeNone {
			seeValue += int32(see.PieceValue[promo])
		}
		if seeValue >= seeThreshold {
			return goodCaptureOffset + seeValue
		}
		return badCaptureOffset + seeValue
	}

	p := clamp(ply, 0, MaxPly-1)
	switch m {
	case t.Killers[p][0]:
		return killerOffset + 200
	case t.Killers[p][1]:
		return killerOffset
	}

	return t.History[side][m.From()][m.To()]
}

// ScoredMove pairs a move with its ordering score.
type ScoredMove struct {
	Move  board.Move
	Score int32
}

// ScoreMoves scores every move in moves for ordering at ply.
func ScoreMoves(pos *board.Board, moves []board.Move, ply int, pvMove, prevMove board.Move, t *Tables, seeThreshold int32) []ScoredMove {
	scored := make([]ScoredMove, len(moves))
	for i, m := range moves {
		scored[i] = ScoredMove{Move: m, Score: Score(pos, m, ply, pvMove, prevMove, t, seeThreshold)}
	}
	return scored
}

// ScoreCaptures scores only the capturing and promoting moves in moves,
// for quiescence search move ordering. pvMove, if present among moves, is
// boosted above plain MVV-LVA ordering. Attacker and victim types are read
// off pos, since a capture's move word no longer carries them.
func ScoreCaptures(pos *board.Board, moves []board.Move, pvMove board.Move) []ScoredMove {
	scored := make([]ScoredMove, 0, len(moves))
	for _, m := range moves {
		promo := m.PromotionPieceType()
		if !m.IsCapture() && promo == board.PieceTypeNone {
			continue
		}

		var score int32
		switch {
		case m == pvMove:
			score = goodCaptureOffset + 256
		case promo != board.PieceTypeNone:
			score = goodCaptureOffset + 75
		default:
			captured := pos.PieceAt(m.To()).Type()
			if m.IsEnPassant() {
				captured = board.PieceTypePawn
			}
			attacker := pos.PieceAt(m.From()).Type()
			score = mvvLva[captured][attacker]
		}
		scored = append(scored, ScoredMove{Move: m, Score: score})
	}
	return scored
}

// OrderNext selects the highest-scoring move at or after idx and swaps it
// into position idx. Sorting one pick at a time like this, rather than
// fully sorting up front, pays off because a beta cutoff usually ends the
// move loop long before the later, lower-scoring moves are ever looked at.
func OrderNext(moves []ScoredMove, idx int) {
	best := idx
	for i := idx + 1; i < len(moves); i++ {
		if moves[i].Score > moves[best].Score {
			best = i
		}
	}
	moves[idx], moves[best] = moves[best], moves[idx]
}
