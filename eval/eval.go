// Package eval provides static position evaluation: a pluggable Evaluator
// interface plus one concrete implementation (tapered material, piece-square
// tables, mobility, bishop pair, and doubled/isolated pawn penalties) that
// the search package calls to turn a leaf position into a centipawn score.
// Search treats the evaluator purely as a collaborator behind the interface;
// building a stronger one (fuller pawn structure, king safety, endgame
// knowledge, NNUE) is a separate concern
// from the search algorithm itself.
package eval

import (
	"math/bits"

	"golang.org/x/sync/singleflight"

	"chessforge/board"
)

// Evaluator scores a position from the side-to-move's perspective: positive
// means the side to move is better off.
type Evaluator interface {
	Evaluate(pos *board.Board) int
}

// Game-phase weights used to taper between midgame and endgame tables.
const (
	knightPhase = 1
	bishopPhase = 1
	rookPhase   = 2
	queenPhase  = 4
	totalPhase  = knightPhase*4 + bishopPhase*4 + rookPhase*4 + queenPhase*2
)

// pieceValueMG and pieceValueEG are indexed by board.PieceType.
var pieceValueMG = [7]int{
	board.PieceTypeKing: 0, board.PieceTypePawn: 88, board.PieceTypeKnight: 316,
	board.PieceTypeBishop: 331, board.PieceTypeRook: 494, board.PieceTypeQueen: 993,
}
var pieceValueEG = [7]int{
	board.PieceTypeKing: 0, board.PieceTypePawn: 111, board.PieceTypeKnight: 305,
	board.PieceTypeBishop: 333, board.PieceTypeRook: 535, board.PieceTypeQueen: 963,
}

var mobilityValueMG = [7]int{
	board.PieceTypeKnight: 2, board.PieceTypeBishop: 3, board.PieceTypeRook: 2, board.PieceTypeQueen: 1,
}
var mobilityValueEG = [7]int{
	board.PieceTypeKnight: 3, board.PieceTypeBishop: 2, board.PieceTypeRook: 4, board.PieceTypeQueen: 4,
}

const (
	bishopPairBonusMG = 10
	bishopPairBonusEG = 50
)

// psqtMG and psqtEG are piece-square tables indexed [pieceType][square],
// square 0 = a1, from White's perspective; Black's contribution mirrors the
// square vertically before lookup.
var psqtMG = [7][64]int{
	board.PieceTypePawn: {
		0, 0, 0, 0, 0, 0, 0, 0,
		-46, -41, -42, -39, -40, -12, 1, -21,
		-51, -52, -45, -45, -37, -37, -20, -30,
		-46, -40, -33, -33, -23, -26, -15, -30,
		-36, -27, -27, -11, 1, 2, -4, -21,
		-33, -6, 7, 13, 27, 57, 19, -11,
		57, 54, 55, 54, 46, 32, 4, 9,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	board.PieceTypeKnight: {
		-24, -28, -46, -30, -25, -21, -27, -40,
		-35, -32, -18, -10, -14, -12, -20, -18,
		-25, -8, -4, 6, 7, -1, -1, -17,
		-14, -1, 8, 5, 13, 10, 26, -1,
		-5, 8, 30, 35, 24, 43, 19, 22,
		-21, 12, 40, 49, 67, 64, 37, 14,
		-17, -12, 20, 33, 33, 37, -8, 3,
		-61, -6, -12, -2, 1, -6, -1, -16,
	},
	board.PieceTypeBishop: {
		4, -2, -15, -21, -18, -8, -8, 2,
		4, 8, 11, -2, 1, 5, 20, 11,
		-2, 11, 8, 13, 10, 8, 10, 13,
		-7, 10, 15, 21, 26, 11, 10, 7,
		-4, 22, 24, 49, 34, 37, 20, 6,
		4, 18, 36, 36, 47, 55, 37, 24,
		-22, 6, 3, -7, 4, 14, -3, 8,
		-27, -8, -13, -12, -8, -21, 1, -10,
	},
	board.PieceTypeRook: {
		-46, -41, -37, -34, -36, -40, -19, -42,
		-71, -45, -44, -43, -47, -37, -25, -51,
		-60, -46, -50, -44, -47, -48, -21, -38,
		-49, -45, -43, -35, -37, -34, -13, -29,
		-33, -21, -11, 6, 0, 7, 8, 2,
		-22, 10, 4, 25, 41, 38, 44, 20,
		-3, -5, 16, 28, 31, 37, 9, 30,
		23, 22, 19, 24, 23, 20, 21, 34,
	},
	board.PieceTypeQueen: {
		-6, -17, -12, -3, -6, -28, -27, -12,
		-11, -4, 2, -2, -1, 7, 8, -7,
		-8, -1, -2, -4, -4, -1, 8, 7,
		-5, -3, -2, -6, -6, 10, 7, 16,
		-11, -6, -2, -1, 12, 22, 26, 26,
		-13, -6, -1, 14, 36, 58, 71, 42,
		-11, -40, 5, 5, 20, 44, -2, 27,
		0, 16, 21, 29, 36, 38, 25, 36,
	},
	board.PieceTypeKing: {
		-4, 36, -1, -69, -23, -74, 19, 26,
		12, 0, -18, -53, -33, -39, 7, 25,
		-6, -4, -3, -11, -6, -8, 4, -15,
		-1, 8, 16, 10, 15, 12, 23, -9,
		0, 9, 16, 10, 13, 15, 15, -8,
		1, 11, 12, 9, 8, 14, 12, 0,
		-2, 6, 6, 2, 3, 4, 3, -2,
		-1, 0, 0, 2, 0, 0, 0, -2,
	},
}

var psqtEG = [7][64]int{
	board.PieceTypePawn: {
		0, 0, 0, 0, 0, 0, 0, 0,
		-9, -8, -4, -2, 7, 2, -14, -29,
		-16, -17, -13, -12, -9, -12, -26, -29,
		-8, -10, -19, -18, -19, -17, -22, -21,
		3, -2, -5, -23, -16, -14, -10, -12,
		21, 22, 21, 22, 22, 11, 25, 17,
		75, 69, 58, 48, 43, 43, 55, 63,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	board.PieceTypeKnight: {
		-29, -60, -26, -18, -20, -28, -48, -30,
		-28, -13, -13, -6, -4, -16, -18, -31,
		-38, -3, 6, 19, 18, 5, -2, -33,
		-15, 11, 32, 36, 34, 35, 16, -9,
		-11, 14, 28, 43, 48, 36, 28, -1,
		-20, 6, 24, 26, 20, 31, 12, -11,
		-25, -12, 1, 21, 19, -3, -9, -16,
		-41, -11, 2, 0, 1, 4, -4, -17,
	},
	board.PieceTypeBishop: {
		-28, -16, -38, -14, -19, -24, -21, -20,
		-10, -20, -12, -4, -5, -18, -18, -33,
		-12, -1, 7, 10, 8, 3, -11, -11,
		-5, 6, 17, 18, 15, 14, 4, -10,
		0, 11, 12, 17, 24, 15, 19, 3,
		-5, 8, 11, 11, 13, 19, 12, 3,
		-7, 7, 10, 11, 12, 10, 12, -6,
		1, 5, 5, 8, 4, 0, 2, 2,
	},
	board.PieceTypeRook: {
		-10, 0, 5, 5, 3, 3, -1, -18,
		-8, -10, -3, -6, -5, -11, -14, -10,
		-2, 7, 8, 5, 4, 3, -1, -8,
		13, 25, 26, 22, 20, 18, 12, 6,
		25, 27, 30, 26, 23, 20, 16, 16,
		34, 24, 32, 25, 17, 24, 14, 18,
		36, 42, 40, 41, 40, 23, 28, 22,
		32, 37, 40, 37, 38, 42, 39, 37,
	},
	board.PieceTypeQueen: {
		-25, -35, -41, -48, -50, -39, -27, -9,
		-26, -24, -44, -27, -36, -62, -57, -17,
		-22, -17, 5, -10, -11, 1, -19, -14,
		-19, 5, 6, 38, 32, 30, 17, 20,
		-11, 14, 13, 42, 52, 57, 49, 33,
		-1, 3, 20, 29, 45, 56, 40, 38,
		7, 31, 25, 36, 57, 44, 28, 25,
		14, 26, 29, 38, 44, 43, 31, 33,
	},
	board.PieceTypeKing: {
		-37, -29, -20, -26, -54, -14, -35, -78,
		-15, -9, -3, 4, -2, 1, -15, -35,
		-16, -3, 7, 16, 13, 6, -8, -18,
		-16, 8, 21, 28, 25, 19, 5, -18,
		-2, 22, 29, 30, 29, 26, 20, -5,
		1, 26, 25, 19, 16, 32, 31, -1,
		-12, 14, 11, 3, 5, 10, 20, -9,
		-17, -12, -6, -1, -6, -6, -6, -14,
	},
}

// Material evaluates the tapered material + PSQT + mobility + bishop-pair +
// doubled/isolated-pawn score of a position. It is the concrete Evaluator passed to Searcher by
// default.
type Material struct {
	pawnCache group
}

// group is the pawn-structure deduplication surface: singleflight collapses
// concurrent evaluations of positions that share the identical pawn
// structure (common across LazySMP workers exploring overlapping
// subtrees) into a single computation.
type group struct {
	sf singleflight.Group
}

// NewMaterial returns a ready-to-use Material evaluator.
func NewMaterial() *Material { return &Material{} }

// Evaluate implements Evaluator.
func (m *Material) Evaluate(pos *board.Board) int {
	phase := gamePhase(pos)

	mgWhite, egWhite := m.sideScore(pos, board.White, phase)
	mgBlack, egBlack := m.sideScore(pos, board.Black, phase)

	mg := mgWhite - mgBlack
	eg := egWhite - egBlack

	score := taper(mg, eg, phase)
	if pos.SideToMove() == board.Black {
		score = -score
	}
	return score
}

func gamePhase(pos *board.Board) int {
	wb := pos.WhiteBitboards()
	bb := pos.BlackBitboards()
	phase := bits.OnesCount64(wb.Knights|bb.Knights)*knightPhase +
		bits.OnesCount64(wb.Bishops|bb.Bishops)*bishopPhase +
		bits.OnesCount64(wb.Rooks|bb.Rooks)*rookPhase +
		bits.OnesCount64(wb.Queens|bb.Queens)*queenPhase
	if phase > totalPhase {
		phase = totalPhase
	}
	return phase
}

// taper blends the midgame and endgame scores by the fraction of phase
// material still on the board.
func taper(mg, eg, phase int) int {
	return (mg*phase + eg*(totalPhase-phase)) / totalPhase
}

func (m *Material) sideScore(pos *board.Board, side board.Color, phase int) (mg, eg int) {
	bbs := pos.Bitboards(side)

	mg, eg = m.pawnStructureScore(pos, side)

	mg, eg = addPieces(mg, eg, bbs.Pawns, board.PieceTypePawn, side)
	mg, eg = addPieces(mg, eg, bbs.Knights, board.PieceTypeKnight, side)
	mg, eg = addPieces(mg, eg, bbs.Bishops, board.PieceTypeBishop, side)
	mg, eg = addPieces(mg, eg, bbs.Rooks, board.PieceTypeRook, side)
	mg, eg = addPieces(mg, eg, bbs.Queens, board.PieceTypeQueen, side)
	mg, eg = addPieces(mg, eg, bbs.Kings, board.PieceTypeKing, side)

	occ := pos.AllOccupancy()
	mgMob, egMob := mobilityScore(bbs, occ)
	mg += mgMob
	eg += egMob

	if bits.OnesCount64(bbs.Bishops) > 1 {
		mg += bishopPairBonusMG
		eg += bishopPairBonusEG
	}

	return mg, eg
}

func addPieces(mg, eg int, bb uint64, pt board.PieceType, side board.Color) (int, int) {
	for bb != 0 {
		sq := bits.TrailingZeros64(bb)
		bb &= bb - 1
		mg += pieceValueMG[pt] + psqtValue(psqtMG[pt], sq, side)
		eg += pieceValueEG[pt] + psqtValue(psqtEG[pt], sq, side)
	}
	return mg, eg
}

// psqtValue looks up table[sq] for White, or the vertically mirrored square
// for Black, since the tables above are written from White's perspective.
func psqtValue(table [64]int, sq int, side board.Color) int {
	if side == board.Black {
		sq ^= 56
	}
	return table[sq]
}

func mobilityScore(bbs board.Bitboards, occ uint64) (mg, eg int) {
	for bb := bbs.Knights; bb != 0; bb &= bb - 1 {
		sq := board.Square(bits.TrailingZeros64(bb))
		n := bits.OnesCount64(board.KnightAttacks(sq))
		mg += n * mobilityValueMG[board.PieceTypeKnight]
		eg += n * mobilityValueEG[board.PieceTypeKnight]
	}
	for bb := bbs.Bishops; bb != 0; bb &= bb - 1 {
		sq := board.Square(bits.TrailingZeros64(bb))
		n := bits.OnesCount64(board.BishopAttacks(sq, occ))
		mg += n * mobilityValueMG[board.PieceTypeBishop]
		eg += n * mobilityValueEG[board.PieceTypeBishop]
	}
	for bb := bbs.Rooks; bb != 0; bb &= bb - 1 {
		sq := board.Square(bits.TrailingZeros64(bb))
		n := bits.OnesCount64(board.RookAttacks(sq, occ))
		mg += n * mobilityValueMG[board.PieceTypeRook]
		eg += n * mobilityValueEG[board.PieceTypeRook]
	}
	for bb := bbs.Queens; bb != 0; bb &= bb - 1 {
		sq := board.Square(bits.TrailingZeros64(bb))
		n := bits.OnesCount64(board.QueenAttacks(sq, occ))
		mg += n * mobilityValueMG[board.PieceTypeQueen]
		eg += n * mobilityValueEG[board.PieceTypeQueen]
	}
	return mg, eg
}
