// Package see implements static exchange evaluation: the material result of
// a sequence of captures on one square, assuming both sides always recapture
// with their least valuable attacker.
package see

import (
	"math/bits"

	"chessforge/board"
)

// PieceValue gives the material value SEE uses for each piece type, indexed
// by board.PieceType. Deliberately coarser than eval's tapered values: SEE
// only needs a consistent ordering to pick the least valuable attacker.
var PieceValue = [7]int{
	board.PieceTypeNone:   0,
	board.PieceTypePawn:   100,
	board.PieceTypeKnight: 300,
	board.PieceTypeBishop: 300,
	board.PieceTypeRook:   500,
	board.PieceTypeQueen:  900,
	board.PieceTypeKing:   20000,
}

func sqBit(sq board.Square) uint64 { return uint64(1) << uint(sq) }

// Evaluate runs the exchange on m's target square and returns the net
// material gain for the side making m, assuming the losing side always
// stops trading once it would come out behind.
func Evaluate(b *board.Board, m board.Move) int {
	target := m.To()
	from := m.From()

	targetType := board.PieceTypePawn
	if !m.IsEnPassant() {
		targetType = b.PieceAt(target).Type()
	}

	occ := b.AllOccupancy()
	occ &^= sqBit(from)
	if m.IsEnPassant() {
		var capSq board.Square
		if b.SideToMove() == board.White {
			capSq = target - 8
		} else {
			capSq = target + 8
		}
		occ &^= sqBit(capSq)
	}

	var gain [32]int
	gain[0] = PieceValue[targetType]

	side := b.SideToMove().Opponent()
	attacker := b.PieceAt(from).Type()
	attackerBB := sqBit(from)

	depth := 0
	for attackerBB != 0 {
		depth++
		gain[depth] = PieceValue[attacker] - gain[depth-1]
		if max(-gain[depth-1], gain[depth]) < 0 {
			break
		}

		occ &^= attackerBB
		sq, pt, ok := closestAttacker(b, occ, target, side)
		if ok {
			attackerBB = sqBit(sq)
			attacker = pt
		} else {
			attackerBB = 0
		}
		side = side.Opponent()
	}

	for x := depth - 1; x > 0; x-- {
		gain[x-1] = -max(-gain[x-1], gain[x])
	}

	return gain[0]
}

// closestAttacker finds side's least valuable piece attacking target given
// occ, recomputing sliding attacks against occ on every call so that once a
// blocker is "used" and cleared from occ, the piece behind it is revealed on
// the very next lookup, without a separate xray-handling pass.
func closestAttacker(b *board.Board, occ uint64, target board.Square, side board.Color) (board.Square, board.PieceType, bool) {
	bbs := b.Bitboards(side)
	pawns := bbs.Pawns & occ
	knights := bbs.Knights & occ
	bishops := bbs.Bishops & occ
	rooks := bbs.Rooks & occ
	queens := bbs.Queens & occ
	kings := bbs.Kings & occ

	if a := board.PawnAttacks(side.Opponent(), target) & pawns; a != 0 {
		return board.Square(bits.TrailingZeros64(a)), board.PieceTypePawn, true
	}
	if a := board.KnightAttacks(target) & knights; a != 0 {
		return board.Square(bits.TrailingZeros64(a)), board.PieceTypeKnight, true
	}
	if a := board.BishopAttacks(target, occ) & bishops; a != 0 {
		return board.Square(bits.TrailingZeros64(a)), board.PieceTypeBishop, true
	}
	if a := board.RookAttacks(target, occ) & rooks; a != 0 {
		return board.Square(bits.TrailingZeros64(a)), board.PieceTypeRook, true
	}
	if a := board.QueenAttacks(target, occ) & queens; a != 0 {
		return board.Square(bits.TrailingZeros64(a)), board.PieceTypeQueen, true
	}
	if a := board.KingAttacks(target) & kings; a != 0 {
		return board.Square(bits.TrailingZeros64(a)), board.PieceTypeKing, true
	}
	return board.NoSquare, board.PieceTypeNone, false
}
