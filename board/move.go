package board

import (
	"math/bits"
	"strings"
)

// Move packs a move into a 16-bit value: from[6] to[6] flag[4]. The flag
// alone distinguishes the move's shape — quiet, capture, double pawn push,
// the two castle sides, en passant, and the eight promotion variants (one
// quiet and one capturing flag per promoted piece type) — so no other
// field carries move-shape information; a mover's identity and whatever it
// captures are read off the board at the square in question, not carried
// in the move itself.
type Move uint16

const (
	moveFromShift = 0
	moveToShift   = 6
	moveFlagShift = 12
)

// MoveFlag is the move's shape: the fourteen variants the move-ordering and
// make/unmake logic ever need to distinguish.
type MoveFlag uint8

const (
	FlagQuiet MoveFlag = iota
	FlagCapture
	FlagDoublePush
	FlagKingCastle
	FlagQueenCastle
	FlagEnPassant
	FlagPromoKnight
	FlagPromoBishop
	FlagPromoRook
	FlagPromoQueen
	FlagPromoCaptureKnight
	FlagPromoCaptureBishop
	FlagPromoCaptureRook
	FlagPromoCaptureQueen
)

// NewMove packs from, to, and flag into a Move.
func NewMove(from, to Square, flag MoveFlag) Move {
	return Move(uint16(from&0x3F) | (uint16(to&0x3F) << moveToShift) | (uint16(flag&0xF) << moveFlagShift))
}

func (m Move) From() Square   { return Square((uint16(m) >> moveFromShift) & 0x3F) }
func (m Move) To() Square     { return Square((uint16(m) >> moveToShift) & 0x3F) }
func (m Move) Flag() MoveFlag { return MoveFlag((uint16(m) >> moveFlagShift) & 0xF) }

// promotionTypeOf maps a promotion flag to the piece type it promotes to,
// PieceTypeNone for every non-promoting flag.
var promotionTypeOf = [...]PieceType{
	FlagQuiet:             PieceTypeNone,
	FlagCapture:           PieceTypeNone,
	FlagDoublePush:        PieceTypeNone,
	FlagKingCastle:        PieceTypeNone,
	FlagQueenCastle:       PieceTypeNone,
	FlagEnPassant:         PieceTypeNone,
	FlagPromoKnight:       PieceTypeKnight,
	FlagPromoBishop:       PieceTypeBishop,
	FlagPromoRook:         PieceTypeRook,
	FlagPromoQueen:        PieceTypeQueen,
	FlagPromoCaptureKnight: PieceTypeKnight,
	FlagPromoCaptureBishop: PieceTypeBishop,
	FlagPromoCaptureRook:   PieceTypeRook,
	FlagPromoCaptureQueen:  PieceTypeQueen,
}

// quietPromoFlagOf and capturePromoFlagOf map a promoted piece type to the
// matching quiet/capturing promotion flag, for move generation.
var quietPromoFlagOf = [...]MoveFlag{
	PieceTypeKnight: FlagPromoKnight,
	PieceTypeBishop: FlagPromoBishop,
	PieceTypeRook:   FlagPromoRook,
	PieceTypeQueen:  FlagPromoQueen,
}

var capturePromoFlagOf = [...]MoveFlag{
	PieceTypeKnight: FlagPromoCaptureKnight,
	PieceTypeBishop: FlagPromoCaptureBishop,
	PieceTypeRook:   FlagPromoCaptureRook,
	PieceTypeQueen:  FlagPromoCaptureQueen,
}

// PromotionPieceType is the colorless type the pawn promotes to, or
// PieceTypeNone if m does not promote.
func (m Move) PromotionPieceType() PieceType { return promotionTypeOf[m.Flag()] }

// IsPromotion reports whether m promotes a pawn.
func (m Move) IsPromotion() bool { return promotionTypeOf[m.Flag()] != PieceTypeNone }

// IsCapture reports whether m removes an enemy piece from the board,
// including en passant and capturing promotions.
func (m Move) IsCapture() bool {
	switch m.Flag() {
	case FlagCapture, FlagEnPassant,
		FlagPromoCaptureKnight, FlagPromoCaptureBishop, FlagPromoCaptureRook, FlagPromoCaptureQueen:
		return true
	}
	return false
}

// IsEnPassant reports whether m is an en passant capture.
func (m Move) IsEnPassant() bool { return m.Flag() == FlagEnPassant }

// IsDoublePush reports whether m is a two-square pawn push.
func (m Move) IsDoublePush() bool { return m.Flag() == FlagDoublePush }

// IsKingCastle and IsQueenCastle report which side, if any, m castles toward.
func (m Move) IsKingCastle() bool  { return m.Flag() == FlagKingCastle }
func (m Move) IsQueenCastle() bool { return m.Flag() == FlagQueenCastle }

// IsCastle reports whether m is either castling move.
func (m Move) IsCastle() bool { return m.IsKingCastle() || m.IsQueenCastle() }

// String renders the move in UCI long algebraic form, e.g. "e2e4", "e7e8q".
func (m Move) String() string {
	from, to := m.From(), m.To()

	fileFrom, rankFrom := from%8, from/8
	fileTo, rankTo := to%8, to/8

	s := string([]byte{'a' + byte(fileFrom), '1' + byte(rankFrom)}) +
		string([]byte{'a' + byte(fileTo), '1' + byte(rankTo)})
	if promo := m.PromotionPieceType(); promo != PieceTypeNone {
		s += strings.ToLower(string(charFromPiece(PieceFromType(Black, promo))))
	}
	return s
}

// GivesCheck reports whether m, assumed legal for the side to move, puts the
// opponent's king in check. It simulates the resulting bitboards without
// mutating the board; the moved and captured pieces are read off the
// pre-move board state at m's endpoints rather than carried in m itself.
func (b *Board) GivesCheck(m Move) bool {
	us := int(b.sideToMove)
	them := 1 - us

	kingBB := b.kings[them]
	if kingBB == 0 {
		return false
	}
	ksq := bits.TrailingZeros64(kingBB)

	from, to := m.From(), m.To()
	moved := b.pieces[int(from)]
	captured := b.pieces[int(to)]
	promo := m.PromotionPieceType()

	fromBB := uint64(1) << uint(from)
	toBB := uint64(1) << uint(to)

	pawnsUs := b.pawns[us]
	knightsUs := b.knights[us]
	bishopsUs := b.bishops[us]
	rooksUs := b.rooks[us]
	queensUs := b.queens[us]
	kingsUs := b.kings[us]

	occUs := b.occupancy[us]
	occThem := b.occupancy[them]

	if m.IsEnPassant() {
		var capSq Square
		if b.sideToMove == White {
			capSq = to - 8
		} else {
			capSq = to + 8
		}
		occThem &^= uint64(1) << uint(capSq)
	} else if captured != NoPiece {
		occThem &^= toBB
	}

	occUs &^= fromBB
	switch moved.Type() {
	case PieceTypePawn:
		pawnsUs &^= fromBB
	case PieceTypeKnight:
		knightsUs &^= fromBB
	case PieceTypeBishop:
		bishopsUs &^= fromBB
	case PieceTypeRook:
		rooksUs &^= fromBB
	case PieceTypeQueen:
		queensUs &^= fromBB
	case PieceTypeKing:
		kingsUs &^= fromBB
	}

	pieceTo := moved
	if promo != PieceTypeNone {
		pieceTo = PieceFromType(b.sideToMove, promo)
	}
	occUs |= toBB
	switch pieceTo.Type() {
	case PieceTypePawn:
		pawnsUs |= toBB
	case PieceTypeKnight:
		knightsUs |= toBB
	case PieceTypeBishop:
		bishopsUs |= toBB
	case PieceTypeRook:
		rooksUs |= toBB
	case PieceTypeQueen:
		queensUs |= toBB
	case PieceTypeKing:
		kingsUs |= toBB
	}

	if m.IsCastle() {
		rFrom, rTo := NoSquare, NoSquare
		if b.sideToMove == White {
			if m.IsKingCastle() {
				rFrom, rTo = 7, 5
			} else {
				rFrom, rTo = 0, 3
			}
		} else {
			if m.IsKingCastle() {
				rFrom, rTo = 63, 61
			} else {
				rFrom, rTo = 56, 59
			}
		}
		rFromBB := uint64(1) << uint(rFrom)
		rToBB := uint64(1) << uint(rTo)
		rooksUs &^= rFromBB
		occUs &^= rFromBB
		rooksUs |= rToBB
		occUs |= rToBB
	}

	occAll := occUs | occThem

	if b.sideToMove == White {
		if pawnAttacks[Black][ksq]&pawnsUs != 0 {
			return true
		}
	} else {
		if pawnAttacks[White][ksq]&pawnsUs != 0 {
			return true
		}
	}

	if knightMoves[ksq]&knightsUs != 0 {
		return true
	}
	if kingMoves[ksq]&kingsUs != 0 {
		return true
	}

	rq := rooksUs | queensUs
	if rq != 0 {
		if blockers := rookRays[ksq][0] & occAll; blockers != 0 {
			if (blockers & -blockers) & rq != 0 {
				return true
			}
		}
		if blockers := rookRays[ksq][1] & occAll; blockers != 0 {
			first := 63 - bits.LeadingZeros64(blockers)
			if (uint64(1)<<uint(first))&rq != 0 {
				return true
			}
		}
		if blockers := rookRays[ksq][2] & occAll; blockers != 0 {
			if (blockers & -blockers) & rq != 0 {
				return true
			}
		}
		if blockers := rookRays[ksq][3] & occAll; blockers != 0 {
			first := 63 - bits.LeadingZeros64(blockers)
			if (uint64(1)<<uint(first))&rq != 0 {
				return true
			}
		}
	}

	bq := bishopsUs | queensUs
	if bq != 0 {
		if blockers := bishopRays[ksq][0] & occAll; blockers != 0 {
			if (blockers & -blockers) & bq != 0 {
				return true
			}
		}
		if blockers := bishopRays[ksq][1] & occAll; blockers != 0 {
			if (blockers & -blockers) & bq != 0 {
				return true
			}
		}
		if blockers := bishopRays[ksq][2] & occAll; blockers != 0 {
			first := 63 - bits.LeadingZeros64(blockers)
			if (uint64(1)<<uint(first))&bq != 0 {
				return true
			}
		}
		if blockers := bishopRays[ksq][3] & occAll; blockers != 0 {
			first := 63 - bits.LeadingZeros64(blockers)
			if (uint64(1)<<uint(first))&bq != 0 {
				return true
			}
		}
	}

	return false
}
