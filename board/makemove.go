package board

import "math/bits"

// MoveState holds what UnmakeMove needs to undo a move. moved and captured
// are snapshotted from the board at MakeMove time, since Move itself no
// longer carries piece identity — only from, to, and flag.
type MoveState struct {
	move          Move
	moved         Piece
	captured      Piece
	prevCastling  CastlingRights
	prevEnPassant Square
	prevHalfmove  int
	prevFullmove  int
	prevZobrist   uint64
	rookFrom      Square
	rookTo        Square
}

// NullState holds what UnmakeNullMove needs to undo a null move.
type NullState struct {
	prevEnPassant Square
	prevHalfmove  int
	prevFullmove  int
	prevZobrist   uint64
	prevSide      Color
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// MakeMove applies m. If it leaves the mover's king in check, the move is
// illegal: the board is restored and ok is false. The king-safety test runs
// only for king moves, en passant, and moves whose origin lies on a line
// through the mover's king; any other move is accepted without it, so a move
// that leaves an existing check in place is not rejected.
func (b *Board) MakeMove(m Move) (ok bool, st MoveState) {
	st.move = m
	st.prevCastling = b.castlingRights
	st.prevEnPassant = b.enPassantSquare
	st.prevHalfmove = b.halfmoveClock
	st.prevFullmove = b.fullmoveNumber
	st.prevZobrist = b.zobristKey
	st.rookFrom, st.rookTo = NoSquare, NoSquare
	st.captured = NoPiece

	from, to := m.From(), m.To()
	moved := b.pieces[int(from)]
	st.moved = moved
	promo := m.PromotionPieceType()

	if b.enPassantSquare != NoSquare {
		b.zobristKey ^= zobristEnPassant[int(b.enPassantSquare%8)]
	}
	b.enPassantSquare = NoSquare

	us := int(b.sideToMove)
	them := 1 - us
	fromBB := uint64(1) << uint(from)
	toBB := uint64(1) << uint(to)

	if m.IsEnPassant() {
		var capSq Square
		var capPiece Piece
		if b.sideToMove == White {
			capSq, capPiece = to-8, BlackPawn
		} else {
			capSq, capPiece = to+8, WhitePawn
		}
		st.captured = capPiece
		capBB := uint64(1) << uint(capSq)
		b.pieces[int(capSq)] = NoPiece
		b.occupancy[them] &^= capBB
		b.pawns[them] &^= capBB
		b.zobristKey ^= zobristPiece[capPiece][int(capSq)]
	} else if captured := b.pieces[int(to)]; m.IsCapture() && captured != NoPiece {
		st.captured = captured
		b.pieces[int(to)] = NoPiece
		b.occupancy[them] &^= toBB
		switch captured.Type() {
		case PieceTypePawn:
			b.pawns[them] &^= toBB
		case PieceTypeKnight:
			b.knights[them] &^= toBB
		case PieceTypeBishop:
			b.bishops[them] &^= toBB
		case PieceTypeRook:
			b.rooks[them] &^= toBB
		case PieceTypeQueen:
			b.queens[them] &^= toBB
		case PieceTypeKing:
			b.kings[them] &^= toBB
		}
		b.zobristKey ^= zobristPiece[captured][int(to)]
	}

	if promo != PieceTypeNone {
		promoPiece := PieceFromType(b.sideToMove, promo)

		b.pieces[int(from)] = NoPiece
		b.occupancy[us] &^= fromBB
		b.pawns[us] &^= fromBB
		b.zobristKey ^= zobristPiece[moved][int(from)]

		b.pieces[int(to)] = promoPiece
		b.occupancy[us] |= toBB
		switch promo {
		case PieceTypeKnight:
			b.knights[us] |= toBB
		case PieceTypeBishop:
			b.bishops[us] |= toBB
		case PieceTypeRook:
			b.rooks[us] |= toBB
		case PieceTypeQueen:
			b.queens[us] |= toBB
		}
		b.zobristKey ^= zobristPiece[promoPiece][int(to)]
	} else {
		b.pieces[int(from)] = NoPiece
		b.pieces[int(to)] = moved
		b.occupancy[us] ^= fromBB | toBB
		switch moved.Type() {
		case PieceTypePawn:
			b.pawns[us] ^= fromBB | toBB
		case PieceTypeKnight:
			b.knights[us] ^= fromBB | toBB
		case PieceTypeBishop:
			b.bishops[us] ^= fromBB | toBB
		case PieceTypeRook:
			b.rooks[us] ^= fromBB | toBB
		case PieceTypeQueen:
			b.queens[us] ^= fromBB | toBB
		case PieceTypeKing:
			b.kings[us] ^= fromBB | toBB
		}
		b.zobristKey ^= zobristPiece[moved][int(from)]
		b.zobristKey ^= zobristPiece[moved][int(to)]
	}

	if m.IsCastle() {
		if moved == WhiteKing {
			if m.IsKingCastle() {
				b.pieces[7] = NoPiece
				b.pieces[5] = WhiteRook
				rb, nb := uint64(1)<<7, uint64(1)<<5
				b.occupancy[us] ^= rb | nb
				b.rooks[us] ^= rb | nb
				b.zobristKey ^= zobristPiece[WhiteRook][7]
				b.zobristKey ^= zobristPiece[WhiteRook][5]
				st.rookFrom, st.rookTo = 7, 5
			} else {
				b.pieces[0] = NoPiece
				b.pieces[3] = WhiteRook
				rb, nb := uint64(1)<<0, uint64(1)<<3
				b.occupancy[us] ^= rb | nb
				b.rooks[us] ^= rb | nb
				b.zobristKey ^= zobristPiece[WhiteRook][0]
				b.zobristKey ^= zobristPiece[WhiteRook][3]
				st.rookFrom, st.rookTo = 0, 3
			}
		} else if moved == BlackKing {
			if m.IsKingCastle() {
				b.pieces[63] = NoPiece
				b.pieces[61] = BlackRook
				rb, nb := uint64(1)<<63, uint64(1)<<61
				b.occupancy[us] ^= rb | nb
				b.rooks[us] ^= rb | nb
				b.zobristKey ^= zobristPiece[BlackRook][63]
				b.zobristKey ^= zobristPiece[BlackRook][61]
				st.rookFrom, st.rookTo = 63, 61
			} else {
				b.pieces[56] = NoPiece
				b.pieces[59] = BlackRook
				rb, nb := uint64(1)<<56, uint64(1)<<59
				b.occupancy[us] ^= rb | nb
				b.rooks[us] ^= rb | nb
				b.zobristKey ^= zobristPiece[BlackRook][56]
				b.zobristKey ^= zobristPiece[BlackRook][59]
				st.rookFrom, st.rookTo = 56, 59
			}
		}
	}

	newCR := b.castlingRights
	switch moved {
	case WhiteKing:
		newCR &^= CastlingWhiteK | CastlingWhiteQ
	case BlackKing:
		newCR &^= CastlingBlackK | CastlingBlackQ
	}
	if moved == WhiteRook {
		if from == 0 {
			newCR &^= CastlingWhiteQ
		} else if from == 7 {
			newCR &^= CastlingWhiteK
		}
	} else if moved == BlackRook {
		if from == 56 {
			newCR &^= CastlingBlackQ
		} else if from == 63 {
			newCR &^= CastlingBlackK
		}
	}
	if st.captured != NoPiece && st.captured.Type() == PieceTypeRook {
		switch to {
		case 0:
			newCR &^= CastlingWhiteQ
		case 7:
			newCR &^= CastlingWhiteK
		case 56:
			newCR &^= CastlingBlackQ
		case 63:
			newCR &^= CastlingBlackK
		}
	}
	if newCR != b.castlingRights {
		b.zobristKey ^= zobristCastle[int(b.castlingRights)]
		b.zobristKey ^= zobristCastle[int(newCR)]
		b.castlingRights = newCR
	}

	if moved.Type() == PieceTypePawn && m.IsDoublePush() {
		var ep Square
		if b.sideToMove == White {
			ep = from + 8
		} else {
			ep = from - 8
		}
		b.enPassantSquare = ep
		b.zobristKey ^= zobristEnPassant[int(ep%8)]
	}

	b.sideToMove = 1 - b.sideToMove
	b.zobristKey ^= zobristSide

	moverColor := 1 - b.sideToMove
	occ := b.occupancy[0] | b.occupancy[1]
	kingBB := b.kings[int(moverColor)]
	if kingBB == 0 {
		b.UnmakeMove(m, st)
		return false, st
	}
	ks := bits.TrailingZeros64(kingBB)
	needCheck := true
	if moved.Type() != PieceTypeKing && !m.IsEnPassant() {
		if (kingRaysUnion[ks]>>uint(from))&1 == 0 {
			needCheck = false
		}
	}
	if needCheck && b.isSquareAttackedWithOcc(ks, 1-moverColor, occ) {
		b.UnmakeMove(m, st)
		return false, st
	}

	if moved.Type() == PieceTypePawn || st.captured != NoPiece {
		b.halfmoveClock = 0
	} else {
		b.halfmoveClock++
	}
	if moverColor == Black {
		b.fullmoveNumber++
	}

	return true, st
}

// UnmakeMove undoes the move applied by the matching MakeMove call.
func (b *Board) UnmakeMove(m Move, st MoveState) {
	b.sideToMove = 1 - b.sideToMove
	b.zobristKey ^= zobristSide

	if b.enPassantSquare != NoSquare {
		b.zobristKey ^= zobristEnPassant[int(b.enPassantSquare%8)]
	}

	from, to := m.From(), m.To()
	moved := st.moved
	promo := m.PromotionPieceType()

	us := int(b.sideToMove)
	them := 1 - us
	if m.IsCastle() && st.rookFrom != NoSquare && st.rookTo != NoSquare {
		fromR, toR := int(st.rookFrom), int(st.rookTo)
		rbFrom, rbTo := uint64(1)<<uint(fromR), uint64(1)<<uint(toR)
		rook := WhiteRook
		if moved&8 != 0 {
			rook = BlackRook
		}
		b.pieces[toR] = NoPiece
		b.pieces[fromR] = rook
		b.occupancy[us] ^= rbFrom | rbTo
		b.rooks[us] ^= rbFrom | rbTo
	}

	fromBB := uint64(1) << uint(from)
	toBB := uint64(1) << uint(to)
	b.pieces[int(to)] = NoPiece
	if promo != PieceTypeNone {
		pawn := WhitePawn
		if moved&8 != 0 {
			pawn = BlackPawn
		}
		b.pieces[int(from)] = pawn
		b.occupancy[us] ^= fromBB | toBB
		switch promo {
		case PieceTypeKnight:
			b.knights[us] &^= toBB
		case PieceTypeBishop:
			b.bishops[us] &^= toBB
		case PieceTypeRook:
			b.rooks[us] &^= toBB
		case PieceTypeQueen:
			b.queens[us] &^= toBB
		}
		b.pawns[us] |= fromBB
	} else {
		b.pieces[int(from)] = moved
		b.occupancy[us] ^= fromBB | toBB
		switch moved.Type() {
		case PieceTypePawn:
			b.pawns[us] ^= fromBB | toBB
		case PieceTypeKnight:
			b.knights[us] ^= fromBB | toBB
		case PieceTypeBishop:
			b.bishops[us] ^= fromBB | toBB
		case PieceTypeRook:
			b.rooks[us] ^= fromBB | toBB
		case PieceTypeQueen:
			b.queens[us] ^= fromBB | toBB
		case PieceTypeKing:
			b.kings[us] ^= fromBB | toBB
		}
	}

	if st.captured != NoPiece {
		if m.IsEnPassant() {
			var capSq Square
			if moved&8 == 0 {
				capSq = to - 8
			} else {
				capSq = to + 8
			}
			capBB := uint64(1) << uint(capSq)
			b.pieces[int(capSq)] = st.captured
			b.occupancy[them] |= capBB
			b.pawns[them] |= capBB
		} else {
			b.pieces[int(to)] = st.captured
			b.occupancy[them] |= toBB
			switch st.captured.Type() {
			case PieceTypePawn:
				b.pawns[them] |= toBB
			case PieceTypeKnight:
				b.knights[them] |= toBB
			case PieceTypeBishop:
				b.bishops[them] |= toBB
			case PieceTypeRook:
				b.rooks[them] |= toBB
			case PieceTypeQueen:
				b.queens[them] |= toBB
			case PieceTypeKing:
				b.kings[them] |= toBB
			}
		}
	}

	if b.castlingRights != st.prevCastling {
		b.zobristKey ^= zobristCastle[int(b.castlingRights)]
		b.zobristKey ^= zobristCastle[int(st.prevCastling)]
	}
	b.castlingRights = st.prevCastling
	b.enPassantSquare = st.prevEnPassant
	if b.enPassantSquare != NoSquare {
		b.zobristKey ^= zobristEnPassant[int(b.enPassantSquare%8)]
	}
	b.halfmoveClock = st.prevHalfmove
	b.fullmoveNumber = st.prevFullmove

	b.zobristKey = st.prevZobrist
}

// MakeNullMove switches the side to move without moving a piece: clears any
// en-passant target and advances clocks as a reversible quiet half-move.
func (b *Board) MakeNullMove() (st NullState) {
	st.prevEnPassant = b.enPassantSquare
	st.prevHalfmove = b.halfmoveClock
	st.prevFullmove = b.fullmoveNumber
	st.prevZobrist = b.zobristKey
	st.prevSide = b.sideToMove

	if b.enPassantSquare != NoSquare {
		b.zobristKey ^= zobristEnPassant[int(b.enPassantSquare%8)]
	}
	b.enPassantSquare = NoSquare

	b.halfmoveClock++
	b.sideToMove = 1 - b.sideToMove
	b.zobristKey ^= zobristSide

	if st.prevSide == Black {
		b.fullmoveNumber++
	}
	return st
}

// UnmakeNullMove restores the board to the state prior to MakeNullMove.
func (b *Board) UnmakeNullMove(st NullState) {
	b.enPassantSquare = st.prevEnPassant
	b.halfmoveClock = st.prevHalfmove
	b.fullmoveNumber = st.prevFullmove
	b.sideToMove = st.prevSide
	b.zobristKey = st.prevZobrist
}
