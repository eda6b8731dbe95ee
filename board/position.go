package board

import "math/bits"

// Board is a complete chess position: piece placement, side to move,
// castling rights, en-passant target, move clocks, and the incrementally
// maintained Zobrist key.
type Board struct {
	pawns   [2]uint64
	knights [2]uint64
	bishops [2]uint64
	rooks   [2]uint64
	queens  [2]uint64
	kings   [2]uint64

	occupancy [2]uint64

	pieces [64]Piece

	sideToMove Color

	castlingRights CastlingRights

	enPassantSquare Square

	halfmoveClock  int
	fullmoveNumber int

	zobristKey uint64
}

// HasLegalMoves reports whether the side to move has any legal moves.
func (b *Board) HasLegalMoves() bool {
	buf := make([]Move, 0, 64)
	moves := b.GenerateMovesInto(buf)
	return len(moves) > 0
}

// InCheckmate reports whether the side to move is checkmated.
func (b *Board) InCheckmate() bool {
	return b.InCheck(b.sideToMove) && !b.HasLegalMoves()
}

// InStalemate reports whether the side to move is stalemated.
func (b *Board) InStalemate() bool {
	return !b.InCheck(b.sideToMove) && !b.HasLegalMoves()
}

// IsDrawBy50 reports a fifty-move-rule draw.
func (b *Board) IsDrawBy50() bool { return b.halfmoveClock >= 100 }

// HalfmoveClock returns the half-moves since the last capture or pawn push.
func (b *Board) HalfmoveClock() int { return b.halfmoveClock }

// FullmoveNumber returns the full move counter.
func (b *Board) FullmoveNumber() int { return b.fullmoveNumber }

// EnPassantSquare returns the current en-passant target, or NoSquare.
func (b *Board) EnPassantSquare() Square { return b.enPassantSquare }

// SideToMove reports which side is to play.
func (b *Board) SideToMove() Color { return b.sideToMove }

// CastlingRights returns the current castling rights mask.
func (b *Board) CastlingRights() CastlingRights { return b.castlingRights }

// SetSideToMove forces the side to move, keeping the Zobrist key in sync.
// Normal move making toggles this automatically; callers assembling a
// position by hand (e.g. fuzzers) use this directly.
func (b *Board) SetSideToMove(c Color) {
	if b.sideToMove == c {
		return
	}
	b.sideToMove = c
	b.zobristKey ^= zobristSide
}

// Hash returns the current Zobrist hash key.
func (b *Board) Hash() uint64 { return b.zobristKey }

// Bitboards returns the per-piece-type bitboards for one side.
func (b *Board) Bitboards(color Color) Bitboards {
	idx := int(color)
	return Bitboards{
		Pawns:   b.pawns[idx],
		Knights: b.knights[idx],
		Bishops: b.bishops[idx],
		Rooks:   b.rooks[idx],
		Queens:  b.queens[idx],
		Kings:   b.kings[idx],
		All:     b.occupancy[idx],
	}
}

// WhiteBitboards returns White's bitboards.
func (b *Board) WhiteBitboards() Bitboards { return b.Bitboards(White) }

// BlackBitboards returns Black's bitboards.
func (b *Board) BlackBitboards() Bitboards { return b.Bitboards(Black) }

// IsDrawByRepetition reports a threefold repetition given a history of
// Zobrist keys (typically those since the last irreversible move). The
// Zobrist key already folds in side to move, castling rights, and the
// en-passant file, so no extra state is needed.
func (b *Board) IsDrawByRepetition(history []uint64) bool {
	target := b.zobristKey
	end := len(history)
	if end > 0 && history[end-1] == target {
		end--
	}
	matches := 0
	for i := 0; i < end; i++ {
		if history[i] == target {
			matches++
			if matches >= 2 {
				return true
			}
		}
	}
	return false
}

// PushMove makes m if legal, recording its undo state on stack and its
// resulting hash on history. Reports whether the move was legal.
func (b *Board) PushMove(m Move, stack *[]MoveState, history *[]uint64) bool {
	ok, st := b.MakeMove(m)
	if !ok {
		return false
	}
	*stack = append(*stack, st)
	*history = append(*history, b.zobristKey)
	return true
}

// PopMove undoes the move most recently pushed with PushMove. Panics if
// stack is empty.
func (b *Board) PopMove(stack *[]MoveState, history *[]uint64) {
	n := len(*stack)
	if n == 0 {
		panic("board: PopMove called with empty stack")
	}
	st := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	b.UnmakeMove(st.move, st)
	if len(*history) > 0 {
		*history = (*history)[:len(*history)-1]
	}
}

func bb(sq Square) uint64 { return 1 << uint64(sq) }

func popLSB(mask *uint64) int {
	x := *mask & -*mask
	idx := bits.TrailingZeros64(x)
	*mask &= *mask - 1
	return idx
}

// AllOccupancy returns the bitboard of every occupied square.
func (b *Board) AllOccupancy() uint64 { return b.occupancy[0] | b.occupancy[1] }

// ColorOccupancy returns the occupancy bitboard for one side.
func (b *Board) ColorOccupancy(c Color) uint64 { return b.occupancy[int(c)] }

// PieceAt returns the piece occupying sq, or NoPiece.
func (b *Board) PieceAt(sq Square) Piece { return b.pieces[int(sq)] }

func (b *Board) addPiece(sq Square, p Piece) {
	if p == NoPiece {
		return
	}
	idx := int(sq)
	b.pieces[idx] = p
	ci := int(colorOf(p))
	b.occupancy[ci] |= bb(sq)
	switch typeOf(p) {
	case 1:
		b.pawns[ci] |= bb(sq)
	case 2:
		b.knights[ci] |= bb(sq)
	case 3:
		b.bishops[ci] |= bb(sq)
	case 4:
		b.rooks[ci] |= bb(sq)
	case 5:
		b.queens[ci] |= bb(sq)
	case 6:
		b.kings[ci] |= bb(sq)
	}
	b.zobristKey ^= zobristPiece[p][idx]
}

func (b *Board) removePiece(sq Square) Piece {
	idx := int(sq)
	p := b.pieces[idx]
	if p == NoPiece {
		return NoPiece
	}
	ci := int(colorOf(p))
	mask := ^bb(sq)
	b.pieces[idx] = NoPiece
	b.occupancy[ci] &= mask
	switch typeOf(p) {
	case 1:
		b.pawns[ci] &= mask
	case 2:
		b.knights[ci] &= mask
	case 3:
		b.bishops[ci] &= mask
	case 4:
		b.rooks[ci] &= mask
	case 5:
		b.queens[ci] &= mask
	case 6:
		b.kings[ci] &= mask
	}
	b.zobristKey ^= zobristPiece[p][idx]
	return p
}

// SetPiece places p on sq, replacing and capturing any existing occupant.
func (b *Board) SetPiece(sq Square, p Piece) {
	b.removePiece(sq)
	b.addPiece(sq, p)
}

// ClearSquare removes any piece on sq.
func (b *Board) ClearSquare(sq Square) { _ = b.removePiece(sq) }

// MovePiece relocates the piece on from to to, capturing whatever was there.
func (b *Board) MovePiece(from, to Square) {
	moving := b.removePiece(from)
	_ = b.removePiece(to)
	b.addPiece(to, moving)
}

// Validate cross-checks the incrementally maintained bitboards, occupancy,
// and Zobrist key against a from-scratch rebuild off the pieces array. It
// exists for tests and assertions, not the hot path.
func (b *Board) Validate() bool {
	var occ [2]uint64
	var pawns, knights, bishops, rooks, queens, kings [2]uint64
	for sq := 0; sq < 64; sq++ {
		p := b.pieces[sq]
		if p == NoPiece {
			continue
		}
		ci := int(colorOf(p))
		bit := uint64(1) << uint(sq)
		occ[ci] |= bit
		switch typeOf(p) {
		case 1:
			pawns[ci] |= bit
		case 2:
			knights[ci] |= bit
		case 3:
			bishops[ci] |= bit
		case 4:
			rooks[ci] |= bit
		case 5:
			queens[ci] |= bit
		case 6:
			kings[ci] |= bit
		}
	}
	if occ != b.occupancy {
		return false
	}
	if pawns != b.pawns || knights != b.knights || bishops != b.bishops ||
		rooks != b.rooks || queens != b.queens || kings != b.kings {
		return false
	}
	return b.zobristKey == b.ComputeZobrist()
}
