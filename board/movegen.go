package board

import "math/bits"

// pinScanner holds the per-direction data needed to detect a pin along one
// family of rays (orthogonal or diagonal) emanating from the king square.
type pinScanner struct {
	rays      *[64][4]uint64
	sliderA   PieceType
	farDirs   [4]bool // true for the directions scanned from the high end (LeadingZeros)
}

// scanPins walks each of the four rays in s from ksq, and for every own piece
// that sits directly in front of an enemy slider of the matching type along
// that ray, records the line the pinned piece is restricted to.
func scanPins(ksq int, occ uint64, ownOcc uint64, side Color, pieces *[64]Piece, s pinScanner, pinLine *[64]uint64) {
	for d := 0; d < 4; d++ {
		blockers := s.rays[ksq][d] & occ
		if blockers == 0 {
			continue
		}
		var first int
		if s.farDirs[d] {
			first = 63 - bits.LeadingZeros64(blockers)
		} else {
			first = bits.TrailingZeros64(blockers)
		}
		firstBB := uint64(1) << uint(first)
		if firstBB&ownOcc == 0 {
			continue
		}
		beyond := s.rays[first][d] & occ
		if beyond == 0 {
			continue
		}
		var next int
		if s.farDirs[d] {
			next = 63 - bits.LeadingZeros64(beyond)
		} else {
			next = bits.TrailingZeros64(beyond)
		}
		p := pieces[next]
		if (p.Type() == s.sliderA || p.Type() == PieceTypeQueen) && colorOf(p) != side {
			pinLine[first] = s.rays[ksq][d] &^ s.rays[next][d]
		}
	}
}

var orthoScanner = pinScanner{rays: &rookRays, sliderA: PieceTypeRook, farDirs: [4]bool{false, true, false, true}}
var diagScanner = pinScanner{rays: &bishopRays, sliderA: PieceTypeBishop, farDirs: [4]bool{false, false, true, true}}

// computeCheckAndPins computes, for the side to move, whether it is in
// check, whether it is in double check, the set of squares a non-king piece
// may move to under single check (block or capture), and for each square a
// mask restricting a pinned piece on that square to its pin line.
func (b *Board) computeCheckAndPins(side Color, occ uint64) (inCheck bool, doubleCheck bool, checkMask uint64, pinLine [64]uint64) {
	us := int(side)
	them := 1 - us

	kingBB := b.kings[us]
	if kingBB == 0 {
		return false, false, 0, pinLine
	}
	ksq := bits.TrailingZeros64(kingBB)

	checkers := pawnAttacks[side][ksq] & b.pawns[them]
	checkers |= knightMoves[ksq] & b.knights[them]
	checkers |= bishopAttacksRay(ksq, occ) & (b.bishops[them] | b.queens[them])
	checkers |= rookAttacksRay(ksq, occ) & (b.rooks[them] | b.queens[them])

	inCheck = checkers != 0
	doubleCheck = inCheck && (checkers&(checkers-1)) != 0

	if inCheck && !doubleCheck {
		checkMask = checkRayMask(ksq, checkers, b.pieces)
	}

	scanPins(ksq, occ, b.occupancy[us], side, &b.pieces, orthoScanner, &pinLine)
	scanPins(ksq, occ, b.occupancy[us], side, &b.pieces, diagScanner, &pinLine)

	return inCheck, doubleCheck, checkMask, pinLine
}

// checkRayMask returns the set of squares that block or capture the single
// checking piece at the bit set in checkers: just that square for a knight
// or pawn, or the ray between the king and a slider for a line piece.
func checkRayMask(ksq int, checkers uint64, pieces [64]Piece) uint64 {
	c := bits.TrailingZeros64(checkers)
	cbb := uint64(1) << uint(c)

	switch pieces[c].Type() {
	case PieceTypeRook:
		for d := 0; d < 4; d++ {
			if rookRays[ksq][d]&cbb != 0 {
				return rookRays[ksq][d] &^ rookRays[c][d]
			}
		}
	case PieceTypeBishop:
		for d := 0; d < 4; d++ {
			if bishopRays[ksq][d]&cbb != 0 {
				return bishopRays[ksq][d] &^ bishopRays[c][d]
			}
		}
	case PieceTypeQueen:
		for d := 0; d < 4; d++ {
			if rookRays[ksq][d]&cbb != 0 {
				return rookRays[ksq][d] &^ rookRays[c][d]
			}
		}
		for d := 0; d < 4; d++ {
			if bishopRays[ksq][d]&cbb != 0 {
				return bishopRays[ksq][d] &^ bishopRays[c][d]
			}
		}
	}
	return cbb
}

// IsSquareAttacked reports whether sq is attacked by color by.
func (b *Board) IsSquareAttacked(sq Square, by Color) bool {
	return b.isSquareAttackedWithOcc(int(sq), by, b.AllOccupancy())
}

func (b *Board) isSquareAttackedWithOcc(s int, by Color, occ uint64) bool {
	byIdx := int(by)

	if pawnAttacks[by.Opponent()][s]&b.pawns[byIdx] != 0 {
		return true
	}
	if knightMoves[s]&b.knights[byIdx] != 0 {
		return true
	}
	if kingMoves[s]&b.kings[byIdx] != 0 {
		return true
	}

	rq := b.rooks[byIdx] | b.queens[byIdx]
	bq := b.bishops[byIdx] | b.queens[byIdx]

	if rookAttacksRay(s, occ)&rq != 0 {
		return true
	}
	if bishopAttacksRay(s, occ)&bq != 0 {
		return true
	}
	return false
}

// InCheck reports whether color's king is currently attacked.
func (b *Board) InCheck(color Color) bool {
	kingBB := b.kings[int(color)]
	if kingBB == 0 {
		return false
	}
	ks := bits.TrailingZeros64(kingBB)
	return b.IsSquareAttacked(Square(ks), 1-color)
}

const (
	genAll = iota
	genCaptures
	genQuiets
)

// legalCtx bundles the per-call state that every piece-type generator in
// generateMovesFilteredInto needs: occupancy, the filter, and the check/pin
// masks computed once up front.
type legalCtx struct {
	side       Color
	us, them   int
	ownOcc     uint64
	oppOcc     uint64
	allOcc     uint64
	ks         int
	inCheck    bool
	doubleCheck bool
	checkMask  uint64
	pinLine    [64]uint64
	filter     int
}

// generateMovesFilteredInto is the legal move generator shared by
// GenerateMovesInto/GenerateCapturesInto/GenerateQuietsInto. It filters
// directly against the pin and check masks rather than generating
// pseudo-legal moves and testing each with make/unmake.
func (b *Board) generateMovesFilteredInto(dst []Move, filter int) []Move {
	moves := dst[:0]
	side := b.sideToMove
	us := int(side)
	them := 1 - us

	ownOcc := b.occupancy[us]
	oppOcc := b.occupancy[them]
	allOcc := ownOcc | oppOcc

	ks := -1
	if kingBB := b.kings[us]; kingBB != 0 {
		ks = bits.TrailingZeros64(kingBB)
	}

	inCheck, doubleCheck, checkMask, pinLine := b.computeCheckAndPins(side, allOcc)

	ctx := legalCtx{
		side: side, us: us, them: them,
		ownOcc: ownOcc, oppOcc: oppOcc, allOcc: allOcc, ks: ks,
		inCheck: inCheck, doubleCheck: doubleCheck, checkMask: checkMask, pinLine: pinLine,
		filter: filter,
	}

	moves = b.genPawnMoves(moves, &ctx)
	if !doubleCheck {
		moves = b.genKnightMoves(moves, &ctx)
		moves = b.genSliderMoves(moves, &ctx, b.bishops[us], BishopAttacks)
		moves = b.genSliderMoves(moves, &ctx, b.rooks[us], RookAttacks)
		moves = b.genSliderMoves(moves, &ctx, b.queens[us], QueenAttacks)
	}
	moves = b.genKingMoves(moves, &ctx)

	return moves
}

// targetAllowed reports whether moving to toBB is compatible with the
// current check/pin restrictions on a piece pinned along pinMask.
func targetAllowed(ctx *legalCtx, pinMask, toBB uint64) bool {
	if ctx.doubleCheck {
		return false
	}
	if pinMask != 0 && toBB&pinMask == 0 {
		return false
	}
	if ctx.inCheck && toBB&ctx.checkMask == 0 {
		return false
	}
	return true
}

func (b *Board) genPawnMoves(moves []Move, ctx *legalCtx) []Move {
	us := ctx.us
	forward := 8
	startRank, promoRank := 1, 7
	if ctx.side == Black {
		forward = -8
		startRank, promoRank = 6, 0
	}

	pawns := b.pawns[us]
	for pawns != 0 {
		from := popLSB(&pawns)
		fromSq := Square(from)
		pinMask := ctx.pinLine[from]

		one := from + forward
		if one >= 0 && one < 64 && (ctx.allOcc>>uint(one))&1 == 0 {
			toBB := uint64(1) << uint(one)
			if one/8 == promoRank {
				if targetAllowed(ctx, pinMask, toBB) && ctx.filter != genCaptures {
					moves = appendPromotions(moves, fromSq, Square(one), false)
				}
			} else {
				if targetAllowed(ctx, pinMask, toBB) && ctx.filter != genCaptures {
					moves = append(moves, NewMove(fromSq, Square(one), FlagQuiet))
				}
				if from/8 == startRank {
					two := from + 2*forward
					if (ctx.allOcc>>uint(two))&1 == 0 {
						toBB2 := uint64(1) << uint(two)
						if targetAllowed(ctx, pinMask, toBB2) && ctx.filter != genCaptures {
							moves = append(moves, NewMove(fromSq, Square(two), FlagDoublePush))
						}
					}
				}
			}
		}

		caps := pawnAttacks[ctx.side][from]
		capTargets := caps & ctx.oppOcc
		for capTargets != 0 {
			to := popLSB(&capTargets)
			toSq := Square(to)
			toBB := uint64(1) << uint(to)
			if !targetAllowed(ctx, pinMask, toBB) {
				continue
			}
			if to/8 == promoRank {
				if ctx.filter != genQuiets {
					moves = appendPromotions(moves, fromSq, toSq, true)
				}
			} else if ctx.filter != genQuiets {
				moves = append(moves, NewMove(fromSq, toSq, FlagCapture))
			}
		}

		if b.enPassantSquare != NoSquare {
			ep := int(b.enPassantSquare)
			if caps&(1<<uint(ep)) != 0 && ctx.filter != genQuiets {
				toBB := uint64(1) << uint(ep)
				if !ctx.doubleCheck && !(pinMask != 0 && toBB&pinMask == 0) {
					occp := ctx.allOcc
					occp &^= uint64(1) << uint(from)
					capSq := ep - forward
					occp &^= uint64(1) << uint(capSq)
					occp |= uint64(1) << uint(ep)
					if ctx.ks < 0 || !b.isSquareAttackedWithOcc(ctx.ks, Color(ctx.them), occp) {
						moves = append(moves, NewMove(fromSq, Square(ep), FlagEnPassant))
					}
				}
			}
		}
	}
	return moves
}

// appendPromotions appends the four promotion moves from->to, using the
// capturing or quiet flag variant depending on capture.
func appendPromotions(moves []Move, from, to Square, capture bool) []Move {
	flagOf := quietPromoFlagOf
	if capture {
		flagOf = capturePromoFlagOf
	}
	return append(moves,
		NewMove(from, to, flagOf[PieceTypeQueen]),
		NewMove(from, to, flagOf[PieceTypeRook]),
		NewMove(from, to, flagOf[PieceTypeBishop]),
		NewMove(from, to, flagOf[PieceTypeKnight]),
	)
}

func (b *Board) genKnightMoves(moves []Move, ctx *legalCtx) []Move {
	knights := b.knights[ctx.us]
	for knights != 0 {
		from := popLSB(&knights)
		fromSq := Square(from)
		pinMask := ctx.pinLine[from]

		targets := knightMoves[from] &^ ctx.ownOcc
		if pinMask != 0 {
			targets &= pinMask
		}
		if ctx.inCheck {
			targets &= ctx.checkMask
		}
		moves = appendSliderTargets(moves, ctx, fromSq, targets)
	}
	return moves
}

func (b *Board) genSliderMoves(moves []Move, ctx *legalCtx, pieceBB uint64, attacks func(Square, uint64) uint64) []Move {
	for pieceBB != 0 {
		from := popLSB(&pieceBB)
		fromSq := Square(from)
		pinMask := ctx.pinLine[from]

		targets := attacks(fromSq, ctx.allOcc) &^ ctx.ownOcc
		if pinMask != 0 {
			targets &= pinMask
		}
		if ctx.inCheck {
			targets &= ctx.checkMask
		}
		moves = appendSliderTargets(moves, ctx, fromSq, targets)
	}
	return moves
}

// appendSliderTargets appends one quiet or capturing move per set bit in
// targets, honoring the active capture/quiet filter.
func appendSliderTargets(moves []Move, ctx *legalCtx, fromSq Square, targets uint64) []Move {
	for t := targets; t != 0; {
		to := popLSB(&t)
		isCap := (ctx.oppOcc>>uint(to))&1 != 0
		if (ctx.filter == genCaptures && !isCap) || (ctx.filter == genQuiets && isCap) {
			continue
		}
		flag := FlagQuiet
		if isCap {
			flag = FlagCapture
		}
		moves = append(moves, NewMove(fromSq, Square(to), flag))
	}
	return moves
}

func (b *Board) genKingMoves(moves []Move, ctx *legalCtx) []Move {
	kbb := b.kings[ctx.us]
	if kbb == 0 {
		return moves
	}
	from := bits.TrailingZeros64(kbb)
	fromSq := Square(from)
	targets := kingMoves[from] &^ ctx.ownOcc

	for t := targets; t != 0; {
		to := popLSB(&t)
		isCap := (ctx.oppOcc>>uint(to))&1 != 0
		if (ctx.filter == genCaptures && !isCap) || (ctx.filter == genQuiets && isCap) {
			continue
		}
		occp := ctx.allOcc
		occp &^= uint64(1) << uint(from)
		if isCap {
			occp &^= uint64(1) << uint(to)
		}
		occp |= uint64(1) << uint(to)
		if b.isSquareAttackedWithOcc(to, Color(ctx.them), occp) {
			continue
		}
		flag := FlagQuiet
		if isCap {
			flag = FlagCapture
		}
		moves = append(moves, NewMove(fromSq, Square(to), flag))
	}

	if ctx.filter == genCaptures {
		return moves
	}

	occ := ctx.allOcc
	if ctx.side == White {
		if b.castlingRights&CastlingWhiteK != 0 &&
			b.pieces[5] == NoPiece && b.pieces[6] == NoPiece && b.pieces[7] == WhiteRook &&
			!ctx.inCheck && !b.isSquareAttackedWithOcc(5, Black, occ) && !b.isSquareAttackedWithOcc(6, Black, occ) {
			moves = append(moves, NewMove(4, 6, FlagKingCastle))
		}
		if b.castlingRights&CastlingWhiteQ != 0 &&
			b.pieces[1] == NoPiece && b.pieces[2] == NoPiece && b.pieces[3] == NoPiece && b.pieces[0] == WhiteRook &&
			!ctx.inCheck && !b.isSquareAttackedWithOcc(3, Black, occ) && !b.isSquareAttackedWithOcc(2, Black, occ) {
			moves = append(moves, NewMove(4, 2, FlagQueenCastle))
		}
	} else {
		if b.castlingRights&CastlingBlackK != 0 &&
			b.pieces[61] == NoPiece && b.pieces[62] == NoPiece && b.pieces[63] == BlackRook &&
			!ctx.inCheck && !b.isSquareAttackedWithOcc(61, White, occ) && !b.isSquareAttackedWithOcc(62, White, occ) {
			moves = append(moves, NewMove(60, 62, FlagKingCastle))
		}
		if b.castlingRights&CastlingBlackQ != 0 &&
			b.pieces[57] == NoPiece && b.pieces[58] == NoPiece && b.pieces[59] == NoPiece && b.pieces[56] == BlackRook &&
			!ctx.inCheck && !b.isSquareAttackedWithOcc(59, White, occ) && !b.isSquareAttackedWithOcc(58, White, occ) {
			moves = append(moves, NewMove(60, 58, FlagQueenCastle))
		}
	}
	return moves
}

// GenerateMoves returns a freshly allocated slice of all legal moves for the
// side to move. Prefer GenerateMovesInto in hot paths.
func (b *Board) GenerateMoves() []Move { return b.GenerateMovesInto(make([]Move, 0, 128)) }

// GenerateMovesInto appends all legal moves into dst (truncated to length 0
// first) and returns the result.
func (b *Board) GenerateMovesInto(dst []Move) []Move {
	return b.generateMovesFilteredInto(dst, genAll)
}

// GenerateCapturesInto appends all legal captures, including en passant and
// capture promotions.
func (b *Board) GenerateCapturesInto(dst []Move) []Move {
	return b.generateMovesFilteredInto(dst, genCaptures)
}

// GenerateQuietsInto appends all legal non-capturing moves, including
// non-capturing promotions and castling.
func (b *Board) GenerateQuietsInto(dst []Move) []Move {
	return b.generateMovesFilteredInto(dst, genQuiets)
}

// GenerateCaptures returns a freshly allocated slice of legal captures.
func (b *Board) GenerateCaptures() []Move { return b.GenerateCapturesInto(make([]Move, 0, 128)) }

// GenerateQuiets returns a freshly allocated slice of legal quiet moves.
func (b *Board) GenerateQuiets() []Move { return b.GenerateQuietsInto(make([]Move, 0, 128)) }

// GenerateChecksInto appends all legal moves that give check into dst.
func (b *Board) GenerateChecksInto(dst []Move) []Move {
	moves := b.GenerateMovesInto(dst)
	if len(moves) == 0 {
		return moves[:0]
	}

	out := moves[:0]
	for _, m := range moves {
		if b.GivesCheck(m) {
			out = append(out, m)
		}
	}
	return out
}

// GenerateChecks returns a freshly allocated slice of legal checking moves.
func (b *Board) GenerateChecks() []Move { return b.GenerateChecksInto(make([]Move, 0, 128)) }

// GeneratePseudoMovesInto appends pseudo-legal moves into dst: piece rules
// and blockers are obeyed, castling requires rights and an empty path, but
// no king-safety test is performed before or after the move. It reuses the
// legal generator's per-piece helpers with check/pin filtering disabled.
func (b *Board) GeneratePseudoMovesInto(dst []Move) []Move {
	moves := dst[:0]
	side := b.sideToMove
	us := int(side)
	them := 1 - us

	ownOcc := b.occupancy[us]
	oppOcc := b.occupancy[them]
	allOcc := ownOcc | oppOcc

	ctx := legalCtx{
		side: side, us: us, them: them,
		ownOcc: ownOcc, oppOcc: oppOcc, allOcc: allOcc, ks: -1,
		filter: genAll,
	}

	moves = b.genPawnMoves(moves, &ctx)
	moves = b.genKnightMoves(moves, &ctx)
	moves = b.genSliderMoves(moves, &ctx, b.bishops[us], BishopAttacks)
	moves = b.genSliderMoves(moves, &ctx, b.rooks[us], RookAttacks)
	moves = b.genSliderMoves(moves, &ctx, b.queens[us], QueenAttacks)

	if kingBB := b.kings[us]; kingBB != 0 {
		from := bits.TrailingZeros64(kingBB)
		fromSq := Square(from)
		targets := kingMoves[from] &^ ownOcc
		for t := targets; t != 0; {
			to := popLSB(&t)
			flag := FlagQuiet
			if (oppOcc>>uint(to))&1 != 0 {
				flag = FlagCapture
			}
			moves = append(moves, NewMove(fromSq, Square(to), flag))
		}

		if side == White {
			if b.castlingRights&CastlingWhiteK != 0 && b.pieces[5] == NoPiece && b.pieces[6] == NoPiece && b.pieces[7] == WhiteRook {
				moves = append(moves, NewMove(4, 6, FlagKingCastle))
			}
			if b.castlingRights&CastlingWhiteQ != 0 && b.pieces[1] == NoPiece && b.pieces[2] == NoPiece && b.pieces[3] == NoPiece && b.pieces[0] == WhiteRook {
				moves = append(moves, NewMove(4, 2, FlagQueenCastle))
			}
		} else {
			if b.castlingRights&CastlingBlackK != 0 && b.pieces[61] == NoPiece && b.pieces[62] == NoPiece && b.pieces[63] == BlackRook {
				moves = append(moves, NewMove(60, 62, FlagKingCastle))
			}
			if b.castlingRights&CastlingBlackQ != 0 && b.pieces[57] == NoPiece && b.pieces[58] == NoPiece && b.pieces[59] == NoPiece && b.pieces[56] == BlackRook {
				moves = append(moves, NewMove(60, 58, FlagQueenCastle))
			}
		}
	}

	return moves
}

// GeneratePseudoMoves returns a freshly allocated slice of pseudo-legal moves.
func (b *Board) GeneratePseudoMoves() []Move { return b.GeneratePseudoMovesInto(make([]Move, 0, 128)) }

// GenerateLegalMoves is a dragontoothmg-style alias for GenerateMoves.
func (b *Board) GenerateLegalMoves() []Move { return b.GenerateMoves() }

// CalculateRookMoveBitboard returns rook attacks from square given occupancy.
func CalculateRookMoveBitboard(square uint8, occupancy uint64) uint64 {
	return RookAttacks(Square(square), occupancy)
}

// CalculateBishopMoveBitboard returns bishop attacks from square given occupancy.
func CalculateBishopMoveBitboard(square uint8, occupancy uint64) uint64 {
	return BishopAttacks(Square(square), occupancy)
}

// Perft counts leaf nodes reachable by depth plies of legal moves, reusing a
// per-depth move buffer to avoid allocating on every recursive call.
func Perft(b *Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	pc := perftCtx{bufs: make([][]Move, depth+1)}
	return perftRec(b, depth, &pc)
}

type perftCtx struct {
	bufs [][]Move
}

func (pc *perftCtx) bufFor(depth int) []Move {
	if depth < 0 {
		depth = 0
	}
	if depth >= len(pc.bufs) {
		pc.bufs = append(pc.bufs, nil)
	}
	buf := pc.bufs[depth]
	if buf == nil {
		buf = make([]Move, 0, 256)
		pc.bufs[depth] = buf
	}
	return buf[:0]
}

func perftRec(b *Board, depth int, pc *perftCtx) uint64 {
	if depth == 0 {
		return 1
	}
	var nodes uint64
	moves := b.GenerateMovesInto(pc.bufFor(depth))
	for _, m := range moves {
		if ok, st := b.MakeMove(m); ok {
			nodes += perftRec(b, depth-1, pc)
			b.UnmakeMove(m, st)
		}
	}
	return nodes
}

// PerftDivide returns, for each legal root move, the leaf count reachable
// from it at depth-1 plies. Intended for debugging perft mismatches.
func PerftDivide(b *Board, depth int) map[Move]uint64 {
	result := make(map[Move]uint64)
	if depth <= 0 {
		return result
	}
	moves := b.GenerateMoves()
	for _, m := range moves {
		if ok, st := b.MakeMove(m); ok {
			result[m] = Perft(b, depth-1)
			b.UnmakeMove(m, st)
		}
	}
	return result
}
