package board

import (
	"errors"
	"strings"
)

// ParseMove converts a UCI move string ("e2e4", "e7e8q", "0000") into a Move
// with from/to/promotion-type set. Its flag only ever distinguishes quiet
// from promoting, since ResolveMove matches it against a generated legal
// move by from/to/promotion type alone, never by the quiet/capture flag.
func ParseMove(movestr string) (Move, error) {
	movestr = strings.TrimSpace(strings.ToLower(movestr))
	if movestr == "0000" {
		return 0, nil
	}
	if len(movestr) < 4 || len(movestr) > 5 {
		return 0, errors.New("board: invalid move length")
	}
	from, err := algebraicToIndex(movestr[0:2])
	if err != nil {
		return 0, err
	}
	to, err := algebraicToIndex(movestr[2:4])
	if err != nil {
		return 0, err
	}
	flag := FlagQuiet
	if len(movestr) == 5 {
		switch movestr[4] {
		case 'q':
			flag = FlagPromoQueen
		case 'r':
			flag = FlagPromoRook
		case 'b':
			flag = FlagPromoBishop
		case 'n':
			flag = FlagPromoKnight
		default:
			return 0, errors.New("board: invalid promotion piece")
		}
	}
	return NewMove(Square(from), Square(to), flag), nil
}

// ResolveMove finds the legal move matching the from/to/promotion-type of
// partial, the representation ParseMove produces. It returns an error if no
// legal move matches, which callers surface as an illegal-move error.
func (b *Board) ResolveMove(partial Move) (Move, error) {
	from, to, promoType := partial.From(), partial.To(), partial.PromotionPieceType()
	buf := make([]Move, 0, 64)
	for _, m := range b.GenerateMovesInto(buf) {
		if m.From() == from && m.To() == to && m.PromotionPieceType() == promoType {
			return m, nil
		}
	}
	return 0, errors.New("board: no legal move matches " + partial.String())
}

func algebraicToIndex(alg string) (int, error) {
	if len(alg) != 2 {
		return 0, errors.New("board: invalid algebraic square length")
	}
	file, rank := alg[0], alg[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return 0, errors.New("board: invalid algebraic square")
	}
	return int(file-'a') + int(rank-'1')*8, nil
}
