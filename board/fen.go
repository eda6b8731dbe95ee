package board

import (
	"errors"
	"strconv"
	"strings"
)

// FENStartPos is the FEN for the standard initial position.
const FENStartPos = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func pieceFromChar(ch rune) Piece {
	switch ch {
	case 'P':
		return WhitePawn
	case 'N':
		return WhiteKnight
	case 'B':
		return WhiteBishop
	case 'R':
		return WhiteRook
	case 'Q':
		return WhiteQueen
	case 'K':
		return WhiteKing
	case 'p':
		return BlackPawn
	case 'n':
		return BlackKnight
	case 'b':
		return BlackBishop
	case 'r':
		return BlackRook
	case 'q':
		return BlackQueen
	case 'k':
		return BlackKing
	default:
		return NoPiece
	}
}

func charFromPiece(p Piece) rune {
	switch p {
	case WhitePawn:
		return 'P'
	case WhiteKnight:
		return 'N'
	case WhiteBishop:
		return 'B'
	case WhiteRook:
		return 'R'
	case WhiteQueen:
		return 'Q'
	case WhiteKing:
		return 'K'
	case BlackPawn:
		return 'p'
	case BlackKnight:
		return 'n'
	case BlackBishop:
		return 'b'
	case BlackRook:
		return 'r'
	case BlackQueen:
		return 'q'
	case BlackKing:
		return 'k'
	default:
		return '?'
	}
}

// ParseFEN parses a FEN string into a new Board. It never panics; malformed
// input produces a non-nil error.
func ParseFEN(fen string) (*Board, error) {
	fields := strings.Split(fen, " ")
	if len(fields) < 4 {
		return nil, errors.New("board: invalid FEN: not enough fields")
	}

	b := &Board{}
	b.enPassantSquare = NoSquare

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, errors.New("board: invalid FEN: incorrect number of ranks")
	}

	for i, rankStr := range ranks {
		if len(rankStr) == 0 {
			return nil, errors.New("board: invalid FEN: empty rank description")
		}
		rankIndex := 7 - i
		file := 0
		for _, ch := range rankStr {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			piece := pieceFromChar(ch)
			if piece == NoPiece {
				return nil, errors.New("board: invalid FEN: unrecognized piece character")
			}
			if file >= 8 {
				return nil, errors.New("board: invalid FEN: too many squares in rank")
			}
			sq := Square(rankIndex*8 + file)
			b.addPiece(sq, piece)
			file++
		}
		if file != 8 {
			return nil, errors.New("board: invalid FEN: rank does not have 8 columns")
		}
	}

	switch fields[1] {
	case "w":
		b.sideToMove = White
	case "b":
		b.sideToMove = Black
	default:
		return nil, errors.New("board: invalid FEN: side to move must be 'w' or 'b'")
	}

	b.castlingRights = 0
	if fields[2] != "-" {
		for _, ch := range fields[2] {
			switch ch {
			case 'K':
				b.castlingRights |= CastlingWhiteK
			case 'Q':
				b.castlingRights |= CastlingWhiteQ
			case 'k':
				b.castlingRights |= CastlingBlackK
			case 'q':
				b.castlingRights |= CastlingBlackQ
			default:
				return nil, errors.New("board: invalid FEN: invalid castling rights character")
			}
		}
	}

	if fields[3] != "-" {
		if len(fields[3]) != 2 {
			return nil, errors.New("board: invalid FEN: invalid en passant square")
		}
		fileChar, rankChar := fields[3][0], fields[3][1]
		if fileChar < 'a' || fileChar > 'h' || rankChar < '1' || rankChar > '8' {
			return nil, errors.New("board: invalid FEN: en passant square out of range")
		}
		if rankChar != '3' && rankChar != '6' {
			return nil, errors.New("board: invalid FEN: en passant square not on rank 3 or 6")
		}
		b.enPassantSquare = Square(int(rankChar-'1')*8 + int(fileChar-'a'))
	}

	if len(fields) > 4 {
		halfmove, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, errors.New("board: invalid FEN: halfmove clock is not a number")
		}
		b.halfmoveClock = halfmove
	}

	if len(fields) > 5 {
		fullmove, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, errors.New("board: invalid FEN: fullmove number is not a number")
		}
		b.fullmoveNumber = fullmove
	}

	b.zobristKey = b.ComputeZobrist()
	return b, nil
}

// ToFEN formats the board's current state as a FEN string.
func (b *Board) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b.pieces[rank*8+file]
			if p == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte('0' + byte(empty))
				empty = 0
			}
			sb.WriteRune(charFromPiece(p))
		}
		if empty > 0 {
			sb.WriteByte('0' + byte(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')

	if b.sideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')

	if b.castlingRights == 0 {
		sb.WriteByte('-')
	} else {
		if b.castlingRights&CastlingWhiteK != 0 {
			sb.WriteByte('K')
		}
		if b.castlingRights&CastlingWhiteQ != 0 {
			sb.WriteByte('Q')
		}
		if b.castlingRights&CastlingBlackK != 0 {
			sb.WriteByte('k')
		}
		if b.castlingRights&CastlingBlackQ != 0 {
			sb.WriteByte('q')
		}
	}
	sb.WriteByte(' ')

	if b.enPassantSquare != NoSquare {
		sb.WriteByte('a' + byte(b.enPassantSquare%8))
		sb.WriteByte('1' + byte(b.enPassantSquare/8))
	} else {
		sb.WriteByte('-')
	}
	sb.WriteByte(' ')

	sb.WriteString(strconv.Itoa(b.halfmoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.fullmoveNumber))
	return sb.String()
}
