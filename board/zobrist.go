package board

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

// Zobrist key tables, one entry per (piece, square), per castling-rights state,
// per en-passant file, and one for side to move.
var zobristPiece [15][64]uint64
var zobristCastle [16]uint64
var zobristEnPassant [8]uint64
var zobristSide uint64

func init() {
	initZobrist()
}

// zobristSeed is fixed so that the Zobrist keys - and therefore every hash
// derived from them - are identical across runs and across machines.
var zobristSeed = []byte("chessforge-zobrist-v1")

func initZobrist() {
	rng := frand.NewCustom(zobristSeed, 1024, 20)
	next := func() uint64 {
		var buf [8]byte
		rng.Read(buf[:])
		return binary.LittleEndian.Uint64(buf[:])
	}

	for p := 0; p < 15; p++ {
		for sq := 0; sq < 64; sq++ {
			zobristPiece[p][sq] = next()
		}
	}
	for cr := 0; cr < 16; cr++ {
		zobristCastle[cr] = next()
	}
	for f := 0; f < 8; f++ {
		zobristEnPassant[f] = next()
	}
	zobristSide = next()
}

// ComputeZobrist recomputes the Zobrist hash for the board from scratch. Used
// to seed a freshly parsed position and to cross-check the incrementally
// maintained key in Validate.
func (b *Board) ComputeZobrist() uint64 {
	var key uint64
	for sq := 0; sq < 64; sq++ {
		if p := b.pieces[sq]; p != NoPiece {
			key ^= zobristPiece[p][sq]
		}
	}
	if b.sideToMove == Black {
		key ^= zobristSide
	}
	key ^= zobristCastle[int(b.castlingRights)]
	if b.enPassantSquare != NoSquare {
		key ^= zobristEnPassant[int(b.enPassantSquare%8)]
	}
	return key
}
