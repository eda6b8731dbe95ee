package eval

import (
	"math/bits"

	"chessforge/board"
)

// Pawn structure penalties (doubled, isolated), tapered midgame/endgame.
const (
	isolatedPawnMG = 6
	isolatedPawnEG = 7
	doubledPawnMG  = 4
	doubledPawnEG  = 17
)

var fileMask = [8]uint64{
	0x0101010101010101, 0x0202020202020202, 0x0404040404040404, 0x0808080808080808,
	0x1010101010101010, 0x2020202020202020, 0x4040404040404040, 0x8080808080808080,
}

type pawnScore struct{ mg, eg [2]int }

// pawnStructureScore returns side's own doubled/isolated pawn penalty (zero
// or negative), midgame and endgame. Concurrent calls for the same pawn
// structure are collapsed via singleflight so that two LazySMP workers
// probing it at the same time compute it once between them; the result is
// not kept once those calls return.
func (m *Material) pawnStructureScore(pos *board.Board, side board.Color) (mg, eg int) {
	whitePawns := pos.WhiteBitboards().Pawns
	blackPawns := pos.BlackBitboards().Pawns
	key := pawnStructureKey(whitePawns, blackPawns)

	v, _, _ := m.pawnCache.sf.Do(key, func() (any, error) {
		return computePawnStructure(whitePawns, blackPawns), nil
	})
	ps := v.(pawnScore)
	return ps.mg[side], ps.eg[side]
}

// pawnStructureKey turns the two pawn bitboards into a singleflight key.
// The key holds both bitboards verbatim, so distinct structures never share
// a key.
func pawnStructureKey(white, black uint64) string {
	var buf [16]byte
	putUint64(buf[0:8], white)
	putUint64(buf[8:16], black)
	return string(buf[:])
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// computePawnStructure returns each side's own doubled/isolated pawn
// penalty, indexed by color.
func computePawnStructure(white, black uint64) pawnScore {
	var wDoubled, bDoubled, wIsolated, bIsolated int

	for f := 0; f < 8; f++ {
		wOnFile := bits.OnesCount64(white & fileMask[f])
		bOnFile := bits.OnesCount64(black & fileMask[f])
		if wOnFile > 1 {
			wDoubled += wOnFile - 1
		}
		if bOnFile > 1 {
			bDoubled += bOnFile - 1
		}

		neighbors := neighborFileMask(f)
		if wOnFile > 0 && white&neighbors == 0 {
			wIsolated += wOnFile
		}
		if bOnFile > 0 && black&neighbors == 0 {
			bIsolated += bOnFile
		}
	}

	var s pawnScore
	s.mg[board.White] = -(wDoubled*doubledPawnMG + wIsolated*isolatedPawnMG)
	s.eg[board.White] = -(wDoubled*doubledPawnEG + wIsolated*isolatedPawnEG)
	s.mg[board.Black] = -(bDoubled*doubledPawnMG + bIsolated*isolatedPawnMG)
	s.eg[board.Black] = -(bDoubled*doubledPawnEG + bIsolated*isolatedPawnEG)
	return s
}

func neighborFileMask(f int) uint64 {
	var m uint64
	if f > 0 {
		m |= fileMask[f-1]
	}
	if f < 7 {
		m |= fileMask[f+1]
	}
	return m
}
