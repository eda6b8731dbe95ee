package search

import "chessforge/board"

// maxPVLen bounds how many moves a single principal variation line keeps,
// matching MaxPly so a line can never outgrow the search tree that built it.
const maxPVLen = MaxPly

// pvLine is a fixed-capacity principal variation buffer. Update is called
// once per node that improves alpha: it stores the move that improved alpha
// followed by the child's own PV, exactly the way a negamax search builds
// the PV bottom-up as it unwinds.
type pvLine struct {
	moves [maxPVLen]board.Move
	n     int
}

func (pv *pvLine) Clear() { pv.n = 0 }

func (pv *pvLine) Update(m board.Move, child pvLine) {
	pv.moves[0] = m
	copy(pv.moves[1:], child.moves[:child.n])
	pv.n = child.n + 1
	if pv.n > int(maxPVLen) {
		pv.n = int(maxPVLen)
	}
}

func (pv *pvLine) Moves() []board.Move {
	return pv.moves[:pv.n]
}

func (pv *pvLine) BestMove() board.Move {
	if pv.n == 0 {
		return 0
	}
	return pv.moves[0]
}
