package ordering

import (
	"testing"

	"chessforge/board"
)

func TestScorePrefersPVMoveAboveEverything(t *testing.T) {
	b, err := board.ParseFEN(board.FENStartPos)
	if err != nil {
		t.Fatalf("parse FEN: %v", err)
	}
	moves := b.GenerateMoves()
	if len(moves) == 0 {
		t.Fatal("expected legal moves from the start position")
	}
	pv := moves[0]
	tables := NewTables()

	for _, m := range moves {
		score := Score(b, m, 0, pv, 0, tables, 0)
		if m == pv {
			if score != pvOffset+1500 {
				t.Fatalf("PV move scored %d, want %d", score, pvOffset+1500)
			}
		} else if score >= pvOffset {
			t.Fatalf("non-PV move %s scored %d, should be below the PV offset", m, score)
		}
	}
}

func TestScoreRanksCapturesAboveQuiets(t *testing.T) {
	b, err := board.ParseFEN("4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("parse FEN: %v", err)
	}
	tables := NewTables()

	var captureScore, quietScore int32
	var sawCapture, sawQuiet bool
	for _, m := range b.GenerateMoves() {
		score := Score(b, m, 0, 0, 0, tables, 0)
		if m.IsCapture() {
			captureScore = score
			sawCapture = true
		} else {
			quietScore = score
			sawQuiet = true
		}
	}
	if !sawCapture || !sawQuiet {
		t.Fatalf("expected both a capture and a quiet move, got capture=%v quiet=%v", sawCapture, sawQuiet)
	}
	if captureScore <= quietScore {
		t.Fatalf("capture score %d should exceed quiet score %d", captureScore, quietScore)
	}
}

func TestInsertKillerDemotesPrimaryToSecondary(t *testing.T) {
	tables := NewTables()
	m1 := board.NewMove(8, 16, board.FlagQuiet)
	m2 := board.NewMove(9, 17, board.FlagQuiet)

	tables.InsertKiller(3, m1)
	tables.InsertKiller(3, m2)

	if tables.Killers[3][0] != m2 || tables.Killers[3][1] != m1 {
		t.Fatalf("unexpected killer slots: %v", tables.Killers[3])
	}
}

func TestHistoryAgesOnceThresholdReached(t *testing.T) {
	tables := NewTables()
	m := board.NewMove(8, 16, board.FlagQuiet)

	for i := 0; i < 20; i++ {
		tables.IncrementHistory(board.White, m, 10)
	}

	if got := tables.History[board.White][m.From()][m.To()]; got >= historyMaxVal {
		t.Fatalf("expected history to have been aged below %d, got %d", historyMaxVal, got)
	}
}

func TestOrderNextSelectsHighestRemainingScore(t *testing.T) {
	moves := []ScoredMove{
		{Move: 1, Score: 5},
		{Move: 2, Score: 50},
		{Move: 3, Score: 20},
	}
	OrderNext(moves, 0)
	if moves[0].Score != 50 {
		t.Fatalf("expected highest score first, got %d", moves[0].Score)
	}
	OrderNext(moves, 1)
	if moves[1].Score != 20 {
		t.Fatalf("expected second-highest score second, got %d", moves[1].Score)
	}
}

func TestScoreCapturesSkipsQuietMoves(t *testing.T) {
	b, err := board.ParseFEN("4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("parse FEN: %v", err)
	}
	scored := ScoreCaptures(b, b.GenerateMoves(), 0)
	for _, sm := range scored {
		if !sm.Move.IsCapture() && sm.Move.PromotionPieceType() == board.PieceTypeNone {
			t.Fatalf("ScoreCaptures returned a quiet move: %s", sm.Move)
		}
	}
	if len(scored) == 0 {
		t.Fatal("expected at least one capture in this position")
	}
}
