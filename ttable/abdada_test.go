package ttable

import (
	"testing"

	"chessforge/board"
)

func TestShouldDeferFalseBeforeReservation(t *testing.T) {
	a := NewABDADA()
	m := board.NewMove(8, 16, board.FlagQuiet)

	if a.ShouldDefer(1, m, 5) {
		t.Fatal("nothing reserved yet, should not defer")
	}
}

func TestShouldDeferTrueAfterReservationAtSufficientDepth(t *testing.T) {
	a := NewABDADA()
	m := board.NewMove(8, 16, board.FlagQuiet)

	a.TryStartSearch(1, m, 6)

	if !a.ShouldDefer(1, m, 6) {
		t.Fatal("expected defer once another worker reserved the same move at >= depth")
	}
	if !a.ShouldDefer(1, m, 4) {
		t.Fatal("expected defer at a shallower requested depth too")
	}
}

func TestShouldDeferFalseBelowDeferDepth(t *testing.T) {
	a := NewABDADA()
	m := board.NewMove(8, 16, board.FlagQuiet)

	a.TryStartSearch(1, m, 6)

	if a.ShouldDefer(1, m, deferDepth-1) {
		t.Fatal("shallow searches below deferDepth should never defer")
	}
}

func TestEndSearchClearsReservation(t *testing.T) {
	a := NewABDADA()
	m := board.NewMove(8, 16, board.FlagQuiet)

	a.TryStartSearch(1, m, 6)
	a.EndSearch(1, m)

	if a.ShouldDefer(1, m, 6) {
		t.Fatal("expected no defer after the reservation was released")
	}
}

func TestReservationsAreKeyedByPositionAndMove(t *testing.T) {
	a := NewABDADA()
	m1 := board.NewMove(8, 16, board.FlagQuiet)
	m2 := board.NewMove(9, 17, board.FlagQuiet)

	a.TryStartSearch(1, m1, 6)

	if a.ShouldDefer(1, m2, 6) {
		t.Fatal("a different move at the same position should not be deferred")
	}
	if a.ShouldDefer(2, m1, 6) {
		t.Fatal("the same move at a different position should not be deferred")
	}
}
