package search

import (
	"context"
	"testing"

	"chessforge/board"
)

func TestSearchFindsMateWithEveryToggleDisabled(t *testing.T) {
	b, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("parse FEN: %v", err)
	}
	s := newTestSearcher()
	s.Cfg = Config{} // every toggle off, every threshold zero

	info := s.Search(context.Background(), b, nil, Limits{Depth: 4})
	if !info.Mate {
		t.Fatalf("expected a mate score with all toggles disabled, got %d", info.Score)
	}
}

func TestSearchReturnsMoveUnderAggressiveHistoryPruning(t *testing.T) {
	b, err := board.ParseFEN(board.FENStartPos)
	if err != nil {
		t.Fatalf("parse FEN: %v", err)
	}
	s := newTestSearcher()
	s.Cfg.HistPruneMinQuietIndex = 0
	s.Cfg.HistPruneThreshold = 1 << 30 // everything is "below threshold"
	s.Cfg.HistPruneMaxDepth = 10

	info := s.Search(context.Background(), b, nil, Limits{Depth: 3})
	if len(info.PV) == 0 {
		t.Fatal("expected a best move even with aggressive history pruning")
	}
}

func TestSearchReportsIncreasingSelDepth(t *testing.T) {
	b, err := board.ParseFEN(board.FENStartPos)
	if err != nil {
		t.Fatalf("parse FEN: %v", err)
	}
	s := newTestSearcher()
	info := s.Search(context.Background(), b, nil, Limits{Depth: 3})
	if info.SelDepth < info.Depth {
		t.Fatalf("SelDepth %d should be at least Depth %d", info.SelDepth, info.Depth)
	}
}
