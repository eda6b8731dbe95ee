package options

import (
	"errors"
	"testing"

	"chessforge/board"
	"chessforge/chesserr"
)

func TestNewHasDocumentedDefaults(t *testing.T) {
	s := New()
	if s.HashMiB() != 16 {
		t.Fatalf("default Hash = %d, want 16", s.HashMiB())
	}
	if s.Threads() != 1 {
		t.Fatalf("default Threads = %d, want 1", s.Threads())
	}
	if s.ParallelMode() != WorkStealing {
		t.Fatalf("default ParallelMode = %v, want WorkStealing", s.ParallelMode())
	}
	if s.PEXTMode() != board.IndexDisable {
		t.Fatalf("default PEXTMode = %v, want IndexDisable", s.PEXTMode())
	}
	if !s.SearchConfig().UseNullMove {
		t.Fatal("default NullMove should be enabled")
	}
}

func TestSetOptionAppliesValidValues(t *testing.T) {
	s := New()
	if err := s.SetOption("Hash", "256"); err != nil {
		t.Fatalf("Hash=256: %v", err)
	}
	if s.HashMiB() != 256 {
		t.Fatalf("HashMiB() = %d, want 256", s.HashMiB())
	}

	if err := s.SetOption("NullMove", "false"); err != nil {
		t.Fatalf("NullMove=false: %v", err)
	}
	if s.SearchConfig().UseNullMove {
		t.Fatal("UseNullMove should be false after SetOption")
	}

	if err := s.SetOption("ParallelMode", "LazySMP"); err != nil {
		t.Fatalf("ParallelMode=LazySMP: %v", err)
	}
	if s.ParallelMode() != LazySMP {
		t.Fatalf("ParallelMode() = %v, want LazySMP", s.ParallelMode())
	}

	if err := s.SetOption("PEXTMode", "Force"); err != nil {
		t.Fatalf("PEXTMode=Force: %v", err)
	}
	if s.PEXTMode() != board.IndexForce {
		t.Fatalf("PEXTMode() = %v, want IndexForce", s.PEXTMode())
	}
}

func TestSetOptionRejectsOutOfRangeAndLeavesPriorValue(t *testing.T) {
	s := New()
	if err := s.SetOption("Hash", "0"); err == nil || !errors.Is(err, chesserr.ErrInvalidOption) {
		t.Fatalf("Hash=0 should be rejected with ErrInvalidOption, got %v", err)
	}
	if s.HashMiB() != 16 {
		t.Fatalf("HashMiB() = %d after rejected set, want unchanged 16", s.HashMiB())
	}

	if err := s.SetOption("Threads", "99999"); err == nil || !errors.Is(err, chesserr.ErrInvalidOption) {
		t.Fatalf("Threads=99999 should be rejected, got %v", err)
	}
}

func TestSetOptionRejectsUnrecognizedName(t *testing.T) {
	s := New()
	err := s.SetOption("NotARealOption", "1")
	if err == nil || !errors.Is(err, chesserr.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption for unknown option, got %v", err)
	}
}

func TestSetOptionRejectsMalformedValue(t *testing.T) {
	s := New()
	if err := s.SetOption("Hash", "not-a-number"); err == nil || !errors.Is(err, chesserr.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption for malformed int, got %v", err)
	}
	if err := s.SetOption("NullMove", "maybe"); err == nil || !errors.Is(err, chesserr.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption for malformed bool, got %v", err)
	}
}
