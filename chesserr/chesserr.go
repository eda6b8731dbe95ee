// Package chesserr defines the sentinel error kinds the core reports to its
// external callers. options.Set.SetOption and the cmd/uci front end wrap
// these with fmt.Errorf's %w, so callers can test the kind with errors.Is
// instead of parsing messages. The board package's parse functions return
// plain errors of their own, which cmd/uci reports under these kinds.
package chesserr

import "errors"

var (
	// ErrMalformedFEN is returned when set_position_from_fen is given text
	// that does not parse as a FEN string. The previous position is left
	// untouched.
	ErrMalformedFEN = errors.New("chesserr: malformed FEN")

	// ErrIllegalMove is returned when an externally supplied move string
	// does not name a legal move of the current position.
	ErrIllegalMove = errors.New("chesserr: illegal move")

	// ErrInvalidOption is returned when set_option is given an unrecognized
	// name or a value outside its declared domain. The option's prior value
	// is left unchanged.
	ErrInvalidOption = errors.New("chesserr: invalid option")

	// ErrResourceExhausted is returned when a hash-table resize cannot
	// allocate the requested size. The previous table is retained.
	ErrResourceExhausted = errors.New("chesserr: resource exhausted")

	// ErrInternalInvariantViolation is the kind for a Zobrist mismatch,
	// undo-stack underflow, or other illegal state detected after a move.
	// This module has no audit mode, and no code path returns it.
	ErrInternalInvariantViolation = errors.New("chesserr: internal invariant violation")
)
