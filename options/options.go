// Package options implements the typed configuration surface a textual
// protocol layer drives with `set_option(name, value)`: every recognized
// name has a declared value domain, so a bad name or an out-of-range value
// is rejected by a real domain check rather than discovered as a parse
// failure deep inside the search.
package options

import (
	"fmt"
	"strconv"
	"strings"

	"chessforge/board"
	"chessforge/chesserr"
	"chessforge/search"
)

// ParallelMode selects how the driver spreads work across worker threads.
type ParallelMode int

const (
	WorkStealing ParallelMode = iota
	LazySMP
)

func (m ParallelMode) String() string {
	if m == LazySMP {
		return "LazySMP"
	}
	return "WorkStealing"
}

// Set holds every recognized option's current value. It is not safe for
// concurrent SetOption calls without external synchronization, but reads of
// the exported snapshot methods (SearchConfig, HashMiB, Threads, ...) are cheap
// value copies, so a caller can read a stable snapshot while another
// goroutine mutates the set between searches.
type Set struct {
	hashMiB int
	threads int

	cfg search.Config

	parallelMode ParallelMode

	splitMinDepth int
	splitMinMoves int

	lazySMPDelta int32

	pextMode board.IndexMode

	ttAgingDepthThreshold int
}

// New returns a Set populated with every documented default.
func New() *Set {
	return &Set{
		hashMiB:               16,
		threads:               1,
		cfg:                   search.DefaultConfig(),
		parallelMode:          WorkStealing,
		splitMinDepth:         5,
		splitMinMoves:         4,
		lazySMPDelta:          25,
		pextMode:              board.IndexDisable,
		ttAgingDepthThreshold: 8,
	}
}

// HashMiB returns the current hash table size in mebibytes.
func (s *Set) HashMiB() int { return s.hashMiB }

// Threads returns the current worker thread count.
func (s *Set) Threads() int { return s.threads }

// SearchConfig returns a copy of the node-algorithm toggles and margins
// derived from the boolean/threshold options, suitable for handing straight
// to search.NewSearcher's workers.
func (s *Set) SearchConfig() search.Config { return s.cfg }

// ParallelMode returns the current work-distribution strategy.
func (s *Set) ParallelMode() ParallelMode { return s.parallelMode }

// SplitThresholds returns the work-stealing split-point minimum depth and
// minimum legal-move count.
func (s *Set) SplitThresholds() (minDepth, minMoves int) { return s.splitMinDepth, s.splitMinMoves }

// LazySMPDelta returns the per-worker aspiration-window offset step, in
// centipawns, used to bias LazySMP workers' windows apart from each other.
func (s *Set) LazySMPDelta() int32 { return s.lazySMPDelta }

// PEXTMode returns the current sliding-piece attack indexing strategy.
func (s *Set) PEXTMode() board.IndexMode { return s.pextMode }

// TTAgingDepthThreshold returns the depth at which a transposition table
// entry's effective age is halved during bucket replacement.
func (s *Set) TTAgingDepthThreshold() int { return s.ttAgingDepthThreshold }

// boolOption and intOption describe one recognized option's validation and
// assignment, letting SetOption dispatch through a single table instead of
// a long if/else chain.
type boolOption struct {
	set func(s *Set, v bool)
}

type intOption struct {
	lo, hi int
	set    func(s *Set, v int)
}

var boolOptions = map[string]boolOption{
	"NullMove":          {func(s *Set, v bool) { s.cfg.UseNullMove = v }},
	"Futility":          {func(s *Set, v bool) { s.cfg.UseFutility = v }},
	"Razoring":          {func(s *Set, v bool) { s.cfg.UseRazoring = v }},
	"Aspiration":        {func(s *Set, v bool) { s.cfg.UseAspiration = v }},
	"SingularExtension": {func(s *Set, v bool) { s.cfg.UseSingularExtension = v }},
	"ProbCut":           {func(s *Set, v bool) { s.cfg.UseProbCut = v }},
	"CheckExtension":    {func(s *Set, v bool) { s.cfg.UseCheckExtension = v }},
}

var intOptions = map[string]intOption{
	"Hash":                   {1, 32768, func(s *Set, v int) { s.hashMiB = v }},
	"Threads":                {1, 512, func(s *Set, v int) { s.threads = v }},
	"SplitMinDepth":          {1, 32, func(s *Set, v int) { s.splitMinDepth = v }},
	"SplitMinMoves":          {1, 64, func(s *Set, v int) { s.splitMinMoves = v }},
	"LazySMPAspirationDelta": {0, 400, func(s *Set, v int) { s.lazySMPDelta = int32(v) }},
	"TTAgingDepthThreshold":  {1, 63, func(s *Set, v int) { s.ttAgingDepthThreshold = v }},
	"HistPruneMinQuietIndex": {0, 64, func(s *Set, v int) { s.cfg.HistPruneMinQuietIndex = v }},
	"HistPruneMaxDepth":      {0, 32, func(s *Set, v int) { s.cfg.HistPruneMaxDepth = v }},
	"SEEGoodCaptureThreshold": {-2000, 2000, func(s *Set, v int) { s.cfg.SEEGoodCaptureThreshold = int32(v) }},
	"HistPruneThreshold":     {-100000, 100000, func(s *Set, v int) { s.cfg.HistPruneThreshold = int32(v) }},
}

// SetOption validates and applies name=value, following exactly the naming
// this table documents. On any rejection the prior value is left untouched
// and the returned error wraps chesserr.ErrInvalidOption.
func (s *Set) SetOption(name, value string) error {
	if b, ok := boolOptions[name]; ok {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("options: %s value %q is not a boolean: %w", name, value, chesserr.ErrInvalidOption)
		}
		b.set(s, v)
		return nil
	}

	if i, ok := intOptions[name]; ok {
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("options: %s value %q is not an integer: %w", name, value, chesserr.ErrInvalidOption)
		}
		if v < i.lo || v > i.hi {
			return fmt.Errorf("options: %s value %d outside [%d, %d]: %w", name, v, i.lo, i.hi, chesserr.ErrInvalidOption)
		}
		i.set(s, v)
		return nil
	}

	switch name {
	case "ParallelMode":
		switch strings.ToLower(value) {
		case "workstealing":
			s.parallelMode = WorkStealing
		case "lazysmp":
			s.parallelMode = LazySMP
		default:
			return fmt.Errorf("options: ParallelMode value %q must be WorkStealing or LazySMP: %w", value, chesserr.ErrInvalidOption)
		}
		return nil

	case "PEXTMode":
		switch strings.ToLower(value) {
		case "auto":
			s.pextMode = board.IndexAuto
		case "force":
			s.pextMode = board.IndexForce
		case "disable":
			s.pextMode = board.IndexDisable
		default:
			return fmt.Errorf("options: PEXTMode value %q must be Auto, Force, or Disable: %w", value, chesserr.ErrInvalidOption)
		}
		return nil
	}

	return fmt.Errorf("options: unrecognized option %q: %w", name, chesserr.ErrInvalidOption)
}
