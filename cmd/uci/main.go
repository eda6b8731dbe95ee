// Command uci is the UCI protocol front end: it reads commands from stdin,
// drives a parallel.Driver over a chessforge/board position, and writes
// UCI-formatted info/bestmove responses to stdout.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chessforge/board"
	"chessforge/chesserr"
	"chessforge/eval"
	"chessforge/options"
	"chessforge/parallel"
	"chessforge/search"
	"chessforge/ttable"
)

const mib = 1 << 20

type engine struct {
	pos     *board.Board
	history []uint64
	opts    *options.Set
	tt      *ttable.Table
	abdada  *ttable.ABDADA
	driver  *parallel.Driver
	log     zerolog.Logger

	cancel   context.CancelFunc
	searchWg sync.WaitGroup
}

func newEngine() *engine {
	pos, _ := board.ParseFEN(board.FENStartPos)
	opts := options.New()
	tt := ttable.New(opts.HashMiB() * mib)
	ab := ttable.NewABDADA()
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	e := &engine{
		pos:    pos,
		opts:   opts,
		tt:     tt,
		abdada: ab,
		log:    log,
	}
	e.rebuildDriver()
	return e
}

func (e *engine) rebuildDriver() {
	d := parallel.New(e.tt, e.abdada, eval.NewMaterial(), e.log)
	d.Threads = e.opts.Threads()
	if e.opts.ParallelMode() == options.LazySMP {
		d.Mode = parallel.LazySMP
	} else {
		d.Mode = parallel.WorkStealing
	}
	d.Cfg = e.opts.SearchConfig()
	minDepth, minMoves := e.opts.SplitThresholds()
	d.SplitMinDepth = minDepth
	d.SplitMinMoves = minMoves
	d.LazySMPDelta = e.opts.LazySMPDelta()
	e.tt.SetAgingDepthThreshold(e.opts.TTAgingDepthThreshold())
	e.driver = d
	board.SetIndexMode(e.opts.PEXTMode())
}

// safeResizeTT allocates a replacement transposition table of the requested
// size, recovering from an allocation panic so a pathological Hash value
// reports ErrResourceExhausted instead of crashing the process.
func safeResizeTT(byteBudget int) (tt *ttable.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			tt = nil
			err = fmt.Errorf("cmd/uci: hash resize to %d bytes failed: %w", byteBudget, chesserr.ErrResourceExhausted)
		}
	}()
	return ttable.New(byteBudget), nil
}

func (e *engine) setOption(name, value string) {
	if err := e.opts.SetOption(name, value); err != nil {
		fmt.Fprintf(os.Stderr, "info string %v\n", err)
		return
	}
	if name == "Hash" {
		mb, _ := strconv.Atoi(value)
		tt, err := safeResizeTT(mb * mib)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string %v\n", err)
			return
		}
		e.tt = tt
	}
	e.rebuildDriver()
}

func (e *engine) setPosition(fen string, moves []string) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "info string %v\n", fmt.Errorf("cmd/uci: %w", chesserr.ErrMalformedFEN))
		return
	}
	history := []uint64{pos.Hash()}
	for _, mv := range moves {
		partial, err := board.ParseMove(mv)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string %v\n", fmt.Errorf("cmd/uci: %w", chesserr.ErrIllegalMove))
			return
		}
		full, err := pos.ResolveMove(partial)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string %v\n", fmt.Errorf("cmd/uci: %s: %w", mv, chesserr.ErrIllegalMove))
			return
		}
		if ok, _ := pos.MakeMove(full); !ok {
			fmt.Fprintf(os.Stderr, "info string %v\n", fmt.Errorf("cmd/uci: %s: %w", mv, chesserr.ErrIllegalMove))
			return
		}
		history = append(history, pos.Hash())
	}
	e.pos = pos
	e.history = history
}

func (e *engine) parseGo(fields []string) search.Limits {
	var limits search.Limits
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				limits.Depth, _ = strconv.Atoi(fields[i+1])
			}
		case "nodes":
			if i+1 < len(fields) {
				n, _ := strconv.ParseUint(fields[i+1], 10, 64)
				limits.Nodes = n
			}
		case "movetime":
			if i+1 < len(fields) {
				ms, _ := strconv.Atoi(fields[i+1])
				limits.MoveTime = time.Duration(ms) * time.Millisecond
			}
		case "wtime":
			if i+1 < len(fields) {
				ms, _ := strconv.Atoi(fields[i+1])
				limits.WhiteTime = time.Duration(ms) * time.Millisecond
			}
		case "btime":
			if i+1 < len(fields) {
				ms, _ := strconv.Atoi(fields[i+1])
				limits.BlackTime = time.Duration(ms) * time.Millisecond
			}
		case "winc":
			if i+1 < len(fields) {
				ms, _ := strconv.Atoi(fields[i+1])
				limits.WhiteInc = time.Duration(ms) * time.Millisecond
			}
		case "binc":
			if i+1 < len(fields) {
				ms, _ := strconv.Atoi(fields[i+1])
				limits.BlackInc = time.Duration(ms) * time.Millisecond
			}
		case "movestogo":
			if i+1 < len(fields) {
				limits.MovesToGo, _ = strconv.Atoi(fields[i+1])
			}
		case "infinite":
			limits.Infinite = true
		}
	}
	return limits
}

func (e *engine) go_(fields []string) {
	e.stop()
	limits := e.parseGo(fields)

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	posCopy := *e.pos
	history := append([]uint64(nil), e.history...)

	e.searchWg.Add(1)
	go func() {
		defer e.searchWg.Done()
		result := e.driver.Search(ctx, &posCopy, history, limits, func(info search.Info) {
			printInfo(info, e.driver.Stats())
		})
		printBestMove(result)
	}()
}

func (e *engine) stop() {
	if e.cancel != nil {
		e.cancel()
		e.searchWg.Wait()
		e.cancel = nil
	}
}

func printInfo(info search.Info, stats ttable.Stats) {
	var scoreField string
	if info.Mate {
		plies := search.MateScore - abs32(info.Score)
		mateIn := (plies + 1) / 2
		if info.Score < 0 {
			mateIn = -mateIn
		}
		scoreField = fmt.Sprintf("mate %d", mateIn)
	} else {
		scoreField = fmt.Sprintf("cp %d", info.Score)
	}

	nps := uint64(0)
	if info.Time > 0 {
		nps = uint64(float64(info.Nodes) / info.Time.Seconds())
	}

	var pv strings.Builder
	for i, m := range info.PV {
		if i > 0 {
			pv.WriteByte(' ')
		}
		pv.WriteString(m.String())
	}

	fmt.Printf("info depth %d seldepth %d score %s nodes %d nps %d hashfull %d time %d pv %s\n",
		info.Depth, info.SelDepth, scoreField, info.Nodes, nps, stats.HashFull, info.Time.Milliseconds(), pv.String())
}

func printBestMove(res parallel.Result) {
	if res.BestMove == 0 {
		fmt.Println("bestmove (none)")
		return
	}
	if res.PonderMove != 0 {
		fmt.Printf("bestmove %s ponder %s\n", res.BestMove, res.PonderMove)
		return
	}
	fmt.Printf("bestmove %s\n", res.BestMove)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func main() {
	e := newEngine()
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("id name chessforge")
	fmt.Println("id author the chessforge contributors")
	fmt.Println("uciok")

	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			handleLine(e, line)
		}
		if err != nil {
			return
		}
	}
}

func handleLine(e *engine, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "quit":
		e.stop()
		os.Exit(0)

	case "isready":
		fmt.Println("readyok")

	case "ucinewgame":
		e.stop()
		e.tt.Clear()
		e.abdada = ttable.NewABDADA()
		pos, _ := board.ParseFEN(board.FENStartPos)
		e.pos = pos
		e.history = []uint64{pos.Hash()}
		e.rebuildDriver()

	case "setoption":
		name, value := parseSetOption(fields)
		e.setOption(name, value)

	case "position":
		if len(fields) < 2 {
			return
		}
		if fields[1] == "startpos" {
			rest := fields[2:]
			var moves []string
			if len(rest) > 0 && rest[0] == "moves" {
				moves = rest[1:]
			}
			e.setPosition(board.FENStartPos, moves)
		} else if fields[1] == "fen" {
			fen, moves := parseFENCommand(fields[2:])
			e.setPosition(fen, moves)
		}

	case "go":
		e.go_(fields)

	case "stop":
		e.stop()

	case "ponderhit":
		// no ponder-specific handling: treat identically to a running search.
	}
}

// parseSetOption extracts name and value from the UCI
// "setoption name X value Y" syntax, tolerating a multi-word name.
func parseSetOption(fields []string) (name, value string) {
	var nameParts, valueParts []string
	mode := 0
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "name":
			mode = 1
		case "value":
			mode = 2
		default:
			switch mode {
			case 1:
				nameParts = append(nameParts, fields[i])
			case 2:
				valueParts = append(valueParts, fields[i])
			}
		}
	}
	return strings.Join(nameParts, " "), strings.Join(valueParts, " ")
}

// parseFENCommand splits "<fen fields> [moves ...]" into the FEN string and
// the trailing move list.
func parseFENCommand(fields []string) (fen string, moves []string) {
	for i, f := range fields {
		if f == "moves" {
			return strings.Join(fields[:i], " "), fields[i+1:]
		}
	}
	return strings.Join(fields, " "), nil
}
