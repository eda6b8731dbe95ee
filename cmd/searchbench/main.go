// Command searchbench runs the parallel search driver repeatedly over a
// fixed position and depth, reporting timing and node-count statistics —
// useful for A/B-testing pruning/ordering changes without a full game.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"chessforge/board"
	"chessforge/eval"
	"chessforge/options"
	"chessforge/parallel"
	"chessforge/search"
	"chessforge/ttable"
)

func main() {
	depthFlag := flag.Int("depth", 10, "search depth in plies")
	repeatFlag := flag.Int("repeat", 1, "number of searches to run")
	fenFlag := flag.String("fen", "", "FEN to search (empty = startpos)")
	threadsFlag := flag.Int("threads", 1, "worker thread count")
	hashFlag := flag.Int("hash", 64, "hash table size in MiB")
	cpuProfile := flag.Bool("cpuprofile", false, "profile this run with github.com/pkg/profile")
	flag.Parse()

	if *depthFlag <= 0 {
		log.Fatalf("depth must be positive, got %d", *depthFlag)
	}

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	fen := board.FENStartPos
	if *fenFlag != "" {
		fen = *fenFlag
	}

	opts := options.New()
	if err := opts.SetOption("Hash", fmt.Sprint(*hashFlag)); err != nil {
		log.Fatalf("Hash option: %v", err)
	}
	if err := opts.SetOption("Threads", fmt.Sprint(*threadsFlag)); err != nil {
		log.Fatalf("Threads option: %v", err)
	}

	tt := ttable.New(opts.HashMiB() << 20)
	driver := parallel.New(tt, ttable.NewABDADA(), eval.NewMaterial(), zerolog.Nop())
	driver.Threads = opts.Threads()
	driver.Cfg = opts.SearchConfig()

	fmt.Printf("searchbench: fen=%q depth=%d repeat=%d threads=%d hash=%dMiB\n",
		fen, *depthFlag, *repeatFlag, opts.Threads(), opts.HashMiB())

	startAll := time.Now()
	var totalNodes uint64
	for i := 0; i < *repeatFlag; i++ {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			log.Fatalf("ParseFEN: %v", err)
		}
		tt.Clear()

		iterStart := time.Now()
		result := driver.Search(context.Background(), pos, []uint64{pos.Hash()}, search.Limits{Depth: *depthFlag}, nil)
		iterElapsed := time.Since(iterStart)
		totalNodes += result.Nodes

		fmt.Printf("iteration %d: bestmove=%s score=%d depth=%d nodes=%d time=%v\n",
			i+1, result.BestMove, result.Score, result.Depth, result.Nodes, iterElapsed)
	}
	totalElapsed := time.Since(startAll)
	fmt.Printf("total time: %v, total nodes: %d, nps: %.0f\n",
		totalElapsed, totalNodes, float64(totalNodes)/totalElapsed.Seconds())

	os.Exit(0)
}
