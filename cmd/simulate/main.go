package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"gonum.org/v1/gonum/stat"

	"github.com/Ashenafi-pixel/canister-games-gateway/gamemath"
	"github.com/Ashenafi-pixel/canister-games-gateway/games/mines"
	"github.com/Ashenafi-pixel/canister-games-gateway/games/wheel"
	"github.com/Ashenafi-pixel/canister-games-gateway/rng"
)

type options struct {
	game      string
	risk      gamemath.Risk
	segments  int
	spins     int
	mineCount int
	seed      int64
	tables    string
	progress  bool
}

func main() {
	var o options
	var risk string
	flag.StringVar(&o.game, "game", "wheel", "wheel or mines")
	flag.StringVar(&risk, "risk", "medium", "wheel risk: low, medium or high")
	flag.IntVar(&o.segments, "segments", 10, "wheel segment count")
	flag.IntVar(&o.spins, "spins", 100000, "rounds to simulate")
	flag.IntVar(&o.mineCount, "mines", 3, "mine count for -game mines")
	flag.Int64Var(&o.seed, "seed", 0, "PRNG seed (0 picks a random one)")
	flag.StringVar(&o.tables, "tables", "", "optional YAML risk table file")
	flag.BoolVar(&o.progress, "progress", true, "show a progress bar")
	flag.Parse()
	o.risk = gamemath.ParseRisk(risk)
	if o.seed == 0 {
		o.seed = rng.NewRandomSeed()
	}

	var err error
	switch o.game {
	case "wheel":
		err = simulateWheel(os.Stdout, o)
	case "mines":
		err = simulateMines(os.Stdout, o)
	default:
		err = fmt.Errorf("unknown game %q", o.game)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
}

func newBar(n int, show bool) *pb.ProgressBar {
	bar := pb.StartNew(n)
	if !show {
		bar.SetWriter(io.Discard)
	}
	return bar
}

// simulateWheel spins the local generator and compares the sample mean with the table's expectation.
func simulateWheel(w io.Writer, o options) error {
	if o.spins <= 0 {
		return fmt.Errorf("spins must be > 0")
	}
	tables := gamemath.DefaultTables()
	if o.tables != "" {
		t, err := gamemath.LoadTables(o.tables)
		if err != nil {
			return err
		}
		tables = t
	}
	gen := wheel.NewGenerator(rng.NewSeeded(o.seed), tables)
	samples := make([]float64, o.spins)
	zeros := 0
	bar := newBar(o.spins, o.progress)
	for i := range samples {
		res, err := gen.Spin(o.risk, o.segments)
		if err != nil {
			bar.Finish()
			return err
		}
		samples[i] = res.Multiplier
		if res.Multiplier == 0 {
			zeros++
		}
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()

	table := tables.Lookup(o.risk)
	mean, std := stat.MeanStdDev(samples, nil)
	fmt.Fprintf(w, "wheel risk=%s segments=%d spins=%d seed=%d (%s)\n", o.risk, o.segments, o.spins, o.seed, used.Round(time.Millisecond))
	fmt.Fprintf(w, "  mean multiplier   %.4f (table %.4f)\n", mean, table.Expected())
	fmt.Fprintf(w, "  std dev           %.4f\n", std)
	fmt.Fprintf(w, "  zero rate         %.4f (table %.4f)\n", float64(zeros)/float64(o.spins), table.ZeroShare())
	fmt.Fprintf(w, "  max multiplier    %.2f\n", maxOf(samples))
	return nil
}

// simulateMines plays random boards through the local reveal rule until each finishes
// and reports how often it is lost, and after how many safe reveals.
func simulateMines(w io.Writer, o options) error {
	if o.spins <= 0 {
		return fmt.Errorf("spins must be > 0")
	}
	if o.mineCount < 0 || o.mineCount > mines.MaxMines {
		return fmt.Errorf("mines must be within [0,%d]", mines.MaxMines)
	}
	src := rng.NewSeeded(o.seed)
	safeRuns := make([]float64, 0, o.spins)
	losses := 0
	bar := newBar(o.spins, o.progress)
	for i := 0; i < o.spins; i++ {
		bet := int64(src.IntN(1_000_000))
		var board mines.Board
		for !board.Finished() {
			cell := src.IntN(mines.Cells)
			if board.Revealed.Has(cell) {
				continue
			}
			next, err := mines.ApplyFallbackReveal(board, cell, o.mineCount, bet)
			if err != nil {
				bar.Finish()
				return err
			}
			board = next
		}
		if board.Status == mines.Lost {
			losses++
		}
		safeRuns = append(safeRuns, float64(board.SafeRevealed()))
		bar.Increment()
	}
	bar.Finish()

	mean, std := stat.MeanStdDev(safeRuns, nil)
	fmt.Fprintf(w, "mines fallback mines=%d games=%d seed=%d\n", o.mineCount, o.spins, o.seed)
	fmt.Fprintf(w, "  loss rate         %.4f\n", float64(losses)/float64(o.spins))
	fmt.Fprintf(w, "  safe reveals      %.2f ± %.2f\n", mean, std)
	return nil
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}
