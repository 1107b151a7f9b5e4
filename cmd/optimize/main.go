// Command optimize tunes octree capacity and maximum depth for the viewer workload
// using CMA-ES.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/octree/config"
)

// formatDuration formats a duration as HhMMmSSs or MmSSs for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	ticks := flag.Int("ticks", 1800, "Simulation ticks per run")
	seeds := flag.Int("seeds", 4, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	workers := flag.Int("workers", 0, "Concurrent seed runs (0 = GOMAXPROCS)")
	top := flag.Int("top", 10, "Rows in the result table")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Viewer runs log at info; keep the optimizer output readable.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := NewParamVector(baseCfg)

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	if *workers <= 0 {
		*workers = runtime.GOMAXPROCS(0)
	}
	evaluator := NewEvaluator(params, int32(*ticks), evalSeeds, baseCfg, *workers)

	dim := params.Dim()
	popSize := *population
	if popSize == 0 {
		popSize = 4 + 3*dim
	}

	var results []Result
	bestCost := 1e18
	var best Result
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			r, err := evaluator.Evaluate(ctx, params.Denormalize(x))
			if err != nil {
				log.Printf("evaluation failed: %v", err)
				return 1e18
			}
			results = append(results, r)
			if r.Cost < bestCost {
				bestCost = r.Cost
				best = r
			}

			n := len(results)
			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-n) * (elapsed / time.Duration(n))
			fmt.Printf("Eval %d/%d: capacity=%d max_depth=%d cost=%.2f (best=%.2f) | elapsed: %s, ETA: %s\n",
				n, *maxEvals, r.Capacity, r.MaxDepth, r.Cost, bestCost,
				formatDuration(elapsed), formatDuration(remaining))
			return r.Cost
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // seeds already run concurrently inside Evaluate
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES over %d parameters, population=%d, max_evals=%d\n", dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d, workers: %d\n", *seeds, *ticks, *workers)

	if _, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method); err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if len(results) == 0 {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n\n", len(results), formatDuration(time.Since(startTime)))
	printTable(os.Stdout, distinct(results), *top)

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	if err := writeLog(logPath, results); err != nil {
		log.Printf("failed to write log: %v", err)
	}

	bestCfg := *baseCfg
	bestCfg.Index.Capacity = best.Capacity
	bestCfg.Index.MaxDepth = best.MaxDepth
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}

// distinct returns one result per parameter setting, cheapest first.
func distinct(results []Result) []Result {
	seen := make(map[[2]int]bool)
	var out []Result
	for _, r := range results {
		k := [2]int{r.Capacity, r.MaxDepth}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b Result) int {
		switch {
		case a.Cost < b.Cost:
			return -1
		case a.Cost > b.Cost:
			return 1
		}
		return 0
	})
	return out
}

// printTable renders the best results.
func printTable(w *os.File, results []Result, top int) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Capacity", "Max depth", "Cost", "Visited", "Returned", "Restructures/tick", "Blocks", "Straddle"})
	for i, r := range results {
		if i >= top {
			break
		}
		tbl.AppendRow(table.Row{
			i + 1, r.Capacity, r.MaxDepth,
			fmt.Sprintf("%.2f", r.Cost),
			fmt.Sprintf("%.1f", r.Visited),
			fmt.Sprintf("%.1f", r.Returned),
			fmt.Sprintf("%.3f", r.Restructures),
			fmt.Sprintf("%.0f", r.Blocks),
			fmt.Sprintf("%.2f", r.Straddle),
		})
	}
	tbl.AppendFooter(table.Row{"", "", "", "", "", "", "", "Settings", len(results)})
	tbl.Render()
}

// writeLog saves every evaluation in order.
func writeLog(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&results, f)
}
