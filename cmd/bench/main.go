package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/logbook/internal/platform"
	"github.com/aretw0/logbook/pkg/core"
	"github.com/aretw0/logbook/pkg/git"
)

func main() {
	count := flag.Int("count", 200, "Number of records to add")
	keep := flag.Bool("keep", false, "Keep the benchmark data dir after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "logbook_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc, err := platform.New(ctx, filepath.Join(benchDir, "logs"),
		platform.WithLogger(logger),
		platform.WithAutoInit(true),
		platform.WithAuthor(git.Identity{Name: "bench", Email: "bench@example.com"}),
	)
	if err != nil {
		panic(err)
	}

	// Every add is one commit, so this measures git overhead as much as encoding.
	fmt.Printf("Adding %d records in %s...\n", *count, benchDir)
	start := time.Now()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var last core.Record
	for i := 0; i < *count; i++ {
		last, err = svc.Add(ctx, map[string]string{
			"desc": fmt.Sprintf("Benchmark record %d", i),
			"time": base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
			"host": fmt.Sprintf("host-%03d", i%50),
		})
		if err != nil {
			panic(err)
		}
	}
	addTook := time.Since(start)

	start = time.Now()
	n := 0
	for _, err := range svc.CollectLogs(ctx, nil, core.MatchField(svc.Schema(), "host", "host-00*")) {
		if err != nil {
			panic(err)
		}
		n++
	}
	collectTook := time.Since(start)

	start = time.Now()
	recent, err := svc.RecentLogs(ctx, 10)
	if err != nil {
		panic(err)
	}
	recentTook := time.Since(start)

	start = time.Now()
	if _, err := svc.Resolve(ctx, last.ShortID()); err != nil {
		panic(err)
	}
	resolveTook := time.Since(start)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d records):\n", *count)
	fmt.Printf("  Add:     %v (%v/record)\n", addTook, addTook/time.Duration(max(*count, 1)))
	fmt.Printf("  Collect: %v (matched %d)\n", collectTook, n)
	fmt.Printf("  Recent:  %v (items %d)\n", recentTook, len(recent))
	fmt.Printf("  Resolve: %v\n", resolveTook)
	fmt.Printf("--------------------------------------------------\n")
}
