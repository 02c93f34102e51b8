package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/delaneyj/fxgraph/fx"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	configKey  = "config"
	repeatsKey = "repeats"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark_graph",
		Usage: "Run layered dependency graph benchmarks against the fx runtime",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configKey,
				Usage: "YAML file describing the graphs to run, the built-in suite is used otherwise",
			},
			&cli.UintFlag{
				Name:  repeatsKey,
				Usage: "Override how many times each graph is run, the best run is kept",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("benchmark failed", "error", err)
		os.Exit(1)
	}
}

type result struct {
	sum      int
	count    int64
	duration time.Duration
}

func run(ctx context.Context, cmd *cli.Command) error {
	suite := defaultSuite()
	if path := cmd.String(configKey); path != "" {
		loaded, err := loadSuite(path)
		if err != nil {
			return err
		}
		suite = loaded
	}
	if repeats := cmd.Uint(repeatsKey); repeats > 0 {
		suite.Repeats = int(repeats)
	}

	slog.Info("starting graph benchmark, please wait...")
	defer slog.Info("finished graph benchmark")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"framework", "size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "sum", "updateRate", "title",
	})

	for _, cfg := range suite.Tests {
		best, err := runConfig(cfg, suite.Repeats)
		if err != nil {
			return fmt.Errorf("%s: %w", cfg.Name, err)
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))
		table.Append([]string{
			"fxgraph",
			fmt.Sprintf("%dx%d", cfg.Width, cfg.TotalLayers),
			fmt.Sprint(cfg.NSources),
			fmt.Sprint(cfg.ReadFraction),
			fmt.Sprint(cfg.StaticFraction),
			humanize.Comma(cfg.Iterations),
			cfg.Name,
			fmt.Sprint(best.duration),
			humanize.Comma(int64(best.sum)),
			humanize.Comma(int64(updateRate)),
			cfg.title(),
		})
	}
	table.Render()
	return nil
}

func runConfig(cfg testConfig, repeats int) (result, error) {
	slog.Info("running config", "name", cfg.Name)
	counter := new(int64)
	graph, err := makeGraph(cfg, counter, fx.NopHooks{})
	if err != nil {
		return result{}, err
	}

	// warm up
	if _, err := runGraph(graph, cfg.Iterations, cfg.ReadFraction); err != nil {
		return result{}, err
	}

	best := result{duration: time.Hour}
	for i := 0; i < repeats; i++ {
		slog.Info("running config", "name", cfg.Name, "iteration", i+1, "of", repeats)
		*counter = 0
		start := time.Now()
		sum, err := runGraph(graph, cfg.Iterations, cfg.ReadFraction)
		if err != nil {
			return result{}, err
		}
		duration := time.Since(start)

		if duration < best.duration {
			best = result{sum: sum, count: *counter, duration: duration}
		}
	}
	return best, nil
}
