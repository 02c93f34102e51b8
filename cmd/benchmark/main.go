package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/fxgraph/fx"
	"github.com/delaneyj/fxgraph/fx/metrics"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

const (
	itersKey   = "iters"
	maxSizeKey = "max-size"
	profileKey = "profile"
	metricsKey = "metrics"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure how long a dispatch takes to propagate through chains of subscribers",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Dispatches measured per graph shape",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  maxSizeKey,
				Usage: "Largest width and height, shapes grow by powers of ten",
				Value: 1_000,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
				Value: "default.pgo",
			},
			&cli.BoolFlag{
				Name:  metricsKey,
				Usage: "Collect runtime metrics and print them after the run",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("benchmark failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	var sizes []int
	for size := 1; size <= int(cmd.Uint(maxSizeKey)); size *= 10 {
		sizes = append(sizes, size)
	}
	iters := int(cmd.Uint(itersKey))

	var (
		hooks fx.Hooks = fx.NopHooks{}
		reg   *prometheus.Registry
	)
	if cmd.Bool(metricsKey) {
		reg = prometheus.NewRegistry()
		hooks = metrics.New(metrics.WithRegistry(reg))
	}

	slog.Info("warming up")
	if _, err := benchmarkPropagate(io.Discard, sizes, iters, fx.NopHooks{}); err != nil {
		return err
	}

	notified, err := benchmarkPropagate(os.Stdout, sizes, iters, hooks)
	if err != nil {
		return err
	}
	slog.Info("benchmark finished", "notifications", notified)

	if reg != nil {
		return renderMetrics(os.Stdout, reg)
	}
	return nil
}

func addOne(v int) int {
	return v + 1
}

// benchmarkPropagate builds, for every width w and height h, a graph of w
// chains of h subscribers hanging off one root, each chain watched by an
// observer, and times dispatches that bump the root.
func benchmarkPropagate(out io.Writer, sizes []int, iters int, hooks fx.Hooks) (int, error) {
	tbl := table.NewWriter()
	tbl.SetTitle("fxgraph")
	tbl.SetOutputMirror(out)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notified := 0

	for _, w := range sizes {
		for _, h := range sizes {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := fx.New(
				fx.WithAppState(fx.AppState{"src": 1}),
				fx.WithLogger(logger),
				fx.WithHooks(hooks),
			)
			src := fx.Root(rt, func(s fx.AppState) int { return s["src"].(int) })
			bump := rt.RegisterFxHandler(func(s fx.AppState, _ ...any) (fx.Effects, error) {
				return fx.Effects{fx.Do(fx.UpdateAppState, s.With("src", s["src"].(int)+1))}, nil
			})

			for i := 0; i < w; i++ {
				last := src
				for j := 0; j < h; j++ {
					next, err := fx.Derived1(rt, last, addOne)
					if err != nil {
						return 0, err
					}
					last = next
				}

				var o *fx.FuncObserver
				o = fx.NewFuncObserver(fmt.Sprintf("chain-%d", i), func() {
					notified++
					rt.WithObserver(o, func() {
						_, _ = rt.Subscribe(last)
					})
				})
				rt.WithObserver(o, func() {
					_, _ = rt.Subscribe(last)
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				if err := rt.Dispatch(bump); err != nil {
					return 0, err
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
	return notified, nil
}

func renderMetrics(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle("runtime metrics")
	tbl.SetOutputMirror(out)
	tbl.AppendHeader(table.Row{"metric", "labels", "value"})
	for _, family := range families {
		for _, m := range family.GetMetric() {
			labels := ""
			for _, l := range m.GetLabel() {
				labels += l.GetName() + "=" + l.GetValue() + " "
			}
			value := m.GetCounter().GetValue()
			if h := m.GetHistogram(); h != nil {
				value = float64(h.GetSampleCount())
			}
			tbl.AppendRow(table.Row{family.GetName(), labels, value})
		}
	}
	tbl.Render()
	return nil
}
