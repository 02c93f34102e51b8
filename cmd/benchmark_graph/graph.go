package main

import (
	"io"
	"log/slog"
	"math"
	"math/rand"

	"github.com/delaneyj/fxgraph/fx"
)

// sourceKey keeps the source entries of the AppState apart from anything else.
type sourceKey int

type benchmarkGraph struct {
	rt      *fx.Runtime
	write   fx.Identifier
	sources []fx.Identifier
	layers  [][]fx.Identifier
}

// makeGraph builds a layered graph: one root subscriber per source, then
// TotalLayers-1 rows of derived subscribers each reading NSources nodes of
// the row above.
func makeGraph(cfg testConfig, counter *int64, hooks fx.Hooks) (*benchmarkGraph, error) {
	state := make(fx.AppState, cfg.Width)
	for i := 0; i < cfg.Width; i++ {
		state[sourceKey(i)] = i
	}

	rt := fx.New(
		fx.WithAppState(state),
		fx.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		fx.WithHooks(hooks),
	)
	g := &benchmarkGraph{rt: rt}

	g.write = fx.RegisterFxHandlerOf(rt, func(s fx.AppState, w sourceWrite) (fx.Effects, error) {
		return fx.Effects{fx.Do(fx.UpdateAppState, s.With(sourceKey(w.index), w.value))}, nil
	})

	g.sources = make([]fx.Identifier, cfg.Width)
	for i := range g.sources {
		key := sourceKey(i)
		g.sources[i] = fx.Root(rt, func(s fx.AppState) int { return s[key].(int) })
	}

	random := rand.New(rand.NewSource(0))
	prevRow := g.sources
	g.layers = make([][]fx.Identifier, cfg.TotalLayers-1)
	for l := range g.layers {
		row, err := makeRow(rt, prevRow, cfg, counter, random)
		if err != nil {
			return nil, err
		}
		g.layers[l] = row
		prevRow = row
	}
	return g, nil
}

type sourceWrite struct {
	index, value int
}

func makeRow(rt *fx.Runtime, sources []fx.Identifier, cfg testConfig, counter *int64, random *rand.Rand) ([]fx.Identifier, error) {
	row := make([]fx.Identifier, len(sources))
	for myDex := range sources {
		mySources := make([]fx.Identifier, 0, cfg.NSources)
		for sourceDex := 0; sourceDex < cfg.NSources; sourceDex++ {
			mySources = append(mySources, sources[(myDex+sourceDex)%len(sources)])
		}

		static := random.Float64() < cfg.StaticFraction || cfg.NSources < 2
		var fn fx.DerivedFn
		if static {
			fn = func(deps []any, _ ...any) any {
				*counter++
				sum := 0
				for _, v := range deps {
					sum += v.(int)
				}
				return sum
			}
		} else {
			// the dependencies are fixed at registration, a dynamic node
			// only changes which of them it adds up
			fn = func(deps []any, _ ...any) any {
				*counter++
				sum := deps[0].(int)
				tail := deps[1:]
				shouldDrop := sum&0x1 > 0
				dropDex := sum % len(tail)
				for i, v := range tail {
					if shouldDrop && i == dropDex {
						continue
					}
					sum += v.(int)
				}
				return sum
			}
		}

		id, err := rt.RegisterDerived(mySources, fn)
		if err != nil {
			return nil, err
		}
		row[myDex] = id
	}
	return row, nil
}

// runGraph writes one source per iteration and reads some or all of the
// leaves. It returns the sum of the leaves read.
func runGraph(g *benchmarkGraph, iterations int64, readFraction float64) (int, error) {
	random := rand.New(rand.NewSource(0))
	leaves := g.layers[len(g.layers)-1]
	skipCount := int(math.Round(float64(len(leaves)) * (1 - readFraction)))
	readLeaves := removeElems(leaves, skipCount, random)

	for i := 0; i < int(iterations); i++ {
		sourceDex := i % len(g.sources)
		if err := g.rt.Dispatch(g.write, sourceWrite{index: sourceDex, value: i + sourceDex}); err != nil {
			return 0, err
		}
		for _, leaf := range readLeaves {
			if _, err := g.rt.Subscribe(leaf); err != nil {
				return 0, err
			}
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		v, err := fx.SubscribeAs[int](g.rt, leaf)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

func removeElems[T any](src []T, rmCount int, random *rand.Rand) []T {
	copyWithRemovals := make([]T, len(src))
	copy(copyWithRemovals, src)
	for i := 0; i < rmCount; i++ {
		rmDex := random.Intn(len(copyWithRemovals))
		copyWithRemovals[rmDex] = copyWithRemovals[len(copyWithRemovals)-1]
		copyWithRemovals = copyWithRemovals[:len(copyWithRemovals)-1]
	}
	return copyWithRemovals
}
