package fx_test

import (
	"testing"

	"github.com/delaneyj/fxgraph/fx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(k string) fx.RootFn {
	return func(s fx.AppState, _ ...any) any {
		return s[k]
	}
}

func double(deps []any, _ ...any) any {
	return deps[0].(int) * 2
}

func TestRegisterDerivedErrors(t *testing.T) {
	rt := newRuntime(t)
	r := rt.RegisterRoot(key("a"))

	_, err := rt.RegisterDerived(nil, double)
	assert.Equal(t, fx.ErrCodeMissingDependencies, fx.Code(err))

	_, err = rt.RegisterDerived([]fx.Identifier{r, r}, double)
	assert.Equal(t, fx.ErrCodeDuplicateDependency, fx.Code(err))
	assert.True(t, fx.IsUsageError(err))

	_, err = rt.RegisterDerived([]fx.Identifier{r, fx.NewIdentifier("ghost")}, double)
	assert.Equal(t, fx.ErrCodeUnknownDependency, fx.Code(err))

	// nothing was registered by the failed calls
	assert.Equal(t, []fx.Identifier{r}, rt.RootSubscribers())
	assert.Empty(t, rt.DirectChildren(r))

	assert.Panics(t, func() { rt.RegisterRoot(nil) })
	assert.Panics(t, func() { rt.MustRegisterDerived([]fx.Identifier{r, r}, double) })
}

func TestNewSubscriberStartsOutdated(t *testing.T) {
	rt := newRuntime(t)
	r := rt.RegisterRoot(key("a"))
	c := rt.MustRegisterDerived([]fx.Identifier{r}, double)

	info, ok := rt.Subscriber(c)
	require.True(t, ok)
	assert.Equal(t, c, info.ID)
	assert.Equal(t, []fx.Identifier{r}, info.DependsOn)
	assert.True(t, info.IsOutdated)
	assert.False(t, info.HasValue)
	assert.Nil(t, info.Value)

	_, ok = rt.Subscriber(fx.NewIdentifier("ghost"))
	assert.False(t, ok)
}

func TestGraphQueries(t *testing.T) {
	rt := newRuntime(t)
	//     r   s
	//    / \
	//   a   b
	//    \ /
	//     d
	r := rt.RegisterRoot(key("r"))
	s := rt.RegisterRoot(key("s"))
	a := rt.MustRegisterDerived([]fx.Identifier{r}, double)
	b := rt.MustRegisterDerived([]fx.Identifier{r}, double)
	d := rt.MustRegisterDerived([]fx.Identifier{a, b}, double)

	assert.Equal(t, []fx.Identifier{r, s}, rt.RootSubscribers())
	assert.Equal(t, []fx.Identifier{a, b}, rt.DirectChildren(r))
	assert.Empty(t, rt.DirectChildren(s))
	assert.Nil(t, rt.DirectChildren(fx.NewIdentifier("ghost")))

	// d is reachable twice but listed once
	assert.Equal(t, []fx.Identifier{a, b, d}, rt.AllChildren(r))
	assert.Equal(t, []fx.Identifier{a, b, d}, rt.AllChildren(r, a))
	assert.Empty(t, rt.AllChildren(d))

	deps, err := rt.AllDependencies(d)
	require.NoError(t, err)
	assert.Equal(t, []fx.Identifier{r, a, b}, deps)

	// a is an ancestor of d, so it is listed after r
	deps, err = rt.AllDependencies(d, a)
	require.NoError(t, err)
	assert.Equal(t, []fx.Identifier{r, a, b}, deps)

	deps, err = rt.AllDependencies(r)
	require.NoError(t, err)
	assert.Empty(t, deps)

	_, err = rt.AllDependencies(fx.NewIdentifier("ghost"))
	assert.Equal(t, fx.ErrCodeUnknownSubscriber, fx.Code(err))
}

func TestSubscribeComputesLazily(t *testing.T) {
	rt := newRuntime(t, fx.WithAppState(fx.AppState{"age": 5}))

	rootCalls, childCalls := 0, 0
	r := rt.RegisterRoot(func(s fx.AppState, _ ...any) any {
		rootCalls++
		return s["age"]
	})
	c := rt.MustRegisterDerived([]fx.Identifier{r}, func(deps []any, _ ...any) any {
		childCalls++
		age := deps[0].(int)
		return age * age
	})
	assert.Zero(t, rootCalls)

	v, err := rt.Subscribe(c)
	require.NoError(t, err)
	assert.Equal(t, 25, v.Value)
	assert.Equal(t, 1, rootCalls)
	assert.Equal(t, 1, childCalls)

	for i := 0; i < 3; i++ {
		v, err = rt.Subscribe(c)
		require.NoError(t, err)
		assert.Equal(t, 25, v.Value)
	}
	assert.Equal(t, 1, rootCalls)
	assert.Equal(t, 1, childCalls)

	info, _ := rt.Subscriber(r)
	assert.False(t, info.IsOutdated)
	assert.Equal(t, 5, info.Value)
}

func TestSubscribeOrdersAncestors(t *testing.T) {
	rt := newRuntime(t, fx.WithAppState(fx.AppState{"n": 1}))

	var order []string
	track := func(name string, fn fx.DerivedFn) fx.DerivedFn {
		return func(deps []any, args ...any) any {
			order = append(order, name)
			return fn(deps, args...)
		}
	}
	r := rt.RegisterRoot(func(s fx.AppState, _ ...any) any {
		order = append(order, "r")
		return s["n"]
	})
	a := rt.MustRegisterDerived([]fx.Identifier{r}, track("a", double))
	b := rt.MustRegisterDerived([]fx.Identifier{a}, track("b", double))
	sum := rt.MustRegisterDerived([]fx.Identifier{a, b, r}, track("sum", func(deps []any, _ ...any) any {
		return deps[0].(int) + deps[1].(int) + deps[2].(int)
	}))

	v, err := rt.Subscribe(sum)
	require.NoError(t, err)
	assert.Equal(t, 2+4+1, v.Value)
	assert.Equal(t, []string{"r", "a", "b", "sum"}, order)
}

func TestSubscribeArgsReachOnlyTarget(t *testing.T) {
	rt := newRuntime(t, fx.WithAppState(fx.AppState{"n": 3}))

	var rootArgs []any
	r := rt.RegisterRoot(func(s fx.AppState, args ...any) any {
		rootArgs = append(rootArgs, args...)
		return s["n"]
	})
	c := rt.MustRegisterDerived([]fx.Identifier{r}, func(deps []any, args ...any) any {
		return deps[0].(int) * args[0].(int)
	})

	v, err := rt.Subscribe(c, 10)
	require.NoError(t, err)
	assert.Equal(t, 30, v.Value)
	assert.Empty(t, rootArgs)

	// a root subscribed to directly does get them
	rt2 := newRuntime(t)
	echo := rt2.RegisterRoot(func(_ fx.AppState, args ...any) any { return args })
	v, err = rt2.Subscribe(echo, "x", 1)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", 1}, v.Value)
}

func TestSubscribeUnknown(t *testing.T) {
	rt := newRuntime(t)
	ghost := fx.NewIdentifier("ghost")
	o := fx.NewFuncObserver("view", nil)

	rt.WithObserver(o, func() {
		_, err := rt.Subscribe(ghost)
		assert.True(t, fx.IsLookupError(err))
	})
	assert.Empty(t, rt.Observers(ghost))
}
