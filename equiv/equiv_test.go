package equiv_test

import (
	"math"
	"math/big"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/fxgraph/equiv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	Name    string
	Age     int
	Tags    []string
	private int
}

type node struct {
	Value int
	Next  *node
}

func mustEq(t *testing.T, a, b any) bool {
	t.Helper()
	ok, err := equiv.Equivalent(a, b)
	require.NoError(t, err)
	return ok
}

func TestScalars(t *testing.T) {
	assert.True(t, mustEq(t, nil, nil))
	assert.True(t, mustEq(t, 1, 1))
	assert.True(t, mustEq(t, "a", "a"))
	assert.True(t, mustEq(t, true, true))

	assert.False(t, mustEq(t, 1, 2))
	assert.False(t, mustEq(t, "a", "b"))
	assert.False(t, mustEq(t, nil, 0))
	assert.False(t, mustEq(t, 0, nil))
	// dynamic types have to match exactly
	assert.False(t, mustEq(t, int32(1), int64(1)))
	assert.False(t, mustEq(t, 1, "1"))
}

func TestNaN(t *testing.T) {
	assert.True(t, mustEq(t, math.NaN(), math.NaN()))
	assert.False(t, mustEq(t, math.NaN(), 1.0))
	assert.False(t, mustEq(t, 1.0, math.NaN()))
	assert.True(t, mustEq(t, []float64{math.NaN()}, []float64{math.NaN()}))
}

func makeAdder(n int) func(int) int {
	return func(x int) int { return x + n }
}

func double(x int) int { return x * 2 }
func triple(x int) int { return x * 3 }

func TestFunctions(t *testing.T) {
	assert.True(t, mustEq(t, double, double))
	assert.False(t, mustEq(t, double, triple))

	// same literal, different captures: treated as the same function
	assert.True(t, mustEq(t, makeAdder(1), makeAdder(2)))

	var nilFn func(int) int
	assert.True(t, mustEq(t, nilFn, nilFn))
	assert.False(t, mustEq(t, nilFn, double))
}

func TestTimes(t *testing.T) {
	now := time.Now()
	assert.True(t, mustEq(t, now, now.Round(0)))
	assert.True(t, mustEq(t, now.UTC(), now.In(time.FixedZone("x", 3600))))
	assert.False(t, mustEq(t, now, now.Add(time.Nanosecond)))
	assert.True(t, mustEq(t, time.Time{}, time.Time{}))
}

func TestSequences(t *testing.T) {
	assert.True(t, mustEq(t, []int{1, 2, 3}, []int{1, 2, 3}))
	assert.True(t, mustEq(t, [2]string{"a", "b"}, [2]string{"a", "b"}))
	assert.True(t, mustEq(t, []int{}, []int(nil)))

	assert.False(t, mustEq(t, []int{1, 2, 3}, []int{3, 2, 1}))
	assert.False(t, mustEq(t, []int{1, 2}, []int{1, 2, 3}))
	assert.False(t, mustEq(t, []any{1, "a"}, []any{1, "b"}))
}

func TestMaps(t *testing.T) {
	a := map[string]any{}
	a["x"] = 1
	a["y"] = []int{1}
	b := map[string]any{}
	b["y"] = []int{1}
	b["x"] = 1

	assert.True(t, mustEq(t, a, b))
	assert.False(t, mustEq(t, a, map[string]any{"x": 1}))
	assert.False(t, mustEq(t, a, map[string]any{"x": 1, "z": []int{1}}))
	assert.False(t, mustEq(t, a, map[string]any{"x": 2, "y": []int{1}}))

	assert.True(t, mustEq(t, map[any]any{1: "a", "b": 2}, map[any]any{"b": 2, 1: "a"}))
	assert.True(t, mustEq(t, map[string]int{}, map[string]int(nil)))
}

func TestStructs(t *testing.T) {
	a := user{Name: "bob", Age: 3, Tags: []string{"x"}, private: 1}
	b := user{Name: "bob", Age: 3, Tags: []string{"x"}, private: 1}
	assert.True(t, mustEq(t, a, b))
	assert.True(t, mustEq(t, &a, &b))

	b.private = 2
	assert.False(t, mustEq(t, a, b))
	assert.False(t, mustEq(t, &a, &b))

	b.private = 1
	b.Tags = []string{"y"}
	assert.False(t, mustEq(t, a, b))
	assert.False(t, mustEq(t, &a, (*user)(nil)))
}

type point struct {
	x, y int
}

type shape struct {
	name   string
	points []point
	meta   map[string]any
	born   time.Time
	area   *big.Int
}

func TestUnexportedFields(t *testing.T) {
	assert.True(t, mustEq(t, point{1, 2}, point{1, 2}))
	assert.False(t, mustEq(t, point{1, 2}, point{3, 4}))
	assert.False(t, mustEq(t, &point{1, 2}, &point{1, 3}))
	assert.False(t, mustEq(t, []any{point{1, 2}}, []any{point{2, 1}}))
	assert.False(t, mustEq(t, map[string]point{"p": {1, 2}}, map[string]point{"p": {1, 0}}))

	now := time.Now()
	mk := func() shape {
		return shape{
			name:   "tri",
			points: []point{{0, 0}, {1, 0}, {0, 1}},
			meta:   map[string]any{"tags": []string{"a"}},
			born:   now,
			area:   big.NewInt(1),
		}
	}
	assert.True(t, mustEq(t, mk(), mk()))

	other := mk()
	other.points[2] = point{1, 1}
	assert.False(t, mustEq(t, mk(), other))

	other = mk()
	other.meta["tags"] = []string{"b"}
	assert.False(t, mustEq(t, mk(), other))

	// time is compared with Equal even when the field is unexported
	other = mk()
	other.born = now.In(time.FixedZone("x", 3600))
	assert.True(t, mustEq(t, mk(), other))

	other = mk()
	other.area = big.NewInt(2)
	assert.False(t, mustEq(t, mk(), other))
}

func TestBigNumbers(t *testing.T) {
	assert.True(t, mustEq(t, big.NewInt(5), big.NewInt(5)))
	assert.False(t, mustEq(t, big.NewInt(5), big.NewInt(6)))
	assert.False(t, mustEq(t, big.NewInt(5), big.NewInt(-5)))
	assert.True(t, mustEq(t, *big.NewInt(7), *big.NewInt(7)))
	assert.False(t, mustEq(t, *big.NewInt(7), *big.NewInt(8)))
	assert.False(t, mustEq(t, big.NewInt(5), (*big.Int)(nil)))

	// zero built two different ways
	assert.True(t, mustEq(t, new(big.Int), new(big.Int).Sub(big.NewInt(3), big.NewInt(3))))

	// precision is not part of the value
	assert.True(t, mustEq(t, big.NewFloat(1.5), new(big.Float).SetPrec(200).SetFloat64(1.5)))
	assert.False(t, mustEq(t, big.NewFloat(1.5), big.NewFloat(2.5)))

	assert.True(t, mustEq(t, big.NewRat(1, 2), big.NewRat(2, 4)))
	assert.False(t, mustEq(t, big.NewRat(1, 2), big.NewRat(1, 3)))

	assert.False(t, mustEq(t, big.NewInt(1), big.NewRat(1, 1)))
}

func TestSets(t *testing.T) {
	a := mapset.NewSet(1, 2, 3)
	b := mapset.NewSet(3, 2, 1)
	assert.True(t, mustEq(t, a, b))
	assert.False(t, mustEq(t, a, mapset.NewSet(1, 2)))
	assert.False(t, mustEq(t, a, mapset.NewSet(1, 2, 4)))

	nested := mapset.NewThreadUnsafeSet("a", "b")
	assert.True(t, mustEq(t, nested, mapset.NewThreadUnsafeSet("b", "a")))

	// native sets are plain maps
	assert.True(t, mustEq(t, map[int]struct{}{1: {}, 2: {}}, map[int]struct{}{2: {}, 1: {}}))
}

func TestSharedChildrenAreNotCircular(t *testing.T) {
	shared := []int{1, 2}
	a := []any{shared, shared}
	b := []any{[]int{1, 2}, []int{1, 2}}
	assert.True(t, mustEq(t, a, b))

	m := map[string]int{"x": 1}
	assert.True(t, mustEq(t, []any{m, m, m}, []any{map[string]int{"x": 1}, m, map[string]int{"x": 1}}))
}

func TestCircular(t *testing.T) {
	a := &node{Value: 1}
	a.Next = a
	b := &node{Value: 1}
	b.Next = b

	// identity runs first
	assert.True(t, mustEq(t, a, a))

	_, err := equiv.Equivalent(a, b)
	require.ErrorIs(t, err, equiv.ErrCircularValue)
	assert.Contains(t, err.Error(), "$.Next")

	s := make([]any, 1)
	s[0] = s
	_, err = equiv.Equivalent(s, []any{[]any{1}})
	require.ErrorIs(t, err, equiv.ErrCircularValue)

	m := map[string]any{}
	m["self"] = m
	_, err = equiv.Equivalent(m, map[string]any{"self": map[string]any{"self": 1}})
	require.ErrorIs(t, err, equiv.ErrCircularValue)

	assert.Panics(t, func() { equiv.MustEquivalent(a, b) })
}

func TestCircularSecondValueIsFine(t *testing.T) {
	b := &node{Value: 1}
	b.Next = b

	// only the first value is tracked, a mismatch is found before b loops
	ok, err := equiv.Equivalent(&node{Value: 1, Next: &node{Value: 2}}, b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSymmetry(t *testing.T) {
	now := time.Now()
	values := []any{
		nil, 0, 1, 1.5, math.NaN(), "a", true,
		[]int{1, 2}, []int{2, 1}, [2]int{1, 2},
		map[string]int{"a": 1}, map[string]int{"a": 2},
		user{Name: "a"}, &user{Name: "a"},
		now, now.Add(time.Second),
		mapset.NewSet("a", "b"), mapset.NewSet("b"),
		double, triple,
	}
	for i, a := range values {
		for j, b := range values {
			ab := mustEq(t, a, b)
			ba := mustEq(t, b, a)
			assert.Equal(t, ab, ba, "pair %d/%d", i, j)
		}
	}
}
