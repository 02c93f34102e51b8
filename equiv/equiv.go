// Package equiv decides whether two arbitrary Go values are structurally the
// same. It is the change detector used by the subscriber graph: a recomputed
// value that is equivalent to the previous one does not invalidate anything
// downstream.
package equiv

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/cmplx"
	"reflect"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"
	"unsafe"
)

// ErrCircularValue is returned when the first compared value contains itself.
var ErrCircularValue = errors.New("circular value")

const mapsetPkgPath = "github.com/deckarep/golang-set/v2"

var (
	timeType = reflect.TypeOf(time.Time{})
	bigTypes = map[reflect.Type]bool{
		reflect.TypeOf(big.Int{}):   true,
		reflect.TypeOf(big.Float{}): true,
		reflect.TypeOf(big.Rat{}):   true,
	}
)

// Equivalent reports whether a and b are structurally equivalent.
//
// The checks run in a fixed order:
//   - identical values (same scalar, same pointer/map/slice header) are equivalent
//   - values of different dynamic types are not
//   - floats and complex numbers that failed identity are equivalent only when both are NaN
//   - functions are equivalent when they share the same code (captured state is ignored)
//   - other scalars, channels and unsafe pointers that failed identity are not
//   - time.Time values are compared with Equal
//   - math/big Int, Float and Rat values (or pointers to them) are compared with Cmp
//   - slices and arrays element-wise, in order
//   - sets from github.com/deckarep/golang-set/v2 by cardinality and order-independent matching
//   - maps by key set and then value per key
//   - pointers by what they point to
//   - structs by all their fields, unexported ones included
//
// Only the traversal of a is tracked for cycles. If a reaches itself again the
// comparison fails with ErrCircularValue rather than guessing an answer.
func Equivalent(a, b any) (bool, error) {
	c := &comparer{}
	return c.equivalent(reflect.ValueOf(a), reflect.ValueOf(b))
}

// MustEquivalent is like Equivalent but panics on circular values.
func MustEquivalent(a, b any) bool {
	ok, err := Equivalent(a, b)
	if err != nil {
		panic(err)
	}
	return ok
}

type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

type comparer struct {
	stack []visit
	path  []string
}

func (c *comparer) equivalent(a, b reflect.Value) (bool, error) {
	a, b = unwrapInterface(a), unwrapInterface(b)

	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid(), nil
	}

	if identical(a, b) {
		return true, nil
	}

	if a.Type() != b.Type() {
		return false, nil
	}

	switch a.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(a.Float()) && math.IsNaN(b.Float()), nil
	case reflect.Complex64, reflect.Complex128:
		return cmplx.IsNaN(a.Complex()) && cmplx.IsNaN(b.Complex()), nil
	case reflect.Func:
		return sameCode(a, b), nil
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Chan, reflect.UnsafePointer:
		return false, nil
	}

	if a.Type() == timeType {
		return a.Interface().(time.Time).Equal(b.Interface().(time.Time)), nil
	}

	if same, ok := bigNumbers(a, b); ok {
		return same, nil
	}

	if isReference(a) {
		v := visit{typ: a.Type(), ptr: a.Pointer()}
		if a.Kind() == reflect.Slice {
			v.len = a.Len()
		}
		if slices.Contains(c.stack, v) {
			return false, fmt.Errorf("%w at %s", ErrCircularValue, c.where())
		}
		c.stack = append(c.stack, v)
		defer func() { c.stack = c.stack[:len(c.stack)-1] }()
	}

	switch {
	case a.Kind() == reflect.Slice || a.Kind() == reflect.Array:
		return c.sequences(a, b)
	case isSet(a):
		return c.sets(a, b)
	case a.Kind() == reflect.Map:
		return c.maps(a, b)
	case a.Kind() == reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return false, nil
		}
		return c.equivalent(a.Elem(), b.Elem())
	case a.Kind() == reflect.Struct:
		return c.structs(a, b)
	}

	return false, nil
}

func (c *comparer) sequences(a, b reflect.Value) (bool, error) {
	if a.Len() != b.Len() {
		return false, nil
	}
	for i := 0; i < a.Len(); i++ {
		ok, err := c.descend(strconv.Itoa(i), a.Index(i), b.Index(i))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Sets carry no insertion order, so every element of a is paired with a
// distinct equivalent element of b.
func (c *comparer) sets(a, b reflect.Value) (bool, error) {
	elemsA := toSlice(a)
	elemsB := toSlice(b)
	if elemsA.Len() != elemsB.Len() {
		return false, nil
	}

	used := make([]bool, elemsB.Len())
outer:
	for i := 0; i < elemsA.Len(); i++ {
		for j := 0; j < elemsB.Len(); j++ {
			if used[j] {
				continue
			}
			ok, err := c.descend("{"+strconv.Itoa(i)+"}", elemsA.Index(i), elemsB.Index(j))
			if err != nil {
				return false, err
			}
			if ok {
				used[j] = true
				continue outer
			}
		}
		return false, nil
	}
	return true, nil
}

func (c *comparer) maps(a, b reflect.Value) (bool, error) {
	if a.Len() != b.Len() {
		return false, nil
	}
	if a.Len() == 0 {
		return true, nil
	}

	keys := a.MapKeys()
	slices.SortFunc(keys, compareKeys)

	// checking keys first is much cheaper than comparing values we may not need
	for _, key := range keys {
		if !b.MapIndex(key).IsValid() {
			return false, nil
		}
	}

	for _, key := range keys {
		ok, err := c.descend(fmt.Sprint(key), a.MapIndex(key), b.MapIndex(key))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Unexported fields take part too: two values of a type whose state is all
// private (big numbers, domain structs) must not look the same.
func (c *comparer) structs(a, b reflect.Value) (bool, error) {
	a, b = addressable(a), addressable(b)
	t := a.Type()
	for i := 0; i < t.NumField(); i++ {
		ok, err := c.descend(t.Field(i).Name, exposed(a.Field(i)), exposed(b.Field(i)))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (c *comparer) descend(segment string, a, b reflect.Value) (bool, error) {
	c.path = append(c.path, segment)
	defer func() { c.path = c.path[:len(c.path)-1] }()
	return c.equivalent(a, b)
}

func (c *comparer) where() string {
	if len(c.path) == 0 {
		return "$"
	}
	return "$." + strings.Join(c.path, ".")
}

// bigNumbers compares math/big values by value, whatever their internal
// representation. ok is false when a is not a big number.
func bigNumbers(a, b reflect.Value) (same, ok bool) {
	t := a.Type()
	if t.Kind() == reflect.Pointer {
		if !bigTypes[t.Elem()] {
			return false, false
		}
		if a.IsNil() || b.IsNil() {
			return false, true
		}
	} else {
		if !bigTypes[t] {
			return false, false
		}
		a, b = addressable(a).Addr(), addressable(b).Addr()
	}

	switch x := a.Interface().(type) {
	case *big.Int:
		return x.Cmp(b.Interface().(*big.Int)) == 0, true
	case *big.Float:
		return x.Cmp(b.Interface().(*big.Float)) == 0, true
	case *big.Rat:
		return x.Cmp(b.Interface().(*big.Rat)) == 0, true
	}
	return false, false
}

// addressable returns v itself when it is addressable, otherwise an
// addressable copy.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp
}

// exposed lifts the read-only flag of an unexported field so it can be
// compared like any other value. f must be addressable.
func exposed(f reflect.Value) reflect.Value {
	if f.CanInterface() {
		return f
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	return v
}

func identical(a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len() && a.IsNil() == b.IsNil()
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	}
	return false
}

func isReference(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		return !v.IsNil()
	}
	return false
}

func isSet(v reflect.Value) bool {
	t := v.Type()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath() == mapsetPkgPath && v.MethodByName("ToSlice").IsValid()
}

func toSlice(v reflect.Value) reflect.Value {
	return v.MethodByName("ToSlice").Call(nil)[0]
}

func sameCode(a, b reflect.Value) bool {
	if a.IsNil() || b.IsNil() {
		return false
	}
	if a.Pointer() == b.Pointer() {
		return true
	}
	fa, fb := runtime.FuncForPC(a.Pointer()), runtime.FuncForPC(b.Pointer())
	if fa == nil || fb == nil {
		return false
	}
	return fa.Name() == fb.Name()
}

func compareKeys(x, y reflect.Value) int {
	x, y = unwrapInterface(x), unwrapInterface(y)
	if x.IsValid() && y.IsValid() && x.Kind() == y.Kind() {
		switch x.Kind() {
		case reflect.String:
			return cmp.Compare(x.String(), y.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return cmp.Compare(x.Int(), y.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return cmp.Compare(x.Uint(), y.Uint())
		case reflect.Float32, reflect.Float64:
			return cmp.Compare(x.Float(), y.Float())
		}
	}
	return cmp.Compare(fmt.Sprintf("%T:%v", keyOf(x), keyOf(x)), fmt.Sprintf("%T:%v", keyOf(y), keyOf(y)))
}

func keyOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}
