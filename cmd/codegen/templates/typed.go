package templates

import (
	"io"

	qt "github.com/valyala/quicktemplate"
)

// TypedHelpersGen renders the typed subscriber helpers of package fx for
// 1 to count dependencies.
func TypedHelpersGen(count int) string {
	qb := qt.AcquireByteBuffer()
	WriteTypedHelpersGen(qb, count)
	qs := string(qb.B)
	qt.ReleaseByteBuffer(qb)
	return qs
}

func WriteTypedHelpersGen(w io.Writer, count int) {
	qw := qt.AcquireWriter(w)
	StreamTypedHelpersGen(qw, count)
	qt.ReleaseWriter(qw)
}

func StreamTypedHelpersGen(qw *qt.Writer, count int) {
	w := qw.N()
	w.S("// Code generated by cmd/codegen, DO NOT EDIT.\n\npackage fx\n")
	for n := 1; n <= count; n++ {
		streamDerived(w, n)
	}
}

func streamDerived(w *qt.QWriter, n int) {
	w.S("\n// Derived")
	w.D(n)
	w.S(" registers a subscriber computed from ")
	w.D(n)
	if n == 1 {
		w.S(" typed dependency.\n")
	} else {
		w.S(" typed dependencies.\n")
	}

	w.S("func Derived")
	w.D(n)
	w.S("[")
	w.S(prefixedStrings("T", n))
	w.S(", R any](rt *Runtime, ")
	w.S(prefixedStrings("dep", n))
	w.S(" Identifier, fn func(")
	w.S(prefixedStrings("T", n))
	w.S(") R) (Identifier, error) {\n")

	w.S("\treturn rt.RegisterDerived(\n")
	w.S("\t\t[]Identifier{")
	w.S(prefixedStrings("dep", n))
	w.S("},\n")
	w.S("\t\tfunc(deps []any, _ ...any) any {\n")
	w.S("\t\t\treturn fn(\n")
	for i := 0; i < n; i++ {
		w.S("\t\t\t\tas[T")
		w.D(i)
		w.S("](deps[")
		w.D(i)
		w.S("]),\n")
	}
	w.S("\t\t\t)\n")
	w.S("\t\t},\n")
	w.S("\t)\n")
	w.S("}\n")
}
