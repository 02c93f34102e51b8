package templates

import (
	"strconv"
	"strings"
)

// prefixedStrings returns "p0, p1, ..." with count entries, the shape of a
// type parameter or argument list.
func prefixedStrings(prefix string, count int) string {
	names := make([]string, count)
	for i := range names {
		names[i] = prefix + strconv.Itoa(i)
	}
	return strings.Join(names, ", ")
}
