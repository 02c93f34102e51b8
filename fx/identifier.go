package fx

import (
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Identifier is the opaque handle of a subscriber, an fx or an fx handler.
//
// Identifiers can only be minted by NewIdentifier and CoreIdentifier, so an
// application chosen state key can never collide with one. The zero value is
// not a valid identifier.
type Identifier struct {
	seq   uint64
	core  bool
	label string
}

var identifierSeq atomic.Uint64

// NewIdentifier returns a fresh identifier that is unique for the process.
// The label only shows up in logs and metrics.
func NewIdentifier(label string) Identifier {
	return Identifier{
		seq:   identifierSeq.Add(1),
		label: label,
	}
}

// CoreIdentifier returns the well-known identifier for name. Calling it twice
// with the same name yields the same identifier, which is how fx shared
// between call sites (like UpdateAppState) are addressed.
func CoreIdentifier(name string) Identifier {
	return Identifier{
		seq:   xxhash.Sum64String(name),
		core:  true,
		label: name,
	}
}

// IsZero reports whether id is the zero, unminted identifier.
func (id Identifier) IsZero() bool {
	return id == Identifier{}
}

// IsCore reports whether id was minted by CoreIdentifier.
func (id Identifier) IsCore() bool {
	return id.core
}

// Label returns the label id was minted with.
func (id Identifier) Label() string {
	return id.label
}

// String returns the label, suffixed with the sequence number for
// non-core identifiers.
func (id Identifier) String() string {
	if id.IsZero() {
		return "<nil>"
	}
	if id.core {
		return id.label
	}
	return id.label + "#" + strconv.FormatUint(id.seq, 10)
}

func (id Identifier) less(other Identifier) bool {
	if id.core != other.core {
		return id.core
	}
	if id.seq != other.seq {
		return id.seq < other.seq
	}
	return id.label < other.label
}
