package traverse

import (
	"strings"

	"github.com/emiliopalmerini/chatsrt/internal/lazylist"
)

// Key is one step of a Path. The set of keys is closed: Field, Index, Slice,
// Match, Alternatives, All and Stop.
type Key interface {
	isKey()
}

// Path is a sequence of keys applied one after another.
type Path []Key

// Field looks up a mapping key. In user input mode it may also be read as an
// index or a slice.
type Field string

// Index selects one element of a sequence. Negative values count from the end.
type Index int

// Slice selects a range of a sequence.
type Slice lazylist.Range

// Match fans out over every (key, value) pair of a mapping, or (index, value)
// pair of a sequence, for which it returns true.
type Match func(key, value any) bool

// Alternatives applies each sub-path to the same object and fans out over
// the collected results.
type Alternatives []Path

type wildcard struct{}

type stop struct{}

var (
	// All fans out over every value of a mapping or element of a sequence.
	All Key = wildcard{}
	// Stop ends the path and yields the current object.
	Stop Key = stop{}
)

func (Field) isKey()        {}
func (Index) isKey()        {}
func (Slice) isKey()        {}
func (Match) isKey()        {}
func (Alternatives) isKey() {}
func (wildcard) isKey()     {}
func (stop) isKey()         {}

// ParseUserPath splits a dotted path typed by a user into fields. Pair it
// with Options.UserInput so that numeric and colon fields become indices and
// slices where the data calls for it.
func ParseUserPath(s string) Path {
	if s == "" {
		return Path{}
	}
	parts := strings.Split(s, ".")
	path := make(Path, 0, len(parts))
	for _, p := range parts {
		path = append(path, Field(p))
	}
	return path
}

func lowerPath(path Path) Path {
	out := make(Path, len(path))
	for i, key := range path {
		switch k := key.(type) {
		case Field:
			out[i] = Field(strings.ToLower(string(k)))
		case Alternatives:
			alts := make(Alternatives, len(k))
			for j, sub := range k {
				alts[j] = lowerPath(sub)
			}
			out[i] = alts
		default:
			out[i] = key
		}
	}
	return out
}
