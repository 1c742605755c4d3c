// Package traverse extracts values from nested JSON-like data.
//
// A Path is a list of keys applied one after another to an object built
// from *Object, map[string]any, []any, *lazylist.List[any] and scalar
// values. Keys that fan out (All, Match, Alternatives) turn the result into
// a list; Traverse flattens those lists, drops nil values and applies the
// expected type before returning. Missing keys, out of range indices and
// type mismatches never fail loudly: the path simply yields nothing and the
// next path is tried.
package traverse

import (
	"encoding/json"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/emiliopalmerini/chatsrt/internal/lazylist"
	"github.com/emiliopalmerini/chatsrt/internal/util"
)

// Options tune a traversal. The zero value collects every match of the
// first path that yields something, compares keys case-sensitively and
// returns nil when nothing matches.
type Options struct {
	// Default is returned when no path yields a value.
	Default any
	// Expect filters or transforms every result; ok=false or a nil value
	// rejects it. See OfType.
	Expect func(v any) (any, bool)
	// FirstOnly returns only the first value of a fanned out result.
	FirstOnly bool
	// CaseInsensitive matches mapping keys ignoring case when the exact key
	// is missing.
	CaseInsensitive bool
	// UserInput reads Field keys as indices ("3") or slices ("1:4", ":")
	// when the current object is not a mapping. ":" always fans out.
	UserInput bool
	// TraverseStrings lets indices, slices and fan-outs look into strings,
	// and into the string form of other scalars.
	TraverseStrings bool
}

// OfType returns an Expect function that keeps only values of type T.
func OfType[T any]() func(any) (any, bool) {
	return func(v any) (any, bool) {
		t, ok := v.(T)
		return t, ok
	}
}

// Get follows a single path with default options.
func Get(obj any, keys ...Key) any {
	return Traverse(obj, Options{}, Path(keys))
}

// Traverse tries each path in order and returns the first non-empty result,
// or opts.Default.
func Traverse(obj any, opts Options, paths ...Path) any {
	expect := opts.Expect
	if expect == nil {
		expect = func(v any) (any, bool) { return v, true }
	}
	accept := func(v any) (any, bool) {
		if v == nil {
			return nil, false
		}
		r, ok := expect(v)
		return r, ok && r != nil
	}

	for _, path := range paths {
		if opts.CaseInsensitive {
			path = lowerPath(path)
		}
		t := &traversal{opts: &opts}
		val := t.walk(obj, path, 0)
		if val == nil {
			continue
		}

		if t.depth == 0 {
			if v, ok := accept(val); ok {
				return v
			}
			continue
		}

		items, ok := val.([]any)
		if !ok {
			items = []any{val}
		}
		for range t.depth - 1 {
			items = flatten(items)
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			if v, ok := accept(item); ok {
				out = append(out, v)
			}
		}
		if len(out) == 0 {
			continue
		}
		if opts.FirstOnly {
			return out[0]
		}
		return out
	}
	return opts.Default
}

type traversal struct {
	opts *Options
	// depth is the deepest fan-out reached on the current path.
	depth int
}

func (t *traversal) walk(obj any, path Path, depth int) any {
	for i, key := range path {
		if key == nil || key == Stop || obj == nil {
			return obj
		}
		rest := path[i+1:]

		switch k := key.(type) {
		case Alternatives:
			collected := make([]any, 0, len(k))
			for _, sub := range k {
				collected = append(collected, t.walk(obj, sub, depth))
			}
			return t.fanOut(collected, rest, depth)

		case wildcard:
			return t.fanOut(t.values(obj), rest, depth)

		case Match:
			pairs, ok := t.pairs(obj)
			if !ok {
				return nil
			}
			depth = t.deeper(depth)
			out := make([]any, 0)
			for _, p := range pairs {
				if tryMatch(k, p.key, p.value) {
					out = append(out, t.walk(p.value, rest, depth))
				}
			}
			return out

		case Field:
			if m, ok := asMapping(obj); ok && !(t.opts.UserInput && k == ":") {
				obj = t.lookup(m, string(k))
				continue
			}
			if !t.opts.UserInput {
				return nil
			}
			parsed, ok := parseUserKey(string(k))
			if !ok {
				return nil
			}
			if s, isSlice := parsed.(Slice); isSlice && lazylist.Range(s).Full() {
				return t.walk(obj, append(Path{All}, rest...), depth)
			}
			v, ok := t.index(obj, parsed)
			if !ok {
				return nil
			}
			obj = v

		case Index, Slice:
			v, ok := t.index(obj, key)
			if !ok {
				return nil
			}
			obj = v

		default:
			return nil
		}
	}
	return obj
}

func (t *traversal) deeper(depth int) int {
	depth++
	t.depth = max(t.depth, depth)
	return depth
}

func (t *traversal) fanOut(items []any, rest Path, depth int) any {
	depth = t.deeper(depth)
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, t.walk(item, rest, depth))
	}
	return out
}

func (t *traversal) lookup(m mapping, key string) any {
	if v, ok := m.Get(key); ok {
		return v
	}
	if !t.opts.CaseInsensitive {
		return nil
	}
	for _, k := range m.Keys() {
		if strings.ToLower(k) == key {
			v, _ := m.Get(k)
			return v
		}
	}
	return nil
}

// values lists what the All key fans out over.
func (t *traversal) values(obj any) []any {
	if m, ok := asMapping(obj); ok {
		keys := m.Keys()
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			v, _ := m.Get(k)
			out = append(out, v)
		}
		return out
	}
	if seq, ok := asSequence(obj); ok {
		return seq
	}
	if t.opts.TraverseStrings {
		return chars(stringify(obj))
	}
	return []any{}
}

type pair struct {
	key   any
	value any
}

// pairs lists what a Match key is tested against.
func (t *traversal) pairs(obj any) ([]pair, bool) {
	if m, ok := asMapping(obj); ok {
		keys := m.Keys()
		out := make([]pair, 0, len(keys))
		for _, k := range keys {
			v, _ := m.Get(k)
			out = append(out, pair{key: k, value: v})
		}
		return out, true
	}

	var items []any
	if seq, ok := asSequence(obj); ok {
		items = seq
	} else if t.opts.TraverseStrings {
		items = chars(stringify(obj))
	} else {
		return nil, false
	}
	out := make([]pair, 0, len(items))
	for i, v := range items {
		out = append(out, pair{key: i, value: v})
	}
	return out, true
}

// index applies an Index or Slice key to a sequence, or to a string when
// strings may be traversed.
func (t *traversal) index(obj any, key Key) (any, bool) {
	switch seq := obj.(type) {
	case []any:
		return indexItems(seq, key)
	case *lazylist.List[any]:
		switch k := key.(type) {
		case Index:
			v, err := seq.Get(int(k))
			return v, err == nil
		case Slice:
			v, err := seq.Slice(lazylist.Range(k))
			return v, err == nil
		}
		return nil, false
	}

	if _, ok := asMapping(obj); ok || !t.opts.TraverseStrings {
		return nil, false
	}
	runes := []rune(stringify(obj))
	switch k := key.(type) {
	case Index:
		i := int(k)
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return nil, false
		}
		return string(runes[i]), true
	case Slice:
		sub, err := lazylist.Apply(runes, lazylist.Range(k))
		if err != nil {
			return nil, false
		}
		return string(sub), true
	}
	return nil, false
}

func indexItems(items []any, key Key) (any, bool) {
	switch k := key.(type) {
	case Index:
		i := int(k)
		if i < 0 {
			i += len(items)
		}
		if i < 0 || i >= len(items) {
			return nil, false
		}
		return items[i], true
	case Slice:
		sub, err := lazylist.Apply(items, lazylist.Range(k))
		if err != nil {
			return nil, false
		}
		return sub, true
	}
	return nil, false
}

// parseUserKey reads "3" as an index and "a:b:c" as a slice, where each
// part that is not an integer is left open.
func parseUserKey(s string) (Key, bool) {
	if !strings.Contains(s, ":") {
		n, ok := util.IntOrNone(s)
		if !ok {
			return nil, false
		}
		return Index(n), true
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return nil, false
	}
	var r lazylist.Range
	bounds := []**int{&r.Start, &r.Stop, &r.Step}
	for i, p := range parts {
		if n, ok := util.IntOrNone(p); ok {
			v := int(n)
			*bounds[i] = &v
		}
	}
	return Slice(r), true
}

// tryMatch calls m, treating the runtime failures a predicate typically hits
// on unexpected data as "no match". Any other panic is propagated.
func tryMatch(m Match, key, value any) (matched bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if !expectedFailure(r) {
			panic(r)
		}
		matched = false
	}()
	return m(key, value)
}

var expectedFailures = []string{
	"index out of range",
	"slice bounds out of range",
	"integer divide by zero",
	"nil pointer dereference",
}

func expectedFailure(r any) bool {
	if _, ok := r.(*runtime.TypeAssertionError); ok {
		return true
	}
	err, ok := r.(runtime.Error)
	if !ok {
		return false
	}
	msg := err.Error()
	for _, s := range expectedFailures {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// flatten joins one level of nested sequences, dropping nil entries.
func flatten(items []any) []any {
	out := make([]any, 0, len(items))
	for _, v := range items {
		if v == nil {
			continue
		}
		if seq, ok := asSequence(v); ok {
			out = append(out, seq...)
			continue
		}
		out = append(out, v)
	}
	return out
}

type mapping interface {
	Get(key string) (any, bool)
	Keys() []string
}

// goMap adapts a plain map. Its keys are visited in sorted order.
type goMap map[string]any

func (m goMap) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m goMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func asMapping(obj any) (mapping, bool) {
	switch m := obj.(type) {
	case *Object:
		return m, m != nil
	case map[string]any:
		return goMap(m), true
	}
	return nil, false
}

func asSequence(obj any) ([]any, bool) {
	switch s := obj.(type) {
	case []any:
		return s, true
	case *lazylist.List[any]:
		return s.Exhaust(), true
	}
	return nil, false
}

func chars(s string) []any {
	out := make([]any, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case fmt.Stringer:
		return s.String()
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}
