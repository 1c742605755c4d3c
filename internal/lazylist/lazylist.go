// Package lazylist provides a read-only list over a single-pass sequence.
//
// Elements are pulled from the source only when an operation needs them and
// are cached, so the source is consumed at most once no matter how the list
// is accessed. Reversed views share the cache with the list they came from.
//
// Negative indices, open-ended slices and anything on a reversed view need
// the whole source and will never return on an infinite one.
package lazylist

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrIndexOutOfRange is returned when an index falls outside the list.
var ErrIndexOutOfRange = errors.New("lazylist: index out of range")

// state is shared by a list and all of its reversed views.
type state[T any] struct {
	next  func() (T, bool)
	stop  func()
	cache []T
	done  bool
}

// pull reads up to n more elements from the source into the cache.
func (s *state[T]) pull(n int) {
	for ; n > 0 && !s.done; n-- {
		v, ok := s.next()
		if !ok {
			s.finish()
			return
		}
		s.cache = append(s.cache, v)
	}
}

func (s *state[T]) exhaust() {
	for !s.done {
		s.pull(64)
	}
}

func (s *state[T]) finish() {
	if s.done {
		return
	}
	s.done = true
	s.stop()
	s.next = nil
	s.stop = nil
}

// List is a lazily evaluated, immutable list.
type List[T any] struct {
	st       *state[T]
	reversed bool
}

// New wraps seq. seq is iterated at most once, on demand.
func New[T any](seq iter.Seq[T]) *List[T] {
	next, stop := iter.Pull(seq)
	return &List[T]{st: &state[T]{next: next, stop: stop}}
}

// FromSlice returns a list over a copy of items.
func FromSlice[T any](items []T) *List[T] {
	return New(slices.Values(slices.Clone(items)))
}

// Close releases the source when it was not fully consumed. Cached elements
// stay readable.
func (l *List[T]) Close() {
	l.st.finish()
}

// Get returns the element at index i. Negative indices count from the end.
func (l *List[T]) Get(i int) (T, error) {
	idx := i
	if l.reversed {
		idx = -(idx + 1)
	}
	if idx < 0 {
		l.st.exhaust()
		idx += len(l.st.cache)
	} else {
		l.st.pull(idx + 1 - len(l.st.cache))
	}
	if idx < 0 || idx >= len(l.st.cache) {
		var zero T
		return zero, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return l.st.cache[idx], nil
}

// Slice returns the elements selected by r as a new plain slice.
func (l *List[T]) Slice(r Range) ([]T, error) {
	step := r.step()
	if step == 0 {
		return nil, ErrZeroStep
	}
	if l.reversed || r.unbounded(step) {
		return Apply(l.Exhaust(), r)
	}
	l.st.pull(max(r.bound(r.Start), r.bound(r.Stop)) + 1 - len(l.st.cache))
	return Apply(l.st.cache, r)
}

// Reversed returns a view of the list in reverse order. Nothing is copied.
func (l *List[T]) Reversed() *List[T] {
	return &List[T]{st: l.st, reversed: !l.reversed}
}

// Exhaust consumes the rest of the source and returns every element in list
// order. Calling it again does not touch the source.
func (l *List[T]) Exhaust() []T {
	l.st.exhaust()
	out := slices.Clone(l.st.cache)
	if l.reversed {
		slices.Reverse(out)
	}
	return out
}

// Len consumes the whole source and returns the number of elements.
func (l *List[T]) Len() int {
	l.st.exhaust()
	return len(l.st.cache)
}

// Empty reports whether the list has no elements. At most one element is
// pulled from the source.
func (l *List[T]) Empty() bool {
	first := 0
	if l.reversed {
		first = -1
	}
	_, err := l.Get(first)
	return errors.Is(err, ErrIndexOutOfRange)
}

// All iterates the list in order. A forward list yields cached elements
// first and then pulls from the source as the loop advances.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if l.reversed {
			for _, v := range l.Exhaust() {
				if !yield(v) {
					return
				}
			}
			return
		}
		for i := 0; ; i++ {
			if i >= len(l.st.cache) {
				l.st.pull(1)
				if i >= len(l.st.cache) {
					return
				}
			}
			if !yield(l.st.cache[i]) {
				return
			}
		}
	}
}

func (l *List[T]) String() string {
	return fmt.Sprint(l.Exhaust())
}
