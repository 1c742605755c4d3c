package lazylist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrZeroStep is returned for a Range whose step is zero.
var ErrZeroStep = errors.New("lazylist: slice step cannot be zero")

// Range selects elements like a start:stop:step slice expression. Nil bounds
// are open, negative bounds count from the end, and a nil step means 1.
type Range struct {
	Start *int
	Stop  *int
	Step  *int
}

// Full reports whether the range selects everything in order, i.e. all of
// its parts are unset.
func (r Range) Full() bool {
	return r.Start == nil && r.Stop == nil && r.Step == nil
}

func (r Range) step() int {
	if r.Step == nil {
		return 1
	}
	return *r.Step
}

func (r Range) bound(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// unbounded reports whether resolving the range needs the total length.
func (r Range) unbounded(step int) bool {
	return (r.Start != nil && *r.Start < 0) ||
		(r.Stop != nil && *r.Stop < 0) ||
		(r.Start == nil && step < 0) ||
		(r.Stop == nil && step > 0)
}

// Indices resolves the range against a sequence of length n and returns the
// selected positions in order.
func (r Range) Indices(n int) ([]int, error) {
	step := r.step()
	if step == 0 {
		return nil, ErrZeroStep
	}

	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}
	clamp := func(p *int, open int) int {
		if p == nil {
			return open
		}
		v := *p
		if v < 0 {
			return max(v+n, lower)
		}
		return min(v, upper)
	}

	var start, stop int
	if step > 0 {
		start, stop = clamp(r.Start, lower), clamp(r.Stop, upper)
	} else {
		start, stop = clamp(r.Start, upper), clamp(r.Stop, lower)
	}

	out := make([]int, 0)
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		out = append(out, i)
	}
	return out, nil
}

// Apply returns the elements of items selected by r.
func Apply[T any](items []T, r Range) ([]T, error) {
	idx, err := r.Indices(len(items))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(idx))
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out, nil
}

// ParseRange reads a "start:stop[:step]" expression. Empty parts are open,
// so ":" selects everything and "-5:" the last five elements.
func ParseRange(s string) (Range, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Range{}, fmt.Errorf("invalid range %q: want start:stop[:step]", s)
	}

	var r Range
	bounds := []**int{&r.Start, &r.Stop, &r.Step}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Range{}, fmt.Errorf("invalid range %q: %q is not an integer", s, p)
		}
		*bounds[i] = &n
	}
	if r.Step != nil && *r.Step == 0 {
		return Range{}, ErrZeroStep
	}
	return r, nil
}
