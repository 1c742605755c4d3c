package parser

import (
	"errors"

	"github.com/emiliopalmerini/chatsrt/internal/lazylist"
)

// Record is one decoded line of a chat log.
type Record struct {
	Line  int
	Value any
}

var errStopped = errors.New("record list closed")

// RecordList is a chat log decoded on demand: a line is decoded only when
// the list needs it. A malformed line ends the list early and Err reports
// it; lines past the last element pulled are never checked.
type RecordList struct {
	*lazylist.List[Record]
	err error
}

func LazyRecords(data []byte) *RecordList {
	rl := &RecordList{}
	rl.List = lazylist.New(func(yield func(Record) bool) {
		err := EachRecord(data, func(line int, v any) error {
			if !yield(Record{Line: line, Value: v}) {
				return errStopped
			}
			return nil
		})
		if !errors.Is(err, errStopped) {
			rl.err = err
		}
	})
	return rl
}

// Err returns the *RecordError that ended the list, if any.
func (rl *RecordList) Err() error {
	return rl.err
}
