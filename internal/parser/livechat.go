// Package parser reads live chat replay logs: one JSON record per line, as
// written by chat replay downloaders.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/emiliopalmerini/chatsrt/internal/domain"
	"github.com/emiliopalmerini/chatsrt/internal/traverse"
	"github.com/emiliopalmerini/chatsrt/internal/util"
)

// ErrMalformedRecord matches any *RecordError.
var ErrMalformedRecord = errors.New("malformed chat record")

// RecordError reports a line that is not valid JSON. It aborts the parse.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, ErrMalformedRecord, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func (e *RecordError) Is(target error) bool { return target == ErrMalformedRecord }

type ParsedChat struct {
	Entries []domain.ChatEntry
	// FirstTimestamp is the timestamp of the first kept entry in file
	// order, which is not necessarily the earliest one.
	FirstTimestamp *int64
	Bytes          int64
	Records        int64
	NonMessages    int64
	Dropped        int64
}

var (
	messagePath = traverse.Path{
		traverse.Field("replayChatItemAction"),
		traverse.Field("actions"),
		traverse.Index(0),
		traverse.Field("addChatItemAction"),
		traverse.Field("item"),
		traverse.Field("liveChatTextMessageRenderer"),
	}
	runTextsPath  = traverse.Path{traverse.Field("message"), traverse.Field("runs"), traverse.All, traverse.Field("text")}
	authorPath    = traverse.Path{traverse.Field("authorName"), traverse.Field("simpleText")}
	timestampPath = traverse.Path{traverse.Field("timestampUsec")}

	onlyStrings = traverse.Options{Expect: traverse.OfType[string]()}
)

// EachRecord decodes every non-blank line of data and calls fn with its
// 1-based line number. Invalid UTF-8 is dropped before decoding. A line that
// does not decode stops the walk with a *RecordError.
func EachRecord(data []byte, fn func(line int, record any) error) error {
	line := 0
	for raw := range bytes.Lines(data) {
		line++
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		record, err := traverse.Decode(bytes.ToValidUTF8(raw, nil))
		if err != nil {
			return &RecordError{Line: line, Err: err}
		}
		if err := fn(line, record); err != nil {
			return err
		}
	}
	return nil
}

func ParseChatFile(path string) (*ParsedChat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat file: %w", err)
	}
	return ParseChat(data)
}

// ParseChat extracts the plain text messages of a chat replay log. Records
// without a text message are counted and skipped; so are messages with no
// usable timestamp or no text.
func ParseChat(data []byte) (*ParsedChat, error) {
	result := &ParsedChat{
		Entries: make([]domain.ChatEntry, 0),
		Bytes:   int64(len(data)),
	}

	err := EachRecord(data, func(_ int, record any) error {
		result.Records++

		node := traverse.Get(record, messagePath...)
		if node == nil {
			result.NonMessages++
			return nil
		}

		entry, ok := extractEntry(node)
		if !ok {
			result.Dropped++
			return nil
		}

		if result.FirstTimestamp == nil {
			first := entry.Timestamp
			result.FirstTimestamp = &first
		}
		result.Entries = append(result.Entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func extractEntry(node any) (domain.ChatEntry, bool) {
	var message strings.Builder
	texts, _ := traverse.Traverse(node, onlyStrings, runTextsPath).([]any)
	for _, t := range texts {
		if s := t.(string); s != "" {
			message.WriteString(s)
			message.WriteByte(' ')
		}
	}
	text := strings.TrimSpace(message.String())

	timestamp, ok := util.IntOrNone(traverse.Get(node, timestampPath...))
	if !ok || timestamp < 0 || text == "" {
		return domain.ChatEntry{}, false
	}

	entry := domain.ChatEntry{Text: text, Timestamp: timestamp}
	if author, ok := traverse.Traverse(node, onlyStrings, authorPath).(string); ok {
		entry.Author = &author
	}
	return entry, true
}
