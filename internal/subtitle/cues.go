// Package subtitle turns chat entries into timed cues and renders them as
// SubRip (.srt) text.
package subtitle

import (
	"cmp"
	"slices"

	"github.com/emiliopalmerini/chatsrt/internal/domain"
)

// DefaultMaxDuration is how long a cue stays on screen when the next message
// is far away, in microseconds.
const DefaultMaxDuration int64 = 10_000_000

// Timing anchors cue times. First is subtracted from every timestamp;
// MaxDuration caps each cue.
type Timing struct {
	First       int64
	MaxDuration int64
}

// BuildCues sorts the entries by timestamp, keeping arrival order among
// equal timestamps, and gives each one a cue that lasts until the next
// message or MaxDuration, whichever comes first. The input slice is not
// modified.
func BuildCues(entries []domain.ChatEntry, timing Timing) []domain.Cue {
	maxDuration := timing.MaxDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b domain.ChatEntry) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	cues := make([]domain.Cue, 0, len(sorted))
	for i, entry := range sorted {
		duration := maxDuration
		if i+1 < len(sorted) {
			duration = min(maxDuration, sorted[i+1].Timestamp-entry.Timestamp)
		}

		start := entry.Timestamp - timing.First
		cues = append(cues, domain.Cue{
			Index: i + 1,
			Start: start,
			End:   start + duration,
			Text:  entry.AuthorLabel() + ": " + entry.Text,
		})
	}
	return cues
}
