package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/emiliopalmerini/chatsrt/internal/domain"
)

// FormatTimestamp renders microseconds as HH:MM:SS,mmm. Minutes are total
// minutes, not minutes within the hour, so from one hour on the minute field
// keeps growing past 59. Divisions truncate toward zero; the seconds and
// milliseconds fields wrap into [0, 60) and [0, 1000).
func FormatTimestamp(usec int64) string {
	secs := usec / 1_000_000
	hours := secs / 3600
	minutes := secs / 60
	seconds := floorMod(secs, 60)
	millis := floorMod(usec/1000, 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// WriteSRT writes one numbered block per cue. Invalid UTF-8 in cue text is
// dropped.
func WriteSRT(w io.Writer, cues []domain.Cue) error {
	bw := bufio.NewWriter(w)
	for _, cue := range cues {
		_, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			cue.Index,
			FormatTimestamp(cue.Start),
			FormatTimestamp(cue.End),
			strings.ToValidUTF8(cue.Text, ""),
		)
		if err != nil {
			return fmt.Errorf("failed to write cue %d: %w", cue.Index, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush subtitles: %w", err)
	}
	return nil
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
