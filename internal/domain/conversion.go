package domain

import "time"

// Conversion records one chat log converted to subtitles.
type Conversion struct {
	ID             string
	InputPath      string
	OutputPath     string
	ArchivedPath   *string
	InputBytes     int64
	Records        int64
	NonMessages    int64
	Dropped        int64
	EntriesKept    int64
	CuesWritten    int64
	FirstTimestamp *int64
	ElapsedMs      int64
	CreatedAt      time.Time
}

// Skipped returns how many records did not become a cue.
func (c *Conversion) Skipped() int64 {
	return c.NonMessages + c.Dropped
}
