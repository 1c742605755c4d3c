package domain

// MissingAuthor is shown in place of the author of a message whose record
// carried no display name.
const MissingAuthor = "None"

// ChatEntry is one plain-text chat message kept from a replay log.
type ChatEntry struct {
	Text      string
	Author    *string
	Timestamp int64 // microseconds
}

// AuthorLabel returns the author's display name, or MissingAuthor.
func (e ChatEntry) AuthorLabel() string {
	if e.Author == nil {
		return MissingAuthor
	}
	return *e.Author
}

// Cue is one subtitle block. Start and End are microseconds since the first
// kept chat message.
type Cue struct {
	Index int
	Start int64
	End   int64
	Text  string
}
