package ingest

import "time"

// Message is one raw conversation item as fetched from the chat platform.
type Message struct {
	TS         string
	ThreadTS   string
	Created    time.Time
	Author     string // platform user handle
	BotName    string // display name on bot-posted messages
	Subtype    string
	Text       string
	Link       string
	Reactions  []string
	Reports    []Report
	ReplyCount int
}

// Report is an automated report attached to a bot message.
type Report struct {
	Title string
	Body  string
}

// Issue is one raw issue as fetched from the code-hosting platform.
type Issue struct {
	IID       int
	Title     string
	Body      string
	Author    string // platform username
	Link      string
	Created   time.Time
	NoteCount int
}

// Note is one issue comment.
type Note struct {
	ID      int
	Author  string
	Body    string
	Created time.Time
}

// Record is a canonical fault record ready for the fault-record API.
type Record struct {
	Title       string
	Description string
	UserID      int64
	Date        string // YYYY-MM-DD
	Link        string
	SignalIDs   []int64
}

// Update is a canonical follow-up attached to a record.
type Update struct {
	Description string
	UserID      int64
	Date        string
	Link        string
}

// OutcomeKind tags the mapper's classification of one raw item.
type OutcomeKind int

const (
	// OutcomeSkip marks an item deliberately left out of the output.
	OutcomeSkip OutcomeKind = iota
	// OutcomeRecord marks an item mapped to a fault record.
	OutcomeRecord
	// OutcomeError marks an item whose expected structure was missing. It
	// is logged and skipped; the batch continues.
	OutcomeError
)

// Outcome is the mapper's classification result for one item.
type Outcome struct {
	Kind   OutcomeKind
	Record *Record
	Reason string // set for OutcomeSkip
	Err    error  // set for OutcomeError
}
