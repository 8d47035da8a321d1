package ingest

import (
	"context"
	"time"

	"github.com/fault-record/scraper/internal/faultrecord"
)

// ChatSource is the conversation platform surface the channel driver
// consumes.
type ChatSource interface {
	History(ctx context.Context, channel, oldest string) ([]Message, error)
	Replies(ctx context.Context, channel, threadTS string) ([]Message, error)
}

// IssueSource is the code-hosting platform surface the issue driver
// consumes.
type IssueSource interface {
	Issues(ctx context.Context, project string, fromPage int) ([]Issue, int, error)
	Notes(ctx context.Context, project string, issueIID int) ([]Note, error)
}

// Recorder is the fault-record API surface the drivers emit into.
type Recorder interface {
	CreateFault(ctx context.Context, fault faultrecord.FaultRequest) (int64, error)
	CreateUpdate(ctx context.Context, update faultrecord.UpdateRequest) error
	FaultsSince(ctx context.Context, since time.Time) ([]faultrecord.Fault, error)
}

// Cursors persists resume cursors between runs.
type Cursors interface {
	Read(key string) (string, error)
	Write(key, cursor string) error
}

// UserResolver maps platform handles to display identities and record user
// ids.
type UserResolver interface {
	Display(ctx context.Context, handle string) string
	UserID(ctx context.Context, handle string) int64
}

// SignalResolver maps extracted signal names to record signal ids.
type SignalResolver interface {
	IDs(ctx context.Context, source string, names []string) []int64
}
