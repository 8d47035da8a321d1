package resolve

import "context"

// ProfileAPI is the platform surface used to look up a user's profile
// email. Both the chat and the issue-tracker clients provide it.
type ProfileAPI interface {
	UserEmail(ctx context.Context, handle string) (string, error)
}

// UserDirectory is the fault-record API surface used to translate an email
// into the numeric user id records are attributed to.
type UserDirectory interface {
	UserByEmail(ctx context.Context, email string) (int64, error)
}

// SignalCatalog is the fault-record API surface used to translate signal
// names into numeric signal ids.
type SignalCatalog interface {
	SignalsBySource(ctx context.Context, source string, names []string) ([]int64, error)
}
