package resolve

import (
	"context"
	"log/slog"
)

// Anonymous is the sentinel identity used when a profile cannot be
// resolved to an email.
const Anonymous = "<anonymous>"

// FallbackUserID is the record user id applied when no directory entry
// matches the resolved email. All unknown reporters alias to this one id.
const FallbackUserID = 1

// Identity resolves platform user handles to display identities and
// fault-record user ids. Lookups are memoized for the lifetime of the
// resolver; one instance covers one run.
type Identity struct {
	api       ProfileAPI
	directory UserDirectory
	retry     RetryPolicy

	emails map[string]string
	ids    map[string]int64
}

// NewIdentity creates an identity resolver backed by the given platform
// profile API and fault-record user directory.
func NewIdentity(api ProfileAPI, directory UserDirectory, retry RetryPolicy) *Identity {
	return &Identity{
		api:       api,
		directory: directory,
		retry:     retry,
		emails:    make(map[string]string),
		ids:       make(map[string]int64),
	}
}

// Display returns the identity substituted for handle in record text: the
// profile email, or the anonymous sentinel when the profile carries no
// email or the lookup keeps failing.
func (r *Identity) Display(ctx context.Context, handle string) string {
	if email, ok := r.emails[handle]; ok {
		return email
	}

	var email string
	err := r.retry.Do(ctx, func() error {
		var lookupErr error
		email, lookupErr = r.api.UserEmail(ctx, handle)
		return lookupErr
	})
	if err != nil {
		slog.Warn("Profile lookup failed", "handle", handle, "error", err)
		email = ""
	}
	if email == "" {
		email = Anonymous
	}

	r.emails[handle] = email
	return email
}

// UserID returns the fault-record user id for handle: the directory entry
// matching the profile email exactly, or FallbackUserID when the identity
// is anonymous or no entry matches.
func (r *Identity) UserID(ctx context.Context, handle string) int64 {
	email := r.Display(ctx, handle)
	if id, ok := r.ids[email]; ok {
		return id
	}

	id := int64(FallbackUserID)
	if email != Anonymous {
		directoryID, err := r.directory.UserByEmail(ctx, email)
		if err != nil {
			slog.Debug("No directory entry for email, using fallback id", "email", email, "error", err)
		} else {
			id = directoryID
		}
	}

	r.ids[email] = id
	return id
}
