package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/fault-record/scraper/internal/faultrecord"
	"github.com/fault-record/scraper/internal/normalize"
	"github.com/fault-record/scraper/internal/resolve"
)

// Chat platforms mark bot-posted messages and channel lifecycle events
// with these subtypes.
const subtypeBot = "bot_message"

var systemPrefixes = []string{"channel_", "group_"}

// Mapper classifies raw items and converts the eligible ones into records
// and updates.
type Mapper struct {
	users       UserResolver
	signals     SignalResolver
	flag        string
	allMessages bool
}

// NewMapper creates a record mapper. flag names the reaction that marks a
// plain message for ingestion; allMessages overrides the marker so that
// every plain message is ingested.
func NewMapper(users UserResolver, signals SignalResolver, flag string, allMessages bool) *Mapper {
	return &Mapper{
		users:       users,
		signals:     signals,
		flag:        flag,
		allMessages: allMessages,
	}
}

// Map classifies one conversation message. The states are mutually
// exclusive and evaluated in order: system notifications and unflagged
// plain messages are skipped, bot reports and flagged plain messages
// become records, and a bot message missing its expected structure is an
// error the caller logs without aborting the batch.
func (m *Mapper) Map(ctx context.Context, msg Message) Outcome {
	if isSystem(msg.Subtype) {
		return Outcome{Kind: OutcomeSkip, Reason: "system notification"}
	}
	if msg.Subtype == subtypeBot {
		return m.mapReport(ctx, msg)
	}
	return m.mapPlain(ctx, msg)
}

func isSystem(subtype string) bool {
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(subtype, prefix) {
			return true
		}
	}
	return false
}

func (m *Mapper) mapReport(ctx context.Context, msg Message) Outcome {
	if len(msg.Reports) == 0 {
		return Outcome{Kind: OutcomeError, Err: fmt.Errorf("bot message %s carries no report attachment", msg.TS)}
	}
	report := msg.Reports[0]

	if strings.Contains(strings.ToLower(report.Title), "successful") {
		return Outcome{Kind: OutcomeSkip, Reason: "successful run report"}
	}

	_, heading, found := strings.Cut(report.Title, ": ")
	if !found || heading == "" {
		return Outcome{Kind: OutcomeError, Err: fmt.Errorf("report title %q carries no heading separator", report.Title)}
	}

	signalIDs := []int64{}
	if pair := normalize.ExtractSourceSignals(report.Body); pair != nil {
		signalIDs = m.signals.IDs(ctx, pair.Source, pair.Signals)
	}

	return Outcome{Kind: OutcomeRecord, Record: &Record{
		Title:       heading,
		Description: m.normalizeText(ctx, reportDescription(report.Body)),
		UserID:      resolve.FallbackUserID,
		Date:        msg.Created.UTC().Format(faultrecord.DateLayout),
		Link:        msg.Link,
		SignalIDs:   signalIDs,
	}}
}

func (m *Mapper) mapPlain(ctx context.Context, msg Message) Outcome {
	if !m.allMessages && !m.flagged(msg) {
		return Outcome{Kind: OutcomeSkip, Reason: "not flagged"}
	}

	title, _, _ := strings.Cut(msg.Text, ".")
	return Outcome{Kind: OutcomeRecord, Record: &Record{
		Title:       title,
		Description: m.normalizeText(ctx, msg.Text),
		UserID:      m.users.UserID(ctx, msg.Author),
		Date:        msg.Created.UTC().Format(faultrecord.DateLayout),
		Link:        msg.Link,
		SignalIDs:   []int64{},
	}}
}

func (m *Mapper) flagged(msg Message) bool {
	for _, reaction := range msg.Reactions {
		if reaction == m.flag {
			return true
		}
	}
	return false
}

// MapReply converts one thread reply into an update.
func (m *Mapper) MapReply(ctx context.Context, msg Message) Update {
	return Update{
		Description: m.normalizeText(ctx, msg.Text),
		UserID:      m.users.UserID(ctx, msg.Author),
		Date:        msg.Created.UTC().Format(faultrecord.DateLayout),
		Link:        msg.Link,
	}
}

// MapIssue converts one tracker issue into a record. Issues carry no
// report markup, so the signal list stays empty.
func (m *Mapper) MapIssue(ctx context.Context, issue Issue) Record {
	return Record{
		Title:       issue.Title,
		Description: m.normalizeText(ctx, issue.Body),
		UserID:      m.users.UserID(ctx, issue.Author),
		Date:        issue.Created.UTC().Format(faultrecord.DateLayout),
		Link:        issue.Link,
		SignalIDs:   []int64{},
	}
}

// MapNote converts one comment on issue into an update anchored to the
// issue page.
func (m *Mapper) MapNote(ctx context.Context, issue Issue, note Note) Update {
	return Update{
		Description: m.normalizeText(ctx, note.Body),
		UserID:      m.users.UserID(ctx, note.Author),
		Date:        note.Created.UTC().Format(faultrecord.DateLayout),
		Link:        fmt.Sprintf("%s#note_%d", issue.Link, note.ID),
	}
}

// reportDescription drops the two header lines of a report body and joins
// the rest into one line.
func reportDescription(body string) string {
	lines := strings.Split(body, "\n")
	if len(lines) <= 2 {
		return ""
	}
	return strings.Join(lines[2:], " ")
}

// normalizeText runs the full normalization pipeline. Mentions go first so
// their markup survives long enough to be substituted.
func (m *Mapper) normalizeText(ctx context.Context, text string) string {
	text = normalize.ResolveMentions(ctx, text, m.users)
	text = normalize.StripMarkup(text)
	text = normalize.StripEmoji(text)
	return strings.TrimSpace(text)
}
