// Package ingest turns raw platform items into fault records and drives
// the scrape of a source from checkpoint to checkpoint.
package ingest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fault-record/scraper/internal/faultrecord"
)

// ErrNoRecentFaults aborts an update-only pass: with no faults inside the
// look-back window there is nothing to refresh, which means the channel or
// the window is wrong.
var ErrNoRecentFaults = errors.New("no recent faults to update")

// Driver runs one scrape of a conversation channel: read the checkpoint,
// refresh replies on recent faults, fetch everything after the checkpoint,
// map and emit the eligible items, then advance the checkpoint.
type Driver struct {
	source       ChatSource
	mapper       *Mapper
	recorder     Recorder
	cursors      Cursors
	updateWindow time.Duration
}

// NewDriver creates a channel driver. updateWindow is the look-back used
// by the reply refresh pass; zero disables the pass.
func NewDriver(source ChatSource, mapper *Mapper, recorder Recorder, cursors Cursors, updateWindow time.Duration) *Driver {
	return &Driver{
		source:       source,
		mapper:       mapper,
		recorder:     recorder,
		cursors:      cursors,
		updateWindow: updateWindow,
	}
}

// Run scrapes channel once. oldest seeds the scrape span when no
// checkpoint exists yet; a stored checkpoint takes precedence. Emission
// failures are logged and the batch continues; the checkpoint advances to
// the newest message only after the whole batch has been processed, so a
// failed run re-scrapes the same span. Records carry no dedup key, so
// re-scraping can emit duplicates.
func (d *Driver) Run(ctx context.Context, channel, oldest string) error {
	started := time.Now()

	cursor, err := d.cursors.Read(channel)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	cursor = cmp.Or(cursor, oldest)
	slog.Info("Starting channel scrape", "channel", channel, "oldest", cmp.Or(cursor, "0"))

	if err := d.refreshUpdates(ctx, channel, false); err != nil {
		slog.Warn("Update refresh failed, continuing with scrape", "channel", channel, "error", err)
	}

	messages, err := d.source.History(ctx, channel, cursor)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}

	recorded := 0
	skipped := 0
	failed := 0
	for _, msg := range messages {
		outcome := d.mapper.Map(ctx, msg)
		switch outcome.Kind {
		case OutcomeSkip:
			skipped++
			slog.Debug("Message skipped", "channel", channel, "ts", msg.TS, "reason", outcome.Reason)
		case OutcomeError:
			failed++
			slog.Warn("Message structure unexpected, skipping", "channel", channel, "ts", msg.TS, "error", outcome.Err)
		case OutcomeRecord:
			if d.emit(ctx, channel, msg, outcome.Record) {
				recorded++
			} else {
				failed++
			}
		}
	}

	if len(messages) > 0 {
		newest := messages[len(messages)-1].TS
		if err := d.cursors.Write(channel, newest); err != nil {
			return fmt.Errorf("failed to write checkpoint: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", "ScrapeChannel",
		"channel", channel,
		"duration", time.Since(started).Round(time.Millisecond),
		"total", len(messages),
		"recorded", recorded,
		"skipped", skipped,
		"failed", failed)

	return nil
}

// RunUpdatesOnly refreshes replies on recent faults without scraping new
// messages. Zero faults inside the window is fatal here, unlike during a
// full run.
func (d *Driver) RunUpdatesOnly(ctx context.Context, channel string) error {
	return d.refreshUpdates(ctx, channel, true)
}

func (d *Driver) refreshUpdates(ctx context.Context, channel string, strict bool) error {
	if d.updateWindow <= 0 {
		return nil
	}

	since := time.Now().Add(-d.updateWindow)
	faults, err := d.recorder.FaultsSince(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to list recent faults: %w", err)
	}
	if len(faults) == 0 {
		if strict {
			return ErrNoRecentFaults
		}
		return nil
	}

	refreshed := 0
	for _, fault := range faults {
		ts, ok := threadFromLink(fault.SourceLink, channel)
		if !ok {
			continue
		}
		replies, err := d.source.Replies(ctx, channel, ts)
		if err != nil {
			slog.Warn("Failed to fetch replies for fault", "channel", channel, "fault_id", fault.ID, "error", err)
			continue
		}
		d.postUpdates(ctx, fault.ID, replies)
		refreshed++
	}

	slog.Info("Task completed",
		"type", "RefreshUpdates",
		"channel", channel,
		"faults", len(faults),
		"refreshed", refreshed)

	return nil
}

// emit posts one record and, when the message heads a thread, its replies
// as updates. Returns false when the record itself could not be posted.
func (d *Driver) emit(ctx context.Context, channel string, msg Message, record *Record) bool {
	faultID, err := d.recorder.CreateFault(ctx, faultRequest(record))
	if err != nil {
		slog.Error("Failed to post fault record", "channel", channel, "ts", msg.TS, "error", err)
		return false
	}

	if msg.ReplyCount == 0 {
		return true
	}

	replies, err := d.source.Replies(ctx, channel, cmp.Or(msg.ThreadTS, msg.TS))
	if err != nil {
		slog.Error("Failed to fetch thread replies", "channel", channel, "ts", msg.TS, "error", err)
		return true
	}
	d.postUpdates(ctx, faultID, replies)
	return true
}

func (d *Driver) postUpdates(ctx context.Context, faultID int64, replies []Message) {
	for _, reply := range replies {
		update := d.mapper.MapReply(ctx, reply)
		if err := d.recorder.CreateUpdate(ctx, updateRequest(faultID, update)); err != nil {
			slog.Error("Failed to post update", "fault_id", faultID, "ts", reply.TS, "error", err)
		}
	}
}

// threadFromLink recovers a thread timestamp from a record permalink,
// matching only links that point into channel. Permalinks carry the
// timestamp with its dot removed; the last six digits are the fraction.
func threadFromLink(link, channel string) (string, bool) {
	marker := "/archives/" + channel + "/p"
	i := strings.Index(link, marker)
	if i < 0 {
		return "", false
	}
	raw := link[i+len(marker):]
	if j := strings.IndexAny(raw, "/?"); j >= 0 {
		raw = raw[:j]
	}
	if len(raw) <= 6 {
		return "", false
	}
	return raw[:len(raw)-6] + "." + raw[len(raw)-6:], true
}

func faultRequest(record *Record) faultrecord.FaultRequest {
	return faultrecord.FaultRequest{
		Name:            record.Title,
		Description:     record.Description,
		UserID:          record.UserID,
		FirstOccurrence: record.Date,
		LastOccurrence:  record.Date,
		RecordDate:      record.Date,
		Signals:         record.SignalIDs,
		SourceLink:      record.Link,
	}
}

func updateRequest(faultID int64, update Update) faultrecord.UpdateRequest {
	return faultrecord.UpdateRequest{
		UserID:      update.UserID,
		Description: update.Description,
		FaultID:     faultID,
		RecordDate:  update.Date,
		SourceLink:  update.Link,
	}
}
