package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// IssueDriver runs one scrape of an issue tracker project: read the page
// checkpoint, fetch open issues from that page onward, post each as a
// fault record with its discussion notes as updates, then store the last
// page reached.
type IssueDriver struct {
	source   IssueSource
	mapper   *Mapper
	recorder Recorder
	cursors  Cursors
}

func NewIssueDriver(source IssueSource, mapper *Mapper, recorder Recorder, cursors Cursors) *IssueDriver {
	return &IssueDriver{
		source:   source,
		mapper:   mapper,
		recorder: recorder,
		cursors:  cursors,
	}
}

// Run scrapes project once. The checkpoint is a page number, not an item
// id: re-running from the stored page re-emits the issues on it, and any
// issue that moved between pages while the scrape ran can be missed or
// duplicated.
func (d *IssueDriver) Run(ctx context.Context, project string) error {
	started := time.Now()

	cursor, err := d.cursors.Read(project)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	fromPage := 1
	if cursor != "" {
		fromPage, err = strconv.Atoi(cursor)
		if err != nil {
			return fmt.Errorf("failed to parse checkpoint %q: %w", cursor, err)
		}
	}
	slog.Info("Starting project scrape", "project", project, "page", fromPage)

	issues, lastPage, err := d.source.Issues(ctx, project, fromPage)
	if err != nil {
		return fmt.Errorf("failed to fetch issues: %w", err)
	}

	recorded := 0
	failed := 0
	for _, issue := range issues {
		if d.emitIssue(ctx, project, issue) {
			recorded++
		} else {
			failed++
		}
	}

	if len(issues) > 0 {
		if err := d.cursors.Write(project, strconv.Itoa(lastPage)); err != nil {
			return fmt.Errorf("failed to write checkpoint: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", "ScrapeProject",
		"project", project,
		"duration", time.Since(started).Round(time.Millisecond),
		"total", len(issues),
		"recorded", recorded,
		"failed", failed)

	return nil
}

func (d *IssueDriver) emitIssue(ctx context.Context, project string, issue Issue) bool {
	record := d.mapper.MapIssue(ctx, issue)
	faultID, err := d.recorder.CreateFault(ctx, faultRequest(&record))
	if err != nil {
		slog.Error("Failed to post fault record", "project", project, "issue", issue.IID, "error", err)
		return false
	}

	if issue.NoteCount == 0 {
		return true
	}

	notes, err := d.source.Notes(ctx, project, issue.IID)
	if err != nil {
		slog.Error("Failed to fetch issue notes", "project", project, "issue", issue.IID, "error", err)
		return true
	}
	for _, note := range notes {
		update := d.mapper.MapNote(ctx, issue, note)
		if err := d.recorder.CreateUpdate(ctx, updateRequest(faultID, update)); err != nil {
			slog.Error("Failed to post update", "fault_id", faultID, "note", note.ID, "error", err)
		}
	}
	return true
}
