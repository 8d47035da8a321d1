// Package gitlab adapts the GitLab REST API to the shapes the ingest
// drivers consume.
package gitlab

import (
	"context"
	"fmt"
	"time"

	gitlabapi "gitlab.com/gitlab-org/api/client-go"

	"github.com/fault-record/scraper/internal/ingest"
)

// Client fetches project issues, their discussion notes and user profiles.
type Client struct {
	api      *gitlabapi.Client
	pageSize int
	guard    *quotaGuard
}

// NewClient creates a GitLab adapter. baseURL overrides the gitlab.com
// endpoint for self-hosted instances; empty keeps the default.
func NewClient(token, baseURL string, pageSize, quotaThreshold, quotaLogEvery int) (*Client, error) {
	var opts []gitlabapi.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlabapi.WithBaseURL(baseURL))
	}
	api, err := gitlabapi.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Client{
		api:      api,
		pageSize: pageSize,
		guard:    newQuotaGuard(quotaThreshold, quotaLogEvery),
	}, nil
}

// Issues fetches the open issues of project from fromPage onward, oldest
// update first, following pages until the API reports no more. The second
// return value is the last page reached, for the caller's checkpoint.
func (c *Client) Issues(ctx context.Context, project string, fromPage int) ([]ingest.Issue, int, error) {
	opts := &gitlabapi.ListProjectIssuesOptions{
		ListOptions: gitlabapi.ListOptions{Page: int64(fromPage), PerPage: int64(c.pageSize)},
		State:       gitlabapi.Ptr("opened"),
		OrderBy:     gitlabapi.Ptr("updated_at"),
		Sort:        gitlabapi.Ptr("asc"),
	}

	var issues []ingest.Issue
	lastPage := fromPage
	for {
		page, resp, err := c.api.Issues.ListProjectIssues(project, opts, gitlabapi.WithContext(ctx))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list issues: %w", err)
		}
		c.guard.observe(resp)
		for _, issue := range page {
			issues = append(issues, convertIssue(issue))
		}
		lastPage = int(opts.Page)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return issues, lastPage, nil
}

// Notes fetches the discussion notes of one issue in creation order,
// dropping system notes about label and state churn.
func (c *Client) Notes(ctx context.Context, project string, issueIID int) ([]ingest.Note, error) {
	opts := &gitlabapi.ListIssueNotesOptions{
		ListOptions: gitlabapi.ListOptions{PerPage: int64(c.pageSize)},
		OrderBy:     gitlabapi.Ptr("created_at"),
		Sort:        gitlabapi.Ptr("asc"),
	}

	var notes []ingest.Note
	for {
		page, resp, err := c.api.Notes.ListIssueNotes(project, int64(issueIID), opts, gitlabapi.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list issue notes: %w", err)
		}
		c.guard.observe(resp)
		for _, note := range page {
			if note.System {
				continue
			}
			notes = append(notes, convertNote(note))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return notes, nil
}

// UserEmail resolves a username to the public profile email.
func (c *Client) UserEmail(ctx context.Context, username string) (string, error) {
	users, resp, err := c.api.Users.ListUsers(&gitlabapi.ListUsersOptions{
		Username: gitlabapi.Ptr(username),
	}, gitlabapi.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	c.guard.observe(resp)
	if len(users) == 0 || users[0].PublicEmail == "" {
		return "", fmt.Errorf("no public email for user %q", username)
	}
	return users[0].PublicEmail, nil
}

func convertIssue(issue *gitlabapi.Issue) ingest.Issue {
	var author string
	if issue.Author != nil {
		author = issue.Author.Username
	}
	var created time.Time
	if issue.CreatedAt != nil {
		created = *issue.CreatedAt
	}
	return ingest.Issue{
		IID:       int(issue.IID),
		Title:     issue.Title,
		Body:      issue.Description,
		Author:    author,
		Link:      issue.WebURL,
		Created:   created,
		NoteCount: int(issue.UserNotesCount),
	}
}

func convertNote(note *gitlabapi.Note) ingest.Note {
	var created time.Time
	if note.CreatedAt != nil {
		created = *note.CreatedAt
	}
	return ingest.Note{
		ID:      int(note.ID),
		Author:  note.Author.Username,
		Body:    note.Body,
		Created: created,
	}
}
