// Package slack adapts the Slack Web API to the shapes the ingest drivers
// consume.
package slack

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/fault-record/scraper/internal/ingest"
)

// API is the slice of the Slack client the adapter uses.
type API interface {
	GetConversationHistoryContext(ctx context.Context, params *slackapi.GetConversationHistoryParameters) (*slackapi.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slackapi.GetConversationRepliesParameters) ([]slackapi.Message, bool, string, error)
	GetUserInfoContext(ctx context.Context, user string) (*slackapi.User, error)
}

// Client fetches conversation history, thread replies and user profiles.
type Client struct {
	api          API
	workspaceURL string
	pageLimit    int
}

// NewClient creates a Slack adapter. workspaceURL is the workspace root
// used to build message permalinks; pageLimit caps messages per API page.
func NewClient(token, workspaceURL string, pageLimit int) *Client {
	return &Client{
		api:          slackapi.New(token),
		workspaceURL: strings.TrimRight(workspaceURL, "/"),
		pageLimit:    pageLimit,
	}
}

// History fetches every message in channel after the oldest timestamp,
// following cursors until the API reports no more pages. The API returns
// newest first; the result is reversed so callers see chronological order.
func (c *Client) History(ctx context.Context, channel, oldest string) ([]ingest.Message, error) {
	params := &slackapi.GetConversationHistoryParameters{
		ChannelID: channel,
		Limit:     c.pageLimit,
		Oldest:    oldest,
	}

	var raw []slackapi.Message
	for {
		resp, err := c.api.GetConversationHistoryContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch conversation history: %w", err)
		}
		raw = append(raw, resp.Messages...)
		if !resp.HasMore {
			break
		}
		params.Cursor = resp.ResponseMetaData.NextCursor
	}

	messages := make([]ingest.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		messages = append(messages, c.convert(channel, raw[i]))
	}
	return messages, nil
}

// Replies fetches the replies of a thread, dropping the parent message the
// API repeats at the head of the first page.
func (c *Client) Replies(ctx context.Context, channel, threadTS string) ([]ingest.Message, error) {
	params := &slackapi.GetConversationRepliesParameters{
		ChannelID: channel,
		Timestamp: threadTS,
		Limit:     c.pageLimit,
	}

	var raw []slackapi.Message
	for {
		msgs, hasMore, nextCursor, err := c.api.GetConversationRepliesContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch thread replies: %w", err)
		}
		raw = append(raw, msgs...)
		if !hasMore {
			break
		}
		params.Cursor = nextCursor
	}
	if len(raw) > 0 {
		raw = raw[1:]
	}

	messages := make([]ingest.Message, 0, len(raw))
	for _, msg := range raw {
		messages = append(messages, c.convert(channel, msg))
	}
	return messages, nil
}

// UserEmail resolves a user handle to the profile email.
func (c *Client) UserEmail(ctx context.Context, handle string) (string, error) {
	user, err := c.api.GetUserInfoContext(ctx, handle)
	if err != nil {
		return "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	return user.Profile.Email, nil
}

func (c *Client) convert(channel string, msg slackapi.Message) ingest.Message {
	reactions := make([]string, 0, len(msg.Reactions))
	for _, reaction := range msg.Reactions {
		reactions = append(reactions, reaction.Name)
	}

	var reports []ingest.Report
	for _, attachment := range msg.Attachments {
		reports = append(reports, ingest.Report{Title: attachment.Title, Body: attachment.Text})
	}

	return ingest.Message{
		TS:         msg.Timestamp,
		ThreadTS:   msg.ThreadTimestamp,
		Created:    tsTime(msg.Timestamp),
		Author:     msg.User,
		BotName:    msg.Username,
		Subtype:    msg.SubType,
		Text:       msg.Text,
		Link:       c.permalink(channel, msg.Timestamp),
		Reactions:  reactions,
		Reports:    reports,
		ReplyCount: msg.ReplyCount,
	}
}

// permalink builds the archive link for a message. Permalinks carry the
// timestamp with its dot removed.
func (c *Client) permalink(channel, ts string) string {
	return fmt.Sprintf("%s/archives/%s/p%s", c.workspaceURL, channel, strings.ReplaceAll(ts, ".", ""))
}

// tsTime converts a "seconds.fraction" message timestamp to a time.
func tsTime(ts string) time.Time {
	secStr, _, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
