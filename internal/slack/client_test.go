package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	slackapi "github.com/slack-go/slack"

	"github.com/fault-record/scraper/internal/ingest"
)

type fakeAPI struct {
	historyPages []*slackapi.GetConversationHistoryResponse
	historyCalls []slackapi.GetConversationHistoryParameters
	historyErr   error

	replyPages   [][]slackapi.Message
	replyCursors []string
	replyCalls   []slackapi.GetConversationRepliesParameters
	replyErr     error

	users   map[string]*slackapi.User
	userErr error
}

func (f *fakeAPI) GetConversationHistoryContext(_ context.Context, params *slackapi.GetConversationHistoryParameters) (*slackapi.GetConversationHistoryResponse, error) {
	f.historyCalls = append(f.historyCalls, *params)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	page := f.historyPages[0]
	f.historyPages = f.historyPages[1:]
	return page, nil
}

func (f *fakeAPI) GetConversationRepliesContext(_ context.Context, params *slackapi.GetConversationRepliesParameters) ([]slackapi.Message, bool, string, error) {
	f.replyCalls = append(f.replyCalls, *params)
	if f.replyErr != nil {
		return nil, false, "", f.replyErr
	}
	page := f.replyPages[0]
	f.replyPages = f.replyPages[1:]
	hasMore := len(f.replyPages) > 0
	cursor := ""
	if hasMore {
		cursor = f.replyCursors[0]
		f.replyCursors = f.replyCursors[1:]
	}
	return page, hasMore, cursor, nil
}

func (f *fakeAPI) GetUserInfoContext(_ context.Context, user string) (*slackapi.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[user]
	if !ok {
		return nil, errors.New("user_not_found")
	}
	return u, nil
}

func historyPage(hasMore bool, cursor string, messages ...slackapi.Message) *slackapi.GetConversationHistoryResponse {
	resp := &slackapi.GetConversationHistoryResponse{HasMore: hasMore, Messages: messages}
	resp.ResponseMetaData.NextCursor = cursor
	return resp
}

func chatMessage(ts, text string) slackapi.Message {
	return slackapi.Message{Msg: slackapi.Msg{Timestamp: ts, User: "U1", Text: text}}
}

func newTestClient(api API) *Client {
	return &Client{api: api, workspaceURL: "https://example.slack.com", pageLimit: 2}
}

func TestClient_History_PaginatesAndReversesOrder(t *testing.T) {
	api := &fakeAPI{historyPages: []*slackapi.GetConversationHistoryResponse{
		historyPage(true, "cur2", chatMessage("300.000003", "third"), chatMessage("200.000002", "second")),
		historyPage(false, "", chatMessage("100.000001", "first")),
	}}
	client := newTestClient(api)

	messages, err := client.History(context.Background(), "C1", "50.000000")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var order []string
	for _, msg := range messages {
		order = append(order, msg.TS)
	}
	if diff := cmp.Diff([]string{"100.000001", "200.000002", "300.000003"}, order); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}

	if len(api.historyCalls) != 2 {
		t.Fatalf("Expected 2 history calls, got %d", len(api.historyCalls))
	}
	first := api.historyCalls[0]
	if first.ChannelID != "C1" || first.Oldest != "50.000000" || first.Limit != 2 || first.Cursor != "" {
		t.Errorf("Unexpected first call parameters: %+v", first)
	}
	if api.historyCalls[1].Cursor != "cur2" {
		t.Errorf("Expected second call to carry cursor cur2, got %q", api.historyCalls[1].Cursor)
	}
}

func TestClient_History_ConvertsMessages(t *testing.T) {
	raw := slackapi.Message{Msg: slackapi.Msg{
		Timestamp:       "1614556800.000200",
		ThreadTimestamp: "1614556800.000200",
		User:            "U1",
		Username:        "reporter-bot",
		SubType:         "bot_message",
		Text:            "check failed",
		ReplyCount:      2,
		Reactions:       []slackapi.ItemReaction{{Name: "eyes"}, {Name: "fire"}},
		Attachments:     []slackapi.Attachment{{Title: "ALERT: Queue stalled", Text: "line1\nline2\nline3"}},
	}}
	api := &fakeAPI{historyPages: []*slackapi.GetConversationHistoryResponse{historyPage(false, "", raw)}}
	client := newTestClient(api)

	messages, err := client.History(context.Background(), "C1", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}

	want := ingest.Message{
		TS:         "1614556800.000200",
		ThreadTS:   "1614556800.000200",
		Created:    time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		Author:     "U1",
		BotName:    "reporter-bot",
		Subtype:    "bot_message",
		Text:       "check failed",
		Link:       "https://example.slack.com/archives/C1/p1614556800000200",
		Reactions:  []string{"eyes", "fire"},
		Reports:    []ingest.Report{{Title: "ALERT: Queue stalled", Body: "line1\nline2\nline3"}},
		ReplyCount: 2,
	}
	if diff := cmp.Diff(want, messages[0]); diff != "" {
		t.Errorf("Message mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_History_Error(t *testing.T) {
	api := &fakeAPI{historyErr: errors.New("channel_not_found")}
	client := newTestClient(api)

	if _, err := client.History(context.Background(), "C1", ""); err == nil {
		t.Fatal("Expected error when the API call fails")
	}
}

func TestClient_Replies_DropsParentAndPaginates(t *testing.T) {
	api := &fakeAPI{
		replyPages: [][]slackapi.Message{
			{chatMessage("100.000001", "parent"), chatMessage("100.000002", "first reply")},
			{chatMessage("100.000003", "second reply")},
		},
		replyCursors: []string{"cur2"},
	}
	client := newTestClient(api)

	replies, err := client.Replies(context.Background(), "C1", "100.000001")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var order []string
	for _, msg := range replies {
		order = append(order, msg.TS)
	}
	if diff := cmp.Diff([]string{"100.000002", "100.000003"}, order); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}

	if len(api.replyCalls) != 2 {
		t.Fatalf("Expected 2 reply calls, got %d", len(api.replyCalls))
	}
	if api.replyCalls[0].Timestamp != "100.000001" {
		t.Errorf("Expected thread timestamp in call, got %q", api.replyCalls[0].Timestamp)
	}
	if api.replyCalls[1].Cursor != "cur2" {
		t.Errorf("Expected second call to carry cursor cur2, got %q", api.replyCalls[1].Cursor)
	}
}

func TestClient_Replies_EmptyThread(t *testing.T) {
	api := &fakeAPI{replyPages: [][]slackapi.Message{{}}}
	client := newTestClient(api)

	replies, err := client.Replies(context.Background(), "C1", "100.000001")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(replies) != 0 {
		t.Errorf("Expected no replies, got %d", len(replies))
	}
}

func TestClient_UserEmail(t *testing.T) {
	api := &fakeAPI{users: map[string]*slackapi.User{
		"U1": {Profile: slackapi.UserProfile{Email: "bob@example.com"}},
	}}
	client := newTestClient(api)

	email, err := client.UserEmail(context.Background(), "U1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if email != "bob@example.com" {
		t.Errorf("Expected profile email, got %q", email)
	}
}

func TestClient_UserEmail_Unknown(t *testing.T) {
	api := &fakeAPI{users: map[string]*slackapi.User{}}
	client := newTestClient(api)

	if _, err := client.UserEmail(context.Background(), "U404"); err == nil {
		t.Fatal("Expected error for unknown user")
	}
}

func TestTsTime(t *testing.T) {
	tests := []struct {
		name     string
		ts       string
		expected time.Time
	}{
		{"message timestamp", "1614556800.000200", time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"no fraction", "1614556800", time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"malformed", "not-a-ts", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tsTime(tt.ts); !got.Equal(tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
