package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/domain"
)

func TestSendMessage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	msg, err := e.messages.Send(ctx, roomID, "member", "Alice", &domain.SendMessageRequest{Content: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == 0 || msg.SenderName != "Alice" || msg.Type != domain.MessageText {
		t.Errorf("message = %+v", msg)
	}

	if got := e.pub.onTopic("chat-messages"); len(got) != 1 || got[0].key != roomID {
		t.Errorf("chat-messages publishes = %+v", got)
	}

	if _, err := e.messages.Send(ctx, roomID, "stranger", "X", &domain.SendMessageRequest{Content: "hi"}); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("stranger send: got %v, want authorization error", err)
	}
	if _, err := e.messages.Send(ctx, roomID, "member", "Alice", &domain.SendMessageRequest{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty send: got %v, want validation error", err)
	}
}

func TestSendResolvesDisplayName(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	// No display name on the request path falls back to the identity
	// directory.
	msg, err := e.messages.Send(ctx, roomID, "member", "", &domain.SendMessageRequest{Content: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.SenderName != "Reader member" {
		t.Errorf("sender name = %q", msg.SenderName)
	}
}

func TestSendAttachmentValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	if _, err := e.messages.Send(ctx, roomID, "member", "Alice", &domain.SendMessageRequest{
		Content:      "see attached",
		AttachmentID: "missing-asset",
	}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("unknown attachment: got %v, want validation error", err)
	}

	msg, err := e.messages.Send(ctx, roomID, "member", "Alice", &domain.SendMessageRequest{
		Content:      "see attached",
		AttachmentID: "asset-1",
	})
	if err != nil {
		t.Fatalf("send with attachment: %v", err)
	}
	body, err := msg.DecodeText()
	if err != nil || body.AttachmentID != "asset-1" {
		t.Errorf("body = %+v, err %v", body, err)
	}
}

func TestSendReplyValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)
	otherRoom := e.seedRoom(t, domain.ScopeGroup)

	parent, err := e.messages.Send(ctx, roomID, "member", "Alice", &domain.SendMessageRequest{Content: "parent"})
	if err != nil {
		t.Fatalf("send parent: %v", err)
	}

	reply, err := e.messages.Send(ctx, roomID, "owner", "Owner", &domain.SendMessageRequest{
		Content:   "reply",
		ReplyToID: &parent.ID,
	})
	if err != nil {
		t.Fatalf("send reply: %v", err)
	}
	if reply.ReplyToID == nil || *reply.ReplyToID != parent.ID {
		t.Errorf("reply = %+v", reply)
	}

	// Replies cannot reach across rooms.
	if _, err := e.messages.Send(ctx, otherRoom, "owner", "Owner", &domain.SendMessageRequest{
		Content:   "cross-room reply",
		ReplyToID: &parent.ID,
	}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("cross-room reply: got %v, want validation error", err)
	}
}

func TestHistoryPagingAndOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	for i := 0; i < 5; i++ {
		if _, err := e.messages.Send(ctx, roomID, "member", "Alice", &domain.SendMessageRequest{
			Content: fmt.Sprintf("m%d", i),
		}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	page, err := e.messages.History(ctx, roomID, "member", 0, 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page.Messages) != 3 || !page.HasMore {
		t.Fatalf("head page: %d messages, hasMore=%v", len(page.Messages), page.HasMore)
	}
	for i := 1; i < len(page.Messages); i++ {
		if page.Messages[i].ID >= page.Messages[i-1].ID {
			t.Fatal("page not newest-first")
		}
	}

	rest, err := e.messages.History(ctx, roomID, "member", page.NextCursor, 3)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(rest.Messages) != 2 || rest.HasMore {
		t.Errorf("second page: %d messages, hasMore=%v", len(rest.Messages), rest.HasMore)
	}

	if _, err := e.messages.History(ctx, roomID, "stranger", 0, 10); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("stranger history: got %v, want authorization error", err)
	}
}

func TestHistoryAppliesHideOverlay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	kept, err := e.messages.Send(ctx, roomID, "owner", "Owner", &domain.SendMessageRequest{Content: "keep"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	hidden, err := e.messages.Send(ctx, roomID, "owner", "Owner", &domain.SendMessageRequest{Content: "hide me"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := e.messages.Hide(ctx, roomID, hidden.ID, "member"); err != nil {
		t.Fatalf("hide: %v", err)
	}

	page, err := e.messages.History(ctx, roomID, "member", 0, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page.Messages) != 1 || page.Messages[0].ID != kept.ID {
		t.Errorf("overlay not applied: %+v", page.Messages)
	}

	// Other members still see everything.
	page, err = e.messages.History(ctx, roomID, "manager", 0, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page.Messages) != 2 {
		t.Errorf("overlay leaked: %d messages", len(page.Messages))
	}

	if err := e.messages.Unhide(ctx, roomID, hidden.ID, "member"); err != nil {
		t.Fatalf("unhide: %v", err)
	}
	page, err = e.messages.History(ctx, roomID, "member", 0, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page.Messages) != 2 {
		t.Errorf("unhide not applied: %d messages", len(page.Messages))
	}
}

func TestHistoryResolvesAttachmentURLs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	if _, err := e.messages.Send(ctx, roomID, "member", "Alice", &domain.SendMessageRequest{
		Content:      "cover photo",
		AttachmentID: "asset-1",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	page, err := e.messages.History(ctx, roomID, "member", 0, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	body, err := page.Messages[0].DecodeText()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.AttachmentURL != "https://assets.test/asset-1" {
		t.Errorf("attachment url = %q", body.AttachmentURL)
	}
}

func TestDeleteMessageAuthorization(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	msg, err := e.messages.Send(ctx, roomID, "member", "Alice", &domain.SendMessageRequest{Content: "oops"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := e.messages.Delete(ctx, roomID, msg.ID, "manager"); err != nil {
		t.Fatalf("moderator delete: %v", err)
	}

	sent, err := e.messages.Send(ctx, roomID, "member", "Alice", &domain.SendMessageRequest{Content: "second"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := e.messages.Delete(ctx, roomID, sent.ID, "member"); err != nil {
		t.Fatalf("sender delete: %v", err)
	}

	// Deleted messages leave history.
	page, err := e.messages.History(ctx, roomID, "owner", 0, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, m := range page.Messages {
		if m.ID == msg.ID || m.ID == sent.ID {
			t.Errorf("deleted message %d still in history", m.ID)
		}
	}

	if err := e.messages.Delete(ctx, roomID, sent.ID, "member"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("double delete: got %v, want not found", err)
	}
}

func TestMemberCannotDeleteOthersMessage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	msg, err := e.messages.Send(ctx, roomID, "manager", "Manager", &domain.SendMessageRequest{Content: "official"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := e.messages.Delete(ctx, roomID, msg.ID, "member"); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("member delete of other's message: got %v, want authorization error", err)
	}
}
