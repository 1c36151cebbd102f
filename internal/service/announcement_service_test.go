package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/domain"
)

func TestAnnouncementModeratorGate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// The moderator rule never relaxes for announcements, even in a
	// private room.
	for _, scope := range []domain.RoomScope{domain.ScopeGroup, domain.ScopePrivate} {
		roomID := e.seedRoom(t, scope)
		req := &domain.CreateAnnouncementRequest{Title: "Week 3", Content: "Read chapters 5-8"}

		if _, err := e.announcements.Create(ctx, roomID, "member", "Member", req); !errors.Is(err, apperr.ErrAuthorization) {
			t.Errorf("%s member create: got %v, want authorization error", scope, err)
		}
		if _, err := e.announcements.Create(ctx, roomID, "manager", "Manager", req); err != nil {
			t.Errorf("%s manager create: %v", scope, err)
		}
	}
}

func TestAnnouncementEmitsNotice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	a, err := e.announcements.Create(ctx, roomID, "owner", "Owner", &domain.CreateAnnouncementRequest{
		Title:   "Schedule change",
		Content: "We meet on Thursdays now.",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The NOTICE side effect lands as the newest message in the feed.
	msg := e.latestMessage(t, roomID)
	if msg == nil || msg.Type != domain.MessageNotice {
		t.Fatalf("newest message = %+v, want NOTICE", msg)
	}
	body, err := msg.DecodeNotice()
	if err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if body.AnnouncementID != a.ID || body.Title != "Schedule change" || body.Action != "create" {
		t.Errorf("notice body = %+v", body)
	}

	// And the event stream records the mutation.
	if got := e.pub.onTopic("room-events"); len(got) < 2 { // room.create + announcement.create
		t.Errorf("got %d room events", len(got))
	}
}

func TestNoticePreviewKeepsRunesIntact(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	if _, err := e.announcements.Create(ctx, roomID, "owner", "Owner", &domain.CreateAnnouncementRequest{
		Title:   "Long one",
		Content: strings.Repeat("책", 130),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	body, err := e.latestMessage(t, roomID).DecodeNotice()
	if err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if !utf8.ValidString(body.Preview) {
		t.Errorf("preview is not valid UTF-8: %q", body.Preview)
	}
	if n := utf8.RuneCountInString(body.Preview); n != 120 {
		t.Errorf("preview has %d runes, want 120", n)
	}
}

func TestAnnouncementUpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	a, err := e.announcements.Create(ctx, roomID, "owner", "Owner", &domain.CreateAnnouncementRequest{
		Title:   "Original",
		Content: "Content",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTitle := "Amended"
	updated, err := e.announcements.Update(ctx, roomID, "manager", "Manager", a.ID, &domain.UpdateAnnouncementRequest{
		Title: &newTitle,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Amended" || updated.Content != "Content" {
		t.Errorf("partial update wrong: %+v", updated)
	}

	msg := e.latestMessage(t, roomID)
	if body, err := msg.DecodeNotice(); err != nil || body.Action != "update" {
		t.Errorf("newest message not an update notice: %v %v", body, err)
	}

	if err := e.announcements.Delete(ctx, roomID, "owner", "Owner", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.announcements.Get(ctx, roomID, "member", a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete: got %v, want not found", err)
	}
	if err := e.announcements.Delete(ctx, roomID, "owner", "Owner", a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("double delete: got %v, want not found", err)
	}
}

func TestAnnouncementListForMembersOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	if _, err := e.announcements.Create(ctx, roomID, "owner", "Owner", &domain.CreateAnnouncementRequest{
		Title: "T", Content: "C",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := e.announcements.List(ctx, roomID, "member")
	if err != nil {
		t.Fatalf("member list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d announcements", len(list))
	}

	if _, err := e.announcements.List(ctx, roomID, "stranger"); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("stranger list: got %v, want authorization error", err)
	}
}
