package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pageturn/bookclub-chat/internal/domain"
)

func appendText(t *testing.T, repo *GormMessageRepository, roomID, content string) *domain.Message {
	t.Helper()

	body, err := domain.EncodeBody(&domain.TextBody{Content: content})
	if err != nil {
		t.Fatalf("encode body: %v", err)
	}
	msg := &domain.Message{
		RoomID:   roomID,
		SenderID: "u1",
		Type:     domain.MessageText,
		Body:     body,
	}
	if err := repo.Append(context.Background(), msg); err != nil {
		t.Fatalf("append: %v", err)
	}
	return msg
}

func TestMessageAppendAssignsOrderedIDs(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))

	var lastID int64
	for i := 0; i < 5; i++ {
		msg := appendText(t, repo, "room-1", fmt.Sprintf("m%d", i))
		if msg.ID <= lastID {
			t.Fatalf("ids not strictly increasing: %d after %d", msg.ID, lastID)
		}
		if msg.CreatedAt.IsZero() {
			t.Fatal("CreatedAt not assigned")
		}
		lastID = msg.ID
	}
}

func TestMessageListByRoomPaging(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	ids := make([]int64, 0, 7)
	for i := 0; i < 7; i++ {
		ids = append(ids, appendText(t, repo, "room-1", fmt.Sprintf("m%d", i)).ID)
	}
	// Another room's traffic must not leak in.
	appendText(t, repo, "room-2", "other")

	// Head page, newest first.
	page, cursor, hasMore, err := repo.ListByRoom(ctx, "room-1", 0, 3)
	if err != nil {
		t.Fatalf("head page: %v", err)
	}
	if len(page) != 3 || !hasMore {
		t.Fatalf("head page: got %d messages, hasMore=%v", len(page), hasMore)
	}
	if page[0].ID != ids[6] || page[2].ID != ids[4] {
		t.Errorf("head page order wrong: %d..%d", page[0].ID, page[2].ID)
	}
	if cursor != ids[4] {
		t.Errorf("cursor = %d, want %d", cursor, ids[4])
	}

	// Second page via cursor.
	page, cursor, hasMore, err = repo.ListByRoom(ctx, "room-1", cursor, 3)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(page) != 3 || !hasMore || page[0].ID != ids[3] {
		t.Fatalf("second page: got %d messages starting %d, hasMore=%v", len(page), page[0].ID, hasMore)
	}

	// Final page drains.
	page, _, hasMore, err = repo.ListByRoom(ctx, "room-1", cursor, 3)
	if err != nil {
		t.Fatalf("final page: %v", err)
	}
	if len(page) != 1 || hasMore {
		t.Fatalf("final page: got %d messages, hasMore=%v", len(page), hasMore)
	}
	if page[0].ID != ids[0] {
		t.Errorf("final page id = %d, want %d", page[0].ID, ids[0])
	}
}

func TestMessageSoftDelete(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	msg := appendText(t, repo, "room-1", "delete me")

	if err := repo.SoftDelete(ctx, msg.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.Get(ctx, msg.ID); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("Get after delete: %v, want ErrMessageNotFound", err)
	}
	if err := repo.SoftDelete(ctx, msg.ID); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("double delete: %v, want ErrMessageNotFound", err)
	}

	page, _, _, err := repo.ListByRoom(ctx, "room-1", 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 0 {
		t.Errorf("deleted message still listed")
	}
}

func TestMessageLatestByRoom(t *testing.T) {
	repo := NewGormMessageRepository(newTestDB(t))
	ctx := context.Background()

	latest, err := repo.LatestByRoom(ctx, "empty-room")
	if err != nil || latest != nil {
		t.Fatalf("empty room: latest=%v err=%v", latest, err)
	}

	appendText(t, repo, "room-1", "first")
	want := appendText(t, repo, "room-1", "second")

	latest, err = repo.LatestByRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.ID != want.ID {
		t.Errorf("latest = %+v, want id %d", latest, want.ID)
	}
}
