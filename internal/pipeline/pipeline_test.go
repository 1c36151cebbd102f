package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/internal/repository"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	fail     bool
}

type published struct {
	topic   string
	key     string
	payload []byte
}

func (f *fakePublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.messages = append(f.messages, published{topic: topic, key: key, payload: payload})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func newTestRepo(t *testing.T) repository.MessageRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewGormMessageRepository(db)
}

func textMessage(t *testing.T, roomID string) *domain.Message {
	t.Helper()
	body, err := domain.EncodeBody(&domain.TextBody{Content: "hi"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &domain.Message{
		RoomID:   roomID,
		SenderID: "u1",
		Type:     domain.MessageText,
		Body:     body,
	}
}

func TestSendPersistsThenPublishes(t *testing.T) {
	repo := newTestRepo(t)
	pub := &fakePublisher{}
	p := New(repo, pub, "chat-messages")

	msg, err := p.Send(context.Background(), textMessage(t, "room-1"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == 0 {
		t.Fatal("message id not assigned")
	}

	// Durable before publish: the row is readable.
	if _, err := repo.Get(context.Background(), msg.ID); err != nil {
		t.Fatalf("persisted message not readable: %v", err)
	}

	if len(pub.messages) != 1 {
		t.Fatalf("got %d publishes, want exactly 1", len(pub.messages))
	}
	if pub.messages[0].topic != "chat-messages" || pub.messages[0].key != "room-1" {
		t.Errorf("published to %s key %s", pub.messages[0].topic, pub.messages[0].key)
	}
}

func TestSendValidation(t *testing.T) {
	p := New(newTestRepo(t), &fakePublisher{}, "chat-messages")

	tests := []struct {
		name string
		msg  *domain.Message
	}{
		{"missing room", &domain.Message{SenderID: "u1"}},
		{"missing sender", &domain.Message{RoomID: "room-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Send(context.Background(), tt.msg)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestSendSurvivesPublishFailure(t *testing.T) {
	repo := newTestRepo(t)
	pub := &fakePublisher{fail: true}
	p := New(repo, pub, "chat-messages")

	msg, err := p.Send(context.Background(), textMessage(t, "room-1"))
	if err != nil {
		t.Fatalf("send should succeed despite publish failure: %v", err)
	}
	if msg.ID == 0 {
		t.Fatal("message id not assigned")
	}
	if _, err := repo.Get(context.Background(), msg.ID); err != nil {
		t.Fatalf("message not persisted: %v", err)
	}
}
