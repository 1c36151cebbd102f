package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageturn/bookclub-chat/internal/bus"
	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/internal/pipeline"
	"github.com/pageturn/bookclub-chat/internal/repository"
)

type fakePublisher struct {
	mu       sync.Mutex
	records  []publishedRecord
	failNext bool
}

type publishedRecord struct {
	topic   string
	key     string
	payload []byte
}

func (f *fakePublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("broker unavailable")
	}
	f.records = append(f.records, publishedRecord{topic: topic, key: key, payload: payload})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) onTopic(topic string) []publishedRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishedRecord
	for _, r := range f.records {
		if r.topic == topic {
			out = append(out, r)
		}
	}
	return out
}

type fakeIdentity struct{}

func (fakeIdentity) DisplayName(ctx context.Context, userID string) (string, error) {
	return "Reader " + userID, nil
}

type fakeAssets struct {
	known map[string]bool
}

func (f *fakeAssets) Exists(ctx context.Context, key string) (bool, error) {
	return f.known[key], nil
}

func (f *fakeAssets) GetURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if !f.known[key] {
		return "", errors.New("asset not found")
	}
	return "https://assets.test/" + key, nil
}

type env struct {
	db            *gorm.DB
	pub           *fakePublisher
	assets        *fakeAssets
	messageRepo   repository.MessageRepository
	voteRepo      repository.VoteRepository
	roomRepo      repository.RoomRepository
	annRepo       repository.AnnouncementRepository
	scheduleRepo  repository.ScheduleRepository
	calendarRepo  repository.CalendarRepository
	hideRepo      repository.HideRepository
	pipe          *pipeline.Pipeline
	events        *bus.EventPublisher
	rooms         RoomService
	messages      MessageService
	announcements AnnouncementService
	schedules     ScheduleService
	polls         PollService
}

func newEnv(t *testing.T) *env {
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

	e := &env{
		db:           db,
		pub:          &fakePublisher{},
		assets:       &fakeAssets{known: map[string]bool{"asset-1": true}},
		messageRepo:  repository.NewGormMessageRepository(db),
		voteRepo:     repository.NewGormVoteRepository(db),
		roomRepo:     repository.NewGormRoomRepository(db),
		annRepo:      repository.NewGormAnnouncementRepository(db),
		scheduleRepo: repository.NewGormScheduleRepository(db),
		calendarRepo: repository.NewGormCalendarRepository(db),
		hideRepo:     repository.NewGormHideRepository(db),
	}
	e.pipe = pipeline.New(e.messageRepo, e.pub, "chat-messages")
	e.events = bus.NewEventPublisher(e.pub, "room-events")

	e.rooms = NewRoomService(e.roomRepo, e.messageRepo, e.events)
	e.messages = NewMessageService(e.pipe, e.roomRepo, e.messageRepo, e.hideRepo,
		nil, fakeIdentity{}, e.assets, HistoryOptions{})
	e.announcements = NewAnnouncementService(e.annRepo, e.roomRepo, e.pipe, e.events)
	e.schedules = NewScheduleService(e.scheduleRepo, e.calendarRepo, e.roomRepo, e.pipe, e.events)
	e.polls = NewPollService(e.messageRepo, e.voteRepo, e.roomRepo, e.pipe, e.events)

	return e
}

// seedRoom creates a room with owner "owner", manager "manager" and
// member "member".
func (e *env) seedRoom(t *testing.T, scope domain.RoomScope) string {
	t.Helper()
	ctx := context.Background()

	room, err := e.rooms.Create(ctx, "owner", &domain.CreateRoomRequest{
		Scope:     scope,
		Name:      "reading circle",
		MemberIDs: []string{"manager", "member"},
	})
	if err != nil {
		t.Fatalf("seed room: %v", err)
	}

	m, err := e.roomRepo.GetMembership(ctx, room.ID, "manager")
	if err != nil {
		t.Fatalf("get manager membership: %v", err)
	}
	m.Role = domain.RoleManager
	if err := e.roomRepo.UpdateMembership(ctx, m); err != nil {
		t.Fatalf("promote manager: %v", err)
	}

	return room.ID
}

// latestMessage returns the newest visible message in the room.
func (e *env) latestMessage(t *testing.T, roomID string) *domain.Message {
	t.Helper()
	msg, err := e.messageRepo.LatestByRoom(context.Background(), roomID)
	if err != nil {
		t.Fatalf("latest message: %v", err)
	}
	return msg
}
