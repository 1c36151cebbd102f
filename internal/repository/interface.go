package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pageturn/bookclub-chat/internal/domain"
)

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrScheduleNotFound     = errors.New("schedule not found")
	ErrAlreadyParticipant   = errors.New("already a participant")
)

// MessageRepository is the durable, strictly ordered message store.
type MessageRepository interface {
	// Append persists a message, assigning its id and createdAt (when
	// zero). The row is visible to reads before Append returns.
	Append(ctx context.Context, msg *domain.Message) error
	SoftDelete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Message, error)
	// ListByRoom returns a newest-first page. beforeID=0 means the head
	// page; nextCursor is the id to pass as beforeID for the next page.
	ListByRoom(ctx context.Context, roomID string, beforeID int64, limit int) (msgs []domain.Message, nextCursor int64, hasMore bool, err error)
	LatestByRoom(ctx context.Context, roomID string) (*domain.Message, error)
}

// VoteRepository is the append/overwrite vote ledger.
type VoteRepository interface {
	// Upsert replaces any previous vote by the same user on the poll.
	Upsert(ctx context.Context, vote *domain.Vote) error
	ListByPoll(ctx context.Context, pollMessageID int64) ([]domain.Vote, error)
}

// RoomRepository covers rooms and memberships. Destroy and
// CreateWithMembers are transactional: partial application is never
// observable.
type RoomRepository interface {
	CreateWithMembers(ctx context.Context, room *domain.Room, members []domain.Membership) error
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	GetMembership(ctx context.Context, roomID, userID string) (*domain.Membership, error)
	ListActiveMembers(ctx context.Context, roomID string) ([]domain.Membership, error)
	ListRoomsByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Room, []domain.Membership, int, error)
	UpdateMembership(ctx context.Context, m *domain.Membership) error
	// UpsertMembership creates the row or, when a row already exists
	// for (room, user), replaces it. Re-joins reactivate the old row.
	UpsertMembership(ctx context.Context, m *domain.Membership) error
	// Destroy flips the room inactive and deactivates every membership
	// in one transaction.
	Destroy(ctx context.Context, roomID string) error
}

// AnnouncementRepository stores announcement records.
type AnnouncementRepository interface {
	Create(ctx context.Context, a *domain.Announcement) error
	Get(ctx context.Context, roomID, id string) (*domain.Announcement, error)
	ListByRoom(ctx context.Context, roomID string) ([]domain.Announcement, error)
	Update(ctx context.Context, a *domain.Announcement) error
	SoftDelete(ctx context.Context, roomID, id string) error
}

// ScheduleRepository stores schedules, their participants and the
// calendar linkage.
type ScheduleRepository interface {
	Create(ctx context.Context, s *domain.Schedule) error
	Get(ctx context.Context, roomID, id string) (*domain.Schedule, error)
	ListByRoom(ctx context.Context, roomID string) ([]domain.Schedule, error)
	Update(ctx context.Context, s *domain.Schedule) error
	SoftDelete(ctx context.Context, roomID, id string) error
	AddParticipant(ctx context.Context, scheduleID, userID string, at time.Time) error
	ListParticipants(ctx context.Context, scheduleID string) ([]domain.ScheduleParticipant, error)
}

// CalendarRepository is the calendar collaborator: get-or-create
// calendars and their events.
type CalendarRepository interface {
	GetOrCreate(ctx context.Context, kind domain.CalendarKind, ownerID string) (*domain.Calendar, error)
	CreateEvent(ctx context.Context, e *domain.CalendarEvent) error
	UpdateEventsBySchedule(ctx context.Context, scheduleID, title string, startsAt, endsAt time.Time) error
	DeleteEventsBySchedule(ctx context.Context, scheduleID string) error
}

// HideRepository is the per-user moderation overlay.
type HideRepository interface {
	Hide(ctx context.Context, messageID int64, userID string) error
	Unhide(ctx context.Context, messageID int64, userID string) error
	// HiddenIDs returns the subset of candidate ids currently hidden
	// for the user.
	HiddenIDs(ctx context.Context, userID string, candidates []int64) (map[int64]bool, error)
}
