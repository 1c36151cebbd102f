package service

import (
	"context"
	"time"

	"github.com/pageturn/bookclub-chat/internal/domain"
)

// RoomService covers room lifecycle and membership flags.
type RoomService interface {
	Create(ctx context.Context, creatorID string, req *domain.CreateRoomRequest) (*domain.RoomResponse, error)
	List(ctx context.Context, userID string, page, pageSize int) (*domain.ListRoomsResponse, error)
	Join(ctx context.Context, roomID, userID string) error
	Leave(ctx context.Context, roomID, userID string) error
	Destroy(ctx context.Context, roomID, userID string, confirm bool) error
	Pin(ctx context.Context, roomID, userID string) error
	Unpin(ctx context.Context, roomID, userID string) error
	Mute(ctx context.Context, roomID, userID string, until time.Time) error
	Unmute(ctx context.Context, roomID, userID string) error
	Kick(ctx context.Context, roomID, actorID string, req *domain.KickRequest) error
}

// MessageService covers sending, history reads and the per-user
// moderation overlay.
type MessageService interface {
	Send(ctx context.Context, roomID, senderID, senderName string, req *domain.SendMessageRequest) (*domain.Message, error)
	History(ctx context.Context, roomID, userID string, beforeID int64, limit int) (*domain.HistoryResponse, error)
	Delete(ctx context.Context, roomID string, messageID int64, actorID string) error
	Hide(ctx context.Context, roomID string, messageID int64, userID string) error
	Unhide(ctx context.Context, roomID string, messageID int64, userID string) error
}

// AnnouncementService covers announcement CRUD and the NOTICE
// side-effect messages.
type AnnouncementService interface {
	Create(ctx context.Context, roomID, actorID, actorName string, req *domain.CreateAnnouncementRequest) (*domain.Announcement, error)
	List(ctx context.Context, roomID, userID string) ([]domain.Announcement, error)
	Get(ctx context.Context, roomID, userID, id string) (*domain.Announcement, error)
	Update(ctx context.Context, roomID, actorID, actorName, id string, req *domain.UpdateAnnouncementRequest) (*domain.Announcement, error)
	Delete(ctx context.Context, roomID, actorID, actorName, id string) error
}

// ScheduleService covers schedules, participation and the calendar
// linkage.
type ScheduleService interface {
	Create(ctx context.Context, roomID, actorID, actorName string, req *domain.CreateScheduleRequest) (*domain.ScheduleResponse, error)
	List(ctx context.Context, roomID, userID string) ([]domain.ScheduleResponse, error)
	Get(ctx context.Context, roomID, userID, id string) (*domain.ScheduleResponse, error)
	Update(ctx context.Context, roomID, actorID, actorName, id string, req *domain.UpdateScheduleRequest) (*domain.Schedule, error)
	Delete(ctx context.Context, roomID, actorID, actorName, id string) error
	Join(ctx context.Context, roomID, userID, id string) error
}

// PollService covers poll creation, voting and results. Polls live as
// POLL-typed messages; the message id is the poll id.
type PollService interface {
	Create(ctx context.Context, roomID, actorID, actorName string, req *domain.CreatePollRequest) (*domain.PollResponse, error)
	Get(ctx context.Context, roomID, userID string, pollID int64) (*domain.PollResponse, error)
	Vote(ctx context.Context, roomID, userID string, pollID int64, req *domain.VoteRequest) (*domain.VoteResponse, error)
	Result(ctx context.Context, roomID, userID string, pollID int64) (*domain.PollResultResponse, error)
}
