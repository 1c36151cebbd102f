package domain

import (
	"time"
)

// CalendarKind distinguishes room-scoped calendars from personal ones.
type CalendarKind string

const (
	CalendarRoom     CalendarKind = "ROOM"
	CalendarPersonal CalendarKind = "PERSONAL"
)

// Calendar is a get-or-create container for events, owned either by a
// room or by a user.
type Calendar struct {
	ID        string       `json:"id"`
	Kind      CalendarKind `json:"kind"`
	OwnerID   string       `json:"owner_id"` // room id or user id
	CreatedAt time.Time    `json:"created_at"`
}

// CalendarEvent is a dated entry on a calendar. Schedule events on the
// room calendar are the source; joining a schedule copies the event
// onto the participant's personal calendar.
type CalendarEvent struct {
	ID         string    `json:"id"`
	CalendarID string    `json:"calendar_id"`
	ScheduleID string    `json:"schedule_id"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Schedule is a planned room gathering, backed by the room calendar.
// Mutations emit a TEXT message into the feed as a side effect.
type Schedule struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	CreatorID   string    `json:"creator_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ScheduleParticipant is the join set (schedule, user).
type ScheduleParticipant struct {
	ScheduleID string    `json:"schedule_id"`
	UserID     string    `json:"user_id"`
	JoinedAt   time.Time `json:"joined_at"`
}

// CreateScheduleRequest creates a schedule in a room.
type CreateScheduleRequest struct {
	Title       string    `json:"title" binding:"required,min=1,max=200"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
}

// UpdateScheduleRequest updates schedule fields.
type UpdateScheduleRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// ScheduleResponse is a schedule plus its participants.
type ScheduleResponse struct {
	Schedule
	Participants []ScheduleParticipant `json:"participants,omitempty"`
}
