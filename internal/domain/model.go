package domain

import (
	"encoding/json"
	"time"

	"github.com/pageturn/bookclub-chat/pkg/database"
)

// GORM models. Kept separate from the domain structs so storage tags
// never leak into API payloads.

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Scope       string    `gorm:"type:varchar(20);index;not null"`
	Name        string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	CreatorID   string    `gorm:"type:varchar(36);index;not null"`
	Active      bool      `gorm:"index;not null;default:true"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (RoomModel) TableName() string { return "rooms" }

func (m *RoomModel) ToDomain() *Room {
	return &Room{
		ID:          m.ID,
		Scope:       RoomScope(m.Scope),
		Name:        m.Name,
		Description: m.Description,
		CreatorID:   m.CreatorID,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func RoomToModel(r *Room) *RoomModel {
	return &RoomModel{
		ID:          r.ID,
		Scope:       string(r.Scope),
		Name:        r.Name,
		Description: r.Description,
		CreatorID:   r.CreatorID,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// MembershipModel is the GORM model for the room_members table.
// Composite primary key (room_id, user_id).
type MembershipModel struct {
	RoomID     string `gorm:"type:varchar(36);primaryKey"`
	UserID     string `gorm:"type:varchar(36);primaryKey;index"`
	Role       string `gorm:"type:varchar(20);not null"`
	Active     bool   `gorm:"index;not null;default:true"`
	JoinedAt   time.Time
	PinnedAt   *time.Time
	PinOrder   int
	MuteUntil  *time.Time
	KickedAt   *time.Time
	KickedBy   string `gorm:"type:varchar(36)"`
	KickReason string `gorm:"type:text"`
}

func (MembershipModel) TableName() string { return "room_members" }

func (m *MembershipModel) ToDomain() *Membership {
	return &Membership{
		RoomID:     m.RoomID,
		UserID:     m.UserID,
		Role:       Role(m.Role),
		Active:     m.Active,
		JoinedAt:   m.JoinedAt,
		PinnedAt:   m.PinnedAt,
		PinOrder:   m.PinOrder,
		MuteUntil:  m.MuteUntil,
		KickedAt:   m.KickedAt,
		KickedBy:   m.KickedBy,
		KickReason: m.KickReason,
	}
}

func MembershipToModel(m *Membership) *MembershipModel {
	return &MembershipModel{
		RoomID:     m.RoomID,
		UserID:     m.UserID,
		Role:       string(m.Role),
		Active:     m.Active,
		JoinedAt:   m.JoinedAt,
		PinnedAt:   m.PinnedAt,
		PinOrder:   m.PinOrder,
		MuteUntil:  m.MuteUntil,
		KickedAt:   m.KickedAt,
		KickedBy:   m.KickedBy,
		KickReason: m.KickReason,
	}
}

// MessageModel is the GORM model for the messages table. The
// autoincrement key provides the monotonic per-room ordering id.
type MessageModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	RoomID     string `gorm:"type:varchar(36);index:idx_messages_room;not null"`
	SenderID   string `gorm:"type:varchar(36);index;not null"`
	SenderName string `gorm:"type:varchar(100)"`
	Type       string `gorm:"type:varchar(20);not null"`
	Body       string `gorm:"type:text;not null"`
	ReplyToID  *int64
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	DeletedAt  *time.Time
}

func (MessageModel) TableName() string { return "messages" }

func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Type:       MessageType(m.Type),
		Body:       json.RawMessage(m.Body),
		ReplyToID:  m.ReplyToID,
		CreatedAt:  m.CreatedAt,
		DeletedAt:  m.DeletedAt,
	}
}

func MessageToModel(m *Message) *MessageModel {
	return &MessageModel{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Type:       string(m.Type),
		Body:       string(m.Body),
		ReplyToID:  m.ReplyToID,
		CreatedAt:  m.CreatedAt,
		DeletedAt:  m.DeletedAt,
	}
}

// VoteModel is the GORM model for the poll_votes ledger.
// Composite primary key (poll_message_id, user_id): re-votes overwrite.
type VoteModel struct {
	PollMessageID int64                `gorm:"primaryKey"`
	UserID        string               `gorm:"type:varchar(36);primaryKey"`
	OptionIDs     database.StringArray `gorm:"type:text;not null"`
	VotedAt       time.Time
}

func (VoteModel) TableName() string { return "poll_votes" }

func (m *VoteModel) ToDomain() *Vote {
	return &Vote{
		PollMessageID: m.PollMessageID,
		UserID:        m.UserID,
		OptionIDs:     []string(m.OptionIDs),
		VotedAt:       m.VotedAt,
	}
}

// AnnouncementModel is the GORM model for the announcements table.
type AnnouncementModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	RoomID    string    `gorm:"type:varchar(36);index;not null"`
	AuthorID  string    `gorm:"type:varchar(36);not null"`
	Title     string    `gorm:"type:varchar(200);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	DeletedAt *time.Time
}

func (AnnouncementModel) TableName() string { return "announcements" }

func (m *AnnouncementModel) ToDomain() *Announcement {
	return &Announcement{
		ID:        m.ID,
		RoomID:    m.RoomID,
		AuthorID:  m.AuthorID,
		Title:     m.Title,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ScheduleModel is the GORM model for the schedules table.
type ScheduleModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	RoomID      string    `gorm:"type:varchar(36);index;not null"`
	CreatorID   string    `gorm:"type:varchar(36);not null"`
	Title       string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	StartsAt    time.Time `gorm:"index;not null"`
	EndsAt      time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	DeletedAt   *time.Time
}

func (ScheduleModel) TableName() string { return "schedules" }

func (m *ScheduleModel) ToDomain() *Schedule {
	return &Schedule{
		ID:          m.ID,
		RoomID:      m.RoomID,
		CreatorID:   m.CreatorID,
		Title:       m.Title,
		Description: m.Description,
		StartsAt:    m.StartsAt,
		EndsAt:      m.EndsAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ScheduleParticipantModel is the join set (schedule, user).
type ScheduleParticipantModel struct {
	ScheduleID string `gorm:"type:varchar(36);primaryKey"`
	UserID     string `gorm:"type:varchar(36);primaryKey"`
	JoinedAt   time.Time
}

func (ScheduleParticipantModel) TableName() string { return "schedule_participants" }

// CalendarModel is the GORM model for room and personal calendars.
type CalendarModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Kind      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_calendar_owner"`
	OwnerID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_calendar_owner"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (CalendarModel) TableName() string { return "calendars" }

// CalendarEventModel is the GORM model for calendar entries.
type CalendarEventModel struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	CalendarID string    `gorm:"type:varchar(36);index;not null"`
	ScheduleID string    `gorm:"type:varchar(36);index;not null"`
	Title      string    `gorm:"type:varchar(200);not null"`
	StartsAt   time.Time `gorm:"not null"`
	EndsAt     time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (CalendarEventModel) TableName() string { return "calendar_events" }

// HideModel is the per-user moderation overlay on messages.
type HideModel struct {
	MessageID  int64  `gorm:"primaryKey"`
	UserID     string `gorm:"type:varchar(36);primaryKey;index"`
	HiddenAt   time.Time
	UnhiddenAt *time.Time
}

func (HideModel) TableName() string { return "message_hides" }

// Models lists every GORM model for auto-migration at startup.
func Models() []interface{} {
	return []interface{}{
		&RoomModel{},
		&MembershipModel{},
		&MessageModel{},
		&VoteModel{},
		&AnnouncementModel{},
		&ScheduleModel{},
		&ScheduleParticipantModel{},
		&CalendarModel{},
		&CalendarEventModel{},
		&HideModel{},
	}
}
