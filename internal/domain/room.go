package domain

import (
	"time"
)

// RoomScope controls who may create structured content in a room.
// PRIVATE rooms model 1:1 or small ungoverned chats and relax the
// moderator-only rules for polls and schedules.
type RoomScope string

const (
	ScopePrivate RoomScope = "PRIVATE"
	ScopePublic  RoomScope = "PUBLIC"
	ScopeGroup   RoomScope = "GROUP"
)

// ValidScope reports whether s is a known room scope.
func ValidScope(s RoomScope) bool {
	switch s {
	case ScopePrivate, ScopePublic, ScopeGroup:
		return true
	}
	return false
}

// Room is a chat channel with a role-gated membership list.
// Destroy is a soft operation: Active flips to false, the row stays.
type Room struct {
	ID          string    `json:"id"`
	Scope       RoomScope `json:"scope"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatorID   string    `json:"creator_id"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRoomRequest creates a room with the caller as OWNER and every
// listed member as MEMBER.
type CreateRoomRequest struct {
	Scope       RoomScope `json:"scope" binding:"required"`
	Name        string    `json:"name" binding:"required,min=1,max=200"`
	Description string    `json:"description"`
	MemberIDs   []string  `json:"member_ids"`
}

// RoomResponse is a room as seen in list/detail endpoints.
type RoomResponse struct {
	Room
	Role        Role       `json:"role,omitempty"`
	PinnedAt    *time.Time `json:"pinned_at,omitempty"`
	LastMessage *Message   `json:"last_message,omitempty"`
}

// ListRoomsResponse is a paginated room list.
type ListRoomsResponse struct {
	Rooms      []RoomResponse `json:"rooms"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}
