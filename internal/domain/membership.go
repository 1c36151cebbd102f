package domain

import (
	"time"
)

// Role is the per-room role of a member.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
)

// Membership is the per (room, user) state: role, activity, pin, mute
// and kick metadata. The composite key is (RoomID, UserID); a row is
// never deleted, leave/kick/destroy flip Active to false.
type Membership struct {
	RoomID     string     `json:"room_id"`
	UserID     string     `json:"user_id"`
	Role       Role       `json:"role"`
	Active     bool       `json:"active"`
	JoinedAt   time.Time  `json:"joined_at"`
	PinnedAt   *time.Time `json:"pinned_at,omitempty"`
	PinOrder   int        `json:"pin_order,omitempty"`
	MuteUntil  *time.Time `json:"mute_until,omitempty"`
	KickedAt   *time.Time `json:"kicked_at,omitempty"`
	KickedBy   string     `json:"kicked_by,omitempty"`
	KickReason string     `json:"kick_reason,omitempty"`
}

// CanModerate reports whether the member may mutate room content
// (announcements, schedules, polls in non-private rooms).
func (m *Membership) CanModerate() bool {
	return m.Role == RoleOwner || m.Role == RoleManager
}

// IsMuted reports whether the member is muted at the given instant.
func (m *Membership) IsMuted(now time.Time) bool {
	return m.MuteUntil != nil && now.Before(*m.MuteUntil)
}

// KickRequest removes a member from a room with a reason.
type KickRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Reason string `json:"reason"`
}

// MuteRequest mutes the caller's own membership until the given instant.
type MuteRequest struct {
	Until time.Time `json:"until" binding:"required"`
}
