package service

import (
	"context"
	"errors"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/internal/repository"
)

// activeRoom loads a room and rejects destroyed ones.
func activeRoom(ctx context.Context, rooms repository.RoomRepository, roomID string) (*domain.Room, error) {
	room, err := rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, apperr.NotFound("room %s not found", roomID)
		}
		return nil, apperr.Internal("failed to load room", err)
	}
	if !room.Active {
		return nil, apperr.NotFound("room %s not found", roomID)
	}
	return room, nil
}

// activeMembership loads the caller's membership in a room and rejects
// non-members and inactive rows.
func activeMembership(ctx context.Context, rooms repository.RoomRepository, roomID, userID string) (*domain.Membership, error) {
	m, err := rooms.GetMembership(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return nil, apperr.Authorization("not a member of room %s", roomID)
		}
		return nil, apperr.Internal("failed to load membership", err)
	}
	if !m.Active {
		return nil, apperr.Authorization("not a member of room %s", roomID)
	}
	return m, nil
}

// canCreateContent enforces the structured-content rule: moderators
// always, any active member in PRIVATE rooms.
func canCreateContent(room *domain.Room, m *domain.Membership) bool {
	if m.CanModerate() {
		return true
	}
	return room.Scope == domain.ScopePrivate
}
