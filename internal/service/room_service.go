package service

import (
	"context"
	"errors"
	"time"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/audit"
	"github.com/pageturn/bookclub-chat/internal/bus"
	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/internal/repository"
	"github.com/pageturn/bookclub-chat/pkg/log"
)

type roomService struct {
	rooms    repository.RoomRepository
	messages repository.MessageRepository
	events   *bus.EventPublisher
}

func NewRoomService(rooms repository.RoomRepository, messages repository.MessageRepository, events *bus.EventPublisher) RoomService {
	return &roomService{
		rooms:    rooms,
		messages: messages,
		events:   events,
	}
}

// Create creates a room with the creator as OWNER and every listed
// member as MEMBER, all active, in one transaction.
func (s *roomService) Create(ctx context.Context, creatorID string, req *domain.CreateRoomRequest) (*domain.RoomResponse, error) {
	if !domain.ValidScope(req.Scope) {
		return nil, apperr.Validation("invalid room scope: %s", req.Scope)
	}
	if req.Name == "" {
		return nil, apperr.Validation("room name is required")
	}

	now := time.Now().UTC()
	room := &domain.Room{
		Scope:       req.Scope,
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   creatorID,
	}

	members := []domain.Membership{{
		UserID:   creatorID,
		Role:     domain.RoleOwner,
		Active:   true,
		JoinedAt: now,
	}}
	seen := map[string]bool{creatorID: true}
	for _, id := range req.MemberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, domain.Membership{
			UserID:   id,
			Role:     domain.RoleMember,
			Active:   true,
			JoinedAt: now,
		})
	}

	if err := s.rooms.CreateWithMembers(ctx, room, members); err != nil {
		return nil, apperr.Internal("failed to create room", err)
	}

	if err := s.events.PublishEvent(ctx, bus.ActionRoomCreate, room.ID, creatorID, room); err != nil {
		return nil, apperr.Internal("failed to publish room event", err)
	}
	audit.LogWithTarget(ctx, audit.ActionCreateRoom, creatorID, room.ID, "room created")

	return &domain.RoomResponse{Room: *room, Role: domain.RoleOwner}, nil
}

// List returns the caller's rooms, pinned first, each carrying its
// last message.
func (s *roomService) List(ctx context.Context, userID string, page, pageSize int) (*domain.ListRoomsResponse, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	rooms, members, total, err := s.rooms.ListRoomsByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, apperr.Internal("failed to list rooms", err)
	}

	resp := &domain.ListRoomsResponse{
		Rooms:      make([]domain.RoomResponse, 0, len(rooms)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	for i := range rooms {
		rr := domain.RoomResponse{
			Room:     rooms[i],
			Role:     members[i].Role,
			PinnedAt: members[i].PinnedAt,
		}
		last, err := s.messages.LatestByRoom(ctx, rooms[i].ID)
		if err != nil {
			l.Warn().Err(err).Str(log.FieldRoomID, rooms[i].ID).Msg("failed to load last message")
		} else {
			rr.LastMessage = last
		}
		resp.Rooms = append(resp.Rooms, rr)
	}

	return resp, nil
}

// Join adds the caller to a room. New members may only join PUBLIC
// rooms; former members may re-join unless they were kicked, and the
// re-join reactivates the old row.
func (s *roomService) Join(ctx context.Context, roomID, userID string) error {
	room, err := activeRoom(ctx, s.rooms, roomID)
	if err != nil {
		return err
	}

	existing, err := s.rooms.GetMembership(ctx, roomID, userID)
	if err == nil {
		if existing.Active {
			return apperr.Conflict("already a member of room %s", roomID)
		}
		if existing.KickedAt != nil {
			return apperr.Authorization("kicked members cannot re-join")
		}
		existing.Active = true
		existing.JoinedAt = time.Now().UTC()
		if err := s.rooms.UpsertMembership(ctx, existing); err != nil {
			return apperr.Internal("failed to re-join room", err)
		}
		return nil
	}

	if room.Scope != domain.ScopePublic {
		return apperr.Authorization("room %s is not open for joining", roomID)
	}
	m := &domain.Membership{
		RoomID:   roomID,
		UserID:   userID,
		Role:     domain.RoleMember,
		Active:   true,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.rooms.UpsertMembership(ctx, m); err != nil {
		return apperr.Internal("failed to join room", err)
	}
	return nil
}

// Leave deactivates the caller's membership. The OWNER can never
// leave; the only exit for an owner is Destroy.
func (s *roomService) Leave(ctx context.Context, roomID, userID string) error {
	m, err := activeMembership(ctx, s.rooms, roomID, userID)
	if err != nil {
		return err
	}
	if m.Role == domain.RoleOwner {
		return apperr.Validation("owner cannot leave the room; destroy it instead")
	}

	m.Active = false
	if err := s.rooms.UpdateMembership(ctx, m); err != nil {
		return apperr.Internal("failed to leave room", err)
	}

	if err := s.events.PublishEvent(ctx, bus.ActionRoomLeave, roomID, userID, nil); err != nil {
		return apperr.Internal("failed to publish leave event", err)
	}
	audit.LogWithTarget(ctx, audit.ActionLeaveRoom, userID, roomID, "member left room")
	return nil
}

// Destroy flips the room inactive and cascades to every membership in
// one transaction. OWNER only, and the caller must confirm.
func (s *roomService) Destroy(ctx context.Context, roomID, userID string, confirm bool) error {
	m, err := activeMembership(ctx, s.rooms, roomID, userID)
	if err != nil {
		return err
	}
	if m.Role != domain.RoleOwner {
		return apperr.Authorization("only the owner may destroy the room")
	}
	if !confirm {
		return apperr.Validation("destroy requires confirmation")
	}

	if err := s.rooms.Destroy(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return apperr.NotFound("room %s not found", roomID)
		}
		return apperr.Internal("failed to destroy room", err)
	}

	if err := s.events.PublishEvent(ctx, bus.ActionRoomDestroy, roomID, userID, nil); err != nil {
		return apperr.Internal("failed to publish destroy event", err)
	}
	audit.LogWithTarget(ctx, audit.ActionDestroyRoom, userID, roomID, "room destroyed")
	return nil
}

// Pin pins the room to the top of the caller's list. Pin order follows
// pin time.
func (s *roomService) Pin(ctx context.Context, roomID, userID string) error {
	m, err := activeMembership(ctx, s.rooms, roomID, userID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	m.PinnedAt = &now
	m.PinOrder = int(now.Unix())
	if err := s.rooms.UpdateMembership(ctx, m); err != nil {
		return apperr.Internal("failed to pin room", err)
	}
	return nil
}

// Unpin clears the caller's pin.
func (s *roomService) Unpin(ctx context.Context, roomID, userID string) error {
	m, err := activeMembership(ctx, s.rooms, roomID, userID)
	if err != nil {
		return err
	}

	m.PinnedAt = nil
	m.PinOrder = 0
	if err := s.rooms.UpdateMembership(ctx, m); err != nil {
		return apperr.Internal("failed to unpin room", err)
	}
	return nil
}

// Mute silences the caller's own membership until the given instant.
func (s *roomService) Mute(ctx context.Context, roomID, userID string, until time.Time) error {
	m, err := activeMembership(ctx, s.rooms, roomID, userID)
	if err != nil {
		return err
	}
	if !until.After(time.Now().UTC()) {
		return apperr.Validation("mute deadline must be in the future")
	}

	m.MuteUntil = &until
	if err := s.rooms.UpdateMembership(ctx, m); err != nil {
		return apperr.Internal("failed to mute membership", err)
	}
	audit.LogWithTarget(ctx, audit.ActionMuteMember, userID, roomID, "member muted")
	return nil
}

// Unmute clears the caller's mute deadline.
func (s *roomService) Unmute(ctx context.Context, roomID, userID string) error {
	m, err := activeMembership(ctx, s.rooms, roomID, userID)
	if err != nil {
		return err
	}

	m.MuteUntil = nil
	if err := s.rooms.UpdateMembership(ctx, m); err != nil {
		return apperr.Internal("failed to unmute membership", err)
	}
	audit.LogWithTarget(ctx, audit.ActionUnmuteMember, userID, roomID, "member unmuted")
	return nil
}

// Kick removes a member. Moderators only; the OWNER can never be
// kicked.
func (s *roomService) Kick(ctx context.Context, roomID, actorID string, req *domain.KickRequest) error {
	actor, err := activeMembership(ctx, s.rooms, roomID, actorID)
	if err != nil {
		return err
	}
	if !actor.CanModerate() {
		return apperr.Authorization("only moderators may kick members")
	}
	if req.UserID == actorID {
		return apperr.Validation("cannot kick yourself")
	}

	target, err := activeMembership(ctx, s.rooms, roomID, req.UserID)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleOwner {
		return apperr.Authorization("the owner cannot be kicked")
	}

	now := time.Now().UTC()
	target.Active = false
	target.KickedAt = &now
	target.KickedBy = actorID
	target.KickReason = req.Reason
	if err := s.rooms.UpdateMembership(ctx, target); err != nil {
		return apperr.Internal("failed to kick member", err)
	}

	if err := s.events.PublishEvent(ctx, bus.ActionMemberKick, roomID, actorID, map[string]string{
		"user_id": req.UserID,
		"reason":  req.Reason,
	}); err != nil {
		return apperr.Internal("failed to publish kick event", err)
	}
	audit.LogWithDetail(ctx, audit.ActionKickMember, actorID, req.UserID, "member kicked")
	return nil
}
