package service

import (
	"context"
	"errors"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/bus"
	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/internal/pipeline"
	"github.com/pageturn/bookclub-chat/internal/repository"
	"github.com/pageturn/bookclub-chat/pkg/log"
)

const noticePreviewLen = 120

// Body action tags on NOTICE messages.
const (
	noticeActionCreate = "create"
	noticeActionUpdate = "update"
	noticeActionDelete = "delete"
)

type announcementService struct {
	announcements repository.AnnouncementRepository
	rooms         repository.RoomRepository
	sender        pipeline.Sender
	events        *bus.EventPublisher
}

func NewAnnouncementService(
	announcements repository.AnnouncementRepository,
	rooms repository.RoomRepository,
	sender pipeline.Sender,
	events *bus.EventPublisher,
) AnnouncementService {
	return &announcementService{
		announcements: announcements,
		rooms:         rooms,
		sender:        sender,
		events:        events,
	}
}

// moderatorOnly loads the actor's membership and rejects non-moderators.
// Announcements never get the PRIVATE-room relaxation.
func (s *announcementService) moderatorOnly(ctx context.Context, roomID, actorID string) (*domain.Membership, error) {
	if _, err := activeRoom(ctx, s.rooms, roomID); err != nil {
		return nil, err
	}
	m, err := activeMembership(ctx, s.rooms, roomID, actorID)
	if err != nil {
		return nil, err
	}
	if !m.CanModerate() {
		return nil, apperr.Authorization("only moderators may manage announcements")
	}
	return m, nil
}

func (s *announcementService) Create(ctx context.Context, roomID, actorID, actorName string, req *domain.CreateAnnouncementRequest) (*domain.Announcement, error) {
	if _, err := s.moderatorOnly(ctx, roomID, actorID); err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, apperr.Validation("announcement title is required")
	}
	if req.Content == "" {
		return nil, apperr.Validation("announcement content is required")
	}

	a := &domain.Announcement{
		RoomID:   roomID,
		AuthorID: actorID,
		Title:    req.Title,
		Content:  req.Content,
	}
	if err := s.announcements.Create(ctx, a); err != nil {
		return nil, apperr.Internal("failed to create announcement", err)
	}

	if err := s.events.PublishEvent(ctx, bus.ActionAnncCreate, roomID, actorID, a); err != nil {
		return nil, apperr.Internal("failed to publish announcement event", err)
	}
	s.emitNotice(ctx, a, actorID, actorName, noticeActionCreate)

	return a, nil
}

func (s *announcementService) List(ctx context.Context, roomID, userID string) ([]domain.Announcement, error) {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}
	list, err := s.announcements.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, apperr.Internal("failed to list announcements", err)
	}
	return list, nil
}

func (s *announcementService) Get(ctx context.Context, roomID, userID, id string) (*domain.Announcement, error) {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}
	a, err := s.announcements.Get(ctx, roomID, id)
	if err != nil {
		if errors.Is(err, repository.ErrAnnouncementNotFound) {
			return nil, apperr.NotFound("announcement %s not found", id)
		}
		return nil, apperr.Internal("failed to load announcement", err)
	}
	return a, nil
}

func (s *announcementService) Update(ctx context.Context, roomID, actorID, actorName, id string, req *domain.UpdateAnnouncementRequest) (*domain.Announcement, error) {
	if _, err := s.moderatorOnly(ctx, roomID, actorID); err != nil {
		return nil, err
	}

	a, err := s.announcements.Get(ctx, roomID, id)
	if err != nil {
		if errors.Is(err, repository.ErrAnnouncementNotFound) {
			return nil, apperr.NotFound("announcement %s not found", id)
		}
		return nil, apperr.Internal("failed to load announcement", err)
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, apperr.Validation("announcement title cannot be empty")
		}
		a.Title = *req.Title
	}
	if req.Content != nil {
		if *req.Content == "" {
			return nil, apperr.Validation("announcement content cannot be empty")
		}
		a.Content = *req.Content
	}

	if err := s.announcements.Update(ctx, a); err != nil {
		return nil, apperr.Internal("failed to update announcement", err)
	}

	if err := s.events.PublishEvent(ctx, bus.ActionAnncUpdate, roomID, actorID, a); err != nil {
		return nil, apperr.Internal("failed to publish announcement event", err)
	}
	s.emitNotice(ctx, a, actorID, actorName, noticeActionUpdate)

	return a, nil
}

func (s *announcementService) Delete(ctx context.Context, roomID, actorID, actorName, id string) error {
	if _, err := s.moderatorOnly(ctx, roomID, actorID); err != nil {
		return err
	}

	a, err := s.announcements.Get(ctx, roomID, id)
	if err != nil {
		if errors.Is(err, repository.ErrAnnouncementNotFound) {
			return apperr.NotFound("announcement %s not found", id)
		}
		return apperr.Internal("failed to load announcement", err)
	}

	if err := s.announcements.SoftDelete(ctx, roomID, id); err != nil {
		if errors.Is(err, repository.ErrAnnouncementNotFound) {
			return apperr.NotFound("announcement %s not found", id)
		}
		return apperr.Internal("failed to delete announcement", err)
	}

	if err := s.events.PublishEvent(ctx, bus.ActionAnncDelete, roomID, actorID, a); err != nil {
		return apperr.Internal("failed to publish announcement event", err)
	}
	s.emitNotice(ctx, a, actorID, actorName, noticeActionDelete)
	return nil
}

// emitNotice pushes the NOTICE side-effect message into the feed via
// the pipeline. The announcement mutation already succeeded, so a
// failed notice is logged rather than surfaced.
func (s *announcementService) emitNotice(ctx context.Context, a *domain.Announcement, actorID, actorName, action string) {
	l := log.Ctx(ctx)

	// Truncate on rune boundaries so multi-byte content stays valid.
	preview := a.Content
	if r := []rune(preview); len(r) > noticePreviewLen {
		preview = string(r[:noticePreviewLen])
	}

	body, err := domain.EncodeBody(&domain.NoticeBody{
		AnnouncementID: a.ID,
		Title:          a.Title,
		Preview:        preview,
		Action:         action,
	})
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, a.RoomID).Msg("failed to encode notice body")
		return
	}

	if _, err := s.sender.Send(ctx, &domain.Message{
		RoomID:     a.RoomID,
		SenderID:   actorID,
		SenderName: actorName,
		Type:       domain.MessageNotice,
		Body:       body,
	}); err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, a.RoomID).Msg("failed to emit notice message")
	}
}
