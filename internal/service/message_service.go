package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/audit"
	"github.com/pageturn/bookclub-chat/internal/cache"
	"github.com/pageturn/bookclub-chat/internal/client"
	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/internal/pipeline"
	"github.com/pageturn/bookclub-chat/internal/repository"
	"github.com/pageturn/bookclub-chat/internal/storage"
	"github.com/pageturn/bookclub-chat/pkg/log"
)

// HistoryOptions tunes paging and enrichment of history reads.
type HistoryOptions struct {
	DefaultLimit int
	MaxLimit     int
	CacheTTL     time.Duration
	AssetExpiry  time.Duration
}

func (o *HistoryOptions) normalize() {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 50
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = 100
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 30 * time.Second
	}
	if o.AssetExpiry <= 0 {
		o.AssetExpiry = 15 * time.Minute
	}
}

type messageService struct {
	sender   pipeline.Sender
	rooms    repository.RoomRepository
	messages repository.MessageRepository
	hides    repository.HideRepository
	cache    cache.HistoryCache
	identity client.IdentityDirectory
	assets   storage.AssetResolver
	opts     HistoryOptions
	group    singleflight.Group
}

func NewMessageService(
	sender pipeline.Sender,
	rooms repository.RoomRepository,
	messages repository.MessageRepository,
	hides repository.HideRepository,
	historyCache cache.HistoryCache,
	identity client.IdentityDirectory,
	assets storage.AssetResolver,
	opts HistoryOptions,
) MessageService {
	opts.normalize()
	return &messageService{
		sender:   sender,
		rooms:    rooms,
		messages: messages,
		hides:    hides,
		cache:    historyCache,
		identity: identity,
		assets:   assets,
		opts:     opts,
	}
}

// Send validates membership and mute state, then hands the message to
// the write-then-publish pipeline.
func (s *messageService) Send(ctx context.Context, roomID, senderID, senderName string, req *domain.SendMessageRequest) (*domain.Message, error) {
	if _, err := activeRoom(ctx, s.rooms, roomID); err != nil {
		return nil, err
	}
	m, err := activeMembership(ctx, s.rooms, roomID, senderID)
	if err != nil {
		return nil, err
	}
	if m.IsMuted(time.Now().UTC()) {
		return nil, apperr.Authorization("membership is muted until %s", m.MuteUntil.Format(time.RFC3339))
	}
	if req.Content == "" {
		return nil, apperr.Validation("message content is required")
	}

	if req.AttachmentID != "" && s.assets != nil {
		ok, err := s.assets.Exists(ctx, req.AttachmentID)
		if err != nil {
			return nil, apperr.Internal("failed to check attachment", err)
		}
		if !ok {
			return nil, apperr.Validation("attachment %s does not exist", req.AttachmentID)
		}
	}

	if senderName == "" && s.identity != nil {
		name, err := s.identity.DisplayName(ctx, senderID)
		if err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldUserID, senderID).Msg("display name lookup failed")
		} else {
			senderName = name
		}
	}

	if req.ReplyToID != nil {
		parent, err := s.messages.Get(ctx, *req.ReplyToID)
		if err != nil || parent.RoomID != roomID {
			return nil, apperr.Validation("reply target not found in room")
		}
	}

	body, err := domain.EncodeBody(&domain.TextBody{
		Content:      req.Content,
		AttachmentID: req.AttachmentID,
	})
	if err != nil {
		return nil, apperr.Internal("failed to encode message body", err)
	}

	msg := &domain.Message{
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Type:       domain.MessageText,
		Body:       body,
		ReplyToID:  req.ReplyToID,
	}
	return s.sender.Send(ctx, msg)
}

// History returns a newest-first page of room messages. Cursor pages
// are immutable and go through the Redis cache with singleflight
// collapse; the head page is always read from the store. Hidden
// messages are filtered per caller, and attachment references are
// resolved to URLs after filtering.
func (s *messageService) History(ctx context.Context, roomID, userID string, beforeID int64, limit int) (*domain.HistoryResponse, error) {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}

	page, err := s.loadPage(ctx, roomID, beforeID, limit)
	if err != nil {
		return nil, apperr.Internal("failed to load history", err)
	}

	visible, err := s.filterHidden(ctx, userID, page.Messages)
	if err != nil {
		return nil, apperr.Internal("failed to apply hide overlay", err)
	}
	s.resolveAttachments(ctx, visible)

	return &domain.HistoryResponse{
		Messages:   visible,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}, nil
}

func (s *messageService) loadPage(ctx context.Context, roomID string, beforeID int64, limit int) (*cache.PageResult, error) {
	// Head pages change on every send and are never cached.
	if beforeID == 0 || s.cache == nil {
		msgs, next, more, err := s.messages.ListByRoom(ctx, roomID, beforeID, limit)
		if err != nil {
			return nil, err
		}
		return &cache.PageResult{Messages: msgs, NextCursor: next, HasMore: more}, nil
	}

	l := log.Ctx(ctx)
	key := s.cache.BuildKey(roomID, beforeID, limit)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("history cache read failed")
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		msgs, next, more, err := s.messages.ListByRoom(ctx, roomID, beforeID, limit)
		if err != nil {
			return nil, err
		}
		page := &cache.PageResult{Messages: msgs, NextCursor: next, HasMore: more}
		if err := s.cache.Set(ctx, key, page, s.opts.CacheTTL); err != nil {
			l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("history cache write failed")
		}
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*cache.PageResult), nil
}

func (s *messageService) filterHidden(ctx context.Context, userID string, msgs []domain.Message) ([]domain.Message, error) {
	if len(msgs) == 0 {
		return []domain.Message{}, nil
	}

	ids := make([]int64, len(msgs))
	for i := range msgs {
		ids[i] = msgs[i].ID
	}
	hidden, err := s.hides.HiddenIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.Message, 0, len(msgs))
	for i := range msgs {
		if !hidden[msgs[i].ID] {
			visible = append(visible, msgs[i])
		}
	}
	return visible, nil
}

// resolveAttachments fills AttachmentURL on TEXT bodies that carry an
// asset id. Resolution failures degrade to the bare id.
func (s *messageService) resolveAttachments(ctx context.Context, msgs []domain.Message) {
	if s.assets == nil {
		return
	}
	l := log.Ctx(ctx)

	for i := range msgs {
		if msgs[i].Type != domain.MessageText {
			continue
		}
		body, err := msgs[i].DecodeText()
		if err != nil || body.AttachmentID == "" {
			continue
		}
		url, err := s.assets.GetURL(ctx, body.AttachmentID, s.opts.AssetExpiry)
		if err != nil {
			l.Warn().Err(err).Int64(log.FieldMessageID, msgs[i].ID).Msg("attachment url resolution failed")
			continue
		}
		body.AttachmentURL = url
		if raw, err := domain.EncodeBody(body); err == nil {
			msgs[i].Body = raw
		}
	}
}

// Delete soft-deletes a message. Allowed for the sender and for
// moderators.
func (s *messageService) Delete(ctx context.Context, roomID string, messageID int64, actorID string) error {
	m, err := activeMembership(ctx, s.rooms, roomID, actorID)
	if err != nil {
		return err
	}

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return apperr.NotFound("message %d not found", messageID)
		}
		return apperr.Internal("failed to load message", err)
	}
	if msg.RoomID != roomID {
		return apperr.NotFound("message %d not found", messageID)
	}
	if msg.SenderID != actorID && !m.CanModerate() {
		return apperr.Authorization("only the sender or a moderator may delete a message")
	}

	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return apperr.NotFound("message %d not found", messageID)
		}
		return apperr.Internal("failed to delete message", err)
	}
	audit.LogWithTarget(ctx, audit.ActionDeleteMsg, actorID, roomID, "message deleted")
	return nil
}

// Hide adds the message to the caller's personal hide overlay.
func (s *messageService) Hide(ctx context.Context, roomID string, messageID int64, userID string) error {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return err
	}
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return apperr.NotFound("message %d not found", messageID)
		}
		return apperr.Internal("failed to load message", err)
	}
	if msg.RoomID != roomID {
		return apperr.NotFound("message %d not found", messageID)
	}

	if err := s.hides.Hide(ctx, messageID, userID); err != nil {
		return apperr.Internal("failed to hide message", err)
	}
	return nil
}

// Unhide removes the message from the caller's hide overlay.
func (s *messageService) Unhide(ctx context.Context, roomID string, messageID int64, userID string) error {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return err
	}
	if err := s.hides.Unhide(ctx, messageID, userID); err != nil {
		return apperr.Internal("failed to unhide message", err)
	}
	return nil
}
