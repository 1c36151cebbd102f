package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/bus"
	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/internal/pipeline"
	"github.com/pageturn/bookclub-chat/internal/repository"
)

type pollService struct {
	messages repository.MessageRepository
	votes    repository.VoteRepository
	rooms    repository.RoomRepository
	sender   pipeline.Sender
	events   *bus.EventPublisher
}

func NewPollService(
	messages repository.MessageRepository,
	votes repository.VoteRepository,
	rooms repository.RoomRepository,
	sender pipeline.Sender,
	events *bus.EventPublisher,
) PollService {
	return &pollService{
		messages: messages,
		votes:    votes,
		rooms:    rooms,
		sender:   sender,
		events:   events,
	}
}

// Create validates and serializes the poll into a POLL message through
// the pipeline. The persisted message's id becomes the poll id.
func (s *pollService) Create(ctx context.Context, roomID, actorID, actorName string, req *domain.CreatePollRequest) (*domain.PollResponse, error) {
	room, err := activeRoom(ctx, s.rooms, roomID)
	if err != nil {
		return nil, err
	}
	m, err := activeMembership(ctx, s.rooms, roomID, actorID)
	if err != nil {
		return nil, err
	}
	if !canCreateContent(room, m) {
		return nil, apperr.Authorization("only moderators may create polls in this room")
	}

	if req.Question == "" {
		return nil, apperr.Validation("poll question is required")
	}
	if !req.ClosesAt.After(time.Now().UTC()) {
		return nil, apperr.Validation("poll close time must be in the future")
	}

	options := make([]domain.PollOption, 0, len(req.Options))
	for _, label := range req.Options {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, apperr.Validation("poll options cannot be blank")
		}
		options = append(options, domain.PollOption{
			ID:    fmt.Sprintf("opt_%d", len(options)+1),
			Label: label,
		})
	}
	if len(options) < 2 {
		return nil, apperr.Validation("a poll needs at least two options")
	}

	pollBody := domain.PollBody{
		Question:       req.Question,
		Description:    req.Description,
		MultipleChoice: req.MultipleChoice,
		ClosesAt:       req.ClosesAt.UTC(),
		Options:        options,
	}
	body, err := domain.EncodeBody(&pollBody)
	if err != nil {
		return nil, apperr.Internal("failed to encode poll body", err)
	}

	msg, err := s.sender.Send(ctx, &domain.Message{
		RoomID:     roomID,
		SenderID:   actorID,
		SenderName: actorName,
		Type:       domain.MessagePoll,
		Body:       body,
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishEvent(ctx, bus.ActionPollCreate, roomID, actorID, map[string]interface{}{
		"poll_id":  msg.ID,
		"question": pollBody.Question,
	}); err != nil {
		return nil, apperr.Internal("failed to publish poll event", err)
	}

	return &domain.PollResponse{
		PollID:    msg.ID,
		RoomID:    roomID,
		CreatorID: actorID,
		PollBody:  pollBody,
		CreatedAt: msg.CreatedAt,
	}, nil
}

func (s *pollService) Get(ctx context.Context, roomID, userID string, pollID int64) (*domain.PollResponse, error) {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}
	msg, body, err := s.loadPoll(ctx, roomID, pollID)
	if err != nil {
		return nil, err
	}
	return &domain.PollResponse{
		PollID:    msg.ID,
		RoomID:    msg.RoomID,
		CreatorID: msg.SenderID,
		PollBody:  *body,
		CreatedAt: msg.CreatedAt,
	}, nil
}

// Vote records or replaces the caller's selection and returns the live
// tally.
func (s *pollService) Vote(ctx context.Context, roomID, userID string, pollID int64, req *domain.VoteRequest) (*domain.VoteResponse, error) {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}

	_, body, err := s.loadPoll(ctx, roomID, pollID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if body.Closed(now) {
		return nil, apperr.Conflict("poll %d is closed", pollID)
	}
	if len(req.OptionIDs) == 0 {
		return nil, apperr.Validation("at least one option must be selected")
	}
	if !body.MultipleChoice && len(req.OptionIDs) > 1 {
		return nil, apperr.Validation("poll %d allows a single choice", pollID)
	}
	seen := map[string]bool{}
	for _, id := range req.OptionIDs {
		if !body.HasOption(id) {
			return nil, apperr.Validation("unknown poll option: %s", id)
		}
		if seen[id] {
			return nil, apperr.Validation("duplicate poll option: %s", id)
		}
		seen[id] = true
	}

	if err := s.votes.Upsert(ctx, &domain.Vote{
		PollMessageID: pollID,
		UserID:        userID,
		OptionIDs:     req.OptionIDs,
		VotedAt:       now,
	}); err != nil {
		return nil, apperr.Internal("failed to record vote", err)
	}

	tally, _, err := s.tally(ctx, pollID, body)
	if err != nil {
		return nil, apperr.Internal("failed to tally poll", err)
	}

	if err := s.events.PublishEvent(ctx, bus.ActionPollVote, roomID, userID, map[string]interface{}{
		"poll_id":    pollID,
		"option_ids": req.OptionIDs,
	}); err != nil {
		return nil, apperr.Internal("failed to publish vote event", err)
	}

	return &domain.VoteResponse{PollID: pollID, Tally: tally}, nil
}

// Result returns the final tally. Refused while the poll is still open.
func (s *pollService) Result(ctx context.Context, roomID, userID string, pollID int64) (*domain.PollResultResponse, error) {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}

	_, body, err := s.loadPoll(ctx, roomID, pollID)
	if err != nil {
		return nil, err
	}
	if !body.Closed(time.Now().UTC()) {
		return nil, apperr.Conflict("poll %d has not closed yet", pollID)
	}

	tally, voters, err := s.tally(ctx, pollID, body)
	if err != nil {
		return nil, apperr.Internal("failed to tally poll", err)
	}

	return &domain.PollResultResponse{
		PollID:     pollID,
		Question:   body.Question,
		Tally:      tally,
		VoterCount: voters,
		ClosedAt:   body.ClosesAt,
	}, nil
}

func (s *pollService) loadPoll(ctx context.Context, roomID string, pollID int64) (*domain.Message, *domain.PollBody, error) {
	msg, err := s.messages.Get(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return nil, nil, apperr.NotFound("poll %d not found", pollID)
		}
		return nil, nil, apperr.Internal("failed to load poll", err)
	}
	if msg.RoomID != roomID || msg.Type != domain.MessagePoll {
		return nil, nil, apperr.NotFound("poll %d not found", pollID)
	}
	body, err := msg.DecodePoll()
	if err != nil {
		return nil, nil, apperr.Internal("failed to decode poll", err)
	}
	return msg, body, nil
}

// tally buckets ledger rows per option id. Every option appears, zero
// votes included.
func (s *pollService) tally(ctx context.Context, pollID int64, body *domain.PollBody) (map[string]int, int, error) {
	votes, err := s.votes.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, 0, err
	}

	tally := make(map[string]int, len(body.Options))
	for _, opt := range body.Options {
		tally[opt.ID] = 0
	}
	for _, v := range votes {
		for _, id := range v.OptionIDs {
			if _, ok := tally[id]; ok {
				tally[id]++
			}
		}
	}
	return tally, len(votes), nil
}
