package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/bus"
	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/internal/pipeline"
	"github.com/pageturn/bookclub-chat/internal/repository"
	"github.com/pageturn/bookclub-chat/pkg/log"
)

// Body action tags on schedule side-effect messages.
const (
	scheduleActionCreate = "schedule.create"
	scheduleActionUpdate = "schedule.update"
	scheduleActionDelete = "schedule.delete"
)

type scheduleService struct {
	schedules repository.ScheduleRepository
	calendars repository.CalendarRepository
	rooms     repository.RoomRepository
	sender    pipeline.Sender
	events    *bus.EventPublisher
}

func NewScheduleService(
	schedules repository.ScheduleRepository,
	calendars repository.CalendarRepository,
	rooms repository.RoomRepository,
	sender pipeline.Sender,
	events *bus.EventPublisher,
) ScheduleService {
	return &scheduleService{
		schedules: schedules,
		calendars: calendars,
		rooms:     rooms,
		sender:    sender,
		events:    events,
	}
}

// Create writes the schedule row, its room-calendar event and the
// creator's participation, then emits the feed message and domain
// event. Moderators only, except in PRIVATE rooms where any active
// member may create.
func (s *scheduleService) Create(ctx context.Context, roomID, actorID, actorName string, req *domain.CreateScheduleRequest) (*domain.ScheduleResponse, error) {
	room, err := activeRoom(ctx, s.rooms, roomID)
	if err != nil {
		return nil, err
	}
	m, err := activeMembership(ctx, s.rooms, roomID, actorID)
	if err != nil {
		return nil, err
	}
	if !canCreateContent(room, m) {
		return nil, apperr.Authorization("only moderators may create schedules in this room")
	}
	if req.Title == "" {
		return nil, apperr.Validation("schedule title is required")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, apperr.Validation("schedule must end after it starts")
	}

	now := time.Now().UTC()
	sched := &domain.Schedule{
		RoomID:      roomID,
		CreatorID:   actorID,
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}
	if err := s.schedules.Create(ctx, sched); err != nil {
		return nil, apperr.Internal("failed to create schedule", err)
	}

	if err := s.writeCalendarEvent(ctx, domain.CalendarRoom, roomID, sched); err != nil {
		return nil, err
	}
	if err := s.schedules.AddParticipant(ctx, sched.ID, actorID, now); err != nil {
		return nil, apperr.Internal("failed to add schedule creator", err)
	}
	if err := s.writeCalendarEvent(ctx, domain.CalendarPersonal, actorID, sched); err != nil {
		return nil, err
	}

	if err := s.events.PublishEvent(ctx, bus.ActionSchedCreate, roomID, actorID, sched); err != nil {
		return nil, apperr.Internal("failed to publish schedule event", err)
	}
	s.emitFeedMessage(ctx, sched, actorID, actorName, scheduleActionCreate)

	return &domain.ScheduleResponse{
		Schedule: *sched,
		Participants: []domain.ScheduleParticipant{{
			ScheduleID: sched.ID,
			UserID:     actorID,
			JoinedAt:   now,
		}},
	}, nil
}

func (s *scheduleService) List(ctx context.Context, roomID, userID string) ([]domain.ScheduleResponse, error) {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}

	scheds, err := s.schedules.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, apperr.Internal("failed to list schedules", err)
	}

	resp := make([]domain.ScheduleResponse, 0, len(scheds))
	for i := range scheds {
		participants, err := s.schedules.ListParticipants(ctx, scheds[i].ID)
		if err != nil {
			return nil, apperr.Internal("failed to list schedule participants", err)
		}
		resp = append(resp, domain.ScheduleResponse{
			Schedule:     scheds[i],
			Participants: participants,
		})
	}
	return resp, nil
}

func (s *scheduleService) Get(ctx context.Context, roomID, userID, id string) (*domain.ScheduleResponse, error) {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}

	sched, err := s.loadSchedule(ctx, roomID, id)
	if err != nil {
		return nil, err
	}
	participants, err := s.schedules.ListParticipants(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to list schedule participants", err)
	}
	return &domain.ScheduleResponse{Schedule: *sched, Participants: participants}, nil
}

// Update changes schedule fields and keeps every linked calendar event
// in sync. Creator or moderator.
func (s *scheduleService) Update(ctx context.Context, roomID, actorID, actorName, id string, req *domain.UpdateScheduleRequest) (*domain.Schedule, error) {
	m, err := activeMembership(ctx, s.rooms, roomID, actorID)
	if err != nil {
		return nil, err
	}

	sched, err := s.loadSchedule(ctx, roomID, id)
	if err != nil {
		return nil, err
	}
	if sched.CreatorID != actorID && !m.CanModerate() {
		return nil, apperr.Authorization("only the creator or a moderator may update a schedule")
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, apperr.Validation("schedule title cannot be empty")
		}
		sched.Title = *req.Title
	}
	if req.Description != nil {
		sched.Description = *req.Description
	}
	if req.StartsAt != nil {
		sched.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		sched.EndsAt = *req.EndsAt
	}
	if !sched.EndsAt.After(sched.StartsAt) {
		return nil, apperr.Validation("schedule must end after it starts")
	}

	if err := s.schedules.Update(ctx, sched); err != nil {
		return nil, apperr.Internal("failed to update schedule", err)
	}
	if err := s.calendars.UpdateEventsBySchedule(ctx, sched.ID, sched.Title, sched.StartsAt, sched.EndsAt); err != nil {
		return nil, apperr.Internal("failed to update calendar events", err)
	}

	if err := s.events.PublishEvent(ctx, bus.ActionSchedUpdate, roomID, actorID, sched); err != nil {
		return nil, apperr.Internal("failed to publish schedule event", err)
	}
	s.emitFeedMessage(ctx, sched, actorID, actorName, scheduleActionUpdate)

	return sched, nil
}

// Delete soft-deletes the schedule and removes every linked calendar
// event. Creator or moderator.
func (s *scheduleService) Delete(ctx context.Context, roomID, actorID, actorName, id string) error {
	m, err := activeMembership(ctx, s.rooms, roomID, actorID)
	if err != nil {
		return err
	}

	sched, err := s.loadSchedule(ctx, roomID, id)
	if err != nil {
		return err
	}
	if sched.CreatorID != actorID && !m.CanModerate() {
		return apperr.Authorization("only the creator or a moderator may delete a schedule")
	}

	if err := s.schedules.SoftDelete(ctx, roomID, id); err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return apperr.NotFound("schedule %s not found", id)
		}
		return apperr.Internal("failed to delete schedule", err)
	}
	if err := s.calendars.DeleteEventsBySchedule(ctx, id); err != nil {
		return apperr.Internal("failed to delete calendar events", err)
	}

	if err := s.events.PublishEvent(ctx, bus.ActionSchedDelete, roomID, actorID, sched); err != nil {
		return apperr.Internal("failed to publish schedule event", err)
	}
	s.emitFeedMessage(ctx, sched, actorID, actorName, scheduleActionDelete)
	return nil
}

// Join adds the caller as a participant and copies the event onto
// their personal calendar. Joining twice is a conflict.
func (s *scheduleService) Join(ctx context.Context, roomID, userID, id string) error {
	if _, err := activeMembership(ctx, s.rooms, roomID, userID); err != nil {
		return err
	}

	sched, err := s.loadSchedule(ctx, roomID, id)
	if err != nil {
		return err
	}

	if err := s.schedules.AddParticipant(ctx, id, userID, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrAlreadyParticipant) {
			return apperr.Conflict("already joined schedule %s", id)
		}
		return apperr.Internal("failed to join schedule", err)
	}
	if err := s.writeCalendarEvent(ctx, domain.CalendarPersonal, userID, sched); err != nil {
		return err
	}

	if err := s.events.PublishEvent(ctx, bus.ActionSchedJoin, roomID, userID, map[string]string{
		"schedule_id": id,
	}); err != nil {
		return apperr.Internal("failed to publish schedule event", err)
	}
	return nil
}

func (s *scheduleService) loadSchedule(ctx context.Context, roomID, id string) (*domain.Schedule, error) {
	sched, err := s.schedules.Get(ctx, roomID, id)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return nil, apperr.NotFound("schedule %s not found", id)
		}
		return nil, apperr.Internal("failed to load schedule", err)
	}
	return sched, nil
}

func (s *scheduleService) writeCalendarEvent(ctx context.Context, kind domain.CalendarKind, ownerID string, sched *domain.Schedule) error {
	cal, err := s.calendars.GetOrCreate(ctx, kind, ownerID)
	if err != nil {
		return apperr.Internal("failed to load calendar", err)
	}
	if err := s.calendars.CreateEvent(ctx, &domain.CalendarEvent{
		CalendarID: cal.ID,
		ScheduleID: sched.ID,
		Title:      sched.Title,
		StartsAt:   sched.StartsAt,
		EndsAt:     sched.EndsAt,
	}); err != nil {
		return apperr.Internal("failed to create calendar event", err)
	}
	return nil
}

// emitFeedMessage pushes the TEXT side-effect message into the feed.
// The schedule mutation already succeeded, so a failure is logged.
func (s *scheduleService) emitFeedMessage(ctx context.Context, sched *domain.Schedule, actorID, actorName, action string) {
	l := log.Ctx(ctx)

	body, err := domain.EncodeBody(&domain.TextBody{
		Content: fmt.Sprintf("%s (%s - %s)", sched.Title,
			sched.StartsAt.Format(time.RFC3339), sched.EndsAt.Format(time.RFC3339)),
		Action: action,
	})
	if err != nil {
		l.Error().Err(err).Str(log.FieldScheduleID, sched.ID).Msg("failed to encode schedule message body")
		return
	}

	if _, err := s.sender.Send(ctx, &domain.Message{
		RoomID:     sched.RoomID,
		SenderID:   actorID,
		SenderName: actorName,
		Type:       domain.MessageText,
		Body:       body,
	}); err != nil {
		l.Error().Err(err).Str(log.FieldScheduleID, sched.ID).Msg("failed to emit schedule message")
	}
}
