package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/domain"
)

func scheduleRequest() *domain.CreateScheduleRequest {
	start := time.Now().UTC().Add(24 * time.Hour)
	return &domain.CreateScheduleRequest{
		Title:    "Chapter discussion",
		StartsAt: start,
		EndsAt:   start.Add(time.Hour),
	}
}

func (e *env) countCalendarEvents(t *testing.T, kind domain.CalendarKind, ownerID string) int {
	t.Helper()
	cal, err := e.calendarRepo.GetOrCreate(context.Background(), kind, ownerID)
	if err != nil {
		t.Fatalf("get calendar: %v", err)
	}
	var n int64
	if err := e.db.Table("calendar_events").Where("calendar_id = ?", cal.ID).Count(&n).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return int(n)
}

func TestScheduleCreateAuthorization(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	group := e.seedRoom(t, domain.ScopeGroup)
	if _, err := e.schedules.Create(ctx, group, "member", "Member", scheduleRequest()); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("group member create: got %v, want authorization error", err)
	}

	// Private rooms let any active member schedule.
	private := e.seedRoom(t, domain.ScopePrivate)
	if _, err := e.schedules.Create(ctx, private, "member", "Member", scheduleRequest()); err != nil {
		t.Errorf("private member create: %v", err)
	}
}

func TestScheduleCreateWritesCalendars(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	resp, err := e.schedules.Create(ctx, roomID, "manager", "Manager", scheduleRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(resp.Participants) != 1 || resp.Participants[0].UserID != "manager" {
		t.Errorf("creator not first participant: %+v", resp.Participants)
	}

	if n := e.countCalendarEvents(t, domain.CalendarRoom, roomID); n != 1 {
		t.Errorf("room calendar has %d events, want 1", n)
	}
	if n := e.countCalendarEvents(t, domain.CalendarPersonal, "manager"); n != 1 {
		t.Errorf("creator's personal calendar has %d events, want 1", n)
	}

	// The feed carries the side-effect message.
	msg := e.latestMessage(t, roomID)
	if msg == nil || msg.Type != domain.MessageText {
		t.Fatalf("newest message = %+v", msg)
	}
	body, err := msg.DecodeText()
	if err != nil || body.Action != "schedule.create" {
		t.Errorf("feed message body = %+v, err %v", body, err)
	}
}

func TestScheduleJoin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	resp, err := e.schedules.Create(ctx, roomID, "owner", "Owner", scheduleRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := e.schedules.Join(ctx, roomID, "member", resp.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if n := e.countCalendarEvents(t, domain.CalendarPersonal, "member"); n != 1 {
		t.Errorf("participant's personal calendar has %d events, want 1", n)
	}

	if err := e.schedules.Join(ctx, roomID, "member", resp.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("double join: got %v, want conflict", err)
	}
	if err := e.schedules.Join(ctx, roomID, "stranger", resp.ID); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("stranger join: got %v, want authorization error", err)
	}

	got, err := e.schedules.Get(ctx, roomID, "member", resp.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Participants) != 2 {
		t.Errorf("got %d participants, want 2", len(got.Participants))
	}
}

func TestScheduleUpdateSyncsCalendars(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	resp, err := e.schedules.Create(ctx, roomID, "owner", "Owner", scheduleRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A plain member cannot touch someone else's schedule.
	newTitle := "Moved"
	if _, err := e.schedules.Update(ctx, roomID, "member", "Member", resp.ID, &domain.UpdateScheduleRequest{Title: &newTitle}); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("member update: got %v, want authorization error", err)
	}

	updated, err := e.schedules.Update(ctx, roomID, "owner", "Owner", resp.ID, &domain.UpdateScheduleRequest{Title: &newTitle})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Moved" {
		t.Errorf("title = %s", updated.Title)
	}

	var title string
	if err := e.db.Table("calendar_events").Select("title").Where("schedule_id = ?", resp.ID).Limit(1).Scan(&title).Error; err != nil {
		t.Fatalf("read event: %v", err)
	}
	if title != "Moved" {
		t.Errorf("calendar event title = %q, want synced title", title)
	}
}

func TestScheduleDeleteRemovesEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	resp, err := e.schedules.Create(ctx, roomID, "owner", "Owner", scheduleRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := e.schedules.Join(ctx, roomID, "member", resp.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := e.schedules.Delete(ctx, roomID, "owner", "Owner", resp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := e.schedules.Get(ctx, roomID, "member", resp.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete: got %v, want not found", err)
	}

	var n int64
	if err := e.db.Table("calendar_events").Where("schedule_id = ?", resp.ID).Count(&n).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if n != 0 {
		t.Errorf("%d calendar events survived delete", n)
	}

	// The delete lands in the feed too.
	msg := e.latestMessage(t, roomID)
	if msg == nil || msg.Type != domain.MessageText {
		t.Fatalf("newest message = %+v", msg)
	}
	body, err := msg.DecodeText()
	if err != nil || body.Action != "schedule.delete" {
		t.Errorf("feed message body = %+v, err %v", body, err)
	}
}

func TestScheduleTimeValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	roomID := e.seedRoom(t, domain.ScopeGroup)

	start := time.Now().UTC().Add(time.Hour)
	_, err := e.schedules.Create(ctx, roomID, "owner", "Owner", &domain.CreateScheduleRequest{
		Title:    "Backwards",
		StartsAt: start,
		EndsAt:   start.Add(-time.Minute),
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("got %v, want validation error", err)
	}
}
