package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageturn/bookclub-chat/internal/domain"
)

// GormScheduleRepository implements ScheduleRepository using GORM.
type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

func (r *GormScheduleRepository) Create(ctx context.Context, s *domain.Schedule) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	model := &domain.ScheduleModel{
		ID:          s.ID,
		RoomID:      s.RoomID,
		CreatorID:   s.CreatorID,
		Title:       s.Title,
		Description: s.Description,
		StartsAt:    s.StartsAt,
		EndsAt:      s.EndsAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	s.CreatedAt = model.CreatedAt
	s.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormScheduleRepository) Get(ctx context.Context, roomID, id string) (*domain.Schedule, error) {
	var model domain.ScheduleModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND room_id = ? AND deleted_at IS NULL", id, roomID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormScheduleRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Schedule, error) {
	var models []domain.ScheduleModel
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND deleted_at IS NULL", roomID).
		Order("starts_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	items := make([]domain.Schedule, len(models))
	for i, m := range models {
		items[i] = *m.ToDomain()
	}
	return items, nil
}

func (r *GormScheduleRepository) Update(ctx context.Context, s *domain.Schedule) error {
	result := r.db.WithContext(ctx).Model(&domain.ScheduleModel{}).
		Where("id = ? AND room_id = ? AND deleted_at IS NULL", s.ID, s.RoomID).
		Updates(map[string]interface{}{
			"title":       s.Title,
			"description": s.Description,
			"starts_at":   s.StartsAt,
			"ends_at":     s.EndsAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *GormScheduleRepository) SoftDelete(ctx context.Context, roomID, id string) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&domain.ScheduleModel{}).
		Where("id = ? AND room_id = ? AND deleted_at IS NULL", id, roomID).
		Update("deleted_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *GormScheduleRepository) AddParticipant(ctx context.Context, scheduleID, userID string, at time.Time) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ScheduleParticipantModel{}).
		Where("schedule_id = ? AND user_id = ?", scheduleID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyParticipant
	}

	return r.db.WithContext(ctx).Create(&domain.ScheduleParticipantModel{
		ScheduleID: scheduleID,
		UserID:     userID,
		JoinedAt:   at,
	}).Error
}

func (r *GormScheduleRepository) ListParticipants(ctx context.Context, scheduleID string) ([]domain.ScheduleParticipant, error) {
	var models []domain.ScheduleParticipantModel
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("joined_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	participants := make([]domain.ScheduleParticipant, len(models))
	for i, m := range models {
		participants[i] = domain.ScheduleParticipant{
			ScheduleID: m.ScheduleID,
			UserID:     m.UserID,
			JoinedAt:   m.JoinedAt,
		}
	}
	return participants, nil
}

// GormCalendarRepository implements CalendarRepository using GORM.
type GormCalendarRepository struct {
	db *gorm.DB
}

func NewGormCalendarRepository(db *gorm.DB) *GormCalendarRepository {
	return &GormCalendarRepository{db: db}
}

// GetOrCreate returns the calendar for (kind, owner), creating it on
// first use.
func (r *GormCalendarRepository) GetOrCreate(ctx context.Context, kind domain.CalendarKind, ownerID string) (*domain.Calendar, error) {
	var model domain.CalendarModel
	err := r.db.WithContext(ctx).
		Where("kind = ? AND owner_id = ?", string(kind), ownerID).
		First(&model).Error
	if err == nil {
		return &domain.Calendar{
			ID:        model.ID,
			Kind:      domain.CalendarKind(model.Kind),
			OwnerID:   model.OwnerID,
			CreatedAt: model.CreatedAt,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	model = domain.CalendarModel{
		ID:      uuid.New().String(),
		Kind:    string(kind),
		OwnerID: ownerID,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}

	return &domain.Calendar{
		ID:        model.ID,
		Kind:      domain.CalendarKind(model.Kind),
		OwnerID:   model.OwnerID,
		CreatedAt: model.CreatedAt,
	}, nil
}

func (r *GormCalendarRepository) CreateEvent(ctx context.Context, e *domain.CalendarEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	model := &domain.CalendarEventModel{
		ID:         e.ID,
		CalendarID: e.CalendarID,
		ScheduleID: e.ScheduleID,
		Title:      e.Title,
		StartsAt:   e.StartsAt,
		EndsAt:     e.EndsAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	e.CreatedAt = model.CreatedAt
	return nil
}

// UpdateEventsBySchedule keeps every calendar copy (room + personal)
// in sync when a schedule changes.
func (r *GormCalendarRepository) UpdateEventsBySchedule(ctx context.Context, scheduleID, title string, startsAt, endsAt time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.CalendarEventModel{}).
		Where("schedule_id = ?", scheduleID).
		Updates(map[string]interface{}{
			"title":     title,
			"starts_at": startsAt,
			"ends_at":   endsAt,
		}).Error
}

func (r *GormCalendarRepository) DeleteEventsBySchedule(ctx context.Context, scheduleID string) error {
	return r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Delete(&domain.CalendarEventModel{}).Error
}
