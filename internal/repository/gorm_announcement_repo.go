package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageturn/bookclub-chat/internal/domain"
)

// GormAnnouncementRepository implements AnnouncementRepository using GORM.
type GormAnnouncementRepository struct {
	db *gorm.DB
}

func NewGormAnnouncementRepository(db *gorm.DB) *GormAnnouncementRepository {
	return &GormAnnouncementRepository{db: db}
}

func (r *GormAnnouncementRepository) Create(ctx context.Context, a *domain.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	model := &domain.AnnouncementModel{
		ID:       a.ID,
		RoomID:   a.RoomID,
		AuthorID: a.AuthorID,
		Title:    a.Title,
		Content:  a.Content,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	a.CreatedAt = model.CreatedAt
	a.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormAnnouncementRepository) Get(ctx context.Context, roomID, id string) (*domain.Announcement, error) {
	var model domain.AnnouncementModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND room_id = ? AND deleted_at IS NULL", id, roomID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormAnnouncementRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Announcement, error) {
	var models []domain.AnnouncementModel
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND deleted_at IS NULL", roomID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	items := make([]domain.Announcement, len(models))
	for i, m := range models {
		items[i] = *m.ToDomain()
	}
	return items, nil
}

func (r *GormAnnouncementRepository) Update(ctx context.Context, a *domain.Announcement) error {
	result := r.db.WithContext(ctx).Model(&domain.AnnouncementModel{}).
		Where("id = ? AND room_id = ? AND deleted_at IS NULL", a.ID, a.RoomID).
		Updates(map[string]interface{}{
			"title":   a.Title,
			"content": a.Content,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

func (r *GormAnnouncementRepository) SoftDelete(ctx context.Context, roomID, id string) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&domain.AnnouncementModel{}).
		Where("id = ? AND room_id = ? AND deleted_at IS NULL", id, roomID).
		Update("deleted_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}
