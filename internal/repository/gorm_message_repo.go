package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Append persists a message. The autoincrement key defines the total
// order within a room; callers see the row before Append returns.
func (r *GormMessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	l := log.Ctx(ctx)

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	model := domain.MessageToModel(msg)
	model.ID = 0 // always server-assigned
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, msg.RoomID).Msg("failed to append message")
		return err
	}

	msg.ID = model.ID
	msg.CreatedAt = model.CreatedAt
	return nil
}

// SoftDelete marks a message deleted; history keeps the row addressable.
func (r *GormMessageRepository) SoftDelete(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&domain.MessageModel{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Get retrieves a message by id, excluding soft-deleted rows.
func (r *GormMessageRepository) Get(ctx context.Context, id int64) (*domain.Message, error) {
	var model domain.MessageModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByRoom returns a newest-first page. Queries limit+1 rows to
// decide hasMore; nextCursor is the smallest id in the page.
func (r *GormMessageRepository) ListByRoom(ctx context.Context, roomID string, beforeID int64, limit int) ([]domain.Message, int64, bool, error) {
	l := log.Ctx(ctx)

	if limit < 1 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Model(&domain.MessageModel{}).
		Where("room_id = ? AND deleted_at IS NULL", roomID)
	if beforeID > 0 {
		query = query.Where("id < ?", beforeID)
	}

	var models []domain.MessageModel
	if err := query.Order("id DESC").Limit(limit + 1).Find(&models).Error; err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to list messages")
		return nil, 0, false, err
	}

	hasMore := len(models) > limit
	if hasMore {
		models = models[:limit]
	}

	msgs := make([]domain.Message, len(models))
	for i, m := range models {
		msgs[i] = *m.ToDomain()
	}

	var nextCursor int64
	if hasMore && len(msgs) > 0 {
		nextCursor = msgs[len(msgs)-1].ID
	}

	return msgs, nextCursor, hasMore, nil
}

// LatestByRoom returns the newest visible message of a room, or nil
// when the room has none.
func (r *GormMessageRepository) LatestByRoom(ctx context.Context, roomID string) (*domain.Message, error) {
	var model domain.MessageModel
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND deleted_at IS NULL", roomID).
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
