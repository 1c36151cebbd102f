package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageturn/bookclub-chat/internal/domain"
)

// GormHideRepository implements HideRepository using GORM.
type GormHideRepository struct {
	db *gorm.DB
}

func NewGormHideRepository(db *gorm.DB) *GormHideRepository {
	return &GormHideRepository{db: db}
}

// Hide records the overlay; hiding an already-hidden message refreshes
// the timestamp and clears any unhide.
func (r *GormHideRepository) Hide(ctx context.Context, messageID int64, userID string) error {
	now := time.Now().UTC()
	model := &domain.HideModel{
		MessageID: messageID,
		UserID:    userID,
		HiddenAt:  now,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"hidden_at", "unhidden_at"}),
	}).Create(model).Error
}

// Unhide clears the overlay; a no-op when nothing is hidden.
func (r *GormHideRepository) Unhide(ctx context.Context, messageID int64, userID string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.HideModel{}).
		Where("message_id = ? AND user_id = ? AND unhidden_at IS NULL", messageID, userID).
		Update("unhidden_at", now).Error
}

// HiddenIDs returns which of the candidate message ids are currently
// hidden for the user.
func (r *GormHideRepository) HiddenIDs(ctx context.Context, userID string, candidates []int64) (map[int64]bool, error) {
	hidden := make(map[int64]bool)
	if len(candidates) == 0 {
		return hidden, nil
	}

	var models []domain.HideModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id IN ? AND unhidden_at IS NULL", userID, candidates).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	for _, m := range models {
		hidden[m.MessageID] = true
	}
	return hidden, nil
}
