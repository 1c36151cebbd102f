package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/pkg/log"
)

// GormRoomRepository implements RoomRepository using GORM.
type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// CreateWithMembers creates the room and all initial memberships in one
// transaction.
func (r *GormRoomRepository) CreateWithMembers(ctx context.Context, room *domain.Room, members []domain.Membership) error {
	l := log.Ctx(ctx)

	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	room.Active = true

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := domain.RoomToModel(room)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		room.CreatedAt = model.CreatedAt
		room.UpdatedAt = model.UpdatedAt

		for i := range members {
			members[i].RoomID = room.ID
			if err := tx.Create(domain.MembershipToModel(&members[i])).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.Error().Err(err).Msg("failed to create room with members")
		return err
	}

	l.Debug().Str(log.FieldRoomID, room.ID).Int("members", len(members)).Msg("room created")
	return nil
}

// GetRoom retrieves a room by id. Inactive (destroyed) rooms are still
// returned; callers decide whether active matters.
func (r *GormRoomRepository) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	var model domain.RoomModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetMembership retrieves the membership row for (room, user),
// active or not.
func (r *GormRoomRepository) GetMembership(ctx context.Context, roomID, userID string) (*domain.Membership, error) {
	var model domain.MembershipModel
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListActiveMembers returns every active membership of a room.
func (r *GormRoomRepository) ListActiveMembers(ctx context.Context, roomID string) ([]domain.Membership, error) {
	var models []domain.MembershipModel
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND active = ?", roomID, true).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	members := make([]domain.Membership, len(models))
	for i, m := range models {
		members[i] = *m.ToDomain()
	}
	return members, nil
}

// ListRoomsByUser returns the caller's active rooms, pinned first
// (by pin order), then newest-joined, with matching memberships.
func (r *GormRoomRepository) ListRoomsByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Room, []domain.Membership, int, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	base := r.db.WithContext(ctx).Model(&domain.MembershipModel{}).
		Joins("JOIN rooms ON rooms.id = room_members.room_id").
		Where("room_members.user_id = ? AND room_members.active = ? AND rooms.active = ?", userID, true, true)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to count user rooms")
		return nil, nil, 0, err
	}

	var memberModels []domain.MembershipModel
	err := base.
		Order("room_members.pinned_at IS NULL, room_members.pin_order DESC, room_members.joined_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&memberModels).Error
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to list user rooms")
		return nil, nil, 0, err
	}

	rooms := make([]domain.Room, 0, len(memberModels))
	members := make([]domain.Membership, 0, len(memberModels))
	for _, mm := range memberModels {
		var rm domain.RoomModel
		if err := r.db.WithContext(ctx).First(&rm, "id = ?", mm.RoomID).Error; err != nil {
			return nil, nil, 0, err
		}
		rooms = append(rooms, *rm.ToDomain())
		members = append(members, *mm.ToDomain())
	}

	return rooms, members, int(total), nil
}

// UpdateMembership persists the full membership row.
func (r *GormRoomRepository) UpdateMembership(ctx context.Context, m *domain.Membership) error {
	result := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", m.RoomID, m.UserID).
		Save(domain.MembershipToModel(m))
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// UpsertMembership creates the (room, user) row or replaces the
// existing one. Used for re-joins: the old inactive row is refreshed
// in place.
func (r *GormRoomRepository) UpsertMembership(ctx context.Context, m *domain.Membership) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(domain.MembershipToModel(m)).Error
}

// Destroy flips the room inactive and deactivates every membership in
// one transaction, so no read ever observes a half-destroyed room.
func (r *GormRoomRepository) Destroy(ctx context.Context, roomID string) error {
	l := log.Ctx(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.RoomModel{}).
			Where("id = ? AND active = ?", roomID, true).
			Updates(map[string]interface{}{
				"active":     false,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRoomNotFound
		}

		return tx.Model(&domain.MembershipModel{}).
			Where("room_id = ? AND active = ?", roomID, true).
			Update("active", false).Error
	})
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) {
			l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to destroy room")
		}
		return err
	}

	l.Debug().Str(log.FieldRoomID, roomID).Msg("room destroyed")
	return nil
}
