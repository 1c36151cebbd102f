package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/pkg/database"
)

// GormVoteRepository implements VoteRepository using GORM.
type GormVoteRepository struct {
	db *gorm.DB
}

func NewGormVoteRepository(db *gorm.DB) *GormVoteRepository {
	return &GormVoteRepository{db: db}
}

// Upsert writes the user's current selection, replacing any previous
// vote on the same poll. Exactly one row per (poll, user) ever exists.
func (r *GormVoteRepository) Upsert(ctx context.Context, vote *domain.Vote) error {
	if vote.VotedAt.IsZero() {
		vote.VotedAt = time.Now().UTC()
	}

	model := &domain.VoteModel{
		PollMessageID: vote.PollMessageID,
		UserID:        vote.UserID,
		OptionIDs:     database.StringArray(vote.OptionIDs),
		VotedAt:       vote.VotedAt,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"option_ids", "voted_at"}),
	}).Create(model).Error
}

// ListByPoll returns every current vote on a poll, the tally input.
func (r *GormVoteRepository) ListByPoll(ctx context.Context, pollMessageID int64) ([]domain.Vote, error) {
	var models []domain.VoteModel
	err := r.db.WithContext(ctx).
		Where("poll_message_id = ?", pollMessageID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	votes := make([]domain.Vote, len(models))
	for i, m := range models {
		votes[i] = *m.ToDomain()
	}
	return votes, nil
}
