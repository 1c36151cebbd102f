package cache

import (
	"context"
	"errors"
	"time"

	"github.com/pageturn/bookclub-chat/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// PageResult is a cached history page, stored before any per-user
// filtering so one entry serves every reader.
type PageResult struct {
	Messages   []domain.Message `json:"messages"`
	NextCursor int64            `json:"next_cursor"`
	HasMore    bool             `json:"has_more"`
}

// HistoryCache caches immutable history pages (cursor pages only; the
// live head page is always read from the store).
type HistoryCache interface {
	BuildKey(roomID string, beforeID int64, limit int) string
	Get(ctx context.Context, key string) (*PageResult, error)
	Set(ctx context.Context, key string, result *PageResult, ttl time.Duration) error
	Close() error
}
