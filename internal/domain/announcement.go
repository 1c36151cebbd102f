package domain

import (
	"time"
)

// Announcement is a dedicated record, not a message; mutations emit a
// NOTICE message into the room feed as a side effect.
type Announcement struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateAnnouncementRequest creates an announcement in a room.
type CreateAnnouncementRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=200"`
	Content string `json:"content" binding:"required"`
}

// UpdateAnnouncementRequest updates title and/or content.
type UpdateAnnouncementRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}
