package domain

import (
	"encoding/json"
	"time"
)

// MessageType tags the variant carried in a message body.
type MessageType string

const (
	MessageText   MessageType = "TEXT"
	MessageNotice MessageType = "NOTICE"
	MessagePoll   MessageType = "POLL"
)

// Message is an immutable, ordered unit of room content and the frame
// delivered to live connections. ID is assigned by the store and defines
// the total order within a room; it is also the paging cursor and, for
// POLL messages, the poll identity.
type Message struct {
	ID         int64           `json:"id"`
	RoomID     string          `json:"room_id"`
	SenderID   string          `json:"sender_id"`
	SenderName string          `json:"sender_name,omitempty"`
	Type       MessageType     `json:"type"`
	Body       json.RawMessage `json:"body"`
	ReplyToID  *int64          `json:"reply_to_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	DeletedAt  *time.Time      `json:"deleted_at,omitempty"`
}

// SendMessageRequest is the ordinary send path payload.
type SendMessageRequest struct {
	Content      string `json:"content" binding:"required"`
	AttachmentID string `json:"attachment_id"`
	ReplyToID    *int64 `json:"reply_to_id"`
}

// HistoryResponse is a newest-first page of room messages.
type HistoryResponse struct {
	Messages   []Message `json:"messages"`
	NextCursor int64     `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
}
