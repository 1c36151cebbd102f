package domain

import (
	"time"
)

// Vote is one user's current selection on a poll, keyed by
// (poll message id, user id). Re-voting overwrites the row.
type Vote struct {
	PollMessageID int64     `json:"poll_message_id"`
	UserID        string    `json:"user_id"`
	OptionIDs     []string  `json:"option_ids"`
	VotedAt       time.Time `json:"voted_at"`
}

// CreatePollRequest creates a poll as a POLL-typed message.
type CreatePollRequest struct {
	Question       string    `json:"question" binding:"required,min=1,max=500"`
	Description    string    `json:"description"`
	MultipleChoice bool      `json:"multiple_choice"`
	ClosesAt       time.Time `json:"closes_at" binding:"required"`
	Options        []string  `json:"options" binding:"required"`
}

// VoteRequest submits or replaces the caller's selection.
type VoteRequest struct {
	OptionIDs []string `json:"option_ids" binding:"required"`
}

// PollResponse is a created or fetched poll definition.
type PollResponse struct {
	PollID    int64     `json:"poll_id"`
	RoomID    string    `json:"room_id"`
	CreatorID string    `json:"creator_id"`
	PollBody
	CreatedAt time.Time `json:"created_at"`
}

// VoteResponse acknowledges a vote and embeds the live tally.
type VoteResponse struct {
	PollID int64          `json:"poll_id"`
	Tally  map[string]int `json:"tally"`
}

// PollResultResponse is the final tally, available once the poll closed.
type PollResultResponse struct {
	PollID     int64          `json:"poll_id"`
	Question   string         `json:"question"`
	Tally      map[string]int `json:"tally"`
	VoterCount int            `json:"voter_count"`
	ClosedAt   time.Time      `json:"closed_at"`
}

// Hide is a per-user moderation overlay on a message; the underlying
// message is never deleted by hiding.
type Hide struct {
	MessageID  int64      `json:"message_id"`
	UserID     string     `json:"user_id"`
	HiddenAt   time.Time  `json:"hidden_at"`
	UnhiddenAt *time.Time `json:"unhidden_at,omitempty"`
}
