package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message bodies form a tagged variant: Message.Type selects which of
// these structs Message.Body decodes into.

// TextBody is an ordinary chat message, optionally referencing an
// uploaded asset by id (never inline binary).
type TextBody struct {
	Content       string `json:"content"`
	AttachmentID  string `json:"attachment_id,omitempty"`
	AttachmentURL string `json:"attachment_url,omitempty"`
	Action        string `json:"action,omitempty"`
}

// NoticeBody is the side-effect frame emitted when an announcement
// changes, carrying a preview so the feed shows the change in-line.
type NoticeBody struct {
	AnnouncementID string `json:"announcement_id"`
	Title          string `json:"title"`
	Preview        string `json:"preview,omitempty"`
	Action         string `json:"action"`
}

// PollBody is a poll definition serialized into a POLL message. The
// containing message's id is the poll's identity; votes live in the
// vote ledger keyed by that id.
type PollBody struct {
	Question       string       `json:"question"`
	Description    string       `json:"description,omitempty"`
	MultipleChoice bool         `json:"multiple_choice"`
	ClosesAt       time.Time    `json:"closes_at"`
	Options        []PollOption `json:"options"`
}

// PollOption is a poll choice with a stable id like "opt_1".
type PollOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Closed reports whether the poll no longer accepts votes.
func (p *PollBody) Closed(now time.Time) bool {
	return !now.Before(p.ClosesAt)
}

// HasOption reports whether id names one of the poll's options.
func (p *PollBody) HasOption(id string) bool {
	for _, opt := range p.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// EncodeBody serializes a typed body for storage in a Message.
func EncodeBody(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message body: %w", err)
	}
	return data, nil
}

// DecodeText decodes the message body as a TextBody.
func (m *Message) DecodeText() (*TextBody, error) {
	if m.Type != MessageText {
		return nil, fmt.Errorf("message %d is %s, not TEXT", m.ID, m.Type)
	}
	var body TextBody
	if err := json.Unmarshal(m.Body, &body); err != nil {
		return nil, fmt.Errorf("decode text body of message %d: %w", m.ID, err)
	}
	return &body, nil
}

// DecodeNotice decodes the message body as a NoticeBody.
func (m *Message) DecodeNotice() (*NoticeBody, error) {
	if m.Type != MessageNotice {
		return nil, fmt.Errorf("message %d is %s, not NOTICE", m.ID, m.Type)
	}
	var body NoticeBody
	if err := json.Unmarshal(m.Body, &body); err != nil {
		return nil, fmt.Errorf("decode notice body of message %d: %w", m.ID, err)
	}
	return &body, nil
}

// DecodePoll decodes the message body as a PollBody.
func (m *Message) DecodePoll() (*PollBody, error) {
	if m.Type != MessagePoll {
		return nil, fmt.Errorf("message %d is %s, not POLL", m.ID, m.Type)
	}
	var body PollBody
	if err := json.Unmarshal(m.Body, &body); err != nil {
		return nil, fmt.Errorf("decode poll body of message %d: %w", m.ID, err)
	}
	return &body, nil
}
