package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Domain event actions published to the events topic. This stream is
// the authoritative audit trail of room mutations; publishing it is a
// hard requirement for the mutation to succeed.
const (
	ActionRoomCreate   = "room.create"
	ActionRoomLeave    = "room.leave"
	ActionRoomDestroy  = "room.destroy"
	ActionMemberKick   = "member.kick"
	ActionAnncCreate   = "announcement.create"
	ActionAnncUpdate   = "announcement.update"
	ActionAnncDelete   = "announcement.delete"
	ActionSchedCreate  = "schedule.create"
	ActionSchedUpdate  = "schedule.update"
	ActionSchedDelete  = "schedule.delete"
	ActionSchedJoin    = "schedule.join"
	ActionPollCreate   = "poll.create"
	ActionPollVote     = "poll.vote"
)

// Event is a room mutation record for downstream consumers
// (notification fan-out, audit storage).
type Event struct {
	Action    string          `json:"action"`
	RoomID    string          `json:"room_id"`
	ActorID   string          `json:"actor_id"`
	Resource  json.RawMessage `json:"resource,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// EventPublisher publishes domain events to the events topic.
type EventPublisher struct {
	publisher Publisher
	topic     string
}

func NewEventPublisher(p Publisher, topic string) *EventPublisher {
	return &EventPublisher{publisher: p, topic: topic}
}

// PublishEvent marshals and publishes one event keyed by room id.
// Unlike the chat message publish, a failure here propagates to the
// caller: the event stream is the audit trail of the mutation.
func (ep *EventPublisher) PublishEvent(ctx context.Context, action, roomID, actorID string, resource interface{}) error {
	var raw json.RawMessage
	if resource != nil {
		data, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshal event resource: %w", err)
		}
		raw = data
	}

	event := Event{
		Action:    action,
		RoomID:    roomID,
		ActorID:   actorID,
		Resource:  raw,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := ep.publisher.Publish(ctx, ep.topic, roomID, payload); err != nil {
		return fmt.Errorf("publish %s event: %w", action, err)
	}
	return nil
}
