package relay

import (
	"context"
	"encoding/json"

	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/pkg/log"
)

// Broadcaster is the session-registry surface the relay needs.
type Broadcaster interface {
	BroadcastToRoom(roomID string, payload []byte)
}

// Relay forwards every message published on the chat topic to the
// session registry. It runs independently of the request that produced
// the message, so messages produced by other processes reach local
// connections too.
type Relay struct {
	hub Broadcaster
}

func New(hub Broadcaster) *Relay {
	return &Relay{hub: hub}
}

// Handle processes one consumed record. Malformed payloads are logged
// and dropped; one bad record must not stop delivery of the rest.
func (r *Relay) Handle(ctx context.Context, key, value []byte) error {
	l := log.Ctx(ctx)

	var msg domain.Message
	if err := json.Unmarshal(value, &msg); err != nil {
		l.Warn().Err(err).Msg("dropping malformed bus payload")
		return nil
	}
	if msg.RoomID == "" {
		l.Warn().Msg("dropping bus payload without room id")
		return nil
	}

	// The consumed value is already the client wire frame; forward the
	// raw bytes so every connection gets an identical serialization.
	r.hub.BroadcastToRoom(msg.RoomID, value)

	l.Debug().
		Int64(log.FieldMessageID, msg.ID).
		Str(log.FieldRoomID, msg.RoomID).
		Msg("message relayed")
	return nil
}
