package pipeline

import (
	"context"
	"encoding/json"

	"github.com/pageturn/bookclub-chat/internal/apperr"
	"github.com/pageturn/bookclub-chat/internal/bus"
	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/internal/repository"
	"github.com/pageturn/bookclub-chat/pkg/log"
)

// Sender is the pipeline contract used by the extension services.
type Sender interface {
	Send(ctx context.Context, msg *domain.Message) (*domain.Message, error)
}

// Pipeline is the write-then-publish path: a message is durable in the
// store before any client can see it on the bus.
type Pipeline struct {
	messages  repository.MessageRepository
	publisher bus.Publisher
	topic     string
}

func New(messages repository.MessageRepository, publisher bus.Publisher, topic string) *Pipeline {
	return &Pipeline{
		messages:  messages,
		publisher: publisher,
		topic:     topic,
	}
}

// Send validates, persists, then publishes the message keyed by room id.
// The publish is best-effort: by the time it runs the send has already
// succeeded, so a bus failure is logged and the persisted message is
// still returned to the caller.
func (p *Pipeline) Send(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	l := log.Ctx(ctx)

	if msg.RoomID == "" {
		return nil, apperr.Validation("room id is required")
	}
	if msg.SenderID == "" {
		return nil, apperr.Validation("sender id is required")
	}

	if err := p.messages.Append(ctx, msg); err != nil {
		return nil, apperr.Internal("failed to persist message", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		l.Error().Err(err).Int64(log.FieldMessageID, msg.ID).Msg("failed to marshal message for bus")
		return msg, nil
	}

	if err := p.publisher.Publish(ctx, p.topic, msg.RoomID, payload); err != nil {
		l.Error().Err(err).
			Int64(log.FieldMessageID, msg.ID).
			Str(log.FieldRoomID, msg.RoomID).
			Msg("bus publish failed, message persisted but not relayed")
	}

	return msg, nil
}
