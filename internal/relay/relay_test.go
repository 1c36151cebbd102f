package relay

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pageturn/bookclub-chat/internal/domain"
)

type fakeBroadcaster struct {
	frames map[string][][]byte
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{frames: make(map[string][][]byte)}
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID string, payload []byte) {
	f.frames[roomID] = append(f.frames[roomID], payload)
}

func TestHandleForwardsRawFrame(t *testing.T) {
	hub := newFakeBroadcaster()
	r := New(hub)

	payload, _ := json.Marshal(&domain.Message{
		ID:       42,
		RoomID:   "room-1",
		SenderID: "u1",
		Type:     domain.MessageText,
	})

	if err := r.Handle(context.Background(), []byte("room-1"), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}

	frames := hub.frames["room-1"]
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if string(frames[0]) != string(payload) {
		t.Error("frame bytes differ from consumed value")
	}
}

func TestHandleDropsBadPayloads(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
	}{
		{"malformed json", []byte("{not json")},
		{"empty room id", []byte(`{"id":1,"sender_id":"u1"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := newFakeBroadcaster()
			r := New(hub)

			// A bad record must not error the consumer loop.
			if err := r.Handle(context.Background(), nil, tt.value); err != nil {
				t.Fatalf("handle: %v", err)
			}
			if len(hub.frames) != 0 {
				t.Error("bad payload was broadcast")
			}
		})
	}
}
