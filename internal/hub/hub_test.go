package hub

import (
	"context"
	"testing"
	"time"
)

func testClient(id, roomID string, h *Hub) *Client {
	return &Client{
		ID:     id,
		RoomID: roomID,
		UserID: "u-" + id,
		Hub:    h,
		Send:   make(chan []byte, 4),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestRegisterAndBroadcast(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	a := testClient("a", "room-1", h)
	b := testClient("b", "room-1", h)
	other := testClient("c", "room-2", h)
	h.Register(a)
	h.Register(b)
	h.Register(other)
	waitFor(t, func() bool { return h.RoomClientCount("room-1") == 2 && h.RoomClientCount("room-2") == 1 })

	h.BroadcastToRoom("room-1", []byte("hello"))

	for _, c := range []*Client{a, b} {
		select {
		case frame := <-c.Send:
			if string(frame) != "hello" {
				t.Errorf("client %s got %q", c.ID, frame)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("client %s got no frame", c.ID)
		}
	}

	// Frames stay inside the room.
	select {
	case frame := <-other.Send:
		t.Errorf("room-2 client received %q", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	a := testClient("a", "room-1", h)
	h.Register(a)
	waitFor(t, func() bool { return h.RoomClientCount("room-1") == 1 })

	h.Unregister(a)
	waitFor(t, func() bool { return h.RoomClientCount("room-1") == 0 })

	// Second unregister for the same client must be a no-op, not a
	// double close.
	h.Unregister(a)
	waitFor(t, func() bool { return h.RoomClientCount("room-1") == 0 })

	// The send channel was closed exactly once.
	if _, ok := <-a.Send; ok {
		t.Error("send channel still open after unregister")
	}
}

func TestBroadcastEvictsSlowClient(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	slow := testClient("slow", "room-1", h)
	slow.Send = make(chan []byte) // no buffer, nobody reading
	ok := testClient("ok", "room-1", h)
	h.Register(slow)
	h.Register(ok)
	waitFor(t, func() bool { return h.RoomClientCount("room-1") == 2 })

	h.BroadcastToRoom("room-1", []byte("frame"))

	select {
	case frame := <-ok.Send:
		if string(frame) != "frame" {
			t.Errorf("got %q", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("healthy client starved by slow one")
	}

	waitFor(t, func() bool { return h.RoomClientCount("room-1") == 1 })
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	a := testClient("a", "room-1", h)
	h.Register(a)
	waitFor(t, func() bool { return h.RoomClientCount("room-1") == 1 })

	cancel()
	<-done

	if _, ok := <-a.Send; ok {
		t.Error("send channel not closed on shutdown")
	}
	if h.RoomClientCount("room-1") != 0 {
		t.Error("registry not emptied on shutdown")
	}
}
