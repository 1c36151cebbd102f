package hub

import (
	"context"
	"sync"

	"github.com/pageturn/bookclub-chat/pkg/log"
)

// Hub is the session registry: an in-memory multiplexer from room id to
// the set of live connections subscribed to that room. It is populated
// at connect, emptied at disconnect, and holds nothing across restarts.
type Hub struct {
	rooms      map[string]map[string]*Client // roomID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomFrame
	mu         sync.RWMutex
}

type roomFrame struct {
	roomID  string
	payload []byte
}

func New() *Hub {
	return &Hub{
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomFrame, 256),
	}
}

// Run processes registry traffic until ctx is cancelled. Register,
// unregister and broadcast are serialized through this loop; sends to
// individual connections go through buffered client channels so a slow
// connection never blocks the loop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			clients, ok := h.rooms[client.RoomID]
			if !ok {
				clients = make(map[string]*Client)
				h.rooms[client.RoomID] = clients
			}
			clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str("client_id", client.ID).Str(log.FieldRoomID, client.RoomID).Msg("client registered")

		case client := <-h.unregister:
			h.remove(client)

		case frame := <-h.broadcast:
			h.mu.RLock()
			clients := h.rooms[frame.roomID]
			for _, client := range clients {
				select {
				case client.Send <- frame.payload:
				default:
					// Client can't keep up or is gone; evict it without
					// holding up delivery to the rest of the room.
					go h.Unregister(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.RoomID]
	if !ok {
		return
	}
	if _, ok := clients[client.ID]; !ok {
		return // already unregistered
	}

	delete(clients, client.ID)
	if len(clients) == 0 {
		delete(h.rooms, client.RoomID)
	}
	close(client.Send)

	l := log.L()
	l.Debug().Str("client_id", client.ID).Str(log.FieldRoomID, client.RoomID).Msg("client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID, clients := range h.rooms {
		for id, client := range clients {
			close(client.Send)
			delete(clients, id)
		}
		delete(h.rooms, roomID)
	}
}

// Register admits a connection into its room's set.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a connection; calling it twice for the same
// connection is a no-op the second time.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToRoom fans a serialized frame out to every live connection
// in the room. A room with no connections is a no-op.
func (h *Hub) BroadcastToRoom(roomID string, payload []byte) {
	h.broadcast <- &roomFrame{roomID: roomID, payload: payload}
}

// RoomClientCount reports the number of live connections in a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
