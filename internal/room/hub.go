package room

import "sync"

// Hub tracks which participants are listening to which room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Participant
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]*Participant)}
}

// Join subscribes p to the room's broadcasts.
func (h *Hub) Join(roomCode string, p *Participant) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomCode]
	if !ok {
		members = make(map[string]*Participant)
		h.rooms[roomCode] = members
	}
	members[p.ID] = p
}

// Leave unsubscribes p. Empty rooms are dropped.
func (h *Hub) Leave(roomCode string, p *Participant) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomCode]
	if !ok {
		return
	}
	delete(members, p.ID)
	if len(members) == 0 {
		delete(h.rooms, roomCode)
	}
}

// Broadcast sends e to everyone in the room.
func (h *Hub) Broadcast(roomCode string, e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.rooms[roomCode] {
		p.Send(e)
	}
}

// Members is the number of participants listening to the room.
func (h *Hub) Members(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}
