package ws

// registry maps room identifiers to the set of sessions currently bound
// to them. join and leave are its only mutators, and both are driven from
// the hub's Run goroutine, so no lock is needed.
type registry struct {
	rooms map[uint]map[*Client]struct{}
}

func newRegistry() *registry {
	return &registry{rooms: make(map[uint]map[*Client]struct{})}
}

// join binds a client to its room, creating the room on first use
func (r *registry) join(c *Client) {
	room, ok := r.rooms[c.RoomID]
	if !ok {
		room = make(map[*Client]struct{})
		r.rooms[c.RoomID] = room
	}
	room[c] = struct{}{}
}

// leave removes a client, dissolving the room when it empties. Returns
// false when the client was not present (already dropped).
func (r *registry) leave(c *Client) bool {
	room, ok := r.rooms[c.RoomID]
	if !ok {
		return false
	}
	if _, ok := room[c]; !ok {
		return false
	}
	delete(room, c)
	if len(room) == 0 {
		delete(r.rooms, c.RoomID)
	}
	return true
}

// members returns the sessions currently bound to a room
func (r *registry) members(roomID uint) []*Client {
	room := r.rooms[roomID]
	out := make([]*Client, 0, len(room))
	for c := range room {
		out = append(out, c)
	}
	return out
}

// size reports how many sessions a room holds
func (r *registry) size(roomID uint) int {
	return len(r.rooms[roomID])
}
