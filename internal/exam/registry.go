package exam

// DefaultMaxRooms bounds the in-memory registry.
const DefaultMaxRooms = 100

// Registry holds every active room. It does no locking of its own: all
// access, including the timer sweep, happens under the server's state
// lock.
type Registry struct {
	rooms []*Room
	max   int
}

func NewRegistry(max int) *Registry {
	if max <= 0 {
		max = DefaultMaxRooms
	}
	return &Registry{max: max}
}

// Find returns the room with the given name, or nil. Lookup is a linear
// scan; the registry stays small by construction.
func (g *Registry) Find(name string) *Room {
	for _, room := range g.rooms {
		if room.Name == name {
			return room
		}
	}
	return nil
}

// Add appends a room, refusing duplicate names and overflow.
func (g *Registry) Add(room *Room) error {
	if g.Find(room.Name) != nil {
		return ErrRoomExists
	}
	if len(g.rooms) >= g.max {
		return ErrRegistryFull
	}
	g.rooms = append(g.rooms, room)
	return nil
}

// Remove drops the named room, reporting whether it was present.
func (g *Registry) Remove(name string) bool {
	for i, room := range g.rooms {
		if room.Name == name {
			g.rooms = append(g.rooms[:i], g.rooms[i+1:]...)
			return true
		}
	}
	return false
}

// Each visits every room in insertion order.
func (g *Registry) Each(fn func(*Room)) {
	for _, room := range g.rooms {
		fn(room)
	}
}

func (g *Registry) Len() int {
	return len(g.rooms)
}

// Full reports whether the registry is at capacity.
func (g *Registry) Full() bool {
	return len(g.rooms) >= g.max
}
