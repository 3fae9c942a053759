package broker

import (
	"fmt"
	"sync"

	"github.com/tiletrack/tiletrack-go/log"
)

const maxCodeAttempts = 16

// Registry maps room codes to live rooms. It is the only piece of shared
// state in the broker; everything inside a room belongs to its actor.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	log   *log.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		log:   log.Default().Named("broker.registry"),
	}
}

// CreateRoom allocates a fresh code, starts the room actor and binds the
// creating client as its host.
func (reg *Registry) CreateRoom(host *Client) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for range maxCodeAttempts {
		code := generateCode()
		if _, taken := reg.rooms[code]; taken {
			continue
		}
		room := newRoom(reg, code, host)
		reg.rooms[code] = room
		go room.run()
		reg.log.Info("room created", log.String("room", code))
		return room, nil
	}
	return nil, fmt.Errorf("no free room code after %d attempts", maxCodeAttempts)
}

// Lookup resolves a (case-insensitive) room code.
func (reg *Registry) Lookup(code string) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[NormalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

func (reg *Registry) remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}
