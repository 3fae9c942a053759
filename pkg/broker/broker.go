// Package broker hosts the multiplayer session layer: short-code rooms,
// websocket clients and the per-room actor that serializes all state
// changes. Hosts publish simulation snapshots, controllers feed inputs, and
// the broker relays between them without ever simulating anything itself.
package broker

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tiletrack/tiletrack-go/log"
	"github.com/tiletrack/tiletrack-go/pkg/model"
)

// Broker upgrades websocket connections and routes messages to room actors.
type Broker struct {
	registry *Registry
	upgrader websocket.Upgrader
	log      *log.Logger
}

func NewBroker(registry *Registry) *Broker {
	return &Broker{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// controllers connect from phones on arbitrary origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log.Default().Named("broker"),
	}
}

func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", log.ErrorField(err))
		return
	}
	client := newClient(b, conn)
	go client.writePump()
	go client.readPump()
}

// dispatch routes one inbound message. It runs on the client's read pump
// goroutine, so per-client fields are safe to touch here; room state is not,
// and goes through the actor.
//
//nolint:cyclop // plain message switch
func (b *Broker) dispatch(c *Client, data []byte) {
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Debug("dropping malformed message", log.ErrorField(err))
		return
	}
	switch env.Type {
	case model.MsgCreateRoom:
		if c.role != roleNone {
			return
		}
		room, err := b.registry.CreateRoom(c)
		if err != nil {
			b.log.Error("room creation failed", log.ErrorField(err))
			c.sendError("room_unavailable")
			return
		}
		c.role = roleHost
		c.room = room
		room.enqueue(command{kind: cmdHostInit, client: c})
	case model.MsgJoinRoom:
		if c.role != roleNone {
			return
		}
		room, err := b.registry.Lookup(env.Code)
		if err != nil {
			c.sendError(reasonRoomNotFound)
			return
		}
		c.role = roleController
		c.room = room
		room.enqueue(command{kind: cmdJoin, client: c, env: &env})
	case model.MsgInput:
		if c.room != nil {
			c.room.enqueue(command{kind: cmdInput, client: c, env: &env})
		}
	case model.MsgSetTrack:
		if c.room != nil {
			c.room.enqueue(command{kind: cmdSetTrack, client: c, env: &env})
		}
	case model.MsgSetMode:
		if c.room != nil {
			c.room.enqueue(command{kind: cmdSetMode, client: c, env: &env})
		}
	case model.MsgResetRace:
		if c.room != nil {
			c.room.enqueue(command{kind: cmdReset, client: c, env: &env})
		}
	case model.MsgSnapshot:
		if c.room != nil {
			c.room.enqueue(command{kind: cmdSnapshot, client: c, env: &env, raw: data})
		}
	default:
		c.log.Debug("dropping message of unknown type",
			log.String("type", string(env.Type)))
	}
}

// disconnect funnels a dead connection into its room's actor. A host
// disconnect terminates the room; a controller disconnect just frees the
// slot.
func (b *Broker) disconnect(c *Client) {
	if c.room == nil {
		return
	}
	kind := cmdLeave
	if c.role == roleHost {
		kind = cmdHostLeave
	}
	c.room.enqueue(command{kind: kind, client: c})
}
