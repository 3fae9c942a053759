package broker

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tiletrack/tiletrack-go/log"
	"github.com/tiletrack/tiletrack-go/pkg/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	sendBufferSize = 64
)

type role int

const (
	roleNone role = iota
	roleHost
	roleController
)

// Client is one websocket participant. The read pump feeds the broker
// dispatcher; everything outbound goes through the buffered send channel so
// a stalled peer can never block a room actor.
type Client struct {
	broker *Broker
	conn   *websocket.Conn
	send   chan []byte

	// role and room are set by the dispatcher on the read pump goroutine;
	// playerID belongs to the room actor
	role     role
	room     *Room
	playerID string

	closeOnce sync.Once
	log       *log.Logger
}

func newClient(b *Broker, conn *websocket.Conn) *Client {
	return &Client{
		broker: b,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		log:    log.Default().Named("broker.client"),
	}
}

// enqueue stages a message for delivery. Messages to a slow consumer are
// dropped; snapshots are superseded by the next tick anyway.
func (c *Client) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		c.log.Debug("dropping message for slow consumer")
	}
}

func (c *Client) sendEnvelope(env *model.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		c.log.Error("could not marshal envelope", log.ErrorField(err))
		return
	}
	c.enqueue(data)
}

func (c *Client) sendError(reason string) {
	c.sendEnvelope(&model.Envelope{Type: model.MsgError, Message: reason})
}

// close shuts the connection down once; safe from any goroutine.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// readPump relays inbound messages to the broker until the connection dies,
// then triggers disconnect cleanup. Idle and unreachable peers fall out via
// the read deadline refreshed by pongs.
func (c *Client) readPump() {
	defer func() {
		c.broker.disconnect(c)
		c.close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read failed", log.ErrorField(err))
			}
			return
		}
		c.broker.dispatch(c, data)
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
