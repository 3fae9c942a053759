package broker

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/tiletrack/tiletrack-go/log"
	"github.com/tiletrack/tiletrack-go/pkg/model"
	"github.com/tiletrack/tiletrack-go/pkg/utils/broadcast"
)

type cmdKind int

const (
	cmdHostInit cmdKind = iota
	cmdJoin
	cmdLeave
	cmdHostLeave
	cmdInput
	cmdSetTrack
	cmdSetMode
	cmdReset
	cmdSnapshot
)

// command is one message for the room actor. Commands are applied strictly
// in receipt order; no operation can observe a half-applied update.
type command struct {
	kind   cmdKind
	client *Client
	env    *model.Envelope
	raw    []byte
}

var carColors = []string{
	"#ff6a00", "#28d17c", "#3aa0ff", "#ff3b30",
	"#ffd60a", "#b26cff", "#2bd9d9", "#ff8fab",
}

type playerSlot struct {
	client *Client
	info   model.PlayerInfo
	sub    <-chan []byte
}

// Room is an isolated race session owned by a single actor goroutine. All
// mutable state below is touched only from run(); external requests arrive
// as commands.
type Room struct {
	code     string
	registry *Registry
	host     *Client

	players map[*Client]*playerSlot
	order   []*playerSlot // canonical join order

	track  model.TrackDef
	mode   model.RaceMode
	winner *model.Winner

	cmds chan command
	done chan struct{}

	// high-rate snapshot relay fan-out
	snapshotSrc chan []byte
	bcst        broadcast.BroadcastServer[[]byte]

	nextColor int
	log       *log.Logger
}

func newRoom(registry *Registry, code string, host *Client) *Room {
	r := &Room{
		code:     code,
		registry: registry,
		host:     host,
		players:  make(map[*Client]*playerSlot),
		track: model.TrackDef{
			PresetID:  "01",
			Width:     140,
			LapsToWin: 3,
		},
		mode:        model.ModeBuild,
		cmds:        make(chan command, 256),
		done:        make(chan struct{}),
		snapshotSrc: make(chan []byte, 8),
		log:         log.Default().Named("broker.room").With(log.String("room", code)),
	}
	r.bcst = broadcast.NewBroadcastServer(code, "snapshots", r.snapshotSrc)
	return r
}

func (r *Room) Code() string { return r.code }

// enqueue hands a command to the actor; it is a no-op once the room is gone.
func (r *Room) enqueue(cmd command) {
	select {
	case r.cmds <- cmd:
	case <-r.done:
	}
}

//nolint:cyclop // the command switch is the actor
func (r *Room) run() {
	defer func() {
		r.bcst.Close()
		close(r.done)
		r.registry.remove(r.code)
		r.log.Info("room closed")
	}()
	for cmd := range r.cmds {
		switch cmd.kind {
		case cmdHostInit:
			r.host.sendEnvelope(&model.Envelope{
				Type: model.MsgRoomCreated,
				Room: r.snapshot(),
			})
		case cmdJoin:
			r.handleJoin(cmd)
		case cmdLeave:
			if cmd.client == r.host {
				r.terminate()
				return
			}
			r.handleLeave(cmd.client)
		case cmdHostLeave:
			r.terminate()
			return
		case cmdInput:
			r.handleInput(cmd)
		case cmdSetTrack:
			r.handleSetTrack(cmd)
		case cmdSetMode:
			r.handleSetMode(cmd)
		case cmdReset:
			if cmd.client != r.host {
				continue
			}
			r.winner = nil
			r.mode = model.ModeDrive
			r.broadcastUpdate()
		case cmdSnapshot:
			r.handleSnapshot(cmd)
		}
	}
}

func (r *Room) handleJoin(cmd command) {
	name := strings.TrimSpace(cmd.env.Name)
	if name == "" {
		name = "Player"
	}
	slot := &playerSlot{
		client: cmd.client,
		info: model.PlayerInfo{
			ID:    uuid.NewString(),
			Name:  name,
			Color: carColors[r.nextColor%len(carColors)],
		},
	}
	r.nextColor++
	slot.sub = r.bcst.Subscribe()
	go pipeSnapshots(slot.sub, cmd.client)

	r.players[cmd.client] = slot
	r.order = append(r.order, slot)

	cmd.client.playerID = slot.info.ID
	cmd.client.sendEnvelope(&model.Envelope{
		Type:     model.MsgJoined,
		PlayerID: slot.info.ID,
		Room:     r.snapshot(),
	})
	r.broadcastUpdate()
	r.log.Info("player joined",
		log.String("player", slot.info.ID), log.String("name", name))
}

// handleLeave removes a controller; the room keeps running.
func (r *Room) handleLeave(client *Client) {
	slot, ok := r.players[client]
	if !ok {
		return
	}
	delete(r.players, client)
	r.order = lo.Filter(r.order, func(s *playerSlot, _ int) bool {
		return s != slot
	})
	r.bcst.CancelSubscription(slot.sub)
	r.broadcastUpdate()
	r.log.Info("player left", log.String("player", slot.info.ID))
}

// terminate tears the room down after a host disconnect: no orphaned
// controllers keep driving a missing simulator.
func (r *Room) terminate() {
	for client, slot := range r.players {
		client.sendError(reasonHostLeft)
		r.bcst.CancelSubscription(slot.sub)
		client.close()
	}
	r.players = nil
	r.order = nil
}

// handleInput forwards a control sample to the host. Samples claiming a
// foreign player id are dropped without feedback.
func (r *Room) handleInput(cmd command) {
	slot, ok := r.players[cmd.client]
	if !ok || cmd.env.Input == nil {
		return
	}
	if cmd.env.PlayerID != "" && cmd.env.PlayerID != slot.info.ID {
		return
	}
	if r.host == nil {
		return
	}
	r.host.sendEnvelope(&model.Envelope{
		Type:     model.MsgPlayerInput,
		PlayerID: slot.info.ID,
		Input:    cmd.env.Input,
	})
}

func (r *Room) handleSetTrack(cmd command) {
	if cmd.client != r.host || cmd.env.Track == nil {
		return
	}
	r.track = *cmd.env.Track
	// editing always drops back to build; the path must be rebuilt before
	// the next drive entry
	r.mode = model.ModeBuild
	r.winner = nil
	r.broadcastUpdate()
}

func (r *Room) handleSetMode(cmd command) {
	if cmd.client != r.host || !cmd.env.Mode.Valid() {
		return
	}
	r.mode = cmd.env.Mode
	switch r.mode {
	case model.ModeBuild:
		r.winner = nil
	case model.ModeFinished:
		if cmd.env.Winner != nil {
			r.winner = cmd.env.Winner
		}
	case model.ModeDrive:
		r.winner = nil
		for _, slot := range r.order {
			slot.info.Lap = 0
			slot.info.Finished = false
		}
	}
	r.broadcastUpdate()
}

// handleSnapshot relays a host-published simulation snapshot verbatim to all
// controllers and echoes it to the host. Membership lap counts and the
// winner record are refreshed from the payload on the way through.
func (r *Room) handleSnapshot(cmd command) {
	if cmd.client != r.host {
		return
	}
	select {
	case r.snapshotSrc <- cmd.raw:
	default:
	}
	r.host.enqueue(cmd.raw)

	if cmd.env.Snapshot == nil {
		return
	}
	var snap model.SimSnapshot
	if err := json.Unmarshal(cmd.env.Snapshot, &snap); err != nil {
		return
	}
	changed := false
	byID := lo.KeyBy(snap.Cars, func(c model.Car) string { return c.ID })
	for _, slot := range r.order {
		if c, ok := byID[slot.info.ID]; ok {
			if slot.info.Lap != c.Lap || slot.info.Finished != c.Finished {
				slot.info.Lap = c.Lap
				slot.info.Finished = c.Finished
				changed = true
			}
		}
	}
	if snap.Mode == model.ModeFinished && snap.Winner != nil && r.winner == nil {
		r.mode = model.ModeFinished
		r.winner = snap.Winner
		changed = true
	}
	if changed {
		r.broadcastUpdate()
	}
}

func (r *Room) snapshot() *model.RoomSnapshot {
	snap := &model.RoomSnapshot{
		Code:    r.code,
		Mode:    r.mode,
		Track:   r.track,
		Players: make([]model.PlayerInfo, 0, len(r.order)),
	}
	for _, slot := range r.order {
		snap.Players = append(snap.Players, slot.info)
	}
	if r.winner != nil {
		w := *r.winner
		snap.Winner = &w
	}
	return snap
}

// broadcastUpdate pushes the room snapshot to the host and every controller.
func (r *Room) broadcastUpdate() {
	data, err := json.Marshal(&model.Envelope{
		Type: model.MsgRoomUpdate,
		Room: r.snapshot(),
	})
	if err != nil {
		r.log.Error("could not marshal room update", log.ErrorField(err))
		return
	}
	if r.host != nil {
		r.host.enqueue(data)
	}
	for client := range r.players {
		client.enqueue(data)
	}
}

func pipeSnapshots(sub <-chan []byte, client *Client) {
	for msg := range sub {
		client.enqueue(msg)
	}
}
