package host

import (
	"encoding/json"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/tiletrack/tiletrack-go/log"
	"github.com/tiletrack/tiletrack-go/pkg/config"
	"github.com/tiletrack/tiletrack-go/pkg/model"
	"github.com/tiletrack/tiletrack-go/pkg/processing"
	"github.com/tiletrack/tiletrack-go/pkg/track"
)

func NewHostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "runs a headless race host against a broker",
		Long: `Creates a room on the broker and simulates the race locally.
Controllers join with the printed room code; the race starts as soon as the
first player is in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost()
		},
	}
	cmd.Flags().StringVarP(&config.BrokerURL,
		"broker-url",
		"u",
		"ws://localhost:8080/ws",
		"websocket url of the broker")
	cmd.Flags().StringVar(&config.Preset,
		"preset",
		"01",
		"track preset id")
	cmd.Flags().IntVar(&config.LapsToWin,
		"laps",
		0,
		"laps to win (0 uses the preset default)")
	cmd.Flags().StringVar(&config.TickInterval,
		"tick-interval",
		"33ms",
		"simulation tick interval")
	cmd.Flags().StringVar(&config.InputStaleAfter,
		"input-stale-after",
		"1s",
		"zero a player's input after this silence (0 disables)")
	return cmd
}

type simHost struct {
	conn     *websocket.Conn
	proc     *processing.Processor
	tick     time.Duration
	lastTick time.Time

	started      bool
	finishedSent bool
	log          *log.Logger
}

func runHost() error {
	logger := log.DevLoggerWithRules(
		os.Stderr,
		log.InfoLevel,
		config.LogFilter,
		log.WithCaller(false))
	if lvl, err := log.ParseLevel(config.LogLevel); err == nil {
		logger = log.DevLoggerWithRules(os.Stderr, lvl, config.LogFilter,
			log.WithCaller(false))
	}
	log.ResetDefault(logger)

	tick, err := time.ParseDuration(config.TickInterval)
	if err != nil || tick <= 0 {
		tick = 33 * time.Millisecond
	}
	stale, err := time.ParseDuration(config.InputStaleAfter)
	if err != nil {
		stale = time.Second
	}

	proc := processing.NewProcessor(processing.WithStaleAfter(stale))
	preset := track.PresetByID(config.Preset)
	def := preset.Def()
	if config.LapsToWin > 0 {
		def.LapsToWin = config.LapsToWin
	}
	if err := proc.SetTrack(def); err != nil {
		return err
	}

	log.Info("Connecting to broker", log.String("url", config.BrokerURL))
	conn, _, err := websocket.DefaultDialer.Dial(config.BrokerURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	h := &simHost{
		conn: conn,
		proc: proc,
		tick: tick,
		log:  log.Default().Named("host"),
	}
	if err := h.send(&model.Envelope{Type: model.MsgCreateRoom}); err != nil {
		return err
	}
	if err := h.send(&model.Envelope{Type: model.MsgSetTrack, Track: &def}); err != nil {
		return err
	}
	return h.loop()
}

// loop is the single writer on the connection; a separate goroutine reads.
func (h *simHost) loop() error {
	inbound := make(chan *model.Envelope, 64)
	readErr := make(chan error, 1)
	go func() {
		defer close(inbound)
		for {
			_, data, err := h.conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			var env model.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				continue
			}
			inbound <- &env
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()
	h.lastTick = time.Now()

	for {
		select {
		case env, ok := <-inbound:
			if !ok {
				return <-readErr
			}
			if err := h.handle(env); err != nil {
				return err
			}
		case now := <-ticker.C:
			if err := h.step(now); err != nil {
				return err
			}
		case <-sigChan:
			h.log.Info("shutting down")
			return nil
		}
	}
}

func (h *simHost) handle(env *model.Envelope) error {
	switch env.Type {
	case model.MsgRoomCreated:
		if env.Room != nil {
			h.log.Info("room ready, join with this code",
				log.String("code", env.Room.Code))
		}
	case model.MsgRoomUpdate:
		if env.Room != nil {
			return h.syncPlayers(env.Room)
		}
	case model.MsgPlayerInput:
		if env.Input != nil {
			h.proc.SetInput(env.PlayerID, *env.Input)
		}
	case model.MsgError:
		h.log.Warn("broker error", log.String("reason", env.Message))
	default:
	}
	return nil
}

// syncPlayers mirrors room membership into the simulation and starts the
// race once the first controller is in.
func (h *simHost) syncPlayers(room *model.RoomSnapshot) error {
	present := make(map[string]bool, len(room.Players))
	for _, p := range room.Players {
		present[p.ID] = true
		h.proc.AddPlayer(p.ID, p.Name, p.Color)
	}
	for _, car := range h.proc.Cars() {
		if !present[car.ID] {
			h.proc.RemovePlayer(car.ID)
		}
	}
	if !h.started && len(room.Players) > 0 {
		h.log.Info("first player joined, starting race")
		if err := h.proc.SetMode(model.ModeDrive); err != nil {
			return err
		}
		h.started = true
		return h.send(&model.Envelope{
			Type: model.MsgSetMode, Mode: model.ModeDrive,
		})
	}
	return nil
}

func (h *simHost) step(now time.Time) error {
	dt := now.Sub(h.lastTick).Seconds()
	h.lastTick = now
	h.proc.Tick(dt)

	snap := h.proc.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	err = h.send(&model.Envelope{
		Type:     model.MsgSnapshot,
		Snapshot: json.RawMessage(data),
	})
	if err != nil {
		return err
	}

	if snap.Mode == model.ModeFinished && !h.finishedSent {
		h.finishedSent = true
		if snap.Winner != nil {
			h.log.Info("race finished",
				log.String("winner", snap.Winner.Name))
		}
		return h.send(&model.Envelope{
			Type:   model.MsgSetMode,
			Mode:   model.ModeFinished,
			Winner: snap.Winner,
		})
	}
	return nil
}

func (h *simHost) send(env *model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_ = h.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return h.conn.WriteMessage(websocket.TextMessage, data)
}
