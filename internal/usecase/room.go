package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rocketscienceinc/copperhead-backend/internal/entity"
)

const defaultDifficulty = 5

// Sink is one attached client connection, competitor or observer alike.
// Broadcast logic treats both uniformly; a failed Send is the only disconnect
// signal the room ever gets from the transport side.
type Sink interface {
	ID() string
	Send(message any) error
}

// BotSupervisor launches and terminates external bot processes. Rooms hold
// only the opaque handles; the supervisor owns the processes.
type BotSupervisor interface {
	Spawn(difficulty int) (int, error)
	SpawnPair(first, second int) ([]int, error)
	Terminate(handle int)
}

// Room owns one match, the connections attached to it, and the tick loop that
// drives the game while it runs.
type Room struct {
	id           int
	logger       *slog.Logger
	manager      *RoomManager
	bots         BotSupervisor
	tickInterval time.Duration

	mu          sync.Mutex
	game        *entity.Game
	connections map[int]Sink
	observers   map[string]Sink
	ready       map[int]struct{}
	wins        map[int]int
	names       map[int]string
	pendingMode string
	botHandles  []int
	cancelLoop  context.CancelFunc
}

func newRoom(id int, logger *slog.Logger, manager *RoomManager, bots BotSupervisor, tickInterval time.Duration) *Room {
	return &Room{
		id:           id,
		logger:       logger.With("room", id),
		manager:      manager,
		bots:         bots,
		tickInterval: tickInterval,

		game:        entity.NewGame(entity.ModeTwoPlayer),
		connections: make(map[int]Sink),
		observers:   make(map[string]Sink),
		ready:       make(map[int]struct{}),
		wins:        defaultWins(),
		names:       defaultNames(),
		pendingMode: entity.ModeTwoPlayer,
	}
}

func defaultWins() map[int]int {
	return map[int]int{entity.PlayerOne: 0, entity.PlayerTwo: 0}
}

func defaultNames() map[int]string {
	return map[int]string{entity.PlayerOne: "Player 1", entity.PlayerTwo: "Player 2"}
}

func (that *Room) ID() int {
	return that.id
}

// reserveSlot claims the lowest free competitor slot and registers the
// connection under it. It fails when the match is running or both slots are
// taken. Reservation happens inside the registry's matchmaking lock so two
// joiners can never be handed the same slot.
func (that *Room) reserveSlot(sink Sink) (int, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.game.Running || len(that.connections) >= 2 {
		return 0, false
	}

	slot := entity.PlayerOne
	if _, taken := that.connections[slot]; taken {
		slot = entity.PlayerTwo
	}

	that.connections[slot] = sink

	return slot, true
}

// IsEmpty reports whether no competitor connection is attached.
func (that *Room) IsEmpty() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.connections) == 0
}

// IsActive reports whether the room's match is running.
func (that *Room) IsActive() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.game.Running
}

// IsWaitingForPlayer reports whether the room has exactly one competitor and
// no running match.
func (that *Room) IsWaitingForPlayer() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.connections) == 1 && !that.game.Running
}

func (that *Room) hasObserver(observerID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.observers[observerID]

	return ok
}

// BroadcastState sends the current match snapshot to every attached
// connection. Called after a competitor attaches so everyone sees the fresh
// board immediately.
func (that *Room) BroadcastState() {
	that.mu.Lock()
	failed := that.broadcastLocked(that.stateMessageLocked())
	that.mu.Unlock()

	that.detachFailed(failed)
}

// ConnectObserver registers an observer and sends it the current snapshot.
func (that *Room) ConnectObserver(sink Sink) {
	log := that.logger.With("method", "ConnectObserver")

	that.mu.Lock()
	that.observers[sink.ID()] = sink
	message := that.observerJoinedMessageLocked()
	if err := sink.Send(message); err != nil {
		delete(that.observers, sink.ID())
		that.mu.Unlock()
		log.Error("failed to send snapshot to observer", "error", err)
		return
	}
	count := len(that.observers)
	that.mu.Unlock()

	log.Info("observer connected", "observers", count)
}

// DisconnectObserver removes an observer; it has no other side effect.
func (that *Room) DisconnectObserver(observerID string) {
	that.mu.Lock()
	_, attached := that.observers[observerID]
	delete(that.observers, observerID)
	count := len(that.observers)
	that.mu.Unlock()

	if attached {
		that.logger.Info("observer disconnected", "observers", count)
	}
}

// DisconnectPlayer resets the entire room: any competitor leaving forfeits
// the whole session. The tick loop is cancelled, supervised bots are
// terminated, and match, ready set, scores and names all start over.
func (that *Room) DisconnectPlayer(playerID int) {
	log := that.logger.With("method", "DisconnectPlayer")

	that.mu.Lock()

	delete(that.connections, playerID)
	that.ready = make(map[int]struct{})

	if that.cancelLoop != nil {
		that.cancelLoop()
		that.cancelLoop = nil
		log.Info("game stopped, player disconnected")
	}

	handles := that.botHandles
	that.botHandles = nil

	that.game = entity.NewGame(entity.ModeTwoPlayer)
	that.pendingMode = entity.ModeTwoPlayer
	that.wins = defaultWins()
	that.names = defaultNames()

	remaining := len(that.connections)
	that.mu.Unlock()

	for _, handle := range handles {
		that.bots.Terminate(handle)
	}

	log.Info("player disconnected", "player", playerID, "players", remaining)
}

// HandleMove queues a direction change; ignored unless the match is running.
func (that *Room) HandleMove(playerID int, direction entity.Direction) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.game.Running {
		that.game.QueueDirection(playerID, direction)
	}
}

// HandleReady records a ready signal. Only the first ready of a cycle may set
// the mode, so a spawned bot's own ready signal can never change it. Once both
// slots are ready the match starts; a lone competitor is told to keep waiting.
func (that *Room) HandleReady(playerID int, mode, name string, aiDifficulty int) {
	log := that.logger.With("method", "HandleReady")

	that.mu.Lock()

	if len(that.ready) == 0 && (mode == entity.ModeTwoPlayer || mode == entity.ModeVersusAI) {
		that.pendingMode = mode
	}

	if name == "" {
		name = fmt.Sprintf("Player %d", playerID)
	}
	that.names[playerID] = name

	if mode == entity.ModeVersusAI && len(that.botHandles) == 0 {
		if aiDifficulty == 0 {
			aiDifficulty = defaultDifficulty
		}

		handle, err := that.bots.Spawn(aiDifficulty)
		if err != nil {
			log.Error("failed to spawn bot", "error", err)
		} else {
			that.botHandles = append(that.botHandles, handle)
		}
	}

	that.ready[playerID] = struct{}{}
	log.Info("player ready", "name", name, "mode", that.pendingMode, "ready", len(that.ready))

	var failed []sendFailure
	started := false

	switch {
	case len(that.ready) >= 2 && !that.game.Running:
		failed = that.startGameLocked()
		started = true
	case len(that.ready) < 2:
		text := "Waiting for Player 2..."
		if that.pendingMode == entity.ModeVersusAI {
			text = "Launching CopperBot..."
		}

		if sink, ok := that.connections[playerID]; ok {
			if err := sink.Send(NewWaitingMessage(text)); err != nil {
				log.Error("failed to send waiting message", "error", err)
			}
		}
	}

	that.mu.Unlock()

	that.detachFailed(failed)

	if started {
		that.manager.notifyGameStarted(that)
	}
}

// adoptBots hands ownership of already-spawned bot processes to this room so
// they are terminated when the room resets.
func (that *Room) adoptBots(handles []int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.botHandles = append(that.botHandles, handles...)
}

func (that *Room) startGameLocked() []sendFailure {
	that.game = entity.NewGame(that.pendingMode)
	that.game.Running = true

	that.logger.Info("game started", "mode", that.pendingMode)

	failed := that.broadcastLocked(NewStartMessage(that.pendingMode, that.id))

	ctx, cancel := context.WithCancel(context.Background())
	that.cancelLoop = cancel
	go that.gameLoop(ctx)

	return failed
}

// gameLoop drives the match at a fixed interval until it reaches a terminal
// state or the cancellation fires on a competitor disconnect.
func (that *Room) gameLoop(ctx context.Context) {
	log := that.logger.With("method", "gameLoop")

	ticker := time.NewTicker(that.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		running, over, failed := that.tick(log)
		that.detachFailed(failed)

		if over {
			that.manager.notifyGameEnded()
		}

		if !running {
			return
		}
	}
}

// tick advances the match one step and broadcasts the result. On the terminal
// tick it also settles the winner's score, announces the game over, and clears
// the ready set so a new cycle can begin.
func (that *Room) tick(log *slog.Logger) (running, over bool, failed []sendFailure) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.game.Running {
		return false, false, nil
	}

	that.game.Update()
	failed = that.broadcastLocked(that.stateMessageLocked())

	if that.game.Running {
		return true, false, failed
	}

	if that.game.Winner != nil {
		that.wins[*that.game.Winner]++
		log.Info("game over", "winner", that.names[*that.game.Winner])
	} else {
		log.Info("game over", "result", "draw")
	}

	gameOver := GameOverMessage{
		Type:   typeGameOver,
		Winner: that.game.Winner,
		Wins:   that.wins,
		Names:  that.names,
		RoomID: that.id,
	}
	failed = append(failed, that.broadcastLocked(gameOver)...)

	that.ready = make(map[int]struct{})

	return false, true, failed
}

// sendFailure identifies a connection whose send failed during a broadcast
// pass. A zero slot means the failed sink was an observer.
type sendFailure struct {
	slot     int
	observer string
}

// broadcastLocked best-effort sends one message to every attached connection.
// Failures are collected, never aborting the pass; the caller detaches them
// once the room lock is released.
func (that *Room) broadcastLocked(message any) []sendFailure {
	var failed []sendFailure

	for slot, sink := range that.connections {
		if err := sink.Send(message); err != nil {
			failed = append(failed, sendFailure{slot: slot})
		}
	}

	for id, sink := range that.observers {
		if err := sink.Send(message); err != nil {
			failed = append(failed, sendFailure{observer: id})
		}
	}

	return failed
}

func (that *Room) detachFailed(failed []sendFailure) {
	for _, failure := range failed {
		if failure.slot != 0 {
			that.DisconnectPlayer(failure.slot)
			continue
		}

		that.DisconnectObserver(failure.observer)
	}
}

func (that *Room) stateMessageLocked() StateMessage {
	return StateMessage{
		Type:   typeState,
		Game:   that.game,
		Wins:   that.wins,
		Names:  that.names,
		RoomID: that.id,
	}
}

func (that *Room) observerJoinedMessageLocked() ObserverJoinedMessage {
	return ObserverJoinedMessage{
		Type:   typeObserverJoined,
		RoomID: that.id,
		Game:   that.game,
		Wins:   that.wins,
		Names:  that.names,
	}
}

// sendRoomList pushes the active-room list to this room's observers. Failed
// observers are left for the next state broadcast to detach.
func (that *Room) sendRoomList(rooms []RoomSummary) {
	that.mu.Lock()
	defer that.mu.Unlock()

	current := that.id
	message := NewRoomListMessage(rooms, &current)

	for _, sink := range that.observers {
		_ = sink.Send(message)
	}
}

// Summary returns a copy of the data observers see in room lists.
func (that *Room) Summary() RoomSummary {
	that.mu.Lock()
	defer that.mu.Unlock()

	names := make(map[int]string, len(that.names))
	for slot, name := range that.names {
		names[slot] = name
	}

	wins := make(map[int]int, len(that.wins))
	for slot, count := range that.wins {
		wins[slot] = count
	}

	return RoomSummary{RoomID: that.id, Names: names, Wins: wins}
}

// RoomStatus is the read-only per-room view served by the status endpoint.
type RoomStatus struct {
	RoomID           int   `json:"room_id"`
	Players          []int `json:"players"`
	Observers        int   `json:"observers"`
	GameRunning      bool  `json:"game_running"`
	WaitingForPlayer bool  `json:"waiting_for_player"`
}

func (that *Room) Status() RoomStatus {
	that.mu.Lock()
	defer that.mu.Unlock()

	players := make([]int, 0, len(that.connections))
	for slot := range that.connections {
		players = append(players, slot)
	}
	sort.Ints(players)

	return RoomStatus{
		RoomID:           that.id,
		Players:          players,
		Observers:        len(that.observers),
		GameRunning:      that.game.Running,
		WaitingForPlayer: len(that.connections) == 1 && !that.game.Running,
	}
}
