package usecase

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rocketscienceinc/copperhead-backend/internal/apperror"
	"github.com/rocketscienceinc/copperhead-backend/internal/entity"
)

const (
	maxRooms = 10

	minExhibitionDifficulty = 3
	maxExhibitionDifficulty = 8
)

// RoomManager is the process-wide room registry. It owns matchmaking, the
// observer lobby, and the bot pair spawned for observers when no game is on.
type RoomManager struct {
	logger       *slog.Logger
	bots         BotSupervisor
	tickInterval time.Duration

	mu                sync.Mutex
	rooms             map[int]*Room
	lobby             map[string]Sink
	pendingExhibition []int
}

func NewRoomManager(logger *slog.Logger, bots BotSupervisor, tickInterval time.Duration) *RoomManager {
	return &RoomManager{
		logger:       logger.With("component", "rooms"),
		bots:         bots,
		tickInterval: tickInterval,
		rooms:        make(map[int]*Room),
		lobby:        make(map[string]Sink),
	}
}

// FindOrCreateRoom seats a new competitor: the lowest-numbered room waiting
// for a second player wins, otherwise a fresh room is created at the lowest
// free number. The registry lock is held for the whole decision, so two
// concurrent joiners can never end up in the same slot.
func (that *RoomManager) FindOrCreateRoom(sink Sink) (*Room, int, error) {
	log := that.logger.With("method", "FindOrCreateRoom")

	that.mu.Lock()
	defer that.mu.Unlock()

	for _, id := range that.sortedRoomIDsLocked() {
		room := that.rooms[id]
		if !room.IsWaitingForPlayer() {
			continue
		}

		if slot, ok := room.reserveSlot(sink); ok {
			log.Info("player joined waiting room", "room", id, "player", slot)
			return room, slot, nil
		}
	}

	return that.createRoomLocked(sink)
}

// JoinLegacy implements the fixed-slot join: the client names its own player
// number. Player 2 is matched into a waiting room when one exists; otherwise
// the caller gets a fresh room as player 1.
func (that *RoomManager) JoinLegacy(playerID int, sink Sink) (*Room, int, error) {
	if playerID != entity.PlayerOne && playerID != entity.PlayerTwo {
		return nil, 0, apperror.ErrInvalidPlayerID
	}

	log := that.logger.With("method", "JoinLegacy")

	that.mu.Lock()
	defer that.mu.Unlock()

	if playerID == entity.PlayerTwo {
		for _, id := range that.sortedRoomIDsLocked() {
			room := that.rooms[id]
			if !room.IsWaitingForPlayer() {
				continue
			}

			if slot, ok := room.reserveSlot(sink); ok {
				log.Info("player joined waiting room", "room", id, "player", slot)
				return room, slot, nil
			}
		}
	}

	return that.createRoomLocked(sink)
}

func (that *RoomManager) createRoomLocked(sink Sink) (*Room, int, error) {
	for id := 1; id <= maxRooms; id++ {
		if existing, ok := that.rooms[id]; ok && !existing.IsEmpty() {
			continue
		}

		room := newRoom(id, that.logger, that, that.bots, that.tickInterval)
		that.rooms[id] = room

		slot, ok := room.reserveSlot(sink)
		if !ok {
			return nil, 0, fmt.Errorf("reserve slot in fresh room %d: %w", id, apperror.ErrServerFull)
		}

		that.logger.Info("room created", "room", id, "player", slot)

		return room, slot, nil
	}

	return nil, 0, apperror.ErrServerFull
}

// AttachObserver places an observer into a running game when one exists.
// Otherwise it parks the observer in the lobby and spawns a bot-vs-bot
// exhibition; the lobby is drained into the first game that starts.
func (that *RoomManager) AttachObserver(sink Sink) {
	log := that.logger.With("method", "AttachObserver")

	that.mu.Lock()
	active := that.activeRoomsLocked()

	if len(active) == 0 {
		if err := sink.Send(NewObserverLobbyMessage("No active games. Launching bot-vs-bot match...")); err != nil {
			that.mu.Unlock()
			log.Error("failed to greet lobby observer", "error", err)
			return
		}

		that.lobby[sink.ID()] = sink
		that.spawnExhibitionLocked()
		that.mu.Unlock()

		log.Info("observer waiting in lobby")

		return
	}

	room := active[0]
	that.mu.Unlock()

	room.ConnectObserver(sink)
}

// SwitchRoom moves an observer to another room's running game.
func (that *RoomManager) SwitchRoom(sink Sink, roomID int) error {
	that.mu.Lock()

	target, ok := that.rooms[roomID]
	if !ok || !target.IsActive() {
		that.mu.Unlock()
		return fmt.Errorf("switch to room %d: %w", roomID, apperror.ErrRoomNotAvailable)
	}

	that.detachObserverLocked(sink.ID())
	that.mu.Unlock()

	target.ConnectObserver(sink)

	return nil
}

// SendRoomList answers an explicit room-list request from one observer.
func (that *RoomManager) SendRoomList(sink Sink) {
	that.mu.Lock()
	summaries := that.activeSummariesLocked()
	current := that.currentRoomOfLocked(sink.ID())
	that.mu.Unlock()

	if err := sink.Send(NewRoomListMessage(summaries, current)); err != nil {
		that.logger.Error("failed to send room list", "method", "SendRoomList", "error", err)
	}
}

// DetachObserver removes an observer from the lobby or whichever room holds it.
func (that *RoomManager) DetachObserver(observerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.detachObserverLocked(observerID)
}

func (that *RoomManager) detachObserverLocked(observerID string) {
	if _, ok := that.lobby[observerID]; ok {
		delete(that.lobby, observerID)
		that.logger.Info("observer left lobby")
		return
	}

	for _, room := range that.rooms {
		room.DisconnectObserver(observerID)
	}
}

// CleanupEmptyRooms drops rooms with no competitors left. Called after a
// competitor connection closes.
func (that *RoomManager) CleanupEmptyRooms() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for id, room := range that.rooms {
		if room.IsEmpty() {
			delete(that.rooms, id)
			that.logger.Info("empty room removed", "room", id)
		}
	}
}

// notifyGameStarted is called by a room right after its match starts. The
// started room adopts any pending exhibition bots so they die with its reset,
// and every observer learns about the new active game.
func (that *RoomManager) notifyGameStarted(started *Room) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.pendingExhibition) > 0 {
		started.adoptBots(that.pendingExhibition)
		that.pendingExhibition = nil
	}

	that.broadcastRoomListLocked()
}

// notifyGameEnded refreshes observers' room lists after a match finishes.
func (that *RoomManager) notifyGameEnded() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.broadcastRoomListLocked()
}

// broadcastRoomListLocked pushes the active-room list to every observer and
// drains the lobby into the lowest-numbered active room, if any.
func (that *RoomManager) broadcastRoomListLocked() {
	active := that.activeRoomsLocked()
	summaries := summariesOf(active)

	for _, room := range that.rooms {
		room.sendRoomList(summaries)
	}

	if len(active) == 0 {
		message := NewRoomListMessage(nil, nil)
		for _, sink := range that.lobby {
			_ = sink.Send(message)
		}

		return
	}

	if len(that.lobby) == 0 {
		return
	}

	first := active[0]
	current := first.ID()
	message := NewRoomListMessage(summaries, &current)

	for id, sink := range that.lobby {
		first.ConnectObserver(sink)
		_ = sink.Send(message)
		delete(that.lobby, id)
	}

	that.logger.Info("lobby observers joined", "room", first.ID())
}

// spawnExhibitionLocked starts a bot-vs-bot pair with random difficulties.
// At most one pair is pending at a time; the handles move to the room whose
// game starts next.
func (that *RoomManager) spawnExhibitionLocked() {
	if len(that.pendingExhibition) > 0 {
		return
	}

	spread := maxExhibitionDifficulty - minExhibitionDifficulty + 1
	first := minExhibitionDifficulty + rand.Intn(spread)  //nolint: gosec // it's ok
	second := minExhibitionDifficulty + rand.Intn(spread) //nolint: gosec // it's ok

	handles, err := that.bots.SpawnPair(first, second)
	if err != nil {
		that.logger.Error("failed to spawn exhibition bots", "error", err)
		return
	}

	that.pendingExhibition = handles
}

func (that *RoomManager) activeRoomsLocked() []*Room {
	var active []*Room

	for _, id := range that.sortedRoomIDsLocked() {
		if room := that.rooms[id]; room.IsActive() {
			active = append(active, room)
		}
	}

	return active
}

func (that *RoomManager) activeSummariesLocked() []RoomSummary {
	return summariesOf(that.activeRoomsLocked())
}

func summariesOf(rooms []*Room) []RoomSummary {
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}

	return summaries
}

func (that *RoomManager) currentRoomOfLocked(observerID string) *int {
	if _, ok := that.lobby[observerID]; ok {
		return nil
	}

	for _, room := range that.rooms {
		if room.hasObserver(observerID) {
			id := room.ID()
			return &id
		}
	}

	return nil
}

func (that *RoomManager) sortedRoomIDsLocked() []int {
	ids := make([]int, 0, len(that.rooms))
	for id := range that.rooms {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids
}

// Status is the registry view served by the status endpoint.
type Status struct {
	TotalRooms int          `json:"total_rooms"`
	Rooms      []RoomStatus `json:"rooms"`
}

func (that *RoomManager) Status() Status {
	that.mu.Lock()
	defer that.mu.Unlock()

	statuses := make([]RoomStatus, 0, len(that.rooms))
	for _, id := range that.sortedRoomIDsLocked() {
		statuses = append(statuses, that.rooms[id].Status())
	}

	return Status{TotalRooms: len(that.rooms), Rooms: statuses}
}

// ActiveRoomSummaries lists running games for the REST surface.
func (that *RoomManager) ActiveRoomSummaries() []RoomSummary {
	that.mu.Lock()
	defer that.mu.Unlock()

	summaries := that.activeSummariesLocked()
	if summaries == nil {
		summaries = []RoomSummary{}
	}

	return summaries
}
