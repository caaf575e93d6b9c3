package usecase

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/copperhead-backend/internal/apperror"
	"github.com/rocketscienceinc/copperhead-backend/internal/entity"
)

func TestRoomManager_FindOrCreateRoom(t *testing.T) {
	t.Run("pairs two players into one room", func(t *testing.T) {
		// Given: an empty registry.
		manager, _ := newTestManager()

		// When: two players join.
		first, slot1, err := manager.FindOrCreateRoom(newFakeSink("a"))
		require.NoError(t, err)

		second, slot2, err := manager.FindOrCreateRoom(newFakeSink("b"))
		require.NoError(t, err)

		// Then: they share room 1 with distinct slots.
		assert.Equal(t, 1, first.ID())
		assert.Equal(t, first.ID(), second.ID())
		assert.Equal(t, entity.PlayerOne, slot1)
		assert.Equal(t, entity.PlayerTwo, slot2)
	})

	t.Run("concurrent joins never share a seat", func(t *testing.T) {
		// Given: an empty registry and the full capacity of players.
		manager, _ := newTestManager()

		type seat struct {
			room int
			slot int
		}

		const players = 20

		results := make(chan seat, players)

		// When: everyone joins at once.
		var wg sync.WaitGroup
		for i := 0; i < players; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()

				room, slot, err := manager.FindOrCreateRoom(newFakeSink(fmt.Sprintf("p-%d", n)))
				if assert.NoError(t, err) {
					results <- seat{room: room.ID(), slot: slot}
				}
			}(i)
		}
		wg.Wait()
		close(results)

		// Then: every player got a unique seat.
		taken := make(map[seat]bool)
		for s := range results {
			assert.False(t, taken[s], "seat %+v handed out twice", s)
			taken[s] = true
		}
		assert.Len(t, taken, players)
	})

	t.Run("rejects players beyond capacity", func(t *testing.T) {
		// Given: a registry at full capacity.
		manager, _ := newTestManager()
		for i := 0; i < maxRooms*2; i++ {
			_, _, err := manager.FindOrCreateRoom(newFakeSink(fmt.Sprintf("p-%d", i)))
			require.NoError(t, err)
		}

		// When: one more player tries to join.
		_, _, err := manager.FindOrCreateRoom(newFakeSink("p-overflow"))

		// Then: the join is refused.
		require.ErrorIs(t, err, apperror.ErrServerFull)
	})

	t.Run("reuses the lowest freed room number", func(t *testing.T) {
		// Given: rooms 1 and 2 occupied, then room 1 fully emptied.
		manager, _ := newTestManager()

		room1, _, _ := seatPair(t, manager)
		require.Equal(t, 1, room1.ID())

		room2, _, err := manager.FindOrCreateRoom(newFakeSink("c"))
		require.NoError(t, err)
		require.Equal(t, 2, room2.ID())

		room1.DisconnectPlayer(entity.PlayerOne)
		room1.DisconnectPlayer(entity.PlayerTwo)
		manager.CleanupEmptyRooms()

		// When: a new player joins.
		fresh, slot, err := manager.FindOrCreateRoom(newFakeSink("d"))
		require.NoError(t, err)

		// Then: room 2 still waits for its second player, so the waiting
		// room wins over creating a fresh one.
		assert.Equal(t, 2, fresh.ID())
		assert.Equal(t, entity.PlayerTwo, slot)

		// And: the next player after that lands in the freed room 1.
		next, slot, err := manager.FindOrCreateRoom(newFakeSink("e"))
		require.NoError(t, err)
		assert.Equal(t, 1, next.ID())
		assert.Equal(t, entity.PlayerOne, slot)
	})
}

func TestRoomManager_JoinLegacy(t *testing.T) {
	t.Run("rejects unknown player ids", func(t *testing.T) {
		manager, _ := newTestManager()

		_, _, err := manager.JoinLegacy(3, newFakeSink("a"))

		require.ErrorIs(t, err, apperror.ErrInvalidPlayerID)
	})

	t.Run("player 2 joins the waiting room", func(t *testing.T) {
		// Given: a room with a lone player 1.
		manager, _ := newTestManager()
		room, slot, err := manager.JoinLegacy(entity.PlayerOne, newFakeSink("a"))
		require.NoError(t, err)
		require.Equal(t, entity.PlayerOne, slot)

		// When: a player 2 arrives.
		sameRoom, slot, err := manager.JoinLegacy(entity.PlayerTwo, newFakeSink("b"))
		require.NoError(t, err)

		// Then: it lands in the same room on slot 2.
		assert.Equal(t, room.ID(), sameRoom.ID())
		assert.Equal(t, entity.PlayerTwo, slot)
	})

	t.Run("player 2 with nobody waiting opens a fresh room", func(t *testing.T) {
		manager, _ := newTestManager()

		room, slot, err := manager.JoinLegacy(entity.PlayerTwo, newFakeSink("a"))
		require.NoError(t, err)

		assert.Equal(t, 1, room.ID())
		assert.Equal(t, entity.PlayerOne, slot)
	})
}

func TestRoomManager_AttachObserver(t *testing.T) {
	t.Run("no active games parks the observer and launches an exhibition", func(t *testing.T) {
		// Given: a registry with no running game.
		manager, bots := newTestManager()
		observer := newFakeSink("observer-1")

		// When: the observer connects.
		manager.AttachObserver(observer)

		// Then: it is greeted and a bot pair is launched.
		messages := observer.snapshot()
		require.Len(t, messages, 1)

		lobby, ok := messages[0].(ObserverLobbyMessage)
		require.True(t, ok)
		assert.Equal(t, "No active games. Launching bot-vs-bot match...", lobby.Message)

		spawned := bots.spawned()
		require.Len(t, spawned, 2)
		for _, difficulty := range spawned {
			assert.GreaterOrEqual(t, difficulty, minExhibitionDifficulty)
			assert.LessOrEqual(t, difficulty, maxExhibitionDifficulty)
		}
	})

	t.Run("second lobby observer does not launch another exhibition", func(t *testing.T) {
		manager, bots := newTestManager()

		manager.AttachObserver(newFakeSink("observer-1"))
		manager.AttachObserver(newFakeSink("observer-2"))

		assert.Len(t, bots.spawned(), 2)
	})

	t.Run("observer joins a running game directly", func(t *testing.T) {
		// Given: a running game.
		manager, _ := newTestManager()
		room, _, _ := seatPair(t, manager)
		room.HandleReady(entity.PlayerOne, entity.ModeTwoPlayer, "Alice", 0)
		room.HandleReady(entity.PlayerTwo, entity.ModeTwoPlayer, "Bob", 0)
		require.True(t, room.IsActive())

		// When: an observer connects.
		observer := newFakeSink("observer-1")
		manager.AttachObserver(observer)

		// Then: it receives the room snapshot straight away.
		messages := observer.snapshot()
		require.NotEmpty(t, messages)

		joined, ok := messages[0].(ObserverJoinedMessage)
		require.True(t, ok)
		assert.Equal(t, room.ID(), joined.RoomID)

		room.DisconnectPlayer(entity.PlayerOne)
	})

	t.Run("lobby drains into the first game that starts", func(t *testing.T) {
		// Given: an observer parked in the lobby.
		manager, bots := newTestManager()
		observer := newFakeSink("observer-1")
		manager.AttachObserver(observer)

		// When: a game starts.
		room, _, _ := seatPair(t, manager)
		room.HandleReady(entity.PlayerOne, entity.ModeTwoPlayer, "Alice", 0)
		room.HandleReady(entity.PlayerTwo, entity.ModeTwoPlayer, "Bob", 0)

		// Then: the observer is moved into that room.
		require.Eventually(t, func() bool {
			return room.hasObserver(observer.ID())
		}, 2*time.Second, testTickInterval)

		var foundRoomList bool
		for _, message := range observer.snapshot() {
			if list, ok := message.(RoomListMessage); ok {
				foundRoomList = true
				require.NotNil(t, list.CurrentRoom)
				assert.Equal(t, room.ID(), *list.CurrentRoom)
			}
		}
		assert.True(t, foundRoomList)

		// And: the exhibition bots now belong to the room, so a disconnect
		// terminates them.
		room.DisconnectPlayer(entity.PlayerOne)
		assert.Len(t, bots.terminatedHandles(), 2)
	})
}

func TestRoomManager_SwitchRoom(t *testing.T) {
	t.Run("fails for a room without a running game", func(t *testing.T) {
		manager, _ := newTestManager()
		observer := newFakeSink("observer-1")
		manager.AttachObserver(observer)

		err := manager.SwitchRoom(observer, 3)

		require.ErrorIs(t, err, apperror.ErrRoomNotAvailable)
	})

	t.Run("moves the observer between running games", func(t *testing.T) {
		// Given: two running games with an observer on the first.
		manager, _ := newTestManager()

		room1, _, _ := seatPair(t, manager)
		room1.HandleReady(entity.PlayerOne, entity.ModeTwoPlayer, "Alice", 0)
		room1.HandleReady(entity.PlayerTwo, entity.ModeTwoPlayer, "Bob", 0)

		room2, _, _ := seatPair(t, manager)
		require.NotEqual(t, room1.ID(), room2.ID())
		room2.HandleReady(entity.PlayerOne, entity.ModeTwoPlayer, "Cara", 0)
		room2.HandleReady(entity.PlayerTwo, entity.ModeTwoPlayer, "Dan", 0)

		observer := newFakeSink("observer-1")
		manager.AttachObserver(observer)
		require.True(t, room1.hasObserver(observer.ID()))

		// When: the observer switches to the second game.
		err := manager.SwitchRoom(observer, room2.ID())
		require.NoError(t, err)

		// Then: it left the first room and watches the second.
		assert.False(t, room1.hasObserver(observer.ID()))
		assert.True(t, room2.hasObserver(observer.ID()))

		room1.DisconnectPlayer(entity.PlayerOne)
		room2.DisconnectPlayer(entity.PlayerOne)
	})
}

func TestRoomManager_Status(t *testing.T) {
	// Given: one waiting room and one running game.
	manager, _ := newTestManager()

	room1, _, _ := seatPair(t, manager)
	room1.HandleReady(entity.PlayerOne, entity.ModeTwoPlayer, "Alice", 0)
	room1.HandleReady(entity.PlayerTwo, entity.ModeTwoPlayer, "Bob", 0)

	_, _, err := manager.FindOrCreateRoom(newFakeSink("c"))
	require.NoError(t, err)

	// When: the status is read.
	status := manager.Status()

	// Then: it reflects both rooms.
	require.Equal(t, 2, status.TotalRooms)
	require.Len(t, status.Rooms, 2)

	assert.Equal(t, 1, status.Rooms[0].RoomID)
	assert.True(t, status.Rooms[0].GameRunning)
	assert.Equal(t, []int{entity.PlayerOne, entity.PlayerTwo}, status.Rooms[0].Players)

	assert.Equal(t, 2, status.Rooms[1].RoomID)
	assert.False(t, status.Rooms[1].GameRunning)
	assert.True(t, status.Rooms[1].WaitingForPlayer)

	summaries := manager.ActiveRoomSummaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].RoomID)
	assert.Equal(t, "Alice", summaries[0].Names[entity.PlayerOne])

	room1.DisconnectPlayer(entity.PlayerOne)
}
