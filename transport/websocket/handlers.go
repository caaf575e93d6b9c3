package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/copperhead-backend/internal/apperror"
	"github.com/rocketscienceinc/copperhead-backend/internal/entity"
	"github.com/rocketscienceinc/copperhead-backend/internal/usecase"
)

// handleJoin seats a competitor through matchmaking.
func (that *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleJoin")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	sink := newClient(conn)

	room, playerID, err := that.rooms.FindOrCreateRoom(sink)
	if err != nil {
		log.Error("failed to seat player", "error", err)
		sink.closeWith(closeServerFull, "Server full - no room available")

		return
	}

	that.servePlayer(sink, room, playerID)
}

// handleLegacyJoin seats a competitor under the slot named in the URL path,
// the protocol older clients speak.
func (that *Server) handleLegacyJoin(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleLegacyJoin")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	sink := newClient(conn)

	requested, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/ws/"))
	if err != nil {
		sink.closeWith(closeInvalidPlayerID, "Invalid player_id. Use /ws/join instead.")
		return
	}

	room, playerID, err := that.rooms.JoinLegacy(requested, sink)
	switch {
	case errors.Is(err, apperror.ErrInvalidPlayerID):
		sink.closeWith(closeInvalidPlayerID, "Invalid player_id. Use /ws/join instead.")
		return
	case err != nil:
		log.Error("failed to seat player", "error", err)
		sink.closeWith(closeServerFull, "Server full - no room available")

		return
	}

	that.servePlayer(sink, room, playerID)
}

// servePlayer confirms the seat, then pumps inbound actions into the room
// until the connection drops. Any exit resets the room and sweeps it if empty.
func (that *Server) servePlayer(sink *client, room *usecase.Room, playerID int) {
	log := that.logger.With("method", "servePlayer", "room", room.ID(), "player", playerID)

	defer func() {
		_ = sink.conn.Close()
		room.DisconnectPlayer(playerID)
		that.rooms.CleanupEmptyRooms()
		log.Info("player connection closed")
	}()

	if err := sink.Send(usecase.NewJoinedMessage(room.ID(), playerID)); err != nil {
		log.Error("failed to send joined message", "error", err)
		return
	}

	room.BroadcastState()

	log.Info("player connected")

	for {
		_, data, err := sink.conn.ReadMessage()
		if err != nil {
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		switch message.Action {
		case actionMove:
			if message.Direction.IsValid() {
				room.HandleMove(playerID, message.Direction)
			}
		case actionReady:
			mode := message.Mode
			if mode == "" {
				mode = entity.ModeTwoPlayer
			}

			room.HandleReady(playerID, mode, message.Name, message.AIDifficulty)
		}
	}
}

// handleObserve attaches a read-only spectator.
func (that *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleObserve")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	sink := newClient(conn)

	that.rooms.AttachObserver(sink)

	defer func() {
		_ = conn.Close()
		that.rooms.DetachObserver(sink.ID())
		log.Info("observer connection closed")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		switch message.Action {
		case actionSwitchRoom:
			if err = that.rooms.SwitchRoom(sink, message.RoomID); err != nil {
				_ = sink.Send(usecase.NewErrorMessage(fmt.Sprintf("Room %d not available", message.RoomID)))
			}
		case actionGetRooms:
			that.rooms.SendRoomList(sink)
		}
	}
}
