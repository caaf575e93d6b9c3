package usecase

import "github.com/rocketscienceinc/copperhead-backend/internal/entity"

// Outbound message shapes. Clients switch on the type discriminator.
const (
	typeJoined         = "joined"
	typeWaiting        = "waiting"
	typeStart          = "start"
	typeState          = "state"
	typeGameOver       = "gameover"
	typeObserverJoined = "observer_joined"
	typeObserverLobby  = "observer_lobby"
	typeRoomList       = "room_list"
	typeError          = "error"
)

type JoinedMessage struct {
	Type     string `json:"type"`
	RoomID   int    `json:"room_id"`
	PlayerID int    `json:"player_id"`
}

func NewJoinedMessage(roomID, playerID int) JoinedMessage {
	return JoinedMessage{Type: typeJoined, RoomID: roomID, PlayerID: playerID}
}

type WaitingMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewWaitingMessage(text string) WaitingMessage {
	return WaitingMessage{Type: typeWaiting, Message: text}
}

type StartMessage struct {
	Type   string `json:"type"`
	Mode   string `json:"mode"`
	RoomID int    `json:"room_id"`
}

func NewStartMessage(mode string, roomID int) StartMessage {
	return StartMessage{Type: typeStart, Mode: mode, RoomID: roomID}
}

type StateMessage struct {
	Type   string         `json:"type"`
	Game   *entity.Game   `json:"game"`
	Wins   map[int]int    `json:"wins"`
	Names  map[int]string `json:"names"`
	RoomID int            `json:"room_id"`
}

type GameOverMessage struct {
	Type   string         `json:"type"`
	Winner *int           `json:"winner"`
	Wins   map[int]int    `json:"wins"`
	Names  map[int]string `json:"names"`
	RoomID int            `json:"room_id"`
}

type ObserverJoinedMessage struct {
	Type   string         `json:"type"`
	RoomID int            `json:"room_id"`
	Game   *entity.Game   `json:"game"`
	Wins   map[int]int    `json:"wins"`
	Names  map[int]string `json:"names"`
}

type ObserverLobbyMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewObserverLobbyMessage(text string) ObserverLobbyMessage {
	return ObserverLobbyMessage{Type: typeObserverLobby, Message: text}
}

// RoomSummary is one entry in a room_list message: just enough for an
// observer to pick a room to watch.
type RoomSummary struct {
	RoomID int            `json:"room_id"`
	Names  map[int]string `json:"names"`
	Wins   map[int]int    `json:"wins"`
}

type RoomListMessage struct {
	Type        string        `json:"type"`
	Rooms       []RoomSummary `json:"rooms"`
	CurrentRoom *int          `json:"current_room"`
}

func NewRoomListMessage(rooms []RoomSummary, currentRoom *int) RoomListMessage {
	if rooms == nil {
		rooms = []RoomSummary{}
	}
	return RoomListMessage{Type: typeRoomList, Rooms: rooms, CurrentRoom: currentRoom}
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorMessage(text string) ErrorMessage {
	return ErrorMessage{Type: typeError, Message: text}
}
