package websocket

import (
	"github.com/rocketscienceinc/copperhead-backend/internal/entity"
)

// Message represents an inbound WebSocket message. Action selects the
// operation; the remaining fields are read per action.
type Message struct {
	Action       string           `json:"action"`
	Direction    entity.Direction `json:"direction,omitempty"`
	Mode         string           `json:"mode,omitempty"`
	Name         string           `json:"name,omitempty"`
	AIDifficulty int              `json:"ai_difficulty,omitempty"`
	RoomID       int              `json:"room_id,omitempty"`
}

const (
	actionMove       = "move"
	actionReady      = "ready"
	actionSwitchRoom = "switch_room"
	actionGetRooms   = "get_rooms"
)
