package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// Application close codes sent to clients that cannot be served.
const (
	closeInvalidPlayerID = 4000
	closeServerFull      = 4002
)

// client adapts one WebSocket connection to the sink rooms broadcast to.
// Writes are serialized because the tick loop and the read loop may send
// concurrently on the same connection.
type client struct {
	id   string
	conn *websocket.Conn

	mu sync.Mutex
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:   uuid.NewString(),
		conn: conn,
	}
}

func (that *client) ID() string {
	return that.id
}

func (that *client) Send(message any) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// closeWith sends a close frame with the given code and reason, then drops
// the connection.
func (that *client) closeWith(code int, reason string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	frame := websocket.FormatCloseMessage(code, reason)
	_ = that.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeTimeout))
	_ = that.conn.Close()
}
