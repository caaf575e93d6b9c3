package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/copperhead-backend/internal/usecase"
)

// roomRegistry is the matchmaking surface the transport drives. Rooms
// themselves are handed back so the read loop can route actions to them
// without going through the registry on every message.
type roomRegistry interface {
	FindOrCreateRoom(sink usecase.Sink) (*usecase.Room, int, error)
	JoinLegacy(playerID int, sink usecase.Sink) (*usecase.Room, int, error)

	AttachObserver(sink usecase.Sink)
	SwitchRoom(sink usecase.Sink, roomID int) error
	SendRoomList(sink usecase.Sink)
	DetachObserver(observerID string)

	CleanupEmptyRooms()
}

type Server struct {
	logger *slog.Logger
	rooms  roomRegistry

	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, rooms roomRegistry) *Server {
	return &Server{
		logger: logger.With("component", "websocket"),
		rooms:  rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/join", that.handleJoin)
	mux.HandleFunc("/ws/observe", that.handleObserve)
	mux.HandleFunc("/ws/", that.handleLegacyJoin)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
