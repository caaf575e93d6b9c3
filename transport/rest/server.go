package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rocketscienceinc/copperhead-backend/internal/usecase"
)

// statusProvider is the read-only registry view the REST surface serves.
type statusProvider interface {
	Status() usecase.Status
	ActiveRoomSummaries() []usecase.RoomSummary
}

func Start(port string, rooms statusProvider) error {
	h := &handlers{rooms: rooms}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.root)
	mux.HandleFunc("/ping", h.ping)
	mux.HandleFunc("/status", h.status)
	mux.HandleFunc("/rooms/active", h.activeRooms)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
