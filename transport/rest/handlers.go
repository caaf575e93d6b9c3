package rest

import (
	"encoding/json"
	"net/http"

	"github.com/rocketscienceinc/copperhead-backend/internal/usecase"
)

type handlers struct {
	rooms statusProvider
}

func (that *handlers) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, map[string]string{
		"name":   "CopperHead Server",
		"status": "running",
	})
}

func (that *handlers) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, that.rooms.Status())
}

func (that *handlers) activeRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string][]usecase.RoomSummary{
		"rooms": that.rooms.ActiveRoomSummaries(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
