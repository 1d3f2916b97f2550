package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"easel/internal/hub"
)

// API serves the read-only HTTP surface next to the WebSocket endpoint.
// Everything it reports comes from the live registry; rooms have no
// existence beyond their connected participants.
type API struct {
	registry *hub.Registry
}

func New(registry *hub.Registry) *API {
	return &API{registry: registry}
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, clients := a.registry.Counts()
	jsonResponse(w, http.StatusOK, map[string]any{
		"active_rooms":   rooms,
		"active_clients": clients,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

type RoomResponse struct {
	ID          string `json:"id"`
	ActiveUsers int    `json:"active_users"`
	StrokeCount int    `json:"stroke_count"`
}

func (a *API) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms := a.registry.Rooms()

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, RoomResponse{
			ID:          room.ID(),
			ActiveUsers: room.ParticipantCount(),
			StrokeCount: room.Board().StrokeCount(),
		})
	}

	jsonResponse(w, http.StatusOK, map[string]any{"rooms": response})
}

func (a *API) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		errorResponse(w, http.StatusBadRequest, "Room ID is required")
		return
	}

	room, ok := a.registry.Get(roomID)
	if !ok {
		errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	jsonResponse(w, http.StatusOK, RoomResponse{
		ID:          room.ID(),
		ActiveUsers: room.ParticipantCount(),
		StrokeCount: room.Board().StrokeCount(),
	})
}
