package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tune-trivia-service/internal/app"
	"tune-trivia-service/internal/domain"
)

// APIHandler serves the REST surface consumed by the game client.
type APIHandler struct {
	service *app.GameService
}

func NewAPIHandler(service *app.GameService) *APIHandler {
	return &APIHandler{service: service}
}

// Register mounts the API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/playlist/{id}", h.getPlaylist)
	mux.HandleFunc("POST /api/games", h.createGame)
	mux.HandleFunc("GET /api/games/leaderboard/{playlistId}", h.getLeaderboard)
}

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (h *APIHandler) getPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.service.ResolvePlaylist(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (h *APIHandler) createGame(w http.ResponseWriter, r *http.Request) {
	var submission domain.GameSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	result, err := h.service.SubmitResult(r.Context(), submission)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *APIHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := h.service.Leaderboard(r.Context(), r.PathValue("playlistId"))
	if err != nil {
		writeError(w, err)
		return
	}
	if top == nil {
		top = []domain.GameResult{}
	}
	writeJSON(w, http.StatusOK, top)
}

func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: verr.Message, Field: verr.Field})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrUpstreamTimeout):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		log.Printf("api error: %v", err)
	}
	writeJSON(w, status, errorResponse{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
