package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"tune-trivia-service/internal/app"
	"tune-trivia-service/internal/domain"
	"tune-trivia-service/internal/quiz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler runs one quiz engine per websocket connection.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type guessPayload struct {
	Text string `json:"text"`
}

type choicePayload struct {
	Title string `json:"title"`
}

type saveScorePayload struct {
	PlayerName string `json:"playerName"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type playlistPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	SongCount int    `json:"songCount"`
}

// ServeWS upgrades the connection and drives a game session: resolve the
// playlist, start the engine, relay its events out, and route player actions
// in.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playlistParam := r.URL.Query().Get("playlist")
	if playlistParam == "" {
		http.Error(w, "missing playlist", http.StatusBadRequest)
		return
	}
	opts := engineOptions(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()

	engine := quiz.NewEngine(opts)
	engine.BeginLoading()

	playlist, err := h.service.ResolvePlaylist(r.Context(), playlistParam)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	log.Printf("ws session %s: playlist %q (%d songs)", sessionID, playlist.Title, len(playlist.Songs))

	send := make(chan interface{}, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev := <-engine.Events():
				select {
				case send <- ev:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[playlistPayload]{Type: "playlist", Payload: playlistPayload{
		ID:        playlist.ID,
		Title:     playlist.Title,
		SongCount: len(playlist.Songs),
	}}

	if err := engine.Start(playlist); err != nil {
		send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	var submitting atomic.Bool
	var scoreSaved atomic.Bool
	var submitWG sync.WaitGroup

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "guess":
			var payload guessPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid guess payload"}}
				continue
			}
			if _, err := engine.SubmitGuess(payload.Text); err != nil {
				send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "choice":
			var payload choicePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid choice payload"}}
				continue
			}
			if _, err := engine.SelectChoice(payload.Title); err != nil {
				send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "next":
			if err := engine.Advance(); err != nil {
				send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "saveScore":
			var payload saveScorePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid saveScore payload"}}
				continue
			}
			h.saveScore(r, engine, playlist.ID, payload.PlayerName, send, closeSignals, &submitWG, &submitting, &scoreSaved)
		default:
			send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	engine.Stop()
	close(closeSignals)
	<-eventsDone
	// A score submission spawned off the read loop may still hold a reference
	// to send; it must finish before send can be closed.
	submitWG.Wait()
	close(send)
	<-writerDone
	log.Printf("ws session %s closed", sessionID)
}

// saveScore persists the final result off the read loop. At most one
// submission may be outstanding per session; duplicates are rejected, not
// queued.
func (h *WSHandler) saveScore(r *http.Request, engine *quiz.Engine, playlistID, playerName string,
	send chan<- interface{}, closeSignals <-chan struct{}, submitWG *sync.WaitGroup, submitting, scoreSaved *atomic.Bool) {

	snap := engine.Snapshot()
	if snap.State != quiz.StateFinished {
		trySend(send, closeSignals, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "game is not finished"}})
		return
	}
	if scoreSaved.Load() || !submitting.CompareAndSwap(false, true) {
		trySend(send, closeSignals, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: domain.ErrSubmissionPending.Error()}})
		return
	}

	submitWG.Add(1)
	go func() {
		defer submitWG.Done()
		defer submitting.Store(false)
		result, err := h.service.SubmitResult(r.Context(), domain.GameSubmission{
			PlayerName:     playerName,
			PlaylistID:     playlistID,
			Score:          snap.Score,
			TotalQuestions: snap.TotalRounds,
		})
		if err != nil {
			payload := errorPayload{Message: err.Error()}
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				payload = errorPayload{Message: verr.Message, Field: verr.Field}
			}
			trySend(send, closeSignals, outboundMessage[errorPayload]{Type: "error", Payload: payload})
			return
		}
		scoreSaved.Store(true)
		trySend(send, closeSignals, outboundMessage[domain.GameResult]{Type: "scoreSaved", Payload: result})
	}()
}

func trySend(send chan<- interface{}, closeSignals <-chan struct{}, msg interface{}) {
	select {
	case send <- msg:
	case <-closeSignals:
	}
}

func engineOptions(r *http.Request) quiz.Options {
	opts := quiz.Options{Rounds: 5, Mode: quiz.ModeFreeText}
	if rounds, err := strconv.Atoi(r.URL.Query().Get("rounds")); err == nil {
		opts.Rounds = rounds
	}
	if r.URL.Query().Get("mode") == string(quiz.ModeChoices) {
		opts.Mode = quiz.ModeChoices
	}
	if seconds, err := strconv.Atoi(r.URL.Query().Get("seconds")); err == nil && seconds > 0 {
		opts.RoundTime = time.Duration(seconds) * time.Second
	}
	return opts
}
