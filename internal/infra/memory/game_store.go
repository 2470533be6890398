package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tune-trivia-service/internal/domain"
)

// GameStore keeps game results in memory; the dev/test stand-in for the
// Postgres store.
type GameStore struct {
	mu      sync.RWMutex
	nextID  int
	results []domain.GameResult
	clock   func() time.Time
}

func NewGameStore() *GameStore {
	return &GameStore{nextID: 1, clock: time.Now}
}

func (s *GameStore) CreateGame(_ context.Context, submission domain.GameSubmission) (domain.GameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := domain.GameResult{
		ID:             s.nextID,
		PlayerName:     submission.PlayerName,
		PlaylistID:     submission.PlaylistID,
		Score:          submission.Score,
		TotalQuestions: submission.TotalQuestions,
		CreatedAt:      s.clock(),
	}
	s.nextID++
	s.results = append(s.results, result)
	return result, nil
}

func (s *GameStore) Leaderboard(_ context.Context, playlistID string) ([]domain.GameResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var top []domain.GameResult
	for _, result := range s.results {
		if result.PlaylistID == playlistID {
			top = append(top, result)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Score > top[j].Score
	})
	if len(top) > domain.LeaderboardSize {
		top = top[:domain.LeaderboardSize]
	}
	return top, nil
}
