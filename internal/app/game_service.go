package app

import (
	"context"
	"strings"

	"tune-trivia-service/internal/domain"
	"tune-trivia-service/internal/resolver"
)

// PlaylistRepository serves resolved playlists (cached over the resolver).
type PlaylistRepository interface {
	GetPlaylist(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error)
}

// GameStore persists game results and serves per-playlist leaderboards.
type GameStore interface {
	CreateGame(ctx context.Context, submission domain.GameSubmission) (domain.GameResult, error)
	Leaderboard(ctx context.Context, playlistID string) ([]domain.GameResult, error)
}

// GameService contains the game use cases: playlist resolution, validated
// score submission, and leaderboard reads.
type GameService struct {
	playlists PlaylistRepository
	games     GameStore
}

func NewGameService(playlists PlaylistRepository, games GameStore) *GameService {
	return &GameService{playlists: playlists, games: games}
}

// ResolvePlaylist accepts a bare playlist ID or a full playlist URL.
func (s *GameService) ResolvePlaylist(ctx context.Context, input string) (domain.ResolvedPlaylist, error) {
	return s.playlists.GetPlaylist(ctx, resolver.ExtractPlaylistID(input))
}

// SubmitResult validates and persists a finished game.
func (s *GameService) SubmitResult(ctx context.Context, submission domain.GameSubmission) (domain.GameResult, error) {
	submission.PlayerName = strings.TrimSpace(submission.PlayerName)
	if err := validateSubmission(submission); err != nil {
		return domain.GameResult{}, err
	}
	return s.games.CreateGame(ctx, submission)
}

// Leaderboard returns up to the top 10 results for a playlist, score
// descending.
func (s *GameService) Leaderboard(ctx context.Context, playlistID string) ([]domain.GameResult, error) {
	return s.games.Leaderboard(ctx, playlistID)
}

func validateSubmission(submission domain.GameSubmission) error {
	switch {
	case submission.PlayerName == "":
		return domain.NewValidationError("playerName", "player name is required")
	case len(submission.PlayerName) > domain.MaxPlayerNameLen:
		return domain.NewValidationError("playerName", "player name must be 15 characters or fewer")
	case submission.PlaylistID == "":
		return domain.NewValidationError("playlistId", "playlist id is required")
	case submission.Score < 0:
		return domain.NewValidationError("score", "score cannot be negative")
	case submission.TotalQuestions < 1:
		return domain.NewValidationError("totalQuestions", "total questions must be positive")
	}
	return nil
}
