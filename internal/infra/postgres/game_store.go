package postgres

import (
	"context"
	"fmt"

	"tune-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// GameStore persists game results in Postgres.
type GameStore struct {
	pool *pgxpool.Pool
}

func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

func (s *GameStore) CreateGame(ctx context.Context, submission domain.GameSubmission) (domain.GameResult, error) {
	result := domain.GameResult{
		PlayerName:     submission.PlayerName,
		PlaylistID:     submission.PlaylistID,
		Score:          submission.Score,
		TotalQuestions: submission.TotalQuestions,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO games (player_name, playlist_id, score, total_questions)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		submission.PlayerName, submission.PlaylistID, submission.Score, submission.TotalQuestions,
	).Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		return domain.GameResult{}, fmt.Errorf("insert game: %w", err)
	}
	return result, nil
}

func (s *GameStore) Leaderboard(ctx context.Context, playlistID string) ([]domain.GameResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, player_name, playlist_id, score, total_questions, created_at
		 FROM games
		 WHERE playlist_id = $1
		 ORDER BY score DESC
		 LIMIT $2`,
		playlistID, domain.LeaderboardSize,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var top []domain.GameResult
	for rows.Next() {
		var result domain.GameResult
		if err := rows.Scan(&result.ID, &result.PlayerName, &result.PlaylistID, &result.Score, &result.TotalQuestions, &result.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		top = append(top, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return top, nil
}
