package redis

import (
	"context"
	"encoding/json"
	"time"

	"tune-trivia-service/internal/app"
	"tune-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// CachedGameStore decorates a GameStore with a Redis leaderboard cache:
// GET/SET leaderboard:{playlistID} {json} EX ttl
// CreateGame deletes the playlist's cached leaderboard so the next read
// includes the new entry.
type CachedGameStore struct {
	client *redis.Client
	inner  app.GameStore
	ttl    time.Duration
}

func NewCachedGameStore(client *redis.Client, inner app.GameStore, ttl time.Duration) *CachedGameStore {
	return &CachedGameStore{client: client, inner: inner, ttl: ttl}
}

func (s *CachedGameStore) CreateGame(ctx context.Context, submission domain.GameSubmission) (domain.GameResult, error) {
	result, err := s.inner.CreateGame(ctx, submission)
	if err != nil {
		return domain.GameResult{}, err
	}
	// best-effort invalidation; a stale read is worse than a miss
	_ = s.client.Del(ctx, s.key(submission.PlaylistID)).Err()
	return result, nil
}

func (s *CachedGameStore) Leaderboard(ctx context.Context, playlistID string) ([]domain.GameResult, error) {
	key := s.key(playlistID)

	if raw, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var cached []domain.GameResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	top, err := s.inner.Leaderboard(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(top); err == nil {
		_ = s.client.Set(ctx, key, raw, s.ttl).Err()
	}
	return top, nil
}

func (s *CachedGameStore) key(playlistID string) string {
	return "leaderboard:" + playlistID
}
