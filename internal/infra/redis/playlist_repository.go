package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"tune-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// PlaylistLoader resolves playlist content from upstream (the strategy
// chain).
type PlaylistLoader interface {
	Resolve(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error)
}

// PlaylistRepository caches resolved playlists in Redis as JSON values:
// SET playlist:{playlistID} {json} EX ttl
// and falls back to the loader on cache miss.
type PlaylistRepository struct {
	client *redis.Client
	loader PlaylistLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewPlaylistRepository(client *redis.Client, loader PlaylistLoader, ttl time.Duration) *PlaylistRepository {
	return &PlaylistRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (r *PlaylistRepository) GetPlaylist(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error) {
	key := r.key(playlistID)

	if playlist, ok := r.cached(ctx, key); ok {
		return playlist, nil
	}

	result, err, _ := r.sf.Do(playlistID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if playlist, ok := r.cached(ctx, key); ok {
			return playlist, nil
		}

		playlist, err := r.loader.Resolve(ctx, playlistID)
		if err != nil {
			return domain.ResolvedPlaylist{}, err
		}

		if raw, err := json.Marshal(playlist); err == nil {
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return playlist, nil
	})
	if err != nil {
		return domain.ResolvedPlaylist{}, err
	}
	return result.(domain.ResolvedPlaylist), nil
}

func (r *PlaylistRepository) cached(ctx context.Context, key string) (domain.ResolvedPlaylist, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.ResolvedPlaylist{}, false
	}
	var playlist domain.ResolvedPlaylist
	if err := json.Unmarshal(raw, &playlist); err != nil || len(playlist.Songs) == 0 {
		return domain.ResolvedPlaylist{}, false
	}
	return playlist, true
}

func (r *PlaylistRepository) key(playlistID string) string {
	return "playlist:" + playlistID
}

func (r *PlaylistRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// Concurrent fills for different keys share this path; the global source
	// is locked, a per-repository rand.Rand is not.
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
