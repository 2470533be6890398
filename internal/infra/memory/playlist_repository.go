package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"tune-trivia-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// PlaylistLoader resolves playlist content from upstream (the strategy
// chain).
type PlaylistLoader interface {
	Resolve(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error)
}

// PlaylistRepository caches resolved playlists with TTL so a game session
// does not re-run the resolution chain on every request.
type PlaylistRepository struct {
	loader PlaylistLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedPlaylist
}

type cachedPlaylist struct {
	playlist  domain.ResolvedPlaylist
	expiresAt time.Time
}

func NewPlaylistRepository(loader PlaylistLoader, ttl time.Duration) *PlaylistRepository {
	return &PlaylistRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[string]cachedPlaylist),
	}
}

func (r *PlaylistRepository) GetPlaylist(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[playlistID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.playlist, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(playlistID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[playlistID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.playlist, nil
		}
		r.mu.RUnlock()

		playlist, err := r.loader.Resolve(ctx, playlistID)
		if err != nil {
			return domain.ResolvedPlaylist{}, err
		}

		r.mu.Lock()
		r.cache[playlistID] = cachedPlaylist{
			playlist:  playlist,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return playlist, nil
	})
	if err != nil {
		return domain.ResolvedPlaylist{}, err
	}
	return result.(domain.ResolvedPlaylist), nil
}

func (r *PlaylistRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations; the global source is
	// locked, a per-repository rand.Rand is not
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int63n(jitterMax+1))
}

// StaticPlaylistLoader serves playlists from a fixed map (tests/demos).
type StaticPlaylistLoader struct {
	playlists map[string]domain.ResolvedPlaylist
}

func NewStaticPlaylistLoader(playlists map[string]domain.ResolvedPlaylist) *StaticPlaylistLoader {
	return &StaticPlaylistLoader{playlists: playlists}
}

func (l *StaticPlaylistLoader) Resolve(_ context.Context, playlistID string) (domain.ResolvedPlaylist, error) {
	if playlist, ok := l.playlists[playlistID]; ok {
		return playlist, nil
	}
	return domain.ResolvedPlaylist{}, domain.ErrNotFound
}
