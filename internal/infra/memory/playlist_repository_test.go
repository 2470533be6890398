package memory

import (
	"context"
	"testing"
	"time"

	"tune-trivia-service/internal/domain"
)

func TestPlaylistRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		PlaylistLoader: NewStaticPlaylistLoader(map[string]domain.ResolvedPlaylist{
			"pl-1": samplePlaylist(),
		}),
	}
	repo := NewPlaylistRepository(loader, time.Minute)

	if _, err := repo.GetPlaylist(context.Background(), "pl-1"); err != nil {
		t.Fatalf("get playlist: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetPlaylist(context.Background(), "pl-1"); err != nil {
		t.Fatalf("get playlist 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestPlaylistRepositoryMiss(t *testing.T) {
	repo := NewPlaylistRepository(NewStaticPlaylistLoader(nil), time.Minute)
	if _, err := repo.GetPlaylist(context.Background(), "missing"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type countingLoader struct {
	PlaylistLoader
	calls int
}

func (l *countingLoader) Resolve(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error) {
	l.calls++
	return l.PlaylistLoader.Resolve(ctx, playlistID)
}

func samplePlaylist() domain.ResolvedPlaylist {
	return domain.ResolvedPlaylist{
		ID:    "pl-1",
		Title: "Test Mix",
		Songs: []domain.PlaylistSong{
			{ID: "v1", Title: "Alpha Song", Thumbnail: "http://t/v1"},
			{ID: "v2", Title: "Bravo Song", Thumbnail: "http://t/v2"},
		},
	}
}
