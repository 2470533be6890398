package resolver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kkdai/youtube/v2"

	"tune-trivia-service/internal/domain"
)

// libraryItemCap bounds how many entries the library strategy takes.
const libraryItemCap = 100

// LibraryStrategy is the secondary strategy, backed by the kkdai/youtube
// playlist client. Accepted only when it yields at least one entry.
type LibraryStrategy struct {
	client youtube.Client
	cap    int
}

func NewLibraryStrategy(httpClient *http.Client) *LibraryStrategy {
	return &LibraryStrategy{
		client: youtube.Client{HTTPClient: httpClient},
		cap:    libraryItemCap,
	}
}

func (s *LibraryStrategy) Name() string { return "library" }

func (s *LibraryStrategy) Fetch(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error) {
	playlist, err := s.client.GetPlaylistContext(ctx, playlistID)
	if err != nil {
		return domain.ResolvedPlaylist{}, fmt.Errorf("%w: playlist listing: %v", domain.ErrUpstream, err)
	}

	songs := make([]domain.PlaylistSong, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		if len(songs) >= s.cap {
			break
		}
		if entry == nil || entry.ID == "" {
			continue
		}
		thumbnail := ""
		if len(entry.Thumbnails) > 0 {
			thumbnail = entry.Thumbnails[0].URL
		}
		if thumbnail == "" {
			thumbnail = thumbnailURL(entry.ID)
		}
		songs = append(songs, domain.PlaylistSong{
			ID:        entry.ID,
			Title:     entry.Title,
			Thumbnail: thumbnail,
		})
	}
	if len(songs) == 0 {
		return domain.ResolvedPlaylist{}, domain.ErrNotFound
	}

	title := playlist.Title
	if title == "" {
		title = fallbackPlaylistTitle
	}
	id := playlist.ID
	if id == "" {
		id = playlistID
	}
	return domain.ResolvedPlaylist{ID: id, Title: title, Songs: songs}, nil
}
