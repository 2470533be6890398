package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tune-trivia-service/internal/domain"
)

const (
	defaultAPIBaseURL = "https://www.googleapis.com/youtube/v3"

	apiPageSize = 50
	apiMaxPages = 4 // 4 pages of 50 = 200 songs

	itemsCallTimeout = 7 * time.Second
	titleCallTimeout = 5 * time.Second

	fallbackPlaylistTitle = "YouTube Playlist"
)

// DataAPIStrategy is the primary strategy: the official YouTube Data API v3.
// It pages through playlistItems up to the page cap, skips deleted/private
// placeholders, then issues one more call for the playlist title.
type DataAPIStrategy struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewDataAPIStrategy(apiKey string, client *http.Client) *DataAPIStrategy {
	return &DataAPIStrategy{apiKey: apiKey, baseURL: defaultAPIBaseURL, client: client}
}

func (s *DataAPIStrategy) Name() string { return "data-api" }

func (s *DataAPIStrategy) Fetch(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error) {
	var songs []domain.PlaylistSong
	pageToken := ""

	for page := 0; page < apiMaxPages; page++ {
		resp, err := s.fetchItemsPage(ctx, playlistID, pageToken)
		if err != nil {
			return domain.ResolvedPlaylist{}, err
		}
		for _, item := range resp.Items {
			snippet := item.Snippet
			if snippet.ResourceID.VideoID == "" {
				continue
			}
			if snippet.Title == "Deleted video" || snippet.Title == "Private video" {
				continue
			}
			thumbnail := snippet.Thumbnails.Medium.URL
			if thumbnail == "" {
				thumbnail = snippet.Thumbnails.Default.URL
			}
			if thumbnail == "" {
				thumbnail = thumbnailURL(snippet.ResourceID.VideoID)
			}
			songs = append(songs, domain.PlaylistSong{
				ID:        snippet.ResourceID.VideoID,
				Title:     snippet.Title,
				Thumbnail: thumbnail,
			})
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if len(songs) == 0 {
		return domain.ResolvedPlaylist{}, domain.ErrNotFound
	}

	// Title failures never sink a resolution that already has songs.
	title, err := s.fetchTitle(ctx, playlistID)
	if err != nil || title == "" {
		title = fallbackPlaylistTitle
	}

	return domain.ResolvedPlaylist{ID: playlistID, Title: title, Songs: songs}, nil
}

type apiThumbnail struct {
	URL string `json:"url"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title      string `json:"title"`
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
			Thumbnails struct {
				Medium  apiThumbnail `json:"medium"`
				Default apiThumbnail `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type playlistsResponse struct {
	Items []struct {
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

func (s *DataAPIStrategy) fetchItemsPage(ctx context.Context, playlistID, pageToken string) (playlistItemsResponse, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("playlistId", playlistID)
	params.Set("maxResults", fmt.Sprintf("%d", apiPageSize))
	params.Set("key", s.apiKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var resp playlistItemsResponse
	if err := s.getJSON(ctx, itemsCallTimeout, s.baseURL+"/playlistItems?"+params.Encode(), &resp); err != nil {
		return playlistItemsResponse{}, err
	}
	return resp, nil
}

func (s *DataAPIStrategy) fetchTitle(ctx context.Context, playlistID string) (string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", playlistID)
	params.Set("key", s.apiKey)

	var resp playlistsResponse
	if err := s.getJSON(ctx, titleCallTimeout, s.baseURL+"/playlists?"+params.Encode(), &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].Snippet.Title, nil
}

func (s *DataAPIStrategy) getJSON(ctx context.Context, timeout time.Duration, rawURL string, out interface{}) error {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return domain.ErrUpstreamTimeout
		}
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: youtube api status %d", domain.ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode youtube api response: %v", domain.ErrUpstream, err)
	}
	return nil
}
