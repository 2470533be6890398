package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tune-trivia-service/internal/domain"
)

func newTestDataAPI(t *testing.T, handler http.Handler) (*DataAPIStrategy, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	strategy := NewDataAPIStrategy("test-key", server.Client())
	strategy.baseURL = server.URL
	return strategy, server
}

func itemJSON(videoID, title, mediumURL, defaultURL string) string {
	return fmt.Sprintf(`{"snippet":{"title":%q,"resourceId":{"videoId":%q},"thumbnails":{"medium":{"url":%q},"default":{"url":%q}}}}`,
		title, videoID, mediumURL, defaultURL)
}

func TestDataAPIPagesAndFilters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in request")
		}
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprintf(w, `{"nextPageToken":"p2","items":[%s,%s,%s]}`,
				itemJSON("v1", "First Song", "http://t/m1", "http://t/d1"),
				itemJSON("v2", "Deleted video", "", ""),
				itemJSON("", "No Video ID", "", ""))
		case "p2":
			fmt.Fprintf(w, `{"items":[%s,%s]}`,
				itemJSON("v3", "Private video", "", ""),
				itemJSON("v4", "Last Song", "", ""))
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
	})
	mux.HandleFunc("/playlists", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"snippet":{"title":"Road Trip Mix"}}]}`)
	})

	strategy, _ := newTestDataAPI(t, mux)
	playlist, err := strategy.Fetch(context.Background(), "PLtest")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if playlist.Title != "Road Trip Mix" {
		t.Fatalf("expected playlist title, got %q", playlist.Title)
	}
	if len(playlist.Songs) != 2 {
		t.Fatalf("expected 2 usable songs, got %d: %+v", len(playlist.Songs), playlist.Songs)
	}
	if playlist.Songs[0].Thumbnail != "http://t/m1" {
		t.Fatalf("expected medium thumbnail preferred, got %q", playlist.Songs[0].Thumbnail)
	}
	// No thumbnails at all falls back to the constructed URL.
	if playlist.Songs[1].Thumbnail != thumbnailURL("v4") {
		t.Fatalf("expected constructed thumbnail, got %q", playlist.Songs[1].Thumbnail)
	}
}

func TestDataAPITitleFailureFallsBack(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"items":[%s]}`, itemJSON("v1", "Only Song", "http://t/m1", ""))
	})
	mux.HandleFunc("/playlists", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	strategy, _ := newTestDataAPI(t, mux)
	playlist, err := strategy.Fetch(context.Background(), "PLtest")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if playlist.Title != fallbackPlaylistTitle {
		t.Fatalf("expected fallback title, got %q", playlist.Title)
	}
}

func TestDataAPIForbiddenIsUnauthorized(t *testing.T) {
	strategy, _ := newTestDataAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	_, err := strategy.Fetch(context.Background(), "PLtest")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDataAPIEmptyPlaylistIsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[]}`)
	})
	strategy, _ := newTestDataAPI(t, mux)
	_, err := strategy.Fetch(context.Background(), "PLtest")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
