package resolver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tune-trivia-service/internal/domain"
)

// Strategy turns a playlist identifier into a ResolvedPlaylist. A strategy
// that finds nothing returns domain.ErrNotFound; the chain treats any error
// except domain.ErrConfiguration as recoverable.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error)
}

// Config selects which strategies the chain runs.
type Config struct {
	// APIKey is the YouTube Data API credential. Empty disables the primary
	// strategy.
	APIKey string
	// StrictKey makes a missing APIKey a fatal configuration error and
	// disables the library/scrape fallbacks entirely.
	StrictKey bool
	// HTTPClient is shared by all strategies; nil uses a default client.
	HTTPClient *http.Client
}

// Resolver runs an ordered strategy chain. Strategies execute sequentially,
// never concurrently, so later ones cost nothing when an earlier one
// succeeds. Results are not cached here; every call re-resolves.
type Resolver struct {
	strategies []Strategy
	missingKey bool
}

func New(cfg Config) *Resolver {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	r := &Resolver{}
	if cfg.APIKey != "" {
		r.strategies = append(r.strategies, NewDataAPIStrategy(cfg.APIKey, client))
	} else if cfg.StrictKey {
		r.missingKey = true
		return r
	}
	if !cfg.StrictKey {
		r.strategies = append(r.strategies, NewLibraryStrategy(client))
		r.strategies = append(r.strategies, NewScrapeStrategy(client))
	}
	return r
}

// NewWithStrategies builds a resolver over an explicit chain.
func NewWithStrategies(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve tries each strategy in order until one yields at least one song.
// With a single strategy configured its error surfaces as-is; otherwise an
// exhausted chain reports domain.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error) {
	if r.missingKey {
		return domain.ResolvedPlaylist{}, domain.ErrConfiguration
	}
	if len(r.strategies) == 0 {
		return domain.ResolvedPlaylist{}, domain.ErrConfiguration
	}

	for _, strategy := range r.strategies {
		playlist, err := strategy.Fetch(ctx, playlistID)
		if err != nil {
			if errors.Is(err, domain.ErrConfiguration) {
				return domain.ResolvedPlaylist{}, err
			}
			if len(r.strategies) == 1 {
				return domain.ResolvedPlaylist{}, err
			}
			log.Printf("resolver: %s failed for %q, trying next strategy: %v", strategy.Name(), playlistID, err)
			continue
		}
		if len(playlist.Songs) == 0 {
			log.Printf("resolver: %s returned no songs for %q, trying next strategy", strategy.Name(), playlistID)
			continue
		}
		return playlist, nil
	}
	return domain.ResolvedPlaylist{}, domain.ErrNotFound
}

// ExtractPlaylistID reads the list query parameter from a full playlist URL,
// or returns the trimmed input unchanged for bare identifiers.
func ExtractPlaylistID(input string) string {
	input = strings.TrimSpace(input)
	parsed, err := url.Parse(input)
	if err != nil || parsed.Scheme == "" {
		return input
	}
	if list := parsed.Query().Get("list"); list != "" {
		return list
	}
	return input
}

// thumbnailURL is the constructed fallback when the upstream offers none.
func thumbnailURL(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/mqdefault.jpg"
}
