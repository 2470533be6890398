package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"tune-trivia-service/internal/domain"
)

const (
	defaultWatchBaseURL = "https://www.youtube.com"

	scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	unknownSongTitle = "Unknown Title"
)

var initialDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)var ytInitialData = (\{.*?\});`),
	regexp.MustCompile(`(?s)window\["ytInitialData"\] = (\{.*?\});`),
}

// ScrapeStrategy is the last-resort strategy: fetch the public playlist page
// and walk the embedded ytInitialData blob. Loosely-typed upstream JSON is
// decoded into the fixed renderer schema here and never leaks past this
// package.
type ScrapeStrategy struct {
	baseURL string
	client  *http.Client
}

func NewScrapeStrategy(client *http.Client) *ScrapeStrategy {
	return &ScrapeStrategy{baseURL: defaultWatchBaseURL, client: client}
}

func (s *ScrapeStrategy) Name() string { return "scrape" }

func (s *ScrapeStrategy) Fetch(ctx context.Context, playlistID string) (domain.ResolvedPlaylist, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/playlist?list="+playlistID, nil)
	if err != nil {
		return domain.ResolvedPlaylist{}, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ResolvedPlaylist{}, domain.ErrUpstreamTimeout
		}
		return domain.ResolvedPlaylist{}, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.ResolvedPlaylist{}, fmt.Errorf("%w: playlist page status %d", domain.ErrUpstream, resp.StatusCode)
	}

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ResolvedPlaylist{}, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	blob := findInitialData(html)
	if blob == nil {
		return domain.ResolvedPlaylist{}, fmt.Errorf("%w: ytInitialData not found in page", domain.ErrUpstream)
	}

	var data initialData
	if err := json.Unmarshal(blob, &data); err != nil {
		return domain.ResolvedPlaylist{}, fmt.Errorf("%w: parse ytInitialData: %v", domain.ErrUpstream, err)
	}

	songs := data.songs()
	if len(songs) == 0 {
		return domain.ResolvedPlaylist{}, domain.ErrNotFound
	}
	return domain.ResolvedPlaylist{ID: playlistID, Title: data.playlistTitle(), Songs: songs}, nil
}

func findInitialData(html []byte) []byte {
	for _, pattern := range initialDataPatterns {
		if m := pattern.FindSubmatch(html); m != nil {
			return m[1]
		}
	}
	return nil
}

// initialData mirrors the fixed nested path down to the playlist video
// renderers; everything else in the blob is ignored.
type initialData struct {
	Sidebar struct {
		PlaylistSidebarRenderer struct {
			Items []struct {
				PlaylistSidebarPrimaryInfoRenderer struct {
					Title textRuns `json:"title"`
				} `json:"playlistSidebarPrimaryInfoRenderer"`
			} `json:"items"`
		} `json:"playlistSidebarRenderer"`
	} `json:"sidebar"`
	Contents struct {
		TwoColumnBrowseResultsRenderer struct {
			Tabs []struct {
				TabRenderer struct {
					Content struct {
						SectionListRenderer struct {
							Contents []struct {
								ItemSectionRenderer struct {
									Contents []struct {
										PlaylistVideoListRenderer struct {
											Contents []struct {
												PlaylistVideoRenderer *videoRenderer `json:"playlistVideoRenderer"`
											} `json:"contents"`
										} `json:"playlistVideoListRenderer"`
									} `json:"contents"`
								} `json:"itemSectionRenderer"`
							} `json:"contents"`
						} `json:"sectionListRenderer"`
					} `json:"content"`
				} `json:"tabRenderer"`
			} `json:"tabs"`
		} `json:"twoColumnBrowseResultsRenderer"`
	} `json:"contents"`
}

type textRuns struct {
	Runs []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t textRuns) first() string {
	if len(t.Runs) == 0 {
		return ""
	}
	return t.Runs[0].Text
}

type videoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		textRuns
		Accessibility struct {
			AccessibilityData struct {
				Label string `json:"label"`
			} `json:"accessibilityData"`
		} `json:"accessibility"`
	} `json:"title"`
	Thumbnail struct {
		Thumbnails []struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"thumbnail"`
}

func (d *initialData) playlistTitle() string {
	items := d.Sidebar.PlaylistSidebarRenderer.Items
	if len(items) > 0 {
		if title := items[0].PlaylistSidebarPrimaryInfoRenderer.Title.first(); title != "" {
			return title
		}
	}
	return fallbackPlaylistTitle
}

func (d *initialData) songs() []domain.PlaylistSong {
	tabs := d.Contents.TwoColumnBrowseResultsRenderer.Tabs
	if len(tabs) == 0 {
		return nil
	}
	sections := tabs[0].TabRenderer.Content.SectionListRenderer.Contents
	if len(sections) == 0 {
		return nil
	}
	items := sections[0].ItemSectionRenderer.Contents
	if len(items) == 0 {
		return nil
	}

	var songs []domain.PlaylistSong
	for _, entry := range items[0].PlaylistVideoListRenderer.Contents {
		video := entry.PlaylistVideoRenderer
		if video == nil || video.VideoID == "" {
			continue
		}
		title := video.Title.first()
		if title == "" {
			title = video.Title.Accessibility.AccessibilityData.Label
		}
		if title == "" {
			title = unknownSongTitle
		}
		thumbnail := ""
		if len(video.Thumbnail.Thumbnails) > 0 {
			thumbnail = video.Thumbnail.Thumbnails[0].URL
		}
		if thumbnail == "" {
			thumbnail = thumbnailURL(video.VideoID)
		}
		songs = append(songs, domain.PlaylistSong{ID: video.VideoID, Title: title, Thumbnail: thumbnail})
	}
	return songs
}
