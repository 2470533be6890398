package domain

import "time"

// PlaylistSong is one playable entry of a resolved playlist. Identity is ID,
// the upstream video identifier; songs are immutable once resolved.
type PlaylistSong struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// ResolvedPlaylist is the outcome of one resolution call. Songs keep the
// source order and are non-empty on success.
type ResolvedPlaylist struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Songs []PlaylistSong `json:"songs"`
}

// GameSubmission is the client-supplied part of a game result.
type GameSubmission struct {
	PlayerName     string `json:"playerName"`
	PlaylistID     string `json:"playlistId"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
}

// GameResult is a persisted game outcome. Created once at submission time,
// never mutated or deleted.
type GameResult struct {
	ID             int       `json:"id"`
	PlayerName     string    `json:"playerName"`
	PlaylistID     string    `json:"playlistId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MaxPlayerNameLen bounds the trimmed player name on submission.
const MaxPlayerNameLen = 15

// LeaderboardSize is how many results a leaderboard query returns at most.
const LeaderboardSize = 10
