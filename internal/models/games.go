package models

import "time"

// PlayerResult holds one player's final standing in a finished game.
type PlayerResult struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Correct int    `json:"correct"`
	Streak  int    `json:"streak,omitempty"`
}

// GameRecord describes a finished quiz game as shown on the history page.
type GameRecord struct {
	ID         string         `json:"id"`
	Mode       string         `json:"mode"`
	Host       string         `json:"host,omitempty"`
	Rounds     int            `json:"rounds"`
	Players    []PlayerResult `json:"players"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// GamesSnapshot is what a single fetch from the game backend returns.
type GamesSnapshot struct {
	Revision  string       `json:"revision,omitempty"`
	FetchedAt time.Time    `json:"fetched_at"`
	Games     []GameRecord `json:"games"`
}
