package domain

import "time"

// GameRecord is a finished game between a player and the engine.
type GameRecord struct {
	ID            int64
	SessionUUID   string
	PlayerKey     string
	Preset        string
	SearchDepth   int
	Result        string
	ResultMethod  string
	MovesUCI      []string
	MovesSAN      []string
	PGN           string
	StartedAt     time.Time
	EndedAt       time.Time
	Duration      time.Duration
	NodesSearched uint64
	EngineLatency time.Duration
}

// PlayerProfile accumulates results and an Elo-style rating per player.
type PlayerProfile struct {
	PlayerKey       string
	PreferredPreset string
	Rating          int
	GamesPlayed     int
	Wins            int
	Losses          int
	Draws           int
	Streak          int
	StreakType      string
	LastPreset      string
	LastPlayedAt    time.Time
	UpdatedAt       time.Time
	CreatedAt       time.Time
}
