package botdto

import "time"

// SessionState is the wire form of an in-progress game.
type SessionState struct {
	SessionUUID string         `json:"session_uuid"`
	PlayerName  string         `json:"player_name,omitempty"`
	Preset      string         `json:"preset"`
	MovesUCI    []string       `json:"moves_uci"`
	MovesSAN    []string       `json:"moves_san"`
	FEN         string         `json:"fen"`
	Turn        string         `json:"turn"`
	MoveCount   int            `json:"move_count"`
	Outcome     string         `json:"outcome,omitempty"`
	OutcomeMeta string         `json:"outcome_meta,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	RatingDelta int            `json:"rating_delta,omitempty"`
	Profile     *PlayerProfile `json:"profile,omitempty"`
}
