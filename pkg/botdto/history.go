package botdto

import "time"

// GameRecord is the wire form of a finished game.
type GameRecord struct {
	ID            int64     `json:"id"`
	SessionUUID   string    `json:"session_uuid"`
	Preset        string    `json:"preset"`
	SearchDepth   int       `json:"search_depth"`
	Result        string    `json:"result"`
	ResultMethod  string    `json:"result_method"`
	MovesUCI      []string  `json:"moves_uci"`
	MovesSAN      []string  `json:"moves_san"`
	PGN           string    `json:"pgn"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
	DurationMS    int64     `json:"duration_ms"`
	NodesSearched uint64    `json:"nodes_searched"`
	EngineSpentMS int64     `json:"engine_spent_ms"`
}
