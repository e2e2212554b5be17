package botdto

// CandidateScore is one root move's evaluation, as streamed to watchers.
type CandidateScore struct {
	MoveUCI string `json:"move_uci"`
	Score   int    `json:"score"`
}

// SearchInfo summarises the engine's work for one reply.
type SearchInfo struct {
	Depth      int              `json:"depth"`
	Score      int              `json:"score"`
	Nodes      uint64           `json:"nodes"`
	CacheHits  uint64           `json:"cache_hits"`
	CacheSize  int              `json:"cache_size"`
	DurationMS int64            `json:"duration_ms"`
	Candidates []CandidateScore `json:"candidates,omitempty"`
}

// MoveSummary reports one full round: the player's move and the engine reply.
type MoveSummary struct {
	State       *SessionState  `json:"state"`
	PlayerSAN   string         `json:"player_san"`
	PlayerUCI   string         `json:"player_uci"`
	EngineSAN   string         `json:"engine_san,omitempty"`
	EngineUCI   string         `json:"engine_uci,omitempty"`
	EngineInfo  *SearchInfo    `json:"engine_info,omitempty"`
	Finished    bool           `json:"finished"`
	GameID      int64          `json:"game_id,omitempty"`
	Profile     *PlayerProfile `json:"profile,omitempty"`
	RatingDelta int            `json:"rating_delta,omitempty"`
}
