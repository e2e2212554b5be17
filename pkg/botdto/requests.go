package botdto

type StartSessionRequest struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name,omitempty"`
	Preset      string `json:"preset,omitempty"`
}

type StartSessionResponse struct {
	State   *SessionState `json:"state"`
	Resumed bool          `json:"resumed"`
}

type StatusResponse struct {
	State *SessionState `json:"state"`
}

type PlayRequest struct {
	PlayerID string `json:"player_id"`
	Move     string `json:"move"`
}

type PlayResponse struct {
	Summary *MoveSummary `json:"summary"`
}

type ResignRequest struct {
	PlayerID string `json:"player_id"`
}

type ResignResponse struct {
	State *SessionState `json:"state"`
}

type UndoRequest struct {
	PlayerID string `json:"player_id"`
}

type UndoResponse struct {
	State *SessionState `json:"state"`
}

type HistoryResponse struct {
	Games []*GameRecord `json:"games"`
}

type GameResponse struct {
	Game *GameRecord `json:"game"`
}

type ProfileResponse struct {
	Profile *PlayerProfile `json:"profile"`
}

type UpdatePresetRequest struct {
	PlayerID string `json:"player_id"`
	Preset   string `json:"preset"`
}

type UpdatePresetResponse struct {
	Profile *PlayerProfile `json:"profile"`
}

type PresetInfo struct {
	Name   string `json:"name"`
	Depth  int    `json:"depth"`
	Rating int    `json:"rating"`
}

type PresetsResponse struct {
	Presets []PresetInfo `json:"presets"`
}
