package botdto

import "time"

type PlayerProfile struct {
	PreferredPreset string    `json:"preferred_preset,omitempty"`
	Rating          int       `json:"rating"`
	GamesPlayed     int       `json:"games_played"`
	Wins            int       `json:"wins"`
	Losses          int       `json:"losses"`
	Draws           int       `json:"draws"`
	Streak          int       `json:"streak"`
	StreakType      string    `json:"streak_type,omitempty"`
	LastPreset      string    `json:"last_preset,omitempty"`
	LastPlayedAt    time.Time `json:"last_played_at"`
	CreatedAt       time.Time `json:"created_at"`
}
