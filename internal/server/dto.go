package server

import (
	nchess "github.com/corentings/chess/v2"
	"github.com/dmelim/matebot/internal/domain"
	"github.com/dmelim/matebot/internal/engine"
	"github.com/dmelim/matebot/internal/service/game"
	"github.com/dmelim/matebot/pkg/botdto"
)

func toSessionState(state *game.SessionState) *botdto.SessionState {
	if state == nil {
		return nil
	}
	out := &botdto.SessionState{
		SessionUUID: state.SessionUUID,
		PlayerName:  state.PlayerName,
		Preset:      state.Preset,
		MovesUCI:    state.Moves,
		MovesSAN:    state.MovesSAN,
		FEN:         state.FEN,
		Turn:        state.Turn,
		MoveCount:   state.MoveCount,
		StartedAt:   state.StartedAt,
		UpdatedAt:   state.UpdatedAt,
		RatingDelta: state.RatingDelta,
		Profile:     toProfile(state.Profile),
	}
	if state.Outcome != nchess.NoOutcome {
		out.Outcome = state.Outcome.String()
		out.OutcomeMeta = state.OutcomeMethod.String()
	}
	return out
}

func toMoveSummary(summary *game.MoveSummary) *botdto.MoveSummary {
	if summary == nil {
		return nil
	}
	return &botdto.MoveSummary{
		State:       toSessionState(summary.State),
		PlayerSAN:   summary.PlayerSAN,
		PlayerUCI:   summary.PlayerUCI,
		EngineSAN:   summary.EngineSAN,
		EngineUCI:   summary.EngineUCI,
		EngineInfo:  toSearchInfo(summary.EngineInfo),
		Finished:    summary.Finished,
		GameID:      summary.GameID,
		Profile:     toProfile(summary.Profile),
		RatingDelta: summary.RatingDelta,
	}
}

func toSearchInfo(info *engine.SearchInfo) *botdto.SearchInfo {
	if info == nil {
		return nil
	}
	out := &botdto.SearchInfo{
		Depth:      info.Depth,
		Score:      info.Score,
		Nodes:      info.Nodes,
		CacheHits:  info.CacheHits,
		CacheSize:  info.CacheSize,
		DurationMS: info.Duration.Milliseconds(),
	}
	for _, cand := range info.Candidates {
		out.Candidates = append(out.Candidates, botdto.CandidateScore{
			MoveUCI: cand.Move.String(),
			Score:   cand.Score,
		})
	}
	return out
}

func toProfile(profile *domain.PlayerProfile) *botdto.PlayerProfile {
	if profile == nil {
		return nil
	}
	return &botdto.PlayerProfile{
		PreferredPreset: profile.PreferredPreset,
		Rating:          profile.Rating,
		GamesPlayed:     profile.GamesPlayed,
		Wins:            profile.Wins,
		Losses:          profile.Losses,
		Draws:           profile.Draws,
		Streak:          profile.Streak,
		StreakType:      profile.StreakType,
		LastPreset:      profile.LastPreset,
		LastPlayedAt:    profile.LastPlayedAt,
		CreatedAt:       profile.CreatedAt,
	}
}

func toGameRecord(record *domain.GameRecord) *botdto.GameRecord {
	if record == nil {
		return nil
	}
	return &botdto.GameRecord{
		ID:            record.ID,
		SessionUUID:   record.SessionUUID,
		Preset:        record.Preset,
		SearchDepth:   record.SearchDepth,
		Result:        record.Result,
		ResultMethod:  record.ResultMethod,
		MovesUCI:      record.MovesUCI,
		MovesSAN:      record.MovesSAN,
		PGN:           record.PGN,
		StartedAt:     record.StartedAt,
		EndedAt:       record.EndedAt,
		DurationMS:    record.Duration.Milliseconds(),
		NodesSearched: record.NodesSearched,
		EngineSpentMS: record.EngineLatency.Milliseconds(),
	}
}
