package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmelim/matebot/internal/domain"
)

var ErrDuplicateGame = errors.New("game already recorded")

type Repository interface {
	InsertGame(ctx context.Context, record *domain.GameRecord) (int64, error)
	GetRecentGames(ctx context.Context, playerKey string, limit int) ([]*domain.GameRecord, error)
	GetGame(ctx context.Context, id int64, playerKey string) (*domain.GameRecord, error)
	GetGameBySession(ctx context.Context, sessionUUID string, playerKey string) (*domain.GameRecord, error)
	GetProfile(ctx context.Context, playerKey string) (*domain.PlayerProfile, error)
	UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const gameColumns = `
	id,
	session_uuid,
	player_key,
	preset,
	search_depth,
	result,
	result_method,
	moves_uci,
	moves_san,
	pgn,
	started_at,
	ended_at,
	duration_ms,
	nodes_searched,
	engine_latency_ms`

func (r *repository) InsertGame(ctx context.Context, record *domain.GameRecord) (int64, error) {
	if record == nil {
		return 0, fmt.Errorf("nil game record")
	}

	movesUCI, err := json.Marshal(record.MovesUCI)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(record.MovesSAN)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_san: %w", err)
	}

	const query = `
		INSERT INTO matebot_games (
			session_uuid,
			player_key,
			preset,
			search_depth,
			result,
			result_method,
			moves_uci,
			moves_san,
			pgn,
			started_at,
			ended_at,
			duration_ms,
			nodes_searched,
			engine_latency_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		record.SessionUUID,
		record.PlayerKey,
		record.Preset,
		record.SearchDepth,
		record.Result,
		record.ResultMethod,
		movesUCI,
		movesSAN,
		record.PGN,
		record.StartedAt,
		record.EndedAt,
		record.Duration.Milliseconds(),
		record.NodesSearched,
		record.EngineLatency.Milliseconds(),
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentGames(ctx context.Context, playerKey string, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT` + gameColumns + `
		FROM matebot_games
		WHERE player_key = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerKey, limit)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		record, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *repository) GetGame(ctx context.Context, id int64, playerKey string) (*domain.GameRecord, error) {
	query := `
		SELECT` + gameColumns + `
		FROM matebot_games
		WHERE id = $1 AND player_key = $2`

	record, err := scanGame(r.db.QueryRowContext(ctx, query, id, playerKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return record, err
}

func (r *repository) GetGameBySession(ctx context.Context, sessionUUID string, playerKey string) (*domain.GameRecord, error) {
	query := `
		SELECT` + gameColumns + `
		FROM matebot_games
		WHERE session_uuid = $1 AND player_key = $2
		ORDER BY ended_at DESC
		LIMIT 1`

	record, err := scanGame(r.db.QueryRowContext(ctx, query, sessionUUID, playerKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return record, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.GameRecord, error) {
	var (
		record       domain.GameRecord
		movesUCIJSON []byte
		movesSANJSON []byte
		durationMS   sql.NullInt64
		latencyMS    sql.NullInt64
	)
	err := row.Scan(
		&record.ID,
		&record.SessionUUID,
		&record.PlayerKey,
		&record.Preset,
		&record.SearchDepth,
		&record.Result,
		&record.ResultMethod,
		&movesUCIJSON,
		&movesSANJSON,
		&record.PGN,
		&record.StartedAt,
		&record.EndedAt,
		&durationMS,
		&record.NodesSearched,
		&latencyMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan game: %w", err)
	}
	if durationMS.Valid {
		record.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if latencyMS.Valid {
		record.EngineLatency = time.Duration(latencyMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesUCIJSON, &record.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal(movesSANJSON, &record.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	return &record, nil
}

func (r *repository) GetProfile(ctx context.Context, playerKey string) (*domain.PlayerProfile, error) {
	const query = `
		SELECT
			player_key,
			preferred_preset,
			rating,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			last_preset,
			last_played_at,
			updated_at,
			created_at
		FROM matebot_profiles
		WHERE player_key = $1
		LIMIT 1`

	var profile domain.PlayerProfile
	err := r.db.QueryRowContext(ctx, query, playerKey).Scan(
		&profile.PlayerKey,
		&profile.PreferredPreset,
		&profile.Rating,
		&profile.GamesPlayed,
		&profile.Wins,
		&profile.Losses,
		&profile.Draws,
		&profile.Streak,
		&profile.StreakType,
		&profile.LastPreset,
		&profile.LastPlayedAt,
		&profile.UpdatedAt,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return &profile, nil
}

func (r *repository) UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error {
	if profile == nil {
		return fmt.Errorf("nil profile")
	}
	const query = `
		INSERT INTO matebot_profiles (
			player_key,
			preferred_preset,
			rating,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			last_preset,
			last_played_at,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (player_key)
		DO UPDATE SET
			preferred_preset = EXCLUDED.preferred_preset,
			rating = EXCLUDED.rating,
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			draws = EXCLUDED.draws,
			streak = EXCLUDED.streak,
			streak_type = EXCLUDED.streak_type,
			last_preset = EXCLUDED.last_preset,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.PlayerKey,
		profile.PreferredPreset,
		profile.Rating,
		profile.GamesPlayed,
		profile.Wins,
		profile.Losses,
		profile.Draws,
		profile.Streak,
		profile.StreakType,
		profile.LastPreset,
		profile.LastPlayedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
