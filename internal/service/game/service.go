package game

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/dmelim/matebot/internal/domain"
	"github.com/dmelim/matebot/internal/engine"
	"github.com/dmelim/matebot/internal/service/cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound   = errors.New("game session not found")
	ErrSessionInProgress = errors.New("game session already in progress")
	ErrInvalidMove       = errors.New("invalid move")
	ErrGameFinished      = errors.New("game already finished")
	ErrGameNotFound      = errors.New("game not found")
	ErrProfileNotFound   = errors.New("player profile not found")
	ErrUndoNotAvailable  = errors.New("no moves available to undo")
	ErrPlayerRequired    = errors.New("player id is required")
	ErrConcurrentMove    = errors.New("session was modified by another request")
)

const (
	defaultPlayerRating = 1200
	kFactor             = 24
	profileCacheTTL     = 6 * time.Hour
	maxHistoryLimit     = 50
	playerLabelLimit    = 24
)

// MoveChooser is the engine the service plays with. *engine.Engine satisfies
// it; tests may substitute a scripted fake.
type MoveChooser interface {
	ChooseMove(game *nchess.Game, side nchess.Color, maxDepth int) (*nchess.Move, *engine.SearchInfo, error)
}

// PlayerMeta identifies the caller of a session operation.
type PlayerMeta struct {
	PlayerID    string
	DisplayName string
}

type identity struct {
	SessionID string
	PlayerKey string
}

type Config struct {
	DefaultPreset string
	SessionTTL    time.Duration
	HistoryLimit  int
}

type Service struct {
	engine MoveChooser
	cache  *cache.CacheService
	repo   Repository
	cfg    Config
	logger *zap.Logger
}

// sessionPayload is the redis-resident state of one in-progress game. The
// move list is the source of truth; the board is replayed from it on load.
type sessionPayload struct {
	SessionUUID   string    `json:"session_uuid"`
	PlayerKey     string    `json:"player_key"`
	PlayerName    string    `json:"player_name,omitempty"`
	Preset        string    `json:"preset"`
	Moves         []string  `json:"moves"`
	NodesSearched uint64    `json:"nodes_searched"`
	EngineSpentMS int64     `json:"engine_spent_ms"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SessionState struct {
	SessionUUID   string
	PlayerKey     string
	PlayerName    string
	Preset        string
	Moves         []string
	MovesSAN      []string
	FEN           string
	Turn          string
	MoveCount     int
	Outcome       nchess.Outcome
	OutcomeMethod nchess.Method
	StartedAt     time.Time
	UpdatedAt     time.Time
	RatingDelta   int
	Profile       *domain.PlayerProfile
}

type MoveSummary struct {
	State       *SessionState
	PlayerSAN   string
	PlayerUCI   string
	EngineSAN   string
	EngineUCI   string
	EngineInfo  *engine.SearchInfo
	Finished    bool
	GameID      int64
	Profile     *domain.PlayerProfile
	RatingDelta int
}

func NewService(chooser MoveChooser, cacheSvc *cache.CacheService, repo Repository, cfg Config, logger *zap.Logger) (*Service, error) {
	if chooser == nil {
		return nil, fmt.Errorf("move chooser is required")
	}
	if cacheSvc == nil {
		return nil, fmt.Errorf("cache service is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	defaultPreset := strings.ToLower(strings.TrimSpace(cfg.DefaultPreset))
	if defaultPreset == "" {
		defaultPreset = "level3"
	}
	if _, err := engine.GetPreset(defaultPreset); err != nil {
		return nil, fmt.Errorf("default preset validation failed: %w", err)
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		engine: chooser,
		cache:  cacheSvc,
		repo:   repo,
		cfg: Config{
			DefaultPreset: defaultPreset,
			SessionTTL:    cfg.SessionTTL,
			HistoryLimit:  cfg.HistoryLimit,
		},
		logger: logger,
	}, nil
}

// StartSession creates a fresh game for the player, who always takes White.
// If a session already exists its current state is returned together with
// ErrSessionInProgress.
func (s *Service) StartSession(ctx context.Context, meta PlayerMeta, preset string) (*SessionState, error) {
	ident, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}

	existing, err := s.loadSession(ctx, ident.SessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		game, err := replaySession(existing)
		if err != nil {
			return nil, err
		}
		state := s.stateFromGame(existing, game)
		if profile, profErr := s.fetchProfile(ctx, ident, true); profErr == nil {
			state.Profile = profile
		}
		s.applyPlayerName(state, existing, meta)
		return state, ErrSessionInProgress
	}

	chosenPreset := strings.ToLower(strings.TrimSpace(preset))

	profile, err := s.fetchProfile(ctx, ident, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	if chosenPreset == "" {
		if profile != nil && profile.PreferredPreset != "" {
			chosenPreset = profile.PreferredPreset
		} else {
			chosenPreset = s.cfg.DefaultPreset
		}
	}
	if _, err := engine.GetPreset(chosenPreset); err != nil {
		return nil, fmt.Errorf("preset validation failed: %w", err)
	}

	payload := &sessionPayload{
		SessionUUID: uuid.NewString(),
		PlayerKey:   ident.PlayerKey,
		PlayerName:  normalizePlayerLabel(meta.DisplayName),
		Preset:      chosenPreset,
		Moves:       []string{},
		StartedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.saveSession(ctx, ident.SessionID, payload); err != nil {
		return nil, err
	}

	state := s.stateFromGame(payload, nchess.NewGame())
	s.applyPlayerName(state, payload, meta)
	state.Profile = profile
	return state, nil
}

func (s *Service) Status(ctx context.Context, meta PlayerMeta) (*SessionState, error) {
	ident, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	payload, err := s.loadSession(ctx, ident.SessionID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}

	game, err := replaySession(payload)
	if err != nil {
		return nil, err
	}
	state := s.stateFromGame(payload, game)
	if profile, profErr := s.fetchProfile(ctx, ident, true); profErr == nil {
		state.Profile = profile
	}
	s.applyPlayerName(state, payload, meta)
	return state, nil
}

// Play applies the player's move, asks the engine for its reply at the
// session preset's depth, and persists the game once it finishes. Move input
// is accepted in SAN first, then UCI.
func (s *Service) Play(ctx context.Context, meta PlayerMeta, moveInput string) (*MoveSummary, error) {
	ident, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	moveText := strings.TrimSpace(moveInput)
	if moveText == "" {
		return nil, ErrInvalidMove
	}

	payload, err := s.loadSession(ctx, ident.SessionID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}
	loadedMoves := len(payload.Moves)

	game, err := replaySession(payload)
	if err != nil {
		return nil, err
	}
	if game.Outcome() != nchess.NoOutcome {
		return nil, ErrGameFinished
	}

	notationSAN := nchess.AlgebraicNotation{}
	notationUCI := nchess.UCINotation{}
	posBeforePlayer := game.Position()
	move, err := notationSAN.Decode(posBeforePlayer, moveText)
	if err != nil {
		move, err = notationUCI.Decode(posBeforePlayer, strings.ToLower(moveText))
		if err != nil {
			return nil, ErrInvalidMove
		}
	}
	if err := game.Move(move, nil); err != nil {
		return nil, ErrInvalidMove
	}

	playerSAN := notationSAN.Encode(posBeforePlayer, move)
	playerUCI := strings.ToLower(notationUCI.Encode(posBeforePlayer, move))
	payload.Moves = append(payload.Moves, playerUCI)

	if game.Outcome() != nchess.NoOutcome {
		state := s.stateFromGame(payload, game)
		s.applyPlayerName(state, payload, meta)
		summary := &MoveSummary{
			State:     state,
			PlayerSAN: playerSAN,
			PlayerUCI: playerUCI,
			Finished:  true,
		}
		if err := s.finishGame(ctx, ident, payload, game, summary); err != nil {
			return nil, err
		}
		return summary, nil
	}

	preset, err := engine.GetPreset(payload.Preset)
	if err != nil {
		return nil, fmt.Errorf("resolve session preset: %w", err)
	}

	engineMove, info, err := s.engine.ChooseMove(game, game.Position().Turn(), preset.Depth)
	if err != nil {
		s.logger.Warn("engine move selection failed",
			zap.Error(err),
			zap.String("session_uuid", payload.SessionUUID),
			zap.String("preset", payload.Preset),
			zap.Int("move_count", len(payload.Moves)),
		)
		return nil, fmt.Errorf("choose engine move: %w", err)
	}
	if info != nil {
		payload.NodesSearched += info.Nodes
		payload.EngineSpentMS += info.Duration.Milliseconds()
	}
	if engineMove == nil {
		// No legal reply. The player's move already ended the game, which
		// the outcome check above should have caught.
		state := s.stateFromGame(payload, game)
		s.applyPlayerName(state, payload, meta)
		summary := &MoveSummary{
			State:      state,
			PlayerSAN:  playerSAN,
			PlayerUCI:  playerUCI,
			EngineInfo: info,
			Finished:   state.Outcome != nchess.NoOutcome,
		}
		if summary.Finished {
			if err := s.finishGame(ctx, ident, payload, game, summary); err != nil {
				return nil, err
			}
		} else if err := s.saveSessionGuarded(ctx, ident.SessionID, payload, loadedMoves); err != nil {
			return nil, err
		}
		return summary, nil
	}

	posBeforeEngine := game.Position()
	if err := game.Move(engineMove, nil); err != nil {
		return nil, fmt.Errorf("apply engine move: %w", err)
	}
	engineSAN := notationSAN.Encode(posBeforeEngine, engineMove)
	engineUCI := strings.ToLower(notationUCI.Encode(posBeforeEngine, engineMove))
	payload.Moves = append(payload.Moves, engineUCI)

	state := s.stateFromGame(payload, game)
	s.applyPlayerName(state, payload, meta)
	summary := &MoveSummary{
		State:      state,
		PlayerSAN:  playerSAN,
		PlayerUCI:  playerUCI,
		EngineSAN:  engineSAN,
		EngineUCI:  engineUCI,
		EngineInfo: info,
		Finished:   state.Outcome != nchess.NoOutcome,
	}

	if summary.Finished {
		if err := s.finishGame(ctx, ident, payload, game, summary); err != nil {
			return nil, err
		}
		return summary, nil
	}
	if err := s.saveSessionGuarded(ctx, ident.SessionID, payload, loadedMoves); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Service) finishGame(ctx context.Context, ident identity, payload *sessionPayload, game *nchess.Game, summary *MoveSummary) error {
	gameID, profile, delta, err := s.persistFinishedGame(ctx, ident, payload, game)
	if err != nil {
		return err
	}
	summary.GameID = gameID
	summary.Profile = profile
	summary.RatingDelta = delta
	if summary.State != nil {
		summary.State.Profile = profile
		summary.State.RatingDelta = delta
	}
	if err := s.deleteSession(ctx, ident.SessionID); err != nil {
		s.logger.Warn("failed to delete finished session", zap.Error(err))
	}
	return nil
}

// Resign forfeits the player's game immediately.
func (s *Service) Resign(ctx context.Context, meta PlayerMeta) (*SessionState, error) {
	ident, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	payload, err := s.loadSession(ctx, ident.SessionID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}
	game, err := replaySession(payload)
	if err != nil {
		return nil, err
	}
	game.Resign(nchess.White)

	state := s.stateFromGame(payload, game)
	s.applyPlayerName(state, payload, meta)
	gameID, profile, delta, persistErr := s.persistFinishedGame(ctx, ident, payload, game)
	if persistErr != nil {
		return nil, persistErr
	}
	state.Profile = profile
	state.RatingDelta = delta

	if err := s.deleteSession(ctx, ident.SessionID); err != nil {
		s.logger.Warn("failed to delete session after resignation", zap.Error(err))
	}
	if gameID == 0 {
		s.logger.Warn("resigned game did not persist with id",
			zap.String("session_uuid", payload.SessionUUID))
	}
	return state, nil
}

// Undo removes the last player move and the engine's reply.
func (s *Service) Undo(ctx context.Context, meta PlayerMeta) (*SessionState, error) {
	ident, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	payload, err := s.loadSession(ctx, ident.SessionID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}
	if len(payload.Moves) < 2 {
		return nil, ErrUndoNotAvailable
	}

	payload.Moves = append([]string(nil), payload.Moves[:len(payload.Moves)-2]...)

	game, err := replaySession(payload)
	if err != nil {
		return nil, err
	}
	state := s.stateFromGame(payload, game)
	if profile, profErr := s.fetchProfile(ctx, ident, true); profErr == nil {
		state.Profile = profile
	}
	s.applyPlayerName(state, payload, meta)

	if err := s.saveSession(ctx, ident.SessionID, payload); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Service) History(ctx context.Context, meta PlayerMeta, limit int) ([]*domain.GameRecord, error) {
	ident, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	return s.repo.GetRecentGames(ctx, ident.PlayerKey, limit)
}

func (s *Service) Game(ctx context.Context, meta PlayerMeta, id int64) (*domain.GameRecord, error) {
	ident, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.GetGame(ctx, id, ident.PlayerKey)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrGameNotFound
	}
	return record, nil
}

func (s *Service) Profile(ctx context.Context, meta PlayerMeta) (*domain.PlayerProfile, error) {
	ident, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	profile, err := s.fetchProfile(ctx, ident, true)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) UpdatePreferredPreset(ctx context.Context, meta PlayerMeta, preset string) (*domain.PlayerProfile, error) {
	ident, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	target := strings.ToLower(strings.TrimSpace(preset))
	if target == "" {
		return nil, fmt.Errorf("preset must be provided")
	}
	if _, err := engine.GetPreset(target); err != nil {
		return nil, fmt.Errorf("preset validation failed: %w", err)
	}

	profile, err := s.fetchProfile(ctx, ident, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}
	if profile == nil {
		profile = &domain.PlayerProfile{
			PlayerKey: ident.PlayerKey,
			Rating:    defaultPlayerRating,
			CreatedAt: time.Now(),
		}
	}

	now := time.Now()
	profile.PreferredPreset = target
	profile.LastPreset = target
	profile.LastPlayedAt = now
	profile.UpdatedAt = now

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.cacheProfile(ctx, ident, profile)
	return profile, nil
}

func (s *Service) sessionKey(sessionID string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(sessionID)))
	return "matebot:sessions:" + hex.EncodeToString(hash[:])
}

func (s *Service) profileCacheKey(ident identity) string {
	return "matebot:profile:" + ident.PlayerKey
}

func (s *Service) loadSession(ctx context.Context, sessionID string) (*sessionPayload, error) {
	payload := &sessionPayload{}
	if err := s.cache.Get(ctx, s.sessionKey(sessionID), payload); err != nil {
		return nil, err
	}
	if payload.Preset == "" {
		return nil, nil
	}
	return payload, nil
}

func (s *Service) saveSession(ctx context.Context, sessionID string, payload *sessionPayload) error {
	if payload == nil {
		return fmt.Errorf("cannot save nil session payload")
	}
	payload.UpdatedAt = time.Now()
	return s.cache.Set(ctx, s.sessionKey(sessionID), payload, s.cfg.SessionTTL)
}

// saveSessionGuarded writes the advanced session state only if no other
// request appended moves since this one loaded it. The WATCH inside
// cache.Update makes the compare-and-swap atomic.
func (s *Service) saveSessionGuarded(ctx context.Context, sessionID string, payload *sessionPayload, loadedMoves int) error {
	if payload == nil {
		return fmt.Errorf("cannot save nil session payload")
	}
	payload.UpdatedAt = time.Now()
	return s.cache.Update(ctx, s.sessionKey(sessionID), s.cfg.SessionTTL, func(raw []byte) (any, error) {
		if raw != nil {
			var current sessionPayload
			if err := json.Unmarshal(raw, &current); err == nil && len(current.Moves) != loadedMoves {
				return nil, ErrConcurrentMove
			}
		}
		return payload, nil
	})
}

func (s *Service) deleteSession(ctx context.Context, sessionID string) error {
	return s.cache.Del(ctx, s.sessionKey(sessionID))
}

func replaySession(payload *sessionPayload) (*nchess.Game, error) {
	game := nchess.NewGame()
	notation := nchess.UCINotation{}
	for _, mv := range payload.Moves {
		move, err := notation.Decode(game.Position(), strings.ToLower(strings.TrimSpace(mv)))
		if err != nil {
			return nil, fmt.Errorf("decode move %s: %w", mv, err)
		}
		if err := game.Move(move, nil); err != nil {
			return nil, fmt.Errorf("apply move %s: %w", mv, err)
		}
	}
	return game, nil
}

func (s *Service) stateFromGame(payload *sessionPayload, game *nchess.Game) *SessionState {
	positions := game.Positions()
	moves := game.Moves()
	sanMoves := make([]string, len(moves))
	notation := nchess.AlgebraicNotation{}
	for i, mv := range moves {
		if i < len(positions) {
			sanMoves[i] = notation.Encode(positions[i], mv)
		}
	}

	return &SessionState{
		SessionUUID:   payload.SessionUUID,
		PlayerKey:     payload.PlayerKey,
		PlayerName:    payload.PlayerName,
		Preset:        payload.Preset,
		Moves:         append([]string(nil), payload.Moves...),
		MovesSAN:      sanMoves,
		FEN:           game.FEN(),
		Turn:          strings.ToLower(game.Position().Turn().String()),
		MoveCount:     len(moves),
		Outcome:       game.Outcome(),
		OutcomeMethod: game.Method(),
		StartedAt:     payload.StartedAt,
		UpdatedAt:     payload.UpdatedAt,
	}
}

func normalizePlayerLabel(raw string) string {
	cleaned := strings.Join(strings.Fields(strings.TrimSpace(raw)), " ")
	if cleaned == "" {
		return ""
	}
	runes := []rune(cleaned)
	if len(runes) > playerLabelLimit {
		truncated := strings.TrimSpace(string(runes[:playerLabelLimit]))
		if truncated == "" {
			return ""
		}
		return truncated + "..."
	}
	return cleaned
}

func (s *Service) applyPlayerName(state *SessionState, payload *sessionPayload, meta PlayerMeta) {
	if state == nil {
		return
	}
	label := ""
	if payload != nil {
		label = normalizePlayerLabel(payload.PlayerName)
	}
	if label == "" {
		label = normalizePlayerLabel(meta.DisplayName)
	}
	if label == "" {
		label = "Player"
	}
	state.PlayerName = label
	if payload != nil {
		payload.PlayerName = label
	}
}

func (s *Service) persistFinishedGame(ctx context.Context, ident identity, payload *sessionPayload, game *nchess.Game) (int64, *domain.PlayerProfile, int, error) {
	now := time.Now()
	depth := 0
	if preset, err := engine.GetPreset(payload.Preset); err == nil {
		depth = preset.Depth
	}

	record := &domain.GameRecord{
		SessionUUID:   payload.SessionUUID,
		PlayerKey:     ident.PlayerKey,
		Preset:        payload.Preset,
		SearchDepth:   depth,
		Result:        resultFromOutcome(game.Outcome()),
		ResultMethod:  methodFromOutcome(game.Method()),
		MovesUCI:      append([]string(nil), payload.Moves...),
		MovesSAN:      s.stateFromGame(payload, game).MovesSAN,
		PGN:           game.String(),
		StartedAt:     payload.StartedAt,
		EndedAt:       now,
		Duration:      now.Sub(payload.StartedAt),
		NodesSearched: payload.NodesSearched,
		EngineLatency: time.Duration(payload.EngineSpentMS) * time.Millisecond,
	}

	gameID, err := s.repo.InsertGame(ctx, record)
	if err != nil {
		if errors.Is(err, ErrDuplicateGame) {
			existing, fetchErr := s.repo.GetGameBySession(ctx, payload.SessionUUID, ident.PlayerKey)
			if fetchErr != nil || existing == nil {
				return 0, nil, 0, err
			}
			profile, profErr := s.fetchProfile(ctx, ident, true)
			if profErr != nil && !errors.Is(profErr, ErrProfileNotFound) {
				return existing.ID, nil, 0, profErr
			}
			return existing.ID, profile, 0, nil
		}
		return 0, nil, 0, err
	}
	record.ID = gameID

	profile, err := s.fetchProfile(ctx, ident, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return gameID, nil, 0, err
	}
	profile, delta := applyGameResult(profile, ident, payload.Preset, game.Outcome(), now)

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return gameID, nil, 0, err
	}
	s.cacheProfile(ctx, ident, profile)

	return gameID, profile, delta, nil
}

func (s *Service) fetchProfile(ctx context.Context, ident identity, allowCache bool) (*domain.PlayerProfile, error) {
	if !allowCache {
		profile, err := s.repo.GetProfile(ctx, ident.PlayerKey)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, ErrProfileNotFound
		}
		s.cacheProfile(ctx, ident, profile)
		return profile, nil
	}

	profile := &domain.PlayerProfile{}
	if err := s.cache.Get(ctx, s.profileCacheKey(ident), profile); err != nil {
		return nil, err
	}
	if profile.PlayerKey != "" {
		return profile, nil
	}

	stored, err := s.repo.GetProfile(ctx, ident.PlayerKey)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrProfileNotFound
	}
	s.cacheProfile(ctx, ident, stored)
	return stored, nil
}

func (s *Service) cacheProfile(ctx context.Context, ident identity, profile *domain.PlayerProfile) {
	if profile == nil {
		return
	}
	if err := s.cache.Set(ctx, s.profileCacheKey(ident), profile, profileCacheTTL); err != nil {
		s.logger.Warn("failed to cache player profile", zap.Error(err))
	}
}

func deriveIdentity(meta PlayerMeta) (identity, error) {
	player := strings.ToLower(strings.TrimSpace(meta.PlayerID))
	if player == "" {
		return identity{}, ErrPlayerRequired
	}
	return identity{
		SessionID: player,
		PlayerKey: hashString(player),
	}, nil
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func resultFromOutcome(outcome nchess.Outcome) string {
	switch outcome {
	case nchess.WhiteWon:
		return "win"
	case nchess.BlackWon:
		return "loss"
	case nchess.Draw:
		return "draw"
	default:
		return "unknown"
	}
}

func methodFromOutcome(method nchess.Method) string {
	return strings.ToLower(method.String())
}

func applyGameResult(profile *domain.PlayerProfile, ident identity, preset string, outcome nchess.Outcome, endedAt time.Time) (*domain.PlayerProfile, int) {
	if profile == nil {
		profile = &domain.PlayerProfile{
			PlayerKey: ident.PlayerKey,
			Rating:    defaultPlayerRating,
			CreatedAt: endedAt,
		}
	}

	prevRating := profile.Rating

	profile.GamesPlayed++
	profile.LastPreset = preset
	profile.LastPlayedAt = endedAt
	profile.UpdatedAt = endedAt

	var (
		resultType string
		score      float64
	)
	switch outcome {
	case nchess.WhiteWon:
		profile.Wins++
		resultType = "win"
		score = 1.0
	case nchess.BlackWon:
		profile.Losses++
		resultType = "loss"
		score = 0.0
	default:
		profile.Draws++
		resultType = "draw"
		score = 0.5
	}

	if profile.StreakType == resultType {
		profile.Streak++
	} else {
		profile.Streak = 1
		profile.StreakType = resultType
	}

	engineRating := 1500
	if p, err := engine.GetPreset(preset); err == nil {
		engineRating = p.Rating
	}
	expected := 1 / (1 + math.Pow(10, float64(engineRating-profile.Rating)/400))
	profile.Rating = int(math.Round(float64(profile.Rating) + kFactor*(score-expected)))

	return profile, profile.Rating - prevRating
}
