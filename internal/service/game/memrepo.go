package game

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dmelim/matebot/internal/domain"
)

// memrepo is a development-only in-memory repository used when no database
// is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID      map[int64]*domain.GameRecord
	gamesByPlayer  map[string][]*domain.GameRecord
	gamesBySession map[string]*domain.GameRecord

	profiles map[string]*domain.PlayerProfile
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:      make(map[int64]*domain.GameRecord),
		gamesByPlayer:  make(map[string][]*domain.GameRecord),
		gamesBySession: make(map[string]*domain.GameRecord),
		profiles:       make(map[string]*domain.PlayerProfile),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, record *domain.GameRecord) (int64, error) {
	if record == nil {
		return 0, ErrDuplicateGame
	}

	key := m.sessionKey(record.SessionUUID, record.PlayerKey)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesBySession[key]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	stored := *record
	stored.ID = m.nextID

	m.gamesByID[stored.ID] = &stored
	m.gamesBySession[key] = &stored
	m.gamesByPlayer[record.PlayerKey] = append(m.gamesByPlayer[record.PlayerKey], &stored)

	return stored.ID, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, playerKey string, limit int) ([]*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.gamesByPlayer[playerKey]
	if len(list) == 0 {
		return []*domain.GameRecord{}, nil
	}
	items := append([]*domain.GameRecord(nil), list...)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetGame(ctx context.Context, id int64, playerKey string) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesByID[id]
	if !ok || g == nil || g.PlayerKey != playerKey {
		return nil, nil
	}
	stored := *g
	return &stored, nil
}

func (m *memrepo) GetGameBySession(ctx context.Context, sessionUUID string, playerKey string) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.gamesBySession[m.sessionKey(sessionUUID, playerKey)]; ok && g != nil {
		stored := *g
		return &stored, nil
	}
	return nil, nil
}

func (m *memrepo) GetProfile(ctx context.Context, playerKey string) (*domain.PlayerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[strings.TrimSpace(playerKey)]; ok && p != nil {
		stored := *p
		return &stored, nil
	}
	return nil, nil
}

func (m *memrepo) UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error {
	if profile == nil {
		return nil
	}
	stored := *profile
	m.mu.Lock()
	m.profiles[strings.TrimSpace(profile.PlayerKey)] = &stored
	m.mu.Unlock()
	return nil
}

func (m *memrepo) sessionKey(sessionUUID, playerKey string) string {
	return strings.TrimSpace(sessionUUID) + "|" + strings.TrimSpace(playerKey)
}
