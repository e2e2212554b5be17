// Package engine implements a fixed-depth minimax chess engine with
// alpha-beta pruning and a per-decision transposition cache. The rules of the
// game (legality, terminal detection, move application) come from the
// corentings/chess board library; the engine only ever works on detached
// copies of the caller's position and never mutates shared state.
package engine

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"
)

var (
	ErrNilGame      = errors.New("game is required")
	ErrInvalidDepth = errors.New("search depth must be non-negative")
	ErrWrongTurn    = errors.New("side to move does not match the requested side")
)

// RootScore is the evaluated outcome of a single root candidate move.
type RootScore struct {
	Move  nchess.Move
	Score int
}

// SearchInfo summarizes one completed move decision.
type SearchInfo struct {
	Depth      int
	Score      int
	Nodes      uint64
	CacheHits  uint64
	CacheSize  int
	Duration   time.Duration
	Candidates []RootScore
}

// Engine selects moves. It is stateless across decisions apart from its
// random source for tie-breaks, so a single Engine may serve many games.
type Engine struct {
	randMu   sync.Mutex
	rand     *rand.Rand
	logger   *zap.Logger
	noCache  bool
	progress func(RootScore)
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithoutCache disables the transposition cache. Scores must be identical
// with and without it; the toggle exists for diagnostics and tests.
func WithoutCache() Option {
	return func(e *Engine) { e.noCache = true }
}

// WithProgress registers a callback invoked synchronously with each root
// candidate's score as it finishes searching.
func WithProgress(fn func(RootScore)) Option {
	return func(e *Engine) { e.progress = fn }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetRandomSeed makes tie-break selection reproducible.
func (e *Engine) SetRandomSeed(seed int64) {
	e.randMu.Lock()
	e.rand = rand.New(rand.NewSource(seed))
	e.randMu.Unlock()
}

// ChooseMove picks a move for side in the given game, searching the tree to
// maxDepth plies. It returns (nil, info, nil) when side has no legal move;
// interpreting that as checkmate or stalemate is the caller's job. Among
// equally scored best candidates one is chosen uniformly at random to avoid
// a deterministic, exploitable ordering bias.
//
// The caller's game is never touched: every explored line runs on detached
// positions, and the transposition cache is created fresh for this call and
// discarded at its end.
func (e *Engine) ChooseMove(game *nchess.Game, side nchess.Color, maxDepth int) (*nchess.Move, *SearchInfo, error) {
	if game == nil || game.Position() == nil {
		return nil, nil, ErrNilGame
	}
	if maxDepth < 0 {
		return nil, nil, ErrInvalidDepth
	}
	pos := game.Position()
	if pos.Turn() != side {
		return nil, nil, ErrWrongTurn
	}

	start := time.Now()
	s := &searcher{perspective: side}
	if !e.noCache {
		s.tt = newTranspositionTable()
	}

	childDepth := maxDepth - 1
	if childDepth < 0 {
		childDepth = 0
	}

	info := &SearchInfo{Depth: maxDepth}
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		info.Duration = time.Since(start)
		return nil, info, nil
	}

	var (
		bestScore int
		bestIdx   []int
	)
	for i := range moves {
		next := pos.Update(&moves[i])
		// Fresh full window per candidate: root moves are ranked against
		// each other, not pruned against each other.
		score, err := s.search(next, childDepth, -scoreInf, scoreInf)
		if err != nil {
			return nil, nil, err
		}
		rs := RootScore{Move: moves[i], Score: score}
		info.Candidates = append(info.Candidates, rs)
		if e.progress != nil {
			e.progress(rs)
		}
		switch {
		case len(bestIdx) == 0 || score > bestScore:
			bestScore = score
			bestIdx = append(bestIdx[:0], i)
		case score == bestScore:
			bestIdx = append(bestIdx, i)
		}
	}

	chosen := moves[bestIdx[e.intn(len(bestIdx))]]
	info.Score = bestScore
	info.Nodes = s.nodes
	if s.tt != nil {
		info.CacheHits = s.tt.hits
		info.CacheSize = s.tt.size()
	}
	info.Duration = time.Since(start)

	e.logger.Debug("move decided",
		zap.String("move", chosen.String()),
		zap.Int("score", bestScore),
		zap.Int("depth", maxDepth),
		zap.Uint64("nodes", info.Nodes),
		zap.Uint64("cache_hits", info.CacheHits),
		zap.Int("ties", len(bestIdx)),
		zap.Duration("took", info.Duration),
	)
	return &chosen, info, nil
}

func (e *Engine) intn(n int) int {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return e.rand.Intn(n)
}
