package engine

import (
	nchess "github.com/corentings/chess/v2"
)

// scoreInf bounds the alpha-beta window. No reachable evaluation can exceed
// it: a full board plus a captured king stays well below 2*kingValue.
const scoreInf = 2 * kingValue

// searcher holds the per-decision state of a single ChooseMove call. It is
// never shared between decisions: every call gets its own searcher and its
// own transposition table, so concurrent decisions cannot corrupt each other.
type searcher struct {
	perspective nchess.Color
	tt          *transpositionTable // nil disables memoization
	nodes       uint64
}

// search returns the fixed-depth minimax value of pos with alpha-beta
// pruning. Scores are always expressed from s.perspective; the side to move
// maximizes when it equals s.perspective and minimizes otherwise, so both
// sides share this one code path.
func (s *searcher) search(pos *nchess.Position, depth, alpha, beta int) (int, error) {
	if depth < 0 {
		return 0, ErrInvalidDepth
	}
	s.nodes++

	if depth == 0 || terminal(pos) {
		return Evaluate(pos, s.perspective), nil
	}

	var key uint64
	if s.tt != nil {
		k, err := positionKey(pos)
		if err != nil {
			return 0, err
		}
		key = k
		if entry, ok := s.tt.probe(key, depth); ok {
			switch entry.flag {
			case ttExact:
				return entry.score, nil
			case ttLower:
				if entry.score > alpha {
					alpha = entry.score
				}
			case ttUpper:
				if entry.score < beta {
					beta = entry.score
				}
			}
			if alpha >= beta {
				return entry.score, nil
			}
		}
	}

	moves := pos.ValidMoves()
	if len(moves) == 0 {
		// The rules collaborator did not flag this position as terminal;
		// fall through to the static evaluation rather than guessing.
		return Evaluate(pos, s.perspective), nil
	}

	alphaOrig, betaOrig := alpha, beta
	maximizing := pos.Turn() == s.perspective

	best := scoreInf
	if maximizing {
		best = -scoreInf
	}
	for i := range moves {
		next := pos.Update(&moves[i])
		value, err := s.search(next, depth-1, alpha, beta)
		if err != nil {
			return 0, err
		}
		if maximizing {
			if value > best {
				best = value
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if value < best {
				best = value
			}
			if best < beta {
				beta = best
			}
		}
		if beta <= alpha {
			break
		}
	}

	if s.tt != nil {
		flag := ttExact
		if best <= alphaOrig {
			flag = ttUpper
		} else if best >= betaOrig {
			flag = ttLower
		}
		s.tt.store(key, ttEntry{score: best, depth: depth, flag: flag})
	}
	return best, nil
}

// terminal reports whether the rules collaborator flags pos as game over.
func terminal(pos *nchess.Position) bool {
	switch pos.Status() {
	case nchess.Checkmate, nchess.Stalemate:
		return true
	default:
		return false
	}
}
