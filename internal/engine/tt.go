package engine

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

// ttFlag classifies a cached score the way standard alpha-beta transposition
// tables do: a node searched to completion inside its window yields an exact
// score, while a node that failed high or low only yields a bound.
type ttFlag uint8

const (
	ttExact ttFlag = iota
	ttLower
	ttUpper
)

type ttEntry struct {
	score int
	depth int
	flag  ttFlag
}

// transpositionTable memoizes search results for a single top-level move
// decision. It is created empty per ChooseMove call and discarded afterwards,
// which bounds the blast radius of any fingerprinting bug to one decision.
type transpositionTable struct {
	entries map[uint64]ttEntry

	lookups uint64
	hits    uint64
}

func newTranspositionTable() *transpositionTable {
	return &transpositionTable{entries: make(map[uint64]ttEntry)}
}

// probe returns a usable entry for key, if one exists that was searched at
// least as deep as the caller requires. A deeper search strictly dominates a
// shallower one for the same position.
func (t *transpositionTable) probe(key uint64, depth int) (ttEntry, bool) {
	t.lookups++
	entry, ok := t.entries[key]
	if !ok || entry.depth < depth {
		return ttEntry{}, false
	}
	t.hits++
	return entry, true
}

// store records an entry, keeping whichever of the old and new entries was
// searched deeper. Store order is not assumed to be monotonic in depth.
func (t *transpositionTable) store(key uint64, entry ttEntry) {
	if prev, ok := t.entries[key]; ok && prev.depth > entry.depth {
		return
	}
	t.entries[key] = entry
}

func (t *transpositionTable) size() int {
	return len(t.entries)
}

// positionKey computes the 64-bit Polyglot Zobrist fingerprint of a position.
// The key covers piece placement, side to move, castling rights and the en
// passant square, so two positions that differ in any of those hash apart.
func positionKey(pos *nchess.Position) (uint64, error) {
	hasher := nchess.NewZobristHasher()
	hash, err := hasher.HashPosition(pos.String())
	if err != nil {
		return 0, fmt.Errorf("compute position fingerprint: %w", err)
	}
	return nchess.ZobristHashToUint64(hash), nil
}
