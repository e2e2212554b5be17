package engine

import (
	nchess "github.com/corentings/chess/v2"
)

// Piece values in centipawns. The king carries a deliberately huge weight so
// that losing it dominates any conceivable material swing.
const (
	pawnValue   = 100
	knightValue = 300
	bishopValue = 300
	rookValue   = 500
	queenValue  = 900
	kingValue   = 20000
)

var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   pawnValue,
	nchess.Knight: knightValue,
	nchess.Bishop: bishopValue,
	nchess.Rook:   rookValue,
	nchess.Queen:  queenValue,
	nchess.King:   kingValue,
}

// Evaluate computes the material balance of a position from the given side's
// point of view: own pieces count positive, the opponent's negative. A
// checkmated side is scored as having lost its king, so mating lines strictly
// dominate any material gain; stalemate scores as plain material.
//
// The function is symmetric: Evaluate(p, White) == -Evaluate(p, Black).
func Evaluate(pos *nchess.Position, perspective nchess.Color) int {
	total := 0
	board := pos.Board()
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			value := pieceValues[piece.Type()]
			if piece.Color() == nchess.White {
				total += value
			} else {
				total -= value
			}
		}
	}

	if pos.Status() == nchess.Checkmate {
		// Side to move is the mated side.
		if pos.Turn() == nchess.White {
			total -= kingValue
		} else {
			total += kingValue
		}
	}

	if perspective == nchess.Black {
		return -total
	}
	return total
}
