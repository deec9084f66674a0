package puzzle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/puzzli/internal/geom"
	"github.com/robalobadob/puzzli/internal/puzzle"
)

const eps = 1e-9

func tab(side geom.Side, role puzzle.Role) puzzle.TabSpec {
	return puzzle.TabSpec{Side: side, Role: role}
}

func mustAdd(t *testing.T, b *puzzle.Board, cfg puzzle.PieceConfig) *puzzle.Piece {
	t.Helper()
	p, err := b.Add(cfg)
	require.NoError(t, err)
	return p
}

func ref(p *puzzle.Piece, s geom.Side) puzzle.FeatureRef {
	return puzzle.FeatureRef{Piece: p.ID(), Side: s}
}

func midpoint(t *testing.T, b *puzzle.Board, r puzzle.FeatureRef) geom.Vec2 {
	t.Helper()
	m, ok := b.Midpoint(r)
	require.True(t, ok, "feature %s not on board", r)
	return m
}

// snapInto drags piece id to pos, runs one proximity pass and commits.
func snapInto(t *testing.T, b *puzzle.Board, id puzzle.PieceID, pos geom.Vec2) (puzzle.Connection, bool) {
	t.Helper()
	s := puzzle.NewSnapper(b)
	s.IndexPiece(id)
	_, err := b.MovePiece(id, pos)
	require.NoError(t, err)
	s.UpdateByProximity()
	c, ok := s.Commit()
	s.Reset()
	return c, ok
}
