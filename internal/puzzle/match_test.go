package puzzle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/puzzli/internal/geom"
	"github.com/robalobadob/puzzli/internal/puzzle"
)

var (
	verbShape = puzzle.Shape{
		Role: puzzle.Verb, Text: "eats",
		Tabs: []puzzle.TabSpec{tab(geom.Left, puzzle.Subject), tab(geom.Right, puzzle.Object)},
	}
	subjShape = puzzle.Shape{Role: puzzle.Subject, Text: "cat", Blanks: []geom.Side{geom.Right}}
	objShape  = puzzle.Shape{Role: puzzle.Object, Text: "fish", Blanks: []geom.Side{geom.Left}}
)

func sentenceSolution() []puzzle.Link {
	return []puzzle.Link{
		{TabPiece: verbShape, BlankPiece: subjShape, Via: tab(geom.Left, puzzle.Subject), Role: puzzle.Subject},
		{TabPiece: verbShape, BlankPiece: objShape, Via: tab(geom.Right, puzzle.Object), Role: puzzle.Object},
	}
}

// buildSentence snaps subject and object onto the verb on a fresh board,
// adding the pieces in the given order and offsetting everything by off.
func buildSentence(t *testing.T, order []puzzle.Shape, off geom.Vec2) *puzzle.Board {
	t.Helper()
	b := puzzle.NewBoard()
	byRole := map[puzzle.Role]*puzzle.Piece{}
	for i, s := range order {
		byRole[s.Role] = mustAdd(t, b, puzzle.PieceConfig{Shape: s, Pos: geom.V(float64(i)*2000, 5000)})
	}
	verb := byRole[puzzle.Verb]
	_, err := b.MovePiece(verb.ID(), off)
	require.NoError(t, err)

	_, ok := snapInto(t, b, byRole[puzzle.Subject].ID(), off.Add(geom.V(-300-48.4+45+5, 3)))
	require.True(t, ok)
	_, ok = snapInto(t, b, byRole[puzzle.Object].ID(), off.Add(geom.V(300+48.4-45-5, -3)))
	require.True(t, ok)
	return b
}

func TestShapeEqualityIgnoresOrder(t *testing.T) {
	t.Parallel()

	a := verbShape
	b := puzzle.Shape{
		Role: puzzle.Verb, Text: "eats",
		Tabs: []puzzle.TabSpec{tab(geom.Right, puzzle.Object), tab(geom.Left, puzzle.Subject)},
	}
	assert.True(t, puzzle.EqualShapes(a, b))
	assert.Equal(t, a.Key(), b.Key())

	b.Text = "drinks"
	assert.False(t, puzzle.EqualShapes(a, b))

	c := puzzle.Shape{Blanks: []geom.Side{geom.Top, geom.Left}}
	d := puzzle.Shape{Blanks: []geom.Side{geom.Left, geom.Top}}
	assert.True(t, puzzle.EqualShapes(c, d))
	d.Blanks = []geom.Side{geom.Left}
	assert.False(t, puzzle.EqualShapes(c, d))
}

func TestSolvedRegardlessOfPlacementAndIdentity(t *testing.T) {
	t.Parallel()

	orders := map[string][]puzzle.Shape{
		"VerbFirst":   {verbShape, subjShape, objShape},
		"ObjectFirst": {objShape, subjShape, verbShape},
	}
	for name, order := range orders {
		order := order
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, off := range []geom.Vec2{{}, geom.V(-4000, 1234.5)} {
				b := buildSentence(t, order, off)
				live := b.Links()
				require.Len(t, live, 2)
				assert.True(t, puzzle.MatchLinks(live, sentenceSolution()))
			}
		})
	}
}

func TestMatchLinksMultisets(t *testing.T) {
	t.Parallel()

	sol := sentenceSolution()
	assert.True(t, puzzle.MatchLinks(nil, nil))
	assert.False(t, puzzle.MatchLinks(sol[:1], sol), "missing link")
	assert.False(t, puzzle.MatchLinks(append(sol, sol[0]), sol), "extra link")

	// same cardinality, but one target link matched twice
	assert.False(t, puzzle.MatchLinks([]puzzle.Link{sol[0], sol[0]}, sol))
	assert.True(t, puzzle.MatchLinks([]puzzle.Link{sol[1], sol[0]}, sol))

	wrongRole := sol[1]
	wrongRole.Role = puzzle.Adverbial
	assert.False(t, puzzle.EqualLinks(wrongRole, sol[1]))
	assert.False(t, puzzle.MatchLinks([]puzzle.Link{sol[0], wrongRole}, sol))
}

func TestWrongWordIsNotSolved(t *testing.T) {
	t.Parallel()

	dog := subjShape
	dog.Text = "dog"
	b := buildSentence(t, []puzzle.Shape{verbShape, dog, objShape}, geom.Vec2{})
	require.Len(t, b.Links(), 2)
	assert.False(t, puzzle.MatchLinks(b.Links(), sentenceSolution()))
}

func TestExerciseValidate(t *testing.T) {
	t.Parallel()

	ex := puzzle.Exercise{
		ID:   "cat-eats-fish",
		Type: puzzle.PlacePuzzlesInOrder,
		Task: "Build the sentence.",
		Pieces: []puzzle.PieceConfig{
			{Shape: verbShape}, {Shape: subjShape}, {Shape: objShape},
		},
		Solution: sentenceSolution(),
	}
	require.NoError(t, ex.Validate())
	assert.True(t, ex.Solvable())

	bad := ex
	bad.Solution = []puzzle.Link{{TabPiece: verbShape, BlankPiece: subjShape, Via: tab(geom.Top, puzzle.Subject)}}
	assert.ErrorIs(t, bad.Validate(), puzzle.ErrInvalidExercise)

	bad = ex
	bad.Solution = []puzzle.Link{{TabPiece: verbShape, BlankPiece: objShape, Via: tab(geom.Left, puzzle.Subject)}}
	assert.ErrorIs(t, bad.Validate(), puzzle.ErrInvalidExercise, "blank on the wrong side")

	bad = ex
	bad.ID = " "
	assert.ErrorIs(t, bad.Validate(), puzzle.ErrInvalidExercise)

	bad = ex
	bad.Pieces = []puzzle.PieceConfig{{Shape: puzzle.Shape{Blanks: []geom.Side{geom.Top, geom.Top}}}}
	err := bad.Validate()
	assert.ErrorIs(t, err, puzzle.ErrInvalidExercise)
	assert.ErrorIs(t, err, puzzle.ErrInvalidPiece)

	bad = ex
	twoLefts := verbShape
	twoLefts.Blanks = []geom.Side{geom.Left}
	bad.Solution = []puzzle.Link{{TabPiece: twoLefts, BlankPiece: subjShape, Via: tab(geom.Left, puzzle.Subject)}}
	err = bad.Validate()
	assert.ErrorIs(t, err, puzzle.ErrInvalidExercise, "tab and blank on one side")
	assert.ErrorIs(t, err, puzzle.ErrInvalidPiece)

	bad = ex
	doubled := subjShape
	doubled.Blanks = []geom.Side{geom.Right, geom.Right}
	bad.Solution = []puzzle.Link{{TabPiece: verbShape, BlankPiece: doubled, Via: tab(geom.Left, puzzle.Subject)}}
	err = bad.Validate()
	assert.ErrorIs(t, err, puzzle.ErrInvalidExercise, "two blanks on one side")
	assert.ErrorIs(t, err, puzzle.ErrInvalidPiece)

	// place and match tasks only have the predefined pieces to work with
	bad = ex
	dog := subjShape
	dog.Text = "dog"
	bad.Solution = []puzzle.Link{{TabPiece: verbShape, BlankPiece: dog, Via: tab(geom.Left, puzzle.Subject)}}
	assert.ErrorIs(t, bad.Validate(), puzzle.ErrInvalidExercise)
	bad.Pieces = nil
	bad.Solution = sentenceSolution()
	assert.ErrorIs(t, bad.Validate(), puzzle.ErrInvalidExercise)

	complete := bad
	complete.Type = puzzle.CompletePuzzle
	assert.NoError(t, complete.Validate(), "complete tasks may link player-made pieces")

	// a predefined piece that must be turned before it fits
	turned := ex
	upright := puzzle.Shape{Role: puzzle.Subject, Text: "cat", Blanks: []geom.Side{geom.Top}}
	turned.Pieces = []puzzle.PieceConfig{{Shape: verbShape}, {Shape: upright}, {Shape: objShape}}
	assert.NoError(t, turned.Validate())

	empty := puzzle.Exercise{ID: "free", Type: puzzle.CreatePuzzle}
	require.NoError(t, empty.Validate())
	assert.False(t, empty.Solvable())
}
