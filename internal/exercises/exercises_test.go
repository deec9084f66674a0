package exercises_test

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/puzzli/assets"
	"github.com/robalobadob/puzzli/internal/exercises"
	"github.com/robalobadob/puzzli/internal/geom"
	"github.com/robalobadob/puzzli/internal/puzzle"
	"github.com/robalobadob/puzzli/internal/sqldb"
)

const catEatsFish = `
// comment
{
	"id": "cat-eats-fish",
	"type": "PLACE_PUZZLES_IN_ORDER",
	"task": "Build it.",
	"pieces": [
		{"role": "verb", "text": "eats", "tabs": [{"side": "left", "role": "subject"}, {"side": "right", "role": "object"}]},
		{"role": "subject", "text": "cat", "blanks": ["right"]},
		{"role": "object", "text": "fish", "blanks": ["left"]},
	],
	"solution": [
		{"tab": 0, "blank": 1, "side": "left"},
		{"tab": 0, "blank": 2, "side": "right", "role": "adverbial"},
	],
}`

func TestDecode(t *testing.T) {
	t.Parallel()

	ex, err := exercises.Decode([]byte(catEatsFish))
	require.NoError(t, err)

	assert.Equal(t, "cat-eats-fish", ex.ID)
	assert.Equal(t, puzzle.PlacePuzzlesInOrder, ex.Type)
	require.Len(t, ex.Pieces, 3)
	require.Len(t, ex.Solution, 2)

	first := ex.Solution[0]
	assert.Equal(t, puzzle.TabSpec{Side: geom.Left, Role: puzzle.Subject}, first.Via)
	assert.Equal(t, puzzle.Subject, first.Role, "defaults to the tab's role")
	assert.True(t, puzzle.EqualShapes(ex.Pieces[1].Shape, first.BlankPiece))
	assert.Equal(t, puzzle.Adverbial, ex.Solution[1].Role)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"NotJSON":         `{"id": `,
		"MissingID":       `{"pieces": []}`,
		"BadSide":         `{"id": "x", "pieces": [{"blanks": ["up"]}]}`,
		"BadRole":         `{"id": "x", "pieces": [{"role": "predicate"}]}`,
		"IndexOutOfRange": `{"id": "x", "pieces": [{"tabs": [{"side": "left", "role": "subject"}]}], "solution": [{"tab": 0, "blank": 3, "side": "left"}]}`,
		"NoTabOnSide":     `{"id": "x", "pieces": [{}, {"blanks": ["right"]}], "solution": [{"tab": 0, "blank": 1, "side": "left"}]}`,
		"SelfLink":        `{"id": "x", "pieces": [{"tabs": [{"side": "left"}], "blanks": ["right"]}], "solution": [{"tab": 0, "blank": 0, "side": "left"}]}`,
		"HalfLink":        `{"id": "x", "pieces": [{}], "solution": [{"tab": 0}]}`,
		"EmptyLink":       `{"id": "x", "pieces": [{}], "solution": [{}]}`,
		"WrongBlank": `{"id": "x", "pieces": [
			{"tabs": [{"side": "left", "role": "subject"}]},
			{"blanks": ["top"]}
		], "solution": [{"tab": 0, "blank": 1, "side": "left"}]}`,
		"TabAndBlankOnOneSide": `{"id": "x", "type": "create_puzzle", "pieces": [], "solution": [{
			"tabPiece": {"tabs": [{"side": "left", "role": "subject"}], "blanks": ["left"]},
			"blankPiece": {"blanks": ["right"]},
			"via": {"side": "left", "role": "subject"}
		}]}`,
		"DoubledBlank": `{"id": "x", "type": "create_puzzle", "pieces": [], "solution": [{
			"tabPiece": {"tabs": [{"side": "left", "role": "subject"}]},
			"blankPiece": {"blanks": ["right", "right"]},
			"via": {"side": "left", "role": "subject"}
		}]}`,
		"PlaceTaskWithForeignPiece": `{"id": "x", "type": "place_puzzles_in_order", "pieces": [], "solution": [{
			"tabPiece": {"tabs": [{"side": "left", "role": "subject"}]},
			"blankPiece": {"blanks": ["right"]},
			"via": {"side": "left", "role": "subject"}
		}]}`,
	}
	for name, src := range cases {
		src := src
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := exercises.Decode([]byte(src))
			assert.Error(t, err)
		})
	}

	_, err := exercises.Decode([]byte(cases["DoubledBlank"]))
	assert.ErrorIs(t, err, puzzle.ErrInvalidExercise)
	assert.ErrorIs(t, err, puzzle.ErrInvalidPiece)
}

func TestEmbeddedDefaultsRoundTrip(t *testing.T) {
	t.Parallel()

	cat, err := exercises.LoadFS(assets.Exercises())
	require.NoError(t, err)
	require.Equal(t, 5, cat.Len())

	for i := 0; i < cat.Len(); i++ {
		ex := cat.At(i)
		data, err := exercises.Encode(ex)
		require.NoError(t, err, ex.ID)
		back, err := exercises.Decode(data)
		require.NoError(t, err, ex.ID)
		if diff := cmp.Diff(ex, back); diff != "" {
			t.Errorf("%s round trip (-want +got):\n%s", ex.ID, diff)
		}
	}
}

func TestEncodeSpellsOutUnknownPieces(t *testing.T) {
	t.Parallel()

	cat, err := exercises.Load("")
	require.NoError(t, err)
	ex, err := cat.Get("complete-the-object")
	require.NoError(t, err)
	require.Len(t, ex.Solution, 2)
	assert.Equal(t, "water", ex.Solution[1].BlankPiece.Text)

	data, err := exercises.Encode(ex)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"tab": 0`)
	assert.Contains(t, s, `"blankPiece"`)
	assert.Contains(t, s, `"water"`)
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	cat, err := exercises.Load("")
	require.NoError(t, err)

	list := cat.List()
	require.Len(t, list, cat.Len())
	require.Len(t, cat.IDs(), cat.Len())
	assert.Equal(t, list[2].ID, cat.IDs()[2])
	assert.Equal(t, "cat-eats-fish", list[0].ID, "sorted by file name")
	assert.Equal(t, 3, list[0].Pieces)
	assert.Equal(t, 2, list[0].Links)

	free, err := cat.Get("free-sentence")
	require.NoError(t, err)
	assert.False(t, free.Solvable())
	assert.True(t, free.Type.AllowsNewPieces())

	_, err = cat.Get("nope")
	assert.ErrorIs(t, err, exercises.ErrNotFound)
}

func TestCatalogRejectsDuplicatesAndEmpty(t *testing.T) {
	t.Parallel()

	dup := fstest.MapFS{
		"a.hujson": {Data: []byte(`{"id": "same", "pieces": []}`)},
		"b.json":   {Data: []byte(`{"id": "same", "pieces": []}`)},
	}
	_, err := exercises.LoadFS(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = exercises.LoadFS(fstest.MapFS{"notes.txt": {Data: []byte("hi")}})
	assert.Error(t, err)
}

func TestSaveFileLoadFile(t *testing.T) {
	t.Parallel()

	ex, err := exercises.Decode([]byte(catEatsFish))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.hujson")
	require.NoError(t, exercises.SaveFile(path, ex))
	back, err := exercises.LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(ex, back))

	// from disk directory
	cat, err := exercises.Load(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := sqldb.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = sqldb.Migrate(ctx, db, assets.Migrations())
	require.NoError(t, err)

	repo := exercises.NewRepo(db)
	ex, err := exercises.Decode([]byte(catEatsFish))
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, ex, ""))
	got, err := repo.Get(ctx, ex.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(ex, got))

	ex.Task = "Build it again."
	require.NoError(t, repo.Save(ctx, ex, ""))
	list, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Build it again.", list[0].Task)

	author, err := repo.Author(ctx, ex.ID)
	require.NoError(t, err)
	assert.Empty(t, author)

	bad := ex
	bad.ID = ""
	assert.ErrorIs(t, repo.Save(ctx, bad, ""), puzzle.ErrInvalidExercise)

	require.NoError(t, repo.Delete(ctx, ex.ID))
	_, err = repo.Get(ctx, ex.ID)
	assert.ErrorIs(t, err, exercises.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ex.ID), exercises.ErrNotFound)
}
