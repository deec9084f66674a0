package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/puzzli/internal/exercises"
	"github.com/robalobadob/puzzli/internal/game"
	"github.com/robalobadob/puzzli/internal/puzzle"
)

func newPlayer(t *testing.T, id string) (*player, *bytes.Buffer) {
	t.Helper()
	cat, err := exercises.Load("")
	require.NoError(t, err)
	ex, err := cat.Get(id)
	require.NoError(t, err)
	g, err := game.New(ex)
	require.NoError(t, err)
	var out bytes.Buffer
	return &player{g: g, out: &out}, &out
}

func TestPlaySolvesFromCommands(t *testing.T) {
	p, out := newPlayer(t, "cat-eats-fish")

	for _, line := range []string{
		"show",
		"grab 2",
		"to -298.4 3",
		"drop",
		"place 3 298.4 -3",
		"links",
		"status",
	} {
		require.False(t, p.exec(line), line)
	}
	s := out.String()
	assert.Contains(t, s, "snap ready")
	assert.Contains(t, s, "snapped")
	assert.Contains(t, s, "Solved in 2 moves!")
	assert.Contains(t, s, "1: ")
	assert.True(t, p.g.IsSolved())
	assert.True(t, p.exec("quit"))
}

func TestPlayReportsErrors(t *testing.T) {
	p, out := newPlayer(t, "cat-eats-fish")

	for _, line := range []string{"drop", "grab x", "move 1", "rotate 99", "disconnect 0", "remove 1", "fly"} {
		out.Reset()
		require.False(t, p.exec(line), line)
		assert.NotEmpty(t, out.String(), line)
	}
	out.Reset()
	p.exec("remove 1")
	assert.Contains(t, out.String(), game.ErrNotAllowed.Error())

	out.Reset()
	p.exec("text 2 The dog")
	assert.Empty(t, out.String())
	assert.Equal(t, "The dog", p.g.Snapshot().Pieces[1].Text)

	require.False(t, p.exec("rotate 3 left"))
	v := p.g.Snapshot()
	sides := []string{}
	for _, f := range v.Pieces[2].Features {
		sides = append(sides, f.Side.String())
	}
	assert.Equal(t, []string{"bottom"}, sides, "a left blank ends up at the bottom")
}

func TestCheckAndExport(t *testing.T) {
	cat, err := exercises.Load("")
	require.NoError(t, err)
	list := make([]puzzle.Exercise, cat.Len())
	for i := range list {
		list[i] = cat.At(i)
	}

	dir := t.TempDir()
	require.NoError(t, exportAll(dir, list))
	files, err := filepath.Glob(filepath.Join(dir, "*.hujson"))
	require.NoError(t, err)
	require.Len(t, files, cat.Len())

	var out bytes.Buffer
	require.NoError(t, checkFiles(&out, files))
	assert.Contains(t, out.String(), "ok    ")

	bad := filepath.Join(dir, "bad.hujson")
	require.NoError(t, os.WriteFile(bad, []byte(`{"pieces": [}`), 0o644))
	out.Reset()
	assert.Error(t, checkFiles(&out, append(files, bad)))
	assert.Contains(t, out.String(), "FAIL")

	out.Reset()
	require.NoError(t, printSummaries(&out, list))
	assert.Contains(t, out.String(), "cat-eats-fish")
	assert.Contains(t, out.String(), "place_puzzles_in_order")
}

func TestMigrateCommand(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "app.db"))
	noEnv := filepath.Join(t.TempDir(), "missing.env")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	run := func(args ...string) string {
		t.Helper()
		out.Reset()
		rootCmd.SetArgs(append([]string{"migrate", "--env-file", noEnv}, args...))
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	assert.Equal(t, "pending 001_init.sql\npending 002_daily.sql\n", run("--dry-run"))
	assert.Equal(t, "applied 001_init.sql\napplied 002_daily.sql\n", run("--dry-run=false"))
	assert.Empty(t, run("--dry-run=false"))
	assert.Empty(t, run("--dry-run"))
}
