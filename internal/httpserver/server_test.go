package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/puzzli/assets"
	"github.com/robalobadob/puzzli/internal/config"
	"github.com/robalobadob/puzzli/internal/exercises"
	"github.com/robalobadob/puzzli/internal/game"
	"github.com/robalobadob/puzzli/internal/geom"
	"github.com/robalobadob/puzzli/internal/sqldb"
	"github.com/robalobadob/puzzli/internal/store"
)

const catEatsFish = `{
	"id": "cat-eats-fish",
	"type": "place_puzzles_in_order",
	"task": "The cat eats fish.",
	"pieces": [
		{"role": "verb", "text": "eats", "tabs": [{"side": "left", "role": "subject"}, {"side": "right", "role": "object"}]},
		{"role": "subject", "text": "The cat", "blanks": ["right"]},
		{"role": "object", "text": "fish", "blanks": ["left"]},
	],
	"solution": [
		{"tab": 0, "blank": 1, "side": "left"},
		{"tab": 0, "blank": 2, "side": "right"},
	],
}`

// piece IDs after auto layout of catEatsFish
const (
	verbID = 1
	subjID = 2
	objID  = 3
)

func testConfig() config.Config {
	return config.Config{
		Port:          "0",
		JWTSecret:     "test-secret",
		JWTTTL:        time.Hour,
		CookieName:    "puzzli_token",
		ClientOrigin:  "http://localhost:5173",
		Env:           "test",
		DailySalt:     "salt",
		SnapThreshold: 75,
	}
}

// newTestServer serves a one-exercise catalog, so the daily exercise is known.
func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	db, err := sqldb.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = sqldb.Migrate(context.Background(), db, assets.Migrations())
	require.NoError(t, err)

	cat, err := exercises.LoadFS(fstest.MapFS{"01.hujson": {Data: []byte(catEatsFish)}})
	require.NoError(t, err)

	s := New(testConfig(), store.NewMemoryStore(), db, cat)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, s
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

// do sends body (a string is sent as is, anything else as JSON) and decodes
// the response into out when out is non-nil.
func (c *client) do(method, path string, body, out any) int {
	c.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(c.t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	res, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(c.t, json.NewDecoder(res.Body).Decode(out), "%s %s", method, path)
	}
	return res.StatusCode
}

func (c *client) newGame() string {
	c.t.Helper()
	var res newGameRes
	require.Equal(c.t, http.StatusCreated, c.do("POST", "/game/new", map[string]string{"exerciseId": "cat-eats-fish"}, &res))
	return res.GameID
}

func (c *client) drop(gameID string, piece int, to geom.Vec2) dragEndRes {
	c.t.Helper()
	p := "/game/" + gameID
	require.Equal(c.t, http.StatusOK, c.do("POST", p+"/drag/begin", map[string]int{"piece": piece}, nil))
	require.Equal(c.t, http.StatusOK, c.do("POST", p+"/drag/move", map[string]geom.Vec2{"to": to}, nil))
	var res dragEndRes
	require.Equal(c.t, http.StatusOK, c.do("POST", p+"/drag/end", nil, &res))
	return res
}

func (c *client) solve(gameID string) dragEndRes {
	c.t.Helper()
	first := c.drop(gameID, subjID, geom.V(-298.4, 3))
	require.NotNil(c.t, first.Connection)
	require.False(c.t, first.Solved)
	return c.drop(gameID, objID, geom.V(298.4, -3))
}

func (c *client) signup(name string) {
	c.t.Helper()
	require.Equal(c.t, http.StatusCreated,
		c.do("POST", "/auth/signup", map[string]string{"username": name, "password": "correct horse"}, nil))
}

func TestHealthAndNotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t, ts)

	var ok map[string]bool
	assert.Equal(t, http.StatusOK, c.do("GET", "/health", nil, &ok))
	assert.True(t, ok["ok"])

	var nf map[string]string
	assert.Equal(t, http.StatusNotFound, c.do("GET", "/nope", nil, &nf))
	assert.Equal(t, "not_found", nf["error"])
}

func TestPlayThroughHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t, ts)
	id := c.newGame()

	var v game.View
	require.Equal(t, http.StatusOK, c.do("GET", "/game/"+id, nil, &v))
	require.Len(t, v.Pieces, 3)
	assert.Equal(t, "cat-eats-fish", v.ExerciseID)
	assert.False(t, v.Solved)

	// pending pair is reported while dragging close
	p := "/game/" + id
	require.Equal(t, http.StatusOK, c.do("POST", p+"/drag/begin", map[string]int{"piece": subjID}, nil))
	var mv dragMoveRes
	require.Equal(t, http.StatusOK, c.do("POST", p+"/drag/move", map[string]geom.Vec2{"to": geom.V(-298.4, 3)}, &mv))
	require.NotNil(t, mv.Pending)
	assert.Equal(t, subjID, int(mv.Pending.Moving.Piece))
	assert.Equal(t, verbID, int(mv.Pending.Target.Piece))
	require.Equal(t, http.StatusOK, c.do("POST", p+"/drag/cancel", nil, nil))

	res := c.solve(id)
	assert.True(t, res.Solved)
	assert.True(t, res.View.Solved)
	assert.Len(t, res.View.Connections, 2)
	assert.Equal(t, 2, res.View.Moves)
}

func TestGameErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t, ts)
	id := c.newGame()
	p := "/game/" + id

	var e map[string]string
	assert.Equal(t, http.StatusConflict, c.do("POST", p+"/drag/end", nil, &e))
	assert.Equal(t, "not_dragging", e["error"])

	assert.Equal(t, http.StatusNotFound, c.do("POST", p+"/drag/begin", map[string]int{"piece": 99}, &e))
	assert.Equal(t, "piece_not_found", e["error"])

	assert.Equal(t, http.StatusBadRequest, c.do("POST", p+"/drag/begin", nil, &e))

	assert.Equal(t, http.StatusForbidden, c.do("POST", p+"/pieces", map[string]string{"text": "x"}, &e))
	assert.Equal(t, "not_allowed", e["error"])

	assert.Equal(t, http.StatusNotFound, c.do("GET", "/game/missing", nil, &e))
	assert.Equal(t, http.StatusNotFound, c.do("POST", "/game/new", map[string]string{"exerciseId": "missing"}, &e))
	assert.Equal(t, "exercise_not_found", e["error"])

	// connected pieces keep their text
	c.drop(id, subjID, geom.V(-298.4, 3))
	assert.Equal(t, http.StatusConflict, c.do("POST", p+"/pieces/2/text", map[string]string{"text": "A dog"}, &e))
	assert.Equal(t, "piece_connected", e["error"])

	var v game.View
	require.Equal(t, http.StatusOK, c.do("POST", p+"/pieces/3/rotate", map[string]string{"dir": "left"}, &v))
	require.Equal(t, http.StatusOK, c.do("GET", p, nil, &v))
	require.Len(t, v.Connections, 1)
	require.Equal(t, http.StatusOK, c.do("POST", p+"/disconnect", v.Connections[0], &v))
	assert.Empty(t, v.Connections)
}

func TestGamesAreOwned(t *testing.T) {
	ts, _ := newTestServer(t)
	alice, bob := newClient(t, ts), newClient(t, ts)
	id := alice.newGame()

	assert.Equal(t, http.StatusOK, alice.do("GET", "/game/"+id, nil, nil))
	assert.Equal(t, http.StatusNotFound, bob.do("GET", "/game/"+id, nil, nil))

	var live []liveGame
	require.Equal(t, http.StatusOK, alice.do("GET", "/games/live", nil, &live))
	require.Len(t, live, 1)
	assert.Equal(t, id, live[0].ID)
	require.Equal(t, http.StatusOK, bob.do("GET", "/games/live", nil, &live))
	assert.Empty(t, live)
}

func TestAuthAndStats(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t, ts)

	assert.Equal(t, http.StatusUnauthorized, c.do("GET", "/auth/me", nil, nil))

	// anonymous game, claimed on signup
	id := c.newGame()
	c.signup("ada")
	assert.Equal(t, http.StatusConflict,
		c.do("POST", "/auth/signup", map[string]string{"username": "ADA", "password": "correct horse"}, nil))
	assert.Equal(t, http.StatusBadRequest,
		c.do("POST", "/auth/signup", map[string]string{"username": "x", "password": "correct horse"}, nil))

	var me authUser
	require.Equal(t, http.StatusOK, c.do("GET", "/auth/me", nil, &me))
	assert.Equal(t, "ada", me.Username)

	// still playable after login
	assert.True(t, c.solve(id).Solved)

	id2 := c.newGame()
	c.solve(id2)

	var stats statsRes
	require.Equal(t, http.StatusOK, c.do("GET", "/stats/me", nil, &stats))
	assert.Equal(t, statsRes{ID: me.ID, GamesPlayed: 2, Solved: 2}, stats, "claimed anonymous game counts")

	var games []gameRow
	require.Equal(t, http.StatusOK, c.do("GET", "/games/mine", nil, &games))
	require.Len(t, games, 2)
	for _, g := range games {
		assert.Equal(t, "solved", g.Status)
		assert.Equal(t, 2, g.Moves)
	}

	require.Equal(t, http.StatusOK, c.do("POST", "/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do("GET", "/auth/me", nil, nil))

	assert.Equal(t, http.StatusUnauthorized,
		c.do("POST", "/auth/login", map[string]string{"username": "ada", "password": "wrong password"}, nil))
	assert.Equal(t, http.StatusOK,
		c.do("POST", "/auth/login", map[string]string{"username": "ada", "password": "correct horse"}, nil))
	assert.Equal(t, http.StatusOK, c.do("GET", "/auth/me", nil, nil))
}

const authored = `// mine
{
	"id": "dog-runs",
	"type": "place_puzzles_in_order",
	"task": "The dog runs.",
	"pieces": [
		{"role": "verb", "text": "runs", "tabs": [{"side": "left", "role": "subject"}]},
		{"role": "subject", "text": "The dog", "blanks": ["right"]},
	],
	"solution": [{"tab": 0, "blank": 1, "side": "left"}],
}`

func TestExerciseAuthoring(t *testing.T) {
	ts, _ := newTestServer(t)
	author, other := newClient(t, ts), newClient(t, ts)

	assert.Equal(t, http.StatusUnauthorized, author.do("POST", "/exercises", authored, nil))

	author.signup("author")
	other.signup("other")

	var sum exercises.Summary
	require.Equal(t, http.StatusCreated, author.do("POST", "/exercises", authored, &sum))
	assert.Equal(t, "dog-runs", sum.ID)
	assert.Equal(t, http.StatusOK, author.do("POST", "/exercises", authored, nil), "update")

	assert.Equal(t, http.StatusConflict, author.do("POST", "/exercises", catEatsFish, nil), "built-in id")
	assert.Equal(t, http.StatusBadRequest, author.do("POST", "/exercises", `{"pieces": []}`, nil))
	assert.Equal(t, http.StatusForbidden, other.do("POST", "/exercises", authored, nil))

	var list exerciseList
	require.Equal(t, http.StatusOK, other.do("GET", "/exercises", nil, &list))
	require.Len(t, list.Builtin, 1)
	require.Len(t, list.Authored, 1)
	assert.Equal(t, 2, list.Authored[0].Pieces)

	// authored exercises are playable
	var res newGameRes
	require.Equal(t, http.StatusCreated, other.do("POST", "/game/new", map[string]string{"exerciseId": "dog-runs"}, &res))
	assert.Len(t, res.View.Pieces, 2)

	assert.Equal(t, http.StatusForbidden, other.do("DELETE", "/exercises/dog-runs", nil, nil))
	assert.Equal(t, http.StatusOK, author.do("DELETE", "/exercises/dog-runs", nil, nil))
	assert.Equal(t, http.StatusNotFound, author.do("GET", "/exercises/dog-runs", nil, nil))
}

func TestDailySessionsArePrunedNextDay(t *testing.T) {
	ts, s := newTestServer(t)
	c := newClient(t, ts)

	var res dailyNewRes
	require.Equal(t, http.StatusCreated, c.do("POST", "/daily/new", nil, &res))

	d := s.daily
	d.mu.Lock()
	defer d.mu.Unlock()
	require.Len(t, d.sessions, 1)
	require.Len(t, d.byGame, 1)

	d.pruneBefore(res.Date)
	assert.Len(t, d.sessions, 1, "today's session stays")

	d.pruneBefore("9999-12-31")
	assert.Empty(t, d.sessions)
	assert.Empty(t, d.byGame)
}

func TestDaily(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t, ts)

	var first, again dailyNewRes
	require.Equal(t, http.StatusCreated, c.do("POST", "/daily/new", nil, &first))
	assert.Equal(t, "cat-eats-fish", first.ExerciseID)
	require.NotEmpty(t, first.GameID)
	require.Equal(t, http.StatusOK, c.do("POST", "/daily/new", nil, &again))
	assert.Equal(t, first.GameID, again.GameID, "resumes the session")

	require.True(t, c.solve(first.GameID).Solved)

	var played dailyNewRes
	require.Equal(t, http.StatusOK, c.do("POST", "/daily/new", nil, &played))
	assert.True(t, played.Played)
	assert.Empty(t, played.GameID)

	var lb lbRes
	require.Equal(t, http.StatusOK, c.do("GET", "/daily/leaderboard", nil, &lb))
	assert.Equal(t, first.Date, lb.Date)
	require.Len(t, lb.Top, 1)
	assert.Equal(t, 2, lb.Top[0].Moves)

	var hist []map[string]any
	require.Equal(t, http.StatusOK, c.do("GET", "/daily/history", nil, &hist))
	assert.Len(t, hist, 1)
}
