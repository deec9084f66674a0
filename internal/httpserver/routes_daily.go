// internal/httpserver/routes_daily.go
//
// HTTP routes for the exercise of the day.
//   - POST /daily/new         → start (or resume) today's game
//   - GET  /daily/leaderboard → fastest solves for today (or ?date=YYYY-MM-DD)
//   - GET  /daily/history     → the caller's past results
//
// Each player gets one result per day. The game itself is an ordinary session
// played through the /game/{id} routes; the first solve is recorded here.

package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/puzzli/internal/daily"
	"github.com/robalobadob/puzzli/internal/game"
	"github.com/robalobadob/puzzli/internal/puzzle"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	now      func() time.Time
	mu       sync.Mutex
	sessions map[string]*dailySession // keyed by player|date
	byGame   map[string]*dailySession
}

type dailySession struct {
	GameID     string
	PlayerID   string
	Date       string
	ExerciseID string
	Recorded   bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	d := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		now:      time.Now,
		sessions: make(map[string]*dailySession),
		byGame:   make(map[string]*dailySession),
	}
	s.daily = d
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", d.handleNew)
		r.Get("/leaderboard", d.handleLeaderboard)
		r.Get("/history", d.handleHistory)
	})
}

// today returns today's date key and exercise.
func (d *dailyServer) today() (string, puzzle.Exercise) {
	now := d.now().UTC()
	cat := d.srv.catalog
	return daily.DateKey(now), cat.At(daily.Pick(now, d.salt, cat.IDs()))
}

type dailyNewRes struct {
	GameID     string     `json:"gameId,omitempty"`
	Date       string     `json:"date"`
	ExerciseID string     `json:"exerciseId"`
	Played     bool       `json:"played"`
	View       *game.View `json:"view,omitempty"`
}

// handleNew resumes today's session or starts one. A player with a recorded
// result gets Played=true and no game.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	pid, _ := d.srv.playerID(w, r)
	date, ex := d.today()
	res := dailyNewRes{Date: date, ExerciseID: ex.ID}

	played, err := d.store.AlreadyPlayed(r.Context(), pid, date)
	if err != nil {
		d.srv.writeErr(w, r, err)
		return
	}
	if played {
		res.Played = true
		writeJSON(w, http.StatusOK, res)
		return
	}

	key := pid + "|" + date
	d.mu.Lock()
	d.pruneBefore(date)
	sess := d.sessions[key]
	d.mu.Unlock()
	if sess != nil {
		if g, err := d.srv.store.Get(r.Context(), sess.GameID); err == nil {
			v := g.Snapshot()
			res.GameID, res.View = g.ID, &v
			writeJSON(w, http.StatusOK, res)
			return
		}
		// session swept from the store: start over
	}

	g, err := d.srv.startGame(w, r, ex)
	if err != nil {
		d.srv.writeErr(w, r, err)
		return
	}
	sess = &dailySession{GameID: g.ID, PlayerID: pid, Date: date, ExerciseID: ex.ID}
	d.mu.Lock()
	d.sessions[key] = sess
	d.byGame[g.ID] = sess
	d.mu.Unlock()

	v := g.Snapshot()
	res.GameID, res.View = g.ID, &v
	writeJSON(w, http.StatusCreated, res)
}

// pruneBefore forgets sessions of earlier days. Date keys sort as strings.
// Callers hold d.mu.
func (d *dailyServer) pruneBefore(date string) {
	for key, sess := range d.sessions {
		if sess.Date < date {
			delete(d.sessions, key)
			delete(d.byGame, sess.GameID)
		}
	}
}

// record stores the result of a solved daily game. Non-daily games and
// repeated solves are ignored.
func (d *dailyServer) record(ctx context.Context, g *game.Game) {
	d.mu.Lock()
	sess := d.byGame[g.ID]
	if sess == nil || sess.Recorded {
		d.mu.Unlock()
		return
	}
	sess.Recorded = true
	d.mu.Unlock()

	err := d.store.InsertResult(ctx, daily.Result{
		UserID:     sess.PlayerID,
		Date:       sess.Date,
		ExerciseID: sess.ExerciseID,
		Moves:      g.Moves(),
		ElapsedMs:  g.Elapsed().Milliseconds(),
	})
	if err != nil {
		d.srv.log.Warn().Err(err).Str("gameId", g.ID).Msg("insert daily result")
	}
}

type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date, _ = d.today()
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		d.srv.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}

func (d *dailyServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	pid, _ := d.srv.playerID(w, r)
	rows, err := d.store.History(r.Context(), pid, 0)
	if err != nil {
		d.srv.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
