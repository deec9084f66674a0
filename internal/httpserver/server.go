// internal/httpserver/server.go
//
// HTTP server wiring for the puzzle backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): /game/new, /games/live and the per-game drag, edit
//     and snapshot routes under /game/{id}.
//   - Exercise endpoints: public listing, authoring behind auth.
//   - Exercise of the day (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - Live games are kept in the session store; SQLite only records the
//     "games" row (owner, exercise, status, moves) for history and stats.
//   - Every error response is {"error": "<code>"} with a matching status.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/puzzli/internal/config"
	"github.com/robalobadob/puzzli/internal/exercises"
	"github.com/robalobadob/puzzli/internal/game"
	"github.com/robalobadob/puzzli/internal/puzzle"
	"github.com/robalobadob/puzzli/internal/store"
)

// Server bundles router, session store, DB handle and exercise sources.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	store   store.Store
	db      *sql.DB
	catalog *exercises.Catalog
	repo    *exercises.Repo
	daily   *dailyServer
	log     zerolog.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, st store.Store, db *sql.DB, cat *exercises.Catalog) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     cfg,
		store:   st,
		db:      db,
		catalog: cat,
		repo:    exercises.NewRepo(db),
		log:     log.With().Str("component", "http").Logger(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(cors(cfg.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "puzzli",
			"exercises": s.catalog.Len(),
			"endpoints": []string{"/health", "POST /game/new", "/game/{id}", "/exercises", "/daily/*", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.PingContext(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "db_unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	// Games: OPTIONAL AUTH (guests play under their anon cookie)
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		s.mountGame(r)
		s.mountDaily(r)
	})

	s.mountExercises()
	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	return s
}

// Handler exposes the router, for http.Server and tests.
func (s *Server) Handler() http.Handler { return s.r }

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ------------------------------ responses ----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// decode reads a JSON body. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeErr maps domain errors onto statuses. Anything unknown is a 500 and
// gets logged.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "server_error"
	switch {
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "game_not_found"
	case errors.Is(err, exercises.ErrNotFound):
		status, code = http.StatusNotFound, "exercise_not_found"
	case errors.Is(err, puzzle.ErrUnknownPiece):
		status, code = http.StatusNotFound, "piece_not_found"
	case errors.Is(err, game.ErrNoPieceAt):
		status, code = http.StatusNotFound, "no_piece_at_point"
	case errors.Is(err, game.ErrUnknownConnection):
		status, code = http.StatusNotFound, "connection_not_found"
	case errors.Is(err, game.ErrPieceLocked):
		status, code = http.StatusConflict, "piece_locked"
	case errors.Is(err, game.ErrAlreadyDragging):
		status, code = http.StatusConflict, "already_dragging"
	case errors.Is(err, game.ErrNotDragging):
		status, code = http.StatusConflict, "not_dragging"
	case errors.Is(err, puzzle.ErrPieceConnected):
		status, code = http.StatusConflict, "piece_connected"
	case errors.Is(err, game.ErrNotAllowed):
		status, code = http.StatusForbidden, "not_allowed"
	case errors.Is(err, puzzle.ErrInvalidPiece):
		status, code = http.StatusBadRequest, "invalid_piece"
	case errors.Is(err, puzzle.ErrInvalidExercise):
		status, code = http.StatusBadRequest, "invalid_exercise"
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Str("request", chimw.GetReqID(r.Context())).Msg("request failed")
	}
	writeError(w, status, code)
}
