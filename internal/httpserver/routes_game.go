// internal/httpserver/routes_game.go
//
// Game endpoints. One drag gesture maps onto three calls:
//
//	POST /game/{id}/drag/begin   {"piece": 2} or {"at": {"x":..,"y":..}}
//	POST /game/{id}/drag/move    {"by": {..}} or {"to": {..}}   (every tick)
//	POST /game/{id}/drag/end
//
// Every mutating route answers with the current snapshot so a client can
// redraw without a second request.

package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/puzzli/internal/game"
	"github.com/robalobadob/puzzli/internal/geom"
	"github.com/robalobadob/puzzli/internal/puzzle"
	"github.com/robalobadob/puzzli/internal/store"
)

type ctxGameKey struct{}

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Get("/games/live", s.handleLiveGames)
	r.Route("/game/{gameID}", func(r chi.Router) {
		r.Use(s.loadGame)
		r.Get("/", s.handleGetGame)
		r.Post("/drag/begin", s.handleDragBegin)
		r.Post("/drag/move", s.handleDragMove)
		r.Post("/drag/end", s.handleDragEnd)
		r.Post("/drag/cancel", s.handleDragCancel)
		r.Post("/pieces", s.handleAddPiece)
		r.Delete("/pieces/{pieceID}", s.handleRemovePiece)
		r.Post("/pieces/{pieceID}/rotate", s.handleRotate)
		r.Post("/pieces/{pieceID}/text", s.handleSetText)
		r.Post("/disconnect", s.handleDisconnect)
	})
}

// exercise looks id up in the built-in catalog first, then among authored ones.
func (s *Server) exercise(ctx context.Context, id string) (puzzle.Exercise, error) {
	if ex, err := s.catalog.Get(id); err == nil {
		return ex, nil
	}
	return s.repo.Get(ctx, id)
}

// startGame creates a session for ex owned by the current player and records
// the "games" row.
func (s *Server) startGame(w http.ResponseWriter, r *http.Request, ex puzzle.Exercise) (*game.Game, error) {
	owner, anon := s.playerID(w, r)
	opts := []game.Option{
		game.WithUser(owner),
		game.WithLogger(log.Logger),
		game.WithSnapOptions(s.cfg.SnapOptions()...),
	}
	g, err := game.New(ex, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		return nil, err
	}

	userCol := "user_id"
	if anon {
		userCol = "anonymous_id"
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(r.Context(),
		`INSERT INTO games (id, `+userCol+`, exercise_id, started_at, status, moves) VALUES (?,?,?,?,'playing',0)`,
		g.ID, owner, ex.ID, now); err != nil {
		s.log.Warn().Err(err).Str("gameId", g.ID).Msg("insert game row")
	}
	return g, nil
}

type newGameReq struct {
	ExerciseID string `json:"exerciseId"`
}

type newGameRes struct {
	GameID string    `json:"gameId"`
	View   game.View `json:"view"`
}

// handleNewGame starts a game. Without an exerciseId the first catalog
// exercise is used.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	ex := s.catalog.At(0)
	if req.ExerciseID != "" {
		var err error
		if ex, err = s.exercise(r.Context(), req.ExerciseID); err != nil {
			s.writeErr(w, r, err)
			return
		}
	}
	g, err := s.startGame(w, r, ex)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGameRes{GameID: g.ID, View: g.Snapshot()})
}

type liveGame struct {
	ID         string `json:"id"`
	ExerciseID string `json:"exerciseId"`
	Moves      int    `json:"moves"`
	Solved     bool   `json:"solved"`
}

// handleLiveGames lists the caller's in-memory games, most recently used first.
func (s *Server) handleLiveGames(w http.ResponseWriter, r *http.Request) {
	owner, _ := s.playerID(w, r)
	games, err := s.store.ByUser(r.Context(), owner)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]liveGame, 0, len(games))
	for _, g := range games {
		v := g.Snapshot()
		out = append(out, liveGame{ID: v.ID, ExerciseID: v.ExerciseID, Moves: v.Moves, Solved: v.Solved})
	}
	writeJSON(w, http.StatusOK, out)
}

// loadGame resolves {gameID} and checks that it belongs to the caller.
// Someone else's game answers 404, same as a missing one.
func (s *Server) loadGame(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g, err := s.store.Get(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		if !s.owns(r, g) {
			s.writeErr(w, r, store.ErrNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxGameKey{}, g)))
	})
}

// owns accepts the owner's account and the anonymous cookie the game was
// started under, so logging in mid-game keeps the session.
func (s *Server) owns(r *http.Request, g *game.Game) bool {
	if me := currentUser(r); me != nil && me.ID == g.UserID {
		return true
	}
	c, err := r.Cookie(anonCookieName)
	return err == nil && c.Value == g.UserID
}

func gameFrom(r *http.Request) *game.Game {
	return r.Context().Value(ctxGameKey{}).(*game.Game)
}

func pieceParam(r *http.Request) (puzzle.PieceID, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "pieceID"))
	if err != nil {
		return 0, puzzle.ErrUnknownPiece
	}
	return puzzle.PieceID(n), nil
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gameFrom(r).Snapshot())
}

// ------------------------------ drag ---------------------------------------

type dragBeginReq struct {
	Piece puzzle.PieceID `json:"piece"`
	At    *geom.Vec2     `json:"at"`
}

type dragBeginRes struct {
	Piece puzzle.PieceID `json:"piece"`
	View  game.View      `json:"view"`
}

func (s *Server) handleDragBegin(w http.ResponseWriter, r *http.Request) {
	g := gameFrom(r)
	var req dragBeginReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	var err error
	switch {
	case req.At != nil:
		req.Piece, err = g.BeginDragAt(*req.At)
	case req.Piece != 0:
		err = g.BeginDrag(req.Piece)
	default:
		writeError(w, http.StatusBadRequest, "piece_or_point_required")
		return
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dragBeginRes{Piece: req.Piece, View: g.Snapshot()})
}

type dragMoveReq struct {
	By *geom.Vec2 `json:"by"`
	To *geom.Vec2 `json:"to"`
}

type dragMoveRes struct {
	game.DragUpdate
	View game.View `json:"view"`
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	g := gameFrom(r)
	var req dragMoveReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	var (
		u   game.DragUpdate
		err error
	)
	switch {
	case req.To != nil:
		u, err = g.DragTo(*req.To)
	case req.By != nil:
		u, err = g.DragBy(*req.By)
	default:
		writeError(w, http.StatusBadRequest, "by_or_to_required")
		return
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dragMoveRes{DragUpdate: u, View: g.Snapshot()})
}

type dragEndRes struct {
	game.Release
	View game.View `json:"view"`
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	g := gameFrom(r)
	rel, err := g.EndDrag()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.recordMove(r.Context(), g, rel.Solved)
	writeJSON(w, http.StatusOK, dragEndRes{Release: rel, View: g.Snapshot()})
}

func (s *Server) handleDragCancel(w http.ResponseWriter, r *http.Request) {
	g := gameFrom(r)
	g.CancelDrag()
	writeJSON(w, http.StatusOK, g.Snapshot())
}

// recordMove persists the move counter and, on the first solve, finishes the
// game row (best effort, failures are logged).
func (s *Server) recordMove(ctx context.Context, g *game.Game, solved bool) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("begin tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE games SET moves=? WHERE id=?`, g.Moves(), g.ID); err != nil {
		s.log.Warn().Err(err).Str("gameId", g.ID).Msg("update moves")
	}
	if solved {
		if _, err := tx.ExecContext(ctx, `UPDATE games SET status='solved', finished_at=? WHERE id=? AND status='playing'`,
			time.Now().UTC().Format(time.RFC3339), g.ID); err != nil {
			s.log.Warn().Err(err).Str("gameId", g.ID).Msg("finish game")
		}
	}
	if err := tx.Commit(); err != nil {
		s.log.Warn().Err(err).Msg("commit move")
	}
	if solved {
		s.daily.record(ctx, g)
	}
}

// ------------------------------ editing ------------------------------------

func (s *Server) handleAddPiece(w http.ResponseWriter, r *http.Request) {
	g := gameFrom(r)
	var cfg puzzle.PieceConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	id, err := g.AddPiece(cfg)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dragBeginRes{Piece: id, View: g.Snapshot()})
}

func (s *Server) handleRemovePiece(w http.ResponseWriter, r *http.Request) {
	s.withPiece(w, r, func(g *game.Game, id puzzle.PieceID) error { return g.RemovePiece(id) })
}

type rotateReq struct {
	Dir string `json:"dir"`
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	var req rotateReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Dir == "" {
		req.Dir = "right"
	}
	dir, err := puzzle.ParseRotateDir(req.Dir)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_direction")
		return
	}
	s.withPiece(w, r, func(g *game.Game, id puzzle.PieceID) error { return g.Rotate(id, dir) })
}

type textReq struct {
	Text string `json:"text"`
}

func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	var req textReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	s.withPiece(w, r, func(g *game.Game, id puzzle.PieceID) error { return g.SetText(id, req.Text) })
}

// withPiece runs op on {pieceID} and answers with the snapshot.
func (s *Server) withPiece(w http.ResponseWriter, r *http.Request, op func(*game.Game, puzzle.PieceID) error) {
	g := gameFrom(r)
	id, err := pieceParam(r)
	if err == nil {
		err = op(g, id)
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g.Snapshot())
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	g := gameFrom(r)
	var c puzzle.Connection
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	// accept the pair in either order
	c = puzzle.NewConnection(c.Tab, c.Blank, c.Role)
	if err := g.Disconnect(c); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g.Snapshot())
}
