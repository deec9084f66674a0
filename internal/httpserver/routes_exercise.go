// internal/httpserver/routes_exercise.go
//
// Exercise listing and authoring.
//   - GET    /exercises       → built-in catalog + authored exercises
//   - GET    /exercises/{id}  → one exercise (pieces + solution)
//   - POST   /exercises       → create or update an authored exercise (auth)
//   - DELETE /exercises/{id}  → delete an authored exercise (auth, author only)
//
// POST bodies are exercise files, comments and trailing commas allowed.
// Built-in IDs are reserved.

package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/puzzli/internal/exercises"
)

const maxExerciseBytes = 1 << 20

func (s *Server) mountExercises() {
	s.r.Get("/exercises", s.handleListExercises)
	s.r.Get("/exercises/{exerciseID}", s.handleGetExercise)
	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Post("/exercises", s.handleSaveExercise)
		r.Delete("/exercises/{exerciseID}", s.handleDeleteExercise)
	})
}

type exerciseList struct {
	Builtin  []exercises.Summary `json:"builtin"`
	Authored []exercises.Summary `json:"authored"`
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	authored, err := s.repo.List(r.Context(), 0)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exerciseList{Builtin: s.catalog.List(), Authored: authored})
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := s.exercise(r.Context(), chi.URLParam(r, "exerciseID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleSaveExercise(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxExerciseBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large")
		return
	}
	ex, err := exercises.Decode(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_exercise", "detail": err.Error()})
		return
	}
	if _, err := s.catalog.Get(ex.ID); err == nil {
		writeError(w, http.StatusConflict, "reserved_id")
		return
	}
	me := currentUser(r)
	status := http.StatusCreated
	author, err := s.repo.Author(r.Context(), ex.ID)
	switch {
	case errors.Is(err, exercises.ErrNotFound):
	case err != nil:
		s.writeErr(w, r, err)
		return
	case author != me.ID:
		writeError(w, http.StatusForbidden, "not_author")
		return
	default:
		status = http.StatusOK
	}
	if err := s.repo.Save(r.Context(), ex, me.ID); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.log.Info().Str("exercise", ex.ID).Str("author", me.Username).Msg("exercise saved")
	writeJSON(w, status, exercises.Summarize(ex))
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "exerciseID")
	author, err := s.repo.Author(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if author != currentUser(r).ID {
		writeError(w, http.StatusForbidden, "not_author")
		return
	}
	if err := s.repo.Delete(r.Context(), id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
