// internal/game/types.go
//
// Core type definitions for a puzzle session.
// Defines:
//   - Game: one exercise being played on a live board.
//   - View and its parts: the read-only snapshot a renderer or client draws.
//   - DragUpdate / Release: results of the drag gesture operations.

package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/puzzli/internal/geom"
	"github.com/robalobadob/puzzli/internal/puzzle"
)

// Game holds the state of a single puzzle session.
// Every exported method takes the mutex; a Game is safe to share between
// request goroutines.
type Game struct {
	ID     string // Unique game identifier (random hex string).
	UserID string // Owning user, empty for anonymous sessions.

	mu       sync.Mutex
	exercise puzzle.Exercise
	board    *puzzle.Board
	snapper  *puzzle.Snapper
	dragged  puzzle.PieceID // 0 when idle
	moves    int
	started  time.Time
	solvedAt time.Time

	log      zerolog.Logger
	now      func() time.Time
	snapOpts []puzzle.SnapOption
}

// FeatureView is one tab or blank as drawn.
type FeatureView struct {
	Kind        string      `json:"kind"`
	Side        geom.Side   `json:"side"`
	Role        puzzle.Role `json:"role,omitempty"`
	Color       string      `json:"color,omitempty"`
	Text        string      `json:"text,omitempty"`
	Midpoint    geom.Vec2   `json:"midpoint"`
	Highlighted bool        `json:"highlighted"`
}

// PieceView is one piece as drawn.
type PieceView struct {
	ID          puzzle.PieceID `json:"id"`
	Pos         geom.Vec2      `json:"pos"`
	Size        float64        `json:"size"`
	Depth       int            `json:"depth"`
	Role        puzzle.Role    `json:"role"`
	Color       string         `json:"color"`
	Text        string         `json:"text"`
	BoundingBox geom.Rect      `json:"boundingBox"`
	Features    []FeatureView  `json:"features"`
	Connections int            `json:"connections"`
}

// View is a consistent snapshot of a game.
type View struct {
	ID          string              `json:"id"`
	ExerciseID  string              `json:"exerciseId"`
	Type        puzzle.TaskType     `json:"type"`
	Task        string              `json:"task"`
	Pieces      []PieceView         `json:"pieces"`
	Connections []puzzle.Connection `json:"connections"`
	Dragging    puzzle.PieceID      `json:"dragging,omitempty"`
	Pending     *puzzle.SnapPair    `json:"pending,omitempty"`
	Moves       int                 `json:"moves"`
	Solvable    bool                `json:"solvable"`
	Solved      bool                `json:"solved"`
	StartedAt   time.Time           `json:"startedAt"`
	SolvedAt    *time.Time          `json:"solvedAt,omitempty"`
}

// DragUpdate is the outcome of one drag tick.
type DragUpdate struct {
	Severed []puzzle.Connection `json:"severed,omitempty"`
	Pending *puzzle.SnapPair    `json:"pending,omitempty"`
}

// Release is the outcome of ending a drag.
type Release struct {
	Connection *puzzle.Connection `json:"connection,omitempty"`
	Solved     bool               `json:"solved"`
}
