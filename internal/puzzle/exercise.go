// internal/puzzle/exercise.go
//
// Exercise definitions: a task type, a human-readable task, the pieces the
// player starts with and the target solution as structural links.

package puzzle

import (
	"fmt"
	"strings"

	"github.com/robalobadob/puzzli/internal/geom"
)

// TaskType is the kind of exercise.
type TaskType uint8

const (
	PlacePuzzlesInOrder TaskType = iota
	CreatePuzzle
	MatchPuzzle
	CompletePuzzle
)

var taskNames = [...]string{
	PlacePuzzlesInOrder: "place_puzzles_in_order",
	CreatePuzzle:        "create_puzzle",
	MatchPuzzle:         "match_puzzle",
	CompletePuzzle:      "complete_puzzle",
}

func (t TaskType) String() string {
	if int(t) < len(taskNames) {
		return taskNames[t]
	}
	return fmt.Sprintf("task(%d)", uint8(t))
}

// AllowsNewPieces reports whether the player may add pieces of their own.
func (t TaskType) AllowsNewPieces() bool { return t == CreatePuzzle || t == CompletePuzzle }

// ParseTaskType accepts the snake_case names; "" is PlacePuzzlesInOrder.
func ParseTaskType(v string) (TaskType, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return PlacePuzzlesInOrder, nil
	}
	for i, n := range taskNames {
		if n == v {
			return TaskType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown task type %q", v)
}

func (t TaskType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TaskType) UnmarshalText(b []byte) error {
	v, err := ParseTaskType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Exercise is one puzzle task.
type Exercise struct {
	ID       string        `json:"id"`
	Type     TaskType      `json:"type"`
	Task     string        `json:"task"`
	Pieces   []PieceConfig `json:"pieces"`
	Solution []Link        `json:"solution"`
}

// Validate checks every piece shape and that each solution link is
// geometrically possible: both link pieces are valid shapes, the tab exists on
// the tab piece and the blank piece has a blank on the opposite side. Task
// types without player-made pieces also need every link piece to be one of the
// predefined pieces, up to rotation.
func (e *Exercise) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidExercise)
	}
	for i, p := range e.Pieces {
		if err := p.Shape.Validate(); err != nil {
			return fmt.Errorf("%w: piece %d: %w", ErrInvalidExercise, i, err)
		}
	}
	for i, l := range e.Solution {
		if err := l.TabPiece.Validate(); err != nil {
			return fmt.Errorf("%w: solution %d: tab piece: %w", ErrInvalidExercise, i, err)
		}
		if err := l.BlankPiece.Validate(); err != nil {
			return fmt.Errorf("%w: solution %d: blank piece: %w", ErrInvalidExercise, i, err)
		}
		if !hasTab(l.TabPiece, l.Via) {
			return fmt.Errorf("%w: solution %d: tab piece has no tab %s", ErrInvalidExercise, i, l.Via.Side)
		}
		if !hasBlank(l.BlankPiece, l.Via.Side.Opposite()) {
			return fmt.Errorf("%w: solution %d: blank piece has no blank on %s", ErrInvalidExercise, i, l.Via.Side.Opposite())
		}
		if e.Type.AllowsNewPieces() {
			continue
		}
		if !e.buildable(l.TabPiece) {
			return fmt.Errorf("%w: solution %d: tab piece %q is not among the pieces", ErrInvalidExercise, i, l.TabPiece.Text)
		}
		if !e.buildable(l.BlankPiece) {
			return fmt.Errorf("%w: solution %d: blank piece %q is not among the pieces", ErrInvalidExercise, i, l.BlankPiece.Text)
		}
	}
	return nil
}

// buildable reports whether s is one of the predefined pieces in any of its
// four orientations.
func (e *Exercise) buildable(s Shape) bool {
	for _, p := range e.Pieces {
		q := p.Shape
		for turn := 0; turn < 4; turn++ {
			if EqualShapes(q, s) {
				return true
			}
			q = q.turned()
		}
	}
	return false
}

// turned is s after a quarter turn to the left.
func (s Shape) turned() Shape {
	out := Shape{Role: s.Role, Text: s.Text}
	for _, t := range s.Tabs {
		t.Side = t.Side.RotateLeft()
		out.Tabs = append(out.Tabs, t)
	}
	for _, b := range s.Blanks {
		out.Blanks = append(out.Blanks, b.RotateLeft())
	}
	return out
}

// Solvable reports whether the exercise has a target to reach.
func (e *Exercise) Solvable() bool { return len(e.Solution) > 0 }

func hasTab(s Shape, t TabSpec) bool {
	for _, x := range s.Tabs {
		if x == t {
			return true
		}
	}
	return false
}

func hasBlank(s Shape, side geom.Side) bool {
	for _, b := range s.Blanks {
		if b == side {
			return true
		}
	}
	return false
}
