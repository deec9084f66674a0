// internal/exercises/codec.go
//
// Exercise file format.
// Files are JSON with comments and trailing commas (HuJSON). A solution link
// either points at predefined pieces by index:
//
//	{"tab": 0, "blank": 1, "side": "left"}
//
// or spells both shapes out, for pieces the player has to create:
//
//	{"tabPiece": {...}, "blankPiece": {...}, "via": {...}, "role": "object"}
//
// "role" is optional in both forms and defaults to the tab's role.

package exercises

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/robalobadob/puzzli/internal/geom"
	"github.com/robalobadob/puzzli/internal/puzzle"
)

var errBadLink = errors.New("bad solution link")

type fileExercise struct {
	ID       string               `json:"id"`
	Type     puzzle.TaskType      `json:"type"`
	Task     string               `json:"task"`
	Pieces   []puzzle.PieceConfig `json:"pieces"`
	Solution []fileLink           `json:"solution,omitempty"`
}

type fileLink struct {
	Tab   *int       `json:"tab,omitempty"`
	Blank *int       `json:"blank,omitempty"`
	Side  *geom.Side `json:"side,omitempty"`

	TabPiece   *puzzle.Shape   `json:"tabPiece,omitempty"`
	BlankPiece *puzzle.Shape   `json:"blankPiece,omitempty"`
	Via        *puzzle.TabSpec `json:"via,omitempty"`

	Role *puzzle.Role `json:"role,omitempty"`
}

// Decode parses one exercise file and validates the result.
func Decode(data []byte) (puzzle.Exercise, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return puzzle.Exercise{}, fmt.Errorf("invalid hujson: %w", err)
	}
	var f fileExercise
	if err := json.Unmarshal(std, &f); err != nil {
		return puzzle.Exercise{}, fmt.Errorf("invalid exercise json: %w", err)
	}

	ex := puzzle.Exercise{ID: strings.TrimSpace(f.ID), Type: f.Type, Task: f.Task, Pieces: f.Pieces}
	for i, fl := range f.Solution {
		l, err := fl.resolve(f.Pieces)
		if err != nil {
			return puzzle.Exercise{}, fmt.Errorf("solution %d: %w", i, err)
		}
		ex.Solution = append(ex.Solution, l)
	}
	if err := ex.Validate(); err != nil {
		return puzzle.Exercise{}, err
	}
	return ex, nil
}

func (fl fileLink) resolve(pieces []puzzle.PieceConfig) (puzzle.Link, error) {
	var l puzzle.Link
	switch {
	case fl.Tab != nil || fl.Blank != nil:
		if fl.Tab == nil || fl.Blank == nil || fl.Side == nil {
			return l, fmt.Errorf("%w: tab, blank and side are all required", errBadLink)
		}
		t, b := *fl.Tab, *fl.Blank
		if t < 0 || t >= len(pieces) || b < 0 || b >= len(pieces) {
			return l, fmt.Errorf("%w: piece index out of range (%d pieces)", errBadLink, len(pieces))
		}
		if t == b {
			return l, fmt.Errorf("%w: piece %d linked to itself", errBadLink, t)
		}
		l.TabPiece, l.BlankPiece = pieces[t].Shape, pieces[b].Shape
		via, ok := tabOn(l.TabPiece, *fl.Side)
		if !ok {
			return l, fmt.Errorf("%w: piece %d has no tab on %s", errBadLink, t, *fl.Side)
		}
		l.Via = via
	case fl.TabPiece != nil && fl.BlankPiece != nil && fl.Via != nil:
		l.TabPiece, l.BlankPiece, l.Via = *fl.TabPiece, *fl.BlankPiece, *fl.Via
	default:
		return l, fmt.Errorf("%w: need either tab/blank/side or tabPiece/blankPiece/via", errBadLink)
	}
	l.Role = l.Via.Role
	if fl.Role != nil {
		l.Role = *fl.Role
	}
	return l, nil
}

func tabOn(s puzzle.Shape, side geom.Side) (puzzle.TabSpec, bool) {
	for _, t := range s.Tabs {
		if t.Side == side {
			return t, true
		}
	}
	return puzzle.TabSpec{}, false
}

// Encode renders ex in the file format. Links whose shapes are predefined
// pieces use indexes; the rest are spelled out.
func Encode(ex puzzle.Exercise) ([]byte, error) {
	f := fileExercise{ID: ex.ID, Type: ex.Type, Task: ex.Task, Pieces: ex.Pieces}
	if f.Pieces == nil {
		f.Pieces = []puzzle.PieceConfig{}
	}
	for _, l := range ex.Solution {
		f.Solution = append(f.Solution, linkToFile(l, ex.Pieces))
	}
	raw, err := json.MarshalIndent(f, "", "\t")
	if err != nil {
		return nil, err
	}
	return hujson.Format(raw)
}

func linkToFile(l puzzle.Link, pieces []puzzle.PieceConfig) fileLink {
	var fl fileLink
	if l.Role != l.Via.Role {
		r := l.Role
		fl.Role = &r
	}
	t, b := indexOf(pieces, l.TabPiece, -1), indexOf(pieces, l.BlankPiece, -1)
	if b == t && b >= 0 {
		b = indexOf(pieces, l.BlankPiece, t)
	}
	if t >= 0 && b >= 0 {
		side := l.Via.Side
		fl.Tab, fl.Blank, fl.Side = &t, &b, &side
		return fl
	}
	tp, bp, via := l.TabPiece, l.BlankPiece, l.Via
	fl.TabPiece, fl.BlankPiece, fl.Via = &tp, &bp, &via
	return fl
}

// indexOf finds the first piece structurally equal to s, skipping index skip.
func indexOf(pieces []puzzle.PieceConfig, s puzzle.Shape, skip int) int {
	for i, p := range pieces {
		if i != skip && puzzle.EqualShapes(p.Shape, s) {
			return i
		}
	}
	return -1
}

// LoadFile reads and decodes one exercise file.
func LoadFile(path string) (puzzle.Exercise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return puzzle.Exercise{}, err
	}
	ex, err := Decode(data)
	if err != nil {
		return puzzle.Exercise{}, fmt.Errorf("%s: %w", path, err)
	}
	return ex, nil
}

// SaveFile encodes ex and replaces path atomically.
func SaveFile(path string, ex puzzle.Exercise) error {
	data, err := Encode(ex)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ex.ID, err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
