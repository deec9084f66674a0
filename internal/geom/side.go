// internal/geom/side.go
//
// Side of a square puzzle piece.
// Provides:
//   - Opposite(): the mating side (TOP↔BOTTOM, LEFT↔RIGHT).
//   - RotateLeft()/RotateRight(): quarter turns used when a piece is rotated.
//   - Text (un)marshalling so sides read as "top"/"left" in exercise files and JSON.

package geom

import (
	"fmt"
	"strings"
)

// Side is one of the four edges of a piece.
type Side uint8

const (
	Top Side = iota
	Bottom
	Left
	Right
)

// Sides lists every side in declaration order.
var Sides = [4]Side{Top, Bottom, Left, Right}

// Opposite returns the side a feature on s mates with.
func (s Side) Opposite() Side {
	switch s {
	case Top:
		return Bottom
	case Bottom:
		return Top
	case Left:
		return Right
	default:
		return Left
	}
}

// RotateLeft turns s a quarter counter-clockwise: TOP→LEFT→BOTTOM→RIGHT→TOP.
func (s Side) RotateLeft() Side {
	switch s {
	case Top:
		return Left
	case Left:
		return Bottom
	case Bottom:
		return Right
	default:
		return Top
	}
}

// RotateRight is the inverse of RotateLeft.
func (s Side) RotateRight() Side {
	switch s {
	case Top:
		return Right
	case Right:
		return Bottom
	case Bottom:
		return Left
	default:
		return Top
	}
}

func (s Side) String() string {
	switch s {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("side(%d)", uint8(s))
}

// Valid reports whether s is one of the four declared sides.
func (s Side) Valid() bool { return s <= Right }

// ParseSide accepts any casing of "top", "bottom", "left", "right".
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "top":
		return Top, nil
	case "bottom":
		return Bottom, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown side %q", v)
}

func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid side %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
