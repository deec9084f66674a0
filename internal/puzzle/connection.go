package puzzle

import "fmt"

// Connection is a committed link between two pieces through one tab/blank
// pair. A and B are stored sorted so that == compares the pair as a set.
type Connection struct {
	A     PieceID    `json:"a"`
	B     PieceID    `json:"b"`
	Tab   FeatureRef `json:"tab"`
	Blank FeatureRef `json:"blank"`
	Role  Role       `json:"role"`
}

// NewConnection links the owners of tab and blank.
func NewConnection(tab, blank FeatureRef, role Role) Connection {
	a, b := tab.Piece, blank.Piece
	if b < a {
		a, b = b, a
	}
	return Connection{A: a, B: b, Tab: tab, Blank: blank, Role: role}
}

// Involves reports whether id is one end of c.
func (c Connection) Involves(id PieceID) bool { return c.A == id || c.B == id }

// Other returns the end of c that is not id.
func (c Connection) Other(id PieceID) PieceID {
	if c.A == id {
		return c.B
	}
	return c.A
}

func (c Connection) String() string {
	return fmt.Sprintf("%d-%d via %s (%s)", c.A, c.B, c.Tab, c.Role)
}

func (c Connection) less(o Connection) bool {
	if c.A != o.A {
		return c.A < o.A
	}
	if c.B != o.B {
		return c.B < o.B
	}
	if c.Tab.Piece != o.Tab.Piece {
		return c.Tab.Piece < o.Tab.Piece
	}
	if c.Tab.Side != o.Tab.Side {
		return c.Tab.Side < o.Tab.Side
	}
	return c.Role < o.Role
}
