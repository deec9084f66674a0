// internal/puzzle/piece.go
//
// Puzzle pieces.
// A piece is a square with a position (lower-left corner), a size, a depth,
// a role, a text and up to four features (one per side). Its bounding box is
// the square padded by the tab height on every side and is recomputed on every
// position or size change.
//
// Position changes that must sever connections go through Board.MovePiece;
// this file only holds the raw state transitions.

package puzzle

import (
	"fmt"
	"sort"

	"github.com/robalobadob/puzzli/internal/geom"
)

// MinSize is the smallest edge length a piece may have.
const MinSize = 300.0

// PieceID identifies a piece inside one Board. Zero is never assigned.
type PieceID int

// Shape is everything about a piece that matters for solution matching:
// no geometry, no identity.
type Shape struct {
	Role   Role        `json:"role"`
	Text   string      `json:"text"`
	Tabs   []TabSpec   `json:"tabs,omitempty"`
	Blanks []geom.Side `json:"blanks,omitempty"`
}

// Validate enforces the side rules: valid sides, at most one feature per side,
// and no side carrying both a tab and a blank.
func (s Shape) Validate() error {
	var used [4]string
	claim := func(side geom.Side, what string) error {
		if !side.Valid() {
			return fmt.Errorf("%w: %s on invalid side %d", ErrInvalidPiece, what, uint8(side))
		}
		if prev := used[side]; prev != "" {
			return fmt.Errorf("%w: %s and %s both on side %s (tabs=%v blanks=%v)",
				ErrInvalidPiece, prev, what, side, s.Tabs, s.Blanks)
		}
		used[side] = what
		return nil
	}
	for _, t := range s.Tabs {
		if err := claim(t.Side, "tab"); err != nil {
			return err
		}
	}
	for _, b := range s.Blanks {
		if err := claim(b, "blank"); err != nil {
			return err
		}
	}
	return nil
}

// PieceConfig is the input to Board.Add.
type PieceConfig struct {
	Shape
	Pos   geom.Vec2 `json:"pos"`
	Size  float64   `json:"size,omitempty"`
	Depth int       `json:"depth,omitempty"`
}

// Piece is a live puzzle piece owned by a Board.
type Piece struct {
	id     PieceID
	pos    geom.Vec2
	size   float64
	depth  int
	role   Role
	text   string
	tabs   []*Feature
	blanks []*Feature
	conns  map[Connection]struct{}

	bboxPos  geom.Vec2
	bboxSize float64
}

func newPiece(id PieceID, cfg PieceConfig) (*Piece, error) {
	if err := cfg.Shape.Validate(); err != nil {
		return nil, err
	}
	p := &Piece{
		id:    id,
		depth: cfg.Depth,
		role:  cfg.Role,
		text:  cfg.Text,
		conns: make(map[Connection]struct{}),
	}
	p.buildFeatures(cfg.Tabs, cfg.Blanks)
	p.setSize(cfg.Size)
	p.setPos(cfg.Pos)
	return p, nil
}

func (p *Piece) buildFeatures(tabs []TabSpec, blanks []geom.Side) {
	p.tabs = make([]*Feature, 0, len(tabs))
	for _, t := range tabs {
		p.tabs = append(p.tabs, newTab(p.id, t))
	}
	p.blanks = make([]*Feature, 0, len(blanks))
	for _, s := range blanks {
		p.blanks = append(p.blanks, newBlank(p.id, s))
	}
}

func (p *Piece) ID() PieceID    { return p.id }
func (p *Piece) Pos() geom.Vec2 { return p.pos }
func (p *Piece) Size() float64  { return p.size }
func (p *Piece) Depth() int     { return p.depth }
func (p *Piece) Role() Role     { return p.role }
func (p *Piece) Text() string   { return p.text }

func (p *Piece) Tabs() []*Feature   { return append([]*Feature(nil), p.tabs...) }
func (p *Piece) Blanks() []*Feature { return append([]*Feature(nil), p.blanks...) }

// Features returns tabs followed by blanks.
func (p *Piece) Features() []*Feature {
	out := make([]*Feature, 0, len(p.tabs)+len(p.blanks))
	out = append(out, p.tabs...)
	return append(out, p.blanks...)
}

// FeatureOn returns the feature on side s, if any.
func (p *Piece) FeatureOn(s geom.Side) (*Feature, bool) {
	for _, f := range p.tabs {
		if f.side == s {
			return f, true
		}
	}
	for _, f := range p.blanks {
		if f.side == s {
			return f, true
		}
	}
	return nil, false
}

// Rect is the square body of the piece.
func (p *Piece) Rect() geom.Rect { return geom.Rect{Pos: p.pos, W: p.size, H: p.size} }

// BoundingBox is the body padded by TabHeight on all sides.
func (p *Piece) BoundingBox() geom.Rect {
	return geom.Rect{Pos: p.bboxPos, W: p.bboxSize, H: p.bboxSize}
}

// Connections returns the connections p takes part in, in a stable order.
func (p *Piece) Connections() []Connection {
	out := make([]Connection, 0, len(p.conns))
	for c := range p.conns {
		out = append(out, c)
	}
	sortConnections(out)
	return out
}

func (p *Piece) ConnectionCount() int { return len(p.conns) }
func (p *Piece) IsConnected() bool    { return len(p.conns) > 0 }

// uses reports whether one of p's connections runs through the feature ref.
func (p *Piece) uses(ref FeatureRef) bool {
	for c := range p.conns {
		if c.Tab == ref || c.Blank == ref {
			return true
		}
	}
	return false
}

// Midpoint is the world-space center of f, which must belong to p.
func (p *Piece) Midpoint(f *Feature) geom.Vec2 {
	d, half := f.outset(), p.size/2
	switch f.side {
	case geom.Top:
		return geom.V(p.pos.X+half, p.pos.Y+p.size+d)
	case geom.Bottom:
		return geom.V(p.pos.X+half, p.pos.Y-d)
	case geom.Left:
		return geom.V(p.pos.X-d, p.pos.Y+half)
	default:
		return geom.V(p.pos.X+p.size+d, p.pos.Y+half)
	}
}

// Shape returns the structural description of p.
func (p *Piece) Shape() Shape {
	s := Shape{Role: p.role, Text: p.text}
	for _, t := range p.tabs {
		s.Tabs = append(s.Tabs, t.tabSpec())
	}
	for _, b := range p.blanks {
		s.Blanks = append(s.Blanks, b.side)
	}
	return s
}

func (p *Piece) setPos(v geom.Vec2) {
	p.pos = v
	p.bboxPos = geom.V(v.X-TabHeight, v.Y-TabHeight)
}

func (p *Piece) setSize(v float64) {
	if v < MinSize {
		v = MinSize
	}
	p.size = v
	p.bboxSize = v + 2*TabHeight
}

// rotate rebuilds the features with every side turned by turn.
func (p *Piece) rotate(turn func(geom.Side) geom.Side) {
	s := p.Shape()
	for i := range s.Tabs {
		s.Tabs[i].Side = turn(s.Tabs[i].Side)
	}
	for i := range s.Blanks {
		s.Blanks[i] = turn(s.Blanks[i])
	}
	p.buildFeatures(s.Tabs, s.Blanks)
}

func sortConnections(cs []Connection) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].less(cs[j]) })
}
