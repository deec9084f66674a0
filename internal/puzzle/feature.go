// internal/puzzle/feature.go
//
// Connector features on a piece edge.
// A Feature is a closed two-variant sum: a Tab (protrusion, carries a role and
// an optional label) or a Blank (recess). Every switch on Kind is exhaustive.
//
// Features never point at their piece. They carry the owner's PieceID and the
// Board resolves it, so rotating a piece can replace its feature values freely.

package puzzle

import (
	"fmt"

	"github.com/robalobadob/puzzli/internal/geom"
)

// Connector dimensions in world units.
const (
	TabWidth    = 110.0
	TabHeight   = TabWidth * 0.88
	BlankWidth  = 120.0
	BlankHeight = BlankWidth * 0.75
)

// Kind distinguishes the two feature variants.
type Kind uint8

const (
	KindTab Kind = iota + 1
	KindBlank
)

func (k Kind) String() string {
	switch k {
	case KindTab:
		return "tab"
	case KindBlank:
		return "blank"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Mates reports whether a feature of kind k can snap to one of kind o.
// Tabs only mate with blanks.
func (k Kind) Mates(o Kind) bool {
	switch k {
	case KindTab:
		return o == KindBlank
	case KindBlank:
		return o == KindTab
	}
	return false
}

// FeatureRef identifies a feature by owner and side. A side holds at most one
// feature, so the pair is unique on a board.
type FeatureRef struct {
	Piece PieceID   `json:"piece"`
	Side  geom.Side `json:"side"`
}

func (r FeatureRef) String() string { return fmt.Sprintf("%d/%s", r.Piece, r.Side) }

// Feature is a tab or blank on one side of a piece.
type Feature struct {
	kind        Kind
	side        geom.Side
	role        Role   // tabs only
	text        string // tabs only
	owner       PieceID
	highlighted bool
}

func (f *Feature) Kind() Kind          { return f.kind }
func (f *Feature) Side() geom.Side     { return f.side }
func (f *Feature) Owner() PieceID      { return f.owner }
func (f *Feature) Ref() FeatureRef     { return FeatureRef{Piece: f.owner, Side: f.side} }
func (f *Feature) IsTab() bool         { return f.kind == KindTab }
func (f *Feature) Highlighted() bool   { return f.highlighted }
func (f *Feature) setHighlight(v bool) { f.highlighted = v }

// Role is the relation a tab expresses; blanks report Undefined.
func (f *Feature) Role() Role {
	if f.kind == KindTab {
		return f.role
	}
	return Undefined
}

// Text is the tab label; blanks report "".
func (f *Feature) Text() string {
	if f.kind == KindTab {
		return f.text
	}
	return ""
}

// Extent is the drawn width and depth of the feature.
func (f *Feature) Extent() (w, h float64) {
	switch f.kind {
	case KindTab:
		return TabWidth, TabHeight
	case KindBlank:
		return BlankWidth, BlankHeight
	}
	panic(fmt.Sprintf("puzzle: unknown feature kind %d", f.kind))
}

// outset is the signed distance from the edge to the feature midpoint,
// positive outward. Tabs protrude, blanks recess.
func (f *Feature) outset() float64 {
	_, h := f.Extent()
	switch f.kind {
	case KindTab:
		return h / 2
	case KindBlank:
		return -h / 2
	}
	return 0
}

// Compatible reports whether f and o could snap: opposite sides, opposite
// kinds and different owners. The relation is symmetric.
func Compatible(f, o *Feature) bool {
	return f.owner != o.owner &&
		o.side == f.side.Opposite() &&
		f.kind.Mates(o.kind)
}

// TabSpec describes a tab without geometry. It is the serialized form and the
// unit of structural comparison.
type TabSpec struct {
	Side geom.Side `json:"side"`
	Role Role      `json:"role"`
	Text string    `json:"text,omitempty"`
}

func (f *Feature) tabSpec() TabSpec {
	return TabSpec{Side: f.side, Role: f.role, Text: f.text}
}

func newTab(owner PieceID, t TabSpec) *Feature {
	return &Feature{kind: KindTab, side: t.Side, role: t.Role, text: t.Text, owner: owner}
}

func newBlank(owner PieceID, side geom.Side) *Feature {
	return &Feature{kind: KindBlank, side: side, owner: owner}
}
