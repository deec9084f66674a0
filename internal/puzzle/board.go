// internal/puzzle/board.go
//
// Board is the arena that owns every live piece.
// Responsibilities:
//   - Assign PieceIDs and resolve FeatureRefs back to features and owners.
//   - Route manual moves through MovePiece, which severs the moved piece's
//     connections on both sides (Detach).
//   - Keep connection sets symmetric (connect/Disconnect touch both pieces).
//   - Depth bookkeeping: Promote on drag start, RebaseDepths after release.
//   - Rotation and text edits, refused while a piece is connected.
//
// The board is not safe for concurrent use; game.Game serialises access.

package puzzle

import (
	"fmt"

	"github.com/robalobadob/puzzli/internal/geom"
)

// Board holds pieces in insertion order.
type Board struct {
	pieces []*Piece
	byID   map[PieceID]*Piece
	nextID PieceID
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{byID: make(map[PieceID]*Piece)}
}

// Add validates cfg and places a new piece on the board.
func (b *Board) Add(cfg PieceConfig) (*Piece, error) {
	p, err := newPiece(b.nextID+1, cfg)
	if err != nil {
		return nil, err
	}
	b.nextID++
	b.pieces = append(b.pieces, p)
	b.byID[p.id] = p
	return p, nil
}

// Remove disconnects and deletes a piece.
func (b *Board) Remove(id PieceID) error {
	p, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPiece, id)
	}
	b.Detach(id)
	delete(b.byID, id)
	for i, q := range b.pieces {
		if q == p {
			b.pieces = append(b.pieces[:i], b.pieces[i+1:]...)
			break
		}
	}
	return nil
}

func (b *Board) Len() int { return len(b.pieces) }

// Piece looks up a piece by id.
func (b *Board) Piece(id PieceID) (*Piece, bool) {
	p, ok := b.byID[id]
	return p, ok
}

// Pieces returns the pieces in insertion order.
func (b *Board) Pieces() []*Piece { return append([]*Piece(nil), b.pieces...) }

// Feature resolves ref to its feature and owning piece.
func (b *Board) Feature(ref FeatureRef) (*Feature, *Piece, bool) {
	p, ok := b.byID[ref.Piece]
	if !ok {
		return nil, nil, false
	}
	f, ok := p.FeatureOn(ref.Side)
	if !ok {
		return nil, nil, false
	}
	return f, p, true
}

// Midpoint is the world-space center of the referenced feature.
func (b *Board) Midpoint(ref FeatureRef) (geom.Vec2, bool) {
	f, p, ok := b.Feature(ref)
	if !ok {
		return geom.Vec2{}, false
	}
	return p.Midpoint(f), true
}

// MovePiece is a manual reposition: the piece lands at pos and loses every
// connection it had. The snap engine's corrective moves do not come through here.
func (b *Board) MovePiece(id PieceID, pos geom.Vec2) ([]Connection, error) {
	p, ok := b.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPiece, id)
	}
	severed := b.Detach(id)
	p.setPos(pos)
	return severed, nil
}

// MoveBy is MovePiece relative to the current position.
func (b *Board) MoveBy(id PieceID, delta geom.Vec2) ([]Connection, error) {
	p, ok := b.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPiece, id)
	}
	return b.MovePiece(id, p.pos.Add(delta))
}

// Detach removes every connection of id from both ends and returns them.
func (b *Board) Detach(id PieceID) []Connection {
	p, ok := b.byID[id]
	if !ok || len(p.conns) == 0 {
		return nil
	}
	severed := p.Connections()
	for _, c := range severed {
		b.Disconnect(c)
	}
	return severed
}

// Disconnect removes c from both pieces. Unknown connections are ignored.
func (b *Board) Disconnect(c Connection) bool {
	found := false
	for _, id := range [2]PieceID{c.A, c.B} {
		if p, ok := b.byID[id]; ok {
			if _, ok := p.conns[c]; ok {
				delete(p.conns, c)
				found = true
			}
		}
	}
	return found
}

func (b *Board) connect(c Connection) {
	b.byID[c.A].conns[c] = struct{}{}
	b.byID[c.B].conns[c] = struct{}{}
}

// translate shifts p without touching its connections.
func (b *Board) translate(p *Piece, delta geom.Vec2) { p.setPos(p.pos.Add(delta)) }

// Connections flattens and dedupes the connections of every piece.
func (b *Board) Connections() []Connection {
	seen := make(map[Connection]struct{})
	var out []Connection
	for _, p := range b.pieces {
		for c := range p.conns {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	sortConnections(out)
	return out
}

// consumed reports whether ref already carries a connection.
func (b *Board) consumed(ref FeatureRef) bool {
	p, ok := b.byID[ref.Piece]
	return ok && p.uses(ref)
}

// ClearHighlights resets the snap highlight on every feature.
func (b *Board) ClearHighlights() {
	for _, p := range b.pieces {
		for _, f := range p.tabs {
			f.setHighlight(false)
		}
		for _, f := range p.blanks {
			f.setHighlight(false)
		}
	}
}

// Promote lifts id above every other piece and returns its new depth.
func (b *Board) Promote(id PieceID) (int, error) {
	p, ok := b.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPiece, id)
	}
	top := p.depth
	for _, q := range b.pieces {
		if q.depth > top {
			top = q.depth
		}
	}
	p.depth = top + 1
	return p.depth, nil
}

// RebaseDepths shifts all depths so the minimum is zero. Relative order is kept.
func (b *Board) RebaseDepths() {
	if len(b.pieces) == 0 {
		return
	}
	low := b.pieces[0].depth
	for _, p := range b.pieces[1:] {
		if p.depth < low {
			low = p.depth
		}
	}
	if low == 0 {
		return
	}
	for _, p := range b.pieces {
		p.depth -= low
	}
}

// PieceAt returns the topmost piece whose body contains pt.
func (b *Board) PieceAt(pt geom.Vec2) (*Piece, bool) {
	var hit *Piece
	for _, p := range b.pieces {
		if p.Rect().Contains(pt) && (hit == nil || p.depth >= hit.depth) {
			hit = p
		}
	}
	return hit, hit != nil
}

// RotateDir selects a quarter-turn direction.
type RotateDir uint8

const (
	RotateLeft RotateDir = iota
	RotateRight
)

// ParseRotateDir accepts "left" or "right".
func ParseRotateDir(v string) (RotateDir, error) {
	switch v {
	case "left", "ccw":
		return RotateLeft, nil
	case "right", "cw":
		return RotateRight, nil
	}
	return 0, fmt.Errorf("unknown rotation %q", v)
}

// Rotate turns the features of an unconnected piece a quarter turn.
func (b *Board) Rotate(id PieceID, dir RotateDir) error {
	p, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPiece, id)
	}
	if p.IsConnected() {
		return fmt.Errorf("rotate %d: %w", id, ErrPieceConnected)
	}
	if dir == RotateLeft {
		p.rotate(geom.Side.RotateLeft)
	} else {
		p.rotate(geom.Side.RotateRight)
	}
	return nil
}

// SetText replaces the text of an unconnected piece.
func (b *Board) SetText(id PieceID, text string) error {
	p, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPiece, id)
	}
	if p.IsConnected() {
		return fmt.Errorf("edit %d: %w", id, ErrPieceConnected)
	}
	p.text = text
	return nil
}
