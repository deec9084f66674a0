// internal/puzzle/snap.go
//
// Snapper is the proximity snapping engine.
// Lifecycle of one drag gesture:
//   1. IndexPiece/Index: for each dragged feature, snapshot the compatible
//      features on other pieces (opposite side, opposite kind).
//   2. UpdateByProximity, every tick: find the single closest
//      (indexed feature, free candidate) pair across the whole index; within
//      the threshold it becomes the pending pair and both features glow.
//   3. Commit, on release: grow the smaller piece if it is free, align the
//      dragged feature onto its target and record the connection on both pieces.
//   4. Reset: drop the index, the pending pair and every highlight.

package puzzle

import (
	"math"

	"github.com/rs/zerolog"
)

// DefaultSnapThreshold is the maximum midpoint distance that still snaps.
const DefaultSnapThreshold = 75.0

// SnapPair is a pending snap: Moving belongs to the dragged piece.
type SnapPair struct {
	Moving   FeatureRef `json:"moving"`
	Target   FeatureRef `json:"target"`
	Distance float64    `json:"distance"`
}

// Snapper tracks one drag gesture on a board.
type Snapper struct {
	board      *Board
	threshold  float64
	legacyRole bool
	log        zerolog.Logger

	order   []FeatureRef
	index   map[FeatureRef][]FeatureRef
	pending *SnapPair
}

// SnapOption configures a Snapper.
type SnapOption func(*Snapper)

// WithThreshold overrides DefaultSnapThreshold.
func WithThreshold(t float64) SnapOption {
	return func(s *Snapper) {
		if t > 0 {
			s.threshold = t
		}
	}
}

// WithLogger injects the engine logger. The default discards everything.
func WithLogger(l zerolog.Logger) SnapOption {
	return func(s *Snapper) { s.log = l }
}

// WithLegacyConnectionRole tags every new connection as Adverbial instead of
// using the tab's role. Older exercise files were authored against that.
func WithLegacyConnectionRole(on bool) SnapOption {
	return func(s *Snapper) { s.legacyRole = on }
}

// NewSnapper binds an engine to b.
func NewSnapper(b *Board, opts ...SnapOption) *Snapper {
	s := &Snapper{
		board:     b,
		threshold: DefaultSnapThreshold,
		log:       zerolog.Nop(),
		index:     make(map[FeatureRef][]FeatureRef),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Snapper) Threshold() float64 { return s.threshold }

// IndexPiece indexes every feature of piece id.
func (s *Snapper) IndexPiece(id PieceID) {
	p, ok := s.board.Piece(id)
	if !ok {
		return
	}
	for _, f := range p.Features() {
		s.Index(f.Ref())
	}
}

// Index builds the candidate list for ref unless it already exists for this
// gesture. The list is never mutated afterwards.
func (s *Snapper) Index(ref FeatureRef) {
	if _, ok := s.index[ref]; ok {
		return
	}
	f, _, ok := s.board.Feature(ref)
	if !ok {
		return
	}
	var out []FeatureRef
	for _, p := range s.board.pieces {
		if p.id == f.owner {
			continue
		}
		for _, c := range p.Features() {
			if Compatible(f, c) {
				out = append(out, c.Ref())
			}
		}
	}
	s.index[ref] = out
	s.order = append(s.order, ref)
	s.log.Debug().Stringer("feature", ref).Int("candidates", len(out)).Msg("indexed")
}

// Candidates returns a copy of the indexed candidates for ref.
func (s *Snapper) Candidates(ref FeatureRef) []FeatureRef {
	return append([]FeatureRef(nil), s.index[ref]...)
}

// Indexed reports whether any feature is indexed.
func (s *Snapper) Indexed() bool { return len(s.order) > 0 }

// Pending returns the current snap pair, if any.
func (s *Snapper) Pending() (SnapPair, bool) {
	if s.pending == nil {
		return SnapPair{}, false
	}
	return *s.pending, true
}

// UpdateByProximity recomputes the globally closest free pair. Ties keep the
// first pair in index order.
func (s *Snapper) UpdateByProximity() (SnapPair, bool) {
	best := SnapPair{Distance: math.Inf(1)}
	found := false
	for _, ref := range s.order {
		from, ok := s.board.Midpoint(ref)
		if !ok || s.board.consumed(ref) {
			continue
		}
		for _, cand := range s.index[ref] {
			if s.board.consumed(cand) {
				continue
			}
			to, ok := s.board.Midpoint(cand)
			if !ok {
				continue
			}
			if d := from.Dst(to); d < best.Distance {
				best = SnapPair{Moving: ref, Target: cand, Distance: d}
				found = true
			}
		}
	}

	s.board.ClearHighlights()
	if !found || best.Distance > s.threshold {
		s.pending = nil
		return SnapPair{}, false
	}
	for _, r := range [2]FeatureRef{best.Moving, best.Target} {
		if f, _, ok := s.board.Feature(r); ok {
			f.setHighlight(true)
		}
	}
	s.pending = &best
	s.log.Debug().
		Stringer("moving", best.Moving).
		Stringer("target", best.Target).
		Float64("distance", best.Distance).
		Msg("snap candidate")
	return best, true
}

// Commit turns the pending pair into a connection. Without a pending pair it
// does nothing and reports false.
func (s *Snapper) Commit() (Connection, bool) {
	pair := s.pending
	s.pending = nil
	if pair == nil {
		return Connection{}, false
	}
	mf, mp, ok1 := s.board.Feature(pair.Moving)
	tf, tp, ok2 := s.board.Feature(pair.Target)
	if !ok1 || !ok2 || !Compatible(mf, tf) || s.board.consumed(pair.Moving) || s.board.consumed(pair.Target) {
		s.log.Warn().Stringer("moving", pair.Moving).Stringer("target", pair.Target).Msg("stale snap pair dropped")
		return Connection{}, false
	}

	tab, blank := mf, tf
	if !tab.IsTab() {
		tab, blank = tf, mf
	}

	s.reconcileSize(mp, mf, tp, tf)

	// Align: the dragged piece moves so both midpoints coincide.
	s.board.translate(mp, tp.Midpoint(tf).Sub(mp.Midpoint(mf)))

	role := tab.role
	if s.legacyRole {
		role = Adverbial
	}
	c := NewConnection(tab.Ref(), blank.Ref(), role)
	s.board.connect(c)
	s.log.Info().Stringer("connection", c).Msg("snapped")
	return c, true
}

// reconcileSize grows the smaller of the two pieces to the larger size,
// keeping its snapping feature where it was. A connected piece keeps its size.
func (s *Snapper) reconcileSize(mp *Piece, mf *Feature, tp *Piece, tf *Feature) {
	if mp.size == tp.size {
		return
	}
	small, sf, big := mp, mf, tp
	if tp.size < mp.size {
		small, sf, big = tp, tf, mp
	}
	if small.IsConnected() {
		s.log.Debug().Int("piece", int(small.id)).Msg("resize skipped: piece is connected")
		return
	}
	before := small.Midpoint(sf)
	small.setSize(big.size)
	s.board.translate(small, before.Sub(small.Midpoint(sf)))
}

// Reset ends the gesture: index, pending pair and highlights are cleared.
func (s *Snapper) Reset() {
	s.index = make(map[FeatureRef][]FeatureRef)
	s.order = nil
	s.pending = nil
	s.board.ClearHighlights()
}
