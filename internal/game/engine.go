// internal/game/engine.go
//
// Game engine for a single puzzle session.
// Responsibilities:
//   - Build a board from an exercise (auto layout when no positions are given).
//   - Drive the drag gesture: BeginDrag → DragBy/DragTo (every tick) → EndDrag.
//   - Guard the rules the board does not know about: one drag at a time,
//     pieces with two or more connections stay put, new pieces only for
//     create/complete tasks.
//   - Track moves and solve time; report IsSolved via structural matching.
//
// Notes:
//   - All geometry and snapping lives in the puzzle package.
//   - randomID() is a compact hex identifier for correlating server state.
package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/puzzli/internal/geom"
	"github.com/robalobadob/puzzli/internal/puzzle"
)

const (
	// lockedAt is the connection count from which a piece can no longer be dragged.
	lockedAt  = 2
	layoutGap = 40.0
)

// Option configures a Game.
type Option func(*Game)

// WithLogger injects a logger; it is also handed to the snap engine.
func WithLogger(l zerolog.Logger) Option { return func(g *Game) { g.log = l } }

// WithSnapOptions forwards options to every snap engine the game creates.
func WithSnapOptions(opts ...puzzle.SnapOption) Option {
	return func(g *Game) { g.snapOpts = append(g.snapOpts, opts...) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(g *Game) { g.now = now } }

// WithUser records the owning user.
func WithUser(id string) Option { return func(g *Game) { g.UserID = id } }

// New constructs a game for ex. The exercise is validated and its pieces are
// placed on a fresh board.
func New(ex puzzle.Exercise, opts ...Option) (*Game, error) {
	if err := ex.Validate(); err != nil {
		return nil, err
	}
	g := &Game{
		ID:       randomID(),
		exercise: ex,
		board:    puzzle.NewBoard(),
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	g.log = g.log.With().Str("game", g.ID).Str("exercise", ex.ID).Logger()
	g.snapper = g.newSnapper()
	g.started = g.now()

	auto := needsLayout(ex.Pieces)
	x := 0.0
	for i, cfg := range ex.Pieces {
		if auto {
			cfg.Pos = geom.V(x, 0)
		}
		p, err := g.board.Add(cfg)
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		x += p.BoundingBox().W + layoutGap
	}
	return g, nil
}

func (g *Game) newSnapper() *puzzle.Snapper {
	opts := append([]puzzle.SnapOption{puzzle.WithLogger(g.log)}, g.snapOpts...)
	return puzzle.NewSnapper(g.board, opts...)
}

// needsLayout is true when no piece carries a position.
func needsLayout(ps []puzzle.PieceConfig) bool {
	for _, p := range ps {
		if p.Pos != (geom.Vec2{}) {
			return false
		}
	}
	return len(ps) > 1
}

// Exercise returns the exercise being played.
func (g *Game) Exercise() puzzle.Exercise {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.exercise
}

// BeginDrag starts a gesture on piece id: the piece is lifted above the others
// and its features are indexed for snapping.
func (g *Game) BeginDrag(id puzzle.PieceID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.beginDrag(id)
}

// BeginDragAt starts a gesture on the topmost piece under pt.
func (g *Game) BeginDragAt(pt geom.Vec2) (puzzle.PieceID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.board.PieceAt(pt)
	if !ok {
		return 0, fmt.Errorf("%w: (%.1f, %.1f)", ErrNoPieceAt, pt.X, pt.Y)
	}
	return p.ID(), g.beginDrag(p.ID())
}

func (g *Game) beginDrag(id puzzle.PieceID) error {
	if g.dragged != 0 {
		return ErrAlreadyDragging
	}
	p, ok := g.board.Piece(id)
	if !ok {
		return fmt.Errorf("%w: %d", puzzle.ErrUnknownPiece, id)
	}
	if p.ConnectionCount() >= lockedAt {
		return fmt.Errorf("drag %d: %w", id, ErrPieceLocked)
	}
	if _, err := g.board.Promote(id); err != nil {
		return err
	}
	g.snapper.IndexPiece(id)
	g.dragged = id
	g.log.Debug().Int("piece", int(id)).Msg("drag begin")
	return nil
}

// DragBy moves the dragged piece by delta and refreshes the snap candidate.
func (g *Game) DragBy(delta geom.Vec2) (DragUpdate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dragged == 0 {
		return DragUpdate{}, ErrNotDragging
	}
	severed, err := g.board.MoveBy(g.dragged, delta)
	if err != nil {
		return DragUpdate{}, err
	}
	return g.tick(severed), nil
}

// DragTo moves the dragged piece to pos and refreshes the snap candidate.
func (g *Game) DragTo(pos geom.Vec2) (DragUpdate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dragged == 0 {
		return DragUpdate{}, ErrNotDragging
	}
	severed, err := g.board.MovePiece(g.dragged, pos)
	if err != nil {
		return DragUpdate{}, err
	}
	return g.tick(severed), nil
}

func (g *Game) tick(severed []puzzle.Connection) DragUpdate {
	u := DragUpdate{Severed: severed}
	if pair, ok := g.snapper.UpdateByProximity(); ok {
		u.Pending = &pair
	}
	return u
}

// EndDrag releases the dragged piece: the pending pair (if any) is committed,
// the gesture is cleared and depths are rebased.
func (g *Game) EndDrag() (Release, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dragged == 0 {
		return Release{}, ErrNotDragging
	}
	var r Release
	if c, ok := g.snapper.Commit(); ok {
		r.Connection = &c
	}
	g.snapper.Reset()
	g.board.RebaseDepths()
	g.log.Debug().Int("piece", int(g.dragged)).Bool("snapped", r.Connection != nil).Msg("drag end")
	g.dragged = 0
	g.moves++

	r.Solved = g.checkSolved()
	return r, nil
}

// CancelDrag ends the gesture without committing a snap.
func (g *Game) CancelDrag() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dragged == 0 {
		return
	}
	g.snapper.Reset()
	g.board.RebaseDepths()
	g.dragged = 0
}

// IsSolved reports whether the live connections match the exercise solution.
// Exercises without a solution are never solved.
func (g *Game) IsSolved() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.solved()
}

func (g *Game) solved() bool {
	return g.exercise.Solvable() && puzzle.MatchLinks(g.board.Links(), g.exercise.Solution)
}

// checkSolved stamps the first solve time.
func (g *Game) checkSolved() bool {
	ok := g.solved()
	if ok && g.solvedAt.IsZero() {
		g.solvedAt = g.now()
		g.log.Info().Int("moves", g.moves).Dur("elapsed", g.solvedAt.Sub(g.started)).Msg("exercise solved")
	}
	return ok
}

// Rotate turns an unconnected piece a quarter turn.
func (g *Game) Rotate(id puzzle.PieceID, dir puzzle.RotateDir) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.idle(); err != nil {
		return err
	}
	return g.board.Rotate(id, dir)
}

// SetText edits the text of an unconnected piece.
func (g *Game) SetText(id puzzle.PieceID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.idle(); err != nil {
		return err
	}
	return g.board.SetText(id, text)
}

// AddPiece places a player-made piece. Only create and complete tasks allow it.
func (g *Game) AddPiece(cfg puzzle.PieceConfig) (puzzle.PieceID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.exercise.Type.AllowsNewPieces() {
		return 0, fmt.Errorf("add piece to %s: %w", g.exercise.Type, ErrNotAllowed)
	}
	if err := g.idle(); err != nil {
		return 0, err
	}
	p, err := g.board.Add(cfg)
	if err != nil {
		return 0, err
	}
	return p.ID(), nil
}

// RemovePiece deletes a piece, dropping its connections. Same rule as AddPiece.
func (g *Game) RemovePiece(id puzzle.PieceID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.exercise.Type.AllowsNewPieces() {
		return fmt.Errorf("remove piece from %s: %w", g.exercise.Type, ErrNotAllowed)
	}
	if err := g.idle(); err != nil {
		return err
	}
	return g.board.Remove(id)
}

// Disconnect breaks a single connection.
func (g *Game) Disconnect(c puzzle.Connection) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.idle(); err != nil {
		return err
	}
	if !g.board.Disconnect(c) {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, c)
	}
	return nil
}

func (g *Game) idle() error {
	if g.dragged != 0 {
		return ErrAlreadyDragging
	}
	return nil
}

// Moves is the number of completed drags.
func (g *Game) Moves() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moves
}

// Elapsed is the time from start to first solve, or to now while unsolved.
func (g *Game) Elapsed() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.solvedAt.IsZero() {
		return g.solvedAt.Sub(g.started)
	}
	return g.now().Sub(g.started)
}

// Snapshot returns everything a renderer needs, copied out under the lock.
func (g *Game) Snapshot() View {
	g.mu.Lock()
	defer g.mu.Unlock()

	v := View{
		ID:          g.ID,
		ExerciseID:  g.exercise.ID,
		Type:        g.exercise.Type,
		Task:        g.exercise.Task,
		Connections: g.board.Connections(),
		Dragging:    g.dragged,
		Moves:       g.moves,
		Solvable:    g.exercise.Solvable(),
		Solved:      g.solved(),
		StartedAt:   g.started,
	}
	if v.Connections == nil {
		v.Connections = []puzzle.Connection{}
	}
	if pair, ok := g.snapper.Pending(); ok {
		v.Pending = &pair
	}
	if !g.solvedAt.IsZero() {
		t := g.solvedAt
		v.SolvedAt = &t
	}
	for _, p := range g.board.Pieces() {
		v.Pieces = append(v.Pieces, pieceView(p))
	}
	return v
}

func pieceView(p *puzzle.Piece) PieceView {
	pv := PieceView{
		ID:          p.ID(),
		Pos:         p.Pos(),
		Size:        p.Size(),
		Depth:       p.Depth(),
		Role:        p.Role(),
		Color:       p.Role().Hex(),
		Text:        p.Text(),
		BoundingBox: p.BoundingBox(),
		Connections: p.ConnectionCount(),
	}
	for _, f := range p.Features() {
		fv := FeatureView{
			Kind:        f.Kind().String(),
			Side:        f.Side(),
			Text:        f.Text(),
			Midpoint:    p.Midpoint(f),
			Highlighted: f.Highlighted(),
		}
		if f.IsTab() {
			fv.Role = f.Role()
			fv.Color = f.Role().Hex()
		}
		pv.Features = append(pv.Features, fv)
	}
	return pv
}

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
