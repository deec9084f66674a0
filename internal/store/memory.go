// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Puzzle sessions live only as long as the process: a live board with drag
// state is not worth persisting, finished results go to the daily store.
//
// Characteristics:
//   - Stores *game.Game objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Idle sessions can be evicted with Sweep.

package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/puzzli/internal/game"
)

// ErrNotFound is returned by Get and Delete for unknown IDs.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save persists or updates a game.
	Save(ctx context.Context, g *game.Game) error

	// Get retrieves a game by ID.
	Get(ctx context.Context, id string) (*game.Game, error)

	// Delete drops a game.
	Delete(ctx context.Context, id string) error

	// ByUser lists the games of one user, most recently touched first.
	ByUser(ctx context.Context, userID string) ([]*game.Game, error)
}

type entry struct {
	g       *game.Game
	touched time.Time
}

// Memory is an in-memory map-based Store implementation.
type Memory struct {
	mu    sync.RWMutex
	games map[string]entry
	now   func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{games: make(map[string]entry), now: time.Now}
}

func (m *Memory) Save(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = entry{g: g, touched: m.now()}
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.touched = m.now()
	m.games[id] = e
	return e.g, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return ErrNotFound
	}
	delete(m.games, id)
	return nil
}

func (m *Memory) ByUser(ctx context.Context, userID string) ([]*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var es []entry
	for _, e := range m.games {
		if e.g.UserID == userID {
			es = append(es, e)
		}
	}
	sort.Slice(es, func(i, j int) bool { return es[i].touched.After(es[j].touched) })
	out := make([]*game.Game, len(es))
	for i, e := range es {
		out[i] = e.g
	}
	return out, nil
}

// Sweep removes games not touched within ttl and returns how many went.
func (m *Memory) Sweep(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cut := m.now().Add(-ttl)
	n := 0
	for id, e := range m.games {
		if e.touched.Before(cut) {
			delete(m.games, id)
			n++
		}
	}
	return n
}

// Len reports the number of live sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}
