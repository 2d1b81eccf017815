// apps/arena-server/internal/store/memory.go
//
// In-memory registry of single-player sessions and multiplayer rooms.
// Sessions and rooms share one id space so a game_id names exactly one of
// them.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent lookups, exclusive inserts).
//   - The registry lock is never held while a room or session lock is taken.
//   - State is lost when the process restarts.

package store

import (
	"crypto/rand"
	"math/big"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/robalobadob/wordle/apps/arena-server/internal/room"
)

var (
	// ErrUnknownSession is returned for a game id that names nothing.
	ErrUnknownSession = errors.New("unknown session")
	// ErrExhausted is returned when no free id could be generated.
	ErrExhausted = errors.New("game id space exhausted")
)

// Store defines the registry the dispatcher depends on.
type Store interface {
	// CreateSession registers a single-player game built by mk under a fresh id.
	CreateSession(mk func(id string) (*room.Session, error)) (*room.Session, error)
	// CreateRoom registers a multiplayer room built by mk under a fresh id.
	CreateRoom(mk func(id string) (*room.Room, error)) (*room.Room, error)
	Session(id string) (*room.Session, error)
	Room(id string) (*room.Room, error)
	// Rooms returns every room in id order.
	Rooms() []*room.Room
	Stats() Stats
}

// Stats counts registered games.
type Stats struct {
	Sessions int `json:"sessions"`
	Rooms    int `json:"rooms"`
}

// memory is the map-backed Store.
type memory struct {
	digits   int
	attempts int

	mu       sync.RWMutex
	sessions map[string]*room.Session
	rooms    map[string]*room.Room
}

// NewMemoryStore constructs an empty registry handing out decimal ids of
// the given digit count.
func NewMemoryStore(digits int) Store {
	if digits <= 0 {
		digits = 4
	}
	return &memory{
		digits:   digits,
		attempts: 64,
		sessions: make(map[string]*room.Session),
		rooms:    make(map[string]*room.Room),
	}
}

func (m *memory) CreateSession(mk func(id string) (*room.Session, error)) (*room.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := m.freeIDLocked()
	if err != nil {
		return nil, err
	}
	s, err := mk(id)
	if err != nil {
		return nil, err
	}
	m.sessions[id] = s
	return s, nil
}

func (m *memory) CreateRoom(mk func(id string) (*room.Room, error)) (*room.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := m.freeIDLocked()
	if err != nil {
		return nil, err
	}
	r, err := mk(id)
	if err != nil {
		return nil, err
	}
	m.rooms[id] = r
	return r, nil
}

func (m *memory) Session(id string) (*room.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, errors.Wrapf(ErrUnknownSession, "game %s", id)
}

func (m *memory) Room(id string) (*room.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	return nil, errors.Wrapf(ErrUnknownSession, "room %s", id)
}

func (m *memory) Rooms() []*room.Room {
	m.mu.RLock()
	out := make([]*room.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (m *memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Sessions: len(m.sessions), Rooms: len(m.rooms)}
}

// freeIDLocked draws random ids until one is unused. Caller holds m.mu.
func (m *memory) freeIDLocked() (string, error) {
	space := pow10(m.digits)
	if int64(len(m.sessions)+len(m.rooms)) >= space.Int64() {
		return "", ErrExhausted
	}
	for i := 0; i < m.attempts; i++ {
		n, err := rand.Int(rand.Reader, space)
		if err != nil {
			return "", errors.Wrap(err, "read random id")
		}
		id := pad(n.Int64(), m.digits)
		if !m.takenLocked(id) {
			return id, nil
		}
	}
	// Dense space: fall back to a linear scan so creation still succeeds.
	for n := int64(0); n < space.Int64(); n++ {
		id := pad(n, m.digits)
		if !m.takenLocked(id) {
			return id, nil
		}
	}
	return "", ErrExhausted
}

func (m *memory) takenLocked(id string) bool {
	_, s := m.sessions[id]
	_, r := m.rooms[id]
	return s || r
}

func pow10(digits int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
}

func pad(n int64, digits int) string {
	s := strconv.FormatInt(n, 10)
	for len(s) < digits {
		s = "0" + s
	}
	return s
}
