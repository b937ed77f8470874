// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used by handler tests and anywhere durability is not required.
//
// Characteristics:
//   - Maps keyed by id, guarded by an RWMutex.
//   - Ids are assigned from per-table counters.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memory is a map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	scenes   map[int]Scene
	sceneSeq int
	sessions map[string]GameSession
	scores   []HighScore
	scoreSeq int
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		scenes:   make(map[int]Scene),
		sessions: make(map[string]GameSession),
	}
}

func (m *memory) DefaultScene(ctx context.Context) (Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best := 0
	for id := range m.scenes {
		if best == 0 || id < best {
			best = id
		}
	}
	if best == 0 {
		return Scene{}, ErrNotFound
	}
	return copyScene(m.scenes[best]), nil
}

func (m *memory) SceneByID(ctx context.Context, id int) (Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.scenes[id]
	if !ok {
		return Scene{}, ErrNotFound
	}
	return copyScene(sc), nil
}

func (m *memory) Character(ctx context.Context, sceneID, characterID int) (Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.scenes[sceneID]
	if !ok {
		return Character{}, ErrNotFound
	}
	for _, c := range sc.Characters {
		if c.ID == characterID {
			return c, nil
		}
	}
	return Character{}, ErrNotFound
}

func (m *memory) CreateSession(ctx context.Context, s GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Session(ctx context.Context, id string) (GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return GameSession{}, ErrNotFound
	}
	return s, nil
}

func (m *memory) EndSession(ctx context.Context, id string, at time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}
	if s.EndedAt != nil {
		return 0, ErrSessionEnded
	}
	end := at
	s.EndedAt = &end
	s.Completed = true
	m.sessions[id] = s
	return at.Sub(s.StartedAt).Seconds(), nil
}

func (m *memory) InsertHighScore(ctx context.Context, hs HighScore) (HighScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoreSeq++
	hs.ID = m.scoreSeq
	m.scores = append(m.scores, hs)
	return hs, nil
}

func (m *memory) HighScores(ctx context.Context, sceneID, limit int) ([]HighScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]HighScore, 0, len(m.scores))
	for _, hs := range m.scores {
		if sceneID != 0 && hs.SceneID != sceneID {
			continue
		}
		out = append(out, hs)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TimeSeconds != out[j].TimeSeconds {
			return out[i].TimeSeconds < out[j].TimeSeconds
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) SeedScene(ctx context.Context, sc Scene, replace bool) (Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.scenes {
		if existing.Name != sc.Name {
			continue
		}
		if !replace {
			return copyScene(existing), nil
		}
		delete(m.scenes, id)
		break
	}
	m.sceneSeq++
	sc.ID = m.sceneSeq
	chars := make([]Character, len(sc.Characters))
	for i, c := range sc.Characters {
		c.ID = m.sceneSeq*100 + i + 1
		chars[i] = c
	}
	sc.Characters = chars
	m.scenes[sc.ID] = sc
	return copyScene(sc), nil
}

func copyScene(sc Scene) Scene {
	out := sc
	out.Characters = make([]Character, len(sc.Characters))
	copy(out.Characters, sc.Characters)
	return out
}
