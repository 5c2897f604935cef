// Package memory provides an in-process storage.GameStore.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/cory-johannsen/buttonmen/internal/storage"
)

type record struct {
	snapshot []byte
	version  time.Time
	summary  storage.Summary
	actions  []engine.LogEntry
	chat     []engine.ChatMessage
}

// Store keeps games in memory. Snapshots are stored JSON-encoded so callers
// never share state with the store.
type Store struct {
	mu    sync.RWMutex
	games map[string]*record
}

var _ storage.GameStore = (*Store)(nil)

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{games: map[string]*record{}}
}

func encode(snap engine.Snapshot) ([]byte, error) {
	snap.Log = nil
	snap.Chat = nil
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return raw, nil
}

func summarize(snap engine.Snapshot) storage.Summary {
	return storage.Summary{
		ID:             snap.ID,
		Status:         storage.StatusOf(snap),
		State:          snap.State,
		PlayerIDs:      append([]string(nil), snap.PlayerIDs...),
		LastActionTime: storage.Version(snap.LastActionTime),
	}
}

// CreateGame implements storage.GameStore.
func (s *Store) CreateGame(ctx context.Context, snap engine.Snapshot) error {
	raw, err := encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[snap.ID]; ok {
		return storage.ErrGameExists
	}
	s.games[snap.ID] = &record{
		snapshot: raw,
		version:  storage.Version(snap.LastActionTime),
		summary:  summarize(snap),
		actions:  append([]engine.LogEntry(nil), snap.Log...),
		chat:     append([]engine.ChatMessage(nil), snap.Chat...),
	}
	return nil
}

// LoadGame implements storage.GameStore.
func (s *Store) LoadGame(ctx context.Context, id string) (engine.Snapshot, error) {
	s.mu.RLock()
	rec, ok := s.games[id]
	s.mu.RUnlock()
	if !ok {
		return engine.Snapshot{}, storage.ErrGameNotFound
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(rec.snapshot, &snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("decoding snapshot %s: %w", id, err)
	}
	return snap, nil
}

// SaveGame implements storage.GameStore.
func (s *Store) SaveGame(ctx context.Context, snap engine.Snapshot, expected time.Time, actions []engine.LogEntry, chat []engine.ChatMessage) error {
	raw, err := encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.games[snap.ID]
	if !ok {
		return storage.ErrGameNotFound
	}
	if !rec.version.Equal(storage.Version(expected)) {
		return storage.ErrStaleGame
	}
	rec.snapshot = raw
	rec.version = storage.Version(snap.LastActionTime)
	rec.summary = summarize(snap)
	rec.actions = append(rec.actions, actions...)
	rec.chat = append(rec.chat, chat...)
	return nil
}

func tail[T any](items []T, limit int) []T {
	if limit >= 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return append([]T(nil), items...)
}

// RecentActions implements storage.GameStore.
func (s *Store) RecentActions(ctx context.Context, id string, limit int) ([]engine.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.games[id]
	if !ok {
		return nil, storage.ErrGameNotFound
	}
	return tail(rec.actions, limit), nil
}

// RecentChat implements storage.GameStore.
func (s *Store) RecentChat(ctx context.Context, id string, limit int) ([]engine.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.games[id]
	if !ok {
		return nil, storage.ErrGameNotFound
	}
	return tail(rec.chat, limit), nil
}

// ListGames implements storage.GameStore.
func (s *Store) ListGames(ctx context.Context, playerID string) ([]storage.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Summary
	for _, rec := range s.games {
		for _, p := range rec.summary.PlayerIDs {
			if p == playerID {
				out = append(out, rec.summary)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActionTime.Equal(out[j].LastActionTime) {
			return out[i].LastActionTime.After(out[j].LastActionTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
