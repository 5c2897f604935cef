// Package storage defines how games are persisted between requests.
//
// A game is stored as its engine snapshot plus two append-only tails: the
// action log and chat. Writers use optimistic concurrency keyed on the
// snapshot's LastActionTime.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/cory-johannsen/buttonmen/internal/game/engine"
)

// ErrGameNotFound is returned when no game has the requested id.
var ErrGameNotFound = errors.New("game not found")

// ErrGameExists is returned when creating a game whose id is taken.
var ErrGameExists = errors.New("game already exists")

// ErrStaleGame is returned when a save races another writer.
var ErrStaleGame = errors.New("game was modified by another request")

// Status is the coarse lifecycle of a stored game.
type Status string

const (
	// StatusOpen games are still waiting for buttons or players.
	StatusOpen Status = "OPEN"
	// StatusActive games are being played.
	StatusActive Status = "ACTIVE"
	// StatusComplete games have reached END_GAME.
	StatusComplete Status = "COMPLETE"
)

// StatusOf derives the stored status of snap.
func StatusOf(snap engine.Snapshot) Status {
	switch snap.State {
	case engine.StateEndGame:
		return StatusComplete
	case engine.StateStartGame:
		return StatusOpen
	}
	return StatusActive
}

// Summary is the listing view of a stored game.
type Summary struct {
	ID             string
	Status         Status
	State          engine.State
	PlayerIDs      []string
	LastActionTime time.Time
}

// Version normalises a LastActionTime to the precision every store keeps.
func Version(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }

// GameStore persists games.
type GameStore interface {
	// CreateGame stores a new game.
	//
	// Postcondition: ErrGameExists if snap.ID is already stored.
	CreateGame(ctx context.Context, snap engine.Snapshot) error

	// LoadGame returns the stored snapshot for id, or ErrGameNotFound.
	LoadGame(ctx context.Context, id string) (engine.Snapshot, error)

	// SaveGame replaces the snapshot and appends actions and chat, provided
	// the stored version still equals expected.
	//
	// Postcondition: ErrStaleGame and no change when the version moved.
	SaveGame(ctx context.Context, snap engine.Snapshot, expected time.Time, actions []engine.LogEntry, chat []engine.ChatMessage) error

	// RecentActions returns up to limit of the newest action log entries,
	// oldest first.
	RecentActions(ctx context.Context, id string, limit int) ([]engine.LogEntry, error)

	// RecentChat returns up to limit of the newest chat messages, oldest first.
	RecentChat(ctx context.Context, id string, limit int) ([]engine.ChatMessage, error)

	// ListGames returns the games playerID is seated in, newest activity first.
	ListGames(ctx context.Context, playerID string) ([]Summary, error)
}
