package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/cory-johannsen/buttonmen/internal/storage"
)

// GameRepository stores games in the games, game_actions and game_chats
// tables.
type GameRepository struct {
	db *pgxpool.Pool
}

var _ storage.GameStore = (*GameRepository)(nil)

// NewGameRepository creates a GameRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the schema
// from the migrations package applied.
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

func encodeSnapshot(snap engine.Snapshot) ([]byte, error) {
	snap.Log = nil
	snap.Chat = nil
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return raw, nil
}

func appendTails(ctx context.Context, tx pgx.Tx, id string, actions []engine.LogEntry, chat []engine.ChatMessage) error {
	if len(actions) == 0 && len(chat) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range actions {
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding action: %w", err)
		}
		batch.Queue(
			`INSERT INTO game_actions (game_id, round, kind, entry, logged_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, e.Round, string(e.Kind), raw, storage.Version(e.Time),
		)
	}
	for _, c := range chat {
		batch.Queue(
			`INSERT INTO game_chats (game_id, player, message, sent_at)
			 VALUES ($1, $2, $3, $4)`,
			id, c.Player, c.Message, storage.Version(c.Time),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("appending game tails: %w", err)
	}
	return nil
}

// CreateGame implements storage.GameStore.
//
// Postcondition: the snapshot row and any undrained log and chat entries are
// written in one transaction, or ErrGameExists is returned.
func (r *GameRepository) CreateGame(ctx context.Context, snap engine.Snapshot) error {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO games (id, status, state, player_ids, snapshot, last_action_time)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.ID, string(storage.StatusOf(snap)), snap.State.String(), snap.PlayerIDs, raw,
		storage.Version(snap.LastActionTime),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrGameExists
		}
		return fmt.Errorf("inserting game: %w", err)
	}
	if err := appendTails(ctx, tx, snap.ID, snap.Log, snap.Chat); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing game: %w", err)
	}
	return nil
}

// LoadGame implements storage.GameStore.
func (r *GameRepository) LoadGame(ctx context.Context, id string) (engine.Snapshot, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT snapshot FROM games WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidTextError(err) {
			return engine.Snapshot{}, storage.ErrGameNotFound
		}
		return engine.Snapshot{}, fmt.Errorf("querying game: %w", err)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("decoding snapshot %s: %w", id, err)
	}
	return snap, nil
}

// SaveGame implements storage.GameStore.
//
// Postcondition: ErrStaleGame when the stored last_action_time differs from
// expected; nothing is written in that case.
func (r *GameRepository) SaveGame(ctx context.Context, snap engine.Snapshot, expected time.Time, actions []engine.LogEntry, chat []engine.ChatMessage) error {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE games
		 SET status = $3, state = $4, snapshot = $5, last_action_time = $6
		 WHERE id = $1 AND last_action_time = $2`,
		snap.ID, storage.Version(expected), string(storage.StatusOf(snap)), snap.State.String(), raw,
		storage.Version(snap.LastActionTime),
	)
	if err != nil {
		if isInvalidTextError(err) {
			return storage.ErrGameNotFound
		}
		return fmt.Errorf("updating game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := gameExists(ctx, tx, snap.ID)
		if err != nil {
			return err
		}
		if exists {
			return storage.ErrStaleGame
		}
		return storage.ErrGameNotFound
	}
	if err := appendTails(ctx, tx, snap.ID, actions, chat); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing game: %w", err)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func gameExists(ctx context.Context, q querier, id string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		if isInvalidTextError(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking game: %w", err)
	}
	return exists, nil
}

// RecentActions implements storage.GameStore.
func (r *GameRepository) RecentActions(ctx context.Context, id string, limit int) ([]engine.LogEntry, error) {
	if exists, err := gameExists(ctx, r.db, id); err != nil {
		return nil, err
	} else if !exists {
		return nil, storage.ErrGameNotFound
	}
	rows, err := r.db.Query(ctx,
		`SELECT entry FROM (
		     SELECT id, entry FROM game_actions WHERE game_id = $1 ORDER BY id DESC LIMIT $2
		 ) recent ORDER BY id ASC`,
		id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (engine.LogEntry, error) {
		var raw []byte
		var e engine.LogEntry
		if err := row.Scan(&raw); err != nil {
			return e, err
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return e, fmt.Errorf("decoding action: %w", err)
		}
		return e, nil
	})
}

// RecentChat implements storage.GameStore.
func (r *GameRepository) RecentChat(ctx context.Context, id string, limit int) ([]engine.ChatMessage, error) {
	if exists, err := gameExists(ctx, r.db, id); err != nil {
		return nil, err
	} else if !exists {
		return nil, storage.ErrGameNotFound
	}
	rows, err := r.db.Query(ctx,
		`SELECT player, message, sent_at FROM (
		     SELECT id, player, message, sent_at FROM game_chats WHERE game_id = $1 ORDER BY id DESC LIMIT $2
		 ) recent ORDER BY id ASC`,
		id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chat: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (engine.ChatMessage, error) {
		var c engine.ChatMessage
		err := row.Scan(&c.Player, &c.Message, &c.Time)
		c.Time = c.Time.UTC()
		return c, err
	})
}

// ListGames implements storage.GameStore. Games are returned most recently
// active first.
func (r *GameRepository) ListGames(ctx context.Context, playerID string) ([]storage.Summary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id::text, status, state, player_ids, last_action_time
		 FROM games WHERE $1 = ANY (player_ids)
		 ORDER BY last_action_time DESC, id ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.Summary, error) {
		var s storage.Summary
		var status, state string
		if err := row.Scan(&s.ID, &status, &state, &s.PlayerIDs, &s.LastActionTime); err != nil {
			return s, err
		}
		parsed, err := engine.ParseState(state)
		if err != nil {
			return s, err
		}
		s.Status = storage.Status(status)
		s.State = parsed
		s.LastActionTime = storage.Version(s.LastActionTime)
		return s, nil
	})
}

// isDuplicateKeyError reports SQLSTATE 23505 (unique_violation).
func isDuplicateKeyError(err error) bool {
	return hasSQLState(err, "23505")
}

// isInvalidTextError reports SQLSTATE 22P02, raised when an id is not a UUID.
func isInvalidTextError(err error) bool {
	return hasSQLState(err, "22P02")
}

func hasSQLState(err error, code string) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == code
	}
	return false
}
