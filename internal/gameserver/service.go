// Package gameserver applies player decisions to stored games and exposes
// the operations over gRPC.
//
// Every mutating request follows the same cycle: lock the game, load its
// snapshot, restore an engine.Game, check that the caller's action is
// current, apply the decision, and save with an optimistic version check.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/buttonmen/internal/config"
	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/button"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/cory-johannsen/buttonmen/internal/storage"
)

var (
	// ErrBadRequest is returned for malformed create requests.
	ErrBadRequest = errors.New("bad request")
	// ErrNotParticipant is returned when the caller is not seated in the game.
	ErrNotParticipant = errors.New("player is not in this game")
	// ErrNotAwaited is returned when the game is not waiting on the caller.
	ErrNotAwaited = errors.New("game is not waiting on this player")
	// ErrActionNotCurrent is returned when the caller acted on an outdated view.
	ErrActionNotCurrent = errors.New("action does not match the current game state")
)

// ActionContext identifies the game, the caller and the view the caller
// acted on.
type ActionContext struct {
	GameID   string       `json:"gameId"`
	PlayerID string       `json:"playerId"`
	State    engine.State `json:"state"`
	Round    int          `json:"round"`
	// Timestamp is optional; when set it must equal the game's last action time.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// CreateGameRequest starts a new game. Buttons may be empty, or name one
// button per player; an empty name leaves that seat to ChooseButton.
type CreateGameRequest struct {
	PlayerIDs []string `json:"playerIds"`
	Buttons   []string `json:"buttons"`
	MaxWins   int      `json:"maxWins"`
	Autopass  []bool   `json:"autopass,omitempty"`
}

// ChooseButtonRequest assigns a button to the caller's seat.
type ChooseButtonRequest struct {
	ActionContext
	Button string `json:"button"`
}

// SwingRequest submits swing values.
type SwingRequest struct {
	ActionContext
	Swing map[string]int `json:"swing"`
	Chat  string         `json:"chat,omitempty"`
}

// TurnRequest submits an attack.
type TurnRequest struct {
	ActionContext
	AttackType   attack.Type `json:"attackType"`
	Defender     int         `json:"defender"`
	AttackerDice []int       `json:"attackerDice,omitempty"`
	DefenderDice []int       `json:"defenderDice,omitempty"`
	Chat         string      `json:"chat,omitempty"`
}

// InitiativeRequest reacts to losing initiative.
type InitiativeRequest struct {
	ActionContext
	engine.InitiativeReaction
	Chat string `json:"chat,omitempty"`
}

// AuxiliaryRequest answers the auxiliary dice prompt.
type AuxiliaryRequest struct {
	ActionContext
	Add bool `json:"add"`
}

// ReserveRequest answers the reserve dice prompt. Die is the position of the
// reserve die in the button recipe.
type ReserveRequest struct {
	ActionContext
	Add bool `json:"add"`
	Die int  `json:"die"`
}

// AutopassRequest toggles automatic passing.
type AutopassRequest struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Autopass bool   `json:"autopass"`
}

// ActionLine is one rendered action log entry.
type ActionLine struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// ChatLine is one chat message.
type ChatLine struct {
	Time     time.Time `json:"time"`
	PlayerID string    `json:"playerId"`
	Message  string    `json:"message"`
}

// GameResponse is a game as seen by one player.
type GameResponse struct {
	Game      engine.View  `json:"game"`
	ActionLog []ActionLine `json:"actionLog"`
	Chat      []ChatLine   `json:"chat"`
}

// Service implements the game operations on top of a storage.GameStore.
//
// Service is safe for concurrent use. Requests for one game are serialised
// in-process; concurrent writers in other processes are caught by the
// store's version check.
type Service struct {
	store   storage.GameStore
	catalog *button.Catalog
	attacks *attack.Registry
	rules   config.RulesConfig
	logger  *zap.Logger
	locks   *lockMap

	// Injected after construction; defaults suit production.
	Source dice.Source
	Clock  *ActionClock
	NewID  func() string
}

// NewService creates a Service.
//
// Precondition: every argument must be non-nil.
// Postcondition: Returns a Service using crypto randomness and wall-clock time.
func NewService(store storage.GameStore, catalog *button.Catalog, attacks *attack.Registry, rules config.RulesConfig, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		attacks: attacks,
		rules:   rules,
		logger:  logger,
		locks:   newLockMap(),
		Source:  dice.NewCryptoSource(),
		Clock:   NewActionClock(nil),
		NewID:   uuid.NewString,
	}
}

func (s *Service) params() engine.Params {
	return engine.Params{
		Source:  s.Source,
		Attacks: s.attacks,
		Logger:  s.logger,
		Clock:   s.Clock.Now,
	}
}

// CreateGame validates req, builds the game and runs it to the first
// decision.
//
// Postcondition: the stored game is returned as seen by the first player.
func (s *Service) CreateGame(ctx context.Context, req CreateGameRequest) (GameResponse, error) {
	if len(req.PlayerIDs) < 2 {
		return GameResponse{}, fmt.Errorf("%w: a game needs at least two players", ErrBadRequest)
	}
	seen := map[string]bool{}
	for _, id := range req.PlayerIDs {
		if id == "" {
			return GameResponse{}, fmt.Errorf("%w: empty player id", ErrBadRequest)
		}
		if seen[id] {
			return GameResponse{}, fmt.Errorf("%w: player %q appears twice", ErrBadRequest, id)
		}
		seen[id] = true
	}
	maxWins := req.MaxWins
	if maxWins == 0 {
		maxWins = s.rules.DefaultMaxWins
	}
	if maxWins < 1 || maxWins > s.rules.MaxWinsLimit {
		return GameResponse{}, fmt.Errorf("%w: max wins must be between 1 and %d", ErrBadRequest, s.rules.MaxWinsLimit)
	}
	if len(req.Buttons) != 0 && len(req.Buttons) != len(req.PlayerIDs) {
		return GameResponse{}, fmt.Errorf("%w: %d buttons for %d players", ErrBadRequest, len(req.Buttons), len(req.PlayerIDs))
	}
	if len(req.Autopass) != 0 && len(req.Autopass) != len(req.PlayerIDs) {
		return GameResponse{}, fmt.Errorf("%w: %d autopass flags for %d players", ErrBadRequest, len(req.Autopass), len(req.PlayerIDs))
	}
	buttons := make([]*button.Button, len(req.PlayerIDs))
	for i, name := range req.Buttons {
		if name == "" {
			continue
		}
		b, err := s.catalog.Button(name)
		if err != nil {
			return GameResponse{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		buttons[i] = b
	}

	p := s.params()
	p.ID = s.NewID()
	p.PlayerIDs = req.PlayerIDs
	p.Buttons = buttons
	p.MaxWins = maxWins
	if len(req.Autopass) > 0 {
		p.Autopass = req.Autopass
	}
	p.ChatMaxLength = s.rules.ChatMaxLength
	g, err := engine.New(p)
	if err != nil {
		return GameResponse{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := g.ProceedToNextUserAction(); err != nil {
		return GameResponse{}, fmt.Errorf("starting game: %w", err)
	}
	if err := s.store.CreateGame(ctx, g.Snapshot()); err != nil {
		return GameResponse{}, fmt.Errorf("storing game: %w", err)
	}
	s.logger.Info("game created",
		zap.String("game_id", g.ID()),
		zap.Strings("players", req.PlayerIDs),
		zap.Int("max_wins", maxWins),
		zap.Stringer("state", g.State()),
	)
	return s.respond(ctx, g, 0)
}

// GetGame returns the game as seen by playerID. A playerID that is not
// seated gets the spectator view.
func (s *Service) GetGame(ctx context.Context, gameID, playerID string) (GameResponse, error) {
	g, err := s.load(ctx, gameID)
	if err != nil {
		return GameResponse{}, err
	}
	return s.respond(ctx, g, g.PlayerIndex(playerID))
}

// ListGames returns summaries of playerID's games, most recent first.
func (s *Service) ListGames(ctx context.Context, playerID string) ([]storage.Summary, error) {
	return s.store.ListGames(ctx, playerID)
}

// ListButtons returns the button catalog sorted by name.
func (s *Service) ListButtons() []button.Def {
	return s.catalog.All()
}

// ChooseButton assigns a catalog button to the caller's seat.
func (s *Service) ChooseButton(ctx context.Context, req ChooseButtonRequest) (GameResponse, error) {
	return s.mutate(ctx, req.ActionContext, func(g *engine.Game, seat int) error {
		b, err := s.catalog.Button(req.Button)
		if err != nil {
			return &engine.InputError{Reason: err.Error()}
		}
		return g.AssignButton(seat, b)
	})
}

// SubmitSwingValues records the caller's swing values.
func (s *Service) SubmitSwingValues(ctx context.Context, req SwingRequest) (GameResponse, error) {
	return s.mutate(ctx, req.ActionContext, func(g *engine.Game, seat int) error {
		if err := g.SubmitSwingValues(seat, req.Swing); err != nil {
			return err
		}
		return g.AddChat(seat, req.Chat)
	})
}

// SubmitTurn performs the caller's attack, pass or surrender.
func (s *Service) SubmitTurn(ctx context.Context, req TurnRequest) (GameResponse, error) {
	return s.mutate(ctx, req.ActionContext, func(g *engine.Game, seat int) error {
		defender := req.Defender
		if req.AttackType == attack.Pass || req.AttackType == attack.Surrender {
			defender = engine.NoPlayer
		}
		if err := g.AddChat(seat, req.Chat); err != nil {
			return err
		}
		return g.SubmitAttack(engine.Attack{
			Attacker:     seat,
			Defender:     defender,
			AttackerDice: req.AttackerDice,
			DefenderDice: req.DefenderDice,
			Type:         req.AttackType,
		})
	})
}

// ReactToInitiative applies the caller's chance, focus or decline reaction.
func (s *Service) ReactToInitiative(ctx context.Context, req InitiativeRequest) (GameResponse, error) {
	return s.mutate(ctx, req.ActionContext, func(g *engine.Game, seat int) error {
		if err := g.ReactToInitiative(seat, req.InitiativeReaction); err != nil {
			return err
		}
		return g.AddChat(seat, req.Chat)
	})
}

// ReactToAuxiliary answers the auxiliary dice prompt.
func (s *Service) ReactToAuxiliary(ctx context.Context, req AuxiliaryRequest) (GameResponse, error) {
	return s.mutate(ctx, req.ActionContext, func(g *engine.Game, seat int) error {
		return g.ReactToAuxiliary(seat, req.Add)
	})
}

// ReactToReserve answers the reserve dice prompt.
func (s *Service) ReactToReserve(ctx context.Context, req ReserveRequest) (GameResponse, error) {
	return s.mutate(ctx, req.ActionContext, func(g *engine.Game, seat int) error {
		return g.ReactToReserve(seat, req.Die, req.Add)
	})
}

// SetAutopass toggles the caller's autopass flag. It is allowed in any state.
func (s *Service) SetAutopass(ctx context.Context, req AutopassRequest) (GameResponse, error) {
	unlock := s.locks.lock(req.GameID)
	defer unlock()

	g, err := s.load(ctx, req.GameID)
	if err != nil {
		return GameResponse{}, err
	}
	seat := g.PlayerIndex(req.PlayerID)
	if seat == engine.NoPlayer {
		return GameResponse{}, ErrNotParticipant
	}
	expected := g.LastActionTime()
	if err := g.SetAutopass(seat, req.Autopass); err != nil {
		return GameResponse{}, err
	}
	if err := s.store.SaveGame(ctx, g.Snapshot(), expected, nil, nil); err != nil {
		return GameResponse{}, fmt.Errorf("saving game: %w", err)
	}
	return s.respond(ctx, g, seat)
}

func (s *Service) load(ctx context.Context, gameID string) (*engine.Game, error) {
	snap, err := s.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading game %s: %w", gameID, err)
	}
	g, err := engine.Restore(snap, s.params())
	if err != nil {
		return nil, fmt.Errorf("restoring game %s: %w", gameID, err)
	}
	return g, nil
}

// checkCurrent rejects actions posted against a view the game has moved past.
func checkCurrent(g *engine.Game, seat int, ac ActionContext) error {
	if ac.State != g.State() {
		return fmt.Errorf("%w: game is in %s, not %s", ErrActionNotCurrent, g.State(), ac.State)
	}
	if ac.Round != g.RoundNumber() {
		return fmt.Errorf("%w: game is in round %d, not %d", ErrActionNotCurrent, g.RoundNumber(), ac.Round)
	}
	if ac.Timestamp != nil && !storage.Version(*ac.Timestamp).Equal(storage.Version(g.LastActionTime())) {
		return fmt.Errorf("%w: game was updated at %s", ErrActionNotCurrent, g.LastActionTime().Format(time.RFC3339Nano))
	}
	if !g.Waiting()[seat] {
		return ErrNotAwaited
	}
	return nil
}

// mutate runs fn against the current game and saves the result.
//
// Postcondition: on any error nothing is saved; an *engine.InputError is
// returned unwrapped so callers can re-prompt with its Reason.
func (s *Service) mutate(ctx context.Context, ac ActionContext, fn func(g *engine.Game, seat int) error) (GameResponse, error) {
	unlock := s.locks.lock(ac.GameID)
	defer unlock()

	g, err := s.load(ctx, ac.GameID)
	if err != nil {
		return GameResponse{}, err
	}
	seat := g.PlayerIndex(ac.PlayerID)
	if seat == engine.NoPlayer {
		return GameResponse{}, ErrNotParticipant
	}
	if err := checkCurrent(g, seat, ac); err != nil {
		return GameResponse{}, err
	}

	expected := g.LastActionTime()
	if err := fn(g, seat); err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			s.logger.Debug("player input rejected",
				zap.String("game_id", ac.GameID),
				zap.String("player_id", ac.PlayerID),
				zap.Error(err),
			)
			return GameResponse{}, err
		}
		return GameResponse{}, fmt.Errorf("applying action to game %s: %w", ac.GameID, err)
	}

	actions, chat := g.DrainActionLog(), g.DrainChat()
	if err := s.store.SaveGame(ctx, g.Snapshot(), expected, actions, chat); err != nil {
		return GameResponse{}, fmt.Errorf("saving game %s: %w", ac.GameID, err)
	}
	s.logger.Info("game advanced",
		zap.String("game_id", ac.GameID),
		zap.String("player_id", ac.PlayerID),
		zap.Stringer("state", g.State()),
		zap.Int("round", g.RoundNumber()),
		zap.Int("actions", len(actions)),
	)
	return s.respond(ctx, g, seat)
}

func (s *Service) respond(ctx context.Context, g *engine.Game, seat int) (GameResponse, error) {
	resp := GameResponse{Game: g.View(seat)}
	entries, err := s.store.RecentActions(ctx, g.ID(), s.rules.LogTail)
	if err != nil {
		return GameResponse{}, fmt.Errorf("loading action log: %w", err)
	}
	names := g.PlayerIDs()
	for _, e := range entries {
		if msg := e.FriendlyMessage(names, g.RoundNumber(), g.State()); msg != "" {
			resp.ActionLog = append(resp.ActionLog, ActionLine{Time: e.Time, Message: msg})
		}
	}
	chat, err := s.store.RecentChat(ctx, g.ID(), s.rules.LogTail)
	if err != nil {
		return GameResponse{}, fmt.Errorf("loading chat: %w", err)
	}
	for _, c := range chat {
		id := ""
		if c.Player >= 0 && c.Player < len(names) {
			id = names[c.Player]
		}
		resp.Chat = append(resp.Chat, ChatLine{Time: c.Time, PlayerID: id, Message: c.Message})
	}
	return resp, nil
}

// lockMap hands out one mutex per game id and forgets it once unused.
type lockMap struct {
	mu    sync.Mutex
	locks map[string]*gameLock
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

func newLockMap() *lockMap {
	return &lockMap{locks: map[string]*gameLock{}}
}

func (m *lockMap) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &gameLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
