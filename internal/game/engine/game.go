// Package engine implements the buttonmen game state machine: phase
// transitions, attack dispatch, initiative, scoring and the action log.
//
// A Game is not safe for concurrent use. Callers serialise access per game.
package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/button"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
)

// NoPlayer marks an unset player index.
const NoPlayer = -1

// DefaultChatMaxLength is the chat truncation limit used when Params leaves it zero.
const DefaultChatMaxLength = 1020

// maxStallCycles is how many consecutive no-op cycles the driver tolerates.
const maxStallCycles = 20

// Tally is one player's round record.
type Tally struct {
	W int `json:"W"`
	L int `json:"L"`
	D int `json:"D"`
}

// Total returns W+L+D.
func (t Tally) Total() int { return t.W + t.L + t.D }

// AuxChoice is a player's answer to the auxiliary dice prompt.
type AuxChoice int

const (
	AuxUndecided AuxChoice = iota
	AuxAdd
	AuxDecline
)

// Attack is a pending attack descriptor.
type Attack struct {
	Attacker     int         `json:"attacker"`
	Defender     int         `json:"defender"`
	AttackerDice []int       `json:"attackerDice"`
	DefenderDice []int       `json:"defenderDice"`
	Type         attack.Type `json:"type"`
}

// ChatMessage is a chat annotation waiting to be persisted.
type ChatMessage struct {
	Player  int       `json:"player"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Params configures New.
type Params struct {
	ID        string
	PlayerIDs []string
	// Buttons holds one entry per player; nil entries are assigned later
	// with AssignButton.
	Buttons       []*button.Button
	MaxWins       int
	Autopass      []bool
	ChatMaxLength int
	Source        dice.Source
	Attacks       *attack.Registry
	Logger        *zap.Logger
	Clock         func() time.Time
}

// Game is the authoritative state of one match.
//
// Invariant: every per-player slice has len == len(playerIDs).
// Invariant: at most one attack is pending.
type Game struct {
	id        string
	playerIDs []string
	state     State
	maxWins   int

	buttons  []*button.Button
	active   [][]*dice.Die // nil between rounds
	captured [][]*dice.Die

	swingRequests []map[string][]*dice.Die
	swingValues   []map[string]int

	waiting  []bool
	autopass []bool
	scores   []Tally

	activePlayer     int
	initiativeHolder int
	turn             int
	nRecentPasses    int

	attack          *Attack
	attackCommitted bool
	passedThisTurn  bool
	surrendered     int

	auxChoices     []AuxChoice
	reservePending []bool
	declined       []bool
	endLogged      bool

	log            []LogEntry
	chat           []ChatMessage
	chatMax        int
	message        string
	rejection      string
	lastActionTime time.Time

	src     dice.Source
	roller  *dice.Roller
	attacks *attack.Registry
	logger  *zap.Logger
	clock   func() time.Time
}

// New constructs a Game in START_GAME. Call ProceedToNextUserAction to run it
// up to the first player decision.
//
// Precondition: at least two players; p.Source non-nil; p.MaxWins >= 1.
// Postcondition: State() == StateStartGame.
func New(p Params) (*Game, error) {
	n := len(p.PlayerIDs)
	if n < 2 {
		return nil, fmt.Errorf("%w: a game needs at least two players, got %d", ErrWrongState, n)
	}
	if p.Buttons != nil && len(p.Buttons) != n {
		return nil, fmt.Errorf("%w: %d buttons for %d players", ErrWrongState, len(p.Buttons), n)
	}
	if p.Autopass != nil && len(p.Autopass) != n {
		return nil, fmt.Errorf("%w: %d autopass flags for %d players", ErrWrongState, len(p.Autopass), n)
	}
	if p.MaxWins < 1 {
		return nil, fmt.Errorf("%w: max wins must be >= 1, got %d", ErrWrongState, p.MaxWins)
	}
	if p.Source == nil {
		return nil, fmt.Errorf("%w: nil randomness source", ErrWrongState)
	}

	g := newGame(p, n)
	g.state = StateStartGame
	if p.Buttons != nil {
		copy(g.buttons, p.Buttons)
	}
	if p.Autopass != nil {
		copy(g.autopass, p.Autopass)
	}
	for i := range g.swingValues {
		g.swingValues[i] = map[string]int{}
	}
	g.lastActionTime = g.clock()
	return g, nil
}

func newGame(p Params, n int) *Game {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	attacks := p.Attacks
	if attacks == nil {
		attacks = attack.DefaultRegistry()
	}
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	chatMax := p.ChatMaxLength
	if chatMax <= 0 {
		chatMax = DefaultChatMaxLength
	}
	logger = logger.With(zap.String("game_id", p.ID))
	return &Game{
		id:               p.ID,
		playerIDs:        append([]string(nil), p.PlayerIDs...),
		maxWins:          p.MaxWins,
		buttons:          make([]*button.Button, n),
		captured:         make([][]*dice.Die, n),
		swingRequests:    make([]map[string][]*dice.Die, n),
		swingValues:      make([]map[string]int, n),
		waiting:          make([]bool, n),
		autopass:         make([]bool, n),
		scores:           make([]Tally, n),
		activePlayer:     NoPlayer,
		initiativeHolder: NoPlayer,
		surrendered:      NoPlayer,
		auxChoices:       make([]AuxChoice, n),
		reservePending:   make([]bool, n),
		declined:         make([]bool, n),
		chatMax:          chatMax,
		src:              p.Source,
		roller:           dice.NewLoggedRoller(p.Source, logger),
		attacks:          attacks,
		logger:           logger,
		clock:            clock,
	}
}

// ID returns the game id.
func (g *Game) ID() string { return g.id }

// PlayerIDs returns a copy of the seat list.
func (g *Game) PlayerIDs() []string { return append([]string(nil), g.playerIDs...) }

// NumPlayers returns the number of seats.
func (g *Game) NumPlayers() int { return len(g.playerIDs) }

// PlayerIndex returns the seat of playerID, or NoPlayer.
func (g *Game) PlayerIndex(playerID string) int {
	for i, id := range g.playerIDs {
		if id == playerID {
			return i
		}
	}
	return NoPlayer
}

// State returns the current phase.
func (g *Game) State() State { return g.state }

// MaxWins returns the round-win target.
func (g *Game) MaxWins() int { return g.maxWins }

// RoundNumber is derived from player 0's tally: one more than the rounds
// played, capped at MaxWins.
func (g *Game) RoundNumber() int { return min(g.maxWins, g.scores[0].Total()+1) }

// Turn returns the turn counter within the round.
func (g *Game) Turn() int { return g.turn }

// ActivePlayer returns the seat to move, or NoPlayer.
func (g *Game) ActivePlayer() int { return g.activePlayer }

// InitiativeHolder returns the seat holding initiative, or NoPlayer.
func (g *Game) InitiativeHolder() int { return g.initiativeHolder }

// RecentPasses returns the number of consecutive passes.
func (g *Game) RecentPasses() int { return g.nRecentPasses }

// Waiting returns a copy of the per-player wait flags.
func (g *Game) Waiting() []bool { return append([]bool(nil), g.waiting...) }

// Autopass returns a copy of the per-player autopass flags.
func (g *Game) Autopass() []bool { return append([]bool(nil), g.autopass...) }

// GameScores returns a copy of the per-player tallies.
func (g *Game) GameScores() []Tally { return append([]Tally(nil), g.scores...) }

// Button returns player's button, or nil when unassigned.
func (g *Game) Button(player int) *button.Button { return g.buttons[player] }

// ActiveDice returns player's dice in play. The slice must not be modified.
func (g *Game) ActiveDice(player int) []*dice.Die {
	if g.active == nil {
		return nil
	}
	return g.active[player]
}

// CapturedDice returns the dice player has captured this round.
func (g *Game) CapturedDice(player int) []*dice.Die { return g.captured[player] }

// SwingRequests returns the swing letters player must choose this round.
func (g *Game) SwingRequests(player int) []string {
	return sortedKeys(g.swingRequests[player])
}

// SwingValues returns a copy of player's chosen swing values.
func (g *Game) SwingValues(player int) map[string]int {
	out := make(map[string]int, len(g.swingValues[player]))
	for k, v := range g.swingValues[player] {
		out[k] = v
	}
	return out
}

// PendingAttack returns the attack awaiting resolution, or nil.
func (g *Game) PendingAttack() *Attack { return g.attack }

// Message returns the last message for the player to move.
func (g *Game) Message() string { return g.message }

// LastActionTime is the optimistic-concurrency version of the game.
func (g *Game) LastActionTime() time.Time { return g.lastActionTime }

// IsOver reports whether the game has ended.
func (g *Game) IsOver() bool { return g.state == StateEndGame }

func (g *Game) anyWaiting() bool {
	for _, w := range g.waiting {
		if w {
			return true
		}
	}
	return false
}

func (g *Game) clearWaiting() {
	for i := range g.waiting {
		g.waiting[i] = false
	}
}

func (g *Game) touch() { g.lastActionTime = g.clock() }

// resetPlayState clears everything that lives for a single round.
func (g *Game) resetPlayState() {
	g.activePlayer = NoPlayer
	g.initiativeHolder = NoPlayer
	g.active = nil
	g.attack = nil
	g.attackCommitted = false
	g.nRecentPasses = 0
	g.turn = 0
	g.surrendered = NoPlayer
	for i := range g.captured {
		g.captured[i] = []*dice.Die{}
		g.swingRequests[i] = nil
		g.declined[i] = false
	}
	g.clearWaiting()
}

// capture moves d from active play into captor's captured dice.
func (g *Game) capture(d *dice.Die, captor int) error {
	for p, ds := range g.active {
		for i, x := range ds {
			if x != d {
				continue
			}
			g.active[p] = append(ds[:i:i], ds[i+1:]...)
			d.Captured = true
			d.Owner = captor
			d.Selected = false
			g.captured[captor] = append(g.captured[captor], d)
			return nil
		}
	}
	return fmt.Errorf("%w: Captured die does not exist.", ErrInvariant)
}

func (g *Game) reroll(d *dice.Die) { g.roller.Roll(d) }
