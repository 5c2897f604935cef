package engine

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/buttonmen/internal/game/button"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
)

// MarshalText encodes s by name so snapshots stay readable.
func (s State) MarshalText() ([]byte, error) {
	if _, ok := stateNames[s]; !ok {
		return nil, fmt.Errorf("engine: cannot encode unknown state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	parsed, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DieSnapshot is the persisted form of a die. Skills are re-derived from
// the recipe token.
type DieSnapshot struct {
	Recipe        string `json:"recipe"`
	Sides         int    `json:"sides"`
	Value         int    `json:"value"`
	Disabled      bool   `json:"disabled,omitempty"`
	Selected      bool   `json:"selected,omitempty"`
	Captured      bool   `json:"captured,omitempty"`
	Owner         int    `json:"owner"`
	OriginalOwner int    `json:"originalOwner"`
}

// ButtonSnapshot is the persisted form of a button.
type ButtonSnapshot struct {
	Name    string `json:"name"`
	Recipe  string `json:"recipe"`
	Altered bool   `json:"altered,omitempty"`
	Loaded  bool   `json:"loaded,omitempty"`
}

// Snapshot is a complete, JSON-serialisable copy of a Game.
type Snapshot struct {
	ID               string            `json:"id"`
	PlayerIDs        []string          `json:"playerIds"`
	State            State             `json:"state"`
	MaxWins          int               `json:"maxWins"`
	Buttons          []*ButtonSnapshot `json:"buttons"`
	Active           [][]DieSnapshot   `json:"active"`
	Captured         [][]DieSnapshot   `json:"captured"`
	SwingValues      []map[string]int  `json:"swingValues"`
	Waiting          []bool            `json:"waiting"`
	Autopass         []bool            `json:"autopass"`
	Scores           []Tally           `json:"scores"`
	ActivePlayer     int               `json:"activePlayer"`
	InitiativeHolder int               `json:"initiativeHolder"`
	Turn             int               `json:"turn"`
	RecentPasses     int               `json:"recentPasses"`
	Attack           *Attack           `json:"attack,omitempty"`
	AttackCommitted  bool              `json:"attackCommitted,omitempty"`
	Surrendered      int               `json:"surrendered"`
	AuxChoices       []AuxChoice       `json:"auxChoices"`
	ReservePending   []bool            `json:"reservePending"`
	Declined         []bool            `json:"declined"`
	EndLogged        bool              `json:"endLogged,omitempty"`
	Message          string            `json:"message,omitempty"`
	ChatMaxLength    int               `json:"chatMaxLength"`
	LastActionTime   time.Time         `json:"lastActionTime"`
	Log              []LogEntry        `json:"log,omitempty"`
	Chat             []ChatMessage     `json:"chat,omitempty"`
}

func snapshotDice(ds []*dice.Die) []DieSnapshot {
	out := make([]DieSnapshot, len(ds))
	for i, d := range ds {
		out[i] = DieSnapshot{
			Recipe:        d.Recipe,
			Sides:         d.Sides,
			Value:         d.Value,
			Disabled:      d.Disabled,
			Selected:      d.Selected,
			Captured:      d.Captured,
			Owner:         d.Owner,
			OriginalOwner: d.OriginalOwner,
		}
	}
	return out
}

func restoreDice(ss []DieSnapshot) ([]*dice.Die, error) {
	out := make([]*dice.Die, len(ss))
	for i, s := range ss {
		d, err := dice.ParseDie(s.Recipe)
		if err != nil {
			return nil, err
		}
		d.Sides = s.Sides
		d.Value = s.Value
		d.Disabled = s.Disabled
		d.Selected = s.Selected
		d.Captured = s.Captured
		d.Owner = s.Owner
		d.OriginalOwner = s.OriginalOwner
		out[i] = d
	}
	return out, nil
}

// Snapshot captures the full game, including undrained log and chat entries.
func (g *Game) Snapshot() Snapshot {
	n := len(g.playerIDs)
	s := Snapshot{
		ID:               g.id,
		PlayerIDs:        append([]string(nil), g.playerIDs...),
		State:            g.state,
		MaxWins:          g.maxWins,
		Buttons:          make([]*ButtonSnapshot, n),
		Captured:         make([][]DieSnapshot, n),
		SwingValues:      make([]map[string]int, n),
		Waiting:          append([]bool(nil), g.waiting...),
		Autopass:         append([]bool(nil), g.autopass...),
		Scores:           append([]Tally(nil), g.scores...),
		ActivePlayer:     g.activePlayer,
		InitiativeHolder: g.initiativeHolder,
		Turn:             g.turn,
		RecentPasses:     g.nRecentPasses,
		AttackCommitted:  g.attackCommitted,
		Surrendered:      g.surrendered,
		AuxChoices:       append([]AuxChoice(nil), g.auxChoices...),
		ReservePending:   append([]bool(nil), g.reservePending...),
		Declined:         append([]bool(nil), g.declined...),
		EndLogged:        g.endLogged,
		Message:          g.message,
		ChatMaxLength:    g.chatMax,
		LastActionTime:   g.lastActionTime,
		Log:              append([]LogEntry(nil), g.log...),
		Chat:             append([]ChatMessage(nil), g.chat...),
	}
	for p := 0; p < n; p++ {
		if b := g.buttons[p]; b != nil {
			s.Buttons[p] = &ButtonSnapshot{Name: b.Name, Recipe: b.Recipe, Altered: b.Altered, Loaded: b.Loaded()}
		}
		s.Captured[p] = snapshotDice(g.captured[p])
		s.SwingValues[p] = g.SwingValues(p)
	}
	if g.active != nil {
		s.Active = make([][]DieSnapshot, n)
		for p := 0; p < n; p++ {
			s.Active[p] = snapshotDice(g.active[p])
		}
	}
	if g.attack != nil {
		a := *g.attack
		s.Attack = &a
	}
	return s
}

// Restore rebuilds a Game from s. Only the collaborator fields of p
// (Source, Attacks, Logger, Clock) are used.
//
// Postcondition: Restore(g.Snapshot()).Snapshot() equals g.Snapshot().
func Restore(s Snapshot, p Params) (*Game, error) {
	n := len(s.PlayerIDs)
	if n < 2 {
		return nil, fmt.Errorf("%w: snapshot has %d players", ErrInvariant, n)
	}
	for name, l := range map[string]int{
		"buttons": len(s.Buttons), "captured": len(s.Captured), "swing values": len(s.SwingValues),
		"waiting": len(s.Waiting), "autopass": len(s.Autopass), "scores": len(s.Scores),
		"aux choices": len(s.AuxChoices), "reserve": len(s.ReservePending), "declined": len(s.Declined),
	} {
		if l != n {
			return nil, fmt.Errorf("%w: snapshot has %d %s entries for %d players", ErrInvariant, l, name, n)
		}
	}
	if p.Source == nil {
		return nil, fmt.Errorf("%w: nil randomness source", ErrWrongState)
	}
	p.ID = s.ID
	p.PlayerIDs = s.PlayerIDs
	p.MaxWins = s.MaxWins
	p.ChatMaxLength = s.ChatMaxLength
	g := newGame(p, n)

	g.state = s.State
	copy(g.waiting, s.Waiting)
	copy(g.autopass, s.Autopass)
	copy(g.scores, s.Scores)
	copy(g.auxChoices, s.AuxChoices)
	copy(g.reservePending, s.ReservePending)
	copy(g.declined, s.Declined)
	g.activePlayer = s.ActivePlayer
	g.initiativeHolder = s.InitiativeHolder
	g.turn = s.Turn
	g.nRecentPasses = s.RecentPasses
	g.attackCommitted = s.AttackCommitted
	g.surrendered = s.Surrendered
	g.endLogged = s.EndLogged
	g.message = s.Message
	g.lastActionTime = s.LastActionTime
	g.log = append([]LogEntry(nil), s.Log...)
	g.chat = append([]ChatMessage(nil), s.Chat...)
	if s.Attack != nil {
		a := *s.Attack
		g.attack = &a
	}

	for i := 0; i < n; i++ {
		if bs := s.Buttons[i]; bs != nil {
			b, err := button.New(bs.Name, bs.Recipe)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvariant, err)
			}
			b.Altered = bs.Altered
			if bs.Loaded {
				if err := b.Load(i); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvariant, err)
				}
			}
			g.buttons[i] = b
		}
		captured, err := restoreDice(s.Captured[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		g.captured[i] = captured
		g.swingValues[i] = map[string]int{}
		for k, v := range s.SwingValues[i] {
			g.swingValues[i][k] = v
		}
	}

	if s.Active != nil {
		if len(s.Active) != n {
			return nil, fmt.Errorf("%w: snapshot has %d active dice lists for %d players", ErrInvariant, len(s.Active), n)
		}
		g.active = make([][]*dice.Die, n)
		for i := 0; i < n; i++ {
			active, err := restoreDice(s.Active[i])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvariant, err)
			}
			g.active[i] = active
			req := map[string][]*dice.Die{}
			for _, d := range active {
				if d.IsSwing() {
					req[d.SwingType] = append(req[d.SwingType], d)
				}
			}
			g.swingRequests[i] = req
		}
	}
	return g, nil
}
