package engine

import (
	"time"

	"github.com/cory-johannsen/buttonmen/internal/game/dice"
)

// DieView is a die as shown to one player. Value and Sides are nil when
// hidden from that player.
type DieView struct {
	Recipe        string   `json:"recipe"`
	Label         string   `json:"label"`
	Value         *int     `json:"value"`
	Sides         *int     `json:"sides"`
	Skills        []string `json:"skills,omitempty"`
	Disabled      bool     `json:"disabled,omitempty"`
	Captured      bool     `json:"captured,omitempty"`
	Owner         int      `json:"owner"`
	OriginalOwner int      `json:"originalOwner"`
}

// PlayerView is one seat as shown to the requesting player.
type PlayerView struct {
	PlayerID      string         `json:"playerId"`
	Button        string         `json:"button"`
	Recipe        string         `json:"recipe"`
	Waiting       bool           `json:"waiting"`
	Autopass      bool           `json:"autopass"`
	ActiveDice    []DieView      `json:"activeDice"`
	CapturedDice  []DieView      `json:"capturedDice"`
	SwingRequests []string       `json:"swingRequests,omitempty"`
	SwingValues   map[string]int `json:"swingValues,omitempty"`
	RoundScore    *float64       `json:"roundScore"`
	GameScore     Tally          `json:"gameScore"`
}

// View is a redacted snapshot of the game for one player.
type View struct {
	GameID           string       `json:"gameId"`
	State            State        `json:"state"`
	Round            int          `json:"round"`
	MaxWins          int          `json:"maxWins"`
	Turn             int          `json:"turn"`
	ActivePlayer     int          `json:"activePlayer"`
	InitiativeHolder int          `json:"initiativeHolder"`
	ValidAttackTypes []string     `json:"validAttackTypes,omitempty"`
	Message          string       `json:"message,omitempty"`
	Players          []PlayerView `json:"players"`
	LastActionTime   time.Time    `json:"lastActionTime"`
}

// View renders the game for requester. Pass NoPlayer for a spectator.
//
// Opponent dice are hidden until some round has been won or drawn or the
// game has moved past SPECIFY_DICE. Every value is hidden while any swing
// die is still unsized; sizes stay visible wherever the die itself is.
func (g *Game) View(requester int) View {
	firstRound := true
	for _, s := range g.scores {
		if s.W > 0 || s.D > 0 {
			firstRound = false
		}
	}
	hideOpponents := firstRound && g.state <= StateSpecifyDice

	allSized := true
	for p := range g.playerIDs {
		for _, d := range g.ActiveDice(p) {
			if !d.IsSpecified() {
				allSized = false
			}
		}
	}

	v := View{
		GameID:           g.id,
		State:            g.state,
		Round:            g.RoundNumber(),
		MaxWins:          g.maxWins,
		Turn:             g.turn,
		ActivePlayer:     g.activePlayer,
		InitiativeHolder: g.initiativeHolder,
		LastActionTime:   g.lastActionTime,
		Players:          make([]PlayerView, len(g.playerIDs)),
	}
	if requester == g.activePlayer && g.state == StateStartTurn {
		for _, t := range g.ValidAttackTypes() {
			v.ValidAttackTypes = append(v.ValidAttackTypes, string(t))
		}
		v.Message = g.message
	} else if requester != NoPlayer && requester < len(g.waiting) && g.waiting[requester] {
		v.Message = g.message
	}

	scores := g.RoundScores()
	for p := range g.playerIDs {
		hideSize := hideOpponents && p != requester
		hideValue := hideSize || !allSized
		pv := PlayerView{
			PlayerID:     g.playerIDs[p],
			Waiting:      g.waiting[p],
			Autopass:     g.autopass[p],
			GameScore:    g.scores[p],
			ActiveDice:   viewDice(g.ActiveDice(p), hideSize, hideValue),
			CapturedDice: viewDice(g.captured[p], false, false),
		}
		if b := g.buttons[p]; b != nil {
			pv.Button = b.Name
			pv.Recipe = b.Recipe
		}
		if p == requester {
			pv.SwingRequests = g.SwingRequests(p)
			pv.SwingValues = g.SwingValues(p)
		}
		if !hideValue {
			s := scores[p]
			pv.RoundScore = &s
		}
		v.Players[p] = pv
	}
	return v
}

func viewDice(ds []*dice.Die, hideSize, hideValue bool) []DieView {
	out := make([]DieView, 0, len(ds))
	for _, d := range ds {
		dv := DieView{
			Recipe:        d.Recipe,
			Label:         d.Recipe,
			Disabled:      d.Disabled,
			Captured:      d.Captured,
			Owner:         d.Owner,
			OriginalOwner: d.OriginalOwner,
		}
		for _, s := range d.Skills {
			dv.Skills = append(dv.Skills, s.Name())
		}
		if !hideSize {
			dv.Label = d.Label()
			if d.IsSpecified() {
				sides := d.Sides
				dv.Sides = &sides
			}
		}
		if !hideValue && d.IsRolled() {
			val := d.Value
			dv.Value = &val
		}
		out = append(out, dv)
	}
	return out
}
